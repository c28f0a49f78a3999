package core

import (
	"strings"

	"github.com/google/uuid"
	"github.com/lithammer/shortuuid/v4"
)

// Identifier namespaces. Room ids and DM session ids share the room
// registry but are distinguished by prefix so handlers can branch on chat
// vs. DM semantics. Invite codes are a separate namespace and are never
// valid room ids.
const (
	userIDPrefix = "user-"
	roomIDPrefix = "room-"
	dmIDPrefix   = "dm-"

	inviteCodeLen = 8
)

// NewUserID generates a fresh session identity, unique for the process
// lifetime while the client is online.
func NewUserID() string {
	return userIDPrefix + uuid.NewString()[:8]
}

// NewRoomID generates a room identifier.
func NewRoomID() string {
	return roomIDPrefix + uuid.NewString()
}

// NewInviteCode generates a short opaque join token.
func NewInviteCode() string {
	return shortuuid.New()[:inviteCodeLen]
}

// IsRoomID reports whether id addresses a regular room.
func IsRoomID(id string) bool {
	return strings.HasPrefix(id, roomIDPrefix)
}

// IsDMID reports whether id addresses a DM session.
func IsDMID(id string) bool {
	return strings.HasPrefix(id, dmIDPrefix)
}

// DMSessionID derives the canonical id for the unordered pair of
// identities: the lexicographically smaller one comes first, so both
// parties resolve to the same session regardless of who initiates.
func DMSessionID(a, b string) string {
	if a > b {
		a, b = b, a
	}
	return dmIDPrefix + a + "-" + b
}

// PairKey is the canonical order-independent key for a pair of identities,
// used to address friendships.
func PairKey(a, b string) string {
	if a > b {
		a, b = b, a
	}
	return a + ":" + b
}
