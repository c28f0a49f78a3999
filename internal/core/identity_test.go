package core

import (
	"strings"
	"testing"
)

func TestPairKeyIsOrderIndependent(t *testing.T) {
	pairs := [][2]string{
		{"user-aaa", "user-bbb"},
		{"user-zzz", "user-aaa"},
		{"user-1", "user-2"},
	}
	for _, p := range pairs {
		if PairKey(p[0], p[1]) != PairKey(p[1], p[0]) {
			t.Fatalf("PairKey(%q, %q) != PairKey(%q, %q)", p[0], p[1], p[1], p[0])
		}
	}

	if PairKey("user-b", "user-a") != "user-a:user-b" {
		t.Fatalf("pair key not in canonical order: %q", PairKey("user-b", "user-a"))
	}
}

func TestDMSessionIDIsOrderIndependent(t *testing.T) {
	a, b := "user-aaa", "user-bbb"
	if DMSessionID(a, b) != DMSessionID(b, a) {
		t.Fatalf("DM session id differs by argument order")
	}
	if !IsDMID(DMSessionID(a, b)) {
		t.Fatalf("DM session id missing dm prefix: %q", DMSessionID(a, b))
	}
}

func TestIdentifierNamespaces(t *testing.T) {
	userID := NewUserID()
	if !strings.HasPrefix(userID, "user-") {
		t.Fatalf("user id missing prefix: %q", userID)
	}

	roomID := NewRoomID()
	if !IsRoomID(roomID) {
		t.Fatalf("room id missing prefix: %q", roomID)
	}
	if IsDMID(roomID) {
		t.Fatalf("room id must not look like a DM id: %q", roomID)
	}

	code := NewInviteCode()
	if len(code) != inviteCodeLen {
		t.Fatalf("invite code length = %d, want %d", len(code), inviteCodeLen)
	}
	if IsRoomID(code) || IsDMID(code) {
		t.Fatalf("invite code must not be usable as a room id: %q", code)
	}
}

func TestNewUserIDsAreUnique(t *testing.T) {
	seen := make(map[string]struct{})
	for range 1000 {
		id := NewUserID()
		if _, dup := seen[id]; dup {
			t.Fatalf("duplicate user id generated: %q", id)
		}
		seen[id] = struct{}{}
	}
}
