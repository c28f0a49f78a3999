package core

import "github.com/puzpuzpuz/xsync/v3"

// Room is a named member set. DM sessions are degenerate two-member rooms
// living in the same registry, distinguished by id prefix. The member set
// is a concurrent map so an in-flight fan-out iterating members sees either
// the old or new membership, never a corrupted iteration.
type Room struct {
	ID         string
	Name       string
	InviteCode string
	members    *xsync.MapOf[string, struct{}]
}

// Members returns a snapshot of the member identities.
func (r *Room) Members() []string {
	out := make([]string, 0, r.members.Size())
	r.members.Range(func(id string, _ struct{}) bool {
		out = append(out, id)
		return true
	})
	return out
}

// MemberCount returns the current member set size.
func (r *Room) MemberCount() int {
	return r.members.Size()
}

// RoomInfo is the read-only projection used by LIST and the status API.
type RoomInfo struct {
	ID          string
	Name        string
	MemberCount int
}

// RoomRegistry holds rooms, the invite-code lookup, and DM-session
// derivation. Resolver-only writes, concurrent reads from the fan-out pool.
// Rooms persist for the process lifetime once created; there is no eviction
// of empty rooms.
type RoomRegistry struct {
	rooms       *xsync.MapOf[string, *Room]
	inviteCodes *xsync.MapOf[string, string]
}

func NewRoomRegistry() *RoomRegistry {
	return &RoomRegistry{
		rooms:       xsync.NewMapOf[string, *Room](),
		inviteCodes: xsync.NewMapOf[string, string](),
	}
}

// CreateRoom creates a room with the owner as sole member and returns its
// id and invite code.
func (r *RoomRegistry) CreateRoom(ownerID, name string) (string, string) {
	room := &Room{
		ID:         NewRoomID(),
		Name:       name,
		InviteCode: NewInviteCode(),
		members:    xsync.NewMapOf[string, struct{}](),
	}
	room.members.Store(ownerID, struct{}{})

	r.rooms.Store(room.ID, room)
	r.inviteCodes.Store(room.InviteCode, room.ID)
	return room.ID, room.InviteCode
}

// JoinRoom adds the client to the room addressed by the invite code and
// returns the room id, or false if the code resolves to nothing.
func (r *RoomRegistry) JoinRoom(clientID, inviteCode string) (string, bool) {
	roomID, ok := r.inviteCodes.Load(inviteCode)
	if !ok {
		return "", false
	}
	room, ok := r.rooms.Load(roomID)
	if !ok {
		return "", false
	}
	room.members.Store(clientID, struct{}{})
	return room.ID, true
}

// LeaveRoom removes the client from one room. The room itself stays.
func (r *RoomRegistry) LeaveRoom(clientID, roomID string) {
	if room, ok := r.rooms.Load(roomID); ok {
		room.members.Delete(clientID)
	}
}

// RemoveFromAllRooms drops the client from every member set. Used on
// disconnect; safe against concurrent fan-out iteration.
func (r *RoomRegistry) RemoveFromAllRooms(clientID string) {
	r.rooms.Range(func(_ string, room *Room) bool {
		room.members.Delete(clientID)
		return true
	})
}

// IsMember reports whether the client belongs to the room.
func (r *RoomRegistry) IsMember(clientID, roomID string) bool {
	room, ok := r.rooms.Load(roomID)
	if !ok {
		return false
	}
	_, in := room.members.Load(clientID)
	return in
}

// Get returns the room for an id (room or DM session).
func (r *RoomRegistry) Get(roomID string) (*Room, bool) {
	return r.rooms.Load(roomID)
}

// RoomName returns the display name for a room id.
func (r *RoomRegistry) RoomName(roomID string) (string, bool) {
	room, ok := r.rooms.Load(roomID)
	if !ok {
		return "", false
	}
	return room.Name, true
}

// Rooms lists regular rooms (DM sessions excluded).
func (r *RoomRegistry) Rooms() []RoomInfo {
	var out []RoomInfo
	r.rooms.Range(func(id string, room *Room) bool {
		if IsRoomID(id) {
			out = append(out, RoomInfo{ID: id, Name: room.Name, MemberCount: room.MemberCount()})
		}
		return true
	})
	return out
}

// RoomCount returns the number of regular rooms.
func (r *RoomRegistry) RoomCount() int {
	return len(r.Rooms())
}

// GetOrCreateDMSession resolves the canonical DM session for the unordered
// pair, creating it on first use. Repeated calls with either argument order
// return the same id.
func (r *RoomRegistry) GetOrCreateDMSession(a, b string) string {
	dmID := DMSessionID(a, b)
	room, _ := r.rooms.LoadOrCompute(dmID, func() *Room {
		members := xsync.NewMapOf[string, struct{}]()
		members.Store(a, struct{}{})
		members.Store(b, struct{}{})
		return &Room{
			ID:      dmID,
			Name:    "DM: " + a + " / " + b,
			members: members,
		}
	})
	return room.ID
}

// OtherDMParty returns the other member of a DM session.
func (r *RoomRegistry) OtherDMParty(dmID, clientID string) (string, bool) {
	room, ok := r.rooms.Load(dmID)
	if !ok {
		return "", false
	}
	var other string
	room.members.Range(func(id string, _ struct{}) bool {
		if id != clientID {
			other = id
			return false
		}
		return true
	})
	return other, other != ""
}
