package core

import (
	"sync"
	"testing"
)

func TestCreateAndJoinRoom(t *testing.T) {
	r := NewRoomRegistry()

	roomID, code := r.CreateRoom("user-owner", "lobby")
	if !IsRoomID(roomID) {
		t.Fatalf("room id missing prefix: %q", roomID)
	}
	if !r.IsMember("user-owner", roomID) {
		t.Fatal("creator should be auto-joined")
	}

	joined, ok := r.JoinRoom("user-guest", code)
	if !ok || joined != roomID {
		t.Fatalf("join via invite = %q, %v; want %q", joined, ok, roomID)
	}
	if !r.IsMember("user-guest", roomID) {
		t.Fatal("guest should be a member after join")
	}

	if _, ok := r.JoinRoom("user-x", "bogus-code"); ok {
		t.Fatal("join with invalid code should fail")
	}
}

func TestLeaveRoomKeepsRoomAlive(t *testing.T) {
	r := NewRoomRegistry()
	roomID, _ := r.CreateRoom("user-a", "ghost town")

	r.LeaveRoom("user-a", roomID)
	if r.IsMember("user-a", roomID) {
		t.Fatal("member not removed")
	}

	// Empty rooms persist for the process lifetime.
	if _, ok := r.Get(roomID); !ok {
		t.Fatal("empty room must not be deleted")
	}
}

func TestRemoveFromAllRooms(t *testing.T) {
	r := NewRoomRegistry()
	room1, _ := r.CreateRoom("user-a", "one")
	room2, code2 := r.CreateRoom("user-b", "two")
	r.JoinRoom("user-a", code2)

	r.RemoveFromAllRooms("user-a")

	if r.IsMember("user-a", room1) || r.IsMember("user-a", room2) {
		t.Fatal("user-a should be gone from every room")
	}
	if !r.IsMember("user-b", room2) {
		t.Fatal("other members must be unaffected")
	}
}

func TestDMSessionIsIdempotent(t *testing.T) {
	r := NewRoomRegistry()

	first := r.GetOrCreateDMSession("user-aaa", "user-bbb")
	second := r.GetOrCreateDMSession("user-bbb", "user-aaa")
	if first != second {
		t.Fatalf("DM session not idempotent: %q vs %q", first, second)
	}

	room, ok := r.Get(first)
	if !ok || room.MemberCount() != 2 {
		t.Fatalf("DM session should have exactly two members, got %d", room.MemberCount())
	}

	other, ok := r.OtherDMParty(first, "user-aaa")
	if !ok || other != "user-bbb" {
		t.Fatalf("OtherDMParty = %q, %v; want user-bbb", other, ok)
	}
}

func TestRoomsExcludesDMSessions(t *testing.T) {
	r := NewRoomRegistry()
	r.CreateRoom("user-a", "public")
	r.GetOrCreateDMSession("user-a", "user-b")

	rooms := r.Rooms()
	if len(rooms) != 1 || rooms[0].Name != "public" {
		t.Fatalf("Rooms = %+v, want only the public room", rooms)
	}
	if r.RoomCount() != 1 {
		t.Fatalf("RoomCount = %d, want 1", r.RoomCount())
	}
}

// Membership removal must never corrupt a concurrent iteration over the
// same member set.
func TestConcurrentMembershipMutationAndIteration(t *testing.T) {
	r := NewRoomRegistry()
	roomID, code := r.CreateRoom("user-owner", "busy")
	for i := range 50 {
		r.JoinRoom(memberID(i), code)
	}
	room, _ := r.Get(roomID)

	var wg sync.WaitGroup
	stop := make(chan struct{})

	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-stop:
				return
			default:
				for _, id := range room.Members() {
					_ = id
				}
			}
		}
	}()

	for i := range 50 {
		r.LeaveRoom(memberID(i), roomID)
	}
	close(stop)
	wg.Wait()

	if got := room.MemberCount(); got != 1 {
		t.Fatalf("member count after removals = %d, want 1 (owner)", got)
	}
}

func memberID(i int) string {
	return "user-" + string(rune('a'+i%26)) + string(rune('a'+i/26))
}
