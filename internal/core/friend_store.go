package core

import "github.com/puzpuzpuz/xsync/v3"

// FriendStatus is the state of a pairwise relationship.
type FriendStatus string

const (
	FriendPending  FriendStatus = "PENDING"
	FriendAccepted FriendStatus = "ACCEPTED"
	FriendBlocked  FriendStatus = "BLOCKED"
)

// Friendship is the single record per unordered pair. UserA sorts before
// UserB; RequesterID is whoever issued the most recent state-changing
// action. Absence of a record means no relationship.
type Friendship struct {
	UserA       string
	UserB       string
	RequesterID string
	Status      FriendStatus
}

// Other returns the counterpart of clientID in the pair.
func (f Friendship) Other(clientID string) string {
	if f.UserA == clientID {
		return f.UserB
	}
	return f.UserA
}

// FriendStore keeps friendship records keyed by the canonical pair key.
// Mutations go through MapOf.Compute so each state transition is atomic
// with respect to its pair.
type FriendStore struct {
	friendships *xsync.MapOf[string, Friendship]
}

func NewFriendStore() *FriendStore {
	return &FriendStore{friendships: xsync.NewMapOf[string, Friendship]()}
}

// Get returns the friendship record for the pair, if any.
func (s *FriendStore) Get(a, b string) (Friendship, bool) {
	return s.friendships.Load(PairKey(a, b))
}

// Status returns the relationship status for the pair, if any.
func (s *FriendStore) Status(a, b string) (FriendStatus, bool) {
	fs, ok := s.Get(a, b)
	if !ok {
		return "", false
	}
	return fs.Status, true
}

// Request creates a PENDING record with requesterID as the initiator.
// ACCEPTED and BLOCKED records are left untouched; an existing PENDING
// record keeps its original requester, so a counter-request from the
// pending target reports failure and the counterpart must use accept.
func (s *FriendStore) Request(requesterID, targetID string) bool {
	key := PairKey(requesterID, targetID)
	created := false
	s.friendships.Compute(key, func(old Friendship, loaded bool) (Friendship, bool) {
		if loaded && (old.Status == FriendAccepted || old.Status == FriendBlocked || old.Status == FriendPending) {
			return old, false
		}
		a, b := requesterID, targetID
		if a > b {
			a, b = b, a
		}
		created = true
		return Friendship{UserA: a, UserB: b, RequesterID: requesterID, Status: FriendPending}, false
	})
	return created
}

// Accept transitions a PENDING record to ACCEPTED. Only the non-requester
// may accept; anything else leaves the record untouched and reports false.
func (s *FriendStore) Accept(acceptorID, requesterID string) bool {
	key := PairKey(acceptorID, requesterID)
	fs, ok := s.friendships.Compute(key, func(old Friendship, loaded bool) (Friendship, bool) {
		if !loaded {
			return old, true
		}
		if old.Status == FriendPending && old.RequesterID == requesterID {
			old.Status = FriendAccepted
		}
		return old, false
	})
	return ok && fs.Status == FriendAccepted
}

// RejectOrCancel removes a PENDING record. Either side may call it: the
// target rejects, the requester cancels.
func (s *FriendStore) RejectOrCancel(removerID, otherID string) bool {
	key := PairKey(removerID, otherID)
	removed := false
	s.friendships.Compute(key, func(old Friendship, loaded bool) (Friendship, bool) {
		if loaded && old.Status == FriendPending {
			removed = true
			return old, true
		}
		return old, !loaded
	})
	return removed
}

// Remove deletes an ACCEPTED friendship. BLOCKED records stay.
func (s *FriendStore) Remove(removerID, friendID string) bool {
	key := PairKey(removerID, friendID)
	removed := false
	s.friendships.Compute(key, func(old Friendship, loaded bool) (Friendship, bool) {
		if loaded && old.Status == FriendAccepted {
			removed = true
			return old, true
		}
		return old, !loaded
	})
	return removed
}

// Block overwrites any prior state with a terminal BLOCKED record owned by
// the blocker.
func (s *FriendStore) Block(blockerID, targetID string) {
	a, b := blockerID, targetID
	if a > b {
		a, b = b, a
	}
	s.friendships.Store(PairKey(blockerID, targetID), Friendship{
		UserA:       a,
		UserB:       b,
		RequesterID: blockerID,
		Status:      FriendBlocked,
	})
}

// Friends lists the counterparts of all ACCEPTED records involving clientID.
func (s *FriendStore) Friends(clientID string) []string {
	return s.collect(clientID, func(fs Friendship) (string, bool) {
		if fs.Status != FriendAccepted {
			return "", false
		}
		return fs.Other(clientID), true
	})
}

// PendingIncoming lists users who have a request pending toward clientID.
func (s *FriendStore) PendingIncoming(clientID string) []string {
	return s.collect(clientID, func(fs Friendship) (string, bool) {
		if fs.Status != FriendPending || fs.RequesterID == clientID {
			return "", false
		}
		return fs.RequesterID, true
	})
}

// PendingOutgoing lists users clientID has a request pending toward.
func (s *FriendStore) PendingOutgoing(clientID string) []string {
	return s.collect(clientID, func(fs Friendship) (string, bool) {
		if fs.Status != FriendPending || fs.RequesterID != clientID {
			return "", false
		}
		return fs.Other(clientID), true
	})
}

func (s *FriendStore) collect(clientID string, pick func(Friendship) (string, bool)) []string {
	var out []string
	s.friendships.Range(func(_ string, fs Friendship) bool {
		if fs.UserA != clientID && fs.UserB != clientID {
			return true
		}
		if id, ok := pick(fs); ok {
			out = append(out, id)
		}
		return true
	})
	return out
}
