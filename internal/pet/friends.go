package pet

import (
	"time"

	"github.com/lorabot/lorabot/internal/mesh"
)

// MaxFriends bounds the friend list. The original companion ran on a
// microcontroller; the cap is kept so snapshots stay a fixed, small size.
const MaxFriends = 8

// Friend is one remembered peer.
type Friend struct {
	ID         mesh.NodeID
	Encounters uint8
	LastSeen   time.Time
}

// FriendList is a bounded, insertion-ordered set of peers deduplicated by
// node id. Once full, new distinct ids are dropped; existing entries keep
// accumulating encounters.
//
// Not safe for concurrent use; the engine owns it and mutates it only from
// within a scheduler pass.
type FriendList struct {
	friends []Friend
}

// NewFriendList returns an empty list.
func NewFriendList() *FriendList {
	return &FriendList{friends: make([]Friend, 0, MaxFriends)}
}

// Observe records a sighting of id at now. A known id gets its encounter
// count bumped (saturating) and its last-seen time refreshed; a new id is
// appended if capacity allows and silently dropped otherwise.
func (l *FriendList) Observe(id mesh.NodeID, now time.Time) {
	for i := range l.friends {
		if l.friends[i].ID == id {
			if l.friends[i].Encounters < ^uint8(0) {
				l.friends[i].Encounters++
			}
			l.friends[i].LastSeen = now
			return
		}
	}
	if len(l.friends) < MaxFriends {
		l.friends = append(l.friends, Friend{ID: id, Encounters: 1, LastSeen: now})
	}
}

// IsFriend reports whether id has been encountered at least bondThreshold
// times.
func (l *FriendList) IsFriend(id mesh.NodeID, bondThreshold uint8) bool {
	for i := range l.friends {
		if l.friends[i].ID == id {
			return l.friends[i].Encounters >= bondThreshold
		}
	}
	return false
}

// Len returns the number of remembered peers.
func (l *FriendList) Len() int {
	return len(l.friends)
}

// Friends returns a copy of the list in insertion order.
func (l *FriendList) Friends() []Friend {
	out := make([]Friend, len(l.friends))
	copy(out, l.friends)
	return out
}

// Replace swaps in a restored list, truncating at capacity. Used when
// loading a snapshot.
func (l *FriendList) Replace(friends []Friend) {
	if len(friends) > MaxFriends {
		friends = friends[:MaxFriends]
	}
	l.friends = l.friends[:0]
	l.friends = append(l.friends, friends...)
}
