// Package store persists engine snapshots. The codec is a fixed-layout
// binary record; two backends are provided, SQLite for single-node hosts
// and Redis for hosts that already run one.
//
// Every store treats the persisted data as advisory: validation failures
// degrade to an empty friend list or an absent snapshot, never to a fatal
// error.
package store

import (
	"encoding/binary"
	"fmt"
	"time"

	"github.com/lorabot/lorabot/internal/mesh"
	"github.com/lorabot/lorabot/internal/pet"
)

// Binary layout, big endian:
//
//	[0]     codec version
//	[1]     state byte
//	[2:10]  last activity, unix milliseconds
//	[10]    friend count
//	then per friend: 4 bytes node id, 1 byte encounters, 8 bytes last seen
const (
	codecVersion     = 1
	headerSize       = 11
	friendRecordSize = 13
)

// EncodeSnapshot serializes snap. The friend list is clamped to capacity so
// the declared count always matches the encoded records.
func EncodeSnapshot(snap *pet.Snapshot) []byte {
	friends := snap.Friends
	if len(friends) > pet.MaxFriends {
		friends = friends[:pet.MaxFriends]
	}

	buf := make([]byte, headerSize+friendRecordSize*len(friends))
	buf[0] = codecVersion
	buf[1] = byte(snap.State)
	binary.BigEndian.PutUint64(buf[2:10], uint64(snap.LastActivity.UnixMilli()))
	buf[10] = byte(len(friends))

	off := headerSize
	for _, f := range friends {
		binary.BigEndian.PutUint32(buf[off:off+4], uint32(f.ID))
		buf[off+4] = f.Encounters
		binary.BigEndian.PutUint64(buf[off+5:off+13], uint64(f.LastSeen.UnixMilli()))
		off += friendRecordSize
	}
	return buf
}

// DecodeSnapshot parses data. An unreadable header is a hard error. A
// header that declares more friend bytes than are present (or a count over
// capacity) salvages the state and activity time, discards the friend list
// wholesale, and reports pet.ErrCorruptFriends.
func DecodeSnapshot(data []byte) (*pet.Snapshot, error) {
	if len(data) < headerSize {
		return nil, fmt.Errorf("snapshot undersized: %d bytes", len(data))
	}
	if data[0] != codecVersion {
		return nil, fmt.Errorf("unknown snapshot version %d", data[0])
	}

	snap := &pet.Snapshot{
		State:        pet.State(data[1]),
		LastActivity: time.UnixMilli(int64(binary.BigEndian.Uint64(data[2:10]))),
	}

	count := int(data[10])
	if count > pet.MaxFriends || len(data) != headerSize+friendRecordSize*count {
		return snap, fmt.Errorf("declared %d friends in %d bytes: %w",
			count, len(data), pet.ErrCorruptFriends)
	}

	snap.Friends = make([]pet.Friend, 0, count)
	off := headerSize
	for i := 0; i < count; i++ {
		snap.Friends = append(snap.Friends, pet.Friend{
			ID:         mesh.NodeID(binary.BigEndian.Uint32(data[off : off+4])),
			Encounters: data[off+4],
			LastSeen:   time.UnixMilli(int64(binary.BigEndian.Uint64(data[off+5 : off+13]))),
		})
		off += friendRecordSize
	}
	return snap, nil
}
