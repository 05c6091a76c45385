package memory

import (
	"errors"
	"sort"
	"sync"

	"github.com/adwski/webrtc-meeting/backend/model"
)

var (
	ErrRoomNotFound  = errors.New("room is not found")
	ErrAlreadyInRoom = errors.New("connection is already a member of another room")
)

type entry struct {
	member model.Member
	seq    uint64
}

// MemStore is the room registry. A single mutex guards every room and the
// connection index, so readers always see a whole join or leave.
type MemStore struct {
	mx    *sync.RWMutex
	db    map[string]map[string]*entry
	conns map[string]string // connID -> roomID
	seq   uint64
}

func NewMemStore() *MemStore {
	return &MemStore{
		mx:    &sync.RWMutex{},
		db:    make(map[string]map[string]*entry),
		conns: make(map[string]string),
	}
}

// Join registers the connection in the room, creating the room if needed,
// and returns the members that were there before it. Joining the same room
// again refreshes the identity and keeps media flags.
func (ms *MemStore) Join(roomID, connID, identity string) ([]model.Member, error) {
	ms.mx.Lock()
	defer ms.mx.Unlock()

	if current, ok := ms.conns[connID]; ok && current != roomID {
		return nil, ErrAlreadyInRoom
	}

	room, ok := ms.db[roomID]
	if !ok {
		room = make(map[string]*entry)
		ms.db[roomID] = room
	}

	if e, ok := room[connID]; ok {
		e.member.Identity = identity
	} else {
		ms.seq++
		room[connID] = &entry{
			member: model.NewMember(connID, identity),
			seq:    ms.seq,
		}
		ms.conns[connID] = roomID
	}
	return snapshot(room, connID), nil
}

// Leave removes the connection from its room and drops the room once empty.
// It reports false when the connection was not a member of any room.
func (ms *MemStore) Leave(connID string) (model.Departure, bool) {
	ms.mx.Lock()
	defer ms.mx.Unlock()

	roomID, ok := ms.conns[connID]
	if !ok {
		return model.Departure{}, false
	}
	delete(ms.conns, connID)

	room := ms.db[roomID]
	e, ok := room[connID]
	if !ok {
		return model.Departure{}, false
	}
	delete(room, connID)
	if len(room) == 0 {
		delete(ms.db, roomID)
	}
	return model.Departure{
		RoomID:    roomID,
		Member:    e.member,
		Remaining: snapshot(room, ""),
	}, true
}

// MembersOf returns the members of the room in join order.
func (ms *MemStore) MembersOf(roomID string) []model.Member {
	ms.mx.RLock()
	defer ms.mx.RUnlock()

	return snapshot(ms.db[roomID], "")
}

// IsMember reports whether the connection currently belongs to the room.
func (ms *MemStore) IsMember(roomID, connID string) bool {
	ms.mx.RLock()
	defer ms.mx.RUnlock()

	return ms.conns[connID] == roomID && roomID != ""
}

// UpdateStatus sets media flags; it is a no-op for non-members.
func (ms *MemStore) UpdateStatus(connID string, micOn, camOn bool) bool {
	ms.mx.Lock()
	defer ms.mx.Unlock()

	e, ok := ms.lookup(connID)
	if !ok {
		return false
	}
	e.member.MicOn = micOn
	e.member.CamOn = camOn
	return true
}

// SetScreenSharing records the last reported screen-share state of a member;
// it is a no-op for non-members.
func (ms *MemStore) SetScreenSharing(connID string, sharing bool) bool {
	ms.mx.Lock()
	defer ms.mx.Unlock()

	e, ok := ms.lookup(connID)
	if !ok {
		return false
	}
	e.member.ScreenSharing = sharing
	return true
}

func (ms *MemStore) GetRoom(roomID string) (*model.Room, error) {
	ms.mx.RLock()
	defer ms.mx.RUnlock()

	room, ok := ms.db[roomID]
	if !ok {
		return nil, ErrRoomNotFound
	}
	return &model.Room{
		ID:      roomID,
		Members: snapshot(room, ""),
	}, nil
}

func (ms *MemStore) ListRooms() []model.RoomSummary {
	ms.mx.RLock()
	defer ms.mx.RUnlock()

	out := make([]model.RoomSummary, 0, len(ms.db))
	for id, room := range ms.db {
		out = append(out, model.RoomSummary{ID: id, Members: len(room)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// lookup must be called with ms.mx held.
func (ms *MemStore) lookup(connID string) (*entry, bool) {
	roomID, ok := ms.conns[connID]
	if !ok {
		return nil, false
	}
	e, ok := ms.db[roomID][connID]
	return e, ok
}

func snapshot(room map[string]*entry, exclude string) []model.Member {
	entries := make([]*entry, 0, len(room))
	for connID, e := range room {
		if connID != exclude {
			entries = append(entries, e)
		}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].seq < entries[j].seq })

	out := make([]model.Member, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.member)
	}
	return out
}
