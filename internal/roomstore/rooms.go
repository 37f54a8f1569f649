package roomstore

import (
	"errors"
	"strings"
	"sync"

	"roomchat/internal/chat"
	"roomchat/internal/codec"
)

var (
	// ErrRoomNotFound 房间不存在 / no room with that id
	ErrRoomNotFound = errors.New("room not found")
	// ErrUnchanged 更新函数放弃了修改 / the update function made no change
	ErrUnchanged = errors.New("room unchanged")
	// ErrNotPersisted 内存已更新但写入失败 / applied in memory, backing write failed
	ErrNotPersisted = errors.New("room change not persisted")
)

// RoomStore owns the authoritative in-memory room collection and its
// persisted mirror. Callers only ever receive copies.
type RoomStore struct {
	*Store

	mu        sync.Mutex
	rooms     []chat.Room
	currentID string
}

// NewRoomStore creates a RoomStore over s. Call Load to read persisted state.
func NewRoomStore(s *Store) *RoomStore {
	return &RoomStore{Store: s, rooms: []chat.Room{}}
}

// Load 从后端加载房间与当前房间 / fill the in-memory state from the backing.
func (r *RoomStore) Load() {
	rooms := r.GetRooms()
	current, _ := r.GetCurrentRoomID()

	r.mu.Lock()
	r.rooms = rooms
	r.currentID = current
	r.mu.Unlock()
	r.log.Debug().Int("rooms", len(rooms)).Str("current", current).Msg("rooms loaded")
}

// GetRooms decodes the persisted room list. Missing or corrupt data yields
// an empty list.
func (r *RoomStore) GetRooms() []chat.Room {
	raw, ok := r.read(KeyRooms)
	return codec.Decode(r.log, KeyRooms, raw, ok, []chat.Room{})
}

// SaveRooms replaces the in-memory collection and persists it. It reports
// whether the full list was written; on false the backing still holds the
// previous complete list.
func (r *RoomStore) SaveRooms(rooms []chat.Room) bool {
	r.mu.Lock()
	r.rooms = chat.CloneRooms(rooms)
	if r.rooms == nil {
		r.rooms = []chat.Room{}
	}
	ok := r.persistLocked()
	r.mu.Unlock()

	r.emit(Event{Kind: EventRoomsReplaced, Persisted: ok})
	return ok
}

func (r *RoomStore) persistLocked() bool {
	return r.write(KeyRooms, codec.Encode(r.rooms), false)
}

// Rooms returns a copy of the in-memory collection.
func (r *RoomStore) Rooms() []chat.Room {
	r.mu.Lock()
	defer r.mu.Unlock()
	return chat.CloneRooms(r.rooms)
}

// Room returns a copy of the room with id.
func (r *RoomStore) Room(id string) (chat.Room, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if i := r.indexLocked(id); i >= 0 {
		return r.rooms[i].Clone(), true
	}
	return chat.Room{}, false
}

func (r *RoomStore) indexLocked(id string) int {
	for i := range r.rooms {
		if r.rooms[i].ID == id {
			return i
		}
	}
	return -1
}

// UpdateRoom runs fn on a copy of the latest room and, when fn returns
// true, replaces the whole room and persists the collection. The returned
// error is ErrRoomNotFound, ErrUnchanged or ErrNotPersisted; with
// ErrNotPersisted the in-memory change still took effect.
func (r *RoomStore) UpdateRoom(id string, fn func(room *chat.Room) bool) (chat.Room, error) {
	r.mu.Lock()
	i := r.indexLocked(id)
	if i < 0 {
		r.mu.Unlock()
		return chat.Room{}, ErrRoomNotFound
	}
	room := r.rooms[i].Clone()
	if !fn(&room) {
		r.mu.Unlock()
		return room, ErrUnchanged
	}
	// id 不可变 / id is immutable
	room.ID = id
	r.rooms[i] = room.Clone()
	ok := r.persistLocked()
	r.mu.Unlock()

	r.emit(Event{Kind: EventRoomUpdated, RoomID: id, Persisted: ok})
	if !ok {
		return room, ErrNotPersisted
	}
	return room, nil
}

// AddRoom appends room. A zero SortOrder becomes len+1.
func (r *RoomStore) AddRoom(room chat.Room) (chat.Room, error) {
	r.mu.Lock()
	if room.SortOrder == 0 {
		room.SortOrder = len(r.rooms) + 1
	}
	if room.Messages == nil {
		room.Messages = []chat.Message{}
	}
	r.rooms = append(r.rooms, room.Clone())
	ok := r.persistLocked()
	r.mu.Unlock()

	r.emit(Event{Kind: EventRoomAdded, RoomID: room.ID, Persisted: ok})
	if !ok {
		return room, ErrNotPersisted
	}
	return room, nil
}

// DeleteRoom removes the room with id. When it was the current room the
// pointer is cleared.
func (r *RoomStore) DeleteRoom(id string) error {
	r.mu.Lock()
	i := r.indexLocked(id)
	if i < 0 {
		r.mu.Unlock()
		return ErrRoomNotFound
	}
	r.rooms = append(r.rooms[:i:i], r.rooms[i+1:]...)
	ok := r.persistLocked()
	clearCurrent := r.currentID == id
	r.mu.Unlock()

	r.emit(Event{Kind: EventRoomDeleted, RoomID: id, Persisted: ok})
	if clearCurrent {
		r.SaveCurrentRoomID("")
	}
	if !ok {
		return ErrNotPersisted
	}
	return nil
}

// GetCurrentRoomID reads the persisted current-room pointer, stored as the
// plain id. A JSON-quoted value from older builds is still accepted.
func (r *RoomStore) GetCurrentRoomID() (string, bool) {
	raw, ok := r.read(KeyCurrentRoomID)
	if !ok {
		return "", false
	}
	id := strings.TrimSpace(raw)
	if strings.HasPrefix(id, `"`) {
		id = codec.Decode(r.log, KeyCurrentRoomID, id, true, "")
	}
	return id, id != ""
}

// SaveCurrentRoomID sets the current-room pointer. An empty id removes it.
func (r *RoomStore) SaveCurrentRoomID(id string) bool {
	r.mu.Lock()
	r.currentID = id
	var ok bool
	if id == "" {
		ok = r.remove(KeyCurrentRoomID)
	} else {
		ok = r.write(KeyCurrentRoomID, id, false)
	}
	r.mu.Unlock()

	r.emit(Event{Kind: EventCurrentRoom, RoomID: id, Persisted: ok})
	return ok
}

// CurrentRoomID returns the in-memory current-room pointer.
func (r *RoomStore) CurrentRoomID() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.currentID
}
