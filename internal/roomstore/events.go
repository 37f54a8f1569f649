package roomstore

// EventKind names what changed.
type EventKind string

const (
	EventRoomsReplaced EventKind = "rooms_replaced"
	EventRoomAdded     EventKind = "room_added"
	EventRoomUpdated   EventKind = "room_updated"
	EventRoomDeleted   EventKind = "room_deleted"
	EventCurrentRoom   EventKind = "current_room"
	EventSettings      EventKind = "settings"
)

// Event is emitted after every in-memory mutation. Persisted reports whether
// the backing write succeeded; the in-memory state changed either way.
type Event struct {
	Kind      EventKind
	RoomID    string
	Persisted bool
}

// Subscribe registers fn for change events and returns its unsubscribe
// function. fn runs synchronously on the mutating goroutine, after the store
// lock is released, so it may read the store.
func (s *Store) Subscribe(fn func(Event)) func() {
	s.subMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.subMu.Unlock()

	return func() {
		s.subMu.Lock()
		delete(s.subs, id)
		s.subMu.Unlock()
	}
}

func (s *Store) emit(ev Event) {
	s.subMu.Lock()
	fns := make([]func(Event), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subMu.Unlock()

	for _, fn := range fns {
		fn(ev)
	}
}
