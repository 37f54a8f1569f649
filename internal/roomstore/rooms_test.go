package roomstore

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"roomchat/internal/chat"
	"roomchat/internal/storage"

	"github.com/rs/zerolog"
)

var testNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func newTestStores(t *testing.T, backing storage.Backing) (*RoomStore, *SettingsStore) {
	t.Helper()
	s := NewStore(backing, Options{Logger: zerolog.Nop(), Now: func() time.Time { return testNow }})
	return NewRoomStore(s), NewSettingsStore(s)
}

func room(id string, msgs ...chat.Message) chat.Room {
	if msgs == nil {
		msgs = []chat.Message{}
	}
	return chat.Room{
		ID:           id,
		Name:         "room " + id,
		Mode:         chat.ModeSimple,
		SimpleConfig: &chat.SimpleConfig{Name: id},
		ModelConfig:  chat.NewRoomModelConfig(""),
		Messages:     msgs,
	}
}

func msg(id string, role chat.Role, content string, ts int64) chat.Message {
	return chat.Message{ID: id, Role: role, Content: content, Timestamp: ts}
}

func TestGetRooms_EmptyBacking(t *testing.T) {
	rs, _ := newTestStores(t, storage.NewMemoryBacking(0))
	rooms := rs.GetRooms()
	if rooms == nil || len(rooms) != 0 {
		t.Fatalf("GetRooms=%#v, want empty slice", rooms)
	}
}

func TestGetRooms_CorruptValue(t *testing.T) {
	b := storage.NewMemoryBacking(0)
	_ = b.Set(KeyRooms, "{broken")
	rs, _ := newTestStores(t, b)
	if rooms := rs.GetRooms(); len(rooms) != 0 {
		t.Fatalf("GetRooms=%+v, want empty", rooms)
	}
}

func TestSaveRooms_RoundTrip(t *testing.T) {
	rs, _ := newTestStores(t, storage.NewMemoryBacking(0))
	want := []chat.Room{
		room("a", msg("m1", chat.RoleUser, "hi", 1), msg("m2", chat.RoleAssistant, "hello", 2)),
		room("b"),
	}
	if !rs.SaveRooms(want) {
		t.Fatal("SaveRooms returned false")
	}
	if got := rs.GetRooms(); !reflect.DeepEqual(got, want) {
		t.Fatalf("GetRooms=%+v\nwant %+v", got, want)
	}
	if got := rs.Rooms(); !reflect.DeepEqual(got, want) {
		t.Fatalf("Rooms=%+v", got)
	}
}

func TestSaveRooms_QuotaFullKeepsPreviousList(t *testing.T) {
	b := storage.NewMemoryBacking(4096)
	rs, _ := newTestStores(t, b)

	prior := []chat.Room{room("a", msg("m1", chat.RoleUser, "hi", 1))}
	if !rs.SaveRooms(prior) {
		t.Fatal("initial SaveRooms failed")
	}
	_ = b.SetDisposable("cache.models", strings.Repeat("x", 10))
	// 用不可清理的数据填满剩余空间 / fill the rest with non-disposable data
	used, _ := storage.Used(b)
	free := (b.Capacity() - used) / 2
	if err := b.Set("f", strings.Repeat("y", int(free)-1)); err != nil {
		t.Fatalf("fill: %v", err)
	}

	bigger := append(prior, room("b", msg("m2", chat.RoleUser, strings.Repeat("z", 500), 2)))
	if rs.SaveRooms(bigger) {
		t.Fatal("SaveRooms should fail when the backing is full")
	}
	if got := rs.GetRooms(); !reflect.DeepEqual(got, prior) {
		t.Fatalf("GetRooms after failed save=%+v, want prior list", got)
	}
	if _, ok, _ := b.Get("cache.models"); ok {
		t.Fatal("disposable entry should have been purged during recovery")
	}
	// 内存状态仍是用户看到的最新列表 / in-memory state keeps what the user sees
	if got := rs.Rooms(); len(got) != 2 {
		t.Fatalf("in-memory rooms=%d, want 2", len(got))
	}
	logs := rs.ErrorLogs()
	if len(logs) == 0 || logs[0].Key != KeyRooms {
		t.Fatalf("error log=%+v, want entries for %s", logs, KeyRooms)
	}
}

func TestSaveRooms_RecoversAfterPurge(t *testing.T) {
	b := storage.NewMemoryBacking(2048)
	rs, _ := newTestStores(t, b)
	if err := b.SetDisposable("cache.models", strings.Repeat("x", 900)); err != nil {
		t.Fatalf("seed cache: %v", err)
	}
	rooms := []chat.Room{room("a", msg("m1", chat.RoleUser, strings.Repeat("h", 200), 1))}
	if !rs.SaveRooms(rooms) {
		t.Fatal("SaveRooms should succeed after purging disposable data")
	}
	if got := rs.GetRooms(); len(got) != 1 {
		t.Fatalf("GetRooms=%d rooms, want 1", len(got))
	}
	if len(rs.ErrorLogs()) != 1 {
		t.Fatalf("error log=%+v, want the overflow recorded once", rs.ErrorLogs())
	}
}

func TestUpdateRoom(t *testing.T) {
	rs, _ := newTestStores(t, storage.NewMemoryBacking(0))
	rs.SaveRooms([]chat.Room{room("a"), room("b")})

	updated, err := rs.UpdateRoom("b", func(r *chat.Room) bool {
		r.Name = "renamed"
		r.ID = "hijack"
		return true
	})
	if err != nil {
		t.Fatalf("UpdateRoom: %v", err)
	}
	if updated.ID != "b" || updated.Name != "renamed" {
		t.Fatalf("updated=%+v", updated)
	}
	if got := rs.GetRooms(); got[1].Name != "renamed" || got[1].ID != "b" {
		t.Fatalf("persisted=%+v", got[1])
	}

	if _, err := rs.UpdateRoom("missing", func(*chat.Room) bool { return true }); !errors.Is(err, ErrRoomNotFound) {
		t.Fatalf("err=%v, want ErrRoomNotFound", err)
	}
	if _, err := rs.UpdateRoom("a", func(*chat.Room) bool { return false }); !errors.Is(err, ErrUnchanged) {
		t.Fatalf("err=%v, want ErrUnchanged", err)
	}
}

func TestUpdateRoom_NotPersistedKeepsMemory(t *testing.T) {
	b := storage.NewMemoryBacking(1024)
	rs, _ := newTestStores(t, b)
	rs.SaveRooms([]chat.Room{room("a")})

	_, err := rs.UpdateRoom("a", func(r *chat.Room) bool {
		r.Messages = append(r.Messages, msg("m1", chat.RoleUser, strings.Repeat("q", 1000), 1))
		return true
	})
	if !errors.Is(err, ErrNotPersisted) {
		t.Fatalf("err=%v, want ErrNotPersisted", err)
	}
	if r, _ := rs.Room("a"); len(r.Messages) != 1 {
		t.Fatalf("in-memory messages=%d, want 1", len(r.Messages))
	}
	if got := rs.GetRooms(); len(got[0].Messages) != 0 {
		t.Fatalf("persisted messages=%d, want 0", len(got[0].Messages))
	}
}

func TestRoomCopiesAreIsolated(t *testing.T) {
	rs, _ := newTestStores(t, storage.NewMemoryBacking(0))
	rs.SaveRooms([]chat.Room{room("a", msg("m1", chat.RoleUser, "hi", 1))})

	r, _ := rs.Room("a")
	r.Messages[0].Content = "mutated"
	if again, _ := rs.Room("a"); again.Messages[0].Content != "hi" {
		t.Fatal("caller mutation leaked into the store")
	}
}

func TestAddAndDeleteRoom(t *testing.T) {
	rs, _ := newTestStores(t, storage.NewMemoryBacking(0))
	rs.SaveRooms([]chat.Room{room("a")})

	added, err := rs.AddRoom(room("b"))
	if err != nil {
		t.Fatalf("AddRoom: %v", err)
	}
	if added.SortOrder != 2 {
		t.Fatalf("SortOrder=%d, want 2", added.SortOrder)
	}
	rs.SaveCurrentRoomID("b")
	if err := rs.DeleteRoom("b"); err != nil {
		t.Fatalf("DeleteRoom: %v", err)
	}
	if len(rs.Rooms()) != 1 {
		t.Fatalf("rooms=%d after delete, want 1", len(rs.Rooms()))
	}
	if rs.CurrentRoomID() != "" {
		t.Fatal("current pointer should be cleared with its room")
	}
	if _, ok := rs.GetCurrentRoomID(); ok {
		t.Fatal("persisted current pointer should be removed")
	}
	if err := rs.DeleteRoom("b"); !errors.Is(err, ErrRoomNotFound) {
		t.Fatalf("err=%v, want ErrRoomNotFound", err)
	}
}

func TestCurrentRoomID(t *testing.T) {
	b := storage.NewMemoryBacking(0)
	rs, _ := newTestStores(t, b)
	if _, ok := rs.GetCurrentRoomID(); ok {
		t.Fatal("no pointer expected on empty backing")
	}
	if !rs.SaveCurrentRoomID("room-1") {
		t.Fatal("SaveCurrentRoomID failed")
	}
	if id, ok := rs.GetCurrentRoomID(); !ok || id != "room-1" {
		t.Fatalf("GetCurrentRoomID=%q,%v", id, ok)
	}

	// 以纯 id 存储 / persisted as the bare id
	if raw, _, _ := b.Get(KeyCurrentRoomID); raw != "room-1" {
		t.Fatalf("persisted pointer=%q, want room-1", raw)
	}

	reloaded, _ := newTestStores(t, b)
	reloaded.Load()
	if reloaded.CurrentRoomID() != "room-1" {
		t.Fatalf("CurrentRoomID after Load=%q", reloaded.CurrentRoomID())
	}
}

func TestCurrentRoomID_QuotedLegacyValue(t *testing.T) {
	b := storage.NewMemoryBacking(0)
	_ = b.Set(KeyCurrentRoomID, `"room-2"`)
	rs, _ := newTestStores(t, b)
	if id, ok := rs.GetCurrentRoomID(); !ok || id != "room-2" {
		t.Fatalf("GetCurrentRoomID=%q,%v", id, ok)
	}
}

func TestCurrentRoomID_AfterMigration(t *testing.T) {
	dump := `{"chappy_rooms":"[{\"id\":\"room-1\",\"name\":\"first\",\"mode\":\"simple\",\"messages\":[]}]","chappy_current_room_id":"room-1"}`
	path := filepath.Join(t.TempDir(), "localStorage.json")
	if err := os.WriteFile(path, []byte(dump), 0o644); err != nil {
		t.Fatal(err)
	}
	b := storage.NewMemoryBacking(0)
	if _, err := storage.MigrateFromJSON(path, b); err != nil {
		t.Fatalf("MigrateFromJSON: %v", err)
	}

	rs, _ := newTestStores(t, b)
	rs.Load()
	if rs.CurrentRoomID() != "room-1" {
		t.Fatalf("CurrentRoomID after migration=%q, want room-1", rs.CurrentRoomID())
	}
	if _, ok := rs.Room("room-1"); !ok {
		t.Fatal("migrated room missing")
	}

	rs.SaveCurrentRoomID("room-1")
	if raw, _, _ := b.Get(KeyCurrentRoomID); raw != "room-1" {
		t.Fatalf("pointer rewritten as %q", raw)
	}
}

func TestSubscribe(t *testing.T) {
	rs, ss := newTestStores(t, storage.NewMemoryBacking(0))
	var events []Event
	unsubscribe := rs.Subscribe(func(ev Event) { events = append(events, ev) })

	rs.SaveRooms([]chat.Room{room("a")})
	rs.UpdateRoom("a", func(r *chat.Room) bool { r.Name = "x"; return true })
	ss.SaveSettings(chat.DefaultSettings())
	unsubscribe()
	rs.SaveRooms(nil)

	want := []Event{
		{Kind: EventRoomsReplaced, Persisted: true},
		{Kind: EventRoomUpdated, RoomID: "a", Persisted: true},
		{Kind: EventSettings, Persisted: true},
	}
	if !reflect.DeepEqual(events, want) {
		t.Fatalf("events=%+v\nwant %+v", events, want)
	}
}

func TestErrorLogCapped(t *testing.T) {
	rs, _ := newTestStores(t, storage.NewMemoryBacking(0))
	for i := 0; i < maxErrorLogs+10; i++ {
		rs.recordError("write", KeyRooms, errors.New("boom"))
	}
	if got := len(rs.ErrorLogs()); got != maxErrorLogs {
		t.Fatalf("error log len=%d, want %d", got, maxErrorLogs)
	}
	rs.ClearErrorLogs()
	if len(rs.ErrorLogs()) != 0 {
		t.Fatal("ClearErrorLogs left entries")
	}
}
