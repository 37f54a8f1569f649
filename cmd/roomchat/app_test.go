package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"roomchat/internal/chat"
	"roomchat/internal/contextmgr"
	"roomchat/internal/i18n"
	"roomchat/internal/metrics"
	"roomchat/internal/provider"
	"roomchat/internal/roomstore"
	"roomchat/internal/storage"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
)

const testKey = "sk-test-1234567890"

type fakeProvider struct {
	mu      sync.Mutex
	replies []string
	calls   int
	models  []provider.ModelInfo
}

func (p *fakeProvider) Name() string { return "fake" }

func (p *fakeProvider) Complete(ctx context.Context, req provider.CompletionRequest) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := p.calls
	p.calls++
	if n < len(p.replies) {
		return p.replies[n], nil
	}
	return "ok", nil
}

func (p *fakeProvider) ListModels(ctx context.Context, apiKey string) ([]provider.ModelInfo, error) {
	return p.models, nil
}

type harness struct {
	app      *app
	out      *bytes.Buffer
	rooms    *roomstore.RoomStore
	settings *roomstore.SettingsStore
	prov     *fakeProvider
}

// newHarness builds an app whose confirmations read answers from input.
func newHarness(t *testing.T, input string, withKey bool) *harness {
	t.Helper()
	clock := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	var mu sync.Mutex
	now := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		clock = clock.Add(time.Second)
		return clock
	}

	store := roomstore.NewStore(storage.NewMemoryBacking(0), roomstore.Options{Logger: zerolog.Nop(), Now: now})
	h := &harness{
		out:      &bytes.Buffer{},
		rooms:    roomstore.NewRoomStore(store),
		settings: roomstore.NewSettingsStore(store),
		prov:     &fakeProvider{},
	}
	if withKey {
		h.settings.Update(func(s *chat.Settings) { s.APIKey = testKey })
	}
	registry := prometheus.NewRegistry()
	h.app = newApp(appDeps{
		Rooms:     h.rooms,
		Settings:  h.settings,
		Provider:  h.prov,
		Registry:  registry,
		Metrics:   metrics.New(registry),
		Tokenizer: contextmgr.NewHeuristicTokenizer(),
		Input:     newBasicLineInput(strings.NewReader(input), nil),
		Out:       h.out,
		I18n:      i18n.New("en"),
		Logger:    zerolog.Nop(),
		Clock:     now,
		Plain:     true,
	})
	return h
}

func (h *harness) exec(t *testing.T, lines ...string) string {
	t.Helper()
	h.out.Reset()
	for _, line := range lines {
		if h.app.handleLine(context.Background(), line) {
			t.Fatalf("%q unexpectedly requested exit", line)
		}
	}
	return h.out.String()
}

func (h *harness) current(t *testing.T) chat.Room {
	t.Helper()
	room, ok := h.rooms.Room(h.rooms.CurrentRoomID())
	if !ok {
		t.Fatal("no current room")
	}
	return room
}

func TestRoomCommands(t *testing.T) {
	h := newHarness(t, "", true)

	out := h.exec(t, "/new Alpha", "/newpro Beta")
	if !strings.Contains(out, "Created room Alpha") || !strings.Contains(out, "Created room Beta") {
		t.Fatalf("unexpected output: %q", out)
	}
	if got := h.current(t); got.Name != "Beta" || got.Mode != chat.ModePro {
		t.Fatalf("current room = %+v", got)
	}

	out = h.exec(t, "/rooms")
	if !strings.Contains(out, "[1] Alpha") || !strings.Contains(out, "[2]") || !strings.Contains(out, "Beta") {
		t.Fatalf("/rooms output: %q", out)
	}

	out = h.exec(t, "/use 1")
	if !strings.Contains(out, "Switched to room Alpha") {
		t.Fatalf("/use output: %q", out)
	}

	h.exec(t, "/rename Gamma", "/persona name Ann", "/persona tone gentle")
	room := h.current(t)
	if room.Name != "Gamma" {
		t.Fatalf("name = %q", room.Name)
	}
	if room.SimpleConfig == nil || room.SimpleConfig.Name != "Ann" || room.SimpleConfig.Tone != "gentle" {
		t.Fatalf("simple config = %+v", room.SimpleConfig)
	}

	h.exec(t, "/mode pro", "/prompt Answer briefly.")
	room = h.current(t)
	if room.Mode != chat.ModePro || room.ProConfig == nil || room.ProConfig.SystemPrompt != "Answer briefly." {
		t.Fatalf("pro room = %+v", room)
	}
	if room.SimpleConfig == nil || room.SimpleConfig.Name != "Ann" {
		t.Fatal("simple config should survive mode switch")
	}

	out = h.exec(t, "/use nope")
	if !strings.Contains(out, "Room not found: nope") {
		t.Fatalf("/use unknown output: %q", out)
	}
}

func TestUsageAndUnknown(t *testing.T) {
	h := newHarness(t, "", true)
	cases := map[string]string{
		"/new":            "Usage: /new <name>",
		"/mode weird":     "Usage: /mode simple|pro",
		"/theme neon":     "Usage: /theme auto|light|dark",
		"/bogus":          "Unknown command: /bogus",
		"/history":        "No room selected",
		"/edit 1":         "Usage: /edit <n> <text>",
		"/import":         "Usage: /import <file>",
		"/persona mood x": "No room selected",
	}
	for line, want := range cases {
		if out := h.exec(t, line); !strings.Contains(out, want) {
			t.Errorf("%s: output %q, want %q", line, out, want)
		}
	}
}

func TestSendAndHistory(t *testing.T) {
	h := newHarness(t, "", true)
	h.prov.replies = []string{"hi there"}
	h.exec(t, "/new Alpha")

	out := h.exec(t, "  hello  ")
	if !strings.Contains(out, "hi there") {
		t.Fatalf("reply not printed: %q", out)
	}
	room := h.current(t)
	if len(room.Messages) != 2 || room.Messages[0].Content != "hello" {
		t.Fatalf("messages = %+v", room.Messages)
	}

	out = h.exec(t, "/history")
	if !strings.Contains(out, "#1") || !strings.Contains(out, "#2") || !strings.Contains(out, "hi there") {
		t.Fatalf("/history output: %q", out)
	}
}

func TestSendWithoutKey(t *testing.T) {
	h := newHarness(t, "", false)
	h.exec(t, "/new Alpha")
	out := h.exec(t, "hello")
	if !strings.Contains(out, "An API key is required") {
		t.Fatalf("output %q", out)
	}
	if h.prov.calls != 0 {
		t.Fatal("provider should not be called without a key")
	}
	if len(h.current(t).Messages) != 0 {
		t.Fatal("no message should be added without a key")
	}
}

func TestKeyCommand(t *testing.T) {
	h := newHarness(t, "", false)

	out := h.exec(t, "/key nope")
	if !strings.Contains(out, "does not look like an API key") {
		t.Fatalf("invalid key output: %q", out)
	}
	if h.settings.Settings().HasCredential() {
		t.Fatal("invalid key must not be stored")
	}

	out = h.exec(t, "/key "+testKey)
	if !strings.Contains(out, "API key saved.") {
		t.Fatalf("key output: %q", out)
	}
	s := h.settings.Settings()
	if s.APIKey != testKey {
		t.Fatalf("api key = %q", s.APIKey)
	}
	if !s.Onboarding.Completed || s.Onboarding.Version != onboardingVersion {
		t.Fatalf("onboarding = %+v", s.Onboarding)
	}
}

func TestEditDeleteRegen(t *testing.T) {
	h := newHarness(t, "y\nn\ny\n", true)
	h.prov.replies = []string{"first", "second"}
	h.exec(t, "/new Alpha", "hello")

	out := h.exec(t, "/edit 1 changed text")
	if !strings.Contains(out, "Message edited.") {
		t.Fatalf("/edit output: %q", out)
	}
	if got := h.current(t).Messages[0].Content; got != "changed text" {
		t.Fatalf("edited content = %q", got)
	}

	out = h.exec(t, "/edit 9 x")
	if !strings.Contains(out, "No message #9") {
		t.Fatalf("/edit missing output: %q", out)
	}

	// y: 删除第二条 / deletes the reply
	out = h.exec(t, "/delete 2")
	if !strings.Contains(out, "Message deleted.") || len(h.current(t).Messages) != 1 {
		t.Fatalf("/delete output: %q", out)
	}

	// n: 取消 / declined
	out = h.exec(t, "/delete 1")
	if !strings.Contains(out, "Cancelled.") || len(h.current(t).Messages) != 1 {
		t.Fatalf("/delete declined output: %q", out)
	}

	// y: 从第一条重新生成 / regenerate from the only message
	out = h.exec(t, "/regen 1")
	if !strings.Contains(out, "second") {
		t.Fatalf("/regen output: %q", out)
	}
	room := h.current(t)
	if len(room.Messages) != 1 || room.Messages[0].Role != chat.RoleAssistant {
		t.Fatalf("messages after regen = %+v", room.Messages)
	}
}

func TestDropRoom(t *testing.T) {
	h := newHarness(t, "yes\n", true)
	h.exec(t, "/new Alpha")
	out := h.exec(t, "/droproom")
	if !strings.Contains(out, "Room deleted.") {
		t.Fatalf("/droproom output: %q", out)
	}
	if len(h.rooms.Rooms()) != 0 || h.rooms.CurrentRoomID() != "" {
		t.Fatal("room should be gone and unselected")
	}
}

func TestSearchCommand(t *testing.T) {
	h := newHarness(t, "", true)
	h.prov.replies = []string{"the weather is sunny"}
	h.exec(t, "/new Alpha", "how is the weather?")

	out := h.exec(t, "/search SUNNY")
	if !strings.Contains(out, "Alpha") || !strings.Contains(out, "sunny") {
		t.Fatalf("/search output: %q", out)
	}
	out = h.exec(t, "/search volcano")
	if !strings.Contains(out, "No matches.") {
		t.Fatalf("/search empty output: %q", out)
	}
}

func TestModelCommands(t *testing.T) {
	h := newHarness(t, "", true)
	h.prov.models = []provider.ModelInfo{
		{ID: "gpt-old", Created: 1},
		{ID: "gpt-new", Created: 5},
	}
	h.exec(t, "/new Alpha")

	out := h.exec(t, "/models")
	if !strings.Contains(out, "[1] gpt-new") || !strings.Contains(out, "[2] gpt-old") {
		t.Fatalf("/models output: %q", out)
	}

	h.exec(t, "/model 2 0.5")
	mc := h.current(t).ModelConfig
	if mc.Model != "gpt-old" || mc.Temperature != 0.5 {
		t.Fatalf("model config = %+v", mc)
	}

	h.exec(t, "/model custom-model")
	if got := h.current(t).ModelConfig.Model; got != "custom-model" {
		t.Fatalf("model = %q", got)
	}

	out = h.exec(t, "/model gpt-new 7")
	if !strings.Contains(out, "Usage:") {
		t.Fatalf("out of range temperature accepted: %q", out)
	}
}

func TestContextStorageStats(t *testing.T) {
	h := newHarness(t, "", true)
	h.exec(t, "/new Alpha", "hello")

	out := h.exec(t, "/context")
	if !strings.Contains(out, "Next request: 2 messages") {
		t.Fatalf("/context output: %q", out)
	}

	out = h.exec(t, "/storage")
	if !strings.Contains(out, "Storage:") || !strings.Contains(out, "MiB") {
		t.Fatalf("/storage output: %q", out)
	}

	out = h.exec(t, "/stats")
	if !strings.Contains(out, "roomchat_completions_total") || !strings.Contains(out, `outcome="replied"`) {
		t.Fatalf("/stats output: %q", out)
	}

	out = h.exec(t, "/cleanup")
	if !strings.Contains(out, "cached entries") {
		t.Fatalf("/cleanup output: %q", out)
	}
}

func TestExportImportRoundTrip(t *testing.T) {
	src := newHarness(t, "", true)
	src.prov.replies = []string{"pong"}
	src.exec(t, "/new Alpha", "ping", "/theme dark")

	path := filepath.Join(t.TempDir(), "backup.json")
	out := src.exec(t, "/export "+path)
	if !strings.Contains(out, "Exported 1 rooms") {
		t.Fatalf("/export output: %q", out)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(data), testKey) {
		t.Fatal("backup must not contain the api key")
	}

	dst := newHarness(t, "", false)
	out = dst.exec(t, "/import "+path)
	if !strings.Contains(out, "Imported 1 rooms.") {
		t.Fatalf("/import output: %q", out)
	}
	rooms := dst.rooms.Rooms()
	if len(rooms) != 1 || rooms[0].Name != "Alpha" || len(rooms[0].Messages) != 2 {
		t.Fatalf("imported rooms = %+v", rooms)
	}
	if got := dst.settings.Settings().Theme; got != chat.ThemeDark {
		t.Fatalf("theme = %q", got)
	}

	bad := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(bad, []byte("not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	out = dst.exec(t, "/import "+bad)
	if !strings.Contains(out, "Import failed") {
		t.Fatalf("bad import output: %q", out)
	}
	if len(dst.rooms.Rooms()) != 1 {
		t.Fatal("failed import must not change rooms")
	}
}

func TestRunStopsOnExitAndEOF(t *testing.T) {
	h := newHarness(t, "", true)
	h.app.in = newBasicLineInput(strings.NewReader("/new Alpha\n/exit\n/new Never\n"), nil)
	h.app.run(context.Background())
	if !strings.Contains(h.out.String(), "Bye.") {
		t.Fatalf("run output: %q", h.out.String())
	}
	if len(h.rooms.Rooms()) != 1 {
		t.Fatalf("commands after /exit ran: %d rooms", len(h.rooms.Rooms()))
	}

	h = newHarness(t, "", true)
	h.app.in = newBasicLineInput(strings.NewReader("/new Alpha"), nil)
	h.app.run(context.Background())
	if len(h.rooms.Rooms()) != 1 || !strings.Contains(h.out.String(), "Bye.") {
		t.Fatalf("final line without newline should run before EOF: %q", h.out.String())
	}
}
