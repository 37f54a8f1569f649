package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"roomchat/internal/chat"
	"roomchat/internal/contextmgr"
	"roomchat/internal/i18n"
	"roomchat/internal/metrics"
	"roomchat/internal/orchestrator"
	"roomchat/internal/provider"
	"roomchat/internal/roomstore"
	"roomchat/internal/ui"

	"github.com/chzyer/readline"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
)

// onboardingVersion 首次设置向导版本 / first-run setup version
const onboardingVersion = "1.0"

type appDeps struct {
	Rooms     *roomstore.RoomStore
	Settings  *roomstore.SettingsStore
	Provider  provider.Provider
	Registry  prometheus.Gatherer
	Metrics   *metrics.Metrics
	// Tokenizer 为空时使用默认 tiktoken / nil uses the default tiktoken tokenizer
	Tokenizer *contextmgr.Tokenizer
	Input     lineInput
	Out       io.Writer
	I18n      *i18n.I18n
	Logger    zerolog.Logger
	CacheTTL  time.Duration
	Clock     func() time.Time
	// Plain 关闭 markdown 渲染（非 TTY）/ disables markdown rendering
	Plain     bool
	Width     int
}

type app struct {
	orch     *orchestrator.Orchestrator
	rooms    *roomstore.RoomStore
	settings *roomstore.SettingsStore
	registry prometheus.Gatherer
	in       lineInput
	out      io.Writer
	tr       *i18n.I18n
	log      zerolog.Logger
	clock    func() time.Time
	theme    ui.Theme
	plain    bool
	width    int
}

func newApp(d appDeps) *app {
	a := &app{
		rooms:    d.Rooms,
		settings: d.Settings,
		registry: d.Registry,
		in:       d.Input,
		out:      d.Out,
		tr:       d.I18n,
		log:      d.Logger,
		clock:    d.Clock,
		plain:    d.Plain,
		width:    d.Width,
	}
	if a.tr == nil {
		a.tr = i18n.Global()
	}
	if a.clock == nil {
		a.clock = time.Now
	}
	if a.width <= 0 {
		a.width = 80
	}
	a.theme = ui.ForSetting(a.settings.Settings().Theme)

	a.orch = orchestrator.New(d.Rooms, d.Settings, d.Provider, orchestrator.Options{
		Confirm: confirmPrompt(d.Input, a.tr),
		OnCredentialRequired: func(string) {
			a.println(a.theme.WarningStyle.Render(a.tr.T("cli.credential_required")))
		},
		Clock:     d.Clock,
		I18n:      a.tr,
		Metrics:   d.Metrics,
		Tokenizer: d.Tokenizer,
		CacheTTL:  d.CacheTTL,
		Logger:    d.Logger,
	})

	d.Rooms.Subscribe(func(ev roomstore.Event) {
		if !ev.Persisted {
			a.println(a.theme.ErrorStyle.Render(a.tr.T("cli.save_failed")))
		}
	})
	return a
}

func (a *app) run(ctx context.Context) {
	a.println(a.theme.TitleStyle.Render(a.tr.T("cli.welcome")))
	if len(a.rooms.Rooms()) == 0 {
		a.println(a.tr.T("cli.rooms_empty"))
	}
	if !a.settings.Settings().HasCredential() {
		a.println(a.theme.WarningStyle.Render(a.tr.T("cli.credential_required")))
	}
	a.reportQuota()

	for {
		line, err := a.in.ReadLine(a.prompt())
		if err != nil {
			switch {
			case errors.Is(err, readline.ErrInterrupt):
				fmt.Fprintln(a.out)
				continue
			case errors.Is(err, io.EOF):
				a.println(a.tr.T("cli.bye"))
				return
			default:
				a.log.Error().Err(err).Msg("read input failed")
				return
			}
		}
		if a.handleLine(ctx, line) {
			a.println(a.tr.T("cli.bye"))
			return
		}
	}
}

// handleLine runs one input line and reports whether to exit.
func (a *app) handleLine(ctx context.Context, line string) bool {
	input := strings.TrimSpace(line)
	if input == "" {
		return false
	}
	if strings.HasPrefix(input, "/") {
		return a.handleCommand(ctx, input)
	}
	a.send(ctx, input)
	return false
}

func (a *app) prompt() string {
	room, ok := a.orch.CurrentRoom()
	if !ok {
		return "> "
	}
	return ui.Truncate(room.Name, 24) + " > "
}

func (a *app) currentRoom() (chat.Room, bool) {
	room, ok := a.orch.CurrentRoom()
	if !ok {
		a.println(a.tr.T("cli.no_room"))
	}
	return room, ok
}

func (a *app) send(ctx context.Context, content string) {
	room, ok := a.currentRoom()
	if !ok {
		return
	}
	a.println(a.theme.MutedStyle.Render(a.tr.T("cli.thinking")))
	a.report(a.orch.Send(ctx, room.ID, content))
}

// report prints the result of Send or Regenerate.
func (a *app) report(out orchestrator.Outcome) {
	switch out.Status {
	case orchestrator.StatusReplied, orchestrator.StatusFailed:
		a.printMessage(out.Reply, out.Status == orchestrator.StatusFailed)
		return
	}
	switch out.Reason {
	case orchestrator.ReasonBusy:
		a.println(a.tr.T("cli.busy"))
	case orchestrator.ReasonDeclined:
		a.println(a.tr.T("cli.cancelled"))
	case orchestrator.ReasonNoRoom, orchestrator.ReasonRoomGone:
		a.println(a.tr.T("cli.no_room"))
	}
}

func (a *app) println(s string) {
	fmt.Fprintln(a.out, s)
}

func (a *app) printf(key string, args ...any) {
	fmt.Fprintln(a.out, a.tr.T(key, args...))
}
