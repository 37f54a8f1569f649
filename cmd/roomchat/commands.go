package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"roomchat/internal/chat"
	"roomchat/internal/orchestrator"
	"roomchat/internal/roomstore"
	"roomchat/internal/ui"
)

var commandNames = []string{
	"/rooms", "/new", "/newpro", "/use", "/rename", "/persona", "/prompt", "/mode",
	"/model", "/history", "/edit", "/delete", "/regen", "/droproom", "/search",
	"/key", "/models", "/context", "/storage", "/cleanup", "/export", "/import",
	"/theme", "/stats", "/help", "/exit",
}

// handleCommand runs a slash command and reports whether to exit.
func (a *app) handleCommand(ctx context.Context, input string) bool {
	cmd, rest := splitCommand(input)
	switch cmd {
	case "/exit", "/quit":
		return true
	case "/help":
		a.println(a.tr.T("cli.help"))
	case "/rooms":
		a.printRooms()
	case "/new", "/newpro":
		a.cmdNew(cmd, rest)
	case "/use":
		a.cmdUse(rest)
	case "/rename":
		a.cmdRename(rest)
	case "/persona":
		a.cmdPersona(rest)
	case "/prompt":
		a.cmdPrompt(rest)
	case "/mode":
		a.cmdMode(rest)
	case "/model":
		a.cmdModel(ctx, rest)
	case "/history":
		if room, ok := a.currentRoom(); ok {
			a.printHistory(room)
		}
	case "/edit":
		a.cmdEdit(rest)
	case "/delete":
		a.cmdDelete(ctx, rest)
	case "/regen":
		a.cmdRegen(ctx, rest)
	case "/droproom":
		a.cmdDropRoom(ctx)
	case "/search":
		a.cmdSearch(rest)
	case "/key":
		a.cmdKey(rest)
	case "/models":
		a.cmdModels(ctx)
	case "/context":
		a.cmdContext()
	case "/storage":
		a.printStorage()
	case "/cleanup":
		a.printf("cli.cleanup", a.rooms.Cleanup())
	case "/export":
		a.cmdExport(rest)
	case "/import":
		a.cmdImport(rest)
	case "/theme":
		a.cmdTheme(rest)
	case "/stats":
		a.printStats()
	default:
		a.printf("cli.unknown_command", cmd)
	}
	return false
}

func splitCommand(input string) (string, string) {
	input = strings.TrimSpace(input)
	cmd, rest, _ := strings.Cut(input, " ")
	return strings.ToLower(cmd), strings.TrimSpace(rest)
}

func (a *app) usage(s string) {
	a.printf("cli.usage", s)
}

func (a *app) cmdNew(cmd, name string) {
	if name == "" {
		a.usage(cmd + " <name>")
		return
	}
	draft := orchestrator.RoomDraft{Name: name, Mode: chat.ModeSimple}
	if cmd == "/newpro" {
		draft.Mode = chat.ModePro
	}
	if def := a.settings.Settings().DefaultModel; def != "" {
		mc := chat.NewRoomModelConfig(def)
		draft.ModelConfig = &mc
	}
	room, err := a.orch.CreateRoom(draft)
	if err != nil && !errors.Is(err, roomstore.ErrNotPersisted) {
		a.log.Error().Err(err).Msg("create room failed")
		return
	}
	a.printf("cli.room_created", room.Name)
}

// resolveRoom 按编号、id 或名称查找房间
// resolveRoom finds a room by list number, id, or case-insensitive name.
func resolveRoom(rooms []chat.Room, ref string) (chat.Room, bool) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return chat.Room{}, false
	}
	rooms = sortedRooms(rooms)
	if n, err := strconv.Atoi(ref); err == nil {
		if n >= 1 && n <= len(rooms) {
			return rooms[n-1], true
		}
	}
	for _, r := range rooms {
		if r.ID == ref {
			return r, true
		}
	}
	for _, r := range rooms {
		if strings.EqualFold(r.Name, ref) {
			return r, true
		}
	}
	return chat.Room{}, false
}

func (a *app) cmdUse(ref string) {
	if ref == "" {
		a.usage("/use <n|id|name>")
		return
	}
	room, ok := resolveRoom(a.rooms.Rooms(), ref)
	if !ok {
		a.printf("cli.room_not_found", ref)
		return
	}
	a.orch.SelectRoom(room.ID)
	a.printf("cli.room_selected", room.Name)
}

func (a *app) updateCurrent(d orchestrator.RoomDraft) {
	room, ok := a.currentRoom()
	if !ok {
		return
	}
	if _, err := a.orch.UpdateRoom(room.ID, d); err != nil && !errors.Is(err, roomstore.ErrNotPersisted) {
		a.printf("cli.room_not_found", room.ID)
		return
	}
	a.println(a.tr.T("cli.room_updated"))
}

func (a *app) cmdRename(name string) {
	if name == "" {
		a.usage("/rename <name>")
		return
	}
	a.updateCurrent(orchestrator.RoomDraft{Name: name})
}

func (a *app) cmdPersona(rest string) {
	field, value, _ := strings.Cut(rest, " ")
	value = strings.TrimSpace(value)
	room, ok := a.currentRoom()
	if !ok {
		return
	}
	sc := chat.SimpleConfig{}
	if room.SimpleConfig != nil {
		sc = *room.SimpleConfig
	}
	switch strings.ToLower(field) {
	case "name":
		sc.Name = value
	case "background":
		sc.Background = value
	case "personality":
		sc.Personality = value
	case "tone":
		sc.Tone = value
	case "example", "example_speech":
		sc.ExampleSpeech = value
	default:
		a.usage("/persona name|background|personality|tone|example <value>")
		return
	}
	a.updateCurrent(orchestrator.RoomDraft{SimpleConfig: &sc})
}

func (a *app) cmdPrompt(text string) {
	a.updateCurrent(orchestrator.RoomDraft{ProConfig: &chat.ProConfig{SystemPrompt: text}})
}

func (a *app) cmdMode(mode string) {
	switch chat.Mode(strings.ToLower(mode)) {
	case chat.ModeSimple:
		a.updateCurrent(orchestrator.RoomDraft{Mode: chat.ModeSimple})
	case chat.ModePro:
		a.updateCurrent(orchestrator.RoomDraft{Mode: chat.ModePro})
	default:
		a.usage("/mode simple|pro")
	}
}

// resolveModelTarget 支持模型 id 或 /models 列表中的编号
// resolveModelTarget accepts a model id or a number from the /models list.
func resolveModelTarget(raw string, available []string) (string, error) {
	raw = strings.TrimSpace(raw)
	if unquoted, err := strconv.Unquote(raw); err == nil {
		raw = strings.TrimSpace(unquoted)
	}
	if raw == "" {
		return "", fmt.Errorf("missing model")
	}
	for _, model := range available {
		if strings.EqualFold(strings.TrimSpace(model), raw) {
			return strings.TrimSpace(model), nil
		}
	}
	if index, err := strconv.Atoi(raw); err == nil {
		if index < 1 || index > len(available) {
			return "", fmt.Errorf("index out of range")
		}
		return strings.TrimSpace(available[index-1]), nil
	}
	return raw, nil
}

func (a *app) cmdModel(ctx context.Context, rest string) {
	fields := strings.Fields(rest)
	if len(fields) == 0 || len(fields) > 2 {
		a.usage("/model <id|n> [temperature]")
		return
	}
	room, ok := a.currentRoom()
	if !ok {
		return
	}
	var available []string
	if _, err := strconv.Atoi(fields[0]); err == nil {
		available = a.orch.AvailableModels(ctx)
	}
	target, err := resolveModelTarget(fields[0], available)
	if err != nil {
		a.usage("/model <id|n> [temperature]")
		return
	}
	mc := room.ModelConfig
	mc.Model = target
	if len(fields) == 2 {
		temp, err := strconv.ParseFloat(fields[1], 64)
		if err != nil || temp < 0 || temp > 2 {
			a.usage("/model <id|n> [temperature 0-2]")
			return
		}
		mc.Temperature = temp
	}
	a.updateCurrent(orchestrator.RoomDraft{ModelConfig: &mc})
}

// messageRef 将 1 起始的编号转换为消息 id
// messageRef maps a 1-based history number to a message id.
func messageRef(room chat.Room, ref string) (string, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(ref))
	if err != nil || n < 1 || n > len(room.Messages) {
		return "", false
	}
	return room.Messages[n-1].ID, true
}

func (a *app) cmdEdit(rest string) {
	ref, text, _ := strings.Cut(rest, " ")
	text = strings.TrimSpace(text)
	if ref == "" || text == "" {
		a.usage("/edit <n> <text>")
		return
	}
	room, ok := a.currentRoom()
	if !ok {
		return
	}
	id, ok := messageRef(room, ref)
	if !ok || !a.orch.Edit(room.ID, id, text) {
		a.printf("cli.message_not_found", ref)
		return
	}
	a.println(a.tr.T("cli.edited"))
}

func (a *app) cmdDelete(ctx context.Context, ref string) {
	if ref == "" {
		a.usage("/delete <n>")
		return
	}
	room, ok := a.currentRoom()
	if !ok {
		return
	}
	id, ok := messageRef(room, ref)
	if !ok {
		a.printf("cli.message_not_found", ref)
		return
	}
	if !a.orch.Delete(ctx, room.ID, id) {
		a.println(a.tr.T("cli.cancelled"))
		return
	}
	a.println(a.tr.T("cli.deleted"))
}

func (a *app) cmdRegen(ctx context.Context, ref string) {
	room, ok := a.currentRoom()
	if !ok {
		return
	}
	if ref == "" {
		// 默认最后一条 / defaults to the last message
		ref = strconv.Itoa(len(room.Messages))
	}
	id, ok := messageRef(room, ref)
	if !ok {
		a.printf("cli.message_not_found", ref)
		return
	}
	a.report(a.orch.Regenerate(ctx, room.ID, id))
}

func (a *app) cmdDropRoom(ctx context.Context) {
	room, ok := a.currentRoom()
	if !ok {
		return
	}
	if !a.orch.DeleteRoom(ctx, room.ID) {
		a.println(a.tr.T("cli.cancelled"))
		return
	}
	a.println(a.tr.T("cli.room_deleted"))
}

func (a *app) cmdSearch(query string) {
	if query == "" {
		a.usage("/search <text>")
		return
	}
	results := a.rooms.Search(query, "")
	if len(results) == 0 {
		a.println(a.tr.T("cli.search_empty"))
		return
	}
	for _, r := range results {
		a.println(fmt.Sprintf("[%s] %s: %s",
			a.theme.ActiveStyle.Render(ui.Truncate(r.RoomName, 24)),
			a.roleLabel(r.Message.Role),
			ui.Truncate(r.Message.Content, a.width-30)))
	}
}

func (a *app) cmdKey(key string) {
	err := a.orch.SetAPIKey(key)
	switch {
	case errors.Is(err, orchestrator.ErrInvalidAPIKey):
		a.println(a.tr.T("cli.key_invalid"))
		return
	case err != nil:
		a.println(a.theme.ErrorStyle.Render(a.tr.T("cli.save_failed")))
		return
	}
	if key != "" && !a.settings.Settings().Onboarding.Completed {
		a.settings.CompleteOnboarding(onboardingVersion, nil)
	}
	a.println(a.tr.T("cli.key_saved"))
}

func (a *app) cmdModels(ctx context.Context) {
	models := a.orch.AvailableModels(ctx)
	current := ""
	if room, ok := a.orch.CurrentRoom(); ok {
		current = room.ModelConfig.Model
	}
	a.println(a.tr.T("cli.models"))
	for i, m := range models {
		marker := " "
		if m == current {
			marker = "*"
		}
		a.println(fmt.Sprintf("%s [%d] %s", marker, i+1, m))
	}
}

func (a *app) cmdContext() {
	room, ok := a.currentRoom()
	if !ok {
		return
	}
	stats, ok := a.orch.ContextStats(room.ID)
	if !ok {
		return
	}
	enc := stats.Encoding
	if !stats.Precise {
		enc += ", estimated"
	}
	a.printf("cli.context", stats.Messages, stats.Tokens, enc)
}

func (a *app) cmdExport(path string) {
	now := a.clock()
	if path == "" {
		path = roomstore.ExportFileName(now)
	}
	data := roomstore.Export(a.rooms.Rooms(), a.settings.Settings(), now)
	f, err := os.Create(path)
	if err != nil {
		a.printf("cli.export_failed", err)
		return
	}
	if err := roomstore.WriteExport(f, data); err != nil {
		_ = f.Close()
		a.printf("cli.export_failed", err)
		return
	}
	if err := f.Close(); err != nil {
		a.printf("cli.export_failed", err)
		return
	}
	a.printf("cli.exported", len(data.Rooms), path)
}

func (a *app) cmdImport(path string) {
	if path == "" {
		a.usage("/import <file>")
		return
	}
	f, err := os.Open(path)
	if err != nil {
		a.printf("cli.import_failed", err)
		return
	}
	defer f.Close()

	res, err := roomstore.Import(f, a.rooms, a.settings)
	if err != nil {
		a.printf("cli.import_failed", err)
		return
	}
	if res.VersionMismatch {
		a.println(a.theme.WarningStyle.Render(a.tr.T("cli.import_version")))
	}
	a.theme = ui.ForSetting(a.settings.Settings().Theme)
	a.printf("cli.imported", res.Rooms)
}

func (a *app) cmdTheme(value string) {
	theme := chat.Theme(strings.ToLower(value))
	switch theme {
	case chat.ThemeAuto, chat.ThemeLight, chat.ThemeDark:
	default:
		a.usage("/theme auto|light|dark")
		return
	}
	a.settings.Update(func(s *chat.Settings) { s.Theme = theme })
	a.theme = ui.ForSetting(theme)
	a.printf("cli.theme_set", theme)
}
