package orchestrator

import (
	"context"
	"errors"
	"strings"

	"roomchat/internal/chat"
	"roomchat/internal/contextmgr"
	"roomchat/internal/provider"
	"roomchat/internal/roomstore"
)

var ErrInvalidAPIKey = errors.New("invalid api key")

// CreateRoom adds a room built from d and makes it current. Missing model
// config gets the new-room defaults.
func (o *Orchestrator) CreateRoom(d RoomDraft) (chat.Room, error) {
	now := o.nowMillis()
	room := chat.Room{
		ID:        o.newID(),
		Name:      strings.TrimSpace(d.Name),
		CreatedAt: now,
		UpdatedAt: now,
		Mode:      d.Mode,
		Messages:  []chat.Message{},
	}
	if room.Mode == "" {
		room.Mode = chat.ModeSimple
	}
	applyDraft(&room, d)
	if d.ModelConfig == nil {
		room.ModelConfig = chat.NewRoomModelConfig("")
	}

	created, err := o.rooms.AddRoom(room)
	if err != nil && !errors.Is(err, roomstore.ErrNotPersisted) {
		return chat.Room{}, err
	}
	o.rooms.SaveCurrentRoomID(created.ID)
	return created, err
}

// UpdateRoom applies d to roomID, keeping id, messages and created_at.
func (o *Orchestrator) UpdateRoom(roomID string, d RoomDraft) (chat.Room, error) {
	return o.rooms.UpdateRoom(roomID, func(r *chat.Room) bool {
		applyDraft(r, d)
		o.touch(&r.UpdatedAt)
		return true
	})
}

func applyDraft(r *chat.Room, d RoomDraft) {
	if name := strings.TrimSpace(d.Name); name != "" {
		r.Name = name
	}
	if d.Mode != "" {
		r.Mode = d.Mode
	}
	if d.SimpleConfig != nil {
		sc := *d.SimpleConfig
		r.SimpleConfig = &sc
	}
	if d.ProConfig != nil {
		pc := *d.ProConfig
		r.ProConfig = &pc
	}
	if d.ModelConfig != nil {
		r.ModelConfig = *d.ModelConfig
	}
	// 当前模式的配置必须存在 / the active config always exists
	switch r.Mode {
	case chat.ModeSimple:
		if r.SimpleConfig == nil {
			r.SimpleConfig = &chat.SimpleConfig{}
		}
	case chat.ModePro:
		if r.ProConfig == nil {
			r.ProConfig = &chat.ProConfig{}
		}
	}
}

// SelectRoom makes roomID current.
func (o *Orchestrator) SelectRoom(roomID string) bool {
	if _, ok := o.rooms.Room(roomID); !ok {
		return false
	}
	return o.rooms.SaveCurrentRoomID(roomID)
}

// CurrentRoom returns a copy of the current room.
func (o *Orchestrator) CurrentRoom() (chat.Room, bool) {
	id := o.rooms.CurrentRoomID()
	if id == "" {
		return chat.Room{}, false
	}
	return o.rooms.Room(id)
}

// DeleteRoom removes roomID and its messages after confirmation.
func (o *Orchestrator) DeleteRoom(ctx context.Context, roomID string) bool {
	room, ok := o.rooms.Room(roomID)
	if !ok {
		return false
	}
	if !o.ask(ctx, o.i18n.T("cli.confirm_drop_room", room.Name)) {
		return false
	}
	err := o.rooms.DeleteRoom(roomID)
	if !applied(err) {
		return false
	}
	o.dropSession(roomID)
	return true
}

// ValidAPIKey reports whether key looks like an OpenAI secret key.
func ValidAPIKey(key string) bool {
	key = strings.TrimSpace(key)
	return strings.HasPrefix(key, "sk-") && len(key) > 10
}

// SetAPIKey stores key in the settings. An empty key clears the credential.
func (o *Orchestrator) SetAPIKey(key string) error {
	key = strings.TrimSpace(key)
	if key != "" && !ValidAPIKey(key) {
		return ErrInvalidAPIKey
	}
	if !o.settings.Update(func(s *chat.Settings) { s.APIKey = key }) {
		return roomstore.ErrNotPersisted
	}
	return nil
}

const modelsCacheName = "models"

// AvailableModels lists model ids newest first. A fresh cached list is
// returned without a request; failures fall back to the static list and
// are not cached.
func (o *Orchestrator) AvailableModels(ctx context.Context) []string {
	if cached, ok := roomstore.GetCache[[]string](o.rooms.Store, modelsCacheName, o.cacheTTL); ok && len(cached) > 0 {
		return cached
	}
	s := o.settings.Settings()
	if !s.HasCredential() {
		return chat.FallbackModels()
	}
	models, err := provider.Models(ctx, o.provider, s.APIKey)
	if err != nil {
		o.log.Warn().Err(err).Msg("model listing failed; using fallback list")
		return models
	}
	roomstore.PutCache(o.rooms.Store, modelsCacheName, models)
	return models
}

// ContextStats estimates the size of the request the next Send in roomID
// would make, excluding the new user message.
func (o *Orchestrator) ContextStats(roomID string) (contextmgr.Stats, bool) {
	room, ok := o.rooms.Room(roomID)
	if !ok {
		return contextmgr.Stats{}, false
	}
	return o.tokenizer.Request(o.buildRequest(room, "")), true
}
