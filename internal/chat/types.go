package chat

import "strings"

// Role is the author of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Mode selects how a room's persona is defined.
type Mode string

const (
	ModeSimple Mode = "simple"
	ModePro    Mode = "pro"
)

// Theme is the UI theme preference.
type Theme string

const (
	ThemeAuto  Theme = "auto"
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// SimpleConfig holds structured persona fields used to synthesize a system prompt.
type SimpleConfig struct {
	Name          string `json:"name"`
	Background    string `json:"background"`
	Personality   string `json:"personality"`
	Tone          string `json:"tone"`
	ExampleSpeech string `json:"example_speech"`
}

// ProConfig holds a free-text system prompt used verbatim.
type ProConfig struct {
	SystemPrompt string `json:"system_prompt"`
}

// ModelConfig holds completion parameters for a room.
type ModelConfig struct {
	Model            string  `json:"model"`
	Temperature      float64 `json:"temperature"`
	MaxTokens        int     `json:"max_tokens"`
	TopP             float64 `json:"top_p"`
	FrequencyPenalty float64 `json:"frequency_penalty"`
	PresencePenalty  float64 `json:"presence_penalty"`
}

// Message is one conversational turn. Role and ID never change after creation.
type Message struct {
	ID        string `json:"id"`
	Role      Role   `json:"role"`
	Content   string `json:"content"`
	Timestamp int64  `json:"timestamp"`
}

// Room is a conversation container with its own persona and model parameters.
// Only the config selected by Mode is active; the other one is retained for
// mode switching.
type Room struct {
	ID           string        `json:"id"`
	Name         string        `json:"name"`
	SortOrder    int           `json:"sort_order"`
	CreatedAt    int64         `json:"created_at"`
	UpdatedAt    int64         `json:"updated_at"`
	Mode         Mode          `json:"mode"`
	SimpleConfig *SimpleConfig `json:"simple_config,omitempty"`
	ProConfig    *ProConfig    `json:"pro_config,omitempty"`
	ModelConfig  ModelConfig   `json:"model_config"`
	Messages     []Message     `json:"messages"`
}

// Clone returns a deep copy of the room.
func (r Room) Clone() Room {
	out := r
	if r.SimpleConfig != nil {
		sc := *r.SimpleConfig
		out.SimpleConfig = &sc
	}
	if r.ProConfig != nil {
		pc := *r.ProConfig
		out.ProConfig = &pc
	}
	if r.Messages != nil {
		out.Messages = append([]Message{}, r.Messages...)
	}
	return out
}

// IndexOf returns the position of the message with id, or -1.
func (r Room) IndexOf(messageID string) int {
	for i, msg := range r.Messages {
		if msg.ID == messageID {
			return i
		}
	}
	return -1
}

// CloneRooms deep-copies a room list.
func CloneRooms(rooms []Room) []Room {
	if rooms == nil {
		return nil
	}
	out := make([]Room, len(rooms))
	for i, r := range rooms {
		out[i] = r.Clone()
	}
	return out
}

type UIPreferences struct {
	SidebarCollapsed bool `json:"sidebar_collapsed"`
}

// Onboarding records first-run wizard completion.
type Onboarding struct {
	Completed    bool     `json:"completed"`
	Version      string   `json:"version"`
	CompletedAt  int64    `json:"completed_at"`
	SkippedSteps []string `json:"skipped_steps"`
}

// Settings is the process-wide configuration singleton.
type Settings struct {
	APIKey        string        `json:"api_key"`
	Theme         Theme         `json:"theme"`
	DefaultModel  string        `json:"default_model"`
	UIPreferences UIPreferences `json:"ui_preferences"`
	Onboarding    Onboarding    `json:"onboarding"`
}

// HasCredential reports whether an API key is configured.
func (s Settings) HasCredential() bool {
	return strings.TrimSpace(s.APIKey) != ""
}

// ExportData is a backup snapshot. Settings.APIKey is always empty.
type ExportData struct {
	Rooms      []Room   `json:"rooms"`
	Settings   Settings `json:"settings"`
	ExportedAt string   `json:"exportedAt"`
	Version    string   `json:"version"`
}
