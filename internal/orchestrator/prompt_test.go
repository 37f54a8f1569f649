package orchestrator

import (
	"testing"

	"roomchat/internal/chat"
	"roomchat/internal/i18n"
)

func TestSystemPrompt(t *testing.T) {
	full := &chat.SimpleConfig{
		Name:          "Aiko",
		Background:    "A librarian.",
		Personality:   "Calm",
		Tone:          "Polite",
		ExampleSpeech: "Welcome back.",
	}
	tests := []struct {
		name   string
		locale string
		room   chat.Room
		want   string
	}{
		{
			name:   "simple full en",
			locale: "en",
			room:   chat.Room{Mode: chat.ModeSimple, SimpleConfig: full},
			want:   "You are Aiko.\n\nBackground:\nA librarian.\n\nPersonality:\nCalm\n\nTone:\nPolite\n\nExample speech:\nWelcome back.",
		},
		{
			name:   "simple full ja",
			locale: "ja",
			room:   chat.Room{Mode: chat.ModeSimple, SimpleConfig: full},
			want:   "あなたはAikoです。\n\n背景情報：\nA librarian.\n\n性格：\nCalm\n\n口調：\nPolite\n\n話し方の例：\nWelcome back.",
		},
		{
			name:   "missing sections omitted",
			locale: "en",
			room:   chat.Room{Mode: chat.ModeSimple, SimpleConfig: &chat.SimpleConfig{Name: "Aiko", Tone: "dry"}},
			want:   "You are Aiko.\n\nTone:\ndry",
		},
		{
			name:   "no name trims leading blank lines",
			locale: "en",
			room:   chat.Room{Mode: chat.ModeSimple, SimpleConfig: &chat.SimpleConfig{Personality: "Warm"}},
			want:   "Personality:\nWarm",
		},
		{
			name:   "empty simple config",
			locale: "en",
			room:   chat.Room{Mode: chat.ModeSimple, SimpleConfig: &chat.SimpleConfig{}},
			want:   "",
		},
		{
			name:   "pro verbatim",
			locale: "en",
			room:   chat.Room{Mode: chat.ModePro, ProConfig: &chat.ProConfig{SystemPrompt: "  raw prompt\n"}, SimpleConfig: full},
			want:   "  raw prompt\n",
		},
		{
			name:   "pro unset ignores simple config",
			locale: "en",
			room:   chat.Room{Mode: chat.ModePro, SimpleConfig: full},
			want:   "",
		},
		{
			name:   "simple ignores pro config",
			locale: "en",
			room:   chat.Room{Mode: chat.ModeSimple, ProConfig: &chat.ProConfig{SystemPrompt: "x"}},
			want:   "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SystemPrompt(tt.room, i18n.New(tt.locale)); got != tt.want {
				t.Fatalf("SystemPrompt=%q, want %q", got, tt.want)
			}
		})
	}
}

func TestBuildRequestDefaults(t *testing.T) {
	room := chat.Room{ModelConfig: chat.ModelConfig{}}
	history := []chat.Message{
		{ID: "1", Role: chat.RoleUser, Content: "hi"},
		{ID: "2", Role: chat.RoleAssistant, Content: "hello"},
	}
	req := BuildRequest(room, history, "sk-x", "")

	if req.Model != chat.FallbackModel || req.Temperature != 1.0 || req.MaxTokens != 1000 || req.TopP != 1.0 {
		t.Fatalf("defaults not applied: %+v", req)
	}
	if req.FrequencyPenalty != 0 || req.PresencePenalty != 0 {
		t.Fatalf("penalties=%v/%v", req.FrequencyPenalty, req.PresencePenalty)
	}
	if len(req.Messages) != 2 || req.Messages[1].Role != chat.RoleAssistant || req.Messages[1].Content != "hello" {
		t.Fatalf("messages=%+v", req.Messages)
	}
	if room.ModelConfig.Model != "" {
		t.Fatal("defaults must not be written back to the room")
	}
}

func TestBuildRequestKeepsSetValues(t *testing.T) {
	room := chat.Room{ModelConfig: chat.ModelConfig{
		Model:            "gpt-4o",
		Temperature:      0.3,
		MaxTokens:        256,
		TopP:             0.9,
		FrequencyPenalty: 0.5,
		PresencePenalty:  -0.5,
	}}
	req := BuildRequest(room, nil, "sk-x", "sys")
	if req.Model != "gpt-4o" || req.Temperature != 0.3 || req.MaxTokens != 256 || req.TopP != 0.9 {
		t.Fatalf("req=%+v", req)
	}
	if req.FrequencyPenalty != 0.5 || req.PresencePenalty != -0.5 || req.SystemPrompt != "sys" {
		t.Fatalf("req=%+v", req)
	}
	if req.Messages == nil || len(req.Messages) != 0 {
		t.Fatalf("messages=%#v", req.Messages)
	}
}
