package orchestrator

import (
	"strings"

	"roomchat/internal/chat"
	"roomchat/internal/i18n"
	"roomchat/internal/provider"
)

// SystemPrompt builds the system prompt for room. Pro mode uses the raw
// prompt; simple mode concatenates the persona sections that are set.
func SystemPrompt(room chat.Room, tr *i18n.I18n) string {
	if room.Mode == chat.ModePro {
		if room.ProConfig == nil {
			return ""
		}
		return room.ProConfig.SystemPrompt
	}

	cfg := room.SimpleConfig
	if cfg == nil {
		return ""
	}
	if tr == nil {
		tr = i18n.Global()
	}

	var b strings.Builder
	if cfg.Name != "" {
		b.WriteString(tr.T("prompt.you_are", cfg.Name))
	}
	sections := []struct {
		label string
		value string
	}{
		{"prompt.background", cfg.Background},
		{"prompt.personality", cfg.Personality},
		{"prompt.tone", cfg.Tone},
		{"prompt.example_speech", cfg.ExampleSpeech},
	}
	for _, s := range sections {
		if s.value == "" {
			continue
		}
		b.WriteString("\n\n")
		b.WriteString(tr.T(s.label))
		b.WriteString("\n")
		b.WriteString(s.value)
	}
	return strings.TrimSpace(b.String())
}

// BuildRequest 组装补全请求；零值参数在此处补默认值，不回写房间
// BuildRequest assembles the completion request for room over history.
// Zero parameters fall back to defaults here; the room is not modified.
func BuildRequest(room chat.Room, history []chat.Message, apiKey, systemPrompt string) provider.CompletionRequest {
	mc := room.ModelConfig
	req := provider.CompletionRequest{
		APIKey:           apiKey,
		SystemPrompt:     systemPrompt,
		Messages:         make([]provider.Turn, 0, len(history)),
		Model:            mc.Model,
		Temperature:      mc.Temperature,
		MaxTokens:        mc.MaxTokens,
		TopP:             mc.TopP,
		FrequencyPenalty: mc.FrequencyPenalty,
		PresencePenalty:  mc.PresencePenalty,
	}
	if req.Model == "" {
		req.Model = chat.FallbackModel
	}
	if req.Temperature == 0 {
		req.Temperature = chat.DefaultTemperature
	}
	if req.MaxTokens == 0 {
		req.MaxTokens = chat.DefaultMaxTokens
	}
	if req.TopP == 0 {
		req.TopP = chat.DefaultTopP
	}
	for _, m := range history {
		req.Messages = append(req.Messages, provider.Turn{Role: m.Role, Content: m.Content})
	}
	return req
}

func (o *Orchestrator) buildRequest(room chat.Room, apiKey string) provider.CompletionRequest {
	return BuildRequest(room, room.Messages, apiKey, SystemPrompt(room, o.i18n))
}

// errorText maps a completion failure to the message shown in the room.
func (o *Orchestrator) errorText(err error) string {
	return o.i18n.T("error." + string(provider.KindOf(err)))
}
