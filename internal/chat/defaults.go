package chat

const (
	// FallbackModel is used when a room has no model configured.
	FallbackModel = "gpt-3.5-turbo"

	DefaultSettingsModel = "gpt-4o"

	DefaultTemperature      = 1.0
	DefaultMaxTokens        = 1000
	DefaultTopP             = 1.0
	DefaultFrequencyPenalty = 0.0
	DefaultPresencePenalty  = 0.0

	ExportVersion = "1.0"
)

// DefaultSettings returns a fresh default Settings value.
func DefaultSettings() Settings {
	return Settings{
		APIKey:       "",
		Theme:        ThemeAuto,
		DefaultModel: DefaultSettingsModel,
	}
}

// NewRoomModelConfig is the model config given to rooms created without one.
func NewRoomModelConfig(model string) ModelConfig {
	if model == "" {
		model = "gpt-4o-mini"
	}
	return ModelConfig{
		Model:            model,
		Temperature:      0.7,
		MaxTokens:        2000,
		TopP:             1.0,
		FrequencyPenalty: 0,
		PresencePenalty:  0,
	}
}

// FallbackModels is the static model list used when listing fails.
func FallbackModels() []string {
	return []string{
		"gpt-4.1",
		"gpt-4o",
		"gpt-4o-mini",
		"gpt-4-turbo",
		"gpt-4",
		"gpt-3.5-turbo",
	}
}
