package config

import (
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"
)

// envOverrides 环境变量覆盖项；未设置的字段保持零值
// envOverrides are the environment overrides; unset fields stay zero.
type envOverrides struct {
	BaseURL    string `env:"ROOMCHAT_BASE_URL"`
	TimeoutMS  int    `env:"ROOMCHAT_TIMEOUT_MS"`
	MaxRetries *int   `env:"ROOMCHAT_MAX_RETRIES"`

	StorageBackend string `env:"ROOMCHAT_STORAGE_BACKEND"`
	StoragePath    string `env:"ROOMCHAT_STORAGE_PATH"`
	CapacityBytes  int64  `env:"ROOMCHAT_STORAGE_CAPACITY"`
	CacheTTLHours  int    `env:"ROOMCHAT_CACHE_TTL_HOURS"`

	LogLevel  string `env:"ROOMCHAT_LOG_LEVEL"`
	LogPretty *bool  `env:"ROOMCHAT_LOG_PRETTY"`
	Locale    string `env:"ROOMCHAT_LANG"`

	APIKey       string `env:"ROOMCHAT_API_KEY"`
	OpenAIAPIKey string `env:"OPENAI_API_KEY"`
}

func applyEnv(cfg *Config) error {
	var o envOverrides
	if err := env.Parse(&o); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}

	if v := strings.TrimSpace(o.BaseURL); v != "" {
		cfg.Provider.BaseURL = v
	}
	if o.TimeoutMS > 0 {
		cfg.Provider.TimeoutMS = o.TimeoutMS
	}
	if o.MaxRetries != nil {
		cfg.Provider.MaxRetries = *o.MaxRetries
	}
	if v := strings.TrimSpace(o.StorageBackend); v != "" {
		cfg.Storage.Backend = v
	}
	if v := strings.TrimSpace(o.StoragePath); v != "" {
		cfg.Storage.Path = v
	}
	if o.CapacityBytes > 0 {
		cfg.Storage.CapacityBytes = o.CapacityBytes
	}
	if o.CacheTTLHours > 0 {
		cfg.Storage.CacheTTLHours = o.CacheTTLHours
	}
	if v := strings.TrimSpace(o.LogLevel); v != "" {
		cfg.Log.Level = v
	}
	if o.LogPretty != nil {
		cfg.Log.Pretty = *o.LogPretty
	}
	if v := strings.TrimSpace(o.Locale); v != "" {
		cfg.Locale = v
	}
	if v := strings.TrimSpace(o.APIKey); v != "" {
		cfg.Provider.APIKey = v
	} else if v := strings.TrimSpace(o.OpenAIAPIKey); v != "" {
		cfg.Provider.APIKey = v
	}
	return nil
}
