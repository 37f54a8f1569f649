package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

type ProviderConfig struct {
	BaseURL    string `json:"base_url"`
	TimeoutMS  int    `json:"timeout_ms"`
	MaxRetries int    `json:"max_retries"`
	// APIKey 仅用于首次启动时填充设置，不写入配置文件
	// APIKey only seeds Settings when no credential is stored; never written to files
	APIKey string `json:"-"`
}

type StorageConfig struct {
	// Backend: sqlite | memory
	Backend       string `json:"backend"`
	Path          string `json:"path"`
	CapacityBytes int64  `json:"capacity_bytes"`
	CacheTTLHours int    `json:"cache_ttl_hours"`
}

type LogConfig struct {
	Level  string `json:"level"`
	Pretty bool   `json:"pretty"`
}

type Config struct {
	Provider ProviderConfig `json:"provider"`
	Storage  StorageConfig  `json:"storage"`
	Log      LogConfig      `json:"log"`
	Locale   string         `json:"locale"`
}

type fileProviderConfig struct {
	BaseURL    string `json:"base_url"`
	TimeoutMS  int    `json:"timeout_ms"`
	MaxRetries *int   `json:"max_retries"`
}

type fileLogConfig struct {
	Level  string `json:"level"`
	Pretty *bool  `json:"pretty"`
}

type fileConfig struct {
	Provider *fileProviderConfig `json:"provider"`
	Storage  *StorageConfig      `json:"storage"`
	Log      *fileLogConfig      `json:"log"`
	Locale   *string             `json:"locale"`
}

func Default() Config {
	return Config{
		Provider: ProviderConfig{
			BaseURL:    DefaultBaseURL,
			TimeoutMS:  DefaultTimeoutMS,
			MaxRetries: DefaultMaxRetries,
		},
		Storage: StorageConfig{
			Backend:       BackendSQLite,
			Path:          "~/.roomchat/roomchat.db",
			CapacityBytes: DefaultCapacityBytes,
			CacheTTLHours: DefaultCacheTTLHours,
		},
		Log: LogConfig{
			Level:  "warn",
			Pretty: true,
		},
	}
}

// Load 依次合并：默认值 -> 全局配置 -> 项目配置(或 path) -> 环境变量
// Load merges defaults, the global file, the project file (or path), then env.
func Load(path string) (Config, error) {
	cfg := Default()

	for _, globalPath := range globalConfigPaths() {
		if err := mergeFromFile(&cfg, globalPath); err != nil {
			return Config{}, err
		}
	}

	resolvedPath := strings.TrimSpace(path)
	if envPath := strings.TrimSpace(os.Getenv("ROOMCHAT_CONFIG")); envPath != "" && resolvedPath == "" {
		resolvedPath = envPath
	}
	if resolvedPath == "" {
		resolvedPath = findProjectConfigPath()
	}
	if err := mergeFromFile(&cfg, resolvedPath); err != nil {
		return Config{}, err
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := normalize(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func globalConfigPaths() []string {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil
	}
	return []string{filepath.Join(home, ".roomchat", "config.json")}
}

func findProjectConfigPath() string {
	candidates := []string{
		"roomchat.config.json",
		".roomchat/config.json",
	}
	for _, c := range candidates {
		if _, err := os.Stat(c); err == nil {
			return c
		}
	}
	return ""
}

func mergeFromFile(cfg *Config, path string) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil
	}

	resolved, err := expandPath(path)
	if err != nil {
		return fmt.Errorf("expand config path %q: %w", path, err)
	}

	data, err := os.ReadFile(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read config %q: %w", resolved, err)
	}

	cleaned := stripJSONComments(data)
	var fileCfg fileConfig
	if err := json.Unmarshal(cleaned, &fileCfg); err != nil {
		return fmt.Errorf("parse config %q: %w", resolved, err)
	}
	applyFileConfig(cfg, fileCfg)
	return nil
}

func applyFileConfig(cfg *Config, fc fileConfig) {
	if fc.Provider != nil {
		if strings.TrimSpace(fc.Provider.BaseURL) != "" {
			cfg.Provider.BaseURL = fc.Provider.BaseURL
		}
		if fc.Provider.TimeoutMS > 0 {
			cfg.Provider.TimeoutMS = fc.Provider.TimeoutMS
		}
		if fc.Provider.MaxRetries != nil {
			cfg.Provider.MaxRetries = *fc.Provider.MaxRetries
		}
	}
	if fc.Storage != nil {
		cfg.Storage = mergeStorage(cfg.Storage, *fc.Storage)
	}
	if fc.Log != nil {
		if strings.TrimSpace(fc.Log.Level) != "" {
			cfg.Log.Level = fc.Log.Level
		}
		if fc.Log.Pretty != nil {
			cfg.Log.Pretty = *fc.Log.Pretty
		}
	}
	if fc.Locale != nil {
		cfg.Locale = *fc.Locale
	}
}

func mergeStorage(base StorageConfig, override StorageConfig) StorageConfig {
	if strings.TrimSpace(override.Backend) != "" {
		base.Backend = override.Backend
	}
	if strings.TrimSpace(override.Path) != "" {
		base.Path = override.Path
	}
	if override.CapacityBytes > 0 {
		base.CapacityBytes = override.CapacityBytes
	}
	if override.CacheTTLHours > 0 {
		base.CacheTTLHours = override.CacheTTLHours
	}
	return base
}

func normalize(cfg *Config) error {
	def := Default()
	cfg.Provider.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.Provider.BaseURL), "/")
	if cfg.Provider.BaseURL == "" {
		cfg.Provider.BaseURL = def.Provider.BaseURL
	}
	if cfg.Provider.TimeoutMS <= 0 {
		cfg.Provider.TimeoutMS = def.Provider.TimeoutMS
	}
	if cfg.Provider.MaxRetries < 0 {
		cfg.Provider.MaxRetries = 0
	}
	cfg.Provider.APIKey = strings.TrimSpace(cfg.Provider.APIKey)

	cfg.Storage.Backend = strings.ToLower(strings.TrimSpace(cfg.Storage.Backend))
	switch cfg.Storage.Backend {
	case "":
		cfg.Storage.Backend = def.Storage.Backend
	case BackendSQLite, BackendMemory:
	default:
		return fmt.Errorf("invalid storage.backend %q (want %s or %s)", cfg.Storage.Backend, BackendSQLite, BackendMemory)
	}
	if strings.TrimSpace(cfg.Storage.Path) == "" {
		cfg.Storage.Path = def.Storage.Path
	}
	storagePath, err := expandPath(cfg.Storage.Path)
	if err != nil {
		return err
	}
	cfg.Storage.Path = storagePath
	if cfg.Storage.CapacityBytes <= 0 {
		cfg.Storage.CapacityBytes = def.Storage.CapacityBytes
	}
	if cfg.Storage.CacheTTLHours <= 0 {
		cfg.Storage.CacheTTLHours = def.Storage.CacheTTLHours
	}

	cfg.Log.Level = strings.ToLower(strings.TrimSpace(cfg.Log.Level))
	if cfg.Log.Level == "" {
		cfg.Log.Level = def.Log.Level
	}
	cfg.Locale = strings.TrimSpace(cfg.Locale)
	return nil
}

func expandPath(path string) (string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return "", nil
	}
	if strings.HasPrefix(path, "~/") || path == "~" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		if path == "~" {
			path = home
		} else {
			path = filepath.Join(home, strings.TrimPrefix(path, "~/"))
		}
	}
	return filepath.Abs(path)
}

func stripJSONComments(data []byte) []byte {
	const (
		stateNormal = iota
		stateString
		stateLineComment
		stateBlockComment
	)

	state := stateNormal
	escaped := false
	out := bytes.Buffer{}

	for i := 0; i < len(data); i++ {
		c := data[i]
		next := byte(0)
		if i+1 < len(data) {
			next = data[i+1]
		}

		switch state {
		case stateNormal:
			if c == '"' {
				state = stateString
				out.WriteByte(c)
				continue
			}
			if c == '/' && next == '/' {
				state = stateLineComment
				i++
				continue
			}
			if c == '/' && next == '*' {
				state = stateBlockComment
				i++
				continue
			}
			out.WriteByte(c)
		case stateString:
			out.WriteByte(c)
			if escaped {
				escaped = false
				continue
			}
			if c == '\\' {
				escaped = true
				continue
			}
			if c == '"' {
				state = stateNormal
			}
		case stateLineComment:
			if c == '\n' {
				state = stateNormal
				out.WriteByte(c)
			}
		case stateBlockComment:
			if c == '*' && next == '/' {
				state = stateNormal
				i++
			}
		}
	}

	return out.Bytes()
}
