package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"roomchat/internal/chat"
	"roomchat/internal/config"
	"roomchat/internal/i18n"
	"roomchat/internal/logging"
	"roomchat/internal/metrics"
	"roomchat/internal/provider"
	"roomchat/internal/roomstore"
	"roomchat/internal/storage"

	"github.com/mattn/go-isatty"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"golang.org/x/term"
)

func main() {
	var (
		configPath string
		importDump string
		initConfig bool
	)
	flag.StringVar(&configPath, "config", "", "Path to config JSON/JSONC")
	flag.StringVar(&importDump, "import-localstorage", "", "Migrate a browser localStorage JSON dump before starting")
	flag.BoolVar(&initConfig, "init-config", false, "Write a default config file (to --config or ./roomchat.config.json) and exit")
	flag.Parse()

	if initConfig {
		path, err := config.InitConfigScaffold(configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "init config failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(path)
		return
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config failed: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(logging.Config{Level: cfg.Log.Level, Pretty: cfg.Log.Pretty})
	locale := cfg.Locale
	if strings.TrimSpace(locale) == "" {
		locale = i18n.DetectLocale()
	}
	i18n.Init(locale)
	tr := i18n.Global()

	registry := prometheus.NewRegistry()
	m := metrics.New(registry)

	backing, err := openBacking(cfg.Storage)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open storage failed: %v\n", err)
		os.Exit(1)
	}
	defer backing.Close()

	if strings.TrimSpace(importDump) != "" {
		n, err := storage.MigrateFromJSON(importDump, backing)
		if err != nil {
			fmt.Fprintf(os.Stderr, "migrate %s failed: %v\n", importDump, err)
			os.Exit(1)
		}
		fmt.Println(tr.T("cli.migrated", n, importDump))
	}

	store := roomstore.NewStore(backing, roomstore.Options{Logger: logger, Metrics: m})
	rooms := roomstore.NewRoomStore(store)
	rooms.Load()
	settings := roomstore.NewSettingsStore(store)
	settings.Load()
	seedAPIKey(settings, cfg.Provider.APIKey, logger)

	prov := provider.NewOpenAIProvider(provider.OpenAIConfig{
		BaseURL:    cfg.Provider.BaseURL,
		TimeoutMS:  cfg.Provider.TimeoutMS,
		MaxRetries: cfg.Provider.MaxRetries,
		Logger:     logger,
	})

	inputReader, inputErr := newLineInput(filepath.Join(filepath.Dir(cfg.Storage.Path), "repl.history"))
	if inputErr != nil {
		fmt.Fprintf(os.Stderr, "line editor unavailable, fallback to basic input: %v\n", inputErr)
	}
	defer inputReader.Close()

	a := newApp(appDeps{
		Rooms:    rooms,
		Settings: settings,
		Provider: prov,
		Registry: registry,
		Metrics:  m,
		Input:    inputReader,
		Out:      os.Stdout,
		I18n:     tr,
		Logger:   logger,
		CacheTTL: time.Duration(cfg.Storage.CacheTTLHours) * time.Hour,
		Plain:    !isatty.IsTerminal(os.Stdout.Fd()),
		Width:    terminalWidth(),
	})
	a.run(context.Background())
}

func openBacking(cfg config.StorageConfig) (storage.Backing, error) {
	switch cfg.Backend {
	case config.BackendMemory:
		return storage.NewMemoryBacking(cfg.CapacityBytes), nil
	default:
		return storage.NewSQLiteBacking(cfg.Path, cfg.CapacityBytes)
	}
}

// terminalWidth 返回终端宽度，非 TTY 时为 0
// terminalWidth returns the stdout width, or 0 when it is not a terminal.
func terminalWidth() int {
	w, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil {
		return 0
	}
	return w
}

// seedAPIKey 仅在设置中没有 key 时用环境变量填充
// seedAPIKey fills an empty stored credential from the environment.
func seedAPIKey(settings *roomstore.SettingsStore, key string, logger zerolog.Logger) {
	key = strings.TrimSpace(key)
	if key == "" || settings.Settings().HasCredential() {
		return
	}
	if !settings.Update(func(s *chat.Settings) { s.APIKey = key }) {
		logger.Warn().Msg("could not persist api key from environment")
	}
}
