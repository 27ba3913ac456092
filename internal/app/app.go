package app

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	"github.com/sundayezeilo/shortener-cli/internal/api"
	"github.com/sundayezeilo/shortener-cli/internal/config"
	"github.com/sundayezeilo/shortener-cli/internal/links"
	"github.com/sundayezeilo/shortener-cli/internal/session"
)

// App holds the client's dependencies wired together: the transport
// client, the session store, and the link collection store.
type App struct {
	Config   *config.Config
	Logger   *slog.Logger
	API      *api.Client
	Sessions *session.Store
	Links    *links.Store
}

// Options tweaks wiring that callers may want to override.
type Options struct {
	// OnInvalidate is the session store's forced-teardown hook (the
	// "send the user back to login" affordance). Optional.
	OnInvalidate func()
}

// New initializes and returns a new App instance with all dependencies
// wired up.
func New(opts Options) (*App, error) {
	if err := loadEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment: %w", err)
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger := setupLogger(cfg.App.LogLevel)

	stateDir, err := resolveStateDir(cfg.App.StateDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve state directory: %w", err)
	}

	persist, err := session.NewFileStore(stateDir)
	if err != nil {
		return nil, fmt.Errorf("failed to open session storage: %w", err)
	}

	client := api.NewClient(api.Options{
		BaseURL: cfg.Service.BaseURL,
		Timeout: cfg.Service.RequestTimeout,
		Logger:  logger,
	})

	sessions := session.NewStore(session.StoreConfig{
		API:          client,
		Persistence:  persist,
		Logger:       logger,
		OnInvalidate: opts.OnInvalidate,
	})

	// The session store is both the credential source for outgoing
	// requests and the teardown target for credential rejections.
	client.SetCredentialSource(sessions)
	client.OnUnauthorized(sessions.Invalidate)

	linkStore := links.NewStore(links.StoreConfig{
		API:    client,
		Counts: sessions,
		Logger: logger,
	})

	logger.Debug("client initialized",
		"base_url", cfg.Service.BaseURL,
		"state_dir", stateDir,
	)

	return &App{
		Config:   cfg,
		Logger:   logger,
		API:      client,
		Sessions: sessions,
		Links:    linkStore,
	}, nil
}

// loadEnv loads a .env file only in non-production environments.
func loadEnv() error {
	env := os.Getenv("APP_ENV")
	if env == "" || env == "development" || env == "test" {
		// A missing .env is normal for an installed CLI.
		_ = godotenv.Load()
	}
	return nil
}

// setupLogger creates a structured logger based on the log level.
func setupLogger(level string) *slog.Logger {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: logLevel,
	}

	handler := slog.NewJSONHandler(os.Stderr, opts)
	return slog.New(handler)
}

// resolveStateDir picks the directory for the durable session copy:
// the configured one, or a per-user default.
func resolveStateDir(configured string) (string, error) {
	if configured != "" {
		return configured, nil
	}
	base, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, "shortlink"), nil
}
