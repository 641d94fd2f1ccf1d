package cmd

import (
	"fmt"
	"strings"

	"github.com/horizonlabs/horizon-chat/internal"
)

// app bundles the collaborators a command needs
type app struct {
	cfg     *internal.Config
	kv      internal.KeyValueStore
	store   *internal.SessionStore
	backend *internal.BackendClient
	history *internal.HTTPHistoryFetcher
	streams *internal.StreamClient
	engine  *internal.Engine
}

// loadSettings loads the configuration and applies the global flags on top
func loadSettings() (*internal.Config, error) {
	cfg, err := internal.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if backendURL != "" {
		cfg.BackendURL = backendURL
	}
	if storeDriver != "" {
		cfg.StoreDriver = storeDriver
	}
	if dataDir != "" {
		cfg.DataDir = dataDir
	}
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// openApp opens the local store and builds the engine. onChange may be nil.
func openApp(onChange func(internal.Snapshot)) (*app, error) {
	cfg, err := loadSettings()
	if err != nil {
		return nil, err
	}

	kv, err := internal.OpenKeyValueStore(cfg.StoreDriver, cfg.DataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s store: %w", cfg.StoreDriver, err)
	}
	internal.LogDebug("Opened %s store in %s", cfg.StoreDriver, cfg.DataDir)

	a := &app{
		cfg:     cfg,
		kv:      kv,
		store:   internal.NewSessionStore(kv),
		backend: internal.NewBackendClient(cfg.BackendURL, nil, cfg.RequestTimeout),
		history: internal.NewHTTPHistoryFetcher(cfg.BackendURL, nil, cfg.RequestTimeout),
		streams: internal.NewStreamClient(cfg.BackendURL, nil),
	}
	if cfg.UseGuidance != nil {
		a.streams.WithGuidance(*cfg.UseGuidance)
	}

	a.engine, err = internal.NewEngine(internal.EngineOptions{
		Store:       a.store,
		History:     a.history,
		Streams:     a.streams,
		Resetter:    a.backend,
		WelcomeText: cfg.WelcomeText,
		OnChange:    onChange,
	})
	if err != nil {
		_ = kv.Close()
		return nil, err
	}
	return a, nil
}

// Close stops the engine and releases the store
func (a *app) Close() {
	_ = a.engine.Close()
	if err := a.kv.Close(); err != nil {
		internal.LogWarn("Failed to close store: %v", err)
	}
}

// resolveSessionID accepts a full id or an unambiguous prefix of one
func resolveSessionID(sessions []internal.ChatSession, arg string) (string, error) {
	arg = strings.TrimSpace(arg)
	var matches []string
	for _, session := range sessions {
		if session.ID == arg {
			return session.ID, nil
		}
		if arg != "" && strings.HasPrefix(session.ID, arg) {
			matches = append(matches, session.ID)
		}
	}
	switch len(matches) {
	case 0:
		return "", fmt.Errorf("%w: %s (use 'horizon-chat list' to see available sessions)", internal.ErrSessionNotFound, arg)
	case 1:
		return matches[0], nil
	default:
		return "", fmt.Errorf("session id %q is ambiguous (matches %d sessions)", arg, len(matches))
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
