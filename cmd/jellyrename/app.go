package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Nomadcxx/jellyrename/internal/config"
	"github.com/Nomadcxx/jellyrename/internal/database"
	"github.com/Nomadcxx/jellyrename/internal/jellyfin"
	"github.com/Nomadcxx/jellyrename/internal/logging"
	"github.com/Nomadcxx/jellyrename/internal/organizer"
	"github.com/Nomadcxx/jellyrename/internal/paths"
)

var errJellyfinNotConfigured = errors.New("jellyfin.url and jellyfin.api_key must be set (run 'jellyrename config init')")

// app bundles what the Jellyfin-backed commands share.
type app struct {
	cfg       *config.Config
	logger    *logging.Logger
	db        *database.HistoryDB
	client    *jellyfin.Client
	organizer *organizer.Organizer
	locks     *jellyfin.PlaybackLockManager
	deferred  *jellyfin.DeferredQueue
	roots     []string
}

func configFilePath() (string, error) {
	if cfgFile != "" {
		return paths.ExpandHome(cfgFile)
	}
	return config.ConfigPath()
}

func loadConfig() (*config.Config, error) {
	path, err := configFilePath()
	if err != nil {
		return nil, err
	}
	cfg, err := config.LoadFrom(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// newLogger opens the log file. Console output is on for the daemon and
// for --verbose; a log file that cannot be opened falls back to stderr.
func newLogger(cfg *config.Config, console bool) *logging.Logger {
	lc := cfg.Logging.LoggerConfig()
	lc.Console = console || verbose
	if verbose {
		lc.Level = "debug"
	}
	logger, err := logging.New(lc)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v (logging to stderr)\n", err)
		return logging.NewWriter(os.Stderr, lc.Level)
	}
	return logger
}

func openHistory(cfg *config.Config) (*database.HistoryDB, error) {
	path, err := cfg.Database.ResolvedPath()
	if err != nil {
		return nil, err
	}
	db, err := database.OpenPath(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}
	return db, nil
}

func newApp(ctx context.Context, console bool) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	if !cfg.Jellyfin.Enabled() {
		return nil, errJellyfinNotConfigured
	}

	logger := newLogger(cfg, console)
	db, err := openHistory(cfg)
	if err != nil {
		logger.Close()
		return nil, err
	}

	a := &app{
		cfg:    cfg,
		logger: logger,
		db:     db,
		client: jellyfin.NewClient(jellyfin.Config{
			URL:     cfg.Jellyfin.URL,
			APIKey:  cfg.Jellyfin.APIKey,
			Timeout: cfg.Jellyfin.Timeout(),
		}),
		locks:    jellyfin.NewPlaybackLockManager(),
		deferred: jellyfin.NewDeferredQueue(),
	}

	if err := a.client.Ping(ctx); err != nil {
		a.Close()
		return nil, fmt.Errorf("jellyfin unreachable at %s: %w", cfg.Jellyfin.URL, err)
	}

	a.roots = a.libraryRoots(ctx)
	if n, err := a.client.SeedPlaybackLocks(ctx, a.locks); err != nil {
		logger.Warn("app", "Unable to read active sessions", logging.F("error", err))
	} else if n > 0 {
		logger.Info("app", "Active playback locked", logging.F("paths", n))
	}

	opts := []func(*organizer.Organizer){
		organizer.WithDryRun(dryRun || cfg.Options.DryRun),
		organizer.WithTemplates(cfg.Templates),
		organizer.WithLibraryRoots(a.roots...),
		organizer.WithPlayback(a.locks, a.deferred),
		organizer.WithRecorder(db),
		organizer.WithLogger(logger),
	}
	if cfg.Jellyfin.RefreshAfterRename {
		opts = append(opts, organizer.WithRefresher(a.client))
	}
	a.organizer = organizer.NewOrganizer(a.client, opts...)

	return a, nil
}

// libraryRoots merges the configured roots with the locations of every
// Jellyfin library.
func (a *app) libraryRoots(ctx context.Context) []string {
	seen := make(map[string]bool)
	var roots []string
	add := func(p string) {
		p = filepath.Clean(p)
		if !seen[p] {
			seen[p] = true
			roots = append(roots, p)
		}
	}

	for _, lib := range a.cfg.Options.Libraries {
		expanded, err := paths.ExpandHome(lib)
		if err != nil {
			a.logger.Warn("app", "Skipping library root", logging.F("path", lib), logging.F("error", err))
			continue
		}
		add(expanded)
	}

	fromServer, err := a.client.LibraryRoots(ctx)
	if err != nil {
		a.logger.Warn("app", "Unable to list Jellyfin libraries", logging.F("error", err))
	}
	for _, r := range fromServer {
		add(r)
	}
	return roots
}

func (a *app) Close() {
	if a.db != nil {
		a.db.Close()
	}
	a.logger.Close()
}
