package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/Nomadcxx/jellyrename/internal/daemon"
	"github.com/Nomadcxx/jellyrename/internal/database"
	"github.com/Nomadcxx/jellyrename/internal/logging"
	"github.com/Nomadcxx/jellyrename/internal/organizer"
	"github.com/Nomadcxx/jellyrename/internal/scanner"
	"github.com/Nomadcxx/jellyrename/internal/ui"
	"github.com/Nomadcxx/jellyrename/internal/watcher"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	var (
		addr     string
		schedule string
		noWatch  bool
		origins  []string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the rename daemon",
		Long: `Run the long-lived daemon:

  - POST /api/v1/webhooks/jellyfin renames items Jellyfin reports as added
    or updated, and tracks playback so streamed files are never moved
  - the library roots are watched and changes trigger a debounced pass
  - a full pass runs on the configured cron schedule
  - GET /api/v1/history, /api/v1/passes and /api/v1/playback report state

Point the Jellyfin webhook plugin at the daemon and send the secret from
jellyfin.webhook_secret in the ` + daemon.WebhookSecretHeader + ` header.

Examples:
  jellyrename serve                        # Listen on daemon.addr
  jellyrename serve --addr :9000 --no-watch
  jellyrename serve --schedule "@every 6h"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := newApp(ctx, true)
			if err != nil {
				return err
			}
			defer a.Close()

			if cmd.Flags().Changed("addr") {
				a.cfg.Daemon.Addr = addr
			}
			if cmd.Flags().Changed("schedule") {
				a.cfg.Daemon.Schedule = schedule
			}
			return runServe(ctx, a, !noWatch, origins)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "address to listen on (default: daemon.addr)")
	cmd.Flags().StringVar(&schedule, "schedule", "", `cron schedule for full passes, "" disables (default: daemon.schedule)`)
	cmd.Flags().BoolVar(&noWatch, "no-watch", false, "do not watch the library roots")
	cmd.Flags().StringSliceVar(&origins, "cors-origin", nil, "allowed origins for the read-only API (default: any)")

	return cmd
}

// statsRunner feeds scheduled and watcher passes into the daemon stats.
type statsRunner struct {
	organizer *organizer.Organizer
	handler   *daemon.MediaHandler
}

func (r statsRunner) RunLibrary(ctx context.Context, trigger database.Trigger, opts organizer.PassOptions) (*organizer.Summary, error) {
	summary, err := r.organizer.RunLibrary(ctx, trigger, opts)
	r.handler.RecordPass(summary, err)
	return summary, err
}

func runServe(ctx context.Context, a *app, watch bool, origins []string) error {
	logger := a.logger
	cfg := a.cfg

	if cfg.Jellyfin.WebhookSecret == "" {
		logger.Warn("serve", "jellyfin.webhook_secret is empty; every webhook call will be rejected")
		ui.WarningMsg("jellyfin.webhook_secret is not set: webhooks are disabled")
	}

	handler := daemon.NewMediaHandler(daemon.MediaHandlerConfig{
		Renamer:       a.organizer,
		PlaybackLocks: a.locks,
		DeferredQueue: a.deferred,
		Logger:        logger,
	})

	periodic, err := scanner.NewPeriodicScanner(scanner.ScannerConfig{
		Schedule: cfg.Daemon.Schedule,
		Runner:   statsRunner{organizer: a.organizer, handler: handler},
		Logger:   logger,
	})
	if err != nil {
		return err
	}

	server := daemon.NewServer(daemon.ServerConfig{
		Addr:           cfg.Daemon.Addr,
		WebhookSecret:  cfg.Jellyfin.WebhookSecret,
		AllowedOrigins: origins,
		Handler:        handler,
		Scanner:        periodic,
		History:        a.db,
		Logger:         logger,
	})

	dc := daemon.DaemonConfig{
		Server:  server,
		Handler: handler,
		Scanner: periodic,
		Logger:  logger,
	}

	if watch && len(a.roots) > 0 {
		debouncer := watcher.NewDebouncer(cfg.Daemon.Debounce(), daemon.WatcherTrigger(ctx, periodic, logger))
		w, err := watcher.NewWatcher(debouncer, watcher.WithLogger(logger))
		if err != nil {
			return err
		}
		if err := w.Watch(a.roots); err != nil {
			w.Close()
			return fmt.Errorf("failed to watch library roots: %w", err)
		}
		dc.Watcher = w
		dc.Debouncer = debouncer
	} else if watch {
		logger.Warn("serve", "No library roots known; watcher disabled")
	}

	logger.Info("serve", "Daemon configured",
		logging.F("addr", cfg.Daemon.Addr),
		logging.F("schedule", cfg.Daemon.Schedule),
		logging.F("roots", len(a.roots)),
		logging.F("dry_run", a.organizer.DryRun()))

	ui.InfoMsg("Listening on %s", cfg.Daemon.Addr)
	return daemon.NewDaemon(dc).Run(ctx)
}
