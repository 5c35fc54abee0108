// Package daemon runs the long-lived service: the webhook and history HTTP
// API, the library watcher and the pass scheduler.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Nomadcxx/jellyrename/internal/database"
	"github.com/Nomadcxx/jellyrename/internal/logging"
	"github.com/Nomadcxx/jellyrename/internal/scanner"
	"github.com/Nomadcxx/jellyrename/internal/watcher"
)

const shutdownTimeout = 10 * time.Second

// Daemon manages the background service
type Daemon struct {
	server    *Server
	handler   *MediaHandler
	scanner   *scanner.PeriodicScanner
	watcher   *watcher.Watcher
	debouncer *watcher.Debouncer
	logger    *logging.Logger
}

type DaemonConfig struct {
	Server  *Server
	Handler *MediaHandler
	Scanner *scanner.PeriodicScanner
	// Watcher is optional. Its events should feed Debouncer.
	Watcher   *watcher.Watcher
	Debouncer *watcher.Debouncer
	Logger    *logging.Logger
}

func NewDaemon(cfg DaemonConfig) *Daemon {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Nop()
	}
	return &Daemon{
		server:    cfg.Server,
		handler:   cfg.Handler,
		scanner:   cfg.Scanner,
		watcher:   cfg.Watcher,
		debouncer: cfg.Debouncer,
		logger:    logger,
	}
}

// WatcherTrigger returns the callback a Debouncer should fire: one library
// pass through the scheduler, so it never overlaps a scheduled pass.
func WatcherTrigger(ctx context.Context, s *scanner.PeriodicScanner, logger *logging.Logger) func(paths []string) {
	return func(paths []string) {
		logger.Info("daemon", "Library changed on disk", logging.F("files", len(paths)))
		s.Trigger(ctx, database.TriggerWatcher)
	}
}

// Run starts every component and blocks until ctx is cancelled or one of
// them fails.
func (d *Daemon) Run(ctx context.Context) error {
	d.logger.Info("daemon", "Starting jellyrename daemon")

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errChan := make(chan error, 3)
	var wg sync.WaitGroup
	run := func(name string, fn func() error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := fn(); err != nil {
				errChan <- fmt.Errorf("%s: %w", name, err)
			}
		}()
	}

	if d.server != nil {
		run("server", d.server.Start)
	}
	if d.scanner != nil {
		run("scanner", func() error { return d.scanner.Start(ctx) })
	}
	if d.watcher != nil {
		run("watcher", func() error { return d.watcher.Start(ctx) })
	}

	var runErr error
	select {
	case err := <-errChan:
		runErr = err
		d.logger.Error("daemon", "Component failed", err)
	case <-ctx.Done():
		d.logger.Info("daemon", "Shutdown requested")
	}
	cancel()

	stopErr := d.stop()
	wg.Wait()
	d.logger.Info("daemon", "Jellyrename daemon stopped")
	return errors.Join(runErr, stopErr)
}

func (d *Daemon) stop() error {
	var errs []error
	if d.server != nil {
		d.server.SetHealthy(false)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := d.server.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("error stopping server: %w", err))
		}
	}
	if d.debouncer != nil {
		d.debouncer.Stop()
	}
	if d.watcher != nil {
		if err := d.watcher.Close(); err != nil {
			errs = append(errs, fmt.Errorf("error closing watcher: %w", err))
		}
	}
	if d.handler != nil {
		d.handler.Shutdown()
	}
	return errors.Join(errs...)
}
