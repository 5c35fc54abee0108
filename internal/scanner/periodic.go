// Package scanner runs library passes on a cron schedule and on demand,
// never more than one at a time.
package scanner

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Nomadcxx/jellyrename/internal/database"
	"github.com/Nomadcxx/jellyrename/internal/logging"
	"github.com/Nomadcxx/jellyrename/internal/organizer"
	"github.com/robfig/cron/v3"
)

// PeriodicScanner runs scheduled library passes to catch anything the
// webhook missed.
type PeriodicScanner struct {
	schedule string
	runner   Runner
	logger   *logging.Logger
	cron     *cron.Cron
	entry    cron.EntryID

	// State tracking
	mu           sync.Mutex
	scanning     bool
	lastScan     time.Time
	lastSuccess  time.Time
	lastError    error
	lastTrigger  database.Trigger
	lastCounts   map[string]int
	skippedTicks int64

	// Health tracking
	healthy bool
}

// NewPeriodicScanner creates a new scanner with the given config. The
// schedule is validated here so a bad expression fails at startup.
func NewPeriodicScanner(cfg ScannerConfig) (*PeriodicScanner, error) {
	s := &PeriodicScanner{
		schedule: cfg.Schedule,
		runner:   cfg.Runner,
		logger:   cfg.Logger,
		cron:     cron.New(),
		healthy:  true,
	}
	if s.logger == nil {
		s.logger = logging.Nop()
	}

	if cfg.Schedule != "" {
		id, err := s.cron.AddFunc(cfg.Schedule, func() {
			s.tick(context.Background(), database.TriggerSchedule)
		})
		if err != nil {
			return nil, fmt.Errorf("invalid schedule %q: %w", cfg.Schedule, err)
		}
		s.entry = id
	}
	return s, nil
}

// IsHealthy returns whether the last pass succeeded
func (s *PeriodicScanner) IsHealthy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.healthy
}

// Status returns the current scanner status for health reporting
func (s *PeriodicScanner) Status() ScannerStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	status := ScannerStatus{
		Healthy:      s.healthy,
		Schedule:     s.schedule,
		LastScan:     s.lastScan,
		LastSuccess:  s.lastSuccess,
		LastTrigger:  string(s.lastTrigger),
		SkippedTicks: s.skippedTicks,
		Scanning:     s.scanning,
	}
	if s.entry != 0 {
		status.NextRun = s.cron.Entry(s.entry).Next
	}
	if len(s.lastCounts) > 0 {
		status.LastCounts = make(map[string]int, len(s.lastCounts))
		for k, v := range s.lastCounts {
			status.LastCounts[k] = v
		}
	}
	if s.lastError != nil {
		status.LastError = s.lastError.Error()
	}

	return status
}

// Start runs the cron schedule. Blocks until ctx is cancelled, then waits
// for a running pass to finish.
func (s *PeriodicScanner) Start(ctx context.Context) error {
	s.logger.Info("scanner", "Pass scheduler starting", logging.F("schedule", s.schedule))

	s.cron.Start()
	<-ctx.Done()
	<-s.cron.Stop().Done()

	s.logger.Info("scanner", "Pass scheduler stopped")
	return nil
}

// Trigger runs a pass now unless one is already running. It reports
// whether a pass ran.
func (s *PeriodicScanner) Trigger(ctx context.Context, trigger database.Trigger) bool {
	return s.tick(ctx, trigger)
}

func (s *PeriodicScanner) tick(ctx context.Context, trigger database.Trigger) bool {
	s.mu.Lock()
	if s.scanning {
		s.skippedTicks++
		skipped := s.skippedTicks
		s.mu.Unlock()
		s.logger.Warn("scanner", "Pass skipped - previous pass still running",
			logging.F("trigger", trigger), logging.F("skipped_ticks", skipped))
		return false
	}
	s.scanning = true
	s.mu.Unlock()

	summary, err := s.runScan(ctx, trigger)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.scanning = false
	s.lastScan = time.Now()
	s.lastTrigger = trigger
	if summary != nil {
		s.lastCounts = make(map[string]int, len(summary.Counts))
		for o, n := range summary.Counts {
			s.lastCounts[o.String()] = n
		}
	}
	if err != nil {
		s.lastError = err
		s.healthy = false
		s.logger.Error("scanner", "Library pass failed", err, logging.F("trigger", trigger))
	} else {
		s.lastSuccess = s.lastScan
		s.lastError = nil
		s.healthy = true
	}
	return true
}

func (s *PeriodicScanner) runScan(ctx context.Context, trigger database.Trigger) (summary *organizer.Summary, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pass panic: %v", r)
			s.logger.Error("scanner", "Panic during library pass", err)
		}
	}()

	if s.runner == nil {
		return nil, organizer.ErrNoJellyfin
	}
	return s.runner.RunLibrary(ctx, trigger, organizer.PassOptions{})
}
