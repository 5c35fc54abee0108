package scanner

import (
	"context"
	"time"

	"github.com/Nomadcxx/jellyrename/internal/database"
	"github.com/Nomadcxx/jellyrename/internal/logging"
	"github.com/Nomadcxx/jellyrename/internal/organizer"
)

// Runner runs one library pass.
type Runner interface {
	RunLibrary(ctx context.Context, trigger database.Trigger, opts organizer.PassOptions) (*organizer.Summary, error)
}

// ScannerConfig holds configuration for the pass scheduler
type ScannerConfig struct {
	// Schedule is a standard five-field cron expression. Empty disables
	// scheduled passes; Trigger still works.
	Schedule string
	Runner   Runner
	Logger   *logging.Logger
}

// ScannerStatus holds the current state for health reporting
type ScannerStatus struct {
	Healthy      bool           `json:"healthy"`
	Schedule     string         `json:"schedule,omitempty"`
	NextRun      time.Time      `json:"next_run,omitempty"`
	LastScan     time.Time      `json:"last_scan,omitempty"`
	LastSuccess  time.Time      `json:"last_success,omitempty"`
	LastError    string         `json:"last_error,omitempty"`
	LastTrigger  string         `json:"last_trigger,omitempty"`
	LastCounts   map[string]int `json:"last_counts,omitempty"`
	SkippedTicks int64          `json:"skipped_ticks"`
	Scanning     bool           `json:"scanning"`
}
