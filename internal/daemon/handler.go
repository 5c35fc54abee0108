package daemon

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/Nomadcxx/jellyrename/internal/database"
	"github.com/Nomadcxx/jellyrename/internal/jellyfin"
	"github.com/Nomadcxx/jellyrename/internal/logging"
	"github.com/Nomadcxx/jellyrename/internal/organizer"
)

// Renamer is the part of the organizer the webhook drives.
type Renamer interface {
	RenameItem(ctx context.Context, trigger database.Trigger, itemID, overridePath string) (*organizer.Summary, error)
	ReplayDeferred(ctx context.Context, path string) (*organizer.Summary, error)
}

// Stats tracks what the daemon has done since it started.
type Stats struct {
	mu               sync.RWMutex
	webhooksReceived int64
	passesRun        int64
	renamed          int64
	skipped          int64
	failed           int64
	deferred         int64
	errors           int64
	lastPass         time.Time
	startTime        time.Time
}

// StatsSnapshot is a point-in-time copy of Stats.
type StatsSnapshot struct {
	WebhooksReceived int64
	PassesRun        int64
	Renamed          int64
	Skipped          int64
	Failed           int64
	Deferred         int64
	Errors           int64
	LastPass         time.Time
	Uptime           time.Duration
}

func NewStats() *Stats {
	return &Stats{startTime: time.Now()}
}

func (s *Stats) RecordWebhook() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.webhooksReceived++
}

// RecordPass adds a finished pass to the totals.
func (s *Stats) RecordPass(summary *organizer.Summary, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.passesRun++
	s.lastPass = time.Now()
	if err != nil {
		s.errors++
	}
	if summary == nil {
		return
	}
	s.renamed += int64(summary.Renamed())
	s.skipped += int64(summary.Skipped())
	s.failed += int64(summary.Failed())
	s.deferred += int64(summary.Deferred)
}

func (s *Stats) RecordError() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errors++
}

func (s *Stats) Snapshot() StatsSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return StatsSnapshot{
		WebhooksReceived: s.webhooksReceived,
		PassesRun:        s.passesRun,
		Renamed:          s.renamed,
		Skipped:          s.skipped,
		Failed:           s.failed,
		Deferred:         s.deferred,
		Errors:           s.errors,
		LastPass:         s.lastPass,
		Uptime:           time.Since(s.startTime),
	}
}

type MediaHandlerConfig struct {
	Renamer       Renamer
	PlaybackLocks *jellyfin.PlaybackLockManager
	DeferredQueue *jellyfin.DeferredQueue
	Logger        *logging.Logger
}

// MediaHandler turns Jellyfin webhook events into renames and playback
// locks. Renames run in the background; Shutdown waits for them.
type MediaHandler struct {
	renamer       Renamer
	playbackLocks *jellyfin.PlaybackLockManager
	deferredQueue *jellyfin.DeferredQueue
	logger        *logging.Logger
	stats         *Stats

	ctx    context.Context
	cancel context.CancelFunc
	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

func NewMediaHandler(cfg MediaHandlerConfig) *MediaHandler {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Nop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &MediaHandler{
		renamer:       cfg.Renamer,
		playbackLocks: cfg.PlaybackLocks,
		deferredQueue: cfg.DeferredQueue,
		logger:        logger,
		stats:         NewStats(),
		ctx:           ctx,
		cancel:        cancel,
	}
}

// HandleJellyfinWebhookEvent applies one event. It reports whether background
// work was queued.
func (h *MediaHandler) HandleJellyfinWebhookEvent(event jellyfin.WebhookEvent) bool {
	h.stats.RecordWebhook()
	path := strings.TrimSpace(event.ItemPath)

	switch event.NotificationType {
	case jellyfin.EventPlaybackStart:
		if path == "" || h.playbackLocks == nil {
			return false
		}
		info := event.PlaybackInfo()
		info.StartedAt = time.Now()
		h.playbackLocks.Lock(path, info)
		h.logger.Info("handler", "Playback lock added", logging.F("path", path), logging.F("user", event.UserName))
		return false

	case jellyfin.EventPlaybackStop:
		if path == "" {
			return false
		}
		if h.playbackLocks != nil {
			if locked, info := h.playbackLocks.IsLocked(path); locked {
				h.logger.Info("handler", "Playback lock removed",
					logging.F("path", path),
					logging.F("user", info.UserName),
					logging.F("held", time.Since(info.StartedAt).Round(time.Second)))
			} else {
				h.logger.Debug("handler", "Playback stopped without a lock", logging.F("path", path))
			}
		}
		if h.renamer == nil {
			if h.playbackLocks != nil {
				h.playbackLocks.Unlock(path)
			}
			return false
		}
		return h.spawn("replay", func(ctx context.Context) (*organizer.Summary, error) {
			return h.renamer.ReplayDeferred(ctx, path)
		})

	case jellyfin.EventItemAdded, jellyfin.EventItemUpdated:
		itemID, override, ok := event.RenameTarget()
		if !ok || h.renamer == nil {
			h.logger.Debug("handler", "Ignoring item event",
				logging.F("type", event.ItemType), logging.F("item", event.ItemID))
			return false
		}
		h.logger.Info("handler", "Rename requested",
			logging.F("event", event.NotificationType), logging.F("item", itemID), logging.F("name", event.ItemName),
			logging.F("providers", event.ProviderIDs()))
		return h.spawn("rename", func(ctx context.Context) (*organizer.Summary, error) {
			return h.renamer.RenameItem(ctx, database.TriggerWebhook, itemID, override)
		})
	}

	h.logger.Debug("handler", "Ignoring webhook event", logging.F("event", event.NotificationType))
	return false
}

func (h *MediaHandler) spawn(what string, run func(ctx context.Context) (*organizer.Summary, error)) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		summary, err := run(h.ctx)
		if err == nil && (summary == nil || summary.Total()+summary.Deferred == 0) {
			return
		}
		h.stats.RecordPass(summary, err)
		if err != nil {
			h.logger.Error("handler", "Webhook "+what+" failed", err)
		}
	}()
	return true
}

// RecordPass lets passes started elsewhere show up in the stats.
func (h *MediaHandler) RecordPass(summary *organizer.Summary, err error) {
	h.stats.RecordPass(summary, err)
}

func (h *MediaHandler) Stats() StatsSnapshot {
	return h.stats.Snapshot()
}

func (h *MediaHandler) PlaybackLockManager() *jellyfin.PlaybackLockManager {
	return h.playbackLocks
}

func (h *MediaHandler) DeferredQueue() *jellyfin.DeferredQueue {
	return h.deferredQueue
}

// Shutdown cancels background renames and waits for them to return.
func (h *MediaHandler) Shutdown() {
	h.mu.Lock()
	h.closed = true
	h.mu.Unlock()
	h.cancel()
	h.wg.Wait()
}
