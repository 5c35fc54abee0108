// Package organizer drives library-wide renames: it reads item snapshots
// from Jellyfin, renders desired names, runs them through the rename
// executor in a safe order and records every outcome.
package organizer

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/Nomadcxx/jellyrename/internal/config"
	"github.com/Nomadcxx/jellyrename/internal/database"
	"github.com/Nomadcxx/jellyrename/internal/jellyfin"
	"github.com/Nomadcxx/jellyrename/internal/logging"
	"github.com/Nomadcxx/jellyrename/internal/rename"
	"github.com/spf13/afero"
)

const component = "organizer"

var (
	ErrNoJellyfin       = errors.New("no jellyfin source configured")
	ErrNoEpisodeNumber  = errors.New("episode number unknown")
	ErrNoSeasonNumber   = errors.New("season number unknown")
	ErrLibraryRoot      = errors.New("folder is a library root")
	ErrOutsideSeries    = errors.New("season folder is not inside the series folder")
	ErrUnsupportedEvent = errors.New("item type cannot be renamed")
)

// Source is the read side of Jellyfin the organizer needs.
type Source interface {
	GetItem(ctx context.Context, itemID string) (*jellyfin.Item, error)
	ListSeries(ctx context.Context) ([]jellyfin.Item, error)
	ListMovies(ctx context.Context) ([]jellyfin.Item, error)
	ListSeriesChildren(ctx context.Context, seriesID string) (seasons, episodes []jellyfin.Item, err error)
}

// Refresher is told about items whose paths changed.
type Refresher interface {
	RefreshItem(ctx context.Context, itemID string) error
}

// Recorder persists passes and their outcomes.
type Recorder interface {
	StartPass(trigger database.Trigger, dryRun bool) (string, error)
	FinishPass(id string, passErr error) error
	RecordRename(r database.RenameRecord) (int64, error)
}

type Organizer struct {
	source    Source
	refresher Refresher
	recorder  Recorder
	executor  *rename.Executor
	fs        afero.Fs
	templates config.TemplatesConfig
	roots     []string
	dryRun    bool
	playback  *jellyfin.PlaybackLockManager
	deferred  *jellyfin.DeferredQueue
	locks     *keyedMutex
	logger    *logging.Logger
}

func NewOrganizer(source Source, options ...func(*Organizer)) *Organizer {
	org := &Organizer{
		source: source,
		locks:  newKeyedMutex(),
		logger: logging.Nop(),
	}
	for _, opt := range options {
		opt(org)
	}
	if org.fs == nil {
		org.fs = afero.NewOsFs()
	}
	org.executor = rename.NewExecutor(org.fs, rename.WithLogger(org.logger))
	return org
}

// WithDryRun sets dry run mode
func WithDryRun(dryRun bool) func(*Organizer) {
	return func(o *Organizer) {
		o.dryRun = dryRun
	}
}

// WithTemplates sets the naming templates
func WithTemplates(t config.TemplatesConfig) func(*Organizer) {
	return func(o *Organizer) {
		o.templates = t
	}
}

// WithLibraryRoots sets folders that are never renamed themselves.
func WithLibraryRoots(roots ...string) func(*Organizer) {
	return func(o *Organizer) {
		for _, r := range roots {
			if strings.TrimSpace(r) != "" {
				o.roots = append(o.roots, filepath.Clean(r))
			}
		}
	}
}

// WithPlayback enables deferral of renames touching files being streamed.
func WithPlayback(locks *jellyfin.PlaybackLockManager, queue *jellyfin.DeferredQueue) func(*Organizer) {
	return func(o *Organizer) {
		o.playback = locks
		o.deferred = queue
	}
}

func WithRecorder(r Recorder) func(*Organizer) {
	return func(o *Organizer) {
		o.recorder = r
	}
}

func WithRefresher(r Refresher) func(*Organizer) {
	return func(o *Organizer) {
		o.refresher = r
	}
}

// WithFs sets the filesystem renames run against. Default is the OS.
func WithFs(fsys afero.Fs) func(*Organizer) {
	return func(o *Organizer) {
		o.fs = fsys
	}
}

func WithLogger(logger *logging.Logger) func(*Organizer) {
	return func(o *Organizer) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// DryRun reports whether the organizer only simulates renames.
func (o *Organizer) DryRun() bool {
	return o.dryRun
}

// PassOptions narrows a library pass.
type PassOptions struct {
	SeriesID   string
	SeriesOnly bool
	MoviesOnly bool
}

// RunLibrary renames every series and movie Jellyfin knows about.
func (o *Organizer) RunLibrary(ctx context.Context, trigger database.Trigger, opts PassOptions) (*Summary, error) {
	if o.source == nil {
		return nil, ErrNoJellyfin
	}
	p := o.startPass(trigger)
	err := o.runLibrary(ctx, p, opts)
	return o.finishPass(p, err)
}

func (o *Organizer) runLibrary(ctx context.Context, p *pass, opts PassOptions) error {
	if opts.SeriesID != "" {
		item, err := o.source.GetItem(ctx, opts.SeriesID)
		if err != nil {
			return err
		}
		return o.renameSeries(ctx, p, *item, nil)
	}

	if !opts.MoviesOnly {
		series, err := o.source.ListSeries(ctx)
		if err != nil {
			return fmt.Errorf("listing series: %w", err)
		}
		for _, s := range series {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := o.renameSeries(ctx, p, s, nil); err != nil {
				p.summary.addError(fmt.Errorf("series %s: %w", s.Name, err))
			}
		}
	}

	if !opts.SeriesOnly {
		movies, err := o.source.ListMovies(ctx)
		if err != nil {
			return fmt.Errorf("listing movies: %w", err)
		}
		for _, m := range movies {
			if err := ctx.Err(); err != nil {
				return err
			}
			o.renameMovie(ctx, p, m)
		}
	}
	return nil
}

// RenameItem renames one item. Seasons and episodes are handled through
// their series so the hierarchy is renamed in a safe order. overridePath,
// when set, is the current location of an episode file whose snapshot
// path may be stale.
func (o *Organizer) RenameItem(ctx context.Context, trigger database.Trigger, itemID, overridePath string) (*Summary, error) {
	if o.source == nil {
		return nil, ErrNoJellyfin
	}
	p := o.startPass(trigger)
	err := o.renameItem(ctx, p, itemID, overridePath)
	return o.finishPass(p, err)
}

func (o *Organizer) renameItem(ctx context.Context, p *pass, itemID, overridePath string) error {
	item, err := o.source.GetItem(ctx, itemID)
	if err != nil {
		return err
	}

	switch item.Type {
	case jellyfin.TypeMovie:
		o.renameMovie(ctx, p, *item)
		return nil
	case jellyfin.TypeSeries:
		return o.renameSeries(ctx, p, *item, nil)
	case jellyfin.TypeSeason, jellyfin.TypeEpisode:
		if item.SeriesID == "" {
			return fmt.Errorf("%s %s has no series", item.Type, item.ID)
		}
		series, err := o.source.GetItem(ctx, item.SeriesID)
		if err != nil {
			return err
		}
		var overrides map[string]string
		if item.Type == jellyfin.TypeEpisode && overridePath != "" && filepath.Clean(overridePath) != filepath.Clean(item.Path) {
			overrides = map[string]string{item.ID: overridePath}
		}
		return o.renameSeries(ctx, p, *series, overrides)
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedEvent, item.Type)
	}
}

// ReplayDeferred releases the playback lock on path and renames every item
// that was waiting on it.
func (o *Organizer) ReplayDeferred(ctx context.Context, path string) (*Summary, error) {
	if o.playback != nil {
		o.playback.Unlock(path)
	}
	if o.deferred == nil {
		return &Summary{Counts: map[rename.Outcome]int{}}, nil
	}
	ops := o.deferred.RemoveForPath(path)
	if len(ops) == 0 {
		return &Summary{Counts: map[rename.Outcome]int{}}, nil
	}

	p := o.startPass(database.TriggerWebhook)
	for _, op := range ops {
		o.logger.Info(component, "Replaying deferred rename",
			logging.F("item", op.ItemID), logging.F("path", path), logging.F("retries", op.RetryCount))
		if err := o.renameItem(ctx, p, op.ItemID, ""); err != nil {
			p.summary.addError(fmt.Errorf("item %s: %w", op.ItemID, err))
		}
	}
	return o.finishPass(p, nil)
}

// deferIfPlaying queues itemID when anything under folder is streaming.
func (o *Organizer) deferIfPlaying(p *pass, itemID, name, folder string) bool {
	if o.playback == nil || folder == "" {
		return false
	}
	locked, ok := o.playback.LockedUnder(folder)
	if !ok {
		return false
	}
	if o.deferred != nil {
		o.deferred.Add(locked, jellyfin.DeferredOp{ItemID: itemID, ItemName: name, Reason: "file is being streamed"})
	}
	p.summary.Deferred++
	o.logger.Info(component, "Deferred rename during playback",
		logging.F("item", itemID), logging.F("name", name), logging.F("playing", locked))
	return true
}

func (o *Organizer) isLibraryRoot(path string) bool {
	clean := filepath.Clean(path)
	for _, r := range o.roots {
		if clean == r {
			return true
		}
	}
	return false
}
