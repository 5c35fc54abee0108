// Package rename performs single, verified, sibling renames of library items.
//
// Execute never panics and never returns an error: every path through it ends
// in exactly one Outcome. It does not serialize concurrent calls; callers
// that may touch the same paths concurrently must lock per item themselves.
package rename

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/Nomadcxx/jellyrename/internal/logging"
	"github.com/Nomadcxx/jellyrename/internal/media"
	"github.com/Nomadcxx/jellyrename/internal/naming"
	"github.com/spf13/afero"
)

const component = "rename"

// Executor renames items on a filesystem.
type Executor struct {
	fs     afero.Fs
	logger *logging.Logger
}

// Option configures an Executor.
type Option func(*Executor)

// WithLogger sets the logger used for decision and failure reporting.
func WithLogger(logger *logging.Logger) Option {
	return func(e *Executor) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// NewExecutor returns an Executor over fsys. A nil fsys means the real OS
// filesystem.
func NewExecutor(fsys afero.Fs, opts ...Option) *Executor {
	if fsys == nil {
		fsys = afero.NewOsFs()
	}
	e := &Executor{
		fs:     fsys,
		logger: logging.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Execute runs one rename request to completion.
func (e *Executor) Execute(req Request) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			res.Outcome = FailedUnexpected
			res.Err = fmt.Errorf("%w: %v", ErrPanic, r)
		}
		res.Kind = req.Kind
		e.report(req, res)
	}()
	return e.execute(req)
}

// resolved is the state reached once the source and target paths are known.
type resolved struct {
	source     string
	sourceInfo os.FileInfo
	parent     string
	target     string
}

func (e *Executor) execute(req Request) Result {
	if err := validate(req); err != nil {
		return Result{Outcome: SkippedInvalidInput, Err: err}
	}

	r, res, ok := e.resolve(req)
	if !ok {
		return res
	}
	res = Result{SourcePath: r.source, TargetPath: r.target}

	sourceBase := filepath.Base(r.source)
	targetBase := filepath.Base(r.target)
	forced := false
	if strings.EqualFold(sourceBase, targetBase) {
		if naming.ShouldSkipRename(req.Item.ProviderIDs, sourceBase, targetBase) {
			res.Outcome = SkippedAlreadyCorrect
			return res
		}
		forced = true
	}

	occupant, occupantInfo, err := e.occupant(r, forced)
	if err != nil {
		res.Outcome = classify(err)
		res.Err = err
		return res
	}
	if occupant != "" {
		if req.Kind == EpisodeFile && sameLogicalFile(r.source, occupant, r.sourceInfo, occupantInfo) {
			res.Outcome = SkippedSameLogicalFile
			return res
		}
		res.Outcome = FailedTargetConflict
		res.Err = fmt.Errorf("%w: %s", ErrTargetExists, occupant)
		return res
	}

	if req.DryRun {
		res.Outcome = SkippedDryRun
		return res
	}

	if err := e.move(r.source, r.target); err != nil {
		res.Outcome = classify(err)
		res.Err = err
		return res
	}

	if _, err := e.fs.Stat(r.target); err != nil {
		res.Outcome = VerifyFailed
		res.Err = fmt.Errorf("%w: %v", ErrVerifyFailed, err)
		return res
	}

	res.Outcome = Renamed
	return res
}

func validate(req Request) error {
	if req.Item == nil {
		return ErrNilItem
	}
	switch req.Kind {
	case SeriesFolder, SeasonFolder, MovieFolder, EpisodeFile:
	default:
		return fmt.Errorf("%w: %d", ErrUnknownKind, req.Kind)
	}
	name := strings.TrimSpace(req.DesiredName)
	if name == "" {
		return ErrBlankName
	}
	if req.Kind == EpisodeFile {
		return checkEpisodeName(req.Item, name)
	}
	return nil
}

// checkEpisodeName rejects a rendered episode name whose S##E## token points
// at a different episode than the item's metadata. Names without a token
// are accepted.
func checkEpisodeName(item *media.Item, name string) error {
	if item.EpisodeNumber == nil {
		return nil
	}
	season, episode, ok := naming.ParseSeasonEpisode(name)
	if !ok {
		return nil
	}
	if episode != *item.EpisodeNumber {
		return fmt.Errorf("%w: name has episode %d, metadata has %d", ErrMetadataMismatch, episode, *item.EpisodeNumber)
	}
	if item.SeasonNumber != nil && season != *item.SeasonNumber {
		return fmt.Errorf("%w: name has season %d, metadata has %d", ErrMetadataMismatch, season, *item.SeasonNumber)
	}
	return nil
}

// resolve finds the working source path and computes the sibling target.
func (e *Executor) resolve(req Request) (resolved, Result, bool) {
	source := req.Item.Path
	if req.Kind == EpisodeFile && strings.TrimSpace(req.OverridePath) != "" {
		source = req.OverridePath
	}
	source = strings.TrimSpace(source)
	if source == "" {
		return resolved{}, Result{Outcome: SkippedInvalidInput, Err: ErrNoPath}, false
	}
	source = filepath.Clean(source)

	info, err := e.fs.Stat(source)
	if err != nil {
		return resolved{}, Result{Outcome: statOutcome(err), SourcePath: source, Err: err}, false
	}

	switch req.Kind {
	case MovieFolder:
		// Movies point at the media file; disc structures point at the folder.
		if !info.IsDir() {
			source = filepath.Dir(source)
			if info, err = e.fs.Stat(source); err != nil {
				return resolved{}, Result{Outcome: statOutcome(err), SourcePath: source, Err: err}, false
			}
		}
	case SeriesFolder, SeasonFolder:
		if !info.IsDir() {
			return resolved{}, Result{Outcome: SkippedInvalidInput, SourcePath: source, Err: ErrNotDirectory}, false
		}
	case EpisodeFile:
		if info.IsDir() {
			return resolved{}, Result{Outcome: SkippedInvalidInput, SourcePath: source, Err: ErrIsDirectory}, false
		}
	}

	parent := filepath.Dir(source)
	if parent == source {
		return resolved{}, Result{Outcome: FailedPathNotFound, SourcePath: source, Err: ErrNoParent}, false
	}
	if _, err := e.fs.Stat(parent); err != nil {
		return resolved{}, Result{Outcome: statOutcome(err), SourcePath: source, Err: err}, false
	}

	name := naming.Sanitize(strings.TrimSpace(req.DesiredName))
	if req.Kind == EpisodeFile {
		ext := normalizeExt(req.Extension, source)
		if ext != "" && !strings.HasSuffix(strings.ToLower(name), strings.ToLower(ext)) {
			name += ext
		}
	}

	target := filepath.Join(parent, name)
	if filepath.Dir(target) != parent {
		return resolved{}, Result{Outcome: SkippedInvalidInput, SourcePath: source, TargetPath: target, Err: ErrEscapesParent}, false
	}

	return resolved{source: source, sourceInfo: info, parent: parent, target: target}, Result{}, true
}

func normalizeExt(ext, source string) string {
	ext = strings.TrimSpace(ext)
	if ext == "" {
		return filepath.Ext(source)
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}

// occupant returns the path of an entry, other than the source itself, that
// holds the target name. On case-sensitive filesystems a sibling differing
// from the target only by case also counts, since Jellyfin clients on
// case-insensitive shares cannot tell the two apart.
func (e *Executor) occupant(r resolved, forced bool) (string, os.FileInfo, error) {
	if r.target == r.source {
		return "", nil, nil
	}

	info, err := e.fs.Stat(r.target)
	switch {
	case err == nil:
		// A case-only rename on a case-insensitive filesystem finds the
		// source itself under the target name.
		if forced && os.SameFile(info, r.sourceInfo) {
			return "", nil, nil
		}
		return r.target, info, nil
	case !errors.Is(err, fs.ErrNotExist):
		return "", nil, err
	}

	entries, err := afero.ReadDir(e.fs, r.parent)
	if err != nil {
		return "", nil, err
	}
	targetBase := filepath.Base(r.target)
	sourceBase := filepath.Base(r.source)
	for _, entry := range entries {
		name := entry.Name()
		if name == targetBase || name == sourceBase {
			continue
		}
		if strings.EqualFold(name, targetBase) {
			return filepath.Join(r.parent, name), entry, nil
		}
	}
	return "", nil, nil
}

// sameLogicalFile treats two episode files as one when they are the same
// path, the same inode, or non-empty files of identical size.
func sameLogicalFile(source, target string, sourceInfo, targetInfo os.FileInfo) bool {
	if source == target {
		return true
	}
	if sourceInfo == nil || targetInfo == nil {
		return false
	}
	if os.SameFile(sourceInfo, targetInfo) {
		return true
	}
	if sourceInfo.IsDir() || targetInfo.IsDir() {
		return false
	}
	return sourceInfo.Size() > 0 && sourceInfo.Size() == targetInfo.Size()
}

// move renames source to target. A case-only change goes through a
// temporary sibling so it also works on case-insensitive filesystems.
func (e *Executor) move(source, target string) error {
	if source == target {
		return nil
	}
	if !strings.EqualFold(source, target) {
		return e.fs.Rename(source, target)
	}

	tmp := filepath.Join(filepath.Dir(target), "."+filepath.Base(target)+".jellyrename-tmp")
	if err := e.fs.Rename(source, tmp); err != nil {
		return err
	}
	if err := e.fs.Rename(tmp, target); err != nil {
		if rbErr := e.fs.Rename(tmp, source); rbErr != nil {
			return fmt.Errorf("%w (rollback failed, entry left at %s: %v)", err, tmp, rbErr)
		}
		return err
	}
	return nil
}

func statOutcome(err error) Outcome {
	if errors.Is(err, fs.ErrNotExist) {
		return FailedPathNotFound
	}
	return classify(err)
}

func (e *Executor) report(req Request, res Result) {
	fields := []logging.Field{
		logging.F("kind", req.Kind.String()),
		logging.F("outcome", res.Outcome.String()),
		logging.F("source", res.SourcePath),
		logging.F("target", res.TargetPath),
	}
	if req.Item != nil && req.Item.ID != "" {
		fields = append(fields, logging.F("item", req.Item.ID))
	}

	switch {
	case res.Outcome == Renamed:
		e.logger.Info(component, "Renamed", fields...)
	case res.Outcome == SkippedDryRun:
		e.logger.Info(component, "Would rename (dry run)", fields...)
	case res.Outcome == SkippedInvalidInput:
		e.logger.Warn(component, "Skipped invalid rename request", append(fields, logging.F("reason", errString(res.Err)))...)
	case res.Outcome.Skipped():
		e.logger.Debug(component, "Skipped", fields...)
	default:
		e.logger.Error(component, "Rename failed", res.Err, fields...)
	}
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
