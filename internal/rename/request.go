package rename

import (
	"errors"

	"github.com/Nomadcxx/jellyrename/internal/media"
)

// TargetKind selects how the item's path is resolved and which conflict
// rules apply.
type TargetKind int

const (
	SeriesFolder TargetKind = iota + 1
	SeasonFolder
	MovieFolder
	EpisodeFile
)

func (k TargetKind) String() string {
	switch k {
	case SeriesFolder:
		return "series_folder"
	case SeasonFolder:
		return "season_folder"
	case MovieFolder:
		return "movie_folder"
	case EpisodeFile:
		return "episode_file"
	default:
		return "unknown"
	}
}

// IsFolder reports whether the kind renames a directory.
func (k TargetKind) IsFolder() bool {
	return k == SeriesFolder || k == SeasonFolder || k == MovieFolder
}

// Request describes one rename. It is consumed by a single Execute call.
type Request struct {
	Kind TargetKind
	Item *media.Item
	// DesiredName is the rendered name. It is trimmed and sanitized before use.
	DesiredName string
	// Extension is appended to episode file names. Empty means keep the
	// current file's extension.
	Extension string
	DryRun    bool
	// OverridePath replaces Item.Path for episode files whose location changed
	// earlier in the same sequence of renames.
	OverridePath string
}

// Result reports what Execute did.
type Result struct {
	Outcome    Outcome
	Kind       TargetKind
	SourcePath string
	TargetPath string
	// Err carries the cause behind a skip or failure, for diagnostics only.
	Err error
}

var (
	ErrNilItem          = errors.New("item is nil")
	ErrUnknownKind      = errors.New("unknown target kind")
	ErrBlankName        = errors.New("desired name is blank")
	ErrNoPath           = errors.New("item has no path")
	ErrMetadataMismatch = errors.New("desired name disagrees with item metadata")
	ErrNotDirectory     = errors.New("folder item path is not a directory")
	ErrIsDirectory      = errors.New("episode path is a directory")
	ErrNoParent         = errors.New("path has no parent directory")
	ErrEscapesParent    = errors.New("target would leave the source directory")
	ErrTargetExists     = errors.New("target name is occupied")
	ErrVerifyFailed     = errors.New("target missing after rename")
	ErrPanic            = errors.New("panic during rename")
)
