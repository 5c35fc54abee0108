// Package media holds the read-only snapshots of library items that the
// renamer works from. Values are owned by whoever built them; nothing in
// this module mutates an Item after construction.
package media

import (
	"sort"
	"strings"
)

// Kind identifies the variant of an Item.
type Kind int

const (
	KindUnknown Kind = iota
	KindSeries
	KindSeason
	KindEpisode
	KindMovie
)

func (k Kind) String() string {
	switch k {
	case KindSeries:
		return "series"
	case KindSeason:
		return "season"
	case KindEpisode:
		return "episode"
	case KindMovie:
		return "movie"
	default:
		return "unknown"
	}
}

// Item is a snapshot of one library entry.
type Item struct {
	ID   string
	Kind Kind
	Name string
	// Path is absolute. Empty means the item has no location on disk.
	// For movies it points at the media file, not the folder.
	Path string
	// ProviderIDs maps provider name (e.g. "Tvdb") to that provider's id.
	ProviderIDs map[string]string
	Year        int

	// Season and episode items only.
	SeasonNumber  *int
	EpisodeNumber *int
	SeasonName    string

	// Series is the parent series of a season or episode, when known.
	Series *Item
}

// ProviderID returns the id stored under provider, matching the key
// case-insensitively.
func (i *Item) ProviderID(provider string) (string, bool) {
	if i == nil {
		return "", false
	}
	for key, value := range i.ProviderIDs {
		if strings.EqualFold(key, provider) && strings.TrimSpace(value) != "" {
			return strings.TrimSpace(value), true
		}
	}
	return "", false
}

// PreferredProvider returns the first provider in order that the item has an
// id for, as a lower-cased label and the id. When none of them match, the
// alphabetically first provider the item has is used.
func (i *Item) PreferredProvider(order ...string) (label, id string) {
	if i == nil {
		return "", ""
	}
	for _, p := range order {
		if v, ok := i.ProviderID(p); ok {
			return strings.ToLower(p), v
		}
	}

	keys := make([]string, 0, len(i.ProviderIDs))
	for key, value := range i.ProviderIDs {
		if strings.TrimSpace(key) != "" && strings.TrimSpace(value) != "" {
			keys = append(keys, key)
		}
	}
	if len(keys) == 0 {
		return "", ""
	}
	sort.Strings(keys)
	return strings.ToLower(keys[0]), strings.TrimSpace(i.ProviderIDs[keys[0]])
}

// SeriesName returns the parent series' name for seasons and episodes and
// the item's own name for a series.
func (i *Item) SeriesName() string {
	if i == nil {
		return ""
	}
	if i.Kind == KindSeries {
		return i.Name
	}
	if i.Series != nil {
		return i.Series.Name
	}
	return ""
}

// IntPtr returns a pointer to n.
func IntPtr(n int) *int {
	return &n
}
