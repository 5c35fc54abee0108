package jellyfin

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Nomadcxx/jellyrename/internal/media"
)

// ErrUnsupportedItem is returned for item types the renamer does not handle.
var ErrUnsupportedItem = errors.New("unsupported item type")

// MediaKind maps the Jellyfin type onto media.Kind.
func (i Item) MediaKind() media.Kind {
	switch i.Type {
	case TypeSeries:
		return media.KindSeries
	case TypeSeason:
		return media.KindSeason
	case TypeEpisode:
		return media.KindEpisode
	case TypeMovie:
		return media.KindMovie
	default:
		return media.KindUnknown
	}
}

// OnDisk reports whether the item has a real location. Virtual items are
// placeholders Jellyfin creates for missing seasons and episodes.
func (i Item) OnDisk() bool {
	return strings.TrimSpace(i.Path) != "" && !strings.EqualFold(i.LocationType, "Virtual")
}

// ToMedia snapshots the item. series is attached to seasons and episodes
// and may be nil.
func (i Item) ToMedia(series *media.Item) (*media.Item, error) {
	kind := i.MediaKind()
	if kind == media.KindUnknown {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedItem, i.Type)
	}

	ids := make(map[string]string, len(i.ProviderIDs))
	for k, v := range i.ProviderIDs {
		ids[k] = v
	}

	m := &media.Item{
		ID:          i.ID,
		Kind:        kind,
		Name:        i.Name,
		Path:        i.Path,
		ProviderIDs: ids,
		Year:        i.ProductionYear,
	}

	switch kind {
	case media.KindSeason:
		m.SeasonNumber = copyInt(i.IndexNumber)
		m.SeasonName = i.Name
		m.Series = series
	case media.KindEpisode:
		m.SeasonNumber = copyInt(i.ParentIndexNumber)
		m.EpisodeNumber = copyInt(i.IndexNumber)
		m.SeasonName = i.SeasonName
		m.Series = series
	}
	return m, nil
}

func copyInt(p *int) *int {
	if p == nil {
		return nil
	}
	return media.IntPtr(*p)
}
