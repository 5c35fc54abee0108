package organizer

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/Nomadcxx/jellyrename/internal/jellyfin"
	"github.com/Nomadcxx/jellyrename/internal/logging"
	"github.com/Nomadcxx/jellyrename/internal/media"
	"github.com/Nomadcxx/jellyrename/internal/naming"
	"github.com/Nomadcxx/jellyrename/internal/rename"
)

var (
	seriesProviders = []string{"Tvdb", "Tmdb", "Imdb"}
	movieProviders  = []string{"Tmdb", "Imdb", "Tvdb"}
)

// renameSeries renames a series bottom-up: episode files, then season
// folders, then the series folder. Renaming a folder invalidates the paths
// of everything below it, so nothing is renamed after its parent.
func (o *Organizer) renameSeries(ctx context.Context, p *pass, series jellyfin.Item, overrides map[string]string) error {
	if series.Type != jellyfin.TypeSeries {
		return fmt.Errorf("%w: expected series, got %q", ErrUnsupportedEvent, series.Type)
	}

	unlock := o.locks.Lock("series:" + series.ID)
	defer unlock()

	if !series.OnDisk() {
		o.skip(p, series.ID, rename.SeriesFolder, series.Path, rename.ErrNoPath)
		return nil
	}
	if o.deferIfPlaying(p, series.ID, series.Name, series.Path) {
		return nil
	}

	seriesMedia, err := series.ToMedia(nil)
	if err != nil {
		return err
	}
	seasons, episodes, err := o.source.ListSeriesChildren(ctx, series.ID)
	if err != nil {
		return fmt.Errorf("listing children: %w", err)
	}

	seasonNumbers := make(map[string]*int, len(seasons))
	for _, s := range seasons {
		seasonNumbers[s.ID] = s.IndexNumber
	}

	renamed := 0
	sortEpisodes(episodes)
	for _, ep := range episodes {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !ep.OnDisk() {
			continue
		}
		if o.renameEpisode(p, seriesMedia, ep, seasonNumbers[ep.SeasonID], overrides[ep.ID]) == rename.Renamed {
			renamed++
		}
	}

	seriesPath := filepath.Clean(series.Path)
	sortSeasons(seasons)
	for _, s := range seasons {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !s.OnDisk() {
			continue
		}
		seasonPath := filepath.Clean(s.Path)
		if seasonPath == seriesPath {
			// Flat layout: episodes sit directly in the series folder.
			continue
		}
		if filepath.Dir(seasonPath) != seriesPath {
			o.skip(p, s.ID, rename.SeasonFolder, s.Path, ErrOutsideSeries)
			continue
		}
		if o.renameSeason(p, seriesMedia, s) == rename.Renamed {
			renamed++
		}
	}

	if o.isLibraryRoot(series.Path) {
		o.skip(p, series.ID, rename.SeriesFolder, series.Path, ErrLibraryRoot)
	} else {
		label, id := seriesMedia.PreferredProvider(seriesProviders...)
		name := naming.RenderSeriesOrMovieFolder(o.templates.SeriesTemplate(), naming.FolderFields{
			Name:          series.Name,
			Year:          series.ProductionYear,
			ProviderLabel: label,
			ProviderID:    id,
		})
		res := o.execute(p, rename.Request{Kind: rename.SeriesFolder, Item: seriesMedia, DesiredName: name})
		if res.Outcome == rename.Renamed {
			renamed++
		}
	}

	if renamed > 0 {
		o.refresh(ctx, series.ID, series.Name)
	}
	return nil
}

func (o *Organizer) renameEpisode(p *pass, series *media.Item, ep jellyfin.Item, seasonNumber *int, overridePath string) rename.Outcome {
	m, err := ep.ToMedia(series)
	if err != nil {
		o.skip(p, ep.ID, rename.EpisodeFile, ep.Path, err)
		return rename.SkippedInvalidInput
	}

	path := ep.Path
	if overridePath != "" {
		path = overridePath
	}
	base := filepath.Base(path)
	stem := strings.TrimSuffix(base, filepath.Ext(base))

	// Fill gaps in the snapshot from the season item, then from the file name.
	if m.SeasonNumber == nil && seasonNumber != nil {
		m.SeasonNumber = media.IntPtr(*seasonNumber)
	}
	if season, episode, ok := naming.ParseSeasonEpisode(stem); ok {
		if m.SeasonNumber == nil {
			m.SeasonNumber = media.IntPtr(season)
		}
		if m.EpisodeNumber == nil {
			m.EpisodeNumber = media.IntPtr(episode)
		}
	}
	if m.EpisodeNumber == nil {
		if n, ok := naming.ParseEpisodeNumber(stem); ok {
			m.EpisodeNumber = media.IntPtr(n)
		}
	}
	if m.EpisodeNumber == nil {
		o.skip(p, ep.ID, rename.EpisodeFile, path, ErrNoEpisodeNumber)
		return rename.SkippedInvalidInput
	}

	title := strings.TrimSpace(ep.Name)
	if title == "" || naming.NamesMatch(title, base) {
		title = naming.ExtractCleanEpisodeTitle(stem, m.SeasonNumber, m.EpisodeNumber)
	}

	name := naming.RenderEpisodeFileName(o.templates.EpisodeTemplate(), naming.EpisodeFields{
		SeriesName: series.Name,
		Season:     m.SeasonNumber,
		Episode:    m.EpisodeNumber,
		Title:      title,
		Year:       series.Year,
	})
	res := o.execute(p, rename.Request{
		Kind:         rename.EpisodeFile,
		Item:         m,
		DesiredName:  name,
		OverridePath: overridePath,
	})
	return res.Outcome
}

func (o *Organizer) renameSeason(p *pass, series *media.Item, s jellyfin.Item) rename.Outcome {
	m, err := s.ToMedia(series)
	if err != nil {
		o.skip(p, s.ID, rename.SeasonFolder, s.Path, err)
		return rename.SkippedInvalidInput
	}
	if m.SeasonNumber == nil {
		if n, ok := seasonFromFolder(filepath.Base(s.Path)); ok {
			m.SeasonNumber = media.IntPtr(n)
		}
	}
	if m.SeasonNumber == nil {
		o.skip(p, s.ID, rename.SeasonFolder, s.Path, ErrNoSeasonNumber)
		return rename.SkippedInvalidInput
	}

	name := naming.RenderSeasonFolder(o.templates.SeasonTemplate(), naming.SeasonFields{
		Number: m.SeasonNumber,
		Name:   s.Name,
	})
	res := o.execute(p, rename.Request{Kind: rename.SeasonFolder, Item: m, DesiredName: name})
	return res.Outcome
}

// seasonFromFolder reads "Season 2", "S02" or "Specials" style folder names.
func seasonFromFolder(name string) (int, bool) {
	lower := strings.ToLower(strings.TrimSpace(name))
	if lower == "specials" || lower == "extras" {
		return 0, true
	}
	for _, prefix := range []string{"season", "series", "s"} {
		if rest, ok := strings.CutPrefix(lower, prefix); ok {
			var n int
			if _, err := fmt.Sscanf(strings.TrimSpace(rest), "%d", &n); err == nil {
				return n, true
			}
		}
	}
	return 0, false
}

func (o *Organizer) refresh(ctx context.Context, itemID, name string) {
	if o.dryRun || o.refresher == nil {
		return
	}
	if err := o.refresher.RefreshItem(ctx, itemID); err != nil {
		o.logger.Warn(component, "Jellyfin refresh failed",
			logging.F("item", itemID), logging.F("name", name), logging.F("error", err))
		return
	}
	o.logger.Debug(component, "Requested Jellyfin refresh", logging.F("item", itemID))
}

func sortEpisodes(eps []jellyfin.Item) {
	sort.SliceStable(eps, func(i, j int) bool {
		a, b := eps[i], eps[j]
		if sa, sb := intOr(a.ParentIndexNumber, -1), intOr(b.ParentIndexNumber, -1); sa != sb {
			return sa < sb
		}
		if ea, eb := intOr(a.IndexNumber, -1), intOr(b.IndexNumber, -1); ea != eb {
			return ea < eb
		}
		return a.Path < b.Path
	})
}

func sortSeasons(seasons []jellyfin.Item) {
	sort.SliceStable(seasons, func(i, j int) bool {
		a, b := intOr(seasons[i].IndexNumber, -1), intOr(seasons[j].IndexNumber, -1)
		if a != b {
			return a < b
		}
		return seasons[i].Path < seasons[j].Path
	})
}

func intOr(p *int, def int) int {
	if p == nil {
		return def
	}
	return *p
}
