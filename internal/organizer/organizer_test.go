package organizer

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/Nomadcxx/jellyrename/internal/database"
	"github.com/Nomadcxx/jellyrename/internal/jellyfin"
	"github.com/Nomadcxx/jellyrename/internal/rename"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	items    map[string]jellyfin.Item
	series   []string
	movies   []string
	children map[string][]string
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		items:    make(map[string]jellyfin.Item),
		children: make(map[string][]string),
	}
}

func (f *fakeSource) add(item jellyfin.Item) {
	f.items[item.ID] = item
	switch item.Type {
	case jellyfin.TypeSeries:
		f.series = append(f.series, item.ID)
	case jellyfin.TypeMovie:
		f.movies = append(f.movies, item.ID)
	default:
		f.children[item.SeriesID] = append(f.children[item.SeriesID], item.ID)
	}
}

func (f *fakeSource) GetItem(_ context.Context, id string) (*jellyfin.Item, error) {
	item, ok := f.items[id]
	if !ok {
		return nil, jellyfin.ErrNotFound
	}
	return &item, nil
}

func (f *fakeSource) list(ids []string) []jellyfin.Item {
	out := make([]jellyfin.Item, 0, len(ids))
	for _, id := range ids {
		out = append(out, f.items[id])
	}
	return out
}

func (f *fakeSource) ListSeries(context.Context) ([]jellyfin.Item, error) {
	return f.list(f.series), nil
}

func (f *fakeSource) ListMovies(context.Context) ([]jellyfin.Item, error) {
	return f.list(f.movies), nil
}

func (f *fakeSource) ListSeriesChildren(_ context.Context, seriesID string) ([]jellyfin.Item, []jellyfin.Item, error) {
	var seasons, episodes []jellyfin.Item
	for _, item := range f.list(f.children[seriesID]) {
		if item.Type == jellyfin.TypeSeason {
			seasons = append(seasons, item)
		} else {
			episodes = append(episodes, item)
		}
	}
	return seasons, episodes, nil
}

type fakeRefresher struct {
	mu  sync.Mutex
	ids []string
}

func (r *fakeRefresher) RefreshItem(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ids = append(r.ids, id)
	return nil
}

func intp(n int) *int { return &n }

const (
	episodePath = "/tv/show/season 1/show.s01e02.mkv"
	renamedShow = "/tv/Show (2020) [tvdb-100]"
)

// seedShow builds one series with a season folder and one episode.
func seedShow(t *testing.T, fsys afero.Fs, src *fakeSource) {
	t.Helper()
	require.NoError(t, fsys.MkdirAll("/tv/show/season 1", 0755))
	require.NoError(t, afero.WriteFile(fsys, episodePath, []byte("video"), 0644))

	src.add(jellyfin.Item{
		ID: "s1", Type: jellyfin.TypeSeries, Name: "Show", Path: "/tv/show",
		ProductionYear: 2020, ProviderIDs: map[string]string{"Tvdb": "100", "Imdb": "tt1"},
	})
	src.add(jellyfin.Item{
		ID: "se1", Type: jellyfin.TypeSeason, Name: "Season 1", Path: "/tv/show/season 1",
		SeriesID: "s1", IndexNumber: intp(1),
	})
	src.add(jellyfin.Item{
		ID: "e1", Type: jellyfin.TypeEpisode, Name: "Pilot", Path: episodePath,
		SeriesID: "s1", SeasonID: "se1", ParentIndexNumber: intp(1), IndexNumber: intp(2),
	})
}

func newTestOrganizer(t *testing.T, src Source, opts ...func(*Organizer)) (*Organizer, *database.HistoryDB) {
	t.Helper()
	db, err := database.OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	opts = append([]func(*Organizer){WithRecorder(db), WithLibraryRoots("/tv", "/movies")}, opts...)
	return NewOrganizer(src, opts...), db
}

func TestRunLibrary_RenamesSeriesBottomUp(t *testing.T) {
	fsys := afero.NewMemMapFs()
	src := newFakeSource()
	seedShow(t, fsys, src)
	refresher := &fakeRefresher{}

	org, db := newTestOrganizer(t, src, WithFs(fsys), WithRefresher(refresher))
	summary, err := org.RunLibrary(context.Background(), database.TriggerCLI, PassOptions{})
	require.NoError(t, err)

	assert.Equal(t, 3, summary.Renamed())
	assert.Equal(t, 0, summary.Failed())

	ok, _ := afero.Exists(fsys, renamedShow+"/Season 01/S01E02 - Pilot.mkv")
	assert.True(t, ok, "episode should end up under the renamed folders")
	ok, _ = afero.Exists(fsys, "/tv/show")
	assert.False(t, ok)

	records, err := db.PassRenames(summary.PassID)
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "episode_file", records[0].Kind)
	assert.Equal(t, "season_folder", records[1].Kind)
	assert.Equal(t, "series_folder", records[2].Kind)
	for _, r := range records {
		assert.Equal(t, "renamed", r.Outcome)
	}

	assert.Equal(t, []string{"s1"}, refresher.ids)

	passes, err := db.RecentPasses(1)
	require.NoError(t, err)
	require.Len(t, passes, 1)
	assert.NotNil(t, passes[0].FinishedAt)
	assert.Equal(t, database.TriggerCLI, passes[0].Trigger)
}

func TestRunLibrary_SecondPassIsNoop(t *testing.T) {
	fsys := afero.NewMemMapFs()
	src := newFakeSource()
	seedShow(t, fsys, src)

	org, _ := newTestOrganizer(t, src, WithFs(fsys))
	_, err := org.RunLibrary(context.Background(), database.TriggerCLI, PassOptions{})
	require.NoError(t, err)

	// Jellyfin would now report the new paths.
	src.items["s1"] = withPath(src.items["s1"], renamedShow)
	src.items["se1"] = withPath(src.items["se1"], renamedShow+"/Season 01")
	src.items["e1"] = withPath(src.items["e1"], renamedShow+"/Season 01/S01E02 - Pilot.mkv")

	summary, err := org.RunLibrary(context.Background(), database.TriggerCLI, PassOptions{})
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Renamed())
	assert.Equal(t, 3, summary.Counts[rename.SkippedAlreadyCorrect])
}

func withPath(item jellyfin.Item, path string) jellyfin.Item {
	item.Path = path
	return item
}

func TestRunLibrary_DryRun(t *testing.T) {
	fsys := afero.NewMemMapFs()
	src := newFakeSource()
	seedShow(t, fsys, src)
	refresher := &fakeRefresher{}

	org, db := newTestOrganizer(t, src, WithFs(fsys), WithDryRun(true), WithRefresher(refresher))
	summary, err := org.RunLibrary(context.Background(), database.TriggerCLI, PassOptions{})
	require.NoError(t, err)

	assert.True(t, summary.DryRun)
	assert.Equal(t, 3, summary.Counts[rename.SkippedDryRun])
	ok, _ := afero.Exists(fsys, episodePath)
	assert.True(t, ok, "dry run must not touch the filesystem")
	assert.Empty(t, refresher.ids)

	records, err := db.PassRenames(summary.PassID)
	require.NoError(t, err)
	for _, r := range records {
		assert.True(t, r.DryRun)
	}
}

func TestRunLibrary_EpisodeFallbacks(t *testing.T) {
	fsys := afero.NewMemMapFs()
	src := newFakeSource()
	require.NoError(t, fsys.MkdirAll("/tv/Show (2020) [tvdb-100]", 0755))
	for _, name := range []string{"Show - 07 [720p] x264.mkv", "S01E03 - S01E03 - The Return.mkv", "bonus.mkv"} {
		require.NoError(t, afero.WriteFile(fsys, renamedShow+"/"+name, []byte("x"), 0644))
	}

	src.add(jellyfin.Item{
		ID: "s1", Type: jellyfin.TypeSeries, Name: "Show", Path: renamedShow,
		ProductionYear: 2020, ProviderIDs: map[string]string{"Tvdb": "100"},
	})
	// Flat layout: the season shares the series folder.
	src.add(jellyfin.Item{ID: "se1", Type: jellyfin.TypeSeason, Path: renamedShow, SeriesID: "s1", IndexNumber: intp(1)})
	src.add(jellyfin.Item{ID: "e7", Type: jellyfin.TypeEpisode, Name: "Homecoming", Path: renamedShow + "/Show - 07 [720p] x264.mkv", SeriesID: "s1", SeasonID: "se1"})
	src.add(jellyfin.Item{ID: "e3", Type: jellyfin.TypeEpisode, Name: "S01E03 - S01E03 - The Return", Path: renamedShow + "/S01E03 - S01E03 - The Return.mkv", SeriesID: "s1", SeasonID: "se1"})
	src.add(jellyfin.Item{ID: "eb", Type: jellyfin.TypeEpisode, Name: "bonus", Path: renamedShow + "/bonus.mkv", SeriesID: "s1"})

	org, db := newTestOrganizer(t, src, WithFs(fsys))
	summary, err := org.RunLibrary(context.Background(), database.TriggerCLI, PassOptions{})
	require.NoError(t, err)

	for _, name := range []string{"S01E07 - Homecoming.mkv", "S01E03 - The Return.mkv", "bonus.mkv"} {
		ok, _ := afero.Exists(fsys, renamedShow+"/"+name)
		assert.True(t, ok, name)
	}
	assert.Equal(t, 2, summary.Renamed())
	assert.Equal(t, 1, summary.Counts[rename.SkippedInvalidInput])
	assert.Equal(t, 1, summary.Counts[rename.SkippedAlreadyCorrect])

	failures, err := db.PassRenames(summary.PassID)
	require.NoError(t, err)
	var reasons []string
	for _, r := range failures {
		if r.Outcome == "skipped_invalid_input" {
			reasons = append(reasons, r.Error)
		}
	}
	assert.Equal(t, []string{ErrNoEpisodeNumber.Error()}, reasons)
}

func TestRunLibrary_Movies(t *testing.T) {
	fsys := afero.NewMemMapFs()
	src := newFakeSource()
	require.NoError(t, fsys.MkdirAll("/movies/film old", 0755))
	require.NoError(t, afero.WriteFile(fsys, "/movies/film old/film.mkv", []byte("x"), 0644))
	require.NoError(t, afero.WriteFile(fsys, "/movies/loose.mkv", []byte("x"), 0644))

	src.add(jellyfin.Item{
		ID: "m1", Type: jellyfin.TypeMovie, Name: "Film", Path: "/movies/film old/film.mkv",
		ProductionYear: 1999, ProviderIDs: map[string]string{"Imdb": "tt9", "Tmdb": "55"},
	})
	src.add(jellyfin.Item{ID: "m2", Type: jellyfin.TypeMovie, Name: "Loose", Path: "/movies/loose.mkv"})
	src.add(jellyfin.Item{ID: "m3", Type: jellyfin.TypeMovie, Name: "Virtual", LocationType: "Virtual"})

	org, db := newTestOrganizer(t, src, WithFs(fsys))
	summary, err := org.RunLibrary(context.Background(), database.TriggerCLI, PassOptions{MoviesOnly: true})
	require.NoError(t, err)

	ok, _ := afero.Exists(fsys, "/movies/Film (1999) [tmdb-55]/film.mkv")
	assert.True(t, ok)
	ok, _ = afero.Exists(fsys, "/movies/loose.mkv")
	assert.True(t, ok, "a movie directly in the library root stays put")

	assert.Equal(t, 1, summary.Renamed())
	assert.Equal(t, 2, summary.Counts[rename.SkippedInvalidInput])

	records, err := db.PassRenames(summary.PassID)
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, ErrLibraryRoot.Error(), records[1].Error)
}

func TestRunLibrary_SeasonOutsideSeries(t *testing.T) {
	fsys := afero.NewMemMapFs()
	src := newFakeSource()
	require.NoError(t, fsys.MkdirAll("/tv/show", 0755))
	require.NoError(t, fsys.MkdirAll("/elsewhere/season 2", 0755))

	src.add(jellyfin.Item{ID: "s1", Type: jellyfin.TypeSeries, Name: "Show", Path: "/tv/show"})
	src.add(jellyfin.Item{ID: "se2", Type: jellyfin.TypeSeason, Path: "/elsewhere/season 2", SeriesID: "s1", IndexNumber: intp(2)})

	org, _ := newTestOrganizer(t, src, WithFs(fsys))
	summary, err := org.RunLibrary(context.Background(), database.TriggerCLI, PassOptions{SeriesOnly: true})
	require.NoError(t, err)

	ok, _ := afero.Exists(fsys, "/elsewhere/season 2")
	assert.True(t, ok)
	assert.Equal(t, 1, summary.Counts[rename.SkippedInvalidInput])
	// "show" and "Show" differ only by case, which counts as correct.
	assert.Equal(t, 1, summary.Counts[rename.SkippedAlreadyCorrect])
}

func TestRenameItem_EpisodeUsesOverridePath(t *testing.T) {
	fsys := afero.NewMemMapFs()
	src := newFakeSource()
	seedShow(t, fsys, src)
	// Jellyfin has not caught up with a move the file already went through.
	src.items["e1"] = withPath(src.items["e1"], "/tv/show/season 1/stale.mkv")

	org, _ := newTestOrganizer(t, src, WithFs(fsys))
	summary, err := org.RenameItem(context.Background(), database.TriggerWebhook, "e1", episodePath)
	require.NoError(t, err)

	assert.Equal(t, 3, summary.Renamed())
	ok, _ := afero.Exists(fsys, renamedShow+"/Season 01/S01E02 - Pilot.mkv")
	assert.True(t, ok)
}

func TestRenameItem_Errors(t *testing.T) {
	src := newFakeSource()
	src.add(jellyfin.Item{ID: "orphan", Type: jellyfin.TypeEpisode, Path: "/tv/x.mkv"})
	src.add(jellyfin.Item{ID: "folder", Type: "CollectionFolder", Path: "/tv"})

	org, _ := newTestOrganizer(t, src, WithFs(afero.NewMemMapFs()))

	_, err := org.RenameItem(context.Background(), database.TriggerWebhook, "missing", "")
	assert.ErrorIs(t, err, jellyfin.ErrNotFound)

	_, err = org.RenameItem(context.Background(), database.TriggerWebhook, "orphan", "")
	assert.Error(t, err)

	_, err = org.RenameItem(context.Background(), database.TriggerWebhook, "folder", "")
	assert.ErrorIs(t, err, ErrUnsupportedEvent)

	noSource := NewOrganizer(nil)
	_, err = noSource.RunLibrary(context.Background(), database.TriggerCLI, PassOptions{})
	assert.ErrorIs(t, err, ErrNoJellyfin)
}

func TestPlaybackDeferralAndReplay(t *testing.T) {
	fsys := afero.NewMemMapFs()
	src := newFakeSource()
	seedShow(t, fsys, src)

	locks := jellyfin.NewPlaybackLockManager()
	queue := jellyfin.NewDeferredQueue()
	locks.Lock(episodePath, jellyfin.PlaybackInfo{UserName: "alice", ItemID: "e1"})

	org, _ := newTestOrganizer(t, src, WithFs(fsys), WithPlayback(locks, queue))
	summary, err := org.RunLibrary(context.Background(), database.TriggerSchedule, PassOptions{})
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Deferred)
	assert.Equal(t, 0, summary.Total())
	ok, _ := afero.Exists(fsys, episodePath)
	assert.True(t, ok, "nothing moves while the episode is streaming")
	assert.Equal(t, 1, queue.Count())

	// A second notification while still playing is queued once.
	_, err = org.RenameItem(context.Background(), database.TriggerWebhook, "s1", "")
	require.NoError(t, err)
	assert.Equal(t, 1, queue.Count())

	summary, err = org.ReplayDeferred(context.Background(), episodePath)
	require.NoError(t, err)
	assert.Equal(t, 3, summary.Renamed())
	assert.Equal(t, 0, queue.Count())
	assert.Equal(t, 0, locks.Count())

	summary, err = org.ReplayDeferred(context.Background(), episodePath)
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Total())
}

func TestSeasonFromFolder(t *testing.T) {
	tests := []struct {
		name string
		want int
		ok   bool
	}{
		{"Season 2", 2, true},
		{"season02", 2, true},
		{"S03", 3, true},
		{"Series 4", 4, true},
		{"Specials", 0, true},
		{"Extras", 0, true},
		{"Bonus", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := seasonFromFolder(tt.name)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestKeyedMutex(t *testing.T) {
	k := newKeyedMutex()
	counter := 0

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := k.Lock("series:1")
			defer unlock()
			v := counter
			counter = v + 1
		}()
	}
	wg.Wait()

	assert.Equal(t, 20, counter)
	assert.Equal(t, 0, k.size())
}

func TestSummary(t *testing.T) {
	s := newSummary("p", database.TriggerCLI, false)
	s.add(rename.Renamed)
	s.add(rename.FailedIO)
	s.add(rename.SkippedDryRun)
	s.add(rename.Renamed)
	s.addError(fmt.Errorf("series x: %w", ErrNoEpisodeNumber))

	assert.Equal(t, 4, s.Total())
	assert.Equal(t, 2, s.Renamed())
	assert.Equal(t, 1, s.Failed())
	assert.Equal(t, 1, s.Skipped())
	assert.Equal(t, []rename.Outcome{rename.Renamed, rename.SkippedDryRun, rename.FailedIO}, s.Outcomes())
	assert.ErrorIs(t, s.Err(), ErrNoEpisodeNumber)
}
