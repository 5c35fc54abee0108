package media

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestItem_ProviderID(t *testing.T) {
	item := &Item{ProviderIDs: map[string]string{"Tvdb": " 81189 ", "Imdb": ""}}

	id, ok := item.ProviderID("tvdb")
	assert.True(t, ok)
	assert.Equal(t, "81189", id)

	_, ok = item.ProviderID("imdb")
	assert.False(t, ok, "blank values are treated as missing")

	var nilItem *Item
	_, ok = nilItem.ProviderID("tvdb")
	assert.False(t, ok)
}

func TestItem_PreferredProvider(t *testing.T) {
	item := &Item{ProviderIDs: map[string]string{"Tmdb": "1396", "Tvdb": "81189"}}

	label, id := item.PreferredProvider("Tvdb", "Tmdb")
	assert.Equal(t, "tvdb", label)
	assert.Equal(t, "81189", id)

	label, id = item.PreferredProvider("Imdb")
	assert.Equal(t, "tmdb", label, "falls back to the alphabetically first provider")
	assert.Equal(t, "1396", id)

	label, id = (&Item{}).PreferredProvider("Tvdb")
	assert.Empty(t, label)
	assert.Empty(t, id)
}

func TestItem_SeriesName(t *testing.T) {
	series := &Item{Kind: KindSeries, Name: "Silo"}
	episode := &Item{Kind: KindEpisode, Name: "Freedom Day", Series: series}

	assert.Equal(t, "Silo", series.SeriesName())
	assert.Equal(t, "Silo", episode.SeriesName())
	assert.Equal(t, "", (&Item{Kind: KindEpisode}).SeriesName())
}

func TestKind_String(t *testing.T) {
	assert.Equal(t, "series", KindSeries.String())
	assert.Equal(t, "season", KindSeason.String())
	assert.Equal(t, "episode", KindEpisode.String())
	assert.Equal(t, "movie", KindMovie.String())
	assert.Equal(t, "unknown", Kind(42).String())
}
