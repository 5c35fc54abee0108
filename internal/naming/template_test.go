package naming

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func intPtr(n int) *int { return &n }

func TestRenderSeriesOrMovieFolder(t *testing.T) {
	tests := []struct {
		name   string
		tmpl   string
		fields FolderFields
		want   string
	}{
		{
			name:   "default template with all fields",
			fields: FolderFields{Name: "Breaking Bad", Year: 2008, ProviderLabel: "tvdb", ProviderID: "81189"},
			want:   "Breaking Bad (2008) [tvdb-81189]",
		},
		{
			name:   "absent year drops parenthesized group",
			fields: FolderFields{Name: "Breaking Bad", ProviderLabel: "tvdb", ProviderID: "81189"},
			want:   "Breaking Bad [tvdb-81189]",
		},
		{
			name:   "absent provider drops empty bracket group",
			fields: FolderFields{Name: "Breaking Bad", Year: 2008},
			want:   "Breaking Bad (2008)",
		},
		{
			name:   "label without id counts as no provider",
			fields: FolderFields{Name: "Breaking Bad", Year: 2008, ProviderLabel: "tvdb"},
			want:   "Breaking Bad (2008)",
		},
		{
			name:   "id without label counts as no provider",
			fields: FolderFields{Name: "Breaking Bad", Year: 2008, ProviderID: "81189"},
			want:   "Breaking Bad (2008)",
		},
		{
			name:   "nothing optional present",
			fields: FolderFields{Name: "Breaking Bad"},
			want:   "Breaking Bad",
		},
		{
			name:   "absent year drops leading dash separator",
			tmpl:   "{Name} - {Year}",
			fields: FolderFields{Name: "Dune"},
			want:   "Dune",
		},
		{
			name:   "absent year bare placeholder",
			tmpl:   "{Year} {Name}",
			fields: FolderFields{Name: "Dune"},
			want:   "Dune",
		},
		{
			name:   "tokens match case-insensitively",
			tmpl:   "{name} ({YEAR}) {provider}-{ID}",
			fields: FolderFields{Name: "Dune", Year: 2021, ProviderLabel: "tmdb", ProviderID: "438631"},
			want:   "Dune (2021) tmdb-438631",
		},
		{
			name:   "illegal characters in name sanitized",
			fields: FolderFields{Name: "Star Trek: Picard", Year: 2020, ProviderLabel: "tvdb", ProviderID: "364093"},
			want:   "Star Trek_ Picard (2020) [tvdb-364093]",
		},
		{
			name:   "dollar signs are literal",
			tmpl:   "{Name}",
			fields: FolderFields{Name: "Money $1 Heist"},
			want:   "Money $1 Heist",
		},
		{
			name:   "blank template uses default",
			tmpl:   "   ",
			fields: FolderFields{Name: "Dune", Year: 2021},
			want:   "Dune (2021)",
		},
		{
			name:   "brackets inside the name are kept",
			fields: FolderFields{Name: "Nine Inch [-]", Year: 2002},
			want:   "Nine Inch [-] (2002)",
		},
		{
			name:   "empty parens inside the name are kept",
			fields: FolderFields{Name: "Untitled ()", Year: 2019, ProviderLabel: "tmdb", ProviderID: "7"},
			want:   "Untitled () (2019) [tmdb-7]",
		},
		{
			name:   "name ending in a dash is kept",
			tmpl:   "{Name}",
			fields: FolderFields{Name: "Wait -"},
			want:   "Wait -",
		},
		{
			name:   "dots only name counts as absent",
			tmpl:   "[{Name}] ({Year})",
			fields: FolderFields{Name: "...", Year: 1999},
			want:   "(1999)",
		},
		{
			name:   "trailing template dot exposes dangling dash",
			tmpl:   "{Name} - .",
			fields: FolderFields{Name: "Dune"},
			want:   "Dune",
		},
		{
			name: "blank result falls back to placeholder",
			tmpl: "{Name}",
			want: Placeholder,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RenderSeriesOrMovieFolder(tt.tmpl, tt.fields))
		})
	}
}

func TestRenderSeriesOrMovieFolder_AbsentYearLeavesNoDecoration(t *testing.T) {
	templates := []string{
		DefaultFolderTemplate,
		"{Name} ({Year})",
		"{Name} - {Year}",
		"{Name} ( {Year} ) - ",
		"{Name} [{Provider}-{Id}] ({Year})",
		"{Name} - {Year} - [{Provider}]",
		"({Year}) {Name}",
	}
	names := []string{"Dune", "The Office (US)", "Mr. Robot", ""}

	for _, tmpl := range templates {
		for _, name := range names {
			got := RenderSeriesOrMovieFolder(tmpl, FolderFields{Name: name})
			assert.NotContains(t, got, "()", "template %q name %q", tmpl, name)
			assert.False(t, strings.HasSuffix(got, " -"), "template %q name %q rendered %q", tmpl, name, got)
			assert.False(t, strings.HasSuffix(got, " - "), "template %q name %q rendered %q", tmpl, name, got)
		}
	}
}

func TestRenderSeasonFolder(t *testing.T) {
	tests := []struct {
		name   string
		tmpl   string
		fields SeasonFields
		want   string
	}{
		{name: "default template", fields: SeasonFields{Number: intPtr(2)}, want: "Season 02"},
		{name: "three digit padding", tmpl: "{Season:000}", fields: SeasonFields{Number: intPtr(2)}, want: "002"},
		{name: "bare placeholder is unpadded", tmpl: "Season {Season}", fields: SeasonFields{Number: intPtr(3)}, want: "Season 3"},
		{name: "width never truncates", tmpl: "Season {Season:0}", fields: SeasonFields{Number: intPtr(12)}, want: "Season 12"},
		{name: "season zero", fields: SeasonFields{Number: intPtr(0)}, want: "Season 00"},
		{name: "season name present", tmpl: "Season {Season:00} - {SeasonName}", fields: SeasonFields{Number: intPtr(1), Name: "The Beginning"}, want: "Season 01 - The Beginning"},
		{name: "season name absent", tmpl: "Season {Season:00} {SeasonName}", fields: SeasonFields{Number: intPtr(1)}, want: "Season 01"},
		{name: "season name absent leaves no dangling dash", tmpl: "Season {Season:00} - {SeasonName}", fields: SeasonFields{Number: intPtr(1)}, want: "Season 01"},
		{name: "season name with empty parens is kept", tmpl: "Season {Season:00} - {SeasonName}", fields: SeasonFields{Number: intPtr(1), Name: "Arc ()"}, want: "Season 01 - Arc ()"},
		{name: "season number absent", tmpl: "{SeasonName} {Season:00}", fields: SeasonFields{Name: "Specials"}, want: "Specials"},
		{name: "case-insensitive tokens", tmpl: "season {SEASON:00}", fields: SeasonFields{Number: intPtr(4)}, want: "season 04"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RenderSeasonFolder(tt.tmpl, tt.fields))
		})
	}
}

func TestRenderEpisodeFileName(t *testing.T) {
	tests := []struct {
		name   string
		tmpl   string
		fields EpisodeFields
		want   string
	}{
		{
			name:   "default template",
			fields: EpisodeFields{Season: intPtr(1), Episode: intPtr(9), Title: "Pilot"},
			want:   "S01E09 - Pilot",
		},
		{
			name:   "missing title leaves no dangling separator",
			fields: EpisodeFields{Season: intPtr(1), Episode: intPtr(9)},
			want:   "S01E09",
		},
		{
			name:   "three digit episode",
			tmpl:   "S{Season:00}E{Episode:000}",
			fields: EpisodeFields{Season: intPtr(1), Episode: intPtr(7)},
			want:   "S01E007",
		},
		{
			name:   "series name and absent year",
			tmpl:   "{SeriesName} - S{Season:00}E{Episode:00} - {Title} ({Year})",
			fields: EpisodeFields{SeriesName: "Silo", Season: intPtr(2), Episode: intPtr(2), Title: "Order"},
			want:   "Silo - S02E02 - Order",
		},
		{
			name:   "series name and year",
			tmpl:   "{SeriesName} ({Year}) S{Season:00}E{Episode:00}",
			fields: EpisodeFields{SeriesName: "Silo", Season: intPtr(2), Episode: intPtr(2), Year: 2023},
			want:   "Silo (2023) S02E02",
		},
		{
			name:   "title with empty brackets is kept",
			fields: EpisodeFields{Season: intPtr(1), Episode: intPtr(4), Title: "Untitled ()"},
			want:   "S01E04 - Untitled ()",
		},
		{
			name:   "series name with a bracketed dash is kept",
			tmpl:   "{SeriesName} - S{Season:00}E{Episode:00}",
			fields: EpisodeFields{SeriesName: "Show [-]", Season: intPtr(1), Episode: intPtr(1)},
			want:   "Show [-] - S01E01",
		},
		{
			name:   "title with path separator",
			fields: EpisodeFields{Season: intPtr(3), Episode: intPtr(1), Title: "Before/After"},
			want:   "S03E01 - Before_After",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RenderEpisodeFileName(tt.tmpl, tt.fields))
		})
	}
}

func TestRenderEpisodeFileName_Padding(t *testing.T) {
	assert.Equal(t, "09", RenderEpisodeFileName("{Episode:00}", EpisodeFields{Episode: intPtr(9)}))
	assert.Equal(t, "002", RenderSeasonFolder("{Season:000}", SeasonFields{Number: intPtr(2)}))
}
