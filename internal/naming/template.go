package naming

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

// Default templates used when the configured template is blank.
const (
	DefaultFolderTemplate  = "{Name} ({Year}) [{Provider}-{Id}]"
	DefaultSeasonTemplate  = "Season {Season:00}"
	DefaultEpisodeTemplate = "S{Season:00}E{Episode:00} - {Title}"
)

// FolderFields feed a series or movie folder template.
// Year 0 means unknown.
type FolderFields struct {
	Name          string
	Year          int
	ProviderLabel string
	ProviderID    string
}

// SeasonFields feed a season folder template.
type SeasonFields struct {
	Number *int
	Name   string
}

// EpisodeFields feed an episode file template.
type EpisodeFields struct {
	SeriesName string
	Season     *int
	Episode    *int
	Title      string
	Year       int
}

var (
	nameToken       = regexp.MustCompile(`(?i)\{Name\}`)
	seriesNameToken = regexp.MustCompile(`(?i)\{SeriesName\}`)
	titleToken      = regexp.MustCompile(`(?i)\{Title\}`)
	yearToken       = regexp.MustCompile(`(?i)\{Year\}`)
	providerToken   = regexp.MustCompile(`(?i)\{Provider\}`)
	idToken         = regexp.MustCompile(`(?i)\{Id\}`)
	seasonNameToken = regexp.MustCompile(`(?i)\{SeasonName\}`)
	seasonToken     = regexp.MustCompile(`(?i)\{Season(?::(\d+))?\}`)
	episodeToken    = regexp.MustCompile(`(?i)\{Episode(?::(\d+))?\}`)

	// Decoration around an absent year, tried in this order.
	yearInParens    = regexp.MustCompile(`(?i)\s*\(\s*\{Year\}\s*\)`)
	yearAfterDash   = regexp.MustCompile(`(?i)\s+-\s+\{Year\}`)
	yearWithSpacing = regexp.MustCompile(`(?i)\s*\{Year\}\s*`)

	emptyGroup   = regexp.MustCompile(`\s*(\[\s*-?\s*\]|\(\s*-?\s*\))`)
	danglingDash = regexp.MustCompile(`\s+-\s*$`)
)

// RenderSeriesOrMovieFolder expands a series or movie folder template.
func RenderSeriesOrMovieFolder(tmpl string, f FolderFields) string {
	var text textSlots
	out := orDefault(tmpl, DefaultFolderTemplate)
	out = text.fill(nameToken, out, f.Name)
	out = applyYear(out, f.Year)

	label := strings.TrimSpace(f.ProviderLabel)
	id := strings.TrimSpace(f.ProviderID)
	if label == "" || id == "" {
		label, id = "", ""
	}
	out = replaceLiteral(providerToken, out, label)
	out = replaceLiteral(idToken, out, id)

	return text.finish(out)
}

// RenderSeasonFolder expands a season folder template.
func RenderSeasonFolder(tmpl string, f SeasonFields) string {
	var text textSlots
	out := orDefault(tmpl, DefaultSeasonTemplate)
	out = applyNumber(seasonToken, out, f.Number)
	out = text.fill(seasonNameToken, out, f.Name)
	return text.finish(out)
}

// RenderEpisodeFileName expands an episode file template. The result has no
// extension; the caller appends the media file's extension.
func RenderEpisodeFileName(tmpl string, f EpisodeFields) string {
	var text textSlots
	out := orDefault(tmpl, DefaultEpisodeTemplate)
	out = text.fill(seriesNameToken, out, f.SeriesName)
	out = applyNumber(seasonToken, out, f.Season)
	out = applyNumber(episodeToken, out, f.Episode)
	out = text.fill(titleToken, out, f.Title)
	out = applyYear(out, f.Year)
	return text.finish(out)
}

// slotBase is the first private-use rune standing in for a text value.
const slotBase = '\uE000'

// textSlots parks metadata text behind private-use runes while the template
// decoration is tidied. A title like "Nine Inch [-]" is inserted only after
// empty groups and dangling dashes are gone, so it comes through intact.
type textSlots struct {
	values []string
}

// fill replaces re with a slot for value. Blank values (only spaces or
// dots, which sanitizing would strip) leave the token empty so the
// surrounding decoration is cleaned up.
func (t *textSlots) fill(re *regexp.Regexp, s, value string) string {
	if isBlankText(value) {
		return replaceLiteral(re, s, "")
	}
	slot := string(rune(slotBase + len(t.values)))
	t.values = append(t.values, value)
	return replaceLiteral(re, s, slot)
}

// finish tidies the decoration, puts the text values back and sanitizes.
func (t *textSlots) finish(s string) string {
	s = tidyDecoration(s)
	for i, value := range t.values {
		s = strings.ReplaceAll(s, string(rune(slotBase+i)), value)
	}
	return Sanitize(s)
}

func isBlankText(s string) bool {
	return strings.TrimFunc(s, func(r rune) bool {
		return r == '.' || unicode.IsSpace(r)
	}) == ""
}

func orDefault(tmpl, def string) string {
	if strings.TrimSpace(tmpl) == "" {
		return def
	}
	return tmpl
}

// replaceLiteral substitutes value without expanding '$' references.
func replaceLiteral(re *regexp.Regexp, s, value string) string {
	return re.ReplaceAllLiteralString(s, value)
}

func applyYear(s string, year int) string {
	if year > 0 {
		return replaceLiteral(yearToken, s, strconv.Itoa(year))
	}
	s = yearInParens.ReplaceAllString(s, "")
	s = yearAfterDash.ReplaceAllString(s, "")
	return yearWithSpacing.ReplaceAllString(s, " ")
}

// applyNumber expands {Token} and {Token:NN}. The number of digits in NN is
// the zero-pad width, so {Season:000} pads to three.
func applyNumber(re *regexp.Regexp, s string, n *int) string {
	if n == nil {
		return re.ReplaceAllString(s, "")
	}
	return re.ReplaceAllStringFunc(s, func(match string) string {
		width := 1
		if sub := re.FindStringSubmatch(match); len(sub) > 1 && len(sub[1]) > width {
			width = len(sub[1])
		}
		return fmt.Sprintf("%0*d", width, *n)
	})
}

// tidyDecoration removes groups and separators orphaned by absent values.
// Trailing dots are trimmed as Sanitize would, which can expose another
// dangling separator, so the steps repeat until the name is stable.
func tidyDecoration(s string) string {
	for {
		next := tidy(strings.TrimRight(s, ". "))
		if next == s {
			return s
		}
		s = next
	}
}

func tidy(s string) string {
	for {
		next := danglingDash.ReplaceAllString(emptyGroup.ReplaceAllString(s, ""), "")
		if next == s {
			break
		}
		s = next
	}
	return collapseSpaces(s)
}
