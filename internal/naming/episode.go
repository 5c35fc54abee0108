package naming

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

var (
	seasonEpisodePattern = regexp.MustCompile(`(?i)S(\d+)E(\d+)`)

	// Episode markers in priority order. Each requires a non-letter (or the
	// start of the string) in front so words like "The2" are not read as E2.
	episodeMarkerPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)(?:^|[^a-z])E(\d+)`),
		regexp.MustCompile(`(?i)(?:^|[^a-z])EP ?(\d+)`),
		regexp.MustCompile(`(?i)(?:^|[^a-z])Episode ?(\d+)`),
	}

	digitRun = regexp.MustCompile(`\d+`)

	repeatedLeadingSxE = regexp.MustCompile(`(?i)^(?:\s*S\d+E\d+\s*-\s*)+`)
	leadingSxE         = regexp.MustCompile(`(?i)^\s*S\d+E\d+\s*-\s*`)
	embeddedSxE        = regexp.MustCompile(`(?i)[_\s]S\d+E\d+[_\s]`)
	trailingDubEpisode = regexp.MustCompile(`(?i)\s*-?\s*Season\s*\d+\s*Dub\s*Episode\s*\d+.*$`)
	trailingEpisode    = regexp.MustCompile(`(?i)\s*-?\s*Episode\s*\d+.*$`)
	edgeSeparators     = regexp.MustCompile(`^[\s\-–—_~]+|[\s\-–—_~]+$`)

	// Only real media and sidecar extensions are dropped before comparing,
	// so names like "Vol.2" or "Dr.Who" keep their suffix.
	comparisonExts = map[string]bool{
		".mkv": true, ".mp4": true, ".avi": true, ".mov": true, ".wmv": true,
		".flv": true, ".webm": true, ".m4v": true, ".mpg": true, ".mpeg": true,
		".m2ts": true, ".ts": true,
		".srt": true, ".ass": true, ".ssa": true, ".sub": true, ".idx": true,
		".vtt": true, ".nfo": true,
	}
)

// ParseSeasonEpisode extracts the first S##E## token of name.
func ParseSeasonEpisode(name string) (season, episode int, ok bool) {
	m := seasonEpisodePattern.FindStringSubmatch(name)
	if m == nil {
		return 0, 0, false
	}
	season, err1 := strconv.Atoi(m[1])
	episode, err2 := strconv.Atoi(m[2])
	if err1 != nil || err2 != nil {
		return 0, 0, false
	}
	return season, episode, true
}

// ParseEpisodeNumber recovers an episode number from an existing file name.
// Patterns are tried in order: S##E##, E##, EP##, Episode ##, and finally a
// bare number of one to three digits searched from the right end.
func ParseEpisodeNumber(name string) (int, bool) {
	if _, ep, ok := ParseSeasonEpisode(name); ok {
		return ep, true
	}

	for _, re := range episodeMarkerPatterns {
		if m := re.FindStringSubmatch(name); m != nil {
			if n, err := strconv.Atoi(m[1]); err == nil {
				return n, true
			}
		}
	}

	runs := digitRun.FindAllStringIndex(name, -1)
	for i := len(runs) - 1; i >= 0; i-- {
		start, end := runs[i][0], runs[i][1]
		if end-start > 3 || isAlnumAt(name, start-1) || isAlnumAt(name, end) {
			continue
		}
		n, err := strconv.Atoi(name[start:end])
		if err == nil && n >= 1 && n <= 999 {
			return n, true
		}
	}

	return 0, false
}

// isAlnumAt reports whether s[i] is an ASCII letter or digit. Release tags
// such as 720p, x264 or AAC2 glue their digits to letters.
func isAlnumAt(s string, i int) bool {
	if i < 0 || i >= len(s) {
		return false
	}
	c := s[i]
	return c >= '0' && c <= '9' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}

// ExtractCleanEpisodeTitle strips episode numbering left behind by earlier
// renames or release tooling, e.g. "S02E06 - S02E06 - The Return" becomes
// "The Return". Returns "" for blank input.
func ExtractCleanEpisodeTitle(name string, season, episode *int) string {
	if strings.TrimSpace(name) == "" {
		return ""
	}

	s := repeatedLeadingSxE.ReplaceAllString(name, "")

	if season != nil && episode != nil {
		for _, prefix := range []string{
			fmt.Sprintf("S%dE%d - ", *season, *episode),
			fmt.Sprintf("S%02dE%02d - ", *season, *episode),
		} {
			if len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix) {
				s = s[len(prefix):]
			}
		}
	}

	s = leadingSxE.ReplaceAllString(s, "")
	s = embeddedSxE.ReplaceAllString(s, " ")
	s = trailingDubEpisode.ReplaceAllString(s, "")
	s = trailingEpisode.ReplaceAllString(s, "")
	s = edgeSeparators.ReplaceAllString(s, "")

	return collapseSpaces(s)
}

// NormalizeForComparison lower-cases name without its extension and with
// whitespace collapsed.
func NormalizeForComparison(name string) string {
	name = strings.TrimSpace(name)
	if ext := filepath.Ext(name); comparisonExts[strings.ToLower(ext)] {
		name = strings.TrimSuffix(name, ext)
	}
	return strings.ToLower(collapseSpaces(name))
}

// NamesMatch reports whether a and b are the same name for comparison
// purposes. Two blank names match.
func NamesMatch(a, b string) bool {
	blankA := strings.TrimSpace(a) == ""
	blankB := strings.TrimSpace(b) == ""
	if blankA || blankB {
		return blankA && blankB
	}
	return NormalizeForComparison(a) == NormalizeForComparison(b)
}
