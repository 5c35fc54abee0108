package naming

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Placeholder is returned by Sanitize when nothing usable is left of the input.
const Placeholder = "Unknown"

// illegalChars are rejected by at least one of the filesystems a Jellyfin
// library commonly lives on (NTFS, SMB shares, ext4).
const illegalChars = `<>:"/\|?*`

// Sanitize maps s to a string that is safe to use as a single directory
// entry name. Illegal characters and control characters become '_',
// whitespace runs collapse to one space, and trailing dots and spaces are
// removed. The result is never blank and Sanitize(Sanitize(s)) == Sanitize(s).
func Sanitize(s string) string {
	s = norm.NFC.String(s)

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r < 0x20 && r != '\t' && r != '\n' && r != '\r':
			b.WriteRune('_')
		case r == 0x7f:
			b.WriteRune('_')
		case strings.ContainsRune(illegalChars, r):
			b.WriteRune('_')
		default:
			b.WriteRune(r)
		}
	}

	out := collapseSpaces(b.String())
	out = strings.TrimRight(out, ". ")
	out = strings.TrimSpace(out)

	if out == "" {
		return Placeholder
	}
	return out
}

// collapseSpaces folds every run of Unicode whitespace into a single space
// and trims both ends.
func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
