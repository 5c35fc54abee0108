package naming

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
)

// providerTag matches a trailing "[tvdb-12345]" style tag.
var providerTag = regexp.MustCompile(`\[([A-Za-z]+)-([^\]]+)\]\s*$`)

// fold returns the case-folded form of s. A Caser is stateful, so each
// call gets its own.
func fold(s string) string {
	return cases.Fold().String(s)
}

// ExtractProviderID returns the provider tag embedded at the end of a folder
// name as "<label>-<id>" with the label lower-cased.
func ExtractProviderID(folderName string) (string, bool) {
	m := providerTag.FindStringSubmatch(folderName)
	if m == nil {
		return "", false
	}
	id := strings.TrimSpace(m[2])
	if id == "" {
		return "", false
	}
	return strings.ToLower(m[1]) + "-" + id, true
}

// FolderIDMatchesAnyMetadataID reports whether folderID equals one of the
// "<provider>-<value>" composites built from providerIDs, ignoring case.
func FolderIDMatchesAnyMetadataID(providerIDs map[string]string, folderID string) bool {
	if folderID == "" {
		return false
	}
	want := fold(folderID)
	for key, value := range providerIDs {
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		if key == "" || value == "" {
			continue
		}
		if fold(strings.ToLower(key)+"-"+value) == want {
			return true
		}
	}
	return false
}

// ShouldSkipRename decides whether a folder whose current name already
// matches the desired name can be left alone. A textual match is not enough
// when the folder embeds a provider id that disagrees with the desired name
// or with every id the item's metadata knows about.
func ShouldSkipRename(providerIDs map[string]string, currentName, desiredName string) bool {
	if fold(currentName) != fold(desiredName) {
		return false
	}

	currentID, hasCurrent := ExtractProviderID(currentName)
	desiredID, hasDesired := ExtractProviderID(desiredName)

	if hasCurrent && hasDesired && fold(currentID) != fold(desiredID) {
		return false
	}
	if hasCurrent && !FolderIDMatchesAnyMetadataID(providerIDs, currentID) {
		return false
	}
	return true
}
