package jellyfin

import "strings"

// WebhookEvent is the payload sent by the Jellyfin Webhook plugin. The
// plugin's template must emit these keys.
type WebhookEvent struct {
	NotificationType string `json:"NotificationType"`

	ServerID string `json:"ServerId,omitempty"`

	ItemID   string `json:"ItemId,omitempty"`
	ItemName string `json:"Name,omitempty"`
	ItemType string `json:"ItemType,omitempty"`
	ItemPath string `json:"ItemPath,omitempty"`
	Year     int    `json:"Year,omitempty"`

	SeriesID      string `json:"SeriesId,omitempty"`
	SeriesName    string `json:"SeriesName,omitempty"`
	SeasonNumber  *int   `json:"SeasonNumber,omitempty"`
	EpisodeNumber *int   `json:"EpisodeNumber,omitempty"`

	ProviderTmdb string `json:"Provider_tmdb,omitempty"`
	ProviderTvdb string `json:"Provider_tvdb,omitempty"`
	ProviderImdb string `json:"Provider_imdb,omitempty"`

	UserName   string `json:"NotificationUsername,omitempty"`
	DeviceName string `json:"DeviceName,omitempty"`
	ClientName string `json:"ClientName,omitempty"`

	Timestamp string `json:"Timestamp,omitempty"`
}

const (
	EventItemAdded     = "ItemAdded"
	EventItemUpdated   = "ItemUpdated"
	EventPlaybackStart = "PlaybackStart"
	EventPlaybackStop  = "PlaybackStop"
)

// ProviderIDs collects the non-empty provider fields under Jellyfin's key names.
func (e WebhookEvent) ProviderIDs() map[string]string {
	ids := map[string]string{}
	for key, value := range map[string]string{
		"Tmdb": e.ProviderTmdb,
		"Tvdb": e.ProviderTvdb,
		"Imdb": e.ProviderImdb,
	} {
		if v := strings.TrimSpace(value); v != "" {
			ids[key] = v
		}
	}
	return ids
}

// RenameTarget returns the item whose rename the event asks for. Episodes
// keep their own id so the payload path can stand in for a stale snapshot
// path; seasons resolve to their series.
func (e WebhookEvent) RenameTarget() (itemID, overridePath string, ok bool) {
	if e.NotificationType != EventItemAdded && e.NotificationType != EventItemUpdated {
		return "", "", false
	}
	switch e.ItemType {
	case TypeSeries, TypeMovie:
		return e.ItemID, "", e.ItemID != ""
	case TypeEpisode:
		return e.ItemID, strings.TrimSpace(e.ItemPath), e.ItemID != ""
	case TypeSeason:
		if e.SeriesID != "" {
			return e.SeriesID, "", true
		}
		return e.ItemID, "", e.ItemID != ""
	}
	return "", "", false
}

// PlaybackInfo extracts lock details from a playback event.
func (e WebhookEvent) PlaybackInfo() PlaybackInfo {
	return PlaybackInfo{
		UserName:   e.UserName,
		DeviceName: e.DeviceName,
		ClientName: e.ClientName,
		ItemID:     e.ItemID,
	}
}
