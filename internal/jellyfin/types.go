package jellyfin

// Item types as Jellyfin names them.
const (
	TypeSeries  = "Series"
	TypeSeason  = "Season"
	TypeEpisode = "Episode"
	TypeMovie   = "Movie"
)

// itemFields are the extra fields requested on every item listing.
const itemFields = "Path,ProviderIds,ProductionYear,ParentId,SeriesId,SeasonId,LocationType"

// SystemInfo from GET /System/Info.
type SystemInfo struct {
	ServerName      string `json:"ServerName"`
	Version         string `json:"Version"`
	ID              string `json:"Id"`
	OperatingSystem string `json:"OperatingSystem"`
}

// VirtualFolder from GET /Library/VirtualFolders.
type VirtualFolder struct {
	Name           string   `json:"Name"`
	Locations      []string `json:"Locations"`
	CollectionType string   `json:"CollectionType"`
	ItemID         string   `json:"ItemId"`
}

// Item from GET /Items.
type Item struct {
	ID                string            `json:"Id"`
	Name              string            `json:"Name"`
	Path              string            `json:"Path"`
	Type              string            `json:"Type"`
	ProductionYear    int               `json:"ProductionYear"`
	ProviderIDs       map[string]string `json:"ProviderIds"`
	ParentID          string            `json:"ParentId"`
	SeriesID          string            `json:"SeriesId,omitempty"`
	SeriesName        string            `json:"SeriesName,omitempty"`
	SeasonID          string            `json:"SeasonId,omitempty"`
	SeasonName        string            `json:"SeasonName,omitempty"`
	IndexNumber       *int              `json:"IndexNumber,omitempty"`
	ParentIndexNumber *int              `json:"ParentIndexNumber,omitempty"`
	// LocationType is "Virtual" for placeholder items with nothing on disk.
	LocationType string `json:"LocationType,omitempty"`
}

// ItemsResponse from GET /Items.
type ItemsResponse struct {
	Items            []Item `json:"Items"`
	TotalRecordCount int    `json:"TotalRecordCount"`
}

// Session from GET /Sessions.
type Session struct {
	ID             string      `json:"Id"`
	UserName       string      `json:"UserName"`
	Client         string      `json:"Client"`
	DeviceName     string      `json:"DeviceName"`
	NowPlayingItem *NowPlaying `json:"NowPlayingItem,omitempty"`
}

type NowPlaying struct {
	ID   string `json:"Id"`
	Name string `json:"Name"`
	Path string `json:"Path"`
	Type string `json:"Type"`
}
