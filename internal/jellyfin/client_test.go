package jellyfin

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func jsonHandler(t *testing.T, v interface{}) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(v))
	}
}

func TestNewClient_Defaults(t *testing.T) {
	client := NewClient(Config{URL: "http://localhost:8096/", APIKey: "token"})

	require.NoError(t, client.baseErr)
	assert.Equal(t, "http://localhost:8096", client.baseURL.String())
	assert.Equal(t, 30*time.Second, client.httpClient.Timeout)
	assert.Equal(t, "token", client.apiKey)
}

func TestGetSystemInfo_SendsAuth(t *testing.T) {
	var gotMethod, gotPath, gotAuth string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod, gotPath, gotAuth = r.Method, r.URL.Path, r.Header.Get("Authorization")
		jsonHandler(t, SystemInfo{ServerName: "Jellyfin", Version: "10.9.0"})(w, r)
	}))
	defer ts.Close()

	client := NewClient(Config{URL: ts.URL, APIKey: "secret-key", Timeout: 5 * time.Second})
	info, err := client.GetSystemInfo(context.Background())
	require.NoError(t, err)

	assert.Equal(t, http.MethodGet, gotMethod)
	assert.Equal(t, "/System/Info", gotPath)
	assert.Contains(t, gotAuth, `MediaBrowser Token="secret-key"`)
	assert.Contains(t, gotAuth, `Client="jellyrename"`)
	assert.Equal(t, "Jellyfin", info.ServerName)
	assert.NoError(t, client.Ping(context.Background()))
}

func TestClient_BasePathIsKept(t *testing.T) {
	var gotPath string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		jsonHandler(t, SystemInfo{})(w, r)
	}))
	defer ts.Close()

	client := NewClient(Config{URL: ts.URL + "/jellyfin/"})
	_, err := client.GetSystemInfo(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "/jellyfin/System/Info", gotPath)
}

func TestClient_Errors(t *testing.T) {
	badClient := NewClient(Config{URL: "://bad-url"})
	_, err := badClient.GetSystemInfo(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid base URL")

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer ts.Close()

	_, err = NewClient(Config{URL: ts.URL}).GetSystemInfo(context.Background())
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
	assert.Equal(t, "boom", apiErr.Body)
}

func TestClient_ContextCancel(t *testing.T) {
	ts := httptest.NewServer(jsonHandler(t, SystemInfo{}))
	defer ts.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewClient(Config{URL: ts.URL}).GetSystemInfo(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRefreshItem(t *testing.T) {
	var gotMethod, gotPath, gotRecursive string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod, gotPath = r.Method, r.URL.Path
		gotRecursive = r.URL.Query().Get("Recursive")
		w.WriteHeader(http.StatusNoContent)
	}))
	defer ts.Close()

	client := NewClient(Config{URL: ts.URL, APIKey: "k"})
	require.NoError(t, client.RefreshItem(context.Background(), "item-123"))

	assert.Equal(t, http.MethodPost, gotMethod)
	assert.Equal(t, "/Items/item-123/Refresh", gotPath)
	assert.Equal(t, "true", gotRecursive)
}

func TestRefreshLibrary(t *testing.T) {
	var gotPath string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.WriteHeader(http.StatusNoContent)
	}))
	defer ts.Close()

	require.NoError(t, NewClient(Config{URL: ts.URL}).RefreshLibrary(context.Background()))
	assert.Equal(t, "/Library/Refresh", gotPath)
}

func TestListItems_Paginates(t *testing.T) {
	all := []Item{{ID: "1"}, {ID: "2"}, {ID: "3"}}
	var requests int
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		q := r.URL.Query()
		assert.Equal(t, "/Items", r.URL.Path)
		assert.Equal(t, "Series", q.Get("IncludeItemTypes"))
		assert.Equal(t, itemFields, q.Get("Fields"))

		start, _ := strconv.Atoi(q.Get("StartIndex"))
		end := start + 2
		if end > len(all) {
			end = len(all)
		}
		jsonHandler(t, ItemsResponse{Items: all[start:end], TotalRecordCount: len(all)})(w, r)
	}))
	defer ts.Close()

	items, err := NewClient(Config{URL: ts.URL}).ListSeries(context.Background())
	require.NoError(t, err)
	assert.Len(t, items, 3)
	assert.Equal(t, 2, requests)
}

func TestGetItem(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("Ids") == "known" {
			jsonHandler(t, ItemsResponse{Items: []Item{{ID: "known", Type: TypeMovie}}, TotalRecordCount: 1})(w, r)
			return
		}
		jsonHandler(t, ItemsResponse{})(w, r)
	}))
	defer ts.Close()

	client := NewClient(Config{URL: ts.URL})
	item, err := client.GetItem(context.Background(), "known")
	require.NoError(t, err)
	assert.Equal(t, TypeMovie, item.Type)

	_, err = client.GetItem(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListSeriesChildren(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "series-1", r.URL.Query().Get("ParentId"))
		jsonHandler(t, ItemsResponse{
			Items: []Item{
				{ID: "s1", Type: TypeSeason},
				{ID: "e1", Type: TypeEpisode},
				{ID: "e2", Type: TypeEpisode},
			},
			TotalRecordCount: 3,
		})(w, r)
	}))
	defer ts.Close()

	seasons, episodes, err := NewClient(Config{URL: ts.URL}).ListSeriesChildren(context.Background(), "series-1")
	require.NoError(t, err)
	assert.Len(t, seasons, 1)
	assert.Len(t, episodes, 2)
}

func TestLibraryRoots(t *testing.T) {
	ts := httptest.NewServer(jsonHandler(t, []VirtualFolder{
		{Name: "Shows", Locations: []string{"/srv/tv/", "/mnt/tv2"}},
		{Name: "Movies", Locations: []string{"/srv/movies"}},
	}))
	defer ts.Close()

	roots, err := NewClient(Config{URL: ts.URL}).LibraryRoots(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"/srv/tv", "/mnt/tv2", "/srv/movies"}, roots)
}

func TestSeedPlaybackLocks(t *testing.T) {
	ts := httptest.NewServer(jsonHandler(t, []Session{
		{UserName: "alice", NowPlayingItem: &NowPlaying{ID: "e1", Path: "/tv/Show/ep.mkv"}},
		{UserName: "bob"},
	}))
	defer ts.Close()

	locks := NewPlaybackLockManager()
	n, err := NewClient(Config{URL: ts.URL}).SeedPlaybackLocks(context.Background(), locks)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	locked, info := locks.IsLocked("/tv/Show/ep.mkv")
	require.True(t, locked)
	assert.Equal(t, "alice", info.UserName)
}
