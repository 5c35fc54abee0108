package jellyfin

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

const pageSize = 500

// ItemQuery selects items from GET /Items.
type ItemQuery struct {
	Types    []string
	ParentID string
	IDs      []string
}

func (q ItemQuery) values() url.Values {
	v := url.Values{}
	v.Set("Recursive", "true")
	v.Set("Fields", itemFields)
	if len(q.Types) > 0 {
		v.Set("IncludeItemTypes", strings.Join(q.Types, ","))
	}
	if q.ParentID != "" {
		v.Set("ParentId", q.ParentID)
	}
	if len(q.IDs) > 0 {
		v.Set("Ids", strings.Join(q.IDs, ","))
	}
	return v
}

// ListItems returns every item matching q, following pagination.
func (c *Client) ListItems(ctx context.Context, q ItemQuery) ([]Item, error) {
	var items []Item
	for {
		v := q.values()
		v.Set("StartIndex", strconv.Itoa(len(items)))
		v.Set("Limit", strconv.Itoa(pageSize))

		var resp ItemsResponse
		if err := c.get(ctx, "/Items", v, &resp); err != nil {
			return nil, fmt.Errorf("listing items: %w", err)
		}
		items = append(items, resp.Items...)
		if len(resp.Items) == 0 || len(items) >= resp.TotalRecordCount {
			return items, nil
		}
	}
}

// GetItem returns one item with the fields the renamer needs.
func (c *Client) GetItem(ctx context.Context, itemID string) (*Item, error) {
	items, err := c.ListItems(ctx, ItemQuery{IDs: []string{itemID}})
	if err != nil {
		return nil, fmt.Errorf("getting item %s: %w", itemID, err)
	}
	for i := range items {
		if items[i].ID == itemID {
			return &items[i], nil
		}
	}
	return nil, fmt.Errorf("getting item %s: %w", itemID, ErrNotFound)
}

func (c *Client) ListSeries(ctx context.Context) ([]Item, error) {
	return c.ListItems(ctx, ItemQuery{Types: []string{TypeSeries}})
}

func (c *Client) ListMovies(ctx context.Context) ([]Item, error) {
	return c.ListItems(ctx, ItemQuery{Types: []string{TypeMovie}})
}

// ListSeriesChildren returns the seasons and episodes below a series.
func (c *Client) ListSeriesChildren(ctx context.Context, seriesID string) (seasons, episodes []Item, err error) {
	items, err := c.ListItems(ctx, ItemQuery{
		ParentID: seriesID,
		Types:    []string{TypeSeason, TypeEpisode},
	})
	if err != nil {
		return nil, nil, fmt.Errorf("listing children of %s: %w", seriesID, err)
	}
	for _, item := range items {
		switch item.Type {
		case TypeSeason:
			seasons = append(seasons, item)
		case TypeEpisode:
			episodes = append(episodes, item)
		}
	}
	return seasons, episodes, nil
}
