package jellyfin

import (
	"context"
	"fmt"
	"net/url"
	"path/filepath"
)

// RefreshLibrary triggers a full library scan.
func (c *Client) RefreshLibrary(ctx context.Context) error {
	if err := c.post(ctx, "/Library/Refresh", nil, nil); err != nil {
		return fmt.Errorf("refreshing library: %w", err)
	}
	return nil
}

// RefreshItem asks Jellyfin to rescan an item's files after its path changed.
func (c *Client) RefreshItem(ctx context.Context, itemID string) error {
	query := url.Values{}
	query.Set("Recursive", "true")
	query.Set("MetadataRefreshMode", "Default")
	query.Set("ImageRefreshMode", "Default")
	query.Set("ReplaceAllMetadata", "false")
	query.Set("ReplaceAllImages", "false")
	if err := c.post(ctx, "/Items/"+url.PathEscape(itemID)+"/Refresh", query, nil); err != nil {
		return fmt.Errorf("refreshing item %s: %w", itemID, err)
	}
	return nil
}

// GetVirtualFolders returns all configured libraries with their disk paths.
func (c *Client) GetVirtualFolders(ctx context.Context) ([]VirtualFolder, error) {
	var folders []VirtualFolder
	if err := c.get(ctx, "/Library/VirtualFolders", nil, &folders); err != nil {
		return nil, fmt.Errorf("getting virtual folders: %w", err)
	}
	return folders, nil
}

// LibraryRoots returns every library location, cleaned.
func (c *Client) LibraryRoots(ctx context.Context) ([]string, error) {
	folders, err := c.GetVirtualFolders(ctx)
	if err != nil {
		return nil, err
	}
	var roots []string
	for _, f := range folders {
		for _, loc := range f.Locations {
			if loc != "" {
				roots = append(roots, filepath.Clean(loc))
			}
		}
	}
	return roots, nil
}
