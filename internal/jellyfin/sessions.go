package jellyfin

import (
	"context"
	"fmt"
)

// GetSessions returns all active sessions.
func (c *Client) GetSessions(ctx context.Context) ([]Session, error) {
	var sessions []Session
	if err := c.get(ctx, "/Sessions", nil, &sessions); err != nil {
		return nil, fmt.Errorf("getting sessions: %w", err)
	}
	return sessions, nil
}

// SeedPlaybackLocks locks every path currently streaming. The daemon calls
// it at startup so playback that began before it was running is respected.
func (c *Client) SeedPlaybackLocks(ctx context.Context, locks *PlaybackLockManager) (int, error) {
	sessions, err := c.GetSessions(ctx)
	if err != nil {
		return 0, err
	}

	seeded := 0
	for _, s := range sessions {
		if s.NowPlayingItem == nil || s.NowPlayingItem.Path == "" {
			continue
		}
		locks.Lock(s.NowPlayingItem.Path, PlaybackInfo{
			UserName:   s.UserName,
			DeviceName: s.DeviceName,
			ClientName: s.Client,
			ItemID:     s.NowPlayingItem.ID,
		})
		seeded++
	}
	return seeded, nil
}
