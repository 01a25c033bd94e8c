package tubecli

import (
	"context"

	"github.com/warpdl/warptube/common"
	"github.com/warpdl/warptube/pkg/tubelib"
)

func (c *Client) Version(ctx context.Context) (*common.VersionResult, error) {
	return invoke[common.VersionResult](ctx, c, common.MethodVersion, nil)
}

func (c *Client) Dependencies(ctx context.Context) (*common.DependenciesResult, error) {
	return invoke[common.DependenciesResult](ctx, c, common.MethodDependencies, nil)
}

// Add queues items atomically; either all are queued or none.
func (c *Client) Add(ctx context.Context, items ...common.AddItem) (*common.AddResult, error) {
	return invoke[common.AddResult](ctx, c, common.MethodQueueAdd, &common.AddParams{Items: items})
}

// control runs a pause, resume or cancel call. The job is nil when the
// daemon does not know id.
func (c *Client) control(ctx context.Context, method, id string) (*tubelib.Job, error) {
	out, err := invoke[*tubelib.Job](ctx, c, method, &common.IDParams{ID: id})
	if err != nil {
		return nil, err
	}
	return *out, nil
}

func (c *Client) Pause(ctx context.Context, id string) (*tubelib.Job, error) {
	return c.control(ctx, common.MethodQueuePause, id)
}

func (c *Client) Resume(ctx context.Context, id string) (*tubelib.Job, error) {
	return c.control(ctx, common.MethodQueueResume, id)
}

func (c *Client) Cancel(ctx context.Context, id string) (*tubelib.Job, error) {
	return c.control(ctx, common.MethodQueueCancel, id)
}

// Move moves the job at index from to index to.
func (c *Client) Move(ctx context.Context, from, to int) error {
	_, err := invoke[common.EmptyResult](ctx, c, common.MethodQueueMove, &common.MoveParams{From: from, To: to})
	return err
}

// List returns the queue, optionally filtered by status.
func (c *Client) List(ctx context.Context, status string) (*common.ListResult, error) {
	return invoke[common.ListResult](ctx, c, common.MethodQueueList, &common.ListParams{Status: status})
}

func (c *Client) Get(ctx context.Context, id string) (*tubelib.Job, error) {
	return invoke[tubelib.Job](ctx, c, common.MethodQueueGet, &common.IDParams{ID: id})
}

func (c *Client) Remove(ctx context.Context, id string) error {
	_, err := invoke[common.EmptyResult](ctx, c, common.MethodQueueRemove, &common.IDParams{ID: id})
	return err
}

// Clear drops finished jobs and returns how many were removed.
func (c *Client) Clear(ctx context.Context) (int, error) {
	res, err := invoke[common.ClearResult](ctx, c, common.MethodQueueClear, nil)
	if err != nil {
		return 0, err
	}
	return res.Removed, nil
}

// SetConcurrency returns the limit actually applied.
func (c *Client) SetConcurrency(ctx context.Context, n int) (int, error) {
	res, err := invoke[common.ConcurrencyResult](ctx, c, common.MethodQueueConcurrency, &common.ConcurrencyParams{Max: n})
	if err != nil {
		return 0, err
	}
	return res.Max, nil
}

func (c *Client) Video(ctx context.Context, url string) (*tubelib.VideoInfo, error) {
	return invoke[tubelib.VideoInfo](ctx, c, common.MethodMetaVideo, &common.URLParams{URL: url})
}

func (c *Client) Playlist(ctx context.Context, url string) (*tubelib.PlaylistInfo, error) {
	return invoke[tubelib.PlaylistInfo](ctx, c, common.MethodMetaPlaylist, &common.URLParams{URL: url})
}

func (c *Client) Channel(ctx context.Context, url string) (*tubelib.ChannelInfo, error) {
	return invoke[tubelib.ChannelInfo](ctx, c, common.MethodMetaChannel, &common.URLParams{URL: url})
}

func (c *Client) Detect(ctx context.Context, url string) (*common.DetectResult, error) {
	return invoke[common.DetectResult](ctx, c, common.MethodMetaDetect, &common.URLParams{URL: url})
}

func (c *Client) CacheStats(ctx context.Context) (*common.CacheStatsResult, error) {
	return invoke[common.CacheStatsResult](ctx, c, common.MethodMetaCache, nil)
}
