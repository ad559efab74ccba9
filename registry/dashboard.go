package registry

import (
	"context"
	"encoding/json"

	"golang.org/x/sync/errgroup"
)

type Dashboard struct {
	c *Client
}

func NewDashboard(c *Client) *Dashboard {
	return &Dashboard{c: c}
}

// Summary holds the three dashboard tiles as the registry reports them.
type Summary struct {
	Runtime     json.RawMessage `json:"runtime"`
	BotStats    json.RawMessage `json:"bot_stats"`
	ServerStats json.RawMessage `json:"server_stats"`
}

func (d *Dashboard) Runtime(ctx context.Context) (json.RawMessage, error) {
	return d.tile(ctx, "dashboard runtime", "/api/dashboard/runtime")
}

func (d *Dashboard) BotStats(ctx context.Context) (json.RawMessage, error) {
	return d.tile(ctx, "dashboard bot stats", "/api/dashboard/bot_stats")
}

func (d *Dashboard) ServerStats(ctx context.Context) (json.RawMessage, error) {
	return d.tile(ctx, "dashboard server stats", "/api/dashboard/server_stats")
}

// Summary fetches all tiles concurrently. The tiles are shown together, so
// the first failure cancels the remaining fetches.
func (d *Dashboard) Summary(ctx context.Context) (*Summary, error) {
	var s Summary
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		s.Runtime, err = d.Runtime(ctx)
		return err
	})
	g.Go(func() (err error) {
		s.BotStats, err = d.BotStats(ctx)
		return err
	})
	g.Go(func() (err error) {
		s.ServerStats, err = d.ServerStats(ctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &s, nil
}

func (d *Dashboard) tile(ctx context.Context, op, path string) (json.RawMessage, error) {
	var raw json.RawMessage
	if _, err := d.c.get(ctx, op, path, &raw); err != nil {
		return nil, err
	}
	return raw, nil
}
