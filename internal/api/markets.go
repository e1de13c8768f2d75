package api

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
)

// MaxPageSize is the largest page Kalshi serves for list endpoints.
const MaxPageSize = 1000

// MVE filter values accepted by GET /markets.
const (
	MveExclude = "exclude"
	MveOnly    = "only"
)

// GetMarkets fetches a page of markets.
func (c *Client) GetMarkets(ctx context.Context, opts GetMarketsOptions) (*MarketsResponse, error) {
	query := url.Values{}

	if opts.Limit > 0 {
		query.Set("limit", strconv.Itoa(min(opts.Limit, MaxPageSize)))
	}
	if opts.Cursor != "" {
		query.Set("cursor", opts.Cursor)
	}
	if opts.EventTicker != "" {
		query.Set("event_ticker", opts.EventTicker)
	}
	if opts.Status != "" {
		query.Set("status", opts.Status)
	}
	if opts.MveFilter != "" {
		query.Set("mve_filter", opts.MveFilter)
	}

	var resp MarketsResponse
	if err := c.get(ctx, "/markets", query, &resp); err != nil {
		return nil, fmt.Errorf("get markets: %w", err)
	}

	return &resp, nil
}
