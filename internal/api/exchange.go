package api

import (
	"context"
	"fmt"
)

// GetExchangeStatus reports whether Kalshi is accepting requests. The
// matcher only calls it from /health; scans do not gate on it.
func (c *Client) GetExchangeStatus(ctx context.Context) (*ExchangeStatusResponse, error) {
	var resp ExchangeStatusResponse
	if err := c.get(ctx, "/exchange/status", nil, &resp); err != nil {
		return nil, fmt.Errorf("get exchange status: %w", err)
	}
	return &resp, nil
}
