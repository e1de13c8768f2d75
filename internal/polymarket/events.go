package polymarket

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
)

// MaxPageSize is the largest page the Gamma API serves.
const MaxPageSize = 500

// EventsOptions configures a GetEvents request.
type EventsOptions struct {
	TagID  string
	Limit  int
	Offset int

	// IncludeClosed disables the default active, not-closed filter.
	IncludeClosed bool
}

// GetEvents fetches a page of events ordered by volume, most traded first.
func (c *Client) GetEvents(ctx context.Context, opts EventsOptions) ([]APIEvent, error) {
	query := url.Values{}
	if opts.TagID != "" {
		query.Set("tag_id", opts.TagID)
	}
	if opts.Limit > 0 {
		query.Set("limit", strconv.Itoa(min(opts.Limit, MaxPageSize)))
	}
	if opts.Offset > 0 {
		query.Set("offset", strconv.Itoa(opts.Offset))
	}
	if !opts.IncludeClosed {
		query.Set("active", "true")
		query.Set("closed", "false")
	}
	query.Set("order", "volume")
	query.Set("ascending", "false")

	var events []APIEvent
	if err := c.get(ctx, "/events", query, &events); err != nil {
		if opts.TagID != "" {
			return nil, fmt.Errorf("get events tag %s: %w", opts.TagID, err)
		}
		return nil, fmt.Errorf("get events: %w", err)
	}
	return events, nil
}

// ListEvents pages through GetEvents until limit events are collected or
// the venue runs out.
func (c *Client) ListEvents(ctx context.Context, tagID string, limit int) ([]APIEvent, error) {
	var all []APIEvent
	offset := 0

	for len(all) < limit {
		page := min(limit-len(all), MaxPageSize)
		events, err := c.GetEvents(ctx, EventsOptions{TagID: tagID, Limit: page, Offset: offset})
		if err != nil {
			if len(all) > 0 {
				c.logger.Warn("polymarket pagination stopped early",
					"tag", tagID,
					"collected", len(all),
					"err", err,
				)
				return all, nil
			}
			return nil, err
		}

		all = append(all, events...)
		if len(events) < page {
			break
		}
		offset += len(events)
	}

	if len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}
