package universe

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/rickgao/venue-matcher/internal/model"
	"github.com/rickgao/venue-matcher/internal/polymarket"
)

// Tag is a Polymarket topic tag.
type Tag struct {
	Label string `yaml:"label" json:"label"`
	ID    string `yaml:"id" json:"id"`
}

// DefaultTags is the fixed topic table sampled on Polymarket.
var DefaultTags = []Tag{
	{Label: "politics", ID: "2"},
	{Label: "crypto", ID: "21"},
	{Label: "economy", ID: "100328"},
	{Label: "business", ID: "107"},
	{Label: "science", ID: "74"},
	{Label: "world", ID: "101970"},
	{Label: "culture", ID: "596"},
}

// TagSummary records the result of one tag request.
type TagSummary struct {
	Label  string `json:"label"`
	ID     string `json:"id"`
	Events int    `json:"events"`
	Error  string `json:"error,omitempty"`
}

// EventResult is the merged Polymarket universe.
type EventResult struct {
	Events     []model.EventInstrument
	Tags       []TagSummary
	Duplicates int
	Failures   []*FetchError
}

// EventFetcher samples the Polymarket universe.
type EventFetcher struct {
	venue    EventVenue
	cfg      Config
	recorder Recorder
	logger   *slog.Logger
}

// NewEventFetcher creates a Polymarket universe fetcher. rec may be nil.
func NewEventFetcher(cfg Config, venue EventVenue, rec Recorder, logger *slog.Logger) *EventFetcher {
	if logger == nil {
		logger = slog.Default()
	}
	if rec == nil {
		rec = nopRecorder{}
	}
	return &EventFetcher{venue: venue, cfg: cfg, recorder: rec, logger: logger}
}

// Fetch issues one request per tag concurrently, then merges the results in
// tag order, deduplicated by event id and truncated to limit. perTag bounds
// each request; zero means limit. A failed tag contributes nothing.
func (f *EventFetcher) Fetch(ctx context.Context, tags []Tag, perTag, limit int) (*EventResult, error) {
	if len(tags) == 0 {
		tags = []Tag{{Label: "all"}}
	}
	if perTag <= 0 || perTag > limit {
		perTag = limit
	}

	pages := make([][]polymarket.APIEvent, len(tags))
	errs := make([]error, len(tags))

	var g errgroup.Group
	for i, tag := range tags {
		g.Go(func() error {
			events, err := callWithTimeout(ctx, f.cfg.CallTimeout, func(cctx context.Context) ([]polymarket.APIEvent, error) {
				return f.venue.ListEvents(cctx, tag.ID, perTag)
			})
			f.recorder.ObserveRequest("polymarket", outcomeOf(err))
			pages[i], errs[i] = events, err
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	res := &EventResult{Tags: make([]TagSummary, len(tags))}
	seen := make(map[string]struct{}, limit)

	for i, tag := range tags {
		summary := TagSummary{Label: tag.Label, ID: tag.ID}
		if errs[i] != nil {
			summary.Error = errs[i].Error()
			res.Failures = appendFailure(res.Failures, &FetchError{Op: "tag", Key: tag.Label, Err: errs[i]})
			f.logger.Warn("polymarket tag fetch failed", "tag", tag.Label, "tag_id", tag.ID, "err", errs[i])
		}
		summary.Events = len(pages[i])
		res.Tags[i] = summary

		for j := range pages[i] {
			ev := &pages[i][j]
			if _, ok := seen[ev.ID]; ok || ev.ID == "" {
				res.Duplicates++
				continue
			}
			seen[ev.ID] = struct{}{}
			if len(res.Events) < limit {
				res.Events = append(res.Events, ev.ToInstrument())
			}
		}
	}

	f.logger.Info("polymarket universe fetched",
		"tags", len(tags),
		"events", len(res.Events),
		"duplicates", res.Duplicates,
		"failures", len(res.Failures),
	)
	return res, nil
}
