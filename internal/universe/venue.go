package universe

import (
	"context"

	"github.com/rickgao/venue-matcher/internal/api"
	"github.com/rickgao/venue-matcher/internal/polymarket"
)

// TickerVenue is the subset of the Kalshi client used for retrieval.
type TickerVenue interface {
	GetMarkets(ctx context.Context, opts api.GetMarketsOptions) (*api.MarketsResponse, error)
	GetEvents(ctx context.Context, opts api.GetEventsOptions) (*api.EventsResponse, error)
}

// EventVenue is the subset of the Polymarket client used for retrieval.
type EventVenue interface {
	ListEvents(ctx context.Context, tagID string, limit int) ([]polymarket.APIEvent, error)
}

// Recorder observes individual venue requests. Outcome is one of
// "ok", "error" or "timeout".
type Recorder interface {
	ObserveRequest(venue, outcome string)
}

type nopRecorder struct{}

func (nopRecorder) ObserveRequest(string, string) {}

// Request outcomes reported to a Recorder.
const (
	OutcomeOK      = "ok"
	OutcomeError   = "error"
	OutcomeTimeout = "timeout"
)

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return OutcomeOK
	case isTimeout(err):
		return OutcomeTimeout
	default:
		return OutcomeError
	}
}
