package polymarket

import (
	"time"

	"github.com/rickgao/venue-matcher/internal/model"
)

// APIEvent is an event from GET /events.
type APIEvent struct {
	ID      string      `json:"id"`
	Title   string      `json:"title"`
	Slug    string      `json:"slug"`
	EndDate string      `json:"endDate"`
	Active  bool        `json:"active"`
	Closed  bool        `json:"closed"`
	Markets []APIMarket `json:"markets"`
}

// APIMarket is a binary market nested inside an event.
type APIMarket struct {
	ID       string `json:"id"`
	Question string `json:"question"`
	Slug     string `json:"slug"`
}

// ToInstrument converts an APIEvent to an event-venue instrument.
func (e *APIEvent) ToInstrument() model.EventInstrument {
	subs := make([]model.SubMarket, 0, len(e.Markets))
	for _, m := range e.Markets {
		subs = append(subs, model.SubMarket{ID: m.ID, Question: m.Question, Slug: m.Slug})
	}

	return model.EventInstrument{
		ID:         e.ID,
		Title:      e.Title,
		Slug:       e.Slug,
		EndDate:    parseDate(e.EndDate),
		SubMarkets: subs,
	}
}

// parseDate accepts RFC 3339 timestamps and bare dates.
func parseDate(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC()
	}
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t
	}
	return time.Time{}
}
