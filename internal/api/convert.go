package api

import (
	"time"

	"github.com/rickgao/venue-matcher/internal/model"
)

// ParseTimestamp parses an ISO 8601 timestamp.
// Returns the zero time for empty or invalid input.
func ParseTimestamp(iso string) time.Time {
	if iso == "" {
		return time.Time{}
	}

	t, err := time.Parse(time.RFC3339, iso)
	if err != nil {
		// Try without timezone
		t, err = time.Parse("2006-01-02T15:04:05", iso)
		if err != nil {
			return time.Time{}
		}
	}

	return t.UTC()
}

// ToInstrument converts an APIMarket to a ticker-venue instrument.
// category is the parent event's category and wins over the market field.
func (m *APIMarket) ToInstrument(category string) model.TickerInstrument {
	if category == "" {
		category = m.Category
	}

	closeDate := ParseTimestamp(m.CloseTime)
	if closeDate.IsZero() {
		closeDate = ParseTimestamp(m.ExpirationTime)
	}

	return model.TickerInstrument{
		Ticker:      m.Ticker,
		EventTicker: m.EventTicker,
		Title:       m.DisplayTitle(),
		Category:    category,
		CloseDate:   closeDate,
	}
}

// DisplayTitle returns the market title, falling back to the subtitle
// for markets published without one.
func (m *APIMarket) DisplayTitle() string {
	if m.Title != "" {
		return m.Title
	}
	if m.YesSubTitle != "" {
		return m.YesSubTitle
	}
	return m.Subtitle
}
