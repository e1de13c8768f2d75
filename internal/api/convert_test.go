package api

import (
	"testing"
	"time"
)

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		input string
		want  time.Time
	}{
		{"2026-03-31T20:00:00Z", time.Date(2026, 3, 31, 20, 0, 0, 0, time.UTC)},
		{"2026-03-31T16:00:00-04:00", time.Date(2026, 3, 31, 20, 0, 0, 0, time.UTC)},
		{"2026-03-31T20:00:00", time.Date(2026, 3, 31, 20, 0, 0, 0, time.UTC)},
		{"", time.Time{}},
		{"not a time", time.Time{}},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := ParseTimestamp(tt.input); !got.Equal(tt.want) {
				t.Errorf("ParseTimestamp(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestAPIMarket_ToInstrument(t *testing.T) {
	t.Run("event category wins", func(t *testing.T) {
		m := APIMarket{
			Ticker:      "KXBTC-26MAR-T100000",
			EventTicker: "KXBTC-26MAR",
			Title:       "BTC Above $100K",
			Category:    "Financials",
			CloseTime:   "2026-03-31T20:00:00Z",
		}

		got := m.ToInstrument("Crypto")
		if got.Ticker != m.Ticker || got.EventTicker != m.EventTicker {
			t.Errorf("identity = %q/%q", got.Ticker, got.EventTicker)
		}
		if got.Title != "BTC Above $100K" {
			t.Errorf("Title = %q", got.Title)
		}
		if got.Category != "Crypto" {
			t.Errorf("Category = %q, want %q", got.Category, "Crypto")
		}
		if !got.CloseDate.Equal(time.Date(2026, 3, 31, 20, 0, 0, 0, time.UTC)) {
			t.Errorf("CloseDate = %v", got.CloseDate)
		}
	})

	t.Run("fallbacks", func(t *testing.T) {
		m := APIMarket{
			Ticker:         "KXNFL-X",
			YesSubTitle:    "Chiefs",
			Category:       "Sports",
			ExpirationTime: "2026-02-08T23:00:00Z",
		}

		got := m.ToInstrument("")
		if got.Title != "Chiefs" {
			t.Errorf("Title = %q, want %q", got.Title, "Chiefs")
		}
		if got.Category != "Sports" {
			t.Errorf("Category = %q, want %q", got.Category, "Sports")
		}
		if got.CloseDate.IsZero() {
			t.Error("CloseDate should fall back to expiration time")
		}
	})
}
