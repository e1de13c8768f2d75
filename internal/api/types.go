package api

// ExchangeStatusResponse from GET /exchange/status, surfaced on /health.
type ExchangeStatusResponse struct {
	ExchangeActive      bool   `json:"exchange_active"`
	TradingActive       bool   `json:"trading_active"`
	EstimatedResumeTime string `json:"exchange_estimated_resume_time,omitempty"`
}

// MarketsResponse from GET /markets
type MarketsResponse struct {
	Markets []APIMarket `json:"markets"`
	Cursor  string      `json:"cursor"`
}

// APIMarket represents a market from the Kalshi API.
type APIMarket struct {
	Ticker      string `json:"ticker"`
	EventTicker string `json:"event_ticker"`
	Title       string `json:"title"`
	Subtitle    string `json:"subtitle"`
	YesSubTitle string `json:"yes_sub_title"`
	Status      string `json:"status"`
	Category    string `json:"category"` // Deprecated upstream, usually empty

	// Timestamps (ISO 8601)
	CloseTime      string `json:"close_time"`
	ExpirationTime string `json:"expiration_time"`
}

// EventsResponse from GET /events
type EventsResponse struct {
	Events []APIEvent `json:"events"`
	Cursor string     `json:"cursor"`
}

// APIEvent represents an event from the Kalshi API.
type APIEvent struct {
	EventTicker  string `json:"event_ticker"`
	SeriesTicker string `json:"series_ticker"`
	Title        string `json:"title"`
	Subtitle     string `json:"sub_title"`
	Category     string `json:"category"`
}

// GetMarketsOptions configures a GetMarkets request.
type GetMarketsOptions struct {
	Limit       int
	Cursor      string
	EventTicker string
	Status      string
	MveFilter   string // "exclude" or "only"
}

// GetEventsOptions configures a GetEvents request.
type GetEventsOptions struct {
	Limit    int
	Cursor   string
	Status   string
	Category string // Matched client-side as well
}
