package scan

import "github.com/rickgao/venue-matcher/internal/mode"

type progressPayload struct {
	Phase          Phase     `json:"phase"`
	Step           string    `json:"step"`
	Mode           mode.Mode `json:"mode"`
	KalshiPool     int       `json:"kalshi_pool"`
	PolymarketPool int       `json:"polymarket_pool"`
	Counts         Counts    `json:"counts"`
}

type alternative struct {
	KalshiTicker string  `json:"kalshi_ticker"`
	Title        string  `json:"title"`
	Score        float64 `json:"score"`
}

type candidatePayload struct {
	PolymarketID   string        `json:"polymarket_id"`
	PolymarketSlug string        `json:"polymarket_slug"`
	KalshiTicker   string        `json:"kalshi_ticker"`
	TitleA         string        `json:"title_a"`
	TitleB         string        `json:"title_b"`
	Score          float64       `json:"score"`
	Reason         string        `json:"reason"`
	Confidence     string        `json:"confidence"`
	Alternatives   []alternative `json:"alternatives"`
	Persisted      string        `json:"persisted"`
}

type debugPayload struct {
	Message  string   `json:"message"`
	Snapshot Snapshot `json:"snapshot"`
}

type errorPayload struct {
	Code    string   `json:"code"`
	Message string   `json:"message"`
	Context Snapshot `json:"context"`
}

type terminatedPayload struct {
	Code  string `json:"code"`
	Phase Phase  `json:"phase"`
}

type completePayload struct {
	Counts
	RunID          string    `json:"run_id"`
	Reason         string    `json:"reason"`
	Mode           mode.Mode `json:"mode"`
	ModeSwitched   bool      `json:"mode_switched"`
	Degraded       bool      `json:"degraded"`
	KalshiPool     int       `json:"kalshi_pool"`
	PolymarketPool int       `json:"polymarket_pool"`
	LimitHit       bool      `json:"limit_hit"`
	DurationMS     int64     `json:"duration_ms"`
}
