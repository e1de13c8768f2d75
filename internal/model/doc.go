// Package model defines shared data types used across the venue matcher.
//
// Two venues are involved in every scan:
//   - Kalshi (ticker venue): instruments identified by short tickers, e.g. "KXBTC-26MAR-T100000"
//   - Polymarket (event venue): topical events, each holding one or more binary markets
//
// Conventions:
//   - Scores: float64 in [0, 1]
//   - Timestamps: time.Time (UTC); zero value means "unknown"
//   - IDs: string tickers / event ids, uuid strings for scan runs
package model
