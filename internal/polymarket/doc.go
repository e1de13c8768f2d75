// Package polymarket provides a read-only client for the Polymarket Gamma
// API, used as the event venue.
//
// REST endpoint:
//   - https://gamma-api.polymarket.com
//
// Only GET /events is consumed. Events are filtered by tag id and carry
// their nested binary markets.
package polymarket
