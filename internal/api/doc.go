// Package api provides the Kalshi REST client used as the ticker venue.
//
// REST endpoints:
//   - Production: https://api.elections.kalshi.com/trade-api/v2
//   - Demo: https://demo-api.kalshi.co/trade-api/v2
//
// Public market data is readable without credentials. When credentials are
// configured every request is signed with the KALSHI-ACCESS-* headers.
package api
