// Package matcher scores every Polymarket event against the Kalshi pool,
// keeps the best few tickers per event, and classifies the best one into a
// confidence tier.
//
// Scoring is a single-threaded loop. Earlier events are favoured: once the
// requested number of candidates has been emitted the remaining events are
// not scanned.
package matcher
