// Package universe builds the per-run candidate pools for both venues.
//
// Kalshi (ticker venue) has two strategies:
//   - Flat: cursor pagination over /markets, bounded by page count,
//     accumulated size, and a wall-clock budget. Resumable from a baseline.
//   - Scoped: per-category event crawl followed by batched, per-call
//     time-limited market fetches for the selected events.
//
// Polymarket (event venue) is sampled by a concurrent fan-out of one
// request per topic tag, merged and deduplicated by event id.
//
// Individual request failures shrink a strategy's yield; they never abort
// the fetch. Only caller cancellation is returned as an error.
package universe
