// Package metrics provides Prometheus metrics for monitoring scans.
//
// Key metrics:
//   - Scan runs by outcome and run duration
//   - Venue requests by venue and outcome, including per-call timeouts
//   - Candidates by confidence tier and pair persistence outcomes
//   - Universe sizes by venue for the most recent run
package metrics
