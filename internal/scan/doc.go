// Package scan runs a discovery scan and streams its progress.
//
// A run moves through created, fetching_baseline (auto mode only),
// fetching_universe and matching, and ends completed or terminated. Every
// state change is emitted as a stream event as it happens. The run record
// is written at start and at the terminal transition.
package scan
