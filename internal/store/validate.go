package store

import (
	"fmt"
	"time"

	"github.com/rickgao/venue-matcher/internal/model"
)

// ValidateRun checks a run before insertion.
func ValidateRun(run *model.ScanRun) error {
	if run == nil {
		return fmt.Errorf("%w: nil run", ErrInvalidInput)
	}
	if run.ID == "" {
		return fmt.Errorf("%w: run id is required", ErrInvalidInput)
	}
	switch run.Status {
	case model.RunRunning, model.RunCompleted, model.RunFailed:
	default:
		return fmt.Errorf("%w: unknown run status %q", ErrInvalidInput, run.Status)
	}
	return nil
}

// PreparePair validates a pair and fills Status and CreatedAt when unset.
func PreparePair(pair *model.MatchedPair, now time.Time) error {
	if pair == nil {
		return fmt.Errorf("%w: nil pair", ErrInvalidInput)
	}
	if pair.EventID == "" || pair.Ticker == "" {
		return fmt.Errorf("%w: pair requires event id and ticker", ErrInvalidInput)
	}
	if pair.Confidence < 0 || pair.Confidence > 1 {
		return fmt.Errorf("%w: confidence %v out of range", ErrInvalidInput, pair.Confidence)
	}
	if pair.Status == "" {
		pair.Status = model.PairUnverified
	}
	if pair.CreatedAt.IsZero() {
		pair.CreatedAt = now.UTC()
	}
	return nil
}

// StatusPtr converts a run status pointer for drivers that only bind plain strings.
func StatusPtr(s *model.RunStatus) *string {
	if s == nil {
		return nil
	}
	v := string(*s)
	return &v
}
