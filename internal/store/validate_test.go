package store

import (
	"errors"
	"testing"
	"time"

	"github.com/rickgao/venue-matcher/internal/model"
)

func TestValidateRun(t *testing.T) {
	tests := []struct {
		name    string
		run     *model.ScanRun
		wantErr bool
	}{
		{"nil", nil, true},
		{"missing id", &model.ScanRun{Status: model.RunRunning}, true},
		{"unknown status", &model.ScanRun{ID: "r1", Status: "paused"}, true},
		{"running", &model.ScanRun{ID: "r1", Status: model.RunRunning}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRun(tt.run)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidInput) {
					t.Errorf("ValidateRun() = %v, want ErrInvalidInput", err)
				}
				return
			}
			if err != nil {
				t.Errorf("ValidateRun() unexpected error: %v", err)
			}
		})
	}
}

func TestPreparePair(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("fills defaults", func(t *testing.T) {
		p := &model.MatchedPair{EventID: "e1", Ticker: "T1", Confidence: 0.9}
		if err := PreparePair(p, now); err != nil {
			t.Fatalf("PreparePair() error: %v", err)
		}
		if p.Status != model.PairUnverified {
			t.Errorf("Status = %q, want %q", p.Status, model.PairUnverified)
		}
		if !p.CreatedAt.Equal(now) {
			t.Errorf("CreatedAt = %v, want %v", p.CreatedAt, now)
		}
	})

	t.Run("rejects missing keys", func(t *testing.T) {
		err := PreparePair(&model.MatchedPair{EventID: "e1"}, now)
		if !errors.Is(err, ErrInvalidInput) {
			t.Errorf("PreparePair() = %v, want ErrInvalidInput", err)
		}
	})

	t.Run("rejects confidence out of range", func(t *testing.T) {
		err := PreparePair(&model.MatchedPair{EventID: "e1", Ticker: "T1", Confidence: 1.5}, now)
		if !errors.Is(err, ErrInvalidInput) {
			t.Errorf("PreparePair() = %v, want ErrInvalidInput", err)
		}
	})
}
