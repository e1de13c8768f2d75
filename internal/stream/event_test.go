package stream

import (
	"encoding/json"
	"errors"
	"math"
	"testing"
	"time"
)

func TestStamp(t *testing.T) {
	clock := time.UnixMilli(1_700_000_000_000)
	s := newStamper("req-1", func() time.Time { return clock })

	tests := []struct {
		name    string
		payload any
		want    string
		wantErr bool
	}{
		{
			name:    "struct",
			payload: struct{ Step string `json:"step"` }{"fetching"},
			want:    `{"request_id":"req-1","ts":1700000000000,"step":"fetching"}`,
		},
		{
			name:    "empty object",
			payload: struct{}{},
			want:    `{"request_id":"req-1","ts":1700000000000}`,
		},
		{
			name:    "nil",
			payload: nil,
			want:    `{"request_id":"req-1","ts":1700000000000}`,
		},
		{
			name:    "map",
			payload: map[string]int{"scanned": 3},
			want:    `{"request_id":"req-1","ts":1700000000000,"scanned":3}`,
		},
		{
			name:    "not an object",
			payload: []int{1, 2},
			wantErr: true,
		},
		{
			name:    "unencodable",
			payload: map[string]float64{"score": math.NaN()},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.stamp(tt.payload)
			if tt.wantErr {
				if !errors.Is(err, ErrPayload) {
					t.Fatalf("stamp() = %s, %v, want ErrPayload", got, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("stamp() error: %v", err)
			}
			if string(got) != tt.want {
				t.Errorf("stamp() = %s, want %s", got, tt.want)
			}
			if !json.Valid(got) {
				t.Errorf("stamp() produced invalid JSON: %s", got)
			}
		})
	}
}

func TestStampMonotonic(t *testing.T) {
	times := []int64{1000, 2000, 1500, 2500}
	i := 0
	s := newStamper("req", func() time.Time {
		ms := times[i]
		i++
		return time.UnixMilli(ms)
	})

	want := []int64{1000, 2000, 2000, 2500}
	for j, w := range want {
		if got := s.next(); got != w {
			t.Errorf("next() #%d = %d, want %d", j, got, w)
		}
	}
}

func TestEventDecode(t *testing.T) {
	ev := Event{Name: EventComplete, Data: json.RawMessage(`{"candidates":2,"reason":"completed_normally"}`)}

	var got struct {
		Candidates int    `json:"candidates"`
		Reason     string `json:"reason"`
	}
	if err := ev.Decode(&got); err != nil {
		t.Fatalf("Decode() error: %v", err)
	}
	if got.Candidates != 2 || got.Reason != "completed_normally" {
		t.Errorf("Decode() = %+v", got)
	}
}
