package stream

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"
)

// Event names.
const (
	EventProgress   = "progress"
	EventCandidate  = "candidate"
	EventDebugLog   = "debug_log"
	EventError      = "error"
	EventComplete   = "complete"
	EventTerminated = "terminated"
)

// ErrClosed is returned by Emit after the emitter was closed.
var ErrClosed = errors.New("stream closed")

// ErrPayload marks an event that could not be encoded. Nothing was written
// and the transport is still usable.
var ErrPayload = errors.New("invalid stream payload")

// Emitter delivers named events to a caller. Implementations write each
// event through to the transport before returning.
type Emitter interface {
	Emit(name string, payload any) error
	RequestID() string
}

// Event is a received event.
type Event struct {
	Name string
	Data json.RawMessage
}

// Decode unmarshals the event payload into v.
func (e Event) Decode(v any) error {
	return json.Unmarshal(e.Data, v)
}

// stamper attaches the request id and a non-decreasing timestamp.
type stamper struct {
	requestID string
	now       func() time.Time

	mu   sync.Mutex
	last int64
}

func newStamper(requestID string, now func() time.Time) *stamper {
	if now == nil {
		now = time.Now
	}
	return &stamper{requestID: requestID, now: now}
}

func (s *stamper) next() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	ms := s.now().UnixMilli()
	if ms < s.last {
		ms = s.last
	}
	s.last = ms
	return ms
}

// stamp marshals payload and prepends request_id and ts to the object.
func (s *stamper) stamp(payload any) ([]byte, error) {
	head, err := json.Marshal(struct {
		RequestID string `json:"request_id"`
		TS        int64  `json:"ts"`
	}{s.requestID, s.next()})
	if err != nil {
		return nil, err
	}
	if payload == nil {
		return head, nil
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: marshal %T: %v", ErrPayload, payload, err)
	}
	body = bytes.TrimSpace(body)
	if len(body) < 2 || body[0] != '{' {
		return nil, fmt.Errorf("%w: want a JSON object, got %T", ErrPayload, payload)
	}

	inner := bytes.TrimSpace(body[1 : len(body)-1])
	if len(inner) == 0 {
		return head, nil
	}

	out := make([]byte, 0, len(head)+len(inner)+1)
	out = append(out, head[:len(head)-1]...)
	out = append(out, ',')
	out = append(out, inner...)
	out = append(out, '}')
	return out, nil
}
