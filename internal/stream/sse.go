package stream

import (
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"
)

// SSEWriter writes server-sent events to an HTTP response.
type SSEWriter struct {
	w       http.ResponseWriter
	flusher http.Flusher
	stamp   *stamper

	mu     sync.Mutex
	closed bool
}

// NewSSE sets the event-stream headers, writes the status line, and returns
// a writer. The response must support flushing.
func NewSSE(w http.ResponseWriter, requestID string) (*SSEWriter, error) {
	return newSSE(w, requestID, nil)
}

func newSSE(w http.ResponseWriter, requestID string, now func() time.Time) (*SSEWriter, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, errors.New("response writer does not support flushing")
	}

	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	h.Set("X-Request-ID", requestID)
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	return &SSEWriter{w: w, flusher: flusher, stamp: newStamper(requestID, now)}, nil
}

// RequestID returns the id stamped on every event.
func (s *SSEWriter) RequestID() string {
	return s.stamp.requestID
}

// Emit writes one event and flushes it.
func (s *SSEWriter) Emit(name string, payload any) error {
	data, err := s.stamp.stamp(payload)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	if _, err := fmt.Fprintf(s.w, "event: %s\ndata: %s\n\n", name, data); err != nil {
		return fmt.Errorf("write event %s: %w", name, err)
	}
	s.flusher.Flush()
	return nil
}

// Close stops further writes. The handler returning ends the response.
func (s *SSEWriter) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}
