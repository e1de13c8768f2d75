package stream

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const wsWriteTimeout = 10 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 16 * 1024,
}

// frame is the WebSocket envelope for one event.
type frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// WSWriter writes events as WebSocket text frames.
type WSWriter struct {
	conn   *websocket.Conn
	stamp  *stamper
	logger *slog.Logger

	writeMu sync.Mutex
	closed  bool
}

// Upgrade upgrades the request to a WebSocket connection. On failure the
// upgrader has already written an HTTP error response.
func Upgrade(w http.ResponseWriter, r *http.Request, requestID string, logger *slog.Logger) (*WSWriter, error) {
	if logger == nil {
		logger = slog.Default()
	}
	header := http.Header{}
	header.Set("X-Request-ID", requestID)

	conn, err := upgrader.Upgrade(w, r, header)
	if err != nil {
		return nil, fmt.Errorf("upgrade websocket: %w", err)
	}
	return &WSWriter{conn: conn, stamp: newStamper(requestID, nil), logger: logger}, nil
}

// RequestID returns the id stamped on every event.
func (s *WSWriter) RequestID() string {
	return s.stamp.requestID
}

// Emit writes one event frame.
func (s *WSWriter) Emit(name string, payload any) error {
	data, err := s.stamp.stamp(payload)
	if err != nil {
		return err
	}
	msg, err := json.Marshal(frame{Event: name, Data: data})
	if err != nil {
		return fmt.Errorf("%w: marshal frame: %v", ErrPayload, err)
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if s.closed {
		return ErrClosed
	}
	s.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	if err := s.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
		return fmt.Errorf("write event %s: %w", name, err)
	}
	return nil
}

// WatchClose reads from the connection until the peer closes it or a read
// fails, then calls onClose. Inbound messages are discarded.
func (s *WSWriter) WatchClose(onClose func()) {
	go func() {
		defer onClose()
		for {
			if _, _, err := s.conn.ReadMessage(); err != nil {
				if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					s.logger.Debug("websocket read ended", "error", err)
				}
				return
			}
		}
	}()
}

// Close sends a normal close frame and closes the connection.
func (s *WSWriter) Close() error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	s.conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second),
	)
	return s.conn.Close()
}
