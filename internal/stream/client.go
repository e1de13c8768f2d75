package stream

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

// ErrStop may be returned by a ReadSSE callback to stop reading without error.
var ErrStop = errors.New("stop reading")

const maxEventSize = 4 << 20

// ReadSSE parses server-sent events from r and calls fn for each event in
// order. It returns nil at EOF or when fn returns ErrStop.
func ReadSSE(r io.Reader, fn func(Event) error) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), maxEventSize)

	var (
		name string
		data []string
	)
	dispatch := func() error {
		if name == "" && len(data) == 0 {
			return nil
		}
		ev := Event{Name: name, Data: json.RawMessage(strings.Join(data, "\n"))}
		if ev.Name == "" {
			ev.Name = "message"
		}
		name, data = "", nil
		return fn(ev)
	}

	for sc.Scan() {
		line := sc.Text()
		switch {
		case line == "":
			if err := dispatch(); err != nil {
				if errors.Is(err, ErrStop) {
					return nil
				}
				return err
			}
		case strings.HasPrefix(line, ":"):
			// comment
		case strings.HasPrefix(line, "event:"):
			name = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			data = append(data, strings.TrimPrefix(strings.TrimPrefix(line, "data:"), " "))
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("read event stream: %w", err)
	}
	if err := dispatch(); err != nil && !errors.Is(err, ErrStop) {
		return err
	}
	return nil
}

// WSClient reads events from a /ws/scan connection.
type WSClient struct {
	conn *websocket.Conn
}

// DialWS connects to a WebSocket scan endpoint.
func DialWS(ctx context.Context, url string) (*WSClient, error) {
	header := http.Header{}
	header.Set("Accept", "application/json")

	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}

	conn, _, err := dialer.DialContext(ctx, url, header)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}
	return &WSClient{conn: conn}, nil
}

// Next blocks for the next event. It returns io.EOF when the server
// closes the connection normally.
func (c *WSClient) Next() (Event, error) {
	_, msg, err := c.conn.ReadMessage()
	if err != nil {
		if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
			return Event{}, io.EOF
		}
		return Event{}, err
	}

	var f frame
	if err := json.Unmarshal(msg, &f); err != nil {
		return Event{}, fmt.Errorf("decode frame: %w", err)
	}
	return Event{Name: f.Event, Data: f.Data}, nil
}

// Close sends a close frame and closes the connection.
func (c *WSClient) Close() error {
	c.conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second),
	)
	return c.conn.Close()
}
