package scan

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rickgao/venue-matcher/internal/api"
	"github.com/rickgao/venue-matcher/internal/model"
	"github.com/rickgao/venue-matcher/internal/polymarket"
	"github.com/rickgao/venue-matcher/internal/store/memory"
	"github.com/rickgao/venue-matcher/internal/stream"
	"github.com/rickgao/venue-matcher/internal/universe"
)

// journal is an ordered log shared by fakes and the recorder.
type journal struct {
	mu      sync.Mutex
	entries []string
}

func (j *journal) add(format string, args ...any) {
	if j == nil {
		return
	}
	j.mu.Lock()
	j.entries = append(j.entries, fmt.Sprintf(format, args...))
	j.mu.Unlock()
}

func (j *journal) index(prefix string) int {
	j.mu.Lock()
	defer j.mu.Unlock()
	for i, e := range j.entries {
		if strings.HasPrefix(e, prefix) {
			return i
		}
	}
	return -1
}

type fakeKalshi struct {
	log     *journal
	markets func(ctx context.Context, opts api.GetMarketsOptions) (*api.MarketsResponse, error)
	events  func(ctx context.Context, opts api.GetEventsOptions) (*api.EventsResponse, error)
}

func (f *fakeKalshi) GetMarkets(ctx context.Context, opts api.GetMarketsOptions) (*api.MarketsResponse, error) {
	f.log.add("kalshi:markets:%s", opts.EventTicker)
	if f.markets == nil {
		return &api.MarketsResponse{}, nil
	}
	return f.markets(ctx, opts)
}

func (f *fakeKalshi) GetEvents(ctx context.Context, opts api.GetEventsOptions) (*api.EventsResponse, error) {
	f.log.add("kalshi:events:%s", opts.Category)
	if f.events == nil {
		return &api.EventsResponse{}, nil
	}
	return f.events(ctx, opts)
}

type fakePolymarket struct {
	events []polymarket.APIEvent
}

func (f *fakePolymarket) ListEvents(_ context.Context, _ string, limit int) ([]polymarket.APIEvent, error) {
	if limit > 0 && limit < len(f.events) {
		return f.events[:limit], nil
	}
	return f.events, nil
}

type emitted struct {
	Name string
	Data map[string]any
}

// recorder is an in-memory stream.Emitter.
type recorder struct {
	log      *journal
	onEmit   func(name string, n int)
	panicOn  string
	rejectOn string // Event name answered with stream.ErrPayload

	mu     sync.Mutex
	events []emitted
	closed bool
}

func (r *recorder) RequestID() string { return "req-1" }

func (r *recorder) Emit(name string, payload any) error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return io.ErrClosedPipe
	}
	if r.rejectOn == name {
		r.mu.Unlock()
		return fmt.Errorf("%w: want a JSON object", stream.ErrPayload)
	}
	if r.panicOn == name {
		r.panicOn = ""
		r.mu.Unlock()
		panic("boom")
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		r.mu.Unlock()
		return err
	}
	var data map[string]any
	if err := json.Unmarshal(raw, &data); err != nil {
		r.mu.Unlock()
		return err
	}
	r.events = append(r.events, emitted{Name: name, Data: data})
	n := len(r.events)
	r.mu.Unlock()

	step, _ := data["step"].(string)
	r.log.add("emit:%s:%s", name, step)
	if r.onEmit != nil {
		r.onEmit(name, n)
	}
	return nil
}

func (r *recorder) all() []emitted {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]emitted, len(r.events))
	copy(out, r.events)
	return out
}

func (r *recorder) named(name string) []emitted {
	var out []emitted
	for _, e := range r.all() {
		if e.Name == name {
			out = append(out, e)
		}
	}
	return out
}

func (r *recorder) last() emitted {
	all := r.all()
	if len(all) == 0 {
		return emitted{}
	}
	return all[len(all)-1]
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testSettings() Settings {
	s := DefaultSettings()
	s.Tags = []universe.Tag{{Label: "test", ID: "1"}}
	s.GraceDelay = 0
	s.Universe.CallTimeout = time.Second
	s.Universe.TargetCategories = []string{"Politics"}
	return s
}

func newTestService(t *testing.T, k *fakeKalshi, pm *fakePolymarket, st *memory.Store, opts ...Option) *Service {
	t.Helper()
	base := []Option{
		WithLogger(quietLogger()),
		WithIDGenerator(func() string { return "run-1" }),
	}
	return NewService(k, pm, st, testSettings(), append(base, opts...)...)
}

func markets(n int, title func(i int) string, ticker func(i int) string) []api.APIMarket {
	out := make([]api.APIMarket, n)
	for i := range out {
		out[i] = api.APIMarket{Ticker: ticker(i), Title: title(i)}
	}
	return out
}

func pmEvents(n int, title func(i int) string) []polymarket.APIEvent {
	out := make([]polymarket.APIEvent, n)
	for i := range out {
		out[i] = polymarket.APIEvent{
			ID:    fmt.Sprintf("pm-%d", i),
			Title: title(i),
			Slug:  fmt.Sprintf("event-%d", i),
		}
	}
	return out
}

func runRecord(t *testing.T, st *memory.Store) *model.ScanRun {
	t.Helper()
	run, err := st.GetRun(context.Background(), "run-1")
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	return run
}
