package universe

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestCallWithTimeout(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		v, err := callWithTimeout(context.Background(), time.Second, func(context.Context) (int, error) {
			return 7, nil
		})
		if err != nil || v != 7 {
			t.Errorf("got (%d, %v), want (7, nil)", v, err)
		}
	})

	t.Run("slow call resolves to ErrCallTimeout", func(t *testing.T) {
		release := make(chan struct{})
		defer close(release)

		start := time.Now()
		_, err := callWithTimeout(context.Background(), 20*time.Millisecond, func(context.Context) (int, error) {
			<-release // ignores its context
			return 1, nil
		})
		if !errors.Is(err, ErrCallTimeout) {
			t.Errorf("err = %v, want ErrCallTimeout", err)
		}
		if time.Since(start) > time.Second {
			t.Error("call was awaited past its timeout")
		}
	})

	t.Run("context-aware call resolves to ErrCallTimeout", func(t *testing.T) {
		_, err := callWithTimeout(context.Background(), 20*time.Millisecond, func(ctx context.Context) (int, error) {
			<-ctx.Done()
			return 0, ctx.Err()
		})
		if !errors.Is(err, ErrCallTimeout) {
			t.Errorf("err = %v, want ErrCallTimeout", err)
		}
	})

	t.Run("parent cancellation wins", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := callWithTimeout(ctx, time.Second, func(ctx context.Context) (int, error) {
			<-ctx.Done()
			return 0, ctx.Err()
		})
		if !errors.Is(err, context.Canceled) {
			t.Errorf("err = %v, want context.Canceled", err)
		}
	})

	t.Run("call error passes through", func(t *testing.T) {
		boom := errors.New("boom")
		_, err := callWithTimeout(context.Background(), time.Second, func(context.Context) (int, error) {
			return 0, boom
		})
		if !errors.Is(err, boom) {
			t.Errorf("err = %v, want boom", err)
		}
	})
}

func TestFetchError(t *testing.T) {
	fe := &FetchError{Op: "markets", Key: "KXBTC-26MAR", Err: ErrCallTimeout}

	if got, want := fe.Error(), "fetch markets KXBTC-26MAR: call timed out"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if !fe.IsTimeout() || !errors.Is(fe, ErrCallTimeout) {
		t.Error("expected timeout")
	}
	if (&FetchError{Err: errors.New("500")}).IsTimeout() {
		t.Error("plain error reported as timeout")
	}
}

func TestConfig_EventCap(t *testing.T) {
	cfg := DefaultConfig()

	tests := []struct {
		limit int
		want  int
	}{
		{1, 5},
		{100, 500},
		{200, 1000},
		{5000, 1000},
		{0, 1000},
	}
	for _, tt := range tests {
		if got := cfg.EventCap(tt.limit); got != tt.want {
			t.Errorf("EventCap(%d) = %d, want %d", tt.limit, got, tt.want)
		}
	}
}
