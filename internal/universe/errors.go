package universe

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrCallTimeout is the cause of a FetchError whose call outlived its
// per-call timeout.
var ErrCallTimeout = errors.New("call timed out")

// FetchError describes a single failed venue request.
type FetchError struct {
	Op  string // e.g. "markets", "events", "tag"
	Key string // Event ticker, category, or tag id
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s %s: %v", e.Op, e.Key, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// IsTimeout reports whether the failure was a per-call timeout.
func (e *FetchError) IsTimeout() bool {
	return errors.Is(e.Err, ErrCallTimeout)
}

// callWithTimeout runs fn under a per-call deadline. A call that outlives
// the deadline resolves to ErrCallTimeout without waiting for fn to return.
// Parent cancellation is returned as the parent's error.
func callWithTimeout[T any](ctx context.Context, d time.Duration, fn func(context.Context) (T, error)) (T, error) {
	cctx, cancel := context.WithTimeout(ctx, d)
	defer cancel()

	type result struct {
		v   T
		err error
	}
	done := make(chan result, 1)
	go func() {
		v, err := fn(cctx)
		done <- result{v, err}
	}()

	var zero T
	select {
	case r := <-done:
		if r.err != nil && ctx.Err() == nil && errors.Is(r.err, context.DeadlineExceeded) {
			return zero, ErrCallTimeout
		}
		return r.v, r.err
	case <-cctx.Done():
		if err := ctx.Err(); err != nil {
			return zero, err
		}
		return zero, ErrCallTimeout
	}
}

func isTimeout(err error) bool {
	return errors.Is(err, ErrCallTimeout)
}
