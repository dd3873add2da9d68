// Package envelope wraps a single outbound provider call with a
// cancellation token and a deadline, and guarantees that the caller
// observes exactly one settlement: success, failure, timeout or abort.
package envelope

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/runger/ghexplorer/internal/failure"
)

// Outcome is how a call settled.
type Outcome int

const (
	OutcomeSuccess Outcome = iota
	OutcomeFailed
	OutcomeTimedOut
	OutcomeAborted
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeFailed:
		return "failed"
	case OutcomeTimedOut:
		return "timed_out"
	case OutcomeAborted:
		return "aborted"
	default:
		return "unknown"
	}
}

// OutcomeOf maps the error returned by Call onto an Outcome.
func OutcomeOf(err error) Outcome {
	if err == nil {
		return OutcomeSuccess
	}
	switch failure.KindOf(err) {
	case failure.KindAborted:
		return OutcomeAborted
	case failure.KindTimedOut:
		return OutcomeTimedOut
	default:
		return OutcomeFailed
	}
}

// Token is the cancellation handle for one in-flight request. It is owned by
// the orchestrator that created it; Generation ties its settlement back to
// the orchestrator state that issued it.
type Token struct {
	ID         string
	Generation uint64

	ctx    context.Context
	cancel context.CancelCauseFunc
	once   sync.Once
}

// NewToken derives a cancellable token from parent.
func NewToken(parent context.Context, generation uint64) *Token {
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancelCause(parent)
	return &Token{
		ID:         uuid.NewString(),
		Generation: generation,
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Context is the context every call made on behalf of this token must use.
func (t *Token) Context() context.Context {
	return t.ctx
}

// Cancel aborts the token. Calling it more than once is a no-op.
func (t *Token) Cancel() {
	if t == nil {
		return
	}
	t.once.Do(func() {
		t.cancel(failure.ErrAborted)
	})
}

// Cancelled reports whether the token (or its parent) has been cancelled.
func (t *Token) Cancelled() bool {
	return t != nil && t.ctx.Err() != nil
}

type result[T any] struct {
	val T
	err error
}

// Call runs fn under ctx with an optional deadline (timeout <= 0 means none).
//
// The returned error is nil on success, wraps failure.ErrAborted when ctx was
// cancelled first, wraps failure.ErrTimedOut when the deadline fired first,
// and is fn's own error otherwise. When cancellation or the deadline wins, fn
// is abandoned: its context is cancelled and its eventual result dropped.
func Call[T any](ctx context.Context, timeout time.Duration, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	if ctx.Err() != nil {
		return zero, settle(ctx, timeout)
	}

	var (
		callCtx context.Context
		cancel  context.CancelFunc
	)
	if timeout > 0 {
		callCtx, cancel = context.WithTimeoutCause(ctx, timeout, failure.ErrTimedOut)
	} else {
		callCtx, cancel = context.WithCancel(ctx)
	}
	defer cancel()

	done := make(chan result[T], 1)
	go func() {
		v, err := fn(callCtx)
		done <- result[T]{val: v, err: err}
	}()

	select {
	case r := <-done:
		// A completion that lands after cancellation or the deadline loses.
		if callCtx.Err() != nil {
			return zero, settle(callCtx, timeout)
		}
		if r.err != nil {
			return zero, r.err
		}
		return r.val, nil
	case <-callCtx.Done():
		return zero, settle(callCtx, timeout)
	}
}

// settle reports why ctx ended. context.Cause records whichever of
// cancellation or deadline happened first.
func settle(ctx context.Context, timeout time.Duration) error {
	cause := context.Cause(ctx)
	if errors.Is(cause, failure.ErrTimedOut) || errors.Is(cause, context.DeadlineExceeded) {
		if timeout > 0 {
			return fmt.Errorf("%w after %s", failure.ErrTimedOut, timeout)
		}
		return failure.ErrTimedOut
	}
	if errors.Is(cause, failure.ErrAborted) {
		return cause
	}
	return fmt.Errorf("%w: %v", failure.ErrAborted, cause)
}
