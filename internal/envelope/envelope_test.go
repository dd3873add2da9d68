package envelope

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runger/ghexplorer/internal/failure"
)

func TestCall_Success(t *testing.T) {
	t.Parallel()

	tok := NewToken(context.Background(), 1)
	v, err := Call(tok.Context(), time.Second, func(ctx context.Context) (string, error) {
		return "ok", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", v)
	assert.Equal(t, OutcomeSuccess, OutcomeOf(err))
}

func TestCall_OrdinaryFailure(t *testing.T) {
	t.Parallel()

	boom := failure.New(failure.KindNetwork, "search users", errors.New("connection reset"))
	_, err := Call(context.Background(), time.Second, func(ctx context.Context) (int, error) {
		return 0, boom
	})
	require.ErrorIs(t, err, boom)
	assert.Equal(t, OutcomeFailed, OutcomeOf(err))
}

func TestCall_CancelBeforeCompletionIsAborted(t *testing.T) {
	t.Parallel()

	tok := NewToken(context.Background(), 1)
	started := make(chan struct{})
	release := make(chan struct{})
	defer close(release)

	go func() {
		<-started
		tok.Cancel()
	}()

	_, err := Call(tok.Context(), 0, func(ctx context.Context) (int, error) {
		close(started)
		<-release // ignores ctx on purpose: the envelope must not wait for it
		return 42, nil
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, failure.ErrAborted)
	assert.Equal(t, OutcomeAborted, OutcomeOf(err))
}

func TestCall_DeadlineIsTimedOut(t *testing.T) {
	t.Parallel()

	var sawCancel bool
	done := make(chan struct{})
	_, err := Call(context.Background(), 20*time.Millisecond, func(ctx context.Context) (int, error) {
		defer close(done)
		<-ctx.Done()
		sawCancel = true
		return 0, ctx.Err()
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, failure.ErrTimedOut)
	assert.Equal(t, OutcomeTimedOut, OutcomeOf(err))
	assert.Contains(t, err.Error(), "20ms")

	<-done
	assert.True(t, sawCancel, "deadline must be signalled downstream")
}

func TestCall_CancelledUpFront(t *testing.T) {
	t.Parallel()

	tok := NewToken(context.Background(), 3)
	tok.Cancel()

	called := false
	_, err := Call(tok.Context(), time.Second, func(ctx context.Context) (int, error) {
		called = true
		return 1, nil
	})
	assert.False(t, called)
	assert.Equal(t, OutcomeAborted, OutcomeOf(err))
}

func TestCall_TimeoutBeatsLaterCancel(t *testing.T) {
	t.Parallel()

	tok := NewToken(context.Background(), 1)
	_, err := Call(tok.Context(), 10*time.Millisecond, func(ctx context.Context) (int, error) {
		<-ctx.Done()
		tok.Cancel() // loses: the deadline already fired
		return 0, ctx.Err()
	})
	assert.Equal(t, OutcomeTimedOut, OutcomeOf(err))
}

func TestToken_CancelIsIdempotent(t *testing.T) {
	t.Parallel()

	tok := NewToken(context.Background(), 7)
	assert.False(t, tok.Cancelled())
	assert.NotEmpty(t, tok.ID)
	assert.Equal(t, uint64(7), tok.Generation)

	tok.Cancel()
	tok.Cancel()
	assert.True(t, tok.Cancelled())
	assert.ErrorIs(t, context.Cause(tok.Context()), failure.ErrAborted)

	var nilTok *Token
	assert.NotPanics(t, nilTok.Cancel)
	assert.False(t, nilTok.Cancelled())
}

func TestOutcomeString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "success", OutcomeSuccess.String())
	assert.Equal(t, "failed", OutcomeFailed.String())
	assert.Equal(t, "timed_out", OutcomeTimedOut.String())
	assert.Equal(t, "aborted", OutcomeAborted.String())
}
