package failure

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromStatus(t *testing.T) {
	t.Parallel()

	limited := http.Header{}
	limited.Set("X-RateLimit-Remaining", "0")

	tests := []struct {
		name   string
		status int
		header http.Header
		want   Kind
	}{
		{"unauthorized", http.StatusUnauthorized, nil, KindUnauthorized},
		{"forbidden", http.StatusForbidden, nil, KindUnauthorized},
		{"forbidden rate limited", http.StatusForbidden, limited, KindRateLimited},
		{"too many requests", http.StatusTooManyRequests, nil, KindRateLimited},
		{"not found", http.StatusNotFound, nil, KindNotFound},
		{"bad gateway", http.StatusBadGateway, nil, KindNetwork},
		{"unprocessable", http.StatusUnprocessableEntity, nil, KindUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := FromStatus("search users", tt.status, "boom", tt.header)
			assert.Equal(t, tt.want, e.Kind)
			assert.Equal(t, tt.status, e.Status)
			assert.Equal(t, "search users: boom", e.Error())
		})
	}
}

func TestKindOf(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"aborted sentinel", ErrAborted, KindAborted},
		{"context canceled", context.Canceled, KindAborted},
		{"wrapped canceled", fmt.Errorf("get: %w", context.Canceled), KindAborted},
		{"timed out sentinel", ErrTimedOut, KindTimedOut},
		{"deadline", context.DeadlineExceeded, KindTimedOut},
		{"classified", New(KindNotFound, "list repos", errors.New("x")), KindNotFound},
		{"net error", &net.OpError{Op: "dial", Err: errors.New("refused")}, KindNetwork},
		{"plain", errors.New("weird"), KindUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.err))
		})
	}
}

func TestRetryable(t *testing.T) {
	t.Parallel()

	assert.False(t, Retryable(nil))
	assert.False(t, Retryable(ErrAborted))
	assert.False(t, Retryable(New(KindUnauthorized, "op", nil)))
	assert.False(t, Retryable(New(KindNotFound, "op", nil)))
	assert.True(t, Retryable(ErrTimedOut))
	assert.True(t, Retryable(New(KindRateLimited, "op", nil)))
	assert.True(t, Retryable(New(KindNetwork, "op", nil)))
	assert.True(t, Retryable(errors.New("unknown")))
}

func TestMessage(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "", Message(nil))
	assert.Equal(t, "API rate limit exceeded for 1.2.3.4",
		Message(FromStatus("search users", 403, "API rate limit exceeded for 1.2.3.4", nil)))
	assert.Equal(t, "The request timed out", Message(fmt.Errorf("%w after 5s", ErrTimedOut)))
	assert.Equal(t, "Not found", Message(New(KindNotFound, "list repos", nil)))
	assert.Equal(t, "weird", Message(errors.New("weird")))
}

func TestIsAborted(t *testing.T) {
	t.Parallel()

	assert.True(t, IsAborted(ErrAborted))
	assert.False(t, IsAborted(nil))
	assert.False(t, IsAborted(ErrTimedOut))
}
