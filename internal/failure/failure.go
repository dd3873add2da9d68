// Package failure classifies errors coming back from the remote provider
// into the small taxonomy the orchestrators act on: retryable transient
// failures, terminal failures, timeouts, and aborts (which are not failures).
package failure

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// Kind is the category of a provider failure.
type Kind int

const (
	KindUnknown Kind = iota
	KindNetwork
	KindRateLimited
	KindUnauthorized
	KindNotFound
	KindTimedOut
	KindAborted
)

// String returns the lower_snake name of the kind, used in logs and telemetry.
func (k Kind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindRateLimited:
		return "rate_limited"
	case KindUnauthorized:
		return "unauthorized"
	case KindNotFound:
		return "not_found"
	case KindTimedOut:
		return "timed_out"
	case KindAborted:
		return "aborted"
	default:
		return "unknown"
	}
}

var (
	// ErrAborted marks a call that was cancelled on purpose (superseded or torn down).
	ErrAborted = errors.New("request aborted")

	// ErrTimedOut marks a call that ran past its deadline.
	ErrTimedOut = errors.New("request timed out")
)

// Error is a classified provider failure.
type Error struct {
	Kind    Kind
	Op      string // provider operation, e.g. "search users"
	Status  int    // HTTP status when known
	Message string // message from the remote service, if any
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if msg == "" {
		msg = e.Kind.String()
	}
	if e.Op == "" {
		return msg
	}
	return fmt.Sprintf("%s: %s", e.Op, msg)
}

func (e *Error) Unwrap() error { return e.Err }

// New returns a classified error for op.
func New(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// FromStatus maps an HTTP status (plus rate-limit headers) onto a Kind.
// header may be nil.
func FromStatus(op string, status int, message string, header http.Header) *Error {
	e := &Error{Op: op, Status: status, Message: message}
	switch {
	case status == http.StatusTooManyRequests:
		e.Kind = KindRateLimited
	case status == http.StatusForbidden && header != nil && header.Get("X-RateLimit-Remaining") == "0":
		e.Kind = KindRateLimited
	case status == http.StatusUnauthorized, status == http.StatusForbidden:
		e.Kind = KindUnauthorized
	case status == http.StatusNotFound:
		e.Kind = KindNotFound
	case status >= 500:
		e.Kind = KindNetwork
	default:
		e.Kind = KindUnknown
	}
	return e
}

// KindOf classifies err. A nil error has no kind and reports KindUnknown.
func KindOf(err error) Kind {
	if err == nil {
		return KindUnknown
	}
	if errors.Is(err, ErrAborted) || errors.Is(err, context.Canceled) {
		return KindAborted
	}
	if errors.Is(err, ErrTimedOut) || errors.Is(err, context.DeadlineExceeded) {
		return KindTimedOut
	}
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	var ne net.Error
	if errors.As(err, &ne) {
		if ne.Timeout() {
			return KindTimedOut
		}
		return KindNetwork
	}
	return KindUnknown
}

// IsAborted reports whether err is an intentional cancellation.
func IsAborted(err error) bool {
	return err != nil && KindOf(err) == KindAborted
}

// Retryable reports whether another attempt could succeed.
// Aborts, auth failures and missing resources are terminal.
func Retryable(err error) bool {
	if err == nil {
		return false
	}
	switch KindOf(err) {
	case KindAborted, KindUnauthorized, KindNotFound:
		return false
	default:
		return true
	}
}

// Message turns err into text fit for the user. The remote service's own
// message wins when there is one.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var fe *Error
	if errors.As(err, &fe) && fe.Message != "" {
		return fe.Message
	}
	switch KindOf(err) {
	case KindRateLimited:
		return "GitHub API rate limit exceeded, try again in a moment"
	case KindUnauthorized:
		return "GitHub rejected the credentials"
	case KindNotFound:
		return "Not found"
	case KindTimedOut:
		return "The request timed out"
	case KindNetwork:
		return "Network error, check your connection"
	}
	if msg := err.Error(); msg != "" {
		return msg
	}
	return "An unexpected error occurred"
}
