// Package retry holds the two retry flavours: a manual Policy that counts
// failures per user-facing action and lets the caller decide whether to
// re-invoke, and Do, which retries background fetches on its own.
package retry

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/runger/ghexplorer/internal/failure"
	"github.com/runger/ghexplorer/internal/telemetry"
)

// DefaultLimit is the manual retry limit when none is configured.
const DefaultLimit = 3

// Action names used by the orchestrators.
const (
	ActionSearchQuery     = "search_query"
	ActionSelectCandidate = "select_candidate"
)

// ErrExhausted is returned by Attempt when the action has no attempts left.
var ErrExhausted = errors.New("max retries reached")

// Verdict is what the policy concluded about one outcome.
type Verdict int

const (
	// VerdictSucceeded means the counter was reset.
	VerdictSucceeded Verdict = iota
	// VerdictRetryable means the failure was counted and attempts remain.
	VerdictRetryable
	// VerdictExhausted means the counter reached its limit.
	VerdictExhausted
	// VerdictAborted means the outcome was a cancellation and was not counted.
	VerdictAborted
)

func (v Verdict) String() string {
	switch v {
	case VerdictSucceeded:
		return "succeeded"
	case VerdictRetryable:
		return "retryable"
	case VerdictExhausted:
		return "exhausted"
	case VerdictAborted:
		return "aborted"
	default:
		return "unknown"
	}
}

// Status is the read-only view of one action's counter.
type Status struct {
	Action    string `json:"action"`
	Attempts  int    `json:"attempts"`
	Limit     int    `json:"limit"`
	Remaining int    `json:"remaining"`
	CanRetry  bool   `json:"can_retry"`
	Exhausted bool   `json:"exhausted"`
}

// PolicyConfig holds configuration for a Policy.
type PolicyConfig struct {
	// Limit is the number of failures after which an action is frozen.
	// Default: 3
	Limit int
	// Limits overrides Limit for individual actions.
	Limits map[string]int

	// OnExhausted, if set, is called once each time an action reaches its
	// limit. It runs outside the policy lock.
	OnExhausted func(action string, err error)

	Logger   *slog.Logger
	Reporter telemetry.Reporter
}

// Policy tracks failure counters per action name.
type Policy struct {
	mu       sync.Mutex
	limit    int
	limits   map[string]int
	attempts map[string]int

	onExhausted func(action string, err error)
	logger      *slog.Logger
	reporter    telemetry.Reporter
}

// NewPolicy creates a Policy with the given configuration.
func NewPolicy(cfg *PolicyConfig) *Policy {
	if cfg == nil {
		cfg = &PolicyConfig{}
	}
	limit := cfg.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	reporter := cfg.Reporter
	if reporter == nil {
		reporter = telemetry.Nop{}
	}
	limits := make(map[string]int, len(cfg.Limits))
	for action, n := range cfg.Limits {
		if n > 0 {
			limits[action] = n
		}
	}
	return &Policy{
		limit:       limit,
		limits:      limits,
		attempts:    make(map[string]int),
		onExhausted: cfg.OnExhausted,
		logger:      logger,
		reporter:    reporter,
	}
}

// Record applies the outcome of one attempt of action to its counter.
func (p *Policy) Record(action string, err error) Verdict {
	if err == nil {
		p.mu.Lock()
		delete(p.attempts, action)
		p.mu.Unlock()
		return VerdictSucceeded
	}
	if failure.IsAborted(err) {
		return VerdictAborted
	}

	p.mu.Lock()
	n := p.attempts[action]
	limit := p.limitFor(action)
	if n >= limit {
		p.mu.Unlock()
		return VerdictExhausted
	}
	n++
	p.attempts[action] = n
	p.mu.Unlock()

	if n < limit {
		p.logger.Debug("retryable failure recorded",
			"action", action,
			"attempts", n,
			"limit", limit,
		)
		return VerdictRetryable
	}

	p.logger.Warn("retry limit reached", "action", action, "limit", limit, "error", err)
	p.reporter.Report(telemetry.Message(telemetry.SeverityMedium, action+"_max_retries", map[string]any{
		"action": action,
		"limit":  limit,
		"error":  err.Error(),
	}))
	if p.onExhausted != nil {
		p.onExhausted(action, err)
	}
	return VerdictExhausted
}

// Attempt runs thunk unless action is already exhausted and records its
// outcome. The thunk's error is returned unchanged.
func (p *Policy) Attempt(action string, thunk func() error) (Verdict, error) {
	if !p.Status(action).CanRetry {
		return VerdictExhausted, fmt.Errorf("%s: %w", action, ErrExhausted)
	}
	err := thunk()
	return p.Record(action, err), err
}

// Status returns the counter view for action. Unused actions report zero
// attempts.
func (p *Policy) Status(action string) Status {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := p.attempts[action]
	limit := p.limitFor(action)
	return Status{
		Action:    action,
		Attempts:  n,
		Limit:     limit,
		Remaining: limit - n,
		CanRetry:  n < limit,
		Exhausted: n >= limit,
	}
}

// limitFor must be called with p.mu held.
func (p *Policy) limitFor(action string) int {
	if n, ok := p.limits[action]; ok {
		return n
	}
	return p.limit
}

// Reset clears the counter for action.
func (p *Policy) Reset(action string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.attempts, action)
}
