package script

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/runger/ghexplorer/internal/provider"
	"github.com/runger/ghexplorer/internal/retry"
	"github.com/runger/ghexplorer/internal/store"
)

// DefaultWaitTimeout bounds every wait a script performs.
const DefaultWaitTimeout = 30 * time.Second

// ErrNoCandidate is returned when select names nothing in the current results.
var ErrNoCandidate = errors.New("no such candidate")

// Driver is the part of an explorer session a script needs.
type Driver interface {
	SubmitQueryText(text string) error
	SelectCandidate(c provider.Candidate) error
	RequestNextPage() error
	RetryLastQuery() error
	RetryLastSelection() error
	Snapshot() store.Snapshot
	WaitIdle(ctx context.Context) (store.Snapshot, error)
	RetryStatus(action string) retry.Status
}

// RunnerConfig holds configuration for a Runner.
type RunnerConfig struct {
	Driver Driver
	Out    io.Writer

	// JSON switches show to one JSON document per call.
	JSON bool

	// WaitTimeout bounds search and wait steps.
	// Default: 30s
	WaitTimeout time.Duration

	Logger *slog.Logger
}

// Runner executes parsed steps against a Driver.
type Runner struct {
	driver      Driver
	out         io.Writer
	json        bool
	waitTimeout time.Duration
	logger      *slog.Logger
}

// NewRunner creates a Runner.
func NewRunner(cfg RunnerConfig) *Runner {
	out := cfg.Out
	if out == nil {
		out = io.Discard
	}
	wait := cfg.WaitTimeout
	if wait <= 0 {
		wait = DefaultWaitTimeout
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		driver:      cfg.Driver,
		out:         out,
		json:        cfg.JSON,
		waitTimeout: wait,
		logger:      logger,
	}
}

// Run executes steps in order and stops at the first error.
func (r *Runner) Run(ctx context.Context, steps []Step) error {
	for _, step := range steps {
		if err := ctx.Err(); err != nil {
			return err
		}
		r.logger.Debug("script step", "line", step.Line, "step", step.String())
		if err := r.Exec(ctx, step); err != nil {
			return fmt.Errorf("line %d: %s: %w", step.Line, step.Op, err)
		}
	}
	return nil
}

// Exec executes one step.
func (r *Runner) Exec(ctx context.Context, step Step) error {
	switch step.Op {
	case OpType:
		return r.driver.SubmitQueryText(step.Arg)
	case OpSearch:
		if err := r.driver.SubmitQueryText(step.Arg); err != nil {
			return err
		}
		return r.wait(ctx)
	case OpSelect:
		c, err := resolve(r.driver.Snapshot().Query.Results, step.Arg)
		if err != nil {
			return err
		}
		return r.driver.SelectCandidate(c)
	case OpMore:
		return r.driver.RequestNextPage()
	case OpRetry:
		if step.Arg == "selection" {
			return r.driver.RetryLastSelection()
		}
		return r.driver.RetryLastQuery()
	case OpWait:
		return r.wait(ctx)
	case OpShow:
		return r.Show()
	case OpSleep:
		ms, err := strconv.Atoi(step.Arg)
		if err != nil {
			return err
		}
		t := time.NewTimer(time.Duration(ms) * time.Millisecond)
		defer t.Stop()
		select {
		case <-t.C:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	default:
		return fmt.Errorf("%w: unknown command %q", ErrSyntax, step.Op)
	}
}

// Show prints the current state.
func (r *Runner) Show() error {
	v := View{
		Snapshot:     r.driver.Snapshot(),
		SearchRetry:  r.driver.RetryStatus(retry.ActionSearchQuery),
		ListingRetry: r.driver.RetryStatus(retry.ActionSelectCandidate),
	}
	if r.json {
		return WriteJSON(r.out, v)
	}
	return WriteText(r.out, v)
}

func (r *Runner) wait(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, r.waitTimeout)
	defer cancel()
	_, err := r.driver.WaitIdle(ctx)
	return err
}

// resolve picks a candidate by 1-based index or by case-insensitive login.
func resolve(results []provider.Candidate, arg string) (provider.Candidate, error) {
	if n, err := strconv.Atoi(arg); err == nil {
		if n < 1 || n > len(results) {
			return provider.Candidate{}, fmt.Errorf("%w: index %d of %d", ErrNoCandidate, n, len(results))
		}
		return results[n-1], nil
	}
	for _, c := range results {
		if strings.EqualFold(c.DisplayName, arg) {
			return c, nil
		}
	}
	return provider.Candidate{}, fmt.Errorf("%w: %q", ErrNoCandidate, arg)
}
