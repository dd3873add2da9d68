package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/runger/ghexplorer/internal/explorer"
	"github.com/runger/ghexplorer/internal/retry"
	"github.com/runger/ghexplorer/internal/script"
	"github.com/runger/ghexplorer/internal/store"
)

// flagWait bounds every wait a headless command performs.
var flagWait time.Duration

// runSession opens the app, starts a headless explorer session and hands
// both to fn. Interrupts cancel the session.
func runSession(cmd *cobra.Command, fn func(ctx context.Context, a *app, s *explorer.Session) error) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	s := explorer.NewSession(ctx, a.engineConfig())
	defer s.Close()
	return fn(ctx, a, s)
}

// waitIdle waits until neither orchestrator has work in flight.
func waitIdle(ctx context.Context, s *explorer.Session) (store.Snapshot, error) {
	d := flagWait
	if d <= 0 {
		d = script.DefaultWaitTimeout
	}
	wctx, cancel := context.WithTimeout(ctx, d)
	defer cancel()
	snap, err := s.WaitIdle(wctx)
	if errors.Is(err, context.DeadlineExceeded) {
		return snap, fmt.Errorf("timed out after %s waiting for results", d)
	}
	return snap, err
}

func viewOf(s *explorer.Session, snap store.Snapshot) script.View {
	return script.View{
		Snapshot:     snap,
		SearchRetry:  s.RetryStatus(retry.ActionSearchQuery),
		ListingRetry: s.RetryStatus(retry.ActionSelectCandidate),
	}
}
