package explorer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/runger/ghexplorer/internal/envelope"
	"github.com/runger/ghexplorer/internal/failure"
	"github.com/runger/ghexplorer/internal/provider"
	"github.com/runger/ghexplorer/internal/retry"
	"github.com/runger/ghexplorer/internal/store"
	"github.com/runger/ghexplorer/internal/telemetry"
)

// listingDoneMsg is the settlement of one page request.
type listingDoneMsg struct {
	gen     uint64
	tokenID string
	op      string
	parent  provider.Candidate
	page    int
	result  provider.Page
	err     error
	elapsed time.Duration
}

// listing fetches the selected candidate's repositories page by page.
// All methods run on the engine's event loop.
type listing struct {
	parent   context.Context
	prov     provider.Provider
	store    *store.Store
	policy   *retry.Policy
	reporter telemetry.Reporter
	logger   *slog.Logger
	timeout  time.Duration
	pageSize int
	auto     retry.Auto

	token    *envelope.Token
	gen      uint64
	selected *provider.Candidate
}

// selectCandidate resets the listing for c and requests page 1. Any page
// still in flight for the previous selection is cancelled first.
func (l *listing) selectCandidate(c provider.Candidate) tea.Cmd {
	l.cancelLive()
	l.gen++
	if l.selected == nil || l.selected.ID != c.ID {
		l.policy.Reset(retry.ActionSelectCandidate)
	}
	selected := c
	l.selected = &selected
	l.store.SelectCandidate(c)
	return l.fetch(1)
}

// nextPage requests the page after the last committed one. It is ignored
// while a page is in flight, without a selection, or when nothing is left.
// A failed page is only reissued through retryLast.
func (l *listing) nextPage() tea.Cmd {
	if l.selected == nil || l.token != nil {
		return nil
	}
	st := l.store.Snapshot().Listing
	if st.Status != store.StatusReady || !st.HasMore() {
		return nil
	}
	return l.fetch(st.Page + 1)
}

// retryLast reissues a failed page for the held selection if the manual
// policy allows. Pages already committed are kept and the fetch resumes
// after them; with nothing committed it starts over from page 1. Outside
// the failed state it does nothing.
func (l *listing) retryLast() tea.Cmd {
	if l.selected == nil {
		return nil
	}
	st := l.store.Snapshot().Listing
	if st.Status != store.StatusFailed {
		return nil
	}
	if ps := l.policy.Status(retry.ActionSelectCandidate); !ps.CanRetry {
		l.logger.Info("listing retry refused: max retries reached", "login", l.selected.DisplayName, "limit", ps.Limit)
		return nil
	}
	if len(st.Items) > 0 {
		return l.fetch(st.Page + 1)
	}
	return l.fetch(1)
}

// fetch starts a request for page, superseding anything in flight.
func (l *listing) fetch(page int) tea.Cmd {
	l.cancelLive()
	l.gen++
	parent := *l.selected
	tok := envelope.NewToken(l.parent, l.gen)
	l.token = tok
	l.store.BeginListing(parent.ID, page)

	prov, pageSize, timeout, auto := l.prov, l.pageSize, l.timeout, l.auto
	logger := l.logger
	op := fmt.Sprintf("fetchRepositories_%s_page%d", parent.DisplayName, page)
	auto.OnRetry = func(err error, next time.Duration) {
		logger.Debug("retrying page fetch", "op", op, "error", err, "next_ms", next.Milliseconds())
	}
	return func() tea.Msg {
		start := time.Now()
		res, err := retry.Do(tok.Context(), auto, func(ctx context.Context) (provider.Page, error) {
			return envelope.Call(ctx, timeout, func(ctx context.Context) (provider.Page, error) {
				return prov.ListByParent(ctx, parent, page, pageSize)
			})
		})
		return listingDoneMsg{
			gen:     tok.Generation,
			tokenID: tok.ID,
			op:      op,
			parent:  parent,
			page:    page,
			result:  res,
			err:     err,
			elapsed: time.Since(start),
		}
	}
}

// settle applies a page settlement from the current generation.
func (l *listing) settle(msg listingDoneMsg) {
	if msg.gen != l.gen {
		l.logger.Debug("stale listing settlement discarded", "op", msg.op, "gen", msg.gen, "current", l.gen)
		return
	}
	l.token = nil
	l.logger.Debug(msg.op, "elapsed_ms", msg.elapsed.Milliseconds(), "outcome", envelope.OutcomeOf(msg.err).String())

	switch envelope.OutcomeOf(msg.err) {
	case envelope.OutcomeSuccess:
		l.policy.Record(retry.ActionSelectCandidate, nil)
		l.store.CommitListingPage(msg.parent.ID, msg.page, msg.result.Items, msg.result.TotalCount)
	case envelope.OutcomeAborted:
	default:
		l.policy.Record(retry.ActionSelectCandidate, msg.err)
		l.store.FailListing(msg.parent.ID, failure.Message(msg.err))
		l.reporter.Report(telemetry.Error(telemetry.SeverityHigh, "fetch_repositories_failed", map[string]any{
			"login": msg.parent.DisplayName,
			"page":  msg.page,
			"kind":  failure.KindOf(msg.err).String(),
			"error": msg.err.Error(),
			"token": msg.tokenID,
		}))
	}
}

func (l *listing) cancelLive() {
	if l.token == nil {
		return
	}
	if !l.token.Cancelled() {
		l.reporter.Report(telemetry.Message(telemetry.SeverityLow, "fetch_repositories_abort", map[string]any{
			"token": l.token.ID,
			"gen":   l.token.Generation,
		}))
	}
	l.token.Cancel()
	l.token = nil
}

func (l *listing) stop() {
	l.cancelLive()
	l.gen++
}
