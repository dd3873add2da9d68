package explorer

import (
	"context"
	"log/slog"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/runger/ghexplorer/internal/debounce"
	"github.com/runger/ghexplorer/internal/envelope"
	"github.com/runger/ghexplorer/internal/failure"
	"github.com/runger/ghexplorer/internal/provider"
	"github.com/runger/ghexplorer/internal/retry"
	"github.com/runger/ghexplorer/internal/store"
	"github.com/runger/ghexplorer/internal/telemetry"
)

// MaxQueryBytes caps the query text handed to the provider.
const MaxQueryBytes = 256

// searchDoneMsg is the settlement of one search request.
type searchDoneMsg struct {
	gen     uint64
	tokenID string
	text    string
	results []provider.Candidate
	err     error
	elapsed time.Duration
}

// search drives Idle -> Pending -> Ready|Failed for the query side.
// All methods run on the engine's event loop.
type search struct {
	parent   context.Context
	prov     provider.Provider
	store    *store.Store
	policy   *retry.Policy
	reporter telemetry.Reporter
	logger   *slog.Logger
	timeout  time.Duration
	limit    int

	gate  *debounce.Gate
	token *envelope.Token
	gen   uint64
	text  string // query currently held by the orchestrator
}

// submit handles new input text. Blank text clears the results at once;
// anything else enters Pending and (re)arms the debounce gate.
func (s *search) submit(raw string) tea.Cmd {
	text := SanitizeQuery(raw)
	if text != s.text {
		s.policy.Reset(retry.ActionSearchQuery)
	}

	cmd, blank := s.gate.Trigger(text)
	if blank {
		s.cancelLive()
		s.gen++
		s.text = ""
		s.store.ClearQuery()
		return nil
	}
	if cmd == nil {
		return nil // gate stopped
	}
	// Newer input supersedes whatever is in flight; the gate only decides
	// when the replacement request goes out.
	s.cancelLive()
	s.gen++
	s.text = text
	s.store.BeginQuery(text)
	return cmd
}

// fire handles an expired debounce timer.
func (s *search) fire(msg debounce.FireMsg) tea.Cmd {
	text, ok := s.gate.Accept(msg)
	if !ok {
		return nil
	}
	return s.issue(text)
}

// retryLast reissues the held query right away if the manual policy allows.
func (s *search) retryLast() tea.Cmd {
	if s.text == "" {
		return nil
	}
	if st := s.policy.Status(retry.ActionSearchQuery); !st.CanRetry {
		s.logger.Info("search retry refused: max retries reached", "query", s.text, "limit", st.Limit)
		return nil
	}
	s.gate.Cancel()
	return s.issue(s.text)
}

// issue cancels the live request and starts a new one for text.
func (s *search) issue(text string) tea.Cmd {
	s.cancelLive()
	s.gen++
	tok := envelope.NewToken(s.parent, s.gen)
	s.token = tok
	s.store.BeginQuery(text)

	prov, limit, timeout := s.prov, s.limit, s.timeout
	s.logger.Debug("search issued", "query", text, "gen", tok.Generation, "token", tok.ID)
	return func() tea.Msg {
		start := time.Now()
		results, err := envelope.Call(tok.Context(), timeout, func(ctx context.Context) ([]provider.Candidate, error) {
			return prov.SearchByText(ctx, text, limit)
		})
		return searchDoneMsg{
			gen:     tok.Generation,
			tokenID: tok.ID,
			text:    text,
			results: results,
			err:     err,
			elapsed: time.Since(start),
		}
	}
}

// settle applies a search settlement. Only the current generation may
// touch the store; aborted settlements never do.
func (s *search) settle(msg searchDoneMsg) {
	if msg.gen != s.gen {
		s.logger.Debug("stale search settlement discarded", "query", msg.text, "gen", msg.gen, "current", s.gen)
		return
	}
	s.token = nil
	s.logger.Debug("searchUsers", "query", msg.text, "elapsed_ms", msg.elapsed.Milliseconds())

	switch envelope.OutcomeOf(msg.err) {
	case envelope.OutcomeSuccess:
		s.policy.Record(retry.ActionSearchQuery, nil)
		s.store.CommitQuery(msg.text, msg.results)
	case envelope.OutcomeAborted:
		// Cancelled on purpose: the state is owned by whatever replaced it.
	default:
		s.policy.Record(retry.ActionSearchQuery, msg.err)
		s.store.FailQuery(msg.text, failure.Message(msg.err))
		s.reporter.Report(telemetry.Error(telemetry.SeverityMedium, "search_users_failed", map[string]any{
			"query": msg.text,
			"kind":  failure.KindOf(msg.err).String(),
			"error": msg.err.Error(),
			"token": msg.tokenID,
		}))
	}
}

// cancelLive aborts the in-flight request, if any.
func (s *search) cancelLive() {
	if s.token == nil {
		return
	}
	if !s.token.Cancelled() {
		s.reporter.Report(telemetry.Message(telemetry.SeverityLow, "search_users_abort", map[string]any{
			"token": s.token.ID,
			"gen":   s.token.Generation,
		}))
	}
	s.token.Cancel()
	s.token = nil
}

func (s *search) stop() {
	s.gate.Stop()
	s.cancelLive()
	s.gen++
}

// SanitizeQuery strips control characters and surrounding whitespace and
// caps the result at MaxQueryBytes without splitting a rune.
func SanitizeQuery(raw string) string {
	if !utf8.ValidString(raw) {
		raw = strings.ToValidUTF8(raw, "")
	}
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		if unicode.IsControl(r) {
			if r == '\t' || r == '\n' || r == '\r' {
				b.WriteRune(' ')
			}
			continue
		}
		b.WriteRune(r)
	}
	out := strings.TrimSpace(b.String())
	if len(out) <= MaxQueryBytes {
		return out
	}
	cut := MaxQueryBytes
	for cut > 0 && !utf8.RuneStart(out[cut]) {
		cut--
	}
	return strings.TrimSpace(out[:cut])
}
