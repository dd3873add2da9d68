// Package explorer is the query orchestration core: it turns keystrokes
// into debounced, cancellable user searches and fetches the selected user's
// repositories page by page, writing every transition to a shared store.
//
// Both orchestrators live on one bubbletea event loop. Timers and network
// calls run as tea.Cmds and come back as messages tagged with the
// generation that issued them; a settlement whose generation is no longer
// current is dropped.
package explorer

import (
	"context"
	"log/slog"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/runger/ghexplorer/internal/debounce"
	"github.com/runger/ghexplorer/internal/provider"
	"github.com/runger/ghexplorer/internal/retry"
	"github.com/runger/ghexplorer/internal/store"
	"github.com/runger/ghexplorer/internal/telemetry"
)

// Defaults.
const (
	DefaultSearchTimeout  = 10 * time.Second
	DefaultListingTimeout = 5 * time.Second
)

// Intent messages accepted by the engine.
type (
	SubmitQueryMsg     struct{ Text string }
	SelectCandidateMsg struct{ Candidate provider.Candidate }
	NextPageMsg        struct{}
	RetryQueryMsg      struct{}
	RetrySelectionMsg  struct{}
	// ShutdownMsg cancels everything in flight and stops the debounce gate.
	ShutdownMsg struct{}
)

// Config holds the engine's collaborators and tunables.
type Config struct {
	Provider provider.Provider
	Store    *store.Store

	// Context is the parent of every request token. Default: Background.
	Context context.Context

	// Debounce is the search quiet period. Default: 500ms
	Debounce time.Duration
	// SearchTimeout bounds one search call. Default: 10s
	SearchTimeout time.Duration
	// SearchLimit is the number of candidates requested. Default: 5
	SearchLimit int
	// ListingTimeout bounds each page attempt. Default: 5s
	ListingTimeout time.Duration
	// PageSize is the listing page size. Default: the store's page size.
	PageSize int
	// AutoRetry configures background page retries. Zero value means
	// retry.DefaultAuto().
	AutoRetry *retry.Auto
	// RetryLimit is the manual retry limit per action. Default: 3
	RetryLimit int
	// ListingRetryLimit overrides RetryLimit for the selection action.
	ListingRetryLimit int
	// OnExhausted is called once when a manual retry limit is reached.
	OnExhausted func(action string)

	Reporter telemetry.Reporter
	Logger   *slog.Logger
}

// Engine hosts both orchestrators. It is a tea.Model so it can run as its
// own program, and its Handle method can be called from an enclosing
// model's Update. It must only be used from one event loop.
type Engine struct {
	store   *store.Store
	policy  *retry.Policy
	search  *search
	listing *listing
	logger  *slog.Logger
	stopped bool
}

// NewEngine wires the orchestrators.
func NewEngine(cfg Config) *Engine {
	parent := cfg.Context
	if parent == nil {
		parent = context.Background()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "explorer")
	reporter := cfg.Reporter
	if reporter == nil {
		reporter = telemetry.Nop{}
	}
	st := cfg.Store
	if st == nil {
		st = store.New(cfg.PageSize)
	}
	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = st.Snapshot().Listing.PageSize
	}
	searchTimeout := cfg.SearchTimeout
	if searchTimeout <= 0 {
		searchTimeout = DefaultSearchTimeout
	}
	listingTimeout := cfg.ListingTimeout
	if listingTimeout <= 0 {
		listingTimeout = DefaultListingTimeout
	}
	limit := cfg.SearchLimit
	if limit <= 0 {
		limit = provider.DefaultSearchLimit
	}
	auto := retry.DefaultAuto()
	if cfg.AutoRetry != nil {
		auto = *cfg.AutoRetry
	}

	var onExhausted func(string, error)
	if cfg.OnExhausted != nil {
		onExhausted = func(action string, _ error) { cfg.OnExhausted(action) }
	}
	policy := retry.NewPolicy(&retry.PolicyConfig{
		Limit:       cfg.RetryLimit,
		Limits:      map[string]int{retry.ActionSelectCandidate: cfg.ListingRetryLimit},
		OnExhausted: onExhausted,
		Logger:      logger,
		Reporter:    reporter,
	})

	return &Engine{
		store:  st,
		policy: policy,
		logger: logger,
		search: &search{
			parent:   parent,
			prov:     cfg.Provider,
			store:    st,
			policy:   policy,
			reporter: reporter,
			logger:   logger,
			timeout:  searchTimeout,
			limit:    limit,
			gate:     debounce.New(cfg.Debounce),
		},
		listing: &listing{
			parent:   parent,
			prov:     cfg.Provider,
			store:    st,
			policy:   policy,
			reporter: reporter,
			logger:   logger,
			timeout:  listingTimeout,
			pageSize: pageSize,
			auto:     auto,
		},
	}
}

// Store returns the engine's state store.
func (e *Engine) Store() *store.Store { return e.store }

// RetryStatus reports the manual retry counter for action.
func (e *Engine) RetryStatus(action string) retry.Status {
	return e.policy.Status(action)
}

// SubmitQuery feeds new input text.
func (e *Engine) SubmitQuery(text string) tea.Cmd { return e.Handle(SubmitQueryMsg{Text: text}) }

// SelectCandidate selects c and loads its first page.
func (e *Engine) SelectCandidate(c provider.Candidate) tea.Cmd {
	return e.Handle(SelectCandidateMsg{Candidate: c})
}

// RequestNextPage loads the next page of the current selection.
func (e *Engine) RequestNextPage() tea.Cmd { return e.Handle(NextPageMsg{}) }

// RetryLastQuery reissues the held query.
func (e *Engine) RetryLastQuery() tea.Cmd { return e.Handle(RetryQueryMsg{}) }

// RetryLastSelection reissues the listing for the held selection.
func (e *Engine) RetryLastSelection() tea.Cmd { return e.Handle(RetrySelectionMsg{}) }

// Shutdown cancels in-flight work; nothing fires afterwards.
func (e *Engine) Shutdown() { e.Handle(ShutdownMsg{}) }

// Handle routes one message. Messages the engine does not own are ignored.
func (e *Engine) Handle(msg tea.Msg) tea.Cmd {
	if e.stopped {
		return nil
	}
	switch msg := msg.(type) {
	case SubmitQueryMsg:
		return e.search.submit(msg.Text)
	case debounce.FireMsg:
		return e.search.fire(msg)
	case searchDoneMsg:
		e.search.settle(msg)
	case RetryQueryMsg:
		return e.search.retryLast()

	case SelectCandidateMsg:
		return e.listing.selectCandidate(msg.Candidate)
	case NextPageMsg:
		return e.listing.nextPage()
	case RetrySelectionMsg:
		return e.listing.retryLast()
	case listingDoneMsg:
		e.listing.settle(msg)

	case ShutdownMsg:
		e.stopped = true
		e.search.stop()
		e.listing.stop()
		e.logger.Debug("engine stopped")
	}
	return nil
}

// Init implements tea.Model.
func (e *Engine) Init() tea.Cmd { return nil }

// Update implements tea.Model.
func (e *Engine) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	return e, e.Handle(msg)
}

// View implements tea.Model. The engine renders nothing itself.
func (e *Engine) View() string { return "" }

// Idle reports whether neither orchestrator has work pending.
func Idle(s store.Snapshot) bool {
	return s.Query.Status != store.StatusPending && s.Listing.Status != store.StatusPending
}

var _ tea.Model = (*Engine)(nil)
