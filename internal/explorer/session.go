package explorer

import (
	"context"
	"errors"
	"io"
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/runger/ghexplorer/internal/provider"
	"github.com/runger/ghexplorer/internal/retry"
	"github.com/runger/ghexplorer/internal/store"
)

// ErrClosed is returned by Session methods after the event loop has exited.
var ErrClosed = errors.New("explorer session closed")

// intentMsg carries an intent into the loop and signals once it was handled.
type intentMsg struct {
	msg  tea.Msg
	done chan struct{}
}

type sessionModel struct {
	engine *Engine
}

func (m sessionModel) Init() tea.Cmd { return nil }

func (m sessionModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if in, ok := msg.(intentMsg); ok {
		cmd := m.engine.Handle(in.msg)
		close(in.done)
		if _, quit := in.msg.(ShutdownMsg); quit {
			return m, tea.Quit
		}
		return m, cmd
	}
	return m, m.engine.Handle(msg)
}

func (m sessionModel) View() string { return "" }

// Session runs an Engine on a headless bubbletea program so that callers
// outside the loop (CLI commands, scripts, tests) can drive it.
type Session struct {
	engine  *Engine
	store   *store.Store
	program *tea.Program

	exited chan struct{}
	runErr error

	closeOnce sync.Once
	closeErr  error
}

// NewSession starts the event loop. Cancelling ctx kills the loop and every
// request it owns.
func NewSession(ctx context.Context, cfg Config) *Session {
	if cfg.Context == nil {
		cfg.Context = ctx
	}
	e := NewEngine(cfg)
	p := tea.NewProgram(sessionModel{engine: e},
		tea.WithContext(ctx),
		tea.WithInput(nil),
		tea.WithOutput(io.Discard),
		tea.WithoutRenderer(),
		tea.WithoutSignalHandler(),
	)
	s := &Session{
		engine:  e,
		store:   e.Store(),
		program: p,
		exited:  make(chan struct{}),
	}
	go func() {
		defer close(s.exited)
		_, s.runErr = p.Run()
	}()
	return s
}

func (s *Session) send(msg tea.Msg) error {
	select {
	case <-s.exited:
		return ErrClosed
	default:
	}
	done := make(chan struct{})
	s.program.Send(intentMsg{msg: msg, done: done})
	select {
	case <-done:
		return nil
	case <-s.exited:
		return ErrClosed
	}
}

// SubmitQueryText feeds input text to the query orchestrator.
func (s *Session) SubmitQueryText(text string) error {
	return s.send(SubmitQueryMsg{Text: text})
}

// SelectCandidate selects c and starts loading its repositories.
func (s *Session) SelectCandidate(c provider.Candidate) error {
	return s.send(SelectCandidateMsg{Candidate: c})
}

// RequestNextPage asks for the next page of the current selection.
func (s *Session) RequestNextPage() error {
	return s.send(NextPageMsg{})
}

// RetryLastQuery reissues the held query if retries remain.
func (s *Session) RetryLastQuery() error {
	return s.send(RetryQueryMsg{})
}

// RetryLastSelection reissues the held selection's listing if retries remain.
func (s *Session) RetryLastSelection() error {
	return s.send(RetrySelectionMsg{})
}

// Snapshot returns the current state.
func (s *Session) Snapshot() store.Snapshot {
	return s.store.Snapshot()
}

// Subscribe registers fn for every state change.
func (s *Session) Subscribe(fn func(store.Snapshot)) (unsubscribe func()) {
	return s.store.Subscribe(fn)
}

// RetryStatus reports the manual retry counter for action.
func (s *Session) RetryStatus(action string) retry.Status {
	return s.engine.RetryStatus(action)
}

// Wait blocks until pred holds for the current state, ctx is done or the
// session exits. It returns the first snapshot that satisfied pred.
func (s *Session) Wait(ctx context.Context, pred func(store.Snapshot) bool) (store.Snapshot, error) {
	matched := make(chan store.Snapshot, 1)
	unsubscribe := s.store.Subscribe(func(snap store.Snapshot) {
		if pred(snap) {
			select {
			case matched <- snap:
			default:
			}
		}
	})
	defer unsubscribe()

	if snap := s.store.Snapshot(); pred(snap) {
		return snap, nil
	}
	select {
	case snap := <-matched:
		return snap, nil
	case <-ctx.Done():
		return s.store.Snapshot(), ctx.Err()
	case <-s.exited:
		return s.store.Snapshot(), ErrClosed
	}
}

// WaitIdle waits until nothing is pending.
func (s *Session) WaitIdle(ctx context.Context) (store.Snapshot, error) {
	return s.Wait(ctx, Idle)
}

// Close cancels in-flight work and stops the loop. It is safe to call more
// than once.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		if err := s.send(ShutdownMsg{}); err != nil {
			s.program.Quit()
		}
		<-s.exited
		if s.runErr != nil && !errors.Is(s.runErr, tea.ErrProgramKilled) {
			s.closeErr = s.runErr
		}
	})
	return s.closeErr
}
