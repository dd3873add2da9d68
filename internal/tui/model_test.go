package tui

import (
	"context"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runger/ghexplorer/internal/explorer"
	"github.com/runger/ghexplorer/internal/logging"
	"github.com/runger/ghexplorer/internal/provider"
	"github.com/runger/ghexplorer/internal/retry"
	"github.com/runger/ghexplorer/internal/store"
)

// countingProvider counts searches so tests can observe debouncing.
type countingProvider struct {
	*provider.Fixture
	searches atomic.Int32
}

func (p *countingProvider) SearchByText(ctx context.Context, q string, limit int) ([]provider.Candidate, error) {
	p.searches.Add(1)
	return p.Fixture.SearchByText(ctx, q, limit)
}

func newTestModel(t *testing.T) (Model, *countingProvider) {
	t.Helper()
	var repos []provider.Item
	for i := 0; i < 7; i++ {
		repos = append(repos, provider.Item{ID: int64(100 + i), Name: "repo" + string(rune('a'+i)), StarCount: i})
	}
	p := &countingProvider{Fixture: provider.NewFixture(provider.FixtureData{
		FailQueries: []string{"boom"},
		Users: []provider.FixtureUser{
			{Candidate: provider.Candidate{ID: 1, DisplayName: "octocat"}, Repos: repos},
			{Candidate: provider.Candidate{ID: 2, DisplayName: "octodog"}},
			{Candidate: provider.Candidate{ID: 3, DisplayName: "evil\x1b]0;pwned\x07cat"}},
		},
	})}
	e := explorer.NewEngine(explorer.Config{
		Provider:  p,
		Store:     store.New(5),
		PageSize:  5,
		Debounce:  time.Millisecond,
		AutoRetry: &retry.Auto{},
		Logger:    logging.Discard(),
	})
	m := NewModel(e)
	m.width = 80
	m.height = 24
	return m, p
}

// runWithin runs cmd, dropping messages that take longer than d (cursor blink).
func runWithin(cmd tea.Cmd, d time.Duration) tea.Msg {
	ch := make(chan tea.Msg, 1)
	go func() { ch <- cmd() }()
	select {
	case msg := <-ch:
		return msg
	case <-time.After(d):
		return nil
	}
}

// drive executes cmd and every command it leads to, feeding messages back
// into the model, until nothing is left.
func drive(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	queue := []tea.Cmd{cmd}
	for steps := 0; len(queue) > 0; steps++ {
		require.Less(t, steps, 500, "command loop did not settle")
		c := queue[0]
		queue = queue[1:]
		if c == nil {
			continue
		}
		switch msg := runWithin(c, 300*time.Millisecond).(type) {
		case nil, spinner.TickMsg, tea.QuitMsg:
		case tea.BatchMsg:
			queue = append(queue, msg...)
		default:
			next, nc := m.Update(msg)
			m = next.(Model)
			queue = append(queue, nc)
		}
	}
	return m
}

func press(t *testing.T, m Model, msg tea.KeyMsg) Model {
	t.Helper()
	next, cmd := m.Update(msg)
	return drive(t, next.(Model), cmd)
}

func typeText(t *testing.T, m Model, s string) Model {
	t.Helper()
	var cmds []tea.Cmd
	for _, r := range s {
		next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
		m = next.(Model)
		cmds = append(cmds, cmd)
	}
	return drive(t, m, tea.Batch(cmds...))
}

var (
	keyEnter = tea.KeyMsg{Type: tea.KeyEnter}
	keyDown  = tea.KeyMsg{Type: tea.KeyDown}
	keyEsc   = tea.KeyMsg{Type: tea.KeyEsc}
	keyRetry = tea.KeyMsg{Type: tea.KeyCtrlR}
)

func TestModel_TypingIsDebounced(t *testing.T) {
	t.Parallel()

	m, p := newTestModel(t)
	m = typeText(t, m, "octo")

	snap := m.snapshot()
	assert.Equal(t, "octo", snap.Query.Text)
	assert.Equal(t, store.StatusReady, snap.Query.Status)
	assert.Len(t, snap.Query.Results, 2)
	assert.Equal(t, int32(1), p.searches.Load(), "one search for a burst of keystrokes")

	view := m.View()
	assert.Contains(t, view, "octocat")
	assert.Contains(t, view, "octodog")
}

func TestModel_SelectLoadsRepositories(t *testing.T) {
	t.Parallel()

	m, _ := newTestModel(t)
	m = typeText(t, m, "octocat")
	m = press(t, m, keyEnter) // focus results
	assert.Equal(t, paneResults, m.focus)
	m = press(t, m, keyEnter) // select

	assert.Equal(t, paneRepos, m.focus)
	snap := m.snapshot()
	require.NotNil(t, snap.Query.Selected)
	assert.Len(t, snap.Listing.Items, 5)

	view := m.View()
	assert.Contains(t, view, "octocat  5/7")
	assert.Contains(t, view, "repoa")
	assert.Contains(t, view, "more")
}

func TestModel_ScrollPastEndRequestsNextPage(t *testing.T) {
	t.Parallel()

	m, _ := newTestModel(t)
	m = typeText(t, m, "octocat")
	m = press(t, m, keyEnter)
	m = press(t, m, keyEnter)

	for i := 0; i < 5; i++ {
		m = press(t, m, keyDown)
	}

	snap := m.snapshot()
	assert.Len(t, snap.Listing.Items, 7)
	assert.False(t, snap.Listing.HasMore())
	assert.Equal(t, 2, snap.Listing.Page)
}

func TestModel_FailureShowsRetryAffordance(t *testing.T) {
	t.Parallel()

	m, _ := newTestModel(t)
	m = typeText(t, m, "boom")

	assert.Equal(t, store.StatusFailed, m.snapshot().Query.Status)
	assert.Contains(t, m.View(), "retry (2 left)")

	m = press(t, m, keyRetry)
	assert.Contains(t, m.View(), "retry (1 left)")

	m = press(t, m, keyRetry)
	assert.Contains(t, m.View(), "max retries reached")

	// Exhausted: further retries do nothing.
	m = press(t, m, keyRetry)
	assert.Equal(t, 3, m.engine.RetryStatus(retry.ActionSearchQuery).Attempts)
}

func TestModel_RemoteTextIsSanitized(t *testing.T) {
	t.Parallel()

	m, _ := newTestModel(t)
	m = typeText(t, m, "cat")

	view := m.View()
	assert.Contains(t, view, "evilcat")
	assert.NotContains(t, view, "pwned")
	assert.False(t, strings.Contains(view, "\x07"))
}

func TestModel_EscQuitsFromInput(t *testing.T) {
	t.Parallel()

	m, _ := newTestModel(t)
	next, cmd := m.Update(keyEsc)
	m = next.(Model)

	assert.True(t, m.Quitting())
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.Nil(t, m.engine.SubmitQuery("octo"), "engine is stopped after quit")
	assert.Empty(t, m.View())
}

func TestModel_EscStepsBackFromResults(t *testing.T) {
	t.Parallel()

	m, _ := newTestModel(t)
	m = typeText(t, m, "octo")
	m = press(t, m, keyDown)
	assert.Equal(t, paneResults, m.focus)

	m = press(t, m, keyEsc)
	assert.Equal(t, paneInput, m.focus)
	assert.False(t, m.Quitting())
}

func TestModel_ClearingInputResetsResults(t *testing.T) {
	t.Parallel()

	m, _ := newTestModel(t)
	m = typeText(t, m, "oc")
	require.NotEmpty(t, m.snapshot().Query.Results)

	m = press(t, m, tea.KeyMsg{Type: tea.KeyBackspace})
	m = press(t, m, tea.KeyMsg{Type: tea.KeyBackspace})

	snap := m.snapshot()
	assert.Equal(t, store.StatusIdle, snap.Query.Status)
	assert.Empty(t, snap.Query.Results)
	assert.Contains(t, m.View(), "Type to search")
}

func TestModel_WithQuerySubmitsOnInit(t *testing.T) {
	t.Parallel()

	m, p := newTestModel(t)
	m = m.WithQuery("octodog")
	m = drive(t, m, m.Init())

	assert.Equal(t, int32(1), p.searches.Load())
	assert.Equal(t, "octodog", m.snapshot().Query.Text)
}
