// Package tui is the interactive front end: a query line, the candidate
// list and the selected user's repositories, all rendered from the store
// the explorer engine writes to.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/runger/ghexplorer/internal/explorer"
	"github.com/runger/ghexplorer/internal/retry"
	"github.com/runger/ghexplorer/internal/store"
)

// pane is the part of the screen that receives navigation keys.
type pane int

const (
	paneInput pane = iota
	paneResults
	paneRepos
)

// Model is the Bubble Tea model for the explorer TUI. The engine runs on the
// same loop: every message the model does not consume is handed to it.
type Model struct {
	engine  *explorer.Engine
	input   textinput.Model
	spinner spinner.Model

	focus      pane
	cursor     int // Index into the candidate list
	repoCursor int // Index into the repository list
	repoOffset int // First visible repository row

	width  int
	height int

	quitting bool
}

// NewModel creates a Model driving engine.
func NewModel(engine *explorer.Engine) Model {
	ti := textinput.New()
	ti.Placeholder = "search GitHub users"
	ti.Prompt = "> "
	ti.CharLimit = explorer.MaxQueryBytes
	ti.PromptStyle = queryStyle
	ti.Focus()

	sp := spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(dimStyle))

	return Model{
		engine:  engine,
		input:   ti,
		spinner: sp,
		focus:   paneInput,
	}
}

// WithQuery pre-fills the query line and submits it on Init.
func (m Model) WithQuery(q string) Model {
	m.input.SetValue(q)
	m.input.CursorEnd()
	return m
}

// Quitting reports whether the user asked to leave.
func (m Model) Quitting() bool {
	return m.quitting
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{textinput.Blink, m.spinner.Tick}
	if q := m.input.Value(); q != "" {
		cmds = append(cmds, m.engine.SubmitQuery(q))
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.input.Width = max(msg.Width-4, 10)
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	// Cursor blink and engine settlements both arrive here.
	var inputCmd tea.Cmd
	m.input, inputCmd = m.input.Update(msg)
	cmd := m.engine.Handle(msg)
	m.clamp()
	return m, tea.Batch(inputCmd, cmd)
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Quit):
		return m.quit()

	case key.Matches(msg, keys.Back):
		if m.focus == paneInput {
			return m.quit()
		}
		m.focus--
		return m.syncFocus(), nil

	case key.Matches(msg, keys.Next):
		m.focus = (m.focus + 1) % 3
		if m.focus == paneRepos && m.snapshot().Query.Selected == nil {
			m.focus = paneInput
		}
		return m.syncFocus(), nil

	case key.Matches(msg, keys.Retry):
		return m, m.retry()
	}

	switch m.focus {
	case paneResults:
		return m.handleResultsKey(msg)
	case paneRepos:
		return m.handleReposKey(msg)
	default:
		return m.handleInputKey(msg)
	}
}

func (m Model) handleInputKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, keys.Down, keys.Select) {
		if len(m.snapshot().Query.Results) > 0 {
			m.focus = paneResults
			return m.syncFocus(), nil
		}
		return m, nil
	}

	before := m.input.Value()
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if after := m.input.Value(); after != before {
		m.cursor = 0
		return m, tea.Batch(cmd, m.engine.SubmitQuery(after))
	}
	return m, cmd
}

func (m Model) handleResultsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	results := m.snapshot().Query.Results
	switch {
	case key.Matches(msg, keys.Up):
		if m.cursor > 0 {
			m.cursor--
		} else {
			m.focus = paneInput
			return m.syncFocus(), nil
		}
	case key.Matches(msg, keys.Down):
		if m.cursor < len(results)-1 {
			m.cursor++
		}
	case key.Matches(msg, keys.Select):
		if m.cursor < len(results) {
			m.focus = paneRepos
			m.repoCursor, m.repoOffset = 0, 0
			return m.syncFocus(), m.engine.SelectCandidate(results[m.cursor])
		}
	case key.Matches(msg, keys.Search):
		m.focus = paneInput
		return m.syncFocus(), nil
	}
	return m, nil
}

func (m Model) handleReposKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	listing := m.snapshot().Listing
	switch {
	case key.Matches(msg, keys.Up):
		if m.repoCursor > 0 {
			m.repoCursor--
		}
	case key.Matches(msg, keys.Down):
		if m.repoCursor < len(listing.Items)-1 {
			m.repoCursor++
		} else if listing.HasMore() {
			return m.scroll(), m.engine.RequestNextPage()
		}
	case key.Matches(msg, keys.More):
		m.repoCursor = max(len(listing.Items)-1, 0)
		return m.scroll(), m.engine.RequestNextPage()
	case key.Matches(msg, keys.Search):
		m.focus = paneInput
		return m.syncFocus(), nil
	}
	return m.scroll(), nil
}

// retry reissues whichever side failed, the query first.
func (m Model) retry() tea.Cmd {
	snap := m.snapshot()
	switch {
	case snap.Query.Status == store.StatusFailed:
		return m.engine.RetryLastQuery()
	case snap.Listing.Status == store.StatusFailed:
		return m.engine.RetryLastSelection()
	}
	return nil
}

func (m Model) quit() (tea.Model, tea.Cmd) {
	m.quitting = true
	m.engine.Shutdown()
	return m, tea.Quit
}

func (m Model) syncFocus() Model {
	if m.focus == paneInput {
		m.input.Focus()
	} else {
		m.input.Blur()
	}
	return m
}

// clamp keeps cursors inside the lists after the store changed under them.
func (m *Model) clamp() {
	snap := m.snapshot()
	if n := len(snap.Query.Results); m.cursor >= n {
		m.cursor = max(n-1, 0)
	}
	if n := len(snap.Listing.Items); m.repoCursor >= n {
		m.repoCursor = max(n-1, 0)
	}
	if m.focus == paneResults && len(snap.Query.Results) == 0 {
		m.focus = paneInput
		m.input.Focus()
	}
}

// scroll keeps the repository cursor inside the visible window.
func (m Model) scroll() Model {
	h := m.repoRows()
	if m.repoCursor < m.repoOffset {
		m.repoOffset = m.repoCursor
	}
	if m.repoCursor >= m.repoOffset+h {
		m.repoOffset = m.repoCursor - h + 1
	}
	return m
}

func (m Model) snapshot() store.Snapshot {
	return m.engine.Store().Snapshot()
}

// repoRows is the number of repository rows that fit on screen.
func (m Model) repoRows() int {
	// query, results block, listing header, status, help
	chrome := 4 + resultsHeight
	h := m.height - chrome
	if h < 3 {
		h = 10 // Sensible default before first WindowSizeMsg
	}
	return h
}

// resultsHeight is the number of rows reserved for the candidate list.
const resultsHeight = 6

func (m Model) retryHint(action string) string {
	st := m.engine.RetryStatus(action)
	if !st.CanRetry {
		return retry.ErrExhausted.Error()
	}
	return fmt.Sprintf("retry (%d left)", st.Remaining)
}

func (m Model) helpLine() string {
	parts := make([]string, 0, len(keys.help()))
	for _, b := range keys.help() {
		h := b.Help()
		parts = append(parts, h.Key+" "+h.Desc)
	}
	return strings.Join(parts, " · ")
}
