package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/runger/ghexplorer/internal/provider"
	"github.com/runger/ghexplorer/internal/retry"
	"github.com/runger/ghexplorer/internal/sanitize"
	"github.com/runger/ghexplorer/internal/store"
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15")).Background(lipgloss.Color("62")).Padding(0, 1)
	selectedStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15"))
	normalStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	queryStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	retryStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Underline(true)
	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	starStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
)

// View implements tea.Model.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	snap := m.snapshot()

	var b strings.Builder
	b.WriteString(m.input.View())
	if snap.Query.Status == store.StatusPending {
		b.WriteString(" " + m.spinner.View())
	}
	b.WriteRune('\n')

	b.WriteString(m.viewQuery(snap.Query))
	b.WriteRune('\n')

	if snap.Query.Selected != nil {
		b.WriteString(m.viewListing(*snap.Query.Selected, snap.Listing))
		b.WriteRune('\n')
	}

	b.WriteString(dimStyle.Render(m.helpLine()))
	return b.String()
}

func (m Model) viewQuery(q store.QueryState) string {
	switch q.Status {
	case store.StatusIdle:
		return dimStyle.Render("Type to search")
	case store.StatusFailed:
		return m.viewFailure(q.ErrorMessage, retry.ActionSearchQuery)
	case store.StatusPending:
		if len(q.Results) == 0 {
			return dimStyle.Render("Searching...")
		}
	}
	if len(q.Results) == 0 {
		return dimStyle.Render("No matches")
	}

	var b strings.Builder
	for i, c := range q.Results {
		if i >= resultsHeight {
			break
		}
		line := m.fit(sanitize.Clean(c.DisplayName), 2)
		marker := "  "
		if q.Selected != nil && q.Selected.ID == c.ID {
			marker = "* "
		}
		if m.focus == paneResults && i == m.cursor {
			b.WriteString(selectedStyle.Render("> " + line))
		} else {
			b.WriteString(normalStyle.Render(marker + line))
		}
		if i < len(q.Results)-1 && i < resultsHeight-1 {
			b.WriteRune('\n')
		}
	}
	return b.String()
}

func (m Model) viewListing(owner provider.Candidate, l store.ListingState) string {
	var b strings.Builder

	header := fmt.Sprintf("%s  %d/%d", sanitize.Clean(owner.DisplayName), len(l.Items), l.TotalCount)
	b.WriteString(titleStyle.Render(header))
	if l.Status == store.StatusPending {
		b.WriteString(" " + m.spinner.View())
	}
	b.WriteRune('\n')

	if l.Status == store.StatusFailed {
		b.WriteString(m.viewFailure(l.ErrorMessage, retry.ActionSelectCandidate))
		b.WriteRune('\n')
	}
	if len(l.Items) == 0 {
		if l.Status == store.StatusReady {
			b.WriteString(dimStyle.Render("No repositories"))
		}
		return strings.TrimRight(b.String(), "\n")
	}

	end := min(m.repoOffset+m.repoRows(), len(l.Items))
	for i := m.repoOffset; i < end; i++ {
		line := m.repoLine(l.Items[i])
		if m.focus == paneRepos && i == m.repoCursor {
			b.WriteString(selectedStyle.Render("> ") + line)
		} else {
			b.WriteString("  " + line)
		}
		if i < end-1 {
			b.WriteRune('\n')
		}
	}
	if l.HasMore() && l.Status != store.StatusPending {
		b.WriteRune('\n')
		b.WriteString(dimStyle.Render("  ↓ more"))
	}
	return b.String()
}

func (m Model) repoLine(it provider.Item) string {
	lang := ""
	if it.PrimaryLanguage != nil {
		lang = sanitize.Clean(*it.PrimaryLanguage)
	}
	meta := fmt.Sprintf("★ %d", it.StarCount)
	if lang != "" {
		meta += "  " + lang
	}
	name := m.fit(sanitize.Clean(it.Name), 2+len(meta)+2)
	return normalStyle.Render(name) + "  " + starStyle.Render(meta)
}

func (m Model) viewFailure(message, action string) string {
	return errorStyle.Render(sanitize.Clean(message)) + "  " + retryStyle.Render(m.retryHint(action))
}

// fit truncates s so that it fits the terminal width after reserved columns.
func (m Model) fit(s string, reserved int) string {
	if m.width <= 0 {
		return s
	}
	return sanitize.MiddleTruncate(s, max(m.width-reserved, 1))
}
