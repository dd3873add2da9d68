// Package debounce coalesces a burst of trigger values into a single
// downstream firing after a quiet period.
//
// The gate is driven from a bubbletea event loop: Trigger hands back a
// tea.Tick command and the loop feeds the resulting FireMsg to Accept. Only
// the most recently armed timer is ever accepted.
package debounce

import (
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// DefaultQuiet is the quiet period used when none is configured.
const DefaultQuiet = 500 * time.Millisecond

// FireMsg is delivered when a debounce timer expires.
type FireMsg struct {
	ID    uint64
	Value string
}

// Gate is not safe for concurrent use; it belongs to a single event loop.
type Gate struct {
	quiet   time.Duration
	id      uint64
	armed   bool
	stopped bool
}

// New returns a gate with the given quiet period. Non-positive values fall
// back to DefaultQuiet.
func New(quiet time.Duration) *Gate {
	if quiet <= 0 {
		quiet = DefaultQuiet
	}
	return &Gate{quiet: quiet}
}

// Quiet returns the configured quiet period.
func (g *Gate) Quiet() time.Duration {
	return g.quiet
}

// Trigger restarts the quiet period with value. A blank value disarms the
// gate and reports blank=true without arming a timer.
func (g *Gate) Trigger(value string) (cmd tea.Cmd, blank bool) {
	if strings.TrimSpace(value) == "" {
		g.Cancel()
		return nil, true
	}
	if g.stopped {
		return nil, false
	}
	g.id++
	g.armed = true
	id := g.id
	return tea.Tick(g.quiet, func(time.Time) tea.Msg {
		return FireMsg{ID: id, Value: value}
	}), false
}

// Accept reports whether msg belongs to the currently armed timer. On true
// the gate disarms and the caller should act on the returned value.
func (g *Gate) Accept(msg FireMsg) (string, bool) {
	if g.stopped || !g.armed || msg.ID != g.id {
		return "", false
	}
	g.armed = false
	return msg.Value, true
}

// Armed reports whether a timer is pending.
func (g *Gate) Armed() bool {
	return g.armed
}

// Cancel discards any armed timer. The gate can be triggered again.
func (g *Gate) Cancel() {
	g.id++
	g.armed = false
}

// Stop tears the gate down for good; nothing is accepted afterwards.
func (g *Gate) Stop() {
	g.Cancel()
	g.stopped = true
}
