// Package telemetry is the error/message reporting sink. Reporters are
// created once at startup and handed to whichever component reports; there
// is no package-level default.
package telemetry

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Kind distinguishes failures from notable non-failure events.
type Kind int

const (
	KindError Kind = iota
	KindMessage
)

func (k Kind) String() string {
	switch k {
	case KindError:
		return "error"
	case KindMessage:
		return "message"
	default:
		return "unknown"
	}
}

// Severity of a reported event.
type Severity int

const (
	SeverityLow Severity = iota
	SeverityMedium
	SeverityHigh
	SeverityCritical
)

func (s Severity) String() string {
	switch s {
	case SeverityLow:
		return "low"
	case SeverityMedium:
		return "medium"
	case SeverityHigh:
		return "high"
	case SeverityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// Event is one report.
type Event struct {
	ID       string
	Kind     Kind
	Severity Severity
	Text     string
	Context  map[string]any
	Time     time.Time
}

// Reporter receives events. Report must not block the caller for long;
// delivery failures are the reporter's own concern.
type Reporter interface {
	Report(Event)
}

// Error builds an error event.
func Error(sev Severity, text string, ctx map[string]any) Event {
	return newEvent(KindError, sev, text, ctx)
}

// Message builds a message event.
func Message(sev Severity, text string, ctx map[string]any) Event {
	return newEvent(KindMessage, sev, text, ctx)
}

func newEvent(kind Kind, sev Severity, text string, ctx map[string]any) Event {
	return Event{
		ID:       uuid.NewString(),
		Kind:     kind,
		Severity: sev,
		Text:     text,
		Context:  ctx,
		Time:     time.Now(),
	}
}

// Nop discards every event.
type Nop struct{}

func (Nop) Report(Event) {}

// Multi fans an event out to several reporters in order.
type Multi []Reporter

func (m Multi) Report(ev Event) {
	for _, r := range m {
		if r != nil {
			r.Report(ev)
		}
	}
}

// Recorder keeps events in memory.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) Report(ev Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

// Events returns a copy of everything recorded so far.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// Texts returns the text of every recorded event of the given kind.
func (r *Recorder) Texts(kind Kind) []string {
	var out []string
	for _, ev := range r.Events() {
		if ev.Kind == kind {
			out = append(out, ev.Text)
		}
	}
	return out
}

var (
	_ Reporter = Nop{}
	_ Reporter = Multi(nil)
	_ Reporter = (*Recorder)(nil)
)
