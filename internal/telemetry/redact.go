package telemetry

import (
	"github.com/runger/ghexplorer/internal/sanitize"
)

// Redacting scrubs credentials from event text and string context values
// before handing the event on. Error messages from the transport can echo
// request URLs, and those may carry tokens.
type Redacting struct {
	Inner    Reporter
	Redactor *sanitize.Redactor
}

// NewRedacting wraps inner with the default redactor.
func NewRedacting(inner Reporter) *Redacting {
	return &Redacting{Inner: inner, Redactor: sanitize.DefaultRedactor}
}

func (r *Redacting) Report(ev Event) {
	if r.Inner == nil {
		return
	}
	red := r.Redactor
	if red == nil {
		red = sanitize.DefaultRedactor
	}
	ev.Text = red.Redact(ev.Text)
	if len(ev.Context) > 0 {
		ctx := make(map[string]any, len(ev.Context))
		for k, v := range ev.Context {
			if s, ok := v.(string); ok {
				v = red.Redact(s)
			}
			ctx[k] = v
		}
		ev.Context = ctx
	}
	r.Inner.Report(ev)
}

var _ Reporter = (*Redacting)(nil)
