package telemetry

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedacting_ScrubsTextAndContext(t *testing.T) {
	t.Parallel()

	token := "ghp_" + strings.Repeat("x", 36)
	rec := &Recorder{}
	r := NewRedacting(rec)

	ctx := map[string]any{"error": "401 for " + token, "page": 2}
	r.Report(Error(SeverityHigh, "auth failed with "+token, ctx))

	events := rec.Events()
	require.Len(t, events, 1)
	assert.NotContains(t, events[0].Text, token)
	assert.NotContains(t, events[0].Context["error"], token)
	assert.Equal(t, 2, events[0].Context["page"])
	assert.Contains(t, ctx["error"], token, "caller's map is not modified")
}

func TestRedacting_NilInner(t *testing.T) {
	t.Parallel()

	assert.NotPanics(t, func() { (&Redacting{}).Report(Message(SeverityLow, "x", nil)) })
}
