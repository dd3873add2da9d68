package telemetry

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventConstructors(t *testing.T) {
	t.Parallel()

	ev := Error(SeverityHigh, "fetch failed", map[string]any{"login": "octocat"})
	assert.Equal(t, KindError, ev.Kind)
	assert.Equal(t, "high", ev.Severity.String())
	assert.NotEmpty(t, ev.ID)
	assert.False(t, ev.Time.IsZero())

	msg := Message(SeverityLow, "fetch_repositories_abort", nil)
	assert.Equal(t, KindMessage, msg.Kind)
	assert.NotEqual(t, ev.ID, msg.ID)
}

func TestMultiAndRecorder(t *testing.T) {
	t.Parallel()

	a, b := &Recorder{}, &Recorder{}
	m := Multi{a, nil, Nop{}, b}
	m.Report(Message(SeverityLow, "one", nil))
	m.Report(Error(SeverityMedium, "two", nil))

	assert.Len(t, a.Events(), 2)
	assert.Len(t, b.Events(), 2)
	assert.Equal(t, []string{"one"}, a.Texts(KindMessage))
	assert.Equal(t, []string{"two"}, b.Texts(KindError))
}

func TestLogReporter_Levels(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	r := NewLogReporter(logger)

	r.Report(Error(SeverityHigh, "listing failed", map[string]any{"page": 2}))
	r.Report(Error(SeverityMedium, "search failed", nil))
	r.Report(Message(SeverityLow, "aborted", nil))

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 3)

	levels := make([]string, 0, 3)
	for _, line := range lines {
		var rec map[string]any
		require.NoError(t, json.Unmarshal(line, &rec))
		levels = append(levels, rec["level"].(string))
	}
	assert.Equal(t, []string{"ERROR", "WARN", "INFO"}, levels)
	assert.Contains(t, string(lines[0]), `"page":2`)
}

func TestJournal_RoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nested", "journal.db")
	j, err := OpenJournal(JournalConfig{Path: path})
	require.NoError(t, err)
	defer j.Close()

	first := Error(SeverityHigh, "listing failed", map[string]any{"login": "octocat", "page": 3})
	first.Time = time.UnixMilli(1_000)
	second := Message(SeverityLow, "fetch_repositories_abort", nil)
	second.Time = time.UnixMilli(2_000)
	j.Report(first)
	j.Report(second)

	var entries []Entry
	require.Eventually(t, func() bool {
		entries, err = j.Recent(context.Background(), 10)
		return err == nil && len(entries) == 2
	}, 2*time.Second, 10*time.Millisecond)

	assert.Equal(t, second.ID, entries[0].ID)
	assert.Equal(t, "message", entries[0].Kind)
	assert.Nil(t, entries[0].Context)

	assert.Equal(t, first.ID, entries[1].ID)
	assert.Equal(t, "high", entries[1].Severity)
	assert.Equal(t, "octocat", entries[1].Context["login"])
	assert.EqualValues(t, 3, entries[1].Context["page"])
	assert.Equal(t, int64(1_000), entries[1].Time.UnixMilli())
}

func TestJournal_CloseDrainsAndIsIdempotent(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "journal.db")
	j, err := OpenJournal(JournalConfig{Path: path, Buffer: 64})
	require.NoError(t, err)

	for i := 0; i < 20; i++ {
		j.Report(Message(SeverityLow, "tick", nil))
	}
	require.NoError(t, j.Close())
	require.NoError(t, j.Close())

	// Reports after close are ignored rather than panicking on a closed queue.
	assert.NotPanics(t, func() { j.Report(Message(SeverityLow, "late", nil)) })

	reopened, err := OpenJournal(JournalConfig{Path: path})
	require.NoError(t, err)
	defer reopened.Close()

	entries, err := reopened.Recent(context.Background(), 100)
	require.NoError(t, err)
	assert.Len(t, entries, 20)
	assert.Zero(t, j.Dropped())
}

func TestOpenJournal_EmptyPath(t *testing.T) {
	t.Parallel()

	_, err := OpenJournal(JournalConfig{})
	assert.Error(t, err)
}
