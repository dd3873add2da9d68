package telemetry

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite"
)

const journalSchema = `
CREATE TABLE IF NOT EXISTS events (
	id           TEXT PRIMARY KEY,
	kind         TEXT NOT NULL,
	severity     TEXT NOT NULL,
	text         TEXT NOT NULL,
	context_json TEXT NOT NULL DEFAULT '{}',
	ts_unix_ms   INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_events_ts ON events(ts_unix_ms);
`

// defaultJournalBuffer is the number of events queued before Report starts
// dropping.
const defaultJournalBuffer = 256

// Journal appends events to a SQLite file from a background writer so that
// Report never waits on disk.
type Journal struct {
	db     *sql.DB
	logger *slog.Logger
	queue  chan Event
	done   chan struct{}

	mu      sync.RWMutex
	closed  bool
	dropped atomic.Int64

	closeOnce sync.Once
	closeErr  error
}

// JournalConfig configures OpenJournal.
type JournalConfig struct {
	// Path of the database file. Parent directories are created.
	Path string
	// Buffer is the queue depth. Default: 256
	Buffer int
	Logger *slog.Logger
}

// OpenJournal opens (or creates) the journal database and starts its writer.
func OpenJournal(cfg JournalConfig) (*Journal, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("journal path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create journal directory: %w", err)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	buffer := cfg.Buffer
	if buffer <= 0 {
		buffer = defaultJournalBuffer
	}

	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", cfg.Path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to journal: %w", err)
	}
	if _, err := db.Exec(journalSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create journal schema: %w", err)
	}

	j := &Journal{
		db:     db,
		logger: logger,
		queue:  make(chan Event, buffer),
		done:   make(chan struct{}),
	}
	go j.writeLoop()
	return j, nil
}

// Report queues ev for writing. When the queue is full the event is dropped
// and counted.
func (j *Journal) Report(ev Event) {
	j.mu.RLock()
	defer j.mu.RUnlock()
	if j.closed {
		return
	}
	select {
	case j.queue <- ev:
	default:
		j.dropped.Add(1)
		j.logger.Warn("telemetry journal full, dropping event", "text", ev.Text)
	}
}

func (j *Journal) writeLoop() {
	defer close(j.done)
	for ev := range j.queue {
		if err := j.insert(context.Background(), ev); err != nil {
			j.logger.Warn("telemetry journal write failed", "error", err, "event_id", ev.ID)
		}
	}
}

func (j *Journal) insert(ctx context.Context, ev Event) error {
	ctxJSON := []byte("{}")
	if len(ev.Context) > 0 {
		b, err := json.Marshal(ev.Context)
		if err != nil {
			return fmt.Errorf("marshal context: %w", err)
		}
		ctxJSON = b
	}
	ts := ev.Time
	if ts.IsZero() {
		ts = time.Now()
	}
	_, err := j.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO events (id, kind, severity, text, context_json, ts_unix_ms)
		VALUES (?, ?, ?, ?, ?, ?)
	`, ev.ID, ev.Kind.String(), ev.Severity.String(), ev.Text, string(ctxJSON), ts.UnixMilli())
	return err
}

// Entry is a row read back from the journal.
type Entry struct {
	ID       string
	Kind     string
	Severity string
	Text     string
	Context  map[string]any
	Time     time.Time
}

// Recent returns up to limit entries, newest first.
func (j *Journal) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := j.db.QueryContext(ctx, `
		SELECT id, kind, severity, text, context_json, ts_unix_ms
		FROM events ORDER BY ts_unix_ms DESC, rowid DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query journal: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var (
			e       Entry
			ctxJSON string
			tsMs    int64
		)
		if err := rows.Scan(&e.ID, &e.Kind, &e.Severity, &e.Text, &ctxJSON, &tsMs); err != nil {
			return nil, fmt.Errorf("scan journal row: %w", err)
		}
		if ctxJSON != "" && ctxJSON != "{}" {
			if err := json.Unmarshal([]byte(ctxJSON), &e.Context); err != nil {
				return nil, fmt.Errorf("decode context of %s: %w", e.ID, err)
			}
		}
		e.Time = time.UnixMilli(tsMs)
		out = append(out, e)
	}
	return out, rows.Err()
}

// Dropped returns how many events were discarded because the queue was full.
func (j *Journal) Dropped() int64 {
	return j.dropped.Load()
}

// Close stops accepting events, drains the queue and closes the database.
// It is safe to call Close multiple times.
func (j *Journal) Close() error {
	j.closeOnce.Do(func() {
		j.mu.Lock()
		j.closed = true
		close(j.queue)
		j.mu.Unlock()

		<-j.done
		_, _ = j.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)")
		j.closeErr = j.db.Close()
	})
	return j.closeErr
}

var _ Reporter = (*Journal)(nil)
