// Package eventlog persists per-frame pipeline events to durable structured
// storage. Both sinks share the same widening contract: extra named fields
// unknown at open time become new columns at runtime, and rows written before
// the widening keep their data.
package eventlog

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"linecam/pipeline"
)

// SQLiteSink appends events to a SQLite database. Every process start is a
// run, keyed by a fresh UUID, so events from different flights stay
// separable in one database file.
type SQLiteSink struct {
	db      *sql.DB
	runID   string
	columns map[string]bool
}

// NewSQLiteSink opens (creating if needed) the database at path and registers
// a new run.
func NewSQLiteSink(path string) (*SQLiteSink, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create event log directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS runs (
			run_id      TEXT PRIMARY KEY,
			started_at  TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		);
		CREATE TABLE IF NOT EXISTS events (
			event_id    INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id      TEXT,
			timestamp   TIMESTAMP,
			state       TEXT,
			bbox_x      INTEGER,
			bbox_y      INTEGER,
			bbox_width  INTEGER,
			bbox_height INTEGER,
			angle       DOUBLE,
			detections  BIGINT,
			FOREIGN KEY(run_id) REFERENCES runs(run_id)
		);
	`)
	if err != nil {
		db.Close()
		return nil, err
	}

	s := &SQLiteSink{
		db:    db,
		runID: uuid.NewString(),
		columns: map[string]bool{
			"event_id": true, "run_id": true, "timestamp": true, "state": true,
			"bbox_x": true, "bbox_y": true, "bbox_width": true,
			"bbox_height": true, "angle": true, "detections": true,
		},
	}

	// The table may carry columns widened by an earlier run.
	rows, err := db.Query("SELECT name FROM pragma_table_info('events')")
	if err != nil {
		db.Close()
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			db.Close()
			return nil, err
		}
		s.columns[name] = true
	}
	if err := rows.Err(); err != nil {
		db.Close()
		return nil, err
	}

	if _, err := db.Exec("INSERT INTO runs (run_id) VALUES (?)", s.runID); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// RunID returns the UUID identifying this process run in the database.
func (s *SQLiteSink) RunID() string { return s.runID }

// Write implements pipeline.Sink.
func (s *SQLiteSink) Write(ev pipeline.Event) error {
	return s.WriteExtra(ev, nil)
}

// WriteExtra appends an event carrying additional named values. Names not
// yet present in the table widen it in place via ALTER TABLE; previously
// written rows are untouched and read back NULL for the new columns.
func (s *SQLiteSink) WriteExtra(ev pipeline.Event, extra map[string]any) error {
	if err := s.widen(extra); err != nil {
		return err
	}

	cols := []string{"run_id", "timestamp", "state", "angle", "detections"}
	vals := []any{s.runID, ev.Time.UTC(), ev.State.String(), ev.AngleDeg, len(ev.Detections)}
	if primary, ok := ev.Primary(); ok {
		cols = append(cols, "bbox_x", "bbox_y", "bbox_width", "bbox_height")
		vals = append(vals, primary.Rect.Min.X, primary.Rect.Min.Y,
			primary.Rect.Dx(), primary.Rect.Dy())
	}
	for _, name := range sortedKeys(extra) {
		cols = append(cols, name)
		vals = append(vals, extra[name])
	}

	query := fmt.Sprintf("INSERT INTO events (%s) VALUES (%s)",
		strings.Join(cols, ", "), placeholders(len(vals)))
	if _, err := s.db.Exec(query, vals...); err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

// Close releases the database handle.
func (s *SQLiteSink) Close() error { return s.db.Close() }

func (s *SQLiteSink) widen(extra map[string]any) error {
	for _, name := range sortedKeys(extra) {
		if s.columns[name] {
			continue
		}
		if !validColumnName(name) {
			return fmt.Errorf("invalid event column name %q", name)
		}
		if _, err := s.db.Exec(fmt.Sprintf("ALTER TABLE events ADD COLUMN %s TEXT", name)); err != nil {
			return fmt.Errorf("widen events table with %s: %w", name, err)
		}
		s.columns[name] = true
	}
	return nil
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

// validColumnName accepts lower_snake_case identifiers only, keeping the
// ALTER TABLE statement safe to build by string concatenation.
func validColumnName(name string) bool {
	if name == "" {
		return false
	}
	for i, r := range name {
		switch {
		case r >= 'a' && r <= 'z':
		case r == '_':
		case r >= '0' && r <= '9':
			if i == 0 {
				return false
			}
		default:
			return false
		}
	}
	return true
}
