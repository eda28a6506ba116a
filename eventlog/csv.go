package eventlog

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"linecam/pipeline"
)

// standardCSVColumns are always present, in this order. Widened columns
// follow them alphabetically.
var standardCSVColumns = []string{
	"timestamp", "state",
	"bbox_x", "bbox_y", "bbox_width", "bbox_height",
	"angle",
}

// CSVSink mirrors the SQLite sink for deployments without a database: one
// row per event in a plain CSV file. Widening rewrites the file with the
// superset header, carrying every existing row forward.
type CSVSink struct {
	path    string
	columns []string
}

// NewCSVSink creates the file with the standard header if it does not exist.
// An existing file keeps its (possibly already widened) header.
func NewCSVSink(path string) (*CSVSink, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create event log directory: %w", err)
		}
	}

	s := &CSVSink{path: path}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		s.columns = append([]string(nil), standardCSVColumns...)
		f, err := os.Create(path)
		if err != nil {
			return nil, fmt.Errorf("create event log: %w", err)
		}
		defer f.Close()
		w := csv.NewWriter(f)
		if err := w.Write(s.columns); err != nil {
			return nil, err
		}
		w.Flush()
		return s, w.Error()
	}

	header, _, err := s.readAll()
	if err != nil {
		return nil, err
	}
	if len(header) == 0 {
		header = append([]string(nil), standardCSVColumns...)
	}
	s.columns = header
	return s, nil
}

// Path returns the log file path.
func (s *CSVSink) Path() string { return s.path }

// Write implements pipeline.Sink.
func (s *CSVSink) Write(ev pipeline.Event) error {
	return s.WriteExtra(ev, nil)
}

// WriteExtra appends an event with additional named values, widening the
// column set first if any name is new. Rows written before the widening keep
// their data, with the new columns empty.
func (s *CSVSink) WriteExtra(ev pipeline.Event, extra map[string]string) error {
	if err := s.widen(extra); err != nil {
		return err
	}

	row := map[string]string{
		"timestamp": ev.Time.Format("2006-01-02T15:04:05.000Z07:00"),
		"state":     ev.State.String(),
		"angle":     strconv.FormatFloat(ev.AngleDeg, 'f', 2, 64),
	}
	if primary, ok := ev.Primary(); ok {
		row["bbox_x"] = strconv.Itoa(primary.Rect.Min.X)
		row["bbox_y"] = strconv.Itoa(primary.Rect.Min.Y)
		row["bbox_width"] = strconv.Itoa(primary.Rect.Dx())
		row["bbox_height"] = strconv.Itoa(primary.Rect.Dy())
	}
	for name, value := range extra {
		row[name] = value
	}

	record := make([]string, len(s.columns))
	for i, col := range s.columns {
		record[i] = row[col]
	}

	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open event log: %w", err)
	}
	defer f.Close()
	w := csv.NewWriter(f)
	if err := w.Write(record); err != nil {
		return err
	}
	w.Flush()
	return w.Error()
}

// Close implements pipeline-compatible shutdown; the file is not held open
// between writes.
func (s *CSVSink) Close() error { return nil }

func (s *CSVSink) widen(extra map[string]string) error {
	known := make(map[string]bool, len(s.columns))
	for _, c := range s.columns {
		known[c] = true
	}
	var added []string
	for name := range extra {
		if !known[name] {
			added = append(added, name)
		}
	}
	if len(added) == 0 {
		return nil
	}
	sort.Strings(added)

	_, records, err := s.readAll()
	if err != nil {
		return err
	}

	columns := append(append([]string(nil), s.columns...), added...)
	f, err := os.Create(s.path)
	if err != nil {
		return fmt.Errorf("rewrite event log: %w", err)
	}
	defer f.Close()
	w := csv.NewWriter(f)
	if err := w.Write(columns); err != nil {
		return err
	}
	pad := make([]string, len(added))
	for _, rec := range records {
		if err := w.Write(append(rec, pad...)); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	s.columns = columns
	return nil
}

// readAll returns the current header and data rows.
func (s *CSVSink) readAll() ([]string, [][]string, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, nil, fmt.Errorf("read event log: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	all, err := r.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("parse event log: %w", err)
	}
	if len(all) == 0 {
		return nil, nil, nil
	}
	return all[0], all[1:], nil
}
