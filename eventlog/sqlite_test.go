package eventlog

import (
	"image"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"linecam/detection"
	"linecam/hazard"
	"linecam/pipeline"
)

func testEvent(state hazard.State, angle float64, dets detection.Set) pipeline.Event {
	return pipeline.Event{
		Time:       time.Date(2025, 6, 12, 10, 30, 0, 0, time.UTC),
		State:      state,
		AngleDeg:   angle,
		Detections: dets,
	}
}

func hazardSet() detection.Set {
	return detection.Set{{Rect: image.Rect(300, 80, 350, 120), Method: detection.MethodClassic}}
}

func TestSQLiteSinkWritesEvents(t *testing.T) {
	sink, err := NewSQLiteSink(filepath.Join(t.TempDir(), "events.db"))
	require.NoError(t, err)
	defer sink.Close()

	require.NotEmpty(t, sink.RunID())

	require.NoError(t, sink.Write(testEvent(hazard.StateSafe, 0, nil)))
	require.NoError(t, sink.Write(testEvent(hazard.StateHazard, 12.5, hazardSet())))

	var count int
	require.NoError(t, sink.db.QueryRow("SELECT COUNT(*) FROM events").Scan(&count))
	assert.Equal(t, 2, count)

	var state string
	var angle float64
	var bboxX int
	require.NoError(t, sink.db.QueryRow(
		"SELECT state, angle, bbox_x FROM events WHERE state = 'HAZARD'").
		Scan(&state, &angle, &bboxX))
	assert.Equal(t, "HAZARD", state)
	assert.InDelta(t, 12.5, angle, 1e-9)
	assert.Equal(t, 300, bboxX)

	// Events without a detection keep NULL bbox columns.
	var nullBBox int
	require.NoError(t, sink.db.QueryRow(
		"SELECT COUNT(*) FROM events WHERE state = 'SAFE' AND bbox_x IS NULL").
		Scan(&nullBBox))
	assert.Equal(t, 1, nullBBox)
}

func TestSQLiteSinkWidensWithoutLosingRows(t *testing.T) {
	sink, err := NewSQLiteSink(filepath.Join(t.TempDir(), "events.db"))
	require.NoError(t, err)
	defer sink.Close()

	require.NoError(t, sink.Write(testEvent(hazard.StateSafe, 0, nil)))
	require.NoError(t, sink.WriteExtra(testEvent(hazard.StateHazard, 5, hazardSet()),
		map[string]any{"detector": "classic", "frame_ms": "33"}))

	var count int
	require.NoError(t, sink.db.QueryRow("SELECT COUNT(*) FROM events").Scan(&count))
	assert.Equal(t, 2, count, "widening must not drop the earlier row")

	// The earlier row reads back NULL in the widened column.
	var nulls int
	require.NoError(t, sink.db.QueryRow(
		"SELECT COUNT(*) FROM events WHERE detector IS NULL").Scan(&nulls))
	assert.Equal(t, 1, nulls)

	var detector string
	require.NoError(t, sink.db.QueryRow(
		"SELECT detector FROM events WHERE detector IS NOT NULL").Scan(&detector))
	assert.Equal(t, "classic", detector)
}

func TestSQLiteSinkSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.db")

	first, err := NewSQLiteSink(path)
	require.NoError(t, err)
	require.NoError(t, first.WriteExtra(testEvent(hazard.StateSafe, 0, nil),
		map[string]any{"detector": "classic"}))
	firstRun := first.RunID()
	require.NoError(t, first.Close())

	second, err := NewSQLiteSink(path)
	require.NoError(t, err)
	defer second.Close()

	assert.NotEqual(t, firstRun, second.RunID())

	// The widened column is already known; writing through it again must not
	// fail with a duplicate-column error.
	require.NoError(t, second.WriteExtra(testEvent(hazard.StateHazard, 3, hazardSet()),
		map[string]any{"detector": "classic"}))

	var count int
	require.NoError(t, second.db.QueryRow("SELECT COUNT(*) FROM events").Scan(&count))
	assert.Equal(t, 2, count)

	var runs int
	require.NoError(t, second.db.QueryRow("SELECT COUNT(*) FROM runs").Scan(&runs))
	assert.Equal(t, 2, runs)
}

func TestSQLiteSinkRejectsUnsafeColumnNames(t *testing.T) {
	sink, err := NewSQLiteSink(filepath.Join(t.TempDir(), "events.db"))
	require.NoError(t, err)
	defer sink.Close()

	err = sink.WriteExtra(testEvent(hazard.StateSafe, 0, nil),
		map[string]any{"x; DROP TABLE events": "1"})
	assert.Error(t, err)

	err = sink.WriteExtra(testEvent(hazard.StateSafe, 0, nil),
		map[string]any{"1starts_with_digit": "1"})
	assert.Error(t, err)
}
