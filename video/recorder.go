package video

import (
	"fmt"
	"os"
	"path/filepath"

	"gocv.io/x/gocv"
)

// Recorder writes annotated frames to an mp4 file.
type Recorder struct {
	writer *gocv.VideoWriter
	path   string
}

// NewRecorder creates the output directory if needed and opens the writer.
func NewRecorder(path string, fps float64, width, height int) (*Recorder, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create output directory: %w", err)
		}
	}
	writer, err := gocv.VideoWriterFile(path, "mp4v", fps, width, height, true)
	if err != nil {
		return nil, fmt.Errorf("open video writer %s: %w", path, err)
	}
	if !writer.IsOpened() {
		writer.Close()
		return nil, fmt.Errorf("video writer %s did not open", path)
	}
	return &Recorder{writer: writer, path: path}, nil
}

// Path returns the output file path.
func (r *Recorder) Path() string { return r.path }

// Write appends one frame.
func (r *Recorder) Write(frame gocv.Mat) error {
	return r.writer.Write(frame)
}

// Close finalizes the output file.
func (r *Recorder) Close() error {
	return r.writer.Close()
}
