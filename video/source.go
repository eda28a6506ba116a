// Package video acquires frames from cameras or recorded footage, with an
// ordered startup fallback between capture backends.
package video

import (
	"fmt"
	"log/slog"

	"gocv.io/x/gocv"
)

// Source supplies frames to the pipeline. Read blocks on hardware I/O and
// reports false when the source is exhausted or unreadable. Release must be
// safe to call even after a failed Start.
type Source interface {
	Start() error
	Read(frame *gocv.Mat) bool
	Release() error
}

// CaptureSource reads from a camera device or a video file through gocv's
// VideoCapture.
type CaptureSource struct {
	source any // device index (int) or file path (string)
	api    gocv.VideoCaptureAPI
	width  int
	height int
	cap    *gocv.VideoCapture
}

// NewDeviceSource captures from a camera device with the given backend API
// and requests the given resolution.
func NewDeviceSource(index int, api gocv.VideoCaptureAPI, width, height int) *CaptureSource {
	return &CaptureSource{source: index, api: api, width: width, height: height}
}

// NewFileSource reads frames from recorded footage.
func NewFileSource(path string) *CaptureSource {
	return &CaptureSource{source: path, api: gocv.VideoCaptureAny}
}

// Start opens the underlying capture. Failure leaves the source released.
func (s *CaptureSource) Start() error {
	cap, err := gocv.OpenVideoCaptureWithAPI(s.source, s.api)
	if err != nil {
		return fmt.Errorf("open video source %v: %w", s.source, err)
	}
	if !cap.IsOpened() {
		cap.Close()
		return fmt.Errorf("video source %v did not open", s.source)
	}
	if _, isDevice := s.source.(int); isDevice && s.width > 0 && s.height > 0 {
		cap.Set(gocv.VideoCaptureFrameWidth, float64(s.width))
		cap.Set(gocv.VideoCaptureFrameHeight, float64(s.height))
	}
	s.cap = cap
	return nil
}

// Read fetches the next frame into the caller's Mat.
func (s *CaptureSource) Read(frame *gocv.Mat) bool {
	if s.cap == nil {
		return false
	}
	if ok := s.cap.Read(frame); !ok || frame.Empty() {
		return false
	}
	return true
}

// Release closes the capture. Safe after a failed Start and safe to call
// twice.
func (s *CaptureSource) Release() error {
	if s.cap == nil {
		return nil
	}
	cap := s.cap
	s.cap = nil
	return cap.Close()
}

// Constructor is one candidate in a startup fallback chain.
type Constructor struct {
	Name  string
	Build func() Source
}

// Open tries each constructor in order and returns the first source whose
// Start succeeds. Failed candidates are released and logged, not fatal; only
// exhausting the whole chain is an error.
func Open(log *slog.Logger, chain []Constructor) (Source, error) {
	for _, c := range chain {
		src := c.Build()
		if err := src.Start(); err != nil {
			log.Warn("video source unavailable", "source", c.Name, "error", err)
			src.Release()
			continue
		}
		log.Info("video source started", "source", c.Name)
		return src, nil
	}
	return nil, fmt.Errorf("no video source could be started")
}
