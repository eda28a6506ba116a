package detection

import "gocv.io/x/gocv"

// Sampled wraps a detector with a frame-sampling policy: only every Nth frame
// reaches the underlying detector, the rest return an empty Set without
// invoking it. This keeps an expensive model within the frame budget; it is a
// frequency divider, not concurrency.
type Sampled struct {
	inner Detector
	every int
	count int64
}

// NewSampled wraps inner so that only every Nth Detect call runs inference.
// everyN below 1 is treated as 1 (every frame).
func NewSampled(inner Detector, everyN int) *Sampled {
	if everyN < 1 {
		everyN = 1
	}
	return &Sampled{inner: inner, every: everyN}
}

// Detect implements Detector. Skipped frames report an empty set, which the
// state machine sees as a clear frame.
func (s *Sampled) Detect(frame gocv.Mat) (Set, error) {
	s.count++
	if s.every > 1 && s.count%int64(s.every) != 0 {
		return nil, nil
	}
	return s.inner.Detect(frame)
}

// Close closes the wrapped detector.
func (s *Sampled) Close() error { return s.inner.Close() }
