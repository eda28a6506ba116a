// Package detection finds candidate hazards in camera frames. Two
// interchangeable detectors are provided: a classic edge/line-subtraction
// pipeline and a learned DNN variant. Both produce the same Detection shape,
// so the caller binds one at construction and never inspects which it holds.
package detection

import (
	"image"

	"gocv.io/x/gocv"
)

// Method identifies which detector produced a detection.
type Method string

const (
	MethodClassic Method = "classic"
	MethodLearned Method = "learned"
)

// Detection is a single candidate hazard found in one frame. Detections are
// recomputed every frame; there is no identity across frames.
type Detection struct {
	// Rect is the axis-aligned bounding box in frame pixels.
	Rect image.Rectangle
	// Confidence is a unit-interval score, or 0 when the detector does not
	// score its output (the classic detector does not).
	Confidence float64
	// Label is an optional class name.
	Label string
	// Method records which detector produced this detection.
	Method Method
}

// Set is the ordered detection list for one frame. The first element is the
// primary detection, the one that drives the pointing angle. Each detector
// orders its output deterministically: the classic detector by contour area
// descending, the learned detector by confidence descending.
type Set []Detection

// Primary returns the first detection, or false when the set is empty.
func (s Set) Primary() (Detection, bool) {
	if len(s) == 0 {
		return Detection{}, false
	}
	return s[0], true
}

// Detector is the uniform detection capability. A nil error with an empty Set
// is the normal "nothing found" outcome, never a failure.
type Detector interface {
	Detect(frame gocv.Mat) (Set, error)
	Close() error
}
