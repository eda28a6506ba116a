package detection

import (
	"image"
	"testing"

	"gocv.io/x/gocv"
)

// countingDetector records how often it is invoked.
type countingDetector struct {
	calls  int
	result Set
}

func (c *countingDetector) Detect(gocv.Mat) (Set, error) {
	c.calls++
	return c.result, nil
}

func (c *countingDetector) Close() error { return nil }

func TestSampledSkipsFramesWithoutInvokingInner(t *testing.T) {
	inner := &countingDetector{result: Set{{Rect: image.Rect(0, 0, 20, 20), Method: MethodLearned}}}
	det := NewSampled(inner, 3)

	frame := gocv.NewMat()
	defer frame.Close()

	var nonEmpty int
	for i := 0; i < 9; i++ {
		set, err := det.Detect(frame)
		if err != nil {
			t.Fatal(err)
		}
		if len(set) > 0 {
			nonEmpty++
		}
	}

	if inner.calls != 3 {
		t.Errorf("inner detector ran %d times over 9 frames at every=3, want 3", inner.calls)
	}
	if nonEmpty != 3 {
		t.Errorf("got %d non-empty sets, want 3", nonEmpty)
	}
}

func TestSampledEveryOneRunsEveryFrame(t *testing.T) {
	inner := &countingDetector{}
	det := NewSampled(inner, 1)

	frame := gocv.NewMat()
	defer frame.Close()

	for i := 0; i < 5; i++ {
		if _, err := det.Detect(frame); err != nil {
			t.Fatal(err)
		}
	}
	if inner.calls != 5 {
		t.Errorf("inner detector ran %d times, want 5", inner.calls)
	}
}

func TestSampledClampsInvalidInterval(t *testing.T) {
	inner := &countingDetector{}
	det := NewSampled(inner, 0)

	frame := gocv.NewMat()
	defer frame.Close()

	for i := 0; i < 4; i++ {
		if _, err := det.Detect(frame); err != nil {
			t.Fatal(err)
		}
	}
	if inner.calls != 4 {
		t.Errorf("inner detector ran %d times with clamped interval, want 4", inner.calls)
	}
}

func TestSetPrimary(t *testing.T) {
	var empty Set
	if _, ok := empty.Primary(); ok {
		t.Error("empty set reported a primary detection")
	}

	set := Set{
		{Rect: image.Rect(0, 0, 50, 50)},
		{Rect: image.Rect(100, 100, 120, 120)},
	}
	primary, ok := set.Primary()
	if !ok {
		t.Fatal("non-empty set reported no primary detection")
	}
	if primary.Rect != image.Rect(0, 0, 50, 50) {
		t.Errorf("primary = %v, want first element", primary.Rect)
	}
}
