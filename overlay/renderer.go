// Package overlay renders detection and state annotations onto frames. It is
// a pure annotator: nothing drawn here feeds back into the pipeline.
package overlay

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"gocv.io/x/gocv"

	"linecam/hazard"
	"linecam/pipeline"
)

// Renderer draws bounding boxes, the SAFE/HAZARD status lamp and the servo
// direction arrow.
type Renderer struct {
	safeColor   color.RGBA
	hazardColor color.RGBA
	boxColor    color.RGBA
	arrowColor  color.RGBA
}

// NewRenderer builds a renderer with the standard color scheme.
func NewRenderer() *Renderer {
	return &Renderer{
		safeColor:   color.RGBA{G: 255},
		hazardColor: color.RGBA{R: 255},
		boxColor:    color.RGBA{R: 255},
		arrowColor:  color.RGBA{R: 255, G: 255},
	}
}

// Draw annotates the frame in place with everything known about this cycle.
func (r *Renderer) Draw(frame *gocv.Mat, ev pipeline.Event) {
	r.drawDetections(frame, ev)
	r.drawStatus(frame, ev.State)
	r.drawServo(frame, ev.AngleDeg)
}

// ObserveFrame implements pipeline.FrameObserver.
func (r *Renderer) ObserveFrame(frame *gocv.Mat, ev pipeline.Event) {
	r.Draw(frame, ev)
}

func (r *Renderer) drawDetections(frame *gocv.Mat, ev pipeline.Event) {
	for _, det := range ev.Detections {
		gocv.Rectangle(frame, det.Rect, r.boxColor, 2)
		if det.Confidence > 0 {
			caption := fmt.Sprintf("%.2f", det.Confidence)
			if det.Label != "" {
				caption = fmt.Sprintf("%s %.2f", det.Label, det.Confidence)
			}
			gocv.PutText(frame, caption, image.Pt(det.Rect.Min.X, det.Rect.Min.Y-5),
				gocv.FontHersheySimplex, 0.5, r.boxColor, 1)
		}
	}
}

func (r *Renderer) drawStatus(frame *gocv.Mat, state hazard.State) {
	c := r.safeColor
	if state == hazard.StateHazard {
		c = r.hazardColor
	}
	gocv.PutText(frame, state.String(), image.Pt(10, 30),
		gocv.FontHersheySimplex, 1.0, c, 2)

	// Status lamp mirroring the physical LED.
	center := image.Pt(30, 60)
	gocv.Circle(frame, center, 10, c, -1)
	gocv.Circle(frame, center, 10, color.RGBA{R: 255, G: 255, B: 255}, 1)
}

func (r *Renderer) drawServo(frame *gocv.Mat, angleDeg float64) {
	base := image.Pt(frame.Cols()-50, frame.Rows()-50)

	// 0 degrees points straight up; positive angles lean right, matching the
	// servo's view direction.
	rad := angleDeg * math.Pi / 180.0
	const length = 30
	tip := image.Pt(
		base.X+int(length*math.Sin(rad)),
		base.Y-int(length*math.Cos(rad)),
	)
	gocv.ArrowedLine(frame, base, tip, r.arrowColor, 2)
	gocv.PutText(frame, fmt.Sprintf("%.1f deg", angleDeg),
		image.Pt(base.X-45, base.Y+25), gocv.FontHersheySimplex, 0.5, r.arrowColor, 1)
}
