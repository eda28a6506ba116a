// Package pipeline runs the per-frame hazard loop: detect, debounce, compute
// the pointing angle, and fan the result out to collaborators.
package pipeline

import (
	"context"
	"log/slog"
	"time"

	"gocv.io/x/gocv"

	"linecam/detection"
	"linecam/geometry"
	"linecam/hazard"
	"linecam/video"
)

// Event is the per-frame outcome dispatched to collaborators.
type Event struct {
	Time       time.Time
	State      hazard.State
	AngleDeg   float64
	Detections detection.Set
}

// Primary returns the detection driving the angle, if any.
func (e Event) Primary() (detection.Detection, bool) {
	return e.Detections.Primary()
}

// Sink receives each event after processing. Sinks are best-effort and
// one-way: a failing sink is logged and never stops the loop, and nothing a
// sink does feeds back into detection.
type Sink interface {
	Write(Event) error
}

// FrameObserver sees the frame together with its event, for overlay
// rendering, recording and display. The Mat is only valid for the duration
// of the call; observers must not retain it.
type FrameObserver interface {
	ObserveFrame(frame *gocv.Mat, ev Event)
}

// Config holds the pipeline tunables.
type Config struct {
	// HFOVDeg is the camera horizontal field of view; 0 selects the default.
	HFOVDeg float64
}

// Pipeline drives the detector, the state machine and the collaborators for
// one frame at a time. All mutable state is owned by the calling goroutine;
// nothing here is safe for concurrent use and nothing needs to be.
type Pipeline struct {
	detector  detection.Detector
	machine   *hazard.Machine
	hfov      float64
	sinks     []Sink
	observers []FrameObserver
	log       *slog.Logger
	frames    int64
	lastState hazard.State
}

// New builds a pipeline around a bound detector and state machine.
func New(det detection.Detector, machine *hazard.Machine, cfg Config, log *slog.Logger) *Pipeline {
	hfov := cfg.HFOVDeg
	if hfov <= 0 {
		hfov = geometry.DefaultHFOV
	}
	if log == nil {
		log = slog.Default()
	}
	return &Pipeline{
		detector:  det,
		machine:   machine,
		hfov:      hfov,
		log:       log,
		lastState: machine.State(),
	}
}

// AddSink registers an event collaborator.
func (p *Pipeline) AddSink(s Sink) { p.sinks = append(p.sinks, s) }

// AddObserver registers a frame collaborator. Observers run after sinks, in
// registration order, so the renderer can annotate before the recorder
// writes.
func (p *Pipeline) AddObserver(o FrameObserver) { p.observers = append(p.observers, o) }

// Frames returns the number of frames processed so far.
func (p *Pipeline) Frames() int64 { return p.frames }

// Process runs one frame through detect, classify, debounce and angle
// computation, then hands the event to every sink. A detector failure
// degrades to an empty detection set so the state machine still receives a
// decision for the frame.
func (p *Pipeline) Process(frame gocv.Mat) Event {
	p.frames++

	set, err := p.detector.Detect(frame)
	if err != nil {
		p.log.Warn("detector failed, treating frame as clear", "frame", p.frames, "error", err)
		set = nil
	}

	state := p.machine.Update(len(set) > 0)
	if state != p.lastState {
		p.log.Info("state transition", "from", p.lastState, "to", state,
			"frame", p.frames, "detections", len(set))
		p.lastState = state
	}

	angle := 0.0
	if primary, ok := set.Primary(); ok {
		angle = geometry.PixelToAngle(geometry.Center(primary.Rect).X, frame.Cols(), p.hfov)
	}

	ev := Event{Time: time.Now(), State: state, AngleDeg: angle, Detections: set}
	for _, s := range p.sinks {
		if err := s.Write(ev); err != nil {
			p.log.Warn("event sink write failed", "error", err)
		}
	}
	return ev
}

// Run reads frames until the source is exhausted or ctx is cancelled, both
// of which end the loop cleanly with a nil error. Cancellation is observed
// only between iterations; an in-flight frame always runs to completion.
func (p *Pipeline) Run(ctx context.Context, source video.Source) error {
	frame := gocv.NewMat()
	defer frame.Close()

	for {
		select {
		case <-ctx.Done():
			p.log.Info("stop requested, ending frame loop", "frames", p.frames)
			return nil
		default:
		}

		if ok := source.Read(&frame); !ok {
			p.log.Info("frame source exhausted", "frames", p.frames)
			return nil
		}

		ev := p.Process(frame)
		for _, o := range p.observers {
			o.ObserveFrame(&frame, ev)
		}
	}
}
