// linecam watches power-line footage for foreign objects, debounces the
// per-frame detections into a SAFE/HAZARD state, points a physical indicator
// at the hazard and logs every frame's outcome.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"gocv.io/x/gocv"

	"linecam/actuator"
	"linecam/detection"
	"linecam/eventlog"
	"linecam/geometry"
	"linecam/hazard"
	"linecam/overlay"
	"linecam/pipeline"
	"linecam/video"
)

const (
	frameWidth  = 640
	frameHeight = 480
	recordFPS   = 30.0
)

var (
	// Input and detector selection
	source       = flag.String("source", "0", "Video source: camera index or video file path")
	detectorName = flag.String("detector", "classic", "Detection method: classic or dnn")
	weightsPath  = flag.String("weights", "", "Model weights file (required with -detector=dnn)")
	modelConfig  = flag.String("model-config", "", "Model config file for the dnn detector")
	namesFile    = flag.String("names", "", "Class names file for the dnn detector")
	confidence   = flag.Float64("confidence", 0.35, "Minimum confidence for dnn detections (0-1)")
	everyN       = flag.Int("every", 3, "Run the dnn detector every N frames (1 = every frame)")

	// Classic detector tuning
	cannyLow   = flag.Float64("canny-low", 50, "Lower Canny edge threshold")
	cannyHigh  = flag.Float64("canny-high", 150, "Upper Canny edge threshold")
	houghVotes = flag.Int("hough-votes", 50, "Minimum Hough vote count to accept a line segment")
	minLineLen = flag.Float64("min-line-length", 50, "Minimum accepted line segment length in pixels")
	maxLineGap = flag.Float64("max-line-gap", 10, "Maximum gap merged into one line segment")
	minArea    = flag.Float64("min-area", 800, "Minimum contour area for a hazard region")

	// Debounce and geometry
	enterFrames = flag.Int("enter-frames", hazard.DefaultEnterThreshold, "Consecutive hazard frames before SAFE -> HAZARD")
	exitFrames  = flag.Int("exit-frames", hazard.DefaultExitThreshold, "Consecutive clear frames before HAZARD -> SAFE")
	hfov        = flag.Float64("hfov", geometry.DefaultHFOV, "Camera horizontal field of view in degrees")

	// Outputs
	eventsPath = flag.String("events", "", "SQLite event database path (default logs/events_<timestamp>.db)")
	csvPath    = flag.String("events-csv", "", "Also append events to this CSV file")
	record     = flag.Bool("record", false, "Record annotated video")
	outputPath = flag.String("output", "", "Annotated video path (default output/video_<timestamp>.mp4)")
	display    = flag.Bool("display", false, "Show annotated frames in a window (press q to quit)")

	// Actuator
	actuatorName = flag.String("actuator", "auto", "Indicator backend: auto, gpio, serial or sim")
	servoPin     = flag.String("servo-pin", actuator.DefaultServoPin, "GPIO pin name for the servo (actuator=gpio)")
	ledPin       = flag.String("led-pin", actuator.DefaultLEDPin, "GPIO pin name for the hazard LED (actuator=gpio)")
	serialPort   = flag.String("serial-port", "/dev/ttyUSB0", "Servo board serial port (actuator=serial)")

	logLevel = flag.String("log-level", "info", "Log level: debug, info, warn or error")
)

func main() {
	flag.Parse()

	log := newLogger(*logLevel)
	slog.SetDefault(log)

	if err := run(log); err != nil {
		log.Error("startup failed", "error", err)
		os.Exit(1)
	}
}

func run(log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	det, err := buildDetector()
	if err != nil {
		return err
	}
	defer det.Close()

	src, err := openSource(log)
	if err != nil {
		return err
	}
	defer src.Release()

	act := openActuator(log)
	defer act.Close()

	machine := hazard.NewMachine(*enterFrames, *exitFrames)
	pipe := pipeline.New(det, machine, pipeline.Config{HFOVDeg: *hfov}, log)
	pipe.AddSink(&actuatorSink{act: act})

	startedAt := time.Now().Format("20060102_150405")

	dbPath := *eventsPath
	if dbPath == "" {
		dbPath = filepath.Join("logs", fmt.Sprintf("events_%s.db", startedAt))
	}
	events, err := eventlog.NewSQLiteSink(dbPath)
	if err != nil {
		return fmt.Errorf("open event database: %w", err)
	}
	defer events.Close()
	log.Info("logging events", "path", dbPath, "run_id", events.RunID())
	pipe.AddSink(events)

	if *csvPath != "" {
		csvSink, err := eventlog.NewCSVSink(*csvPath)
		if err != nil {
			return fmt.Errorf("open csv event log: %w", err)
		}
		defer csvSink.Close()
		pipe.AddSink(csvSink)
	}

	// The renderer must observe before the recorder and the window so they
	// see annotated frames.
	pipe.AddObserver(overlay.NewRenderer())

	if *record {
		path := *outputPath
		if path == "" {
			path = filepath.Join("output", fmt.Sprintf("video_%s.mp4", startedAt))
		}
		rec, err := video.NewRecorder(path, recordFPS, frameWidth, frameHeight)
		if err != nil {
			return err
		}
		defer rec.Close()
		log.Info("recording annotated video", "path", path)
		pipe.AddObserver(&recordObserver{rec: rec, log: log})
	}

	if *display {
		win := gocv.NewWindow("linecam")
		defer win.Close()
		pipe.AddObserver(&windowObserver{win: win, stop: stop})
	}

	log.Info("pipeline running",
		"detector", *detectorName,
		"enter_frames", *enterFrames, "exit_frames", *exitFrames,
		"hfov", *hfov)

	if err := pipe.Run(ctx, src); err != nil {
		return err
	}
	log.Info("pipeline finished", "frames", pipe.Frames())
	return nil
}

// buildDetector binds the detector chosen on the command line. Invalid
// configuration fails here, before any frame is read.
func buildDetector() (detection.Detector, error) {
	switch *detectorName {
	case "classic":
		return detection.NewClassic(classicParamsFromFlags())
	case "dnn":
		if *weightsPath == "" {
			return nil, fmt.Errorf("-weights is required with -detector=dnn")
		}
		dnn, err := detection.NewDNN(detection.DNNParams{
			WeightsPath: *weightsPath,
			ConfigPath:  *modelConfig,
			NamesPath:   *namesFile,
			Confidence:  *confidence,
		})
		if err != nil {
			return nil, err
		}
		return detection.NewSampled(dnn, *everyN), nil
	default:
		return nil, fmt.Errorf("unknown detector %q (want classic or dnn)", *detectorName)
	}
}

func classicParamsFromFlags() detection.ClassicParams {
	p := detection.DefaultClassicParams()
	p.CannyLow = float32(*cannyLow)
	p.CannyHigh = float32(*cannyHigh)
	p.HoughVotes = *houghVotes
	p.MinLineLength = float32(*minLineLen)
	p.MaxLineGap = float32(*maxLineGap)
	p.MinArea = *minArea
	return p
}

// openSource builds the startup fallback chain for the configured source: a
// camera index tries the V4L2 backend first and then the generic one, a path
// is read as recorded footage.
func openSource(log *slog.Logger) (video.Source, error) {
	spec, isDevice := parseSource(*source)
	var chain []video.Constructor
	if isDevice {
		index := spec.(int)
		chain = []video.Constructor{
			{
				Name: fmt.Sprintf("v4l2 camera %d", index),
				Build: func() video.Source {
					return video.NewDeviceSource(index, gocv.VideoCaptureV4L2, frameWidth, frameHeight)
				},
			},
			{
				Name: fmt.Sprintf("camera %d", index),
				Build: func() video.Source {
					return video.NewDeviceSource(index, gocv.VideoCaptureAny, frameWidth, frameHeight)
				},
			},
		}
	} else {
		path := spec.(string)
		chain = []video.Constructor{
			{
				Name:  path,
				Build: func() video.Source { return video.NewFileSource(path) },
			},
		}
	}
	return video.Open(log, chain)
}

// parseSource interprets the -source flag: all digits means a camera index,
// anything else is a file path.
func parseSource(s string) (any, bool) {
	if index, err := strconv.Atoi(s); err == nil {
		return index, true
	}
	return s, false
}

// openActuator tries indicator backends in order and takes the first that
// initializes; the simulator always succeeds, so the pipeline never runs
// without an actuator.
func openActuator(log *slog.Logger) actuator.Actuator {
	type candidate struct {
		name  string
		build func() (actuator.Actuator, error)
	}

	var chain []candidate
	gpioCandidate := candidate{"gpio", func() (actuator.Actuator, error) {
		return actuator.NewGPIO(*servoPin, *ledPin, log)
	}}
	serialCandidate := candidate{"serial", func() (actuator.Actuator, error) {
		return actuator.NewSerial(*serialPort, actuator.DefaultServoChannel, actuator.DefaultLEDChannel, log)
	}}

	switch *actuatorName {
	case "gpio":
		chain = []candidate{gpioCandidate}
	case "serial":
		chain = []candidate{serialCandidate}
	case "sim":
		chain = nil
	default:
		chain = []candidate{gpioCandidate, serialCandidate}
	}

	for _, c := range chain {
		act, err := c.build()
		if err != nil {
			log.Warn("actuator backend unavailable", "backend", c.name, "error", err)
			continue
		}
		return act
	}
	log.Info("using simulated actuator")
	return actuator.NewSimulator(log)
}

func newLogger(level string) *slog.Logger {
	var l slog.Level
	switch level {
	case "debug":
		l = slog.LevelDebug
	case "warn":
		l = slog.LevelWarn
	case "error":
		l = slog.LevelError
	default:
		l = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: l}))
}

// actuatorSink maps pipeline events onto the physical indicator: the LED
// follows the debounced state, the servo follows the pointing angle
// re-centered on the servo's 90 degree midpoint.
type actuatorSink struct {
	act actuator.Actuator
}

func (s *actuatorSink) Write(ev pipeline.Event) error {
	if err := s.act.SetHazard(ev.State == hazard.StateHazard); err != nil {
		return err
	}
	return s.act.SetAngle(90 + ev.AngleDeg)
}

// recordObserver appends annotated frames to the output video.
type recordObserver struct {
	rec *video.Recorder
	log *slog.Logger
}

func (r *recordObserver) ObserveFrame(frame *gocv.Mat, _ pipeline.Event) {
	if err := r.rec.Write(*frame); err != nil {
		r.log.Warn("video recorder write failed", "error", err)
	}
}

// windowObserver shows annotated frames and turns a q keypress into a stop
// request, observed by the loop between frames.
type windowObserver struct {
	win  *gocv.Window
	stop context.CancelFunc
}

func (w *windowObserver) ObserveFrame(frame *gocv.Mat, _ pipeline.Event) {
	w.win.IMShow(*frame)
	if w.win.WaitKey(1) == 'q' {
		w.stop()
	}
}
