package detection

import (
	"fmt"
	"image"
	"os"
	"sort"
	"strings"

	"gocv.io/x/gocv"
)

// DNNParams configures the learned detector.
type DNNParams struct {
	WeightsPath string
	ConfigPath  string
	NamesPath   string
	// Confidence is the minimum accepted score; 0 means the default 0.35.
	Confidence float64
}

const (
	dnnInputSize         = 416
	defaultDNNConfidence = 0.35
)

// DNN wraps a gocv DNN backend and normalizes its output into the same
// Detection shape the classic detector produces.
type DNN struct {
	net        gocv.Net
	classNames []string
	conf       float64
}

// NewDNN loads the network and optional class names file. A missing or
// unloadable model is a startup failure, surfaced immediately and never
// retried.
func NewDNN(p DNNParams) (*DNN, error) {
	if p.WeightsPath == "" {
		return nil, fmt.Errorf("learned detector requires model weights")
	}
	net := gocv.ReadNet(p.WeightsPath, p.ConfigPath)
	if net.Empty() {
		return nil, fmt.Errorf("failed to load network from %s and %s", p.WeightsPath, p.ConfigPath)
	}
	net.SetPreferableBackend(gocv.NetBackendDefault)
	net.SetPreferableTarget(gocv.NetTargetCPU)

	var classNames []string
	if p.NamesPath != "" {
		namesBytes, err := os.ReadFile(p.NamesPath)
		if err != nil {
			net.Close()
			return nil, fmt.Errorf("could not read class names: %w", err)
		}
		classNames = strings.Split(strings.TrimSpace(string(namesBytes)), "\n")
	}

	conf := p.Confidence
	if conf <= 0 {
		conf = defaultDNNConfidence
	}
	return &DNN{net: net, classNames: classNames, conf: conf}, nil
}

// Detect runs one forward pass and converts every row above the confidence
// threshold into a Detection. Output rows are [cx, cy, w, h, box score,
// class scores...], all normalized to the frame.
func (d *DNN) Detect(frame gocv.Mat) (Set, error) {
	blob := gocv.BlobFromImage(frame, 1.0/255.0, image.Pt(dnnInputSize, dnnInputSize),
		gocv.NewScalar(0, 0, 0, 0), true, false)
	defer blob.Close()

	d.net.SetInput(blob, "")
	output := d.net.Forward("")
	defer output.Close()

	frameW := float32(frame.Cols())
	frameH := float32(frame.Rows())

	var set Set
	for i := 0; i < output.Rows(); i++ {
		row := output.RowRange(i, i+1)
		data := row.Clone()
		scores := data.ColRange(5, data.Cols())
		_, maxVal, _, maxLoc := gocv.MinMaxLoc(scores)

		if float64(maxVal) >= d.conf {
			cx := data.GetFloatAt(0, 0) * frameW
			cy := data.GetFloatAt(0, 1) * frameH
			w := data.GetFloatAt(0, 2) * frameW
			h := data.GetFloatAt(0, 3) * frameH
			left := int(cx - w/2)
			top := int(cy - h/2)

			var label string
			if maxLoc.X >= 0 && maxLoc.X < len(d.classNames) {
				label = strings.TrimSpace(d.classNames[maxLoc.X])
			}
			set = append(set, Detection{
				Rect:       image.Rect(left, top, left+int(w), top+int(h)),
				Confidence: float64(maxVal),
				Label:      label,
				Method:     MethodLearned,
			})
		}

		scores.Close()
		data.Close()
		row.Close()
	}

	// Highest confidence first so the primary detection is deterministic.
	sort.SliceStable(set, func(i, j int) bool { return set[i].Confidence > set[j].Confidence })
	return set, nil
}

// Close releases the network.
func (d *DNN) Close() error { return d.net.Close() }
