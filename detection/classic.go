package detection

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"sort"

	"gocv.io/x/gocv"
)

// ClassicParams configures the classic detector. All values must be positive.
type ClassicParams struct {
	CannyLow      float32 // lower Canny threshold
	CannyHigh     float32 // upper Canny threshold
	HoughRho      float32 // Hough distance resolution in pixels
	HoughTheta    float32 // Hough angle resolution in radians
	HoughVotes    int     // minimum vote count to accept a segment
	MinLineLength float32 // minimum accepted segment length
	MaxLineGap    float32 // maximum gap merged into one segment
	MinArea       float64 // minimum contour area for a hazard region
}

// DefaultClassicParams returns the tuning used in the field.
func DefaultClassicParams() ClassicParams {
	return ClassicParams{
		CannyLow:      50,
		CannyHigh:     150,
		HoughRho:      1,
		HoughTheta:    math.Pi / 180,
		HoughVotes:    50,
		MinLineLength: 50,
		MaxLineGap:    10,
		MinArea:       800,
	}
}

// Validate reports the first invalid parameter. Invalid parameters are a
// startup failure, never retried.
func (p ClassicParams) Validate() error {
	switch {
	case p.CannyLow <= 0 || p.CannyHigh <= 0:
		return fmt.Errorf("canny thresholds must be positive, got %v/%v", p.CannyLow, p.CannyHigh)
	case p.CannyHigh < p.CannyLow:
		return fmt.Errorf("canny high threshold %v below low threshold %v", p.CannyHigh, p.CannyLow)
	case p.HoughRho <= 0:
		return fmt.Errorf("hough rho must be positive, got %v", p.HoughRho)
	case p.HoughTheta <= 0:
		return fmt.Errorf("hough theta must be positive, got %v", p.HoughTheta)
	case p.HoughVotes <= 0:
		return fmt.Errorf("hough votes must be positive, got %d", p.HoughVotes)
	case p.MinLineLength <= 0:
		return fmt.Errorf("min line length must be positive, got %v", p.MinLineLength)
	case p.MaxLineGap <= 0:
		return fmt.Errorf("max line gap must be positive, got %v", p.MaxLineGap)
	case p.MinArea <= 0:
		return fmt.Errorf("min area must be positive, got %v", p.MinArea)
	}
	return nil
}

// Boxes narrower or shorter than this are slivers left over from line
// subtraction, not real objects.
const minBoxDim = 10

// Classic detects foreign objects by subtracting fitted line segments from
// the edge map. True wires are well modeled by straight segments, so edge
// pixels the line fit cannot explain are treated as anomalies: birds, drones,
// vegetation. Cheap and explainable; brittle under heavy background clutter
// or sagging wires, which is the accepted trade-off.
type Classic struct {
	params ClassicParams
}

// NewClassic validates the parameters and builds a classic detector.
func NewClassic(params ClassicParams) (*Classic, error) {
	if err := params.Validate(); err != nil {
		return nil, fmt.Errorf("classic detector: %w", err)
	}
	return &Classic{params: params}, nil
}

// Params returns the bound parameter set.
func (c *Classic) Params() ClassicParams { return c.params }

// Detect runs the classic pipeline, discarding the intermediate masks.
func (c *Classic) Detect(frame gocv.Mat) (Set, error) {
	set, lineMask, candidates := c.DetectWithMasks(frame)
	lineMask.Close()
	candidates.Close()
	return set, nil
}

// DetectWithMasks runs the classic pipeline and also returns the line mask
// (pixels explained by fitted segments, the presumed wires) and the candidate
// mask (the hazard search space). Both masks are owned by the caller and must
// be closed.
func (c *Classic) DetectWithMasks(frame gocv.Mat) (Set, gocv.Mat, gocv.Mat) {
	p := c.params

	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(frame, &gray, gocv.ColorBGRToGray)

	blurred := gocv.NewMat()
	defer blurred.Close()
	gocv.GaussianBlur(gray, &blurred, image.Pt(5, 5), 0, 0, gocv.BorderDefault)

	edges := gocv.NewMat()
	defer edges.Close()
	gocv.Canny(blurred, &edges, p.CannyLow, p.CannyHigh)

	lines := gocv.NewMat()
	defer lines.Close()
	gocv.HoughLinesPWithParams(edges, &lines, p.HoughRho, p.HoughTheta, p.HoughVotes, p.MinLineLength, p.MaxLineGap)

	// Draw the accepted segments 2px wide. Finding no lines at all just
	// leaves the mask empty: the search space grows and false positives go
	// up, but that is not an error.
	lineMask := gocv.NewMatWithSize(frame.Rows(), frame.Cols(), gocv.MatTypeCV8UC1)
	white := color.RGBA{R: 255, G: 255, B: 255}
	for i := 0; i < lines.Rows(); i++ {
		v := lines.GetVeciAt(i, 0)
		gocv.Line(&lineMask, image.Pt(int(v[0]), int(v[1])), image.Pt(int(v[2]), int(v[3])), white, 2)
	}

	kernel := gocv.GetStructuringElement(gocv.MorphRect, image.Pt(5, 5))
	defer kernel.Close()
	dilated := gocv.NewMat()
	defer dilated.Close()
	gocv.Dilate(edges, &dilated, kernel)

	// Edge pixels not explained by the fitted lines are the hazard search
	// space.
	candidates := gocv.NewMatWithSize(frame.Rows(), frame.Cols(), gocv.MatTypeCV8UC1)
	gocv.BitwiseXor(dilated, lineMask, &candidates)

	contours := gocv.FindContours(candidates, gocv.RetrievalExternal, gocv.ChainApproxSimple)
	defer contours.Close()

	type scored struct {
		det  Detection
		area float64
	}
	var kept []scored
	for i := 0; i < contours.Size(); i++ {
		cnt := contours.At(i)
		area := gocv.ContourArea(cnt)
		if area < p.MinArea {
			continue
		}
		rect := gocv.BoundingRect(cnt)
		if rect.Dx() < minBoxDim || rect.Dy() < minBoxDim {
			continue
		}
		kept = append(kept, scored{
			det:  Detection{Rect: rect, Method: MethodClassic},
			area: area,
		})
	}

	// Contour discovery order is not guaranteed stable, so order by area to
	// make the primary detection deterministic. The stable sort keeps
	// discovery order for exact area ties.
	sort.SliceStable(kept, func(i, j int) bool { return kept[i].area > kept[j].area })

	set := make(Set, 0, len(kept))
	for _, k := range kept {
		set = append(set, k.det)
	}
	return set, lineMask, candidates
}

// Close implements Detector. The classic detector holds no resources.
func (c *Classic) Close() error { return nil }
