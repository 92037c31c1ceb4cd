package preprocess

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"math"

	"gocv.io/x/gocv"

	"github.com/grapholex/grapholex/internal/imageio"
	"github.com/grapholex/grapholex/internal/model"
)

// Default tuning values.
const (
	// DefaultMedianKernel is the aperture of the denoising median filter.
	DefaultMedianKernel = 3

	// DefaultMinContrast is the grey-level spread below which a crop is
	// treated as blank paper.
	DefaultMinContrast = 24

	// DefaultMinComponentArea drops specks smaller than this many pixels
	// from the mask before any feature sees it.
	DefaultMinComponentArea = 4
)

// Component is an 8-connected blob of ink.
type Component struct {
	Box      image.Rectangle
	Area     int
	Centroid Point
}

// Point is a sub-pixel position.
type Point struct {
	X, Y float64
}

// Contour is a closed boundary of the mask.
type Contour struct {
	Points    []image.Point
	Box       image.Rectangle
	Area      float64
	Perimeter float64
	HullArea  float64

	// Hole is true for inner boundaries, i.e. loops enclosed by ink.
	Hole bool
}

// Representation holds the intermediate products of one cropped signature.
// Every field is derived deterministically from the calibrated image.
type Representation struct {
	// Gray is the cropped image before denoising; ink is dark.
	Gray *image.Gray

	// Threshold is the Otsu level separating ink from paper.
	Threshold float64

	Mask       *Bitmap
	Skeleton   *Bitmap
	Graph      *Graph
	Components []Component
	Contours   []Contour

	// StrokeWidths holds the local stroke width in pixels at every
	// skeleton pixel, in scan order.
	StrokeWidths []float64

	// EdgeStrength holds the Sobel gradient magnitude at every mask
	// boundary pixel, in scan order.
	EdgeStrength []float64

	// PxPerMM is the calibration scale.
	PxPerMM float64
}

// Options tunes the Preprocessor.
type Options struct {
	MedianKernel     int
	MinContrast      float64
	MinComponentArea int
}

// DefaultOptions returns the reference tuning.
func DefaultOptions() Options {
	return Options{
		MedianKernel:     DefaultMedianKernel,
		MinContrast:      DefaultMinContrast,
		MinComponentArea: DefaultMinComponentArea,
	}
}

// Preprocessor binarizes and skeletonizes calibrated signatures.
type Preprocessor struct {
	opts   Options
	logger *slog.Logger
}

// Option configures a Preprocessor.
type Option func(*Preprocessor)

// WithOptions replaces the default tuning.
func WithOptions(opts Options) Option {
	return func(p *Preprocessor) {
		p.opts = opts
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Preprocessor) {
		p.logger = logger
	}
}

// New creates a Preprocessor.
func New(opts ...Option) *Preprocessor {
	p := &Preprocessor{opts: DefaultOptions()}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	return p
}

// Process builds the representations of a calibrated signature.
// It returns ErrCalibrationFailed for unusable calibrations and
// ErrEmptySignature when thresholding leaves no ink.
func (p *Preprocessor) Process(ctx context.Context, cal *model.CalibrationResult) (*Representation, error) {
	if !cal.Usable() {
		return nil, model.ErrCalibrationFailed
	}
	gray, err := imageio.DecodeGray(cal.Cropped)
	if err != nil {
		return nil, err
	}
	defer gray.Close()

	return p.ProcessMat(ctx, gray, cal.PxPerMM)
}

// ProcessMat builds the representations of a cropped grayscale Mat.
func (p *Preprocessor) ProcessMat(ctx context.Context, gray gocv.Mat, pxPerMM float64) (*Representation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	original, err := imageio.MatToGray(gray)
	if err != nil {
		return nil, err
	}

	denoised := gocv.NewMat()
	defer denoised.Close()
	gocv.MedianBlur(gray, &denoised, p.opts.medianKernel())

	lo, hi, _, _ := gocv.MinMaxLoc(denoised)
	if float64(hi-lo) < p.opts.MinContrast {
		return nil, model.ErrEmptySignature
	}

	binary := gocv.NewMat()
	defer binary.Close()
	threshold := gocv.Threshold(denoised, &binary, 0, 255, gocv.ThresholdBinaryInv|gocv.ThresholdOtsu)

	mask, components, err := p.components(binary)
	if err != nil {
		return nil, err
	}
	if len(components) == 0 {
		return nil, model.ErrEmptySignature
	}

	rep := &Representation{
		Gray:       original,
		Threshold:  float64(threshold),
		Mask:       mask,
		Components: components,
		PxPerMM:    pxPerMM,
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	clean, err := gocv.NewMatFromBytes(mask.H, mask.W, gocv.MatTypeCV8UC1, mask.Bytes())
	if err != nil {
		return nil, fmt.Errorf("mask matrix: %w", err)
	}
	defer clean.Close()

	rep.Contours = contours(clean)

	rep.Skeleton = Thin(mask)
	rep.Graph = Analyze(rep.Skeleton)

	widths, err := strokeWidths(clean, rep.Skeleton)
	if err != nil {
		return nil, err
	}
	rep.StrokeWidths = widths

	edges, err := edgeStrength(denoised, mask)
	if err != nil {
		return nil, err
	}
	rep.EdgeStrength = edges

	p.logger.Debug("preprocessed signature",
		"components", len(rep.Components),
		"contours", len(rep.Contours),
		"skeleton_pixels", rep.Skeleton.Count(),
		"junctions", len(rep.Graph.Junctions),
	)
	return rep, nil
}

func (o Options) medianKernel() int {
	k := o.MedianKernel
	if k < 3 {
		return 3
	}
	if k%2 == 0 {
		k++
	}
	return k
}

// components labels the binary image, drops specks and returns the
// cleaned mask along with the surviving components in label order.
func (p *Preprocessor) components(binary gocv.Mat) (*Bitmap, []Component, error) {
	labels := gocv.NewMat()
	defer labels.Close()
	stats := gocv.NewMat()
	defer stats.Close()
	centroids := gocv.NewMat()
	defer centroids.Close()

	n := gocv.ConnectedComponentsWithStats(binary, &labels, &stats, &centroids)

	keep := make([]bool, n)
	comps := make([]Component, 0, n)
	for i := 1; i < n; i++ {
		area := int(stats.GetIntAt(i, int(gocv.CC_STAT_AREA)))
		if area < p.opts.MinComponentArea {
			continue
		}
		keep[i] = true
		left := int(stats.GetIntAt(i, int(gocv.CC_STAT_LEFT)))
		top := int(stats.GetIntAt(i, int(gocv.CC_STAT_TOP)))
		w := int(stats.GetIntAt(i, int(gocv.CC_STAT_WIDTH)))
		h := int(stats.GetIntAt(i, int(gocv.CC_STAT_HEIGHT)))
		comps = append(comps, Component{
			Box:  image.Rect(left, top, left+w, top+h),
			Area: area,
			Centroid: Point{
				X: centroids.GetDoubleAt(i, 0),
				Y: centroids.GetDoubleAt(i, 1),
			},
		})
	}

	lab, err := labels.DataPtrInt32()
	if err != nil {
		return nil, nil, fmt.Errorf("component labels: %w", err)
	}
	mask := NewBitmap(binary.Cols(), binary.Rows())
	for i, l := range lab {
		if l > 0 && keep[l] {
			mask.Pix[i] = true
		}
	}
	return mask, comps, nil
}

// contours returns outer boundaries and holes of the mask, with their
// convex hull areas.
func contours(mask gocv.Mat) []Contour {
	hierarchy := gocv.NewMat()
	defer hierarchy.Close()

	found := gocv.FindContoursWithParams(mask, &hierarchy, gocv.RetrievalCComp, gocv.ChainApproxNone)
	defer found.Close()

	out := make([]Contour, 0, found.Size())
	for i := 0; i < found.Size(); i++ {
		pv := found.At(i)
		pts := pv.ToPoints()
		c := Contour{
			Points:    pts,
			Box:       gocv.BoundingRect(pv),
			Area:      gocv.ContourArea(pv),
			Perimeter: gocv.ArcLength(pv, true),
		}
		c.HullArea = hullArea(pv, pts, c.Area)

		// Each hierarchy entry is [next, previous, first child, parent].
		if !hierarchy.Empty() {
			c.Hole = hierarchy.GetVeciAt(0, i)[3] >= 0
		}
		out = append(out, c)
	}
	return out
}

func hullArea(pv gocv.PointVector, pts []image.Point, fallback float64) float64 {
	if len(pts) < 3 {
		return fallback
	}
	hull := gocv.NewMat()
	defer hull.Close()
	gocv.ConvexHull(pv, &hull, false, false)

	hullPts := make([]image.Point, 0, hull.Rows())
	for j := 0; j < hull.Rows(); j++ {
		idx := int(hull.GetIntAt(j, 0))
		if idx >= 0 && idx < len(pts) {
			hullPts = append(hullPts, pts[idx])
		}
	}
	if len(hullPts) < 3 {
		return fallback
	}
	hpv := gocv.NewPointVectorFromPoints(hullPts)
	defer hpv.Close()
	return math.Max(gocv.ContourArea(hpv), fallback)
}

// strokeWidths samples the distance transform of the mask along the
// skeleton. A pixel at distance d from paper sits in a stroke about
// 2d-1 pixels wide.
func strokeWidths(mask gocv.Mat, skel *Bitmap) ([]float64, error) {
	dist := gocv.NewMat()
	defer dist.Close()
	labels := gocv.NewMat()
	defer labels.Close()
	gocv.DistanceTransform(mask, &dist, &labels, gocv.DistL2, gocv.DistanceMask5, gocv.DistanceLabelCComp)

	d, err := dist.DataPtrFloat32()
	if err != nil {
		return nil, fmt.Errorf("distance transform: %w", err)
	}
	widths := make([]float64, 0, skel.Count())
	for i, on := range skel.Pix {
		if on {
			widths = append(widths, math.Max(1, 2*float64(d[i])-1))
		}
	}
	return widths, nil
}

// edgeStrength samples the Sobel gradient magnitude of the denoised image
// on the mask boundary.
func edgeStrength(gray gocv.Mat, mask *Bitmap) ([]float64, error) {
	gx := gocv.NewMat()
	defer gx.Close()
	gy := gocv.NewMat()
	defer gy.Close()
	gocv.Sobel(gray, &gx, gocv.MatTypeCV32F, 1, 0, 3, 1, 0, gocv.BorderDefault)
	gocv.Sobel(gray, &gy, gocv.MatTypeCV32F, 0, 1, 3, 1, 0, gocv.BorderDefault)

	dx, err := gx.DataPtrFloat32()
	if err != nil {
		return nil, fmt.Errorf("sobel x: %w", err)
	}
	dy, err := gy.DataPtrFloat32()
	if err != nil {
		return nil, fmt.Errorf("sobel y: %w", err)
	}

	out := make([]float64, 0, mask.Count()/2)
	for y := 0; y < mask.H; y++ {
		for x := 0; x < mask.W; x++ {
			if !mask.IsBoundary(x, y) {
				continue
			}
			i := y*mask.W + x
			out = append(out, math.Hypot(float64(dx[i]), float64(dy[i])))
		}
	}
	return out, nil
}
