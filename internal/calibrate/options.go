package calibrate

import (
	"image"
	"math"
)

// Default tuning values.
const (
	// DefaultBlockSize is the adaptive threshold neighbourhood in pixels.
	// It must be odd; 35 px spans several stroke widths at 300 dpi.
	DefaultBlockSize = 35

	// DefaultC is subtracted from the local Gaussian mean. Paper texture
	// and JPEG noise stay below it.
	DefaultC = 10.0

	// DefaultMinComponentArea drops dust specks smaller than this many pixels.
	DefaultMinComponentArea = 4

	// DefaultMinInkPixels is the least amount of ink that can be a signature.
	DefaultMinInkPixels = 50

	// DefaultMinInkCoverage rejects pages with at most 0.1% foreground.
	DefaultMinInkCoverage = 0.001

	// DefaultRatioTolerance is the accepted disagreement between the
	// width- and height-derived scales.
	DefaultRatioTolerance = 0.15

	// DefaultManualAdjustmentThreshold is the confidence below which a
	// human must check the crop.
	DefaultManualAdjustmentThreshold = 0.6

	// DefaultFullContrast is the ink/paper difference, as a fraction of
	// the 8-bit range, that earns full contrast credit.
	DefaultFullContrast = 0.5

	// DefaultFrameContactPenalty scales crispness when the ink touches the
	// image border and may have been cut off.
	DefaultFrameContactPenalty = 0.75
)

// Weights blend the confidence components. They should sum to one.
type Weights struct {
	Crispness float64
	Agreement float64
	Contrast  float64
}

// Options tunes the Calibrator.
type Options struct {
	BlockSize                 int
	C                         float64
	MinComponentArea          int
	MinInkPixels              int
	MinInkCoverage            float64
	MarginPercent             float64
	RatioTolerance            float64
	ManualAdjustmentThreshold float64
	FullContrast              float64
	FrameContactPenalty       float64
	Weights                   Weights
}

// DefaultOptions returns the reference tuning.
func DefaultOptions() Options {
	return Options{
		BlockSize:                 DefaultBlockSize,
		C:                         DefaultC,
		MinComponentArea:          DefaultMinComponentArea,
		MinInkPixels:              DefaultMinInkPixels,
		MinInkCoverage:            DefaultMinInkCoverage,
		RatioTolerance:            DefaultRatioTolerance,
		ManualAdjustmentThreshold: DefaultManualAdjustmentThreshold,
		FullContrast:              DefaultFullContrast,
		FrameContactPenalty:       DefaultFrameContactPenalty,
		Weights: Weights{
			Crispness: 0.3,
			Agreement: 0.4,
			Contrast:  0.3,
		},
	}
}

// blockSize returns an odd neighbourhood no larger than the image.
func (o Options) blockSize(rows, cols int) int {
	bs := o.BlockSize
	if bs < 3 {
		bs = 3
	}
	if limit := min(rows, cols); bs > limit {
		bs = limit
	}
	if bs%2 == 0 {
		bs--
	}
	return max(bs, 3)
}

// withMargin grows box by MarginPercent of its size and clamps it to the image.
func (o Options) withMargin(box image.Rectangle, cols, rows int) image.Rectangle {
	if o.MarginPercent > 0 {
		dx := int(math.Round(float64(box.Dx()) * o.MarginPercent / 100))
		dy := int(math.Round(float64(box.Dy()) * o.MarginPercent / 100))
		box = box.Inset(-max(dx, dy))
	}
	return box.Intersect(image.Rect(0, 0, cols, rows))
}

// confidence blends the components and penalizes axis disagreement
// beyond RatioTolerance in proportion to its size.
func (o Options) confidence(q quality, disagreement float64) float64 {
	agreement := clamp01(1 - disagreement)
	conf := o.Weights.Crispness*q.crispness +
		o.Weights.Agreement*agreement +
		o.Weights.Contrast*q.contrast
	if disagreement > o.RatioTolerance {
		conf *= clamp01(1 - disagreement)
	}
	return clamp01(conf)
}
