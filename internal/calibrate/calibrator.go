package calibrate

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

// Calibrator locates the ink of a scanned signature and maps it onto the
// physical size declared by the user. It holds no mutable state and is
// safe for concurrent use.
type Calibrator struct {
	opts   Options
	logger *slog.Logger
}

// Option configures a Calibrator.
type Option func(*Calibrator)

// WithOptions replaces the default tuning.
func WithOptions(opts Options) Option {
	return func(c *Calibrator) {
		c.opts = opts
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Calibrator) {
		c.logger = logger
	}
}

// New creates a Calibrator with DefaultOptions.
func New(opts ...Option) *Calibrator {
	c := &Calibrator{opts: DefaultOptions()}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	return c
}

// Options returns the tuning in use.
func (c *Calibrator) Options() Options {
	return c.opts
}

// Calibrate computes the crop box and px-per-mm scale of an encoded image
// whose signature measures widthMM x heightMM. The image ID is derived
// from the content and the declared size.
//
// On ErrInsufficientInk a best-effort result with zero confidence is
// returned together with the error so the caller can ask for a manual
// crop. Every other error returns a nil result.
func (c *Calibrator) Calibrate(ctx context.Context, data []byte, widthMM, heightMM float64) (*model.CalibrationResult, error) {
	return c.calibrate(ctx, imageio.ImageID(data, widthMM, heightMM), data, widthMM, heightMM)
}

// CalibrateImage calibrates a SignatureImage, keeping its ID.
func (c *Calibrator) CalibrateImage(ctx context.Context, img *model.SignatureImage) (*model.CalibrationResult, error) {
	id := img.ID
	if id == "" {
		id = imageio.ImageID(img.Data, img.WidthMM, img.HeightMM)
	}
	return c.calibrate(ctx, id, img.Data, img.WidthMM, img.HeightMM)
}

func (c *Calibrator) calibrate(ctx context.Context, imageID string, data []byte, widthMM, heightMM float64) (*model.CalibrationResult, error) {
	if !validDimension(widthMM) || !validDimension(heightMM) {
		return nil, fmt.Errorf("%w: got %gx%g mm", model.ErrInvalidDimensions, widthMM, heightMM)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	gray, err := imageio.DecodeGray(data)
	if err != nil {
		return nil, err
	}
	defer gray.Close()

	cols, rows := gray.Cols(), gray.Rows()

	ink := gocv.NewMat()
	defer ink.Close()
	gocv.AdaptiveThreshold(gray, &ink, 255,
		gocv.AdaptiveThresholdGaussian, gocv.ThresholdBinaryInv,
		c.opts.blockSize(rows, cols), float32(c.opts.C))

	box, inkPixels := c.inkExtent(ink)
	coverage := float64(inkPixels) / float64(rows*cols)

	result := &model.CalibrationResult{
		ImageID:          imageID,
		DeclaredWidthMM:  widthMM,
		DeclaredHeightMM: heightMM,
		InkCoverage:      coverage,
	}
	if res, ok := imageio.ReadResolution(data); ok {
		result.ScanPxPerMM = res.PxPerMM()
	}

	if inkPixels < c.opts.MinInkPixels || coverage <= c.opts.MinInkCoverage || box.Empty() {
		full := image.Rect(0, 0, cols, rows)
		c.fillScale(result, full)
		result.Crop = model.CropBoxFromRect(full)
		result.Confidence = 0
		result.NeedsManualAdjustment = true
		result.Failed = true
		result.ID = imageio.CalibrationID(imageID, result.Crop, widthMM, heightMM)

		c.logger.Warn("insufficient ink for calibration",
			"image_id", imageID,
			"ink_pixels", inkPixels,
			"coverage", coverage,
		)
		return result, fmt.Errorf("%w: %d ink pixels cover %.4f%% of the page",
			model.ErrInsufficientInk, inkPixels, coverage*100)
	}

	box = c.opts.withMargin(box, cols, rows)
	result.Crop = model.CropBoxFromRect(box)
	disagreement := c.fillScale(result, box)

	region := gray.Region(box)
	cropped := region.Clone()
	region.Close()
	defer cropped.Close()

	q, err := c.measure(cropped)
	if err != nil {
		return nil, err
	}
	if touchesFrame(box, cols, rows) {
		q.crispness *= c.opts.FrameContactPenalty
	}

	result.Confidence = c.opts.confidence(q, disagreement)
	result.NeedsManualAdjustment = result.Confidence < c.opts.ManualAdjustmentThreshold

	png, err := imageio.EncodePNG(cropped)
	if err != nil {
		return nil, fmt.Errorf("encode cropped image: %w", err)
	}
	result.Cropped = png
	result.ID = imageio.CalibrationID(imageID, result.Crop, widthMM, heightMM)

	if result.ScanPxPerMM > 0 {
		deviation := math.Abs(result.ScanPxPerMM-result.PxPerMM) / result.ScanPxPerMM
		if deviation > c.opts.RatioTolerance {
			c.logger.Warn("declared size disagrees with scanner resolution",
				"image_id", imageID,
				"px_per_mm", result.PxPerMM,
				"scan_px_per_mm", result.ScanPxPerMM,
			)
		}
	}

	c.logger.Debug("calibrated",
		"image_id", imageID,
		"crop", box.String(),
		"px_per_mm", result.PxPerMM,
		"confidence", result.Confidence,
	)
	return result, nil
}

// inkExtent returns the union of the bounding boxes of all ink components
// at least MinComponentArea pixels large, and their total area.
func (c *Calibrator) inkExtent(ink gocv.Mat) (image.Rectangle, int) {
	labels := gocv.NewMat()
	defer labels.Close()
	stats := gocv.NewMat()
	defer stats.Close()
	centroids := gocv.NewMat()
	defer centroids.Close()

	n := gocv.ConnectedComponentsWithStats(ink, &labels, &stats, &centroids)

	var box image.Rectangle
	total := 0
	for i := 1; i < n; i++ {
		area := int(stats.GetIntAt(i, int(gocv.CC_STAT_AREA)))
		if area < c.opts.MinComponentArea {
			continue
		}
		left := int(stats.GetIntAt(i, int(gocv.CC_STAT_LEFT)))
		top := int(stats.GetIntAt(i, int(gocv.CC_STAT_TOP)))
		w := int(stats.GetIntAt(i, int(gocv.CC_STAT_WIDTH)))
		h := int(stats.GetIntAt(i, int(gocv.CC_STAT_HEIGHT)))
		box = box.Union(image.Rect(left, top, left+w, top+h))
		total += area
	}
	return box, total
}

// fillScale sets the per-axis and isotropic scales from box and returns
// the relative disagreement between the two axes.
func (c *Calibrator) fillScale(result *model.CalibrationResult, box image.Rectangle) float64 {
	result.PxPerMMX = float64(box.Dx()) / result.DeclaredWidthMM
	result.PxPerMMY = float64(box.Dy()) / result.DeclaredHeightMM
	result.PxPerMM = (result.PxPerMMX + result.PxPerMMY) / 2

	hi := math.Max(result.PxPerMMX, result.PxPerMMY)
	if hi == 0 {
		return 1
	}
	return math.Abs(result.PxPerMMX-result.PxPerMMY) / hi
}

// quality holds the image-derived confidence components.
type quality struct {
	crispness float64
	contrast  float64
}

// measure splits the crop into ink and paper with Otsu's threshold and
// scores edge crispness and contrast.
func (c *Calibrator) measure(cropped gocv.Mat) (quality, error) {
	bin := gocv.NewMat()
	defer bin.Close()
	t := gocv.Threshold(cropped, &bin, 0, 255, gocv.ThresholdBinaryInv|gocv.ThresholdOtsu)

	g, err := imageio.MatToGray(cropped)
	if err != nil {
		return quality{}, err
	}
	return scoreQuality(g, float64(t), c.opts.FullContrast), nil
}

// scoreQuality computes crispness and contrast of g, where pixels at or
// below t are ink.
//
// Crispness is one minus the ratio of mid-tone pixels to twice the number
// of ink boundary pixels: a sharp scan has almost no intermediate grey
// levels around strokes, a blurred one has a wide halo.
func scoreQuality(g *image.Gray, t, fullContrast float64) quality {
	b := g.Bounds()
	w, h := b.Dx(), b.Dy()

	var inkSum, bgSum float64
	var inkN, bgN int
	for y := 0; y < h; y++ {
		row := g.Pix[y*g.Stride : y*g.Stride+w]
		for _, v := range row {
			if float64(v) <= t {
				inkSum += float64(v)
				inkN++
			} else {
				bgSum += float64(v)
				bgN++
			}
		}
	}
	if inkN == 0 || bgN == 0 {
		return quality{}
	}

	inkMean := inkSum / float64(inkN)
	bgMean := bgSum / float64(bgN)
	span := bgMean - inkMean
	if span <= 0 {
		return quality{}
	}

	lo := inkMean + span/4
	hi := bgMean - span/4
	isInk := func(x, y int) bool {
		return float64(g.Pix[y*g.Stride+x]) <= t
	}

	midtones, boundary := 0, 0
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := float64(g.Pix[y*g.Stride+x])
			if v > lo && v < hi {
				midtones++
			}
			if !isInk(x, y) {
				continue
			}
			if (x > 0 && !isInk(x-1, y)) || (x < w-1 && !isInk(x+1, y)) ||
				(y > 0 && !isInk(x, y-1)) || (y < h-1 && !isInk(x, y+1)) {
				boundary++
			}
		}
	}

	q := quality{contrast: clamp01(span / 255 / fullContrast)}
	if boundary > 0 {
		q.crispness = clamp01(1 - float64(midtones)/float64(2*boundary))
	}
	return q
}

func touchesFrame(box image.Rectangle, cols, rows int) bool {
	return box.Min.X <= 0 || box.Min.Y <= 0 || box.Max.X >= cols || box.Max.Y >= rows
}

func validDimension(v float64) bool {
	return v > 0 && !math.IsInf(v, 0) && !math.IsNaN(v)
}

func clamp01(v float64) float64 {
	switch {
	case math.IsNaN(v), v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
