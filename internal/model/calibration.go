package model

import "image"

// CropBox is the tight ink bounding box in source-image pixels.
type CropBox struct {
	Left   int `json:"left"`
	Top    int `json:"top"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Rect returns the box as an image.Rectangle.
func (b CropBox) Rect() image.Rectangle {
	return image.Rect(b.Left, b.Top, b.Left+b.Width, b.Top+b.Height)
}

// Empty reports whether the box has no area.
func (b CropBox) Empty() bool {
	return b.Width <= 0 || b.Height <= 0
}

// CropBoxFromRect converts an image.Rectangle into a CropBox.
func CropBoxFromRect(r image.Rectangle) CropBox {
	return CropBox{
		Left:   r.Min.X,
		Top:    r.Min.Y,
		Width:  r.Dx(),
		Height: r.Dy(),
	}
}

// CalibrationResult maps one SignatureImage onto physical units.
// It is immutable once produced.
type CalibrationResult struct {
	// ID is derived from the image ID, crop box and declared size, so that
	// calibrating the same input twice yields the same ID.
	ID string `json:"id"`

	// ImageID is the SignatureImage this result was derived from.
	ImageID string `json:"image_id"`

	// Crop is the detected ink extent.
	Crop CropBox `json:"crop"`

	// DeclaredWidthMM and DeclaredHeightMM echo the user input.
	DeclaredWidthMM  float64 `json:"declared_width_mm"`
	DeclaredHeightMM float64 `json:"declared_height_mm"`

	// PxPerMMX and PxPerMMY are computed independently per axis.
	PxPerMMX float64 `json:"px_per_mm_x"`
	PxPerMMY float64 `json:"px_per_mm_y"`

	// PxPerMM is the isotropic scale used for feature extraction.
	PxPerMM float64 `json:"px_per_mm"`

	// Confidence in [0,1] blends edge crispness, axis agreement and contrast.
	Confidence float64 `json:"confidence"`

	// NeedsManualAdjustment is set whenever Confidence is below the
	// manual adjustment threshold.
	NeedsManualAdjustment bool `json:"needs_manual_adjustment"`

	// InkCoverage is the fraction of the page classified as ink.
	InkCoverage float64 `json:"ink_coverage"`

	// ScanPxPerMM is the scanner resolution recorded in EXIF, if any.
	ScanPxPerMM float64 `json:"scan_px_per_mm,omitempty"`

	// Failed marks a best-effort result returned alongside an input defect.
	Failed bool `json:"failed"`

	// Cropped is the derived cropped image, PNG encoded.
	Cropped []byte `json:"-"`
}

// Usable reports whether features may be extracted from the result.
func (c *CalibrationResult) Usable() bool {
	return c != nil && !c.Failed && c.PxPerMM > 0 && len(c.Cropped) > 0
}
