package imageio

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"

	// Standard and extended raster formats for the fallback decoder.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"gocv.io/x/gocv"

	"github.com/grapholex/grapholex/internal/model"
)

// DecodeGray decodes data into a single-channel 8-bit Mat.
// OpenCV is tried first; formats it cannot read (for example some TIFF
// and WebP variants in minimal OpenCV builds) go through the image
// registry. The caller owns the returned Mat and must Close it.
func DecodeGray(data []byte) (gocv.Mat, error) {
	if len(data) == 0 {
		return gocv.NewMat(), fmt.Errorf("%w: empty input", model.ErrImageDecode)
	}

	mat, err := gocv.IMDecode(data, gocv.IMReadGrayScale)
	if err == nil && !mat.Empty() {
		return mat, nil
	}
	mat.Close()

	img, format, decErr := image.Decode(bytes.NewReader(data))
	if decErr != nil {
		return gocv.NewMat(), fmt.Errorf("%w: %w", model.ErrImageDecode, decErr)
	}

	gray := ToGray(img)
	b := gray.Bounds()
	if b.Empty() {
		return gocv.NewMat(), fmt.Errorf("%w: %s image has no pixels", model.ErrImageDecode, format)
	}

	out, err := gocv.NewMatFromBytes(b.Dy(), b.Dx(), gocv.MatTypeCV8UC1, gray.Pix)
	if err != nil {
		return gocv.NewMat(), fmt.Errorf("%w: %w", model.ErrImageDecode, err)
	}
	return out, nil
}

// ToGray converts any image into a tightly packed *image.Gray whose
// bounds start at the origin.
func ToGray(img image.Image) *image.Gray {
	b := img.Bounds()
	if g, ok := img.(*image.Gray); ok && b.Min == image.Pt(0, 0) && g.Stride == b.Dx() {
		return g
	}
	out := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(out, out.Bounds(), img, b.Min, draw.Src)
	return out
}

// MatToGray copies a CV_8UC1 Mat into an *image.Gray.
func MatToGray(mat gocv.Mat) (*image.Gray, error) {
	if mat.Empty() {
		return nil, fmt.Errorf("%w: empty matrix", model.ErrImageDecode)
	}
	if mat.Type() != gocv.MatTypeCV8UC1 {
		return nil, fmt.Errorf("%w: expected 8-bit single channel, got %v", model.ErrImageDecode, mat.Type())
	}
	rows, cols := mat.Rows(), mat.Cols()
	src := mat
	if !mat.IsContinuous() {
		src = mat.Clone()
		defer src.Close()
	}
	pix := src.ToBytes()
	out := image.NewGray(image.Rect(0, 0, cols, rows))
	copy(out.Pix, pix)
	return out, nil
}

// EncodePNG encodes a Mat as PNG.
func EncodePNG(mat gocv.Mat) ([]byte, error) {
	buf, err := gocv.IMEncode(gocv.PNGFileExt, mat)
	if err != nil {
		return nil, err
	}
	defer buf.Close()

	return bytes.Clone(buf.GetBytes()), nil
}
