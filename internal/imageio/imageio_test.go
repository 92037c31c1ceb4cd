package imageio

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/bmp"

	"github.com/grapholex/grapholex/internal/model"
)

func TestImageID(t *testing.T) {
	t.Parallel()

	data := []byte("signature bytes")
	id := ImageID(data, 80, 25)

	_, err := uuid.Parse(id)
	require.NoError(t, err)
	assert.Equal(t, id, ImageID(data, 80, 25))
	assert.NotEqual(t, id, ImageID(data, 80, 30))
	assert.NotEqual(t, id, ImageID([]byte("other bytes"), 80, 25))
	assert.Len(t, Fingerprint(data), 64)
}

func TestCalibrationID(t *testing.T) {
	t.Parallel()

	crop := model.CropBox{Left: 10, Top: 20, Width: 800, Height: 250}
	id := CalibrationID("img", crop, 80, 25)

	assert.Equal(t, id, CalibrationID("img", crop, 80, 25))
	assert.NotEqual(t, id, CalibrationID("img", model.CropBox{Left: 11, Top: 20, Width: 800, Height: 250}, 80, 25))
	assert.NotEqual(t, id, CalibrationID("img", crop, 80.5, 25))
	assert.NotEqual(t, id, CalibrationID("other", crop, 80, 25))
}

// stroke returns a white page with a horizontal ink line through the middle.
func stroke(w, h int) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = 255
	}
	for x := 5; x < w-5; x++ {
		img.SetGray(x, h/2, color.Gray{Y: 0})
	}
	return img
}

func TestDecodeGray(t *testing.T) {
	t.Parallel()

	src := stroke(40, 20)

	var pngBuf, bmpBuf bytes.Buffer
	require.NoError(t, png.Encode(&pngBuf, src))
	require.NoError(t, bmp.Encode(&bmpBuf, src))

	for name, data := range map[string][]byte{"png": pngBuf.Bytes(), "bmp": bmpBuf.Bytes()} {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			mat, err := DecodeGray(data)
			require.NoError(t, err)
			defer mat.Close()

			assert.Equal(t, 40, mat.Cols())
			assert.Equal(t, 20, mat.Rows())

			gray, err := MatToGray(mat)
			require.NoError(t, err)
			assert.Equal(t, src.Pix, gray.Pix)
		})
	}

	t.Run("not an image", func(t *testing.T) {
		t.Parallel()

		mat, err := DecodeGray([]byte("definitely not a raster"))
		defer mat.Close()
		assert.True(t, errors.Is(err, model.ErrImageDecode))
	})

	t.Run("empty", func(t *testing.T) {
		t.Parallel()

		mat, err := DecodeGray(nil)
		defer mat.Close()
		assert.True(t, errors.Is(err, model.ErrImageDecode))
	})
}

func TestEncodePNG(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, stroke(30, 10)))

	mat, err := DecodeGray(buf.Bytes())
	require.NoError(t, err)
	defer mat.Close()

	out, err := EncodePNG(mat)
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 30, 10), img.Bounds())
}

func TestReadResolution_NoExif(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, stroke(10, 10)))

	_, ok := ReadResolution(buf.Bytes())
	assert.False(t, ok)
}

func TestResolution_PxPerMM(t *testing.T) {
	t.Parallel()

	r := Resolution{XPxPerMM: 300 / 25.4, YPxPerMM: 600 / 25.4}
	assert.InDelta(t, 450/25.4, r.PxPerMM(), 1e-12)
}

func TestParseRational(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want float64
	}{
		{"300/1", 300},
		{"[300/1]", 300},
		{" 2 ", 2},
		{"[72/1 72/1]", 72},
		{"600/2", 300},
		{"abc", 0},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			assert.InDelta(t, tt.want, parseRational(tt.in), 1e-12)
		})
	}
}
