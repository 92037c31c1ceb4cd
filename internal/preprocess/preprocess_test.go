package preprocess

import (
	"context"
	"errors"
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grapholex/grapholex/internal/calibrate"
	"github.com/grapholex/grapholex/internal/model"
	"github.com/grapholex/grapholex/internal/sigtest"
)

// parseBitmap builds a bitmap from rows where '#' is ink.
func parseBitmap(rows ...string) *Bitmap {
	b := NewBitmap(len(rows[0]), len(rows))
	for y, row := range rows {
		for x, c := range row {
			if c == '#' {
				b.Set(x, y, true)
			}
		}
	}
	return b
}

func TestThin(t *testing.T) {
	t.Parallel()

	t.Run("filled bar thins to a one pixel stroke", func(t *testing.T) {
		t.Parallel()

		mask := NewBitmap(40, 11)
		for y := 3; y < 8; y++ {
			for x := 5; x < 35; x++ {
				mask.Set(x, y, true)
			}
		}

		skel := Thin(mask)

		assert.Equal(t, 150, mask.Count(), "input must be left untouched")
		assert.Positive(t, skel.Count())
		for y := 0; y+1 < skel.H; y++ {
			for x := 0; x+1 < skel.W; x++ {
				block := skel.At(x, y) && skel.At(x+1, y) && skel.At(x, y+1) && skel.At(x+1, y+1)
				assert.False(t, block, "2x2 ink block at (%d,%d)", x, y)
			}
		}
	})

	t.Run("skeleton is a subset of the mask", func(t *testing.T) {
		t.Parallel()

		mask := parseBitmap(
			"..........",
			".######...",
			".#######..",
			".##...###.",
			".##...###.",
			".#######..",
			"..........",
		)
		skel := Thin(mask)
		for i, on := range skel.Pix {
			if on {
				assert.True(t, mask.Pix[i])
			}
		}
	})

	t.Run("one pixel line is stable", func(t *testing.T) {
		t.Parallel()

		line := parseBitmap(
			".......",
			".#####.",
			".......",
		)
		assert.Equal(t, line.Pix, Thin(line).Pix)
	})
}

func TestAnalyze(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		skel      *Bitmap
		endpoints int
		degrees   []int
		closed    int
	}{
		{
			name: "plus is a crossing",
			skel: parseBitmap(
				".........",
				"....#....",
				"....#....",
				"....#....",
				".#######.",
				"....#....",
				"....#....",
				"....#....",
				".........",
			),
			endpoints: 4,
			degrees:   []int{4},
		},
		{
			name: "tee is a connection",
			skel: parseBitmap(
				".........",
				".#######.",
				"....#....",
				"....#....",
				"....#....",
				".........",
			),
			endpoints: 3,
			degrees:   []int{3},
		},
		{
			name: "square outline is a closed loop",
			skel: parseBitmap(
				".......",
				".#####.",
				".#...#.",
				".#...#.",
				".#####.",
				".......",
			),
			closed: 1,
		},
		{
			name: "straight stroke",
			skel: parseBitmap(
				"........",
				".######.",
				"........",
			),
			endpoints: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			g := Analyze(tt.skel)

			assert.Len(t, g.Endpoints, tt.endpoints)
			degrees := make([]int, 0, len(g.Junctions))
			for _, j := range g.Junctions {
				degrees = append(degrees, j.Degree)
			}
			if tt.degrees == nil {
				assert.Empty(t, degrees)
			} else {
				assert.Equal(t, tt.degrees, degrees)
			}

			closed := 0
			for _, p := range g.Paths {
				if p.Closed {
					closed++
				}
			}
			assert.Equal(t, tt.closed, closed)
		})
	}
}

func TestGraph_Length(t *testing.T) {
	t.Parallel()

	g := Analyze(parseBitmap(
		"........",
		".######.",
		"........",
	))
	assert.InDelta(t, 5.0, g.Length(), 1e-9)
}

func calibratedSignature(t *testing.T, style sigtest.Style) *model.CalibrationResult {
	t.Helper()

	c := sigtest.Signature(style)
	defer c.Close()
	data, err := c.PNG()
	require.NoError(t, err)

	cal, err := calibrate.New().Calibrate(context.Background(), data, 50, 12)
	require.NoError(t, err)
	require.True(t, cal.Usable())
	return cal
}

func TestPreprocessor_Process(t *testing.T) {
	t.Parallel()

	t.Run("cursive signature", func(t *testing.T) {
		t.Parallel()

		cal := calibratedSignature(t, sigtest.DefaultStyle())
		rep, err := New().Process(context.Background(), cal)
		require.NoError(t, err)

		assert.Equal(t, cal.PxPerMM, rep.PxPerMM)
		assert.Equal(t, cal.Crop.Width, rep.Mask.W)
		assert.Equal(t, cal.Crop.Height, rep.Mask.H)
		assert.GreaterOrEqual(t, len(rep.Components), 2, "signature and detached dot")
		assert.NotEmpty(t, rep.Contours)
		assert.NotEmpty(t, rep.Graph.Paths)
		assert.Len(t, rep.StrokeWidths, rep.Skeleton.Count())
		assert.NotEmpty(t, rep.EdgeStrength)

		holes := 0
		for _, c := range rep.Contours {
			if c.Hole {
				holes++
			}
			assert.GreaterOrEqual(t, c.HullArea, c.Area)
		}
		assert.Positive(t, holes, "cursive loops enclose paper")

		for _, w := range rep.StrokeWidths {
			assert.GreaterOrEqual(t, w, 1.0)
		}
	})

	t.Run("deterministic", func(t *testing.T) {
		t.Parallel()

		cal := calibratedSignature(t, sigtest.DefaultStyle())
		p := New()

		a, err := p.Process(context.Background(), cal)
		require.NoError(t, err)
		b, err := p.Process(context.Background(), cal)
		require.NoError(t, err)

		assert.Equal(t, a.Mask.Pix, b.Mask.Pix)
		assert.Equal(t, a.Skeleton.Pix, b.Skeleton.Pix)
		assert.Equal(t, a.StrokeWidths, b.StrokeWidths)
		assert.Equal(t, a.Graph, b.Graph)
	})

	t.Run("unusable calibration", func(t *testing.T) {
		t.Parallel()

		_, err := New().Process(context.Background(), &model.CalibrationResult{Failed: true})
		assert.True(t, errors.Is(err, model.ErrCalibrationFailed))

		_, err = New().Process(context.Background(), nil)
		assert.True(t, errors.Is(err, model.ErrCalibrationFailed))
	})

	t.Run("blank crop is an empty signature", func(t *testing.T) {
		t.Parallel()

		c := sigtest.NewCanvas(200, 80)
		defer c.Close()
		data, err := c.PNG()
		require.NoError(t, err)

		cal := &model.CalibrationResult{PxPerMM: 10, Cropped: data, Crop: model.CropBoxFromRect(image.Rect(0, 0, 200, 80))}
		_, err = New().Process(context.Background(), cal)
		assert.True(t, errors.Is(err, model.ErrEmptySignature))
	})

	t.Run("cancelled context", func(t *testing.T) {
		t.Parallel()

		cal := calibratedSignature(t, sigtest.DefaultStyle())
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := New().Process(ctx, cal)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestOptions_MedianKernel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in, want int
	}{
		{0, 3},
		{3, 3},
		{4, 5},
		{7, 7},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Options{MedianKernel: tt.in}.medianKernel())
	}
}
