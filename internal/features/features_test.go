package features

import (
	"context"
	"errors"
	"image"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grapholex/grapholex/internal/calibrate"
	"github.com/grapholex/grapholex/internal/model"
	"github.com/grapholex/grapholex/internal/preprocess"
	"github.com/grapholex/grapholex/internal/profile"
	"github.com/grapholex/grapholex/internal/sigtest"
)

// extract draws, calibrates and extracts a synthetic signature. The declared
// size is fixed, so a larger style scale reads as a finer scan.
func extract(t *testing.T, style sigtest.Style) *model.FeatureVector {
	t.Helper()

	c := sigtest.Signature(style)
	defer c.Close()
	data, err := c.PNG()
	require.NoError(t, err)

	cal, err := calibrate.New().Calibrate(context.Background(), data, 50, 12)
	require.NoError(t, err)

	fv, err := New().Extract(context.Background(), cal)
	require.NoError(t, err)
	return fv
}

func TestExtractor_Extract(t *testing.T) {
	t.Parallel()

	t.Run("fluent signature", func(t *testing.T) {
		t.Parallel()

		fv := extract(t, sigtest.DefaultStyle())

		assert.Equal(t, Version, fv.ExtractorVersion)
		assert.NotEmpty(t, fv.ImageID)
		assert.NotEmpty(t, fv.CalibrationID)

		for _, name := range []model.FeatureName{
			model.FeatureAspectRatio,
			model.FeatureStrokeWidthMean,
			model.FeatureStrokeWidthStd,
			model.FeatureEdgeGradient,
			model.FeatureMeanCurvature,
			model.FeatureInkDensity,
			model.FeatureCentroidX,
			model.FeatureCentroidY,
			model.FeatureComponentCount,
			model.FeatureFragmentation,
			model.FeatureStrokeLength,
			model.FeaturePressureMean,
			model.FeatureReadability,
			model.FeatureLoopArea,
			model.FeatureSpacing,
			model.FeatureVelocity,
			model.FeatureFluidity,
			model.FeatureNaturalness,
		} {
			assert.True(t, fv.Has(name), "missing %s", name)
		}

		hist, ok := fv.Histogram(model.FeatureCurvatureHistogram)
		require.True(t, ok)
		assert.Len(t, hist, CurvatureBins)

		_, ok = fv.Label(model.FeatureStyle)
		assert.True(t, ok)
		_, ok = fv.Label(model.ReadabilityLevelFeature)
		assert.True(t, ok)

		nat, _ := fv.Value(model.FeatureNaturalness)
		assert.GreaterOrEqual(t, nat, 0.0)
		assert.LessOrEqual(t, nat, 1.0)

		count, _ := fv.Value(model.FeatureComponentCount)
		assert.GreaterOrEqual(t, count, 3.0, "trace, underline and dot")

		loops, _ := fv.Value(model.FeatureLoopArea)
		assert.Positive(t, loops)
	})

	t.Run("deterministic", func(t *testing.T) {
		t.Parallel()

		a := extract(t, sigtest.DefaultStyle())
		b := extract(t, sigtest.DefaultStyle())
		assert.Equal(t, a, b)
	})

	t.Run("physical size survives a higher scan resolution", func(t *testing.T) {
		t.Parallel()

		low := extract(t, sigtest.DefaultStyle())
		hi := sigtest.DefaultStyle()
		hi.Scale = 2
		hi.Thickness = 6
		high := extract(t, hi)

		a, _ := low.Value(model.FeatureStrokeLength)
		b, _ := high.Value(model.FeatureStrokeLength)
		assert.InEpsilon(t, a, b, 0.25)

		a, _ = low.Value(model.FeatureAspectRatio)
		b, _ = high.Value(model.FeatureAspectRatio)
		assert.InEpsilon(t, a, b, 0.1)
	})

	t.Run("tremor lowers fluidity", func(t *testing.T) {
		t.Parallel()

		smooth := extract(t, sigtest.DefaultStyle())
		shaky := sigtest.DefaultStyle()
		shaky.Tremor = 2.5
		traced := extract(t, shaky)

		a, _ := smooth.Value(model.FeatureFluidity)
		b, _ := traced.Value(model.FeatureFluidity)
		assert.Greater(t, a, b)
	})

	t.Run("failed calibration", func(t *testing.T) {
		t.Parallel()

		_, err := New().Extract(context.Background(), &model.CalibrationResult{Failed: true, PxPerMM: 10, Cropped: []byte{1}})
		assert.True(t, errors.Is(err, model.ErrCalibrationFailed))
	})
}

func TestMeasurements_Inclination(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		draw func(b *preprocess.Bitmap)
		want float64
		ok   bool
	}{
		{
			name: "rising diagonal",
			draw: func(b *preprocess.Bitmap) {
				for x := 0; x < 20; x++ {
					b.Set(x, 19-x, true)
				}
			},
			want: 45,
			ok:   true,
		},
		{
			name: "horizontal",
			draw: func(b *preprocess.Bitmap) {
				for x := 0; x < 20; x++ {
					b.Set(x, 10, true)
				}
			},
			want: 0,
			ok:   true,
		},
		{
			name: "square blob has no axis",
			draw: func(b *preprocess.Bitmap) {
				for y := 5; y < 15; y++ {
					for x := 5; x < 15; x++ {
						b.Set(x, y, true)
					}
				}
			},
		},
		{
			name: "too few pixels",
			draw: func(b *preprocess.Bitmap) {
				b.Set(1, 1, true)
				b.Set(2, 2, true)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			mask := preprocess.NewBitmap(20, 20)
			tt.draw(mask)
			m := &measurements{rep: &preprocess.Representation{Mask: mask}, ppm: 10}

			got, ok := m.inclination()
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.InDelta(t, tt.want, got, 1e-6)
			}
		})
	}
}

func TestTurningAngles(t *testing.T) {
	t.Parallel()

	straight := preprocess.Path{}
	for x := 0; x < 20; x++ {
		straight.Points = append(straight.Points, image.Pt(x, 0))
	}
	turns := turningAngles([]preprocess.Path{straight}, 5)
	require.Len(t, turns, 10)
	for _, tr := range turns {
		assert.InDelta(t, 0, tr.Angle, 1e-9)
		assert.InDelta(t, 5, tr.Span, 1e-9)
	}

	corner := preprocess.Path{}
	for x := 0; x <= 5; x++ {
		corner.Points = append(corner.Points, image.Pt(x, 0))
	}
	for y := 1; y <= 5; y++ {
		corner.Points = append(corner.Points, image.Pt(5, y))
	}
	turns = turningAngles([]preprocess.Path{corner}, 5)
	require.Len(t, turns, 1)
	assert.InDelta(t, math.Pi/2, turns[0].Angle, 1e-9)

	short := preprocess.Path{Points: []image.Point{{0, 0}, {1, 0}, {2, 0}}}
	assert.Empty(t, turningAngles([]preprocess.Path{short}, 5))
}

func TestHistogram(t *testing.T) {
	t.Parallel()

	hist := histogram([]turn{{Angle: 0}, {Angle: math.Pi}, {Angle: math.Pi / 2}, {Angle: 0.1}}, 8)
	require.Len(t, hist, 8)
	assert.InDelta(t, 0.5, hist[0], 1e-9)
	assert.InDelta(t, 0.25, hist[4], 1e-9)
	assert.InDelta(t, 0.25, hist[7], 1e-9)

	assert.Nil(t, histogram(nil, 8))
}

func TestJitterRatio(t *testing.T) {
	t.Parallel()

	line := preprocess.Path{}
	for x := 0; x < 21; x++ {
		line.Points = append(line.Points, image.Pt(x, 0))
	}
	r, ok := jitterRatio([]preprocess.Path{line}, 5)
	require.True(t, ok)
	assert.InDelta(t, 1.0, r, 1e-9)

	zigzag := preprocess.Path{}
	for x := 0; x < 21; x++ {
		zigzag.Points = append(zigzag.Points, image.Pt(x, x%2))
	}
	r, ok = jitterRatio([]preprocess.Path{zigzag}, 5)
	require.True(t, ok)
	assert.Greater(t, r, 1.2)

	_, ok = jitterRatio(nil, 5)
	assert.False(t, ok)
}

func TestClassifyStyle(t *testing.T) {
	t.Parallel()

	p := profile.Default().Style
	tests := []struct {
		name               string
		areaCV, incl, curv float64
		want               model.Style
	}{
		{"regular", 0.2, 5, 0.2, model.StyleRegular},
		{"cursive", 0.8, 5, 1.2, model.StyleCursive},
		{"inclined", 0.8, -25, 0.5, model.StyleInclined},
		{"mixed", 0.8, 17, 0.5, model.StyleMixed},
		{"regular needs uniform components", 0.6, 5, 0.2, model.StyleMixed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, classifyStyle(p, tt.areaCV, tt.incl, tt.curv))
		})
	}
}

func TestReadabilityLevel(t *testing.T) {
	t.Parallel()

	assert.Equal(t, model.ReadabilityHigh, readabilityLevel(0.71))
	assert.Equal(t, model.ReadabilityMedium, readabilityLevel(0.7))
	assert.Equal(t, model.ReadabilityMedium, readabilityLevel(0.41))
	assert.Equal(t, model.ReadabilityLow, readabilityLevel(0.4))
}

func TestCoefficientOfVariation(t *testing.T) {
	t.Parallel()

	assert.Zero(t, coefficientOfVariation(nil))
	assert.Zero(t, coefficientOfVariation([]float64{3}))
	assert.Zero(t, coefficientOfVariation([]float64{2, 2, 2}))
	assert.InDelta(t, 0.5, coefficientOfVariation([]float64{1, 3}), 1e-9)
}

func TestDescribe(t *testing.T) {
	t.Parallel()

	p := profile.Default()

	q := model.NewFeatureVector("q", "qc")
	q.SetValue(model.FeatureInclination, 10)
	q.SetValue(model.FeatureSpacing, 4)
	q.SetValue(model.FeatureVelocity, 0.5)
	q.SetLabel(model.FeatureStyle, string(model.StyleCursive))

	r := model.NewFeatureVector("r", "rc")
	r.SetValue(model.FeatureInclination, 15)
	r.SetValue(model.FeatureSpacing, 12)
	r.SetLabel(model.FeatureStyle, string(model.StyleCursive))

	obs := Describe(q, r, p)
	require.Len(t, obs, 3)

	assert.Equal(t, model.FeatureInclination, obs[0].Feature)
	assert.True(t, obs[0].Consistent, "difference equal to the tolerance is consistent")
	assert.Equal(t, "10.00", obs[0].Questioned)

	assert.Equal(t, model.FeatureSpacing, obs[1].Feature)
	assert.False(t, obs[1].Consistent)
	assert.InDelta(t, 8, obs[1].Difference, 1e-9)

	assert.Equal(t, model.FeatureStyle, obs[2].Feature)
	assert.True(t, obs[2].Consistent)
}
