package scoring

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grapholex/grapholex/internal/model"
	"github.com/grapholex/grapholex/internal/profile"
)

// vector builds a complete vector whose scalar features sit shift ranges
// away from a common baseline.
func vector(id string, shift float64) *model.FeatureVector {
	p := profile.Default()
	fv := model.NewFeatureVector(id, id+"-cal")
	for _, g := range p.Groups {
		for _, f := range g.Features {
			switch f.Kind {
			case profile.KindScalar:
				fv.SetValue(f.Name, 1+shift*f.Range)
			case profile.KindHistogram:
				fv.SetHistogram(f.Name, []float64{0.5, 0.25, 0.25, 0, 0, 0, 0, 0})
			case profile.KindLabel:
				fv.SetLabel(f.Name, string(model.StyleCursive))
			}
		}
	}
	fv.SetValue(model.FeatureNaturalness, 0.9)
	return fv
}

func TestScorer_Score(t *testing.T) {
	t.Parallel()

	s := NewScorer(nil)

	t.Run("identical vectors", func(t *testing.T) {
		t.Parallel()

		res := s.Score(vector("q", 0), vector("r", 0))
		assert.Equal(t, "q", res.QuestionedID)
		assert.Equal(t, "r", res.ReferenceID)
		assert.InDelta(t, 1.0, res.Aggregate, 1e-12)
		assert.InDelta(t, 1.0, res.Coverage, 1e-12)
		assert.InDelta(t, 0.9, res.Naturalness, 1e-12)
		for _, c := range model.Categories {
			assert.InDelta(t, 1.0, res.Categories[c], 1e-12, c.String())
		}
	})

	t.Run("similarity falls as features drift apart", func(t *testing.T) {
		t.Parallel()

		q := vector("q", 0)
		prev := 1.0
		for _, shift := range []float64{0.1, 0.25, 0.5, 0.75, 1} {
			got := s.Score(q, vector("r", shift)).Aggregate
			assert.Less(t, got, prev, "shift %v", shift)
			prev = got
		}
	})

	t.Run("half a range apart", func(t *testing.T) {
		t.Parallel()

		// Histograms and labels still match, pulling the curvature group
		// and the style group up.
		res := s.Score(vector("q", 0), vector("r", 0.5))
		assert.InDelta(t, 0.55, res.Categories[model.CategoryBase], 1e-9)
		assert.InDelta(t, 7.0/13, res.Categories[model.CategoryAdvanced], 1e-9)
	})

	t.Run("missing feature renormalizes within its group", func(t *testing.T) {
		t.Parallel()

		q := vector("q", 0).Without(model.FeatureStrokeWidthStd)
		res := s.Score(q, vector("r", 0))

		assert.InDelta(t, 1.0, res.Aggregate, 1e-12)
		_, compared := res.Features[model.FeatureStrokeWidthStd]
		assert.False(t, compared)

		lost := 0.40 * (25.0 / 100) / 3
		assert.InDelta(t, 1-lost/0.70, res.Coverage, 1e-12)
	})

	t.Run("missing group renormalizes within its category", func(t *testing.T) {
		t.Parallel()

		r := vector("r", 0.5)
		r.SetValue(model.FeatureMeanCurvature, 1)
		q := vector("q", 0).Without(model.FeatureStrokeWidthMean, model.FeatureStrokeWidthStd, model.FeatureEdgeGradient)

		res := s.Score(q, r)
		// aspect 15 at 0.5, curvature 20 at 1, spatial and connectivity 40 at 0.5.
		assert.InDelta(t, (15*0.5+20*1+40*0.5)/75, res.Categories[model.CategoryBase], 1e-9)
	})

	t.Run("naturalness stays out of the aggregate", func(t *testing.T) {
		t.Parallel()

		q := vector("q", 0)
		r := vector("r", 0)
		r.SetValue(model.FeatureFluidity, 5)
		r.SetValue(model.FeaturePressureConsistency, 5)
		r.SetValue(model.FeatureMotorCoordination, 5)

		res := s.Score(q, r)
		assert.InDelta(t, 1.0, res.Aggregate, 1e-12)
		assert.InDelta(t, 0.0, res.Categories[model.CategoryNaturalness], 1e-12)
	})

	t.Run("nothing in common", func(t *testing.T) {
		t.Parallel()

		res := s.Score(model.NewFeatureVector("q", ""), vector("r", 0))
		assert.Zero(t, res.Aggregate)
		assert.Zero(t, res.Coverage)
		assert.Empty(t, res.Categories)
	})
}

func TestScorer_Aggregate(t *testing.T) {
	t.Parallel()

	s := NewScorer(profile.Default())

	t.Run("repeated reference leaves the means unchanged", func(t *testing.T) {
		t.Parallel()

		q := vector("q", 0)
		a := vector("a", 0.3)

		one, err := s.Aggregate(q, []*model.FeatureVector{a})
		require.NoError(t, err)
		three, err := s.Aggregate(q, []*model.FeatureVector{a, a, a})
		require.NoError(t, err)

		assert.InDelta(t, one.Similarity, three.Similarity, 1e-12)
		assert.InDelta(t, one.Confidence, three.Confidence, 1e-12)
		assert.Equal(t, one.Categories, three.Categories)
		assert.Zero(t, three.Spread)
		assert.Equal(t, 3, three.ReferenceCount)
	})

	t.Run("spread discounts confidence", func(t *testing.T) {
		t.Parallel()

		q := vector("q", 0)
		agg, err := s.Aggregate(q, []*model.FeatureVector{vector("a", 0), vector("b", 0.5)})
		require.NoError(t, err)

		near := s.Score(q, vector("a", 0)).Aggregate
		far := s.Score(q, vector("b", 0.5)).Aggregate
		assert.InDelta(t, (near+far)/2, agg.Similarity, 1e-12)
		assert.InDelta(t, near-far, agg.Spread, 1e-12)
		assert.InDelta(t, 1-0.5*agg.Spread, agg.Confidence, 1e-12)
		assert.InDelta(t, 0.9, agg.Naturalness, 1e-12)
	})

	t.Run("partial reference still counts", func(t *testing.T) {
		t.Parallel()

		r := vector("r", 0).Without(model.FeatureLoopConvexity, model.FeatureInclination)
		agg, err := s.Aggregate(vector("q", 0), []*model.FeatureVector{r})
		require.NoError(t, err)
		assert.Equal(t, 1, agg.ReferenceCount)
		assert.Less(t, agg.Coverage, 1.0)
		assert.True(t, agg.Partial)
	})

	t.Run("partial flag follows the vectors", func(t *testing.T) {
		t.Parallel()

		complete, err := s.Aggregate(vector("q", 0), []*model.FeatureVector{vector("r", 0)})
		require.NoError(t, err)
		assert.False(t, complete.Partial)

		q := vector("q", 0).Without(model.FeatureBaselineDeviation)
		partial, err := s.Aggregate(q, []*model.FeatureVector{vector("r", 0)})
		require.NoError(t, err)
		assert.True(t, partial.Partial)
	})

	t.Run("low coverage reference is skipped", func(t *testing.T) {
		t.Parallel()

		poor := model.NewFeatureVector("poor", "")
		poor.SetValue(model.FeatureAspectRatio, 1)

		agg, err := s.Aggregate(vector("q", 0), []*model.FeatureVector{poor, vector("good", 0)})
		require.NoError(t, err)
		assert.Equal(t, 1, agg.ReferenceCount)
		assert.Equal(t, []string{"poor"}, agg.Skipped)

		_, err = s.Aggregate(vector("q", 0), []*model.FeatureVector{poor})
		assert.True(t, errors.Is(err, model.ErrNoUsableReference))
	})

	t.Run("no references", func(t *testing.T) {
		t.Parallel()

		_, err := s.Aggregate(vector("q", 0), nil)
		assert.True(t, errors.Is(err, model.ErrNoUsableReference))
	})
}

func TestScalarSimilarity(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		a, b, rng float64
		want      float64
	}{
		{"equal", 3, 3, 1, 1},
		{"half range", 3, 3.5, 1, 0.5},
		{"symmetric", 3.5, 3, 1, 0.5},
		{"beyond range", 0, 10, 1, 0},
		{"zero range equal", 2, 2, 0, 1},
		{"zero range different", 2, 3, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.InDelta(t, tt.want, ScalarSimilarity(tt.a, tt.b, tt.rng), 1e-12)
		})
	}
}

func TestHistogramSimilarity(t *testing.T) {
	t.Parallel()

	assert.InDelta(t, 1.0, HistogramSimilarity([]float64{0.5, 0.5}, []float64{0.5, 0.5}), 1e-12)
	assert.InDelta(t, 0.0, HistogramSimilarity([]float64{1, 0}, []float64{0, 1}), 1e-12)
	assert.InDelta(t, 0.5, HistogramSimilarity([]float64{1, 0}, []float64{0.5, 0.5}), 1e-12)
	assert.InDelta(t, 0.5, HistogramSimilarity([]float64{1}, []float64{0.5, 0.5}), 1e-12)
}

func TestLabelSimilarity(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 1.0, LabelSimilarity("Cursive", "Cursive", 0.5))
	assert.Equal(t, 0.5, LabelSimilarity("Cursive", "Mixed", 0.5))
	assert.Equal(t, 0.5, LabelSimilarity("Mixed", "Regular", 0.5))
	assert.Equal(t, 0.0, LabelSimilarity("Cursive", "Regular", 0.5))
}
