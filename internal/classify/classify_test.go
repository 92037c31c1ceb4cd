package classify

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"github.com/grapholex/grapholex/internal/model"
	"github.com/grapholex/grapholex/internal/profile"
)

func aggregate(sim, nat float64) *model.Aggregate {
	return &model.Aggregate{
		QuestionedID:   "q",
		Similarity:     sim,
		Naturalness:    nat,
		Coverage:       1,
		Confidence:     1,
		ReferenceCount: 1,
		Categories: map[model.Category]float64{
			model.CategoryBase:        sim,
			model.CategoryAdvanced:    sim,
			model.CategoryNaturalness: sim,
		},
		Features: map[model.FeatureName]float64{},
	}
}

func TestClassifier_DecisionTable(t *testing.T) {
	t.Parallel()

	c := New()
	tests := []struct {
		name string
		sim  float64
		nat  float64
		want model.VerdictCategory
		rule string
	}{
		{"authentic at both thresholds", 0.85, 0.80, model.VerdictAuthentic, RuleAuthentic},
		{"just below authentic similarity", 0.849999, 0.80, model.VerdictProbablyAuthentic, RuleProbablyAuthentic},
		{"just below authentic naturalness", 0.85, 0.799999, model.VerdictAuthenticDissimulated, RuleDissimulated},
		{"dissimulated lower corner", 0.75, 0.50, model.VerdictAuthenticDissimulated, RuleDissimulated},
		{"below dissimulated similarity", 0.749999, 0.60, model.VerdictProbablyAuthentic, RuleProbablyAuthentic},
		{"traced pattern", 0.92, 0.40, model.VerdictSuspicious, RuleTracedPattern},
		{"good similarity low naturalness", 0.80, 0.30, model.VerdictProbablyAuthentic, RuleProbablyAuthentic},
		{"probably authentic floor", 0.65, 0.20, model.VerdictProbablyAuthentic, RuleProbablyAuthentic},
		{"below probably authentic", 0.649999, 0.90, model.VerdictSuspicious, RuleModerate},
		{"suspicious floor", 0.45, 0.90, model.VerdictSuspicious, RuleModerate},
		{"below suspicious", 0.449999, 0.90, model.VerdictProbablyFalse, RuleProbablyFalse},
		{"zero similarity", 0, 0, model.VerdictProbablyFalse, RuleProbablyFalse},
		{"not a number", math.NaN(), 0.9, model.VerdictUncertain, RuleNoMatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			v := c.Classify(aggregate(tt.sim, tt.nat), nil)
			assert.Equal(t, tt.want, v.Category)
			assert.Equal(t, tt.rule, v.Rule)
			assert.Equal(t, profile.Version, v.ProfileVersion)
			assert.Equal(t, "q", v.QuestionedID)
			assert.NotEmpty(t, v.Explanation)
		})
	}
}

func TestClassifier_InsufficientData(t *testing.T) {
	t.Parallel()

	c := New()

	t.Run("no aggregate", func(t *testing.T) {
		t.Parallel()

		v := c.Classify(nil, model.NewFeatureVector("q", ""))
		assert.Equal(t, model.VerdictUncertain, v.Category)
		assert.Equal(t, RuleInsufficientData, v.Rule)
		assert.Equal(t, "q", v.QuestionedID)
		assert.Zero(t, v.ReferenceCount)
	})

	t.Run("coverage below minimum", func(t *testing.T) {
		t.Parallel()

		agg := aggregate(0.95, 0.95)
		agg.Coverage = 0.59
		v := c.Classify(agg, nil)
		assert.Equal(t, model.VerdictUncertain, v.Category)
		assert.Equal(t, RuleInsufficientData, v.Rule)
		assert.Empty(t, v.Weak)
	})

	t.Run("partial vector is not uncertain by itself", func(t *testing.T) {
		t.Parallel()

		q := model.NewFeatureVector("q", "")
		q.SetMissing(model.FeatureBaselineDeviation)

		agg := aggregate(0.9, 0.9)
		agg.Coverage = 0.95
		v := c.Classify(agg, q)
		assert.Equal(t, model.VerdictAuthentic, v.Category)
		assert.Contains(t, v.Explanation, "baseline deviation")
	})
}

func TestClassifier_PartialVectors(t *testing.T) {
	t.Parallel()

	c := New()
	tests := []struct {
		name string
		sim  float64
		nat  float64
		want model.VerdictCategory
		rule string
	}{
		{"high similarity stays authentic", 0.90, 0.85, model.VerdictAuthentic, RuleAuthentic},
		{"moderate similarity stays suspicious", 0.50, 0.90, model.VerdictSuspicious, RuleModerate},
		{"low similarity is uncertain", 0.30, 0.90, model.VerdictUncertain, RulePartialData},
		{"zero similarity is uncertain", 0, 0, model.VerdictUncertain, RulePartialData},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			agg := aggregate(tt.sim, tt.nat)
			agg.Coverage = 0.95
			agg.Partial = true

			v := c.Classify(agg, nil)
			assert.Equal(t, tt.want, v.Category)
			assert.Equal(t, tt.rule, v.Rule)
		})
	}

	t.Run("partial questioned vector", func(t *testing.T) {
		t.Parallel()

		q := model.NewFeatureVector("q", "")
		q.SetMissing(model.FeatureBaselineDeviation)

		agg := aggregate(0.30, 0.90)
		agg.Coverage = 0.95
		v := c.Classify(agg, q)
		assert.Equal(t, model.VerdictUncertain, v.Category)
		assert.Equal(t, RulePartialData, v.Rule)
		assert.Contains(t, v.Explanation, "incomplete feature vectors")
		assert.Contains(t, v.Explanation, "baseline deviation")
	})

	t.Run("complete vectors stay probably false", func(t *testing.T) {
		t.Parallel()

		agg := aggregate(0.30, 0.90)
		v := c.Classify(agg, model.NewFeatureVector("q", ""))
		assert.Equal(t, model.VerdictProbablyFalse, v.Category)
	})
}

func TestClassifier_Explanation(t *testing.T) {
	t.Parallel()

	agg := aggregate(0.9, 0.85)
	agg.Categories = map[model.Category]float64{
		model.CategoryBase:        0.98,
		model.CategoryAdvanced:    0.80,
		model.CategoryNaturalness: 0.40,
	}
	agg.Features = map[model.FeatureName]float64{
		model.FeatureFluidity:            0.2,
		model.FeaturePressureConsistency: 0.5,
		model.FeatureMotorCoordination:   0.5,
		model.FeatureAspectRatio:         0.1,
	}

	t.Run("english", func(t *testing.T) {
		t.Parallel()

		v := New().Classify(agg, nil)
		assert.Equal(t, model.VerdictAuthentic, v.Category)
		assert.Contains(t, v.Explanation, "High similarity (90%) with natural execution (naturalness 85%).")
		assert.Equal(t, []model.Category{model.CategoryNaturalness}, v.Weak)
		assert.Equal(t, []model.FeatureName{
			model.FeatureFluidity,
			model.FeatureMotorCoordination,
			model.FeaturePressureConsistency,
		}, v.WeakFeatures)
		assert.Contains(t, v.Explanation, "Weakest areas: Naturalness (fluidity, motor coordination, pressure consistency).")
	})

	t.Run("italian", func(t *testing.T) {
		t.Parallel()

		v := New(WithLanguage("it-IT")).Classify(agg, nil)
		assert.Contains(t, v.Explanation, "Alta somiglianza (90%)")
		assert.Contains(t, v.Explanation, "Aree più deboli")
	})

	t.Run("reference spread", func(t *testing.T) {
		t.Parallel()

		spread := aggregate(0.7, 0.9)
		spread.ReferenceCount = 3
		spread.Spread = 0.3
		spread.Skipped = []string{"r9"}

		v := New().Classify(spread, nil)
		assert.Contains(t, v.Explanation, "spread 30%")
		assert.Contains(t, v.Explanation, "1 reference(s) excluded")
		assert.InDelta(t, 0.3, v.Spread, 1e-12)
	})
}

func TestWeakCategories(t *testing.T) {
	t.Parallel()

	w := profile.Default().Categories

	tests := []struct {
		name string
		sims map[model.Category]float64
		agg  float64
		want []model.Category
	}{
		{
			name: "uniform",
			sims: map[model.Category]float64{model.CategoryBase: 0.8, model.CategoryAdvanced: 0.8, model.CategoryNaturalness: 0.8},
			agg:  0.8,
		},
		{
			name: "advanced lags",
			sims: map[model.Category]float64{model.CategoryBase: 1, model.CategoryAdvanced: 0.2},
			agg:  (0.4*1 + 0.3*0.2) / 0.7,
			want: []model.Category{model.CategoryAdvanced},
		},
		{
			name: "empty",
			sims: map[model.Category]float64{},
			agg:  0.5,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, WeakCategories(tt.sims, tt.agg, w))
		})
	}
}

func TestMatchLanguage(t *testing.T) {
	t.Parallel()

	assert.Equal(t, language.Italian, MatchLanguage("it-IT"))
	assert.Equal(t, language.Italian, MatchLanguage("fr-FR, it;q=0.8"))
	assert.Equal(t, language.English, MatchLanguage("en-GB"))
	assert.Equal(t, language.English, MatchLanguage("ja"))
	assert.Equal(t, language.English, MatchLanguage())
}

func TestClassifier_Label(t *testing.T) {
	t.Parallel()

	en := New()
	it := New(WithLanguage("it"))
	require.Equal(t, language.Italian, it.Language())

	assert.Equal(t, "Suspicious", en.Label(model.VerdictSuspicious))
	assert.Equal(t, "Sospetta", it.Label(model.VerdictSuspicious))
	assert.Equal(t, "Probabilmente falsa", it.Label(model.VerdictProbablyFalse))
	assert.Equal(t, "Base", en.CategoryName(model.CategoryBase))
}
