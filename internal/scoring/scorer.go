package scoring

import (
	"math"

	"github.com/grapholex/grapholex/internal/model"
	"github.com/grapholex/grapholex/internal/profile"
)

// Scorer compares feature vectors under a profile. It holds no mutable
// state and is safe for concurrent use.
type Scorer struct {
	profile *profile.Profile
}

// NewScorer creates a Scorer. A nil profile selects profile.Default.
func NewScorer(p *profile.Profile) *Scorer {
	if p == nil {
		p = profile.Default()
	}
	return &Scorer{profile: p}
}

// Profile returns the profile in use.
func (s *Scorer) Profile() *profile.Profile {
	return s.profile
}

// Score compares a questioned vector with one reference.
//
// Features missing from either vector are left out and the remaining
// weights renormalized, first inside the group and then across the groups
// of the category. Coverage reports how much of the Base and Advanced
// weight was actually compared.
func (s *Scorer) Score(q, r *model.FeatureVector) model.SimilarityResult {
	res := model.SimilarityResult{
		QuestionedID: q.ImageID,
		ReferenceID:  r.ImageID,
		Categories:   make(map[model.Category]float64, len(model.Categories)),
		Features:     make(map[model.FeatureName]float64),
	}

	covered, total := 0.0, 0.0
	for _, c := range model.Categories {
		sim, coverage, ok := s.scoreCategory(c, q, r, res.Features)
		if ok {
			res.Categories[c] = sim
		}
		if c == model.CategoryNaturalness {
			continue
		}
		w := s.profile.Categories.Of(c)
		covered += w * coverage
		total += w
	}
	if total > 0 {
		res.Coverage = covered / total
	}

	sum, weight := 0.0, 0.0
	for _, c := range []model.Category{model.CategoryBase, model.CategoryAdvanced} {
		sim, ok := res.Categories[c]
		if !ok {
			continue
		}
		w := s.profile.Categories.Of(c)
		sum += w * sim
		weight += w
	}
	if weight > 0 {
		res.Aggregate = sum / weight
	}

	if nat, ok := q.Value(model.FeatureNaturalness); ok {
		res.Naturalness = nat
	}
	return res
}

// scoreCategory returns the renormalized similarity of category c and the
// share of its nominal weight that was compared. ok is false when no
// feature of the category could be compared.
func (s *Scorer) scoreCategory(c model.Category, q, r *model.FeatureVector, out map[model.FeatureName]float64) (sim, coverage float64, ok bool) {
	groups := s.profile.GroupsOf(c)

	nominal := 0.0
	for _, g := range groups {
		nominal += g.Weight
	}
	if nominal == 0 {
		return 0, 0, false
	}

	sum, weight := 0.0, 0.0
	for _, g := range groups {
		gsum, n := 0.0, 0
		for _, f := range g.Features {
			fs, ok := s.featureSimilarity(f, q, r)
			if !ok {
				continue
			}
			out[f.Name] = fs
			gsum += fs
			n++
		}
		if n == 0 {
			continue
		}
		sum += g.Weight * gsum / float64(n)
		weight += g.Weight
		coverage += g.Weight / nominal * float64(n) / float64(len(g.Features))
	}
	if weight == 0 {
		return 0, 0, false
	}
	return sum / weight, coverage, true
}

func (s *Scorer) featureSimilarity(f profile.Feature, q, r *model.FeatureVector) (float64, bool) {
	switch f.Kind {
	case profile.KindScalar:
		a, okA := q.Value(f.Name)
		b, okB := r.Value(f.Name)
		if !okA || !okB {
			return 0, false
		}
		return ScalarSimilarity(a, b, f.Range), true
	case profile.KindHistogram:
		a, okA := q.Histogram(f.Name)
		b, okB := r.Histogram(f.Name)
		if !okA || !okB {
			return 0, false
		}
		return HistogramSimilarity(a, b), true
	case profile.KindLabel:
		a, okA := q.Label(f.Name)
		b, okB := r.Label(f.Name)
		if !okA || !okB {
			return 0, false
		}
		return LabelSimilarity(a, b, s.profile.MixedLabelCredit), true
	default:
		return 0, false
	}
}

// ScalarSimilarity is 1 for equal values and falls linearly to 0 once the
// difference reaches rng.
func ScalarSimilarity(a, b, rng float64) float64 {
	if rng <= 0 {
		if a == b {
			return 1
		}
		return 0
	}
	return 1 - math.Min(math.Abs(a-b)/rng, 1)
}

// HistogramSimilarity is 1 minus half the L1 distance of two normalized
// histograms. Bins missing from the shorter histogram count as empty.
func HistogramSimilarity(a, b []float64) float64 {
	n := max(len(a), len(b))
	l1 := 0.0
	for i := 0; i < n; i++ {
		var x, y float64
		if i < len(a) {
			x = a[i]
		}
		if i < len(b) {
			y = b[i]
		}
		l1 += math.Abs(x - y)
	}
	return math.Max(0, math.Min(1, 1-l1/2))
}

// LabelSimilarity is 1 for equal labels, mixedCredit when either label is
// Mixed and 0 otherwise.
func LabelSimilarity(a, b string, mixedCredit float64) float64 {
	switch {
	case a == b:
		return 1
	case a == string(model.StyleMixed) || b == string(model.StyleMixed):
		return mixedCredit
	default:
		return 0
	}
}
