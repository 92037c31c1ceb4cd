package scoring

import (
	"fmt"

	"github.com/grapholex/grapholex/internal/model"
)

// Aggregate compares q with every reference and combines the usable
// results. A reference is usable when the comparison covers at least the
// profile's minimum coverage.
//
// Similarities are plain means, so repeating a reference does not change
// the outcome. It returns model.ErrNoUsableReference when refs is empty or
// no reference is usable.
func (s *Scorer) Aggregate(q *model.FeatureVector, refs []*model.FeatureVector) (*model.Aggregate, error) {
	if len(refs) == 0 {
		return nil, fmt.Errorf("%w: no references", model.ErrNoUsableReference)
	}

	agg := &model.Aggregate{
		QuestionedID: q.ImageID,
		Categories:   make(map[model.Category]float64, len(model.Categories)),
		Features:     make(map[model.FeatureName]float64),
	}
	minCoverage := s.profile.Aggregation.MinCoverage
	for _, r := range refs {
		res := s.Score(q, r)
		if res.Coverage < minCoverage {
			agg.Skipped = append(agg.Skipped, r.ImageID)
			continue
		}
		agg.Results = append(agg.Results, res)
		agg.Partial = agg.Partial || r.Partial
	}
	n := len(agg.Results)
	if n == 0 {
		return nil, fmt.Errorf("%w: %d reference(s) below %.0f%% coverage",
			model.ErrNoUsableReference, len(refs), minCoverage*100)
	}
	agg.ReferenceCount = n
	agg.Partial = agg.Partial || q.Partial

	lo, hi := agg.Results[0].Aggregate, agg.Results[0].Aggregate
	for _, res := range agg.Results {
		agg.Similarity += res.Aggregate
		agg.Coverage += res.Coverage
		lo = min(lo, res.Aggregate)
		hi = max(hi, res.Aggregate)
	}
	agg.Similarity /= float64(n)
	agg.Coverage /= float64(n)
	agg.Spread = hi - lo

	for _, c := range model.Categories {
		if mean, ok := meanOf(agg.Results, func(r model.SimilarityResult) (float64, bool) {
			v, ok := r.Categories[c]
			return v, ok
		}); ok {
			agg.Categories[c] = mean
		}
	}
	for _, name := range s.profile.FeatureNames() {
		if mean, ok := meanOf(agg.Results, func(r model.SimilarityResult) (float64, bool) {
			v, ok := r.Features[name]
			return v, ok
		}); ok {
			agg.Features[name] = mean
		}
	}

	agg.Naturalness = agg.Results[0].Naturalness

	agg.Confidence = agg.Coverage
	if n > 1 {
		agg.Confidence *= 1 - s.profile.Aggregation.SpreadDiscount*agg.Spread
	}
	return agg, nil
}

func meanOf(results []model.SimilarityResult, get func(model.SimilarityResult) (float64, bool)) (float64, bool) {
	sum, n := 0.0, 0
	for _, r := range results {
		if v, ok := get(r); ok {
			sum += v
			n++
		}
	}
	if n == 0 {
		return 0, false
	}
	return sum / float64(n), true
}
