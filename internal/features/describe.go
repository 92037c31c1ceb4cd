package features

import (
	"math"
	"slices"
	"strconv"

	"github.com/grapholex/grapholex/internal/model"
	"github.com/grapholex/grapholex/internal/profile"
)

// Observation is one line of a descriptive comparison between a
// questioned signature and a reference.
type Observation struct {
	Feature    model.FeatureName `json:"feature"`
	Questioned string            `json:"questioned"`
	Reference  string            `json:"reference"`
	Difference float64           `json:"difference"`
	Tolerance  float64           `json:"tolerance"`
	Consistent bool              `json:"consistent"`
}

// Describe compares the features that have a tolerance in the profile,
// plus the style label, and reports each as consistent or different.
// Features missing from either vector are skipped. Observations are
// ordered by feature name.
func Describe(q, r *model.FeatureVector, p *profile.Profile) []Observation {
	names := make([]model.FeatureName, 0, len(p.Tolerances))
	for name := range p.Tolerances {
		names = append(names, name)
	}
	slices.Sort(names)

	out := make([]Observation, 0, len(names)+1)
	for _, name := range names {
		a, okA := q.Value(name)
		b, okB := r.Value(name)
		if !okA || !okB {
			continue
		}
		tol := p.Tolerances[name]
		diff := math.Abs(a - b)
		out = append(out, Observation{
			Feature:    name,
			Questioned: formatValue(a),
			Reference:  formatValue(b),
			Difference: diff,
			Tolerance:  tol,
			Consistent: diff <= tol,
		})
	}

	if a, ok := q.Label(model.FeatureStyle); ok {
		if b, ok := r.Label(model.FeatureStyle); ok {
			out = append(out, Observation{
				Feature:    model.FeatureStyle,
				Questioned: a,
				Reference:  b,
				Consistent: a == b,
			})
		}
	}
	return out
}

func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
