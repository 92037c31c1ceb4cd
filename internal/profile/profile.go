package profile

import (
	"fmt"
	"slices"

	"github.com/grapholex/grapholex/internal/model"
)

// Version identifies the default profile. Bump it whenever a weight,
// range or threshold in Default changes.
const Version = "2024.1"

// Kind tells the scorer how to compare a feature.
type Kind string

const (
	// KindScalar compares two numbers over an expected range.
	KindScalar Kind = "scalar"

	// KindHistogram compares two normalized histograms by L1 distance.
	KindHistogram Kind = "histogram"

	// KindLabel compares two discrete labels.
	KindLabel Kind = "label"
)

// Feature is one scored feature.
type Feature struct {
	Name model.FeatureName `yaml:"name" json:"name"`
	Kind Kind              `yaml:"kind" json:"kind"`

	// Range is the absolute difference at which similarity reaches zero.
	// Only scalar features use it.
	Range float64 `yaml:"range,omitempty" json:"range,omitempty"`
}

// Group is a weighted set of features inside a category. The group weight
// is split equally across its features.
type Group struct {
	Name     string    `yaml:"name" json:"name"`
	Category string    `yaml:"category" json:"category"`
	Weight   float64   `yaml:"weight" json:"weight"`
	Features []Feature `yaml:"features" json:"features"`
}

// CategoryWeights are the headline weights of the three categories.
type CategoryWeights struct {
	Base        float64 `yaml:"base" json:"base"`
	Advanced    float64 `yaml:"advanced" json:"advanced"`
	Naturalness float64 `yaml:"naturalness" json:"naturalness"`
}

// Of returns the weight of c.
func (w CategoryWeights) Of(c model.Category) float64 {
	switch c {
	case model.CategoryBase:
		return w.Base
	case model.CategoryAdvanced:
		return w.Advanced
	case model.CategoryNaturalness:
		return w.Naturalness
	default:
		return 0
	}
}

// NaturalnessWeights combine the three naturalness components into the
// naturalness score.
type NaturalnessWeights struct {
	Fluidity            float64 `yaml:"fluidity" json:"fluidity"`
	PressureConsistency float64 `yaml:"pressure_consistency" json:"pressure_consistency"`
	MotorCoordination   float64 `yaml:"motor_coordination" json:"motor_coordination"`
}

// Thresholds drive the verdict decision table.
type Thresholds struct {
	AuthenticSimilarity         float64 `yaml:"authentic_similarity" json:"authentic_similarity"`
	AuthenticNaturalness        float64 `yaml:"authentic_naturalness" json:"authentic_naturalness"`
	DissimulatedSimilarity      float64 `yaml:"dissimulated_similarity" json:"dissimulated_similarity"`
	DissimulatedNaturalness     float64 `yaml:"dissimulated_naturalness" json:"dissimulated_naturalness"`
	ProbablyAuthenticSimilarity float64 `yaml:"probably_authentic_similarity" json:"probably_authentic_similarity"`
	SuspiciousSimilarity        float64 `yaml:"suspicious_similarity" json:"suspicious_similarity"`
}

// Aggregation tunes the multi-reference aggregator.
type Aggregation struct {
	// MinCoverage is the share of Base and Advanced weight a comparison
	// must cover for the reference to count as usable.
	MinCoverage float64 `yaml:"min_coverage" json:"min_coverage"`

	// SpreadDiscount scales how much reference disagreement lowers confidence.
	SpreadDiscount float64 `yaml:"spread_discount" json:"spread_discount"`

	// SpreadWarning is the spread above which explanations mention
	// inconsistent references.
	SpreadWarning float64 `yaml:"spread_warning" json:"spread_warning"`
}

// Style holds the thresholds of the handwriting style classifier.
type Style struct {
	RegularAreaCV       float64 `yaml:"regular_area_cv" json:"regular_area_cv"`
	RegularInclination  float64 `yaml:"regular_inclination" json:"regular_inclination"`
	RegularCurvature    float64 `yaml:"regular_curvature" json:"regular_curvature"`
	CursiveCurvature    float64 `yaml:"cursive_curvature" json:"cursive_curvature"`
	InclinedInclination float64 `yaml:"inclined_inclination" json:"inclined_inclination"`
}

// Tolerances drive the descriptive per-feature comparison.
type Tolerances map[model.FeatureName]float64

// Profile is the versioned set of weights, ranges and thresholds used by
// the extractor, scorer and classifier.
type Profile struct {
	Version          string             `yaml:"version" json:"version"`
	Categories       CategoryWeights    `yaml:"categories" json:"categories"`
	Groups           []Group            `yaml:"groups" json:"groups"`
	Naturalness      NaturalnessWeights `yaml:"naturalness" json:"naturalness"`
	Thresholds       Thresholds         `yaml:"thresholds" json:"thresholds"`
	Aggregation      Aggregation        `yaml:"aggregation" json:"aggregation"`
	Style            Style              `yaml:"style" json:"style"`
	MixedLabelCredit float64            `yaml:"mixed_label_credit" json:"mixed_label_credit"`
	Tolerances       Tolerances         `yaml:"tolerances" json:"tolerances"`
}

func scalar(name model.FeatureName, rng float64) Feature {
	return Feature{Name: name, Kind: KindScalar, Range: rng}
}

func single(category string, f Feature) Group {
	return Group{Name: string(f.Name), Category: category, Weight: 1, Features: []Feature{f}}
}

// Default returns the reference profile.
//
// Base sub-weights are 15/25/20/20/20. Advanced and Naturalness members
// weigh equally except for the naturalness components, which follow the
// naturalness score weights.
func Default() *Profile {
	base := model.CategoryBase.String()
	adv := model.CategoryAdvanced.String()
	nat := model.CategoryNaturalness.String()

	return &Profile{
		Version: Version,
		Categories: CategoryWeights{
			Base:        0.40,
			Advanced:    0.30,
			Naturalness: 0.30,
		},
		Groups: []Group{
			{Name: "aspect", Category: base, Weight: 15, Features: []Feature{
				scalar(model.FeatureAspectRatio, 1.0),
			}},
			{Name: "stroke", Category: base, Weight: 25, Features: []Feature{
				scalar(model.FeatureStrokeWidthMean, 0.6),
				scalar(model.FeatureStrokeWidthStd, 0.3),
				scalar(model.FeatureEdgeGradient, 0.5),
			}},
			{Name: "curvature", Category: base, Weight: 20, Features: []Feature{
				{Name: model.FeatureCurvatureHistogram, Kind: KindHistogram},
				scalar(model.FeatureMeanCurvature, 0.5),
			}},
			{Name: "spatial", Category: base, Weight: 20, Features: []Feature{
				scalar(model.FeatureInkDensity, 0.15),
				scalar(model.FeatureCentroidX, 0.2),
				scalar(model.FeatureCentroidY, 0.2),
			}},
			{Name: "connectivity", Category: base, Weight: 20, Features: []Feature{
				scalar(model.FeatureComponentCount, 6),
				scalar(model.FeatureFragmentation, 1.0),
				scalar(model.FeatureStrokeLength, 150),
			}},

			single(adv, scalar(model.FeatureInclination, 20)),
			single(adv, scalar(model.FeaturePressureMean, 25)),
			single(adv, scalar(model.FeaturePressureStd, 12)),
			single(adv, scalar(model.FeatureMicroCurvature, 0.5)),
			single(adv, Feature{Name: model.FeatureStyle, Kind: KindLabel}),
			single(adv, scalar(model.FeatureReadability, 0.4)),
			single(adv, scalar(model.FeatureLoopArea, 10)),
			single(adv, scalar(model.FeatureLoopConvexity, 0.3)),
			single(adv, scalar(model.FeatureSpacing, 5)),
			single(adv, scalar(model.FeatureVelocity, 0.3)),
			single(adv, scalar(model.FeatureOverlaps, 6)),
			single(adv, scalar(model.FeatureConnections, 10)),
			single(adv, scalar(model.FeatureBaselineDeviation, 3)),

			{Name: "fluidity", Category: nat, Weight: 40, Features: []Feature{
				scalar(model.FeatureFluidity, 0.4),
			}},
			{Name: "pressure_consistency", Category: nat, Weight: 30, Features: []Feature{
				scalar(model.FeaturePressureConsistency, 0.4),
			}},
			{Name: "motor_coordination", Category: nat, Weight: 30, Features: []Feature{
				scalar(model.FeatureMotorCoordination, 0.4),
			}},
		},
		Naturalness: NaturalnessWeights{
			Fluidity:            0.4,
			PressureConsistency: 0.3,
			MotorCoordination:   0.3,
		},
		Thresholds: Thresholds{
			AuthenticSimilarity:         0.85,
			AuthenticNaturalness:        0.80,
			DissimulatedSimilarity:      0.75,
			DissimulatedNaturalness:     0.50,
			ProbablyAuthenticSimilarity: 0.65,
			SuspiciousSimilarity:        0.45,
		},
		Aggregation: Aggregation{
			MinCoverage:    0.6,
			SpreadDiscount: 0.5,
			SpreadWarning:  0.15,
		},
		Style: Style{
			RegularAreaCV:       0.5,
			RegularInclination:  15,
			RegularCurvature:    0.4,
			CursiveCurvature:    0.9,
			InclinedInclination: 20,
		},
		MixedLabelCredit: 0.5,
		Tolerances: Tolerances{
			model.FeatureVelocity:      0.2,
			model.FeatureAspectRatio:   0.2,
			model.FeaturePressureMean:  10,
			model.FeatureInclination:   5,
			model.FeatureMeanCurvature: 0.15,
			model.FeatureSpacing:       5,
		},
	}
}

// GroupsOf returns the groups of category c in declaration order.
func (p *Profile) GroupsOf(c model.Category) []Group {
	name := c.String()
	out := make([]Group, 0, len(p.Groups))
	for _, g := range p.Groups {
		if g.Category == name {
			out = append(out, g)
		}
	}
	return out
}

// Lookup returns the feature definition and its category.
func (p *Profile) Lookup(name model.FeatureName) (Feature, model.Category, bool) {
	for _, g := range p.Groups {
		for _, f := range g.Features {
			if f.Name != name {
				continue
			}
			var c model.Category
			if err := c.UnmarshalText([]byte(g.Category)); err != nil {
				return Feature{}, 0, false
			}
			return f, c, true
		}
	}
	return Feature{}, 0, false
}

// FeatureNames returns every scored feature in declaration order.
func (p *Profile) FeatureNames() []model.FeatureName {
	names := make([]model.FeatureName, 0, 32)
	for _, g := range p.Groups {
		for _, f := range g.Features {
			names = append(names, f.Name)
		}
	}
	return names
}

// Clone returns a deep copy of the profile.
func (p *Profile) Clone() *Profile {
	out := *p
	out.Groups = make([]Group, len(p.Groups))
	for i, g := range p.Groups {
		g.Features = slices.Clone(g.Features)
		out.Groups[i] = g
	}
	out.Tolerances = make(Tolerances, len(p.Tolerances))
	for k, v := range p.Tolerances {
		out.Tolerances[k] = v
	}
	return &out
}

// Validate checks the profile for internal consistency.
func (p *Profile) Validate() error {
	if p.Version == "" {
		return ErrMissingVersion
	}
	if p.Categories.Base < 0 || p.Categories.Advanced < 0 || p.Categories.Naturalness < 0 {
		return ErrInvalidCategoryWeight
	}
	if p.Categories.Base+p.Categories.Advanced <= 0 {
		return ErrInvalidCategoryWeight
	}

	seen := make(map[model.FeatureName]bool)
	for _, g := range p.Groups {
		var c model.Category
		if err := c.UnmarshalText([]byte(g.Category)); err != nil {
			return fmt.Errorf("%w: group %q: %w", ErrInvalidGroup, g.Name, err)
		}
		if g.Weight <= 0 || len(g.Features) == 0 {
			return fmt.Errorf("%w: group %q needs a positive weight and at least one feature", ErrInvalidGroup, g.Name)
		}
		for _, f := range g.Features {
			if seen[f.Name] {
				return fmt.Errorf("%w: %s", ErrDuplicateFeature, f.Name)
			}
			seen[f.Name] = true
			switch f.Kind {
			case KindScalar:
				if f.Range <= 0 {
					return fmt.Errorf("%w: %s", ErrInvalidRange, f.Name)
				}
			case KindHistogram, KindLabel:
			default:
				return fmt.Errorf("%w: %s has kind %q", ErrUnknownKind, f.Name, f.Kind)
			}
		}
	}

	nw := p.Naturalness
	if nw.Fluidity < 0 || nw.PressureConsistency < 0 || nw.MotorCoordination < 0 ||
		nw.Fluidity+nw.PressureConsistency+nw.MotorCoordination <= 0 {
		return ErrInvalidNaturalnessWeights
	}

	t := p.Thresholds
	for _, v := range []float64{
		t.AuthenticSimilarity, t.AuthenticNaturalness, t.DissimulatedSimilarity,
		t.DissimulatedNaturalness, t.ProbablyAuthenticSimilarity, t.SuspiciousSimilarity,
	} {
		if v < 0 || v > 1 {
			return ErrInvalidThresholds
		}
	}
	if t.SuspiciousSimilarity >= t.ProbablyAuthenticSimilarity ||
		t.ProbablyAuthenticSimilarity >= t.AuthenticSimilarity ||
		t.DissimulatedSimilarity > t.AuthenticSimilarity ||
		t.DissimulatedNaturalness >= t.AuthenticNaturalness {
		return ErrInvalidThresholds
	}

	a := p.Aggregation
	if a.MinCoverage <= 0 || a.MinCoverage > 1 || a.SpreadDiscount < 0 || a.SpreadDiscount > 1 {
		return ErrInvalidAggregation
	}
	if p.MixedLabelCredit < 0 || p.MixedLabelCredit > 1 {
		return ErrInvalidLabelCredit
	}
	return nil
}
