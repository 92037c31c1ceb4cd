package model

import "fmt"

// VerdictCategory is the forensic conclusion for a questioned signature.
//
// The order of the constants follows decreasing confidence in authorship,
// with Uncertain placed before ProbablyFalse as it is in the decision table.
type VerdictCategory int

const (
	// VerdictAuthentic means high similarity executed with natural fluency.
	VerdictAuthentic VerdictCategory = iota

	// VerdictAuthenticDissimulated means a genuine signature deliberately
	// altered by its author.
	VerdictAuthenticDissimulated

	// VerdictProbablyAuthentic means good similarity without decisive naturalness.
	VerdictProbablyAuthentic

	// VerdictSuspicious means moderate similarity or a traced pattern.
	VerdictSuspicious

	// VerdictUncertain means the data is insufficient for a conclusion.
	VerdictUncertain

	// VerdictProbablyFalse means low similarity to every reference.
	VerdictProbablyFalse
)

// VerdictCategories lists every category in table order.
var VerdictCategories = []VerdictCategory{
	VerdictAuthentic,
	VerdictAuthenticDissimulated,
	VerdictProbablyAuthentic,
	VerdictSuspicious,
	VerdictUncertain,
	VerdictProbablyFalse,
}

// String returns the snake_case identifier of the category.
func (v VerdictCategory) String() string {
	switch v {
	case VerdictAuthentic:
		return "authentic"
	case VerdictAuthenticDissimulated:
		return "authentic_dissimulated"
	case VerdictProbablyAuthentic:
		return "probably_authentic"
	case VerdictSuspicious:
		return "suspicious"
	case VerdictUncertain:
		return "uncertain"
	case VerdictProbablyFalse:
		return "probably_false"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (v VerdictCategory) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (v *VerdictCategory) UnmarshalText(text []byte) error {
	for _, candidate := range VerdictCategories {
		if candidate.String() == string(text) {
			*v = candidate
			return nil
		}
	}
	return fmt.Errorf("unknown verdict category %q", string(text))
}

// SimilarityResult is the pairwise comparison of a questioned vector with
// one reference vector. It is not persisted.
type SimilarityResult struct {
	QuestionedID string `json:"questioned_id"`
	ReferenceID  string `json:"reference_id"`

	// Categories holds the similarity of each feature category.
	Categories map[Category]float64 `json:"categories"`

	// Features holds the similarity of every compared feature.
	Features map[FeatureName]float64 `json:"features"`

	// Aggregate combines Base and Advanced similarity, in [0,1].
	Aggregate float64 `json:"aggregate"`

	// Naturalness is the questioned signature's naturalness score.
	Naturalness float64 `json:"naturalness"`

	// Coverage is the share of Base and Advanced weight that could be
	// compared, in [0,1].
	Coverage float64 `json:"coverage"`
}

// Aggregate is the combination of one questioned vector compared with
// every usable reference.
type Aggregate struct {
	QuestionedID string `json:"questioned_id"`

	// Results holds the pairwise results for usable references.
	Results []SimilarityResult `json:"results"`

	// Similarity is the mean aggregate similarity over usable references.
	Similarity float64 `json:"similarity"`

	// Categories is the mean per-category similarity.
	Categories map[Category]float64 `json:"categories"`

	// Features is the mean per-feature similarity.
	Features map[FeatureName]float64 `json:"features"`

	// Naturalness comes from the questioned vector alone.
	Naturalness float64 `json:"naturalness"`

	// Coverage is the mean pairwise coverage.
	Coverage float64 `json:"coverage"`

	// Spread is max minus min aggregate similarity across references.
	Spread float64 `json:"spread"`

	// Confidence is Coverage discounted by Spread.
	Confidence float64 `json:"confidence"`

	// ReferenceCount is the number of usable references.
	ReferenceCount int `json:"reference_count"`

	// Skipped lists references excluded for insufficient coverage.
	Skipped []string `json:"skipped,omitempty"`

	// Partial is set when the questioned vector or any usable reference
	// misses features.
	Partial bool `json:"partial,omitempty"`
}

// Verdict is the classification of one questioned signature.
// A new comparison replaces the previous verdict for the same signature.
type Verdict struct {
	QuestionedID string          `json:"questioned_id"`
	Category     VerdictCategory `json:"category"`

	AggregateSimilarity float64 `json:"aggregate_similarity"`
	Naturalness         float64 `json:"naturalness"`
	Confidence          float64 `json:"confidence"`
	Spread              float64 `json:"spread"`

	CategorySimilarity map[Category]float64 `json:"category_similarity"`
	ReferenceCount     int                  `json:"reference_count"`

	// Weak lists categories that pulled the score down.
	Weak []Category `json:"weak,omitempty"`

	// WeakFeatures lists the lowest-scoring features of the weak categories.
	WeakFeatures []FeatureName `json:"weak_features,omitempty"`

	// Rule names the decision table row that matched.
	Rule string `json:"rule"`

	// Explanation is a short human-readable rationale.
	Explanation string `json:"explanation"`

	// ProfileVersion identifies the weights and thresholds in use.
	ProfileVersion string `json:"profile_version"`
}
