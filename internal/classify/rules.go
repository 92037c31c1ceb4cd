package classify

import (
	"github.com/grapholex/grapholex/internal/model"
	"github.com/grapholex/grapholex/internal/profile"
)

// Input is what a rule decides on.
type Input struct {
	Similarity  float64
	Naturalness float64
	Coverage    float64
	References  int

	// Partial is set when the questioned vector or a usable reference
	// misses features.
	Partial bool

	Thresholds  profile.Thresholds
	MinCoverage float64
}

// Rule is one row of the decision table.
type Rule struct {
	Name     string
	Category model.VerdictCategory
	Match    func(Input) bool

	// message is the catalog key of the headline sentence.
	message string
}

// Rule names.
const (
	RuleInsufficientData  = "insufficient_data"
	RuleAuthentic         = "authentic"
	RuleDissimulated      = "authentic_dissimulated"
	RuleProbablyAuthentic = "probably_authentic"
	RuleTracedPattern     = "traced_pattern"
	RuleModerate          = "moderate_similarity"
	RulePartialData       = "partial_data"
	RuleProbablyFalse     = "probably_false"
	RuleNoMatch           = "no_match"
)

// Rules returns the decision table in evaluation order. The first matching
// rule wins; an input matching none is Uncertain.
func Rules() []Rule {
	return []Rule{
		{
			Name:     RuleInsufficientData,
			Category: model.VerdictUncertain,
			Match: func(in Input) bool {
				return in.References == 0 || in.Coverage < in.MinCoverage
			},
			message: msgInsufficientData,
		},
		{
			Name:     RuleAuthentic,
			Category: model.VerdictAuthentic,
			Match: func(in Input) bool {
				return in.Similarity >= in.Thresholds.AuthenticSimilarity &&
					in.Naturalness >= in.Thresholds.AuthenticNaturalness
			},
			message: msgAuthentic,
		},
		{
			Name:     RuleDissimulated,
			Category: model.VerdictAuthenticDissimulated,
			Match: func(in Input) bool {
				return in.Similarity >= in.Thresholds.DissimulatedSimilarity &&
					in.Naturalness >= in.Thresholds.DissimulatedNaturalness &&
					in.Naturalness < in.Thresholds.AuthenticNaturalness
			},
			message: msgDissimulated,
		},
		{
			Name:     RuleProbablyAuthentic,
			Category: model.VerdictProbablyAuthentic,
			Match: func(in Input) bool {
				return in.Similarity >= in.Thresholds.ProbablyAuthenticSimilarity &&
					in.Similarity < in.Thresholds.AuthenticSimilarity
			},
			message: msgProbablyAuthentic,
		},
		{
			Name:     RuleTracedPattern,
			Category: model.VerdictSuspicious,
			Match: func(in Input) bool {
				return in.Similarity >= in.Thresholds.AuthenticSimilarity &&
					in.Naturalness < in.Thresholds.DissimulatedNaturalness
			},
			message: msgTracedPattern,
		},
		{
			Name:     RuleModerate,
			Category: model.VerdictSuspicious,
			Match: func(in Input) bool {
				return in.Similarity >= in.Thresholds.SuspiciousSimilarity &&
					in.Similarity < in.Thresholds.ProbablyAuthenticSimilarity
			},
			message: msgModerate,
		},
		{
			// Below Suspicious, incomplete vectors are not enough to call
			// a signature false.
			Name:     RulePartialData,
			Category: model.VerdictUncertain,
			Match: func(in Input) bool {
				return in.Partial
			},
			message: msgPartialData,
		},
		{
			Name:     RuleProbablyFalse,
			Category: model.VerdictProbablyFalse,
			Match: func(in Input) bool {
				return in.Similarity < in.Thresholds.SuspiciousSimilarity
			},
			message: msgProbablyFalse,
		},
	}
}

var noMatch = Rule{
	Name:     RuleNoMatch,
	Category: model.VerdictUncertain,
	message:  msgNoMatch,
}

// decide returns the first matching rule.
func decide(rules []Rule, in Input) Rule {
	for _, r := range rules {
		if r.Match(in) {
			return r
		}
	}
	return noMatch
}
