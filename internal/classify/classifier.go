package classify

import (
	"cmp"
	"math"
	"slices"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/grapholex/grapholex/internal/model"
	"github.com/grapholex/grapholex/internal/profile"
)

// WeakFeaturesPerCategory is how many of the lowest-scoring features the
// explanation names for each weak category.
const WeakFeaturesPerCategory = 3

// Classifier turns aggregated similarities into verdicts. It is safe for
// concurrent use.
type Classifier struct {
	profile *profile.Profile
	rules   []Rule
	lang    language.Tag
	printer *message.Printer
}

// Option configures a Classifier.
type Option func(*Classifier)

// WithProfile sets the thresholds and weights.
func WithProfile(p *profile.Profile) Option {
	return func(c *Classifier) {
		c.profile = p
	}
}

// WithLanguage selects the explanation language from BCP 47 tags or
// Accept-Language strings.
func WithLanguage(prefs ...string) Option {
	return func(c *Classifier) {
		c.lang = MatchLanguage(prefs...)
	}
}

// New creates a Classifier.
func New(opts ...Option) *Classifier {
	c := &Classifier{
		rules: Rules(),
		lang:  Supported[0],
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.profile == nil {
		c.profile = profile.Default()
	}
	c.printer = newPrinter(c.lang)
	return c
}

// Language returns the explanation language.
func (c *Classifier) Language() language.Tag {
	return c.lang
}

// Input builds the rule input for an aggregate. A nil aggregate has no
// references.
func (c *Classifier) Input(agg *model.Aggregate) Input {
	in := Input{
		Thresholds:  c.profile.Thresholds,
		MinCoverage: c.profile.Aggregation.MinCoverage,
	}
	if agg != nil {
		in.Similarity = agg.Similarity
		in.Naturalness = agg.Naturalness
		in.Coverage = agg.Coverage
		in.References = agg.ReferenceCount
		in.Partial = agg.Partial
	}
	return in
}

// Classify evaluates the decision table and explains the outcome.
// questioned may be nil; it only contributes missing-feature details.
func (c *Classifier) Classify(agg *model.Aggregate, questioned *model.FeatureVector) *model.Verdict {
	in := c.Input(agg)
	if questioned != nil && questioned.Partial {
		in.Partial = true
	}
	rule := decide(c.rules, in)

	v := &model.Verdict{
		Category:            rule.Category,
		AggregateSimilarity: in.Similarity,
		Naturalness:         in.Naturalness,
		ReferenceCount:      in.References,
		Rule:                rule.Name,
		ProfileVersion:      c.profile.Version,
		CategorySimilarity:  make(map[model.Category]float64),
	}
	if agg != nil {
		v.QuestionedID = agg.QuestionedID
		v.Confidence = agg.Confidence
		v.Spread = agg.Spread
		for k, s := range agg.Categories {
			v.CategorySimilarity[k] = s
		}
	}
	if questioned != nil && v.QuestionedID == "" {
		v.QuestionedID = questioned.ImageID
	}

	if rule.Name != RuleInsufficientData && agg != nil {
		v.Weak = WeakCategories(agg.Categories, agg.Similarity, c.profile.Categories)
		v.WeakFeatures = c.weakFeatures(agg.Features, v.Weak)
	}
	v.Explanation = c.explain(rule, in, agg, v, questioned)
	return v
}

// Label returns the localized display name of a verdict category.
func (c *Classifier) Label(v model.VerdictCategory) string {
	var key labelKey
	switch v {
	case model.VerdictAuthentic:
		key = labelAuthentic
	case model.VerdictAuthenticDissimulated:
		key = labelDissimulated
	case model.VerdictProbablyAuthentic:
		key = labelProbablyAuthentic
	case model.VerdictSuspicious:
		key = labelSuspicious
	case model.VerdictUncertain:
		key = labelUncertain
	case model.VerdictProbablyFalse:
		key = labelProbablyFalse
	default:
		return v.String()
	}
	return c.printer.Sprintf(string(key))
}

// CategoryName returns a display name for a feature category.
func (c *Classifier) CategoryName(cat model.Category) string {
	// A Caser keeps state between calls, so each call gets its own.
	return cases.Title(c.lang).String(cat.String())
}

// FeatureName returns a display name for a feature.
func (c *Classifier) FeatureName(name model.FeatureName) string {
	return strings.ReplaceAll(string(name), "_", " ")
}

func (c *Classifier) explain(rule Rule, in Input, agg *model.Aggregate, v *model.Verdict, questioned *model.FeatureVector) string {
	parts := []string{
		c.printer.Sprintf(rule.message, in.Similarity*100, in.Naturalness*100, in.References, in.Coverage*100),
	}

	if len(v.Weak) > 0 {
		byCategory := make(map[model.Category][]string)
		for _, name := range v.WeakFeatures {
			if _, cat, ok := c.profile.Lookup(name); ok {
				byCategory[cat] = append(byCategory[cat], c.FeatureName(name))
			}
		}
		areas := make([]string, 0, len(v.Weak))
		for _, cat := range v.Weak {
			areas = append(areas, c.printer.Sprintf(msgWeakCategory, c.CategoryName(cat), strings.Join(byCategory[cat], ", ")))
		}
		parts = append(parts, c.printer.Sprintf(msgWeak, strings.Join(areas, "; ")))
	}

	if agg != nil {
		if agg.ReferenceCount > 1 && agg.Spread > c.profile.Aggregation.SpreadWarning {
			parts = append(parts, c.printer.Sprintf(msgSpread, agg.Spread*100))
		}
		if len(agg.Skipped) > 0 {
			parts = append(parts, c.printer.Sprintf(msgSkipped, len(agg.Skipped)))
		}
	}

	if questioned != nil && questioned.Partial {
		names := make([]string, 0, len(questioned.Missing))
		for _, name := range questioned.Missing {
			names = append(names, c.FeatureName(name))
		}
		parts = append(parts, c.printer.Sprintf(msgPartialVector, strings.Join(names, ", ")))
	}
	return strings.Join(parts, " ")
}

// WeakCategories returns the categories whose similarity lies more than
// one weighted standard deviation below the aggregate, in category order.
func WeakCategories(sims map[model.Category]float64, aggregate float64, w profile.CategoryWeights) []model.Category {
	sum, total := 0.0, 0.0
	for _, cat := range model.Categories {
		s, ok := sims[cat]
		if !ok {
			continue
		}
		d := s - aggregate
		sum += w.Of(cat) * d * d
		total += w.Of(cat)
	}
	if total == 0 {
		return nil
	}
	sd := math.Sqrt(sum / total)

	var weak []model.Category
	for _, cat := range model.Categories {
		if s, ok := sims[cat]; ok && s < aggregate-sd {
			weak = append(weak, cat)
		}
	}
	return weak
}

// weakFeatures returns the lowest-scoring features of each weak category,
// ties broken by name.
func (c *Classifier) weakFeatures(sims map[model.FeatureName]float64, weak []model.Category) []model.FeatureName {
	var out []model.FeatureName
	for _, cat := range weak {
		var names []model.FeatureName
		for name := range sims {
			if _, fc, ok := c.profile.Lookup(name); ok && fc == cat {
				names = append(names, name)
			}
		}
		slices.SortFunc(names, func(a, b model.FeatureName) int {
			if d := cmp.Compare(sims[a], sims[b]); d != 0 {
				return d
			}
			return cmp.Compare(a, b)
		})
		if len(names) > WeakFeaturesPerCategory {
			names = names[:WeakFeaturesPerCategory]
		}
		out = append(out, names...)
	}
	return out
}
