package model

import (
	"fmt"
	"math"
	"slices"
)

// Category groups features for weighting and reporting.
type Category int

const (
	// CategoryBase covers proportions, stroke, curvature, layout and connectivity.
	CategoryBase Category = iota

	// CategoryAdvanced covers inclination, pressure, style and topology.
	CategoryAdvanced

	// CategoryNaturalness covers fluidity and coordination of execution.
	CategoryNaturalness
)

// Categories lists every category in reporting order.
var Categories = []Category{CategoryBase, CategoryAdvanced, CategoryNaturalness}

// String returns the lower-case category name.
func (c Category) String() string {
	switch c {
	case CategoryBase:
		return "base"
	case CategoryAdvanced:
		return "advanced"
	case CategoryNaturalness:
		return "naturalness"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler so categories can key JSON maps.
func (c Category) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *Category) UnmarshalText(text []byte) error {
	for _, candidate := range Categories {
		if candidate.String() == string(text) {
			*c = candidate
			return nil
		}
	}
	return fmt.Errorf("unknown category %q", string(text))
}

// FeatureName identifies one feature in a FeatureVector.
type FeatureName string

// Base features.
const (
	FeatureAspectRatio        FeatureName = "aspect_ratio"
	FeatureStrokeWidthMean    FeatureName = "stroke_width_mean"
	FeatureStrokeWidthStd     FeatureName = "stroke_width_std"
	FeatureEdgeGradient       FeatureName = "edge_gradient"
	FeatureCurvatureHistogram FeatureName = "curvature_histogram"
	FeatureMeanCurvature      FeatureName = "mean_curvature"
	FeatureInkDensity         FeatureName = "ink_density"
	FeatureCentroidX          FeatureName = "centroid_x"
	FeatureCentroidY          FeatureName = "centroid_y"
	FeatureComponentCount     FeatureName = "component_count"
	FeatureFragmentation      FeatureName = "fragmentation"
	FeatureStrokeLength       FeatureName = "stroke_length"
)

// Advanced features.
const (
	FeatureInclination       FeatureName = "inclination"
	FeaturePressureMean      FeatureName = "pressure_mean"
	FeaturePressureStd       FeatureName = "pressure_std"
	FeatureMicroCurvature    FeatureName = "micro_curvature"
	FeatureStyle             FeatureName = "style"
	FeatureReadability       FeatureName = "readability"
	FeatureLoopArea          FeatureName = "loop_area"
	FeatureLoopConvexity     FeatureName = "loop_convexity"
	FeatureSpacing           FeatureName = "spacing"
	FeatureVelocity          FeatureName = "velocity"
	FeatureOverlaps          FeatureName = "overlaps"
	FeatureConnections       FeatureName = "connections"
	FeatureBaselineDeviation FeatureName = "baseline_deviation"
)

// Naturalness features.
const (
	FeatureFluidity            FeatureName = "fluidity"
	FeaturePressureConsistency FeatureName = "pressure_consistency"
	FeatureMotorCoordination   FeatureName = "motor_coordination"
	FeatureNaturalness         FeatureName = "naturalness"
)

// ReadabilityLevelFeature stores the discrete readability label next to
// the numeric FeatureReadability score.
const ReadabilityLevelFeature FeatureName = "readability_level"

// Style is the discrete handwriting style label.
type Style string

// Style labels.
const (
	StyleRegular  Style = "Regular"
	StyleCursive  Style = "Cursive"
	StyleInclined Style = "Inclined"
	StyleMixed    Style = "Mixed"
)

// Readability is the discrete readability label.
type Readability string

// Readability labels.
const (
	ReadabilityHigh   Readability = "High"
	ReadabilityMedium Readability = "Medium"
	ReadabilityLow    Readability = "Low"
)

// FeatureVector holds the calibrated features of one signature.
// Spatial values are in millimeters; ratios are dimensionless.
//
// A vector is built once by the extractor and never mutated afterwards;
// Without returns a modified copy.
type FeatureVector struct {
	ImageID       string `json:"image_id"`
	CalibrationID string `json:"calibration_id"`

	// Values holds scalar features.
	Values map[FeatureName]float64 `json:"values"`

	// Histograms holds normalized histogram features.
	Histograms map[FeatureName][]float64 `json:"histograms,omitempty"`

	// Labels holds categorical features.
	Labels map[FeatureName]string `json:"labels,omitempty"`

	// Missing lists features that could not be computed.
	Missing []FeatureName `json:"missing,omitempty"`

	// Partial is true whenever Missing is non-empty.
	Partial bool `json:"partial"`

	// ExtractorVersion identifies the feature definitions the vector was
	// computed with. Cached vectors from another version are recomputed.
	ExtractorVersion string `json:"extractor_version"`
}

// NewFeatureVector creates an empty vector for the given calibration.
func NewFeatureVector(imageID, calibrationID string) *FeatureVector {
	return &FeatureVector{
		ImageID:       imageID,
		CalibrationID: calibrationID,
		Values:        make(map[FeatureName]float64),
		Histograms:    make(map[FeatureName][]float64),
		Labels:        make(map[FeatureName]string),
	}
}

// SetValue records a scalar feature. Non-finite values are recorded as
// missing instead.
func (v *FeatureVector) SetValue(name FeatureName, value float64) {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		v.SetMissing(name)
		return
	}
	v.Values[name] = value
}

// SetHistogram records a histogram feature.
func (v *FeatureVector) SetHistogram(name FeatureName, bins []float64) {
	if len(bins) == 0 {
		v.SetMissing(name)
		return
	}
	v.Histograms[name] = slices.Clone(bins)
}

// SetLabel records a categorical feature.
func (v *FeatureVector) SetLabel(name FeatureName, label string) {
	if label == "" {
		v.SetMissing(name)
		return
	}
	v.Labels[name] = label
}

// SetMissing marks a feature as not computable and flags the vector partial.
func (v *FeatureVector) SetMissing(name FeatureName) {
	delete(v.Values, name)
	delete(v.Histograms, name)
	delete(v.Labels, name)
	if !slices.Contains(v.Missing, name) {
		v.Missing = append(v.Missing, name)
		slices.Sort(v.Missing)
	}
	v.Partial = true
}

// Value returns a scalar feature.
func (v *FeatureVector) Value(name FeatureName) (float64, bool) {
	value, ok := v.Values[name]
	return value, ok
}

// Histogram returns a histogram feature.
func (v *FeatureVector) Histogram(name FeatureName) ([]float64, bool) {
	bins, ok := v.Histograms[name]
	return bins, ok
}

// Label returns a categorical feature.
func (v *FeatureVector) Label(name FeatureName) (string, bool) {
	label, ok := v.Labels[name]
	return label, ok
}

// Has reports whether the feature is present in any form.
func (v *FeatureVector) Has(name FeatureName) bool {
	if _, ok := v.Values[name]; ok {
		return true
	}
	if _, ok := v.Histograms[name]; ok {
		return true
	}
	_, ok := v.Labels[name]
	return ok
}

// Clone returns a deep copy of the vector.
func (v *FeatureVector) Clone() *FeatureVector {
	out := NewFeatureVector(v.ImageID, v.CalibrationID)
	for k, val := range v.Values {
		out.Values[k] = val
	}
	for k, bins := range v.Histograms {
		out.Histograms[k] = slices.Clone(bins)
	}
	for k, label := range v.Labels {
		out.Labels[k] = label
	}
	out.Missing = slices.Clone(v.Missing)
	out.Partial = v.Partial
	out.ExtractorVersion = v.ExtractorVersion
	return out
}

// Without returns a copy with the named features marked missing.
func (v *FeatureVector) Without(names ...FeatureName) *FeatureVector {
	out := v.Clone()
	for _, name := range names {
		out.SetMissing(name)
	}
	return out
}
