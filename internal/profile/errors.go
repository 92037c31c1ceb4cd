package profile

import "errors"

// Profile validation errors returned by Profile.Validate and Load.
var (
	// ErrMissingVersion is returned when the profile has no version string.
	ErrMissingVersion = errors.New("profile has no version")

	// ErrInvalidCategoryWeight is returned for negative category weights or
	// when Base and Advanced together weigh nothing.
	ErrInvalidCategoryWeight = errors.New("invalid category weights")

	// ErrInvalidGroup is returned for a group with an unknown category, a
	// non-positive weight or no features.
	ErrInvalidGroup = errors.New("invalid feature group")

	// ErrDuplicateFeature is returned when a feature appears in two groups.
	ErrDuplicateFeature = errors.New("feature declared more than once")

	// ErrInvalidRange is returned for a scalar feature without a positive range.
	ErrInvalidRange = errors.New("scalar feature needs a positive range")

	// ErrUnknownKind is returned for a feature kind other than scalar,
	// histogram or label.
	ErrUnknownKind = errors.New("unknown feature kind")

	// ErrInvalidNaturalnessWeights is returned when the naturalness weights
	// are negative or all zero.
	ErrInvalidNaturalnessWeights = errors.New("invalid naturalness weights")

	// ErrInvalidThresholds is returned when thresholds leave [0,1] or are
	// not ordered.
	ErrInvalidThresholds = errors.New("invalid verdict thresholds")

	// ErrInvalidAggregation is returned for out-of-range aggregation settings.
	ErrInvalidAggregation = errors.New("invalid aggregation settings")

	// ErrInvalidLabelCredit is returned when the mixed label credit leaves [0,1].
	ErrInvalidLabelCredit = errors.New("invalid mixed label credit")
)
