package model

import (
	"context"
	"errors"
	"fmt"
)

// Input defects. They are scoped to one image and never retried, since
// processing the same bytes again gives the same outcome.
var (
	// ErrImageDecode is returned when the bytes are not a readable raster.
	ErrImageDecode = errors.New("image decode failed")

	// ErrInvalidDimensions is returned when a declared size is not positive.
	ErrInvalidDimensions = errors.New("invalid declared dimensions: width and height must be positive millimeters")

	// ErrInsufficientInk is returned when the page holds too little
	// foreground to be a signature. A best-effort CalibrationResult with
	// zero confidence accompanies it.
	ErrInsufficientInk = errors.New("insufficient ink: too little foreground to be a signature")

	// ErrEmptySignature is returned when the binary mask is empty after
	// thresholding. No partial features are emitted.
	ErrEmptySignature = errors.New("empty signature: no foreground after thresholding")

	// ErrCalibrationFailed is returned when features are requested for a
	// calibration that is missing or flagged failed.
	ErrCalibrationFailed = errors.New("calibration missing or failed")
)

// Aggregation failures.
var (
	// ErrNoUsableReference is returned when no reference vector can be
	// compared with the questioned vector.
	ErrNoUsableReference = errors.New("no usable reference signature")
)

// ErrInvalidTransition is returned for an illegal status change.
var ErrInvalidTransition = errors.New("invalid status transition")

// ErrorKind classifies failures for reports.
type ErrorKind int

const (
	// KindNone means no error.
	KindNone ErrorKind = iota

	// KindInputDefect covers unreadable images, insufficient ink and
	// degenerate masks.
	KindInputDefect

	// KindAggregation covers comparisons with no usable reference.
	KindAggregation

	// KindCancelled covers context cancellation and deadlines.
	KindCancelled

	// KindInternal covers everything else.
	KindInternal
)

// String returns the lower-case kind name.
func (k ErrorKind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindInputDefect:
		return "input_defect"
	case KindAggregation:
		return "aggregation"
	case KindCancelled:
		return "cancelled"
	case KindInternal:
		return "internal"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (k ErrorKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *ErrorKind) UnmarshalText(text []byte) error {
	for _, candidate := range []ErrorKind{KindNone, KindInputDefect, KindAggregation, KindCancelled, KindInternal} {
		if candidate.String() == string(text) {
			*k = candidate
			return nil
		}
	}
	return fmt.Errorf("unknown error kind %q", string(text))
}

// KindOf classifies err.
func KindOf(err error) ErrorKind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrImageDecode),
		errors.Is(err, ErrInvalidDimensions),
		errors.Is(err, ErrInsufficientInk),
		errors.Is(err, ErrEmptySignature),
		errors.Is(err, ErrCalibrationFailed):
		return KindInputDefect
	case errors.Is(err, ErrNoUsableReference):
		return KindAggregation
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return KindCancelled
	default:
		return KindInternal
	}
}
