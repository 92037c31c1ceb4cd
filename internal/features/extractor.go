package features

import (
	"context"
	"log/slog"

	"github.com/grapholex/grapholex/internal/model"
	"github.com/grapholex/grapholex/internal/preprocess"
	"github.com/grapholex/grapholex/internal/profile"
)

// Version identifies the feature definitions. Bump it whenever a feature
// formula changes so cached vectors are recomputed.
const Version = "1"

// Sampling constants.
const (
	// CurvatureStep is the chord length in pixels for turning angles.
	CurvatureStep = 5

	// MicroCurvatureStep is the chord length for micro-curvature.
	MicroCurvatureStep = 2

	// MinMicroSamples is the fewest turning samples micro-curvature needs.
	MinMicroSamples = 8

	// CurvatureBins is the size of the curvature histogram.
	CurvatureBins = 8

	// FluidityStep is the chord length for the jitter ratio.
	FluidityStep = 5

	// MinInclinationPixels is the fewest ink pixels inclination needs.
	MinInclinationPixels = 5

	// IsotropyRatio is the eigenvalue ratio above which the ink has no
	// dominant axis.
	IsotropyRatio = 0.9

	// MinLoopAreaPx drops holes too small to be written loops.
	MinLoopAreaPx = 20
)

// Extractor computes feature vectors from calibrated signatures.
type Extractor struct {
	pre     *preprocess.Preprocessor
	profile *profile.Profile
	logger  *slog.Logger
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithPreprocessor replaces the default Preprocessor.
func WithPreprocessor(p *preprocess.Preprocessor) Option {
	return func(e *Extractor) {
		e.pre = p
	}
}

// WithProfile sets the profile used for style thresholds and naturalness
// weights.
func WithProfile(p *profile.Profile) Option {
	return func(e *Extractor) {
		e.profile = p
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Extractor) {
		e.logger = logger
	}
}

// New creates an Extractor.
func New(opts ...Option) *Extractor {
	e := &Extractor{}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	if e.profile == nil {
		e.profile = profile.Default()
	}
	if e.pre == nil {
		e.pre = preprocess.New(preprocess.WithLogger(e.logger))
	}
	return e
}

// Extract computes the feature vector of a calibrated signature.
//
// It returns model.ErrCalibrationFailed for failed calibrations and
// model.ErrEmptySignature when no ink survives preprocessing. Individual
// features that cannot be computed are marked missing instead.
func (e *Extractor) Extract(ctx context.Context, cal *model.CalibrationResult) (*model.FeatureVector, error) {
	if !cal.Usable() {
		return nil, model.ErrCalibrationFailed
	}
	rep, err := e.pre.Process(ctx, cal)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	fv := e.FromRepresentation(rep, cal.ImageID, cal.ID)
	if fv.Partial {
		e.logger.Info("partial feature vector",
			"image_id", cal.ImageID,
			"missing", fv.Missing,
		)
	}
	return fv, nil
}

// FromRepresentation computes every feature of a preprocessed signature.
func (e *Extractor) FromRepresentation(rep *preprocess.Representation, imageID, calibrationID string) *model.FeatureVector {
	fv := model.NewFeatureVector(imageID, calibrationID)
	fv.ExtractorVersion = Version

	m := newMeasurements(rep)
	m.base(fv)
	m.advanced(fv, e.profile.Style)
	m.naturalness(fv, e.profile.Naturalness)
	return fv
}
