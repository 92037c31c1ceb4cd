package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/grapholex/grapholex/internal/imageio"
	"github.com/grapholex/grapholex/internal/model"
)

// Step names, also used as the Stage of failures.
const (
	StepCalibrate = "calibrate"
	StepExtract   = "extract"
)

// Calibrator maps an image onto physical units.
type Calibrator interface {
	CalibrateImage(ctx context.Context, img *model.SignatureImage) (*model.CalibrationResult, error)
}

// Extractor computes a feature vector from a calibration.
type Extractor interface {
	Extract(ctx context.Context, cal *model.CalibrationResult) (*model.FeatureVector, error)
}

// FeatureCache stores feature vectors keyed by image and calibration ID.
// Put must keep the first vector written for a key.
type FeatureCache interface {
	GetFeatures(ctx context.Context, imageID, calibrationID string) (*model.FeatureVector, bool, error)
	PutFeatures(ctx context.Context, fv *model.FeatureVector) error
}

// CalibrateStep calibrates the analysis image.
type CalibrateStep struct {
	calibrator Calibrator
}

// NewCalibrateStep creates a calibration step.
func NewCalibrateStep(c Calibrator) *CalibrateStep {
	return &CalibrateStep{calibrator: c}
}

// Name returns the step name.
func (s *CalibrateStep) Name() string {
	return StepCalibrate
}

// Do calibrates the image. An image without an ID gets its content-derived
// ID first. A best-effort calibration returned with an error is kept on
// the analysis.
func (s *CalibrateStep) Do(ctx context.Context, analysis *model.Analysis) error {
	img := analysis.Image
	if img.ID == "" {
		img.ID = imageio.ImageID(img.Data, img.WidthMM, img.HeightMM)
	}
	cal, err := s.calibrator.CalibrateImage(ctx, img)
	analysis.Calibration = cal
	if err != nil {
		return fmt.Errorf("calibrate %s: %w", img.ID, err)
	}
	return nil
}

// FeatureStep extracts features, consulting the cache when one is set.
type FeatureStep struct {
	extractor Extractor
	cache     FeatureCache
	version   string
	logger    *slog.Logger
}

// FeatureStepOption configures a FeatureStep.
type FeatureStepOption func(*FeatureStep)

// WithCache sets the feature cache.
func WithCache(c FeatureCache) FeatureStepOption {
	return func(s *FeatureStep) {
		s.cache = c
	}
}

// WithExtractorVersion makes cached vectors from other extractor versions
// count as misses.
func WithExtractorVersion(v string) FeatureStepOption {
	return func(s *FeatureStep) {
		s.version = v
	}
}

// WithFeatureLogger sets a custom logger for the step.
func WithFeatureLogger(logger *slog.Logger) FeatureStepOption {
	return func(s *FeatureStep) {
		s.logger = logger
	}
}

// NewFeatureStep creates a feature extraction step.
func NewFeatureStep(e Extractor, opts ...FeatureStepOption) *FeatureStep {
	s := &FeatureStep{
		extractor: e,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// Name returns the step name.
func (s *FeatureStep) Name() string {
	return StepExtract
}

// Do fills analysis.Features.
func (s *FeatureStep) Do(ctx context.Context, analysis *model.Analysis) error {
	cal := analysis.Calibration
	if !cal.Usable() {
		return fmt.Errorf("extract %s: %w", analysis.Image.ID, model.ErrCalibrationFailed)
	}

	fv, hit, err := Features(ctx, s.extractor, s.cache, s.version, cal, s.logger)
	if err != nil {
		return fmt.Errorf("extract %s: %w", analysis.Image.ID, err)
	}
	analysis.Features = fv
	analysis.CacheHit = hit
	return nil
}

// Features returns the cached vector for cal or extracts and stores a new
// one. Cache failures are logged and never fail the extraction.
func Features(ctx context.Context, e Extractor, cache FeatureCache, version string, cal *model.CalibrationResult, logger *slog.Logger) (*model.FeatureVector, bool, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cache != nil {
		fv, ok, err := cache.GetFeatures(ctx, cal.ImageID, cal.ID)
		switch {
		case err != nil:
			logger.Warn("feature cache read failed", "image", cal.ImageID, "error", err)
		case ok && (version == "" || fv.ExtractorVersion == version):
			return fv, true, nil
		}
	}

	fv, err := e.Extract(ctx, cal)
	if err != nil {
		return nil, false, err
	}

	if cache != nil {
		if err := cache.PutFeatures(ctx, fv); err != nil {
			logger.Warn("feature cache write failed", "image", cal.ImageID, "error", err)
		}
	}
	return fv, false, nil
}

// NewImagePipeline returns the calibrate-then-extract pipeline.
func NewImagePipeline(c Calibrator, e Extractor, logger *slog.Logger, opts ...FeatureStepOption) *Pipeline {
	opts = append([]FeatureStepOption{WithFeatureLogger(logger)}, opts...)
	p := New(WithLogger(logger))
	p.AddSteps(
		NewCalibrateStep(c),
		NewFeatureStep(e, opts...),
	)
	return p
}
