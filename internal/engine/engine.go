package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/grapholex/grapholex/internal/calibrate"
	"github.com/grapholex/grapholex/internal/classify"
	"github.com/grapholex/grapholex/internal/features"
	"github.com/grapholex/grapholex/internal/model"
	"github.com/grapholex/grapholex/internal/pipeline"
	"github.com/grapholex/grapholex/internal/profile"
	"github.com/grapholex/grapholex/internal/scoring"
)

// StageCompare is the failure stage of a questioned signature that could
// not be compared.
const StageCompare = "compare"

// Engine wires calibration, extraction, scoring and classification
// together. It is safe for concurrent use.
type Engine struct {
	profile     *profile.Profile
	calibrator  pipeline.Calibrator
	extractor   pipeline.Extractor
	cache       pipeline.FeatureCache
	scorer      *scoring.Scorer
	classifier  *classify.Classifier
	language    []string
	concurrency int
	logger      *slog.Logger
	progress    func(a *model.Analysis, done, total int)
}

// Option configures an Engine.
type Option func(*Engine)

// WithProfile sets weights, ranges and thresholds.
func WithProfile(p *profile.Profile) Option {
	return func(e *Engine) {
		e.profile = p
	}
}

// WithCache stores feature vectors keyed by image and calibration ID.
func WithCache(c pipeline.FeatureCache) Option {
	return func(e *Engine) {
		e.cache = c
	}
}

// WithConcurrency bounds the number of images processed at once.
func WithConcurrency(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.concurrency = n
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithLanguage selects the explanation language.
func WithLanguage(prefs ...string) Option {
	return func(e *Engine) {
		e.language = prefs
	}
}

// WithProgress sets a callback run by CompareAll each time an image
// finishes calibration and extraction. done counts finished images. The
// callback may run on several goroutines at once.
func WithProgress(fn func(a *model.Analysis, done, total int)) Option {
	return func(e *Engine) {
		e.progress = fn
	}
}

// WithCalibrator replaces the default calibrator.
func WithCalibrator(c pipeline.Calibrator) Option {
	return func(e *Engine) {
		e.calibrator = c
	}
}

// WithExtractor replaces the default feature extractor.
func WithExtractor(x pipeline.Extractor) Option {
	return func(e *Engine) {
		e.extractor = x
	}
}

// New creates an Engine with the default profile unless one is given.
func New(opts ...Option) *Engine {
	e := &Engine{
		concurrency: pipeline.DefaultConcurrency,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	if e.profile == nil {
		e.profile = profile.Default()
	}
	if e.calibrator == nil {
		e.calibrator = calibrate.New(calibrate.WithLogger(e.logger))
	}
	if e.extractor == nil {
		e.extractor = features.New(
			features.WithProfile(e.profile),
			features.WithLogger(e.logger),
		)
	}
	e.scorer = scoring.NewScorer(e.profile)
	e.classifier = classify.New(
		classify.WithProfile(e.profile),
		classify.WithLanguage(e.language...),
	)
	return e
}

// Profile returns the profile in use.
func (e *Engine) Profile() *profile.Profile {
	return e.profile
}

// Classifier returns the classifier, for localized labels.
func (e *Engine) Classifier() *classify.Classifier {
	return e.classifier
}

// Calibrate maps an encoded image whose signature measures widthMM x
// heightMM onto physical units. The image ID is derived from the content
// and the declared size.
func (e *Engine) Calibrate(ctx context.Context, data []byte, widthMM, heightMM float64) (*model.CalibrationResult, error) {
	return e.calibrator.CalibrateImage(ctx, model.NewSignatureImage("", data, widthMM, heightMM, model.RoleQuestioned))
}

// ExtractFeatures returns the feature vector of a calibration, from the
// cache when one is configured.
func (e *Engine) ExtractFeatures(ctx context.Context, cal *model.CalibrationResult) (*model.FeatureVector, error) {
	if !cal.Usable() {
		return nil, model.ErrCalibrationFailed
	}
	fv, _, err := pipeline.Features(ctx, e.extractor, e.cache, features.Version, cal, e.logger)
	return fv, err
}

// Compare classifies a questioned vector against reference vectors. It
// returns model.ErrNoUsableReference, and no verdict, when no reference
// can be compared.
func (e *Engine) Compare(q *model.FeatureVector, refs []*model.FeatureVector) (*model.Verdict, error) {
	if q == nil {
		return nil, errors.New("compare: nil questioned vector")
	}
	agg, err := e.scorer.Aggregate(q, refs)
	if err != nil {
		return nil, fmt.Errorf("compare %s: %w", q.ImageID, err)
	}
	return e.classifier.Classify(agg, q), nil
}

// Aggregate scores a questioned vector against every reference without
// classifying it.
func (e *Engine) Aggregate(q *model.FeatureVector, refs []*model.FeatureVector) (*model.Aggregate, error) {
	return e.scorer.Aggregate(q, refs)
}

// CompareAll processes every image of the project and compares each
// completed questioned signature with all completed references.
//
// Image and comparison failures are recorded in the result and never stop
// the run. The error is non-nil only when ctx ends, together with the
// partial result. The caller's project is not modified, so calling
// CompareAll again yields the same verdicts.
func (e *Engine) CompareAll(ctx context.Context, project *model.Project) (*model.ProjectResult, error) {
	if project == nil {
		return nil, errors.New("compare all: nil project")
	}
	started := time.Now()

	result := &model.ProjectResult{
		ProjectID:      project.ID,
		ProjectName:    project.Name,
		ProfileVersion: e.profile.Version,
		GeneratedAt:    started,
		Verdicts:       make([]*model.Verdict, 0, len(project.Questioned)),
	}

	images := project.Images()
	batchOpts := []pipeline.BatchOption{
		pipeline.WithConcurrency(e.concurrency),
		pipeline.WithBatchLogger(e.logger),
	}
	if e.progress != nil {
		var done atomic.Int64
		batchOpts = append(batchOpts, pipeline.WithProgress(func(a *model.Analysis, _ int) {
			e.progress(a, int(done.Add(1)), len(images))
		}))
	}
	bp := pipeline.NewBatchProcessor(e.newPipeline, batchOpts...)
	analyses, err := bp.ProcessBatch(ctx, images)
	result.Analyses = analyses
	for _, a := range analyses {
		if a.Failed() {
			result.Failures = append(result.Failures, failureOf(a))
		}
	}
	if err != nil {
		return result, err
	}

	var refs []*model.FeatureVector
	var questioned []*model.Analysis
	for _, a := range analyses {
		if a.Failed() || a.Features == nil {
			continue
		}
		switch a.Image.Role {
		case model.RoleReference:
			refs = append(refs, a.Features)
		case model.RoleQuestioned:
			questioned = append(questioned, a)
		}
	}

	verdicts := make([]*model.Verdict, len(questioned))
	failures := make([]*model.Failure, len(questioned))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)
	for i, a := range questioned {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			v, err := e.Compare(a.Features, refs)
			if err != nil {
				f := failureOf(a)
				f.Stage = StageCompare
				f.Kind = model.KindOf(err)
				f.Message = err.Error()
				failures[i] = &f
				return nil
			}
			verdicts[i] = v
			e.logger.Debug("verdict",
				"image", a.Image.ID,
				"category", v.Category,
				"similarity", v.AggregateSimilarity,
				"naturalness", v.Naturalness,
			)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return result, err
	}

	for i := range questioned {
		if verdicts[i] != nil {
			result.Verdicts = append(result.Verdicts, verdicts[i])
		}
		if failures[i] != nil {
			result.Failures = append(result.Failures, *failures[i])
		}
	}

	e.logger.Info("project compared",
		"project", project.ID,
		"references", len(refs),
		"questioned", len(questioned),
		"verdicts", len(result.Verdicts),
		"failures", len(result.Failures),
		"elapsed", time.Since(started),
	)
	return result, nil
}

func (e *Engine) newPipeline() *pipeline.Pipeline {
	return pipeline.NewImagePipeline(e.calibrator, e.extractor, e.logger,
		pipeline.WithCache(e.cache),
		pipeline.WithExtractorVersion(features.Version),
	)
}

func failureOf(a *model.Analysis) model.Failure {
	return model.Failure{
		ImageID: a.Image.ID,
		Label:   a.Image.Label,
		Role:    a.Image.Role,
		Stage:   a.Stage,
		Kind:    model.KindOf(a.Err),
		Message: a.ErrorMessage,
	}
}
