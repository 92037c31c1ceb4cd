package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/grapholex/grapholex/internal/model"
)

// Step is one stage of the per-image pipeline. Steps run in sequence and
// fill the shared Analysis.
type Step interface {
	// Do executes the step. A returned error marks the analysis failed
	// at this step.
	Do(ctx context.Context, analysis *model.Analysis) error

	// Name returns the step's name for logging and failure reports.
	Name() string
}

// Pipeline runs its steps over one image.
type Pipeline struct {
	steps  []Step
	logger *slog.Logger

	// continueOnError keeps executing the remaining steps after a failure.
	// The first failure stays recorded in the analysis.
	continueOnError bool
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets a custom logger for the pipeline.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// WithContinueOnError configures the pipeline to run every step even when
// an earlier one fails.
func WithContinueOnError(continueOnError bool) Option {
	return func(p *Pipeline) {
		p.continueOnError = continueOnError
	}
}

// New creates a new Pipeline with the given options.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{
		steps: make([]Step, 0),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	return p
}

// AddStep appends a step to the pipeline.
func (p *Pipeline) AddStep(step Step) {
	p.steps = append(p.steps, step)
}

// AddSteps appends multiple steps to the pipeline.
func (p *Pipeline) AddSteps(steps ...Step) {
	p.steps = append(p.steps, steps...)
}

// Execute runs all steps over the analysis and moves its image from
// pending through processing to completed or failed.
//
// Cancellation is checked before each step. A cancelled analysis fails
// with the context error and keeps no features, since a vector computed
// from an interrupted run is never trusted.
func (p *Pipeline) Execute(ctx context.Context, analysis *model.Analysis) error {
	img := analysis.Image
	if err := img.Transition(model.StatusProcessing); err != nil {
		analysis.Fail("start", err)
		analysis.FinishedAt = time.Now()
		return err
	}

	var firstErr error
	for _, step := range p.steps {
		select {
		case <-ctx.Done():
			p.logger.Warn("pipeline cancelled",
				"step", step.Name(),
				"image", img.ID,
				"reason", ctx.Err(),
			)
			analysis.Features = nil
			analysis.Fail(step.Name(), ctx.Err())
			p.finish(analysis)
			return ctx.Err()
		default:
		}

		p.logger.Debug("executing step",
			"step", step.Name(),
			"image", img.ID,
		)

		if err := step.Do(ctx, analysis); err != nil {
			p.logger.Warn("step failed",
				"step", step.Name(),
				"image", img.ID,
				"error", err,
			)
			if firstErr == nil {
				firstErr = err
				analysis.Fail(step.Name(), err)
			}
			if !p.continueOnError {
				analysis.PerformedSteps = append(analysis.PerformedSteps, step.Name())
				p.finish(analysis)
				return err
			}
		}

		analysis.PerformedSteps = append(analysis.PerformedSteps, step.Name())
	}

	p.finish(analysis)
	return firstErr
}

// finish moves the image to its terminal status.
func (p *Pipeline) finish(analysis *model.Analysis) {
	analysis.FinishedAt = time.Now()
	next := model.StatusCompleted
	if analysis.Failed() {
		next = model.StatusFailed
	}
	if err := analysis.Image.Transition(next); err != nil {
		p.logger.Error("status transition rejected", "image", analysis.Image.ID, "error", err)
	}
}

// StepCount returns the number of steps in the pipeline.
func (p *Pipeline) StepCount() int {
	return len(p.steps)
}

// StepNames returns the names of all steps in execution order.
func (p *Pipeline) StepNames() []string {
	names := make([]string, len(p.steps))
	for i, step := range p.steps {
		names[i] = step.Name()
	}
	return names
}
