package pipeline

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/grapholex/grapholex/internal/imageio"
	"github.com/grapholex/grapholex/internal/model"
)

// DefaultConcurrency is the number of images processed at once.
const DefaultConcurrency = 4

// BatchProcessor runs a fresh pipeline per image with bounded concurrency.
type BatchProcessor struct {
	// pipelineFactory creates one pipeline per image so that no step state
	// is shared between images.
	pipelineFactory func() *Pipeline

	concurrency int
	logger      *slog.Logger

	// progress is called for each finished analysis with its index in
	// the input.
	progress func(analysis *model.Analysis, index int)
}

// BatchOption configures a BatchProcessor.
type BatchOption func(*BatchProcessor)

// WithBatchLogger sets a custom logger for batch processing.
func WithBatchLogger(logger *slog.Logger) BatchOption {
	return func(b *BatchProcessor) {
		b.logger = logger
	}
}

// WithConcurrency sets the maximum number of images processed at once.
// Non-positive values keep the default.
func WithConcurrency(n int) BatchOption {
	return func(b *BatchProcessor) {
		if n > 0 {
			b.concurrency = n
		}
	}
}

// WithProgress sets a callback run for each finished analysis with its
// index in the input. It runs on the worker goroutine and must be safe for
// concurrent use.
func WithProgress(fn func(analysis *model.Analysis, index int)) BatchOption {
	return func(b *BatchProcessor) {
		b.progress = fn
	}
}

// NewBatchProcessor creates a new BatchProcessor.
func NewBatchProcessor(pipelineFactory func() *Pipeline, opts ...BatchOption) *BatchProcessor {
	bp := &BatchProcessor{
		pipelineFactory: pipelineFactory,
		concurrency:     DefaultConcurrency,
	}
	for _, opt := range opts {
		opt(bp)
	}
	if bp.logger == nil {
		bp.logger = slog.Default()
	}
	return bp
}

// Concurrency returns the concurrency limit.
func (bp *BatchProcessor) Concurrency() int {
	return bp.concurrency
}

// ProcessBatch analyzes images concurrently. Each image is processed as a
// pending copy, so the caller's images are never modified. The returned
// analyses are in input order and include failed ones; a single failure
// never stops the batch. The error is non-nil only when ctx ends, in which
// case images that did not start are reported as cancelled.
func (bp *BatchProcessor) ProcessBatch(ctx context.Context, images []*model.SignatureImage) ([]*model.Analysis, error) {
	bp.logger.Info("starting batch processing",
		"total_images", len(images),
		"concurrency", bp.concurrency,
	)
	startTime := time.Now()

	// Each goroutine writes only its own index.
	results := make([]*model.Analysis, len(images))
	for i, img := range images {
		results[i] = model.NewAnalysis(pending(img))
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(bp.concurrency)

	for i := range images {
		analysis := results[i]
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}

			bp.logger.Debug("processing image",
				"image", analysis.Image.ID,
				"index", i+1,
				"total", len(images),
			)

			// Failures are recorded in the analysis.
			_ = bp.pipelineFactory().Execute(gctx, analysis) //nolint:errcheck // stored in analysis
			if bp.progress != nil {
				bp.progress(analysis, i)
			}
			return nil
		})
	}

	err := g.Wait()
	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		for _, a := range results {
			if a.Image.Status == model.StatusPending {
				a.Fail("start", err)
				a.FinishedAt = time.Now()
				a.Image.Status = model.StatusFailed
			}
		}
	}

	bp.logger.Info("batch processing complete",
		"total_images", len(images),
		"elapsed", time.Since(startTime),
	)
	return results, err
}

// pending copies img for processing and assigns its content-derived ID
// when it has none.
func pending(img *model.SignatureImage) *model.SignatureImage {
	cp := img.Pending()
	if cp.ID == "" {
		cp.ID = imageio.ImageID(cp.Data, cp.WidthMM, cp.HeightMM)
	}
	return cp
}
