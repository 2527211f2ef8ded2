package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency is the number of frames processed at once unless
// WithConcurrency says otherwise.
const DefaultConcurrency = 10

// FrameError reports which frame stopped a batch.
type FrameError struct {
	// ImageID is the image whose pipeline failed.
	ImageID string
	// Err is the pipeline error.
	Err error
}

// Error implements the error interface.
func (e *FrameError) Error() string {
	return fmt.Sprintf("image %s: %v", e.ImageID, e.Err)
}

// Unwrap returns the pipeline error.
func (e *FrameError) Unwrap() error { return e.Err }

// BatchProcessor runs one pipeline per frame with bounded concurrency.
// It uses errgroup to manage goroutines and respect the concurrency limit.
//
// Design decision: an analysis batch is all-or-nothing rather than
// collecting per-frame failures because:
// 1. A result set mixing fresh and stale scores has no meaning
// 2. The first failure cancels the remaining frames, so no work is wasted
// 3. The failing image is named in the returned *FrameError
//
// A new pipeline is built per frame from the factory, so steps may keep
// per-frame state without locking.
type BatchProcessor struct {
	// pipelineFactory creates a fresh pipeline for each frame.
	pipelineFactory func() *Pipeline

	// concurrency is the maximum number of frames in flight.
	concurrency int

	logger *slog.Logger
}

// BatchOption configures a BatchProcessor.
type BatchOption func(*BatchProcessor)

// WithBatchLogger sets a custom logger for batch processing.
func WithBatchLogger(logger *slog.Logger) BatchOption {
	return func(b *BatchProcessor) {
		b.logger = logger
	}
}

// WithConcurrency sets the maximum number of concurrent frames.
// Non-positive values are ignored.
func WithConcurrency(n int) BatchOption {
	return func(b *BatchProcessor) {
		if n > 0 {
			b.concurrency = n
		}
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

// Concurrency returns the configured concurrency limit.
func (bp *BatchProcessor) Concurrency() int {
	return bp.concurrency
}

// ProcessBatch runs the pipeline on every frame. Frames are updated in place.
// It returns nil only when every frame completed.
func (bp *BatchProcessor) ProcessBatch(ctx context.Context, frames []*Frame) error {
	bp.logger.Debug("starting batch",
		"frames", len(frames),
		"concurrency", bp.concurrency,
	)

	startTime := time.Now()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(bp.concurrency)

	for _, frame := range frames {
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}

			if err := bp.pipelineFactory().Execute(gctx, frame); err != nil {
				return &FrameError{ImageID: frame.ImageID, Err: err}
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		bp.logger.Warn("batch aborted",
			"frames", len(frames),
			"error", err,
		)
		return err
	}

	bp.logger.Debug("batch complete",
		"frames", len(frames),
		"elapsed", time.Since(startTime),
	)
	return nil
}
