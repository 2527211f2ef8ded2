package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nao1215/scratchindex/internal/histogram"
	"github.com/nao1215/scratchindex/internal/imaging"
	"github.com/nao1215/scratchindex/internal/model"
)

// Frame carries one image through the analysis stages.
// Inputs are set by the caller; each step fills in its output field.
//
// Intermediate outputs stay on the frame until the pipeline finishes. The
// orchestrator only reads Histogram; Format, Grid and Luminance are
// there for steps that follow and for inspecting a stage in tests.
type Frame struct {
	// ImageID identifies the image being analyzed.
	ImageID string

	// Passes is the image's abrasion pass count.
	Passes int

	// Region is the area to analyze; nil means the whole image.
	Region *model.Region

	// Data holds the raw image bytes. The load step fills it when empty.
	Data []byte

	// Format is the decoded image format ("png", "jpeg", ...).
	Format string

	// Grid is the decoded, then cropped, pixel grid.
	Grid imaging.PixelGrid

	// Luminance is the grayscale version of Grid.
	Luminance imaging.LuminanceGrid

	// Histogram is the brightness histogram of Luminance.
	Histogram *histogram.Histogram

	// PerformedSteps lists the names of the steps that completed.
	PerformedSteps []string
}

// NewFrame creates a frame for the given image.
func NewFrame(ref model.ImageRef, region *model.Region) *Frame {
	return &Frame{
		ImageID: ref.ID,
		Passes:  ref.Passes,
		Region:  region,
	}
}

// Step is one analysis stage. Steps run in sequence, each reading the
// fields earlier steps filled in on the frame.
//
// Design decision: steps are an interface rather than plain functions so
// that:
// 1. A step can carry configuration such as the decoder limits
// 2. Name() labels the stage in logs and wrapped errors
// 3. Tests can insert a failing or blocking stage at any position
type Step interface {
	// Do executes the stage on frame. A returned error stops the pipeline.
	Do(ctx context.Context, frame *Frame) error

	// Name returns the step's name for logging purposes.
	Name() string
}

// Pipeline executes steps in sequence on a single frame.
type Pipeline struct {
	steps  []Step
	logger *slog.Logger
}

// Option is a function that configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets a custom logger for the pipeline.
// If not set, slog.Default() is used.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// New creates an empty Pipeline. Steps are added with AddStep.
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

// Execute runs all steps on frame and returns the first error.
// Context cancellation is checked between steps.
func (p *Pipeline) Execute(ctx context.Context, frame *Frame) error {
	for _, step := range p.steps {
		select {
		case <-ctx.Done():
			p.logger.Warn("pipeline cancelled",
				"step", step.Name(),
				"image_id", frame.ImageID,
				"reason", ctx.Err(),
			)
			return ctx.Err()
		default:
		}

		if err := step.Do(ctx, frame); err != nil {
			p.logger.Debug("step failed",
				"step", step.Name(),
				"image_id", frame.ImageID,
				"error", err,
			)
			return fmt.Errorf("%s: %w", step.Name(), err)
		}

		frame.PerformedSteps = append(frame.PerformedSteps, step.Name())
	}

	return nil
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
