package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/nao1215/scratchindex/internal/histogram"
	"github.com/nao1215/scratchindex/internal/imaging"
	"github.com/nao1215/scratchindex/internal/model"
)

// ErrMissingInput is returned when a step runs before the step producing its input.
var ErrMissingInput = errors.New("step input not available")

// BytesLoader fetches raw image bytes by image id.
type BytesLoader interface {
	GetBytes(ctx context.Context, imageID string) ([]byte, error)
}

// LoadStep fetches the image bytes unless the frame already carries them.
type LoadStep struct {
	loader BytesLoader
}

// NewLoadStep creates a load step reading from loader.
func NewLoadStep(loader BytesLoader) *LoadStep {
	return &LoadStep{loader: loader}
}

// Name returns the step name.
func (s *LoadStep) Name() string { return "load" }

// Do fetches frame.Data.
func (s *LoadStep) Do(ctx context.Context, frame *Frame) error {
	if len(frame.Data) > 0 {
		return nil
	}
	if s.loader == nil {
		return fmt.Errorf("%w: no image bytes and no loader", ErrMissingInput)
	}
	data, err := s.loader.GetBytes(ctx, frame.ImageID)
	if err != nil {
		return err
	}
	frame.Data = data
	return nil
}

// DecodeStep turns frame.Data into frame.Grid.
type DecodeStep struct {
	decoder *imaging.Decoder
}

// NewDecodeStep creates a decode step. A nil decoder uses imaging defaults.
func NewDecodeStep(decoder *imaging.Decoder) *DecodeStep {
	if decoder == nil {
		decoder = imaging.NewDecoder()
	}
	return &DecodeStep{decoder: decoder}
}

// Name returns the step name.
func (s *DecodeStep) Name() string { return "decode" }

// Do decodes the frame's bytes. Failures are reported as *model.DecodeError.
func (s *DecodeStep) Do(_ context.Context, frame *Frame) error {
	grid, format, err := s.decoder.Decode(frame.Data)
	if err != nil {
		return &model.DecodeError{ImageID: frame.ImageID, Err: err}
	}
	frame.Grid = grid
	frame.Format = format
	// raw bytes are no longer needed and may be large
	frame.Data = nil
	return nil
}

// CropStep cuts frame.Region out of frame.Grid.
type CropStep struct{}

// Name returns the step name.
func (CropStep) Name() string { return "crop" }

// Do replaces frame.Grid with its cropped version.
func (CropStep) Do(_ context.Context, frame *Frame) error {
	if frame.Grid.Pix == nil {
		return fmt.Errorf("%w: no decoded grid", ErrMissingInput)
	}
	cropped, err := imaging.Crop(frame.Grid, frame.Region)
	if err != nil {
		return err
	}
	frame.Grid = cropped
	return nil
}

// GrayscaleStep converts frame.Grid into frame.Luminance.
type GrayscaleStep struct{}

// Name returns the step name.
func (GrayscaleStep) Name() string { return "grayscale" }

// Do fills frame.Luminance.
func (GrayscaleStep) Do(_ context.Context, frame *Frame) error {
	if frame.Grid.Pix == nil {
		return fmt.Errorf("%w: no pixel grid", ErrMissingInput)
	}
	frame.Luminance = imaging.Luminance(frame.Grid)
	frame.Grid = imaging.PixelGrid{}
	return nil
}

// HistogramStep builds frame.Histogram from frame.Luminance.
type HistogramStep struct{}

// Name returns the step name.
func (HistogramStep) Name() string { return "histogram" }

// Do fills frame.Histogram.
func (HistogramStep) Do(_ context.Context, frame *Frame) error {
	if frame.Luminance.Values == nil {
		return fmt.Errorf("%w: no luminance grid", ErrMissingInput)
	}
	frame.Histogram = histogram.Build(frame.Luminance)
	frame.Luminance = imaging.LuminanceGrid{}
	return nil
}

// DefaultPipeline returns load → decode → crop → grayscale → histogram.
func DefaultPipeline(loader BytesLoader, decoder *imaging.Decoder, opts ...Option) *Pipeline {
	p := New(opts...)
	p.AddSteps(
		NewLoadStep(loader),
		NewDecodeStep(decoder),
		CropStep{},
		GrayscaleStep{},
		HistogramStep{},
	)
	return p
}
