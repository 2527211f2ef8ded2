package analysis

import (
	"context"

	"github.com/nao1215/scratchindex/internal/model"
)

// ImageStore provides image metadata and bytes.
type ImageStore interface {
	// GetImage returns the image's metadata or model.ErrImageNotFound.
	GetImage(ctx context.Context, imageID string) (model.ImageRef, error)

	// GetBytes returns the encoded image or model.ErrImageNotFound.
	GetBytes(ctx context.Context, imageID string) ([]byte, error)

	// ListByExperiment returns the experiment's images in a stable order.
	ListByExperiment(ctx context.Context, experimentID string) ([]model.ImageRef, error)
}

// ExperimentStore holds each experiment's region and result set.
// All methods return model.ErrExperimentNotFound for unknown experiments.
type ExperimentStore interface {
	// GetRegion returns the analysis region, or nil for the whole image.
	GetRegion(ctx context.Context, experimentID string) (*model.Region, error)

	// SetRegion stores the analysis region; nil clears it.
	SetRegion(ctx context.Context, experimentID string, region *model.Region) error

	// GetResultSet returns the stored results.
	GetResultSet(ctx context.Context, experimentID string) (model.ResultSet, error)

	// ReplaceResultSet swaps the whole set in one atomic write.
	ReplaceResultSet(ctx context.Context, experimentID string, set model.ResultSet) error

	// UpsertResult replaces the entry for result.ImageID, or appends it.
	UpsertResult(ctx context.Context, experimentID string, result model.AnalysisResult) error

	// RemoveResult drops the entry for imageID if present.
	RemoveResult(ctx context.Context, experimentID, imageID string) error
}

// RegionReplacer is implemented by stores that can change the region and
// the result set in one transaction. UpdateRegion prefers it when available.
type RegionReplacer interface {
	ReplaceRegionAndResultSet(ctx context.Context, experimentID string, region *model.Region, set model.ResultSet) error
}
