package config

import "errors"

// Configuration validation errors returned by Config.Validate.
var (
	// ErrNoDBDir is returned when no database directory is configured.
	ErrNoDBDir = errors.New("no database directory configured")

	// ErrInvalidConcurrency is returned when concurrency is not positive.
	ErrInvalidConcurrency = errors.New("invalid concurrency: must be positive")

	// ErrInvalidMaxImageBytes is returned when the image size limit is not positive.
	ErrInvalidMaxImageBytes = errors.New("invalid max image size: must be positive")

	// ErrNoFormats is returned when no image format is accepted.
	ErrNoFormats = errors.New("no image formats configured")

	// ErrUnsupportedFormat is returned for a format the decoder cannot read.
	ErrUnsupportedFormat = errors.New("unsupported image format: use jpeg, png, webp, gif, bmp or tiff")

	// ErrInvalidRecomputeTimeout is returned when the recompute timeout is negative.
	ErrInvalidRecomputeTimeout = errors.New("invalid recompute timeout: must be non-negative")

	// ErrUnknownNormalization is returned for a normalization name other than
	// "max-weight" or "double-max-weight".
	ErrUnknownNormalization = errors.New("unknown normalization: use max-weight or double-max-weight")

	// ErrConflictingReportFormats is returned when both --json and --markdown are given.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")

	// ErrInvalidEnvValue is returned when a SCRATCHINDEX_* variable cannot be parsed.
	ErrInvalidEnvValue = errors.New("invalid environment value")
)
