package config

import (
	"path/filepath"
	"slices"
	"time"

	"github.com/adrg/xdg"

	"github.com/nao1215/scratchindex/internal/scratch"
)

// Default configuration values.
const (
	// AppName is the application name used for XDG directory paths.
	AppName = "scratchindex"

	// DefaultConcurrency is the number of images decoded and analyzed at once
	// during a full recompute.
	DefaultConcurrency = 10

	// DefaultMaxImageBytes rejects image files larger than 10MB, the upload
	// limit researchers already work with.
	DefaultMaxImageBytes = 10 * 1024 * 1024

	// DefaultRecomputeTimeout bounds a full recompute of one experiment.
	DefaultRecomputeTimeout = 5 * time.Minute

	// DefaultNormalization divides raw scores by the largest weight.
	DefaultNormalization = "max-weight"
)

// DefaultFormats are the image formats accepted on import and analysis.
var DefaultFormats = []string{"jpeg", "png", "webp"}

// SupportedFormats are all formats the decoder can read.
var SupportedFormats = []string{"jpeg", "png", "webp", "gif", "bmp", "tiff"}

// Config holds all configuration options for scratchindex.
// It is populated from defaults, the config file, the environment and CLI
// flags, then passed down explicitly.
type Config struct {
	// DBDir is the directory holding the SQLite database.
	// Defaults to the XDG data directory (~/.local/share/scratchindex on Linux).
	DBDir string

	// Concurrency is the number of images analyzed at once.
	Concurrency int

	// MaxImageBytes is the largest accepted image file.
	MaxImageBytes int64

	// Formats lists the accepted image formats.
	Formats []string

	// RecomputeTimeout bounds a full recompute. Zero disables the bound.
	RecomputeTimeout time.Duration

	// Normalization selects the scratch index normalization
	// ("max-weight" or "double-max-weight").
	Normalization string

	// Verbose enables debug logging.
	Verbose bool

	// ConfigFilePath is an explicit config file path. When empty,
	// .scratchindex is searched in the current and home directories.
	ConfigFilePath string

	// JSONReport selects JSON output. Mutually exclusive with MarkdownReport.
	JSONReport bool

	// MarkdownReport selects Markdown output. Mutually exclusive with JSONReport.
	MarkdownReport bool

	// ReportFile writes the report to a file instead of stdout.
	ReportFile string
}

// NewConfig creates a new Config with default values.
func NewConfig() *Config {
	return &Config{
		DBDir:            XDGDataDir(),
		Concurrency:      DefaultConcurrency,
		MaxImageBytes:    DefaultMaxImageBytes,
		Formats:          slices.Clone(DefaultFormats),
		RecomputeTimeout: DefaultRecomputeTimeout,
		Normalization:    DefaultNormalization,
	}
}

// XDGDataDir returns the XDG data directory for scratchindex.
// On Linux: ~/.local/share/scratchindex
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for scratchindex.
// On Linux: ~/.config/scratchindex
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks the configuration and returns the first problem found.
func (c *Config) Validate() error {
	if c.DBDir == "" {
		return ErrNoDBDir
	}

	if c.Concurrency <= 0 {
		return ErrInvalidConcurrency
	}

	if c.MaxImageBytes <= 0 {
		return ErrInvalidMaxImageBytes
	}

	if len(c.Formats) == 0 {
		return ErrNoFormats
	}
	for _, f := range c.Formats {
		if !slices.Contains(SupportedFormats, f) {
			return ErrUnsupportedFormat
		}
	}

	if c.RecomputeTimeout < 0 {
		return ErrInvalidRecomputeTimeout
	}

	if _, ok := scratch.ParseNormalization(c.Normalization); !ok {
		return ErrUnknownNormalization
	}

	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}

	return nil
}

// NormalizationMode returns the parsed normalization. Call Validate first;
// unknown names fall back to the default.
func (c *Config) NormalizationMode() scratch.Normalization {
	n, _ := scratch.ParseNormalization(c.Normalization)
	return n
}
