package config

import (
	"fmt"
	"time"
)

// File represents the structure of the .scratchindex configuration file.
// Zero values leave the corresponding setting untouched.
type File struct {
	// DBDir is the directory holding the SQLite database.
	DBDir string `yaml:"db_dir,omitempty"`

	// Concurrency is the number of images analyzed at once.
	Concurrency int `yaml:"concurrency,omitempty"`

	// MaxImageBytes is the largest accepted image file in bytes.
	MaxImageBytes int64 `yaml:"max_image_bytes,omitempty"`

	// Formats lists the accepted image formats.
	Formats []string `yaml:"formats,omitempty"`

	// RecomputeTimeout is a Go duration string such as "90s" or "5m".
	RecomputeTimeout string `yaml:"recompute_timeout,omitempty"`

	// Normalization is "max-weight" or "double-max-weight".
	Normalization string `yaml:"normalization,omitempty"`
}

// Apply copies every non-zero setting of the file onto cfg.
func (f *File) Apply(cfg *Config) error {
	if f.DBDir != "" {
		cfg.DBDir = f.DBDir
	}
	if f.Concurrency != 0 {
		cfg.Concurrency = f.Concurrency
	}
	if f.MaxImageBytes != 0 {
		cfg.MaxImageBytes = f.MaxImageBytes
	}
	if len(f.Formats) > 0 {
		cfg.Formats = f.Formats
	}
	if f.RecomputeTimeout != "" {
		d, err := time.ParseDuration(f.RecomputeTimeout)
		if err != nil {
			return fmt.Errorf("recompute_timeout: %w", err)
		}
		cfg.RecomputeTimeout = d
	}
	if f.Normalization != "" {
		cfg.Normalization = f.Normalization
	}
	return nil
}
