package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Environment variables overriding the config file.
const (
	EnvDBDir            = "SCRATCHINDEX_DB_DIR"
	EnvConcurrency      = "SCRATCHINDEX_CONCURRENCY"
	EnvMaxImageBytes    = "SCRATCHINDEX_MAX_IMAGE_BYTES"
	EnvFormats          = "SCRATCHINDEX_FORMATS"
	EnvRecomputeTimeout = "SCRATCHINDEX_RECOMPUTE_TIMEOUT"
	EnvNormalization    = "SCRATCHINDEX_NORMALIZATION"
)

// DefaultEnvFile is read from the current directory when LoadEnv gets no files.
const DefaultEnvFile = ".env"

// LoadEnv applies SCRATCHINDEX_* settings to cfg. Values come from the
// process environment first, then from the given .env files (default ".env").
// Missing .env files are ignored. The process environment is not modified.
func LoadEnv(cfg *Config, envFiles ...string) error {
	if len(envFiles) == 0 {
		envFiles = []string{DefaultEnvFile}
	}

	dotenv := make(map[string]string)
	for _, file := range envFiles {
		values, err := godotenv.Read(file)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("read %s: %w", file, err)
		}
		for k, v := range values {
			if _, seen := dotenv[k]; !seen {
				dotenv[k] = v
			}
		}
	}

	return ApplyEnv(cfg, func(key string) (string, bool) {
		if v, ok := os.LookupEnv(key); ok {
			return v, true
		}
		v, ok := dotenv[key]
		return v, ok
	})
}

// ApplyEnv applies SCRATCHINDEX_* settings found through lookup.
// Empty values are ignored.
func ApplyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	get := func(key string) (string, bool) {
		v, ok := lookup(key)
		v = strings.TrimSpace(v)
		return v, ok && v != ""
	}

	if v, ok := get(EnvDBDir); ok {
		cfg.DBDir = v
	}

	if v, ok := get(EnvConcurrency); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: %s=%q", ErrInvalidEnvValue, EnvConcurrency, v)
		}
		cfg.Concurrency = n
	}

	if v, ok := get(EnvMaxImageBytes); ok {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("%w: %s=%q", ErrInvalidEnvValue, EnvMaxImageBytes, v)
		}
		cfg.MaxImageBytes = n
	}

	if v, ok := get(EnvFormats); ok {
		var formats []string
		for f := range strings.SplitSeq(v, ",") {
			if f = strings.ToLower(strings.TrimSpace(f)); f != "" {
				formats = append(formats, f)
			}
		}
		cfg.Formats = formats
	}

	if v, ok := get(EnvRecomputeTimeout); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%w: %s=%q", ErrInvalidEnvValue, EnvRecomputeTimeout, v)
		}
		cfg.RecomputeTimeout = d
	}

	if v, ok := get(EnvNormalization); ok {
		cfg.Normalization = v
	}

	return nil
}
