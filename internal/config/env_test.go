package config

import (
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func mapLookup(m map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := m[key]
		return v, ok
	}
}

func TestApplyEnv(t *testing.T) {
	t.Parallel()

	t.Run("applies every variable", func(t *testing.T) {
		t.Parallel()

		cfg := NewConfig()
		err := ApplyEnv(cfg, mapLookup(map[string]string{
			EnvDBDir:            "/srv/scratch",
			EnvConcurrency:      "6",
			EnvMaxImageBytes:    "1000",
			EnvFormats:          " PNG, tiff ,,",
			EnvRecomputeTimeout: "2m",
			EnvNormalization:    "double-max-weight",
		}))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if cfg.DBDir != "/srv/scratch" || cfg.Concurrency != 6 || cfg.MaxImageBytes != 1000 {
			t.Errorf("unexpected config: %+v", cfg)
		}
		if len(cfg.Formats) != 2 || cfg.Formats[0] != "png" || cfg.Formats[1] != "tiff" {
			t.Errorf("unexpected formats: %v", cfg.Formats)
		}
		if cfg.RecomputeTimeout != 2*time.Minute || cfg.Normalization != "double-max-weight" {
			t.Errorf("unexpected timeout/normalization: %v %q", cfg.RecomputeTimeout, cfg.Normalization)
		}
	})

	t.Run("empty values are ignored", func(t *testing.T) {
		t.Parallel()

		cfg := NewConfig()
		if err := ApplyEnv(cfg, mapLookup(map[string]string{EnvConcurrency: "  "})); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.Concurrency != DefaultConcurrency {
			t.Errorf("expected default concurrency, got %d", cfg.Concurrency)
		}
	})

	invalid := []struct {
		key   string
		value string
	}{
		{EnvConcurrency, "many"},
		{EnvMaxImageBytes, "10MB"},
		{EnvRecomputeTimeout, "forever"},
	}
	for _, tt := range invalid {
		t.Run("invalid "+tt.key, func(t *testing.T) {
			t.Parallel()

			err := ApplyEnv(NewConfig(), mapLookup(map[string]string{tt.key: tt.value}))
			if !errors.Is(err, ErrInvalidEnvValue) {
				t.Errorf("expected ErrInvalidEnvValue, got %v", err)
			}
		})
	}
}

func TestLoadEnv(t *testing.T) {
	t.Parallel()

	t.Run("reads .env file", func(t *testing.T) {
		t.Parallel()

		envPath := filepath.Join(t.TempDir(), ".env")
		writeFile(t, envPath, "# scratchindex settings\nSCRATCHINDEX_TEST_ONLY=1\nSCRATCHINDEX_NORMALIZATION=double-max-weight\n")

		cfg := NewConfig()
		if err := LoadEnv(cfg, envPath); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.Normalization != "double-max-weight" {
			t.Errorf("expected normalization from .env, got %q", cfg.Normalization)
		}
	})

	t.Run("missing file is ignored", func(t *testing.T) {
		t.Parallel()

		cfg := NewConfig()
		if err := LoadEnv(cfg, filepath.Join(t.TempDir(), "absent.env")); err != nil {
			t.Errorf("expected missing .env to be ignored, got %v", err)
		}
	})

	t.Run("first file wins", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		first := filepath.Join(dir, "first.env")
		second := filepath.Join(dir, "second.env")
		writeFile(t, first, "SCRATCHINDEX_DB_DIR=/first\n")
		writeFile(t, second, "SCRATCHINDEX_DB_DIR=/second\n")

		cfg := NewConfig()
		if err := LoadEnv(cfg, first, second); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.DBDir != "/first" {
			t.Errorf("expected /first, got %q", cfg.DBDir)
		}
	})
}
