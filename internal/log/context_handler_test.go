package log

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestContextHandler_AddsIDs(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		ctx     func() context.Context
		want    []string
		notWant []string
	}{
		{
			name:    "no ids",
			ctx:     context.Background,
			notWant: []string{ExperimentKey, ImageKey},
		},
		{
			name: "experiment only",
			ctx: func() context.Context {
				return WithExperiment(context.Background(), "exp-1")
			},
			want:    []string{"experiment_id=exp-1"},
			notWant: []string{ImageKey},
		},
		{
			name: "experiment and image",
			ctx: func() context.Context {
				return WithImage(WithExperiment(context.Background(), "exp-1"), "img-2")
			},
			want: []string{"experiment_id=exp-1", "image_id=img-2"},
		},
		{
			name: "empty id is ignored",
			ctx: func() context.Context {
				return WithImage(context.Background(), "")
			},
			notWant: []string{ImageKey},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			logger := NewLogger(&buf, true)
			logger.InfoContext(tt.ctx(), "analyzed", "scratch_index", 0.5)

			output := buf.String()
			for _, w := range tt.want {
				if !strings.Contains(output, w) {
					t.Errorf("expected %q in output: %s", w, output)
				}
			}
			for _, nw := range tt.notWant {
				if strings.Contains(output, nw) {
					t.Errorf("did not expect %q in output: %s", nw, output)
				}
			}
			if !strings.Contains(output, "scratch_index=0.5") {
				t.Errorf("expected record attributes to survive: %s", output)
			}
		})
	}
}

func TestContextHandler_ShortensBytes(t *testing.T) {
	t.Parallel()

	t.Run("record attribute", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := NewLogger(&buf, true)
		logger.Debug("loaded", "data", []byte("0123456789"))

		output := buf.String()
		if !strings.Contains(output, "<10 bytes>") {
			t.Errorf("expected shortened bytes, got: %s", output)
		}
		if strings.Contains(output, "0123456789") {
			t.Errorf("raw bytes leaked: %s", output)
		}
	})

	t.Run("group attribute", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := NewLogger(&buf, true)
		logger.Debug("loaded", slog.Group("image", slog.Any("data", []byte{1, 2, 3})))

		if !strings.Contains(buf.String(), "<3 bytes>") {
			t.Errorf("expected shortened bytes in group, got: %s", buf.String())
		}
	})

	t.Run("WithAttrs", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := NewLogger(&buf, true).With("data", []byte{1, 2})
		logger.Debug("loaded")

		if !strings.Contains(buf.String(), "<2 bytes>") {
			t.Errorf("expected shortened bytes from With, got: %s", buf.String())
		}
	})
}

func TestContextHandler_LogLevels(t *testing.T) {
	t.Parallel()

	t.Run("non-verbose hides debug and info", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := NewLogger(&buf, false)
		logger.Debug("debug message")
		logger.Info("info message")
		logger.Warn("warn message")

		output := buf.String()
		if strings.Contains(output, "debug message") || strings.Contains(output, "info message") {
			t.Errorf("unexpected low-level output: %s", output)
		}
		if !strings.Contains(output, "warn message") {
			t.Errorf("expected warn message: %s", output)
		}
	})

	t.Run("verbose shows debug", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		NewLogger(&buf, true).Debug("debug message")

		if !strings.Contains(buf.String(), "debug message") {
			t.Errorf("expected debug message: %s", buf.String())
		}
	})
}

func TestContextHandler_WithGroup(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := NewLogger(&buf, true).WithGroup("analysis")
	logger.Info("done", "count", 3)

	if !strings.Contains(buf.String(), "analysis.count=3") {
		t.Errorf("expected grouped attribute, got: %s", buf.String())
	}
}

func TestNewJSONLogger(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := NewJSONLogger(&buf, true)
	logger.InfoContext(WithExperiment(context.Background(), "exp-9"), "recomputed", "images", 4)

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not JSON: %v (%s)", err, buf.String())
	}
	if entry[ExperimentKey] != "exp-9" {
		t.Errorf("expected experiment_id exp-9, got %v", entry[ExperimentKey])
	}
	if entry["images"] != float64(4) {
		t.Errorf("expected images 4, got %v", entry["images"])
	}
}

func TestNewContextHandler_NilHandler(t *testing.T) {
	t.Parallel()

	h := NewContextHandler(nil)
	if h.handler == nil {
		t.Error("expected default handler")
	}
}
