package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"
)

func TestBatchProcessorNew(t *testing.T) {
	t.Parallel()

	t.Run("creates processor with defaults", func(t *testing.T) {
		t.Parallel()

		bp := NewBatchProcessor(func() *Pipeline { return New() })

		if bp == nil {
			t.Fatal("expected non-nil processor")
		}
		if bp.Concurrency() != DefaultConcurrency {
			t.Errorf("expected default concurrency %d, got %d", DefaultConcurrency, bp.Concurrency())
		}
	})

	t.Run("applies WithConcurrency option", func(t *testing.T) {
		t.Parallel()

		bp := NewBatchProcessor(func() *Pipeline { return New() }, WithConcurrency(5))

		if bp.Concurrency() != 5 {
			t.Errorf("expected concurrency 5, got %d", bp.Concurrency())
		}
	})

	t.Run("ignores non-positive concurrency", func(t *testing.T) {
		t.Parallel()

		bp := NewBatchProcessor(func() *Pipeline { return New() }, WithConcurrency(0), WithConcurrency(-3))

		if bp.Concurrency() != DefaultConcurrency {
			t.Errorf("expected concurrency %d, got %d", DefaultConcurrency, bp.Concurrency())
		}
	})

	t.Run("applies WithBatchLogger option", func(t *testing.T) {
		t.Parallel()

		bp := NewBatchProcessor(func() *Pipeline { return New() }, WithBatchLogger(nil))
		if bp.logger == nil {
			t.Error("expected non-nil logger")
		}
	})
}

func TestBatchProcessorProcessBatch(t *testing.T) {
	t.Parallel()

	t.Run("processes all frames", func(t *testing.T) {
		t.Parallel()

		var processed atomic.Int32
		factory := func() *Pipeline {
			p := New()
			p.AddStep(&mockStep{
				name: "count",
				doFunc: func(_ context.Context, f *Frame) error {
					processed.Add(1)
					f.Passes *= 2
					return nil
				},
			})
			return p
		}

		frames := make([]*Frame, 20)
		for i := range frames {
			frames[i] = &Frame{ImageID: fmt.Sprintf("img-%d", i), Passes: i}
		}

		bp := NewBatchProcessor(factory, WithConcurrency(4))
		if err := bp.ProcessBatch(context.Background(), frames); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if processed.Load() != 20 {
			t.Errorf("expected 20 frames processed, got %d", processed.Load())
		}
		for i, f := range frames {
			if f.Passes != i*2 {
				t.Errorf("frame %d not updated in place: passes=%d", i, f.Passes)
			}
		}
	})

	t.Run("respects concurrency limit", func(t *testing.T) {
		t.Parallel()

		var current, peak atomic.Int32
		factory := func() *Pipeline {
			p := New()
			p.AddStep(&mockStep{
				name: "slow",
				doFunc: func(context.Context, *Frame) error {
					n := current.Add(1)
					for {
						old := peak.Load()
						if n <= old || peak.CompareAndSwap(old, n) {
							break
						}
					}
					time.Sleep(5 * time.Millisecond)
					current.Add(-1)
					return nil
				},
			})
			return p
		}

		frames := make([]*Frame, 12)
		for i := range frames {
			frames[i] = &Frame{ImageID: fmt.Sprintf("img-%d", i)}
		}

		if err := NewBatchProcessor(factory, WithConcurrency(3)).ProcessBatch(context.Background(), frames); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if peak.Load() > 3 {
			t.Errorf("expected at most 3 concurrent frames, saw %d", peak.Load())
		}
	})

	t.Run("fails fast with failing image id", func(t *testing.T) {
		t.Parallel()

		stepErr := errors.New("corrupt")
		factory := func() *Pipeline {
			p := New()
			p.AddStep(&mockStep{
				name: "check",
				doFunc: func(_ context.Context, f *Frame) error {
					if f.ImageID == "img-bad" {
						return stepErr
					}
					return nil
				},
			})
			return p
		}

		frames := []*Frame{{ImageID: "img-a"}, {ImageID: "img-bad"}, {ImageID: "img-b"}}
		err := NewBatchProcessor(factory, WithConcurrency(1)).ProcessBatch(context.Background(), frames)

		var fe *FrameError
		if !errors.As(err, &fe) {
			t.Fatalf("expected FrameError, got %v", err)
		}
		if fe.ImageID != "img-bad" {
			t.Errorf("expected failing image img-bad, got %q", fe.ImageID)
		}
		if !errors.Is(err, stepErr) {
			t.Errorf("expected wrapped step error, got %v", err)
		}
	})

	t.Run("cancelled context", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		factory := func() *Pipeline {
			p := New()
			p.AddStep(&mockStep{name: "noop"})
			return p
		}

		err := NewBatchProcessor(factory).ProcessBatch(ctx, []*Frame{{ImageID: "img-1"}})
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	})

	t.Run("empty batch", func(t *testing.T) {
		t.Parallel()

		if err := NewBatchProcessor(func() *Pipeline { return New() }).ProcessBatch(context.Background(), nil); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})
}

func TestFrameError(t *testing.T) {
	t.Parallel()

	inner := errors.New("inner")
	err := &FrameError{ImageID: "img-1", Err: inner}

	if err.Error() != "image img-1: inner" {
		t.Errorf("unexpected message %q", err.Error())
	}
	if !errors.Is(err, inner) {
		t.Error("expected Unwrap to expose inner error")
	}
}
