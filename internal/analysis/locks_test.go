package analysis

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestKeyedMutex(t *testing.T) {
	t.Parallel()

	t.Run("serializes holders of the same key", func(t *testing.T) {
		t.Parallel()

		k := newKeyedMutex()
		var inside, peak atomic.Int32
		var wg sync.WaitGroup

		for range 8 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				unlock, err := k.Lock(context.Background(), "exp")
				if err != nil {
					t.Errorf("lock: %v", err)
					return
				}
				n := inside.Add(1)
				if n > peak.Load() {
					peak.Store(n)
				}
				time.Sleep(time.Millisecond)
				inside.Add(-1)
				unlock()
			}()
		}
		wg.Wait()

		if peak.Load() != 1 {
			t.Errorf("expected exclusive access, saw %d holders", peak.Load())
		}
		if k.size() != 0 {
			t.Errorf("expected lock entries to be released, got %d", k.size())
		}
	})

	t.Run("different keys do not contend", func(t *testing.T) {
		t.Parallel()

		k := newKeyedMutex()
		unlockA, err := k.Lock(context.Background(), "a")
		if err != nil {
			t.Fatalf("lock a: %v", err)
		}
		defer unlockA()

		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		unlockB, err := k.Lock(ctx, "b")
		if err != nil {
			t.Fatalf("lock b should not wait on a: %v", err)
		}
		unlockB()
	})

	t.Run("waiting honors context", func(t *testing.T) {
		t.Parallel()

		k := newKeyedMutex()
		unlock, err := k.Lock(context.Background(), "exp")
		if err != nil {
			t.Fatalf("lock: %v", err)
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		defer cancel()
		if _, err := k.Lock(ctx, "exp"); !errors.Is(err, context.DeadlineExceeded) {
			t.Errorf("expected DeadlineExceeded, got %v", err)
		}

		unlock()
		if k.size() != 0 {
			t.Errorf("expected no live entries, got %d", k.size())
		}
	})

	t.Run("unlock is idempotent", func(t *testing.T) {
		t.Parallel()

		k := newKeyedMutex()
		unlock, err := k.Lock(context.Background(), "exp")
		if err != nil {
			t.Fatalf("lock: %v", err)
		}
		unlock()
		unlock()

		again, err := k.Lock(context.Background(), "exp")
		if err != nil {
			t.Fatalf("relock: %v", err)
		}
		again()
	})
}
