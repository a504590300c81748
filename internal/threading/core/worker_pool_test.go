package core

import (
	"context"
	"sync/atomic"
	"testing"
)

func TestParallelForCoversRange(t *testing.T) {
	pool := NewWorkerPool(4)
	pool.Start()
	defer pool.Stop()

	seen := make([]int32, 100)
	pool.ParallelFor(0, len(seen), func(i int) {
		atomic.AddInt32(&seen[i], 1)
	})

	for i, n := range seen {
		if n != 1 {
			t.Fatalf("Index %d visited %d times, want 1", i, n)
		}
	}
}

func TestParallelForWithCancelledContext(t *testing.T) {
	pool := NewWorkerPool(2)
	pool.Start()
	defer pool.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var calls atomic.Int32
	err := pool.ParallelForWithContext(ctx, 0, 50, func(int) { calls.Add(1) })
	if err == nil {
		t.Errorf("Expected context error")
	}
	if calls.Load() != 0 {
		t.Errorf("Expected no work after cancellation, got %d calls", calls.Load())
	}
}

func TestParallelForEach(t *testing.T) {
	var sum atomic.Int64
	ParallelForEach(context.Background(), []int{1, 2, 3, 4, 5}, func(v int) {
		sum.Add(int64(v))
	})
	if sum.Load() != 15 {
		t.Errorf("Expected sum 15, got %d", sum.Load())
	}
}

func TestStopIsIdempotent(t *testing.T) {
	pool := NewWorkerPool(1)
	pool.Start()
	pool.Stop()
	pool.Stop()
}
