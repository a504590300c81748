package core

import (
	"context"
	"runtime"
	"sync"
)

// CreateDefaultWorkerPool creates and starts a worker pool with one worker per CPU
func CreateDefaultWorkerPool() *WorkerPool {
	pool := NewWorkerPool(0)
	pool.Start()
	return pool
}

// ParallelForEach executes fn for each item without a long-lived pool.
func ParallelForEach[T any](ctx context.Context, items []T, fn func(T)) {
	if len(items) == 0 {
		return
	}

	numWorkers := min(runtime.NumCPU(), len(items))
	chunkSize := max(1, len(items)/numWorkers)
	var wg sync.WaitGroup

	for i := 0; i < len(items); i += chunkSize {
		chunk := items[i:min(i+chunkSize, len(items))]

		wg.Add(1)
		go func(chunk []T) {
			defer wg.Done()
			for _, item := range chunk {
				select {
				case <-ctx.Done():
					return
				default:
					fn(item)
				}
			}
		}(chunk)
	}

	wg.Wait()
}
