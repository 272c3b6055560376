// Package parallel provides a small helper for splitting embarrassingly
// parallel work (such as tokenizing a dataset) across CPU cores.
package parallel

import (
	"runtime"
	"sync"
)

// Parallelize splits items into contiguous chunks, one per available CPU
// core, and runs fn(start, end) for each chunk concurrently. It returns
// after all chunks finish.
func Parallelize(items int, fn func(start, end int)) {
	if items == 0 {
		return
	}

	numWorkers := runtime.NumCPU()
	if numWorkers > items {
		numWorkers = items
	}

	// Ceiling division so the last chunk picks up the remainder.
	chunkSize := (items + numWorkers - 1) / numWorkers

	var wg sync.WaitGroup

	for i := 0; i < numWorkers; i++ {
		start := i * chunkSize
		end := start + chunkSize
		if end > items {
			end = items
		}
		if start >= end {
			continue
		}

		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			fn(s, e)
		}(start, end)
	}

	wg.Wait()
}

// ParallelizeWithThreshold runs fn sequentially when items is at or below
// threshold, avoiding goroutine overhead for small datasets.
func ParallelizeWithThreshold(items int, threshold int, fn func(start, end int)) {
	if items <= threshold {
		fn(0, items)
		return
	}

	Parallelize(items, fn)
}
