package dynamo

import (
	"runtime"
	"sync"
)

// Workers is the number of goroutines ParallelFor fans out to.
// Set it to 1 to keep every call on the calling goroutine.
var Workers = runtime.NumCPU()

// ParallelFor executes fn over [0, n) split into contiguous chunks.
// worker identifies the chunk so callers can index per-worker scratch state;
// it is always in [0, NumChunks(n, minChunk)).
func ParallelFor(n, minChunk int, fn func(worker, start, end int)) {
	workers := NumChunks(n, minChunk)
	if workers <= 1 {
		fn(0, 0, n)
		return
	}

	chunkSize := (n + workers - 1) / workers

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		start := w * chunkSize
		end := start + chunkSize
		if end > n {
			end = n
		}
		if start >= end {
			continue
		}

		wg.Add(1)
		go func(w, s, e int) {
			defer wg.Done()
			fn(w, s, e)
		}(w, start, end)
	}

	wg.Wait()
}

// NumChunks reports how many chunks ParallelFor will use for n items.
func NumChunks(n, minChunk int) int {
	if minChunk < 1 {
		minChunk = 1
	}
	workers := Workers
	if n <= minChunk || workers <= 1 {
		return 1
	}
	if n/minChunk < workers {
		workers = n / minChunk
	}
	if workers < 1 {
		workers = 1
	}
	return workers
}
