// Package partition splits an ordered index range into contiguous chunks,
// one per worker.
package partition

import "github.com/jamesainslie/calchash/pkg/calchash/types"

// Split divides [0, n) into exactly c contiguous, non-overlapping chunks
// in index order. The first n%c chunks hold one more index than the rest,
// so every chunk is within one of ceil(n/c). When n < c the trailing
// chunks are empty. A worker count below 1 is treated as 1.
func Split(n, c int) []types.Chunk {
	if c < 1 {
		c = 1
	}
	if n < 0 {
		n = 0
	}

	base := n / c
	rem := n % c

	chunks := make([]types.Chunk, c)
	start := 0
	for i := range chunks {
		size := base
		if i < rem {
			size++
		}
		chunks[i] = types.Chunk{Start: start, End: start + size}
		start += size
	}
	return chunks
}

// NonEmpty returns the chunks that contain at least one index.
func NonEmpty(chunks []types.Chunk) []types.Chunk {
	out := make([]types.Chunk, 0, len(chunks))
	for _, ch := range chunks {
		if !ch.Empty() {
			out = append(out, ch)
		}
	}
	return out
}
