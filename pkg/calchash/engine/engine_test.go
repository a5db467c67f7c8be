package engine

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jamesainslie/calchash/pkg/calchash/digest"
	"github.com/jamesainslie/calchash/pkg/calchash/types"
)

// makeFiles creates n files with distinct content and returns their entries
// in creation order.
func makeFiles(t *testing.T, n int) []types.FileEntry {
	t.Helper()
	dir := t.TempDir()
	entries := make([]types.FileEntry, n)
	for i := range n {
		p := filepath.Join(dir, fmt.Sprintf("file%03d.dat", i))
		data := make([]byte, 100+i*37)
		for j := range data {
			data[j] = byte(i + j)
		}
		require.NoError(t, os.WriteFile(p, data, 0o600))
		entries[i] = types.FileEntry{Path: p, Size: int64(len(data))}
	}
	return entries
}

func TestRun_Empty(t *testing.T) {
	for _, w := range []int{1, 4} {
		table := New(Options{Workers: w}).Run(nil)
		require.NotNil(t, table)
		assert.Equal(t, 0, table.Len())
	}
}

func TestRun_SerialMatchesParallel(t *testing.T) {
	entries := makeFiles(t, 50)

	serial := New(Options{Workers: 1}).Run(entries)
	require.Equal(t, 50, serial.Len())
	require.Zero(t, serial.FailureCount())

	for i, e := range entries {
		data, err := os.ReadFile(e.Path)
		require.NoError(t, err)
		assert.Equal(t, digest.Bytes(data), serial.Results[i].Digest, "entry %d", i)
	}

	for w := 2; w <= 8; w++ {
		t.Run(fmt.Sprintf("workers=%d", w), func(t *testing.T) {
			parallel := New(Options{Workers: w}).Run(entries)
			assert.Equal(t, serial.Results, parallel.Results)
		})
	}
}

func TestRun_MoreWorkersThanFiles(t *testing.T) {
	entries := makeFiles(t, 3)

	table := New(Options{Workers: 16}).Run(entries)
	require.Equal(t, 3, table.Len())
	for i := range entries {
		assert.True(t, table.Results[i].OK())
		assert.False(t, table.Results[i].Digest.IsZero())
	}
}

func TestRun_UnreadableFileIsRecorded(t *testing.T) {
	entries := makeFiles(t, 10)
	require.NoError(t, os.Remove(entries[4].Path))

	for _, w := range []int{1, 3} {
		t.Run(fmt.Sprintf("workers=%d", w), func(t *testing.T) {
			table := New(Options{Workers: w}).Run(entries)
			require.Equal(t, 10, table.Len())

			failures := table.Failures()
			require.Len(t, failures, 1)
			assert.Equal(t, 4, failures[0].Index)
			assert.ErrorIs(t, failures[0].Err, types.ErrDigestIO)
			assert.True(t, table.Results[4].Digest.IsZero())

			for i, r := range table.Results {
				if i == 4 {
					continue
				}
				assert.True(t, r.OK(), "entry %d", i)
			}
		})
	}
}

func TestRun_Callbacks(t *testing.T) {
	entries := makeFiles(t, 20)
	var want int64
	for _, e := range entries {
		want += e.Size
	}

	var (
		bytesSeen atomic.Int64
		mu        sync.Mutex
		seen      = make(map[int]int)
	)
	eng := New(Options{
		Workers:    4,
		OnProgress: func(n int64) { bytesSeen.Add(n) },
		OnFile: func(i int, r types.DigestResult) {
			mu.Lock()
			defer mu.Unlock()
			seen[i]++
			assert.True(t, r.OK())
		},
	})

	eng.Run(entries)

	assert.Equal(t, want, bytesSeen.Load())
	require.Len(t, seen, len(entries))
	for i := range entries {
		assert.Equal(t, 1, seen[i], "entry %d reported %d times", i, seen[i])
	}
}

func TestNew_ClampsWorkers(t *testing.T) {
	assert.Equal(t, 1, New(Options{Workers: 0}).Workers())
	assert.Equal(t, 1, New(Options{Workers: -2}).Workers())
	assert.Equal(t, 6, New(Options{Workers: 6}).Workers())
}

func BenchmarkRun(b *testing.B) {
	dir := b.TempDir()
	entries := make([]types.FileEntry, 64)
	data := make([]byte, 256*1024)
	for i := range entries {
		p := filepath.Join(dir, fmt.Sprintf("bench%02d.dat", i))
		if err := os.WriteFile(p, data, 0o600); err != nil {
			b.Fatal(err)
		}
		entries[i] = types.FileEntry{Path: p, Size: int64(len(data))}
	}

	for _, w := range []int{1, 4} {
		b.Run(fmt.Sprintf("workers=%d", w), func(b *testing.B) {
			eng := New(Options{Workers: w})
			b.SetBytes(int64(len(entries) * len(data)))
			for b.Loop() {
				eng.Run(entries)
			}
		})
	}
}
