// Package engine digests an ordered list of files with a fixed pool of
// workers and returns the results in input order.
//
// The input is split into contiguous chunks, one per worker. Each worker
// owns a private digest.Computer and writes only to the result slots of
// its own chunk, so the result table needs no locking: the WaitGroup join
// at the end of Run is what publishes the workers' writes to the caller.
package engine

import (
	"sync"

	"github.com/jamesainslie/calchash/pkg/calchash/digest"
	"github.com/jamesainslie/calchash/pkg/calchash/logging"
	"github.com/jamesainslie/calchash/pkg/calchash/partition"
	"github.com/jamesainslie/calchash/pkg/calchash/types"
)

// logger is the package-level logger for the digest engine.
var logger = logging.Get("engine")

// Options configures an Engine.
type Options struct {
	// Workers is the number of concurrent workers. Values below 1 mean 1,
	// which selects the serial path.
	Workers int

	// OnProgress is called with the number of bytes read after every read.
	// It must be safe to call from multiple goroutines.
	OnProgress func(n int64)

	// OnFile is called once per entry after it has been digested, with the
	// entry index and its result. It must be safe to call from multiple
	// goroutines.
	OnFile func(i int, r types.DigestResult)
}

// Engine runs digest jobs.
type Engine struct {
	opts Options
}

// New creates an Engine with the given options.
func New(opts Options) *Engine {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	return &Engine{opts: opts}
}

// Workers returns the configured worker count.
func (e *Engine) Workers() int {
	return e.opts.Workers
}

// Run digests every entry and blocks until all of them are done.
// The returned table has one result per entry, in entry order. A file
// that cannot be read is recorded as a failed result at its index; it
// never stops the other files from being digested.
func (e *Engine) Run(entries []types.FileEntry) *types.ResultTable {
	table := types.NewResultTable(len(entries))
	if len(entries) == 0 {
		return table
	}

	chunks := partition.NonEmpty(partition.Split(len(entries), e.opts.Workers))
	if len(chunks) == 1 {
		logger.Debug("digesting serially", "files", len(entries))
		e.work(entries, table, chunks[0])
		return table
	}

	logger.Debug("digesting in parallel", "files", len(entries), "workers", len(chunks))

	var wg sync.WaitGroup
	wg.Add(len(chunks))
	for _, ch := range chunks {
		go func(ch types.Chunk) {
			defer wg.Done()
			e.work(entries, table, ch)
		}(ch)
	}
	wg.Wait()

	return table
}

// work digests entries[ch.Start:ch.End] into the matching table slots.
func (e *Engine) work(entries []types.FileEntry, table *types.ResultTable, ch types.Chunk) {
	c := digest.New()
	c.SetProgress(e.opts.OnProgress)

	for i := ch.Start; i < ch.End; i++ {
		d, _, err := c.File(entries[i].Path)
		if err != nil {
			logger.Warn("cannot digest file", "path", entries[i].Path, "error", err)
			table.Results[i] = types.DigestResult{Err: err}
		} else {
			table.Results[i] = types.DigestResult{Digest: d}
		}

		if e.opts.OnFile != nil {
			e.opts.OnFile(i, table.Results[i])
		}
	}
}
