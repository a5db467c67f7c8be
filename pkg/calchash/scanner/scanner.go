// Package scanner enumerates the regular files under a directory tree
// with a parallel walk and returns them sorted by path, ready to be split
// between digest workers.
package scanner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charlievieth/fastwalk"

	"github.com/jamesainslie/calchash/pkg/calchash/config"
	"github.com/jamesainslie/calchash/pkg/calchash/logging"
	"github.com/jamesainslie/calchash/pkg/calchash/types"
)

var logger = logging.Get("scanner")

// progressInterval bounds how often OnProgress fires during a walk.
const progressInterval = 10 * time.Millisecond

// Options configures a Scanner.
type Options struct {
	// Root is the directory to enumerate. Empty means the working
	// directory.
	Root string

	// Exclude holds path prefixes and glob patterns to skip. A glob
	// without a separator is matched against base names, any glob against
	// the full path.
	Exclude []string

	// OnProgress, if set, receives throttled progress updates plus one at
	// the start and one at the end of the walk. It is called from the
	// walker goroutines.
	OnProgress func(types.ScanProgress)
}

// Scanner enumerates files. It holds no per-walk state, so one Scanner
// may run several scans.
type Scanner struct {
	root       string
	exclude    exclusions
	onProgress func(types.ScanProgress)
}

// New creates a Scanner, compiling the exclude patterns.
func New(opts Options) *Scanner {
	root := opts.Root
	if root == "" {
		root = config.DefaultPath
	}
	return &Scanner{
		root:       root,
		exclude:    compileExclusions(opts.Exclude),
		onProgress: opts.OnProgress,
	}
}

// Scan walks the root and returns every regular file below it, sorted by
// path. Symlinks are neither followed nor listed.
//
// Unreadable entries below the root do not stop the walk; they are
// reported in ScanResult.Errors. A root that is missing, unreadable or not
// a directory fails with types.ErrEnumeration. A cancelled ctx stops the
// walk and ctx.Err() is returned without a partial result.
func (s *Scanner) Scan(ctx context.Context) (*types.ScanResult, error) {
	started := time.Now()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	root, err := openableDir(s.root)
	if err != nil {
		return nil, err
	}

	w := &walk{ctx: ctx, root: root, exclude: s.exclude, onProgress: s.onProgress}
	w.progress(true)

	conf := fastwalk.Config{Follow: false}
	err = fastwalk.Walk(&conf, root, w.visit)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", types.ErrEnumeration, root, err)
	}

	slices.SortFunc(w.files, func(a, b types.FileEntry) int {
		return strings.Compare(a.Path, b.Path)
	})
	w.progress(true)

	for _, e := range w.errs {
		logger.Warn("skipped unreadable entry", "path", e.Path, "error", e.Error)
	}
	logger.Debug("enumeration complete",
		"root", root,
		"files", len(w.files),
		"dirs", w.dirs.Load(),
		"errors", len(w.errs),
		"elapsed", time.Since(started))

	files := w.files
	if files == nil {
		files = []types.FileEntry{}
	}
	return &types.ScanResult{
		Root:        root,
		Files:       files,
		DirsScanned: w.dirs.Load(),
		TotalSize:   w.bytes.Load(),
		Elapsed:     time.Since(started),
		Errors:      w.errs,
	}, nil
}

// openableDir resolves path to an absolute directory the process can list.
func openableDir(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", types.ErrEnumeration, path, err)
	}

	f, err := os.Open(abs) // #nosec G304 -- user supplied root
	if err != nil {
		return "", fmt.Errorf("%w: %w", types.ErrEnumeration, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return "", fmt.Errorf("%w: %w", types.ErrEnumeration, err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%w: %s: not a directory", types.ErrEnumeration, abs)
	}
	if _, err := f.ReadDir(1); err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("%w: %s: %w", types.ErrEnumeration, abs, err)
	}
	return abs, nil
}

// walk is the state of one Scan. visit runs on fastwalk's goroutines.
type walk struct {
	ctx        context.Context
	root       string
	exclude    exclusions
	onProgress func(types.ScanProgress)

	dirs, nfiles, bytes atomic.Int64
	current             atomic.Pointer[string]
	lastReport          atomic.Int64 // UnixNano

	mu    sync.Mutex
	files []types.FileEntry
	errs  []types.ScanError
}

func (w *walk) visit(path string, d fs.DirEntry, err error) error {
	if ctxErr := w.ctx.Err(); ctxErr != nil {
		return ctxErr
	}

	if err != nil {
		if path == w.root {
			return err
		}
		w.fail(path, err)
		return nil
	}

	if path != w.root && w.exclude.match(path) {
		if d.IsDir() {
			return fastwalk.SkipDir
		}
		return nil
	}

	switch {
	case d.IsDir():
		w.dirs.Add(1)
		w.current.Store(&path)
		w.progress(false)
	case d.Type().IsRegular():
		info, err := d.Info()
		if err != nil {
			w.fail(path, err)
			return nil
		}
		w.nfiles.Add(1)
		w.bytes.Add(info.Size())

		w.mu.Lock()
		w.files = append(w.files, types.FileEntry{Path: path, Size: info.Size()})
		w.mu.Unlock()
	}
	return nil
}

func (w *walk) fail(path string, err error) {
	w.mu.Lock()
	w.errs = append(w.errs, types.ScanError{Path: path, Error: err.Error()})
	w.mu.Unlock()
}

// progress reports to onProgress, at most once per progressInterval
// unless force is set.
func (w *walk) progress(force bool) {
	if w.onProgress == nil {
		return
	}

	now := time.Now().UnixNano()
	last := w.lastReport.Load()
	if !force && (now-last < int64(progressInterval) || !w.lastReport.CompareAndSwap(last, now)) {
		return
	}
	if force {
		w.lastReport.Store(now)
	}

	current := w.root
	if p := w.current.Load(); p != nil {
		current = *p
	}
	w.onProgress(types.ScanProgress{
		DirsScanned:  w.dirs.Load(),
		FilesScanned: w.nfiles.Load(),
		BytesScanned: w.bytes.Load(),
		CurrentPath:  current,
	})
}
