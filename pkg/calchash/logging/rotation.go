package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"
)

// backupStamp is the timestamp layout embedded in backup file names.
// It sorts lexically in time order.
const backupStamp = "20060102T150405"

// RotationConfig configures log file rotation behavior.
type RotationConfig struct {
	// MaxSize is the size in bytes at which the file is rotated.
	// Zero selects the default of 10MB.
	MaxSize int64

	// MaxAge is the number of days backups are kept. Zero keeps them
	// regardless of age.
	MaxAge int

	// MaxBackups is the number of backups kept. Zero keeps all of them
	// (subject to MaxAge).
	MaxBackups int

	// Daily rotates the file on the first write of a new local day.
	Daily bool
}

// DefaultRotationConfig returns sensible defaults for rotation.
func DefaultRotationConfig() RotationConfig {
	return RotationConfig{
		MaxSize:    10 * 1024 * 1024, // 10MB
		MaxAge:     30,
		MaxBackups: 5,
		Daily:      true,
	}
}

// RotatingWriter is an io.WriteCloser for a log file that rotates by size
// and by day. Backups are named <base>.<stamp>[.<n>]<ext> next to the log.
// Writes are serialized within the process by a mutex and across processes
// by an advisory file lock where the platform supports one.
type RotatingWriter struct {
	path string
	cfg  RotationConfig
	now  func() time.Time

	mu     sync.Mutex
	file   *os.File
	size   int64
	opened time.Time // day the current file belongs to
}

// NewRotatingWriter opens path for appending, creating parent directories
// as needed, and prunes stale backups.
func NewRotatingWriter(path string, cfg RotationConfig) (*RotatingWriter, error) {
	return newRotatingWriter(path, cfg, time.Now)
}

func newRotatingWriter(path string, cfg RotationConfig, now func() time.Time) (*RotatingWriter, error) {
	if cfg.MaxSize <= 0 {
		cfg.MaxSize = DefaultRotationConfig().MaxSize
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating log directory: %w", err)
	}

	w := &RotatingWriter{path: path, cfg: cfg, now: now}
	if err := w.open(); err != nil {
		return nil, err
	}
	w.prune()
	return w, nil
}

// Write appends p, rotating first when p would push the file past
// MaxSize or the day has changed. A single write larger than MaxSize goes
// to a fresh file rather than being split.
func (w *RotatingWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.file == nil {
		return 0, os.ErrClosed
	}

	if w.due(int64(len(p))) {
		if err := w.rotate(); err != nil {
			return 0, fmt.Errorf("rotating log file: %w", err)
		}
	}

	if err := w.lock(); err != nil {
		return 0, fmt.Errorf("acquiring file lock: %w", err)
	}
	defer w.unlock()

	n, err := w.file.Write(p)
	w.size += int64(n)
	if err != nil {
		return n, fmt.Errorf("writing to log file: %w", err)
	}
	return n, nil
}

// Close syncs and closes the log file. Further writes fail with
// os.ErrClosed.
func (w *RotatingWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.file == nil {
		return nil
	}

	syncErr := w.file.Sync()
	closeErr := w.file.Close()
	w.file = nil
	if syncErr != nil {
		return fmt.Errorf("syncing log file: %w", syncErr)
	}
	return closeErr
}

// open opens the log file for appending and records its size and day.
func (w *RotatingWriter) open() error {
	file, err := os.OpenFile(w.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("opening log file: %w", err)
	}

	info, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return fmt.Errorf("stat log file: %w", err)
	}

	w.file = file
	w.size = info.Size()
	w.opened = info.ModTime()
	if w.size == 0 {
		w.opened = w.now()
	}
	return nil
}

// due reports whether the file must be rotated before writing n bytes.
func (w *RotatingWriter) due(n int64) bool {
	if w.size > 0 && w.size+n > w.cfg.MaxSize {
		return true
	}
	return w.cfg.Daily && w.size > 0 && !sameDay(w.opened, w.now())
}

func sameDay(a, b time.Time) bool {
	a, b = a.Local(), b.Local()
	return a.Year() == b.Year() && a.YearDay() == b.YearDay()
}

// rotate moves the current file to a backup name and opens a new one.
func (w *RotatingWriter) rotate() error {
	if err := w.file.Close(); err != nil {
		return fmt.Errorf("closing current file: %w", err)
	}
	w.file = nil

	if err := os.Rename(w.path, w.backupName()); err != nil && !os.IsNotExist(err) {
		// Keep logging to the old file rather than losing output.
		if openErr := w.open(); openErr != nil {
			return fmt.Errorf("renaming log file: %w; reopening: %w", err, openErr)
		}
		return fmt.Errorf("renaming log file: %w", err)
	}

	if err := w.open(); err != nil {
		return err
	}
	w.prune()
	return nil
}

// backupName returns an unused backup path for the current time.
func (w *RotatingWriter) backupName() string {
	ext := filepath.Ext(w.path)
	base := strings.TrimSuffix(w.path, ext)
	stamp := w.now().Format(backupStamp)

	name := base + "." + stamp + ext
	for i := 1; ; i++ {
		if _, err := os.Lstat(name); os.IsNotExist(err) {
			return name
		}
		name = fmt.Sprintf("%s.%s.%d%s", base, stamp, i, ext)
	}
}

type backup struct {
	path  string
	taken time.Time
	seq   int
}

// backups returns the existing backups of the log, oldest first. Files
// whose names do not carry a backup stamp are left alone.
func (w *RotatingWriter) backups() []backup {
	dir := filepath.Dir(w.path)
	name := filepath.Base(w.path)
	ext := filepath.Ext(name)
	prefix := strings.TrimSuffix(name, ext) + "."

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}

	var found []backup
	for _, e := range entries {
		n := e.Name()
		if e.IsDir() || n == name || !strings.HasPrefix(n, prefix) || !strings.HasSuffix(n, ext) {
			continue
		}
		b, ok := parseBackup(strings.TrimSuffix(strings.TrimPrefix(n, prefix), ext))
		if !ok {
			continue
		}
		b.path = filepath.Join(dir, n)
		found = append(found, b)
	}

	slices.SortFunc(found, func(a, b backup) int {
		if c := a.taken.Compare(b.taken); c != 0 {
			return c
		}
		return a.seq - b.seq
	})
	return found
}

// parseBackup parses the "<stamp>[.<n>]" middle of a backup name.
func parseBackup(s string) (backup, bool) {
	if len(s) < len(backupStamp) {
		return backup{}, false
	}
	taken, err := time.ParseInLocation(backupStamp, s[:len(backupStamp)], time.Local)
	if err != nil {
		return backup{}, false
	}

	rest := s[len(backupStamp):]
	if rest == "" {
		return backup{taken: taken}, true
	}
	seq, err := strconv.Atoi(strings.TrimPrefix(rest, "."))
	if err != nil || rest[0] != '.' || seq < 1 {
		return backup{}, false
	}
	return backup{taken: taken, seq: seq}, true
}

// prune removes backups beyond MaxBackups and those taken more than MaxAge
// days ago. Errors are ignored; pruning runs again on the next rotation.
func (w *RotatingWriter) prune() {
	backups := w.backups()

	if keep := w.cfg.MaxBackups; keep > 0 && len(backups) > keep {
		for _, b := range backups[:len(backups)-keep] {
			_ = os.Remove(b.path)
		}
		backups = backups[len(backups)-keep:]
	}

	if w.cfg.MaxAge <= 0 {
		return
	}
	cutoff := w.now().AddDate(0, 0, -w.cfg.MaxAge)
	for _, b := range backups {
		if b.taken.Before(cutoff) {
			_ = os.Remove(b.path)
		}
	}
}
