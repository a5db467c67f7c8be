package logging

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"
)

// clock is a settable time source for rotation tests.
type clock struct {
	mu sync.Mutex
	t  time.Time
}

func newClock(t time.Time) *clock { return &clock{t: t} }

func (c *clock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

// listLogs returns the names of files in dir, sorted.
func listLogs(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir(%s): %v", dir, err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	slices.Sort(names)
	return names
}

func mustWrite(t *testing.T, w *RotatingWriter, s string) {
	t.Helper()
	n, err := w.Write([]byte(s))
	if err != nil {
		t.Fatalf("Write(%q): %v", s, err)
	}
	if n != len(s) {
		t.Fatalf("Write(%q) = %d, want %d", s, n, len(s))
	}
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile(%s): %v", path, err)
	}
	return string(data)
}

func TestWriterAppends(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "calchash.log")

	if err := os.WriteFile(path, []byte("earlier\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	w, err := NewRotatingWriter(path, RotationConfig{MaxSize: 1024})
	if err != nil {
		t.Fatalf("NewRotatingWriter: %v", err)
	}
	mustWrite(t, w, "later\n")
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	if got := readFile(t, path); got != "earlier\nlater\n" {
		t.Errorf("content = %q", got)
	}
}

func TestWriterCreatesParentDirs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "calchash", "calchash.log")

	w, err := NewRotatingWriter(path, DefaultRotationConfig())
	if err != nil {
		t.Fatalf("NewRotatingWriter: %v", err)
	}
	defer w.Close()

	if _, err := os.Stat(path); err != nil {
		t.Errorf("log file not created: %v", err)
	}
}

func TestWriterZeroMaxSizeUsesDefault(t *testing.T) {
	w, err := NewRotatingWriter(filepath.Join(t.TempDir(), "a.log"), RotationConfig{})
	if err != nil {
		t.Fatalf("NewRotatingWriter: %v", err)
	}
	defer w.Close()

	if w.cfg.MaxSize != DefaultRotationConfig().MaxSize {
		t.Errorf("MaxSize = %d, want default", w.cfg.MaxSize)
	}
}

func TestWriteAfterClose(t *testing.T) {
	w, err := NewRotatingWriter(filepath.Join(t.TempDir(), "a.log"), RotationConfig{})
	if err != nil {
		t.Fatalf("NewRotatingWriter: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
	if _, err := w.Write([]byte("x")); err == nil {
		t.Error("Write after Close succeeded")
	}
}

func TestRotateBySize(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "calchash.log")
	clk := newClock(time.Date(2026, 3, 4, 10, 0, 0, 0, time.Local))

	w, err := newRotatingWriter(path, RotationConfig{MaxSize: 10}, clk.now)
	if err != nil {
		t.Fatalf("newRotatingWriter: %v", err)
	}

	mustWrite(t, w, "aaaaaaaa\n") // 9 bytes, fits
	mustWrite(t, w, "bbbbbbbb\n") // would reach 18, rotates first
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	want := []string{"calchash.20260304T100000.log", "calchash.log"}
	if got := listLogs(t, dir); !slices.Equal(got, want) {
		t.Fatalf("files = %v, want %v", got, want)
	}
	if got := readFile(t, filepath.Join(dir, want[0])); got != "aaaaaaaa\n" {
		t.Errorf("backup content = %q", got)
	}
	if got := readFile(t, path); got != "bbbbbbbb\n" {
		t.Errorf("current content = %q", got)
	}
}

func TestOversizedWriteIsNotSplit(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "big.log")

	w, err := NewRotatingWriter(path, RotationConfig{MaxSize: 4})
	if err != nil {
		t.Fatalf("NewRotatingWriter: %v", err)
	}
	mustWrite(t, w, "0123456789\n")
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	if got := readFile(t, path); got != "0123456789\n" {
		t.Errorf("content = %q", got)
	}
	if got := listLogs(t, dir); len(got) != 1 {
		t.Errorf("empty file was rotated: %v", got)
	}
}

func TestBackupNamesDoNotCollide(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "calchash.log")
	clk := newClock(time.Date(2026, 3, 4, 10, 0, 0, 0, time.Local))

	w, err := newRotatingWriter(path, RotationConfig{MaxSize: 2}, clk.now)
	if err != nil {
		t.Fatalf("newRotatingWriter: %v", err)
	}
	for _, s := range []string{"1\n", "2\n", "3\n", "4\n"} {
		mustWrite(t, w, s)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	want := []string{
		"calchash.20260304T100000.1.log",
		"calchash.20260304T100000.2.log",
		"calchash.20260304T100000.log",
		"calchash.log",
	}
	if got := listLogs(t, dir); !slices.Equal(got, want) {
		t.Fatalf("files = %v, want %v", got, want)
	}
	if got := readFile(t, filepath.Join(dir, "calchash.20260304T100000.log")); got != "1\n" {
		t.Errorf("first backup = %q", got)
	}
	if got := readFile(t, filepath.Join(dir, "calchash.20260304T100000.2.log")); got != "3\n" {
		t.Errorf("third backup = %q", got)
	}
}

func TestMaxBackupsKeepsNewest(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "calchash.log")
	clk := newClock(time.Date(2026, 3, 4, 10, 0, 0, 0, time.Local))

	w, err := newRotatingWriter(path, RotationConfig{MaxSize: 2, MaxBackups: 2}, clk.now)
	if err != nil {
		t.Fatalf("newRotatingWriter: %v", err)
	}
	for _, s := range []string{"1\n", "2\n", "3\n", "4\n", "5\n"} {
		mustWrite(t, w, s)
		clk.advance(time.Second)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	backups := w.backups()
	if len(backups) != 2 {
		t.Fatalf("backups = %d, want 2", len(backups))
	}
	for i, want := range []string{"3\n", "4\n"} {
		if got := readFile(t, backups[i].path); got != want {
			t.Errorf("backup %d = %q, want %q", i, got, want)
		}
	}
	if got := readFile(t, path); got != "5\n" {
		t.Errorf("current = %q", got)
	}
}

func TestDailyRotation(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "calchash.log")
	clk := newClock(time.Date(2026, 3, 4, 23, 59, 0, 0, time.Local))

	w, err := newRotatingWriter(path, RotationConfig{MaxSize: 1 << 20, Daily: true}, clk.now)
	if err != nil {
		t.Fatalf("newRotatingWriter: %v", err)
	}
	mustWrite(t, w, "monday\n")
	clk.advance(30 * time.Second)
	mustWrite(t, w, "still monday\n")
	clk.advance(time.Minute)
	mustWrite(t, w, "tuesday\n")
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	backups := w.backups()
	if len(backups) != 1 {
		t.Fatalf("backups = %d, want 1", len(backups))
	}
	if got := readFile(t, backups[0].path); got != "monday\nstill monday\n" {
		t.Errorf("backup = %q", got)
	}
	if got := readFile(t, path); got != "tuesday\n" {
		t.Errorf("current = %q", got)
	}
}

func TestPruneByAge(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{
		"calchash.20260101T120000.log",
		"calchash.20260224T120000.log",
		"calchash.20260303T120000.log",
		"calchash.notes.log",
		"other.20260101T120000.log",
	} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	clk := newClock(time.Date(2026, 3, 4, 12, 0, 0, 0, time.Local))

	w, err := newRotatingWriter(filepath.Join(dir, "calchash.log"), RotationConfig{MaxAge: 7}, clk.now)
	if err != nil {
		t.Fatalf("newRotatingWriter: %v", err)
	}
	defer w.Close()

	want := []string{
		"calchash.20260303T120000.log",
		"calchash.log",
		"calchash.notes.log",
		"other.20260101T120000.log",
	}
	if got := listLogs(t, dir); !slices.Equal(got, want) {
		t.Errorf("files = %v, want %v", got, want)
	}
}

func TestParseBackup(t *testing.T) {
	tests := []struct {
		in     string
		ok     bool
		seq    int
		minute int
	}{
		{in: "20260304T101500", ok: true, minute: 15},
		{in: "20260304T101500.3", ok: true, seq: 3, minute: 15},
		{in: "20260304T101500.0", ok: false},
		{in: "20260304T101500.x", ok: false},
		{in: "20260304T101500-3", ok: false},
		{in: "2026-03-04", ok: false},
		{in: "notes", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			b, ok := parseBackup(tt.in)
			if ok != tt.ok {
				t.Fatalf("parseBackup(%q) ok = %v, want %v", tt.in, ok, tt.ok)
			}
			if !ok {
				return
			}
			if b.seq != tt.seq || b.taken.Minute() != tt.minute {
				t.Errorf("parseBackup(%q) = seq %d minute %d", tt.in, b.seq, b.taken.Minute())
			}
		})
	}
}

func TestConcurrentWritesAreWhole(t *testing.T) {
	path := filepath.Join(t.TempDir(), "concurrent.log")
	w, err := NewRotatingWriter(path, RotationConfig{MaxSize: 1 << 20})
	if err != nil {
		t.Fatalf("NewRotatingWriter: %v", err)
	}

	const writers, lines = 8, 200
	line := strings.Repeat("z", 40) + "\n"

	var wg sync.WaitGroup
	for range writers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range lines {
				if _, err := w.Write([]byte(line)); err != nil {
					t.Errorf("Write: %v", err)
					return
				}
			}
		}()
	}
	wg.Wait()
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	got := strings.Split(strings.TrimSuffix(readFile(t, path), "\n"), "\n")
	if len(got) != writers*lines {
		t.Fatalf("lines = %d, want %d", len(got), writers*lines)
	}
	for i, l := range got {
		if l+"\n" != line {
			t.Fatalf("line %d interleaved: %q", i, l)
		}
	}
}
