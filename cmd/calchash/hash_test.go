package main

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jamesainslie/calchash/pkg/calchash/history"
	"github.com/jamesainslie/calchash/pkg/calchash/types"
)

var perfLine = regexp.MustCompile(`^Performance: (\d+\.\d{2}|N/A) MB/s \(by CPU time\)$`)

func sha256Hex(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// testTree creates files under a fresh directory and returns its path.
func testTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for name, content := range files {
		p := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	}
	return root
}

func testOptions(t *testing.T, root string) hashOptions {
	t.Helper()
	return hashOptions{
		Root:    root,
		Format:  "text",
		OutPath: filepath.Join(t.TempDir(), "file.txt"),
		Quiet:   true,
	}
}

func readLines(t *testing.T, path string) []string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.True(t, strings.HasSuffix(string(data), "\n"), "artifact must end with a newline")
	return strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
}

func TestHashDir_ThreeFiles(t *testing.T) {
	contents := map[string]string{
		"a.txt":     strings.Repeat("a", 10),
		"b.txt":     strings.Repeat("b", 20),
		"sub/c.txt": strings.Repeat("c", 30),
	}
	root := testTree(t, contents)
	opts := testOptions(t, root)

	result, err := hashDir(context.Background(), opts)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, 3, result.Metrics.Files)
	assert.Equal(t, int64(60), result.Metrics.TotalBytes)
	assert.Zero(t, result.Metrics.Failures)

	lines := readLines(t, opts.OutPath)
	require.Len(t, lines, 4)

	for i, name := range []string{"a.txt", "b.txt", "sub/c.txt"} {
		want := filepath.Join(root, filepath.FromSlash(name)) + " - SHA-256: " + sha256Hex([]byte(contents[name]))
		assert.Equal(t, want, lines[i])
	}
	assert.Regexp(t, perfLine, lines[3])
}

func TestHashDir_WorkerCountDoesNotChangeDigests(t *testing.T) {
	files := make(map[string]string)
	for i := range 50 {
		files[filepath.Join("d"+string(rune('a'+i%5)), "f"+strings.Repeat("x", i)+".bin")] = strings.Repeat(string(rune('A'+i%26)), i*97)
	}
	root := testTree(t, files)

	serial := testOptions(t, root)
	serial.Workers = 1
	_, err := hashDir(context.Background(), serial)
	require.NoError(t, err)

	parallel := testOptions(t, root)
	parallel.Workers = 8
	_, err = hashDir(context.Background(), parallel)
	require.NoError(t, err)

	a := readLines(t, serial.OutPath)
	b := readLines(t, parallel.OutPath)
	require.Len(t, a, 51)
	assert.Equal(t, a[:len(a)-1], b[:len(b)-1], "digest lines must be byte-identical")
	assert.Regexp(t, perfLine, a[len(a)-1])
	assert.Regexp(t, perfLine, b[len(b)-1])
}

func TestHashDir_EmptyDirectory(t *testing.T) {
	opts := testOptions(t, t.TempDir())

	result, err := hashDir(context.Background(), opts)
	require.NoError(t, err)
	assert.Zero(t, result.Metrics.Files)

	lines := readLines(t, opts.OutPath)
	assert.Equal(t, []string{"Performance: N/A MB/s (by CPU time)"}, lines)
}

func TestHashDir_MissingRoot(t *testing.T) {
	opts := testOptions(t, filepath.Join(t.TempDir(), "missing"))

	_, err := hashDir(context.Background(), opts)
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrEnumeration)

	_, statErr := os.Stat(opts.OutPath)
	assert.True(t, os.IsNotExist(statErr), "no artifact may be written when enumeration fails")
}

func TestHashDir_UnknownFormat(t *testing.T) {
	opts := testOptions(t, testTree(t, map[string]string{"a": "x"}))
	opts.Format = "xml"

	_, err := hashDir(context.Background(), opts)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown formatter")
}

func TestHashDir_UnwritableOutput(t *testing.T) {
	opts := testOptions(t, testTree(t, map[string]string{"a": "x"}))
	opts.OutPath = filepath.Join(t.TempDir(), "no", "such", "dir", "file.txt")

	_, err := hashDir(context.Background(), opts)
	assert.ErrorIs(t, err, types.ErrOutputWrite)
}

func TestHashDir_UnreadableFile(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("permission checks do not apply to root")
	}

	root := testTree(t, map[string]string{"ok.txt": "fine", "secret.txt": "hidden"})
	secret := filepath.Join(root, "secret.txt")
	require.NoError(t, os.Chmod(secret, 0o000))
	t.Cleanup(func() { _ = os.Chmod(secret, 0o644) })

	opts := testOptions(t, root)
	result, err := hashDir(context.Background(), opts)
	require.NoError(t, err, "per-file failures are not fatal")
	assert.Equal(t, 1, result.Metrics.Failures)

	lines := readLines(t, opts.OutPath)
	require.Len(t, lines, 4)
	assert.Equal(t, filepath.Join(root, "ok.txt")+" - SHA-256: "+sha256Hex([]byte("fine")), lines[0])
	assert.True(t, strings.HasPrefix(lines[1], secret+" - SHA-256: ERROR: "), lines[1])
	assert.Equal(t, "Failures: 1", lines[2])
	assert.Regexp(t, perfLine, lines[3])

	opts.Strict = true
	_, err = hashDir(context.Background(), opts)
	assert.True(t, errors.Is(err, errFailedFiles))
	_, statErr := os.Stat(opts.OutPath)
	assert.NoError(t, statErr, "strict mode still writes the artifact")
}

func TestHashDir_RecordsHistory(t *testing.T) {
	opts := testOptions(t, testTree(t, map[string]string{"a": "x", "b": "yy"}))
	opts.HistoryPath = t.TempDir()
	opts.Format = "json"

	_, err := hashDir(context.Background(), opts)
	require.NoError(t, err)

	store, err := history.Open(opts.HistoryPath)
	require.NoError(t, err)
	defer store.Close()

	records, err := store.List(0)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, opts.Root, records[0].Root)
	assert.Equal(t, 2, records[0].Files)
	assert.Equal(t, int64(3), records[0].TotalBytes)
	assert.Equal(t, opts.OutPath, records[0].Artifact)
	assert.Equal(t, "json", records[0].Format)
}

func TestHashDir_Summary(t *testing.T) {
	opts := testOptions(t, testTree(t, map[string]string{"a": "x"}))
	opts.Quiet = false
	var stdout bytes.Buffer
	opts.Stdout = &stdout

	_, err := hashDir(context.Background(), opts)
	require.NoError(t, err)
	assert.Contains(t, stdout.String(), opts.OutPath)
	assert.Contains(t, stdout.String(), "MB/s")
}

func TestHashDir_ProgressOnStderr(t *testing.T) {
	opts := testOptions(t, testTree(t, map[string]string{"a": "x", "sub/b": "yy"}))
	var stderr bytes.Buffer
	opts.Stderr = &stderr
	opts.Progress = true

	_, err := hashDir(context.Background(), opts)
	require.NoError(t, err)
	assert.Contains(t, stderr.String(), "enumerating")
	assert.Contains(t, stderr.String(), "hashing")
}

func TestHashDir_Cancelled(t *testing.T) {
	opts := testOptions(t, testTree(t, map[string]string{"a": "x"}))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := hashDir(ctx, opts)
	assert.ErrorIs(t, err, context.Canceled)
}
