// Package types provides core data types for the calchash digest tool.
// It includes structures for enumerated files, per-file digest results,
// the order-aligned result table and run metrics, along with utility
// functions for parsing and formatting sizes.
package types

import (
	"encoding/hex"
	"math"
	"strconv"
	"time"
)

// Size constants for binary (IEC) units.
const (
	KiB int64 = 1024
	MiB int64 = 1024 * KiB
	GiB int64 = 1024 * MiB
	TiB int64 = 1024 * GiB
)

// DigestSize is the length in bytes of a SHA-256 digest.
const DigestSize = 32

// FileEntry is a file found during enumeration.
// It is immutable once enumerated.
type FileEntry struct {
	// Path is the absolute path to the file.
	Path string `json:"path"`

	// Size is the file size in bytes at enumeration time.
	Size int64 `json:"size"`
}

// Digest is a SHA-256 digest.
type Digest [DigestSize]byte

// String returns the digest as lowercase hexadecimal.
func (d Digest) String() string {
	return hex.EncodeToString(d[:])
}

// IsZero reports whether the digest is the zero value.
func (d Digest) IsZero() bool {
	return d == Digest{}
}

// DigestResult is the outcome of digesting one FileEntry.
// Exactly one of Digest or Err is meaningful: when Err is non-nil the
// file could not be digested and Digest must not be used.
type DigestResult struct {
	Digest Digest
	Err    error
}

// OK reports whether the file was digested successfully.
func (r DigestResult) OK() bool {
	return r.Err == nil
}

// ResultTable holds one DigestResult per input FileEntry.
// Results[i] always corresponds to the i-th input entry, regardless of
// which worker produced it or when.
type ResultTable struct {
	Results []DigestResult
}

// NewResultTable returns a table pre-sized for n entries.
func NewResultTable(n int) *ResultTable {
	return &ResultTable{Results: make([]DigestResult, n)}
}

// Len returns the number of results.
func (t *ResultTable) Len() int {
	return len(t.Results)
}

// FailedEntry pairs a result index with the error recorded there.
type FailedEntry struct {
	Index int
	Err   error
}

// Failures returns the failed results in index order.
func (t *ResultTable) Failures() []FailedEntry {
	var failed []FailedEntry
	for i, r := range t.Results {
		if r.Err != nil {
			failed = append(failed, FailedEntry{Index: i, Err: r.Err})
		}
	}
	return failed
}

// FailureCount returns the number of failed results.
func (t *ResultTable) FailureCount() int {
	n := 0
	for _, r := range t.Results {
		if r.Err != nil {
			n++
		}
	}
	return n
}

// Chunk is a contiguous half-open range [Start, End) of entry indices
// assigned to one worker.
type Chunk struct {
	Start int
	End   int
}

// Len returns the number of indices in the chunk.
func (c Chunk) Len() int {
	return c.End - c.Start
}

// Empty reports whether the chunk contains no indices.
func (c Chunk) Empty() bool {
	return c.End <= c.Start
}

// ScanError represents a non-fatal error encountered during enumeration.
// It pairs a path with the error message for reporting.
type ScanError struct {
	// Path is the file or directory path where the error occurred.
	Path string `json:"path"`

	// Error is the error message describing what went wrong.
	Error string `json:"error"`
}

// ScanResult contains the enumerated files of a directory tree.
type ScanResult struct {
	// Root is the absolute root directory that was enumerated.
	Root string `json:"root"`

	// Files contains every regular file found, sorted by path.
	Files []FileEntry `json:"files"`

	// DirsScanned is the total number of directories traversed.
	DirsScanned int64 `json:"dirs_scanned"`

	// TotalSize is the sum of all file sizes in bytes.
	TotalSize int64 `json:"total_size"`

	// Elapsed is the wall time taken to enumerate.
	Elapsed time.Duration `json:"elapsed"`

	// Errors contains non-fatal errors encountered while walking.
	Errors []ScanError `json:"errors,omitempty"`
}

// ScanProgress reports enumeration progress.
type ScanProgress struct {
	DirsScanned  int64  `json:"dirs_scanned"`
	FilesScanned int64  `json:"files_scanned"`
	BytesScanned int64  `json:"bytes_scanned"`
	CurrentPath  string `json:"current_path"`
}

// RunMetrics describes the cost of one digest run.
type RunMetrics struct {
	// Files is the number of input files.
	Files int `json:"files"`

	// TotalBytes is the sum of the enumeration-time file sizes.
	TotalBytes int64 `json:"total_bytes"`

	// CPUTime is the process user CPU time consumed by the digest phase.
	CPUTime time.Duration `json:"cpu_time"`

	// CPUMeasured is false when the platform could not report CPU time.
	CPUMeasured bool `json:"cpu_measured"`

	// WallTime is the wall clock duration of the digest phase.
	WallTime time.Duration `json:"wall_time"`

	// Workers is the number of workers used.
	Workers int `json:"workers"`

	// Failures is the number of files that could not be digested.
	Failures int `json:"failures"`
}

// Rate returns the throughput in MB of input per second of CPU time,
// where MB is 1,048,576 bytes. It returns NaN when the rate is undefined:
// CPU time was not measured, rounds to zero, or there were no input bytes.
func (m RunMetrics) Rate() float64 {
	if !m.CPUMeasured || m.CPUTime <= 0 || m.TotalBytes <= 0 {
		return math.NaN()
	}
	mb := float64(m.TotalBytes) / float64(MiB)
	return mb / m.CPUTime.Seconds()
}

// RateString formats Rate for display. The undefined rate is "N/A".
func (m RunMetrics) RateString() string {
	return FormatRate(m.Rate())
}

// FormatRate formats a rate with two decimals, or "N/A" for NaN and
// infinities.
func FormatRate(rate float64) string {
	if math.IsNaN(rate) || math.IsInf(rate, 0) {
		return "N/A"
	}
	return strconv.FormatFloat(rate, 'f', 2, 64)
}
