// Package history keeps a record of completed digest runs in a badger
// store. Only run metrics are stored; digests are never cached or reused.
package history

import (
	"encoding/binary"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/jamesainslie/calchash/pkg/calchash/types"
)

// RecordVersion is incremented when the record format changes.
const RecordVersion = 1

// keyPrefix namespaces run records within the store.
var keyPrefix = []byte("run\x00")

// Record describes one completed run.
type Record struct {
	Version     int           `json:"version"`
	ID          string        `json:"id"`
	Timestamp   time.Time     `json:"timestamp"`
	Root        string        `json:"root"`
	Files       int           `json:"files"`
	TotalBytes  int64         `json:"total_bytes"`
	Failures    int           `json:"failures"`
	Workers     int           `json:"workers"`
	CPUTime     time.Duration `json:"cpu_time"`
	CPUMeasured bool          `json:"cpu_measured"`
	WallTime    time.Duration `json:"wall_time"`
	Rate        string        `json:"rate"`
	Artifact    string        `json:"artifact"`
	Format      string        `json:"format"`
}

// NewRecord builds a record for a run that just finished.
func NewRecord(root string, m types.RunMetrics, artifact, format string) *Record {
	return &Record{
		Version:     RecordVersion,
		ID:          uuid.NewString(),
		Timestamp:   time.Now().UTC(),
		Root:        root,
		Files:       m.Files,
		TotalBytes:  m.TotalBytes,
		Failures:    m.Failures,
		Workers:     m.Workers,
		CPUTime:     m.CPUTime,
		CPUMeasured: m.CPUMeasured,
		WallTime:    m.WallTime,
		Rate:        m.RateString(),
		Artifact:    artifact,
		Format:      format,
	}
}

// Metrics returns the run metrics stored in the record.
func (r *Record) Metrics() types.RunMetrics {
	return types.RunMetrics{
		Files:       r.Files,
		TotalBytes:  r.TotalBytes,
		CPUTime:     r.CPUTime,
		CPUMeasured: r.CPUMeasured,
		WallTime:    r.WallTime,
		Workers:     r.Workers,
		Failures:    r.Failures,
	}
}

// Encode serializes the record to JSON.
func (r *Record) Encode() ([]byte, error) {
	return json.Marshal(r)
}

// Decode deserializes JSON into the record.
func (r *Record) Decode(data []byte) error {
	return json.Unmarshal(data, r)
}

// MakeKey creates a store key for a record.
// Format: run\x00<8-byte big-endian unix nanos><id>
// Keys sort by timestamp, so reverse iteration yields newest first.
func MakeKey(r *Record) []byte {
	key := make([]byte, 0, len(keyPrefix)+8+len(r.ID))
	key = append(key, keyPrefix...)
	key = binary.BigEndian.AppendUint64(key, uint64(r.Timestamp.UnixNano()))
	return append(key, r.ID...)
}

// ParseKey extracts the timestamp and record ID from a store key.
func ParseKey(key []byte) (time.Time, string, bool) {
	if len(key) < len(keyPrefix)+8 || string(key[:len(keyPrefix)]) != string(keyPrefix) {
		return time.Time{}, "", false
	}
	rest := key[len(keyPrefix):]
	ts := time.Unix(0, int64(binary.BigEndian.Uint64(rest[:8]))).UTC()
	return ts, string(rest[8:]), true
}
