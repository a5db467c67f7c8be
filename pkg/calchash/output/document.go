package output

import (
	"math"
)

// document is the structured form of a Result shared by the json and
// yaml formats.
type document struct {
	Files []docFile `json:"files" yaml:"files"`
	Stats docStats  `json:"stats" yaml:"stats"`
	Meta  docMeta   `json:"meta" yaml:"meta"`
}

type docFile struct {
	Path   string `json:"path" yaml:"path"`
	Size   int64  `json:"size" yaml:"size"`
	Digest string `json:"sha256,omitempty" yaml:"sha256,omitempty"`
	Error  string `json:"error,omitempty" yaml:"error,omitempty"`
}

type docStats struct {
	Files      int    `json:"files" yaml:"files"`
	TotalBytes int64  `json:"total_bytes" yaml:"total_bytes"`
	Failures   int    `json:"failures" yaml:"failures"`
	Workers    int    `json:"workers" yaml:"workers"`
	CPUTime    string `json:"cpu_time,omitempty" yaml:"cpu_time,omitempty"`
	WallTime   string `json:"wall_time" yaml:"wall_time"`
	// RateMBps is nil when the rate is undefined and encodes as null.
	RateMBps *float64 `json:"rate_mb_per_cpu_second" yaml:"rate_mb_per_cpu_second"`
	Rate     string   `json:"rate" yaml:"rate"`
}

type docMeta struct {
	Root      string   `json:"root" yaml:"root"`
	Algorithm string   `json:"algorithm" yaml:"algorithm"`
	Warnings  []string `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

func newDocFile(f FileResult) docFile {
	return docFile{Path: f.Path, Size: f.Size, Digest: f.Digest, Error: f.Error}
}

func newDocument(r *Result) document {
	files := make([]docFile, len(r.Files))
	for i, f := range r.Files {
		files[i] = newDocFile(f)
	}

	m := r.Metrics
	stats := docStats{
		Files:      len(r.Files),
		TotalBytes: m.TotalBytes,
		Failures:   r.Failures(),
		Workers:    m.Workers,
		WallTime:   m.WallTime.String(),
		Rate:       m.RateString(),
	}
	if rate := m.Rate(); !math.IsNaN(rate) && !math.IsInf(rate, 0) {
		stats.RateMBps = &rate
	}
	if m.CPUMeasured {
		stats.CPUTime = m.CPUTime.String()
	}

	return document{
		Files: files,
		Stats: stats,
		Meta: docMeta{
			Root:      r.Root,
			Algorithm: "sha256",
			Warnings:  r.Warnings,
		},
	}
}
