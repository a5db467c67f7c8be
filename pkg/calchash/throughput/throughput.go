// Package throughput measures how much process CPU time a digest run
// consumes and turns it into a MB/s rate.
package throughput

import (
	"errors"
	"time"

	"github.com/jamesainslie/calchash/pkg/calchash/logging"
	"github.com/jamesainslie/calchash/pkg/calchash/types"
)

// ErrUnsupported is returned by CPUTime on platforms that cannot report
// process CPU usage.
var ErrUnsupported = errors.New("process CPU time not supported on this platform")

var logger = logging.Get("throughput")

// Meter captures CPU and wall time at the start of a run.
type Meter struct {
	cpuStart  time.Duration
	cpuOK     bool
	wallStart time.Time

	// cpuTime is swapped out in tests.
	cpuTime func() (time.Duration, error)
}

// Sample is the CPU and wall time that elapsed between Start and Stop.
type Sample struct {
	CPU         time.Duration
	CPUMeasured bool
	Wall        time.Duration
}

// Start samples the clocks. Call it immediately before the work to measure.
func Start() *Meter {
	return start(CPUTime)
}

func start(cpuTime func() (time.Duration, error)) *Meter {
	m := &Meter{cpuTime: cpuTime, wallStart: time.Now()}
	d, err := cpuTime()
	if err != nil {
		logger.Debug("CPU time unavailable", "error", err)
		return m
	}
	m.cpuStart = d
	m.cpuOK = true
	return m
}

// Stop samples the clocks again and returns the elapsed amounts. CPU time
// is reported as measured only if both samples succeeded; elapsed CPU never
// goes below zero.
func (m *Meter) Stop() Sample {
	s := Sample{Wall: time.Since(m.wallStart)}
	if !m.cpuOK {
		return s
	}

	end, err := m.cpuTime()
	if err != nil {
		logger.Debug("CPU time unavailable", "error", err)
		return s
	}
	s.CPU = max(0, end-m.cpuStart)
	s.CPUMeasured = true
	return s
}

// TotalBytes sums the enumeration-time sizes of entries.
func TotalBytes(entries []types.FileEntry) int64 {
	var total int64
	for _, e := range entries {
		total += e.Size
	}
	return total
}

// Metrics assembles the RunMetrics for a finished run.
func Metrics(entries []types.FileEntry, table *types.ResultTable, s Sample, workers int) types.RunMetrics {
	return types.RunMetrics{
		Files:       len(entries),
		TotalBytes:  TotalBytes(entries),
		CPUTime:     s.CPU,
		CPUMeasured: s.CPUMeasured,
		WallTime:    s.Wall,
		Workers:     workers,
		Failures:    table.FailureCount(),
	}
}
