// Package tuner picks the digest worker count from the detected system
// resources and an optional user override.
package tuner

import "runtime"

// maxWorkers is the largest worker count ever used.
const maxWorkers = 64

// SystemResources contains detected system resources.
type SystemResources struct {
	// CPUCores is the number of logical CPU cores available.
	CPUCores int

	// MaxProcs is the GOMAXPROCS setting, which reflects container CPU
	// quotas on runtimes that honor them.
	MaxProcs int
}

// Detect detects the available CPU resources.
func Detect() SystemResources {
	return SystemResources{
		CPUCores: runtime.NumCPU(),
		MaxProcs: runtime.GOMAXPROCS(0),
	}
}

// Workers returns the number of digest workers to use.
//
// The calculation logic:
//   - override > 0 wins, capped at 64
//   - otherwise min(CPUCores, MaxProcs), ignoring values below 1
//   - the result is never below 1
func Workers(resources SystemResources, override int) int {
	if override > 0 {
		return min(override, maxWorkers)
	}

	workers := resources.CPUCores
	if resources.MaxProcs > 0 && (workers < 1 || resources.MaxProcs < workers) {
		workers = resources.MaxProcs
	}
	workers = max(workers, 1)
	return min(workers, maxWorkers)
}
