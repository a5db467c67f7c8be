//go:build unix

package throughput

import (
	"time"

	"golang.org/x/sys/unix"
)

// CPUTime returns the user CPU time consumed so far by the whole process,
// summed over all threads.
func CPUTime() (time.Duration, error) {
	var ru unix.Rusage
	if err := unix.Getrusage(unix.RUSAGE_SELF, &ru); err != nil {
		return 0, err
	}
	return time.Duration(ru.Utime.Nano()), nil
}
