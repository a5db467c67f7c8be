//go:build !unix

package throughput

import "time"

// CPUTime is not available on this platform.
func CPUTime() (time.Duration, error) {
	return 0, ErrUnsupported
}
