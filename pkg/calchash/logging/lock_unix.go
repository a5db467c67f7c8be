//go:build unix

package logging

import "golang.org/x/sys/unix"

// lock acquires an exclusive advisory lock on the log file so several
// calchash processes can share one log.
func (w *RotatingWriter) lock() error {
	return unix.Flock(int(w.file.Fd()), unix.LOCK_EX)
}

// unlock releases the lock on the log file.
func (w *RotatingWriter) unlock() {
	_ = unix.Flock(int(w.file.Fd()), unix.LOCK_UN) // ignore unlock errors
}
