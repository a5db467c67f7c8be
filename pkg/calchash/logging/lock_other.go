//go:build !unix

package logging

// lock is a no-op where advisory file locks are unavailable; writes are
// still serialized within the process by the writer's mutex.
func (w *RotatingWriter) lock() error { return nil }

func (w *RotatingWriter) unlock() {}
