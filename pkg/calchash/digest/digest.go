// Package digest computes SHA-256 digests of files.
//
// A Computer holds mutable hashing state and a read buffer, so it must not
// be shared between goroutines. Create one per worker.
package digest

import (
	"errors"
	"hash"
	"io"
	"os"

	"github.com/minio/sha256-simd"

	"github.com/jamesainslie/calchash/pkg/calchash/types"
)

// bufSize is the read buffer size used when streaming a file.
const bufSize = 1 << 20 // 1 MiB

// Computer computes SHA-256 digests. It is not safe for concurrent use.
type Computer struct {
	h          hash.Hash
	buf        []byte
	onProgress func(n int64)
}

// New returns a Computer with fresh hashing state.
func New() *Computer {
	return &Computer{
		h:   sha256.New(),
		buf: make([]byte, bufSize),
	}
}

// SetProgress registers a callback invoked with the byte count of every
// read. Pass nil to disable.
func (c *Computer) SetProgress(fn func(n int64)) {
	c.onProgress = fn
}

// Sum digests r until EOF.
func (c *Computer) Sum(r io.Reader) (types.Digest, error) {
	_, d, err := c.sum(r)
	return d, err
}

// File digests the file at path and returns the digest and the number of
// bytes read. The file is always closed before File returns. Failures are
// reported as *types.DigestIOError.
func (c *Computer) File(path string) (d types.Digest, n int64, retErr error) {
	f, err := os.Open(path) // #nosec G304 -- path comes from enumeration
	if err != nil {
		return types.Digest{}, 0, &types.DigestIOError{Path: path, Op: "open", Err: err}
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && retErr == nil {
			d = types.Digest{}
			retErr = &types.DigestIOError{Path: path, Op: "close", Err: closeErr}
		}
	}()

	n, d, err = c.sum(f)
	if err != nil {
		return types.Digest{}, n, &types.DigestIOError{Path: path, Op: "read", Err: err}
	}
	return d, n, nil
}

func (c *Computer) sum(r io.Reader) (int64, types.Digest, error) {
	c.h.Reset()

	var total int64
	for {
		n, rerr := r.Read(c.buf)
		if n > 0 {
			// hash.Hash.Write never returns an error.
			_, _ = c.h.Write(c.buf[:n])
			total += int64(n)
			if c.onProgress != nil {
				c.onProgress(int64(n))
			}
		}
		if errors.Is(rerr, io.EOF) {
			break
		}
		if rerr != nil {
			return total, types.Digest{}, rerr
		}
	}

	var d types.Digest
	c.h.Sum(d[:0])
	return total, d, nil
}

// Bytes returns the digest of b.
func Bytes(b []byte) types.Digest {
	return types.Digest(sha256.Sum256(b))
}
