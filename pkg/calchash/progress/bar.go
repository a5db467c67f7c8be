// Package progress draws a byte-based progress bar while files are hashed.
package progress

import (
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
)

// Enabled reports whether a bar should be drawn on f.
func Enabled(f *os.File, quiet bool) bool {
	if quiet || f == nil {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Bar is a progress bar fed concurrently by digest workers.
type Bar struct {
	bar  *progressbar.ProgressBar
	ch   chan int64
	done chan struct{}
	stop chan struct{}
	wg   sync.WaitGroup

	files     int
	filesDone atomic.Int64
	bytesDone atomic.Int64
	lastB     int64
	lastAt    time.Time
}

// New starts a bar for totalBytes spread over files files, drawn on w.
func New(w io.Writer, totalBytes int64, files int) *Bar {
	b := &Bar{
		ch:     make(chan int64, 16384),
		done:   make(chan struct{}),
		stop:   make(chan struct{}),
		files:  files,
		lastAt: time.Now(),
	}

	b.bar = progressbar.NewOptions64(
		totalBytes,
		progressbar.OptionSetWriter(w),
		progressbar.OptionUseANSICodes(true),
		progressbar.OptionSetDescription(b.description(0)),
		progressbar.OptionShowBytes(true),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionThrottle(120*time.Millisecond),
		progressbar.OptionClearOnFinish(),
	)
	_ = b.bar.RenderBlank()

	go func() {
		defer close(b.done)
		for n := range b.ch {
			_ = b.bar.Add64(n)
		}
		_ = b.bar.Finish()
	}()

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		t := time.NewTicker(time.Second)
		defer t.Stop()
		for {
			select {
			case <-t.C:
				b.updateDescription()
			case <-b.stop:
				return
			}
		}
	}()

	return b
}

// AddBytes records n more bytes read. Safe for concurrent use.
func (b *Bar) AddBytes(n int64) {
	if n <= 0 {
		return
	}
	b.bytesDone.Add(n)
	b.ch <- n
}

// FileDone records one more finished file. Safe for concurrent use.
func (b *Bar) FileDone() {
	b.filesDone.Add(1)
}

// Close stops the bar and waits until it is drawn for the last time.
// AddBytes must not be called after Close.
func (b *Bar) Close() {
	close(b.stop)
	b.wg.Wait()
	close(b.ch)
	<-b.done
}

func (b *Bar) updateDescription() {
	now := time.Now()
	dt := now.Sub(b.lastAt).Seconds()
	bytesDone := b.bytesDone.Load()

	mbps := 0.0
	if dt > 0 {
		mbps = float64(bytesDone-b.lastB) / (1 << 20) / dt
	}
	b.lastB = bytesDone
	b.lastAt = now

	b.bar.Describe(b.description(mbps))
}

func (b *Bar) description(mbps float64) string {
	if mbps <= 0 {
		return fmt.Sprintf("hashing %d/%d files", b.filesDone.Load(), b.files)
	}
	return fmt.Sprintf("hashing %d/%d files | %.1f MB/s", b.filesDone.Load(), b.files, mbps)
}
