package progress

import (
	"fmt"
	"io"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/jamesainslie/calchash/pkg/calchash/types"
)

// Spinner shows enumeration progress while the file count is still
// unknown.
type Spinner struct {
	bar *progressbar.ProgressBar
}

// NewSpinner starts a spinner drawn on w.
func NewSpinner(w io.Writer) *Spinner {
	s := &Spinner{
		bar: progressbar.NewOptions64(
			-1,
			progressbar.OptionSetWriter(w),
			progressbar.OptionUseANSICodes(true),
			progressbar.OptionSetDescription(scanDescription(types.ScanProgress{})),
			progressbar.OptionSpinnerType(14),
			// Advance only on Update, so nothing draws after Close.
			progressbar.OptionSetSpinnerChangeInterval(0),
			progressbar.OptionThrottle(120*time.Millisecond),
			progressbar.OptionClearOnFinish(),
		),
	}
	_ = s.bar.RenderBlank()
	return s
}

// Update shows p. Safe for concurrent use, so it can be passed directly
// as scanner.Options.OnProgress.
func (s *Spinner) Update(p types.ScanProgress) {
	s.bar.Describe(scanDescription(p))
}

// Close clears the spinner.
func (s *Spinner) Close() {
	_ = s.bar.Finish()
}

func scanDescription(p types.ScanProgress) string {
	return fmt.Sprintf("enumerating %d files in %d dirs (%s)",
		p.FilesScanned, p.DirsScanned, types.FormatSize(p.BytesScanned))
}
