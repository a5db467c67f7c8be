package output

import (
	"bytes"
	"strconv"

	"github.com/valyala/fasttemplate"
)

// Line layouts of the text artifact.
const (
	textDigestLine  = "{path} - SHA-256: {digest}\n"
	textErrorLine   = "{path} - SHA-256: ERROR: {error}\n"
	textFailureLine = "Failures: {count}\n"
	textRateLine    = "Performance: {rate} MB/s (by CPU time)\n"
)

var (
	digestLineTpl  = fasttemplate.New(textDigestLine, "{", "}")
	errorLineTpl   = fasttemplate.New(textErrorLine, "{", "}")
	failureLineTpl = fasttemplate.New(textFailureLine, "{", "}")
	rateLineTpl    = fasttemplate.New(textRateLine, "{", "}")
)

// TextFormatter writes one line per file followed by the throughput line:
//
//	/abs/path - SHA-256: <hex>
//	/abs/other - SHA-256: ERROR: open /abs/other: permission denied
//	Failures: 1
//	Performance: 412.37 MB/s (by CPU time)
//
// The Failures line appears only when a file failed.
type TextFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *TextFormatter) Format(w *bytes.Buffer, r *Result) error {
	for _, file := range r.Files {
		var err error
		if file.OK() {
			_, err = digestLineTpl.Execute(w, map[string]interface{}{
				"path":   file.Path,
				"digest": file.Digest,
			})
		} else {
			_, err = errorLineTpl.Execute(w, map[string]interface{}{
				"path":  file.Path,
				"error": file.Error,
			})
		}
		if err != nil {
			return err
		}
	}

	if n := r.Failures(); n > 0 {
		if _, err := failureLineTpl.Execute(w, map[string]interface{}{"count": strconv.Itoa(n)}); err != nil {
			return err
		}
	}

	_, err := rateLineTpl.Execute(w, map[string]interface{}{"rate": r.Metrics.RateString()})
	return err
}

func init() {
	Register("text", func() Formatter {
		return &TextFormatter{}
	})
}

// Ensure TextFormatter implements Formatter.
var _ Formatter = (*TextFormatter)(nil)
