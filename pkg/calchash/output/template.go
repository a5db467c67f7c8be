package output

import (
	"bytes"
	"fmt"
	"strconv"
	"sync"

	"github.com/dustin/go-humanize"
	"github.com/valyala/fasttemplate"
)

// TemplateFormatter writes one line per file from a user supplied line
// template. Recognized placeholders are {path}, {digest}, {size},
// {size_human} and {error}. Unknown placeholders render empty.
type TemplateFormatter struct {
	templateStr string
	template    *fasttemplate.Template
	mu          sync.Mutex
}

// NewTemplateFormatter creates a new template formatter with the given template string.
func NewTemplateFormatter(templateStr string) *TemplateFormatter {
	return &TemplateFormatter{
		templateStr: templateStr,
	}
}

// SetTemplate sets or updates the template string.
func (f *TemplateFormatter) SetTemplate(templateStr string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.templateStr = templateStr
	f.template = nil // Reset compiled template
}

// Format writes the formatted output to the buffer.
func (f *TemplateFormatter) Format(w *bytes.Buffer, r *Result) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.template == nil {
		tmpl, err := fasttemplate.NewTemplate(f.templateStr, "{", "}")
		if err != nil {
			return fmt.Errorf("parsing template: %w", err)
		}
		f.template = tmpl
	}

	for _, file := range r.Files {
		values := map[string]interface{}{
			"path":       file.Path,
			"digest":     file.Digest,
			"size":       strconv.FormatInt(file.Size, 10),
			"size_human": humanize.IBytes(uint64(max(file.Size, 0))),
			"error":      file.Error,
		}
		if _, err := f.template.Execute(w, values); err != nil {
			return err
		}
		w.WriteByte('\n')
	}
	return nil
}

// defaultTemplate is the template used when no custom template is provided.
// It matches the sha256sum layout.
const defaultTemplate = "{digest}  {path}"

func init() {
	Register("template", func() Formatter {
		return NewTemplateFormatter(defaultTemplate)
	})
}

// Ensure TemplateFormatter implements Formatter.
var _ Formatter = (*TemplateFormatter)(nil)
