package output

import (
	"bytes"

	"github.com/goccy/go-json"
)

// JSONFormatter writes the run as one indented JSON document with files,
// stats and meta sections.
type JSONFormatter struct{}

// Format implements Formatter.
func (JSONFormatter) Format(w *bytes.Buffer, r *Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(newDocument(r))
}

// JSONLFormatter writes one compact JSON object per file, suitable for
// streaming through jq. Run statistics are not included.
type JSONLFormatter struct{}

// Format implements Formatter.
func (JSONLFormatter) Format(w *bytes.Buffer, r *Result) error {
	enc := json.NewEncoder(w)
	for _, f := range r.Files {
		if err := enc.Encode(newDocFile(f)); err != nil {
			return err
		}
	}
	return nil
}

func init() {
	Register("json", func() Formatter { return JSONFormatter{} })
	Register("jsonl", func() Formatter { return JSONLFormatter{} })
}
