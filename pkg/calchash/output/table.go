package output

import (
	"bytes"
	"encoding/csv"
	"strings"
)

// tableHeader is the header row of the csv and tsv formats.
var tableHeader = []string{"PATH", "SHA256", "ERROR"}

// tableRows returns the header followed by one row per file.
func tableRows(r *Result) [][]string {
	rows := make([][]string, 0, len(r.Files)+1)
	rows = append(rows, tableHeader)
	for _, f := range r.Files {
		rows = append(rows, []string{f.Path, f.Digest, f.Error})
	}
	return rows
}

// TSVFormatter writes a tab-separated table. Tabs and line breaks inside
// fields become spaces so every row stays on one line with three columns.
type TSVFormatter struct{}

var tsvReplacer = strings.NewReplacer("\t", " ", "\n", " ", "\r", " ")

// Format implements Formatter.
func (TSVFormatter) Format(w *bytes.Buffer, r *Result) error {
	for _, row := range tableRows(r) {
		for i, field := range row {
			if i > 0 {
				w.WriteByte('\t')
			}
			tsvReplacer.WriteString(w, field) //nolint:errcheck // bytes.Buffer writes do not fail
		}
		w.WriteByte('\n')
	}
	return nil
}

// CSVFormatter writes an RFC 4180 table.
type CSVFormatter struct{}

// Format implements Formatter.
func (CSVFormatter) Format(w *bytes.Buffer, r *Result) error {
	cw := csv.NewWriter(w)
	if err := cw.WriteAll(tableRows(r)); err != nil {
		return err
	}
	return cw.Error()
}

func init() {
	Register("tsv", func() Formatter { return TSVFormatter{} })
	Register("csv", func() Formatter { return CSVFormatter{} })
}
