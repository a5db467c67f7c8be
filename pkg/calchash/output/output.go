// Package output renders digest run results in various formats (text,
// json, jsonl, yaml, csv, tsv, template) and writes the result artifact.
//
// The package uses a registry pattern to allow registration of multiple
// formatter implementations that can be selected at runtime.
//
// Basic usage:
//
//	formatter, err := output.New("text", output.Options{})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := output.WriteFile("file.txt", formatter, result); err != nil {
//	    log.Fatal(err)
//	}
package output

import (
	"bytes"
	"fmt"
	"sort"
	"sync"

	"github.com/jamesainslie/calchash/pkg/calchash/logging"
	"github.com/jamesainslie/calchash/pkg/calchash/types"
)

// logger is the package-level logger for output operations.
var logger = logging.Get("output")

// FileResult is one input file and its digest outcome.
type FileResult struct {
	// Path is the absolute path to the file.
	Path string `json:"path" yaml:"path"`

	// Size is the file size in bytes measured at enumeration.
	Size int64 `json:"size" yaml:"size"`

	// Digest is the lowercase hex SHA-256 digest. Empty when Error is set.
	Digest string `json:"digest,omitempty" yaml:"digest,omitempty"`

	// Error describes why the file could not be digested.
	Error string `json:"error,omitempty" yaml:"error,omitempty"`
}

// OK reports whether the file was digested.
func (f FileResult) OK() bool {
	return f.Error == ""
}

// Result contains the complete output data for formatting.
type Result struct {
	// Root is the directory that was hashed.
	Root string

	// Files holds one entry per input file, in enumeration order.
	Files []FileResult

	// Metrics describes the cost of the run.
	Metrics types.RunMetrics

	// Warnings contains non-fatal enumeration problems.
	Warnings []string
}

// NewResult pairs entries with their digest results. The table must have
// been produced for exactly these entries.
func NewResult(root string, entries []types.FileEntry, table *types.ResultTable, m types.RunMetrics) *Result {
	files := make([]FileResult, len(entries))
	for i, e := range entries {
		files[i] = FileResult{Path: e.Path, Size: e.Size}
		if i >= table.Len() {
			continue
		}
		if r := table.Results[i]; r.OK() {
			files[i].Digest = r.Digest.String()
		} else {
			files[i].Error = r.Err.Error()
		}
	}
	return &Result{Root: root, Files: files, Metrics: m}
}

// Failures returns the number of files that could not be digested.
func (r *Result) Failures() int {
	n := 0
	for _, f := range r.Files {
		if !f.OK() {
			n++
		}
	}
	return n
}

// TotalSize returns the sum of all file sizes in the result.
func (r *Result) TotalSize() int64 {
	var total int64
	for _, f := range r.Files {
		total += f.Size
	}
	return total
}

// Formatter is the interface that all output formatters must implement.
type Formatter interface {
	// Format writes the formatted output to the buffer.
	// It returns an error if formatting fails.
	Format(w *bytes.Buffer, r *Result) error
}

// FormatterFactory is a function that creates a new Formatter instance.
type FormatterFactory func() Formatter

// Registry manages formatter registration and lookup.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]FormatterFactory
}

// NewRegistry creates a new formatter registry.
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]FormatterFactory),
	}
}

// Register adds a formatter factory to the registry.
// It will replace any existing formatter with the same name.
func (r *Registry) Register(name string, factory FormatterFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = factory
}

// Get returns a new formatter instance by name.
// It returns an error if the formatter is not found.
func (r *Registry) Get(name string) (Formatter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	factory, ok := r.factories[name]
	if !ok {
		return nil, fmt.Errorf("unknown formatter: %s", name)
	}
	return factory(), nil
}

// Available returns a sorted list of all registered formatter names.
func (r *Registry) Available() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultRegistry is the global formatter registry.
var DefaultRegistry = NewRegistry()

// Register adds a formatter factory to the default registry.
func Register(name string, factory FormatterFactory) {
	DefaultRegistry.Register(name, factory)
}

// Get returns a new formatter instance from the default registry.
func Get(name string) (Formatter, error) {
	return DefaultRegistry.Get(name)
}

// Available returns all formatter names from the default registry.
func Available() []string {
	return DefaultRegistry.Available()
}

// Options tunes formatters that accept settings.
type Options struct {
	// Template is the line template for the template format.
	Template string
}

// New returns the named formatter from the default registry with opts
// applied.
func New(name string, opts Options) (Formatter, error) {
	f, err := Get(name)
	if err != nil {
		return nil, fmt.Errorf("%w (available: %v)", err, Available())
	}
	if t, ok := f.(*TemplateFormatter); ok && opts.Template != "" {
		t.SetTemplate(opts.Template)
	}
	return f, nil
}
