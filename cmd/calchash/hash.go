package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jamesainslie/calchash/pkg/calchash/config"
	"github.com/jamesainslie/calchash/pkg/calchash/engine"
	"github.com/jamesainslie/calchash/pkg/calchash/history"
	"github.com/jamesainslie/calchash/pkg/calchash/logging"
	"github.com/jamesainslie/calchash/pkg/calchash/output"
	"github.com/jamesainslie/calchash/pkg/calchash/progress"
	"github.com/jamesainslie/calchash/pkg/calchash/scanner"
	"github.com/jamesainslie/calchash/pkg/calchash/throughput"
	"github.com/jamesainslie/calchash/pkg/calchash/tuner"
	"github.com/jamesainslie/calchash/pkg/calchash/types"
	"github.com/jamesainslie/calchash/pkg/calchash/viewer"
)

var logger = logging.Get("cli")

// errFailedFiles is returned in strict mode when some files could not be
// hashed.
var errFailedFiles = errors.New("some files could not be hashed")

// hashOptions holds everything a hash run needs.
type hashOptions struct {
	Root     string
	Exclude  []string
	Workers  int
	Format   string
	Template string
	OutPath  string

	// HistoryPath is the history store directory. Empty disables history.
	HistoryPath string

	OpenViewer bool
	Strict     bool
	Quiet      bool

	// Stdout receives the run summary. Stderr receives the progress bar
	// when Progress is set.
	Stdout   io.Writer
	Stderr   io.Writer
	Progress bool
}

// runHash is the root command handler.
func runHash(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	opts, err := buildHashOptions(cfg, args)
	if err != nil {
		return err
	}

	// Enumeration can be interrupted; hashing runs to completion once started.
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	_, err = hashDir(ctx, opts)
	return err
}

// buildHashOptions resolves the run settings from config and arguments.
func buildHashOptions(cfg *config.Config, args []string) (hashOptions, error) {
	root := cfg.DefaultPath
	if len(args) > 0 {
		root = args[0]
	}
	if root == "" {
		root = config.DefaultPath
	}

	expanded, err := config.ExpandPath(root)
	if err != nil {
		return hashOptions{}, fmt.Errorf("failed to expand path: %w", err)
	}
	absRoot, err := filepath.Abs(expanded)
	if err != nil {
		return hashOptions{}, fmt.Errorf("failed to resolve path: %w", err)
	}

	outPath, err := cfg.OutputPath()
	if err != nil {
		return hashOptions{}, err
	}

	opts := hashOptions{
		Root:       absRoot,
		Exclude:    cfg.Exclude,
		Workers:    cfg.Workers,
		Format:     cfg.Output.Format,
		Template:   cfg.Output.Template,
		OutPath:    outPath,
		OpenViewer: cfg.OpenViewer && !viper.GetBool("no_open"),
		Strict:     viper.GetBool("strict"),
		Quiet:      getQuiet(),
		Stdout:     os.Stdout,
		Stderr:     os.Stderr,
		Progress:   progress.Enabled(os.Stderr, getQuiet()),
	}
	if cfg.History.Enabled && !viper.GetBool("no_history") {
		opts.HistoryPath = cfg.HistoryPath()
	}
	return opts, nil
}

// hashDir runs enumeration, hashing, reporting and the post-run steps.
// The returned result is nil only when nothing was written.
func hashDir(ctx context.Context, opts hashOptions) (*output.Result, error) {
	if opts.Format == "" {
		opts.Format = config.DefaultFormat
	}
	formatter, err := output.New(opts.Format, output.Options{Template: opts.Template})
	if err != nil {
		return nil, err
	}

	printVerbose("Enumerating %s", opts.Root)
	scan, err := enumerate(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("enumerating %s: %w", opts.Root, err)
	}

	workers := tuner.Workers(tuner.Detect(), opts.Workers)
	logger.Info("run started", "root", scan.Root, "files", len(scan.Files), "bytes", scan.TotalSize)

	table, sample := digestFiles(scan.Files, workers, opts)
	metrics := throughput.Metrics(scan.Files, table, sample, workers)

	result := output.NewResult(scan.Root, scan.Files, table, metrics)
	for _, e := range scan.Errors {
		result.Warnings = append(result.Warnings, fmt.Sprintf("%s: %s", e.Path, e.Error))
	}

	if err := output.WriteFile(opts.OutPath, formatter, result); err != nil {
		return nil, err
	}

	logger.Info("run finished",
		"files", metrics.Files,
		"failures", metrics.Failures,
		"cpu", metrics.CPUTime,
		"wall", metrics.WallTime,
		"rate", metrics.RateString())

	if opts.HistoryPath != "" {
		recordRun(opts.HistoryPath, history.NewRecord(scan.Root, metrics, opts.OutPath, opts.Format))
	}

	if !opts.Quiet && opts.Stdout != nil {
		if err := output.Summary(opts.Stdout, result, opts.OutPath); err != nil {
			logger.Warn("cannot print summary", "error", err)
		}
	}

	if opts.OpenViewer {
		if err := viewer.Open(opts.OutPath); err != nil {
			logger.Warn("cannot open result file", "path", opts.OutPath, "error", err)
		}
	}

	if opts.Strict && metrics.Failures > 0 {
		return result, fmt.Errorf("%w: %d of %d", errFailedFiles, metrics.Failures, metrics.Files)
	}
	return result, nil
}

// enumerate lists the files under opts.Root, showing a spinner on the
// terminal while it walks.
func enumerate(ctx context.Context, opts hashOptions) (*types.ScanResult, error) {
	scanOpts := scanner.Options{Root: opts.Root, Exclude: opts.Exclude}
	if opts.Progress && opts.Stderr != nil {
		spin := progress.NewSpinner(opts.Stderr)
		defer spin.Close()
		scanOpts.OnProgress = spin.Update
	}
	return scanner.New(scanOpts).Scan(ctx)
}

// digestFiles hashes entries while measuring CPU and wall time.
func digestFiles(entries []types.FileEntry, workers int, opts hashOptions) (*types.ResultTable, throughput.Sample) {
	engOpts := engine.Options{Workers: workers}

	var bar *progress.Bar
	if opts.Progress && opts.Stderr != nil && len(entries) > 0 {
		bar = progress.New(opts.Stderr, throughput.TotalBytes(entries), len(entries))
		engOpts.OnProgress = bar.AddBytes
		engOpts.OnFile = func(int, types.DigestResult) { bar.FileDone() }
	}

	eng := engine.New(engOpts)
	logger.Info("digest started", "files", len(entries), "workers", eng.Workers())

	meter := throughput.Start()
	table := eng.Run(entries)
	sample := meter.Stop()

	if bar != nil {
		bar.Close()
	}
	return table, sample
}

// recordRun stores r in the history store. Failures are logged only.
func recordRun(path string, r *history.Record) {
	store, err := history.Open(path)
	if err != nil {
		logger.Warn("cannot open history", "path", path, "error", err)
		return
	}
	defer store.Close()

	if err := store.Add(r); err != nil {
		logger.Warn("cannot record run", "error", err)
	}
}
