package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jamesainslie/calchash/pkg/calchash/history"
	"github.com/jamesainslie/calchash/pkg/calchash/types"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "View previous runs",
	Long: `View the history of hash runs.

Each completed run records its root directory, file count, size, worker
count, CPU and wall time, throughput and result file. Digests are not stored.`,
	RunE: runHistory,
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent runs",
	RunE:  runHistory,
}

var historyShowCmd = &cobra.Command{
	Use:   "show [id]",
	Short: "Show details of a specific run",
	Long:  `Display detailed information about a run by its ID or a unique ID prefix.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryShow,
}

var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all history entries",
	RunE:  runHistoryClear,
}

var (
	historyLimit int
)

func init() {
	historyCmd.PersistentFlags().IntVarP(&historyLimit, "limit", "l", 20, "maximum number of entries to show")

	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyShowCmd)
	historyCmd.AddCommand(historyClearCmd)
	rootCmd.AddCommand(historyCmd)
}

// openHistory opens the configured history store.
func openHistory() (*history.Store, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return history.Open(cfg.HistoryPath())
}

// runHistory lists recent runs.
func runHistory(cmd *cobra.Command, args []string) error {
	store, err := openHistory()
	if err != nil {
		return err
	}
	defer store.Close()

	records, err := store.List(historyLimit)
	if err != nil {
		return fmt.Errorf("failed to list history: %w", err)
	}

	if len(records) == 0 {
		printInfo("No history entries found.")
		printInfo("Run 'calchash [path]' to hash a directory.")
		return nil
	}

	printRecordTable(cmd.OutOrStdout(), records)
	fmt.Fprintln(cmd.OutOrStdout(), "Use 'calchash history show <id>' for details on a specific run.")
	return nil
}

// printRecordTable writes one row per record.
func printRecordTable(w io.Writer, records []history.Record) {
	fmt.Fprintf(w, "\n%-8s  %-19s  %8s  %10s  %12s  %s\n", "ID", "TIME", "FILES", "SIZE", "MB/S (CPU)", "ROOT")
	fmt.Fprintln(w, strings.Repeat("-", 90))

	for _, r := range records {
		fmt.Fprintf(w, "%-8s  %-19s  %8d  %10s  %12s  %s\n",
			truncateString(r.ID, 8),
			r.Timestamp.Local().Format("2006-01-02 15:04:05"),
			r.Files,
			types.FormatSize(r.TotalBytes),
			r.Rate,
			r.Root,
		)
	}

	fmt.Fprintln(w, strings.Repeat("-", 90))
}

// runHistoryShow displays details of a specific run.
func runHistoryShow(cmd *cobra.Command, args []string) error {
	store, err := openHistory()
	if err != nil {
		return err
	}
	defer store.Close()

	r, err := store.Get(args[0])
	if err != nil {
		return fmt.Errorf("failed to get entry: %w", err)
	}

	printRecord(cmd.OutOrStdout(), r)
	return nil
}

// printRecord writes the details of one run.
func printRecord(w io.Writer, r *history.Record) {
	cpu := "n/a"
	if r.CPUMeasured {
		cpu = r.CPUTime.String()
	}

	fmt.Fprintln(w, "\nRun Details")
	fmt.Fprintln(w, strings.Repeat("=", 60))
	fmt.Fprintf(w, "ID:         %s\n", r.ID)
	fmt.Fprintf(w, "Timestamp:  %s\n", r.Timestamp.Local().Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(w, "Root:       %s\n", r.Root)
	fmt.Fprintf(w, "Files:      %d (%d failed)\n", r.Files, r.Failures)
	fmt.Fprintf(w, "Total Size: %s\n", types.FormatSize(r.TotalBytes))
	fmt.Fprintf(w, "Workers:    %d\n", r.Workers)
	fmt.Fprintf(w, "CPU Time:   %s\n", cpu)
	fmt.Fprintf(w, "Wall Time:  %s\n", r.WallTime)
	fmt.Fprintf(w, "Rate:       %s MB/s (by CPU time)\n", r.Rate)
	fmt.Fprintf(w, "Result:     %s (%s)\n", r.Artifact, r.Format)
}

// runHistoryClear removes every history entry.
func runHistoryClear(cmd *cobra.Command, args []string) error {
	store, err := openHistory()
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.Clear(); err != nil {
		return err
	}

	printInfo("History cleared.")
	return nil
}

// truncateString truncates a string to maxLen.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen]
}
