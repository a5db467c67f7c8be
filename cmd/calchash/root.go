package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jamesainslie/calchash/pkg/calchash/config"
	"github.com/jamesainslie/calchash/pkg/calchash/logging"
	"github.com/jamesainslie/calchash/pkg/calchash/output"
)

var (
	cfgFile string
	rootCmd = &cobra.Command{
		Use:   "calchash [path]",
		Short: "Compute SHA-256 digests of every file under a directory",
		Long: `Calchash walks a directory tree, computes the SHA-256 digest of every
regular file in parallel and writes the results to file.txt in the working
directory, followed by the hashing throughput in MB per second of CPU time.

Examples:
  calchash                     # Hash the current directory
  calchash ~/Downloads         # Hash a specific directory
  calchash -w 1 .              # Hash serially
  calchash -f json --out r.json .
  calchash config show         # Show configuration
  calchash history             # View previous runs`,
		Args:              cobra.MaximumNArgs(1),
		RunE:              runHash,
		PersistentPreRunE: initializeLogging,
		PersistentPostRun: func(*cobra.Command, []string) { _ = logging.Close() },
		SilenceUsage:      true,
	}
)

func init() {
	cobra.OnInitialize(initConfig)

	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ~/.config/calchash/config.yaml)")
	rootCmd.PersistentFlags().IntP("workers", "w", 0, "override worker count (0=auto)")
	rootCmd.PersistentFlags().StringSliceP("exclude", "e", nil, "exclude patterns (can be specified multiple times)")
	rootCmd.PersistentFlags().StringP("format", "f", "", fmt.Sprintf("result format %v (default text)", output.Available()))
	rootCmd.PersistentFlags().String("template", "", "line template for the template format (e.g. '{digest}  {path}')")
	rootCmd.PersistentFlags().String("out", "", "result file path (default: ./"+config.DefaultOutputName+")")
	rootCmd.PersistentFlags().Bool("no-open", false, "don't open the result file in the default viewer")
	rootCmd.PersistentFlags().Bool("no-history", false, "don't record the run in the history store")
	rootCmd.PersistentFlags().Bool("strict", false, "exit with status 1 if any file could not be hashed")
	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "minimal output")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "debug output")

	// Bind flags to viper
	_ = viper.BindPFlag("workers", rootCmd.PersistentFlags().Lookup("workers"))
	_ = viper.BindPFlag("exclude", rootCmd.PersistentFlags().Lookup("exclude"))
	_ = viper.BindPFlag("output.format", rootCmd.PersistentFlags().Lookup("format"))
	_ = viper.BindPFlag("output.template", rootCmd.PersistentFlags().Lookup("template"))
	_ = viper.BindPFlag("output.path", rootCmd.PersistentFlags().Lookup("out"))
	_ = viper.BindPFlag("no_open", rootCmd.PersistentFlags().Lookup("no-open"))
	_ = viper.BindPFlag("no_history", rootCmd.PersistentFlags().Lookup("no-history"))
	_ = viper.BindPFlag("strict", rootCmd.PersistentFlags().Lookup("strict"))
	_ = viper.BindPFlag("quiet", rootCmd.PersistentFlags().Lookup("quiet"))
	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
}

// initConfig reads in config file and environment variables.
func initConfig() {
	v := viper.GetViper()
	if cfgFile != "" {
		// Use config file from the flag
		v.SetConfigFile(cfgFile)
	} else {
		config.AddConfigPaths(v)
	}

	config.SetDefaults(v)

	// Read config file (ignore if not found)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			printError("reading config: %v", err)
		}
	}
}

// loadConfig decodes the merged flag, env and file configuration.
func loadConfig() (*config.Config, error) {
	return config.FromViper(viper.GetViper())
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// getVerbose returns true if verbose mode is enabled.
func getVerbose() bool {
	return viper.GetBool("verbose")
}

// getQuiet returns true if quiet mode is enabled.
func getQuiet() bool {
	return viper.GetBool("quiet")
}

// printVerbose prints a message if verbose mode is enabled.
func printVerbose(format string, args ...interface{}) {
	if getVerbose() && !getQuiet() {
		fmt.Fprintf(os.Stderr, "[DEBUG] "+format+"\n", args...)
	}
}

// printInfo prints a message if quiet mode is not enabled.
func printInfo(format string, args ...interface{}) {
	if !getQuiet() {
		fmt.Printf(format+"\n", args...)
	}
}

// printError prints an error message to stderr.
func printError(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
}
