// Package config provides configuration management for calchash.
package config

// Default configuration values for calchash.
const (
	// AppName names the config, data and state directories.
	AppName = "calchash"

	// EnvPrefix is the prefix of environment variable overrides.
	EnvPrefix = "CALCHASH"

	// DefaultPath is the default directory to hash when none is specified.
	DefaultPath = "."

	// DefaultConfigDir is the default configuration directory path.
	DefaultConfigDir = "~/.config/calchash"

	// DefaultOutputName is the artifact file name, created in the working
	// directory unless output.path is set.
	DefaultOutputName = "file.txt"

	// DefaultFormat is the default artifact format.
	DefaultFormat = "text"

	// DefaultTemplate is the default line template for the template format.
	DefaultTemplate = "{digest}  {path}"

	// DefaultWorkers selects the worker count automatically.
	DefaultWorkers = 0

	// DefaultLogLevel is the default global log level.
	DefaultLogLevel = "info"
)

// DefaultExclusions contains paths that should be excluded from hashing by default.
var DefaultExclusions = []string{
	"/proc",
	"/sys",
	"/dev",
}
