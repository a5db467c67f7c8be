// Package logging provides component loggers backed by a rotating log file
// and an optional console sink.
//
//	if err := logging.Init(logging.DefaultConfig()); err != nil {
//	    return err
//	}
//	defer logging.Close()
//
//	logger := logging.Get("engine")
//	logger.Info("run started", "files", 120)
//
// Get may be called before Init, typically from a package-level var. Such
// loggers discard output until Init and are rewired in place by Init and
// Close.
package logging

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/adrg/xdg"
	"github.com/charmbracelet/log"
)

// Level represents a logging level.
type Level int

// Log levels from least to most severe.
const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

var levelNames = [...]string{
	LevelDebug: "debug",
	LevelInfo:  "info",
	LevelWarn:  "warn",
	LevelError: "error",
}

var charmLevels = [...]log.Level{
	LevelDebug: log.DebugLevel,
	LevelInfo:  log.InfoLevel,
	LevelWarn:  log.WarnLevel,
	LevelError: log.ErrorLevel,
}

func (l Level) valid() bool { return l >= LevelDebug && l <= LevelError }

func (l Level) String() string {
	if !l.valid() {
		return "unknown"
	}
	return levelNames[l]
}

func (l Level) charm() log.Level {
	if !l.valid() {
		return log.InfoLevel
	}
	return charmLevels[l]
}

// ErrInvalidLevel is returned when an invalid log level string is provided.
var ErrInvalidLevel = errors.New("invalid log level")

// ParseLevel parses a level name, case-insensitively. "warning" is accepted
// as an alias for warn.
func ParseLevel(s string) (Level, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	if name == "warning" {
		return LevelWarn, nil
	}
	for l, n := range levelNames {
		if n == name {
			return Level(l), nil
		}
	}
	return LevelInfo, fmt.Errorf("%w: %q", ErrInvalidLevel, s)
}

// Config configures the logging system.
type Config struct {
	// Level is the default log level (debug, info, warn, error).
	Level string

	// Path is the log file path. Empty uses DefaultLogPath().
	Path string

	// Rotation configures log file rotation.
	Rotation RotationConfig

	// Components overrides Level for individual components.
	Components map[string]string

	// ConsoleLevel enables console output at the given level. Empty
	// disables it.
	ConsoleLevel string

	// Console is where console output goes. Nil means os.Stderr.
	Console io.Writer
}

// sinks is the pair of charm loggers a Logger writes through.
type sinks struct {
	file    *log.Logger
	console *log.Logger // nil when console output is off
}

// Logger is a component logger. The zero value is not usable; obtain one
// with Get.
type Logger struct {
	component string
	out       atomic.Pointer[sinks]
}

// Debug logs a debug message.
func (l *Logger) Debug(msg string, args ...any) { l.emit(LevelDebug, msg, args) }

// Info logs an info message.
func (l *Logger) Info(msg string, args ...any) { l.emit(LevelInfo, msg, args) }

// Warn logs a warning message.
func (l *Logger) Warn(msg string, args ...any) { l.emit(LevelWarn, msg, args) }

// Error logs an error message.
func (l *Logger) Error(msg string, args ...any) { l.emit(LevelError, msg, args) }

func (l *Logger) emit(level Level, msg string, args []any) {
	s := l.out.Load()
	s.file.Log(level.charm(), msg, args...)
	if s.console != nil {
		s.console.Log(level.charm(), msg, args...)
	}
}

// With returns a logger that adds args to every message. The result is
// detached: a later Init or Close does not rewire it.
func (l *Logger) With(args ...any) *Logger {
	s := l.out.Load()
	derived := &sinks{file: s.file.With(args...)}
	if s.console != nil {
		derived.console = s.console.With(args...)
	}

	child := &Logger{component: l.component}
	child.out.Store(derived)
	return child
}

// settings is a validated Config. The zero value describes the
// uninitialized state, in which everything is discarded.
type settings struct {
	writer     *RotatingWriter
	level      Level
	components map[string]Level
	console    io.Writer // nil when console output is off
	consoleLvl Level
}

func (s *settings) sinksFor(component string) *sinks {
	if s.writer == nil {
		return &sinks{file: log.NewWithOptions(io.Discard, log.Options{Prefix: component})}
	}

	level, ok := s.components[component]
	if !ok {
		level = s.level
	}

	out := &sinks{file: log.NewWithOptions(s.writer, log.Options{
		Level:           level.charm(),
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339,
		Prefix:          component,
	})}
	if s.console != nil {
		out.console = log.NewWithOptions(s.console, log.Options{
			Level:           s.consoleLvl.charm(),
			ReportTimestamp: true,
			TimeFormat:      time.TimeOnly,
			Prefix:          component,
		})
	}
	return out
}

var (
	mu      sync.Mutex
	current settings
	loggers = map[string]*Logger{}
)

// rewire points every registered logger at the current settings.
// mu must be held.
func rewire() {
	for name, l := range loggers {
		l.out.Store(current.sinksFor(name))
	}
}

// resolve validates cfg without side effects.
func resolve(cfg Config) (settings, error) {
	var s settings
	var err error

	if s.level, err = ParseLevel(cfg.Level); err != nil {
		return s, fmt.Errorf("parsing log level: %w", err)
	}

	s.components = make(map[string]Level, len(cfg.Components))
	for name, lvl := range cfg.Components {
		if s.components[name], err = ParseLevel(lvl); err != nil {
			return s, fmt.Errorf("parsing level for component %s: %w", name, err)
		}
	}

	if cfg.ConsoleLevel != "" {
		if s.consoleLvl, err = ParseLevel(cfg.ConsoleLevel); err != nil {
			return s, fmt.Errorf("parsing console level: %w", err)
		}
		s.console = cfg.Console
		if s.console == nil {
			s.console = os.Stderr
		}
	}
	return s, nil
}

// Init configures logging and rewires every logger obtained from Get. It
// may be called again to reconfigure; the previous log file is closed. An
// invalid Config leaves the previous configuration in effect.
func Init(cfg Config) error {
	next, err := resolve(cfg)
	if err != nil {
		return err
	}

	path := cfg.Path
	if path == "" {
		path = DefaultLogPath()
	}

	if next.writer, err = NewRotatingWriter(path, cfg.Rotation); err != nil {
		return fmt.Errorf("creating log writer: %w", err)
	}

	mu.Lock()
	defer mu.Unlock()

	prev := current.writer
	current = next
	rewire()

	if prev != nil {
		if err := prev.Close(); err != nil {
			return fmt.Errorf("closing previous log writer: %w", err)
		}
	}
	return nil
}

// Get returns the logger for component, creating it on first use. The same
// pointer is returned for every call with the same name.
func Get(component string) *Logger {
	mu.Lock()
	defer mu.Unlock()

	if l, ok := loggers[component]; ok {
		return l
	}
	l := &Logger{component: component}
	l.out.Store(current.sinksFor(component))
	loggers[component] = l
	return l
}

// Close closes the log file. Loggers discard output until the next Init.
func Close() error {
	mu.Lock()
	defer mu.Unlock()

	w := current.writer
	if w == nil {
		return nil
	}

	current = settings{}
	rewire()

	if err := w.Close(); err != nil {
		return fmt.Errorf("closing log writer: %w", err)
	}
	return nil
}

// DefaultLogPath returns $XDG_STATE_HOME/calchash/calchash.log.
func DefaultLogPath() string {
	return filepath.Join(xdg.StateHome, "calchash", "calchash.log")
}

// DefaultConfig returns the configuration used when none is given.
func DefaultConfig() Config {
	return Config{
		Level:    "info",
		Path:     DefaultLogPath(),
		Rotation: DefaultRotationConfig(),
	}
}
