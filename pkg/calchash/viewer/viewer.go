// Package viewer opens a file in the platform's default viewer.
// On macOS it uses open, on Windows cmd /c start, and xdg-open elsewhere.
package viewer

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"time"

	"github.com/jamesainslie/calchash/pkg/calchash/logging"
	"github.com/jamesainslie/calchash/pkg/calchash/types"
)

// commandTimeout is the maximum time to wait for the launcher to return.
const commandTimeout = 10 * time.Second

var logger = logging.Get("viewer")

// runCommand executes the launcher. Replaced in tests.
var runCommand = func(ctx context.Context, name string, args ...string) error {
	return exec.CommandContext(ctx, name, args...).Run()
}

// Open launches the default viewer for path. Failures wrap
// types.ErrViewerLaunch.
func Open(path string) error {
	return open(runtime.GOOS, path)
}

func open(goos, path string) error {
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("%w: %w", types.ErrViewerLaunch, err)
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("%w: cannot resolve absolute path for %q: %w", types.ErrViewerLaunch, path, err)
	}

	name, args := commandFor(goos, absPath)
	if _, err := exec.LookPath(name); err != nil {
		return fmt.Errorf("%w: %w", types.ErrViewerLaunch, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	logger.Debug("launching viewer", "command", name, "path", absPath)
	if err := runCommand(ctx, name, args...); err != nil {
		return fmt.Errorf("%w: %s: %w", types.ErrViewerLaunch, name, err)
	}
	return nil
}

// commandFor returns the launcher and its arguments for goos.
func commandFor(goos, path string) (string, []string) {
	switch goos {
	case "darwin":
		return "open", []string{path}
	case "windows":
		// The empty argument is the window title start expects before a
		// quoted path.
		return "cmd", []string{"/c", "start", "", path}
	default:
		return "xdg-open", []string{path}
	}
}
