package scanner

import (
	"path/filepath"
	"strings"

	"github.com/gobwas/glob"
)

// exclusion is one compiled exclude pattern. A path is excluded when it
// equals the pattern, lies below it, or matches it as a glob against its
// base name or its full path.
type exclusion struct {
	prefix string
	base   glob.Glob // nil when the pattern is not a valid glob
	full   glob.Glob
}

type exclusions []exclusion

// compileExclusions compiles patterns once per scan. Invalid globs still
// match as path prefixes.
func compileExclusions(patterns []string) exclusions {
	sep := filepath.Separator
	ex := make(exclusions, 0, len(patterns))
	for _, pattern := range patterns {
		if pattern == "" {
			continue
		}

		e := exclusion{prefix: strings.TrimSuffix(pattern, string(sep))}
		if e.prefix == "" {
			e.prefix = pattern
		}

		base, err := glob.Compile(pattern)
		if err != nil {
			logger.Warn("invalid exclude pattern, matching as prefix only", "pattern", pattern, "error", err)
		} else {
			e.base = base
			if full, err := glob.Compile(pattern, sep); err == nil {
				e.full = full
			}
		}
		ex = append(ex, e)
	}
	return ex
}

// match reports whether path is excluded.
func (ex exclusions) match(path string) bool {
	for _, e := range ex {
		if e.matches(path) {
			return true
		}
	}
	return false
}

func (e exclusion) matches(path string) bool {
	if path == e.prefix || strings.HasPrefix(path, e.prefix+string(filepath.Separator)) {
		return true
	}
	if e.base != nil && !strings.ContainsRune(e.prefix, filepath.Separator) && e.base.Match(filepath.Base(path)) {
		return true
	}
	return e.full != nil && e.full.Match(path)
}
