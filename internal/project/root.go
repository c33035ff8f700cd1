// Package project locates the UnityExpress project root and verifies the
// expected repository layout before any deploy or build step runs.
package project

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrNotFound is returned when no ancestor of the starting directory
// contains every marker directory.
var ErrNotFound = errors.New("project root not found")

// Locate walks from start toward the filesystem root until it finds a
// directory that contains every entry of markers as a subdirectory. The
// search is read-only and deterministic; it fails with ErrNotFound once the
// filesystem root is reached without a match.
func Locate(start string, markers []string) (string, error) {
	if len(markers) == 0 {
		return "", errors.New("at least one marker directory is required")
	}
	candidate, err := filepath.Abs(start)
	if err != nil {
		return "", fmt.Errorf("resolve start directory: %w", err)
	}
	for {
		if hasMarkers(candidate, markers) {
			return candidate, nil
		}
		parent := filepath.Dir(candidate)
		if parent == candidate {
			return "", fmt.Errorf("%w: no ancestor of %s contains %v", ErrNotFound, start, markers)
		}
		candidate = parent
	}
}

// LocateFromWd is Locate starting at the current working directory.
func LocateFromWd(markers []string) (string, error) {
	wd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("determine working directory: %w", err)
	}
	return Locate(wd, markers)
}

func hasMarkers(dir string, markers []string) bool {
	for _, marker := range markers {
		info, err := os.Stat(filepath.Join(dir, marker))
		if err != nil || !info.IsDir() {
			return false
		}
	}
	return true
}
