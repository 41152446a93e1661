// Package logfinder provides DayZ server log directory and file detection.
package logfinder

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// EnvLogDir is the environment variable for overriding the log directory.
const EnvLogDir = "DAYZLOG_LOGDIR"

// Sentinel errors.
var (
	ErrLogDirNotFound = errors.New("log directory not found")
	ErrNoLogFiles     = errors.New("no log files found")
)

// logGlobs are the file patterns the DayZ server writes its console and
// admin logs to, in priority order.
var logGlobs = []string{
	"DayZServer_*.ADM",
	"*.ADM",
	"*.RPT",
}

// DefaultLogDirs returns candidate server profile directories in priority
// order. Dedicated servers keep logs next to the executable in a
// "profiles" directory; the conventional install locations are tried.
func DefaultLogDirs() []string {
	var dirs []string

	if profile := os.Getenv("DAYZ_SERVER_PROFILE"); profile != "" {
		dirs = append(dirs, profile)
	}

	if home, err := os.UserHomeDir(); err == nil {
		dirs = append(dirs,
			filepath.Join(home, "dayzserver", "profiles"),
			filepath.Join(home, ".local", "share", "dayzserver", "profiles"),
		)
	}

	if programFiles := os.Getenv("ProgramFiles(x86)"); programFiles != "" {
		dirs = append(dirs, filepath.Join(programFiles, "Steam", "steamapps", "common", "DayZServer", "profiles"))
	}

	return dirs
}

// FindLogDir returns the server log directory.
//
// Priority:
//  1. explicit (if non-empty)
//  2. DAYZLOG_LOGDIR environment variable
//  3. auto-detect from DefaultLogDirs()
//
// Returns ErrLogDirNotFound if no valid directory is found. The returned
// path has symlinks resolved for consistency.
func FindLogDir(explicit string) (string, error) {
	if explicit != "" {
		if resolved := resolveAndValidate(explicit); resolved != "" {
			return resolved, nil
		}
		return "", fmt.Errorf("%w: specified directory is invalid or contains no log files", ErrLogDirNotFound)
	}

	if envDir := os.Getenv(EnvLogDir); envDir != "" {
		if resolved := resolveAndValidate(envDir); resolved != "" {
			return resolved, nil
		}
		return "", fmt.Errorf("%w: %s environment variable points to invalid directory", ErrLogDirNotFound, EnvLogDir)
	}

	for _, dir := range DefaultLogDirs() {
		if resolved := resolveAndValidate(dir); resolved != "" {
			return resolved, nil
		}
	}

	return "", ErrLogDirNotFound
}

// candidate holds a log file path with its stat result cached, so files
// deleted between globbing and sorting cannot skew the pick.
type candidate struct {
	path    string
	modTime int64
}

// FindLatestLogFile returns the most recently modified server log in dir,
// trying the glob patterns in priority order.
//
// Returns ErrNoLogFiles if nothing matches.
func FindLatestLogFile(dir string) (string, error) {
	for _, glob := range logGlobs {
		matches, err := filepath.Glob(filepath.Join(dir, glob))
		if err != nil {
			return "", fmt.Errorf("globbing log files: %w", err)
		}

		candidates := make([]candidate, 0, len(matches))
		for _, m := range matches {
			info, err := os.Lstat(m)
			if err != nil || !info.Mode().IsRegular() {
				continue
			}
			candidates = append(candidates, candidate{path: m, modTime: info.ModTime().UnixNano()})
		}
		if len(candidates) == 0 {
			continue
		}

		sort.Slice(candidates, func(i, j int) bool {
			return candidates[i].modTime > candidates[j].modTime
		})
		return candidates[0].path, nil
	}

	return "", ErrNoLogFiles
}

// resolveAndValidate resolves symlinks and checks the directory holds at
// least one log file. Returns "" when invalid.
func resolveAndValidate(dir string) string {
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return ""
	}

	resolved, err := filepath.EvalSymlinks(dir)
	if err != nil {
		return ""
	}

	if _, err := FindLatestLogFile(resolved); err != nil {
		return ""
	}
	return resolved
}
