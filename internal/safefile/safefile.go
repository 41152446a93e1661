// Package safefile provides hardened file open helpers.
package safefile

import (
	"errors"
	"os"
)

// ErrNotRegularFile is returned when the path does not refer to a regular
// file: symlinks, FIFOs, devices, sockets and directories are rejected.
var ErrNotRegularFile = errors.New("not a regular file")

// OpenRegular opens path for reading and verifies it is a regular file.
//
// The path is lstat'ed first to reject symlinks, then the open descriptor
// is stat'ed again so a file swapped in between the two calls is caught.
// A small TOCTOU window remains; Go does not expose O_NOFOLLOW portably.
//
// The descriptor is opened read-only without locks, so an external writer
// (the game server) can keep appending while we read.
//
// The caller must close the returned file.
func OpenRegular(path string) (*os.File, os.FileInfo, error) {
	linkInfo, err := os.Lstat(path)
	if err != nil {
		return nil, nil, err
	}
	if !linkInfo.Mode().IsRegular() {
		return nil, nil, ErrNotRegularFile
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, nil, err
	}
	if !info.Mode().IsRegular() {
		f.Close()
		return nil, nil, ErrNotRegularFile
	}

	return f, info, nil
}
