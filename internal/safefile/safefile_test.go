package safefile_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dayzlog/dayzlog-go/internal/safefile"
)

func TestOpenRegular(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log.ADM")
	require.NoError(t, os.WriteFile(path, []byte("data"), 0o644))

	f, info, err := safefile.OpenRegular(path)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, int64(4), info.Size())
}

func TestOpenRegularMissing(t *testing.T) {
	_, _, err := safefile.OpenRegular(filepath.Join(t.TempDir(), "absent"))
	assert.True(t, os.IsNotExist(err))
}

func TestOpenRegularRejectsDirectory(t *testing.T) {
	_, _, err := safefile.OpenRegular(t.TempDir())
	assert.ErrorIs(t, err, safefile.ErrNotRegularFile)
}

func TestOpenRegularRejectsSymlink(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "target")
	require.NoError(t, os.WriteFile(target, []byte("data"), 0o644))

	link := filepath.Join(dir, "link")
	if err := os.Symlink(target, link); err != nil {
		t.Skipf("symlinks not supported: %v", err)
	}

	_, _, err := safefile.OpenRegular(link)
	assert.ErrorIs(t, err, safefile.ErrNotRegularFile)
}
