package library

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte("x"), 0644))
}

func TestScan(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "a.mp3"))
	touch(t, filepath.Join(dir, "b.WAV"))
	touch(t, filepath.Join(dir, "sub", "c.ogg"))
	touch(t, filepath.Join(dir, "sub", "deeper", "d.flac"))
	touch(t, filepath.Join(dir, "cover.jpg"))
	touch(t, filepath.Join(dir, "notes.txt"))

	files, err := Scan(dir)
	require.NoError(t, err)
	require.Len(t, files, 4)

	for _, f := range files {
		assert.True(t, filepath.IsAbs(f), "path should be absolute: %s", f)
	}

	names := make([]string, len(files))
	for i, f := range files {
		rel, err := filepath.Rel(dir, f)
		require.NoError(t, err)
		names[i] = filepath.ToSlash(rel)
	}
	assert.ElementsMatch(t, []string{"a.mp3", "b.WAV", "sub/c.ogg", "sub/deeper/d.flac"}, names)
}

func TestScan_EmptyDir(t *testing.T) {
	files, err := Scan(t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestScan_MissingDir(t *testing.T) {
	_, err := Scan(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}
