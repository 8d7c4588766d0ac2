package files

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheSaveAndLookup(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "files")
	cache, err := NewCache(dir)
	require.NoError(t, err)

	_, ok := cache.Lookup("abc")
	assert.False(t, ok)

	path, err := cache.Save([]byte("data"), "abc", ".jpg")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "abc.jpg"), path)

	got, ok := cache.Lookup("abc")
	require.True(t, ok)
	assert.Equal(t, path, got)
	assert.Equal(t, 1, cache.Len())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temporary files should remain")
}

func TestCacheIndexesExistingFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "k1.png"), []byte("x"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "k2-123.tmp"), []byte("x"), 0644))

	cache, err := NewCache(dir)
	require.NoError(t, err)

	path, ok := cache.Lookup("k1")
	assert.True(t, ok)
	assert.Equal(t, filepath.Join(dir, "k1.png"), path)
	assert.Equal(t, 1, cache.Len())
}

func TestCacheForgetsDeletedFiles(t *testing.T) {
	cache, err := NewCache(t.TempDir())
	require.NoError(t, err)

	path, err := cache.Save([]byte("x"), "k", ".jpg")
	require.NoError(t, err)
	require.NoError(t, os.Remove(path))

	_, ok := cache.Lookup("k")
	assert.False(t, ok)
}
