package files

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Cache stores downloaded assets on disk keyed by a content-independent key
// (the digest of the source URL). One file per key; the extension is kept.
type Cache struct {
	dir   string
	known map[string]string
	mu    sync.RWMutex
}

// NewCache opens the cache directory, creating it if needed, and indexes
// the files already present
func NewCache(dir string) (*Cache, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	c := &Cache{
		dir:   dir,
		known: make(map[string]string),
	}

	if err := c.scanExistingFiles(); err != nil {
		return nil, fmt.Errorf("failed to scan cache directory: %w", err)
	}

	return c, nil
}

func (c *Cache) scanExistingFiles() error {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return fmt.Errorf("failed to read directory: %w", err)
	}

	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasSuffix(name, ".tmp") {
			continue
		}
		key := strings.TrimSuffix(name, filepath.Ext(name))
		c.known[key] = name
	}

	return nil
}

// Lookup returns the path of the cached file for key
func (c *Cache) Lookup(key string) (string, bool) {
	c.mu.RLock()
	name, ok := c.known[key]
	c.mu.RUnlock()
	if !ok {
		return "", false
	}

	path := filepath.Join(c.dir, name)
	if _, err := os.Stat(path); err != nil {
		c.mu.Lock()
		delete(c.known, key)
		c.mu.Unlock()
		return "", false
	}
	return path, true
}

// Save writes data under key with the given extension atomically and
// returns the final path
func (c *Cache) Save(data []byte, key, ext string) (string, error) {
	name := key + ext
	path := filepath.Join(c.dir, name)

	out, err := os.CreateTemp(c.dir, key+"-*.tmp")
	if err != nil {
		return "", fmt.Errorf("failed to create temporary file: %w", err)
	}
	tempFile := out.Name()

	_, err = out.Write(data)
	closeErr := out.Close()

	if err != nil {
		os.Remove(tempFile)
		return "", fmt.Errorf("failed to write file data: %w", err)
	}
	if closeErr != nil {
		os.Remove(tempFile)
		return "", fmt.Errorf("failed to close file: %w", closeErr)
	}

	if err := os.Rename(tempFile, path); err != nil {
		os.Remove(tempFile)
		return "", fmt.Errorf("failed to rename temporary file: %w", err)
	}

	c.mu.Lock()
	c.known[key] = name
	c.mu.Unlock()

	return path, nil
}

// Dir returns the cache directory
func (c *Cache) Dir() string {
	return c.dir
}

// Len returns the number of cached files
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.known)
}
