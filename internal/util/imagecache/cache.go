// Package imagecache keeps downloaded image bytes on disk so repeated
// searches for the same results skip the network.
package imagecache

import (
	"crypto/sha256"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Cache stores image bytes keyed by source URL.
type Cache struct {
	dir string
}

// DefaultDir returns the default cache directory path.
func DefaultDir() (string, error) {
	cacheDir, err := os.UserCacheDir()
	if err != nil {
		// Fallback to home directory if cache dir not available.
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to determine cache directory: %w", err)
		}
		return filepath.Join(home, ".cache", "colordots", "images"), nil
	}
	return filepath.Join(cacheDir, "colordots", "images"), nil
}

// New opens the cache at dir, creating it when missing. An empty dir uses
// DefaultDir.
func New(dir string) (*Cache, error) {
	if dir == "" {
		defaultDir, err := DefaultDir()
		if err != nil {
			return nil, err
		}
		dir = defaultDir
	}
	if err := os.MkdirAll(dir, 0o755); err != nil { // #nosec G301 - Cache directory needs standard permissions
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}
	return &Cache{dir: dir}, nil
}

// Dir returns the cache directory.
func (c *Cache) Dir() string {
	return c.dir
}

// Path returns where the bytes for url are stored.
func (c *Cache) Path(url string) string {
	return filepath.Join(c.dir, filename(url))
}

// Get returns the cached bytes for url.
func (c *Cache) Get(url string) ([]byte, bool) {
	data, err := os.ReadFile(c.Path(url))
	if err != nil || len(data) == 0 {
		return nil, false
	}
	return data, true
}

// Put stores data for url. The write goes through a temporary file so
// concurrent readers never see a partial image.
func (c *Cache) Put(url string, data []byte) error {
	tmp, err := os.CreateTemp(c.dir, ".download-*")
	if err != nil {
		return fmt.Errorf("failed to create cache file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write cached image: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write cached image: %w", err)
	}
	if err := os.Rename(tmp.Name(), c.Path(url)); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to store cached image: %w", err)
	}
	return nil
}

// filename creates a deterministic filename from a URL: the first 16 bytes of
// its SHA256 plus the original extension.
func filename(url string) string {
	hash := sha256.Sum256([]byte(url))
	hashStr := fmt.Sprintf("%x", hash[:16])

	ext := filepath.Ext(url)
	if idx := strings.IndexAny(ext, "?#"); idx != -1 {
		ext = ext[:idx]
	}
	if ext == "" || len(ext) > 5 || strings.ContainsAny(ext, "/\\") {
		ext = ".img"
	}
	return hashStr + strings.ToLower(ext)
}
