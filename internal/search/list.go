package search

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/jmylchreest/colordots/internal/image"
)

// ListBackend serves a fixed list of URLs or file paths. The query is
// ignored; it exists for offline runs and tests.
type ListBackend struct {
	urls []string
}

// NewListBackend creates a ListBackend over urls.
func NewListBackend(urls []string) *ListBackend {
	return &ListBackend{urls: urls}
}

// NewListBackendFromPath reads candidates from path. A directory contributes
// its image files; a file contributes one URL per line, skipping blank lines
// and lines starting with '#'.
func NewListBackendFromPath(path string) (*ListBackend, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to access list source: %w", err)
	}
	if info.IsDir() {
		files, err := image.ScanDirectoryForImages(path)
		if err != nil {
			return nil, err
		}
		return NewListBackend(files), nil
	}

	f, err := os.Open(path) // #nosec G304 - User-specified list file, intended to be read
	if err != nil {
		return nil, fmt.Errorf("failed to open list file: %w", err)
	}
	defer f.Close()

	var urls []string
	scanner := bufio.NewScanner(f)
	// data: URIs can be long.
	scanner.Buffer(make([]byte, 0, 64*1024), 8<<20)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		urls = append(urls, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read list file: %w", err)
	}
	return NewListBackend(urls), nil
}

// Name returns the backend name.
func (b *ListBackend) Name() string {
	return "list"
}

// Search returns the configured URLs, truncated to limit.
func (b *ListBackend) Search(ctx context.Context, _ string, limit int) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, &BackendError{Backend: b.Name(), Op: "search", Err: err}
	}
	return finish(b.Name(), b.urls, limit)
}
