// Package search provides the backends that turn a query into candidate image URLs.
package search

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
)

// DefaultLimit is the number of candidates requested for a grid.
const DefaultLimit = 100

// ErrNoResults is returned (wrapped in a BackendError) when a backend finds nothing.
var ErrNoResults = errors.New("no images found")

// Backend supplies an ordered list of candidate image URLs for a query. URLs
// are either http(s) URLs or data: URIs; fewer than limit is acceptable.
type Backend interface {
	// Name returns the backend's name (e.g., "page", "api").
	Name() string

	// Search returns up to limit candidate URLs in result order.
	Search(ctx context.Context, query string, limit int) ([]string, error)
}

// BackendError reports a failure of the search backend as a whole: quota
// exhausted, bad credentials, unreachable endpoint or an empty result set.
type BackendError struct {
	Backend string
	Op      string
	Err     error
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("%s backend: %s: %v", e.Backend, e.Op, e.Err)
}

func (e *BackendError) Unwrap() error { return e.Err }

// IsBackendError reports whether err is, or wraps, a *BackendError.
func IsBackendError(err error) bool {
	var target *BackendError
	return errors.As(err, &target)
}

// ValidBackends returns the names accepted by New.
func ValidBackends() []string {
	return []string{"list", "page", "api"}
}

// IsValidBackend checks if the given backend name is valid.
func IsValidBackend(name string) bool {
	return slices.Contains(ValidBackends(), name)
}

// finish trims, de-duplicates and truncates candidates, and turns an empty
// result into ErrNoResults.
func finish(backend string, candidates []string, limit int) ([]string, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}

	seen := make(map[string]bool, len(candidates))
	urls := make([]string, 0, min(len(candidates), limit))
	for _, c := range candidates {
		c = strings.TrimSpace(c)
		if c == "" || seen[c] {
			continue
		}
		seen[c] = true
		urls = append(urls, c)
		if len(urls) == limit {
			break
		}
	}

	if len(urls) == 0 {
		return nil, &BackendError{Backend: backend, Op: "search", Err: ErrNoResults}
	}
	return urls, nil
}

// isImageCandidate reports whether src is something the fetcher can load.
func isImageCandidate(src string) bool {
	return strings.HasPrefix(src, "http://") ||
		strings.HasPrefix(src, "https://") ||
		strings.HasPrefix(src, "data:image/")
}
