package search

import (
	"fmt"
	"net/http"
	"time"
)

// Options selects and configures a backend for New.
type Options struct {
	Backend string

	// list backend: explicit URLs take precedence over ListPath.
	ListURLs []string
	ListPath string

	// page backend.
	PageTemplate string

	// api backend.
	API APIConfig

	Timeout time.Duration
	Client  *http.Client
}

// New creates the backend named by opts.Backend.
func New(opts Options) (Backend, error) {
	switch opts.Backend {
	case "list":
		if len(opts.ListURLs) > 0 {
			return NewListBackend(opts.ListURLs), nil
		}
		if opts.ListPath == "" {
			return nil, fmt.Errorf("list backend needs URLs or a list path")
		}
		return NewListBackendFromPath(opts.ListPath)
	case "page":
		return NewPageBackend(opts.PageTemplate, opts.Timeout, opts.Client)
	case "api":
		return NewAPIBackend(opts.API, opts.Timeout, opts.Client)
	default:
		return nil, fmt.Errorf("unknown backend: %s (valid backends: %v)", opts.Backend, ValidBackends())
	}
}
