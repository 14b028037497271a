package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	httputil "github.com/jmylchreest/colordots/internal/util/http"
)

// APIConfig describes a JSON image-search API. The defaults match the common
// "items[].link" response shape with 10 results per page.
type APIConfig struct {
	Endpoint   string            `yaml:"endpoint"`
	APIKey     string            `yaml:"api_key"`
	KeyParam   string            `yaml:"key_param"`
	QueryParam string            `yaml:"query_param"`
	CountParam string            `yaml:"count_param"`
	StartParam string            `yaml:"start_param"`
	PageSize   int               `yaml:"page_size"`
	ItemsPath  string            `yaml:"items_path"`
	LinkField  string            `yaml:"link_field"`
	Params     map[string]string `yaml:"params"`
}

// DefaultAPIConfig returns the default API field names.
func DefaultAPIConfig() APIConfig {
	return APIConfig{
		KeyParam:   "key",
		QueryParam: "q",
		CountParam: "num",
		StartParam: "start",
		PageSize:   10,
		ItemsPath:  "items",
		LinkField:  "link",
		Params:     map[string]string{"searchType": "image"},
	}
}

// APIBackend queries a paid JSON image-search API, paging until limit
// results are collected or a page comes back empty.
type APIBackend struct {
	cfg     APIConfig
	timeout time.Duration
	client  *http.Client
}

// NewAPIBackend creates an APIBackend. Empty fields in cfg take their defaults.
func NewAPIBackend(cfg APIConfig, timeout time.Duration, client *http.Client) (*APIBackend, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("api endpoint is required")
	}
	if !strings.HasPrefix(cfg.Endpoint, "http://") && !strings.HasPrefix(cfg.Endpoint, "https://") {
		return nil, fmt.Errorf("api endpoint must start with http:// or https://")
	}

	def := DefaultAPIConfig()
	if cfg.KeyParam == "" {
		cfg.KeyParam = def.KeyParam
	}
	if cfg.QueryParam == "" {
		cfg.QueryParam = def.QueryParam
	}
	if cfg.CountParam == "" {
		cfg.CountParam = def.CountParam
	}
	if cfg.StartParam == "" {
		cfg.StartParam = def.StartParam
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = def.PageSize
	}
	if cfg.ItemsPath == "" {
		cfg.ItemsPath = def.ItemsPath
	}
	if cfg.LinkField == "" {
		cfg.LinkField = def.LinkField
	}

	return &APIBackend{cfg: cfg, timeout: timeout, client: client}, nil
}

// Name returns the backend name.
func (b *APIBackend) Name() string {
	return "api"
}

// Search pages through the API until limit links are collected.
func (b *APIBackend) Search(ctx context.Context, query string, limit int) ([]string, error) {
	if strings.TrimSpace(query) == "" {
		return nil, &BackendError{Backend: b.Name(), Op: "search", Err: fmt.Errorf("query cannot be empty")}
	}
	if limit <= 0 {
		limit = DefaultLimit
	}

	var links []string
	for len(links) < limit {
		count := min(b.cfg.PageSize, limit-len(links))
		page, err := b.fetchPage(ctx, query, len(links)+1, count)
		if err != nil {
			// A failure after the first page still leaves usable results.
			if len(links) > 0 {
				break
			}
			return nil, err
		}
		if len(page) == 0 {
			break
		}
		links = append(links, page...)
		if len(page) < count {
			break
		}
	}

	return finish(b.Name(), links, limit)
}

func (b *APIBackend) fetchPage(ctx context.Context, query string, start, count int) ([]string, error) {
	u, err := url.Parse(b.cfg.Endpoint)
	if err != nil {
		return nil, &BackendError{Backend: b.Name(), Op: "build request", Err: err}
	}
	q := u.Query()
	for k, v := range b.cfg.Params {
		q.Set(k, v)
	}
	q.Set(b.cfg.QueryParam, query)
	q.Set(b.cfg.CountParam, strconv.Itoa(count))
	q.Set(b.cfg.StartParam, strconv.Itoa(start))
	if b.cfg.APIKey != "" {
		q.Set(b.cfg.KeyParam, b.cfg.APIKey)
	}
	u.RawQuery = q.Encode()

	body, err := httputil.Fetch(ctx, u.String(), httputil.FetchOptions{
		Timeout: b.timeout,
		Client:  b.client,
		Headers: map[string]string{"Accept": "application/json"},
	})
	if err != nil {
		return nil, &BackendError{Backend: b.Name(), Op: "request", Err: describeAPIError(err)}
	}

	var doc any
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, &BackendError{Backend: b.Name(), Op: "decode response", Err: err}
	}

	items, ok := lookup(doc, b.cfg.ItemsPath).([]any)
	if !ok {
		// Many APIs omit the items array entirely when nothing matched.
		return nil, nil
	}

	var links []string
	for _, item := range items {
		if link, ok := lookup(item, b.cfg.LinkField).(string); ok && isImageCandidate(link) {
			links = append(links, link)
		}
	}
	return links, nil
}

// describeAPIError names the common credential and quota failures.
func describeAPIError(err error) error {
	var statusErr *httputil.StatusError
	if !errors.As(err, &statusErr) {
		return err
	}
	switch statusErr.Code {
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("invalid or missing credentials: %w", err)
	case http.StatusTooManyRequests:
		return fmt.Errorf("quota exceeded: %w", err)
	default:
		return err
	}
}

// lookup walks a dotted path through decoded JSON objects.
func lookup(v any, path string) any {
	if path == "" {
		return v
	}
	for _, key := range strings.Split(path, ".") {
		obj, ok := v.(map[string]any)
		if !ok {
			return nil
		}
		v = obj[key]
	}
	return v
}
