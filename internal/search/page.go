package search

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/html"

	httputil "github.com/jmylchreest/colordots/internal/util/http"
)

// QueryPlaceholder is replaced by the escaped query in a page URL template.
const QueryPlaceholder = "{query}"

// imageAttributes are checked in order on every <img>. Result pages often
// lazy-load, keeping the real URL in a data- attribute and a tiny gif in src.
var imageAttributes = []string{"data-src", "data-iurl", "src"}

// PageBackend fetches an HTML results page and collects <img> sources in
// document order. It does not run scripts, so it only sees images present in
// the served markup.
type PageBackend struct {
	template string
	timeout  time.Duration
	client   *http.Client
}

// NewPageBackend creates a PageBackend. template must contain {query}.
func NewPageBackend(template string, timeout time.Duration, client *http.Client) (*PageBackend, error) {
	if !strings.Contains(template, QueryPlaceholder) {
		return nil, fmt.Errorf("page URL template must contain %s", QueryPlaceholder)
	}
	if !strings.HasPrefix(template, "http://") && !strings.HasPrefix(template, "https://") {
		return nil, fmt.Errorf("page URL template must start with http:// or https://")
	}
	return &PageBackend{template: template, timeout: timeout, client: client}, nil
}

// Name returns the backend name.
func (b *PageBackend) Name() string {
	return "page"
}

// Search fetches the results page for query and extracts image URLs.
func (b *PageBackend) Search(ctx context.Context, query string, limit int) ([]string, error) {
	if strings.TrimSpace(query) == "" {
		return nil, &BackendError{Backend: b.Name(), Op: "search", Err: fmt.Errorf("query cannot be empty")}
	}

	pageURL := strings.ReplaceAll(b.template, QueryPlaceholder, url.QueryEscape(query))
	body, err := httputil.Fetch(ctx, pageURL, httputil.FetchOptions{
		Timeout: b.timeout,
		Client:  b.client,
		Headers: map[string]string{"Accept": "text/html"},
	})
	if err != nil {
		return nil, &BackendError{Backend: b.Name(), Op: "fetch results page", Err: err}
	}

	candidates, err := ExtractImageSources(body, limit)
	if err != nil {
		return nil, &BackendError{Backend: b.Name(), Op: "parse results page", Err: err}
	}
	return finish(b.Name(), candidates, limit)
}

// ExtractImageSources parses an HTML document and returns loadable image
// sources in document order, stopping once limit distinct sources are found.
func ExtractImageSources(doc []byte, limit int) ([]string, error) {
	root, err := html.Parse(bytes.NewReader(doc))
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = DefaultLimit
	}

	var sources []string
	seen := make(map[string]bool)
	var walk func(*html.Node) bool
	walk = func(n *html.Node) bool {
		if n.Type == html.ElementNode && n.Data == "img" {
			if src := imageSource(n); src != "" && !seen[src] {
				seen[src] = true
				sources = append(sources, src)
				if len(sources) >= limit {
					return false
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if !walk(c) {
				return false
			}
		}
		return true
	}
	walk(root)

	return sources, nil
}

func imageSource(n *html.Node) string {
	attrs := make(map[string]string, len(n.Attr))
	for _, a := range n.Attr {
		attrs[a.Key] = strings.TrimSpace(a.Val)
	}
	for _, key := range imageAttributes {
		if v := attrs[key]; isImageCandidate(v) {
			return v
		}
	}
	return ""
}
