// Package image fetches, decodes and normalises the images shown in a grid.
package image

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF format
	_ "image/jpeg" // Register JPEG format
	_ "image/png"  // Register PNG format
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	_ "golang.org/x/image/bmp"  // Register BMP format
	_ "golang.org/x/image/webp" // Register WebP format

	httputil "github.com/jmylchreest/colordots/internal/util/http"
	"github.com/jmylchreest/colordots/internal/util/imagecache"
)

// Status describes the outcome of loading one candidate URL.
type Status int

const (
	StatusOK Status = iota
	StatusFetchFailed
	StatusDecodeFailed
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusFetchFailed:
		return "fetch_failed"
	case StatusDecodeFailed:
		return "decode_failed"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// MaxDecodePixels caps the declared size of an image before it is decoded.
const MaxDecodePixels = 64 << 20

// Result is the decoded form of one candidate URL. Image is nil unless Status is StatusOK.
type Result struct {
	SourceURL string
	Image     image.Image
	Status    Status
	Err       error
}

// Loader handles loading images from various sources.
type Loader interface {
	// Load loads an image from the given location.
	Load(ctx context.Context, location string) (image.Image, error)
}

// FileLoader loads images from the local filesystem.
type FileLoader struct{}

// NewFileLoader creates a new FileLoader instance.
func NewFileLoader() *FileLoader {
	return &FileLoader{}
}

// Load loads an image from a file path.
func (l *FileLoader) Load(_ context.Context, path string) (image.Image, error) {
	if path == "" {
		return nil, &FetchError{URL: path, Err: fmt.Errorf("image path cannot be empty")}
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, &FetchError{URL: path, Err: err}
	}
	if info.IsDir() {
		return nil, &FetchError{URL: path, Err: fmt.Errorf("path is a directory, not a file")}
	}

	data, err := os.ReadFile(path) // #nosec G304 - User-specified image path, intended to be read
	if err != nil {
		return nil, &FetchError{URL: path, Err: err}
	}
	return decode(path, data)
}

// FetcherOptions configures a Fetcher.
type FetcherOptions struct {
	// Timeout bounds each remote request. Zero means httputil.DefaultTimeout.
	Timeout time.Duration

	// Client overrides the HTTP client used for remote URLs.
	Client *http.Client

	// AllowLocalFiles permits file:// URLs and bare filesystem paths.
	AllowLocalFiles bool

	// Cache, when set, serves and stores downloaded bytes.
	Cache *imagecache.Cache
}

// Fetcher loads images from http(s) URLs, data: URIs and, optionally, local files.
// A single attempt is made per URL.
type Fetcher struct {
	opts  FetcherOptions
	files *FileLoader
}

// NewFetcher creates a new Fetcher.
func NewFetcher(opts FetcherOptions) *Fetcher {
	if opts.Timeout <= 0 {
		opts.Timeout = httputil.DefaultTimeout
	}
	return &Fetcher{opts: opts, files: NewFileLoader()}
}

// Load implements Loader.
func (f *Fetcher) Load(ctx context.Context, location string) (image.Image, error) {
	return f.Fetch(ctx, location)
}

// Fetch returns the decoded image at location. Errors are always either a
// *FetchError or a *DecodeError.
func (f *Fetcher) Fetch(ctx context.Context, location string) (image.Image, error) {
	switch {
	case strings.HasPrefix(location, "data:"):
		return decodeDataURI(location)
	case strings.HasPrefix(location, "http://"), strings.HasPrefix(location, "https://"):
		return f.fetchRemote(ctx, location)
	case f.opts.AllowLocalFiles && strings.HasPrefix(location, "file://"):
		return f.files.Load(ctx, strings.TrimPrefix(location, "file://"))
	case f.opts.AllowLocalFiles && !strings.Contains(location, "://"):
		return f.files.Load(ctx, location)
	default:
		return nil, &FetchError{URL: location, Err: fmt.Errorf("unsupported URL scheme")}
	}
}

// Resolve loads location with loader and classifies the outcome into a Result.
func Resolve(ctx context.Context, loader Loader, location string) Result {
	img, err := loader.Load(ctx, location)
	if status := StatusOf(err); status != StatusOK {
		return Result{SourceURL: location, Status: status, Err: err}
	}
	return Result{SourceURL: location, Image: img, Status: StatusOK}
}

// StatusOf maps a load error onto a Status. Errors that are not a
// *DecodeError count as fetch failures.
func StatusOf(err error) Status {
	switch {
	case err == nil:
		return StatusOK
	case IsDecodeError(err):
		return StatusDecodeFailed
	default:
		return StatusFetchFailed
	}
}

func (f *Fetcher) fetchRemote(ctx context.Context, location string) (image.Image, error) {
	if f.opts.Cache != nil {
		if data, ok := f.opts.Cache.Get(location); ok {
			return decode(location, data)
		}
	}

	data, err := httputil.Fetch(ctx, location, httputil.FetchOptions{
		Timeout: f.opts.Timeout,
		Client:  f.opts.Client,
		Headers: map[string]string{"Accept": "image/*,*/*;q=0.8"},
	})
	if err != nil {
		fetchErr := &FetchError{URL: location, Err: err}
		var statusErr *httputil.StatusError
		if errors.As(err, &statusErr) {
			fetchErr.StatusCode = statusErr.Code
		}
		return nil, fetchErr
	}

	img, err := decode(location, data)
	if err == nil && f.opts.Cache != nil {
		_ = f.opts.Cache.Put(location, data)
	}
	return img, err
}

// decodeDataURI decodes data:[<mediatype>][;base64],<payload>.
func decodeDataURI(uri string) (image.Image, error) {
	header, payload, found := strings.Cut(strings.TrimPrefix(uri, "data:"), ",")
	if !found {
		return nil, &DecodeError{URL: uri, Err: fmt.Errorf("malformed data URI: missing comma")}
	}

	var data []byte
	if strings.HasSuffix(strings.ToLower(header), ";base64") {
		decoded, err := decodeBase64(payload)
		if err != nil {
			return nil, &DecodeError{URL: uri, Err: fmt.Errorf("invalid base64 payload: %w", err)}
		}
		data = decoded
	} else {
		unescaped, err := url.PathUnescape(payload)
		if err != nil {
			return nil, &DecodeError{URL: uri, Err: fmt.Errorf("invalid percent-encoded payload: %w", err)}
		}
		data = []byte(unescaped)
	}

	return decode(uri, data)
}

// decodeBase64 accepts padded and unpadded, standard and URL-safe alphabets,
// all of which show up in scraped result pages.
func decodeBase64(payload string) ([]byte, error) {
	payload = strings.TrimSpace(payload)
	encodings := []*base64.Encoding{
		base64.StdEncoding,
		base64.RawStdEncoding,
		base64.URLEncoding,
		base64.RawURLEncoding,
	}
	var firstErr error
	for _, enc := range encodings {
		data, err := enc.DecodeString(payload)
		if err == nil {
			return data, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return nil, firstErr
}

func decode(location string, data []byte) (image.Image, error) {
	if len(data) == 0 {
		return nil, &DecodeError{URL: location, Err: fmt.Errorf("empty image data")}
	}
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, &DecodeError{URL: location, Format: format, Err: err}
	}
	if pixels := int64(cfg.Width) * int64(cfg.Height); pixels > MaxDecodePixels {
		return nil, &DecodeError{URL: location, Format: format,
			Err: fmt.Errorf("image too large: %dx%d exceeds %d pixels", cfg.Width, cfg.Height, MaxDecodePixels)}
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, &DecodeError{URL: location, Format: format, Err: err}
	}
	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, &DecodeError{URL: location, Format: format, Err: fmt.Errorf("image has no pixels")}
	}
	return img, nil
}

// SupportedImageExtensions returns a list of supported image file extensions.
func SupportedImageExtensions() []string {
	return []string{".jpg", ".jpeg", ".png", ".gif", ".webp", ".bmp"}
}

// isImageFile checks if a file has a supported image extension.
func isImageFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return slices.Contains(SupportedImageExtensions(), ext)
}

// ScanDirectoryForImages scans a directory and returns all image files in
// name order. It does not recurse into subdirectories, but follows symlinks.
func ScanDirectoryForImages(dirPath string) ([]string, error) {
	entries, err := os.ReadDir(dirPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory: %w", err)
	}

	var imageFiles []string
	for _, entry := range entries {
		fullPath := filepath.Join(dirPath, entry.Name())

		// For symlinks, stat the target to determine if it's a file.
		info, err := os.Stat(fullPath)
		if err != nil {
			continue
		}
		if info.IsDir() {
			continue
		}
		if isImageFile(entry.Name()) {
			imageFiles = append(imageFiles, fullPath)
		}
	}

	if len(imageFiles) == 0 {
		return nil, fmt.Errorf("no supported image files found in directory: %s", dirPath)
	}

	return imageFiles, nil
}
