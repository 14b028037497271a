// Package pipeline turns candidate image URLs into grid entries with a bounded
// worker pool, and owns the Session a grid is composed from.
package pipeline

import (
	"context"
	"fmt"
	stdimage "image"
	"sync/atomic"
	"time"

	"github.com/hashicorp/go-hclog"
	"golang.org/x/sync/errgroup"

	"github.com/jmylchreest/colordots/internal/colour"
	"github.com/jmylchreest/colordots/internal/grid"
	"github.com/jmylchreest/colordots/internal/image"
	"github.com/jmylchreest/colordots/internal/seed"
)

const (
	// DefaultWorkers is the number of images processed concurrently.
	DefaultWorkers = 8

	// MaxWorkers caps the pool so a single search stays polite to image hosts.
	MaxWorkers = 16

	// DefaultPlaceholderColor fills slots whose image could not be used.
	DefaultPlaceholderColor = "#f0f0f0"
)

// Options configures a Pipeline. Zero values fall back to defaults.
type Options struct {
	Workers          int
	ThumbnailSize    int
	SampleMargin     *float64
	PlaceholderColor string // hex, defaults to DefaultPlaceholderColor
	Timeout          time.Duration
	SeedMode         seed.Mode

	// KeepSources retains decoded images on entries so colours can be
	// resampled later. Costs memory proportional to the source images.
	KeepSources bool

	// Progress, when set, is called from the workers after each entry is
	// written with the number of finished entries and the total.
	Progress func(done, total int)

	Logger hclog.Logger
	Loader image.Loader
}

// Pipeline fetches, thumbnails and samples candidate images.
type Pipeline struct {
	opts        Options
	margin      float64
	fill        colour.RGB
	loader      image.Loader
	logger      hclog.Logger
	placeholder image.Thumbnail
}

// New validates opts and creates a Pipeline.
func New(opts Options) (*Pipeline, error) {
	if opts.Workers == 0 {
		opts.Workers = DefaultWorkers
	}
	if opts.Workers < 1 || opts.Workers > MaxWorkers {
		return nil, fmt.Errorf("workers must be between 1 and %d, got %d", MaxWorkers, opts.Workers)
	}
	if opts.ThumbnailSize == 0 {
		opts.ThumbnailSize = image.DefaultThumbnailSize
	}
	if opts.ThumbnailSize < 0 {
		return nil, fmt.Errorf("thumbnail size must be positive, got %d", opts.ThumbnailSize)
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 5 * time.Second
	}
	if opts.SeedMode == "" {
		opts.SeedMode = seed.ModeRandom
	}
	if opts.PlaceholderColor == "" {
		opts.PlaceholderColor = DefaultPlaceholderColor
	}
	fill, err := colour.ParseHex(opts.PlaceholderColor)
	if err != nil {
		return nil, fmt.Errorf("invalid placeholder colour: %w", err)
	}

	margin := colour.DefaultMargin
	if opts.SampleMargin != nil {
		margin = *opts.SampleMargin
	}
	if err := colour.ValidateMargin(margin); err != nil {
		return nil, err
	}

	placeholder, err := image.PlaceholderThumbnail(opts.ThumbnailSize, fill)
	if err != nil {
		return nil, fmt.Errorf("failed to build placeholder thumbnail: %w", err)
	}

	p := &Pipeline{
		opts:        opts,
		margin:      margin,
		fill:        fill,
		loader:      opts.Loader,
		logger:      opts.Logger,
		placeholder: placeholder,
	}
	if p.loader == nil {
		p.loader = image.NewFetcher(image.FetcherOptions{Timeout: opts.Timeout})
	}
	if p.logger == nil {
		p.logger = hclog.NewNullLogger()
	}
	return p, nil
}

// Run processes urls in parallel and returns one entry per URL, in URL order.
// Failed images get the placeholder thumbnail and colour and are listed in
// Outcome.Failures. base roots the per-image sampler seeds.
func (p *Pipeline) Run(ctx context.Context, urls []string, base int64) Outcome {
	entries := make([]Entry, len(urls))

	var done atomic.Int64
	var g errgroup.Group
	g.SetLimit(p.opts.Workers)
	for i, u := range urls {
		g.Go(func() error {
			entries[i] = p.process(ctx, i, u, base)
			if p.opts.Progress != nil {
				p.opts.Progress(int(done.Add(1)), len(urls))
			}
			return nil
		})
	}
	_ = g.Wait()

	out := Outcome{Entries: entries}
	for _, e := range entries {
		if e.Status != image.StatusOK {
			out.Failures = append(out.Failures, Failure{Index: e.Index, URL: e.SourceURL, Status: e.Status, Err: e.Err})
		}
	}
	return out
}

func (p *Pipeline) process(ctx context.Context, index int, url string, base int64) Entry {
	ctx, cancel := context.WithTimeout(ctx, p.opts.Timeout)
	defer cancel()

	res := image.Resolve(ctx, p.loader, url)
	if res.Status != image.StatusOK {
		return p.failed(index, url, res.Err)
	}
	img := res.Image

	thumb, err := image.ToThumbnail(img, p.opts.ThumbnailSize)
	if err != nil {
		return p.failed(index, url, &image.DecodeError{URL: url, Err: err})
	}

	sample, err := p.sample(img, index, url, base)
	if err != nil {
		return p.failed(index, url, &image.DecodeError{URL: url, Err: err})
	}

	p.logger.Trace("image processed", "index", index, "color", sample.Hex)

	e := Entry{
		Index:     index,
		SourceURL: url,
		Status:    image.StatusOK,
		Thumbnail: &thumb,
		Color:     &sample,
	}
	if p.opts.KeepSources {
		e.source = img
	}
	return e
}

func (p *Pipeline) sample(img stdimage.Image, index int, url string, base int64) (colour.Sample, error) {
	s, err := seed.ForImage(p.opts.SeedMode, base, index, img, url)
	if err != nil {
		return colour.Sample{}, err
	}
	sampler, err := newSampler(s, p.margin)
	if err != nil {
		return colour.Sample{}, err
	}
	return sampler.Sample(img), nil
}

func (p *Pipeline) failed(index int, url string, err error) Entry {
	status := Classify(err)
	p.logger.Warn("image unavailable, using placeholder", "index", index, "status", status, "error", err)

	thumb := p.placeholder
	sample := colour.NewSample(p.fill)
	return Entry{
		Index:     index,
		SourceURL: url,
		Status:    status,
		Thumbnail: &thumb,
		Color:     &sample,
		Err:       err,
	}
}

// Classify maps an image error onto the per-image status taxonomy. Unknown
// errors count as fetch failures.
func Classify(err error) image.Status {
	return image.StatusOf(err)
}

// Entry is one processed candidate.
type Entry struct {
	Index     int
	SourceURL string
	Status    image.Status
	Thumbnail *image.Thumbnail
	Color     *colour.Sample
	Err       error

	source stdimage.Image
}

// Placeholder reports whether the entry stands in for a failed image.
func (e Entry) Placeholder() bool {
	return e.Status != image.StatusOK
}

func (e Entry) item() grid.Item {
	return grid.Item{
		SourceURL:   e.SourceURL,
		Thumbnail:   e.Thumbnail,
		Color:       e.Color,
		Placeholder: e.Placeholder(),
	}
}

// Failure records one image that was replaced by a placeholder.
type Failure struct {
	Index  int
	URL    string
	Status image.Status
	Err    error
}

// Outcome is the result of a Run.
type Outcome struct {
	Entries  []Entry
	Failures []Failure
}

// FailedCount returns the number of placeholder entries.
func (o Outcome) FailedCount() int {
	return len(o.Failures)
}

func newSampler(seedValue int64, margin float64) (*colour.Sampler, error) {
	return colour.NewSampler(seedValue).WithMargin(margin)
}
