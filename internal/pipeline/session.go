package pipeline

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jmylchreest/colordots/internal/colour"
	"github.com/jmylchreest/colordots/internal/grid"
	"github.com/jmylchreest/colordots/internal/search"
	"github.com/jmylchreest/colordots/internal/seed"
)

// ErrNoSources is returned by Resample when source images were not retained.
var ErrNoSources = errors.New("source images were not kept; enable KeepSources to resample colours")

// Request describes one search.
type Request struct {
	Query string
	Mode  grid.SortMode
	Limit int
	Seed  seed.Config
}

// Session is the state behind one composed grid. It is not safe for
// concurrent use; callers that share a Session must serialise access.
type Session struct {
	ID        string
	Query     string
	Mode      grid.SortMode
	Seed      int64
	SeedMode  seed.Mode
	Entries   []Entry
	Grid      grid.Grid
	Failures  []Failure
	UpdatedAt time.Time

	margin float64
}

// Search asks backend for candidate URLs, processes them and composes a new
// Session. When the backend fails no Session is returned, so a caller's
// previous Session stays current.
func (p *Pipeline) Search(ctx context.Context, backend search.Backend, req Request) (*Session, error) {
	query := strings.TrimSpace(req.Query)

	seedCfg := req.Seed
	if seedCfg.Mode == "" {
		seedCfg.Mode = p.opts.SeedMode
	}
	base, err := seedCfg.Base()
	if err != nil {
		return nil, err
	}

	limit := req.Limit
	if limit <= 0 || limit > grid.Size {
		limit = grid.Size
	}

	start := time.Now()
	urls, err := backend.Search(ctx, query, limit)
	if err != nil {
		if !search.IsBackendError(err) {
			err = &search.BackendError{Backend: backend.Name(), Op: "search", Err: err}
		}
		p.logger.Error("search failed", "backend", backend.Name(), "query", query, "error", err)
		return nil, err
	}
	if len(urls) > limit {
		urls = urls[:limit]
	}
	p.logger.Debug("candidates found", "backend", backend.Name(), "count", len(urls))

	// The seed mode on the pipeline drives ForImage; a per-request mode overrides it.
	runner := *p
	runner.opts.SeedMode = seedCfg.Mode
	outcome := runner.Run(ctx, urls, base)

	s := &Session{
		ID:       uuid.NewString(),
		Query:    query,
		Seed:     base,
		SeedMode: seedCfg.Mode,
		Entries:  outcome.Entries,
		Failures: outcome.Failures,
		margin:   p.margin,
	}
	s.compose(req.Mode, base)

	p.logger.Info("grid composed",
		"query", query,
		"images", len(s.Entries),
		"failed", s.FailedCount(),
		"mode", s.Mode,
		"elapsed", time.Since(start).Round(time.Millisecond))
	return s, nil
}

// NewSession composes a Session from already processed entries.
func NewSession(query string, entries []Entry, mode grid.SortMode, seedValue int64) *Session {
	s := &Session{
		ID:      uuid.NewString(),
		Query:   query,
		Seed:    seedValue,
		Entries: entries,
		margin:  colour.DefaultMargin,
	}
	for _, e := range entries {
		if e.Placeholder() {
			s.Failures = append(s.Failures, Failure{Index: e.Index, URL: e.SourceURL, Status: e.Status, Err: e.Err})
		}
	}
	s.compose(mode, seedValue)
	return s
}

func (s *Session) compose(mode grid.SortMode, seedValue int64) {
	items := make([]grid.Item, len(s.Entries))
	for i, e := range s.Entries {
		items[i] = e.item()
	}
	rng := rand.New(rand.NewSource(seedValue)) // #nosec G404 -- presentation only
	s.Grid = grid.Compose(items, mode, rng)
	s.Mode = s.Grid.Mode
	s.UpdatedAt = time.Now()
}

// Resort recomposes the grid in mode without fetching or sampling again.
func (s *Session) Resort(mode grid.SortMode, seedValue int64) {
	s.Seed = seedValue
	s.compose(mode, seedValue)
}

// Reshuffle draws a new reveal order for the current mode. Only insertion
// mode has a shuffled reveal order; other modes are recomposed unchanged.
func (s *Session) Reshuffle(seedValue int64) {
	s.Resort(s.Mode, seedValue)
}

// Resample picks a fresh random colour for every successfully processed image
// and recomposes the grid. Placeholder entries keep their colour.
func (s *Session) Resample(seedValue int64) error {
	for _, e := range s.Entries {
		if !e.Placeholder() && e.source == nil {
			return ErrNoSources
		}
	}

	for i := range s.Entries {
		e := &s.Entries[i]
		if e.Placeholder() {
			continue
		}
		sampler, err := newSampler(seed.Derive(seedValue, e.Index), s.margin)
		if err != nil {
			return err
		}
		sample := sampler.Sample(e.source)
		e.Color = &sample
	}

	s.Resort(s.Mode, seedValue)
	return nil
}

// FailedCount returns the number of entries replaced by placeholders.
func (s *Session) FailedCount() int {
	return len(s.Failures)
}

// Summary returns a one-line description of the session.
func (s *Session) Summary() string {
	return fmt.Sprintf("%q: %d images, %d failed, sorted by %s (seed %d)",
		s.Query, len(s.Entries), s.FailedCount(), s.Mode, s.Seed)
}
