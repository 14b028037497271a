package cli

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/jmylchreest/colordots/internal/config"
	"github.com/jmylchreest/colordots/internal/grid"
	"github.com/jmylchreest/colordots/internal/pipeline"
	"github.com/jmylchreest/colordots/internal/render"
	"github.com/jmylchreest/colordots/internal/search"
	"github.com/jmylchreest/colordots/internal/seed"
)

// sourceFlags are the backend and pipeline flags shared by search and serve.
type sourceFlags struct {
	backend       string
	listPath      string
	urls          []string
	pageTemplate  string
	apiEndpoint   string
	workers       int
	timeout       time.Duration
	thumbnailSize int
	keepSources   bool
	cache         bool
	cacheDir      string
}

func (f *sourceFlags) register(flags *pflag.FlagSet) {
	flags.StringVarP(&f.backend, "backend", "b", "", "search backend (list, page, api)")
	flags.StringVarP(&f.listPath, "list", "l", "", "file of image URLs, or a directory of images, for the list backend")
	flags.StringArrayVarP(&f.urls, "url", "u", nil, "image URL for the list backend (repeatable)")
	flags.StringVar(&f.pageTemplate, "page", "", "results page URL template containing {query}")
	flags.StringVar(&f.apiEndpoint, "api-endpoint", "", "image search API endpoint")
	flags.IntVarP(&f.workers, "workers", "w", pipeline.DefaultWorkers, "concurrent image fetches (1-16)")
	flags.DurationVar(&f.timeout, "timeout", 5*time.Second, "per-image fetch timeout")
	flags.IntVar(&f.thumbnailSize, "thumbnail-size", 150, "thumbnail edge length in pixels (16-1024)")
	flags.BoolVar(&f.keepSources, "keep-sources", false, "keep decoded images so colours can be resampled")
	flags.BoolVar(&f.cache, "cache", false, "cache downloaded images on disk")
	flags.StringVar(&f.cacheDir, "cache-dir", "", "download cache directory (implies --cache)")
}

// apply overlays explicitly set flags onto cfg.
func (f *sourceFlags) apply(flags *pflag.FlagSet, cfg *config.Config) {
	if flags.Changed("backend") {
		cfg.Search.Backend = f.backend
	}
	if flags.Changed("list") {
		cfg.Search.ListPath = f.listPath
	}
	if flags.Changed("page") {
		cfg.Search.PageTemplate = f.pageTemplate
		if !flags.Changed("backend") {
			cfg.Search.Backend = "page"
		}
	}
	if flags.Changed("api-endpoint") {
		cfg.Search.API.Endpoint = f.apiEndpoint
		if !flags.Changed("backend") {
			cfg.Search.Backend = "api"
		}
	}
	if flags.Changed("workers") {
		cfg.Pipeline.Workers = f.workers
	}
	if flags.Changed("timeout") {
		cfg.Pipeline.Timeout = f.timeout
	}
	if flags.Changed("thumbnail-size") {
		cfg.Pipeline.ThumbnailSize = f.thumbnailSize
	}
	if flags.Changed("keep-sources") {
		cfg.Pipeline.KeepSources = f.keepSources
	}
	if flags.Changed("cache") {
		cfg.Pipeline.Cache = f.cache
	}
	if flags.Changed("cache-dir") {
		cfg.Pipeline.CacheDir = f.cacheDir
		cfg.Pipeline.Cache = true
	}
}

type searchOptions struct {
	sourceFlags

	sort     string
	seed     int64
	seedMode string
	format   string
	output   string
	labels   bool
	noColour bool
}

func newSearchCmd(global *globalOptions) *cobra.Command {
	opts := &searchOptions{}

	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Search for images and print the colour grid",
		Long: `Search for images, sample one colour from each, and print the 10x10 grid.

Failed images are replaced by a light grey placeholder and counted in the
summary. Colours are sampled at random from the central region of each image,
so repeated runs differ unless a seed is given.

Examples:
  # Grid from a directory of local images, sorted by hue
  colordots search --list ~/Pictures/wallpapers --sort hue

  # Grid from a results page, as JSON
  colordots search --page 'https://images.example.com/search?q={query}' -f json "red cars"

  # Reproducible run
  colordots search --list urls.txt --seed 42 --sort color

  # One hex colour per line
  colordots search --list urls.txt -f hex`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(cmd, global, opts, strings.Join(args, " "))
		},
	}

	opts.register(cmd.Flags())
	cmd.Flags().StringVarP(&opts.sort, "sort", "s", "", "sort mode (insertion, color, hue)")
	cmd.Flags().Int64Var(&opts.seed, "seed", 0, "seed for colour sampling and reveal order")
	cmd.Flags().StringVar(&opts.seedMode, "seed-mode", "", "seed mode (random, manual, content, url)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "preview", "output format (preview, json, hex)")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (default: stdout)")
	cmd.Flags().BoolVar(&opts.labels, "labels", false, "print hex codes inside preview blocks")
	cmd.Flags().BoolVar(&opts.noColour, "no-colour", false, "disable ANSI colour even on a terminal")

	return cmd
}

func runSearch(cmd *cobra.Command, global *globalOptions, opts *searchOptions, query string) error {
	cfg, err := global.loadConfig()
	if err != nil {
		return err
	}
	opts.apply(cmd.Flags(), &cfg)
	if cmd.Flags().Changed("sort") {
		cfg.Grid.Sort = opts.sort
	}
	if cmd.Flags().Changed("seed") {
		cfg.Grid.Seed = &opts.seed
		if !cmd.Flags().Changed("seed-mode") && cfg.Grid.SeedMode == string(seed.ModeRandom) {
			cfg.Grid.SeedMode = string(seed.ModeManual)
		}
	}
	if cmd.Flags().Changed("seed-mode") {
		cfg.Grid.SeedMode = opts.seedMode
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if query == "" && cfg.Search.Backend != "list" {
		return fmt.Errorf("a query is required for the %s backend", cfg.Search.Backend)
	}

	logger := global.logger(cmd, cfg)

	backend, err := search.New(cfg.SearchOptions(opts.urls))
	if err != nil {
		return err
	}

	pipelineOpts, err := cfg.PipelineOptions()
	if err != nil {
		return err
	}
	pipelineOpts.Logger = logger
	if !global.quiet && render.IsTerminal(cmd.ErrOrStderr()) {
		pipelineOpts.Progress = progressReporter(cmd.ErrOrStderr())
	}
	p, err := pipeline.New(pipelineOpts)
	if err != nil {
		return err
	}

	mode, _ := grid.ParseSortMode(cfg.Grid.Sort)
	seedMode, _ := seed.ParseMode(cfg.Grid.SeedMode)
	session, err := p.Search(cmd.Context(), backend, pipeline.Request{
		Query: query,
		Mode:  mode,
		Limit: cfg.Search.Limit,
		Seed:  seed.Config{Mode: seedMode, Value: cfg.Grid.Seed},
	})
	if err != nil {
		return err
	}

	toTerminal := opts.output == "" && render.IsTerminal(cmd.OutOrStdout())
	output, err := render.Format(session, opts.format, render.PreviewOptions{
		CellWidth: render.CellWidthFor(cmd.OutOrStdout()),
		Labels:    opts.labels,
		Color:     toTerminal && !opts.noColour,
	})
	if err != nil {
		return err
	}

	if opts.output != "" {
		logger.Debug("writing output", "path", opts.output)
		if err := os.WriteFile(opts.output, []byte(output), 0o644); err != nil { // #nosec G306 -- user output file
			return fmt.Errorf("failed to write output file: %w", err)
		}
	} else {
		fmt.Fprint(cmd.OutOrStdout(), output)
	}

	if !global.quiet {
		fmt.Fprintln(cmd.ErrOrStderr(), session.Summary())
	}
	return nil
}

// progressReporter returns a pipeline progress callback that redraws a single
// status line on w. Stale counts from slower workers are dropped.
func progressReporter(w io.Writer) func(done, total int) {
	var mu sync.Mutex
	last := 0
	return func(done, total int) {
		mu.Lock()
		defer mu.Unlock()
		if done <= last {
			return
		}
		last = done
		fmt.Fprintf(w, "\rprocessing images %d/%d", done, total)
		if done == total {
			fmt.Fprintln(w)
		}
	}
}
