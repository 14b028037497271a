package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/colordots/internal/grid"
	"github.com/jmylchreest/colordots/internal/pipeline"
	"github.com/jmylchreest/colordots/internal/search"
	"github.com/jmylchreest/colordots/internal/server"
)

type serveOptions struct {
	sourceFlags

	addr string
	sort string
}

func newServeCmd(global *globalOptions) *cobra.Command {
	opts := &serveOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the colour grid over an HTTP JSON API",
		Long: `Start an HTTP server that runs searches on request and keeps the most
recent grid.

Endpoints:
  GET  /healthz       liveness check
  GET  /api/grid      current grid (404 before the first search)
  POST /api/search    {"query": "...", "sort": "hue", "seed": 42}
  POST /api/sort      {"sort": "color"}
  POST /api/shuffle   {"seed": 7}
  POST /api/resample  {"seed": 7} (requires --keep-sources)

A failed search returns 502 and leaves the current grid unchanged.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, global, opts)
		},
	}

	opts.register(cmd.Flags())
	cmd.Flags().StringVarP(&opts.addr, "addr", "a", "", "listen address (default from config, :8080)")
	cmd.Flags().StringVarP(&opts.sort, "sort", "s", "", "default sort mode (insertion, color, hue)")

	return cmd
}

func runServe(cmd *cobra.Command, global *globalOptions, opts *serveOptions) error {
	cfg, err := global.loadConfig()
	if err != nil {
		return err
	}
	opts.apply(cmd.Flags(), &cfg)
	if cmd.Flags().Changed("addr") {
		cfg.Server.Addr = opts.addr
	}
	if cmd.Flags().Changed("sort") {
		cfg.Grid.Sort = opts.sort
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
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
	pipelineOpts.Logger = logger.Named("pipeline")
	p, err := pipeline.New(pipelineOpts)
	if err != nil {
		return err
	}

	mode, _ := grid.ParseSortMode(cfg.Grid.Sort)
	srv, err := server.New(server.Options{
		Pipeline:    p,
		Backend:     backend,
		Logger:      logger.Named("http"),
		DefaultSort: mode,
		Limit:       cfg.Search.Limit,
		Debug:       global.verbose,
	})
	if err != nil {
		return err
	}

	return srv.ListenAndServe(cmd.Context(), cfg.Server.Addr)
}
