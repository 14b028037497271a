// Package config loads colordots settings from defaults, a YAML file and
// COLORDOTS_* environment variables, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/jmylchreest/colordots/internal/colour"
	"github.com/jmylchreest/colordots/internal/grid"
	"github.com/jmylchreest/colordots/internal/image"
	"github.com/jmylchreest/colordots/internal/pipeline"
	"github.com/jmylchreest/colordots/internal/search"
	"github.com/jmylchreest/colordots/internal/seed"
	"github.com/jmylchreest/colordots/internal/util/imagecache"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "COLORDOTS_"

// Config holds all runtime settings.
type Config struct {
	Search   Search   `yaml:"search"`
	Pipeline Pipeline `yaml:"pipeline"`
	Grid     Grid     `yaml:"grid"`
	Server   Server   `yaml:"server"`
	Log      Log      `yaml:"log"`
}

// Search selects and configures the search backend.
type Search struct {
	Backend      string           `yaml:"backend"`
	ListPath     string           `yaml:"list_path"`
	PageTemplate string           `yaml:"page_template"`
	API          search.APIConfig `yaml:"api"`
	Limit        int              `yaml:"limit"`
}

// Pipeline configures image processing.
type Pipeline struct {
	Workers          int           `yaml:"workers"`
	ThumbnailSize    int           `yaml:"thumbnail_size"`
	SampleMargin     float64       `yaml:"sample_margin"`
	PlaceholderColor string        `yaml:"placeholder_color"`
	Timeout          time.Duration `yaml:"timeout"`
	AllowLocalFiles  bool          `yaml:"allow_local_files"`
	KeepSources      bool          `yaml:"keep_sources"`
	Cache            bool          `yaml:"cache"`
	CacheDir         string        `yaml:"cache_dir"` // empty uses the user cache directory
}

// Grid configures composition defaults.
type Grid struct {
	Sort     string `yaml:"sort"`
	SeedMode string `yaml:"seed_mode"`
	Seed     *int64 `yaml:"seed,omitempty"`
}

// Server configures the HTTP API.
type Server struct {
	Addr string `yaml:"addr"`
}

// Log configures the logger.
type Log struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Search: Search{
			Backend: "list",
			API:     search.DefaultAPIConfig(),
			Limit:   grid.Size,
		},
		Pipeline: Pipeline{
			Workers:          pipeline.DefaultWorkers,
			ThumbnailSize:    image.DefaultThumbnailSize,
			SampleMargin:     colour.DefaultMargin,
			PlaceholderColor: pipeline.DefaultPlaceholderColor,
			Timeout:          5 * time.Second,
			AllowLocalFiles:  true,
		},
		Grid: Grid{
			Sort:     string(grid.ModeInsertion),
			SeedMode: string(seed.ModeRandom),
		},
		Server: Server{Addr: ":8080"},
		Log:    Log{Level: "info"},
	}
}

// Load returns the default configuration overlaid with the YAML file at path
// (skipped when path is empty) and then the environment.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path) // #nosec G304 -- user-provided config path
		if err != nil {
			return cfg, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// ApplyEnv overlays COLORDOTS_* variables read through lookup.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	get := func(name string) (string, bool) {
		v, ok := lookup(EnvPrefix + name)
		return strings.TrimSpace(v), ok && strings.TrimSpace(v) != ""
	}

	var errs []error
	setString := func(name string, dst *string) {
		if v, ok := get(name); ok {
			*dst = v
		}
	}
	setInt := func(name string, dst *int) {
		if v, ok := get(name); ok {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, name, err))
				return
			}
			*dst = n
		}
	}
	setBool := func(name string, dst *bool) {
		if v, ok := get(name); ok {
			b, err := strconv.ParseBool(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, name, err))
				return
			}
			*dst = b
		}
	}

	setString("BACKEND", &c.Search.Backend)
	setString("LIST_PATH", &c.Search.ListPath)
	setString("PAGE_TEMPLATE", &c.Search.PageTemplate)
	setString("API_ENDPOINT", &c.Search.API.Endpoint)
	setString("API_KEY", &c.Search.API.APIKey)
	setInt("WORKERS", &c.Pipeline.Workers)
	setInt("THUMBNAIL_SIZE", &c.Pipeline.ThumbnailSize)
	setString("PLACEHOLDER_COLOR", &c.Pipeline.PlaceholderColor)
	setBool("KEEP_SOURCES", &c.Pipeline.KeepSources)
	setBool("CACHE", &c.Pipeline.Cache)
	setString("CACHE_DIR", &c.Pipeline.CacheDir)
	setString("SORT", &c.Grid.Sort)
	setString("SEED_MODE", &c.Grid.SeedMode)
	setString("ADDR", &c.Server.Addr)
	setString("LOG_LEVEL", &c.Log.Level)
	setBool("LOG_JSON", &c.Log.JSON)

	if v, ok := get("TIMEOUT"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%sTIMEOUT: %w", EnvPrefix, err))
		} else {
			c.Pipeline.Timeout = d
		}
	}
	if v, ok := get("SAMPLE_MARGIN"); ok {
		m, err := strconv.ParseFloat(v, 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("%sSAMPLE_MARGIN: %w", EnvPrefix, err))
		} else {
			c.Pipeline.SampleMargin = m
		}
	}
	if v, ok := get("SEED"); ok {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("%sSEED: %w", EnvPrefix, err))
		} else {
			c.Grid.Seed = &n
		}
	}

	return errors.Join(errs...)
}

// Validate checks every setting and reports all problems at once.
func (c Config) Validate() error {
	var errs []error

	if !search.IsValidBackend(c.Search.Backend) {
		errs = append(errs, fmt.Errorf("search.backend: unknown backend %q (valid: %s)",
			c.Search.Backend, strings.Join(search.ValidBackends(), ", ")))
	}
	if c.Search.Limit < 1 || c.Search.Limit > grid.Size {
		errs = append(errs, fmt.Errorf("search.limit: must be between 1 and %d, got %d", grid.Size, c.Search.Limit))
	}
	if c.Pipeline.Workers < 1 || c.Pipeline.Workers > pipeline.MaxWorkers {
		errs = append(errs, fmt.Errorf("pipeline.workers: must be between 1 and %d, got %d", pipeline.MaxWorkers, c.Pipeline.Workers))
	}
	if c.Pipeline.ThumbnailSize < 16 || c.Pipeline.ThumbnailSize > 1024 {
		errs = append(errs, fmt.Errorf("pipeline.thumbnail_size: must be between 16 and 1024, got %d", c.Pipeline.ThumbnailSize))
	}
	if c.Pipeline.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("pipeline.timeout: must be positive, got %s", c.Pipeline.Timeout))
	}
	if err := colour.ValidateMargin(c.Pipeline.SampleMargin); err != nil {
		errs = append(errs, fmt.Errorf("pipeline.sample_margin: %w", err))
	}
	if _, err := colour.ParseHex(c.Pipeline.PlaceholderColor); err != nil {
		errs = append(errs, fmt.Errorf("pipeline.placeholder_color: %w", err))
	}
	if _, err := grid.ParseSortMode(c.Grid.Sort); err != nil {
		errs = append(errs, fmt.Errorf("grid.sort: %w", err))
	}
	if mode, err := seed.ParseMode(c.Grid.SeedMode); err != nil {
		errs = append(errs, fmt.Errorf("grid.seed_mode: %w", err))
	} else if mode == seed.ModeManual && c.Grid.Seed == nil {
		errs = append(errs, fmt.Errorf("grid.seed: required when seed_mode is manual"))
	}
	if !slices.Contains([]string{"trace", "debug", "info", "warn", "error", "off"}, strings.ToLower(c.Log.Level)) {
		errs = append(errs, fmt.Errorf("log.level: unknown level %q", c.Log.Level))
	}

	return errors.Join(errs...)
}

// PipelineOptions converts the pipeline section into pipeline.Options,
// opening the download cache when enabled.
func (c Config) PipelineOptions() (pipeline.Options, error) {
	var cache *imagecache.Cache
	if c.Pipeline.Cache {
		var err error
		if cache, err = imagecache.New(c.Pipeline.CacheDir); err != nil {
			return pipeline.Options{}, err
		}
	}

	margin := c.Pipeline.SampleMargin
	mode, _ := seed.ParseMode(c.Grid.SeedMode)
	return pipeline.Options{
		Workers:          c.Pipeline.Workers,
		ThumbnailSize:    c.Pipeline.ThumbnailSize,
		SampleMargin:     &margin,
		PlaceholderColor: c.Pipeline.PlaceholderColor,
		Timeout:          c.Pipeline.Timeout,
		SeedMode:         mode,
		KeepSources:      c.Pipeline.KeepSources,
		Loader: image.NewFetcher(image.FetcherOptions{
			Timeout:         c.Pipeline.Timeout,
			AllowLocalFiles: c.Pipeline.AllowLocalFiles,
			Cache:           cache,
		}),
	}, nil
}

// SearchOptions converts the search section into search.Options. urls, when
// non-empty, feed the list backend directly.
func (c Config) SearchOptions(urls []string) search.Options {
	return search.Options{
		Backend:      c.Search.Backend,
		ListURLs:     urls,
		ListPath:     c.Search.ListPath,
		PageTemplate: c.Search.PageTemplate,
		API:          c.Search.API,
		Timeout:      c.Pipeline.Timeout,
	}
}
