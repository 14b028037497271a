package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Errorf("Default().Validate() error = %v", err)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "colordots.yaml")
	content := `
search:
  backend: api
  api:
    endpoint: https://images.example.com/v1/search
    api_key: abc123
    page_size: 20
pipeline:
  workers: 12
  thumbnail_size: 200
  timeout: 3s
  placeholder_color: "#222222"
grid:
  sort: hue
  seed_mode: manual
  seed: 42
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}

	if cfg.Search.Backend != "api" || cfg.Search.API.APIKey != "abc123" || cfg.Search.API.PageSize != 20 {
		t.Errorf("search = %+v", cfg.Search)
	}
	if cfg.Search.API.QueryParam != "q" {
		t.Errorf("unset API fields should keep defaults, QueryParam = %q", cfg.Search.API.QueryParam)
	}
	if cfg.Pipeline.Workers != 12 || cfg.Pipeline.ThumbnailSize != 200 || cfg.Pipeline.Timeout != 3*time.Second {
		t.Errorf("pipeline = %+v", cfg.Pipeline)
	}
	if cfg.Grid.Seed == nil || *cfg.Grid.Seed != 42 {
		t.Errorf("grid.seed = %v, want 42", cfg.Grid.Seed)
	}
}

func TestLoadErrors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Load() expected error for missing file")
	}

	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("pipeline: [unclosed"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("Load() expected error for invalid YAML")
	}
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"COLORDOTS_BACKEND":      "page",
		"COLORDOTS_WORKERS":      "4",
		"COLORDOTS_TIMEOUT":      "750ms",
		"COLORDOTS_SEED":         "-9",
		"COLORDOTS_KEEP_SOURCES": "true",
		"COLORDOTS_SORT":         "   ",
	}
	lookup := func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}

	cfg := Default()
	if err := cfg.ApplyEnv(lookup); err != nil {
		t.Fatalf("ApplyEnv() error = %v", err)
	}
	if cfg.Search.Backend != "page" || cfg.Pipeline.Workers != 4 || cfg.Pipeline.Timeout != 750*time.Millisecond {
		t.Errorf("config = %+v", cfg)
	}
	if cfg.Grid.Seed == nil || *cfg.Grid.Seed != -9 || !cfg.Pipeline.KeepSources {
		t.Errorf("grid = %+v, keep sources = %v", cfg.Grid, cfg.Pipeline.KeepSources)
	}
	if cfg.Grid.Sort != "insertion" {
		t.Errorf("blank variable should be ignored, sort = %q", cfg.Grid.Sort)
	}

	env = map[string]string{"COLORDOTS_WORKERS": "many", "COLORDOTS_TIMEOUT": "soon"}
	cfg = Default()
	err := cfg.ApplyEnv(lookup)
	if err == nil {
		t.Fatal("ApplyEnv() expected error")
	}
	if !strings.Contains(err.Error(), "COLORDOTS_WORKERS") || !strings.Contains(err.Error(), "COLORDOTS_TIMEOUT") {
		t.Errorf("ApplyEnv() error = %v, want both variables reported", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"backend", func(c *Config) { c.Search.Backend = "browser" }, "search.backend"},
		{"limit", func(c *Config) { c.Search.Limit = 101 }, "search.limit"},
		{"workers low", func(c *Config) { c.Pipeline.Workers = 0 }, "pipeline.workers"},
		{"workers high", func(c *Config) { c.Pipeline.Workers = 17 }, "pipeline.workers"},
		{"thumbnail", func(c *Config) { c.Pipeline.ThumbnailSize = 8 }, "pipeline.thumbnail_size"},
		{"timeout", func(c *Config) { c.Pipeline.Timeout = 0 }, "pipeline.timeout"},
		{"margin", func(c *Config) { c.Pipeline.SampleMargin = 0.5 }, "pipeline.sample_margin"},
		{"placeholder", func(c *Config) { c.Pipeline.PlaceholderColor = "beige" }, "pipeline.placeholder_color"},
		{"sort", func(c *Config) { c.Grid.Sort = "size" }, "grid.sort"},
		{"seed mode", func(c *Config) { c.Grid.SeedMode = "lucky" }, "grid.seed_mode"},
		{"manual without seed", func(c *Config) { c.Grid.SeedMode = "manual" }, "grid.seed"},
		{"log level", func(c *Config) { c.Log.Level = "loud" }, "log.level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("Validate() expected error")
			}
			if !strings.Contains(err.Error(), tt.field) {
				t.Errorf("Validate() error = %v, want mention of %s", err, tt.field)
			}
		})
	}
}

func TestPipelineOptions(t *testing.T) {
	cfg := Default()
	cfg.Pipeline.SampleMargin = 0.1
	cfg.Grid.SeedMode = "content"

	cfg.Pipeline.Cache = true
	cfg.Pipeline.CacheDir = filepath.Join(t.TempDir(), "cache")

	opts, err := cfg.PipelineOptions()
	if err != nil {
		t.Fatalf("PipelineOptions() error = %v", err)
	}
	if _, err := os.Stat(cfg.Pipeline.CacheDir); err != nil {
		t.Errorf("cache directory not created: %v", err)
	}
	if opts.SampleMargin == nil || *opts.SampleMargin != 0.1 {
		t.Errorf("SampleMargin = %v, want 0.1", opts.SampleMargin)
	}
	if opts.SeedMode != "content" || opts.Loader == nil {
		t.Errorf("options = %+v", opts)
	}

	so := cfg.SearchOptions([]string{"https://a"})
	if so.Backend != "list" || len(so.ListURLs) != 1 {
		t.Errorf("search options = %+v", so)
	}
}
