// Package cli provides the command-line interface for colordots.
package cli

import (
	"fmt"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"

	"github.com/jmylchreest/colordots/internal/config"
	"github.com/jmylchreest/colordots/internal/logging"
	"github.com/jmylchreest/colordots/internal/version"
)

// globalOptions holds the persistent flags shared by every subcommand.
type globalOptions struct {
	configPath string
	verbose    bool
	quiet      bool
	logJSON    bool
}

// NewRootCmd builds the colordots command tree.
func NewRootCmd() *cobra.Command {
	opts := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:   "colordots",
		Short: "Image search results as a grid of colour dots",
		Long: `colordots runs an image search, fetches up to 100 results, and lays them
out on a 10x10 grid. Each image is reduced to a square thumbnail and one colour
sampled at random from its centre, and the grid can be ordered by arrival,
by colour code or by hue.

Results come from a search backend: a static list of URLs or images (list),
an HTML results page (page) or a JSON image-search API (api).`,
		Version:       version.Short(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "config file (YAML)")
	rootCmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().BoolVarP(&opts.quiet, "quiet", "q", false, "suppress non-error output")
	rootCmd.PersistentFlags().BoolVar(&opts.logJSON, "log-json", false, "write logs as JSON")

	rootCmd.SetVersionTemplate(version.String() + "\n")

	rootCmd.AddCommand(newSearchCmd(opts))
	rootCmd.AddCommand(newServeCmd(opts))
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

// loadConfig reads the config file and environment, then validates.
func (o *globalOptions) loadConfig() (config.Config, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return cfg, err
	}
	if o.logJSON {
		cfg.Log.JSON = true
	}
	return cfg, nil
}

func (o *globalOptions) logger(cmd *cobra.Command, cfg config.Config) hclog.Logger {
	return logging.New(logging.Options{
		Verbose: o.verbose,
		Quiet:   o.quiet,
		Level:   cfg.Log.Level,
		JSON:    cfg.Log.JSON,
		Output:  cmd.ErrOrStderr(),
	})
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Long:  `Print detailed version information including build date, commit hash, and Go version.`,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.String())
		},
	}
}
