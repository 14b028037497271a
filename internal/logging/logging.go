// Package logging builds the hclog logger shared by every colordots component.
package logging

import (
	"io"
	"os"

	"github.com/hashicorp/go-hclog"
)

// Name is the root logger name.
const Name = "colordots"

// Options configures New.
type Options struct {
	Verbose bool   // debug level
	Quiet   bool   // errors only; wins over Verbose
	Level   string // explicit level name, used when neither flag is set
	JSON    bool
	Output  io.Writer // defaults to stderr
}

// New creates the root logger.
func New(opts Options) hclog.Logger {
	out := opts.Output
	if out == nil {
		out = os.Stderr
	}
	return hclog.New(&hclog.LoggerOptions{
		Name:       Name,
		Output:     out,
		Level:      level(opts),
		JSONFormat: opts.JSON,
	})
}

func level(opts Options) hclog.Level {
	switch {
	case opts.Quiet:
		return hclog.Error
	case opts.Verbose:
		return hclog.Debug
	case opts.Level != "":
		if l := hclog.LevelFromString(opts.Level); l != hclog.NoLevel {
			return l
		}
	}
	return hclog.Info
}

// Writer adapts logger for libraries that log through an io.Writer, such as
// gin's request logger. Levels are inferred from line prefixes.
func Writer(logger hclog.Logger) io.Writer {
	return logger.StandardWriter(&hclog.StandardLoggerOptions{InferLevels: true})
}
