package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var base zerolog.Logger

// Options selects the minimum level and the output format. Format "text"
// writes colored console lines, anything else JSON.
type Options struct {
	Level  string
	Format string
	Output io.Writer
}

// Configure replaces the package logger and zerolog's global logger.
// Unknown levels fall back to info.
func Configure(opts Options) zerolog.Logger {
	out := opts.Output
	if out == nil {
		out = os.Stdout
	}

	level, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(opts.Level)))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = time.RFC3339

	if strings.EqualFold(opts.Format, "text") {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: "15:04:05"}
	}

	base = zerolog.New(out).With().Timestamp().Str("service", "schoolbook").Logger()
	log.Logger = base
	return base
}

func Debug() *zerolog.Event { return base.Debug() }

func Info() *zerolog.Event { return base.Info() }

func Warn() *zerolog.Event { return base.Warn() }

func Error() *zerolog.Event { return base.Error() }

func init() {
	Configure(Options{Level: "info", Format: "text"})
}
