package logging

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/pkgerrors"
	slogzerolog "github.com/samber/slog-zerolog/v2"
)

const DefaultLogLevel = slog.LevelInfo

// Options selects the level and format of the CLI's log output.
type Options struct {
	Level slog.Level
	// JSON writes one JSON object per record instead of console text.
	JSON bool
}

// ParseLogLevel accepts debug, info, warn or error in any case.
func ParseLogLevel(s string) (slog.Level, error) {
	for _, level := range []slog.Level{slog.LevelDebug, slog.LevelInfo, slog.LevelWarn, slog.LevelError} {
		if strings.EqualFold(s, level.String()) {
			return level, nil
		}
	}
	return DefaultLogLevel, fmt.Errorf("log level %q: want debug, info, warn or error", s)
}

// ConfigureLogger installs a zerolog-backed default slog logger writing to out.
func ConfigureLogger(out io.Writer, opts Options) *slog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339Nano
	zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack

	w := out
	if !opts.JSON {
		w = zerolog.ConsoleWriter{Out: out, TimeFormat: time.StampMicro}
	}
	zl := zerolog.New(w).With().Timestamp().Stack().Logger()

	logger := slog.New(slogzerolog.Option{
		Level:  opts.Level,
		Logger: &zl,
	}.NewZerologHandler())
	slog.SetDefault(logger)
	return logger
}
