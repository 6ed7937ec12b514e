package logging

import (
	"io"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var (
	root     = zerolog.New(os.Stderr).With().Timestamp().Logger()
	rootOnce sync.Once
)

// Setup configures the process-wide root logger. Only the first call has an effect.
func Setup(level string, pretty bool) zerolog.Logger {
	rootOnce.Do(func() {
		lvl, err := zerolog.ParseLevel(level)
		if err != nil || level == "" {
			lvl = zerolog.InfoLevel
		}
		var w io.Writer = os.Stderr
		if pretty {
			w = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}
		}
		root = zerolog.New(w).Level(lvl).With().Timestamp().Logger()
		if err != nil {
			root.Warn().Str("level", level).Msg("unknown log level, using info")
		}
	})
	return root
}

// Component returns a child logger tagged with the component name.
func Component(name string) zerolog.Logger {
	return root.With().Str("component", name).Logger()
}
