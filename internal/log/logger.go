package log

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/rs/zerolog/pkgerrors"
	config "github.com/supereum/explorer-indexer/configs"
)

const defaultLevel = zerolog.InfoLevel

// InitLogger replaces the zerolog global logger with one configured from config.Cfg.Log.
func InitLogger() {
	log.Logger = NewLogger("explorer-indexer")
}

// NewLogger builds a logger tagged with the given component name.
func NewLogger(name string) zerolog.Logger {
	zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack
	zerolog.TimeFieldFormat = time.RFC3339Nano

	level := defaultLevel
	if lvl, err := zerolog.ParseLevel(config.Cfg.Log.Level); err == nil && lvl != zerolog.NoLevel {
		level = lvl
	}
	zerolog.SetGlobalLevel(level)

	var out io.Writer = os.Stderr
	if config.Cfg.Log.Prettify {
		out = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	}

	return zerolog.New(out).With().Timestamp().Str("component", name).Caller().Logger()
}

