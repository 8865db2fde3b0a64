package settings

import (
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Logger is the process wide structured logger.
var Logger zerolog.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()

func setupLogger(level string, pretty bool) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	if pretty {
		Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).Level(lvl).With().Timestamp().Logger()
		return
	}
	Logger = zerolog.New(os.Stderr).Level(lvl).With().Timestamp().Logger()
}
