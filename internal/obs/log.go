package obs

import (
	"os"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

var (
	loggerOnce sync.Once
	logger     zerolog.Logger
)

// Logger returns the shared structured logger used across both services.
// Level and format come from LOG_LEVEL and LOG_FORMAT (json by default,
// "console" for local development).
func Logger() zerolog.Logger {
	loggerOnce.Do(func() {
		level, err := zerolog.ParseLevel(strings.ToLower(os.Getenv("LOG_LEVEL")))
		if err != nil || level == zerolog.NoLevel {
			level = zerolog.InfoLevel
		}
		var l zerolog.Logger
		if strings.EqualFold(os.Getenv("LOG_FORMAT"), "console") {
			l = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout})
		} else {
			l = zerolog.New(os.Stdout)
		}
		logger = l.Level(level).With().Timestamp().Logger()
	})
	return logger
}
