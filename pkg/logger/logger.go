// Package logger wraps a process-wide zerolog logger.
package logger

import (
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var (
	once   sync.Once
	logger zerolog.Logger
)

// Config selects level, encoding and destination.
type Config struct {
	Level      string
	Format     string // json or console
	Output     string // stdout, stderr or file
	FilePath   string
	TimeFormat string
}

// DefaultConfig returns console output at info level.
func DefaultConfig() Config {
	return Config{
		Level:      "info",
		Format:     "console",
		Output:     "stdout",
		TimeFormat: time.RFC3339,
	}
}

// Init configures the global logger. Only the first call has an effect.
func Init(cfg Config) {
	once.Do(func() {
		zerolog.SetGlobalLevel(parseLevel(cfg.Level))

		var output io.Writer = os.Stdout
		switch cfg.Output {
		case "stderr":
			output = os.Stderr
		case "file":
			if cfg.FilePath != "" {
				if f, err := os.OpenFile(cfg.FilePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644); err == nil {
					output = f
				}
			}
		}

		if cfg.Format == "console" {
			output = zerolog.ConsoleWriter{Out: output, TimeFormat: cfg.TimeFormat}
		}

		logger = zerolog.New(output).With().Timestamp().Logger()
	})
}

func parseLevel(level string) zerolog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "fatal":
		return zerolog.FatalLevel
	case "disabled", "off":
		return zerolog.Disabled
	default:
		return zerolog.InfoLevel
	}
}

// Get returns the global logger, initialising it with defaults if needed.
func Get() *zerolog.Logger {
	Init(DefaultConfig())
	return &logger
}

// WithComponent returns a child logger tagged with a component name.
func WithComponent(name string) zerolog.Logger {
	return Get().With().Str("component", name).Logger()
}

func Debug() *zerolog.Event { return Get().Debug() }

func Info() *zerolog.Event { return Get().Info() }

func Warn() *zerolog.Event { return Get().Warn() }

func Error() *zerolog.Event { return Get().Error() }

func Fatal() *zerolog.Event { return Get().Fatal() }
