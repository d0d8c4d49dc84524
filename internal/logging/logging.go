// Package logging provides structured logging for the dispatch controller
// using zerolog: a package-level Logger, an Init to configure level/format
// once at startup, and With* helpers that attach component context to
// every log line, mirroring the logging package of the fleet-orchestration
// codebase this project is modeled on.
package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Logger is the global logger instance. Init must be called once during
// startup before any component logs; it defaults to info/JSON on stdout.
var Logger zerolog.Logger

// Format selects the log encoding.
type Format string

const (
	JSON    Format = "json"
	Console Format = "console"
)

// Config holds logging configuration.
type Config struct {
	Level  string
	Format Format
	Output io.Writer
}

// Init initializes the global Logger.
func Init(cfg Config) {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	out := cfg.Output
	if out == nil {
		out = os.Stdout
	}

	if cfg.Format == Console {
		Logger = zerolog.New(zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: time.RFC3339,
		}).With().Timestamp().Logger()
		return
	}
	Logger = zerolog.New(out).With().Timestamp().Logger()
}

// WithComponent creates a child logger carrying a component field, e.g.
// "dispatcher", "scheduler", "telemetry", "supervisor", "lifecycle".
func WithComponent(component string) zerolog.Logger {
	return Logger.With().Str("component", component).Logger()
}

// WithVehicle attaches a vehicle_id field.
func WithVehicle(l zerolog.Logger, id int) zerolog.Logger {
	return l.With().Int("vehicle_id", id).Logger()
}

// WithService attaches a service_id field.
func WithService(l zerolog.Logger, id int) zerolog.Logger {
	return l.With().Int("service_id", id).Logger()
}

// WithClient attaches a client_pid field.
func WithClient(l zerolog.Logger, pid int32) zerolog.Logger {
	return l.With().Int32("client_pid", pid).Logger()
}

func init() {
	Init(Config{Level: "info", Format: JSON})
}
