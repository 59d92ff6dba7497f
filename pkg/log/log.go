package log

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

var (
	// Logger is the global logger instance
	Logger zerolog.Logger
)

// Level represents log level
type Level string

const (
	DebugLevel Level = "debug"
	InfoLevel  Level = "info"
	WarnLevel  Level = "warn"
	ErrorLevel Level = "error"
)

// Config holds logging configuration
type Config struct {
	Level      Level
	JSONOutput bool
	Output     io.Writer
}

// Init initializes the global logger
func Init(cfg Config) {
	// Set log level
	var level zerolog.Level
	switch cfg.Level {
	case DebugLevel:
		level = zerolog.DebugLevel
	case InfoLevel:
		level = zerolog.InfoLevel
	case WarnLevel:
		level = zerolog.WarnLevel
	case ErrorLevel:
		level = zerolog.ErrorLevel
	default:
		level = zerolog.InfoLevel
	}

	zerolog.SetGlobalLevel(level)

	// Configure output
	output := cfg.Output
	if output == nil {
		output = os.Stdout
	}

	// Use JSON or console output
	if cfg.JSONOutput {
		Logger = zerolog.New(output).With().Timestamp().Logger()
	} else {
		Logger = zerolog.New(zerolog.ConsoleWriter{
			Out:        output,
			TimeFormat: time.RFC3339,
		}).With().Timestamp().Logger()
	}
}

// WithComponent creates a child logger with component field
func WithComponent(component string) zerolog.Logger {
	return Logger.With().Str("component", component).Logger()
}

// WithNodeID creates a child logger with node_id field
func WithNodeID(nodeID string) zerolog.Logger {
	return Logger.With().Str("node_id", nodeID).Logger()
}

// FrameContext carries the call-frame identifiers a transaction accumulates
// as it starts up: the transaction id assigned when the kernel is
// constructed, and (for a root function call) the package id the entry
// point resolves against. A method call's receiver already identifies its
// package through the node graph, so PackageID is left empty for those.
type FrameContext struct {
	TransactionID string
	PackageID     string
}

// WithFrame returns a child of logger carrying whichever of fc's fields are
// set, composing with WithComponent rather than starting fresh from the
// global Logger. The kernel calls this once per field as each becomes known
// (transaction id at construction, package id once Invoke resolves its
// entry point), narrowing the logger's context in stages rather than all at
// once.
func WithFrame(logger zerolog.Logger, fc FrameContext) zerolog.Logger {
	ctx := logger.With()
	if fc.TransactionID != "" {
		ctx = ctx.Str("transaction_id", fc.TransactionID)
	}
	if fc.PackageID != "" {
		ctx = ctx.Str("package_id", fc.PackageID)
	}
	return ctx.Logger()
}

// SubstateSampler returns a child of logger that emits roughly 1-in-n of the
// events logged through it, via zerolog's basic sampler. High-frequency
// substate tracing (one candidate line per lock/read/write) can then stay
// wired at debug level without flooding output on a node with many
// partitions, per the "don't log inside tight loops over a node's
// partitions" guidance. n <= 1 disables sampling entirely.
func SubstateSampler(logger zerolog.Logger, n uint32) zerolog.Logger {
	if n <= 1 {
		return logger
	}
	return logger.Sample(&zerolog.BasicSampler{N: n})
}

// Helper functions for common logging patterns
func Info(msg string) {
	Logger.Info().Msg(msg)
}

func Debug(msg string) {
	Logger.Debug().Msg(msg)
}

func Warn(msg string) {
	Logger.Warn().Msg(msg)
}

func Error(msg string) {
	Logger.Error().Msg(msg)
}

func Errorf(format string, err error) {
	Logger.Error().Err(err).Msg(format)
}

func Fatal(msg string) {
	Logger.Fatal().Msg(msg)
}
