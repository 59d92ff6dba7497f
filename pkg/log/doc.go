/*
Package log provides structured logging using zerolog.

The log package wraps the zerolog library to provide JSON-structured logging
with component-specific loggers, configurable log levels, and helper
functions for common logging patterns. All logs include timestamps and
support filtering by severity level.

# Architecture

	┌──────────────────── LOGGING SYSTEM ──────────────────────┐
	│                                                            │
	│  ┌────────────────────────────────────────────┐          │
	│  │            Global Logger                    │          │
	│  │  - Zerolog instance                         │          │
	│  │  - Initialized via log.Init()               │          │
	│  └──────────────────┬─────────────────────────┘          │
	│                     │                                      │
	│  ┌──────────────────▼─────────────────────────┐          │
	│  │           Configuration                     │          │
	│  │  - Level: debug/info/warn/error             │          │
	│  │  - Format: JSON or console (human)          │          │
	│  │  - Output: stdout, file, or custom writer   │          │
	│  └──────────────────┬─────────────────────────┘          │
	│                     │                                      │
	│  ┌──────────────────▼─────────────────────────┐          │
	│  │         Component Loggers                   │          │
	│  │  - WithComponent("kernel")                  │          │
	│  │  - WithNodeID("component_sim114...")        │          │
	│  │  - WithFrame(logger, FrameContext{...})     │          │
	│  │  - SubstateSampler(logger, n)               │          │
	│  └────────────────────────────────────────────┘           │
	└────────────────────────────────────────────────────────────┘

# Usage

	log.Init(log.Config{Level: log.InfoLevel, JSONOutput: true, Output: os.Stdout})

	kernelLog := log.WithComponent("kernel")
	kernelLog = log.WithFrame(kernelLog, log.FrameContext{TransactionID: txID})
	kernelLog.Info().Msg("transaction committed")

	log.Logger.Error().Err(err).Msg("substate commit failed")

# Integration Points

pkg/module's LoggingModule wraps a component logger (typically
log.WithComponent("kernel")) and serves both kernel lifecycle tracing and the
client API's log(level, msg) op for executor-emitted log lines. pkg/kernel
tags that logger per transaction via LoggingModule.Tag/TagPackage, which each
call WithFrame against the existing component logger with one field set
rather than starting a fresh one, narrowing the context in stages as the
transaction id and (for a function call) the root package id become known.
LoggingModule also keeps a second, sampled logger built with
SubstateSampler for its BeforeLockSubstate/OnReadSubstate/OnWriteSubstate
hooks, since those fire once per substate operation rather than once per
transaction.

# Best Practices

Do:
  - Use Info level in production, Debug only for local troubleshooting
  - Use structured fields (.Str, .Int) instead of string concatenation
  - Create component-specific loggers rather than logging through the
    global Logger directly

Don't:
  - Log secrets, access-rule proofs, or substate values verbatim
  - Log inside tight loops over a node's partitions
*/
package log
