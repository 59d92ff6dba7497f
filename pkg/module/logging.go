package module

import (
	"github.com/ledgerkernel/engine/pkg/id"
	"github.com/ledgerkernel/engine/pkg/log"
	"github.com/ledgerkernel/engine/pkg/substate"
	"github.com/rs/zerolog"
)

// substateSampleRate is how many BeforeLockSubstate/OnReadSubstate/
// OnWriteSubstate calls share one emitted log line: these hooks fire once
// per substate operation rather than once per transaction, so left
// unsampled they would dominate debug output on any node with more than a
// couple of partitions.
const substateSampleRate = 8

// LoggingModule traces kernel lifecycle events at debug level and serves
// the client API's log(level, msg) op for executor-emitted log lines,
// reusing this repository's zerolog wrapper rather than rolling a bespoke
// logger.
type LoggingModule struct {
	Base

	logger zerolog.Logger
	// substate is a sampled view of logger used only for the high-frequency
	// substate hooks below.
	substate zerolog.Logger
}

// NewLoggingModule returns a logging module writing through the given
// component logger (typically log.WithComponent("kernel")).
func NewLoggingModule(logger zerolog.Logger) *LoggingModule {
	return &LoggingModule{logger: logger, substate: log.SubstateSampler(logger, substateSampleRate)}
}

func (m *LoggingModule) Name() string { return "logging" }

// Tag rebinds the module's logger to additionally carry transactionID on
// every line it emits from here on, called once by the kernel before a root
// invocation's frame is pushed.
func (m *LoggingModule) Tag(transactionID string) {
	fc := log.FrameContext{TransactionID: transactionID}
	m.logger = log.WithFrame(m.logger, fc)
	m.substate = log.WithFrame(m.substate, fc)
}

// TagPackage rebinds the module's logger to additionally carry packageID,
// called by the kernel for a root function call (a method call's receiver
// already identifies its package through node, not log context).
func (m *LoggingModule) TagPackage(packageID string) {
	fc := log.FrameContext{PackageID: packageID}
	m.logger = log.WithFrame(m.logger, fc)
	m.substate = log.WithFrame(m.substate, fc)
}

// Log serves the client API's log(level, msg) op.
func (m *LoggingModule) Log(level log.Level, msg string) {
	switch level {
	case log.DebugLevel:
		m.logger.Debug().Msg(msg)
	case log.WarnLevel:
		m.logger.Warn().Msg(msg)
	case log.ErrorLevel:
		m.logger.Error().Msg(msg)
	default:
		m.logger.Info().Msg(msg)
	}
}

func (m *LoggingModule) BeforeInvoke(_ Context, inv *Invocation) error {
	m.logger.Debug().
		Str("blueprint", inv.Callee.Blueprint).
		Str("ident", inv.Callee.Ident).
		Msg("invoke")
	return nil
}

func (m *LoggingModule) BeforeCreateNode(_ Context, node id.NodeID, _ substate.NodeInit) error {
	m.logger.Debug().Str("node", node.String()).Msg("create_node")
	return nil
}

func (m *LoggingModule) BeforeDropNode(_ Context, node id.NodeID) error {
	m.logger.Debug().Str("node", node.String()).Msg("drop_node")
	return nil
}

func (m *LoggingModule) BeforeLockSubstate(_ Context, addr substate.Address, flags substate.LockFlags) error {
	m.substate.Debug().
		Str("node", addr.Node.String()).
		Uint8("partition", uint8(addr.Partition)).
		Msg("lock_substate")
	return nil
}

func (m *LoggingModule) OnReadSubstate(_ Context, _ substate.LockHandle, size int) error {
	m.substate.Debug().Int("bytes", size).Msg("read_substate")
	return nil
}

func (m *LoggingModule) OnWriteSubstate(_ Context, _ substate.LockHandle, size int) error {
	m.substate.Debug().Int("bytes", size).Msg("write_substate")
	return nil
}
