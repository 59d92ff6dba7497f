package kernel

import "github.com/ledgerkernel/engine/pkg/frame"

// Executor is the sandboxed-executor boundary the kernel consumes: it runs
// user blueprint code against a decoded input payload and returns a decoded
// output payload or an error, reaching back into the kernel through the
// ClientAPI for every substate/node/call operation. The kernel does not
// care whether Invoke is backed by interpreted bytecode, a native Go
// closure (as in this repository's tests), or anything else.
type Executor interface {
	Invoke(actor frame.Actor, input frame.Payload, api ClientAPI) (frame.Payload, error)
}

// ExecutorFunc adapts a plain function to Executor, the way this
// repository's other single-method interfaces are commonly satisfied by
// handler functions in tests.
type ExecutorFunc func(actor frame.Actor, input frame.Payload, api ClientAPI) (frame.Payload, error)

func (f ExecutorFunc) Invoke(actor frame.Actor, input frame.Payload, api ClientAPI) (frame.Payload, error) {
	return f(actor, input, api)
}
