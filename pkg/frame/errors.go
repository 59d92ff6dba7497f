package frame

import "errors"

// These are KernelError-kind failures (see the top-level error taxonomy):
// invariant violations at the runtime layer rather than policy or
// application errors.
var (
	// ErrNotVisible is returned when a frame attempts to touch a node id
	// outside its visible set.
	ErrNotVisible = errors.New("frame: node not visible")
	// ErrNotOwned is returned when an operation requires ownership (drop,
	// globalize) but the frame does not own the node.
	ErrNotOwned = errors.New("frame: node not owned")
	// ErrAlreadyOwned reports a node id that was already materialized. The
	// kernel's CreateNode reports that case with its own
	// ErrNodeAlreadyExists and does not return this error.
	ErrAlreadyOwned = errors.New("frame: node already created")
	// ErrUnbalancedLocks is returned when a frame is popped while it still
	// holds outstanding lock handles.
	ErrUnbalancedLocks = errors.New("frame: unbalanced locks")
	// ErrStillReferenced reports a node that other frames still reference.
	// The kernel's DropNode does not check for such references and does not
	// return this error.
	ErrStillReferenced = errors.New("frame: node still referenced")
	// ErrEmptyStack is returned by operations requiring a current frame
	// when the stack has no frames left.
	ErrEmptyStack = errors.New("frame: stack is empty")
	// ErrGlobalAddressDoesNotExist is the SystemError surfaced by
	// get_global_address when no enclosing frame carries a global actor.
	ErrGlobalAddressDoesNotExist = errors.New("frame: no enclosing global address")
)
