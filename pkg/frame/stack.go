package frame

import (
	"fmt"

	"github.com/ledgerkernel/engine/pkg/id"
	"github.com/ledgerkernel/engine/pkg/substate"
)

// Payload is the kernel's structured stand-in for a decoded invocation
// argument or return payload: the executor boundary decodes whatever wire
// format it uses into this shape before the kernel ever sees it, so the
// frame stack only needs to reason about which node ids move and which are
// merely referenced.
type Payload struct {
	Bytes      []byte
	OwnedNodes []id.NodeID
	Refs       []id.NodeID
}

// Stack is the call-frame stack: a simple LIFO of frames with push/pop
// rules that enforce the ownership and visibility invariants described for
// the Call-Frame Stack component.
type Stack struct {
	frames []*Frame
}

// NewStack returns an empty stack.
func NewStack() *Stack {
	return &Stack{}
}

// Current returns the top frame, or nil if the stack is empty.
func (s *Stack) Current() *Frame {
	if len(s.frames) == 0 {
		return nil
	}
	return s.frames[len(s.frames)-1]
}

// Depth reports the number of frames currently on the stack.
func (s *Stack) Depth() int {
	return len(s.frames)
}

// PushRoot pushes the transaction's synthetic root frame. It must be called
// exactly once, before any PushFrame.
func (s *Stack) PushRoot(actor Actor, authZone id.NodeID) *Frame {
	f := newFrame(0, actor, authZone)
	s.frames = append(s.frames, f)
	return f
}

// PushFrame pushes a new frame for a nested invocation made by the current
// frame. It verifies every owned-node id named in payload is actually owned
// by the caller (moving it into the callee's owned-set) and every reference
// named in payload is visible to the caller (adding it to the callee's
// visible set with the extension flag set), per the reference rules: "To
// obtain access to a node owned by an ancestor, the ancestor must pass it in
// the argument payload; the kernel scans the payload, verifies each
// reference is visible to the sender, and adds it to the callee's visible
// set with an extension flag."
func (s *Stack) PushFrame(actor Actor, payload Payload, authZone id.NodeID) (*Frame, error) {
	parent := s.Current()
	if parent == nil {
		return nil, ErrEmptyStack
	}

	for _, n := range payload.OwnedNodes {
		if !parent.Owns(n) {
			return nil, fmt.Errorf("%w: %s not owned by caller frame %d", ErrNotOwned, n, parent.Depth)
		}
	}
	for _, n := range payload.Refs {
		if !parent.Visible(n) {
			return nil, fmt.Errorf("%w: %s not visible to caller frame %d", ErrNotVisible, n, parent.Depth)
		}
	}

	child := newFrame(parent.Depth+1, actor, authZone)
	for _, n := range payload.OwnedNodes {
		parent.removeOwned(n)
		child.addOwned(n)
	}
	for _, n := range payload.Refs {
		child.addVisible(n, true)
	}

	s.frames = append(s.frames, child)
	return child, nil
}

// Pop pops the current frame after its invocation returns. The popped
// frame's locks must already be released (checked here, not re-released).
// Owned nodes named in returnPayload move up into the new current frame's
// owned-set; references named in returnPayload that the parent did not
// already have before the push are silently dropped, per "a reference
// cannot be passed down and back up."
func (s *Stack) Pop(returnPayload Payload) (*Frame, error) {
	popped := s.Current()
	if popped == nil {
		return nil, ErrEmptyStack
	}
	if popped.OutstandingLocks() > 0 {
		return nil, fmt.Errorf("%w: frame %d holds %d locks", ErrUnbalancedLocks, popped.Depth, popped.OutstandingLocks())
	}

	for _, n := range returnPayload.OwnedNodes {
		if !popped.Owns(n) {
			return nil, fmt.Errorf("%w: %s not owned by returning frame %d", ErrNotOwned, n, popped.Depth)
		}
	}

	s.frames = s.frames[:len(s.frames)-1]
	parent := s.Current()
	if parent != nil {
		for _, n := range returnPayload.OwnedNodes {
			popped.removeOwned(n)
			parent.addOwned(n)
		}
	}
	return popped, nil
}

// InnermostGlobalAddress implements get_global_address: it ascends from the
// current frame toward the root and returns the first frame whose actor
// carries a global address. Function-only invocations and methods called
// before their receiver was globalized have no such frame.
func (s *Stack) InnermostGlobalAddress() (id.NodeID, bool) {
	for i := len(s.frames) - 1; i >= 0; i-- {
		if s.frames[i].Actor.isGlobal() {
			return *s.frames[i].Actor.GlobalAddress, true
		}
	}
	return id.Zero, false
}

// Globalize removes node from the current frame's owned-set, marking it as
// promoted to a world-visible global. The caller (the kernel's client API)
// is responsible for recording the new global address in the backing
// substate and for attaching module-init partitions atomically; Stack only
// tracks the ownership-set side effect.
func (s *Stack) Globalize(node id.NodeID) error {
	cur := s.Current()
	if cur == nil {
		return ErrEmptyStack
	}
	if !cur.Owns(node) {
		return fmt.Errorf("%w: %s", ErrNotOwned, node)
	}
	cur.removeOwned(node)
	return nil
}

// TrackLock records that the current frame holds h, returned by a
// lock_substate call dispatched through this frame.
func (s *Stack) TrackLock(h substate.LockHandle) error {
	cur := s.Current()
	if cur == nil {
		return ErrEmptyStack
	}
	cur.trackLock(h)
	return nil
}

// UntrackLock removes h from the current frame's outstanding-lock set,
// called on release_lock.
func (s *Stack) UntrackLock(h substate.LockHandle) error {
	cur := s.Current()
	if cur == nil {
		return ErrEmptyStack
	}
	cur.untrackLock(h)
	return nil
}

// AddOwned records a freshly allocated-and-created node as owned by the
// current frame.
func (s *Stack) AddOwned(node id.NodeID) error {
	cur := s.Current()
	if cur == nil {
		return ErrEmptyStack
	}
	cur.addOwned(node)
	return nil
}

// RemoveOwned drops node from the current frame's owned-set, called by
// drop_node once the track has discarded its substates.
func (s *Stack) RemoveOwned(node id.NodeID) error {
	cur := s.Current()
	if cur == nil {
		return ErrEmptyStack
	}
	if !cur.Owns(node) {
		return fmt.Errorf("%w: %s", ErrNotOwned, node)
	}
	cur.removeOwned(node)
	return nil
}

// AddVisible records an unconditionally-known reference (e.g. a global
// address resolved by id, not passed through a call payload) as visible to
// the current frame without marking it as an extension.
func (s *Stack) AddVisible(node id.NodeID) error {
	cur := s.Current()
	if cur == nil {
		return ErrEmptyStack
	}
	cur.addVisible(node, false)
	return nil
}

// Frames returns the stack's frames from root to current, for diagnostics
// and for the authorization evaluator's parent-chain walk.
func (s *Stack) Frames() []*Frame {
	return append([]*Frame(nil), s.frames...)
}
