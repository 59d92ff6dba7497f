package frame

import (
	"github.com/ledgerkernel/engine/pkg/id"
	"github.com/ledgerkernel/engine/pkg/substate"
)

// ActorKind distinguishes the three shapes an invocation's actor can take.
type ActorKind int

const (
	// ActorRoot is the synthetic actor of the transaction's root frame.
	ActorRoot ActorKind = iota
	// ActorFunction is a package-scoped function call with no receiver.
	ActorFunction
	// ActorMethod is a call against an instantiated component.
	ActorMethod
)

// Actor identifies the blueprint/function/method currently executing in a
// frame.
type Actor struct {
	Kind      ActorKind
	Package   id.NodeID
	Blueprint string
	Ident     string

	// Receiver is the zero id for ActorRoot/ActorFunction.
	Receiver id.NodeID

	// GlobalAddress is set iff Receiver is (or has been) globalized; it is
	// the address get_global_address resolves to when this frame is the
	// innermost one carrying it. nil for function calls and for methods on
	// a node that has not yet been globalized.
	GlobalAddress *id.NodeID
}

func (a Actor) isGlobal() bool {
	return a.GlobalAddress != nil
}

// visibleRef records one entry of a frame's visible-references set.
type visibleRef struct {
	// extended is true for references the frame gained from a parent's
	// argument payload, as opposed to globals known unconditionally or
	// nodes the frame itself owns.
	extended bool
}

// Frame is one call-frame: an actor identity, the nodes it owns, the
// references it can see, its auth zone, and the lock handles it has
// acquired and not yet released.
type Frame struct {
	Depth int
	Actor Actor

	// AuthZone is this frame's own transient auth-zone node, allocated by
	// the kernel on every push_frame.
	AuthZone id.NodeID

	owned   map[id.NodeID]struct{}
	visible map[id.NodeID]visibleRef
	locks   map[substate.LockHandle]struct{}
}

func newFrame(depth int, actor Actor, authZone id.NodeID) *Frame {
	return &Frame{
		Depth:    depth,
		Actor:    actor,
		AuthZone: authZone,
		owned:    make(map[id.NodeID]struct{}),
		visible:  make(map[id.NodeID]visibleRef),
		locks:    make(map[substate.LockHandle]struct{}),
	}
}

// Owns reports whether node is in this frame's owned-node set.
func (f *Frame) Owns(node id.NodeID) bool {
	_, ok := f.owned[node]
	return ok
}

// Visible reports whether node may be touched by this frame: owned, or
// present in the visible-references set (globals and extended references).
func (f *Frame) Visible(node id.NodeID) bool {
	if f.Owns(node) {
		return true
	}
	_, ok := f.visible[node]
	return ok
}

// addOwned records a freshly allocated or transferred-in node as owned.
func (f *Frame) addOwned(node id.NodeID) {
	f.owned[node] = struct{}{}
}

func (f *Frame) removeOwned(node id.NodeID) {
	delete(f.owned, node)
}

// addVisible records a non-owned reference, marking whether it was gained
// via extension (passed down from an ancestor's argument payload) or is an
// unconditionally known global address.
func (f *Frame) addVisible(node id.NodeID, extended bool) {
	if f.Owns(node) {
		return
	}
	if existing, ok := f.visible[node]; ok && existing.extended {
		return
	}
	f.visible[node] = visibleRef{extended: extended}
}

func (f *Frame) removeVisible(node id.NodeID) {
	delete(f.visible, node)
}

// OwnedNodes returns a snapshot of the frame's owned-node ids. Order is
// unspecified; callers that need determinism should sort.
func (f *Frame) OwnedNodes() []id.NodeID {
	out := make([]id.NodeID, 0, len(f.owned))
	for n := range f.owned {
		out = append(out, n)
	}
	return out
}

func (f *Frame) trackLock(h substate.LockHandle) {
	f.locks[h] = struct{}{}
}

func (f *Frame) untrackLock(h substate.LockHandle) {
	delete(f.locks, h)
}

// OutstandingLocks reports how many lock handles this frame still holds.
func (f *Frame) OutstandingLocks() int {
	return len(f.locks)
}
