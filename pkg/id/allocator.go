package id

import "sync"

// Allocator reserves fresh NodeIDs for one transaction. It is the Go stand-in
// for the design note "Global, process-wide state... replace with an
// explicit kernel context value threaded through every API call": rather
// than a process-wide counter, a fresh Allocator is created when a
// transaction begins and discarded when it ends.
type Allocator struct {
	mu       sync.Mutex
	counters map[EntityType]uint64
}

// NewAllocator returns an allocator with all counters at zero.
func NewAllocator() *Allocator {
	return &Allocator{counters: make(map[EntityType]uint64)}
}

// Allocate reserves the next unused id for the given entity type. Allocation
// order is the allocation-call order, which is itself a function of the
// executor's deterministic control flow, so two runs of the same
// transaction allocate identical ids.
func (a *Allocator) Allocate(et EntityType) (NodeID, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	seq := a.counters[et]
	if seq == ^uint64(0) {
		return Zero, ErrIDSpaceExhausted
	}
	a.counters[et] = seq + 1
	return newNodeID(et, seq), nil
}
