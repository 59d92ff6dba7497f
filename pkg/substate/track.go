package substate

import (
	"fmt"
	"sync"

	"github.com/ledgerkernel/engine/pkg/id"
)

type lockEntry struct {
	addr  Address
	mode  LockMode
	frame int
}

// Track is the per-transaction transactional overlay between the kernel and
// a Database. It holds a lock table keyed by opaque LockHandle, an overlay
// of values read from or written to during the transaction, and a
// deterministic record of inserts/removals so Commit can be replayed
// byte-for-byte against the same Database snapshot.
//
// Track is not safe for concurrent use across frames; the kernel's
// call-frame stack is single-threaded by design (see the concurrency model
// in the top-level spec), so a single mutex here only guards against
// accidental reentrancy, not genuine parallelism.
type Track struct {
	mu sync.Mutex

	db Database

	nextHandle LockHandle
	locks      map[LockHandle]lockEntry

	mutableLocked map[Address]LockHandle
	readLocked    map[Address]map[LockHandle]struct{}

	overlay map[Address]Value
	deleted map[Address]struct{}

	writeOrder []Address
	dirty      map[Address]struct{}

	// forceWritten marks every address ever written through a ForceWrite
	// lock: the fee escrow write(s) a commit-failure must still apply even
	// though the rest of the overlay is discarded. See FeeUpdates.
	forceWritten map[Address]struct{}
}

// NewTrack returns a fresh overlay over db.
func NewTrack(db Database) *Track {
	return &Track{
		db:            db,
		locks:         make(map[LockHandle]lockEntry),
		mutableLocked: make(map[Address]LockHandle),
		readLocked:    make(map[Address]map[LockHandle]struct{}),
		overlay:       make(map[Address]Value),
		deleted:       make(map[Address]struct{}),
		dirty:         make(map[Address]struct{}),
		forceWritten:  make(map[Address]struct{}),
	}
}

// AcquireLock locks addr in the requested mode on behalf of frame (the
// call-frame depth requesting it, used only for diagnostics). A read-only
// lock may be taken alongside other read-only locks on the same address but
// never alongside a mutable lock; a mutable lock is always exclusive.
// ForceWrite bypasses the mutual-exclusion check entirely, since it is used
// only by the kernel's own fee escrow write, taken before application logic
// runs at all (so it can survive a later commit-failure independently of
// whatever locks that logic goes on to take).
func (t *Track) AcquireLock(addr Address, flags LockFlags, frame int) (LockHandle, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if flags.Mode != LockModeForceWrite {
		if holder, locked := t.mutableLocked[addr]; locked {
			return 0, fmt.Errorf("%w: %s held mutably by handle %d", ErrSubstateLocked, addr, holder)
		}
		if flags.Mode == LockModeMutable && len(t.readLocked[addr]) > 0 {
			return 0, fmt.Errorf("%w: %s held by %d read locks", ErrSubstateLocked, addr, len(t.readLocked[addr]))
		}
	}

	if flags.MustExist {
		if _, ok := t.overlay[addr]; !ok {
			if _, isDeleted := t.deleted[addr]; isDeleted {
				return 0, fmt.Errorf("%w: %s", ErrNotFound, addr)
			}
			raw, ok, err := t.db.GetSubstate(addr.Node, addr.Partition, []byte(addr.Key))
			if err != nil {
				return 0, err
			}
			if !ok {
				return 0, fmt.Errorf("%w: %s", ErrNotFound, addr)
			}
			t.overlay[addr] = Value(raw)
		}
	}

	t.nextHandle++
	h := t.nextHandle
	t.locks[h] = lockEntry{addr: addr, mode: flags.Mode, frame: frame}

	switch flags.Mode {
	case LockModeMutable, LockModeForceWrite:
		t.mutableLocked[addr] = h
	case LockModeReadOnly:
		set, ok := t.readLocked[addr]
		if !ok {
			set = make(map[LockHandle]struct{})
			t.readLocked[addr] = set
		}
		set[h] = struct{}{}
	}
	if flags.Mode == LockModeForceWrite {
		t.forceWritten[addr] = struct{}{}
	}
	return h, nil
}

// Read returns the current value at the handle's address: the overlay value
// if one exists, else the value loaded from the Database (and cached into
// the overlay), else ErrNotFound.
func (t *Track) Read(handle LockHandle) (Value, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	entry, ok := t.locks[handle]
	if !ok {
		return nil, ErrUnknownLock
	}
	if v, ok := t.overlay[entry.addr]; ok {
		return v, nil
	}
	if _, ok := t.deleted[entry.addr]; ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, entry.addr)
	}
	raw, ok, err := t.db.GetSubstate(entry.addr.Node, entry.addr.Partition, []byte(entry.addr.Key))
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, entry.addr)
	}
	t.overlay[entry.addr] = Value(raw)
	return Value(raw), nil
}

// Write replaces the value at the handle's address. The handle must have
// been acquired with LockModeMutable or LockModeForceWrite.
func (t *Track) Write(handle LockHandle, value Value) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	entry, ok := t.locks[handle]
	if !ok {
		return ErrUnknownLock
	}
	if entry.mode == LockModeReadOnly {
		return fmt.Errorf("%w: handle %d", ErrLockModeMismatch, handle)
	}
	t.overlay[entry.addr] = value
	delete(t.deleted, entry.addr)
	t.markDirty(entry.addr)
	return nil
}

// ReleaseLock drops the handle. Releasing does not discard the written
// value; it only frees the address for the next lock acquisition.
func (t *Track) ReleaseLock(handle LockHandle) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	entry, ok := t.locks[handle]
	if !ok {
		return ErrUnknownLock
	}
	delete(t.locks, handle)

	switch entry.mode {
	case LockModeMutable, LockModeForceWrite:
		if t.mutableLocked[entry.addr] == handle {
			delete(t.mutableLocked, entry.addr)
		}
	case LockModeReadOnly:
		if set, ok := t.readLocked[entry.addr]; ok {
			delete(set, handle)
			if len(set) == 0 {
				delete(t.readLocked, entry.addr)
			}
		}
	}
	return nil
}

// Insert creates a brand-new substate outside of the lock/handle protocol,
// used when CreateNode materializes a NodeInit's partitions in one step.
func (t *Track) Insert(addr Address, value Value) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.overlay[addr] = value
	delete(t.deleted, addr)
	t.markDirty(addr)
}

// Remove deletes a substate entirely, used by DropNode once all of a node's
// partitions are torn down.
func (t *Track) Remove(addr Address) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.overlay, addr)
	t.deleted[addr] = struct{}{}
	t.markDirty(addr)
}

func (t *Track) markDirty(addr Address) {
	if _, ok := t.dirty[addr]; !ok {
		t.dirty[addr] = struct{}{}
		t.writeOrder = append(t.writeOrder, addr)
	}
}

// ScanSorted lists the keys currently visible under (node, partition): keys
// already materialized in the database merged with overlay insertions and
// minus overlay deletions, returned in ascending key order. It is used for
// PartitionKindIndex iteration.
func (t *Track) ScanSorted(node id.NodeID, partition PartitionNumber) ([][]byte, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	seen := make(map[string]struct{})
	var keys [][]byte

	dbKeys, err := t.db.ListKeys(node, partition)
	if err != nil {
		return nil, err
	}
	for _, k := range dbKeys {
		addr := Address{Node: node, Partition: partition, Key: string(k)}
		if _, deleted := t.deleted[addr]; deleted {
			continue
		}
		if _, ok := seen[string(k)]; ok {
			continue
		}
		seen[string(k)] = struct{}{}
		keys = append(keys, k)
	}
	for addr := range t.overlay {
		if addr.Node != node || addr.Partition != partition {
			continue
		}
		if _, ok := seen[addr.Key]; ok {
			continue
		}
		seen[addr.Key] = struct{}{}
		keys = append(keys, []byte(addr.Key))
	}

	sortBytes(keys)
	return keys, nil
}

func sortBytes(keys [][]byte) {
	for i := 1; i < len(keys); i++ {
		for j := i; j > 0 && string(keys[j-1]) > string(keys[j]); j-- {
			keys[j-1], keys[j] = keys[j], keys[j-1]
		}
	}
}

// Peek returns the value at addr without acquiring a lock or requiring one to
// already be held: the overlay value if one exists, else whatever the
// backing Database has, else (nil, false, nil). It exists for bookkeeping
// reads the kernel itself needs outside the application-facing lock
// protocol (recovering a node's recorded type information across
// transactions), not for executor-visible substate access.
func (t *Track) Peek(addr Address) (Value, bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if v, ok := t.overlay[addr]; ok {
		return v, true, nil
	}
	if _, ok := t.deleted[addr]; ok {
		return nil, false, nil
	}
	raw, ok, err := t.db.GetSubstate(addr.Node, addr.Partition, []byte(addr.Key))
	if err != nil {
		return nil, false, err
	}
	if !ok {
		return nil, false, nil
	}
	return Value(raw), true, nil
}

// OutstandingLocks reports the number of locks still held, for the kernel
// to assert zero before it commits.
func (t *Track) OutstandingLocks() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.locks)
}

// Commit drains the overlay into a StateUpdates batch in deterministic
// write order. It does not touch the backing Database and does not check
// OutstandingLocks; the kernel is responsible for calling it only once
// every frame has unwound and every lock has been released, and the caller
// on the other side of the kernel boundary is responsible for applying the
// returned batch to the Database — Track never mutates the store it was
// built over.
func (t *Track) Commit() *StateUpdates {
	t.mu.Lock()
	defer t.mu.Unlock()

	updates := NewStateUpdates()
	for _, addr := range t.writeOrder {
		if v, ok := t.overlay[addr]; ok {
			updates.put(addr, v)
			continue
		}
		if _, ok := t.deleted[addr]; ok {
			updates.remove(addr)
		}
	}
	return updates
}

// FeeUpdates returns only the addresses written through a ForceWrite lock,
// in the same deterministic order Commit uses. It is what a commit-failure
// outcome applies to the store: the rest of the overlay — the business
// logic's own writes — is discarded, but the fee escrow charged before
// execution started still lands.
func (t *Track) FeeUpdates() *StateUpdates {
	t.mu.Lock()
	defer t.mu.Unlock()

	updates := NewStateUpdates()
	for _, addr := range t.writeOrder {
		if _, ok := t.forceWritten[addr]; !ok {
			continue
		}
		if v, ok := t.overlay[addr]; ok {
			updates.put(addr, v)
			continue
		}
		if _, ok := t.deleted[addr]; ok {
			updates.remove(addr)
		}
	}
	return updates
}
