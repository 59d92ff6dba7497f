package substate

import "errors"

// Failure semantics per spec §4.1: lock conflicts, missing substates and
// malformed writes are all recoverable at the kernel layer — they propagate
// as an execution failure without corrupting the overlay.
var (
	// ErrSubstateLocked is returned when a mutable lock is requested against
	// an address that already has an outstanding mutable lock, or any lock
	// conflicting with the requested mode.
	ErrSubstateLocked = errors.New("substate: locked")
	// ErrNotFound is returned when a lock requires existence and the
	// address holds no value, or Read finds no value behind a handle.
	ErrNotFound = errors.New("substate: not found")
	// ErrInvalidSubstate is returned by consumers that reject a write as
	// violating their own schema; the track itself never produces it but
	// plumbs it through from Insert/Write callers.
	ErrInvalidSubstate = errors.New("substate: invalid substate")
	// ErrUnknownLock is returned when a LockHandle is unknown to the track,
	// e.g. reused after release.
	ErrUnknownLock = errors.New("substate: unknown lock handle")
	// ErrLockModeMismatch is returned when Write is called against a
	// read-only lock.
	ErrLockModeMismatch = errors.New("substate: lock mode mismatch")
)
