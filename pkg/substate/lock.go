package substate

// LockMode mirrors the three lock modes of spec §4.1/§5: a read-only lock
// may coexist with other read-only locks, a mutable lock is exclusive, and a
// force-write lock is used only for commit-phase accounting (fee escrow)
// where the track must accept a write regardless of the ordinary single-
// mutable-lock rule.
type LockMode int

const (
	LockModeReadOnly LockMode = iota
	LockModeMutable
	LockModeForceWrite
)

// LockFlags are passed to AcquireLock.
type LockFlags struct {
	Mode LockMode
	// MustExist requires the substate to already hold a value; otherwise
	// AcquireLock fails with ErrNotFound instead of allowing a fresh write.
	MustExist bool
}

func ReadOnly() LockFlags     { return LockFlags{Mode: LockModeReadOnly, MustExist: true} }
func Mutable() LockFlags      { return LockFlags{Mode: LockModeMutable} }
func ForceWrite() LockFlags   { return LockFlags{Mode: LockModeForceWrite} }
func (f LockFlags) Exists() LockFlags { f.MustExist = true; return f }

// LockHandle is an opaque reference-counted key into the track's working
// set, returned by AcquireLock and consumed by Read/Write/ReleaseLock.
type LockHandle uint64
