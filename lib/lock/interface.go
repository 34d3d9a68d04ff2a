package lock

import (
	"errors"
	"time"
)

// Handle identifies one acquisition of one lock. It is returned by a
// successful Acquire and must be passed back to Release and Renew. The
// token doubles as a fencing value: no two acquisitions, not even of the
// same key by the same process, ever share a token.
type Handle struct {
	Key   string // The locked key
	Token string // Unique token for this acquisition
}

// Validation errors. These are reported before any store operation is
// attempted, so a call failing with one of them has provably not touched
// the store.
var (
	// ErrInvalidKey is returned when the lock key is empty.
	ErrInvalidKey = errors.New("lock key must not be empty")

	// ErrInvalidLease is returned when the lease duration is not positive.
	ErrInvalidLease = errors.New("lease duration must be positive")

	// ErrNilHandle is returned when Release or Renew is called with a nil
	// or incomplete handle.
	ErrNilHandle = errors.New("lock handle must not be nil or empty")
)

// ILockManager defines the interface for a distributed lock provider.
//
// Contention and ownership outcomes are ordinary boolean results, not
// errors: a false return from Acquire means the lock is busy, a false
// return from Release or Renew means the caller no longer owns the lock.
// A non-nil error always means the outcome is unknown (validation aside)
// and must never be read as "not held".
type ILockManager interface {
	// Acquire attempts to take the lock for key with the given lease.
	// On success it returns a handle and true. If another holder owns the
	// lock, it returns nil and false with no error. The lease bounds how
	// long the lock survives without a Renew; the store expires it
	// server-side so a crashed holder cannot block the key forever.
	Acquire(key string, lease time.Duration) (handle *Handle, ok bool, err error)

	// Release gives up the lock identified by handle. It returns true if
	// this call removed the lock, and false if the lock was already gone
	// or is now owned by someone else. Release never removes a lock the
	// handle does not own.
	Release(handle *Handle) (ok bool, err error)

	// Renew extends the lease of the lock identified by handle. It
	// returns true if the lease was extended, and false if the lock
	// expired or changed hands in the meantime. A false return means the
	// caller must stop treating the resource as locked.
	Renew(handle *Handle, lease time.Duration) (ok bool, err error)

	// IsHeld reports whether any holder currently owns the lock for key.
	// It is advisory: the answer may be stale the moment it is returned.
	IsHeld(key string) (held bool, err error)
}
