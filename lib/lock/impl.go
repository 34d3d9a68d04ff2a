package lock

import (
	"time"

	"github.com/lockforge/lockd/lib/store"
)

type lockMgrImpl struct {
	store store.IConditionalStore
}

// NewLockManager creates a lock manager on top of a conditional store.
// The manager keeps no state of its own, every lock lives entirely in the
// store. It is therefore safe to create any number of managers on the same
// store, even one per operation: as long as the same store is used, all
// locks behave as expected.
func NewLockManager(store store.IConditionalStore) ILockManager {
	return &lockMgrImpl{
		store: store,
	}
}

// Acquire attempts to take the lock for key with the given lease.
func (lm *lockMgrImpl) Acquire(key string, lease time.Duration) (*Handle, bool, error) {
	// validate before touching the store
	if key == "" {
		return nil, false, ErrInvalidKey
	}
	if lease <= 0 {
		return nil, false, ErrInvalidLease
	}

	token, err := newToken()
	if err != nil {
		return nil, false, err
	}

	// The write and its expiry happen in one atomic store operation, so a
	// holder that crashes right here has either a lock with a deadline or
	// no lock at all.
	ok, err := lm.store.SetIfAbsent(key, []byte(token), lease)
	if err != nil {
		return nil, false, err
	}
	if !ok {
		// someone else holds the lock
		return nil, false, nil
	}

	return &Handle{Key: key, Token: token}, true, nil
}

// Release gives up the lock identified by handle.
func (lm *lockMgrImpl) Release(handle *Handle) (bool, error) {
	if handle == nil || handle.Key == "" || handle.Token == "" {
		return false, ErrNilHandle
	}

	// Only the exact acquisition that created the handle may delete the
	// key. A stale handle whose lease expired and whose key was re-taken
	// by another holder fails the comparison and leaves the new lock
	// untouched.
	return lm.store.CompareAndDelete(handle.Key, []byte(handle.Token))
}

// Renew extends the lease of the lock identified by handle.
func (lm *lockMgrImpl) Renew(handle *Handle, lease time.Duration) (bool, error) {
	if handle == nil || handle.Key == "" || handle.Token == "" {
		return false, ErrNilHandle
	}
	if lease <= 0 {
		return false, ErrInvalidLease
	}

	// The comparison guards against extending a lock that expired and was
	// re-acquired: the new holder's token won't match.
	return lm.store.CompareAndExtend(handle.Key, []byte(handle.Token), lease)
}

// IsHeld reports whether any holder currently owns the lock for key.
func (lm *lockMgrImpl) IsHeld(key string) (bool, error) {
	if key == "" {
		return false, ErrInvalidKey
	}

	_, loaded, err := lm.store.Get(key)
	if err != nil {
		// never fold a store failure into "not held"
		return false, err
	}
	return loaded, nil
}
