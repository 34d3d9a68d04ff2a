// Package lock implements a distributed mutual-exclusion lock on top of
// key-value stores that implement the store.IConditionalStore interface.
// It provides a simple yet robust way to coordinate access to shared
// resources across multiple processes or nodes.
//
// The lock manager only ever stores state in the provided store and has no
// other internal state. It is therefore safe to create multiple managers on
// the same store, even a new manager for every operation. As long as the
// same store is used every time, all locks work as expected.
//
// Core Functionality:
//   - Lock acquisition with per-acquisition fencing tokens
//   - Automatic lock expiration through store-side leases
//   - Safe release and renew operations that verify ownership
//
// Implementation Approach:
//
//	Locks are implemented by leveraging the atomic conditional operations
//	of the underlying store. Specifically:
//
//	- Acquisition: Attempts to create the key using SetIfAbsent, which
//	  guarantees that only one requester can successfully create it. The
//	  value is a token unique to this acquisition, and the lease is
//	  applied in the same atomic operation as the write. There is no
//	  moment at which the key exists without its deadline, so a client
//	  crashing mid-acquire can never leave a lock that outlives its
//	  lease.
//
//	- Leases: Every lock carries a mandatory lease. The store expires the
//	  key server-side when the lease runs out, preventing deadlocks if a
//	  holder crashes. Holders doing long work extend their lease with
//	  Renew before it runs out.
//
//	- Safe Release: Release uses CompareAndDelete with the handle's
//	  token, so only the exact acquisition that took the lock can remove
//	  it. A stale handle whose lease expired, where the key has since
//	  been taken by another holder, fails the comparison and leaves the
//	  new lock untouched.
//
//	- Safe Renew: Renew uses CompareAndExtend with the same token check.
//	  A false return tells the holder its lease is gone and the resource
//	  must no longer be treated as locked.
//
// Error Semantics:
//
//	Contention and ownership outcomes are ordinary boolean results. A
//	non-nil error means the store could not be asked or could not answer,
//	and the outcome is unknown. Callers must not interpret an error as
//	"lock not held": after an Acquire that failed with an error, the lock
//	may or may not exist, and the safe reaction is to retry or give up,
//	never to assume the resource is free. Validation errors (empty key,
//	non-positive lease, nil handle) are reported before any store
//	operation is attempted.
//
// Thread Safety:
//
//	The lock manager is as thread-safe as the underlying store
//	implementation. All operations are performed through the store
//	interface, which provides the atomicity guarantees.
//
// Usage Example:
//
//	mgr := lock.NewLockManager(st)
//
//	handle, ok, err := mgr.Acquire("resource:123", 30*time.Second)
//	if err != nil {
//	    // store unavailable, outcome unknown
//	}
//	if !ok {
//	    // lock is busy, try again later
//	}
//
//	// ... use the resource, renewing if the work takes long ...
//	if ok, err := mgr.Renew(handle, 30*time.Second); err != nil || !ok {
//	    // lease lost, stop using the resource
//	}
//
//	// release when done
//	released, err := mgr.Release(handle)
//
// Performance Impact:
//
//	Every lock operation is exactly one store operation. The performance
//	characteristics therefore depend entirely on the underlying store
//	implementation.
package lock
