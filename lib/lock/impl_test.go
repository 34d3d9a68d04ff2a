package lock

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/lockforge/lockd/lib/store"
	"github.com/lockforge/lockd/lib/store/mstore"
)

// --------------------------------------------------------------------------
// Test doubles
// --------------------------------------------------------------------------

// countingStore counts store calls to prove validation happens before any
// store operation is attempted.
type countingStore struct {
	store.IConditionalStore
	calls atomic.Int64
}

func (c *countingStore) SetIfAbsent(key string, value []byte, ttl time.Duration) (bool, error) {
	c.calls.Add(1)
	return c.IConditionalStore.SetIfAbsent(key, value, ttl)
}

func (c *countingStore) CompareAndDelete(key string, expected []byte) (bool, error) {
	c.calls.Add(1)
	return c.IConditionalStore.CompareAndDelete(key, expected)
}

func (c *countingStore) CompareAndExtend(key string, expected []byte, ttl time.Duration) (bool, error) {
	c.calls.Add(1)
	return c.IConditionalStore.CompareAndExtend(key, expected, ttl)
}

func (c *countingStore) Get(key string) ([]byte, bool, error) {
	c.calls.Add(1)
	return c.IConditionalStore.Get(key)
}

// failingStore fails every operation with an unavailable error.
type failingStore struct{}

var errDown = store.NewError(store.RetCUnavailable, "store is down")

func (failingStore) SetIfAbsent(string, []byte, time.Duration) (bool, error) {
	return false, errDown
}
func (failingStore) CompareAndDelete(string, []byte) (bool, error)                { return false, errDown }
func (failingStore) CompareAndExtend(string, []byte, time.Duration) (bool, error) { return false, errDown }
func (failingStore) Get(string) ([]byte, bool, error)                             { return nil, false, errDown }

// --------------------------------------------------------------------------
// Tests
// --------------------------------------------------------------------------

func newTestManager(t *testing.T) ILockManager {
	t.Helper()
	s := mstore.NewStore(nil)
	t.Cleanup(func() { s.Close() })
	return NewLockManager(s)
}

func TestAcquireRelease(t *testing.T) {
	mgr := newTestManager(t)

	// First acquire wins
	handle, ok, err := mgr.Acquire("job:42", time.Minute)
	if err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	if !ok || handle == nil {
		t.Fatal("Expected first Acquire to succeed")
	}
	if handle.Key != "job:42" || handle.Token == "" {
		t.Errorf("Handle not populated: %+v", handle)
	}

	// Second acquire loses, with no error
	h2, ok, err := mgr.Acquire("job:42", time.Minute)
	if err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	if ok || h2 != nil {
		t.Error("Expected second Acquire of a held lock to return false")
	}

	// The holder can release
	ok, err = mgr.Release(handle)
	if err != nil {
		t.Fatalf("Release failed: %v", err)
	}
	if !ok {
		t.Error("Expected Release by the holder to return true")
	}

	// After release the lock is free again
	h3, ok, err := mgr.Acquire("job:42", time.Minute)
	if err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	if !ok {
		t.Fatal("Expected Acquire to succeed after Release")
	}
	if h3.Token == handle.Token {
		t.Error("Expected a fresh token for a fresh acquisition")
	}

	// Releasing with the old, already-released handle must not touch the
	// new holder's lock
	ok, err = mgr.Release(handle)
	if err != nil {
		t.Fatalf("Release failed: %v", err)
	}
	if ok {
		t.Error("Expected Release with a stale handle to return false")
	}
	if held, _ := mgr.IsHeld("job:42"); !held {
		t.Error("Stale Release must leave the current lock alone")
	}
}

func TestLeaseExpiry(t *testing.T) {
	mgr := newTestManager(t)

	handle, ok, err := mgr.Acquire("job:42", 100*time.Millisecond)
	if err != nil || !ok {
		t.Fatalf("Acquire failed: ok=%v err=%v", ok, err)
	}

	time.Sleep(150 * time.Millisecond)

	// Expired lock is free for the next holder
	h2, ok, err := mgr.Acquire("job:42", time.Minute)
	if err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	if !ok {
		t.Fatal("Expected Acquire to succeed after lease expiry")
	}
	if h2.Token == handle.Token {
		t.Error("Expected the new acquisition to carry a different token")
	}

	// The first holder's handle is now stale everywhere
	if ok, err := mgr.Release(handle); err != nil || ok {
		t.Errorf("Expected stale Release to return false, got ok=%v err=%v", ok, err)
	}
	if ok, err := mgr.Renew(handle, time.Minute); err != nil || ok {
		t.Errorf("Expected stale Renew to return false, got ok=%v err=%v", ok, err)
	}

	// And the second holder is untouched by the stale calls
	if held, _ := mgr.IsHeld("job:42"); !held {
		t.Error("Stale calls must leave the current lock alone")
	}
}

func TestRenewExtendsLease(t *testing.T) {
	mgr := newTestManager(t)

	handle, ok, err := mgr.Acquire("job:42", 100*time.Millisecond)
	if err != nil || !ok {
		t.Fatalf("Acquire failed: ok=%v err=%v", ok, err)
	}

	// Renew before the deadline pushes it out
	ok, err = mgr.Renew(handle, time.Minute)
	if err != nil {
		t.Fatalf("Renew failed: %v", err)
	}
	if !ok {
		t.Fatal("Expected Renew by the holder to return true")
	}

	// Past the original deadline the lock must still be held
	time.Sleep(150 * time.Millisecond)

	held, err := mgr.IsHeld("job:42")
	if err != nil {
		t.Fatalf("IsHeld failed: %v", err)
	}
	if !held {
		t.Error("Expected the renewed lock to survive its original deadline")
	}

	// ... and still owned by the same handle
	if ok, _ := mgr.Release(handle); !ok {
		t.Error("Expected the holder to release its renewed lock")
	}
}

func TestIsHeld(t *testing.T) {
	mgr := newTestManager(t)

	held, err := mgr.IsHeld("job:42")
	if err != nil {
		t.Fatalf("IsHeld failed: %v", err)
	}
	if held {
		t.Error("Expected IsHeld to return false for a free lock")
	}

	handle, _, err := mgr.Acquire("job:42", time.Minute)
	if err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}

	held, err = mgr.IsHeld("job:42")
	if err != nil {
		t.Fatalf("IsHeld failed: %v", err)
	}
	if !held {
		t.Error("Expected IsHeld to return true for a held lock")
	}

	mgr.Release(handle)

	if held, _ := mgr.IsHeld("job:42"); held {
		t.Error("Expected IsHeld to return false after Release")
	}
}

func TestValidation(t *testing.T) {
	backing := mstore.NewStore(nil)
	defer backing.Close()
	counting := &countingStore{IConditionalStore: backing}
	mgr := NewLockManager(counting)

	if _, _, err := mgr.Acquire("", time.Minute); !errors.Is(err, ErrInvalidKey) {
		t.Errorf("Expected ErrInvalidKey, got %v", err)
	}
	if _, _, err := mgr.Acquire("job:42", 0); !errors.Is(err, ErrInvalidLease) {
		t.Errorf("Expected ErrInvalidLease, got %v", err)
	}
	if _, _, err := mgr.Acquire("job:42", -time.Second); !errors.Is(err, ErrInvalidLease) {
		t.Errorf("Expected ErrInvalidLease, got %v", err)
	}
	if _, err := mgr.Release(nil); !errors.Is(err, ErrNilHandle) {
		t.Errorf("Expected ErrNilHandle, got %v", err)
	}
	if _, err := mgr.Release(&Handle{Key: "job:42"}); !errors.Is(err, ErrNilHandle) {
		t.Errorf("Expected ErrNilHandle for tokenless handle, got %v", err)
	}
	if _, err := mgr.Renew(nil, time.Minute); !errors.Is(err, ErrNilHandle) {
		t.Errorf("Expected ErrNilHandle, got %v", err)
	}
	if _, err := mgr.Renew(&Handle{Key: "job:42", Token: "t"}, 0); !errors.Is(err, ErrInvalidLease) {
		t.Errorf("Expected ErrInvalidLease, got %v", err)
	}
	if _, err := mgr.IsHeld(""); !errors.Is(err, ErrInvalidKey) {
		t.Errorf("Expected ErrInvalidKey, got %v", err)
	}

	// Validation failures must never reach the store
	if calls := counting.calls.Load(); calls != 0 {
		t.Errorf("Expected zero store calls for invalid input, got %d", calls)
	}
}

func TestStoreErrorsPropagate(t *testing.T) {
	mgr := NewLockManager(failingStore{})

	// A failing store must surface as an error, never as a quiet false
	if _, _, err := mgr.Acquire("job:42", time.Minute); !store.IsUnavailable(err) {
		t.Errorf("Expected unavailable error from Acquire, got %v", err)
	}
	handle := &Handle{Key: "job:42", Token: "t"}
	if _, err := mgr.Release(handle); !store.IsUnavailable(err) {
		t.Errorf("Expected unavailable error from Release, got %v", err)
	}
	if _, err := mgr.Renew(handle, time.Minute); !store.IsUnavailable(err) {
		t.Errorf("Expected unavailable error from Renew, got %v", err)
	}
	if _, err := mgr.IsHeld("job:42"); !store.IsUnavailable(err) {
		t.Errorf("Expected unavailable error from IsHeld, got %v", err)
	}
}

func TestConcurrentAcquireSingleWinner(t *testing.T) {
	mgr := newTestManager(t)

	numWorkers := 32
	var winners atomic.Int64
	var wg sync.WaitGroup
	wg.Add(numWorkers)

	start := make(chan struct{})
	for i := 0; i < numWorkers; i++ {
		go func() {
			defer wg.Done()
			<-start
			_, ok, err := mgr.Acquire("contended", time.Minute)
			if err != nil {
				t.Errorf("Acquire failed: %v", err)
				return
			}
			if ok {
				winners.Add(1)
			}
		}()
	}

	close(start)
	wg.Wait()

	if got := winners.Load(); got != 1 {
		t.Errorf("Expected exactly 1 winner, got %d", got)
	}
}

func TestTokensAreUnique(t *testing.T) {
	mgr := newTestManager(t)

	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		handle, ok, err := mgr.Acquire("job:42", time.Minute)
		if err != nil || !ok {
			t.Fatalf("Acquire failed: ok=%v err=%v", ok, err)
		}
		if seen[handle.Token] {
			t.Fatalf("Token %q issued twice", handle.Token)
		}
		seen[handle.Token] = true
		if ok, _ := mgr.Release(handle); !ok {
			t.Fatal("Release failed")
		}
	}
}
