package testing

import (
	"bytes"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/lockforge/lockd/lib/store"
)

// StoreFactory is a function that creates a new instance of an IStore
// implementation
type StoreFactory func() store.IStore

// AdvanceFunc moves the clock of the store under test forward. For stores on
// the real clock this is time.Sleep; test servers with a virtual clock
// (e.g. miniredis) fast-forward instead.
type AdvanceFunc func(d time.Duration)

// RunStoreTests runs a comprehensive test suite for an IStore implementation.
func RunStoreTests(t *testing.T, name string, factory StoreFactory, advance AdvanceFunc) {
	t.Run(name, func(t *testing.T) {
		t.Run("Set&Get", func(t *testing.T) {
			testSetGet(t, factory())
		})

		t.Run("Delete", func(t *testing.T) {
			testDelete(t, factory())
		})

		t.Run("Has", func(t *testing.T) {
			testHas(t, factory())
		})

		t.Run("SetIfAbsent", func(t *testing.T) {
			testSetIfAbsent(t, factory())
		})

		t.Run("CompareAndDelete", func(t *testing.T) {
			testCompareAndDelete(t, factory())
		})

		t.Run("CompareAndExtend", func(t *testing.T) {
			testCompareAndExtend(t, factory(), advance)
		})

		t.Run("Increment", func(t *testing.T) {
			testIncrement(t, factory())
		})

		t.Run("KeyExpiry", func(t *testing.T) {
			testKeyExpiry(t, factory(), advance)
		})

		t.Run("SetIfAbsentExpiry", func(t *testing.T) {
			testSetIfAbsentExpiry(t, factory(), advance)
		})

		t.Run("ConcurrentSetIfAbsent", func(t *testing.T) {
			testConcurrentSetIfAbsent(t, factory())
		})

		t.Run("EdgeCases", func(t *testing.T) {
			testEdgeCases(t, factory())
		})
	})
}

// --------------------------------------------------------------------------
// Test functions
// --------------------------------------------------------------------------

func testSetGet(t *testing.T, s store.IStore) {
	defer s.Close()

	testKey := "test-key"
	testValue1 := []byte("test-value1")
	testValue2 := []byte("test-value2")

	if err := s.Set(testKey, testValue1, 0); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	result, exists, err := s.Get(testKey)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !exists {
		t.Errorf("Expected key %s to exist after Set", testKey)
	}
	if !bytes.Equal(result, testValue1) {
		t.Errorf("Expected value %s, got %s", testValue1, result)
	}

	if err := s.Set(testKey, testValue2, 0); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	result, exists, err = s.Get(testKey)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !exists {
		t.Errorf("Expected key %s to exist after Set", testKey)
	}
	if !bytes.Equal(result, testValue2) {
		t.Errorf("Expected value %s, got %s", testValue2, result)
	}

	_, exists, err = s.Get("nonexistent-key")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if exists {
		t.Errorf("Expected nonexistent key to return exists=false")
	}

	retrievedValue, _, _ := s.Get(testKey)
	retrievedValue[0] = 'X'

	originalValue, _, _ := s.Get(testKey)
	if bytes.Equal(retrievedValue, originalValue) {
		t.Errorf("Get should return a copy, not a reference to the stored value")
	}
}

func testDelete(t *testing.T, s store.IStore) {
	defer s.Close()

	testKey := "delete-test-key"
	testValue := []byte("delete-test-value")

	if err := s.Set(testKey, testValue, 0); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	if err := s.Delete(testKey); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	_, exists, err := s.Get(testKey)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if exists {
		t.Errorf("Expected key %s to not exist after Delete", testKey)
	}

	// Deleting a nonexistent key must not fail
	if err := s.Delete("nonexistent-key"); err != nil {
		t.Errorf("Delete of nonexistent key failed: %v", err)
	}
}

func testHas(t *testing.T, s store.IStore) {
	defer s.Close()

	testKey := "has-test-key"

	loaded, err := s.Has(testKey)
	if err != nil {
		t.Fatalf("Has failed: %v", err)
	}
	if loaded {
		t.Errorf("Expected Has to return false for missing key")
	}

	if err := s.Set(testKey, []byte("v"), 0); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	loaded, err = s.Has(testKey)
	if err != nil {
		t.Fatalf("Has failed: %v", err)
	}
	if !loaded {
		t.Errorf("Expected Has to return true after Set")
	}
}

func testSetIfAbsent(t *testing.T, s store.IStore) {
	defer s.Close()

	testKey := "setnx-test-key"
	first := []byte("first")
	second := []byte("second")

	ok, err := s.SetIfAbsent(testKey, first, 0)
	if err != nil {
		t.Fatalf("SetIfAbsent failed: %v", err)
	}
	if !ok {
		t.Fatalf("Expected first SetIfAbsent to succeed")
	}

	ok, err = s.SetIfAbsent(testKey, second, 0)
	if err != nil {
		t.Fatalf("SetIfAbsent failed: %v", err)
	}
	if ok {
		t.Errorf("Expected second SetIfAbsent to fail for existing key")
	}

	result, _, err := s.Get(testKey)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !bytes.Equal(result, first) {
		t.Errorf("Expected value %s to survive, got %s", first, result)
	}

	// After an unconditional delete the key is free again
	if err := s.Delete(testKey); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	ok, err = s.SetIfAbsent(testKey, second, 0)
	if err != nil {
		t.Fatalf("SetIfAbsent failed: %v", err)
	}
	if !ok {
		t.Errorf("Expected SetIfAbsent to succeed after Delete")
	}
}

func testCompareAndDelete(t *testing.T, s store.IStore) {
	defer s.Close()

	testKey := "cad-test-key"
	testValue := []byte("cad-test-value")

	// Missing key: no-op, no error
	ok, err := s.CompareAndDelete(testKey, testValue)
	if err != nil {
		t.Fatalf("CompareAndDelete failed: %v", err)
	}
	if ok {
		t.Errorf("Expected CompareAndDelete of missing key to return false")
	}

	if err := s.Set(testKey, testValue, 0); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	// Wrong expected value: key survives
	ok, err = s.CompareAndDelete(testKey, []byte("other-value"))
	if err != nil {
		t.Fatalf("CompareAndDelete failed: %v", err)
	}
	if ok {
		t.Errorf("Expected CompareAndDelete with wrong value to return false")
	}
	if loaded, _ := s.Has(testKey); !loaded {
		t.Errorf("Key must survive a failed CompareAndDelete")
	}

	// Matching expected value: key is removed
	ok, err = s.CompareAndDelete(testKey, testValue)
	if err != nil {
		t.Fatalf("CompareAndDelete failed: %v", err)
	}
	if !ok {
		t.Errorf("Expected CompareAndDelete with matching value to return true")
	}
	if loaded, _ := s.Has(testKey); loaded {
		t.Errorf("Key must be gone after a successful CompareAndDelete")
	}
}

func testCompareAndExtend(t *testing.T, s store.IStore, advance AdvanceFunc) {
	defer s.Close()

	testKey := "cax-test-key"
	testValue := []byte("cax-test-value")

	// Missing key: no-op, no error
	ok, err := s.CompareAndExtend(testKey, testValue, time.Second)
	if err != nil {
		t.Fatalf("CompareAndExtend failed: %v", err)
	}
	if ok {
		t.Errorf("Expected CompareAndExtend of missing key to return false")
	}

	if err := s.Set(testKey, testValue, 100*time.Millisecond); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	// Wrong expected value: expiry untouched
	ok, err = s.CompareAndExtend(testKey, []byte("other-value"), time.Minute)
	if err != nil {
		t.Fatalf("CompareAndExtend failed: %v", err)
	}
	if ok {
		t.Errorf("Expected CompareAndExtend with wrong value to return false")
	}

	// Matching expected value: expiry is pushed out
	ok, err = s.CompareAndExtend(testKey, testValue, time.Minute)
	if err != nil {
		t.Fatalf("CompareAndExtend failed: %v", err)
	}
	if !ok {
		t.Errorf("Expected CompareAndExtend with matching value to return true")
	}

	// Past the original deadline the key must still be there
	advance(150 * time.Millisecond)

	result, exists, err := s.Get(testKey)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !exists {
		t.Errorf("Key must survive its original deadline after CompareAndExtend")
	}
	if !bytes.Equal(result, testValue) {
		t.Errorf("Expected value %s, got %s", testValue, result)
	}

	// A positive ttl below one millisecond still arms a deadline. It must
	// never fall into the "clear the expiry" branch and make the key
	// permanent.
	shortKey := "cax-short-ttl-key"
	if err := s.Set(shortKey, testValue, 100*time.Millisecond); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	ok, err = s.CompareAndExtend(shortKey, testValue, 500*time.Microsecond)
	if err != nil {
		t.Fatalf("CompareAndExtend failed: %v", err)
	}
	if !ok {
		t.Errorf("Expected CompareAndExtend with sub-millisecond ttl to return true")
	}

	advance(150 * time.Millisecond)

	if loaded, _ := s.Has(shortKey); loaded {
		t.Errorf("Key extended by a sub-millisecond ttl must still expire")
	}
}

func testIncrement(t *testing.T, s store.IStore) {
	defer s.Close()

	testKey := "incr-test-key"

	// A missing key counts up from zero
	value, err := s.Increment(testKey)
	if err != nil {
		t.Fatalf("Increment failed: %v", err)
	}
	if value != 1 {
		t.Errorf("Expected first Increment to return 1, got %d", value)
	}

	for i := int64(2); i <= 5; i++ {
		value, err = s.Increment(testKey)
		if err != nil {
			t.Fatalf("Increment failed: %v", err)
		}
		if value != i {
			t.Errorf("Expected Increment to return %d, got %d", i, value)
		}
	}

	// The stored representation is a decimal string
	result, _, err := s.Get(testKey)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if string(result) != "5" {
		t.Errorf("Expected stored value \"5\", got %q", result)
	}

	// Incrementing a non-integer value fails
	if err := s.Set("incr-bad-key", []byte("not-a-number"), 0); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if _, err := s.Increment("incr-bad-key"); err == nil {
		t.Errorf("Expected Increment of non-integer value to fail")
	}
}

func testKeyExpiry(t *testing.T, s store.IStore, advance AdvanceFunc) {
	defer s.Close()

	testKey := "expiring-key"
	testValue := []byte("expiring-value")

	if err := s.Set(testKey, testValue, 100*time.Millisecond); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	result, exists, err := s.Get(testKey)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !exists {
		t.Errorf("Key should exist before its deadline")
	}
	if !bytes.Equal(result, testValue) {
		t.Errorf("Expected value %s, got %s", testValue, result)
	}

	advance(150 * time.Millisecond)

	_, exists, err = s.Get(testKey)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if exists {
		t.Errorf("Key should have expired (get)")
	}
	if loaded, _ := s.Has(testKey); loaded {
		t.Errorf("Key should have expired (has)")
	}

	// A key without a ttl never expires
	testKey2 := "not-expiring-key"
	if err := s.Set(testKey2, testValue, 0); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	advance(150 * time.Millisecond)

	if _, exists, _ := s.Get(testKey2); !exists {
		t.Errorf("Key with ttl=0 should never expire")
	}
}

func testSetIfAbsentExpiry(t *testing.T, s store.IStore, advance AdvanceFunc) {
	defer s.Close()

	testKey := "setnx-expiring-key"
	first := []byte("first")
	second := []byte("second")

	ok, err := s.SetIfAbsent(testKey, first, 100*time.Millisecond)
	if err != nil {
		t.Fatalf("SetIfAbsent failed: %v", err)
	}
	if !ok {
		t.Fatalf("Expected first SetIfAbsent to succeed")
	}

	// Before the deadline the key is taken
	ok, err = s.SetIfAbsent(testKey, second, 100*time.Millisecond)
	if err != nil {
		t.Fatalf("SetIfAbsent failed: %v", err)
	}
	if ok {
		t.Errorf("Expected SetIfAbsent to fail before the deadline")
	}

	advance(150 * time.Millisecond)

	// After the deadline the key is free again
	ok, err = s.SetIfAbsent(testKey, second, 100*time.Millisecond)
	if err != nil {
		t.Fatalf("SetIfAbsent failed: %v", err)
	}
	if !ok {
		t.Errorf("Expected SetIfAbsent to succeed after the deadline")
	}

	result, _, err := s.Get(testKey)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !bytes.Equal(result, second) {
		t.Errorf("Expected value %s after re-acquire, got %s", second, result)
	}
}

func testConcurrentSetIfAbsent(t *testing.T, s store.IStore) {
	defer s.Close()

	numKeys := 50
	numWorkers := 10

	var winners atomic.Int64
	var wg sync.WaitGroup
	wg.Add(numWorkers)

	for w := 0; w < numWorkers; w++ {
		go func(w int) {
			defer wg.Done()
			for i := 0; i < numKeys; i++ {
				key := fmt.Sprintf("contended-key-%d", i)
				value := []byte(fmt.Sprintf("worker-%d", w))
				ok, err := s.SetIfAbsent(key, value, 0)
				if err != nil {
					t.Errorf("SetIfAbsent failed: %v", err)
					return
				}
				if ok {
					winners.Add(1)
				}
			}
		}(w)
	}

	wg.Wait()

	// Exactly one worker may win each key
	if got := winners.Load(); got != int64(numKeys) {
		t.Errorf("Expected %d winners, got %d", numKeys, got)
	}
}

func testEdgeCases(t *testing.T, s store.IStore) {
	defer s.Close()

	// Empty value
	if err := s.Set("empty-value-key", []byte{}, 0); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	result, exists, err := s.Get("empty-value-key")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !exists {
		t.Errorf("Expected empty value key to exist")
	}
	if len(result) != 0 {
		t.Errorf("Expected empty value, got %q", result)
	}

	// Overwriting a key with ttl=0 clears a previous deadline
	if err := s.Set("clear-ttl-key", []byte("v1"), time.Hour); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := s.Set("clear-ttl-key", []byte("v2"), 0); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	result, _, err = s.Get("clear-ttl-key")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !bytes.Equal(result, []byte("v2")) {
		t.Errorf("Expected overwritten value v2, got %s", result)
	}

	// Long keys and binary values
	longKey := ""
	for i := 0; i < 100; i++ {
		longKey += "long-key-segment-"
	}
	binValue := []byte{0x00, 0xFF, 0x42, 0x00, 0x13}
	if err := s.Set(longKey, binValue, 0); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	result, exists, err = s.Get(longKey)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !exists || !bytes.Equal(result, binValue) {
		t.Errorf("Expected binary value to round-trip for long key")
	}
}
