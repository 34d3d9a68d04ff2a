package mstore

import (
	"bytes"
	"fmt"
	"runtime"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/lockforge/lockd/lib/store"
	"github.com/lockforge/lockd/lib/store/mstore/internal"
)

// --------------------------------------------------------------------------
// Constants
// --------------------------------------------------------------------------

const (
	defaultGCInterval = 100 * time.Millisecond // Default interval between GC runs
)

// --------------------------------------------------------------------------
// Core store structure
// --------------------------------------------------------------------------

// storeImpl implements a high-performance in-memory store with sharded data
type storeImpl struct {
	numShards int               // Number of shards
	seed      uint64            // Seed for hash function
	shards    []*internal.Shard // Array of shards

	// garbage collection
	gcInterval  time.Duration
	gcIsRunning atomic.Bool
}

// Options configures the storeImpl behavior during initialization
type Options struct {
	NumShards  int           // Number of shards (0 = auto)
	GCInterval time.Duration // Time between GC runs (0 = use default: 100 ms)
}

// DefaultOptions returns the default storeImpl options
func DefaultOptions() *Options {
	return &Options{
		NumShards:  runtime.NumCPU(), // Auto-determine based on CPU count
		GCInterval: defaultGCInterval,
	}
}

// --------------------------------------------------------------------------
// Initialization and Setup
// --------------------------------------------------------------------------

// NewStore creates a new in-memory store instance with the specified options
// (optional).
//
// Thread-safety: This function is not thread-safe and should only be called
// once during initialization.
func NewStore(opts *Options) store.IStore {

	// Generate default options if not provided
	if opts == nil {
		opts = DefaultOptions()
	}
	if opts.NumShards <= 0 {
		opts.NumShards = runtime.NumCPU()
	}
	if opts.GCInterval <= 0 {
		opts.GCInterval = defaultGCInterval
	}

	// Generate a seed for this store instance
	seed := internal.NewSeed()
	hasher := createIdentityHasher()

	// Create shards
	shards := make([]*internal.Shard, opts.NumShards)
	for i := 0; i < opts.NumShards; i++ {
		shards[i] = internal.NewShard(hasher)
	}

	s := &storeImpl{
		numShards:  opts.NumShards,
		seed:       seed,
		shards:     shards,
		gcInterval: opts.GCInterval,
	}

	s.gcIsRunning.Store(false)

	// start garbage collection
	s.startGC()

	return s
}

// --------------------------------------------------------------------------
// Hash Helper Functions
// --------------------------------------------------------------------------

// hashKey converts a string key to an internal.KeyHash
// and applies the store seed to ensure uniqueness between store instances
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (s *storeImpl) hashKey(key string) internal.KeyHash {
	return internal.HashKey(key, s.seed)
}

// createIdentityHasher creates a hash function that combines a key with a seed
func createIdentityHasher() func(internal.KeyHash, uint64) uint64 {
	return func(key internal.KeyHash, mapSeed uint64) uint64 {
		return uint64(key) ^ mapSeed
	}
}

// deadlineFrom converts a relative ttl to an absolute unix-nanosecond
// deadline. A ttl <= 0 yields 0, meaning no expiry.
func deadlineFrom(now int64, ttl time.Duration) int64 {
	if ttl <= 0 {
		return 0
	}
	return now + ttl.Nanoseconds()
}

// --------------------------------------------------------------------------
// Atomic Compute Helper
// --------------------------------------------------------------------------

// compute is the shared implementation behind all read and write operations.
// It routes the key to its shard, runs fn inside the shard map's atomic
// Compute and handles GC registration.
//
// fn receives the current entry and whether a live (not expired) entry
// exists, together with the current time in unix nanoseconds. Expired
// entries are never visible to fn, so every caller sees a consistent view.
// fn returns the entry to store and a delete flag. When the delete flag is
// set, the key is removed (a no-op if the key does not exist).
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (s *storeImpl) compute(key string, fn func(old internal.Entry, loaded bool, now int64) (entry internal.Entry, delete bool)) {

	intKey := s.hashKey(key)
	shard := internal.ShardFor(intKey, s.shards)

	// add entry to gc after the entry is created
	var event *internal.Event

	// Use Compute for atomic conditional update
	shard.Data.Compute(intKey, func(cur internal.Entry, exists bool) (internal.Entry, bool) {
		now := time.Now().UnixNano()

		// hide expired entries from fn so it only ever sees live data
		old := cur
		loaded := exists && !cur.Expired(now)
		if !loaded {
			old = internal.Entry{}
		}

		entry, del := fn(old, loaded, now)

		// CASE DELETE

		if del {
			// an old entry existed -> gc event to drop its heap item
			if exists {
				event = &internal.Event{
					Type: internal.EventTDelete,
					Key:  intKey,
				}
			}
			return cur, true
		}

		// CASE WRITE

		if entry.Deadline != 0 {
			// register (or update) the deadline with the gc
			event = &internal.Event{
				Type: internal.EventTWrite,
				Key:  intKey,
			}
		} else if exists && cur.Deadline != 0 {
			// the write cleared a previous deadline -> drop the stale heap item
			event = &internal.Event{
				Type: internal.EventTDelete,
				Key:  intKey,
			}
		}

		return entry, false
	})

	// add event to gc events queue
	if event != nil {
		shard.Events.Push(event)
	}
}

// --------------------------------------------------------------------------
// IStore Interface Methods - Write Operations
// --------------------------------------------------------------------------

// Set inserts or updates an entry with the given key and value.
// If the key already exists, the old value and expiry are overwritten.
// A ttl <= 0 means no expiry.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (s *storeImpl) Set(key string, value []byte, ttl time.Duration) error {
	// Copy value to prevent memory corruption
	valueCopy := make([]byte, len(value))
	copy(valueCopy, value)

	s.compute(key, func(_ internal.Entry, _ bool, now int64) (internal.Entry, bool) {
		return internal.Entry{Value: valueCopy, Deadline: deadlineFrom(now, ttl)}, false
	})
	return nil
}

// SetIfAbsent inserts an entry with the given key and value only if no live
// entry for the key exists. The ttl is applied in the same atomic operation
// as the write. The boolean return value indicates whether the set occurred.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (s *storeImpl) SetIfAbsent(key string, value []byte, ttl time.Duration) (bool, error) {
	valueCopy := make([]byte, len(value))
	copy(valueCopy, value)

	var ok bool
	s.compute(key, func(old internal.Entry, loaded bool, now int64) (internal.Entry, bool) {
		if loaded {
			return old, false
		}
		ok = true
		return internal.Entry{Value: valueCopy, Deadline: deadlineFrom(now, ttl)}, false
	})
	return ok, nil
}

// CompareAndDelete deletes the key only if its current value equals
// expected. The boolean return value indicates whether the deletion
// occurred.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (s *storeImpl) CompareAndDelete(key string, expected []byte) (bool, error) {
	var ok bool
	s.compute(key, func(old internal.Entry, loaded bool, _ int64) (internal.Entry, bool) {
		if !loaded {
			// also collects an expired leftover, if any
			return old, true
		}
		if !bytes.Equal(old.Value, expected) {
			return old, false
		}
		ok = true
		return old, true
	})
	return ok, nil
}

// CompareAndExtend updates the key's expiry only if its current value equals
// expected. The value itself is not changed. A ttl <= 0 removes the expiry.
// The boolean return value indicates whether the update occurred.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (s *storeImpl) CompareAndExtend(key string, expected []byte, ttl time.Duration) (bool, error) {
	var ok bool
	s.compute(key, func(old internal.Entry, loaded bool, now int64) (internal.Entry, bool) {
		if !loaded {
			return old, true
		}
		if !bytes.Equal(old.Value, expected) {
			return old, false
		}
		ok = true
		old.Deadline = deadlineFrom(now, ttl)
		return old, false
	})
	return ok, nil
}

// Delete removes an entry with the specified key. This change is immediate.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (s *storeImpl) Delete(key string) error {
	s.compute(key, func(old internal.Entry, _ bool, _ int64) (internal.Entry, bool) {
		return old, true
	})
	return nil
}

// Increment atomically increments the integer value stored at key by one and
// returns the new value. A missing key counts up from zero. The key's
// expiry, if any, is left untouched.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (s *storeImpl) Increment(key string) (int64, error) {
	var (
		result int64
		err    error
	)
	s.compute(key, func(old internal.Entry, loaded bool, _ int64) (internal.Entry, bool) {
		var n int64
		if loaded {
			n, err = strconv.ParseInt(string(old.Value), 10, 64)
			if err != nil {
				err = store.NewError(store.RetCInvalidOperation,
					fmt.Sprintf("value for key %q is not an integer", key))
				return old, false
			}
		}
		result = n + 1
		return internal.Entry{
			Value:    []byte(strconv.FormatInt(result, 10)),
			Deadline: old.Deadline,
		}, false
	})
	if err != nil {
		return 0, err
	}
	return result, nil
}

// --------------------------------------------------------------------------
// IStore Interface Methods - Read Operations
// --------------------------------------------------------------------------

// Get retrieves a value for a key.
// The boolean indicates whether a (not expired) value for the key was found.
// The returned value is a copy of the stored data and therefore safe to use
// and modify.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (s *storeImpl) Get(key string) ([]byte, bool, error) {
	var (
		data []byte
		ok   bool
	)
	s.compute(key, func(old internal.Entry, loaded bool, _ int64) (internal.Entry, bool) {
		if !loaded {
			// lazily collects an expired leftover, if any
			return old, true
		}

		// copy data so callers can't corrupt the stored value
		ok = true
		data = make([]byte, len(old.Value))
		copy(data, old.Value)
		return old, false
	})
	return data, ok, nil
}

// Has checks if a live (not expired) entry for the key exists.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (s *storeImpl) Has(key string) (bool, error) {
	var ok bool
	s.compute(key, func(old internal.Entry, loaded bool, _ int64) (internal.Entry, bool) {
		if !loaded {
			return old, true
		}
		ok = true
		return old, false
	})
	return ok, nil
}

// --------------------------------------------------------------------------
// Garbage Collection
// --------------------------------------------------------------------------

// startGC starts the garbage collector
// if the GC is already running, this function does nothing
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (s *storeImpl) startGC() {
	if s.gcIsRunning.CompareAndSwap(false, true) {
		go s.garbageCollector()
	}
}

// stopGC stops the garbage collector.
// if the GC is not running, this function does nothing.
// the gc can't be started again after it has been stopped!
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (s *storeImpl) stopGC() {
	if s.gcIsRunning.CompareAndSwap(true, false) {
		for _, shard := range s.shards {
			shard.Events.Close()
		}
	}
}

// garbageCollector is the main garbage collection loop
// WARNING: this method should never be called directly! to enable GC, use
// startGC() and stopGC()
func (s *storeImpl) garbageCollector() {

	// wait group for all shards
	var wg sync.WaitGroup
	wg.Add(len(s.shards))

	// run gc for each shard in parallel
	for i := range s.shards {
		go func(shardIndex int) { // start goroutine for each shard
			defer wg.Done()

			// the shard this goroutine is responsible for
			shard := s.shards[shardIndex]

			// timeouts
			gcTimer := time.NewTimer(s.gcInterval)
			defer gcTimer.Stop()

			for {
				// reset timeout
				gcTimer.Reset(s.gcInterval)

				endLoop := false
				for !endLoop {
					select {
					// case register new entry with the gc
					case event, ok := <-shard.Events.Recv():

						if !ok {
							return
						}
						key := event.Key

						switch event.Type {
						case internal.EventTWrite:
							// get entry and register its deadline
							if entry, ok := shard.Data.Load(key); ok {
								if entry.Deadline != 0 {
									shard.Expiry.AddItem(uint64(key), entry.Deadline)
								}
							}
						case internal.EventTDelete:
							shard.Expiry.RemoveByKey(uint64(key))
						default:
							panic(fmt.Sprintf("unknown event %s", event))
						}

					case <-gcTimer.C:
						endLoop = true
					}
				}

				// ACTUAL GC LOGIC BELOW

				/*
					Note: We only get the time once at the beginning of one gc
					cycle to ensure that the sweep terminates even while new
					deadlines keep arriving.
				*/
				now := time.Now().UnixNano()

				// check if the expiry heap has expired entries
				for {

					item, exists := shard.Expiry.Peek()
					if !exists || item.Deadline > now {
						break
					}

					// delete the expired entry
					shard.Data.Compute(internal.KeyHash(item.Key), func(e internal.Entry, loaded bool) (internal.Entry, bool) {
						if !loaded {
							return e, true
						}

						/*
							Note-1: We double-check this because the entry
							could have been overwritten with a later deadline
							in the meantime.
						*/
						if !e.Expired(now) {
							return e, false
						}

						// help the go gc
						e.Value = nil

						return internal.Entry{}, true
					})

					/*
						Note-2: why do we remove the item from the heap even
						if the entry was not deleted?

						If we don't, the item will be reprocessed in the next
						iteration -> endless loop.

						Don't we then lose track of the entry and never delete
						it? No! If the deadline was changed in the meantime,
						the write also pushed an event and the entry will be
						re-registered in the next iteration of the outer loop
						(in the select statement).
					*/
					shard.Expiry.RemoveByKey(item.Key)
				}
			}
		}(i)
	}

	// wait until gc is done for all shards
	wg.Wait()
}

// --------------------------------------------------------------------------
// Lifecycle
// --------------------------------------------------------------------------

// Close stops the garbage collector
func (s *storeImpl) Close() error {
	s.stopGC()
	return nil
}
