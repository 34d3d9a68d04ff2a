// Package mstore implements a high-performance in-memory key-value store with
// atomic conditional writes and time-based expiry. It provides a complete
// implementation of the store.IStore interface with a focus on thread safety,
// performance, and memory efficiency.
//
// The package focuses on:
//   - Optimized concurrent access through sharding and lock-free data structures
//   - Atomic conditional primitives (SetIfAbsent, CompareAndDelete,
//     CompareAndExtend) suitable as the foundation for distributed locks
//   - Expiry applied in the same atomic operation as the write, never as a
//     separate step, so a key can never end up written without its deadline
//   - Efficient garbage collection to reclaim memory from expired entries
//     without impacting performance
//
// Key Components:
//
//   - storeImpl: The central structure implementing store.IStore. It manages
//     shards, coordinates garbage collection, and provides the public API for
//     key-value operations. All operations on a key funnel through a single
//     atomic compute step on the key's shard map, which is what makes the
//     conditional primitives atomic.
//
//   - Shard: A partition of the store that manages a subset of the key space.
//     Each shard contains its own data map, expiry heap and event queue.
//     Shards operate independently to minimize contention and enable high
//     concurrency. Keys are spread across shards using a hash function to
//     ensure even distribution.
//
//   - Entry: The core structure for storing values and metadata. Each entry
//     contains the byte value and an absolute expiry deadline in unix
//     nanoseconds (0 = no expiry).
//
//   - Event System: A lock-free multi-producer single-consumer event queue
//     that coordinates garbage collection across shards. Events are generated
//     when entries with deadlines are written or deleted, and processed by
//     the garbage collector to update the per-shard expiry heap.
//
// Internal Mechanisms:
//
//   - Sharding Strategy: Keys are spread across shards in a two-step process:
//     1. String keys are converted to 64-bit integers using the FNV-1a based
//     HashKey function with a store-specific seed
//     2. The integer key is right-shifted by 7 bits to use higher-quality
//     bits for distribution
//     This strategy ensures even distribution with minimal hash computation
//     overhead.
//
//   - Expiry: Deadlines are absolute wall-clock timestamps computed inside
//     the atomic compute step. A read never returns a value past its
//     deadline: Get, Has and the conditional primitives treat expired
//     entries as absent even before the garbage collector has removed them,
//     and collect them lazily on the spot.
//
//   - Lock-free Data Structures:
//     1. xsync.MapOf: A concurrent map implementation that itself shards keys
//     internally for efficient access and minimal locking
//     2. internal.DeadlineHeap: A priority queue tracking entry deadlines
//     3. internal.MPSC: A lock-free queue for efficient event communication
//     These structures minimize contention and enable high throughput under
//     concurrent load.
//
// Garbage Collection:
//
//   - To minimize the impact on performance, a special garbage collection
//     system is used that operates without stop-the-world pauses. The garbage
//     collection runs in a single goroutine per shard.
//
//   - The GC system works as follows:
//     1. A write with a deadline pushes an event onto the shard's event
//     queue.
//     2. The GC goroutine processes the event queue, updating the expiry
//     heap. The heap is only ever accessed by the shard-specific GC goroutine
//     and never concurrently, so no locks are needed.
//     3. After updating the heap, the GC goroutine removes entries whose
//     deadline has passed, double-checking each entry inside an atomic
//     compute step because it may have been overwritten with a later deadline
//     in the meantime. After that the GC goroutine waits for the next events.
//
// Since the store cannot guarantee that the GC removes an entry the instant
// its deadline passes, all read paths check the deadline themselves and treat
// expired entries as absent. This way, even if the internal state is not
// up-to-date, callers can rely on the expiry semantics.
//
// The mstore package is designed to serve as the default backend for a lock
// service: caches, session stores, and coordination keys with leases all map
// directly onto its primitives.
package mstore
