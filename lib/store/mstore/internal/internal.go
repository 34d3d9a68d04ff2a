package internal

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"time"

	"github.com/puzpuzpuz/xsync/v3"
)

// --------------------------------------------------------------------------
// Key Hashing
// --------------------------------------------------------------------------

// KeyHash is an efficient key type based on uint64 for internal hash representation
type KeyHash uint64

// NewSeed creates a random seed for internal hash distribution
func NewSeed() uint64 {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		// last-resort fallback
		return uint64(time.Now().UnixNano())
	}
	return binary.LittleEndian.Uint64(b[:])
}

// HashKey generates a hash value for a string key with a seed.
// This function uses the FNV-1a hash algorithm, which is fast and has good distribution.
func HashKey(s string, seed uint64) KeyHash {

	// FNV-1a hash with seed incorporation
	const (
		offset64 = 14695981039346656037
		prime64  = 1099511628211
	)

	// Start with the offset combined with our seed for uniqueness
	hash := uint64(offset64) ^ seed

	for i := 0; i < len(s); i++ {
		hash ^= uint64(s[i])
		hash *= prime64
	}

	return KeyHash(hash)
}

// --------------------------------------------------------------------------
// Event Types are used to signal changes to the garbage collector
// --------------------------------------------------------------------------

type EventType int

const (
	EventTWrite EventType = iota
	EventTDelete
)

func (e EventType) String() string {
	switch e {
	case EventTWrite:
		return "Write"
	case EventTDelete:
		return "Delete"
	default:
		return "Unknown"
	}
}

type Event struct {
	Type EventType
	Key  KeyHash
}

func (e Event) String() string {
	return fmt.Sprintf("Event{Type: %s, Key: %d}", e.Type, e.Key)
}

// --------------------------------------------------------------------------
// Entry Type (key-value pair with metadata)
// --------------------------------------------------------------------------

// Entry stores a value with its expiry metadata
type Entry struct {
	Value    []byte // Stored data
	Deadline int64  // Expiry timestamp in unix nanoseconds (0 = no expiry)
}

// Expired returns whether the entry is past its deadline at the given time
// (unix nanoseconds)
func (e Entry) Expired(now int64) bool {
	return e.Deadline != 0 && now >= e.Deadline
}

// --------------------------------------------------------------------------
// Shard Type (partition of the store)
// --------------------------------------------------------------------------

// Shard represents a partition of the store.
// Each shard has its own independent map, expiry heap and event queue.
type Shard struct {
	Data   *xsync.MapOf[KeyHash, Entry] // Map of active key-value entries
	Expiry *DeadlineHeap                // Deadlines pending collection
	Events *MPSC[Event]                 // Write/delete events feeding the gc
}

// NewShard creates a new shard with the provided hash function
func NewShard(hasher func(KeyHash, uint64) uint64) *Shard {
	return &Shard{
		Data:   xsync.NewMapOfWithHasher[KeyHash, Entry](hasher),
		Expiry: NewDeadlineHeap(),
		Events: NewMPSC[Event](), // closing this queue stops the gc for the shard
	}
}

// ShardFor returns the appropriate shard for a given key
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func ShardFor(key KeyHash, shards []*Shard) *Shard {
	// Shift right by 7 bits to use higher-quality bits for distribution
	shiftedKey := uint64(key) >> 7
	shardPos := shiftedKey % uint64(len(shards))
	return shards[shardPos]
}
