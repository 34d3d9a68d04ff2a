package mstore

import (
	"fmt"
	"testing"
	"time"

	"github.com/lockforge/lockd/lib/store"
	storetesting "github.com/lockforge/lockd/lib/store/testing"
)

func Test(t *testing.T) {
	storetesting.RunStoreTests(t, "MemoryStore", func() store.IStore {
		return NewStore(nil)
	}, time.Sleep)
}

func Benchmark(b *testing.B) {
	storetesting.RunStoreBenchmarks(b, "MemoryStore", func() store.IStore {
		return NewStore(nil)
	})
}

// TestGCReclaimsExpiredEntries verifies that the background collector
// actually removes entries from the shard maps, not just hides them.
func TestGCReclaimsExpiredEntries(t *testing.T) {
	s := NewStore(&Options{NumShards: 2, GCInterval: 10 * time.Millisecond})
	defer s.Close()

	impl := s.(*storeImpl)

	for i := 0; i < 100; i++ {
		key := fmt.Sprintf("gc-key-%d", i)
		if err := s.Set(key, []byte("v"), 20*time.Millisecond); err != nil {
			t.Fatalf("Set failed: %v", err)
		}
	}

	// give the collector a few cycles past the deadline
	time.Sleep(200 * time.Millisecond)

	total := 0
	for _, shard := range impl.shards {
		total += shard.Data.Size()
	}
	if total != 0 {
		t.Errorf("Expected all expired entries to be collected, %d remain", total)
	}
}
