package testing

import (
	"fmt"
	"testing"
	"time"

	"github.com/lockforge/lockd/lib/store"
)

// RunStoreBenchmarks runs all benchmarks for an IStore implementation
func RunStoreBenchmarks(b *testing.B, name string, factory StoreFactory) {

	b.Run("Set", func(b *testing.B) {
		benchmarkSet(b, factory())
	})

	b.Run("SetWithTTL", func(b *testing.B) {
		benchmarkSetWithTTL(b, factory())
	})

	b.Run("SetIfAbsent", func(b *testing.B) {
		benchmarkSetIfAbsent(b, factory())
	})

	b.Run("Get", func(b *testing.B) {
		benchmarkGet(b, factory())
	})

	b.Run("CompareAndExtend", func(b *testing.B) {
		benchmarkCompareAndExtend(b, factory())
	})

	b.Run("Increment", func(b *testing.B) {
		benchmarkIncrement(b, factory())
	})

	b.Run("MixedUsage", func(b *testing.B) {
		benchmarkMixedUsage(b, factory())
	})
}

// --------------------------------------------------------------------------
// Benchmark functions
// --------------------------------------------------------------------------

// Benchmark for Set operation
func benchmarkSet(b *testing.B, s store.IStore) {
	b.Cleanup(func() {
		s.Close()
	})

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		counter := 0
		for pb.Next() {
			key := fmt.Sprintf("test-key-%d", counter)
			value := []byte(fmt.Sprintf("test-value-%d", counter))
			if err := s.Set(key, value, 0); err != nil {
				b.Fatalf("Set failed: %v", err)
			}
			counter++
		}
	})
}

// Benchmark for Set operation with expiring keys
func benchmarkSetWithTTL(b *testing.B, s store.IStore) {
	b.Cleanup(func() {
		s.Close()
	})

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		counter := 0
		for pb.Next() {
			key := fmt.Sprintf("test-key-%d", counter)
			value := []byte(fmt.Sprintf("test-value-%d", counter))
			if err := s.Set(key, value, time.Minute); err != nil {
				b.Fatalf("Set failed: %v", err)
			}
			counter++
		}
	})
}

// Benchmark for SetIfAbsent on fresh keys
func benchmarkSetIfAbsent(b *testing.B, s store.IStore) {
	b.Cleanup(func() {
		s.Close()
	})

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		counter := 0
		for pb.Next() {
			key := fmt.Sprintf("test-key-%d", counter)
			if _, err := s.SetIfAbsent(key, []byte("v"), time.Minute); err != nil {
				b.Fatalf("SetIfAbsent failed: %v", err)
			}
			counter++
		}
	})
}

// Benchmark for Get operation
func benchmarkGet(b *testing.B, s store.IStore) {
	b.Cleanup(func() {
		s.Close()
	})

	// Prepare data
	numKeys := 10000
	for i := 0; i < numKeys; i++ {
		key := fmt.Sprintf("test-key-%d", i)
		value := []byte(fmt.Sprintf("test-value-%d", i))
		if err := s.Set(key, value, 0); err != nil {
			b.Fatalf("Set failed: %v", err)
		}
	}

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		counter := 0
		for pb.Next() {
			key := fmt.Sprintf("test-key-%d", counter%numKeys)
			if _, _, err := s.Get(key); err != nil {
				b.Fatalf("Get failed: %v", err)
			}
			counter++
		}
	})
}

// Benchmark for CompareAndExtend on a held key (the renew hot path)
func benchmarkCompareAndExtend(b *testing.B, s store.IStore) {
	b.Cleanup(func() {
		s.Close()
	})

	key := "held-key"
	value := []byte("holder-token")
	if _, err := s.SetIfAbsent(key, value, time.Minute); err != nil {
		b.Fatalf("SetIfAbsent failed: %v", err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := s.CompareAndExtend(key, value, time.Minute); err != nil {
			b.Fatalf("CompareAndExtend failed: %v", err)
		}
	}
}

// Benchmark for Increment operation
func benchmarkIncrement(b *testing.B, s store.IStore) {
	b.Cleanup(func() {
		s.Close()
	})

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			if _, err := s.Increment("counter-key"); err != nil {
				b.Fatalf("Increment failed: %v", err)
			}
		}
	})
}

// Benchmark simulating realistic mixed usage
func benchmarkMixedUsage(b *testing.B, s store.IStore) {
	b.Cleanup(func() {
		s.Close()
	})

	numKeys := 1000
	for i := 0; i < numKeys; i++ {
		key := fmt.Sprintf("test-key-%d", i)
		if err := s.Set(key, []byte("initial"), 0); err != nil {
			b.Fatalf("Set failed: %v", err)
		}
	}

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		counter := 0
		for pb.Next() {
			key := fmt.Sprintf("test-key-%d", counter%numKeys)
			switch counter % 10 {
			case 0, 1:
				if err := s.Set(key, []byte("updated"), time.Minute); err != nil {
					b.Fatalf("Set failed: %v", err)
				}
			case 2:
				if err := s.Delete(key); err != nil {
					b.Fatalf("Delete failed: %v", err)
				}
			case 3:
				if _, err := s.SetIfAbsent(key, []byte("claimed"), time.Minute); err != nil {
					b.Fatalf("SetIfAbsent failed: %v", err)
				}
			default:
				if _, _, err := s.Get(key); err != nil {
					b.Fatalf("Get failed: %v", err)
				}
			}
			counter++
		}
	})
}
