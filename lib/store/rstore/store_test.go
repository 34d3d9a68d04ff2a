package rstore

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/lockforge/lockd/lib/store"
	storetesting "github.com/lockforge/lockd/lib/store/testing"
)

func Test(t *testing.T) {
	mr := miniredis.RunT(t)

	storetesting.RunStoreTests(t, "RedisStore", func() store.IStore {
		mr.FlushAll()
		client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
		return NewStoreWithClient(client, time.Second)
	}, func(d time.Duration) {
		// miniredis runs on a virtual clock
		mr.FastForward(d)
	})
}

// TestUnavailable verifies that transport failures surface as store errors
// with code RetCUnavailable instead of being folded into a false result.
func TestUnavailable(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	s := NewStoreWithClient(client, time.Second)
	defer s.Close()

	// kill the server so every command fails
	mr.Close()

	if _, err := s.SetIfAbsent("k", []byte("v"), time.Second); !store.IsUnavailable(err) {
		t.Errorf("Expected RetCUnavailable from SetIfAbsent, got %v", err)
	}
	if _, err := s.CompareAndDelete("k", []byte("v")); !store.IsUnavailable(err) {
		t.Errorf("Expected RetCUnavailable from CompareAndDelete, got %v", err)
	}
	if _, err := s.CompareAndExtend("k", []byte("v"), time.Second); !store.IsUnavailable(err) {
		t.Errorf("Expected RetCUnavailable from CompareAndExtend, got %v", err)
	}
	if _, _, err := s.Get("k"); !store.IsUnavailable(err) {
		t.Errorf("Expected RetCUnavailable from Get, got %v", err)
	}
}

// TestNewStoreBadAddr verifies that NewStore fails fast when the server is
// unreachable.
func TestNewStoreBadAddr(t *testing.T) {
	opts := DefaultOptions()
	opts.Addr = "127.0.0.1:1" // nothing listens here
	opts.OpTimeout = 500 * time.Millisecond

	if _, err := NewStore(opts); err == nil {
		t.Fatal("Expected NewStore to fail for unreachable server")
	}
}
