package server_test

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/lockforge/lockd/lib/lock"
	"github.com/lockforge/lockd/rpc/client"
	"github.com/lockforge/lockd/rpc/common"
	"github.com/lockforge/lockd/rpc/serializer"
	"github.com/lockforge/lockd/rpc/server"
	"github.com/lockforge/lockd/rpc/transport"
)

// --------------------------------------------------------------------------
// In-process loopback transport
// --------------------------------------------------------------------------

// stubServerTransport captures the registered handler instead of listening
// on a socket, so requests can be driven directly from the test
type stubServerTransport struct {
	handler transport.ServerHandleFunc
}

func (s *stubServerTransport) RegisterHandler(handler transport.ServerHandleFunc) {
	s.handler = handler
}

func (s *stubServerTransport) Listen(_ common.ServerConfig) error {
	return nil
}

// loopbackClientTransport routes requests straight into the captured server
// handler, exercising the full serializer/adapter/store path without sockets
type loopbackClientTransport struct {
	server *stubServerTransport
}

func (c *loopbackClientTransport) Connect(_ common.ClientConfig) error { return nil }

func (c *loopbackClientTransport) Send(shardId uint64, req []byte) ([]byte, error) {
	return c.server.handler(shardId, req), nil
}

func (c *loopbackClientTransport) Close() error { return nil }

// --------------------------------------------------------------------------
// Setup
// --------------------------------------------------------------------------

const (
	storeShardID = uint64(100)
	lockShardID  = uint64(200)
)

func newLoopbackServer(t *testing.T) *stubServerTransport {
	t.Helper()

	st := &stubServerTransport{}
	serv := server.NewRPCServer(
		common.ServerConfig{
			Shards: []common.ServerShard{
				{ShardID: storeShardID, Kind: common.ShardKindStore, Backend: common.BackendMemory},
				{ShardID: lockShardID, Kind: common.ShardKindLock, Backend: common.BackendMemory},
			},
			Endpoint:            "loopback",
			TimeoutSecond:       5,
			MaxWorkersPerConn:   1,
			MaxConcurrentConn:   1,
			TCPBufferSizeBytes:  1024,
			UnixBufferSizeBytes: 1024,
			LogLevel:            "error",
		},
		st,
		serializer.NewBinarySerializer(),
	)

	if err := serv.Serve(); err != nil {
		t.Fatalf("failed to start server: %v", err)
	}
	if st.handler == nil {
		t.Fatal("no handler registered")
	}
	return st
}

func clientConfig() common.ClientConfig {
	return common.ClientConfig{
		Endpoints:              []string{"loopback"},
		TimeoutSecond:          5,
		RetryCount:             1,
		ConnectionsPerEndpoint: 1,
	}
}

// --------------------------------------------------------------------------
// Tests
// --------------------------------------------------------------------------

func TestKVOperationsEndToEnd(t *testing.T) {
	st := newLoopbackServer(t)

	kv, err := client.NewRPCStore(storeShardID, clientConfig(), &loopbackClientTransport{server: st}, serializer.NewBinarySerializer())
	if err != nil {
		t.Fatalf("failed to create store client: %v", err)
	}

	// Set and Get
	if err := kv.Set("alpha", []byte("one"), 0); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	val, ok, err := kv.Get("alpha")
	if err != nil || !ok || !bytes.Equal(val, []byte("one")) {
		t.Fatalf("Get returned (%q, %v, %v), expected (one, true, nil)", val, ok, err)
	}

	// SetIfAbsent on an existing key must fail without error
	ok, err = kv.SetIfAbsent("alpha", []byte("two"), 0)
	if err != nil {
		t.Fatalf("SetIfAbsent failed: %v", err)
	}
	if ok {
		t.Error("SetIfAbsent succeeded on existing key")
	}

	// CompareAndDelete with the wrong value must not delete
	ok, err = kv.CompareAndDelete("alpha", []byte("wrong"))
	if err != nil {
		t.Fatalf("CompareAndDelete failed: %v", err)
	}
	if ok {
		t.Error("CompareAndDelete succeeded with wrong value")
	}

	// CompareAndExtend with the right value arms an expiry
	ok, err = kv.CompareAndExtend("alpha", []byte("one"), time.Minute)
	if err != nil || !ok {
		t.Fatalf("CompareAndExtend returned (%v, %v), expected (true, nil)", ok, err)
	}

	// CompareAndDelete with the right value deletes
	ok, err = kv.CompareAndDelete("alpha", []byte("one"))
	if err != nil || !ok {
		t.Fatalf("CompareAndDelete returned (%v, %v), expected (true, nil)", ok, err)
	}
	if exists, _ := kv.Has("alpha"); exists {
		t.Error("key still exists after CompareAndDelete")
	}

	// Increment counts up from zero
	for want := int64(1); want <= 3; want++ {
		got, err := kv.Increment("counter")
		if err != nil {
			t.Fatalf("Increment failed: %v", err)
		}
		if got != want {
			t.Errorf("Increment returned %d, expected %d", got, want)
		}
	}

	// Delete is unconditional
	if err := kv.Delete("counter"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if exists, _ := kv.Has("counter"); exists {
		t.Error("key still exists after Delete")
	}
}

func TestLockOperationsEndToEnd(t *testing.T) {
	st := newLoopbackServer(t)

	locks, err := client.NewRPCLockManager(lockShardID, clientConfig(), &loopbackClientTransport{server: st}, serializer.NewBinarySerializer())
	if err != nil {
		t.Fatalf("failed to create lock client: %v", err)
	}

	// First acquire wins
	handle, ok, err := locks.Acquire("job", time.Minute)
	if err != nil || !ok {
		t.Fatalf("Acquire returned (%v, %v), expected (true, nil)", ok, err)
	}
	if handle.Key != "job" || handle.Token == "" {
		t.Fatalf("unexpected handle: %+v", handle)
	}

	// Second acquire is busy, not an error
	_, ok, err = locks.Acquire("job", time.Minute)
	if err != nil {
		t.Fatalf("second Acquire failed: %v", err)
	}
	if ok {
		t.Error("second Acquire succeeded on a held lock")
	}

	// The lock is visible as held
	held, err := locks.IsHeld("job")
	if err != nil || !held {
		t.Fatalf("IsHeld returned (%v, %v), expected (true, nil)", held, err)
	}

	// Renew with the right token succeeds
	ok, err = locks.Renew(handle, time.Minute)
	if err != nil || !ok {
		t.Fatalf("Renew returned (%v, %v), expected (true, nil)", ok, err)
	}

	// Release with a forged token is a no-op
	ok, err = locks.Release(&lock.Handle{Key: "job", Token: "forged"})
	if err != nil {
		t.Fatalf("Release with forged token failed: %v", err)
	}
	if ok {
		t.Error("Release succeeded with forged token")
	}
	if held, _ := locks.IsHeld("job"); !held {
		t.Error("lock gone after forged release")
	}

	// Release with the real handle frees the lock
	ok, err = locks.Release(handle)
	if err != nil || !ok {
		t.Fatalf("Release returned (%v, %v), expected (true, nil)", ok, err)
	}
	if held, _ := locks.IsHeld("job"); held {
		t.Error("lock still held after release")
	}
}

func TestClientSideValidation(t *testing.T) {
	st := newLoopbackServer(t)

	locks, err := client.NewRPCLockManager(lockShardID, clientConfig(), &loopbackClientTransport{server: st}, serializer.NewBinarySerializer())
	if err != nil {
		t.Fatalf("failed to create lock client: %v", err)
	}

	if _, _, err := locks.Acquire("", time.Minute); !errors.Is(err, lock.ErrInvalidKey) {
		t.Errorf("Acquire with empty key returned %v, expected ErrInvalidKey", err)
	}
	if _, _, err := locks.Acquire("job", 0); !errors.Is(err, lock.ErrInvalidLease) {
		t.Errorf("Acquire with zero lease returned %v, expected ErrInvalidLease", err)
	}
	if _, err := locks.Release(nil); !errors.Is(err, lock.ErrNilHandle) {
		t.Errorf("Release with nil handle returned %v, expected ErrNilHandle", err)
	}
	if _, err := locks.Renew(&lock.Handle{Key: "job"}, time.Minute); !errors.Is(err, lock.ErrNilHandle) {
		t.Errorf("Renew with empty token returned %v, expected ErrNilHandle", err)
	}
}

func TestUnknownShard(t *testing.T) {
	st := newLoopbackServer(t)

	kv, err := client.NewRPCStore(999, clientConfig(), &loopbackClientTransport{server: st}, serializer.NewBinarySerializer())
	if err != nil {
		t.Fatalf("failed to create store client: %v", err)
	}

	if err := kv.Set("alpha", []byte("one"), 0); err == nil {
		t.Error("Set on unknown shard succeeded, expected error")
	}
}

func TestWrongAdapterRejectsMessage(t *testing.T) {
	st := newLoopbackServer(t)

	// KV requests against the lock shard must be rejected by the adapter
	kv, err := client.NewRPCStore(lockShardID, clientConfig(), &loopbackClientTransport{server: st}, serializer.NewBinarySerializer())
	if err != nil {
		t.Fatalf("failed to create store client: %v", err)
	}

	if err := kv.Set("alpha", []byte("one"), 0); err == nil {
		t.Error("Set on lock shard succeeded, expected error")
	}
}
