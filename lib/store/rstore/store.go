package rstore

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/lockforge/lockd/lib/store"
)

// --------------------------------------------------------------------------
// Constants and Scripts
// --------------------------------------------------------------------------

const (
	defaultOpTimeout = 5 * time.Second // Default timeout for a single redis command
)

// Lua scripts make the compare-and-X primitives atomic on the redis side.
// Redis executes a script as a single isolated operation, so no other
// command can interleave between the GET and the mutation.
var (
	// compareAndDeleteScript deletes the key only if its value matches
	compareAndDeleteScript = redis.NewScript(`
		if redis.call("GET", KEYS[1]) == ARGV[1] then
			return redis.call("DEL", KEYS[1])
		else
			return 0
		end
	`)

	// compareAndExtendScript re-arms (or clears) the expiry only if the
	// value matches. ARGV[2] is the ttl in milliseconds, <= 0 clears it.
	compareAndExtendScript = redis.NewScript(`
		if redis.call("GET", KEYS[1]) == ARGV[1] then
			local ttl = tonumber(ARGV[2])
			if ttl > 0 then
				return redis.call("PEXPIRE", KEYS[1], ttl)
			else
				redis.call("PERSIST", KEYS[1])
				return 1
			end
		else
			return 0
		end
	`)
)

// --------------------------------------------------------------------------
// Core store structure
// --------------------------------------------------------------------------

// storeImpl implements store.IStore backed by a redis server
type storeImpl struct {
	client    *redis.Client
	opTimeout time.Duration
}

// Options configures the redis connection during initialization
type Options struct {
	Addr         string        // Redis server address (host:port)
	Password     string        // Password ("" = no auth)
	DB           int           // Redis database number
	PoolSize     int           // Connection pool size (0 = go-redis default)
	MinIdleConns int           // Minimum idle connections (0 = go-redis default)
	OpTimeout    time.Duration // Timeout for a single command (0 = use default: 5 sec)
}

// DefaultOptions returns the default redis store options
func DefaultOptions() *Options {
	return &Options{
		Addr:         "localhost:6379",
		DB:           0,
		PoolSize:     10,
		MinIdleConns: 5,
		OpTimeout:    defaultOpTimeout,
	}
}

// --------------------------------------------------------------------------
// Initialization and Setup
// --------------------------------------------------------------------------

// NewStore creates a new redis-backed store with the specified options
// (optional) and verifies the connection with a ping.
func NewStore(opts *Options) (store.IStore, error) {
	if opts == nil {
		opts = DefaultOptions()
	}
	if opts.OpTimeout <= 0 {
		opts.OpTimeout = defaultOpTimeout
	}

	client := redis.NewClient(&redis.Options{
		Addr:         opts.Addr,
		Password:     opts.Password,
		DB:           opts.DB,
		PoolSize:     opts.PoolSize,
		MinIdleConns: opts.MinIdleConns,
	})

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), opts.OpTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, store.NewError(store.RetCUnavailable,
			fmt.Sprintf("failed to connect to redis at %s: %v", opts.Addr, err))
	}

	return NewStoreWithClient(client, opts.OpTimeout), nil
}

// NewStoreWithClient wraps an existing redis client. The caller keeps
// ownership decisions simple: Close on the returned store closes the client.
func NewStoreWithClient(client *redis.Client, opTimeout time.Duration) store.IStore {
	if opTimeout <= 0 {
		opTimeout = defaultOpTimeout
	}
	return &storeImpl{
		client:    client,
		opTimeout: opTimeout,
	}
}

// --------------------------------------------------------------------------
// Helpers
// --------------------------------------------------------------------------

// opContext returns a context bounding a single redis command
func (s *storeImpl) opContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), s.opTimeout)
}

// wrapErr converts a redis error into a store error. Transport and timeout
// failures map to RetCUnavailable so callers can tell "the store said no"
// apart from "the store could not be asked".
func wrapErr(op string, err error) error {
	return store.NewError(store.RetCUnavailable, fmt.Sprintf("redis %s: %v", op, err))
}

// ttlToExpiration converts the interface ttl convention (<= 0 means no
// expiry) to the go-redis convention (0 means no expiry)
func ttlToExpiration(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		return 0
	}
	return ttl
}

// ttlToMillis converts a ttl to the millisecond argument the lua scripts
// expect. Positive ttls below one millisecond round up to 1, otherwise
// a short extend would hit the script's "clear the expiry" branch and
// leave the key without a deadline.
func ttlToMillis(ttl time.Duration) int64 {
	if ttl <= 0 {
		return 0
	}
	if ms := ttl.Milliseconds(); ms > 0 {
		return ms
	}
	return 1
}

// --------------------------------------------------------------------------
// IStore Interface Methods - Write Operations
// --------------------------------------------------------------------------

// Set inserts or updates a key-value pair. A ttl <= 0 means no expiry.
func (s *storeImpl) Set(key string, value []byte, ttl time.Duration) error {
	ctx, cancel := s.opContext()
	defer cancel()

	if err := s.client.Set(ctx, key, value, ttlToExpiration(ttl)).Err(); err != nil {
		return wrapErr("set", err)
	}
	return nil
}

// SetIfAbsent inserts a key-value pair only if the key does not exist.
// SET NX with an expiration applies the ttl in the same atomic command as
// the write, so a crash can never leave the key without its deadline.
func (s *storeImpl) SetIfAbsent(key string, value []byte, ttl time.Duration) (bool, error) {
	ctx, cancel := s.opContext()
	defer cancel()

	ok, err := s.client.SetNX(ctx, key, value, ttlToExpiration(ttl)).Result()
	if err != nil {
		return false, wrapErr("setnx", err)
	}
	return ok, nil
}

// CompareAndDelete deletes the key only if its current value equals expected.
func (s *storeImpl) CompareAndDelete(key string, expected []byte) (bool, error) {
	ctx, cancel := s.opContext()
	defer cancel()

	deleted, err := compareAndDeleteScript.Run(ctx, s.client, []string{key}, expected).Int64()
	if err != nil {
		return false, wrapErr("compare-and-delete", err)
	}
	return deleted == 1, nil
}

// CompareAndExtend updates the key's expiry only if its current value equals
// expected. A ttl <= 0 removes the expiry.
func (s *storeImpl) CompareAndExtend(key string, expected []byte, ttl time.Duration) (bool, error) {
	ctx, cancel := s.opContext()
	defer cancel()

	extended, err := compareAndExtendScript.Run(ctx, s.client, []string{key}, expected, ttlToMillis(ttl)).Int64()
	if err != nil {
		return false, wrapErr("compare-and-extend", err)
	}
	return extended == 1, nil
}

// Delete deletes a key-value pair unconditionally.
func (s *storeImpl) Delete(key string) error {
	ctx, cancel := s.opContext()
	defer cancel()

	if err := s.client.Del(ctx, key).Err(); err != nil {
		return wrapErr("del", err)
	}
	return nil
}

// Increment atomically increments the integer value stored at key by one and
// returns the new value. A missing key counts up from zero. Redis keeps the
// key's expiry across INCR.
func (s *storeImpl) Increment(key string) (int64, error) {
	ctx, cancel := s.opContext()
	defer cancel()

	value, err := s.client.Incr(ctx, key).Result()
	if err != nil {
		if strings.Contains(err.Error(), "not an integer") {
			return 0, store.NewError(store.RetCInvalidOperation,
				fmt.Sprintf("value for key %q is not an integer", key))
		}
		return 0, wrapErr("incr", err)
	}
	return value, nil
}

// --------------------------------------------------------------------------
// IStore Interface Methods - Read Operations
// --------------------------------------------------------------------------

// Get returns the value for a key. The boolean indicates whether a value
// for the key was found.
func (s *storeImpl) Get(key string) ([]byte, bool, error) {
	ctx, cancel := s.opContext()
	defer cancel()

	value, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, false, nil
		}
		return nil, false, wrapErr("get", err)
	}
	return value, true, nil
}

// Has returns whether a key exists in the store.
func (s *storeImpl) Has(key string) (bool, error) {
	ctx, cancel := s.opContext()
	defer cancel()

	count, err := s.client.Exists(ctx, key).Result()
	if err != nil {
		return false, wrapErr("exists", err)
	}
	return count > 0, nil
}

// --------------------------------------------------------------------------
// Lifecycle
// --------------------------------------------------------------------------

// Close closes the underlying redis client
func (s *storeImpl) Close() error {
	return s.client.Close()
}
