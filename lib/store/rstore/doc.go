// Package rstore implements the store.IStore interface backed by a redis
// server. It exists for deployments where lock and key-value state must
// survive a restart of the serving process or be shared between processes
// without going through the RPC layer.
//
// Implementation notes:
//
//   - Expiry is delegated entirely to redis: SET and SET NX carry their
//     expiration in the same command as the write, so a key can never be
//     written without its deadline. Redis removes expired keys itself.
//
//   - The conditional primitives CompareAndDelete and CompareAndExtend are
//     implemented as Lua scripts. Redis executes a script as one isolated
//     operation, which gives the same atomicity guarantee the in-memory
//     backend gets from its per-key compute step.
//
//   - Every command runs under a bounded context. Timeouts and transport
//     failures are reported as store errors with code RetCUnavailable,
//     never as a plain "false" result, because for these failures the
//     outcome at the store is unknown.
//
// The package is tested against miniredis, which emulates the redis command
// set in-process and can fast-forward its virtual clock for expiry tests.
package rstore
