// Package store provides a high-level interface for key-value storage
// operations with atomic conditional writes, TTL-based expiry, and unified
// error handling. It defines the contract every backend must honor and the
// error taxonomy all implementations report through.
//
// The package focuses on:
//   - A narrow conditional interface (IConditionalStore) consumed by the
//     lock manager: set-if-absent with TTL, compare-and-delete,
//     compare-and-extend, and plain reads
//   - A full client-facing interface (IStore) adding unconditional writes,
//     deletes, counters and existence checks
//   - Standardized error reporting via typed return codes
//
// Key Components:
//
//   - IConditionalStore Interface: The four primitives whose atomicity
//     correctness-critical callers rely on. Each primitive is a single
//     atomic operation from the store's perspective; in particular a write
//     and its expiry are never applied as two separate steps, so a crash
//     between them cannot leave an immortal key behind.
//
//   - IStore Interface: The superset used by clients and the RPC layer. All
//     implementations share this common interface, allowing applications to
//     switch between backends without code changes.
//
//   - Error System: A structured error reporting mechanism using typed error
//     codes and descriptive messages. The RetCUnavailable code marks
//     transient transport failures where the outcome at the store is
//     unknown; implementations must never collapse such failures into a
//     plain "false" result, since callers need to distinguish "definitely
//     not written" from "don't know".
//
// Implementations:
//
//	The package includes two implementations of the IStore interface:
//
//	- Memory Store (mstore): A sharded, in-process implementation with
//	  wall-clock TTL handling and background garbage collection. Suitable
//	  for single-node deployments and tests.
//	  Available in the "github.com/lockforge/lockd/lib/store/mstore" package.
//
//	- Redis Store (rstore): An implementation backed by a Redis server,
//	  mapping the conditional primitives onto SET NX PX and server-side Lua
//	  scripts. Appropriate when lock state must be shared across processes
//	  or hosts.
//	  Available in the "github.com/lockforge/lockd/lib/store/rstore" package.
//
// The shared conformance suite in
// "github.com/lockforge/lockd/lib/store/testing" runs the same behavioral
// tests against any implementation.
package store
