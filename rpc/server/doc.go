// Package server implements the RPC server for the distributed lock service.
// It provides adapters for handling RPC requests to both store and lock
// manager services, along with the core server implementation that manages
// shards and request routing.
//
// The package focuses on:
//   - Server-side RPC request handling for both store and lock manager operations
//   - Adapter pattern to decouple application logic from RPC mechanisms
//   - Flexible shard configuration with memory- and redis-backed stores
//   - Dynamic creation of stores and lock managers based on shard configuration
//
// Key Components:
//
//   - IRPCServerAdapter: Interface defining the contract for all server adapters,
//     with the Handle method that processes incoming requests against a store.IStore.
//
//   - NewIStoreServerAdapter: Factory function creating an adapter for key-value
//     store operations, translating RPC requests to store.IStore method calls.
//
//   - NewLockManagerServerAdapter: Factory function creating an adapter for
//     distributed locking operations, creating a lock.ILockManager on top of
//     the store.
//
//   - NewRPCServer: Factory function creating a configured server with the
//     specified transport and serializer mechanisms.
//
// Usage Example:
//
//	// Create server configuration
//	config := common.ServerConfig{
//	  Shards: []common.ServerShard{
//	    {ShardID: 100, Kind: common.ShardKindStore, Backend: common.BackendMemory},
//	    {ShardID: 200, Kind: common.ShardKindLock, Backend: common.BackendMemory},
//	  },
//	  Endpoint: "0.0.0.0:8080",
//	  TimeoutSecond: 5,
//	  LogLevel: "info",
//	}
//
//	// Create and start the server
//	s := server.NewRPCServer(
//	  config,
//	  tcp.NewTCPServerTransport(),
//	  serializer.NewBinarySerializer(),
//	)
//
//	// Start the server
//	if err := s.Serve(); err != nil {
//	  log.Fatalf("Server error: %v", err)
//	}
//
// The server supports two kinds of shards, which can be mixed within a single
// server and freely combined with both backends:
//
//   - ShardKindStore: Plain key-value operations against the shard's store.
//
//   - ShardKindLock: Distributed lock operations. The lock manager is stateless
//     and built on top of the shard's store, so lock state lives wherever the
//     backend keeps its data.
//
// Backends:
//
//   - BackendMemory: The in-process sharded store, suitable for single-node
//     deployments or development environments.
//
//   - BackendRedis: A redis-backed store. Multiple lockd servers pointing at
//     the same redis instance share lock state, so clients may talk to any of
//     them.
//
// Thread Safety:
//
//	The server implementation is thread-safe and can handle concurrent requests
//	across multiple connections. Each request is processed independently.
//	The Serve method is not thread-safe and should be called only once.
package server
