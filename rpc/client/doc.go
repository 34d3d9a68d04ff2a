// Package client implements RPC clients for the distributed lock service.
// It provides implementations of the store.IStore and lock.ILockManager
// interfaces that communicate with remote servers via RPC.
//
// The package focuses on:
//   - Transparent RPC access to store and lock manager implementations
//   - Integration with the transport and serialization layers
//   - Error handling and conversion between RPC and domain errors
//
// Key Components:
//
//   - NewRPCStore: Factory function that creates a client implementing the
//     store.IStore interface. This client forwards all operations to remote
//     servers via the configured transport layer.
//
//   - NewRPCLockManager: Factory function that creates a client implementing
//     the lock.ILockManager interface for distributed locking operations.
//
// Usage Example:
//
//	// Configure the client
//	config := common.ClientConfig{
//	  Endpoints:              []string{"localhost:5000"},
//	  TimeoutSecond:          5,
//	  RetryCount:             3,
//	  ConnectionsPerEndpoint: 1,
//	}
//
//	// Create a serializer
//	serializer := serializer.NewBinarySerializer()
//
//	// Create store client
//	store, _ := client.NewRPCStore(1, config, tcp.NewTCPClientTransport(), serializer)
//
//	// Use the store
//	store.Set("mykey", []byte("myvalue"), 0)
//	value, exists, _ := store.Get("mykey")
//
//	// Create and use a lock manager
//	locks, _ := client.NewRPCLockManager(2, config, tcp.NewTCPClientTransport(), serializer)
//	handle, acquired, _ := locks.Acquire("mylock", 30*time.Second)
//	if acquired {
//	  locks.Release(handle)
//	}
//
// Error Semantics:
//
//	Errors reported by the remote store keep their return code across the
//	wire, so store.IsUnavailable works on client-side errors exactly as it
//	does locally. Transport failures (connection refused, timeouts) are
//	reported as unavailable store errors because the outcome of the request
//	at the server is unknown.
//
// Performance Considerations:
//
//   - For applications that frequently send large payloads, increasing
//     ConnectionsPerEndpoint can improve throughput by allowing parallel requests.
//
//   - For small messages, a single connection per endpoint is often more
//     efficient due to reduced connection overhead.
//
//   - The choice of serializer significantly affects performance. The binary
//     serializer provides the best performance and smallest payload size.
//
// Thread Safety:
//
//	All client implementations are thread-safe and can be used concurrently
//	from multiple goroutines without additional synchronization.
package client
