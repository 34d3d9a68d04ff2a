// Package testing provides standardised tests and benchmarks for store
// implementations that satisfy the store.IStore interface.
//
// The package contains:
//   - testing: A comprehensive test suite for validating conformance to the IStore interface contract
//   - benchmark: Performance tests for measuring throughput of common store operations
//
// The suite is clock-agnostic: callers pass an AdvanceFunc that moves time
// forward, which is time.Sleep for stores on the real clock and a
// fast-forward for test servers with a virtual clock.
//
// Example usage:
//
//	// Creating a factory function for your implementation
//	factory := func() store.IStore {
//		return NewMyStore()
//	}
//
//	// Running the standard test suite
//	testing.RunStoreTests(t, "MyStore", factory, time.Sleep)
//
//	// Running performance benchmarks
//	testing.RunStoreBenchmarks(b, "MyStore", factory)
package testing
