// Package common provides core data structures and utilities shared across
// the lock service. It defines fundamental types, configuration structures,
// and protocol elements used by other packages.
//
// The package focuses on:
//   - Message protocol definition for inter-component communication
//   - Configuration structures for client and server components
//   - Error transport that preserves typed store errors across the wire
//
// Key Components:
//
//   - Message: Core data structure for all RPC communication between
//     components, with a flexible structure that adapts to different
//     operation types. Includes factory methods for creating various request
//     and response messages, and DecodeErr for rebuilding typed store
//     errors on the receiving side.
//
//   - MessageType: Enumeration defining all supported operation types in
//     the system, categorized into key-value operations, lock operations,
//     and control messages.
//
//   - ServerConfig: Comprehensive configuration for the server, including
//     shard layout, store backends, network configuration, and the metrics
//     endpoint. Validated with go-playground/validator before use.
//
//   - ClientConfig: Configuration for client components, controlling
//     connection parameters, timeouts, and retry behavior.
package common
