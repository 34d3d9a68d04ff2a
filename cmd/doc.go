// Package cmd implements the command-line interface for the lockd distributed
// lock service. It provides a hierarchical command structure with operations
// for running the server and interacting with it as a client.
//
// The package is organized into several subpackages:
//
//   - lock: Commands for locking operations (acquire, release, renew, held)
//   - kv: Commands for key-value store operations (get, set, delete, etc.)
//   - serve: Commands for starting and configuring the lockd server
//   - util: Shared utilities for command-line processing and configuration (internal use)
//
// See lockd -help for a list of all commands.
package cmd
