package store

import (
	"errors"
	"fmt"
	"time"
)

// --------------------------------------------------------------------------
// Interface Definitions
// --------------------------------------------------------------------------

// IConditionalStore is the minimal surface the lock manager depends on.
// Every backing store - in-memory, networked, replicated - must provide
// these four primitives with the stated atomicity guarantees.
type IConditionalStore interface {
	// SetIfAbsent inserts a key-value pair only if the key does not exist.
	// The ttl is applied in the same atomic operation as the write, never as
	// a separate step. A ttl <= 0 means no expiry.
	// The boolean return value indicates whether the set occurred.
	SetIfAbsent(key string, value []byte, ttl time.Duration) (ok bool, err error)

	// CompareAndDelete deletes the key only if its current value equals
	// expected. The comparison and the deletion are a single atomic
	// operation. The boolean return value indicates whether the deletion
	// occurred.
	CompareAndDelete(key string, expected []byte) (ok bool, err error)

	// CompareAndExtend updates the key's expiry only if its current value
	// equals expected. The value itself is not changed. A ttl <= 0 removes
	// the expiry. The boolean return value indicates whether the update
	// occurred.
	CompareAndExtend(key string, expected []byte, ttl time.Duration) (ok bool, err error)

	// Get returns the value for a key. The boolean return value indicates
	// whether a (not expired) value for the key was found.
	Get(key string) (value []byte, loaded bool, err error)
}

// IStore is the generic interface for interacting with a key-value store.
// It extends the conditional primitives with the plain operations exposed to
// clients: unconditional writes, deletes, counters and existence checks.
type IStore interface {
	IConditionalStore

	// Set inserts or updates a key-value pair. A ttl <= 0 means no expiry.
	Set(key string, value []byte, ttl time.Duration) (err error)

	// Delete deletes a key-value pair unconditionally.
	Delete(key string) (err error)

	// Increment atomically increments the integer value stored at key by one
	// and returns the new value. A missing key counts up from zero. The
	// key's expiry, if any, is left untouched.
	Increment(key string) (value int64, err error)

	// Has returns whether a key exists in the store.
	Has(key string) (loaded bool, err error)

	// Close releases all resources held by the store.
	Close() (err error)
}

// --------------------------------------------------------------------------
// Custom Error Type
// --------------------------------------------------------------------------

// Error is a custom error type that wraps a return code (of type RetCode)
// and an error message. All store implementations report failures through
// this type so callers can tell transient unavailability apart from caller
// mistakes.
type Error struct {
	Code RetCode // The return code
	Msg  string  // The error message
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("KVStoreError (code %s): %s", e.Code, e.Msg)
}

// NewError creates a new store Error with the given code and message.
func NewError(code RetCode, msg string) *Error {
	return &Error{
		Code: code,
		Msg:  msg,
	}
}

// IsUnavailable reports whether err is a store Error with code
// RetCUnavailable, i.e. a transient transport or timeout failure where the
// outcome at the store is unknown.
func IsUnavailable(err error) bool {
	var se *Error
	return errors.As(err, &se) && se.Code == RetCUnavailable
}

// --------------------------------------------------------------------------
// Return Codes
// --------------------------------------------------------------------------

type RetCode uint64

const (
	RetCSuccess          RetCode = iota // 0: Operation executed successfully.
	RetCInternalError                   // 1: Operation failed due to an internal error.
	RetCUnavailable                     // 2: Store unreachable, outcome unknown.
	RetCInvalidOperation                // 3: Invalid operation.
)

func (c RetCode) String() string {
	switch c {
	case RetCSuccess:
		return "Success"
	case RetCInternalError:
		return "InternalError"
	case RetCUnavailable:
		return "Unavailable"
	case RetCInvalidOperation:
		return "InvalidOperation"
	default:
		return "Unknown"
	}
}
