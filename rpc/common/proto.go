package common

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lockforge/lockd/lib/store"
)

// --------------------------------------------------------------------------
// Message Structure
// --------------------------------------------------------------------------

// Message represents a single message used for both requests and responses.
// Which fields are used depends on the type of message.
type Message struct {
	// Type of message
	MsgType MessageType `json:"msg_type"`

	// General fields
	Key       string `json:"key,omitempty"`        // Used for: all KV and lock operations
	TTLMillis uint64 `json:"ttl_millis,omitempty"` // Lease/expiry in milliseconds (0 = no expiry)
	Value     []byte `json:"value,omitempty"`      // Value (Set), expected value (CompareAnd*), token (lock ops), result (Get)

	// Response only fields
	Ok    bool  `json:"ok,omitempty"`    // Boolean operation result
	Count int64 `json:"count,omitempty"` // Used for: Incr responses

	// Error fields. Err is empty if no error occurred. ErrCode carries the
	// store return code so clients can rebuild the typed error.
	ErrCode uint64 `json:"err_code,omitempty"`
	Err     string `json:"err,omitempty"`

	// Meta information
	Meta []byte `json:"meta,omitempty"` // Unused, can be used for additional Adapters
}

// --------------------------------------------------------------------------
// Error Helpers
// --------------------------------------------------------------------------

// setError flattens an error into the message's error fields. Typed store
// errors keep their return code so the remote side can rebuild them.
func setError(msg *Message, err error) *Message {
	if err != nil {
		msg.Err = err.Error()
		var se *store.Error
		if errors.As(err, &se) {
			msg.ErrCode = uint64(se.Code)
		} else {
			msg.ErrCode = uint64(store.RetCInternalError)
		}
	}
	return msg
}

// DecodeErr rebuilds the error carried by a response message, or nil if the
// message carries none.
func (m *Message) DecodeErr() error {
	if m.Err == "" {
		return nil
	}
	return store.NewError(store.RetCode(m.ErrCode), m.Err)
}

// --------------------------------------------------------------------------
// Message Factory Functions - KV Operations
// --------------------------------------------------------------------------

// NewSetRequest creates a new Set request
func NewSetRequest(key string, value []byte, ttlMillis uint64) *Message {
	return &Message{
		MsgType:   MsgTKVSet,
		Key:       key,
		Value:     value,
		TTLMillis: ttlMillis,
	}
}

// NewSetResponse creates a new Set response
func NewSetResponse(err error) *Message {
	return setError(&Message{MsgType: MsgTKVSet}, err)
}

// NewSetIfAbsentRequest creates a new SetIfAbsent request
func NewSetIfAbsentRequest(key string, value []byte, ttlMillis uint64) *Message {
	return &Message{
		MsgType:   MsgTKVSetIfAbsent,
		Key:       key,
		Value:     value,
		TTLMillis: ttlMillis,
	}
}

// NewSetIfAbsentResponse creates a new SetIfAbsent response
func NewSetIfAbsentResponse(ok bool, err error) *Message {
	return setError(&Message{MsgType: MsgTKVSetIfAbsent, Ok: ok}, err)
}

// NewCompareAndDeleteRequest creates a new CompareAndDelete request
func NewCompareAndDeleteRequest(key string, expected []byte) *Message {
	return &Message{
		MsgType: MsgTKVCompareAndDelete,
		Key:     key,
		Value:   expected,
	}
}

// NewCompareAndDeleteResponse creates a new CompareAndDelete response
func NewCompareAndDeleteResponse(ok bool, err error) *Message {
	return setError(&Message{MsgType: MsgTKVCompareAndDelete, Ok: ok}, err)
}

// NewCompareAndExtendRequest creates a new CompareAndExtend request
func NewCompareAndExtendRequest(key string, expected []byte, ttlMillis uint64) *Message {
	return &Message{
		MsgType:   MsgTKVCompareAndExtend,
		Key:       key,
		Value:     expected,
		TTLMillis: ttlMillis,
	}
}

// NewCompareAndExtendResponse creates a new CompareAndExtend response
func NewCompareAndExtendResponse(ok bool, err error) *Message {
	return setError(&Message{MsgType: MsgTKVCompareAndExtend, Ok: ok}, err)
}

// NewGetRequest creates a new Get request
func NewGetRequest(key string) *Message {
	return &Message{
		MsgType: MsgTKVGet,
		Key:     key,
	}
}

// NewGetResponse creates a new Get response
func NewGetResponse(value []byte, ok bool, err error) *Message {
	return setError(&Message{MsgType: MsgTKVGet, Ok: ok, Value: value}, err)
}

// NewDeleteRequest creates a new Delete request
func NewDeleteRequest(key string) *Message {
	return &Message{
		MsgType: MsgTKVDelete,
		Key:     key,
	}
}

// NewDeleteResponse creates a new Delete response
func NewDeleteResponse(err error) *Message {
	return setError(&Message{MsgType: MsgTKVDelete}, err)
}

// NewIncrRequest creates a new Incr request
func NewIncrRequest(key string) *Message {
	return &Message{
		MsgType: MsgTKVIncr,
		Key:     key,
	}
}

// NewIncrResponse creates a new Incr response
func NewIncrResponse(value int64, err error) *Message {
	return setError(&Message{MsgType: MsgTKVIncr, Count: value}, err)
}

// NewHasRequest creates a new Has request
func NewHasRequest(key string) *Message {
	return &Message{
		MsgType: MsgTKVHas,
		Key:     key,
	}
}

// NewHasResponse creates a new Has response
func NewHasResponse(ok bool, err error) *Message {
	return setError(&Message{MsgType: MsgTKVHas, Ok: ok}, err)
}

// --------------------------------------------------------------------------
// Message Factory Functions - Lock Operations
// --------------------------------------------------------------------------

// NewAcquireRequest creates a new Acquire request
func NewAcquireRequest(key string, leaseMillis uint64) *Message {
	return &Message{
		MsgType:   MsgTLCKAcquire,
		Key:       key,
		TTLMillis: leaseMillis,
	}
}

// NewAcquireResponse creates a new Acquire response. The token identifies
// the acquisition and is carried in the value field.
func NewAcquireResponse(ok bool, token []byte, err error) *Message {
	return setError(&Message{MsgType: MsgTLCKAcquire, Ok: ok, Value: token}, err)
}

// NewReleaseRequest creates a new Release request
func NewReleaseRequest(key string, token []byte) *Message {
	return &Message{
		MsgType: MsgTLCKRelease,
		Key:     key,
		Value:   token,
	}
}

// NewReleaseResponse creates a new Release response
func NewReleaseResponse(ok bool, err error) *Message {
	return setError(&Message{MsgType: MsgTLCKRelease, Ok: ok}, err)
}

// NewRenewRequest creates a new Renew request
func NewRenewRequest(key string, token []byte, leaseMillis uint64) *Message {
	return &Message{
		MsgType:   MsgTLCKRenew,
		Key:       key,
		Value:     token,
		TTLMillis: leaseMillis,
	}
}

// NewRenewResponse creates a new Renew response
func NewRenewResponse(ok bool, err error) *Message {
	return setError(&Message{MsgType: MsgTLCKRenew, Ok: ok}, err)
}

// NewHeldRequest creates a new Held request
func NewHeldRequest(key string) *Message {
	return &Message{
		MsgType: MsgTLCKHeld,
		Key:     key,
	}
}

// NewHeldResponse creates a new Held response
func NewHeldResponse(held bool, err error) *Message {
	return setError(&Message{MsgType: MsgTLCKHeld, Ok: held}, err)
}

// --------------------------------------------------------------------------
// Message Factory Functions - Misc
// --------------------------------------------------------------------------

// NewCustomRequest creates a new Custom request
func NewCustomRequest(meta []byte) *Message {
	return &Message{
		MsgType: MsgTCustom,
		Meta:    meta,
	}
}

// NewCustomResponse creates a new Custom response
func NewCustomResponse(meta []byte, err error) *Message {
	return setError(&Message{MsgType: MsgTCustom, Meta: meta}, err)
}

// NewErrorResponse creates a new Error response
func NewErrorResponse(err error) *Message {
	return setError(&Message{MsgType: MsgTError}, err)
}

// --------------------------------------------------------------------------
// Message Type Definition
// --------------------------------------------------------------------------

// MessageType defines the type of message used in RPC communication.
type MessageType uint8

// String returns the string representation of a MessageType.
func (t MessageType) String() string {
	switch t {
	case MsgTKVSet:
		return "set"
	case MsgTKVSetIfAbsent:
		return "setIfAbsent"
	case MsgTKVCompareAndDelete:
		return "compareAndDelete"
	case MsgTKVCompareAndExtend:
		return "compareAndExtend"
	case MsgTKVGet:
		return "get"
	case MsgTKVDelete:
		return "delete"
	case MsgTKVIncr:
		return "incr"
	case MsgTKVHas:
		return "has"
	case MsgTLCKAcquire:
		return "acquire"
	case MsgTLCKRelease:
		return "release"
	case MsgTLCKRenew:
		return "renew"
	case MsgTLCKHeld:
		return "held"
	case MsgTCustom:
		return "custom"
	case MsgTError:
		return "error"
	case MsgTSuccess:
		return "success"
	default:
		return "unknown"
	}
}

// MarshalJSON implements the json.Marshaller interface for MessageType.
// This allows MessageType to be serialized as a string in JSON.
func (t MessageType) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// UnmarshalJSON implements the json.Unmarshaler interface for MessageType.
// This allows MessageType to be deserialized from a string in JSON.
func (t *MessageType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}

	// Convert string back to MessageType
	switch s {
	case "set":
		*t = MsgTKVSet
	case "setIfAbsent":
		*t = MsgTKVSetIfAbsent
	case "compareAndDelete":
		*t = MsgTKVCompareAndDelete
	case "compareAndExtend":
		*t = MsgTKVCompareAndExtend
	case "get":
		*t = MsgTKVGet
	case "delete":
		*t = MsgTKVDelete
	case "incr":
		*t = MsgTKVIncr
	case "has":
		*t = MsgTKVHas
	case "acquire":
		*t = MsgTLCKAcquire
	case "release":
		*t = MsgTLCKRelease
	case "renew":
		*t = MsgTLCKRenew
	case "held":
		*t = MsgTLCKHeld
	case "custom":
		*t = MsgTCustom
	case "error":
		*t = MsgTError
	case "success":
		*t = MsgTSuccess
	default:
		return fmt.Errorf("unknown message type: %s", s)
	}

	return nil
}

// --------------------------------------------------------------------------
// Message Type Constants
// --------------------------------------------------------------------------

const (
	// General message types

	MsgTUnknown MessageType = iota
	MsgTSuccess             // Indicates a successful operation
	MsgTError               // Indicates an error occurred

	// IStore operations

	MsgTKVSet              // Set a key-value pair
	MsgTKVSetIfAbsent      // Set a key-value pair if not already set
	MsgTKVCompareAndDelete // Delete a key only if its value matches
	MsgTKVCompareAndExtend // Re-arm a key's expiry only if its value matches
	MsgTKVGet              // Get a value by key
	MsgTKVDelete           // Delete a key-value pair
	MsgTKVIncr             // Increment an integer value
	MsgTKVHas              // Check if a key exists

	// ILockManager operations

	MsgTLCKAcquire // Acquire a lock
	MsgTLCKRelease // Release a lock
	MsgTLCKRenew   // Extend the lease of a held lock
	MsgTLCKHeld    // Check if a lock is held

	// Custom operations

	MsgTCustom // Custom operation type
)
