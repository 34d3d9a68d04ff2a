package client

import (
	"fmt"
	"time"

	"github.com/lockforge/lockd/lib/store"
	"github.com/lockforge/lockd/rpc/common"
	"github.com/lockforge/lockd/rpc/serializer"
	"github.com/lockforge/lockd/rpc/transport"
)

// rpcClientAdapter is a struct that stores all data needed for an implementation of an RPC client
// Used by the RPCStore and RPCLockManager with composition pattern
type rpcClientAdapter struct {
	shardId    uint64
	config     common.ClientConfig
	transport  transport.IRPCClientTransport
	serializer serializer.IRPCSerializer
}

// ttlToMillis converts a duration to the wire representation of an expiry.
// Zero means no expiry, so a positive sub-millisecond ttl is rounded up
// instead of silently becoming "never expires".
func ttlToMillis(ttl time.Duration) uint64 {
	if ttl <= 0 {
		return 0
	}
	millis := ttl.Milliseconds()
	if millis < 1 {
		millis = 1
	}
	return uint64(millis)
}

// invokeRPCRequest is a helper function used for all RPC clients to send requests
// It takes a shard ID, a request message, a transport layer and a serializer as parameters
// It returns a response message and an error if any occurs
// This method also checks if the response is an error response and if the type of the response is the expected type
//
// Transport failures are reported as unavailable store errors: the request may
// or may not have reached the server, so the outcome is unknown. Errors carried
// inside a response are rebuilt with their original return code.
func invokeRPCRequest(shardId uint64, req *common.Message, transport transport.IRPCClientTransport, serializer serializer.IRPCSerializer) (*common.Message, error) {
	// Serialize the request
	reqBytes, err := serializer.Serialize(*req)
	if err != nil {
		return nil, err
	}

	// Send the request
	respBytes, err := transport.Send(shardId, reqBytes)
	if err != nil {
		return nil, store.NewError(store.RetCUnavailable, fmt.Sprintf("rpc send failed: %s", err))
	}

	// Deserialize the response
	resp := &common.Message{}
	err = serializer.Deserialize(respBytes, resp)
	if err != nil {
		return nil, fmt.Errorf("rpc client - failed to deserialize response: %s", err)
	}

	// Check if the response carries an error
	if err := resp.DecodeErr(); err != nil {
		return nil, err
	}

	// Check if the type of the response is the expected type
	if resp.MsgType != req.MsgType {
		return nil, fmt.Errorf("rpc client - unexpected message type: %s, expected %s", resp.MsgType, req.MsgType)
	}

	// Return the response
	return resp, nil
}
