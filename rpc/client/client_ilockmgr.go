package client

import (
	"time"

	"github.com/lockforge/lockd/lib/lock"
	"github.com/lockforge/lockd/rpc/common"
	"github.com/lockforge/lockd/rpc/serializer"
	"github.com/lockforge/lockd/rpc/transport"
)

// NewRPCLockManager creates a new RPC ILockManager
// The function takes a shard ID, a config, a transport and a serializer as parameters
// It returns a lock.ILockManager and an error
func NewRPCLockManager(
	shardId uint64,
	config common.ClientConfig,
	transport transport.IRPCClientTransport,
	serializer serializer.IRPCSerializer,
) (lock.ILockManager, error) {

	// Connect the transport
	err := transport.Connect(config)
	if err != nil {
		return nil, err
	}

	// Create a new RPC lock manager
	l := rpcLockMgr{
		rpcClientAdapter{
			shardId:    shardId,
			config:     config,
			transport:  transport,
			serializer: serializer,
		},
	}

	// Return the RPC lock manager
	return &l, nil
}

type rpcLockMgr struct {
	rpcClientAdapter
}

// --------------------------------------------------------------------------
// Interface Methods (docu see the lock package in interface.go)
// --------------------------------------------------------------------------

// Validation mirrors the local lock manager so invalid calls fail fast
// without a network round trip.

func (i *rpcLockMgr) Acquire(key string, lease time.Duration) (*lock.Handle, bool, error) {
	if key == "" {
		return nil, false, lock.ErrInvalidKey
	}
	if lease <= 0 {
		return nil, false, lock.ErrInvalidLease
	}

	req := common.NewAcquireRequest(key, ttlToMillis(lease))
	resp, err := invokeRPCRequest(i.shardId, req, i.transport, i.serializer)
	if err != nil {
		return nil, false, err
	}
	if !resp.Ok {
		return nil, false, nil
	}
	return &lock.Handle{Key: key, Token: string(resp.Value)}, true, nil
}

func (i *rpcLockMgr) Release(handle *lock.Handle) (bool, error) {
	if handle == nil || handle.Key == "" || handle.Token == "" {
		return false, lock.ErrNilHandle
	}

	req := common.NewReleaseRequest(handle.Key, []byte(handle.Token))
	resp, err := invokeRPCRequest(i.shardId, req, i.transport, i.serializer)
	if err != nil {
		return false, err
	}
	return resp.Ok, nil
}

func (i *rpcLockMgr) Renew(handle *lock.Handle, lease time.Duration) (bool, error) {
	if handle == nil || handle.Key == "" || handle.Token == "" {
		return false, lock.ErrNilHandle
	}
	if lease <= 0 {
		return false, lock.ErrInvalidLease
	}

	req := common.NewRenewRequest(handle.Key, []byte(handle.Token), ttlToMillis(lease))
	resp, err := invokeRPCRequest(i.shardId, req, i.transport, i.serializer)
	if err != nil {
		return false, err
	}
	return resp.Ok, nil
}

func (i *rpcLockMgr) IsHeld(key string) (bool, error) {
	if key == "" {
		return false, lock.ErrInvalidKey
	}

	req := common.NewHeldRequest(key)
	resp, err := invokeRPCRequest(i.shardId, req, i.transport, i.serializer)
	if err != nil {
		return false, err
	}
	return resp.Ok, nil
}
