package server

import (
	"fmt"
	"time"

	"github.com/lockforge/lockd/lib/lock"
	"github.com/lockforge/lockd/lib/store"
	"github.com/lockforge/lockd/rpc/common"
)

func NewLockManagerServerAdapter() IRPCServerAdapter {
	return &lockMgrServerAdapterImpl{}
}

type lockMgrServerAdapterImpl struct{}

func (adapter *lockMgrServerAdapterImpl) Handle(req *common.Message, st store.IStore) (resp *common.Message) {
	// Check for nil store
	if st == nil {
		return common.NewErrorResponse(fmt.Errorf("handler: store is nil"))
	}

	// Create lock manager
	locks := lock.NewLockManager(st)

	// The wire carries the lease as milliseconds, the manager takes a duration
	lease := time.Duration(req.TTLMillis) * time.Millisecond

	// Handle different message types
	switch req.MsgType {
	case common.MsgTLCKAcquire:
		handle, ok, err := locks.Acquire(req.Key, lease)
		var token []byte
		if handle != nil {
			token = []byte(handle.Token)
		}
		return common.NewAcquireResponse(ok, token, err)
	case common.MsgTLCKRelease:
		ok, err := locks.Release(&lock.Handle{Key: req.Key, Token: string(req.Value)})
		return common.NewReleaseResponse(ok, err)
	case common.MsgTLCKRenew:
		ok, err := locks.Renew(&lock.Handle{Key: req.Key, Token: string(req.Value)}, lease)
		return common.NewRenewResponse(ok, err)
	case common.MsgTLCKHeld:
		held, err := locks.IsHeld(req.Key)
		return common.NewHeldResponse(held, err)
	default:
		return common.NewErrorResponse(fmt.Errorf("RPC LockManagerAdapter - Unsupported message type: %s", req.MsgType))
	}
}
