package server

import (
	"fmt"
	"time"

	"github.com/lockforge/lockd/lib/store"
	"github.com/lockforge/lockd/rpc/common"
)

func NewIStoreServerAdapter() IRPCServerAdapter {
	return &iStoreServerAdapterImpl{}
}

type iStoreServerAdapterImpl struct{}

func (adapter *iStoreServerAdapterImpl) Handle(req *common.Message, st store.IStore) *common.Message {
	// Check for nil store
	if st == nil {
		return common.NewErrorResponse(fmt.Errorf("handler: store is nil"))
	}

	// The wire carries expiry as milliseconds, the store takes a duration
	ttl := time.Duration(req.TTLMillis) * time.Millisecond

	// Handle different message types
	switch req.MsgType {
	case common.MsgTKVSet:
		err := st.Set(req.Key, req.Value, ttl)
		return common.NewSetResponse(err)
	case common.MsgTKVSetIfAbsent:
		ok, err := st.SetIfAbsent(req.Key, req.Value, ttl)
		return common.NewSetIfAbsentResponse(ok, err)
	case common.MsgTKVCompareAndDelete:
		ok, err := st.CompareAndDelete(req.Key, req.Value)
		return common.NewCompareAndDeleteResponse(ok, err)
	case common.MsgTKVCompareAndExtend:
		ok, err := st.CompareAndExtend(req.Key, req.Value, ttl)
		return common.NewCompareAndExtendResponse(ok, err)
	case common.MsgTKVGet:
		val, ok, err := st.Get(req.Key)
		return common.NewGetResponse(val, ok, err)
	case common.MsgTKVDelete:
		err := st.Delete(req.Key)
		return common.NewDeleteResponse(err)
	case common.MsgTKVIncr:
		val, err := st.Increment(req.Key)
		return common.NewIncrResponse(val, err)
	case common.MsgTKVHas:
		ok, err := st.Has(req.Key)
		return common.NewHasResponse(ok, err)
	default:
		return common.NewErrorResponse(
			fmt.Errorf("RPC IStoreAdapter - Unsupported message type: %s", req.MsgType),
		)
	}
}
