package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/VictoriaMetrics/metrics"
	"github.com/lockforge/lockd/lib/logging"
	"github.com/lockforge/lockd/lib/store"
	"github.com/lockforge/lockd/lib/store/mstore"
	"github.com/lockforge/lockd/lib/store/rstore"
	"github.com/lockforge/lockd/rpc/common"
	"github.com/lockforge/lockd/rpc/serializer"
	"github.com/lockforge/lockd/rpc/transport"
	"github.com/puzpuzpuz/xsync/v3"
)

var logger = logging.GetLogger("rpc/server")

// serverShard is a struct that represents a shard in the RPC server
// It contains the store the shard encapsulates and the adapter
// that handles requests for the store
type serverShard struct {
	Store   store.IStore
	Adapter IRPCServerAdapter
}

// NewRPCServer creates a new RPC server
// It takes a config, transport and serializer as parameters
//
// Usage:
//
//	s := server.NewRPCServer(
//		*config,
//		tcp.NewTCPServerTransport(),
//		serializer.NewBinarySerializer(),
//	)
//
//	if err := s.Serve(); err != nil {
//		panic(err)
//	}
func NewRPCServer(
	config common.ServerConfig,
	transport transport.IRPCServerTransport,
	serializer serializer.IRPCSerializer,
) rpcServer {
	// Create shards map
	shardMap := xsync.NewMapOf[uint64, serverShard]()

	logger.Infof("Created RPC Server")
	logger.Infof(config.String())

	// Create the RPC server
	return rpcServer{
		config:     config,
		transport:  transport,
		serializer: serializer,
		shards:     shardMap,
	}
}

type rpcServer struct {
	config     common.ServerConfig
	transport  transport.IRPCServerTransport
	serializer serializer.IRPCSerializer
	shards     *xsync.MapOf[uint64, serverShard]
}

func (s *rpcServer) registerTransportHandler() {
	s.transport.RegisterHandler(func(shardId uint64, req []byte) []byte {
		var msg common.Message
		var respMsg common.Message

		start := time.Now()

		// Get appropriate shard
		shard, ok := s.shards.Load(shardId)

		// Case shard does not exist -> error
		if !ok {
			respMsg = common.Message{
				MsgType: common.MsgTError,
				ErrCode: uint64(store.RetCInvalidOperation),
				Err:     "shard not found",
			}
		} else {
			// Decode the request
			err := s.serializer.Deserialize(req, &msg)

			if err != nil {
				respMsg = common.Message{
					MsgType: common.MsgTError,
					ErrCode: uint64(store.RetCInternalError),
					Err:     fmt.Sprintf("failed to deserialize request: %s", err),
				}
			} else {
				// Let the adapter handle the request
				respMsg = *shard.Adapter.Handle(&msg, shard.Store)
			}
		}

		// Track request counts, failures and latency per shard
		metrics.GetOrCreateCounter(fmt.Sprintf(`rpc_requests_total{shard=%q,op=%q}`, fmt.Sprint(shardId), msg.MsgType)).Inc()
		if respMsg.Err != "" {
			metrics.GetOrCreateCounter(fmt.Sprintf(`rpc_request_errors_total{shard=%q}`, fmt.Sprint(shardId))).Inc()
		}
		metrics.GetOrCreateSummary(fmt.Sprintf(`rpc_request_duration_seconds{shard=%q}`, fmt.Sprint(shardId))).UpdateDuration(start)

		// Return result
		val, err := s.serializer.Serialize(respMsg)
		if err != nil {
			respMsg = common.Message{
				MsgType: common.MsgTError,
				ErrCode: uint64(store.RetCInternalError),
				Err:     fmt.Sprintf("failed to serialize response: %s", err),
			}
			val, _ = s.serializer.Serialize(respMsg)
		}
		return val
	})
}

func (s *rpcServer) init() error {

	// Init loggers
	logging.SetLevelAll(logging.ParseLogLevel(s.config.LogLevel))

	// CREATE SHARDS

	/*
		Note: A single RPC server can have any number of shards. Each shard is
		either a plain key-value store or a lock manager, backed by either the
		in-memory store or redis. The following loop creates all the shards
		and stores them for the RPC server.
	*/

	for _, shardConfig := range s.config.Shards {

		// Create the backing store for this shard
		st, err := s.createStore(shardConfig)
		if err != nil {
			return fmt.Errorf("failed to create store for shard %d: %w", shardConfig.ShardID, err)
		}

		// Choose the appropriate adapter based on the shard kind
		var adapter IRPCServerAdapter
		switch shardConfig.Kind {
		case common.ShardKindStore:
			adapter = NewIStoreServerAdapter()
		case common.ShardKindLock:
			adapter = NewLockManagerServerAdapter()
		default:
			return fmt.Errorf("invalid shard kind: %s", shardConfig.Kind)
		}

		s.shards.Store(shardConfig.ShardID, serverShard{
			Store:   st,
			Adapter: adapter,
		})
		logger.Infof("created %s shard %d (%s backend)", shardConfig.Kind, shardConfig.ShardID, shardConfig.Backend)
	}

	logger.Infof("lockd setup completed successfully")

	// Start the metrics listener if configured
	if s.config.MetricsEndpoint != "" {
		go s.serveMetrics()
	}

	// Configure the transport layer
	s.registerTransportHandler()

	return nil
}

// createStore creates the backing store for a single shard
func (s *rpcServer) createStore(shardConfig common.ServerShard) (store.IStore, error) {
	switch shardConfig.Backend {
	case common.BackendMemory:
		return mstore.NewStore(&mstore.Options{
			NumShards:  s.config.MemoryStoreNumShards,
			GCInterval: time.Duration(s.config.GCIntervalMillis) * time.Millisecond,
		}), nil
	case common.BackendRedis:
		return rstore.NewStore(&rstore.Options{
			Addr:         s.config.RedisConf.Addr,
			Password:     s.config.RedisConf.Password,
			DB:           s.config.RedisConf.DB,
			PoolSize:     s.config.RedisConf.PoolSize,
			MinIdleConns: s.config.RedisConf.MinIdleConns,
			OpTimeout:    time.Duration(s.config.TimeoutSecond) * time.Second,
		})
	default:
		return nil, fmt.Errorf("invalid shard backend: %s", shardConfig.Backend)
	}
}

// serveMetrics exposes all collected metrics in prometheus text format
func (s *rpcServer) serveMetrics() {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /metrics", func(w http.ResponseWriter, r *http.Request) {
		metrics.WritePrometheus(w, true)
	})

	logger.Infof("Starting metrics server on %s", s.config.MetricsEndpoint)
	if err := http.ListenAndServe(s.config.MetricsEndpoint, mux); err != nil {
		logger.Errorf("Metrics server error: %v", err)
	}
}

// Serve starts the RPC server
// This function will also initialize the server plus the shards and start the transport layer
func (s *rpcServer) Serve() error {
	err := s.init()
	if err != nil {
		return err
	}
	return s.transport.Listen(s.config)
}
