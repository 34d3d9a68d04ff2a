package serve

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	cmdUtil "github.com/lockforge/lockd/cmd/util"
	"github.com/lockforge/lockd/rpc/common"
	"github.com/lockforge/lockd/rpc/serializer"
	"github.com/lockforge/lockd/rpc/server"
	"github.com/lockforge/lockd/rpc/transport"
	"github.com/lockforge/lockd/rpc/transport/http"
	"github.com/lockforge/lockd/rpc/transport/tcp"
	"github.com/lockforge/lockd/rpc/transport/unix"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	serveCmdConfig = &common.ServerConfig{}
	ServeCmd       = &cobra.Command{
		Use:     "serve",
		Short:   "Start the lockd server",
		Long:    `Start the lockd server with the specified configuration. The configuration can be set via command line flags or environment variables. The format of the environment variables is LOCKD_<flag> (e.g. LOCKD_TIMEOUT=15)`,
		PreRunE: processConfig,
		RunE:    run,
	}
)

func init() {
	// initialize viper
	cobra.OnInitialize(initConfig)

	// add flags
	key := "shards"
	ServeCmd.PersistentFlags().String(key, "100=store(memory),200=lock(memory)", cmdUtil.WrapString("Comma-separated list of shards to serve. Format: ID=KIND(BACKEND) where KIND is one of: store, lock and BACKEND is one of: memory, redis"))

	key = "endpoint"
	ServeCmd.PersistentFlags().String(key, "0.0.0.0:8080", cmdUtil.WrapString("The address on which the API will listen (e.g. localhost:8080, /tmp/lockd.sock, ...)"))

	key = "timeout"
	ServeCmd.PersistentFlags().Int(key, 5, cmdUtil.WrapString("Per request timeout in seconds"))

	key = "max-workers-per-conn"
	ServeCmd.PersistentFlags().Int(key, 16, cmdUtil.WrapString("Maximum number of concurrently processed requests per connection"))

	key = "max-conns"
	ServeCmd.PersistentFlags().Int(key, 1024, cmdUtil.WrapString("Maximum number of concurrently served connections"))

	key = "tcp-buffer"
	ServeCmd.PersistentFlags().Int(key, 512, cmdUtil.WrapString("The read buffer size for the tcp transport (in KB)"))

	key = "unix-buffer"
	ServeCmd.PersistentFlags().Int(key, 64, cmdUtil.WrapString("The read buffer size for the unix transport (in KB)"))

	key = "tcp-nodelay"
	ServeCmd.PersistentFlags().Bool(key, true, cmdUtil.WrapString("Whether to enable TCP_NODELAY (only for tcp)"))

	key = "tcp-keepalive"
	ServeCmd.PersistentFlags().Bool(key, false, cmdUtil.WrapString("Whether to enable TCP keep-alive probes (only for tcp)"))

	key = "metrics-endpoint"
	ServeCmd.PersistentFlags().String(key, "", cmdUtil.WrapString("The address on which prometheus metrics are exposed (empty = disabled)"))

	key = "redis-addr"
	ServeCmd.PersistentFlags().String(key, "", cmdUtil.WrapString("Address of the redis server backing redis shards (host:port)"))

	key = "redis-password"
	ServeCmd.PersistentFlags().String(key, "", cmdUtil.WrapString("Password for the redis server (empty = no auth)"))

	key = "redis-db"
	ServeCmd.PersistentFlags().Int(key, 0, cmdUtil.WrapString("Redis database number"))

	key = "redis-pool-size"
	ServeCmd.PersistentFlags().Int(key, 10, cmdUtil.WrapString("Redis connection pool size"))

	key = "redis-min-idle-conns"
	ServeCmd.PersistentFlags().Int(key, 5, cmdUtil.WrapString("Minimum number of idle redis connections"))

	key = "gc-interval"
	ServeCmd.PersistentFlags().Int(key, 0, cmdUtil.WrapString("Garbage collection interval for memory shards (in milliseconds, 0 = default)"))

	key = "memory-shards"
	ServeCmd.PersistentFlags().Int(key, 0, cmdUtil.WrapString("Number of internal shards per memory store (0 = number of CPUs)"))

	key = "log-level"
	ServeCmd.PersistentFlags().String(key, "info", cmdUtil.WrapString("LogLevel is the level at which logs will be output (debug, info, warning, error, critical)"))
}

// processConfig reads the configuration from the command line flags and environment variables and converts them to the server configuration
func processConfig(cmd *cobra.Command, _ []string) error {
	// bind the flags to viper
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	// parse shards
	shardsConfig := viper.GetString("shards")
	serveCmdConfig.Shards = []common.ServerShard{}
	for _, shardConfig := range strings.Split(shardsConfig, ",") {
		parts := strings.Split(shardConfig, "=")
		if len(parts) != 2 {
			return fmt.Errorf("invalid shard format: %s (expected ID=KIND(BACKEND))", shardConfig)
		}

		// Parse shard ID
		shardID, err := strconv.ParseUint(strings.TrimSpace(parts[0]), 10, 64)
		if err != nil {
			return fmt.Errorf("invalid shard ID %s: %v", parts[0], err)
		}

		// Parse shard kind and backend, e.g. "lock(redis)"
		kind, backend, err := parseShardSpec(strings.TrimSpace(parts[1]))
		if err != nil {
			return err
		}

		serveCmdConfig.Shards = append(serveCmdConfig.Shards, common.ServerShard{
			ShardID: shardID,
			Kind:    kind,
			Backend: backend,
		})
	}

	// read the configuration from the command line flags and environment variables
	serveCmdConfig.Endpoint = viper.GetString("endpoint")
	serveCmdConfig.TimeoutSecond = viper.GetInt("timeout")
	serveCmdConfig.MaxWorkersPerConn = viper.GetInt("max-workers-per-conn")
	serveCmdConfig.MaxConcurrentConn = viper.GetInt("max-conns")
	serveCmdConfig.TCPBufferSizeBytes = viper.GetInt("tcp-buffer") * 1024
	serveCmdConfig.UnixBufferSizeBytes = viper.GetInt("unix-buffer") * 1024
	serveCmdConfig.EnableTCPNoDelay = viper.GetBool("tcp-nodelay")
	serveCmdConfig.EnableTCPKeepAlloc = viper.GetBool("tcp-keepalive")
	serveCmdConfig.MetricsEndpoint = viper.GetString("metrics-endpoint")
	serveCmdConfig.GCIntervalMillis = viper.GetInt("gc-interval")
	serveCmdConfig.MemoryStoreNumShards = viper.GetInt("memory-shards")
	serveCmdConfig.LogLevel = viper.GetString("log-level")

	serveCmdConfig.RedisConf = common.RedisConfig{
		Addr:         viper.GetString("redis-addr"),
		Password:     viper.GetString("redis-password"),
		DB:           viper.GetInt("redis-db"),
		PoolSize:     viper.GetInt("redis-pool-size"),
		MinIdleConns: viper.GetInt("redis-min-idle-conns"),
	}

	return serveCmdConfig.Validate()
}

// parseShardSpec parses a shard spec of the form KIND(BACKEND), e.g.
// "store(memory)" or "lock(redis)"
func parseShardSpec(spec string) (common.ServerShardKind, common.ServerShardBackend, error) {
	open := strings.Index(spec, "(")
	if open < 0 || !strings.HasSuffix(spec, ")") {
		return "", "", fmt.Errorf("invalid shard spec: %s (expected KIND(BACKEND))", spec)
	}

	kind := common.ServerShardKind(spec[:open])
	backend := common.ServerShardBackend(spec[open+1 : len(spec)-1])

	if kind != common.ShardKindStore && kind != common.ShardKindLock {
		return "", "", fmt.Errorf("invalid shard kind: %s (expected one of: store, lock)", kind)
	}
	if backend != common.BackendMemory && backend != common.BackendRedis {
		return "", "", fmt.Errorf("invalid shard backend: %s (expected one of: memory, redis)", backend)
	}

	return kind, backend, nil
}

// run starts the lockd server
func run(_ *cobra.Command, _ []string) error {

	// parse the serializer
	var s serializer.IRPCSerializer
	switch viper.GetString("serializer") {
	case "json":
		s = serializer.NewJSONSerializer()
	case "gob":
		s = serializer.NewGOBSerializer()
	case "binary":
		s = serializer.NewBinarySerializer()
	default:
		return fmt.Errorf("invalid serializer %s", viper.GetString("serializer"))
	}

	// parse the transport
	var t transport.IRPCServerTransport
	switch viper.GetString("transport") {
	case "http":
		t = http.NewHttpServerTransport()
	case "tcp":
		t = tcp.NewTCPServerTransport()
	case "unix":
		t = unix.NewUnixServerTransport()
	default:
		return fmt.Errorf("invalid transport %s", viper.GetString("transport"))
	}

	serv := server.NewRPCServer(
		*serveCmdConfig,
		t,
		s,
	)

	return serv.Serve()
}

// initConfig reads in serveCmdConfig file and ENV variables if set.
func initConfig() {
	// load env files
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	// initialize viper
	viper.SetEnvPrefix("lockd")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv() // read in environment variables that match
}
