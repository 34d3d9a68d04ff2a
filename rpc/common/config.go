package common

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

// --------------------------------------------------------------------------
// Shard configuration
// --------------------------------------------------------------------------

// ServerShardKind selects which adapter serves a shard.
type ServerShardKind string

const (
	ShardKindStore ServerShardKind = "store" // plain key-value operations
	ShardKindLock  ServerShardKind = "lock"  // distributed lock operations
)

// ServerShardBackend selects which store implementation backs a shard.
type ServerShardBackend string

const (
	BackendMemory ServerShardBackend = "memory" // in-process sharded store
	BackendRedis  ServerShardBackend = "redis"  // redis-backed store
)

// ServerShard describes one shard served by the RPC server. Every shard has
// its own store instance, so locks and plain KV data never collide even
// when they use the same keys.
type ServerShard struct {
	// ShardID is the ID of the shard, referenced by clients in the frame header
	ShardID uint64 `validate:"required"`
	// Kind selects the adapter (store or lock)
	Kind ServerShardKind `validate:"required,oneof=store lock"`
	// Backend selects the store implementation
	Backend ServerShardBackend `validate:"required,oneof=memory redis"`
}

// --------------------------------------------------------------------------
// RPC server configuration struct
// --------------------------------------------------------------------------

// RedisConfig holds the connection parameters for redis-backed shards.
type RedisConfig struct {
	Addr         string `validate:"omitempty,hostname_port" mapstructure:"addr"`
	Password     string `mapstructure:"password"`
	DB           int    `validate:"gte=0" mapstructure:"db"`
	PoolSize     int    `validate:"gte=0" mapstructure:"pool-size"`
	MinIdleConns int    `validate:"gte=0" mapstructure:"min-idle-conns"`
}

// ServerConfig holds all configuration parameters for the RPC server.
type ServerConfig struct {
	// Shards served by this process
	Shards []ServerShard `validate:"min=1,dive"`

	// Transport settings
	Endpoint             string `validate:"required"` // address to listen on (transport specific)
	TimeoutSecond        int    `validate:"gt=0"`     // per request timeout
	MaxWorkersPerConn    int    `validate:"gt=0"`     // concurrent requests per connection
	MaxConcurrentConn    int    `validate:"gt=0"`     // concurrent connections
	TCPBufferSizeBytes   int    `validate:"gt=0"`     // read/write buffer size
	UnixBufferSizeBytes  int    `validate:"gt=0"`     // read/write buffer size for unix sockets
	HTTPEndpointPattern  string // http only: url pattern requests are served on
	EnableTCPNoDelay     bool   // tcp only: disable Nagle's algorithm
	EnableTCPKeepAlloc   bool   // tcp only: enable keep-alive probes
	MetricsEndpoint      string // address for the prometheus metrics listener ("" = disabled)
	RedisConf            RedisConfig
	GCIntervalMillis     int `validate:"gte=0"` // memory backend: gc interval (0 = default)
	MemoryStoreNumShards int `validate:"gte=0"` // memory backend: shard count (0 = NumCPU)

	// Logging configuration
	LogLevel string `validate:"oneof=debug info warning error critical"`
}

// Validate checks the configuration for completeness and consistency.
func (c *ServerConfig) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid server config: %w", err)
	}

	// shard ids must be unique
	seen := make(map[uint64]bool)
	needsRedis := false
	for _, shard := range c.Shards {
		if seen[shard.ShardID] {
			return fmt.Errorf("invalid server config: duplicate shard id %d", shard.ShardID)
		}
		seen[shard.ShardID] = true
		if shard.Backend == BackendRedis {
			needsRedis = true
		}
	}

	if needsRedis && c.RedisConf.Addr == "" {
		return fmt.Errorf("invalid server config: redis backend configured but no redis address given")
	}

	return nil
}

// String returns a formatted string representation of the configuration
func (c *ServerConfig) String() string {
	var sb strings.Builder

	// Create helper functions for consistent formatting
	addSection := func(title string) {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("%s\n", strings.ToUpper(title)))
	}

	addField := func(name, value string) {
		sb.WriteString(fmt.Sprintf("  %-22s: %s\n", name, value))
	}

	// RPC settings
	addSection("RPC Server")
	addField("Endpoint", c.Endpoint)
	addField("Timeout", fmt.Sprintf("%d sec", c.TimeoutSecond))
	addField("Workers Per Conn", strconv.Itoa(c.MaxWorkersPerConn))
	addField("Max Connections", strconv.Itoa(c.MaxConcurrentConn))
	if c.MetricsEndpoint != "" {
		addField("Metrics Endpoint", c.MetricsEndpoint)
	}

	// Logging configuration
	addSection("Logging")
	addField("Log Level", c.LogLevel)

	// Shards
	addSection("Shards")

	// Sort shards for consistent output
	shards := make([]ServerShard, len(c.Shards))
	copy(shards, c.Shards)
	sort.Slice(shards, func(i, j int) bool { return shards[i].ShardID < shards[j].ShardID })

	for _, shard := range shards {
		addField(strconv.FormatUint(shard.ShardID, 10),
			fmt.Sprintf("%s (%s)", shard.Kind, shard.Backend))
	}

	// Redis settings (only when some shard uses them)
	for _, shard := range c.Shards {
		if shard.Backend == BackendRedis {
			addSection("Redis")
			addField("Address", c.RedisConf.Addr)
			addField("Database", strconv.Itoa(c.RedisConf.DB))
			addField("Pool Size", strconv.Itoa(c.RedisConf.PoolSize))
			addField("Min Idle Conns", strconv.Itoa(c.RedisConf.MinIdleConns))
			break
		}
	}

	return sb.String()
}

// --------------------------------------------------------------------------
// RPC client configuration struct
// --------------------------------------------------------------------------

// ClientConfig holds all configuration parameters for RPC clients.
type ClientConfig struct {
	Endpoints              []string `validate:"min=1,dive,required"`
	TimeoutSecond          int      `validate:"gt=0"`
	RetryCount             int      `validate:"gte=0"`
	ConnectionsPerEndpoint int      `validate:"gt=0"`
}

// Validate checks the configuration for completeness and consistency.
func (c *ClientConfig) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid client config: %w", err)
	}
	return nil
}

// String returns a formatted string representation of the client configuration
func (c *ClientConfig) String() string {
	var sb strings.Builder

	// Create helper functions for consistent formatting
	addSection := func(title string) {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("%s\n", strings.ToUpper(title)))
	}

	addField := func(name, value string) {
		sb.WriteString(fmt.Sprintf("  %-22s: %s\n", name, value))
	}

	// General Client Settings
	addSection("Client Configuration")
	addField("Timeout", fmt.Sprintf("%d sec", c.TimeoutSecond))
	addField("Retry Count", strconv.Itoa(c.RetryCount))
	addField("Connections Per Endpoint", strconv.Itoa(c.ConnectionsPerEndpoint))

	// Endpoints
	addSection("Endpoints")
	for i, endpoint := range c.Endpoints {
		addField(strconv.Itoa(i), endpoint)
	}

	return sb.String()
}
