package tcp

import (
	"fmt"
	"net"
	"time"

	"github.com/lockforge/lockd/rpc/common"
	"github.com/lockforge/lockd/rpc/transport"
	"github.com/lockforge/lockd/rpc/transport/base"
)

const (
	defaultBufferSize = 512 * 1024 // 512 KB

	keepAlivePeriod = 30 * time.Second
)

// serverConnector implements the IServerConnector interface for TCP sockets
type serverConnector struct{}

// --------------------------------------------------------------------------
// Interface Methods (docu see base.IServerConnector)
// --------------------------------------------------------------------------

func (c *serverConnector) GetName() string {
	return "tcp"
}

func (c *serverConnector) Listen(config common.ServerConfig) (net.Listener, error) {
	// Create TCP socket listener
	listener, err := net.Listen("tcp", config.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to create TCP socket: %v", err)
	}

	return listener, nil
}

func (c *serverConnector) BufferSize(config common.ServerConfig) int {
	if config.TCPBufferSizeBytes > 0 {
		return config.TCPBufferSizeBytes
	}
	return defaultBufferSize
}

// UpgradeConnection applies performance optimizations to a TCP connection
// using the TCP-specific values of the server configuration
func (c *serverConnector) UpgradeConnection(conn net.Conn, config common.ServerConfig) error {
	tcpConn, ok := conn.(*net.TCPConn)
	if !ok {
		return nil // Not a TCP connection, nothing to upgrade
	}

	// Disable Nagle's algorithm (TCPNoDelay) if configured
	if err := tcpConn.SetNoDelay(config.EnableTCPNoDelay); err != nil {
		return err
	}

	// Enable TCP keep-alive if configured
	if config.EnableTCPKeepAlloc {
		if err := tcpConn.SetKeepAlive(true); err != nil {
			return err
		}

		if err := tcpConn.SetKeepAlivePeriod(keepAlivePeriod); err != nil {
			return err
		}
	}

	return nil
}

// --------------------------------------------------------------------------
// Server Transport Factory Method
// --------------------------------------------------------------------------

// NewTCPServerTransport creates a new TCP server transport
func NewTCPServerTransport() transport.IRPCServerTransport {
	return base.NewBaseServerTransport(&serverConnector{})
}
