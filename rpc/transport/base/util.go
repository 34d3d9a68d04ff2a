package base

import (
	"encoding/binary"
	"io"
	"net"
)

// Every frame starts with a fixed header: shard id (8 bytes), request id
// (8 bytes) and payload length (4 bytes), all big endian. The request id
// lets the client match responses to in-flight requests on a shared
// connection.
const frameHeaderSize = 20

// writeFrame sends one frame on the connection. Header and payload go out
// in a single writev via net.Buffers, so no payload copy is needed.
func writeFrame(conn net.Conn, shardID uint64, requestID uint64, data []byte) error {
	header := make([]byte, frameHeaderSize)
	binary.BigEndian.PutUint64(header[:8], shardID)
	binary.BigEndian.PutUint64(header[8:16], requestID)
	binary.BigEndian.PutUint32(header[16:20], uint32(len(data)))

	b := net.Buffers{header, data}
	_, err := b.WriteTo(conn)
	return err
}

// readFrame reads one frame from the connection into buf. The returned
// payload aliases buf whenever it fits. Oversized payloads get a fresh
// allocation, so callers handing in a pooled buffer must copy before the
// buffer goes back to the pool.
func readFrame(conn net.Conn, buf []byte) (uint64, uint64, []byte, error) {
	if len(buf) < frameHeaderSize {
		buf = make([]byte, frameHeaderSize)
	}

	if _, err := io.ReadFull(conn, buf[:frameHeaderSize]); err != nil {
		return 0, 0, nil, err
	}

	shardID := binary.BigEndian.Uint64(buf[:8])
	requestID := binary.BigEndian.Uint64(buf[8:16])
	payloadLen := binary.BigEndian.Uint32(buf[16:20])

	if payloadLen == 0 {
		return shardID, requestID, []byte{}, nil
	}

	if len(buf) < int(payloadLen) {
		buf = make([]byte, payloadLen)
	}

	if _, err := io.ReadFull(conn, buf[:payloadLen]); err != nil {
		return 0, 0, nil, err
	}

	return shardID, requestID, buf[:payloadLen], nil
}
