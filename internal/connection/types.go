package connection

import (
	"errors"
	"time"
)

// Errors
var (
	ErrNotConnected    = errors.New("not connected")
	ErrStaleConnection = errors.New("connection stale (no ping)")
	ErrAlreadyClosed   = errors.New("already closed")
)

// TimestampedMessage wraps raw frame data with its receive timestamp.
type TimestampedMessage struct {
	Data       []byte    // Raw frame bytes
	ReceivedAt time.Time // Local timestamp when ReadMessage() returned
}

// ClientConfig configures a WebSocket client.
type ClientConfig struct {
	URL               string        // Relay URL (e.g., wss://relay.example.com/posts)
	Token             string        // Bearer token (empty = no Authorization header)
	PingTimeout       time.Duration // Max time without ping/pong before the link is stale
	WriteTimeout      time.Duration // Write deadline for sends and control frames
	HeartbeatInterval time.Duration // How often we ping the relay
	BufferSize        int           // Message channel buffer size
}

// DefaultClientConfig returns sensible defaults.
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		PingTimeout:       60 * time.Second,
		WriteTimeout:      5 * time.Second,
		HeartbeatInterval: 20 * time.Second,
		BufferSize:        1000,
	}
}

// ManagerConfig configures the reconnecting Manager.
type ManagerConfig struct {
	Client            ClientConfig
	ReconnectBaseWait time.Duration // First wait after a failure
	ReconnectMaxWait  time.Duration // Backoff ceiling
}

// DefaultManagerConfig returns sensible defaults.
func DefaultManagerConfig() ManagerConfig {
	return ManagerConfig{
		Client:            DefaultClientConfig(),
		ReconnectBaseWait: 1 * time.Second,
		ReconnectMaxWait:  60 * time.Second,
	}
}

// ManagerStats contains runtime statistics.
type ManagerStats struct {
	Connected   bool
	Connects    int64
	Disconnects int64
	Messages    int64
	LastMessage time.Time
}
