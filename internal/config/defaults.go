package config

import "time"

// Default values for optional configuration fields.
const (
	DefaultFeedKind           = FeedWebSocket
	DefaultFeedPingTimeout    = 60 * time.Second
	DefaultFeedWriteTimeout   = 5 * time.Second
	DefaultFeedBufferSize     = 1000
	DefaultReconnectBaseDelay = 1 * time.Second
	DefaultReconnectMaxDelay  = 60 * time.Second
	DefaultKafkaGroupID       = "mazaneh-relay"
	DefaultRedisAddr          = "localhost:6379"
	DefaultRedisChannel       = "mazaneh.posts"
	DefaultDBPort             = 5432
	DefaultDBSSLMode          = "prefer"
	DefaultMaxConns           = 4
	DefaultMinConns           = 1
	DefaultMaxSizeMB          = 500
	DefaultRotationFraction   = 0.2
	DefaultCalendarLocation   = "Asia/Tehran"
	DefaultServerAddr         = "0.0.0.0:8765"
	DefaultServerPingInterval = 20 * time.Second
	DefaultServerPingTimeout  = 10 * time.Second
	DefaultServerWriteTimeout = 5 * time.Second
	DefaultServerSendBuffer   = 64
	DefaultPipelineBufferSize = 256
	DefaultLogLevel           = "info"
)

func (c *RelayConfig) applyDefaults() {
	// Feed defaults
	if c.Feed.Kind == "" {
		c.Feed.Kind = DefaultFeedKind
	}
	ws := &c.Feed.WebSocket
	if ws.PingTimeout == 0 {
		ws.PingTimeout = DefaultFeedPingTimeout
	}
	if ws.WriteTimeout == 0 {
		ws.WriteTimeout = DefaultFeedWriteTimeout
	}
	if ws.BufferSize == 0 {
		ws.BufferSize = DefaultFeedBufferSize
	}
	if ws.ReconnectBaseDelay == 0 {
		ws.ReconnectBaseDelay = DefaultReconnectBaseDelay
	}
	if ws.ReconnectMaxDelay == 0 {
		ws.ReconnectMaxDelay = DefaultReconnectMaxDelay
	}
	if c.Feed.Kafka.GroupID == "" {
		c.Feed.Kafka.GroupID = DefaultKafkaGroupID
	}
	if c.Feed.Redis.Addr == "" {
		c.Feed.Redis.Addr = DefaultRedisAddr
	}
	if c.Feed.Redis.Channel == "" {
		c.Feed.Redis.Channel = DefaultRedisChannel
	}

	// Database defaults
	if c.Database.Port == 0 {
		c.Database.Port = DefaultDBPort
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = DefaultDBSSLMode
	}
	if c.Database.MaxConns == 0 {
		c.Database.MaxConns = DefaultMaxConns
	}
	if c.Database.MinConns == 0 {
		c.Database.MinConns = DefaultMinConns
	}

	// Store defaults
	if c.Store.MaxSizeMB == 0 {
		c.Store.MaxSizeMB = DefaultMaxSizeMB
	}
	if c.Store.RotationFraction == 0 {
		c.Store.RotationFraction = DefaultRotationFraction
	}

	if c.Calendar.Location == "" {
		c.Calendar.Location = DefaultCalendarLocation
	}

	// Server defaults
	if c.Server.Addr == "" {
		c.Server.Addr = DefaultServerAddr
	}
	if c.Server.PingInterval == 0 {
		c.Server.PingInterval = DefaultServerPingInterval
	}
	if c.Server.PingTimeout == 0 {
		c.Server.PingTimeout = DefaultServerPingTimeout
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = DefaultServerWriteTimeout
	}
	if c.Server.SendBuffer == 0 {
		c.Server.SendBuffer = DefaultServerSendBuffer
	}

	if c.Pipeline.BufferSize == 0 {
		c.Pipeline.BufferSize = DefaultPipelineBufferSize
	}

	if c.Log.Level == "" {
		c.Log.Level = DefaultLogLevel
	}
}
