package config

import "time"

// RelayConfig is the root configuration for a relay instance.
type RelayConfig struct {
	Instance InstanceConfig `yaml:"instance"`
	Feed     FeedConfig     `yaml:"feed"`
	Database DBConfig       `yaml:"database"`
	Store    StoreConfig    `yaml:"store"`
	Calendar CalendarConfig `yaml:"calendar"`
	Server   ServerConfig   `yaml:"server"`
	Pipeline PipelineConfig `yaml:"pipeline"`
	Log      LogConfig      `yaml:"log"`
}

// InstanceConfig identifies this relay.
type InstanceConfig struct {
	ID string `yaml:"id"`
}

// Feed kinds.
const (
	FeedWebSocket = "websocket"
	FeedKafka     = "kafka"
	FeedRedis     = "redis"
)

// FeedConfig selects and configures the upstream message source.
type FeedConfig struct {
	Kind      string          `yaml:"kind"` // websocket, kafka or redis
	WebSocket WebSocketConfig `yaml:"websocket"`
	Kafka     KafkaConfig     `yaml:"kafka"`
	Redis     RedisConfig     `yaml:"redis"`
}

// WebSocketConfig holds settings for a relay that pushes channel posts over WebSocket.
type WebSocketConfig struct {
	URL                string        `yaml:"url"`
	Token              string        `yaml:"token"` // sent as a Bearer token when set
	PingTimeout        time.Duration `yaml:"ping_timeout"`
	WriteTimeout       time.Duration `yaml:"write_timeout"`
	BufferSize         int           `yaml:"buffer_size"`
	ReconnectBaseDelay time.Duration `yaml:"reconnect_base_delay"`
	ReconnectMaxDelay  time.Duration `yaml:"reconnect_max_delay"`
}

// KafkaConfig holds settings for consuming channel posts from a Kafka topic.
type KafkaConfig struct {
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
	GroupID string   `yaml:"group_id"`
}

// RedisConfig holds settings for consuming channel posts from a Redis pub/sub channel.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Channel  string `yaml:"channel"`
}

// DBConfig holds the PostgreSQL connection.
type DBConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"ssl_mode"`
	MaxConns int    `yaml:"max_conns"`
	MinConns int    `yaml:"min_conns"`
}

// StoreConfig holds the price ledger size policy.
type StoreConfig struct {
	MaxSizeMB            int     `yaml:"max_size_mb"`
	RotationFraction     float64 `yaml:"rotation_fraction"`
	CompactAfterRotation *bool   `yaml:"compact_after_rotation"`
}

// CalendarConfig holds the zone used for the local (Shamsi) timestamp.
type CalendarConfig struct {
	Location string `yaml:"location"`
}

// ServerConfig holds the subscriber-facing HTTP/WebSocket server settings.
type ServerConfig struct {
	Addr         string        `yaml:"addr"`
	PingInterval time.Duration `yaml:"ping_interval"`
	PingTimeout  time.Duration `yaml:"ping_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	SendBuffer   int           `yaml:"send_buffer"`
}

// PipelineConfig holds inbound queue settings.
type PipelineConfig struct {
	BufferSize int `yaml:"buffer_size"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
	File  string `yaml:"file"`  // optional; mirrored alongside stdout
}

// MaxSizeBytes returns the store ceiling in bytes.
func (s StoreConfig) MaxSizeBytes() int64 {
	return int64(s.MaxSizeMB) * 1024 * 1024
}

// Compact reports whether the table is compacted after rotation.
func (s StoreConfig) Compact() bool {
	return s.CompactAfterRotation == nil || *s.CompactAfterRotation
}
