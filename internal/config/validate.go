package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
	_ "time/tzdata" // calendar.location must resolve without a host zoneinfo
)

// Validate checks that all required fields are set and values are valid.
func (c *RelayConfig) Validate() error {
	if c.Instance.ID == "" {
		return errors.New("instance.id is required")
	}

	if err := c.Feed.validate(); err != nil {
		return err
	}

	if err := c.Database.validate("database"); err != nil {
		return err
	}

	if c.Store.MaxSizeMB < 1 {
		return errors.New("store.max_size_mb must be >= 1")
	}
	if c.Store.RotationFraction <= 0 || c.Store.RotationFraction > 1 {
		return fmt.Errorf("store.rotation_fraction must be in (0, 1], got %v", c.Store.RotationFraction)
	}

	if _, err := time.LoadLocation(c.Calendar.Location); err != nil {
		return fmt.Errorf("calendar.location %q: %w", c.Calendar.Location, err)
	}

	if c.Server.Addr == "" {
		return errors.New("server.addr is required")
	}
	if c.Server.PingTimeout >= c.Server.PingInterval {
		return fmt.Errorf("server.ping_timeout (%v) must be shorter than server.ping_interval (%v)",
			c.Server.PingTimeout, c.Server.PingInterval)
	}
	if c.Server.SendBuffer < 1 {
		return errors.New("server.send_buffer must be >= 1")
	}

	if c.Pipeline.BufferSize < 1 {
		return errors.New("pipeline.buffer_size must be >= 1")
	}

	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level must be one of debug, info, warn, error, got %q", c.Log.Level)
	}

	return nil
}

func (f *FeedConfig) validate() error {
	switch f.Kind {
	case FeedWebSocket:
		if f.WebSocket.URL == "" {
			return errors.New("feed.websocket.url is required")
		}
		if f.WebSocket.BufferSize < 1 {
			return errors.New("feed.websocket.buffer_size must be >= 1")
		}
		if f.WebSocket.ReconnectBaseDelay > f.WebSocket.ReconnectMaxDelay {
			return fmt.Errorf("feed.websocket.reconnect_base_delay (%v) cannot exceed reconnect_max_delay (%v)",
				f.WebSocket.ReconnectBaseDelay, f.WebSocket.ReconnectMaxDelay)
		}
	case FeedKafka:
		if len(f.Kafka.Brokers) == 0 {
			return errors.New("feed.kafka.brokers is required")
		}
		if f.Kafka.Topic == "" {
			return errors.New("feed.kafka.topic is required")
		}
	case FeedRedis:
		if f.Redis.Addr == "" {
			return errors.New("feed.redis.addr is required")
		}
		if f.Redis.Channel == "" {
			return errors.New("feed.redis.channel is required")
		}
	default:
		return fmt.Errorf("feed.kind must be one of websocket, kafka, redis, got %q", f.Kind)
	}
	return nil
}

func (db *DBConfig) validate(prefix string) error {
	if db.Host == "" {
		return fmt.Errorf("%s.host is required", prefix)
	}
	if db.Name == "" {
		return fmt.Errorf("%s.name is required", prefix)
	}
	if db.User == "" {
		return fmt.Errorf("%s.user is required", prefix)
	}
	if db.Password == "" {
		return fmt.Errorf("%s.password is required", prefix)
	}
	if db.MaxConns < 1 {
		return fmt.Errorf("%s.max_conns must be >= 1", prefix)
	}
	if db.MinConns < 0 {
		return fmt.Errorf("%s.min_conns must be >= 0", prefix)
	}
	if db.MinConns > db.MaxConns {
		return fmt.Errorf("%s.min_conns (%d) cannot exceed max_conns (%d)", prefix, db.MinConns, db.MaxConns)
	}
	return nil
}
