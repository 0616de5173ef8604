package connection

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Manager keeps one Client connected to the relay, reconnecting with
// exponential backoff whenever the link drops.
type Manager struct {
	cfg    ManagerConfig
	logger *slog.Logger

	mu    sync.RWMutex
	stats ManagerStats
}

// NewManager creates a new Manager.
func NewManager(cfg ManagerConfig, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.ReconnectBaseWait <= 0 {
		cfg.ReconnectBaseWait = DefaultManagerConfig().ReconnectBaseWait
	}
	if cfg.ReconnectMaxWait < cfg.ReconnectBaseWait {
		cfg.ReconnectMaxWait = cfg.ReconnectBaseWait
	}
	return &Manager{
		cfg:    cfg,
		logger: logger,
	}
}

// Run connects and passes every received frame to handle, in order, until
// ctx is cancelled. handle runs on the Run goroutine. Returns nil on
// cancellation; connection failures are retried, never returned.
func (m *Manager) Run(ctx context.Context, handle func(TimestampedMessage)) error {
	wait := m.cfg.ReconnectBaseWait
	attempt := 0

	for {
		attempt++
		c := NewClient(m.cfg.Client, m.logger)

		err := c.Connect(ctx)
		if err == nil {
			m.logger.Info("connected to relay", "url", m.cfg.Client.URL, "attempt", attempt)
			m.setConnected(true)
			wait = m.cfg.ReconnectBaseWait
			attempt = 0

			err = m.pump(ctx, c, handle)
			c.Close()
			m.setConnected(false)
		}

		if ctx.Err() != nil {
			return nil
		}

		m.logger.Warn("relay connection lost, reconnecting",
			"error", err,
			"wait", wait,
		)

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(wait):
		}

		// Exponential backoff
		wait *= 2
		if wait > m.cfg.ReconnectMaxWait {
			wait = m.cfg.ReconnectMaxWait
		}
	}
}

// Stats returns connection statistics.
func (m *Manager) Stats() ManagerStats {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.stats
}

// pump delivers frames until the client fails or ctx ends.
func (m *Manager) pump(ctx context.Context, c Client, handle func(TimestampedMessage)) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-c.Errors():
			// Frames read before the failure still count
			for {
				select {
				case msg := <-c.Messages():
					m.deliver(msg, handle)
				default:
					return err
				}
			}
		case msg := <-c.Messages():
			m.deliver(msg, handle)
		}
	}
}

func (m *Manager) deliver(msg TimestampedMessage, handle func(TimestampedMessage)) {
	m.mu.Lock()
	m.stats.Messages++
	m.stats.LastMessage = msg.ReceivedAt
	m.mu.Unlock()

	handle(msg)
}

func (m *Manager) setConnected(connected bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stats.Connected = connected
	if connected {
		m.stats.Connects++
	} else {
		m.stats.Disconnects++
	}
}
