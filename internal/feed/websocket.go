package feed

import (
	"context"
	"log/slog"

	"github.com/rickgao/mazaneh-relay/internal/config"
	"github.com/rickgao/mazaneh-relay/internal/connection"
)

// WebSocketSource reads posts from a relay over a reconnecting WebSocket.
type WebSocketSource struct {
	manager *connection.Manager
	logger  *slog.Logger
}

// NewWebSocketSource creates a source for the relay described by cfg.
func NewWebSocketSource(cfg config.WebSocketConfig, logger *slog.Logger) *WebSocketSource {
	if logger == nil {
		logger = slog.Default()
	}

	mcfg := connection.DefaultManagerConfig()
	mcfg.Client.URL = cfg.URL
	mcfg.Client.Token = cfg.Token
	if cfg.PingTimeout > 0 {
		mcfg.Client.PingTimeout = cfg.PingTimeout
	}
	if cfg.WriteTimeout > 0 {
		mcfg.Client.WriteTimeout = cfg.WriteTimeout
	}
	if cfg.BufferSize > 0 {
		mcfg.Client.BufferSize = cfg.BufferSize
	}
	if cfg.ReconnectBaseDelay > 0 {
		mcfg.ReconnectBaseWait = cfg.ReconnectBaseDelay
	}
	if cfg.ReconnectMaxDelay > 0 {
		mcfg.ReconnectMaxWait = cfg.ReconnectMaxDelay
	}

	return &WebSocketSource{
		manager: connection.NewManager(mcfg, logger),
		logger:  logger,
	}
}

// Name returns the feed kind.
func (s *WebSocketSource) Name() string { return config.FeedWebSocket }

// Run forwards relay frames to out until ctx is cancelled.
func (s *WebSocketSource) Run(ctx context.Context, out *Queue[Message]) error {
	return s.manager.Run(ctx, func(msg connection.TimestampedMessage) {
		out.Send(Message{
			Text:       decodeText(msg.Data),
			Source:     config.FeedWebSocket,
			ReceivedAt: msg.ReceivedAt,
		})
	})
}

// Stats returns relay connection statistics.
func (s *WebSocketSource) Stats() connection.ManagerStats {
	return s.manager.Stats()
}
