package feed

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rickgao/mazaneh-relay/internal/config"
)

// RedisSource reads posts from a Redis pub/sub channel.
type RedisSource struct {
	client  *redis.Client
	channel string
	logger  *slog.Logger
}

// NewRedisSource creates a source subscribed to cfg.Channel.
func NewRedisSource(cfg config.RedisConfig, logger *slog.Logger) *RedisSource {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	return NewRedisSourceWithClient(client, cfg.Channel, logger)
}

// NewRedisSourceWithClient wraps an existing client.
func NewRedisSourceWithClient(client *redis.Client, channel string, logger *slog.Logger) *RedisSource {
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisSource{
		client:  client,
		channel: channel,
		logger:  logger,
	}
}

// Name returns the feed kind.
func (s *RedisSource) Name() string { return config.FeedRedis }

// Run subscribes and forwards payloads until ctx is cancelled. go-redis
// resubscribes on its own after a dropped connection.
func (s *RedisSource) Run(ctx context.Context, out *Queue[Message]) error {
	pubsub := s.client.Subscribe(ctx, s.channel)
	defer pubsub.Close()

	// Wait for the subscription confirmation so failures surface here
	if _, err := pubsub.Receive(ctx); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("subscribe %s: %w", s.channel, err)
	}
	s.logger.Info("subscribed", "channel", s.channel)

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			out.Send(Message{
				Text:       msg.Payload,
				Source:     config.FeedRedis,
				ReceivedAt: time.Now(),
			})
		}
	}
}

// Close releases the client.
func (s *RedisSource) Close() error {
	return s.client.Close()
}
