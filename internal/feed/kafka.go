package feed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/rickgao/mazaneh-relay/internal/config"
)

// KafkaReader is the subset of *kafka.Reader the source uses.
type KafkaReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaSource reads posts from a Kafka topic, one post per record value.
type KafkaSource struct {
	reader KafkaReader
	logger *slog.Logger
}

// NewKafkaSource creates a consumer-group reader for cfg.Topic.
func NewKafkaSource(cfg config.KafkaConfig, logger *slog.Logger) *KafkaSource {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  cfg.Brokers,
		Topic:    cfg.Topic,
		GroupID:  cfg.GroupID,
		MinBytes: 1,
		MaxBytes: 10e6,
		MaxWait:  time.Second,
	})
	return NewKafkaSourceWithReader(reader, logger)
}

// NewKafkaSourceWithReader wraps an existing reader.
func NewKafkaSourceWithReader(reader KafkaReader, logger *slog.Logger) *KafkaSource {
	if logger == nil {
		logger = slog.Default()
	}
	return &KafkaSource{
		reader: reader,
		logger: logger,
	}
}

// Name returns the feed kind.
func (s *KafkaSource) Name() string { return config.FeedKafka }

// Run fetches records and commits each one once it is queued. The reader is
// closed when Run returns.
func (s *KafkaSource) Run(ctx context.Context, out *Queue[Message]) error {
	defer s.reader.Close()

	for {
		msg, err := s.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if errors.Is(err, kafka.ErrGroupClosed) {
				return nil
			}
			return fmt.Errorf("fetch kafka message: %w", err)
		}

		receivedAt := msg.Time
		if receivedAt.IsZero() {
			receivedAt = time.Now()
		}
		out.Send(Message{
			Text:       string(msg.Value),
			Source:     config.FeedKafka,
			ReceivedAt: receivedAt,
		})

		if err := s.reader.CommitMessages(ctx, msg); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			s.logger.Warn("commit failed", "error", err, "offset", msg.Offset, "partition", msg.Partition)
		}
	}
}
