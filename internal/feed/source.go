package feed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/rickgao/mazaneh-relay/internal/config"
)

// ErrUnknownKind is returned by New for an unsupported feed kind.
var ErrUnknownKind = errors.New("unknown feed kind")

// Message is one upstream post.
type Message struct {
	Text       string
	Source     string // Feed kind that produced it
	ReceivedAt time.Time
}

// Source delivers upstream posts onto out until ctx ends.
type Source interface {
	// Run blocks until ctx is cancelled or the source fails for good.
	Run(ctx context.Context, out *Queue[Message]) error

	// Name returns the feed kind.
	Name() string
}

// New builds the Source selected by cfg.Kind.
func New(cfg config.FeedConfig, logger *slog.Logger) (Source, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("feed", cfg.Kind)

	switch cfg.Kind {
	case config.FeedWebSocket:
		return NewWebSocketSource(cfg.WebSocket, logger), nil
	case config.FeedKafka:
		return NewKafkaSource(cfg.Kafka, logger), nil
	case config.FeedRedis:
		return NewRedisSource(cfg.Redis, logger), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, cfg.Kind)
	}
}

// textFrame is the JSON shape relays use for a post.
type textFrame struct {
	Text *string `json:"text"`
}

// decodeText returns the post text carried by a frame: the "text" field of a
// JSON object when present, otherwise the frame itself.
func decodeText(data []byte) string {
	var frame textFrame
	if len(data) > 0 && data[0] == '{' {
		if err := json.Unmarshal(data, &frame); err == nil && frame.Text != nil {
			return *frame.Text
		}
	}
	return string(data)
}
