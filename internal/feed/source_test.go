package feed

import (
	"errors"
	"testing"

	"github.com/rickgao/mazaneh-relay/internal/config"
)

func TestDecodeText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"json text field", `{"text":"نقد فردا: فروش 3,450,000 تومان"}`, "نقد فردا: فروش 3,450,000 تومان"},
		{"json extra fields", `{"id":7,"text":"post","channel":"mazaneh"}`, "post"},
		{"json empty text", `{"text":""}`, ""},
		{"json without text", `{"id":7}`, `{"id":7}`},
		{"broken json", `{"text":`, `{"text":`},
		{"raw text", "نقد فردا: فروش 3,450,000 تومان", "نقد فردا: فروش 3,450,000 تومان"},
		{"empty frame", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := decodeText([]byte(tt.in)); got != tt.want {
				t.Errorf("decodeText(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNew(t *testing.T) {
	tests := []struct {
		kind string
		want string
	}{
		{config.FeedWebSocket, "websocket"},
		{config.FeedKafka, "kafka"},
		{config.FeedRedis, "redis"},
	}

	for _, tt := range tests {
		t.Run(tt.kind, func(t *testing.T) {
			cfg := config.FeedConfig{Kind: tt.kind}
			cfg.Kafka.Brokers = []string{"localhost:9092"}
			cfg.Kafka.Topic = "posts"

			src, err := New(cfg, nil)
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}
			if src.Name() != tt.want {
				t.Errorf("Name() = %q, want %q", src.Name(), tt.want)
			}
		})
	}

	if _, err := New(config.FeedConfig{Kind: "telepathy"}, nil); !errors.Is(err, ErrUnknownKind) {
		t.Errorf("New(telepathy) error = %v, want ErrUnknownKind", err)
	}
}
