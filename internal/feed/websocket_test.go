package feed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/rickgao/mazaneh-relay/internal/config"
)

func relayServer(t *testing.T, frames []string) *httptest.Server {
	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool { return true },
	}

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Logf("upgrade error: %v", err)
			return
		}
		defer conn.Close()

		for _, f := range frames {
			if err := conn.WriteMessage(websocket.TextMessage, []byte(f)); err != nil {
				return
			}
		}
		conn.ReadMessage()
	}))
}

func TestWebSocketSource_Run(t *testing.T) {
	server := relayServer(t, []string{
		`{"text":"نقد فردا: فروش 3,450,000 تومان"}`,
		"raw post",
		`{"text":""}`,
	})
	defer server.Close()

	src := NewWebSocketSource(config.WebSocketConfig{
		URL: "ws" + strings.TrimPrefix(server.URL, "http"),
	}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	q := NewQueue[Message](4)
	done := make(chan error, 1)
	go func() { done <- src.Run(ctx, q) }()

	want := []string{"نقد فردا: فروش 3,450,000 تومان", "raw post", ""}
	recvCtx, recvCancel := context.WithTimeout(ctx, 2*time.Second)
	defer recvCancel()
	for i, w := range want {
		msg, ok := q.Receive(recvCtx)
		if !ok {
			t.Fatalf("message %d not received", i)
		}
		if msg.Text != w {
			t.Errorf("message %d text = %q, want %q", i, msg.Text, w)
		}
		if msg.Source != "websocket" {
			t.Errorf("message %d source = %q, want websocket", i, msg.Source)
		}
		if msg.ReceivedAt.IsZero() {
			t.Errorf("message %d has zero ReceivedAt", i)
		}
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run() error = %v, want nil", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}

	if stats := src.Stats(); stats.Messages != 3 {
		t.Errorf("Stats().Messages = %d, want 3", stats.Messages)
	}
}
