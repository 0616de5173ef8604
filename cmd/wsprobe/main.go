// wsprobe subscribes to a relay and prints every message it receives.
// Usage: go run ./cmd/wsprobe -url ws://localhost:8765/ws
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rickgao/mazaneh-relay/internal/connection"
	"github.com/rickgao/mazaneh-relay/internal/hub"
	"github.com/rickgao/mazaneh-relay/internal/model"
)

func main() {
	url := flag.String("url", "ws://localhost:8765/ws", "relay subscriber endpoint")
	pingEvery := flag.Duration("ping", 15*time.Second, "interval for text ping frames (0 disables)")
	verbose := flag.Bool("verbose", false, "print raw message JSON")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal")
		cancel()
	}()

	cfg := connection.DefaultClientConfig()
	cfg.URL = *url
	cfg.PingTimeout = 0

	client := connection.NewClient(cfg, logger)
	if err := client.Connect(ctx); err != nil {
		logger.Error("failed to connect", "url", *url, "error", err)
		os.Exit(1)
	}
	defer client.Close()

	logger.Info("subscribed - press Ctrl+C to stop", "url", *url)

	var pings <-chan time.Time
	if *pingEvery > 0 {
		ticker := time.NewTicker(*pingEvery)
		defer ticker.Stop()
		pings = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			logger.Info("shutdown complete")
			return
		case err := <-client.Errors():
			logger.Error("connection lost", "error", err)
			os.Exit(1)
		case <-pings:
			if err := client.Send([]byte(hub.PingText)); err != nil {
				logger.Warn("ping failed", "error", err)
			}
		case msg := <-client.Messages():
			printMessage(os.Stdout, msg, *verbose)
		}
	}
}

// envelope reads the fields shared by init and update messages.
type envelope struct {
	Type          string  `json:"type"`
	Price         *int64  `json:"price"`
	Timestamp     *string `json:"timestamp"`
	PreviousPrice *int64  `json:"previous_price"`
}

func printMessage(w io.Writer, msg connection.TimestampedMessage, verbose bool) {
	at := msg.ReceivedAt.Format(time.TimeOnly)

	if string(msg.Data) == hub.PongText {
		fmt.Fprintf(w, "%s [PONG]\n", at)
		return
	}
	if verbose {
		fmt.Fprintf(w, "%s [RAW] %s\n", at, msg.Data)
		return
	}

	var ev envelope
	if err := json.Unmarshal(msg.Data, &ev); err != nil {
		fmt.Fprintf(w, "%s [UNKNOWN] %s\n", at, msg.Data)
		return
	}

	switch ev.Type {
	case model.TypeInit:
		fmt.Fprintf(w, "%s [INIT] price=%s timestamp=%s\n", at, formatPrice(ev.Price), formatString(ev.Timestamp))
	case model.TypeUpdate:
		fmt.Fprintf(w, "%s [UPDATE] price=%s previous=%s timestamp=%s\n",
			at, formatPrice(ev.Price), formatPrice(ev.PreviousPrice), formatString(ev.Timestamp))
	default:
		fmt.Fprintf(w, "%s [UNKNOWN] %s\n", at, msg.Data)
	}
}

func formatPrice(p *int64) string {
	if p == nil {
		return "none"
	}
	return fmt.Sprintf("%d", *p)
}

func formatString(s *string) string {
	if s == nil {
		return "none"
	}
	return *s
}
