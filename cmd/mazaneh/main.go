// mazaneh relays the mazaneh sell price from channel posts to WebSocket subscribers.
//
// Usage:
//
//	mazaneh -config configs/relay.yaml
//	echo "نقد فردا: فروش 3,450,000 تومان" | mazaneh -extract
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"github.com/rickgao/mazaneh-relay/internal/calendar"
	"github.com/rickgao/mazaneh-relay/internal/config"
	"github.com/rickgao/mazaneh-relay/internal/database"
	"github.com/rickgao/mazaneh-relay/internal/extract"
	"github.com/rickgao/mazaneh-relay/internal/feed"
	"github.com/rickgao/mazaneh-relay/internal/hub"
	"github.com/rickgao/mazaneh-relay/internal/pipeline"
	"github.com/rickgao/mazaneh-relay/internal/server"
	"github.com/rickgao/mazaneh-relay/internal/store"
	"github.com/rickgao/mazaneh-relay/internal/version"
)

func main() {
	configPath := flag.String("config", "configs/relay.yaml", "path to config file")
	extractOnly := flag.Bool("extract", false, "extract the price from stdin and exit")
	flag.Parse()

	if *extractOnly {
		os.Exit(runExtract(os.Stdin, os.Stdout))
	}

	cfg, err := config.LoadAndValidate(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger, closeLog, err := newLogger(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to set up logging: %v\n", err)
		os.Exit(1)
	}
	defer closeLog()
	slog.SetDefault(logger)

	build := version.Get()
	logger.Info("starting mazaneh relay",
		"version", build.Version,
		"commit", build.Commit,
		"built", build.BuildTime,
		"instance_id", cfg.Instance.ID,
		"config", *configPath,
	)

	if err := run(cfg, logger); err != nil {
		logger.Error("relay failed", "error", err)
		closeLog()
		os.Exit(1)
	}
	logger.Info("relay stopped")
}

func run(cfg *config.RelayConfig, logger *slog.Logger) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case sig := <-sigCh:
			logger.Info("received shutdown signal", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	cal, err := calendar.New(cfg.Calendar.Location)
	if err != nil {
		return err
	}

	logger.Info("connecting to database",
		"host", cfg.Database.Host,
		"port", cfg.Database.Port,
		"database", cfg.Database.Name,
	)
	pool, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()

	ledger, err := store.New(store.Config{
		MaxSizeBytes:     cfg.Store.MaxSizeBytes(),
		RotationFraction: cfg.Store.RotationFraction,
		Compact:          cfg.Store.Compact(),
	}, pool, cal, logger.With("component", "store"))
	if err != nil {
		return err
	}
	if err := ledger.Migrate(ctx); err != nil {
		return err
	}
	logger.Info("database ready", "table", store.TableName)

	registry := hub.NewRegistry(ledger, logger.With("component", "hub"))

	coordinator := pipeline.New(pipeline.Config{BufferSize: cfg.Pipeline.BufferSize},
		ledger, registry, logger.With("component", "pipeline"))

	source, err := feed.New(cfg.Feed, logger)
	if err != nil {
		return err
	}

	gin.SetMode(gin.ReleaseMode)
	srv := server.New(server.Config{
		Addr: cfg.Server.Addr,
		Conn: hub.ConnConfig{
			PingInterval: cfg.Server.PingInterval,
			PingTimeout:  cfg.Server.PingTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
			SendBuffer:   cfg.Server.SendBuffer,
		},
	}, registry, ledger, coordinator, version.String(), logger.With("component", "server"))

	if err := coordinator.Start(ctx); err != nil {
		return err
	}
	defer func() {
		stopCtx, stopCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer stopCancel()
		coordinator.Stop(stopCtx)
	}()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("feed started", "kind", source.Name())
		if err := source.Run(gctx, coordinator.Input()); err != nil {
			return fmt.Errorf("feed %s: %w", source.Name(), err)
		}
		return nil
	})
	g.Go(func() error {
		return srv.Run(gctx)
	})

	logger.Info("relay running", "feed", source.Name(), "addr", cfg.Server.Addr)

	err = g.Wait()
	logger.Info("shutting down...")
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// newLogger builds the text logger, mirrored to cfg.File when set.
func newLogger(cfg config.LogConfig) (*slog.Logger, func(), error) {
	var out io.Writer = os.Stdout
	closeFn := func() {}

	if cfg.File != "" {
		f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		out = io.MultiWriter(os.Stdout, f)
		closeFn = func() { f.Close() }
	}

	logger := slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{
		Level: parseLevel(cfg.Level),
	}))
	return logger, closeFn, nil
}

func parseLevel(s string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return level
}

// runExtract prints the price and matching rule for the post read from in.
func runExtract(in io.Reader, out io.Writer) int {
	var sb strings.Builder
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		sb.WriteString(scanner.Text())
		sb.WriteByte('\n')
	}
	if err := scanner.Err(); err != nil {
		fmt.Fprintf(out, "read input: %v\n", err)
		return 2
	}

	price, rule, ok := extract.Match(sb.String())
	if !ok {
		fmt.Fprintln(out, "no price found")
		return 1
	}
	fmt.Fprintf(out, "%d\t%s\n", price, rule)
	return 0
}
