package pipeline

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/rickgao/mazaneh-relay/internal/dedup"
	"github.com/rickgao/mazaneh-relay/internal/extract"
	"github.com/rickgao/mazaneh-relay/internal/feed"
	"github.com/rickgao/mazaneh-relay/internal/model"
)

// Store is the ledger the coordinator reads and appends to.
//
//go:generate mockgen -package=pipeline_test -destination=mock_deps_test.go -source=pipeline.go Store,Broadcaster
type Store interface {
	LatestPrice(ctx context.Context) (*int64, error)
	Append(ctx context.Context, price int64, now time.Time) (model.PricePoint, error)
}

// Broadcaster fans an event out to subscribers.
type Broadcaster interface {
	Broadcast(event any) (int, error)
}

// Outcome is the terminal state of one post.
type Outcome int

const (
	OutcomeRejected Outcome = iota // no price in the text
	OutcomeDropped                 // same price as the latest stored
	OutcomeAccepted                // stored and broadcast
	OutcomeFailed                  // storage error
)

func (o Outcome) String() string {
	switch o {
	case OutcomeRejected:
		return "rejected"
	case OutcomeDropped:
		return "dropped"
	case OutcomeAccepted:
		return "accepted"
	case OutcomeFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Config holds coordinator settings.
type Config struct {
	BufferSize int // Initial inbound queue capacity
}

// DefaultConfig returns default configuration.
func DefaultConfig() Config {
	return Config{BufferSize: 256}
}

// Stats contains runtime statistics.
type Stats struct {
	Received     int64           `json:"received"`
	Rejected     int64           `json:"rejected"`
	Dropped      int64           `json:"dropped"`
	Accepted     int64           `json:"accepted"`
	Failed       int64           `json:"failed"`
	LastAccepted time.Time       `json:"last_accepted"`
	Queue        feed.QueueStats `json:"queue"`
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithClock overrides the time source used to stamp accepted prices.
func WithClock(now func() time.Time) Option {
	return func(c *Coordinator) { c.now = now }
}

// Coordinator runs extraction, dedup, storage and broadcast per post.
type Coordinator struct {
	cfg    Config
	logger *slog.Logger
	store  Store
	bc     Broadcaster
	now    func() time.Time

	input *feed.Queue[feed.Message]

	// Lifecycle
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu           sync.RWMutex
	received     int64
	rejected     int64
	dropped      int64
	accepted     int64
	failed       int64
	lastAccepted time.Time
}

// New creates a Coordinator.
func New(cfg Config, store Store, bc Broadcaster, logger *slog.Logger, opts ...Option) *Coordinator {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Coordinator{
		cfg:    cfg,
		logger: logger,
		store:  store,
		bc:     bc,
		now:    time.Now,
		input:  feed.NewQueue[feed.Message](cfg.BufferSize),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Input returns the queue feed sources push onto.
func (c *Coordinator) Input() *feed.Queue[feed.Message] {
	return c.input
}

// Start begins consuming the input queue.
func (c *Coordinator) Start(ctx context.Context) error {
	c.ctx, c.cancel = context.WithCancel(ctx)

	c.wg.Add(1)
	go c.consumeLoop()

	c.logger.Info("pipeline started", "buffer_size", c.cfg.BufferSize)
	return nil
}

// Stop cancels in-flight work and waits for the consumer to exit.
func (c *Coordinator) Stop(ctx context.Context) error {
	c.logger.Info("stopping pipeline")

	c.input.Close()
	if c.cancel != nil {
		c.cancel()
	}

	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		c.logger.Info("pipeline stopped")
	case <-ctx.Done():
		c.logger.Warn("pipeline stop timed out")
	}

	return nil
}

// Stats returns current statistics.
func (c *Coordinator) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return Stats{
		Received:     c.received,
		Rejected:     c.rejected,
		Dropped:      c.dropped,
		Accepted:     c.accepted,
		Failed:       c.failed,
		LastAccepted: c.lastAccepted,
		Queue:        c.input.Stats(),
	}
}

// consumeLoop is the single consumer goroutine.
func (c *Coordinator) consumeLoop() {
	defer c.wg.Done()

	for {
		msg, ok := c.input.Receive(c.ctx)
		if !ok {
			return
		}
		c.Process(c.ctx, msg.Text)
	}
}

// Process runs one post through the pipeline.
func (c *Coordinator) Process(ctx context.Context, text string) Outcome {
	c.count(&c.received)

	price, rule, ok := extract.Match(text)
	if !ok {
		c.count(&c.rejected)
		c.logger.Debug("no price in post", "length", len(text))
		return OutcomeRejected
	}

	last, err := c.store.LatestPrice(ctx)
	if err != nil {
		c.count(&c.failed)
		c.logger.Error("read latest price failed", "error", err, "price", price)
		return OutcomeFailed
	}

	if !dedup.Accept(last, price) {
		c.count(&c.dropped)
		c.logger.Info("duplicate price dropped", "price", price)
		return OutcomeDropped
	}

	point, err := c.store.Append(ctx, price, c.now())
	if err != nil {
		c.count(&c.failed)
		c.logger.Error("store price failed", "error", err, "price", price)
		return OutcomeFailed
	}

	c.mu.Lock()
	c.accepted++
	c.lastAccepted = point.CreatedAt
	c.mu.Unlock()

	delivered, err := c.bc.Broadcast(model.NewUpdateEvent(point, last))
	if err != nil {
		c.logger.Error("broadcast failed", "error", err, "id", point.ID)
	}

	attrs := []any{
		"id", point.ID,
		"price", point.Price,
		"rule", rule,
		"subscribers", delivered,
	}
	if last != nil {
		attrs = append(attrs, "previous", *last)
	}
	c.logger.Info("price accepted", attrs...)
	return OutcomeAccepted
}

func (c *Coordinator) count(n *int64) {
	c.mu.Lock()
	*n++
	c.mu.Unlock()
}
