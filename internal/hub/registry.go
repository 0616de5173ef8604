package hub

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/rickgao/mazaneh-relay/internal/model"
)

// ErrInitNotDelivered is returned by Register when the init event cannot be queued.
var ErrInitNotDelivered = errors.New("init event not delivered")

// DefaultInitTimeout bounds the latest read done for each init event.
const DefaultInitTimeout = 5 * time.Second

// Subscriber is a push endpoint.
type Subscriber interface {
	// ID uniquely identifies the subscriber.
	ID() string

	// Send queues data without blocking. Returns false if the subscriber
	// is closed or its queue is full.
	Send(data []byte) bool

	// Close releases the subscriber. Safe to call more than once.
	Close() error
}

// LatestSource provides the current known price for init events.
type LatestSource interface {
	Latest(ctx context.Context) (model.PricePoint, bool, error)
}

// RegistryStats contains runtime statistics.
type RegistryStats struct {
	Subscribers int   `json:"subscribers"`
	Registered  int64 `json:"registered"`
	Broadcasts  int64 `json:"broadcasts"`
	Deliveries  int64 `json:"deliveries"`
	Evicted     int64 `json:"evicted"`
}

// Registry is the set of connected subscribers.
type Registry struct {
	latest      LatestSource
	logger      *slog.Logger
	initTimeout time.Duration

	mu      sync.RWMutex
	members map[string]Subscriber

	statsMu    sync.Mutex
	registered int64
	broadcasts int64
	deliveries int64
	evicted    int64
}

// NewRegistry creates a Registry that reads init state from latest.
func NewRegistry(latest LatestSource, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		latest:      latest,
		logger:      logger,
		initTimeout: DefaultInitTimeout,
		members:     make(map[string]Subscriber),
	}
}

// Register adds sub and queues its init event. The write lock is held from the
// latest read until sub is a member, so no update can overtake the init.
// The read is bounded by the init timeout so a slow store cannot pin the lock.
func (r *Registry) Register(ctx context.Context, sub Subscriber) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	readCtx, cancel := context.WithTimeout(ctx, r.initTimeout)
	defer cancel()

	point, ok, err := r.latest.Latest(readCtx)
	if err != nil {
		return fmt.Errorf("read latest for init: %w", err)
	}

	data, err := json.Marshal(model.NewInitEvent(point, ok))
	if err != nil {
		return fmt.Errorf("marshal init: %w", err)
	}
	if !sub.Send(data) {
		return ErrInitNotDelivered
	}

	r.members[sub.ID()] = sub

	r.statsMu.Lock()
	r.registered++
	r.statsMu.Unlock()

	r.logger.Info("subscriber registered", "id", sub.ID(), "subscribers", len(r.members))
	return nil
}

// Unregister removes sub and closes it. Unknown subscribers are only closed.
func (r *Registry) Unregister(sub Subscriber) {
	r.mu.Lock()
	_, present := r.members[sub.ID()]
	delete(r.members, sub.ID())
	n := len(r.members)
	r.mu.Unlock()

	sub.Close()

	if present {
		r.logger.Info("subscriber unregistered", "id", sub.ID(), "subscribers", n)
	}
}

// Broadcast sends event to every subscriber and returns how many accepted it.
// Subscribers that refuse it are removed and closed after the pass.
func (r *Registry) Broadcast(event any) (int, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return 0, fmt.Errorf("marshal event: %w", err)
	}

	r.mu.RLock()
	snapshot := make([]Subscriber, 0, len(r.members))
	for _, sub := range r.members {
		snapshot = append(snapshot, sub)
	}
	r.mu.RUnlock()

	var failed []Subscriber
	delivered := 0
	for _, sub := range snapshot {
		if sub.Send(data) {
			delivered++
			continue
		}
		failed = append(failed, sub)
	}

	if len(failed) > 0 {
		r.mu.Lock()
		for _, sub := range failed {
			delete(r.members, sub.ID())
		}
		r.mu.Unlock()

		for _, sub := range failed {
			sub.Close()
			r.logger.Warn("subscriber evicted after failed delivery", "id", sub.ID())
		}
	}

	r.statsMu.Lock()
	r.broadcasts++
	r.deliveries += int64(delivered)
	r.evicted += int64(len(failed))
	r.statsMu.Unlock()

	return delivered, nil
}

// Count returns the number of registered subscribers.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.members)
}

// CloseAll removes and closes every subscriber.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	members := r.members
	r.members = make(map[string]Subscriber)
	r.mu.Unlock()

	for _, sub := range members {
		sub.Close()
	}
}

// Stats returns registry statistics.
func (r *Registry) Stats() RegistryStats {
	n := r.Count()

	r.statsMu.Lock()
	defer r.statsMu.Unlock()
	return RegistryStats{
		Subscribers: n,
		Registered:  r.registered,
		Broadcasts:  r.broadcasts,
		Deliveries:  r.deliveries,
		Evicted:     r.evicted,
	}
}
