package hub

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"sim-trading-engine/internal/interfaces"
	"sim-trading-engine/internal/logger"
	"sim-trading-engine/internal/types"
)

var (
	ErrSlowSubscriber = errors.New("subscriber send buffer full")
	ErrClosed         = errors.New("subscriber closed")
)

// Subscriber is one live push channel. Send must not block; a subscriber
// that cannot take a message returns an error and is dropped.
type Subscriber interface {
	ID() string
	Send(msg []byte) error
	Open() bool
	Close() error
}

// Hub fans events out to every open subscriber. There is no replay: a
// subscriber only sees events published after its connection ack.
type Hub struct {
	mu   sync.RWMutex
	subs map[string]Subscriber

	// pubMu orders publishes, and the ack of a new subscriber, against each other.
	pubMu sync.Mutex
}

var _ interfaces.Publisher = (*Hub)(nil)

// New returns a hub with no subscribers.
func New() *Hub {
	return &Hub{subs: make(map[string]Subscriber)}
}

// Subscribe registers s and sends it the connection acknowledgement.
func (h *Hub) Subscribe(ctx context.Context, s Subscriber) error {
	ack, err := json.Marshal(types.ConnectionEvent())
	if err != nil {
		return fmt.Errorf("encode connection ack: %w", err)
	}

	h.pubMu.Lock()
	defer h.pubMu.Unlock()

	h.mu.Lock()
	h.subs[s.ID()] = s
	n := len(h.subs)
	h.mu.Unlock()

	if err := s.Send(ack); err != nil {
		h.drop(s)
		return fmt.Errorf("send connection ack: %w", err)
	}

	logger.Info(ctx, "Subscriber connected", "subscriber_id", s.ID(), "subscribers", n)
	return nil
}

// Unsubscribe removes s without closing it.
func (h *Hub) Unsubscribe(ctx context.Context, s Subscriber) {
	if h.remove(s) {
		logger.Info(ctx, "Subscriber disconnected", "subscriber_id", s.ID(), "subscribers", h.Count())
	}
}

// Publish encodes ev once and hands it to every open subscriber. Closed or
// failing subscribers are pruned; the publisher never sees their errors.
func (h *Hub) Publish(ctx context.Context, ev types.Event) {
	msg, err := json.Marshal(ev)
	if err != nil {
		logger.ErrorWithErr(ctx, "Failed to encode event", err, "event_type", ev.Type)
		return
	}

	h.pubMu.Lock()
	defer h.pubMu.Unlock()

	h.mu.RLock()
	snapshot := make([]Subscriber, 0, len(h.subs))
	for _, s := range h.subs {
		snapshot = append(snapshot, s)
	}
	h.mu.RUnlock()

	delivered := 0
	for _, s := range snapshot {
		if !s.Open() {
			h.drop(s)
			continue
		}
		if err := s.Send(msg); err != nil {
			logger.Debug(ctx, "Dropping subscriber after failed send", "subscriber_id", s.ID(), "error", err)
			h.drop(s)
			continue
		}
		delivered++
	}

	logger.Debug(ctx, "Event published", "event_type", ev.Type, "delivered", delivered, "subscribers", len(snapshot))
}

// Count returns the number of registered subscribers.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Close disconnects every subscriber.
func (h *Hub) Close(ctx context.Context) {
	h.mu.Lock()
	subs := h.subs
	h.subs = make(map[string]Subscriber)
	h.mu.Unlock()

	for _, s := range subs {
		_ = s.Close()
	}
	logger.Info(ctx, "Broadcast hub closed", "subscribers", len(subs))
}

// remove deletes s if it is still the registered subscriber for its id.
func (h *Hub) remove(s Subscriber) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if cur, ok := h.subs[s.ID()]; ok && cur == s {
		delete(h.subs, s.ID())
		return true
	}
	return false
}

func (h *Hub) drop(s Subscriber) {
	h.remove(s)
	_ = s.Close()
}
