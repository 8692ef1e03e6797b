package journal

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	"sim-trading-engine/internal/id"
	"sim-trading-engine/internal/logger"
	"sim-trading-engine/internal/types"
)

// Record is one journaled hub event. Payload is the event's data field as it
// went out on the wire.
type Record struct {
	ID      string          `json:"id"`
	Type    types.EventType `json:"type"`
	At      time.Time       `json:"time"`
	Payload json.RawMessage `json:"data,omitempty"`
}

// Writer persists records. Implementations are only called from the
// subscriber's writer goroutine.
type Writer interface {
	Write(ctx context.Context, rec Record) error
	Close() error
}

// Options tunes a journal Subscriber.
type Options struct {
	Buffer               int
	IncludeMarketUpdates bool
}

// Subscriber is an in-process hub subscriber that queues events and hands
// them to a Writer on its own goroutine. A full queue drops the record
// rather than the subscription.
type Subscriber struct {
	id   string
	w    Writer
	opts Options
	now  func() time.Time

	mu     sync.Mutex
	closed bool
	queue  chan Record
	done   chan struct{}

	written atomic.Int64
	dropped atomic.Int64
}

// NewSubscriber starts the writer goroutine for w.
func NewSubscriber(w Writer, opts Options) *Subscriber {
	if opts.Buffer <= 0 {
		opts.Buffer = 256
	}
	s := &Subscriber{
		id:    "journal-" + id.UUID(),
		w:     w,
		opts:  opts,
		now:   func() time.Time { return time.Now().UTC() },
		queue: make(chan Record, opts.Buffer),
		done:  make(chan struct{}),
	}
	go s.run()
	return s
}

func (s *Subscriber) ID() string { return s.id }

func (s *Subscriber) Send(msg []byte) error {
	var env struct {
		Type types.EventType `json:"type"`
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(msg, &env); err != nil {
		return err
	}
	if !s.wants(env.Type) {
		return nil
	}

	rec := Record{ID: id.New(), Type: env.Type, At: s.now(), Payload: env.Data}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	select {
	case s.queue <- rec:
	default:
		s.dropped.Add(1)
	}
	return nil
}

func (s *Subscriber) wants(t types.EventType) bool {
	switch t {
	case types.EventConnection, "":
		return false
	case types.EventMarketUpdate:
		return s.opts.IncludeMarketUpdates
	default:
		return true
	}
}

func (s *Subscriber) Open() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.closed
}

// Close stops accepting events, drains the queue into the writer and closes it.
func (s *Subscriber) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		<-s.done
		return nil
	}
	s.closed = true
	close(s.queue)
	s.mu.Unlock()

	<-s.done
	err := s.w.Close()
	logger.Info(context.Background(), "Event journal closed",
		"subscriber_id", s.id,
		"written", s.written.Load(),
		"dropped", s.dropped.Load(),
	)
	return err
}

// Stats reports records written and records dropped on a full queue.
func (s *Subscriber) Stats() (written, dropped int64) {
	return s.written.Load(), s.dropped.Load()
}

func (s *Subscriber) run() {
	defer close(s.done)
	ctx := context.Background()
	for rec := range s.queue {
		if err := s.w.Write(ctx, rec); err != nil {
			logger.ErrorWithErr(ctx, "Failed to journal event", err, "event_type", rec.Type, "record_id", rec.ID)
			continue
		}
		s.written.Add(1)
	}
}
