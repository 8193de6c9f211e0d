package memory

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/kirillkom/kyc-compliance/internal/core/domain"
	"github.com/kirillkom/kyc-compliance/internal/infrastructure/events"
)

type handler func(context.Context, domain.Event) error

// DefaultCapacity bounds the recorded history of a long-running process.
const DefaultCapacity = 1024

// Recorder is the in-process transport. It keeps the most recent published
// events and delivers each one synchronously to the subscribers of its topic.
type Recorder struct {
	logger   *slog.Logger
	now      func() time.Time
	capacity int

	mu     sync.RWMutex
	events []domain.Event
	subs   map[string]map[int]handler
	nextID int
}

func NewRecorder(logger *slog.Logger) *Recorder {
	return NewRecorderWithCapacity(logger, DefaultCapacity)
}

// NewRecorderWithCapacity keeps at most capacity events, dropping the oldest.
// A non-positive capacity uses DefaultCapacity.
func NewRecorderWithCapacity(logger *slog.Logger, capacity int) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Recorder{
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
		capacity: capacity,
		subs:     make(map[string]map[int]handler),
	}
}

func (r *Recorder) Publish(ctx context.Context, topic, key string, payload map[string]any) error {
	event := events.NewEvent(topic, key, payload, r.now())

	r.mu.Lock()
	r.events = append(r.events, event)
	if over := len(r.events) - r.capacity; over > 0 {
		r.events = append(r.events[:0:0], r.events[over:]...)
	}
	targets := make([]handler, 0, len(r.subs[topic]))
	for _, h := range r.subs[topic] {
		targets = append(targets, h)
	}
	r.mu.Unlock()

	r.logger.DebugContext(ctx, "event_recorded", slog.String("topic", topic), slog.String("key", key))
	for _, h := range targets {
		if err := h(ctx, event); err != nil {
			r.logger.WarnContext(ctx, "event_handler_failed",
				slog.String("topic", topic),
				slog.String("key", key),
				slog.String("error", err.Error()),
			)
		}
	}
	return nil
}

// Subscribe blocks until ctx is done.
func (r *Recorder) Subscribe(ctx context.Context, topic string, h func(context.Context, domain.Event) error) error {
	r.mu.Lock()
	id := r.nextID
	r.nextID++
	if r.subs[topic] == nil {
		r.subs[topic] = make(map[int]handler)
	}
	r.subs[topic][id] = h
	r.mu.Unlock()

	<-ctx.Done()

	r.mu.Lock()
	delete(r.subs[topic], id)
	r.mu.Unlock()
	return nil
}

func (r *Recorder) Events() []domain.Event {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Event, len(r.events))
	copy(out, r.events)
	return out
}

func (r *Recorder) ByTopic(topic string) []domain.Event {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []domain.Event
	for _, e := range r.events {
		if e.Topic == topic {
			out = append(out, e)
		}
	}
	return out
}

func (r *Recorder) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}

func (r *Recorder) Close() {}
