package memory

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/kirillkom/kyc-compliance/internal/core/domain"
)

func TestRecorderKeepsEventsInOrder(t *testing.T) {
	r := NewRecorder(nil)
	ctx := context.Background()
	_ = r.Publish(ctx, domain.TopicDocumentProcessed, "d1", map[string]any{"document_id": "d1"})
	_ = r.Publish(ctx, domain.TopicKYCValidationRequested, "d1", map[string]any{"document_id": "d1"})
	_ = r.Publish(ctx, domain.TopicDocumentProcessed, "d2", map[string]any{"document_id": "d2"})

	all := r.Events()
	if len(all) != 3 {
		t.Fatalf("expected 3 events, got %d", len(all))
	}
	if all[0].ID == "" || all[0].PublishedAt.IsZero() {
		t.Fatalf("recorded event missing id or timestamp: %+v", all[0])
	}
	if got := r.ByTopic(domain.TopicDocumentProcessed); len(got) != 2 || got[1].Key != "d2" {
		t.Fatalf("unexpected topic filter: %+v", got)
	}

	r.Clear()
	if len(r.Events()) != 0 {
		t.Fatalf("Clear() left events behind")
	}
}

func TestRecorderDeliversToSubscribers(t *testing.T) {
	r := NewRecorder(nil)
	ctx, cancel := context.WithCancel(context.Background())

	var delivered atomic.Int32
	done := make(chan struct{})
	go func() {
		_ = r.Subscribe(ctx, domain.TopicKYCValidationRequested, func(_ context.Context, e domain.Event) error {
			delivered.Add(1)
			return errors.New("handler failure is logged only")
		})
		close(done)
	}()

	deadline := time.Now().Add(time.Second)
	for {
		r.mu.RLock()
		ready := len(r.subs[domain.TopicKYCValidationRequested]) == 1
		r.mu.RUnlock()
		if ready || time.Now().After(deadline) {
			break
		}
		time.Sleep(time.Millisecond)
	}

	if err := r.Publish(context.Background(), domain.TopicKYCValidationRequested, "d1", nil); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}
	_ = r.Publish(context.Background(), domain.TopicDocumentProcessed, "d1", nil)
	if delivered.Load() != 1 {
		t.Fatalf("expected one delivery, got %d", delivered.Load())
	}

	cancel()
	<-done
	_ = r.Publish(context.Background(), domain.TopicKYCValidationRequested, "d2", nil)
	if delivered.Load() != 1 {
		t.Fatalf("unsubscribed handler still called")
	}
}

func TestRecorderDropsOldestBeyondCapacity(t *testing.T) {
	r := NewRecorderWithCapacity(nil, 2)
	ctx := context.Background()
	for _, key := range []string{"d1", "d2", "d3"} {
		_ = r.Publish(ctx, domain.TopicDocumentProcessed, key, map[string]any{"document_id": key})
	}

	all := r.Events()
	if len(all) != 2 || all[0].Key != "d2" || all[1].Key != "d3" {
		t.Fatalf("expected the two newest events, got %+v", all)
	}
	if NewRecorder(nil).capacity != DefaultCapacity {
		t.Fatalf("NewRecorder() should use DefaultCapacity")
	}
}
