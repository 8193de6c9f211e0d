package memory

import (
	"context"
	"sync"

	"github.com/kirillkom/kyc-compliance/internal/core/domain"
)

// Tracker keeps validated document types per customer in process memory.
type Tracker struct {
	mu   sync.Mutex
	seen map[string]map[domain.DocumentType]struct{}
}

func NewTracker() *Tracker {
	return &Tracker{seen: make(map[string]map[domain.DocumentType]struct{})}
}

func (t *Tracker) MarkValidated(_ context.Context, customerID string, docType domain.DocumentType) ([]domain.DocumentType, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	types, ok := t.seen[customerID]
	if !ok {
		types = make(map[domain.DocumentType]struct{})
		t.seen[customerID] = types
	}
	types[docType] = struct{}{}
	return ordered(types), nil
}

func (t *Tracker) Reset(_ context.Context, customerID string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.seen, customerID)
	return nil
}

// ordered lists supported types first in priority order, then unknown.
func ordered(set map[domain.DocumentType]struct{}) []domain.DocumentType {
	out := make([]domain.DocumentType, 0, len(set))
	for _, t := range append(domain.SupportedDocumentTypes(), domain.DocUnknown) {
		if _, ok := set[t]; ok {
			out = append(out, t)
		}
	}
	return out
}
