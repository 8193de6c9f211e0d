package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/kirillkom/kyc-compliance/internal/core/domain"
)

// Store is the process-local backend. Reads return copies so callers cannot
// mutate stored records.
type Store struct {
	mu          sync.RWMutex
	docs        map[string]domain.Document
	validations []domain.ValidationResult
	summaries   map[string]domain.ComplianceSummary
}

func NewStore() *Store {
	return &Store{
		docs:      make(map[string]domain.Document),
		summaries: make(map[string]domain.ComplianceSummary),
	}
}

func (s *Store) PutDocument(_ context.Context, doc *domain.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.docs[doc.ID]; exists {
		return nil
	}
	s.docs[doc.ID] = *doc
	return nil
}

func (s *Store) GetDocument(_ context.Context, id string) (*domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.docs[id]
	if !ok {
		return nil, domain.ErrDocumentNotFound
	}
	return &doc, nil
}

func (s *Store) ListDocuments(_ context.Context, customerID string) ([]domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Document, 0)
	for _, doc := range s.docs {
		if doc.CustomerID == customerID {
			out = append(out, doc)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *Store) PutValidation(_ context.Context, res domain.ValidationResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.validations = append(s.validations, cloneResult(res))
	return nil
}

func (s *Store) ListValidations(_ context.Context, customerID string) ([]domain.ValidationResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.ValidationResult, 0)
	for _, res := range s.validations {
		if res.CustomerID == customerID {
			out = append(out, cloneResult(res))
		}
	}
	return out, nil
}

func (s *Store) PutSummary(_ context.Context, summary domain.ComplianceSummary) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cur, ok := s.summaries[summary.CustomerID]; ok && cur.GeneratedAt.After(summary.GeneratedAt) {
		return nil
	}
	s.summaries[summary.CustomerID] = summary
	return nil
}

func (s *Store) GetSummary(_ context.Context, customerID string) (*domain.ComplianceSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	summary, ok := s.summaries[customerID]
	if !ok {
		return nil, domain.ErrSummaryNotFound
	}
	return &summary, nil
}

func cloneResult(res domain.ValidationResult) domain.ValidationResult {
	res.Issues = append([]string(nil), res.Issues...)
	res.Recommendations = append([]string(nil), res.Recommendations...)
	if res.Details != nil {
		details := make(map[string]any, len(res.Details))
		for k, v := range res.Details {
			details[k] = v
		}
		res.Details = details
	}
	return res
}
