package usecase

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"

	"github.com/kirillkom/kyc-compliance/internal/core/domain"
	"github.com/kirillkom/kyc-compliance/internal/core/ports"
)

type storeFake struct {
	mu          sync.Mutex
	docs        map[string]domain.Document
	validations []domain.ValidationResult
	summaries   map[string]domain.ComplianceSummary
	putDocErr   error
	putValErr   error
	putSumErr   error
	listErr     error
}

func newStoreFake() *storeFake {
	return &storeFake{
		docs:      map[string]domain.Document{},
		summaries: map[string]domain.ComplianceSummary{},
	}
}

func (f *storeFake) PutDocument(_ context.Context, doc *domain.Document) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.putDocErr != nil {
		return f.putDocErr
	}
	f.docs[doc.ID] = *doc
	return nil
}

func (f *storeFake) GetDocument(_ context.Context, id string) (*domain.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	doc, ok := f.docs[id]
	if !ok {
		return nil, domain.ErrDocumentNotFound
	}
	return &doc, nil
}

func (f *storeFake) ListDocuments(_ context.Context, customerID string) ([]domain.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Document
	for _, d := range f.docs {
		if d.CustomerID == customerID {
			out = append(out, d)
		}
	}
	return out, nil
}

func (f *storeFake) PutValidation(_ context.Context, res domain.ValidationResult) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.putValErr != nil {
		return f.putValErr
	}
	f.validations = append(f.validations, res)
	return nil
}

func (f *storeFake) ListValidations(_ context.Context, customerID string) ([]domain.ValidationResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []domain.ValidationResult
	for _, v := range f.validations {
		if v.CustomerID == customerID {
			out = append(out, v)
		}
	}
	return out, nil
}

func (f *storeFake) PutSummary(_ context.Context, s domain.ComplianceSummary) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.putSumErr != nil {
		return f.putSumErr
	}
	f.summaries[s.CustomerID] = s
	return nil
}

func (f *storeFake) GetSummary(_ context.Context, customerID string) (*domain.ComplianceSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.summaries[customerID]
	if !ok {
		return nil, domain.ErrSummaryNotFound
	}
	return &s, nil
}

type storageFake struct {
	mu    sync.Mutex
	saved map[string]string
	err   error
}

func (f *storageFake) Save(_ context.Context, key string, data io.Reader) error {
	if f.err != nil {
		return f.err
	}
	raw, err := io.ReadAll(data)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saved == nil {
		f.saved = map[string]string{}
	}
	f.saved[key] = string(raw)
	return nil
}

func (f *storageFake) Open(context.Context, string) (io.ReadCloser, error) {
	return io.NopCloser(strings.NewReader("")), nil
}

// extractorFake returns the raw bytes as text, like the .txt path.
type extractorFake struct {
	mu      sync.Mutex
	calls   int
	formats []string
}

func (f *extractorFake) Extract(_ context.Context, raw []byte, format string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.formats = append(f.formats, format)
	return string(raw)
}

type publishedEvent struct {
	topic   string
	key     string
	payload map[string]any
}

type eventsFake struct {
	mu     sync.Mutex
	events []publishedEvent
	err    error
}

func (f *eventsFake) Publish(_ context.Context, topic, key string, payload map[string]any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, publishedEvent{topic: topic, key: key, payload: payload})
	return nil
}

func (f *eventsFake) topics() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.events))
	for _, e := range f.events {
		out = append(out, e.topic)
	}
	return out
}

type enricherFake struct {
	got ports.EnrichmentRequest
	err error
}

func (f *enricherFake) Enrich(_ context.Context, req ports.EnrichmentRequest) (*domain.Enrichment, error) {
	f.got = req
	if f.err != nil {
		return nil, f.err
	}
	return &domain.Enrichment{Method: "fake", QualityScore: 0.5}, nil
}

type readinessFake struct {
	mu   sync.Mutex
	seen map[string][]domain.DocumentType
	err  error
}

func (f *readinessFake) MarkValidated(_ context.Context, customerID string, docType domain.DocumentType) ([]domain.DocumentType, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	if f.seen == nil {
		f.seen = map[string][]domain.DocumentType{}
	}
	f.seen[customerID] = append(f.seen[customerID], docType)
	return append([]domain.DocumentType(nil), f.seen[customerID]...), nil
}

func (f *readinessFake) Reset(_ context.Context, customerID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.seen, customerID)
	return nil
}

type projectorFake struct {
	projected []domain.ComplianceSummary
	err       error
}

func (f *projectorFake) Project(_ context.Context, s domain.ComplianceSummary) error {
	if f.err != nil {
		return f.err
	}
	f.projected = append(f.projected, s)
	return nil
}

var errBackendDown = errors.New("backend down")

const (
	crText   = "Commercial Registration Certificate\nABC Trading Company Ltd\nCR Number: 1234567890\nIssue Date: 2024-01-15\nRiyadh, Saudi Arabia"
	nidText  = "National ID... 1098765432 ... هوية وطنية ... identity card"
	bankText = "Bank Statement\nIBAN: SA0380000000608010167519\nClosing balance: 50,000 SAR"
	taxText  = "Tax Certificate\nVAT Number: 300123456789003\nValid until 2025-02-01"
)
