package ports

import (
	"context"
	"io"

	"github.com/kirillkom/kyc-compliance/internal/core/domain"
)

// DocumentRepository persists raw documents. Documents are write-once.
type DocumentRepository interface {
	PutDocument(ctx context.Context, doc *domain.Document) error
	GetDocument(ctx context.Context, id string) (*domain.Document, error)
	ListDocuments(ctx context.Context, customerID string) ([]domain.Document, error)
}

// ValidationRepository appends validation results; older results are superseded, never updated.
type ValidationRepository interface {
	PutValidation(ctx context.Context, result domain.ValidationResult) error
	ListValidations(ctx context.Context, customerID string) ([]domain.ValidationResult, error)
}

// SummaryRepository keeps the latest compliance summary per customer.
type SummaryRepository interface {
	PutSummary(ctx context.Context, summary domain.ComplianceSummary) error
	GetSummary(ctx context.Context, customerID string) (*domain.ComplianceSummary, error)
}

// Store bundles the three repositories behind one backend.
type Store interface {
	DocumentRepository
	ValidationRepository
	SummaryRepository
}

// ObjectStorage archives raw upload bytes.
type ObjectStorage interface {
	Save(ctx context.Context, key string, data io.Reader) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}

// TextExtractor turns raw bytes into text. Failures come back as descriptive text.
type TextExtractor interface {
	Extract(ctx context.Context, raw []byte, format string) string
}

// EventPublisher is best-effort, fire-and-forget publication.
type EventPublisher interface {
	Publish(ctx context.Context, topic, key string, payload map[string]any) error
}

// EventSubscriber delivers events of one topic until ctx is done.
type EventSubscriber interface {
	Subscribe(ctx context.Context, topic string, handler func(context.Context, domain.Event) error) error
}

type EventBus interface {
	EventPublisher
	EventSubscriber
	Close()
}

type EnrichmentRequest struct {
	Document       *domain.Document
	Classification domain.Classification
	Result         domain.ValidationResult
}

// Enricher adds supplementary metadata. It must not alter scores or verdicts.
type Enricher interface {
	Enrich(ctx context.Context, req EnrichmentRequest) (*domain.Enrichment, error)
}

// ReadinessTracker records which document types a customer has validated.
type ReadinessTracker interface {
	MarkValidated(ctx context.Context, customerID string, docType domain.DocumentType) ([]domain.DocumentType, error)
	Reset(ctx context.Context, customerID string) error
}

// SummaryProjector mirrors summaries into a secondary read model.
type SummaryProjector interface {
	Project(ctx context.Context, summary domain.ComplianceSummary) error
}
