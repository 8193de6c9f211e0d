package ports

import (
	"context"
	"io"

	"github.com/kirillkom/kyc-compliance/internal/core/domain"
)

type UploadRequest struct {
	Filename   string
	MimeType   string
	CustomerID string
	Body       io.Reader
}

// DocumentIngestor is the inbound contract for upload handling.
type DocumentIngestor interface {
	Upload(ctx context.Context, req UploadRequest) (*domain.Document, error)
}

// DocumentValidator classifies and validates a stored document.
type DocumentValidator interface {
	ValidateByID(ctx context.Context, documentID string) (*domain.ValidationOutcome, error)
}

// ComplianceSummarizer aggregates a customer's validation results.
type ComplianceSummarizer interface {
	Summarize(ctx context.Context, customerID string) (*domain.SummaryOutcome, error)
	GetSummary(ctx context.Context, customerID string) (*domain.ComplianceSummary, error)
}

// DocumentReader is the read model for documents and results.
type DocumentReader interface {
	GetDocument(ctx context.Context, id string) (*domain.Document, error)
	ListDocuments(ctx context.Context, customerID string) ([]domain.Document, error)
	ListValidations(ctx context.Context, customerID string) ([]domain.ValidationResult, error)
}

// DocumentPipeline runs upload and validation in one call.
type DocumentPipeline interface {
	Process(ctx context.Context, req UploadRequest) (*domain.ProcessOutcome, error)
}

// Analyzer classifies and validates text without touching any collaborator.
type Analyzer interface {
	Analyze(filename, text string) domain.Analysis
}
