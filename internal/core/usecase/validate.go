package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/kirillkom/kyc-compliance/internal/core/compliance"
	"github.com/kirillkom/kyc-compliance/internal/core/domain"
	"github.com/kirillkom/kyc-compliance/internal/core/ports"
)

// Summarizer is the slice of SummaryUseCase the validator needs for auto summaries.
type Summarizer interface {
	Summarize(ctx context.Context, customerID string) (*domain.SummaryOutcome, error)
}

type ValidateDocumentUseCase struct {
	docs       ports.DocumentRepository
	results    ports.ValidationRepository
	classifier *compliance.Classifier
	engine     *compliance.Engine
	enricher   ports.Enricher
	events     ports.EventPublisher
	readiness  ports.ReadinessTracker
	summarizer Summarizer
	required   []domain.DocumentType
	logger     *slog.Logger
	now        func() time.Time
}

// NewValidateDocumentUseCase accepts a nil enricher and a nil readiness tracker.
func NewValidateDocumentUseCase(
	docs ports.DocumentRepository,
	results ports.ValidationRepository,
	policy compliance.Policy,
	enricher ports.Enricher,
	events ports.EventPublisher,
	readiness ports.ReadinessTracker,
	logger *slog.Logger,
) *ValidateDocumentUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	required := make([]domain.DocumentType, 0, len(policy.Requirements))
	for _, req := range policy.Requirements {
		required = append(required, req.DocumentType)
	}
	return &ValidateDocumentUseCase{
		docs:       docs,
		results:    results,
		classifier: compliance.NewClassifier(),
		engine:     compliance.NewEngine(policy),
		enricher:   enricher,
		events:     events,
		readiness:  readiness,
		required:   required,
		logger:     logger,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// WithAutoSummary makes the validator summarise a customer as soon as every
// required document type has a validation result.
func (uc *ValidateDocumentUseCase) WithAutoSummary(s Summarizer) *ValidateDocumentUseCase {
	uc.summarizer = s
	return uc
}

func (uc *ValidateDocumentUseCase) ValidateByID(ctx context.Context, documentID string) (*domain.ValidationOutcome, error) {
	doc, err := uc.docs.GetDocument(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("fetch document by id: %w", err)
	}
	return uc.Validate(ctx, doc)
}

// Validate always returns the computed result; persistence, publication,
// enrichment and summary failures are reported as warnings.
func (uc *ValidateDocumentUseCase) Validate(ctx context.Context, doc *domain.Document) (_ *domain.ValidationOutcome, err error) {
	if doc == nil {
		return nil, domain.WrapError(domain.ErrInvalidInput, "validate document", fmt.Errorf("nil document"))
	}
	ctx, span := tracer.Start(ctx, "validate.document", documentAttrs(doc.ID, doc.CustomerID))
	defer func() { endSpan(span, err) }()

	classification := uc.classifier.Classify(doc.Filename, doc.RawText)
	result := uc.engine.Validate(classification.DocumentType, doc.RawText)

	validatedAt := uc.now()
	result.ID = ulid.MustNew(ulid.Timestamp(validatedAt), ulid.DefaultEntropy()).String()
	result.DocumentID = doc.ID
	result.CustomerID = doc.CustomerID
	result.Filename = doc.Filename
	result.Confidence = classification.Confidence
	result.ValidatedAt = validatedAt

	outcome := &domain.ValidationOutcome{Classification: classification}

	if uc.enricher != nil {
		enrichment, err := uc.enricher.Enrich(ctx, ports.EnrichmentRequest{Document: doc, Classification: classification, Result: result})
		if err != nil {
			outcome.Warnings = append(outcome.Warnings, uc.warn(ctx, "enrichment_failed", doc.ID, fmt.Errorf("enrich document: %w", err)))
		} else {
			result.Enrichment = enrichment
		}
	}

	if err := uc.results.PutValidation(ctx, result); err != nil {
		outcome.Warnings = append(outcome.Warnings, uc.warn(ctx, "storage_fallback", doc.ID, fmt.Errorf("store validation: %w", err)))
	}

	uc.logger.InfoContext(ctx, "validation_completed",
		slog.String("document_id", doc.ID),
		slog.String("customer_id", doc.CustomerID),
		slog.String("document_type", string(result.DocumentType)),
		slog.Int("score", result.Score),
		slog.Bool("is_valid", result.IsValid),
	)

	if err := uc.events.Publish(ctx, domain.TopicKYCValidationCompleted, doc.ID, domain.ValidationCompletedPayload(result)); err != nil {
		outcome.Warnings = append(outcome.Warnings, uc.warn(ctx, "event_publish_failed", doc.ID, fmt.Errorf("publish %s: %w", domain.TopicKYCValidationCompleted, err)))
	}

	outcome.Result = result
	uc.maybeSummarize(ctx, doc, result.DocumentType, outcome)
	return outcome, nil
}

func (uc *ValidateDocumentUseCase) maybeSummarize(ctx context.Context, doc *domain.Document, docType domain.DocumentType, outcome *domain.ValidationOutcome) {
	if uc.readiness == nil || doc.CustomerID == "" {
		return
	}
	seen, err := uc.readiness.MarkValidated(ctx, doc.CustomerID, docType)
	if err != nil {
		outcome.Warnings = append(outcome.Warnings, uc.warn(ctx, "readiness_failed", doc.ID, fmt.Errorf("mark readiness: %w", err)))
		return
	}
	if uc.summarizer == nil {
		return
	}
	if !covers(seen, uc.required) && !uc.persistedCoverage(ctx, doc.CustomerID, seen) {
		return
	}

	summary, err := uc.summarizer.Summarize(ctx, doc.CustomerID)
	if err != nil {
		outcome.Warnings = append(outcome.Warnings, uc.warn(ctx, "auto_summary_failed", doc.ID, fmt.Errorf("summarize customer: %w", err)))
		return
	}
	outcome.Summary = &summary.Summary
	outcome.Warnings = append(outcome.Warnings, summary.Warnings...)
}

// persistedCoverage checks stored results when the tracker has not seen every
// required type, as happens after a restart with an in-memory tracker. Types
// found in the store are marked on the tracker.
func (uc *ValidateDocumentUseCase) persistedCoverage(ctx context.Context, customerID string, seen []domain.DocumentType) bool {
	results, err := uc.results.ListValidations(ctx, customerID)
	if err != nil {
		uc.logger.WarnContext(ctx, "readiness_lookup_failed", slog.String("customer_id", customerID), slog.String("error", err.Error()))
		return false
	}
	known := make(map[domain.DocumentType]struct{}, len(seen))
	for _, t := range seen {
		known[t] = struct{}{}
	}
	stored := make([]domain.DocumentType, 0, len(results))
	for _, r := range results {
		stored = append(stored, r.DocumentType)
		if _, ok := known[r.DocumentType]; ok {
			continue
		}
		known[r.DocumentType] = struct{}{}
		if _, err := uc.readiness.MarkValidated(ctx, customerID, r.DocumentType); err != nil {
			uc.logger.WarnContext(ctx, "readiness_failed", slog.String("customer_id", customerID), slog.String("error", err.Error()))
		}
	}
	return covers(stored, uc.required)
}

func (uc *ValidateDocumentUseCase) warn(ctx context.Context, event, documentID string, err error) string {
	uc.logger.WarnContext(ctx, event, slog.String("document_id", documentID), slog.String("error", err.Error()))
	return err.Error()
}

func covers(seen, required []domain.DocumentType) bool {
	if len(required) == 0 {
		return false
	}
	have := make(map[domain.DocumentType]struct{}, len(seen))
	for _, t := range seen {
		have[t] = struct{}{}
	}
	for _, t := range required {
		if _, ok := have[t]; !ok {
			return false
		}
	}
	return true
}
