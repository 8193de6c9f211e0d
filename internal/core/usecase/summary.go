package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/kirillkom/kyc-compliance/internal/core/compliance"
	"github.com/kirillkom/kyc-compliance/internal/core/domain"
	"github.com/kirillkom/kyc-compliance/internal/core/ports"
)

type SummaryUseCase struct {
	results    ports.ValidationRepository
	summaries  ports.SummaryRepository
	aggregator *compliance.Aggregator
	events     ports.EventPublisher
	projector  ports.SummaryProjector
	logger     *slog.Logger
	now        func() time.Time
}

// NewSummaryUseCase accepts a nil projector.
func NewSummaryUseCase(
	results ports.ValidationRepository,
	summaries ports.SummaryRepository,
	policy compliance.Policy,
	events ports.EventPublisher,
	projector ports.SummaryProjector,
	logger *slog.Logger,
) *SummaryUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	return &SummaryUseCase{
		results:    results,
		summaries:  summaries,
		aggregator: compliance.NewAggregator(policy),
		events:     events,
		projector:  projector,
		logger:     logger,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

func (uc *SummaryUseCase) Summarize(ctx context.Context, customerID string) (_ *domain.SummaryOutcome, err error) {
	customerID = strings.TrimSpace(customerID)
	if customerID == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "summarize customer", fmt.Errorf("customer_id is required"))
	}
	ctx, span := tracer.Start(ctx, "summary.generate", trace.WithAttributes(attribute.String("kyc.customer_id", customerID)))
	defer func() { endSpan(span, err) }()

	results, err := uc.results.ListValidations(ctx, customerID)
	if err != nil {
		return nil, fmt.Errorf("list validations: %w", err)
	}

	summary := uc.aggregator.Aggregate(customerID, compliance.Latest(results))
	summary.GeneratedAt = uc.now()
	return uc.publish(ctx, summary), nil
}

// SummarizeResults aggregates a caller-supplied result set without reading storage.
func (uc *SummaryUseCase) SummarizeResults(ctx context.Context, customerID string, results []domain.ValidationResult) *domain.SummaryOutcome {
	summary := uc.aggregator.Aggregate(customerID, compliance.Latest(results))
	summary.GeneratedAt = uc.now()
	return uc.publish(ctx, summary)
}

func (uc *SummaryUseCase) GetSummary(ctx context.Context, customerID string) (*domain.ComplianceSummary, error) {
	summary, err := uc.summaries.GetSummary(ctx, customerID)
	if err != nil {
		return nil, fmt.Errorf("fetch summary: %w", err)
	}
	return summary, nil
}

func (uc *SummaryUseCase) publish(ctx context.Context, summary domain.ComplianceSummary) *domain.SummaryOutcome {
	outcome := &domain.SummaryOutcome{Summary: summary}

	if err := uc.summaries.PutSummary(ctx, summary); err != nil {
		outcome.Warnings = append(outcome.Warnings, uc.warn(ctx, "storage_fallback", summary.CustomerID, fmt.Errorf("store summary: %w", err)))
	}

	uc.logger.InfoContext(ctx, "summary_generated",
		slog.String("customer_id", summary.CustomerID),
		slog.Float64("score", summary.Score),
		slog.String("status", string(summary.Status)),
		slog.Int("total_documents", summary.Analysis.TotalDocuments),
	)

	if err := uc.events.Publish(ctx, domain.TopicComplianceSummaryGenerated, summary.CustomerID, domain.SummaryGeneratedPayload(summary)); err != nil {
		outcome.Warnings = append(outcome.Warnings, uc.warn(ctx, "event_publish_failed", summary.CustomerID, fmt.Errorf("publish %s: %w", domain.TopicComplianceSummaryGenerated, err)))
	}

	if uc.projector != nil {
		if err := uc.projector.Project(ctx, summary); err != nil {
			outcome.Warnings = append(outcome.Warnings, uc.warn(ctx, "projection_failed", summary.CustomerID, fmt.Errorf("project summary: %w", err)))
		}
	}
	return outcome
}

func (uc *SummaryUseCase) warn(ctx context.Context, event, customerID string, err error) string {
	uc.logger.WarnContext(ctx, event, slog.String("customer_id", customerID), slog.String("error", err.Error()))
	return err.Error()
}
