package usecase

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/kirillkom/kyc-compliance/internal/core/domain"
	"github.com/kirillkom/kyc-compliance/internal/core/ports"
)

// PipelineUseCase chains ingest and validation for synchronous callers.
type PipelineUseCase struct {
	ingest      *IngestDocumentUseCase
	validate    *ValidateDocumentUseCase
	concurrency int
}

func NewPipelineUseCase(ingest *IngestDocumentUseCase, validate *ValidateDocumentUseCase, concurrency int) *PipelineUseCase {
	if concurrency <= 0 {
		concurrency = 4
	}
	return &PipelineUseCase{ingest: ingest, validate: validate, concurrency: concurrency}
}

func (uc *PipelineUseCase) Process(ctx context.Context, req ports.UploadRequest) (*domain.ProcessOutcome, error) {
	doc, warnings, err := uc.ingest.ingest(ctx, req)
	if err != nil {
		return nil, err
	}

	validation, err := uc.validate.Validate(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("validate document: %w", err)
	}

	return &domain.ProcessOutcome{
		Document:   doc,
		Validation: validation,
		Warnings:   append(warnings, validation.Warnings...),
	}, nil
}

// BatchItem is one upload outcome in a batch; exactly one of Outcome and Err is set.
type BatchItem struct {
	Filename string
	Outcome  *domain.ProcessOutcome
	Err      error
}

// ProcessBatch runs uploads concurrently. A rejected upload does not cancel
// the rest; its error is reported on its item.
func (uc *PipelineUseCase) ProcessBatch(ctx context.Context, reqs []ports.UploadRequest) ([]BatchItem, error) {
	items := make([]BatchItem, len(reqs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(uc.concurrency)

	for i, req := range reqs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			outcome, err := uc.Process(gctx, req)
			items[i] = BatchItem{Filename: req.Filename, Outcome: outcome, Err: err}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return items, fmt.Errorf("process batch: %w", err)
	}
	return items, nil
}
