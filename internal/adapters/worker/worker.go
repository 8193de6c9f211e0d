package workeradapter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/kirillkom/kyc-compliance/internal/core/domain"
	"github.com/kirillkom/kyc-compliance/internal/core/ports"
	"github.com/kirillkom/kyc-compliance/internal/observability/metrics"
)

const serviceName = "kyc-worker"

type Options struct {
	Concurrency int
	TaskTimeout time.Duration
	Metrics     *metrics.WorkerMetrics
	Logger      *slog.Logger
}

// ValidationWorker consumes validation requests and validates each document on
// a bounded goroutine pool. A full pool blocks the subscriber.
type ValidationWorker struct {
	validator ports.DocumentValidator
	pool      *ants.Pool
	timeout   time.Duration
	metrics   *metrics.WorkerMetrics
	logger    *slog.Logger
	inFlight  sync.WaitGroup
}

func New(validator ports.DocumentValidator, opts Options) (*ValidationWorker, error) {
	if opts.Concurrency <= 0 {
		opts.Concurrency = 8
	}
	if opts.TaskTimeout <= 0 {
		opts.TaskTimeout = 2 * time.Minute
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.NewWorkerMetrics(serviceName)
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	logger := opts.Logger
	pool, err := ants.NewPool(opts.Concurrency, ants.WithPanicHandler(func(p any) {
		logger.Error("worker_task_panic", "panic", fmt.Sprint(p))
	}))
	if err != nil {
		return nil, fmt.Errorf("create worker pool: %w", err)
	}
	return &ValidationWorker{
		validator: validator,
		pool:      pool,
		timeout:   opts.TaskTimeout,
		metrics:   opts.Metrics,
		logger:    logger,
	}, nil
}

// Run subscribes to validation requests until ctx is done, then waits for
// in-flight tasks.
func (w *ValidationWorker) Run(ctx context.Context, sub ports.EventSubscriber) error {
	w.logger.Info("worker_subscribed", "topic", domain.TopicKYCValidationRequested, "concurrency", w.pool.Cap())
	err := sub.Subscribe(ctx, domain.TopicKYCValidationRequested, func(_ context.Context, event domain.Event) error {
		return w.dispatch(ctx, event)
	})
	w.inFlight.Wait()
	w.pool.Release()
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("subscribe validation requests: %w", err)
	}
	return nil
}

func (w *ValidationWorker) dispatch(ctx context.Context, event domain.Event) error {
	w.inFlight.Add(1)
	err := w.pool.Submit(func() {
		defer w.inFlight.Done()
		_ = w.Handle(ctx, event)
	})
	if err != nil {
		w.inFlight.Done()
		return fmt.Errorf("submit validation task: %w", err)
	}
	return nil
}

// Handle validates the document named by one validation request.
func (w *ValidationWorker) Handle(ctx context.Context, event domain.Event) error {
	documentID, _ := event.Payload["document_id"].(string)
	documentID = strings.TrimSpace(documentID)
	if documentID == "" {
		documentID = event.Key
	}
	if documentID == "" {
		w.logger.WarnContext(ctx, "validation_request_dropped", "event_id", event.ID, "reason", "missing document_id")
		return domain.WrapError(domain.ErrInvalidInput, "handle validation request", errors.New("missing document_id"))
	}

	if !event.PublishedAt.IsZero() {
		w.metrics.ObserveQueueLag(serviceName, time.Since(event.PublishedAt))
	}

	taskCtx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	w.metrics.StartValidation()
	start := time.Now()
	outcome, err := w.validator.ValidateByID(taskCtx, documentID)
	w.metrics.FinishValidation(serviceName, time.Since(start), err)
	if err != nil {
		w.logger.ErrorContext(ctx, "validation_failed", "document_id", documentID, "error", err)
		return err
	}

	w.logger.InfoContext(ctx, "validation_completed",
		"document_id", documentID,
		"document_type", outcome.Result.DocumentType,
		"score", outcome.Result.Score,
		"is_valid", outcome.Result.IsValid,
		"warnings", len(outcome.Warnings),
	)
	if outcome.Summary != nil {
		w.metrics.RecordSummary(serviceName, string(outcome.Summary.Status))
	}
	return nil
}
