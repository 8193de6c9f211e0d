package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/kirillkom/kyc-compliance/internal/config"
	"github.com/kirillkom/kyc-compliance/internal/core/compliance"
	"github.com/kirillkom/kyc-compliance/internal/core/ports"
	"github.com/kirillkom/kyc-compliance/internal/core/usecase"
	"github.com/kirillkom/kyc-compliance/internal/infrastructure/chunking"
	"github.com/kirillkom/kyc-compliance/internal/infrastructure/enrichment/heuristic"
	eventskafka "github.com/kirillkom/kyc-compliance/internal/infrastructure/events/kafka"
	eventsmemory "github.com/kirillkom/kyc-compliance/internal/infrastructure/events/memory"
	eventsnats "github.com/kirillkom/kyc-compliance/internal/infrastructure/events/nats"
	"github.com/kirillkom/kyc-compliance/internal/infrastructure/extractor/text"
	"github.com/kirillkom/kyc-compliance/internal/infrastructure/graph/neo4j"
	"github.com/kirillkom/kyc-compliance/internal/infrastructure/llm/ollama"
	readinessmemory "github.com/kirillkom/kyc-compliance/internal/infrastructure/readiness/memory"
	readinessredis "github.com/kirillkom/kyc-compliance/internal/infrastructure/readiness/redis"
	"github.com/kirillkom/kyc-compliance/internal/infrastructure/repository/memory"
	"github.com/kirillkom/kyc-compliance/internal/infrastructure/repository/postgres"
	"github.com/kirillkom/kyc-compliance/internal/infrastructure/resilience"
	"github.com/kirillkom/kyc-compliance/internal/infrastructure/storage/localfs"
	storagememory "github.com/kirillkom/kyc-compliance/internal/infrastructure/storage/memory"
)

const probeTimeout = 3 * time.Second

// App holds the wired use cases and the backends behind them.
type App struct {
	Config config.Config
	Logger *slog.Logger
	Policy compliance.Policy

	Store      ports.Store
	Events     ports.EventBus
	Readiness  ports.ReadinessTracker
	Resilience *resilience.Executor
	Extractor  ports.TextExtractor

	Ingest   *usecase.IngestDocumentUseCase
	Validate *usecase.ValidateDocumentUseCase
	Summary  *usecase.SummaryUseCase
	Pipeline *usecase.PipelineUseCase
	Analyze  *usecase.AnalyzeUseCase

	// Backends is "store/events" as resolved, e.g. "postgres/nats".
	Backends     string
	EventBackend string

	checks  map[string]func(context.Context) error
	closers []func()
}

// New wires every backend named in cfg. Backends set to "auto" fall back to
// their in-memory implementation when unreachable.
func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*App, error) {
	return build(ctx, cfg, logger, false)
}

// NewLocal wires an app with in-memory store, events and readiness, for
// command-line and MCP use. Optional Ollama enrichment still follows cfg.
func NewLocal(ctx context.Context, cfg config.Config, logger *slog.Logger) (*App, error) {
	cfg.StoreBackend = "memory"
	cfg.EventTransport = "memory"
	cfg.RedisURL = ""
	cfg.Neo4jURI = ""
	return build(ctx, cfg, logger, true)
}

func build(ctx context.Context, cfg config.Config, logger *slog.Logger, local bool) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	policy, err := config.LoadPolicy(cfg.PolicyFile)
	if err != nil {
		return nil, fmt.Errorf("load policy: %w", err)
	}

	app := &App{
		Config:     cfg,
		Logger:     logger,
		Policy:     policy,
		Resilience: resilience.NewExecutor(resilience.DefaultPolicy(), logger),
		checks:     make(map[string]func(context.Context) error),
	}
	ok := false
	defer func() {
		if !ok {
			app.Close()
		}
	}()

	storeName, err := app.openStore(ctx)
	if err != nil {
		return nil, err
	}

	var storage ports.ObjectStorage
	if local {
		storage = storagememory.New()
	} else {
		fs, err := localfs.New(cfg.StoragePath)
		if err != nil {
			return nil, fmt.Errorf("init object storage: %w", err)
		}
		storage = fs
	}

	eventsName, err := app.openEvents(ctx)
	if err != nil {
		return nil, err
	}
	app.Backends = storeName + "/" + eventsName
	app.EventBackend = eventsName

	app.Readiness = app.openReadiness(ctx)
	app.Extractor = text.NewExtractor(logger)

	enricher, err := app.openEnricher()
	if err != nil {
		return nil, err
	}

	var projector ports.SummaryProjector
	if p := app.openProjector(ctx); p != nil {
		projector = p
	}

	app.Ingest = usecase.NewIngestDocumentUseCase(app.Store, storage, app.Extractor, app.Events, usecase.UploadLimits{
		MaxFileSize:       cfg.MaxFileSizeBytes,
		AllowedExtensions: cfg.AllowedExtensions,
	}, logger)
	app.Summary = usecase.NewSummaryUseCase(app.Store, app.Store, policy, app.Events, projector, logger)
	app.Validate = usecase.NewValidateDocumentUseCase(app.Store, app.Store, policy, enricher, app.Events, app.Readiness, logger)
	if cfg.AutoSummary {
		app.Validate.WithAutoSummary(app.Summary)
	}
	app.Pipeline = usecase.NewPipelineUseCase(app.Ingest, app.Validate, cfg.BatchConcurrency)
	app.Analyze = usecase.NewAnalyzeUseCase(policy)

	logger.Info("app_wired",
		"backends", app.Backends,
		"enrichment", cfg.EnrichmentMode,
		"auto_summary", cfg.AutoSummary,
		"requirements", len(policy.Requirements),
	)
	ok = true
	return app, nil
}

func (a *App) openStore(ctx context.Context) (string, error) {
	switch a.Config.StoreBackend {
	case "memory":
		a.Store = memory.NewStore()
		return "memory", nil
	case "postgres", "auto", "":
	default:
		return "", fmt.Errorf("unknown store backend %q", a.Config.StoreBackend)
	}

	store, err := openPostgres(ctx, a.Config.PostgresDSN)
	if err != nil {
		if a.Config.StoreBackend == "postgres" {
			return "", err
		}
		a.Logger.Warn("storage_fallback", "backend", "memory", "error", err)
		a.Store = memory.NewStore()
		return "memory", nil
	}
	a.Store = store
	a.checks["postgres"] = store.Health
	a.closers = append(a.closers, func() { _ = store.Close() })
	return "postgres", nil
}

func openPostgres(ctx context.Context, dsn string) (*postgres.Store, error) {
	probeCtx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	db, err := postgres.OpenDB(probeCtx, dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := postgres.EnsureSchema(probeCtx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	return postgres.NewStore(db), nil
}

func (a *App) openEvents(ctx context.Context) (string, error) {
	cfg := a.Config
	switch cfg.EventTransport {
	case "memory":
		a.Events = eventsmemory.NewRecorder(a.Logger)
		return "memory", nil
	case "kafka":
		bus, err := eventskafka.New(ctx, cfg.KafkaBrokers, eventskafka.Options{
			ConsumerGroup:      cfg.KafkaConsumerGroup,
			ResilienceExecutor: a.Resilience,
			Logger:             a.Logger,
		})
		if err != nil {
			return "", fmt.Errorf("init kafka events: %w", err)
		}
		a.Events = bus
		a.closers = append(a.closers, bus.Close)
		return "kafka", nil
	case "nats", "auto", "":
	default:
		return "", fmt.Errorf("unknown event transport %q", cfg.EventTransport)
	}

	opts := eventsnats.Options{
		SubjectPrefix:      cfg.NATSSubjectPrefix,
		ResilienceExecutor: a.Resilience,
		Logger:             a.Logger,
	}
	if cfg.EventTransport != "nats" {
		noRetry := false
		opts.RetryOnFailedConnect = &noRetry
		opts.ConnectTimeout = probeTimeout
	}
	bus, err := eventsnats.New(cfg.NATSURL, opts)
	if err != nil {
		if cfg.EventTransport == "nats" {
			return "", fmt.Errorf("init nats events: %w", err)
		}
		a.Logger.Warn("events_fallback", "transport", "memory", "error", err)
		a.Events = eventsmemory.NewRecorder(a.Logger)
		return "memory", nil
	}
	a.Events = bus
	a.closers = append(a.closers, bus.Close)
	return "nats", nil
}

func (a *App) openReadiness(ctx context.Context) ports.ReadinessTracker {
	if a.Config.RedisURL == "" {
		return readinessmemory.NewTracker()
	}
	ttl := time.Duration(a.Config.ReadinessTTLSeconds) * time.Second
	tracker, err := readinessredis.New(ctx, a.Config.RedisURL, ttl)
	if err != nil {
		a.Logger.Warn("readiness_fallback", "backend", "memory", "error", err)
		return readinessmemory.NewTracker()
	}
	a.checks["redis"] = tracker.Health
	a.closers = append(a.closers, func() { _ = tracker.Close() })
	return tracker
}

// openEnricher returns a nil interface when enrichment is disabled.
func (a *App) openEnricher() (ports.Enricher, error) {
	switch a.Config.EnrichmentMode {
	case "none", "off":
		return nil, nil
	case "heuristic", "":
		return heuristic.NewEnricher(), nil
	case "ollama":
		client := ollama.New(a.Config.OllamaURL, a.Config.OllamaGenModel, ollama.Options{ResilienceExecutor: a.Resilience})
		return ollama.NewEnricher(client, chunking.NewSplitter(a.Config.EnrichChunkSize), a.Logger), nil
	default:
		return nil, fmt.Errorf("unknown enrichment mode %q", a.Config.EnrichmentMode)
	}
}

func (a *App) openProjector(ctx context.Context) *neo4j.Projector {
	if a.Config.Neo4jURI == "" {
		return nil
	}
	probeCtx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	projector, err := neo4j.New(probeCtx, a.Config.Neo4jURI, a.Config.Neo4jUser, a.Config.Neo4jPassword, a.Config.Neo4jDatabase)
	if err != nil {
		a.Logger.Warn("projection_disabled", "error", err)
		return nil
	}
	a.checks["neo4j"] = projector.Health
	a.closers = append(a.closers, func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), probeTimeout)
		defer cancel()
		_ = projector.Close(closeCtx)
	})
	return projector
}

// Health runs every backend check and joins the failures.
func (a *App) Health(ctx context.Context) error {
	var errs []error
	for name, check := range a.checks {
		if err := check(ctx); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}
	for name, state := range a.Resilience.States() {
		if state == "open" {
			errs = append(errs, fmt.Errorf("circuit %s is open", name))
		}
	}
	return errors.Join(errs...)
}

// Close releases backends in reverse order of opening.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
