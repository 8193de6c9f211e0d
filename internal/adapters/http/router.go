package httpadapter

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/kirillkom/kyc-compliance/internal/core/ports"
	"github.com/kirillkom/kyc-compliance/internal/observability/metrics"
)

const serviceName = "kyc-api"

// Deps are the inbound ports served over HTTP. Ingestor is only needed when
// uploads are validated asynchronously.
type Deps struct {
	Pipeline   ports.DocumentPipeline
	Ingestor   ports.DocumentIngestor
	Validator  ports.DocumentValidator
	Summarizer ports.ComplianceSummarizer
	Reader     ports.DocumentReader
	Analyzer   ports.Analyzer
	Metrics    *metrics.HTTPServerMetrics
	Logger     *slog.Logger
	Health     func(ctx context.Context) error
}

type Options struct {
	AsyncValidation  bool
	MaxUploadBytes   int64
	RateLimitRPS     float64
	RateLimitBurst   int
	MaxInFlight      int
	BackpressureWait time.Duration
}

type Router struct {
	deps      Deps
	opts      Options
	validator *requestValidator
}

func NewRouter(deps Deps, opts Options) (*Router, error) {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Metrics == nil {
		deps.Metrics = metrics.NewHTTPServerMetrics(serviceName)
	}
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 10 << 20
	}
	if opts.BackpressureWait <= 0 {
		opts.BackpressureWait = 250 * time.Millisecond
	}
	validator, err := newRequestValidator()
	if err != nil {
		return nil, err
	}
	return &Router{deps: deps, opts: opts, validator: validator}, nil
}

func (rt *Router) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(accessLogMiddleware(rt.deps.Logger))
	r.Use(middleware.Recoverer)
	r.Use(rt.deps.Metrics.Middleware(serviceName))

	r.Get("/healthz", rt.healthz)
	r.Method(http.MethodGet, "/metrics", rt.deps.Metrics.Handler())
	r.Get("/openapi.yaml", rt.openAPI)

	r.Route("/v1", func(r chi.Router) {
		r.Use(rateLimitMiddleware(rt.opts.RateLimitRPS, rt.opts.RateLimitBurst))
		r.Use(func(next http.Handler) http.Handler {
			return backpressureMiddleware(next, rt.opts.MaxInFlight, rt.opts.BackpressureWait)
		})
		r.Use(rt.validator.middleware)

		r.Post("/documents", rt.uploadDocument)
		r.Get("/documents", rt.listDocuments)
		r.Get("/documents/{documentID}", rt.getDocument)
		r.Post("/documents/{documentID}/validate", rt.validateDocument)
		r.Post("/analyze", rt.analyze)

		r.Get("/customers/{customerID}/validations", rt.listValidations)
		r.Post("/customers/{customerID}/summary", rt.generateSummary)
		r.Get("/customers/{customerID}/summary", rt.getSummary)
		r.Get("/customers/{customerID}/summary/report.xlsx", rt.getSummaryReport)
	})
	return r
}

func (rt *Router) healthz(w http.ResponseWriter, r *http.Request) {
	if rt.deps.Health != nil {
		if err := rt.deps.Health(r.Context()); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded", "error": err.Error()})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (rt *Router) openAPI(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/yaml")
	_, _ = w.Write(openAPISpec)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, r *http.Request, status int, reason, message string) {
	writeJSON(w, status, map[string]string{
		"error":      message,
		"reason":     reason,
		"request_id": requestIDFromContext(r.Context()),
	})
}

func (rt *Router) writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	status := mapErrorToHTTPStatus(err)
	if status >= 500 {
		rt.deps.Logger.ErrorContext(r.Context(), "request_failed",
			"request_id", requestIDFromContext(r.Context()),
			"error", err,
		)
	}
	writeError(w, r, status, errorReason(err), err.Error())
}
