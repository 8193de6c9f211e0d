package ollama

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/kirillkom/kyc-compliance/internal/core/domain"
	"github.com/kirillkom/kyc-compliance/internal/core/ports"
	"github.com/kirillkom/kyc-compliance/internal/infrastructure/chunking"
	"github.com/kirillkom/kyc-compliance/internal/infrastructure/enrichment/heuristic"
	"github.com/kirillkom/kyc-compliance/internal/infrastructure/resilience"
)

const Method = "ollama"

type Client struct {
	baseURL    string
	genModel   string
	httpClient *http.Client
	executor   *resilience.Executor
}

type Options struct {
	Timeout            time.Duration
	ResilienceExecutor *resilience.Executor
}

func New(baseURL, genModel string, opts Options) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		genModel:   genModel,
		httpClient: &http.Client{Timeout: timeout},
		executor:   opts.ResilienceExecutor,
	}
}

// Enricher runs the heuristic enrichment and adds a model-written review of
// the first text chunk. A failed model call leaves the heuristic result intact.
type Enricher struct {
	client   *Client
	base     *heuristic.Enricher
	splitter *chunking.Splitter
	logger   *slog.Logger
}

func NewEnricher(client *Client, splitter *chunking.Splitter, logger *slog.Logger) *Enricher {
	if splitter == nil {
		splitter = chunking.NewSplitter(0)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Enricher{
		client:   client,
		base:     heuristic.NewEnricher(),
		splitter: splitter,
		logger:   logger,
	}
}

type review struct {
	Summary      string   `json:"summary"`
	QualityScore *float64 `json:"quality_score"`
	Insights     []string `json:"insights"`
}

func (e *Enricher) Enrich(ctx context.Context, req ports.EnrichmentRequest) (*domain.Enrichment, error) {
	out, err := e.base.Enrich(ctx, req)
	if err != nil {
		return nil, err
	}
	if req.Document == nil || strings.TrimSpace(req.Document.RawText) == "" {
		return out, nil
	}

	prompt := buildReviewPrompt(req.Classification.DocumentType, req.Result, e.splitter.First(req.Document.RawText))
	respText, err := e.client.generateJSON(ctx, prompt)
	if err != nil {
		e.logger.WarnContext(ctx, "ollama_enrichment_failed",
			"document_id", req.Document.ID,
			"error", err,
		)
		return out, nil
	}

	var parsed review
	if err := json.Unmarshal([]byte(extractJSONObject(respText)), &parsed); err != nil {
		e.logger.WarnContext(ctx, "ollama_enrichment_unparsable",
			"document_id", req.Document.ID,
			"error", fmt.Errorf("parse review json: %w", err),
		)
		return out, nil
	}

	out.Method = Method
	out.ModelSummary = strings.TrimSpace(parsed.Summary)
	if parsed.QualityScore != nil && *parsed.QualityScore >= 0 && *parsed.QualityScore <= 1 {
		out.QualityScore = (out.QualityScore + *parsed.QualityScore) / 2
	}
	for _, insight := range parsed.Insights {
		if insight = strings.TrimSpace(insight); insight != "" {
			out.Insights = append(out.Insights, insight)
		}
	}
	return out, nil
}

func (c *Client) generateJSON(ctx context.Context, prompt string) (string, error) {
	reqBody := map[string]any{
		"model":  c.genModel,
		"prompt": prompt,
		"stream": false,
		"format": "json",
	}
	return c.generate(ctx, reqBody)
}

func (c *Client) generate(ctx context.Context, reqBody map[string]any) (string, error) {
	var response struct {
		Response string `json:"response"`
	}
	if err := c.postJSON(ctx, "/api/generate", reqBody, &response, "generate"); err != nil {
		return "", err
	}
	return strings.TrimSpace(response.Response), nil
}

func extractJSONObject(raw string) string {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start >= 0 && end > start {
		return raw[start : end+1]
	}
	return raw
}
