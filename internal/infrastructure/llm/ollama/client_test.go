package ollama

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/kirillkom/kyc-compliance/internal/core/domain"
	"github.com/kirillkom/kyc-compliance/internal/core/ports"
	"github.com/kirillkom/kyc-compliance/internal/infrastructure/chunking"
	"github.com/kirillkom/kyc-compliance/internal/infrastructure/enrichment/heuristic"
	"github.com/kirillkom/kyc-compliance/internal/infrastructure/resilience"
)

const crText = "Commercial Registration Certificate\nCR Number: 1234567890\nIssued 2024-01-15\nRiyadh, Saudi Arabia"

func request(text string) ports.EnrichmentRequest {
	return ports.EnrichmentRequest{
		Document:       &domain.Document{ID: "doc-1", RawText: text},
		Classification: domain.Classification{DocumentType: domain.DocCommercialRegistration},
		Result:         domain.ValidationResult{Score: 75, Issues: []string{"Document jurisdiction unclear - should be from Saudi Arabia"}},
	}
}

func TestEnricherBuildsPromptFromFirstChunk(t *testing.T) {
	var capturedPrompt string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			http.NotFound(w, r)
			return
		}
		var payload map[string]any
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if payload["format"] != "json" {
			t.Errorf("expected json format, got %v", payload["format"])
		}
		capturedPrompt, _ = payload["prompt"].(string)
		_, _ = w.Write([]byte(`{"response":"Here you go: {\"summary\":\"Valid CR.\",\"quality_score\":0.6,\"insights\":[\"Issuer looks official\"]}"}`))
	}))
	defer server.Close()

	text := crText + strings.Repeat(" trailing", 40)
	enricher := NewEnricher(New(server.URL, "gen", Options{}), chunking.NewSplitter(len(crText)), nil)
	got, err := enricher.Enrich(context.Background(), request(text))
	if err != nil {
		t.Fatalf("Enrich() error = %v", err)
	}
	if !strings.Contains(capturedPrompt, "CR Number: 1234567890") || strings.Contains(capturedPrompt, "trailing") {
		t.Fatalf("expected only the first chunk in prompt: %s", capturedPrompt)
	}
	if !strings.Contains(capturedPrompt, "score 75/100") || !strings.Contains(capturedPrompt, "jurisdiction unclear") {
		t.Fatalf("expected validation context in prompt: %s", capturedPrompt)
	}
	if got.Method != Method || got.ModelSummary != "Valid CR." {
		t.Fatalf("unexpected enrichment: %+v", got)
	}
	base := heuristic.Quality(text)
	if want := (base + 0.6) / 2; got.QualityScore != want {
		t.Fatalf("quality = %v, want %v", got.QualityScore, want)
	}
	if got.Insights[len(got.Insights)-1] != "Issuer looks official" {
		t.Fatalf("model insight not appended: %v", got.Insights)
	}
}

func TestEnricherFallsBackToHeuristicOnFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model unavailable", http.StatusBadRequest)
	}))
	defer server.Close()

	enricher := NewEnricher(New(server.URL, "gen", Options{}), nil, nil)
	got, err := enricher.Enrich(context.Background(), request(crText))
	if err != nil {
		t.Fatalf("Enrich() error = %v", err)
	}
	if got.Method != heuristic.Method || got.ModelSummary != "" {
		t.Fatalf("expected heuristic-only enrichment, got %+v", got)
	}
}

func TestPostJSONIncludesHTTPBodyInError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model unavailable", http.StatusBadGateway)
	}))
	defer server.Close()

	_, err := New(server.URL, "gen", Options{}).generateJSON(context.Background(), "hello")
	if err == nil {
		t.Fatalf("expected error")
	}
	if !strings.Contains(err.Error(), "model unavailable") {
		t.Fatalf("expected response body in error, got %v", err)
	}
	if !domain.IsKind(err, domain.ErrTemporary) {
		t.Fatalf("expected 502 to be temporary, got %v", err)
	}
	var statusErr *HTTPStatusError
	if !errors.As(err, &statusErr) || statusErr.StatusCode != http.StatusBadGateway {
		t.Fatalf("expected HTTPStatusError, got %v", err)
	}
}

func TestPostJSONRetriesRetryableStatus(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			http.Error(w, "busy", http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"response":"{}"}`))
	}))
	defer server.Close()

	policy := resilience.DefaultPolicy()
	policy.Retry.MaxAttempts = 3
	policy.Retry.InitialBackoff = time.Millisecond
	policy.Retry.MaxBackoff = time.Millisecond
	executor := resilience.NewExecutor(policy, nil)

	if _, err := New(server.URL, "gen", Options{ResilienceExecutor: executor}).generateJSON(context.Background(), "hi"); err != nil {
		t.Fatalf("generateJSON() error = %v", err)
	}
	if calls.Load() != 2 {
		t.Fatalf("expected one retry, got %d calls", calls.Load())
	}
}

func TestClassifyOllamaError(t *testing.T) {
	if got := classifyOllamaError(&HTTPStatusError{StatusCode: http.StatusBadRequest}); got.Retry || got.CountFailure {
		t.Fatalf("4xx must not retry or count: %+v", got)
	}
	if got := classifyOllamaError(&HTTPStatusError{StatusCode: http.StatusTooManyRequests}); !got.Retry {
		t.Fatalf("429 must retry: %+v", got)
	}
	if got := classifyOllamaError(context.Canceled); got.Retry || got.CountFailure {
		t.Fatalf("cancellation must not retry or count: %+v", got)
	}
}
