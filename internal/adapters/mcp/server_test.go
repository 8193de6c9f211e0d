package mcpadapter

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/kirillkom/kyc-compliance/internal/core/compliance"
	"github.com/kirillkom/kyc-compliance/internal/core/domain"
	"github.com/kirillkom/kyc-compliance/internal/core/usecase"
)

type validatorFake struct{ err error }

func (f validatorFake) ValidateByID(_ context.Context, id string) (*domain.ValidationOutcome, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &domain.ValidationOutcome{Result: domain.ValidationResult{DocumentID: id, Score: 80, IsValid: true}}, nil
}

type summarizerFake struct{}

func (summarizerFake) Summarize(_ context.Context, customerID string) (*domain.SummaryOutcome, error) {
	return &domain.SummaryOutcome{Summary: domain.ComplianceSummary{CustomerID: customerID, Status: domain.StatusNonCompliant}}, nil
}

func (summarizerFake) GetSummary(_ context.Context, customerID string) (*domain.ComplianceSummary, error) {
	return nil, domain.WrapError(domain.ErrSummaryNotFound, "get summary", errors.New(customerID))
}

func newTestServer() *Server {
	return NewServer("kyc-test", "0.0.0", Deps{
		Analyzer:   usecase.NewAnalyzeUseCase(compliance.DefaultPolicy()),
		Validator:  validatorFake{},
		Summarizer: summarizerFake{},
	})
}

func call(args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	if len(res.Content) == 0 {
		t.Fatalf("empty tool result")
	}
	text, ok := res.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("unexpected content type %T", res.Content[0])
	}
	return text.Text
}

func TestClassifyDocumentTool(t *testing.T) {
	s := newTestServer()
	res, err := s.classifyDocument(context.Background(), call(map[string]any{
		"text":     "National ID... 1098765432 ... هوية وطنية ... identity card",
		"filename": "id.txt",
	}))
	if err != nil {
		t.Fatalf("classifyDocument() error = %v", err)
	}
	if res.IsError {
		t.Fatalf("unexpected tool error: %s", resultText(t, res))
	}

	var analysis domain.Analysis
	if err := json.Unmarshal([]byte(resultText(t, res)), &analysis); err != nil {
		t.Fatalf("decode analysis: %v", err)
	}
	if analysis.Classification.DocumentType != domain.DocNationalID || analysis.Result.Score != 100 {
		t.Fatalf("unexpected analysis: %+v", analysis)
	}
}

func TestClassifyDocumentRequiresText(t *testing.T) {
	res, err := newTestServer().classifyDocument(context.Background(), call(map[string]any{}))
	if err != nil {
		t.Fatalf("classifyDocument() error = %v", err)
	}
	if !res.IsError {
		t.Fatalf("expected tool error for missing text")
	}
}

func TestValidateDocumentToolSurfacesErrors(t *testing.T) {
	s := newTestServer()
	s.deps.Validator = validatorFake{err: domain.WrapError(domain.ErrDocumentNotFound, "get document", errors.New("abc"))}

	res, err := s.validateDocument(context.Background(), call(map[string]any{"document_id": "abc"}))
	if err != nil {
		t.Fatalf("validateDocument() error = %v", err)
	}
	if !res.IsError || !strings.Contains(resultText(t, res), "document not found") {
		t.Fatalf("expected not found tool error, got %+v", res)
	}
}

func TestComplianceSummaryTool(t *testing.T) {
	s := newTestServer()

	res, err := s.complianceSummary(context.Background(), call(map[string]any{"customer_id": "CUST1"}))
	if err != nil {
		t.Fatalf("complianceSummary() error = %v", err)
	}
	if !strings.HasPrefix(resultText(t, res), "SAMA COMPLIANCE SUMMARY - Customer CUST1") {
		t.Fatalf("unexpected summary text: %s", resultText(t, res))
	}

	res, err = s.complianceSummary(context.Background(), call(map[string]any{"customer_id": "CUST1", "cached": true}))
	if err != nil {
		t.Fatalf("complianceSummary() error = %v", err)
	}
	if !res.IsError {
		t.Fatalf("expected error when no summary is stored")
	}
}
