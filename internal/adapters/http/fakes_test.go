package httpadapter

import (
	"context"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/kirillkom/kyc-compliance/internal/core/domain"
	"github.com/kirillkom/kyc-compliance/internal/core/ports"
)

const testDocID = "0123456789abcdef0123456789abcdef"

type pipelineFake struct {
	err     error
	lastReq ports.UploadRequest
	body    []byte
}

func (f *pipelineFake) Process(_ context.Context, req ports.UploadRequest) (*domain.ProcessOutcome, error) {
	if f.err != nil {
		return nil, f.err
	}
	raw, err := io.ReadAll(req.Body)
	if err != nil {
		return nil, err
	}
	f.lastReq, f.body = req, raw
	doc := &domain.Document{ID: testDocID, CustomerID: req.CustomerID, Filename: req.Filename, ByteLength: int64(len(raw))}
	return &domain.ProcessOutcome{
		Document: doc,
		Validation: &domain.ValidationOutcome{
			Classification: domain.Classification{DocumentType: domain.DocNationalID, Confidence: 0.7},
			Result:         domain.ValidationResult{DocumentID: doc.ID, DocumentType: domain.DocNationalID, Score: 100, IsValid: true},
		},
		Warnings: []string{"store document: backend down"},
	}, nil
}

type ingestorFake struct {
	err error
}

func (f ingestorFake) Upload(_ context.Context, req ports.UploadRequest) (*domain.Document, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &domain.Document{ID: testDocID, Filename: req.Filename, CustomerID: req.CustomerID}, nil
}

type validatorFake struct {
	err error
}

func (f validatorFake) ValidateByID(_ context.Context, id string) (*domain.ValidationOutcome, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &domain.ValidationOutcome{Result: domain.ValidationResult{DocumentID: id, DocumentType: domain.DocTaxCertificate, Score: 40}}, nil
}

type summarizerFake struct {
	summary *domain.ComplianceSummary
	err     error
}

func (f summarizerFake) Summarize(_ context.Context, customerID string) (*domain.SummaryOutcome, error) {
	if f.err != nil {
		return nil, f.err
	}
	s := *f.summary
	s.CustomerID = customerID
	return &domain.SummaryOutcome{Summary: s, Warnings: []string{"publish summary: nats down"}}, nil
}

func (f summarizerFake) GetSummary(_ context.Context, customerID string) (*domain.ComplianceSummary, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.summary == nil {
		return nil, domain.WrapError(domain.ErrSummaryNotFound, "get summary", io.EOF)
	}
	s := *f.summary
	s.CustomerID = customerID
	return &s, nil
}

type readerFake struct {
	err error
}

func (f readerFake) GetDocument(_ context.Context, id string) (*domain.Document, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &domain.Document{ID: id, Filename: "cr.txt", CreatedAt: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}, nil
}

func (f readerFake) ListDocuments(_ context.Context, customerID string) ([]domain.Document, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []domain.Document{{ID: testDocID, CustomerID: customerID}}, nil
}

func (f readerFake) ListValidations(_ context.Context, customerID string) ([]domain.ValidationResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []domain.ValidationResult{{DocumentID: testDocID, CustomerID: customerID, Score: 90}}, nil
}

type analyzerFake struct{}

func (analyzerFake) Analyze(filename, text string) domain.Analysis {
	return domain.Analysis{
		Classification: domain.Classification{DocumentType: domain.DocUnknown},
		Result:         domain.ValidationResult{Filename: filename, Issues: []string{"Unknown document type: unknown"}},
	}
}

func testSummary() *domain.ComplianceSummary {
	return &domain.ComplianceSummary{
		CustomerID: "CUST1",
		Score:      88.125,
		Status:     domain.StatusMostlyCompliant,
		Requirements: []domain.RequirementStatus{
			{DocumentType: domain.DocTaxCertificate, Name: "Tax Registration Certificate", Status: domain.RequirementMissing, Priority: domain.PriorityHigh},
		},
		MissingDocumentTypes: []domain.DocumentType{domain.DocTaxCertificate},
	}
}

func testDeps() Deps {
	return Deps{
		Pipeline:   &pipelineFake{},
		Ingestor:   ingestorFake{},
		Validator:  validatorFake{},
		Summarizer: summarizerFake{summary: testSummary()},
		Reader:     readerFake{},
		Analyzer:   analyzerFake{},
	}
}

func newTestHandler(t *testing.T, deps Deps, opts Options) http.Handler {
	t.Helper()
	router, err := NewRouter(deps, opts)
	if err != nil {
		t.Fatalf("NewRouter() error = %v", err)
	}
	return router.Handler()
}
