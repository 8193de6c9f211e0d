package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kirillkom/kyc-compliance/internal/core/compliance"
	"github.com/kirillkom/kyc-compliance/internal/core/domain"
)

type validateHarness struct {
	store     *storeFake
	events    *eventsFake
	enricher  *enricherFake
	readiness *readinessFake
	uc        *ValidateDocumentUseCase
}

func newValidateHarness() *validateHarness {
	h := &validateHarness{
		store:     newStoreFake(),
		events:    &eventsFake{},
		enricher:  &enricherFake{},
		readiness: &readinessFake{},
	}
	h.uc = NewValidateDocumentUseCase(h.store, h.store, compliance.DefaultPolicy(), h.enricher, h.events, h.readiness, nil)
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	h.uc.now = func() time.Time { return fixed }
	return h
}

func (h *validateHarness) addDocument(id, customerID, filename, text string) {
	h.store.docs[id] = domain.Document{ID: id, CustomerID: customerID, Filename: filename, Format: "txt", RawText: text}
}

func TestValidateByIDSuccess(t *testing.T) {
	h := newValidateHarness()
	h.addDocument("d1", "CUST1", "cr.txt", crText)

	outcome, err := h.uc.ValidateByID(context.Background(), "d1")
	if err != nil {
		t.Fatalf("ValidateByID() error = %v", err)
	}
	res := outcome.Result
	if res.DocumentType != domain.DocCommercialRegistration || res.Score != 100 || !res.IsValid {
		t.Fatalf("unexpected result: %+v", res)
	}
	if len(res.ID) != 26 {
		t.Fatalf("expected ULID id, got %q", res.ID)
	}
	if res.DocumentID != "d1" || res.CustomerID != "CUST1" || res.Filename != "cr.txt" {
		t.Fatalf("result not linked to document: %+v", res)
	}
	if res.Confidence != outcome.Classification.Confidence {
		t.Fatalf("result confidence must come from classification")
	}
	if res.Enrichment == nil || res.Enrichment.Method != "fake" {
		t.Fatalf("expected enrichment to be attached")
	}
	if len(h.store.validations) != 1 {
		t.Fatalf("expected one stored validation, got %d", len(h.store.validations))
	}
	if topics := h.events.topics(); len(topics) != 1 || topics[0] != domain.TopicKYCValidationCompleted {
		t.Fatalf("unexpected topics: %v", topics)
	}
	if got := h.events.events[0].payload["validation_score"]; got != 100 {
		t.Fatalf("unexpected payload score: %v", got)
	}
	if len(outcome.Warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", outcome.Warnings)
	}
}

func TestValidateByIDNotFound(t *testing.T) {
	h := newValidateHarness()
	_, err := h.uc.ValidateByID(context.Background(), "missing")
	if !errors.Is(err, domain.ErrDocumentNotFound) {
		t.Fatalf("expected ErrDocumentNotFound, got %v", err)
	}
}

func TestValidateEnrichmentDoesNotChangeVerdict(t *testing.T) {
	plain := NewValidateDocumentUseCase(newStoreFake(), newStoreFake(), compliance.DefaultPolicy(), nil, &eventsFake{}, nil, nil)
	doc := &domain.Document{ID: "d1", Filename: "bank.txt", RawText: "Bank Statement\naccount number not clearly visible\nClosing balance: 50,000 SAR"}

	enriched := newValidateHarness()
	a, err := plain.Validate(context.Background(), doc)
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	b, err := enriched.uc.Validate(context.Background(), doc)
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if a.Result.Score != b.Result.Score || a.Result.IsValid != b.Result.IsValid || len(a.Result.Issues) != len(b.Result.Issues) {
		t.Fatalf("enrichment changed the verdict: %+v vs %+v", a.Result, b.Result)
	}
	if a.Result.Enrichment != nil {
		t.Fatalf("no enricher must mean no enrichment")
	}
	if a.Result.IsValid {
		t.Fatalf("bank statement without account number must fail")
	}
}

func TestValidateCollaboratorFailuresStillReturnResult(t *testing.T) {
	h := newValidateHarness()
	h.store.putValErr = errBackendDown
	h.events.err = errBackendDown
	h.enricher.err = errBackendDown
	h.readiness.err = errBackendDown

	doc := &domain.Document{ID: "d1", CustomerID: "C", Filename: "id.txt", RawText: nidText}
	outcome, err := h.uc.Validate(context.Background(), doc)
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if outcome.Result.Score != 100 || outcome.Result.DocumentType != domain.DocNationalID {
		t.Fatalf("unexpected result: %+v", outcome.Result)
	}
	if outcome.Result.Enrichment != nil {
		t.Fatalf("failed enrichment must be dropped")
	}
	if len(outcome.Warnings) != 4 {
		t.Fatalf("expected 4 warnings, got %v", outcome.Warnings)
	}
}

func TestValidateTriggersAutoSummaryWhenAllTypesCovered(t *testing.T) {
	h := newValidateHarness()
	events := h.events
	summary := NewSummaryUseCase(h.store, h.store, compliance.DefaultPolicy(), events, nil, nil)
	h.uc.WithAutoSummary(summary)

	docs := []struct{ id, file, text string }{
		{"d1", "cr.txt", crText},
		{"d2", "national_id.txt", nidText},
		{"d3", "bank.txt", bankText},
		{"d4", "tax.txt", taxText},
	}
	var last *domain.ValidationOutcome
	for i, d := range docs {
		h.addDocument(d.id, "CUST1", d.file, d.text)
		outcome, err := h.uc.ValidateByID(context.Background(), d.id)
		if err != nil {
			t.Fatalf("ValidateByID(%s) error = %v", d.id, err)
		}
		if i < len(docs)-1 && outcome.Summary != nil {
			t.Fatalf("summary generated before all types were validated")
		}
		last = outcome
	}

	if last.Summary == nil {
		t.Fatalf("expected auto summary after the last required document")
	}
	if last.Summary.Status != domain.StatusFullyCompliant {
		t.Fatalf("unexpected status: %s (score %.2f)", last.Summary.Status, last.Summary.Score)
	}
	if _, ok := h.store.summaries["CUST1"]; !ok {
		t.Fatalf("summary not stored")
	}
	topics := events.topics()
	if topics[len(topics)-1] != domain.TopicComplianceSummaryGenerated {
		t.Fatalf("expected summary event last, got %v", topics)
	}
}

func TestValidateSkipsReadinessWithoutCustomer(t *testing.T) {
	h := newValidateHarness()
	h.uc.WithAutoSummary(NewSummaryUseCase(h.store, h.store, compliance.DefaultPolicy(), h.events, nil, nil))

	if _, err := h.uc.Validate(context.Background(), &domain.Document{ID: "d1", RawText: crText}); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if len(h.readiness.seen) != 0 {
		t.Fatalf("readiness must not be tracked for anonymous documents")
	}
}

func TestCovers(t *testing.T) {
	req := domain.SupportedDocumentTypes()
	if covers(req[:3], req) {
		t.Fatalf("three of four types must not cover")
	}
	if !covers(append(req, domain.DocUnknown), req) {
		t.Fatalf("extra types must not prevent coverage")
	}
	if covers(req, nil) {
		t.Fatalf("an empty requirement list never triggers")
	}
}

func TestValidateAutoSummaryUsesStoredResultsAfterRestart(t *testing.T) {
	h := newValidateHarness()
	h.uc.WithAutoSummary(NewSummaryUseCase(h.store, h.store, compliance.DefaultPolicy(), h.events, nil, nil))

	// results persisted by a previous process; the tracker starts empty
	validatedAt := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)
	for i, docType := range []domain.DocumentType{domain.DocCommercialRegistration, domain.DocNationalID, domain.DocBankStatements} {
		h.store.validations = append(h.store.validations, domain.ValidationResult{
			ID:           "01OLD" + string(rune('A'+i)),
			DocumentID:   "old-" + string(docType),
			CustomerID:   "CUST1",
			DocumentType: docType,
			Score:        100,
			IsValid:      true,
			ValidatedAt:  validatedAt,
		})
	}

	h.addDocument("d4", "CUST1", "tax.txt", taxText)
	outcome, err := h.uc.ValidateByID(context.Background(), "d4")
	if err != nil {
		t.Fatalf("ValidateByID() error = %v", err)
	}
	if outcome.Summary == nil {
		t.Fatalf("expected auto summary from stored results")
	}
	if outcome.Summary.Analysis.TotalDocuments != 4 {
		t.Fatalf("expected 4 documents in summary, got %d", outcome.Summary.Analysis.TotalDocuments)
	}
	if got := len(h.readiness.seen["CUST1"]); got != 4 {
		t.Fatalf("expected tracker seeded with 4 types, got %d", got)
	}
}

func TestValidateStoredResultsDoNotCompleteMissingTypes(t *testing.T) {
	h := newValidateHarness()
	h.uc.WithAutoSummary(NewSummaryUseCase(h.store, h.store, compliance.DefaultPolicy(), h.events, nil, nil))
	h.store.validations = append(h.store.validations, domain.ValidationResult{
		ID: "01OLDA", DocumentID: "old-cr", CustomerID: "CUST1", DocumentType: domain.DocCommercialRegistration, Score: 100, IsValid: true,
	})

	h.addDocument("d4", "CUST1", "tax.txt", taxText)
	outcome, err := h.uc.ValidateByID(context.Background(), "d4")
	if err != nil {
		t.Fatalf("ValidateByID() error = %v", err)
	}
	if outcome.Summary != nil {
		t.Fatalf("summary must wait for national id and bank statements")
	}
}
