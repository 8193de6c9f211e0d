package neo4j

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/kirillkom/kyc-compliance/internal/core/domain"
)

func testSummary() domain.ComplianceSummary {
	return domain.ComplianceSummary{
		CustomerID: "CUST1",
		Score:      88.125,
		Status:     domain.StatusMostlyCompliant,
		Requirements: []domain.RequirementStatus{
			{DocumentType: domain.DocCommercialRegistration, Name: "Commercial Registration", Status: domain.RequirementSatisfied, Submitted: 1, Valid: 1, Priority: domain.PriorityCritical},
			{DocumentType: domain.DocTaxCertificate, Name: "Tax Registration Certificate", Status: domain.RequirementMissing, Priority: domain.PriorityHigh},
		},
		GeneratedAt: time.Date(2026, 10, 14, 9, 0, 0, 0, time.UTC),
	}
}

func TestProjectSendsSummaryParams(t *testing.T) {
	var gotCypher string
	var gotParams map[string]any
	p := &Projector{run: func(_ context.Context, cypher string, params map[string]any) error {
		gotCypher, gotParams = cypher, params
		return nil
	}}

	if err := p.Project(context.Background(), testSummary()); err != nil {
		t.Fatalf("Project() error = %v", err)
	}
	if !strings.Contains(gotCypher, "MERGE (c:Customer {id: $customer_id})") {
		t.Fatalf("unexpected cypher: %s", gotCypher)
	}
	if gotParams["customer_id"] != "CUST1" || gotParams["status"] != "MOSTLY_COMPLIANT" {
		t.Fatalf("unexpected params: %v", gotParams)
	}
	if gotParams["generated_at"] != "2026-10-14T09:00:00Z" {
		t.Fatalf("unexpected generated_at: %v", gotParams["generated_at"])
	}
	reqs := gotParams["requirements"].([]any)
	if len(reqs) != 2 {
		t.Fatalf("expected 2 requirements, got %d", len(reqs))
	}
	first := reqs[0].(map[string]any)
	if first["document_type"] != "commercial_registration" || first["valid"] != int64(1) {
		t.Fatalf("unexpected requirement params: %v", first)
	}
}

func TestProjectWrapsDriverErrorsAsTemporary(t *testing.T) {
	p := &Projector{run: func(context.Context, string, map[string]any) error {
		return errors.New("connection refused")
	}}
	err := p.Project(context.Background(), testSummary())
	if !domain.IsKind(err, domain.ErrTemporary) {
		t.Fatalf("expected temporary error, got %v", err)
	}
	if err := p.Close(context.Background()); err != nil {
		t.Fatalf("Close() without driver error = %v", err)
	}
}
