package memory

import (
	"context"
	"testing"

	"github.com/kirillkom/kyc-compliance/internal/core/domain"
)

func TestTrackerAccumulatesPerCustomer(t *testing.T) {
	tr := NewTracker()
	ctx := context.Background()

	_, _ = tr.MarkValidated(ctx, "A", domain.DocBankStatements)
	_, _ = tr.MarkValidated(ctx, "B", domain.DocTaxCertificate)
	got, err := tr.MarkValidated(ctx, "A", domain.DocCommercialRegistration)
	if err != nil {
		t.Fatalf("MarkValidated() error = %v", err)
	}
	if len(got) != 2 || got[0] != domain.DocCommercialRegistration || got[1] != domain.DocBankStatements {
		t.Fatalf("unexpected types: %v", got)
	}

	got, _ = tr.MarkValidated(ctx, "A", domain.DocBankStatements)
	if len(got) != 2 {
		t.Fatalf("re-validation must not duplicate: %v", got)
	}

	if err := tr.Reset(ctx, "A"); err != nil {
		t.Fatalf("Reset() error = %v", err)
	}
	got, _ = tr.MarkValidated(ctx, "A", domain.DocNationalID)
	if len(got) != 1 {
		t.Fatalf("Reset() did not clear: %v", got)
	}
}
