//go:build integration

package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/kirillkom/kyc-compliance/internal/core/domain"
)

func TestStoreAgainstPostgres(t *testing.T) {
	ctx := context.Background()
	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("kyc"),
		tcpostgres.WithUsername("kyc"),
		tcpostgres.WithPassword("kyc"),
		testcontainers.WithWaitStrategy(wait.ForLog("database system is ready to accept connections").WithOccurrence(2)),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("connection string: %v", err)
	}
	db, err := OpenDB(ctx, dsn)
	if err != nil {
		t.Fatalf("OpenDB() error = %v", err)
	}
	defer db.Close()
	if err := EnsureSchema(ctx, db); err != nil {
		t.Fatalf("EnsureSchema() error = %v", err)
	}
	if err := EnsureSchema(ctx, db); err != nil {
		t.Fatalf("EnsureSchema() second run error = %v", err)
	}

	store := NewStore(db)
	doc := &domain.Document{ID: "d1", CustomerID: "C", Filename: "cr.txt", Format: "txt", ByteLength: 2, RawText: "cr", CreatedAt: time.Now().UTC()}
	for i := 0; i < 2; i++ {
		if err := store.PutDocument(ctx, doc); err != nil {
			t.Fatalf("PutDocument() error = %v", err)
		}
	}
	docs, err := store.ListDocuments(ctx, "C")
	if err != nil || len(docs) != 1 {
		t.Fatalf("ListDocuments() = %v, %v", docs, err)
	}

	t0 := time.Now().UTC().Truncate(time.Microsecond)
	for i, score := range []int{40, 90} {
		res := domain.ValidationResult{
			ID: []string{"01A", "01B"}[i], DocumentID: "d1", CustomerID: "C",
			DocumentType: domain.DocCommercialRegistration, Score: score, IsValid: score >= 70,
			Details: map[string]any{"cr_number": "1234567890"}, ValidatedAt: t0.Add(time.Duration(i) * time.Second),
		}
		if err := store.PutValidation(ctx, res); err != nil {
			t.Fatalf("PutValidation() error = %v", err)
		}
	}
	results, err := store.ListValidations(ctx, "C")
	if err != nil || len(results) != 2 || results[1].Score != 90 {
		t.Fatalf("ListValidations() = %+v, %v", results, err)
	}

	summary := domain.ComplianceSummary{CustomerID: "C", Score: 90, Status: domain.StatusPartiallyCompliant, GeneratedAt: t0}
	if err := store.PutSummary(ctx, summary); err != nil {
		t.Fatalf("PutSummary() error = %v", err)
	}
	stale := summary
	stale.Score = 10
	stale.GeneratedAt = t0.Add(-time.Hour)
	if err := store.PutSummary(ctx, stale); err != nil {
		t.Fatalf("PutSummary() stale error = %v", err)
	}
	got, err := store.GetSummary(ctx, "C")
	if err != nil || got.Score != 90 {
		t.Fatalf("GetSummary() = %+v, %v", got, err)
	}
}
