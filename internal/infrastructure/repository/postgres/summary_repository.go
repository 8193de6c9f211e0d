package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/kirillkom/kyc-compliance/internal/core/domain"
)

// SummaryRepository keeps one row per customer; newer summaries replace older ones.
type SummaryRepository struct {
	db *sql.DB
}

func NewSummaryRepository(db *sql.DB) *SummaryRepository {
	return &SummaryRepository{db: db}
}

func (r *SummaryRepository) PutSummary(ctx context.Context, summary domain.ComplianceSummary) error {
	body, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("marshal summary: %w", err)
	}
	_, err = r.db.ExecContext(ctx, `
INSERT INTO kyc_summaries (customer_id, score, status, body, generated_at)
VALUES ($1,$2,$3,$4,$5)
ON CONFLICT (customer_id) DO UPDATE
SET score = EXCLUDED.score, status = EXCLUDED.status, body = EXCLUDED.body, generated_at = EXCLUDED.generated_at
WHERE kyc_summaries.generated_at <= EXCLUDED.generated_at
`, summary.CustomerID, summary.Score, string(summary.Status), body, summary.GeneratedAt)
	if err != nil {
		return fmt.Errorf("upsert summary: %w", err)
	}
	return nil
}

func (r *SummaryRepository) GetSummary(ctx context.Context, customerID string) (*domain.ComplianceSummary, error) {
	var body []byte
	err := r.db.QueryRowContext(ctx, `SELECT body FROM kyc_summaries WHERE customer_id = $1`, customerID).Scan(&body)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrSummaryNotFound, "get summary", fmt.Errorf("customer_id=%s", customerID))
		}
		return nil, fmt.Errorf("scan summary: %w", err)
	}
	var summary domain.ComplianceSummary
	if err := json.Unmarshal(body, &summary); err != nil {
		return nil, fmt.Errorf("unmarshal summary: %w", err)
	}
	return &summary, nil
}
