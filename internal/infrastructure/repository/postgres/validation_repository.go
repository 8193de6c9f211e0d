package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/kirillkom/kyc-compliance/internal/core/domain"
)

// ValidationRepository is append-only.
type ValidationRepository struct {
	db *sql.DB
}

func NewValidationRepository(db *sql.DB) *ValidationRepository {
	return &ValidationRepository{db: db}
}

func (r *ValidationRepository) PutValidation(ctx context.Context, res domain.ValidationResult) error {
	issues, err := json.Marshal(nonNil(res.Issues))
	if err != nil {
		return fmt.Errorf("marshal issues: %w", err)
	}
	recommendations, err := json.Marshal(nonNil(res.Recommendations))
	if err != nil {
		return fmt.Errorf("marshal recommendations: %w", err)
	}
	details := res.Details
	if details == nil {
		details = map[string]any{}
	}
	detailsJSON, err := json.Marshal(details)
	if err != nil {
		return fmt.Errorf("marshal details: %w", err)
	}
	var enrichment []byte
	if res.Enrichment != nil {
		if enrichment, err = json.Marshal(res.Enrichment); err != nil {
			return fmt.Errorf("marshal enrichment: %w", err)
		}
	}

	_, err = r.db.ExecContext(ctx, `
INSERT INTO kyc_validations (
	id, document_id, customer_id, filename, document_type, confidence, score, is_valid,
	issues, recommendations, details, enrichment, validated_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
`,
		res.ID, res.DocumentID, res.CustomerID, res.Filename, string(res.DocumentType), res.Confidence, res.Score, res.IsValid,
		issues, recommendations, detailsJSON, enrichment, res.ValidatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert validation: %w", err)
	}
	return nil
}

func (r *ValidationRepository) ListValidations(ctx context.Context, customerID string) ([]domain.ValidationResult, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, document_id, customer_id, filename, document_type, confidence, score, is_valid,
	issues, recommendations, details, enrichment, validated_at
FROM kyc_validations
WHERE customer_id = $1
ORDER BY validated_at, id
`, customerID)
	if err != nil {
		return nil, fmt.Errorf("list validations: %w", err)
	}
	defer rows.Close()

	out := make([]domain.ValidationResult, 0)
	for rows.Next() {
		res, err := scanValidation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, res)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate validations: %w", err)
	}
	return out, nil
}

func scanValidation(row rowScanner) (domain.ValidationResult, error) {
	var res domain.ValidationResult
	var docType string
	var issues, recommendations, details, enrichment []byte

	if err := row.Scan(
		&res.ID, &res.DocumentID, &res.CustomerID, &res.Filename, &docType, &res.Confidence, &res.Score, &res.IsValid,
		&issues, &recommendations, &details, &enrichment, &res.ValidatedAt,
	); err != nil {
		return res, fmt.Errorf("scan validation: %w", err)
	}
	res.DocumentType = domain.DocumentType(docType)

	if err := json.Unmarshal(issues, &res.Issues); err != nil {
		return res, fmt.Errorf("unmarshal issues: %w", err)
	}
	if err := json.Unmarshal(recommendations, &res.Recommendations); err != nil {
		return res, fmt.Errorf("unmarshal recommendations: %w", err)
	}
	if err := json.Unmarshal(details, &res.Details); err != nil {
		return res, fmt.Errorf("unmarshal details: %w", err)
	}
	if len(enrichment) > 0 {
		res.Enrichment = &domain.Enrichment{}
		if err := json.Unmarshal(enrichment, res.Enrichment); err != nil {
			return res, fmt.Errorf("unmarshal enrichment: %w", err)
		}
	}
	return res, nil
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
