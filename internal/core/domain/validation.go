package domain

import "time"

// ValidationResult is the outcome of one rule-engine run over one document.
// IsValid is always derived from Score by the engine that produced it.
type ValidationResult struct {
	ID              string         `json:"id"`
	DocumentID      string         `json:"document_id"`
	CustomerID      string         `json:"customer_id,omitempty"`
	Filename        string         `json:"filename,omitempty"`
	DocumentType    DocumentType   `json:"document_type"`
	Confidence      float64        `json:"confidence"`
	Score           int            `json:"validation_score"`
	IsValid         bool           `json:"is_valid"`
	Issues          []string       `json:"issues"`
	Recommendations []string       `json:"recommendations"`
	Details         map[string]any `json:"validation_details"`
	ValidatedAt     time.Time      `json:"validated_at"`
	Enrichment      *Enrichment    `json:"enrichment,omitempty"`
}

// Enrichment carries optional metadata that never influences scoring.
type Enrichment struct {
	Method       string         `json:"method"`
	QualityScore float64        `json:"quality_score"`
	Metadata     map[string]any `json:"metadata,omitempty"`
	Insights     []string       `json:"insights,omitempty"`
	ModelSummary string         `json:"model_summary,omitempty"`
}
