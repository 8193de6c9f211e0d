package domain

import "time"

type ComplianceStatus string

const (
	StatusFullyCompliant     ComplianceStatus = "FULLY_COMPLIANT"
	StatusMostlyCompliant    ComplianceStatus = "MOSTLY_COMPLIANT"
	StatusPartiallyCompliant ComplianceStatus = "PARTIALLY_COMPLIANT"
	StatusNonCompliant       ComplianceStatus = "NON_COMPLIANT"
)

type RecommendationType string

const (
	RecommendationMissingDocument   RecommendationType = "MISSING_DOCUMENT"
	RecommendationCriticalIssues    RecommendationType = "CRITICAL_ISSUES"
	RecommendationOverallCompliance RecommendationType = "OVERALL_COMPLIANCE"
)

type Priority string

const (
	PriorityCritical Priority = "Critical"
	PriorityHigh     Priority = "High"
	PriorityMedium   Priority = "Medium"
)

type RequirementState string

const (
	RequirementSatisfied RequirementState = "SATISFIED"
	RequirementFailed    RequirementState = "FAILED"
	RequirementMissing   RequirementState = "MISSING"
)

type Recommendation struct {
	Type        RecommendationType `json:"type"`
	Priority    Priority           `json:"priority"`
	Title       string             `json:"title"`
	Description string             `json:"description"`
	Action      string             `json:"action"`
}

type DocumentOutcome struct {
	DocumentID string   `json:"document_id"`
	Filename   string   `json:"filename,omitempty"`
	IsValid    bool     `json:"is_valid"`
	Score      int      `json:"score"`
	Issues     []string `json:"issues"`
}

type DocumentAnalysis struct {
	TotalDocuments      int                                `json:"total_documents"`
	ValidDocuments      int                                `json:"valid_documents"`
	ValidationRate      float64                            `json:"validation_rate"`
	AverageScore        float64                            `json:"average_score"`
	DocumentsByType     map[DocumentType][]DocumentOutcome `json:"documents_by_type"`
	CriticalIssues      []string                           `json:"critical_issues"`
	MinorIssues         []string                           `json:"minor_issues"`
	RequiredDocCoverage float64                            `json:"required_documents_coverage"`
}

type RequirementStatus struct {
	DocumentType DocumentType     `json:"document_type"`
	Name         string           `json:"name"`
	Status       RequirementState `json:"status"`
	Submitted    int              `json:"submitted"`
	Valid        int              `json:"valid"`
	Priority     Priority         `json:"priority"`
}

type ComplianceSummary struct {
	CustomerID           string              `json:"customer_id"`
	Score                float64             `json:"compliance_score"`
	Status               ComplianceStatus    `json:"compliance_status"`
	MissingDocumentTypes []DocumentType      `json:"missing_document_types"`
	CriticalMissing      bool                `json:"critical_missing"`
	Recommendations      []Recommendation    `json:"recommendations"`
	NextSteps            []string            `json:"next_steps"`
	Analysis             DocumentAnalysis    `json:"document_analysis"`
	Requirements         []RequirementStatus `json:"requirements_status"`
	GeneratedAt          time.Time           `json:"generated_at"`
}
