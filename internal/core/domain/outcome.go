package domain

// Analysis is the persistence-free classify and validate result.
type Analysis struct {
	Classification Classification   `json:"classification"`
	Result         ValidationResult `json:"validation"`
}

// ValidationOutcome carries a computed result plus any collaborator warnings.
type ValidationOutcome struct {
	Classification Classification     `json:"classification"`
	Result         ValidationResult   `json:"validation"`
	Summary        *ComplianceSummary `json:"summary,omitempty"`
	Warnings       []string           `json:"warnings,omitempty"`
}

type SummaryOutcome struct {
	Summary  ComplianceSummary `json:"summary"`
	Warnings []string          `json:"warnings,omitempty"`
}

type ProcessOutcome struct {
	Document   *Document          `json:"document"`
	Validation *ValidationOutcome `json:"validation,omitempty"`
	Warnings   []string           `json:"warnings,omitempty"`
}
