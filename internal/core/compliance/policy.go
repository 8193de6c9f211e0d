package compliance

import "github.com/kirillkom/kyc-compliance/internal/core/domain"

// Requirement describes one document type an applicant must submit.
type Requirement struct {
	DocumentType domain.DocumentType `yaml:"document_type" validate:"required"`
	Name         string              `yaml:"name" validate:"required"`
	Priority     domain.Priority     `yaml:"priority" validate:"required,oneof=Critical High Medium"`
	Description  string              `yaml:"description"`
}

type StatusThresholds struct {
	Fully   float64 `yaml:"fully" validate:"gte=0,lte=100"`
	Mostly  float64 `yaml:"mostly" validate:"gte=0,lte=100"`
	Partial float64 `yaml:"partial" validate:"gte=0,lte=100"`
}

// Policy holds every tunable used by the rule engine and the aggregator.
type Policy struct {
	PassThreshold        int                                  `yaml:"pass_threshold" validate:"gt=0,lte=100"`
	ImprovementThreshold float64                              `yaml:"improvement_threshold" validate:"gte=0,lte=100"`
	Status               StatusThresholds                     `yaml:"status_thresholds"`
	Weights              map[domain.DocumentType]float64      `yaml:"weights" validate:"dive,gt=0"`
	DefaultWeight        float64                              `yaml:"default_weight" validate:"gt=0"`
	Requirements         []Requirement                        `yaml:"requirements" validate:"dive"`
	CriticalTypes        []domain.DocumentType                `yaml:"critical_types"`
	CriticalIssueMarkers []string                             `yaml:"critical_issue_markers"`
	NextSteps            map[domain.ComplianceStatus][]string `yaml:"next_steps"`
}

func DefaultPolicy() Policy {
	return Policy{
		PassThreshold:        70,
		ImprovementThreshold: 70,
		Status: StatusThresholds{
			Fully:   90,
			Mostly:  75,
			Partial: 60,
		},
		Weights: map[domain.DocumentType]float64{
			domain.DocCommercialRegistration: 0.3,
			domain.DocNationalID:             0.3,
			domain.DocBankStatements:         0.2,
			domain.DocTaxCertificate:         0.2,
		},
		DefaultWeight: 0.1,
		Requirements: []Requirement{
			{
				DocumentType: domain.DocCommercialRegistration,
				Name:         "Commercial Registration Certificate",
				Priority:     domain.PriorityCritical,
				Description:  "Official business registration from Ministry of Commerce",
			},
			{
				DocumentType: domain.DocNationalID,
				Name:         "National ID of Authorized Signatory",
				Priority:     domain.PriorityCritical,
				Description:  "Valid Saudi National Identity Card",
			},
			{
				DocumentType: domain.DocBankStatements,
				Name:         "Bank Statements",
				Priority:     domain.PriorityHigh,
				Description:  "Recent bank statements showing business activity",
			},
			{
				DocumentType: domain.DocTaxCertificate,
				Name:         "Tax Registration Certificate",
				Priority:     domain.PriorityHigh,
				Description:  "VAT registration certificate from ZATCA",
			},
		},
		CriticalTypes:        []domain.DocumentType{domain.DocCommercialRegistration, domain.DocNationalID},
		CriticalIssueMarkers: []string{"number not found", "not detected", "not found"},
		NextSteps: map[domain.ComplianceStatus][]string{
			domain.StatusFullyCompliant: {
				"Auto-approve for account opening",
				"Send welcome package to customer",
				"Schedule account setup call",
				"Generate compliance certificate",
			},
			domain.StatusMostlyCompliant: {
				"Route to compliance officer for review",
				"Schedule verification call with customer",
				"Prepare conditional approval",
				"Request minor document corrections",
			},
			domain.StatusPartiallyCompliant: {
				"Request missing documents",
				"Schedule enhanced due diligence review",
				"Contact customer for clarification",
				"Hold application pending improvements",
			},
			domain.StatusNonCompliant: {
				"Reject application with detailed feedback",
				"Send rejection letter with requirements",
				"Provide improvement roadmap",
				"Offer consultation call",
			},
		},
	}
}

// WeightFor returns the aggregation weight of a document type.
func (p Policy) WeightFor(t domain.DocumentType) float64 {
	if w, ok := p.Weights[t]; ok {
		return w
	}
	return p.DefaultWeight
}

func (p Policy) RequirementFor(t domain.DocumentType) (Requirement, bool) {
	for _, req := range p.Requirements {
		if req.DocumentType == t {
			return req, true
		}
	}
	return Requirement{}, false
}

func (p Policy) IsCritical(t domain.DocumentType) bool {
	for _, c := range p.CriticalTypes {
		if c == t {
			return true
		}
	}
	return false
}
