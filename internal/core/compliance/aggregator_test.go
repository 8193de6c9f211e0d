package compliance

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/kirillkom/kyc-compliance/internal/core/domain"
)

type AggregatorSuite struct {
	suite.Suite
	policy Policy
	agg    *Aggregator
}

func TestAggregatorSuite(t *testing.T) {
	suite.Run(t, new(AggregatorSuite))
}

func (s *AggregatorSuite) SetupTest() {
	s.policy = DefaultPolicy()
	s.agg = NewAggregator(s.policy)
}

func result(docType domain.DocumentType, score int, issues ...string) domain.ValidationResult {
	return domain.ValidationResult{
		DocumentID:   string(docType) + "-doc",
		DocumentType: docType,
		Score:        score,
		IsValid:      score >= 70,
		Issues:       issues,
	}
}

func (s *AggregatorSuite) TestEmptyResultSet() {
	summary := s.agg.Aggregate("CUST1", nil)
	s.Equal(0.0, summary.Score)
	s.Equal(domain.StatusNonCompliant, summary.Status)
	s.True(summary.CriticalMissing)
	s.Len(summary.MissingDocumentTypes, 4)
	s.Equal(s.policy.NextSteps[domain.StatusNonCompliant], summary.NextSteps)
	s.Equal(0, summary.Analysis.TotalDocuments)
	s.Equal(0.0, summary.Analysis.ValidationRate)
}

func (s *AggregatorSuite) TestWeightedScoreScenario() {
	results := []domain.ValidationResult{
		result(domain.DocCommercialRegistration, 95),
		result(domain.DocNationalID, 100),
		result(domain.DocBankStatements, 60, "Account number not clearly visible"),
	}

	summary := s.agg.Aggregate("CUST1", results)
	s.InDelta(88.125, summary.Score, 1e-9)
	s.Equal([]domain.DocumentType{domain.DocTaxCertificate}, summary.MissingDocumentTypes)
	s.False(summary.CriticalMissing)
	s.Equal(domain.StatusMostlyCompliant, summary.Status)

	s.Require().Len(summary.Recommendations, 1)
	rec := summary.Recommendations[0]
	s.Equal(domain.RecommendationMissingDocument, rec.Type)
	s.Equal(domain.PriorityHigh, rec.Priority)
	s.Equal("Submit Tax Registration Certificate", rec.Title)
	s.Equal("VAT registration certificate from ZATCA", rec.Description)
	s.Equal("Upload valid Tax Registration Certificate", rec.Action)
}

func (s *AggregatorSuite) TestCriticalMissingCapsStatus() {
	results := []domain.ValidationResult{
		result(domain.DocCommercialRegistration, 100),
		result(domain.DocBankStatements, 100),
		result(domain.DocTaxCertificate, 100),
	}

	summary := s.agg.Aggregate("CUST1", results)
	s.InDelta(100.0, summary.Score, 1e-9)
	s.True(summary.CriticalMissing)
	s.Equal(domain.StatusPartiallyCompliant, summary.Status)
	s.Equal(domain.PriorityCritical, summary.Recommendations[0].Priority)
}

func (s *AggregatorSuite) TestStatusThresholds() {
	full := []domain.ValidationResult{
		result(domain.DocCommercialRegistration, 95),
		result(domain.DocNationalID, 95),
		result(domain.DocBankStatements, 95),
		result(domain.DocTaxCertificate, 95),
	}
	s.Equal(domain.StatusFullyCompliant, s.agg.Aggregate("c", full).Status)

	mostly := []domain.ValidationResult{
		result(domain.DocCommercialRegistration, 80),
		result(domain.DocNationalID, 80),
	}
	s.Equal(domain.StatusMostlyCompliant, s.agg.Aggregate("c", mostly).Status)

	partial := []domain.ValidationResult{
		result(domain.DocCommercialRegistration, 65),
		result(domain.DocNationalID, 65),
	}
	s.Equal(domain.StatusPartiallyCompliant, s.agg.Aggregate("c", partial).Status)

	non := []domain.ValidationResult{
		result(domain.DocCommercialRegistration, 55),
		result(domain.DocNationalID, 55),
	}
	s.Equal(domain.StatusNonCompliant, s.agg.Aggregate("c", non).Status)
}

func (s *AggregatorSuite) TestUnknownTypesUseDefaultWeight() {
	results := []domain.ValidationResult{
		result(domain.DocCommercialRegistration, 100),
		result(domain.DocUnknown, 0, "Unknown document type: unknown"),
	}
	summary := s.agg.Aggregate("c", results)
	s.InDelta(30.0/0.4, summary.Score, 1e-9)
}

func (s *AggregatorSuite) TestCriticalIssuesRecommendation() {
	results := []domain.ValidationResult{
		result(domain.DocCommercialRegistration, 70, "Commercial Registration number (10 digits) not found"),
		result(domain.DocNationalID, 60, "Arabic text not detected - may not be official Saudi document", "Identity document keywords not found"),
		result(domain.DocBankStatements, 65, "Company name or business entity indicators not clear"),
		result(domain.DocTaxCertificate, 100),
	}

	summary := s.agg.Aggregate("c", results)
	s.Len(summary.Analysis.CriticalIssues, 3)
	s.Equal([]string{"Company name or business entity indicators not clear"}, summary.Analysis.MinorIssues)

	var critical *domain.Recommendation
	for i := range summary.Recommendations {
		if summary.Recommendations[i].Type == domain.RecommendationCriticalIssues {
			critical = &summary.Recommendations[i]
		}
	}
	s.Require().NotNil(critical)
	s.Equal("Resolve 3 critical issues", critical.Title)
	s.Equal(domain.PriorityCritical, critical.Priority)
}

func (s *AggregatorSuite) TestLowScoreAddsImprovementRecommendation() {
	results := []domain.ValidationResult{
		result(domain.DocCommercialRegistration, 50),
		result(domain.DocNationalID, 50),
		result(domain.DocBankStatements, 50),
		result(domain.DocTaxCertificate, 50),
	}
	summary := s.agg.Aggregate("c", results)
	s.Require().Len(summary.Recommendations, 1)
	s.Equal(domain.RecommendationOverallCompliance, summary.Recommendations[0].Type)
	s.Equal("Current score: 50.0/100", summary.Recommendations[0].Description)
}

func (s *AggregatorSuite) TestRequirementStatusAndAnalysis() {
	results := []domain.ValidationResult{
		result(domain.DocCommercialRegistration, 100),
		result(domain.DocNationalID, 40),
		result(domain.DocNationalID, 80),
		result(domain.DocBankStatements, 30),
	}
	summary := s.agg.Aggregate("c", results)

	want := map[domain.DocumentType]domain.RequirementState{
		domain.DocCommercialRegistration: domain.RequirementSatisfied,
		domain.DocNationalID:             domain.RequirementSatisfied,
		domain.DocBankStatements:         domain.RequirementFailed,
		domain.DocTaxCertificate:         domain.RequirementMissing,
	}
	s.Require().Len(summary.Requirements, 4)
	for _, req := range summary.Requirements {
		s.Equal(want[req.DocumentType], req.Status, "requirement %s", req.DocumentType)
	}
	s.Equal(2, summary.Requirements[1].Submitted)
	s.Equal(1, summary.Requirements[1].Valid)

	s.Equal(4, summary.Analysis.TotalDocuments)
	s.Equal(2, summary.Analysis.ValidDocuments)
	s.InDelta(0.5, summary.Analysis.ValidationRate, 1e-9)
	s.InDelta(62.5, summary.Analysis.AverageScore, 1e-9)
	s.InDelta(0.75, summary.Analysis.RequiredDocCoverage, 1e-9)
}

func TestAggregateMonotonicInRequiredDocuments(t *testing.T) {
	agg := NewAggregator(DefaultPolicy())
	base := []domain.ValidationResult{
		result(domain.DocCommercialRegistration, 80),
		result(domain.DocBankStatements, 40),
	}

	for _, docType := range domain.SupportedDocumentTypes() {
		before := agg.Aggregate("c", base)
		after := agg.Aggregate("c", append(append([]domain.ValidationResult{}, base...), result(docType, 100)))

		assert.GreaterOrEqual(t, after.Score, before.Score, "adding %s", docType)
		assert.NotContains(t, after.MissingDocumentTypes, docType)
	}
}

func TestAggregateWithCustomPolicy(t *testing.T) {
	policy := DefaultPolicy()
	policy.Status.Mostly = 50
	policy.CriticalTypes = nil

	summary := NewAggregator(policy).Aggregate("c", []domain.ValidationResult{result(domain.DocBankStatements, 55)})
	assert.False(t, summary.CriticalMissing)
	assert.Equal(t, domain.StatusMostlyCompliant, summary.Status)
}

func TestLatestKeepsNewestPerDocument(t *testing.T) {
	t0 := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	older := domain.ValidationResult{ID: "01A", DocumentID: "d1", Score: 40, ValidatedAt: t0}
	newer := domain.ValidationResult{ID: "01B", DocumentID: "d1", Score: 90, ValidatedAt: t0.Add(time.Minute)}
	other := domain.ValidationResult{ID: "01C", DocumentID: "d2", Score: 70, ValidatedAt: t0}
	sameTimeLaterID := domain.ValidationResult{ID: "01D", DocumentID: "d2", Score: 75, ValidatedAt: t0}

	got := Latest([]domain.ValidationResult{newer, other, older, sameTimeLaterID})
	require.Len(t, got, 2)
	assert.Equal(t, "01D", got[0].ID)
	assert.Equal(t, "01B", got[1].ID)
}
