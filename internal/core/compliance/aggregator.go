package compliance

import (
	"fmt"
	"sort"
	"strings"

	"github.com/kirillkom/kyc-compliance/internal/core/domain"
)

// Aggregator folds a customer's validation results into one compliance verdict.
type Aggregator struct {
	policy Policy
}

func NewAggregator(policy Policy) *Aggregator {
	return &Aggregator{policy: policy}
}

// Aggregate expects the complete result set for the customer. It never fails;
// an empty set yields a zero score and NON_COMPLIANT.
func (a *Aggregator) Aggregate(customerID string, results []domain.ValidationResult) domain.ComplianceSummary {
	analysis := a.analyze(results)
	score := a.weightedScore(results)
	missing, criticalMissing := a.missing(analysis.DocumentsByType)
	status := a.status(score, criticalMissing)

	return domain.ComplianceSummary{
		CustomerID:           customerID,
		Score:                score,
		Status:               status,
		MissingDocumentTypes: missing,
		CriticalMissing:      criticalMissing,
		Recommendations:      a.recommendations(missing, analysis.CriticalIssues, score),
		NextSteps:            a.nextSteps(status),
		Analysis:             analysis,
		Requirements:         a.requirements(analysis.DocumentsByType),
	}
}

func (a *Aggregator) weightedScore(results []domain.ValidationResult) float64 {
	var weighted, total float64
	for _, r := range results {
		w := a.policy.WeightFor(r.DocumentType)
		weighted += float64(r.Score) * w
		total += w
	}
	if total == 0 {
		return 0
	}
	return weighted / total
}

func (a *Aggregator) missing(byType map[domain.DocumentType][]domain.DocumentOutcome) ([]domain.DocumentType, bool) {
	missing := make([]domain.DocumentType, 0)
	critical := false
	for _, req := range a.policy.Requirements {
		if _, ok := byType[req.DocumentType]; ok {
			continue
		}
		missing = append(missing, req.DocumentType)
		if a.policy.IsCritical(req.DocumentType) {
			critical = true
		}
	}
	return missing, critical
}

// status applies the thresholds in order. A critical-missing customer can
// never rise above PARTIALLY_COMPLIANT.
func (a *Aggregator) status(score float64, criticalMissing bool) domain.ComplianceStatus {
	th := a.policy.Status
	switch {
	case score >= th.Fully && !criticalMissing:
		return domain.StatusFullyCompliant
	case score >= th.Mostly && !criticalMissing:
		return domain.StatusMostlyCompliant
	case score >= th.Partial:
		return domain.StatusPartiallyCompliant
	default:
		return domain.StatusNonCompliant
	}
}

func (a *Aggregator) recommendations(missing []domain.DocumentType, criticalIssues []string, score float64) []domain.Recommendation {
	out := make([]domain.Recommendation, 0, len(missing)+2)
	for _, t := range missing {
		name := string(t)
		description := fmt.Sprintf("Please provide %s", t)
		priority := domain.PriorityMedium
		if req, ok := a.policy.RequirementFor(t); ok {
			name = req.Name
			priority = req.Priority
			if req.Description != "" {
				description = req.Description
			}
		}
		out = append(out, domain.Recommendation{
			Type:        domain.RecommendationMissingDocument,
			Priority:    priority,
			Title:       "Submit " + name,
			Description: description,
			Action:      "Upload valid " + name,
		})
	}

	if len(criticalIssues) > 0 {
		out = append(out, domain.Recommendation{
			Type:        domain.RecommendationCriticalIssues,
			Priority:    domain.PriorityCritical,
			Title:       fmt.Sprintf("Resolve %d critical issues", len(criticalIssues)),
			Description: "Document validation failed for critical requirements",
			Action:      "Review and resubmit documents with clear, readable information",
		})
	}

	if score < a.policy.ImprovementThreshold {
		out = append(out, domain.Recommendation{
			Type:        domain.RecommendationOverallCompliance,
			Priority:    domain.PriorityHigh,
			Title:       "Improve overall compliance score",
			Description: fmt.Sprintf("Current score: %.1f/100", score),
			Action:      "Focus on document quality and completeness",
		})
	}
	return out
}

func (a *Aggregator) nextSteps(status domain.ComplianceStatus) []string {
	steps := a.policy.NextSteps[status]
	out := make([]string, len(steps))
	copy(out, steps)
	return out
}

func (a *Aggregator) analyze(results []domain.ValidationResult) domain.DocumentAnalysis {
	analysis := domain.DocumentAnalysis{
		TotalDocuments:  len(results),
		DocumentsByType: make(map[domain.DocumentType][]domain.DocumentOutcome),
		CriticalIssues:  make([]string, 0),
		MinorIssues:     make([]string, 0),
	}

	var scoreSum int
	for _, r := range results {
		scoreSum += r.Score
		if r.IsValid {
			analysis.ValidDocuments++
		}
		for _, issue := range r.Issues {
			if a.isCriticalIssue(issue) {
				analysis.CriticalIssues = append(analysis.CriticalIssues, issue)
			} else {
				analysis.MinorIssues = append(analysis.MinorIssues, issue)
			}
		}
		analysis.DocumentsByType[r.DocumentType] = append(analysis.DocumentsByType[r.DocumentType], domain.DocumentOutcome{
			DocumentID: r.DocumentID,
			Filename:   r.Filename,
			IsValid:    r.IsValid,
			Score:      r.Score,
			Issues:     append([]string(nil), r.Issues...),
		})
	}

	if len(results) > 0 {
		analysis.ValidationRate = float64(analysis.ValidDocuments) / float64(len(results))
		analysis.AverageScore = float64(scoreSum) / float64(len(results))
	}
	if len(a.policy.Requirements) > 0 {
		covered := 0
		for _, req := range a.policy.Requirements {
			if _, ok := analysis.DocumentsByType[req.DocumentType]; ok {
				covered++
			}
		}
		analysis.RequiredDocCoverage = float64(covered) / float64(len(a.policy.Requirements))
	}
	return analysis
}

// isCriticalIssue matches literal markers in the issue text.
// TODO: replace with an issue category carried on ValidationResult once
// downstream consumers of the event payload can accept it.
func (a *Aggregator) isCriticalIssue(issue string) bool {
	lower := strings.ToLower(issue)
	for _, marker := range a.policy.CriticalIssueMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

func (a *Aggregator) requirements(byType map[domain.DocumentType][]domain.DocumentOutcome) []domain.RequirementStatus {
	out := make([]domain.RequirementStatus, 0, len(a.policy.Requirements))
	for _, req := range a.policy.Requirements {
		st := domain.RequirementStatus{
			DocumentType: req.DocumentType,
			Name:         req.Name,
			Status:       domain.RequirementMissing,
			Priority:     req.Priority,
		}
		if docs, ok := byType[req.DocumentType]; ok {
			st.Submitted = len(docs)
			for _, d := range docs {
				if d.IsValid {
					st.Valid++
				}
			}
			st.Status = domain.RequirementFailed
			if st.Valid > 0 {
				st.Status = domain.RequirementSatisfied
			}
		}
		out = append(out, st)
	}
	return out
}

// Latest keeps the newest result per document id, ordered by validation time.
func Latest(results []domain.ValidationResult) []domain.ValidationResult {
	newest := make(map[string]domain.ValidationResult, len(results))
	for _, r := range results {
		cur, ok := newest[r.DocumentID]
		if !ok || newer(r, cur) {
			newest[r.DocumentID] = r
		}
	}
	out := make([]domain.ValidationResult, 0, len(newest))
	for _, r := range newest {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].ValidatedAt.Equal(out[j].ValidatedAt) {
			return out[i].ValidatedAt.Before(out[j].ValidatedAt)
		}
		return out[i].DocumentID < out[j].DocumentID
	})
	return out
}

func newer(a, b domain.ValidationResult) bool {
	if !a.ValidatedAt.Equal(b.ValidatedAt) {
		return a.ValidatedAt.After(b.ValidatedAt)
	}
	return a.ID > b.ID
}
