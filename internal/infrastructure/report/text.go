package report

import (
	"fmt"
	"strings"

	"github.com/kirillkom/kyc-compliance/internal/core/domain"
)

var statusDescriptions = map[domain.ComplianceStatus]string{
	domain.StatusFullyCompliant:     "meets all SAMA requirements and is ready for approval",
	domain.StatusMostlyCompliant:    "meets most SAMA requirements with minor issues to resolve",
	domain.StatusPartiallyCompliant: "has submitted some required documents but significant gaps remain",
	domain.StatusNonCompliant:       "does not meet minimum SAMA compliance requirements",
}

// Text renders the plain-text assessment shown to reviewers.
func Text(s domain.ComplianceSummary) string {
	assessment, ok := statusDescriptions[s.Status]
	if !ok {
		assessment = "Status unclear"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "SAMA COMPLIANCE SUMMARY - Customer %s\n\n", s.CustomerID)
	fmt.Fprintf(&b, "Overall Assessment: %s\n", assessment)
	fmt.Fprintf(&b, "Compliance Score: %.1f/100\n\n", s.Score)

	b.WriteString("Document Status:\n")
	fmt.Fprintf(&b, "- Total documents processed: %d\n", s.Analysis.TotalDocuments)
	fmt.Fprintf(&b, "- Valid documents: %d\n", s.Analysis.ValidDocuments)
	fmt.Fprintf(&b, "- Validation rate: %.1f%%\n", s.Analysis.ValidationRate*100)
	fmt.Fprintf(&b, "- Required document coverage: %.1f%%\n\n", s.Analysis.RequiredDocCoverage*100)

	b.WriteString("Key Findings:\n")
	if len(s.MissingDocumentTypes) == 0 && len(s.Analysis.CriticalIssues) == 0 {
		b.WriteString("- All critical documents validated successfully\n")
	}
	if len(s.MissingDocumentTypes) > 0 {
		missing := make([]string, 0, len(s.MissingDocumentTypes))
		for _, t := range s.MissingDocumentTypes {
			missing = append(missing, string(t))
		}
		fmt.Fprintf(&b, "- Missing critical documents: %s\n", strings.Join(missing, ", "))
	}
	if n := len(s.Analysis.CriticalIssues); n > 0 {
		fmt.Fprintf(&b, "- Critical validation issues identified: %d\n", n)
	}

	b.WriteString("\nThis assessment is based on Saudi Arabian Monetary Authority (SAMA) regulations\n")
	b.WriteString("for Small and Medium Enterprise (SME) account opening requirements.")
	return b.String()
}
