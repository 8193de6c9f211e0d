package ollama

import (
	"fmt"
	"strings"

	"github.com/kirillkom/kyc-compliance/internal/core/domain"
)

func buildReviewPrompt(docType domain.DocumentType, result domain.ValidationResult, snippet string) string {
	issues := "none"
	if len(result.Issues) > 0 {
		issues = "- " + strings.Join(result.Issues, "\n- ")
	}

	return fmt.Sprintf(`You are a KYC compliance analyst reviewing a Saudi onboarding document.
Rule-based validation already classified it as %s with score %d/100.
Issues found:
%s

Return strict JSON object with keys:
summary (string, at most three sentences), quality_score (number from 0 to 1), insights (array of strings).
Do not restate the score. No markdown, no extra keys.

Document:
%s
`, docType, result.Score, issues, snippet)
}
