package compliance

import (
	"fmt"

	"github.com/kirillkom/kyc-compliance/internal/core/domain"
)

var (
	companyIndicators  = []string{"company", "corp", "ltd", "llc", "شركة"}
	saudiIndicators    = []string{"saudi", "السعودية", "kingdom", "المملكة", "riyadh", "jeddah", "الرياض"}
	identityIndicators = []string{"identity", "national", "هوية", "وطنية", "card", "بطاقة"}
	bankIndicators     = []string{"bank", "بنك", "account", "حساب", "statement", "كشف", "balance", "رصيد"}
	taxIndicators      = []string{"tax", "ضريبة", "vat", "ضريبة القيمة المضافة", "certificate", "شهادة"}
	validityIndicators = []string{"valid", "issued", "expiry", "صالح", "صادر"}
)

// evidence is what a check sees: the raw text, its folded form and the extracted signals.
type evidence struct {
	text    string
	folded  string
	signals Signals
}

// check is one weighted item of a per-type checklist. Evaluate returns the
// matched evidence and whether the check passed.
type check struct {
	Name           string
	Weight         int
	Issue          string
	Recommendation string
	Evaluate       func(evidence) (any, bool)
}

func keywordCheck(keywords []string) func(evidence) (any, bool) {
	return func(ev evidence) (any, bool) {
		found := MatchKeywords(ev.folded, keywords)
		return found, len(found) > 0
	}
}

func firstNumber(pattern string) func(evidence) (any, bool) {
	return func(ev evidence) (any, bool) {
		nums := ev.signals.Numbers(pattern)
		if len(nums) == 0 {
			return nil, false
		}
		return nums[0], true
	}
}

var checklists = map[domain.DocumentType][]check{
	domain.DocCommercialRegistration: {
		{
			Name:           "cr_number",
			Weight:         25,
			Issue:          "Commercial Registration number (10 digits) not found",
			Recommendation: "Ensure CR number is clearly visible in the document",
			Evaluate:       firstNumber(PatternGeneric10),
		},
		{
			Name:           "company_indicators",
			Weight:         25,
			Issue:          "Company name or business entity indicators not clear",
			Recommendation: "Ensure company name is clearly visible",
			Evaluate:       keywordCheck(companyIndicators),
		},
		{
			Name:           "dates_found",
			Weight:         20,
			Issue:          "Issue date or expiry date not clearly identified",
			Recommendation: "Ensure document dates are visible",
			Evaluate: func(ev evidence) (any, bool) {
				return ev.signals.Dates, len(ev.signals.Dates) > 0
			},
		},
		{
			Name:           "saudi_indicators",
			Weight:         30,
			Issue:          "Document jurisdiction unclear - should be from Saudi Arabia",
			Recommendation: "Verify document is issued by Saudi authorities",
			Evaluate:       keywordCheck(saudiIndicators),
		},
	},
	domain.DocNationalID: {
		{
			Name:           "national_id",
			Weight:         40,
			Issue:          "Valid Saudi National ID number (10 digits, starts with 1 or 2) not found",
			Recommendation: "Ensure National ID number is clearly visible",
			Evaluate:       firstNumber(PatternNationalID),
		},
		{
			Name:           "arabic_text",
			Weight:         30,
			Issue:          "Arabic text not detected - may not be official Saudi document",
			Recommendation: "Ensure document contains Arabic text",
			Evaluate: func(ev evidence) (any, bool) {
				ok := ev.signals.HasScript(ScriptArabic)
				return ok, ok
			},
		},
		{
			Name:           "id_keywords",
			Weight:         30,
			Issue:          "Identity document keywords not found",
			Recommendation: "Ensure the full identity card is captured, including its title",
			Evaluate:       keywordCheck(identityIndicators),
		},
	},
	domain.DocBankStatements: {
		{
			Name:           "bank_indicators",
			Weight:         30,
			Issue:          "Bank statement indicators not found",
			Recommendation: "Provide an official statement issued by the bank",
			Evaluate:       keywordCheck(bankIndicators),
		},
		{
			Name:           "account_numbers",
			Weight:         35,
			Issue:          "Account number or IBAN not found",
			Recommendation: "Ensure account number/IBAN is visible",
			Evaluate: func(ev evidence) (any, bool) {
				found := append(ev.signals.Numbers(PatternIBAN), ev.signals.Numbers(PatternAccount)...)
				if len(found) == 0 {
					return nil, false
				}
				if len(found) > 2 {
					found = found[:2]
				}
				return found, true
			},
		},
		{
			Name:           "currency_found",
			Weight:         35,
			Issue:          "Saudi currency (SAR) not detected",
			Recommendation: "Ensure statement shows SAR currency",
			Evaluate: func(ev evidence) (any, bool) {
				return ev.signals.CurrencyTokens, len(ev.signals.CurrencyTokens) > 0
			},
		},
	},
	domain.DocTaxCertificate: {
		{
			Name:           "tax_indicators",
			Weight:         40,
			Issue:          "Tax certificate indicators not found",
			Recommendation: "Provide the tax registration certificate issued by ZATCA",
			Evaluate:       keywordCheck(taxIndicators),
		},
		{
			Name:           "vat_number",
			Weight:         35,
			Issue:          "15-digit VAT registration number not found",
			Recommendation: "Ensure VAT number is clearly visible",
			Evaluate:       firstNumber(PatternVAT15),
		},
		{
			Name:           "validity_info",
			Weight:         25,
			Issue:          "Certificate validity information unclear",
			Recommendation: "Ensure issue and expiry dates of the certificate are visible",
			Evaluate:       keywordCheck(validityIndicators),
		},
	},
}

// Engine scores a document's text against the checklist of its type.
type Engine struct {
	passThreshold int
}

// NewEngine falls back to the default pass threshold when the policy's is not
// positive, so a zero score never passes.
func NewEngine(policy Policy) *Engine {
	threshold := policy.PassThreshold
	if threshold <= 0 {
		threshold = DefaultPolicy().PassThreshold
	}
	return &Engine{passThreshold: threshold}
}

func (e *Engine) PassThreshold() int {
	return e.passThreshold
}

// Validate runs every check for docType without early exit. The caller
// attaches document and customer identity to the returned result.
func (e *Engine) Validate(docType domain.DocumentType, text string) domain.ValidationResult {
	checks, ok := checklists[docType]
	if !ok {
		return e.unsupported(docType)
	}

	ev := evidence{text: text, folded: Fold(text), signals: Extract(text)}
	score := 0
	issues := make([]string, 0)
	recommendations := make([]string, 0)
	details := make(map[string]any, len(checks))

	for _, c := range checks {
		found, passed := c.Evaluate(ev)
		if passed {
			score += c.Weight
			details[c.Name] = found
			continue
		}
		issues = append(issues, c.Issue)
		recommendations = append(recommendations, c.Recommendation)
	}

	return e.result(docType, score, issues, recommendations, details)
}

func (e *Engine) unsupported(docType domain.DocumentType) domain.ValidationResult {
	supported := make([]string, 0, len(checklists))
	for _, t := range domain.SupportedDocumentTypes() {
		supported = append(supported, string(t))
	}
	return e.result(
		docType,
		0,
		[]string{fmt.Sprintf("Unknown document type: %s", docType)},
		[]string{"Please provide a supported document type"},
		map[string]any{"supported_types": supported},
	)
}

func (e *Engine) result(docType domain.DocumentType, score int, issues, recommendations []string, details map[string]any) domain.ValidationResult {
	if score > 100 {
		score = 100
	}
	return domain.ValidationResult{
		DocumentType:    docType,
		Score:           score,
		IsValid:         score >= e.passThreshold,
		Issues:          issues,
		Recommendations: recommendations,
		Details:         details,
	}
}

// CheckWeights exposes the checklist weights of a type, keyed by check name.
func CheckWeights(docType domain.DocumentType) map[string]int {
	out := make(map[string]int)
	for _, c := range checklists[docType] {
		out[c.Name] = c.Weight
	}
	return out
}
