package heuristic

import (
	"context"
	"math"
	"regexp"
	"strings"
	"unicode"

	"github.com/kirillkom/kyc-compliance/internal/core/compliance"
	"github.com/kirillkom/kyc-compliance/internal/core/domain"
	"github.com/kirillkom/kyc-compliance/internal/core/ports"
)

const Method = "heuristic"

var longNumber = regexp.MustCompile(`\b\d{10,}\b`)

// Enricher derives quality, metadata and insights from the text alone.
type Enricher struct{}

func NewEnricher() *Enricher {
	return &Enricher{}
}

func (e *Enricher) Enrich(_ context.Context, req ports.EnrichmentRequest) (*domain.Enrichment, error) {
	text := ""
	if req.Document != nil {
		text = req.Document.RawText
	}
	docType := req.Classification.DocumentType
	return &domain.Enrichment{
		Method:       Method,
		QualityScore: Quality(text),
		Metadata:     Metadata(text, docType),
		Insights:     Insights(text, docType),
	}, nil
}

// Quality scores text structure on [0, 1] in steps of 0.1.
func Quality(text string) float64 {
	tenths := 0
	if len([]rune(text)) > 100 {
		tenths += 3
	}
	if words := strings.Fields(text); len(words) > 0 {
		unique := make(map[string]struct{}, len(words))
		for _, w := range words {
			unique[w] = struct{}{}
		}
		if float64(len(unique))/float64(len(words)) > 0.5 {
			tenths += 3
		}
	}
	if strings.IndexFunc(text, unicode.IsDigit) >= 0 {
		tenths += 2
	}
	if strings.ContainsAny(text, "-/:()") {
		tenths += 2
	}
	return math.Min(float64(tenths)/10, 1)
}

func Metadata(text string, docType domain.DocumentType) map[string]any {
	signals := compliance.Extract(text)
	meta := map[string]any{
		"extraction_method": "smart_regex",
		"dates_found":       firstN(signals.Dates, 3),
		"important_numbers": firstN(longNumber.FindAllString(text, -1), 3),
	}
	switch docType {
	case domain.DocCommercialRegistration:
		meta["cr_candidates"] = nonNil(signals.Numbers(compliance.PatternGeneric10))
	case domain.DocNationalID:
		meta["id_candidates"] = nonNil(signals.Numbers(compliance.PatternNationalID))
	}
	return meta
}

func Insights(text string, docType domain.DocumentType) []string {
	insights := make([]string, 0)
	if len([]rune(text)) < 50 {
		insights = append(insights, "Document appears to be very short - may be incomplete")
	}

	folded := compliance.Fold(text)
	switch docType {
	case domain.DocCommercialRegistration:
		if strings.Contains(folded, "saudi") || strings.Contains(text, "المملكة") {
			insights = append(insights, "Saudi jurisdiction indicators found")
		}
		if strings.IndexFunc(text, unicode.IsDigit) < 0 {
			insights = append(insights, "No registration numbers detected - document may be incomplete")
		}
	case domain.DocNationalID:
		if compliance.Extract(text).HasScript(compliance.ScriptArabic) {
			insights = append(insights, "Arabic text detected - good for Saudi ID documents")
		}
	case domain.DocBankStatements:
		if len(compliance.Extract(text).CurrencyTokens) > 0 {
			insights = append(insights, "Saudi currency (SAR) detected")
		}
	}
	return insights
}

func firstN(values []string, n int) []string {
	if len(values) > n {
		values = values[:n]
	}
	return nonNil(values)
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
