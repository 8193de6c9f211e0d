package compliance

import (
	"path/filepath"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/kirillkom/kyc-compliance/internal/core/domain"
)

const (
	filenameWeight = 2
	contentWeight  = 3
)

var contentKeywords = map[domain.DocumentType][]string{
	domain.DocCommercialRegistration: {
		"commercial registration", "تجاري", "ministry of commerce",
		"cr number", "company name", "business activity",
	},
	domain.DocNationalID: {
		"national identity", "national id", "هوية وطنية", "هوية", "identity card", "id number",
	},
	domain.DocBankStatements: {
		"bank statement", "account number", "balance", "transaction", "بنك",
	},
	domain.DocTaxCertificate: {
		"tax certificate", "vat", "ضريبة", "zatca", "tax registration",
	},
}

var filenameKeywords = map[domain.DocumentType][]string{
	domain.DocCommercialRegistration: {"commercial", "registration", "cr"},
	domain.DocNationalID:             {"national", "id", "identity"},
	domain.DocBankStatements:         {"bank", "statement", "statements", "account"},
	domain.DocTaxCertificate:         {"tax", "vat", "certificate"},
}

const structuralPunctuation = ":-/()"

// Classifier maps a filename and its text to a document type.
type Classifier struct{}

func NewClassifier() *Classifier {
	return &Classifier{}
}

func (c *Classifier) Classify(filename, text string) domain.Classification {
	docType := c.pickType(filename, Extract(text))
	return domain.Classification{
		DocumentType: docType,
		Confidence:   confidence(filename, text, docType),
	}
}

// GuessFromFilename classifies on the filename alone.
func (c *Classifier) GuessFromFilename(filename string) domain.DocumentType {
	return c.pickType(filename, Signals{})
}

func (c *Classifier) pickType(filename string, signals Signals) domain.DocumentType {
	tokens := filenameTokens(filename)

	best := domain.DocUnknown
	bestScore, bestHits := 0, 0
	for _, t := range domain.SupportedDocumentTypes() {
		score := 0
		hits := signals.KeywordHits[t]
		if hits > 0 {
			score += contentWeight
		}
		if hasAnyToken(tokens, filenameKeywords[t]) {
			score += filenameWeight
		}
		// Equal scores go to more distinct keyword hits, then to the
		// earlier type.
		if score > bestScore || (score == bestScore && score > 0 && hits > bestHits) {
			best, bestScore, bestHits = t, score, hits
		}
	}
	return best
}

func confidence(filename, text string, docType domain.DocumentType) float64 {
	tenths := 5
	if strings.Contains(strings.ToLower(filename), string(docType)) {
		tenths += 2
	}
	if utf8.RuneCountInString(text) > 200 {
		tenths += 2
	}
	if strings.ContainsAny(text, structuralPunctuation) {
		tenths++
	}
	if tenths > 10 {
		tenths = 10
	}
	return float64(tenths) / 10
}

func filenameTokens(filename string) []string {
	base := strings.ToLower(filepath.Base(filename))
	base = strings.TrimSuffix(base, filepath.Ext(base))
	return strings.FieldsFunc(base, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func hasAnyToken(tokens, keywords []string) bool {
	for _, tok := range tokens {
		for _, kw := range keywords {
			if tok == kw {
				return true
			}
		}
	}
	return false
}
