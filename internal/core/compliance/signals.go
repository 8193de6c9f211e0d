package compliance

import (
	"regexp"
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/kirillkom/kyc-compliance/internal/core/domain"
)

const (
	PatternGeneric10  = "generic_10"
	PatternNationalID = "national_id"
	PatternVAT15      = "vat_15"
	PatternIBAN       = "iban"
	PatternAccount    = "account"
)

type Script string

const (
	ScriptLatin  Script = "latin"
	ScriptArabic Script = "arabic"
)

type numericPattern struct {
	name string
	re   *regexp.Regexp
}

// Registration order is the tie-break when two patterns match at the same offset.
var numericPatterns = []numericPattern{
	{name: PatternGeneric10, re: regexp.MustCompile(`\b\d{10}\b`)},
	{name: PatternNationalID, re: regexp.MustCompile(`\b[12]\d{9}\b`)},
	{name: PatternVAT15, re: regexp.MustCompile(`\b\d{15}\b`)},
	{name: PatternIBAN, re: regexp.MustCompile(`\bSA\d{22}\b`)},
	{name: PatternAccount, re: regexp.MustCompile(`\b\d{10,20}\b`)},
}

var datePatterns = []*regexp.Regexp{
	regexp.MustCompile(`\d{4}-\d{2}-\d{2}`),
	regexp.MustCompile(`\d{2}/\d{2}/\d{4}`),
	regexp.MustCompile(`\d{1,2}[-/]\d{1,2}[-/]\d{4}`),
}

var currencyTokens = []string{"SAR", "SR", "ريال", "رس"}

var lowerCaser = cases.Lower(language.Und)

type NumericMatch struct {
	Pattern string `json:"pattern"`
	Value   string `json:"value"`
	Offset  int    `json:"offset"`
}

// Signals is the typed evidence pulled out of a document's text.
type Signals struct {
	NumericIDs     []NumericMatch
	Dates          []string
	CurrencyTokens []string
	Scripts        []Script
	KeywordHits    map[domain.DocumentType]int
}

// Numbers returns the values matched by one pattern in first-seen order.
func (s Signals) Numbers(pattern string) []string {
	out := make([]string, 0)
	for _, m := range s.NumericIDs {
		if m.Pattern == pattern {
			out = append(out, m.Value)
		}
	}
	return out
}

func (s Signals) HasScript(script Script) bool {
	for _, sc := range s.Scripts {
		if sc == script {
			return true
		}
	}
	return false
}

// Extract never fails: a missing signal is an empty collection.
func Extract(text string) Signals {
	folded := Fold(text)
	return Signals{
		NumericIDs:     extractNumeric(text),
		Dates:          extractDates(text),
		CurrencyTokens: extractCurrency(text),
		Scripts:        detectScripts(text),
		KeywordHits:    countKeywordHits(folded),
	}
}

// Fold lower-cases text for case-insensitive keyword search.
func Fold(text string) string {
	return lowerCaser.String(text)
}

// MatchKeywords returns the keywords present in already folded text, in list order.
func MatchKeywords(folded string, keywords []string) []string {
	out := make([]string, 0)
	for _, kw := range keywords {
		if strings.Contains(folded, Fold(kw)) {
			out = append(out, kw)
		}
	}
	return out
}

// MatchLiteral is the case-sensitive counterpart of MatchKeywords.
func MatchLiteral(text string, tokens []string) []string {
	out := make([]string, 0)
	for _, tok := range tokens {
		if strings.Contains(text, tok) {
			out = append(out, tok)
		}
	}
	return out
}

func extractNumeric(text string) []NumericMatch {
	type ranked struct {
		NumericMatch
		rank int
	}
	var all []ranked
	for rank, p := range numericPatterns {
		for _, loc := range p.re.FindAllStringIndex(text, -1) {
			all = append(all, ranked{
				NumericMatch: NumericMatch{Pattern: p.name, Value: text[loc[0]:loc[1]], Offset: loc[0]},
				rank:         rank,
			})
		}
	}
	sort.SliceStable(all, func(i, j int) bool {
		if all[i].Offset != all[j].Offset {
			return all[i].Offset < all[j].Offset
		}
		return all[i].rank < all[j].rank
	})
	out := make([]NumericMatch, 0, len(all))
	for _, r := range all {
		out = append(out, r.NumericMatch)
	}
	return out
}

func extractDates(text string) []string {
	type span struct{ start, end int }
	seen := make(map[span]struct{})
	var spans []span
	for _, re := range datePatterns {
		for _, loc := range re.FindAllStringIndex(text, -1) {
			sp := span{loc[0], loc[1]}
			if _, ok := seen[sp]; ok {
				continue
			}
			seen[sp] = struct{}{}
			spans = append(spans, sp)
		}
	}
	sort.SliceStable(spans, func(i, j int) bool { return spans[i].start < spans[j].start })
	out := make([]string, 0, len(spans))
	for _, sp := range spans {
		out = append(out, text[sp.start:sp.end])
	}
	return out
}

func extractCurrency(text string) []string {
	return MatchLiteral(text, currencyTokens)
}

func detectScripts(text string) []Script {
	var latin, arabic bool
	for _, r := range text {
		switch {
		case r >= 0x0600 && r <= 0x06FF:
			arabic = true
		case unicode.In(r, unicode.Latin):
			latin = true
		}
		if latin && arabic {
			break
		}
	}
	out := make([]Script, 0, 2)
	if latin {
		out = append(out, ScriptLatin)
	}
	if arabic {
		out = append(out, ScriptArabic)
	}
	return out
}

func countKeywordHits(folded string) map[domain.DocumentType]int {
	hits := make(map[domain.DocumentType]int, len(contentKeywords))
	for _, t := range domain.SupportedDocumentTypes() {
		hits[t] = len(MatchKeywords(folded, contentKeywords[t]))
	}
	return hits
}
