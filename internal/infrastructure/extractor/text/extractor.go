package text

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
)

// Extractor turns upload bytes into text. It never fails: problems are
// reported inside the returned text so downstream scoring degrades instead.
type Extractor struct {
	logger *slog.Logger
}

func NewExtractor(logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{logger: logger}
}

func (e *Extractor) Extract(ctx context.Context, raw []byte, format string) string {
	format = strings.ToLower(strings.TrimPrefix(format, "."))
	switch format {
	case "pdf":
		return e.extractPDF(ctx, raw)
	case "txt":
		if !utf8.Valid(raw) {
			return "Text extraction failed: content is not valid UTF-8"
		}
		return string(raw)
	case "jpg", "jpeg", "png":
		return fmt.Sprintf("OCR text extraction not yet implemented. File size: %d bytes.", len(raw))
	default:
		return fmt.Sprintf("Text extraction not implemented for .%s", format)
	}
}

func (e *Extractor) extractPDF(ctx context.Context, raw []byte) (text string) {
	defer func() {
		if r := recover(); r != nil {
			text = fmt.Sprintf("PDF extraction error: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return fmt.Sprintf("PDF extraction error: %v", err)
	}

	var b strings.Builder
	pages := reader.NumPage()
	for i := 1; i <= pages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			e.logger.WarnContext(ctx, "pdf_page_failed", slog.Int("page", i), slog.String("error", err.Error()))
			fmt.Fprintf(&b, "[Error extracting page %d: %v]\n", i, err)
			continue
		}
		b.WriteString(pageText)
		b.WriteString("\n")
	}
	e.logger.DebugContext(ctx, "pdf_extracted", slog.Int("pages", pages), slog.Int("text_length", b.Len()))
	return strings.TrimSpace(b.String())
}
