package domain

import "time"

const (
	TopicDocumentProcessed          = "document-processed"
	TopicKYCValidationRequested     = "kyc-validation-requested"
	TopicKYCValidationCompleted     = "kyc-validation-completed"
	TopicComplianceSummaryGenerated = "compliance-summary-generated"
)

// Topics returns every topic the pipeline publishes.
func Topics() []string {
	return []string{
		TopicDocumentProcessed,
		TopicKYCValidationRequested,
		TopicKYCValidationCompleted,
		TopicComplianceSummaryGenerated,
	}
}

// Event is an envelope as seen by subscribers and the in-memory recorder.
type Event struct {
	ID          string         `json:"id"`
	Topic       string         `json:"topic"`
	Key         string         `json:"key"`
	Payload     map[string]any `json:"payload"`
	PublishedAt time.Time      `json:"published_at"`
}

func DocumentProcessedPayload(doc *Document, at time.Time) map[string]any {
	return map[string]any{
		"document_id":  doc.ID,
		"customer_id":  doc.CustomerID,
		"filename":     doc.Filename,
		"format":       doc.Format,
		"byte_length":  doc.ByteLength,
		"text_length":  len([]rune(doc.RawText)),
		"status":       "success",
		"processed_at": at.UTC().Format(time.RFC3339Nano),
	}
}

func ValidationRequestedPayload(doc *Document, guessed DocumentType, at time.Time) map[string]any {
	return map[string]any{
		"document_id":   doc.ID,
		"customer_id":   doc.CustomerID,
		"filename":      doc.Filename,
		"document_type": string(guessed),
		"requested_at":  at.UTC().Format(time.RFC3339Nano),
	}
}

func ValidationCompletedPayload(res ValidationResult) map[string]any {
	return map[string]any{
		"validation_id":      res.ID,
		"document_id":        res.DocumentID,
		"customer_id":        res.CustomerID,
		"filename":           res.Filename,
		"document_type":      string(res.DocumentType),
		"confidence":         res.Confidence,
		"is_valid":           res.IsValid,
		"validation_score":   res.Score,
		"issues":             res.Issues,
		"recommendations":    res.Recommendations,
		"validation_details": res.Details,
		"validated_at":       res.ValidatedAt.UTC().Format(time.RFC3339Nano),
	}
}

func SummaryGeneratedPayload(summary ComplianceSummary) map[string]any {
	missing := make([]string, 0, len(summary.MissingDocumentTypes))
	for _, t := range summary.MissingDocumentTypes {
		missing = append(missing, string(t))
	}
	return map[string]any{
		"customer_id":            summary.CustomerID,
		"compliance_score":       summary.Score,
		"compliance_status":      string(summary.Status),
		"total_documents":        summary.Analysis.TotalDocuments,
		"valid_documents":        summary.Analysis.ValidDocuments,
		"missing_document_types": missing,
		"critical_missing":       summary.CriticalMissing,
		"recommendation_count":   len(summary.Recommendations),
		"generated_at":           summary.GeneratedAt.UTC().Format(time.RFC3339Nano),
	}
}
