package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

type DocumentType string

const (
	DocCommercialRegistration DocumentType = "commercial_registration"
	DocNationalID             DocumentType = "national_id"
	DocBankStatements         DocumentType = "bank_statements"
	DocTaxCertificate         DocumentType = "tax_certificate"
	DocUnknown                DocumentType = "unknown"
)

// SupportedDocumentTypes lists the classifiable types in tie-break priority order.
func SupportedDocumentTypes() []DocumentType {
	return []DocumentType{
		DocCommercialRegistration,
		DocNationalID,
		DocBankStatements,
		DocTaxCertificate,
	}
}

func (t DocumentType) Supported() bool {
	for _, candidate := range SupportedDocumentTypes() {
		if candidate == t {
			return true
		}
	}
	return false
}

// Document is the raw upload after text extraction. It is never mutated once stored.
type Document struct {
	ID         string    `json:"id"`
	CustomerID string    `json:"customer_id,omitempty"`
	Filename   string    `json:"filename"`
	Format     string    `json:"format"`
	MimeType   string    `json:"mime_type,omitempty"`
	ByteLength int64     `json:"byte_length"`
	RawText    string    `json:"raw_text"`
	StorageKey string    `json:"storage_key,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

type Classification struct {
	DocumentType DocumentType `json:"document_type"`
	Confidence   float64      `json:"confidence"`
}

// NewDocumentID is stable for identical uploads by the same customer.
func NewDocumentID(customerID, filename string, content []byte) string {
	h := sha256.New()
	h.Write([]byte(customerID))
	h.Write([]byte{0})
	h.Write([]byte(filename))
	h.Write([]byte{0})
	h.Write(content)
	return hex.EncodeToString(h.Sum(nil))[:32]
}
