package usecase

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/h2non/filetype"

	"github.com/kirillkom/kyc-compliance/internal/core/compliance"
	"github.com/kirillkom/kyc-compliance/internal/core/domain"
	"github.com/kirillkom/kyc-compliance/internal/core/ports"
)

const defaultMaxFileSize = 10 << 20

// UploadLimits gates uploads before they reach extraction.
type UploadLimits struct {
	MaxFileSize       int64
	AllowedExtensions []string
}

func DefaultUploadLimits() UploadLimits {
	return UploadLimits{
		MaxFileSize:       defaultMaxFileSize,
		AllowedExtensions: []string{".pdf", ".txt", ".jpg", ".jpeg", ".png"},
	}
}

type IngestDocumentUseCase struct {
	repo       ports.DocumentRepository
	storage    ports.ObjectStorage
	extractor  ports.TextExtractor
	events     ports.EventPublisher
	classifier *compliance.Classifier
	limits     UploadLimits
	logger     *slog.Logger
	now        func() time.Time
}

func NewIngestDocumentUseCase(
	repo ports.DocumentRepository,
	storage ports.ObjectStorage,
	extractor ports.TextExtractor,
	events ports.EventPublisher,
	limits UploadLimits,
	logger *slog.Logger,
) *IngestDocumentUseCase {
	defaults := DefaultUploadLimits()
	if limits.MaxFileSize <= 0 {
		limits.MaxFileSize = defaults.MaxFileSize
	}
	if len(limits.AllowedExtensions) == 0 {
		limits.AllowedExtensions = defaults.AllowedExtensions
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &IngestDocumentUseCase{
		repo:       repo,
		storage:    storage,
		extractor:  extractor,
		events:     events,
		classifier: compliance.NewClassifier(),
		limits:     limits,
		logger:     logger,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

func (uc *IngestDocumentUseCase) Upload(ctx context.Context, req ports.UploadRequest) (*domain.Document, error) {
	doc, _, err := uc.ingest(ctx, req)
	return doc, err
}

// ingest returns the stored document together with warnings for collaborator
// failures that did not stop the upload.
func (uc *IngestDocumentUseCase) ingest(ctx context.Context, req ports.UploadRequest) (_ *domain.Document, warnings []string, err error) {
	ctx, span := tracer.Start(ctx, "ingest.upload", documentAttrs("", req.CustomerID))
	defer func() { endSpan(span, err) }()

	raw, format, err := uc.admit(req)
	if err != nil {
		return nil, nil, err
	}

	now := uc.now()
	doc := &domain.Document{
		ID:         domain.NewDocumentID(req.CustomerID, req.Filename, raw),
		CustomerID: req.CustomerID,
		Filename:   req.Filename,
		Format:     format,
		MimeType:   req.MimeType,
		ByteLength: int64(len(raw)),
		CreatedAt:  now,
	}

	storageKey := fmt.Sprintf("%s_%s", doc.ID, sanitizeFilename(req.Filename))
	if err := uc.storage.Save(ctx, storageKey, bytes.NewReader(raw)); err != nil {
		warnings = append(warnings, uc.warn(ctx, "archive_failed", doc.ID, fmt.Errorf("save to object storage: %w", err)))
	} else {
		doc.StorageKey = storageKey
	}

	doc.RawText = uc.extractor.Extract(ctx, raw, format)

	if err := uc.repo.PutDocument(ctx, doc); err != nil {
		warnings = append(warnings, uc.warn(ctx, "storage_fallback", doc.ID, fmt.Errorf("store document: %w", err)))
	}

	uc.logger.InfoContext(ctx, "document_ingested",
		slog.String("document_id", doc.ID),
		slog.String("customer_id", doc.CustomerID),
		slog.String("format", format),
		slog.Int64("byte_length", doc.ByteLength),
		slog.Int("text_length", len([]rune(doc.RawText))),
	)

	if err := uc.events.Publish(ctx, domain.TopicDocumentProcessed, doc.ID, domain.DocumentProcessedPayload(doc, now)); err != nil {
		warnings = append(warnings, uc.warn(ctx, "event_publish_failed", doc.ID, fmt.Errorf("publish %s: %w", domain.TopicDocumentProcessed, err)))
	}
	guessed := uc.classifier.GuessFromFilename(doc.Filename)
	if err := uc.events.Publish(ctx, domain.TopicKYCValidationRequested, doc.ID, domain.ValidationRequestedPayload(doc, guessed, now)); err != nil {
		warnings = append(warnings, uc.warn(ctx, "event_publish_failed", doc.ID, fmt.Errorf("publish %s: %w", domain.TopicKYCValidationRequested, err)))
	}

	return doc, warnings, nil
}

// admit applies the input checks and returns the raw bytes and format tag.
func (uc *IngestDocumentUseCase) admit(req ports.UploadRequest) ([]byte, string, error) {
	if strings.TrimSpace(req.Filename) == "" || req.Body == nil {
		return nil, "", domain.Reject(domain.RejectMissingFile, req.Filename, "no file provided")
	}

	ext := strings.ToLower(filepath.Ext(req.Filename))
	if !uc.extensionAllowed(ext) {
		return nil, "", domain.Reject(domain.RejectUnsupportedExtension, req.Filename,
			fmt.Sprintf("extension %q not in %s", ext, strings.Join(uc.limits.AllowedExtensions, ", ")))
	}

	raw, err := io.ReadAll(io.LimitReader(req.Body, uc.limits.MaxFileSize+1))
	if err != nil {
		return nil, "", domain.WrapError(domain.ErrInvalidInput, "read upload", err)
	}
	if int64(len(raw)) > uc.limits.MaxFileSize {
		return nil, "", domain.Reject(domain.RejectFileTooLarge, req.Filename,
			fmt.Sprintf("file exceeds %d bytes", uc.limits.MaxFileSize))
	}
	if len(raw) == 0 {
		return nil, "", domain.Reject(domain.RejectMissingFile, req.Filename, "file is empty")
	}
	if detected, ok := contradicts(ext, raw); ok {
		return nil, "", domain.Reject(domain.RejectContentMismatch, req.Filename,
			fmt.Sprintf("content looks like %s, not %s", detected, ext))
	}

	return raw, strings.TrimPrefix(ext, "."), nil
}

func (uc *IngestDocumentUseCase) extensionAllowed(ext string) bool {
	for _, allowed := range uc.limits.AllowedExtensions {
		if strings.EqualFold(allowed, ext) {
			return true
		}
	}
	return false
}

func (uc *IngestDocumentUseCase) warn(ctx context.Context, event, documentID string, err error) string {
	uc.logger.WarnContext(ctx, event, slog.String("document_id", documentID), slog.String("error", err.Error()))
	return err.Error()
}

// magicExtensions lists the detected kinds each extension may carry.
var magicExtensions = map[string][]string{
	".pdf":  {"pdf"},
	".jpg":  {"jpg"},
	".jpeg": {"jpg"},
	".png":  {"png"},
	".txt":  {},
}

// contradicts reports a recognised file signature that disagrees with the
// extension. Unrecognised content never contradicts.
func contradicts(ext string, raw []byte) (string, bool) {
	expected, known := magicExtensions[ext]
	if !known {
		return "", false
	}
	head := raw
	if len(head) > 261 {
		head = head[:261]
	}
	kind, err := filetype.Match(head)
	if err != nil || kind == filetype.Unknown {
		return "", false
	}
	for _, e := range expected {
		if kind.Extension == e {
			return "", false
		}
	}
	return kind.Extension, true
}

func sanitizeFilename(name string) string {
	base := filepath.Base(name)
	base = strings.ReplaceAll(base, " ", "_")
	base = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return r
		case r >= 'A' && r <= 'Z':
			return r
		case r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, base)
	if base == "" || base == "." {
		return "document.bin"
	}
	return base
}
