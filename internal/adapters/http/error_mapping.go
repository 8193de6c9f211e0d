package httpadapter

import (
	"net/http"

	"github.com/kirillkom/kyc-compliance/internal/core/domain"
)

func mapErrorToHTTPStatus(err error) int {
	if rej, ok := domain.AsRejection(err); ok {
		switch rej.Reason {
		case domain.RejectFileTooLarge:
			return http.StatusRequestEntityTooLarge
		case domain.RejectUnsupportedExtension, domain.RejectContentMismatch:
			return http.StatusUnsupportedMediaType
		default:
			return http.StatusBadRequest
		}
	}
	switch {
	case domain.IsKind(err, domain.ErrInvalidInput):
		return http.StatusBadRequest
	case domain.IsKind(err, domain.ErrDocumentNotFound), domain.IsKind(err, domain.ErrSummaryNotFound):
		return http.StatusNotFound
	case domain.IsKind(err, domain.ErrTemporary):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func errorReason(err error) string {
	if rej, ok := domain.AsRejection(err); ok {
		return string(rej.Reason)
	}
	switch {
	case domain.IsKind(err, domain.ErrInvalidInput):
		return "invalid_input"
	case domain.IsKind(err, domain.ErrDocumentNotFound), domain.IsKind(err, domain.ErrSummaryNotFound):
		return "not_found"
	case domain.IsKind(err, domain.ErrTemporary):
		return "temporarily_unavailable"
	default:
		return "internal"
	}
}
