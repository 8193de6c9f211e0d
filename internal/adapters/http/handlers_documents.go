package httpadapter

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"

	"github.com/kirillkom/kyc-compliance/internal/core/domain"
	"github.com/kirillkom/kyc-compliance/internal/core/ports"
)

// multipartOverhead is the allowance for boundaries and form fields on top of
// the file size limit.
const multipartOverhead = 1 << 20

func (rt *Router) uploadDocument(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, rt.opts.MaxUploadBytes+multipartOverhead)

	file, fileHeader, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) || strings.Contains(err.Error(), "request body too large") {
			rt.rejectUpload(w, r, domain.Reject(domain.RejectFileTooLarge, "", "request body exceeds upload limit"))
			return
		}
		rt.rejectUpload(w, r, domain.Reject(domain.RejectMissingFile, "", "multipart field 'file' is required"))
		return
	}
	defer file.Close()

	req := ports.UploadRequest{
		Filename:   fileHeader.Filename,
		MimeType:   fileHeader.Header.Get("Content-Type"),
		CustomerID: strings.TrimSpace(r.FormValue("customer_id")),
		Body:       file,
	}

	if rt.opts.AsyncValidation {
		doc, err := rt.deps.Ingestor.Upload(r.Context(), req)
		if err != nil {
			rt.rejectUpload(w, r, err)
			return
		}
		writeJSON(w, http.StatusAccepted, domain.ProcessOutcome{Document: doc})
		return
	}

	outcome, err := rt.deps.Pipeline.Process(r.Context(), req)
	if err != nil {
		rt.rejectUpload(w, r, err)
		return
	}
	if v := outcome.Validation; v != nil {
		rt.deps.Metrics.RecordValidation(serviceName, string(v.Result.DocumentType), v.Result.IsValid)
		if v.Summary != nil {
			rt.deps.Metrics.RecordSummary(serviceName, string(v.Summary.Status))
		}
	}
	writeJSON(w, http.StatusCreated, outcome)
}

func (rt *Router) rejectUpload(w http.ResponseWriter, r *http.Request, err error) {
	if rej, ok := domain.AsRejection(err); ok {
		rt.deps.Metrics.RecordUploadRejection(serviceName, string(rej.Reason))
	}
	rt.writeDomainError(w, r, err)
}

func (rt *Router) listDocuments(w http.ResponseWriter, r *http.Request) {
	var customerID string
	if err := runtime.BindQueryParameter("form", true, true, "customer_id", r.URL.Query(), &customerID); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	docs, err := rt.deps.Reader.ListDocuments(r.Context(), customerID)
	if err != nil {
		rt.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"documents": docs})
}

func (rt *Router) getDocument(w http.ResponseWriter, r *http.Request) {
	documentID, ok := bindPathParam(w, r, "documentID")
	if !ok {
		return
	}

	doc, err := rt.deps.Reader.GetDocument(r.Context(), documentID)
	if err != nil {
		rt.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (rt *Router) validateDocument(w http.ResponseWriter, r *http.Request) {
	documentID, ok := bindPathParam(w, r, "documentID")
	if !ok {
		return
	}

	outcome, err := rt.deps.Validator.ValidateByID(r.Context(), documentID)
	if err != nil {
		rt.writeDomainError(w, r, err)
		return
	}
	rt.deps.Metrics.RecordValidation(serviceName, string(outcome.Result.DocumentType), outcome.Result.IsValid)
	writeJSON(w, http.StatusOK, outcome)
}

func (rt *Router) analyze(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Filename string `json:"filename"`
		Text     string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid_input", "invalid json")
		return
	}
	writeJSON(w, http.StatusOK, rt.deps.Analyzer.Analyze(req.Filename, req.Text))
}

func bindPathParam(w http.ResponseWriter, r *http.Request, name string) (string, bool) {
	var value string
	err := runtime.BindStyledParameterWithOptions("simple", name, chi.URLParam(r, name), &value, runtime.BindStyledParameterOptions{
		ParamLocation: runtime.ParamLocationPath,
		Explode:       false,
		Required:      true,
	})
	if err != nil || strings.TrimSpace(value) == "" {
		writeError(w, r, http.StatusBadRequest, "invalid_request", name+" is required")
		return "", false
	}
	return value, true
}
