package httpadapter

import (
	"bytes"
	"fmt"
	"mime"
	"net/http"

	"github.com/kirillkom/kyc-compliance/internal/core/domain"
	"github.com/kirillkom/kyc-compliance/internal/infrastructure/report"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type summaryResponse struct {
	Summary     domain.ComplianceSummary `json:"summary"`
	SummaryText string                   `json:"summary_text"`
	Warnings    []string                 `json:"warnings,omitempty"`
}

func (rt *Router) listValidations(w http.ResponseWriter, r *http.Request) {
	customerID, ok := bindPathParam(w, r, "customerID")
	if !ok {
		return
	}

	results, err := rt.deps.Reader.ListValidations(r.Context(), customerID)
	if err != nil {
		rt.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"validations": results})
}

func (rt *Router) generateSummary(w http.ResponseWriter, r *http.Request) {
	customerID, ok := bindPathParam(w, r, "customerID")
	if !ok {
		return
	}

	outcome, err := rt.deps.Summarizer.Summarize(r.Context(), customerID)
	if err != nil {
		rt.writeDomainError(w, r, err)
		return
	}
	rt.deps.Metrics.RecordSummary(serviceName, string(outcome.Summary.Status))
	writeJSON(w, http.StatusOK, summaryResponse{
		Summary:     outcome.Summary,
		SummaryText: report.Text(outcome.Summary),
		Warnings:    outcome.Warnings,
	})
}

func (rt *Router) getSummary(w http.ResponseWriter, r *http.Request) {
	customerID, ok := bindPathParam(w, r, "customerID")
	if !ok {
		return
	}

	summary, err := rt.deps.Summarizer.GetSummary(r.Context(), customerID)
	if err != nil {
		rt.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summaryResponse{
		Summary:     *summary,
		SummaryText: report.Text(*summary),
	})
}

func (rt *Router) getSummaryReport(w http.ResponseWriter, r *http.Request) {
	customerID, ok := bindPathParam(w, r, "customerID")
	if !ok {
		return
	}

	summary, err := rt.deps.Summarizer.GetSummary(r.Context(), customerID)
	if err != nil {
		rt.writeDomainError(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := report.WriteXLSX(&buf, *summary); err != nil {
		rt.writeDomainError(w, r, fmt.Errorf("render summary report: %w", err))
		return
	}
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{
		"filename": "compliance-" + customerID + ".xlsx",
	}))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}
