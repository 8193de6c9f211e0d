package report

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/kirillkom/kyc-compliance/internal/core/domain"
)

const (
	SheetSummary         = "Summary"
	SheetRequirements    = "Requirements"
	SheetRecommendations = "Recommendations"
	SheetDocuments       = "Documents"
)

// WriteXLSX writes the summary as a four-sheet workbook.
func WriteXLSX(w io.Writer, s domain.ComplianceSummary) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetSummary); err != nil {
		return fmt.Errorf("rename summary sheet: %w", err)
	}
	for _, name := range []string{SheetRequirements, SheetRecommendations, SheetDocuments} {
		if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("create sheet %s: %w", name, err)
		}
	}

	header, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}

	sheets := map[string][][]any{
		SheetSummary:         summaryRows(s),
		SheetRequirements:    requirementRows(s),
		SheetRecommendations: recommendationRows(s),
		SheetDocuments:       documentRows(s),
	}
	for name, rows := range sheets {
		if err := writeRows(f, name, rows, header); err != nil {
			return err
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeRows(f *excelize.File, sheet string, rows [][]any, header int) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		r := row
		if err := f.SetSheetRow(sheet, cell, &r); err != nil {
			return fmt.Errorf("write %s row %d: %w", sheet, i+1, err)
		}
	}
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil
	}
	last, err := excelize.CoordinatesToCellName(len(rows[0]), 1)
	if err != nil {
		return err
	}
	return f.SetCellStyle(sheet, "A1", last, header)
}

func summaryRows(s domain.ComplianceSummary) [][]any {
	missing := make([]string, 0, len(s.MissingDocumentTypes))
	for _, t := range s.MissingDocumentTypes {
		missing = append(missing, string(t))
	}
	rows := [][]any{
		{"Field", "Value"},
		{"Customer ID", s.CustomerID},
		{"Compliance Score", s.Score},
		{"Compliance Status", string(s.Status)},
		{"Critical Missing", s.CriticalMissing},
		{"Missing Documents", strings.Join(missing, ", ")},
		{"Total Documents", s.Analysis.TotalDocuments},
		{"Valid Documents", s.Analysis.ValidDocuments},
		{"Validation Rate", s.Analysis.ValidationRate},
		{"Average Score", s.Analysis.AverageScore},
		{"Required Document Coverage", s.Analysis.RequiredDocCoverage},
	}
	if !s.GeneratedAt.IsZero() {
		rows = append(rows, []any{"Generated At", s.GeneratedAt.UTC().Format("2006-01-02 15:04:05")})
	}
	for i, step := range s.NextSteps {
		rows = append(rows, []any{fmt.Sprintf("Next Step %d", i+1), step})
	}
	return rows
}

func requirementRows(s domain.ComplianceSummary) [][]any {
	rows := [][]any{{"Document Type", "Name", "Priority", "Status", "Submitted", "Valid"}}
	for _, r := range s.Requirements {
		rows = append(rows, []any{string(r.DocumentType), r.Name, string(r.Priority), string(r.Status), r.Submitted, r.Valid})
	}
	return rows
}

func recommendationRows(s domain.ComplianceSummary) [][]any {
	rows := [][]any{{"Type", "Priority", "Title", "Description", "Action"}}
	for _, r := range s.Recommendations {
		rows = append(rows, []any{string(r.Type), string(r.Priority), r.Title, r.Description, r.Action})
	}
	return rows
}

func documentRows(s domain.ComplianceSummary) [][]any {
	rows := [][]any{{"Document Type", "Document ID", "Filename", "Score", "Valid", "Issues"}}
	types := make([]string, 0, len(s.Analysis.DocumentsByType))
	for t := range s.Analysis.DocumentsByType {
		types = append(types, string(t))
	}
	sort.Strings(types)
	for _, t := range types {
		for _, d := range s.Analysis.DocumentsByType[domain.DocumentType(t)] {
			rows = append(rows, []any{t, d.DocumentID, d.Filename, d.Score, d.IsValid, strings.Join(d.Issues, "; ")})
		}
	}
	return rows
}
