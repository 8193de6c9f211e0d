package mcpadapter

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/kirillkom/kyc-compliance/internal/core/ports"
	"github.com/kirillkom/kyc-compliance/internal/infrastructure/report"
)

type Deps struct {
	Analyzer   ports.Analyzer
	Validator  ports.DocumentValidator
	Summarizer ports.ComplianceSummarizer
	Logger     *slog.Logger
}

// Server exposes the compliance pipeline as MCP tools.
type Server struct {
	deps Deps
	mcp  *server.MCPServer
}

func NewServer(name, version string, deps Deps) *Server {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	s := &Server{
		deps: deps,
		mcp:  server.NewMCPServer(name, version, server.WithToolCapabilities(false), server.WithRecovery()),
	}

	s.mcp.AddTool(mcp.NewTool("classify_document",
		mcp.WithDescription("Classify document text into a KYC document type and score it against the type's compliance checklist. Nothing is stored."),
		mcp.WithString("text", mcp.Required(), mcp.Description("Extracted document text")),
		mcp.WithString("filename", mcp.Description("Original filename, used as a classification hint")),
	), s.classifyDocument)

	s.mcp.AddTool(mcp.NewTool("validate_document",
		mcp.WithDescription("Re-run classification and validation for a stored document and persist the result."),
		mcp.WithString("document_id", mcp.Required(), mcp.Description("Document id returned by the upload API")),
	), s.validateDocument)

	s.mcp.AddTool(mcp.NewTool("compliance_summary",
		mcp.WithDescription("Aggregate every validation of a customer into a compliance verdict with recommendations."),
		mcp.WithString("customer_id", mcp.Required(), mcp.Description("Customer identifier")),
		mcp.WithBoolean("cached", mcp.Description("Return the last stored summary instead of recomputing")),
	), s.complianceSummary)

	return s
}

func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

func (s *Server) classifyDocument(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, err := req.RequireString("text")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(s.deps.Analyzer.Analyze(req.GetString("filename", ""), text))
}

func (s *Server) validateDocument(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("document_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	outcome, err := s.deps.Validator.ValidateByID(ctx, id)
	if err != nil {
		s.deps.Logger.WarnContext(ctx, "mcp_tool_failed", "tool", "validate_document", "error", err)
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(outcome)
}

func (s *Server) complianceSummary(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	customerID, err := req.RequireString("customer_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if req.GetBool("cached", false) {
		summary, err := s.deps.Summarizer.GetSummary(ctx, customerID)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(report.Text(*summary)), nil
	}

	outcome, err := s.deps.Summarizer.Summarize(ctx, customerID)
	if err != nil {
		s.deps.Logger.WarnContext(ctx, "mcp_tool_failed", "tool", "compliance_summary", "error", err)
		return mcp.NewToolResultError(err.Error()), nil
	}
	body, err := json.MarshalIndent(outcome, "", "  ")
	if err != nil {
		return nil, err
	}
	return mcp.NewToolResultText(report.Text(outcome.Summary) + "\n\n" + string(body)), nil
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	body, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return mcp.NewToolResultText(string(body)), nil
}
