package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/kirillkom/kyc-compliance/internal/bootstrap"
	"github.com/kirillkom/kyc-compliance/internal/config"
	"github.com/kirillkom/kyc-compliance/internal/core/domain"
	"github.com/kirillkom/kyc-compliance/internal/core/ports"
	"github.com/kirillkom/kyc-compliance/internal/infrastructure/report"
	"github.com/kirillkom/kyc-compliance/internal/observability/logging"
)

var version = "dev"

type rootOptions struct {
	policyFile string
	logLevel   string
	jsonOutput bool
	out        io.Writer
}

func newRootCmd(out io.Writer) *cobra.Command {
	opts := &rootOptions{out: out}
	root := &cobra.Command{
		Use:           "kycctl",
		Short:         "Classify, validate and summarise KYC documents locally",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(out)
	root.PersistentFlags().StringVar(&opts.policyFile, "policy", os.Getenv("POLICY_FILE"), "compliance policy YAML file")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "error", "log level for pipeline diagnostics on stderr")
	root.PersistentFlags().BoolVar(&opts.jsonOutput, "json", false, "print JSON instead of text")

	root.AddCommand(newAnalyzeCmd(opts), newSummarizeCmd(opts), newPolicyCmd(opts))
	return root
}

func (o *rootOptions) localApp(ctx context.Context) (*bootstrap.App, error) {
	cfg := config.Load()
	cfg.PolicyFile = o.policyFile
	cfg.LogLevel = o.logLevel
	cfg.AutoSummary = false
	return bootstrap.NewLocal(ctx, cfg, o.logger())
}

func (o *rootOptions) logger() *slog.Logger {
	return logging.NewJSONLoggerTo(os.Stderr, "kycctl", o.logLevel)
}

func newAnalyzeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "analyze FILE...",
		Short: "Classify and validate documents without storing them",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := opts.localApp(cmd.Context())
			if err != nil {
				return err
			}
			defer app.Close()

			for _, path := range args {
				raw, err := os.ReadFile(path)
				if err != nil {
					return fmt.Errorf("read %s: %w", path, err)
				}
				name := filepath.Base(path)
				text := app.Extractor.Extract(cmd.Context(), raw, filepath.Ext(name))
				analysis := app.Analyze.Analyze(name, text)
				if opts.jsonOutput {
					if err := writeJSON(opts.out, analysis); err != nil {
						return err
					}
					continue
				}
				printAnalysis(opts.out, name, analysis)
			}
			return nil
		},
	}
}

func newSummarizeCmd(opts *rootOptions) *cobra.Command {
	var customerID, xlsxPath string
	cmd := &cobra.Command{
		Use:   "summarize FILE...",
		Short: "Validate a customer's documents and print the compliance summary",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			app, err := opts.localApp(ctx)
			if err != nil {
				return err
			}
			defer app.Close()

			reqs := make([]ports.UploadRequest, 0, len(args))
			for _, path := range args {
				f, err := os.Open(path)
				if err != nil {
					return fmt.Errorf("open %s: %w", path, err)
				}
				defer f.Close()
				reqs = append(reqs, ports.UploadRequest{Filename: filepath.Base(path), CustomerID: customerID, Body: f})
			}

			items, err := app.Pipeline.ProcessBatch(ctx, reqs)
			if err != nil {
				return err
			}
			for _, item := range items {
				if item.Err != nil {
					color.New(color.FgYellow).Fprintf(opts.out, "skipped %s: %v\n", item.Filename, item.Err)
				}
			}

			outcome, err := app.Summary.Summarize(ctx, customerID)
			if err != nil {
				return err
			}

			if xlsxPath != "" {
				if err := writeWorkbook(xlsxPath, outcome.Summary); err != nil {
					return err
				}
			}
			if opts.jsonOutput {
				return writeJSON(opts.out, outcome)
			}
			printStatus(opts.out, outcome.Summary.Status)
			fmt.Fprintln(opts.out, report.Text(outcome.Summary))
			if xlsxPath != "" {
				fmt.Fprintf(opts.out, "\nworkbook written to %s\n", xlsxPath)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&customerID, "customer", "", "customer id the documents belong to")
	cmd.Flags().StringVar(&xlsxPath, "xlsx", "", "also write the summary workbook to this path")
	_ = cmd.MarkFlagRequired("customer")
	return cmd
}

func newPolicyCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "policy",
		Short: "Validate and print the effective compliance policy",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			policy, err := config.LoadPolicy(opts.policyFile)
			if err != nil {
				return err
			}
			if opts.jsonOutput {
				return writeJSON(opts.out, policy)
			}
			enc := yaml.NewEncoder(opts.out)
			enc.SetIndent(2)
			defer enc.Close()
			return enc.Encode(policy)
		},
	}
}

func writeWorkbook(path string, summary domain.ComplianceSummary) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create workbook: %w", err)
	}
	if err := report.WriteXLSX(f, summary); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printAnalysis(w io.Writer, name string, a domain.Analysis) {
	bold := color.New(color.Bold)
	bold.Fprintf(w, "%s\n", name)
	fmt.Fprintf(w, "  type:       %s (confidence %.1f)\n", a.Classification.DocumentType, a.Classification.Confidence)

	verdict := color.New(color.FgGreen).Sprint("valid")
	if !a.Result.IsValid {
		verdict = color.New(color.FgRed).Sprint("invalid")
	}
	fmt.Fprintf(w, "  score:      %d/100 %s\n", a.Result.Score, verdict)
	for i, issue := range a.Result.Issues {
		fmt.Fprintf(w, "  issue:      %s\n", issue)
		if i < len(a.Result.Recommendations) {
			fmt.Fprintf(w, "    fix:      %s\n", a.Result.Recommendations[i])
		}
	}
}

func printStatus(w io.Writer, status domain.ComplianceStatus) {
	c := color.New(color.FgRed, color.Bold)
	switch status {
	case domain.StatusFullyCompliant:
		c = color.New(color.FgGreen, color.Bold)
	case domain.StatusMostlyCompliant, domain.StatusPartiallyCompliant:
		c = color.New(color.FgYellow, color.Bold)
	}
	c.Fprintf(w, "%s\n\n", strings.ReplaceAll(string(status), "_", " "))
}
