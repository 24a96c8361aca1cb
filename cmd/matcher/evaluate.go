package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"smarthire/resume-matcher/internal/app"
	"smarthire/resume-matcher/internal/config"
	"smarthire/resume-matcher/internal/logger"
	"smarthire/resume-matcher/internal/models"
	"smarthire/resume-matcher/internal/services"
)

type evaluateOptions struct {
	resume         string
	jobDescription string
	jobFile        string
	reportOut      string
	json           bool
}

func newEvaluateCmd() *cobra.Command {
	opts := &evaluateOptions{}

	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Score a resume against a job description and print the review report",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runEvaluate(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.resume, "resume", "r", "", "resume file: PDF, or plain text for any other extension")
	cmd.Flags().StringVar(&opts.jobDescription, "job-description", "", "job description text")
	cmd.Flags().StringVar(&opts.jobFile, "job-file", "", "file containing the job description")
	cmd.Flags().StringVar(&opts.reportOut, "report-out", "", "write the generated report to this file")
	cmd.Flags().BoolVar(&opts.json, "json", false, "print the result as JSON")

	_ = cmd.MarkFlagRequired("resume")
	cmd.MarkFlagsMutuallyExclusive("job-description", "job-file")
	cmd.MarkFlagsOneRequired("job-description", "job-file")

	return cmd
}

func runEvaluate(cmd *cobra.Command, opts *evaluateOptions) error {
	jobDescription, err := readJobDescription(opts)
	if err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	level := "warn"
	if debug, _ := cmd.Flags().GetBool("debug"); debug {
		level = "debug"
	}
	log, err := logger.NewStderr(cfg.Log.JSON, level)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	ctx := cmd.Context()

	a, err := app.Build(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	content, err := os.ReadFile(opts.resume)
	if err != nil {
		return fmt.Errorf("failed to read resume: %w", err)
	}

	var result *services.EvaluationResult
	if strings.EqualFold(filepath.Ext(opts.resume), ".pdf") {
		result, err = a.Evaluator.Evaluate(ctx, content, jobDescription)
	} else {
		result, err = a.Evaluator.EvaluateText(ctx, string(content), jobDescription)
	}
	if err != nil {
		return err
	}

	if opts.reportOut != "" && result.ReportAvailable() {
		if err := os.WriteFile(opts.reportOut, []byte(result.Report), 0o644); err != nil {
			return fmt.Errorf("failed to write report: %w", err)
		}
		log.Debug("report written", zap.String("path", opts.reportOut))
	}

	resp := result.Response()
	out := cmd.OutOrStdout()

	if opts.json {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(resp); err != nil {
			return fmt.Errorf("failed to encode result: %w", err)
		}
	} else {
		printEvaluation(out, resp)
	}

	if resp.Outcome == services.OutcomeFailed {
		return errors.New("evaluation failed: neither similarity nor report could be produced")
	}
	return nil
}

func readJobDescription(opts *evaluateOptions) (string, error) {
	jobDescription := opts.jobDescription
	if opts.jobFile != "" {
		content, err := os.ReadFile(opts.jobFile)
		if err != nil {
			return "", fmt.Errorf("failed to read job description: %w", err)
		}
		jobDescription = string(content)
	}

	if strings.TrimSpace(jobDescription) == "" {
		return "", errors.New("job description is empty")
	}
	return jobDescription, nil
}

func printEvaluation(w io.Writer, resp *models.EvaluationResponse) {
	fmt.Fprintf(w, "Outcome:          %s\n", resp.Outcome)

	if resp.Stages.Extraction.Status != models.StageOK {
		fmt.Fprintf(w, "Extraction:       %s (%s)\n", resp.Stages.Extraction.Status, resp.Stages.Extraction.Error)
	}

	if resp.SimilarityScore != nil {
		fmt.Fprintf(w, "Similarity score: %.4f\n", *resp.SimilarityScore)
	} else {
		fmt.Fprintf(w, "Similarity score: unavailable (%s)\n", resp.Stages.Similarity.Error)
	}

	if resp.AggregateScore != nil {
		fmt.Fprintf(w, "Aggregate score:  %.2f from %d markers\n", *resp.AggregateScore, len(resp.Scores))
	} else {
		fmt.Fprintf(w, "Aggregate score:  unavailable (%s)\n", resp.Stages.Aggregate.Error)
	}

	if resp.Stages.Report.Status != models.StageOK {
		fmt.Fprintf(w, "Report:           unavailable (%s)\n", resp.Stages.Report.Error)
		return
	}

	fmt.Fprintf(w, "\n%s\n", strings.TrimSpace(resp.Report))
}
