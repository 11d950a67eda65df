package cli

import (
	"context"
	"fmt"

	"resumescore/internal/analysis"
	"resumescore/internal/common"
	"resumescore/internal/types"

	"github.com/spf13/cobra"
)

var (
	extractConfig common.CommandConfig
	scoreConfig   common.CommandConfig
	matchConfig   common.CommandConfig
	analyzeConfig common.CommandConfig

	scoreRole   string
	analyzeRole string
)

var extractCmd = &cobra.Command{
	Use:   "extract [resume-file]",
	Short: "Extract a structured profile from a resume",
	Long: `Extract contact details, skills, education, experience and projects from a
resume. PDF, DOCX, HTML and plain text files are accepted.`,
	Args:    cobra.ExactArgs(1),
	PreRunE: func(cmd *cobra.Command, args []string) error { return prepareOutput(cmd, &extractConfig) },
	RunE: func(cmd *cobra.Command, args []string) error {
		return runResumeCommand(cmd, args, extractConfig, "extract",
			func(_ context.Context, a *analysis.Analyzer, text string) (types.CandidateProfile, error) {
				return a.Extract(text)
			})
	},
}

var scoreCmd = &cobra.Command{
	Use:   "score [resume-file]",
	Short: "Score a resume for applicant tracking systems",
	Long: `Score a resume out of 100 against a target role. The score combines role
keywords, section coverage, action verbs, formatting and contact details, and
comes with prioritized suggestions and the score reachable by applying them.`,
	Args:    cobra.ExactArgs(1),
	PreRunE: func(cmd *cobra.Command, args []string) error { return prepareOutput(cmd, &scoreConfig) },
	RunE: func(cmd *cobra.Command, args []string) error {
		return runResumeCommand(cmd, args, scoreConfig, "score",
			func(_ context.Context, a *analysis.Analyzer, text string) (types.ScoreReport, error) {
				return a.Score(text, scoreRole)
			})
	},
}

var matchCmd = &cobra.Command{
	Use:   "match [resume-file]",
	Short: "Rank job postings by overlap with the resume's skills",
	Args:  cobra.ExactArgs(1),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return prepareOutput(cmd, &matchConfig)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runResumeCommand(cmd, args, matchConfig, "match",
			func(ctx context.Context, a *analysis.Analyzer, text string) ([]types.MatchedJob, error) {
				return a.Match(ctx, text)
			})
	},
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze [resume-file]",
	Short: "Extract, score and match a resume in one report",
	Long: `Run the full pipeline on a resume: extract the profile, score it against the
target role and rank the job catalog against the extracted skills.`,
	Args:    cobra.ExactArgs(1),
	PreRunE: func(cmd *cobra.Command, args []string) error { return prepareOutput(cmd, &analyzeConfig) },
	RunE: func(cmd *cobra.Command, args []string) error {
		return runResumeCommand(cmd, args, analyzeConfig, "analyze",
			func(ctx context.Context, a *analysis.Analyzer, text string) (*types.AnalysisReport, error) {
				return a.Analyze(ctx, analysis.Request{Text: text, TargetRole: analyzeRole})
			})
	},
}

func init() {
	addOutputFlags(extractCmd, &extractConfig)

	addOutputFlags(scoreCmd, &scoreConfig)
	scoreCmd.Flags().StringVarP(&scoreRole, "role", "r", "", "Target role (default: first role family)")

	addOutputFlags(matchCmd, &matchConfig)

	addOutputFlags(analyzeCmd, &analyzeConfig)
	analyzeCmd.Flags().StringVarP(&analyzeRole, "role", "r", "", "Target role (default: first role family)")
}

// runResumeCommand reads one resume file and writes the formatted result of fn
func runResumeCommand[Output any](
	cmd *cobra.Command,
	args []string,
	cmdConfig common.CommandConfig,
	name string,
	fn func(ctx context.Context, a *analysis.Analyzer, text string) (Output, error),
) error {
	cfg := getConfigFromContext(cmd.Context())
	logger := getLoggerFromContext(cmd.Context())

	p, err := newPipeline(cfg, logger)
	if err != nil {
		return err
	}

	logDetails := func(texts []string, cfg common.CommandConfig) {
		logger.Info("Starting resume "+name,
			"resume_chars", len(texts[0]),
			"output_format", cfg.OutputFormat)
	}

	operation := func(ctx context.Context, texts []string) (Output, error) {
		return fn(ctx, p.analyzer, texts[0])
	}

	if err := common.RunCommand(cmd.Context(), logger, cmdConfig, args, operation, logDetails); err != nil {
		return fmt.Errorf("failed to %s resume: %w", name, err)
	}
	logger.Info("Resume " + name + " completed successfully")
	return nil
}
