package cli

import (
	"context"
	"fmt"

	"resumescore/internal/ai"
	"resumescore/internal/analysis"
	"resumescore/internal/common"
	"resumescore/internal/errors"
	"resumescore/internal/jobs"
	"resumescore/internal/types"

	"github.com/spf13/cobra"
)

var (
	adviseConfig common.CommandConfig
	adviseRole   string

	jobsConfig common.CommandConfig
	jobsRole   string
	jobsSkills []string
)

var adviseCmd = &cobra.Command{
	Use:   "advise [resume-file]",
	Short: "Get AI rewrite advice for a resume",
	Long: `Analyze a resume and ask the configured AI provider for rewrites of weak
bullet points, missing keywords and next steps. Requires ai.enabled and an API
key; the deterministic report is computed first and passed to the model.`,
	Args:    cobra.ExactArgs(1),
	PreRunE: func(cmd *cobra.Command, args []string) error { return prepareOutput(cmd, &adviseConfig) },
	RunE:    runAdvise,
}

var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "List the job catalog or recommend postings for a role",
	Long: `Without flags, list every posting in the job catalog. With --role, rank the
postings for that role template; --skill adds skills you already have.`,
	Args:    cobra.NoArgs,
	PreRunE: func(cmd *cobra.Command, args []string) error { return prepareOutput(cmd, &jobsConfig) },
	RunE:    runJobs,
}

func init() {
	addOutputFlags(adviseCmd, &adviseConfig)
	adviseCmd.Flags().StringVarP(&adviseRole, "role", "r", "", "Target role (default: first role family)")

	addOutputFlags(jobsCmd, &jobsConfig)
	jobsCmd.Flags().StringVarP(&jobsRole, "role", "r", "", "Role template to recommend postings for")
	jobsCmd.Flags().StringSliceVarP(&jobsSkills, "skill", "s", nil, "Skill you already have (repeatable)")
	_ = jobsCmd.RegisterFlagCompletionFunc("role", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return jobs.Roles(), cobra.ShellCompDirectiveNoFileComp
	})
}

func runAdvise(cmd *cobra.Command, args []string) error {
	cfg := getConfigFromContext(cmd.Context())
	logger := getLoggerFromContext(cmd.Context())

	aiService, err := ai.NewService(cmd.Context(), cfg.AI, logger, nil)
	if err != nil {
		return fmt.Errorf("failed to create AI service: %w", err)
	}
	if !aiService.Enabled() {
		return errors.NewAIError(errors.ErrCodeAIDisabled, "AI advice is disabled; set ai.enabled and ai.apiKey", nil)
	}
	defer func() {
		if err := aiService.Close(); err != nil {
			logger.LogError(err, "Failed to close AI service")
		}
	}()

	p, err := newPipeline(cfg, logger)
	if err != nil {
		return err
	}

	operation := func(ctx context.Context, texts []string) (*types.Advice, error) {
		report, err := p.analyzer.Analyze(ctx, analysis.Request{Text: texts[0], TargetRole: adviseRole})
		if err != nil {
			return nil, err
		}
		logger.Info("Resume scored, requesting advice",
			"score", report.Score.TotalScore,
			"target_role", report.TargetRole)
		return aiService.Advise(ctx, ai.AdviceInput{Text: texts[0], Report: *report})
	}

	logDetails := func(texts []string, cfg common.CommandConfig) {
		logger.Info("Starting resume advice",
			"resume_chars", len(texts[0]),
			"output_format", cfg.OutputFormat)
	}

	if err := common.RunCommand(cmd.Context(), logger, adviseConfig, args, operation, logDetails); err != nil {
		return fmt.Errorf("failed to advise on resume: %w", err)
	}
	logger.Info("Resume advice completed successfully")
	return nil
}

func runJobs(cmd *cobra.Command, args []string) error {
	cfg := getConfigFromContext(cmd.Context())
	logger := getLoggerFromContext(cmd.Context())

	p, err := newPipeline(cfg, logger)
	if err != nil {
		return err
	}
	postings, err := p.analyzer.Postings(cmd.Context())
	if err != nil {
		return err
	}

	outputHandler := common.NewOutputHandler(logger)
	if jobsRole == "" {
		return outputHandler.HandleOutput(postings, jobsConfig)
	}
	if _, ok := jobs.Template(jobsRole); !ok {
		logger.Warn("No template for role, listing postings unranked", "role", jobsRole)
	}
	return outputHandler.HandleOutput(jobs.Recommend(postings, jobsRole, jobsSkills), jobsConfig)
}
