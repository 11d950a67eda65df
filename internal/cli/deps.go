package cli

import (
	"context"
	"fmt"

	"resumescore/internal/analysis"
	"resumescore/internal/common"
	"resumescore/internal/config"
	"resumescore/internal/errors"
	"resumescore/internal/jobs"
	"resumescore/internal/matching"
	"resumescore/internal/observability"
	"resumescore/internal/store"
	"resumescore/internal/vocab"

	"github.com/spf13/cobra"
)

// pipeline is the analyzer together with the holders it reads from
type pipeline struct {
	analyzer   *analysis.Analyzer
	vocabulary *vocab.Holder
	jobs       *jobs.Holder
}

// newPipeline loads the configured vocabulary and job catalog, falling back
// to the bundled data when no file is configured.
func newPipeline(cfg *config.Config, logger *errors.Logger) (*pipeline, error) {
	tables, err := vocab.LoadOrDefault(cfg.Analysis.VocabularyFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load vocabulary: %w", err)
	}
	postings, err := jobs.LoadOrBuiltin(cfg.Analysis.JobsFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load job catalog: %w", err)
	}

	p := &pipeline{
		vocabulary: vocab.NewHolder(tables),
		jobs:       jobs.NewHolder(postings),
	}
	p.analyzer = analysis.NewAnalyzer(p.vocabulary, p.jobs, analysis.Options{
		MinLength: cfg.Analysis.MinLength,
		Match: &matching.Options{
			Cutoff: cfg.Analysis.MatchCutoff,
			Limit:  cfg.Analysis.MatchLimit,
		},
	}, logger)

	logger.Debug("Analysis pipeline ready",
		"vocabulary_version", tables.Version,
		"jobs", len(postings))
	return p, nil
}

// openStore opens the configured store. It returns nil when the driver is "none".
func openStore(ctx context.Context, cfg *config.Config, logger *errors.Logger) (store.Store, error) {
	s, err := store.Open(ctx, store.Config{
		Driver:   cfg.Store.Driver,
		DSN:      cfg.Store.DSN,
		MaxConns: cfg.Store.MaxConns,
		MinConns: cfg.Store.MinConns,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	return s, nil
}

// newObservability starts tracing and metrics for long running commands
func newObservability(cfg *config.Config) (*observability.Manager, error) {
	om, err := observability.NewManager(cfg.Observability, Version)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize observability: %w", err)
	}
	return om, nil
}

// addOutputFlags registers --output and --format on cmd
func addOutputFlags(cmd *cobra.Command, cmdConfig *common.CommandConfig) {
	cmd.Flags().StringVarP(&cmdConfig.OutputFile, "output", "o", "", "Output file path (default: stdout)")
	cmd.Flags().StringVar(&cmdConfig.OutputFormat, "format", "", "Output format: json, text, or markdown")

	_ = cmd.RegisterFlagCompletionFunc("format", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return common.NewOutputHandler(nil).GetSupportedFormats(), cobra.ShellCompDirectiveNoFileComp
	})
}

// prepareOutput applies the configured defaults to cmdConfig and validates the format
func prepareOutput(cmd *cobra.Command, cmdConfig *common.CommandConfig) error {
	cfg := getConfigFromContext(cmd.Context())
	if cmdConfig.OutputFormat == "" {
		cmdConfig.OutputFormat = cfg.App.DefaultFormat
	}
	if cmdConfig.MaxFileSize == 0 {
		cmdConfig.MaxFileSize = cfg.App.MaxFileSize
	}
	return common.ValidateOutputFormat(cmdConfig.OutputFormat, cfg.App.SupportedFormats)
}
