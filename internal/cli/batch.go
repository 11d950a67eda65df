package cli

import (
	"fmt"
	"os"
	"strings"

	"resumescore/internal/analysis"
	"resumescore/internal/common"
	"resumescore/internal/errors"
	"resumescore/internal/formatters"
	"resumescore/internal/types"

	"github.com/spf13/cobra"
)

var (
	batchConfig      common.CommandConfig
	batchRole        string
	batchConcurrency int
)

// batchItem is the outcome for one input file
type batchItem struct {
	File   string                `json:"file"`
	Report *types.AnalysisReport `json:"report,omitempty"`
	Code   string                `json:"code,omitempty"`
	Error  string                `json:"error,omitempty"`
}

var batchCmd = &cobra.Command{
	Use:   "batch [resume-file...]",
	Short: "Analyze many resumes concurrently",
	Long: `Analyze every resume file against the same target role. Files are processed
by a bounded pool of workers and a failing file does not stop the others.`,
	Args: cobra.MinimumNArgs(1),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		cfg := getConfigFromContext(cmd.Context())
		if !cmd.Flags().Changed("concurrency") && cfg.Analysis.BatchConcurrency > 0 {
			batchConcurrency = cfg.Analysis.BatchConcurrency
		}
		if err := common.ValidateConcurrency(batchConcurrency); err != nil {
			return err
		}
		return prepareOutput(cmd, &batchConfig)
	},
	RunE: runBatch,
}

func init() {
	addOutputFlags(batchCmd, &batchConfig)
	batchCmd.Flags().StringVarP(&batchRole, "role", "r", "", "Target role applied to every resume")
	batchCmd.Flags().IntVarP(&batchConcurrency, "concurrency", "c", 4, "Number of resumes analyzed at once (1-64)")
}

func runBatch(cmd *cobra.Command, args []string) error {
	cfg := getConfigFromContext(cmd.Context())
	logger := getLoggerFromContext(cmd.Context())

	p, err := newPipeline(cfg, logger)
	if err != nil {
		return err
	}

	fileProcessor := common.NewFileProcessor(logger, batchConfig.MaxFileSize)
	if err := fileProcessor.ValidateOutputFile(batchConfig.OutputFile); err != nil {
		return err
	}

	items := make([]batchItem, len(args))
	var reqs []analysis.Request
	var reqFiles []int
	for i, file := range args {
		items[i].File = file
		text, err := fileProcessor.ReadDocument(file)
		if err != nil {
			setItemError(&items[i], err)
			continue
		}
		reqs = append(reqs, analysis.Request{Text: text, TargetRole: batchRole})
		reqFiles = append(reqFiles, i)
	}

	logger.Info("Starting batch analysis",
		"files", len(args),
		"readable", len(reqs),
		"concurrency", batchConcurrency)

	results, err := p.analyzer.AnalyzeAll(cmd.Context(), reqs, batchConcurrency)
	if err != nil {
		return fmt.Errorf("batch analysis interrupted: %w", err)
	}

	failed := 0
	for _, res := range results {
		item := &items[reqFiles[res.Index]]
		if res.Err != nil {
			setItemError(item, res.Err)
			continue
		}
		item.Report = res.Report
	}
	for _, item := range items {
		if item.Error != "" {
			failed++
			logger.Warn("Resume analysis failed", "file", item.File, "error", item.Error)
		}
	}

	if err := writeBatch(items, batchConfig, fileProcessor); err != nil {
		return err
	}

	logger.Info("Batch analysis completed", "files", len(items), "failed", failed)
	if failed == len(items) {
		return fmt.Errorf("all %d resumes failed", failed)
	}
	return nil
}

func setItemError(item *batchItem, err error) {
	item.Error = err.Error()
	if appErr, ok := errors.As(err); ok {
		item.Code = appErr.Code
		item.Error = appErr.Message
	}
}

// writeBatch writes JSON as a single array, and text or markdown as one
// formatted report per file.
func writeBatch(items []batchItem, cmdConfig common.CommandConfig, fp *common.FileProcessor) error {
	var output string
	if cmdConfig.OutputFormat == "json" {
		formatted, err := formatters.GlobalRegistry.Format(items, "json")
		if err != nil {
			return err
		}
		output = formatted
	} else {
		var b strings.Builder
		for _, item := range items {
			if cmdConfig.OutputFormat == "markdown" {
				fmt.Fprintf(&b, "<!-- %s -->\n\n", item.File)
			} else {
				fmt.Fprintf(&b, "==> %s <==\n\n", item.File)
			}
			if item.Report == nil {
				fmt.Fprintf(&b, "error: %s\n\n", item.Error)
				continue
			}
			formatted, err := formatters.GlobalRegistry.Format(item.Report, cmdConfig.OutputFormat)
			if err != nil {
				return errors.NewValidationError(errors.ErrCodeInvalidFormat,
					fmt.Sprintf("Failed to format output as %s", cmdConfig.OutputFormat), err)
			}
			b.WriteString(formatted)
			b.WriteString("\n")
		}
		output = b.String()
	}

	if cmdConfig.OutputFile != "" {
		return fp.WriteFile(cmdConfig.OutputFile, output)
	}
	_, err := fmt.Fprintln(os.Stdout, output)
	return err
}
