package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"resumescore/internal/blob"
	"resumescore/internal/common"
	"resumescore/internal/errors"
	"resumescore/internal/jobs"
	"resumescore/internal/queue"
	"resumescore/internal/vocab"
	"resumescore/internal/watch"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Consume analysis jobs from the AMQP queue",
	Long: `Run a pool of consumers on the analysis queue. Each job is analyzed from its
inline text or from an object fetched from the configured bucket, and progress
updates are published to the updates exchange routed as analysis.<job id>.`,
	Args: cobra.NoArgs,
	RunE: runWorker,
}

var (
	enqueueRole      string
	enqueueUser      string
	enqueueObjectKey string
)

var enqueueCmd = &cobra.Command{
	Use:   "enqueue [resume-file]",
	Short: "Submit a resume to the analysis queue",
	Long: `Publish an analysis job. Pass a resume file to send its text inline, or
--object-key to have the worker fetch the file from object storage.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runEnqueue,
}

func init() {
	enqueueCmd.Flags().StringVarP(&enqueueRole, "role", "r", "", "Target role")
	enqueueCmd.Flags().StringVar(&enqueueUser, "user", "", "User id the extracted profile is saved for")
	enqueueCmd.Flags().StringVar(&enqueueObjectKey, "object-key", "", "Object key of an uploaded resume")
	_ = enqueueCmd.RegisterFlagCompletionFunc("role", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return jobs.Roles(), cobra.ShellCompDirectiveNoFileComp
	})
}

func runWorker(cmd *cobra.Command, args []string) error {
	cfg := getConfigFromContext(cmd.Context())
	logger := getLoggerFromContext(cmd.Context())
	ctx := cmd.Context()

	om, err := newObservability(cfg)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := om.Shutdown(shutdownCtx); err != nil {
			logger.LogError(err, "Failed to shutdown observability")
		}
	}()

	p, err := newPipeline(cfg, logger)
	if err != nil {
		return err
	}

	if cfg.Analysis.WatchFiles {
		stop, err := watchPipelineFiles(cfg.Analysis.VocabularyFile, cfg.Analysis.JobsFile, cfg.Analysis.WatchDebounce, p, logger)
		if err != nil {
			return err
		}
		defer stop()
	}

	opts := []queue.ProcessorOption{
		queue.WithRetry(cfg.Queue.RetryAttempts, cfg.Queue.RetryBackoff),
		queue.WithMetrics(om.Metrics()),
	}

	if cfg.Blob.Bucket != "" {
		fetcher, err := blob.NewS3Fetcher(ctx, blob.Config{
			Bucket:    cfg.Blob.Bucket,
			Region:    cfg.Blob.Region,
			Endpoint:  cfg.Blob.Endpoint,
			AccessKey: cfg.Blob.AccessKey,
			SecretKey: cfg.Blob.SecretKey,
			PathStyle: cfg.Blob.PathStyle,
			MaxSize:   cfg.Blob.MaxSize,
		})
		if err != nil {
			return err
		}
		opts = append(opts, queue.WithFetcher(fetcher))
	}

	st, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	if st != nil {
		defer func() {
			if err := st.Close(); err != nil {
				logger.LogError(err, "Failed to close store")
			}
		}()
		opts = append(opts, queue.WithStore(st))
	}

	conn, err := queue.Dial(cfg.Queue.URL)
	if err != nil {
		return err
	}
	defer func() { _ = conn.Close() }()

	qcfg := queue.Config{
		URL:             cfg.Queue.URL,
		Queue:           cfg.Queue.Queue,
		UpdatesExchange: cfg.Queue.UpdatesExchange,
		Workers:         cfg.Queue.Workers,
		Prefetch:        cfg.Queue.Prefetch,
	}
	if qcfg.UpdatesExchange == "" {
		qcfg.UpdatesExchange = "analysis_updates"
	}

	publisher, err := queue.NewAMQPPublisher(conn, qcfg.UpdatesExchange)
	if err != nil {
		return err
	}
	defer func() { _ = publisher.Close() }()

	processor := queue.NewProcessor(p.analyzer, publisher, logger, opts...)

	logger.Info("Starting queue worker",
		"queue", qcfg.Queue,
		"workers", qcfg.Workers,
		"blob_enabled", cfg.Blob.Bucket != "",
		"store", cfg.Store.Driver)

	return queue.NewWorker(qcfg, processor, logger).Run(ctx, conn)
}

// watchPipelineFiles hot reloads the vocabulary and job catalog files
func watchPipelineFiles(vocabFile, jobsFile string, debounce time.Duration, p *pipeline, logger *errors.Logger) (func(), error) {
	var watchers []*watch.FileWatcher
	stop := func() {
		for _, w := range watchers {
			_ = w.Stop()
		}
	}

	if vocabFile != "" {
		watchers = append(watchers, vocab.NewWatcher(vocabFile, p.vocabulary, debounce, logger))
	}
	if jobsFile != "" {
		watchers = append(watchers, watch.New([]string{jobsFile}, debounce, func([]string) {
			if err := p.jobs.Reload(jobsFile); err != nil {
				logger.LogError(err, "Failed to reload job catalog, keeping previous postings", "path", jobsFile)
				return
			}
			logger.Info("Job catalog reloaded", "path", jobsFile, "jobs", p.jobs.Len())
		}, logger))
	}

	for _, w := range watchers {
		if err := w.Start(); err != nil {
			stop()
			return nil, fmt.Errorf("failed to watch %v: %w", w.Files(), err)
		}
	}
	return stop, nil
}

func runEnqueue(cmd *cobra.Command, args []string) error {
	cfg := getConfigFromContext(cmd.Context())
	logger := getLoggerFromContext(cmd.Context())

	job := queue.Job{
		ID:         uuid.NewString(),
		UserID:     enqueueUser,
		TargetRole: enqueueRole,
		ObjectKey:  enqueueObjectKey,
	}

	switch {
	case len(args) == 1 && enqueueObjectKey != "":
		return fmt.Errorf("pass either a resume file or --object-key, not both")
	case len(args) == 1:
		text, err := common.NewFileProcessor(logger, cfg.App.MaxFileSize).ReadDocument(args[0])
		if err != nil {
			return err
		}
		job.Text = text
		job.FileName = filepath.Base(args[0])
	case enqueueObjectKey == "":
		return fmt.Errorf("a resume file or --object-key is required")
	}

	conn, err := queue.Dial(cfg.Queue.URL)
	if err != nil {
		return err
	}
	defer func() { _ = conn.Close() }()

	queueName := cfg.Queue.Queue
	if queueName == "" {
		queueName = "resume_analysis"
	}
	if err := queue.Enqueue(conn, queueName, job); err != nil {
		return err
	}

	logger.Info("Analysis job enqueued", "job_id", job.ID, "queue", queueName, "routing_key", queue.RoutingKey(job.ID))
	fmt.Fprintln(cmd.OutOrStdout(), job.ID)
	return nil
}
