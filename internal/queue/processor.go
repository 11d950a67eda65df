package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"resumescore/internal/analysis"
	"resumescore/internal/blob"
	"resumescore/internal/document"
	"resumescore/internal/errors"
	"resumescore/internal/observability"
	"resumescore/internal/store"
	"resumescore/internal/types"
)

// Publisher delivers job updates.
type Publisher interface {
	Publish(ctx context.Context, update Update) error
}

// Processor turns a Job into an AnalysisReport and publishes its progress.
type Processor struct {
	analyzer  *analysis.Analyzer
	fetcher   blob.Fetcher
	store     store.Store
	publisher Publisher
	metrics   *observability.Metrics
	logger    *errors.Logger
	attempts  int
	backoff   time.Duration
	now       func() time.Time
}

// ProcessorOption customizes a Processor.
type ProcessorOption func(*Processor)

// WithFetcher enables jobs that reference an object key.
func WithFetcher(f blob.Fetcher) ProcessorOption {
	return func(p *Processor) { p.fetcher = f }
}

// WithStore saves the extracted profile of jobs that carry a user id.
func WithStore(s store.Store) ProcessorOption {
	return func(p *Processor) { p.store = s }
}

// WithMetrics records job outcomes and analysis timings.
func WithMetrics(m *observability.Metrics) ProcessorOption {
	return func(p *Processor) { p.metrics = m }
}

// WithRetry sets how many times transient fetch and publish failures are
// retried, and the base backoff between attempts.
func WithRetry(attempts int, backoff time.Duration) ProcessorOption {
	return func(p *Processor) {
		p.attempts = attempts
		p.backoff = backoff
	}
}

// NewProcessor creates a processor.
func NewProcessor(analyzer *analysis.Analyzer, publisher Publisher, logger *errors.Logger, opts ...ProcessorOption) *Processor {
	if logger == nil {
		logger = errors.Discard()
	}
	p := &Processor{
		analyzer:  analyzer,
		publisher: publisher,
		logger:    logger,
		attempts:  3,
		backoff:   500 * time.Millisecond,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// HandleMessage decodes and processes one delivery body. The returned error
// is only set when the message itself is malformed or the final update
// could not be published.
func (p *Processor) HandleMessage(ctx context.Context, body []byte) error {
	var job Job
	if err := json.Unmarshal(body, &job); err != nil {
		p.metrics.RecordQueueMessage(ctx, "malformed")
		return errors.NewValidationError(errors.ErrCodeInvalidRequest, "malformed job message", err)
	}
	if strings.TrimSpace(job.ID) == "" {
		p.metrics.RecordQueueMessage(ctx, "malformed")
		return errors.NewValidationError(errors.ErrCodeInvalidRequest, "job message has no id", nil)
	}
	return p.Handle(ctx, job)
}

// Handle processes a job and publishes processing, then completed or failed.
func (p *Processor) Handle(ctx context.Context, job Job) error {
	logger := p.logger.With("job_id", job.ID, "user_id", job.UserID)
	logger.Info("Processing analysis job", "target_role", job.TargetRole, "object_key", job.ObjectKey)

	if err := p.publish(ctx, Update{JobID: job.ID, UserID: job.UserID, Status: StatusProcessing}); err != nil {
		logger.LogError(err, "Failed to publish processing update")
	}

	report, err := p.process(ctx, job)
	if err != nil {
		p.metrics.RecordQueueMessage(ctx, "failed")
		logger.LogError(err, "Analysis job failed")
		update := Update{JobID: job.ID, UserID: job.UserID, Status: StatusFailed, Error: err.Error()}
		if appErr, ok := errors.As(err); ok {
			update.ErrorCode = appErr.Code
			update.Error = appErr.Message
		}
		return p.publish(ctx, update)
	}

	p.metrics.RecordQueueMessage(ctx, "completed")
	logger.Info("Analysis job completed", "report_id", report.ID, "total_score", report.Score.TotalScore)
	return p.publish(ctx, Update{JobID: job.ID, UserID: job.UserID, Status: StatusCompleted, Report: report})
}

func (p *Processor) process(ctx context.Context, job Job) (*types.AnalysisReport, error) {
	text, err := p.text(ctx, job)
	if err != nil {
		return nil, err
	}

	start := p.now()
	report, err := p.analyzer.Analyze(ctx, analysis.Request{Text: text, TargetRole: job.TargetRole})
	if err != nil {
		p.metrics.RecordAnalysis(ctx, "queue", 0, p.now().Sub(start), err)
		return nil, err
	}
	p.metrics.RecordAnalysis(ctx, "queue", report.Score.TotalScore, p.now().Sub(start), nil)

	if p.store != nil && job.UserID != "" {
		if _, err := p.store.SaveProfile(ctx, job.UserID, job.TargetRole, report.Profile); err != nil {
			p.logger.LogError(err, "Failed to save extracted profile", "job_id", job.ID)
		}
	}
	return report, nil
}

func (p *Processor) text(ctx context.Context, job Job) (string, error) {
	if job.Text != "" {
		return job.Text, nil
	}
	if job.ObjectKey == "" {
		return "", errors.NewValidationError(errors.ErrCodeInvalidRequest, "job has neither text nor object key", nil)
	}
	if p.fetcher == nil {
		return "", errors.NewConfigError(errors.ErrCodeInvalidConfig, "object storage is not configured", nil)
	}

	obj, err := retry(ctx, p.attempts, p.backoff, func() (*blob.Object, error) {
		return p.fetcher.Fetch(ctx, job.ObjectKey)
	})
	if err != nil {
		return "", err
	}

	contentType := job.ContentType
	if contentType == "" {
		contentType = obj.ContentType
	}
	name := job.FileName
	if name == "" {
		name = job.ObjectKey
	}
	kind, err := document.Detect(name, contentType)
	if err != nil {
		p.metrics.RecordDocument(ctx, "unknown", err)
		return "", err
	}
	text, err := document.DecodeKind(kind, obj.Data)
	p.metrics.RecordDocument(ctx, string(kind), err)
	return text, err
}

func (p *Processor) publish(ctx context.Context, update Update) error {
	if p.publisher == nil {
		return nil
	}
	update.Time = p.now().UTC()
	_, err := retry(ctx, p.attempts, p.backoff, func() (struct{}, error) {
		return struct{}{}, p.publisher.Publish(ctx, update)
	})
	return err
}

// retry runs fn up to attempts times, waiting backoff*(i+1) between tries.
// Validation and not-found errors are returned immediately.
func retry[T any](ctx context.Context, attempts int, backoff time.Duration, fn func() (T, error)) (T, error) {
	var zero T
	var lastErr error
	if attempts < 1 {
		attempts = 1
	}

	for i := 0; i < attempts; i++ {
		result, err := fn()
		if err == nil {
			return result, nil
		}
		lastErr = err
		if !retryable(err) || i == attempts-1 {
			break
		}

		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-time.After(backoff * time.Duration(i+1)):
		}
	}
	if attempts > 1 && retryable(lastErr) {
		return zero, fmt.Errorf("after %d attempts: %w", attempts, lastErr)
	}
	return zero, lastErr
}

func retryable(err error) bool {
	appErr, ok := errors.As(err)
	if !ok {
		return true
	}
	if appErr.Code == errors.ErrCodeNotFound {
		return false
	}
	return appErr.Type == errors.ErrorTypeNetwork || appErr.Type == errors.ErrorTypeStorage
}
