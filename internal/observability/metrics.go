package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics holds all custom metrics. A nil *Metrics records nothing.
type Metrics struct {
	// Analysis pipeline
	AnalysisDuration metric.Float64Histogram
	AnalysesTotal    metric.Int64Counter
	ResumeScore      metric.Int64Histogram
	DocumentsDecoded metric.Int64Counter

	// AI advice
	AIProcessingTime metric.Float64Histogram
	AIRequestCount   metric.Int64Counter
	AIErrorCount     metric.Int64Counter
	AITokenUsage     metric.Int64Histogram

	// Infrastructure
	QueueMessages   metric.Int64Counter
	RateLimitHits   metric.Int64Counter
	FileReloadCount metric.Int64Counter
}

func newMetrics(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{}
	var err error

	histograms := []struct {
		target     *metric.Float64Histogram
		name, desc string
		unit       string
	}{
		{&m.AnalysisDuration, "resumescore_analysis_duration_seconds", "Time spent analyzing one resume", "s"},
		{&m.AIProcessingTime, "resumescore_ai_processing_duration_seconds", "Time spent processing AI requests", "s"},
	}
	for _, h := range histograms {
		if *h.target, err = meter.Float64Histogram(h.name, metric.WithDescription(h.desc), metric.WithUnit(h.unit)); err != nil {
			return nil, fmt.Errorf("failed to create %s metric: %w", h.name, err)
		}
	}

	if m.ResumeScore, err = meter.Int64Histogram(
		"resumescore_resume_score",
		metric.WithDescription("Distribution of total ATS scores"),
		metric.WithExplicitBucketBoundaries(20, 40, 60, 80, 100),
	); err != nil {
		return nil, fmt.Errorf("failed to create resume score metric: %w", err)
	}

	if m.AITokenUsage, err = meter.Int64Histogram(
		"resumescore_ai_token_usage_total",
		metric.WithDescription("Token usage for AI requests (input, output, total)"),
		metric.WithUnit("tokens"),
	); err != nil {
		return nil, fmt.Errorf("failed to create AI token usage metric: %w", err)
	}

	counters := []struct {
		target     *metric.Int64Counter
		name, desc string
	}{
		{&m.AnalysesTotal, "resumescore_analyses_total", "Total number of resume analyses"},
		{&m.DocumentsDecoded, "resumescore_documents_decoded_total", "Total number of uploaded documents decoded"},
		{&m.AIRequestCount, "resumescore_ai_requests_total", "Total number of AI requests"},
		{&m.AIErrorCount, "resumescore_ai_errors_total", "Total number of AI request errors"},
		{&m.QueueMessages, "resumescore_queue_messages_total", "Total number of queue messages handled"},
		{&m.RateLimitHits, "resumescore_rate_limit_hits_total", "Total number of rate limit hits"},
		{&m.FileReloadCount, "resumescore_file_reloads_total", "Total number of watched file reloads"},
	}
	for _, c := range counters {
		if *c.target, err = meter.Int64Counter(c.name, metric.WithDescription(c.desc)); err != nil {
			return nil, fmt.Errorf("failed to create %s metric: %w", c.name, err)
		}
	}

	return m, nil
}

// RecordAnalysis records one finished analysis. source names the entry
// point: http, queue or cli.
func (m *Metrics) RecordAnalysis(ctx context.Context, source string, score int, duration time.Duration, err error) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("source", source),
		attribute.Bool("success", err == nil),
	)
	m.AnalysesTotal.Add(ctx, 1, attrs)
	m.AnalysisDuration.Record(ctx, duration.Seconds(), attrs)
	if err == nil {
		m.ResumeScore.Record(ctx, int64(score), metric.WithAttributes(attribute.String("source", source)))
	}
}

// RecordDocument records one decode attempt for a document kind.
func (m *Metrics) RecordDocument(ctx context.Context, kind string, err error) {
	if m == nil {
		return
	}
	m.DocumentsDecoded.Add(ctx, 1, metric.WithAttributes(
		attribute.String("kind", kind),
		attribute.Bool("success", err == nil),
	))
}

// RecordQueueMessage records a worker outcome: completed, failed or malformed.
func (m *Metrics) RecordQueueMessage(ctx context.Context, outcome string) {
	if m == nil {
		return
	}
	m.QueueMessages.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

// RecordRateLimitHit records a rejected request.
func (m *Metrics) RecordRateLimitHit(ctx context.Context, by string) {
	if m == nil {
		return
	}
	m.RateLimitHits.Add(ctx, 1, metric.WithAttributes(attribute.String("limited_by", by)))
}

// RecordFileReload records a hot reload of a watched file.
func (m *Metrics) RecordFileReload(ctx context.Context, file string, err error) {
	if m == nil {
		return
	}
	m.FileReloadCount.Add(ctx, 1, metric.WithAttributes(
		attribute.String("file", file),
		attribute.Bool("success", err == nil),
	))
}

// TokenUsage represents token usage information from AI responses
type TokenUsage struct {
	InputTokens  int64
	OutputTokens int64
	TotalTokens  int64
}

// RecordAIOperation records duration, outcome and token usage of one AI call.
func (m *Metrics) RecordAIOperation(ctx context.Context, operation string, duration time.Duration, usage *TokenUsage, err error) {
	if m == nil {
		return
	}
	attrs := []attribute.KeyValue{
		attribute.String("operation", operation),
		attribute.Bool("success", err == nil),
	}

	m.AIProcessingTime.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
	m.AIRequestCount.Add(ctx, 1, metric.WithAttributes(attrs...))
	if err != nil {
		m.AIErrorCount.Add(ctx, 1, metric.WithAttributes(attrs...))
	}

	if usage == nil {
		return
	}
	for _, t := range []struct {
		tokenType string
		value     int64
	}{
		{"input", usage.InputTokens},
		{"output", usage.OutputTokens},
		{"total", usage.TotalTokens},
	} {
		m.AITokenUsage.Record(ctx, t.value, metric.WithAttributes(
			attribute.String("operation", operation),
			attribute.String("token_type", t.tokenType),
		))
	}
}
