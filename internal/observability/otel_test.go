package observability

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"resumescore/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func testConfig() config.ObservabilityConfig {
	return config.ObservabilityConfig{
		Enabled:     true,
		ServiceName: "resumescore-test",
		SampleRate:  1,
		Metrics:     config.MetricsConfig{Enabled: true},
	}
}

func metricNames(t *testing.T, reader *sdkmetric.ManualReader) map[string]bool {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	names := map[string]bool{}
	for _, scope := range rm.ScopeMetrics {
		for _, m := range scope.Metrics {
			names[m.Name] = true
		}
	}
	return names
}

func TestManagerRecordsMetrics(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	m, err := NewManager(testConfig(), "1.0.0", WithMetricReader(reader))
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Shutdown(context.Background()) })

	ctx := context.Background()
	metrics := m.Metrics()
	require.NotNil(t, metrics)

	metrics.RecordAnalysis(ctx, "http", 41, 20*time.Millisecond, nil)
	metrics.RecordDocument(ctx, "pdf", errors.New("unreadable"))
	metrics.RecordQueueMessage(ctx, "completed")
	metrics.RecordRateLimitHit(ctx, "ip")
	metrics.RecordFileReload(ctx, "vocabulary", nil)
	metrics.RecordAIOperation(ctx, "advise", time.Second, &TokenUsage{InputTokens: 10, OutputTokens: 5, TotalTokens: 15}, nil)

	names := metricNames(t, reader)
	for _, want := range []string{
		"resumescore_analyses_total",
		"resumescore_analysis_duration_seconds",
		"resumescore_resume_score",
		"resumescore_documents_decoded_total",
		"resumescore_queue_messages_total",
		"resumescore_rate_limit_hits_total",
		"resumescore_file_reloads_total",
		"resumescore_ai_requests_total",
		"resumescore_ai_token_usage_total",
	} {
		assert.True(t, names[want], "missing metric %s", want)
	}
	assert.False(t, names["resumescore_ai_errors_total"], "no AI error was recorded")
}

func TestDisabledManagerIsNoop(t *testing.T) {
	m, err := NewManager(config.ObservabilityConfig{Enabled: false}, "dev")
	require.NoError(t, err)
	assert.Nil(t, m.Metrics())

	// Nil metrics accept every call.
	m.Metrics().RecordAnalysis(context.Background(), "cli", 10, time.Millisecond, nil)
	m.Metrics().RecordAIOperation(context.Background(), "advise", time.Millisecond, nil, errors.New("x"))

	handler := m.HTTPMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)

	_, span := m.Tracer("test").Start(context.Background(), "op")
	span.End()
	assert.NoError(t, m.Shutdown(context.Background()))
}

func TestNilManager(t *testing.T) {
	var m *Manager
	assert.Nil(t, m.Metrics())
	assert.NoError(t, m.Shutdown(context.Background()))
}

func TestHTTPMiddlewareEnabled(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	m, err := NewManager(testConfig(), "1.0.0", WithMetricReader(reader))
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Shutdown(context.Background()) })

	handler := m.HTTPMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
}
