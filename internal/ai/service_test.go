package ai

import (
	"context"
	"testing"

	"resumescore/internal/config"
	"resumescore/internal/errors"
	"resumescore/internal/observability"
	"resumescore/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubProvider struct {
	advice types.Advice
	err    error
	calls  int
	closed bool
}

func (s *stubProvider) Advise(context.Context, AdviceInput) (types.Advice, *observability.TokenUsage, error) {
	s.calls++
	if s.err != nil {
		return types.Advice{}, nil, s.err
	}
	return s.advice, &observability.TokenUsage{InputTokens: 1, OutputTokens: 2, TotalTokens: 3}, nil
}

func (s *stubProvider) GetModelInfo(context.Context) *ModelInfo {
	return &ModelInfo{Name: "stub", Available: true}
}

func (s *stubProvider) Close() error {
	s.closed = true
	return nil
}

func TestNewServiceDisabled(t *testing.T) {
	svc, err := NewService(context.Background(), config.AIConfig{Enabled: false}, nil, nil)
	require.NoError(t, err)
	assert.Nil(t, svc)
	assert.False(t, svc.Enabled())
}

func TestNewServiceUnsupportedProvider(t *testing.T) {
	_, err := NewService(context.Background(), config.AIConfig{Enabled: true, Provider: "openai", APIKey: "k"}, nil, nil)
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeInvalidConfig))
}

func TestNilServiceReportsDisabled(t *testing.T) {
	var svc *Service

	_, err := svc.Advise(context.Background(), sampleInput())
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeAIDisabled))
	assert.Equal(t, 503, errors.HTTPStatus(err))

	assert.NotEmpty(t, svc.GetModelInfo(context.Background()).Error)
	assert.NoError(t, svc.Close())
}

func TestServiceAdvise(t *testing.T) {
	provider := &stubProvider{advice: types.Advice{Headline: "Add metrics", Rewrites: []types.AdviceRewrite{}}}
	svc := NewServiceWithProvider(provider, nil, nil)

	advice, err := svc.Advise(context.Background(), sampleInput())
	require.NoError(t, err)
	assert.Equal(t, "Add metrics", advice.Headline)
	assert.Equal(t, 1, provider.calls)

	info := svc.GetModelInfo(context.Background())
	assert.Equal(t, "stub", info.Name)

	require.NoError(t, svc.Close())
	assert.True(t, provider.closed)
}

func TestServiceRejectsEmptyText(t *testing.T) {
	provider := &stubProvider{}
	svc := NewServiceWithProvider(provider, nil, nil)

	_, err := svc.Advise(context.Background(), AdviceInput{Text: "   "})
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeInvalidRequest))
	assert.Zero(t, provider.calls)
}

func TestServicePropagatesProviderError(t *testing.T) {
	provider := &stubProvider{err: errors.NewAIError(errors.ErrCodeAITimeout, "timed out", context.DeadlineExceeded)}
	svc := NewServiceWithProvider(provider, nil, nil)

	_, err := svc.Advise(context.Background(), sampleInput())
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeAITimeout))
}
