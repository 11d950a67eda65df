package ai

import (
	"context"
	"fmt"
	"strings"
	"time"

	"resumescore/internal/config"
	"resumescore/internal/errors"
	"resumescore/internal/observability"
	"resumescore/internal/types"
)

// Service wraps a provider with validation, metrics and logging. A nil
// *Service reports AI_DISABLED for every call.
type Service struct {
	Provider AIProvider
	metrics  *observability.Metrics
	logger   *errors.Logger
}

var _ Advisor = (*Service)(nil)

// NewService creates the AI service, or returns nil when AI is disabled.
func NewService(ctx context.Context, cfg config.AIConfig, logger *errors.Logger, metrics *observability.Metrics) (*Service, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	if logger == nil {
		logger = errors.Discard()
	}

	logger.Debug("Initializing AI service",
		"provider", cfg.Provider,
		"model", cfg.Model,
		"temperature", cfg.Temperature,
		"timeout", cfg.Timeout,
		"max_retries", cfg.MaxRetries,
		"use_system_prompts", cfg.UseSystemPrompts)

	var provider AIProvider
	var err error
	switch cfg.Provider {
	case "gemini", "":
		provider, err = NewGeminiProvider(ctx, cfg, logger)
	default:
		return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig,
			fmt.Sprintf("Unsupported AI provider: %s", cfg.Provider), nil)
	}
	if err != nil {
		return nil, errors.NewAIError(errors.ErrCodeAIServiceFailed,
			"Failed to create AI provider", err)
	}

	return NewServiceWithProvider(provider, logger, metrics), nil
}

// NewServiceWithProvider wraps an existing provider.
func NewServiceWithProvider(provider AIProvider, logger *errors.Logger, metrics *observability.Metrics) *Service {
	if logger == nil {
		logger = errors.Discard()
	}
	return &Service{Provider: provider, metrics: metrics, logger: logger}
}

// Enabled reports whether calls reach a provider.
func (s *Service) Enabled() bool {
	return s != nil && s.Provider != nil
}

// Advise returns rewrite advice for the resume behind input.Report.
func (s *Service) Advise(ctx context.Context, input AdviceInput) (*types.Advice, error) {
	if !s.Enabled() {
		return nil, errors.NewAIError(errors.ErrCodeAIDisabled, "AI advice is not enabled", nil)
	}
	if strings.TrimSpace(input.Text) == "" {
		return nil, errors.NewValidationError(errors.ErrCodeInvalidRequest, "Resume text is required", nil)
	}

	s.logger.Debug("Requesting AI advice",
		"resume_length", len(input.Text),
		"score", input.Report.Score.TotalScore,
		"target_role", input.Report.Score.TargetRole)

	start := time.Now()
	advice, usage, err := s.Provider.Advise(ctx, input)
	duration := time.Since(start)
	s.metrics.RecordAIOperation(ctx, operationAdvise, duration, usage, err)

	if err != nil {
		s.logger.LogError(err, "AI advice failed", "duration", duration)
		return nil, err
	}

	s.logger.Info("AI advice completed",
		"duration", duration,
		"rewrites", len(advice.Rewrites),
		"missing_keywords", len(advice.MissingKeywords))
	return &advice, nil
}

// GetModelInfo returns information about the AI model for health checks
func (s *Service) GetModelInfo(ctx context.Context) *ModelInfo {
	if !s.Enabled() {
		return &ModelInfo{Error: "AI is disabled"}
	}
	return s.Provider.GetModelInfo(ctx)
}

// Close releases the provider.
func (s *Service) Close() error {
	if !s.Enabled() {
		return nil
	}
	return s.Provider.Close()
}
