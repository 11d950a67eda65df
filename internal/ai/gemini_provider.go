package ai

import (
	"context"
	"crypto/rand"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"math"
	"math/big"
	"net"
	"net/http"
	"time"

	"resumescore/internal/config"
	"resumescore/internal/errors"
	"resumescore/internal/observability"
	"resumescore/internal/types"

	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"google.golang.org/api/googleapi"
	"google.golang.org/genai"
)

const (
	operationAdvise   = "advise"
	modelCheckTimeout = 10 * time.Second
	maxBackoff        = 30 * time.Second
)

// modelsAPI is the part of genai.Models the provider calls.
type modelsAPI interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
	Get(ctx context.Context, model string, config *genai.GetModelConfig) (*genai.Model, error)
}

// GeminiProvider implements AIProvider for Google Gemini
type GeminiProvider struct {
	models         modelsAPI
	config         config.AIConfig
	prompts        Prompts
	circuitBreaker *CircuitBreaker[*genai.GenerateContentResponse]
	modelBreaker   *CircuitBreaker[*genai.Model]
	baseDelay      time.Duration
	logger         *errors.Logger
}

var _ AIProvider = (*GeminiProvider)(nil)

// NewGeminiProvider creates a Gemini client for the advice operation
func NewGeminiProvider(ctx context.Context, cfg config.AIConfig, logger *errors.Logger) (*GeminiProvider, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, errors.NewAIError(errors.ErrCodeAIServiceFailed, "Failed to create Gemini client", err)
	}
	return newGeminiProvider(client.Models, cfg, logger), nil
}

func newGeminiProvider(models modelsAPI, cfg config.AIConfig, logger *errors.Logger) *GeminiProvider {
	if logger == nil {
		logger = errors.Discard()
	}
	modelBreakerConfig := cfg.CircuitBreaker
	// Model lookups only feed health checks, so they trip later.
	modelBreakerConfig.MinRequests = max(modelBreakerConfig.MinRequests, 5)
	modelBreakerConfig.FailureThreshold = max(modelBreakerConfig.FailureThreshold, 0.8)

	return &GeminiProvider{
		models:         models,
		config:         cfg,
		prompts:        ResolvePrompts(cfg.Prompts),
		circuitBreaker: NewCircuitBreaker[*genai.GenerateContentResponse](operationAdvise, cfg.CircuitBreaker, logger),
		modelBreaker:   NewCircuitBreaker[*genai.Model]("Model-"+operationAdvise, modelBreakerConfig, logger),
		baseDelay:      time.Second,
		logger:         logger,
	}
}

// GetModelInfo checks the readiness and availability of the configured model
func (g *GeminiProvider) GetModelInfo(ctx context.Context) *ModelInfo {
	info := &ModelInfo{Name: g.config.Model}

	checkCtx, cancel := context.WithTimeout(ctx, modelCheckTimeout)
	defer cancel()

	model, err := g.modelBreaker.Execute(func() (*genai.Model, error) {
		return g.models.Get(checkCtx, g.config.Model, &genai.GetModelConfig{})
	})
	if err != nil {
		info.Error = fmt.Sprintf("Failed to get model info: %v", err)
		g.logger.Warn("Model availability check failed",
			"model", g.config.Model,
			"error", err.Error())
		return info
	}

	info.Available = true
	info.DisplayName = model.DisplayName
	info.Version = model.Version
	return info
}

// Advise asks the model for structured rewrite advice
func (g *GeminiProvider) Advise(ctx context.Context, input AdviceInput) (types.Advice, *observability.TokenUsage, error) {
	tracer := otel.Tracer("resumescore.ai.gemini")
	ctx, span := tracer.Start(ctx, "gemini."+operationAdvise)
	defer span.End()

	span.SetAttributes(
		attribute.String("ai.provider", "gemini"),
		attribute.String("ai.model", g.config.Model),
		attribute.Int("input.resume_length", len(input.Text)),
		attribute.Int("input.score", input.Report.Score.TotalScore),
	)

	genConfig := g.buildAdviceSchema()
	if g.config.UseSystemPrompts && g.prompts.System != "" {
		genConfig.SystemInstruction = genai.NewContentFromText(g.prompts.System, genai.RoleUser)
	}
	userPrompt := g.prompts.RenderUser(input)

	if g.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.config.Timeout)
		defer cancel()
	}

	result, err := g.circuitBreaker.Execute(func() (*genai.GenerateContentResponse, error) {
		return g.executeWithRetry(ctx, operationAdvise, func() (*genai.GenerateContentResponse, error) {
			return g.models.GenerateContent(ctx, g.config.Model, genai.Text(userPrompt), genConfig)
		})
	})
	if err != nil {
		span.RecordError(err)
		span.SetAttributes(attribute.Bool("success", false))
		return types.Advice{}, nil, classifyError(err)
	}

	var advice types.Advice
	if err := json.Unmarshal([]byte(result.Text()), &advice); err != nil {
		span.RecordError(err)
		span.SetAttributes(attribute.Bool("success", false))
		return types.Advice{}, nil, errors.NewAIError(errors.ErrCodeAIResponseInvalid,
			"Failed to parse AI response for "+operationAdvise, err)
	}
	normalizeAdvice(&advice)

	usage := extractTokenUsage(result)
	if usage != nil {
		span.SetAttributes(
			attribute.Int64("ai.tokens.input", usage.InputTokens),
			attribute.Int64("ai.tokens.output", usage.OutputTokens),
			attribute.Int64("ai.tokens.total", usage.TotalTokens),
		)
	}
	span.SetAttributes(
		attribute.Bool("success", true),
		attribute.Int("output.rewrites", len(advice.Rewrites)),
	)

	return advice, usage, nil
}

// executeWithRetry executes an AI operation with retry logic and exponential backoff
func (g *GeminiProvider) executeWithRetry(ctx context.Context, operation string, fn func() (*genai.GenerateContentResponse, error)) (*genai.GenerateContentResponse, error) {
	var lastErr error
	maxRetries := max(g.config.MaxRetries, 0)

	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			g.logger.Warn("Retrying AI operation",
				"operation", operation,
				"attempt", attempt,
				"max_retries", maxRetries,
				"error", lastErr.Error())

			select {
			case <-time.After(g.backoff(attempt)):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		result, err := fn()
		if err == nil {
			if attempt > 0 {
				g.logger.Info("AI operation succeeded after retry",
					"operation", operation,
					"total_attempts", attempt+1)
			}
			return result, nil
		}

		lastErr = err
		if !isRetryableError(err) {
			break
		}
	}

	g.logger.LogError(lastErr, "AI operation failed",
		"operation", operation,
		"max_retries", maxRetries)

	return nil, fmt.Errorf("operation '%s' failed: %w", operation, lastErr)
}

// backoff doubles the base delay per attempt, adds up to 10% jitter and caps at maxBackoff
func (g *GeminiProvider) backoff(attempt int) time.Duration {
	delay := time.Duration(math.Pow(2, float64(attempt-1))) * g.baseDelay
	if jitterMax := int64(float64(delay) * 0.1); jitterMax > 0 {
		if jitter, err := rand.Int(rand.Reader, big.NewInt(jitterMax)); err == nil {
			delay += time.Duration(jitter.Int64())
		}
	}
	return min(delay, maxBackoff)
}

// isRetryableError determines if an error should trigger a retry
func isRetryableError(err error) bool {
	if err == nil || stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var netErr net.Error
	if stderrors.As(err, &netErr) {
		return true
	}

	var apiErr *googleapi.Error
	if stderrors.As(err, &apiErr) {
		return retryableStatus(apiErr.Code)
	}

	var genaiErr genai.APIError
	if stderrors.As(err, &genaiErr) {
		return retryableStatus(genaiErr.Code)
	}

	return false
}

func retryableStatus(code int) bool {
	switch code {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}

// classifyError maps a failed call to an application error
func classifyError(err error) error {
	switch {
	case stderrors.Is(err, context.DeadlineExceeded):
		return errors.NewAIError(errors.ErrCodeAITimeout, "AI request timed out", err)
	case stderrors.Is(err, gobreaker.ErrOpenState), stderrors.Is(err, gobreaker.ErrTooManyRequests):
		return errors.NewAIError(errors.ErrCodeAIServiceFailed, "AI service temporarily unavailable", err).
			WithContext("circuit_breaker", "open")
	default:
		return errors.NewAIError(errors.ErrCodeAIServiceFailed, "Failed to generate advice", err)
	}
}

// buildAdviceSchema creates the structured output schema for advice
func (g *GeminiProvider) buildAdviceSchema() *genai.GenerateContentConfig {
	stringList := &genai.Schema{
		Type:  genai.TypeArray,
		Items: &genai.Schema{Type: genai.TypeString},
	}

	cfg := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"headline": {Type: genai.TypeString},
				"rewrites": {
					Type: genai.TypeArray,
					Items: &genai.Schema{
						Type: genai.TypeObject,
						Properties: map[string]*genai.Schema{
							"section":   {Type: genai.TypeString},
							"original":  {Type: genai.TypeString},
							"suggested": {Type: genai.TypeString},
							"reason":    {Type: genai.TypeString},
						},
						Required: []string{"section", "original", "suggested", "reason"},
					},
				},
				"missingKeywords": stringList,
				"nextSteps":       stringList,
			},
			Required: []string{"headline", "rewrites", "missingKeywords", "nextSteps"},
		},
	}

	if g.config.Temperature > 0 {
		temperature := g.config.Temperature
		cfg.Temperature = &temperature
	}

	return cfg
}

// Stats returns circuit breaker statistics
func (g *GeminiProvider) Stats() map[string]any {
	return map[string]any{
		"ai_operations":    g.circuitBreaker.Stats(),
		"model_operations": g.modelBreaker.Stats(),
		"overall_healthy":  g.circuitBreaker.IsHealthy() && g.modelBreaker.IsHealthy(),
	}
}

// Close implements AIProvider; the genai client holds no resources in unary mode
func (g *GeminiProvider) Close() error {
	return nil
}

func normalizeAdvice(a *types.Advice) {
	if a.Rewrites == nil {
		a.Rewrites = []types.AdviceRewrite{}
	}
	if a.MissingKeywords == nil {
		a.MissingKeywords = []string{}
	}
	if a.NextSteps == nil {
		a.NextSteps = []string{}
	}
}

// extractTokenUsage extracts token usage information from a Gemini response
func extractTokenUsage(result *genai.GenerateContentResponse) *observability.TokenUsage {
	if result == nil || result.UsageMetadata == nil {
		return nil
	}

	usage := result.UsageMetadata
	return &observability.TokenUsage{
		InputTokens:  int64(usage.PromptTokenCount),
		OutputTokens: int64(usage.CandidatesTokenCount),
		TotalTokens:  int64(usage.TotalTokenCount),
	}
}
