package ai

import (
	"context"

	"resumescore/internal/observability"
	"resumescore/internal/types"
)

// AdviceInput is the resume text together with its deterministic analysis.
type AdviceInput struct {
	Text   string
	Report types.AnalysisReport
}

// AIProvider is implemented by each model backend
type AIProvider interface {
	Advise(ctx context.Context, input AdviceInput) (types.Advice, *observability.TokenUsage, error)
	GetModelInfo(ctx context.Context) *ModelInfo
	Close() error
}

// Advisor is what the HTTP layer and CLI depend on.
type Advisor interface {
	Advise(ctx context.Context, input AdviceInput) (*types.Advice, error)
}

// ModelInfo represents information about the AI model
type ModelInfo struct {
	Name        string `json:"name"`
	DisplayName string `json:"displayName,omitempty"`
	Version     string `json:"version,omitempty"`
	Available   bool   `json:"available"`
	Error       string `json:"error,omitempty"`
}
