package server

import (
	"time"

	"resumescore/internal/ai"
	"resumescore/internal/analysis"
	"resumescore/internal/config"
	"resumescore/internal/errors"
	"resumescore/internal/jobs"
	"resumescore/internal/observability"
	"resumescore/internal/store"
	"resumescore/internal/types"
	"resumescore/internal/vocab"
	"resumescore/internal/watch"

	"github.com/go-playground/validator/v10"
)

// AnalyzeRequest is the JSON body of the analysis routes
type AnalyzeRequest struct {
	Text       string `json:"text" validate:"required,max=200000"`
	TargetRole string `json:"targetRole" validate:"max=100"`
}

// ProfileRequest saves a profile, either given directly or extracted from text
type ProfileRequest struct {
	TargetRole string                  `json:"targetRole" validate:"max=100"`
	Text       string                  `json:"text" validate:"required_without=Profile,max=200000"`
	Profile    *types.CandidateProfile `json:"profile"`
}

// TrackApplicationRequest creates or replaces an application
type TrackApplicationRequest struct {
	Status string `json:"status" validate:"omitempty,oneof=saved applied interview offer rejected withdrawn"`
	Notes  string `json:"notes" validate:"max=2000"`
}

// UpdateApplicationRequest changes the status of an application. Nil notes
// keep the stored notes.
type UpdateApplicationRequest struct {
	Status string  `json:"status" validate:"required,oneof=saved applied interview offer rejected withdrawn"`
	Notes  *string `json:"notes" validate:"omitempty,max=2000"`
}

// AdviseResponse pairs the deterministic report with the AI advice
type AdviseResponse struct {
	Report *types.AnalysisReport `json:"report"`
	Advice *types.Advice         `json:"advice"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Code    string `json:"code,omitempty"`
}

// Deps are the collaborators the server routes to. Store and AI may be nil.
type Deps struct {
	Analyzer      *analysis.Analyzer
	AI            *ai.Service
	Store         store.Store
	Vocabulary    *vocab.Holder
	Jobs          *jobs.Holder
	Observability *observability.Manager
}

// Server holds configuration for the HTTP server
type Server struct {
	Version string

	config   config.ServerConfig
	analysis config.AnalysisConfig

	analyzer   *analysis.Analyzer
	ai         *ai.Service
	store      store.Store
	vocabulary *vocab.Holder
	jobs       *jobs.Holder
	obs        *observability.Manager
	metrics    *observability.Metrics

	// API Authentication
	apiKeys map[string]bool
	jwt     *JWTService

	RateLimiter *LimiterManager
	validate    *validator.Validate

	certs    *certReloader
	watchers []*watch.FileWatcher

	logger    *errors.Logger
	startedAt time.Time
}

// NewServer creates a Server from the application configuration
func NewServer(cfg *config.Config, deps Deps, version string, logger *errors.Logger) (*Server, error) {
	if logger == nil {
		logger = errors.Discard()
	}
	if deps.Vocabulary == nil {
		deps.Vocabulary = vocab.NewHolder(nil)
	}
	if deps.Jobs == nil {
		deps.Jobs = jobs.NewHolder(nil)
	}
	if deps.Analyzer == nil {
		deps.Analyzer = analysis.NewAnalyzer(deps.Vocabulary, deps.Jobs, analysis.Options{MinLength: cfg.Analysis.MinLength}, logger)
	}

	// Convert API keys slice to map for O(1) lookup
	apiKeyMap := make(map[string]bool)
	for _, key := range cfg.Server.APIKeys {
		if key != "" {
			apiKeyMap[key] = true
		}
	}

	s := &Server{
		Version:    version,
		config:     cfg.Server,
		analysis:   cfg.Analysis,
		analyzer:   deps.Analyzer,
		ai:         deps.AI,
		store:      deps.Store,
		vocabulary: deps.Vocabulary,
		jobs:       deps.Jobs,
		obs:        deps.Observability,
		metrics:    deps.Observability.Metrics(),
		apiKeys:    apiKeyMap,
		validate:   validator.New(validator.WithRequiredStructEnabled()),
		logger:     logger,
		startedAt:  time.Now(),
	}

	if cfg.Server.JWT.Secret != "" {
		jwtService, err := NewJWTService(cfg.Server.JWT)
		if err != nil {
			return nil, err
		}
		s.jwt = jwtService
	}

	if cfg.Server.RateLimit.Enabled {
		s.RateLimiter = NewRateLimiter(cfg.Server.RateLimit.RequestsPerMin, cfg.Server.RateLimit.BurstCapacity, logger)
	}

	return s, nil
}

// userRoutesEnabled reports whether /me routes can serve requests
func (s *Server) userRoutesEnabled() bool {
	return s.jwt != nil && s.store != nil
}
