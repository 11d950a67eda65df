package server

import (
	"net/http"
	"strings"

	"resumescore/internal/errors"

	"github.com/google/uuid"
)

// Handler returns the complete HTTP handler with middleware applied
func (s *Server) Handler() http.Handler {
	return s.requestIDMiddleware(s.obs.HTTPMiddleware()(s.setupRoutes()))
}

// setupRoutes configures all HTTP routes and middleware
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	analysisRoute := func(h http.HandlerFunc) http.HandlerFunc {
		return s.rateLimitMiddleware(s.authMiddleware(s.requestSizeLimitMiddleware(h)))
	}
	userRoute := func(h http.HandlerFunc) http.HandlerFunc {
		return s.rateLimitMiddleware(s.userAuthMiddleware(s.requestSizeLimitMiddleware(h)))
	}

	mux.HandleFunc("GET /health", s.healthHandler)
	mux.HandleFunc("GET /stats", s.statsHandler)

	mux.HandleFunc("POST /extract", analysisRoute(s.extractHandler))
	mux.HandleFunc("POST /score", analysisRoute(s.scoreHandler))
	mux.HandleFunc("POST /match", analysisRoute(s.matchHandler))
	mux.HandleFunc("POST /analyze", analysisRoute(s.analyzeHandler))
	mux.HandleFunc("POST /advise", analysisRoute(s.adviseHandler))
	mux.HandleFunc("GET /jobs", analysisRoute(s.jobsHandler))
	mux.HandleFunc("GET /templates", analysisRoute(s.templatesHandler))

	mux.HandleFunc("GET /me/profile", userRoute(s.getProfileHandler))
	mux.HandleFunc("PUT /me/profile", userRoute(s.putProfileHandler))
	mux.HandleFunc("GET /me/saved-jobs", userRoute(s.listSavedJobsHandler))
	mux.HandleFunc("PUT /me/saved-jobs/{jobID}", userRoute(s.saveJobHandler))
	mux.HandleFunc("DELETE /me/saved-jobs/{jobID}", userRoute(s.unsaveJobHandler))
	mux.HandleFunc("GET /me/applications", userRoute(s.listApplicationsHandler))
	mux.HandleFunc("GET /me/applications/stats", userRoute(s.applicationStatsHandler))
	mux.HandleFunc("PUT /me/applications/{jobID}", userRoute(s.trackApplicationHandler))
	mux.HandleFunc("PATCH /me/applications/{jobID}", userRoute(s.updateApplicationHandler))
	mux.HandleFunc("DELETE /me/applications/{jobID}", userRoute(s.deleteApplicationHandler))

	return mux
}

// authMiddleware provides API key authentication
func (s *Server) authMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// Skip authentication if no API keys are configured
		if len(s.apiKeys) == 0 {
			next(w, r)
			return
		}

		apiKey := requestAPIKey(r)
		if apiKey == "" {
			s.logger.Info("Authentication failed: missing API key",
				"endpoint", r.URL.Path,
				"client_ip", getClientIP(r))
			writeAppError(w, errors.NewAuthError(errors.ErrCodeMissingAPIKey,
				"X-API-Key header or Authorization Bearer token required", nil))
			return
		}

		if !s.apiKeys[apiKey] {
			s.logger.Info("Authentication failed: invalid API key",
				"endpoint", r.URL.Path,
				"client_ip", getClientIP(r),
				"api_key_prefix", maskAPIKey(apiKey))
			writeAppError(w, errors.NewAuthError(errors.ErrCodeMissingAPIKey, "Invalid API key", nil))
			return
		}

		s.logger.Debug("API authentication successful",
			"endpoint", r.URL.Path,
			"api_key_prefix", maskAPIKey(apiKey))

		next(w, r)
	}
}

// userAuthMiddleware requires a bearer JWT and stores its subject in the
// request context
func (s *Server) userAuthMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.userRoutesEnabled() {
			writeErrorResponse(w, "User routes are disabled",
				"configure server.jwt.secret and a store driver to enable them",
				"", http.StatusServiceUnavailable)
			return
		}

		token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok {
			writeAppError(w, errors.NewAuthError(errors.ErrCodeInvalidToken, "Authorization Bearer token required", nil))
			return
		}

		userID, err := s.jwt.ValidateToken(strings.TrimSpace(token))
		if err != nil {
			s.logger.Info("Authentication failed: invalid token",
				"endpoint", r.URL.Path,
				"client_ip", getClientIP(r),
				"error", err.Error())
			writeAppError(w, err)
			return
		}

		next(w, r.WithContext(withUserID(r.Context(), userID)))
	}
}

// requestSizeLimitMiddleware limits the size of incoming requests
func (s *Server) requestSizeLimitMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.config.MaxBodySize > 0 {
			r.Body = http.MaxBytesReader(w, r.Body, s.config.MaxBodySize)
		}
		next(w, r)
	}
}

// requestIDMiddleware echoes X-Request-ID, generating one when absent
func (s *Server) requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", requestID)
		next.ServeHTTP(w, r)
	})
}

// requestAPIKey reads X-API-Key, falling back to an Authorization bearer token
func requestAPIKey(r *http.Request) string {
	if apiKey := r.Header.Get("X-API-Key"); apiKey != "" {
		return apiKey
	}
	if after, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); ok {
		return after
	}
	return ""
}

// maskAPIKey masks an API key for logging (shows only first 8 characters)
func maskAPIKey(apiKey string) string {
	if len(apiKey) <= 8 {
		return "****"
	}
	return apiKey[:8] + "****"
}
