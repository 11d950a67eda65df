package server

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"log"
	"mime"
	"net/http"
	"strings"
	"time"

	"resumescore/internal/errors"
	"resumescore/internal/formatters"

	"github.com/go-playground/validator/v10"
)

const healthCheckTimeout = 5 * time.Second

// healthHandler reports the state of every dependency. Failing dependencies
// turn the status to degraded with a 503.
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	response := map[string]any{
		"status":             "healthy",
		"service":            "resumescore",
		"version":            s.Version,
		"uptime":             time.Since(s.startedAt).Round(time.Second).String(),
		"vocabulary_version": s.vocabulary.Get().Version,
		"jobs":               s.jobs.Len(),
	}
	healthy := true

	if s.store != nil {
		if err := s.store.Ping(ctx); err != nil {
			healthy = false
			response["store"] = map[string]any{"healthy": false, "error": err.Error()}
		} else {
			response["store"] = map[string]any{"healthy": true}
		}
	} else {
		response["store"] = map[string]any{"enabled": false}
	}

	if s.ai.Enabled() {
		modelInfo := s.ai.GetModelInfo(ctx)
		response["ai_model"] = modelInfo
		if !modelInfo.Available {
			healthy = false
		}
	} else {
		response["ai_model"] = map[string]any{"enabled": false}
	}

	if certStatus := s.checkCertificateHealth(); certStatus != nil {
		response["certificates"] = certStatus
		if certHealthy, ok := certStatus["healthy"].(bool); ok && !certHealthy {
			healthy = false
		}
	}

	status := http.StatusOK
	if !healthy {
		response["status"] = "degraded"
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, response)
}

// checkCertificateHealth checks the expiry of the served TLS certificate
func (s *Server) checkCertificateHealth() map[string]any {
	if s.certs == nil {
		return nil
	}

	certStatus := map[string]any{
		"auto_reload": s.certs.Watching(),
	}

	timeToExpiry, err := s.certs.TimeToExpiry()
	if err != nil {
		certStatus["healthy"] = false
		certStatus["error"] = fmt.Sprintf("Failed to check certificate expiry: %v", err)
		return certStatus
	}

	certStatus["time_to_expiry_hours"] = int(timeToExpiry.Hours())

	switch {
	case timeToExpiry <= 0:
		certStatus["healthy"] = false
		certStatus["status"] = "expired"
	case timeToExpiry <= 24*time.Hour:
		certStatus["healthy"] = false
		certStatus["status"] = "critical"
	case timeToExpiry <= 7*24*time.Hour:
		certStatus["healthy"] = true
		certStatus["status"] = "warning"
	default:
		certStatus["healthy"] = true
		certStatus["status"] = "ok"
	}

	return certStatus
}

// statsHandler provides server statistics including rate limiting info
func (s *Server) statsHandler(w http.ResponseWriter, _ *http.Request) {
	response := map[string]any{
		"service": "resumescore",
		"version": s.Version,
		"server": map[string]any{
			"max_request_size_bytes": s.config.MaxBodySize,
			"api_keys_configured":    len(s.apiKeys),
			"user_routes_enabled":    s.userRoutesEnabled(),
		},
		"analysis": map[string]any{
			"min_length":         s.analyzer.MinLength(),
			"vocabulary_version": s.vocabulary.Get().Version,
			"jobs":               s.jobs.Len(),
		},
	}

	if s.RateLimiter != nil {
		response["rate_limiting"] = s.RateLimiter.GetStats()
	} else {
		response["rate_limiting"] = map[string]any{"enabled": false}
	}

	if provider, ok := s.aiStatsProvider(); ok {
		response["ai"] = provider.Stats()
	} else {
		response["ai"] = map[string]any{"enabled": s.ai.Enabled()}
	}

	writeJSON(w, http.StatusOK, response)
}

type statsProvider interface {
	Stats() map[string]any
}

func (s *Server) aiStatsProvider() (statsProvider, bool) {
	if !s.ai.Enabled() {
		return nil, false
	}
	provider, ok := s.ai.Provider.(statsProvider)
	return provider, ok
}

// parseJSONRequest parses and validates a JSON request body
func (s *Server) parseJSONRequest(r *http.Request, v any) error {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil || mediaType != "application/json" {
		return errors.NewValidationError(errors.ErrCodeInvalidRequest, "content-type must be application/json", err)
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if stderrors.As(err, &maxBytesErr) {
			return errors.NewValidationError(errors.ErrCodeInvalidRequest,
				fmt.Sprintf("request body too large (limit is %d bytes)", maxBytesErr.Limit), err)
		}
		return errors.NewIOError(errors.ErrCodeFileNotReadable, "failed to read request body", err)
	}
	defer func() {
		if err := r.Body.Close(); err != nil {
			log.Printf("Failed to close request body: %v", err)
		}
	}()

	if err := json.Unmarshal(body, v); err != nil {
		return errors.NewValidationError(errors.ErrCodeInvalidRequest, "failed to parse JSON", err)
	}

	return s.validateStruct(v)
}

// validateStruct runs the validate tags of v
func (s *Server) validateStruct(v any) error {
	err := s.validate.Struct(v)
	if err == nil {
		return nil
	}

	var fieldErrors validator.ValidationErrors
	if !stderrors.As(err, &fieldErrors) {
		return errors.NewValidationError(errors.ErrCodeInvalidRequest, "invalid request", err)
	}

	messages := make([]string, 0, len(fieldErrors))
	for _, fe := range fieldErrors {
		switch fe.Tag() {
		case "required", "required_without":
			messages = append(messages, fmt.Sprintf("%s is required", jsonName(fe.Field())))
		case "max":
			messages = append(messages, fmt.Sprintf("%s must be at most %s characters", jsonName(fe.Field()), fe.Param()))
		case "oneof":
			messages = append(messages, fmt.Sprintf("%s must be one of: %s", jsonName(fe.Field()), fe.Param()))
		default:
			messages = append(messages, fmt.Sprintf("%s is invalid", jsonName(fe.Field())))
		}
	}
	return errors.NewValidationError(errors.ErrCodeInvalidRequest, strings.Join(messages, "; "), err)
}

func jsonName(field string) string {
	if field == "" {
		return field
	}
	return strings.ToLower(field[:1]) + field[1:]
}

// writeResult writes data as JSON, or as text/markdown when ?format= asks for it
func writeResult(w http.ResponseWriter, r *http.Request, status int, data any) {
	format := r.URL.Query().Get("format")
	if format == "" || format == "json" {
		writeJSON(w, status, data)
		return
	}

	output, err := formatters.GlobalRegistry.Format(data, format)
	if err != nil {
		writeAppError(w, errors.NewValidationError(errors.ErrCodeInvalidFormat,
			fmt.Sprintf("unsupported format %q", format), err))
		return
	}

	contentType := "text/plain; charset=utf-8"
	if format == "markdown" {
		contentType = "text/markdown; charset=utf-8"
	}
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(status)
	if _, err := io.WriteString(w, output); err != nil {
		log.Printf("Failed to write response: %v", err)
	}
}

// writeJSON writes v with the given status
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Failed to encode response: %v", err)
	}
}

// writeAppError maps err to its HTTP status and writes the error body
func writeAppError(w http.ResponseWriter, err error) {
	status := errors.HTTPStatus(err)
	if appErr, ok := errors.As(err); ok {
		writeErrorResponse(w, http.StatusText(status), appErr.Message, appErr.Code, status)
		return
	}
	writeErrorResponse(w, http.StatusText(status), "internal error", "", status)
}

// writeErrorResponse writes a standardized error response
func writeErrorResponse(w http.ResponseWriter, error, message, code string, statusCode int) {
	writeJSON(w, statusCode, ErrorResponse{
		Error:   error,
		Message: message,
		Code:    code,
	})
}
