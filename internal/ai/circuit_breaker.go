package ai

import (
	"fmt"

	"resumescore/internal/config"
	"resumescore/internal/errors"

	"github.com/sony/gobreaker/v2"
)

// CircuitBreaker guards one kind of AI call. A nil breaker runs calls
// directly.
type CircuitBreaker[T any] struct {
	cb *gobreaker.CircuitBreaker[T]
}

// NewCircuitBreaker creates a breaker named "AI-<operation>", or nil when the
// configuration disables it.
func NewCircuitBreaker[T any](operation string, cfg config.CircuitBreakerConfig, logger *errors.Logger) *CircuitBreaker[T] {
	if !cfg.Enabled {
		return nil
	}
	if logger == nil {
		logger = errors.Discard()
	}

	settings := gobreaker.Settings{
		Name:        fmt.Sprintf("AI-%s", operation),
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests == 0 {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= cfg.MinRequests && failureRatio >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("Circuit breaker state changed",
				"name", name,
				"operation", operation,
				"from", from.String(),
				"to", to.String(),
				"failure_threshold", cfg.FailureThreshold)
		},
	}

	return &CircuitBreaker[T]{cb: gobreaker.NewCircuitBreaker[T](settings)}
}

// Execute executes fn with circuit breaker protection
func (c *CircuitBreaker[T]) Execute(fn func() (T, error)) (T, error) {
	if c == nil || c.cb == nil {
		return fn()
	}
	return c.cb.Execute(fn)
}

// Stats returns circuit breaker statistics
func (c *CircuitBreaker[T]) Stats() map[string]any {
	if c == nil || c.cb == nil {
		return map[string]any{"enabled": false}
	}
	return map[string]any{
		"name":    c.cb.Name(),
		"state":   c.cb.State().String(),
		"counts":  c.cb.Counts(),
		"enabled": true,
	}
}

// IsHealthy returns true unless the breaker is open or half-open
func (c *CircuitBreaker[T]) IsHealthy() bool {
	if c == nil || c.cb == nil {
		return true
	}
	return c.cb.State() == gobreaker.StateClosed
}
