package errors

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"testing"
)

func TestAppErrorChain(t *testing.T) {
	base := NewValidationError(ErrCodeInputTooShort, "resume text is too short", nil)
	wrapped := fmt.Errorf("analyze: %w", base)

	appErr, ok := As(wrapped)
	if !ok {
		t.Fatal("expected AppError in chain")
	}
	if appErr.Code != ErrCodeInputTooShort {
		t.Errorf("expected code %s, got %s", ErrCodeInputTooShort, appErr.Code)
	}
	if !HasCode(wrapped, ErrCodeInputTooShort) {
		t.Error("HasCode should find the wrapped code")
	}
	if HasCode(fmt.Errorf("plain"), ErrCodeInputTooShort) {
		t.Error("HasCode should be false for plain errors")
	}
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", NewValidationError(ErrCodeInvalidRequest, "bad", nil), http.StatusBadRequest},
		{"not found", NewStorageError(ErrCodeNotFound, "missing", nil), http.StatusNotFound},
		{"auth", NewAuthError(ErrCodeInvalidToken, "bad token", nil), http.StatusUnauthorized},
		{"ai", NewAIError(ErrCodeAIServiceFailed, "down", nil), http.StatusBadGateway},
		{"ai disabled", NewAIError(ErrCodeAIDisabled, "off", nil), http.StatusServiceUnavailable},
		{"rate limited", NewValidationError(ErrCodeRateLimited, "slow down", nil), http.StatusTooManyRequests},
		{"storage", NewStorageError(ErrCodeStorageFailed, "disk", nil), http.StatusInternalServerError},
		{"plain", fmt.Errorf("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HTTPStatus(tt.err); got != tt.want {
				t.Errorf("HTTPStatus() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestLogErrorExpandsFields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter(&buf, slog.LevelDebug)

	err := NewIOError(ErrCodeFileNotFound, "file not found", nil).WithContext("path", "resume.txt")
	logger.LogError(err, "read failed", "attempt", 1)

	var record map[string]any
	if jsonErr := json.Unmarshal(buf.Bytes(), &record); jsonErr != nil {
		t.Fatalf("log output is not JSON: %v", jsonErr)
	}
	if record["error_code"] != ErrCodeFileNotFound {
		t.Errorf("expected error_code %s, got %v", ErrCodeFileNotFound, record["error_code"])
	}
	if record["path"] != "resume.txt" {
		t.Errorf("expected context path, got %v", record["path"])
	}
	if record["msg"] != "read failed" {
		t.Errorf("unexpected msg %v", record["msg"])
	}
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	if _, err := New("verbose"); err == nil {
		t.Error("expected error for unknown level")
	}
	for _, level := range []string{"debug", "info", "warn", "error"} {
		if _, err := New(level); err != nil {
			t.Errorf("level %s: unexpected error %v", level, err)
		}
	}
}
