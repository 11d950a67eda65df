package server

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resumescore/internal/config"
	"resumescore/internal/errors"
	"resumescore/internal/store"
	"resumescore/internal/types"
)

const janeResume = "Jane Doe\njane@x.com\n9876543210\nSummary: Frontend engineer.\nSkills: React, JavaScript, CSS\nExperience: Worked at Acme as Developer 2020-2022\nEducation: B.Tech from XYZ University 2020"

func newTestServer(t *testing.T, cfg *config.Config, deps Deps) *Server {
	t.Helper()
	if cfg == nil {
		cfg = &config.Config{}
	}
	s, err := NewServer(cfg, deps, "test", errors.Discard())
	require.NoError(t, err)
	t.Cleanup(func() {
		if s.RateLimiter != nil {
			s.RateLimiter.Close()
		}
	})
	return s
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any, header http.Header) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range header {
		req.Header[k] = v
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestHealthHandler(t *testing.T) {
	h := newTestServer(t, nil, Deps{}).Handler()

	rec := doJSON(t, h, http.MethodGet, "/health", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "test", body["version"])
	assert.Equal(t, map[string]any{"enabled": false}, body["store"])
}

func TestRequestIDIsEchoed(t *testing.T) {
	h := newTestServer(t, nil, Deps{}).Handler()

	rec := doJSON(t, h, http.MethodGet, "/health", nil, http.Header{"X-Request-Id": {"req-42"}})
	assert.Equal(t, "req-42", rec.Header().Get("X-Request-ID"))
}

func TestAnalysisRoutes(t *testing.T) {
	h := newTestServer(t, nil, Deps{}).Handler()
	body := AnalyzeRequest{Text: janeResume, TargetRole: "Frontend Developer"}

	t.Run("extract", func(t *testing.T) {
		rec := doJSON(t, h, http.MethodPost, "/extract", body, nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var profile types.CandidateProfile
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &profile))
		assert.Equal(t, "jane@x.com", profile.Email)
		assert.Contains(t, profile.TechnicalSkills, "React")
	})

	t.Run("score", func(t *testing.T) {
		rec := doJSON(t, h, http.MethodPost, "/score", body, nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var score types.ScoreReport
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &score))
		assert.Equal(t, "Frontend Developer", score.TargetRole)
		assert.GreaterOrEqual(t, score.TotalScore, 0)
		assert.LessOrEqual(t, score.TotalScore, 100)
		assert.NotEmpty(t, score.Label)
	})

	t.Run("match", func(t *testing.T) {
		rec := doJSON(t, h, http.MethodPost, "/match", body, nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var matches []types.MatchedJob
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &matches))
		require.NotEmpty(t, matches)
		for i := 1; i < len(matches); i++ {
			assert.GreaterOrEqual(t, matches[i-1].MatchScore, matches[i].MatchScore)
		}
	})

	t.Run("analyze", func(t *testing.T) {
		rec := doJSON(t, h, http.MethodPost, "/analyze", body, nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var report types.AnalysisReport
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
		assert.NotEmpty(t, report.ID)
		assert.Equal(t, "Frontend Developer", report.TargetRole)
		assert.Equal(t, "Jane Doe", report.Profile.FullName)
	})

	t.Run("markdown format", func(t *testing.T) {
		rec := doJSON(t, h, http.MethodPost, "/score?format=markdown", body, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Header().Get("Content-Type"), "text/markdown")
		assert.Contains(t, rec.Body.String(), "#")
	})

	t.Run("unknown format", func(t *testing.T) {
		rec := doJSON(t, h, http.MethodPost, "/score?format=yaml", body, nil)
		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, errors.ErrCodeInvalidFormat, decodeError(t, rec).Code)
	})
}

func TestAnalysisRouteValidation(t *testing.T) {
	h := newTestServer(t, nil, Deps{}).Handler()

	tests := []struct {
		name string
		body any
		code string
	}{
		{name: "too short", body: AnalyzeRequest{Text: "React developer"}, code: errors.ErrCodeInputTooShort},
		{name: "missing text", body: map[string]string{"targetRole": "Frontend Developer"}, code: errors.ErrCodeInvalidRequest},
		{name: "role too long", body: AnalyzeRequest{Text: janeResume, TargetRole: strings.Repeat("x", 101)}, code: errors.ErrCodeInvalidRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doJSON(t, h, http.MethodPost, "/analyze", tt.body, nil)
			require.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, tt.code, decodeError(t, rec).Code)
		})
	}

	t.Run("wrong content type", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/analyze", strings.NewReader(janeResume))
		req.Header.Set("Content-Type", "text/plain")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("method not allowed", func(t *testing.T) {
		rec := doJSON(t, h, http.MethodGet, "/analyze", nil, nil)
		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	})
}

func TestMultipartUpload(t *testing.T) {
	h := newTestServer(t, nil, Deps{}).Handler()

	upload := func(t *testing.T, filename, content string) *httptest.ResponseRecorder {
		t.Helper()
		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		require.NoError(t, mw.WriteField("targetRole", "Frontend Developer"))
		part, err := mw.CreateFormFile("file", filename)
		require.NoError(t, err)
		_, err = part.Write([]byte(content))
		require.NoError(t, err)
		require.NoError(t, mw.Close())

		req := httptest.NewRequest(http.MethodPost, "/score", &buf)
		req.Header.Set("Content-Type", mw.FormDataContentType())
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	t.Run("text file", func(t *testing.T) {
		rec := upload(t, "resume.txt", janeResume)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var score types.ScoreReport
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &score))
		assert.Equal(t, "Frontend Developer", score.TargetRole)
	})

	t.Run("unsupported type", func(t *testing.T) {
		rec := upload(t, "resume.exe", janeResume)
		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, errors.ErrCodeUnsupportedDocument, decodeError(t, rec).Code)
	})
}

func TestJobsAndTemplates(t *testing.T) {
	h := newTestServer(t, nil, Deps{}).Handler()

	rec := doJSON(t, h, http.MethodGet, "/jobs", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var postings []types.JobPosting
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &postings))
	assert.NotEmpty(t, postings)

	rec = doJSON(t, h, http.MethodGet, "/jobs?role=Frontend%20Developer&skills=React,%20CSS", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var recommended []types.MatchedJob
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &recommended))
	assert.NotEmpty(t, recommended)

	rec = doJSON(t, h, http.MethodGet, "/templates", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var templates []types.RoleTemplate
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &templates))
	assert.NotEmpty(t, templates)
}

func TestAdviseWithoutAI(t *testing.T) {
	h := newTestServer(t, nil, Deps{}).Handler()

	rec := doJSON(t, h, http.MethodPost, "/advise", AnalyzeRequest{Text: janeResume}, nil)
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, errors.ErrCodeAIDisabled, decodeError(t, rec).Code)
}

func TestAPIKeyAuthentication(t *testing.T) {
	cfg := &config.Config{}
	cfg.Server.APIKeys = []string{"secret-key-123"}
	h := newTestServer(t, cfg, Deps{}).Handler()
	body := AnalyzeRequest{Text: janeResume}

	rec := doJSON(t, h, http.MethodPost, "/score", body, nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, errors.ErrCodeMissingAPIKey, decodeError(t, rec).Code)

	rec = doJSON(t, h, http.MethodPost, "/score", body, http.Header{"X-Api-Key": {"wrong"}})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doJSON(t, h, http.MethodPost, "/score", body, http.Header{"X-Api-Key": {"secret-key-123"}})
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, h, http.MethodPost, "/score", body, http.Header{"Authorization": {"Bearer secret-key-123"}})
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, h, http.MethodGet, "/health", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRateLimiting(t *testing.T) {
	cfg := &config.Config{}
	cfg.Server.RateLimit = config.RateLimitConfig{
		Enabled:        true,
		RequestsPerMin: 1,
		BurstCapacity:  2,
		ByIP:           true,
	}
	s := newTestServer(t, cfg, Deps{})
	h := s.Handler()
	body := AnalyzeRequest{Text: janeResume}

	for range 2 {
		rec := doJSON(t, h, http.MethodPost, "/score", body, nil)
		require.Equal(t, http.StatusOK, rec.Code)
	}

	rec := doJSON(t, h, http.MethodPost, "/score", body, nil)
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, errors.ErrCodeRateLimited, decodeError(t, rec).Code)

	// another client has its own bucket
	rec = doJSON(t, h, http.MethodPost, "/score", body, http.Header{"X-Forwarded-For": {"203.0.113.7"}})
	assert.Equal(t, http.StatusOK, rec.Code)

	stats := s.RateLimiter.GetStats()
	assert.Equal(t, 2, stats["active_limiters"])
}

func TestGetClientIP(t *testing.T) {
	tests := []struct {
		name   string
		header http.Header
		remote string
		want   string
	}{
		{name: "remote addr", remote: "192.0.2.1:1234", want: "192.0.2.1"},
		{name: "forwarded for", header: http.Header{"X-Forwarded-For": {"bogus, 198.51.100.2, 10.0.0.1"}}, remote: "192.0.2.1:1234", want: "198.51.100.2"},
		{name: "real ip", header: http.Header{"X-Real-Ip": {"198.51.100.9"}}, remote: "192.0.2.1:1234", want: "198.51.100.9"},
		{name: "no port", remote: "192.0.2.1", want: "192.0.2.1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			for k, v := range tt.header {
				req.Header[k] = v
			}
			assert.Equal(t, tt.want, getClientIP(req))
		})
	}
}

func TestUserRoutesDisabled(t *testing.T) {
	h := newTestServer(t, nil, Deps{}).Handler()

	rec := doJSON(t, h, http.MethodGet, "/me/profile", nil, nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestUserRoutes(t *testing.T) {
	ctx := context.Background()
	st, err := store.OpenSQLite(ctx, ":memory:", errors.Discard())
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	cfg := &config.Config{}
	cfg.Server.JWT = config.JWTConfig{Secret: "test-secret", Issuer: "resumescore", TTL: time.Hour}
	s := newTestServer(t, cfg, Deps{Store: st})
	h := s.Handler()

	token, _, err := s.jwt.GenerateToken("user-1")
	require.NoError(t, err)
	auth := http.Header{"Authorization": {"Bearer " + token}}

	t.Run("requires token", func(t *testing.T) {
		rec := doJSON(t, h, http.MethodGet, "/me/saved-jobs", nil, nil)
		require.Equal(t, http.StatusUnauthorized, rec.Code)

		rec = doJSON(t, h, http.MethodGet, "/me/saved-jobs", nil, http.Header{"Authorization": {"Bearer garbage"}})
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, errors.ErrCodeInvalidToken, decodeError(t, rec).Code)
	})

	t.Run("profile", func(t *testing.T) {
		rec := doJSON(t, h, http.MethodGet, "/me/profile", nil, auth)
		require.Equal(t, http.StatusNotFound, rec.Code)

		rec = doJSON(t, h, http.MethodPut, "/me/profile", ProfileRequest{Text: janeResume, TargetRole: "Frontend Developer"}, auth)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		rec = doJSON(t, h, http.MethodGet, "/me/profile", nil, auth)
		require.Equal(t, http.StatusOK, rec.Code)
		var saved types.SavedProfile
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &saved))
		assert.Equal(t, "user-1", saved.UserID)
		assert.Equal(t, "Frontend Developer", saved.TargetRole)
		assert.Equal(t, "jane@x.com", saved.Profile.Email)

		rec = doJSON(t, h, http.MethodPut, "/me/profile", ProfileRequest{}, auth)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("saved jobs", func(t *testing.T) {
		rec := doJSON(t, h, http.MethodPut, "/me/saved-jobs/1", nil, auth)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		rec = doJSON(t, h, http.MethodPut, "/me/saved-jobs/does-not-exist", nil, auth)
		require.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, errors.ErrCodeNotFound, decodeError(t, rec).Code)

		rec = doJSON(t, h, http.MethodGet, "/me/saved-jobs", nil, auth)
		require.Equal(t, http.StatusOK, rec.Code)
		var saved []types.SavedJob
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &saved))
		require.Len(t, saved, 1)
		assert.Equal(t, "1", saved[0].Job.ID)

		rec = doJSON(t, h, http.MethodDelete, "/me/saved-jobs/1", nil, auth)
		require.Equal(t, http.StatusNoContent, rec.Code)
		rec = doJSON(t, h, http.MethodDelete, "/me/saved-jobs/1", nil, auth)
		require.Equal(t, http.StatusNoContent, rec.Code)
	})

	t.Run("applications", func(t *testing.T) {
		rec := doJSON(t, h, http.MethodPut, "/me/applications/2",
			TrackApplicationRequest{Status: "applied", Notes: "referral"}, auth)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		rec = doJSON(t, h, http.MethodPut, "/me/applications/3",
			TrackApplicationRequest{Status: "pending"}, auth)
		require.Equal(t, http.StatusBadRequest, rec.Code)

		notes := "onsite next week"
		rec = doJSON(t, h, http.MethodPatch, "/me/applications/2",
			UpdateApplicationRequest{Status: "interview", Notes: &notes}, auth)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var app types.Application
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &app))
		assert.Equal(t, types.StatusInterview, app.Status)
		assert.Equal(t, notes, app.Notes)

		rec = doJSON(t, h, http.MethodPatch, "/me/applications/9",
			UpdateApplicationRequest{Status: "offer"}, auth)
		require.Equal(t, http.StatusNotFound, rec.Code)

		rec = doJSON(t, h, http.MethodGet, "/me/applications/stats", nil, auth)
		require.Equal(t, http.StatusOK, rec.Code)
		var stats types.ApplicationStats
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
		assert.Equal(t, 1, stats.Total)
		assert.Equal(t, 1, stats.Interview)

		rec = doJSON(t, h, http.MethodDelete, "/me/applications/2", nil, auth)
		require.Equal(t, http.StatusNoContent, rec.Code)

		rec = doJSON(t, h, http.MethodGet, "/me/applications", nil, auth)
		require.Equal(t, http.StatusOK, rec.Code)
		var apps []types.Application
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &apps))
		assert.Empty(t, apps)
	})
}

func TestGetClientAuthPolicy(t *testing.T) {
	assert.Equal(t, "RequireAndVerifyClientCert", getClientAuthPolicy("").String())
	assert.Equal(t, "RequireAndVerifyClientCert", getClientAuthPolicy("require").String())
	assert.Equal(t, "RequestClientCert", getClientAuthPolicy("request").String())
	assert.Equal(t, "VerifyClientCertIfGiven", getClientAuthPolicy("verify").String())
}

func TestCertReloaderRequiresCertificate(t *testing.T) {
	_, err := newCertReloader(config.TLSConfig{Mode: "server"}, nil)
	assert.Error(t, err)

	_, err = newCertReloader(config.TLSConfig{Mode: "server", CertContent: "bad", KeyContent: "bad"}, nil)
	assert.Error(t, err)
}
