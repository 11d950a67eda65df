package server

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"resumescore/internal/ai"
	"resumescore/internal/analysis"
	"resumescore/internal/document"
	"resumescore/internal/errors"
	"resumescore/internal/jobs"
	"resumescore/internal/types"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const uploadField = "file"

// readAnalyzeInput accepts a JSON body or a multipart upload with a "file"
// part and an optional "targetRole" field.
func (s *Server) readAnalyzeInput(r *http.Request) (AnalyzeRequest, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		var req AnalyzeRequest
		err := s.parseJSONRequest(r, &req)
		return req, err
	}

	file, header, err := r.FormFile(uploadField)
	if err != nil {
		return AnalyzeRequest{}, errors.NewValidationError(errors.ErrCodeInvalidRequest,
			fmt.Sprintf("multipart upload must include a %q part", uploadField), err)
	}
	defer func() { _ = file.Close() }()

	data, err := io.ReadAll(file)
	if err != nil {
		return AnalyzeRequest{}, errors.NewIOError(errors.ErrCodeFileNotReadable, "failed to read upload", err)
	}

	kind, err := document.Detect(header.Filename, header.Header.Get("Content-Type"))
	if err != nil {
		s.metrics.RecordDocument(r.Context(), "unknown", err)
		return AnalyzeRequest{}, err
	}
	text, err := document.DecodeKind(kind, data)
	s.metrics.RecordDocument(r.Context(), string(kind), err)
	if err != nil {
		return AnalyzeRequest{}, err
	}

	req := AnalyzeRequest{Text: text, TargetRole: strings.TrimSpace(r.FormValue("targetRole"))}
	return req, s.validateStruct(&req)
}

// startSpan opens a span named api.<operation> from the server's tracer
func (s *Server) startSpan(ctx context.Context, operation string) (context.Context, trace.Span) {
	ctx, span := s.obs.Tracer("resumescore.api").Start(ctx, "api."+operation)
	span.SetAttributes(attribute.String("operation", operation))
	return ctx, span
}

func failSpan(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	if appErr, ok := errors.As(err); ok {
		span.SetAttributes(attribute.String("error.code", appErr.Code))
	}
}

func (s *Server) extractHandler(w http.ResponseWriter, r *http.Request) {
	_, span := s.startSpan(r.Context(), "extract")
	defer span.End()

	req, err := s.readAnalyzeInput(r)
	if err != nil {
		failSpan(span, err)
		writeAppError(w, err)
		return
	}
	span.SetAttributes(attribute.Int("request.text_length", len(req.Text)))

	profile, err := s.analyzer.Extract(req.Text)
	if err != nil {
		failSpan(span, err)
		writeAppError(w, err)
		return
	}

	span.SetAttributes(attribute.Int("profile.skills", len(profile.TechnicalSkills)))
	writeResult(w, r, http.StatusOK, profile)
}

func (s *Server) scoreHandler(w http.ResponseWriter, r *http.Request) {
	_, span := s.startSpan(r.Context(), "score")
	defer span.End()

	req, err := s.readAnalyzeInput(r)
	if err != nil {
		failSpan(span, err)
		writeAppError(w, err)
		return
	}
	span.SetAttributes(
		attribute.Int("request.text_length", len(req.Text)),
		attribute.String("request.target_role", req.TargetRole),
	)

	score, err := s.analyzer.Score(req.Text, req.TargetRole)
	if err != nil {
		failSpan(span, err)
		writeAppError(w, err)
		return
	}

	span.SetAttributes(attribute.Int("score.total", score.TotalScore))
	writeResult(w, r, http.StatusOK, score)
}

func (s *Server) matchHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := s.startSpan(r.Context(), "match")
	defer span.End()

	req, err := s.readAnalyzeInput(r)
	if err != nil {
		failSpan(span, err)
		writeAppError(w, err)
		return
	}

	matches, err := s.analyzer.Match(ctx, req.Text)
	if err != nil {
		failSpan(span, err)
		writeAppError(w, err)
		return
	}

	span.SetAttributes(attribute.Int("jobs.matched", len(matches)))
	writeResult(w, r, http.StatusOK, matches)
}

// analyze runs the full pipeline and records the analysis metrics
func (s *Server) analyze(ctx context.Context, req AnalyzeRequest) (*types.AnalysisReport, error) {
	start := time.Now()
	report, err := s.analyzer.Analyze(ctx, analysis.Request{Text: req.Text, TargetRole: req.TargetRole})
	score := 0
	if report != nil {
		score = report.Score.TotalScore
	}
	s.metrics.RecordAnalysis(ctx, "http", score, time.Since(start), err)
	return report, err
}

func (s *Server) analyzeHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := s.startSpan(r.Context(), "analyze")
	defer span.End()

	req, err := s.readAnalyzeInput(r)
	if err != nil {
		failSpan(span, err)
		writeAppError(w, err)
		return
	}
	span.SetAttributes(
		attribute.Int("request.text_length", len(req.Text)),
		attribute.String("request.target_role", req.TargetRole),
	)

	report, err := s.analyze(ctx, req)
	if err != nil {
		failSpan(span, err)
		writeAppError(w, err)
		return
	}

	span.SetAttributes(
		attribute.String("report.id", report.ID),
		attribute.Int("score.total", report.Score.TotalScore),
		attribute.Int("jobs.matched", len(report.Jobs)),
	)
	writeResult(w, r, http.StatusOK, report)
}

func (s *Server) adviseHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := s.startSpan(r.Context(), "advise")
	defer span.End()

	if !s.ai.Enabled() {
		err := errors.NewAIError(errors.ErrCodeAIDisabled, "AI advice is not enabled", nil)
		failSpan(span, err)
		writeAppError(w, err)
		return
	}

	req, err := s.readAnalyzeInput(r)
	if err != nil {
		failSpan(span, err)
		writeAppError(w, err)
		return
	}

	report, err := s.analyze(ctx, req)
	if err != nil {
		failSpan(span, err)
		writeAppError(w, err)
		return
	}

	advice, err := s.ai.Advise(ctx, ai.AdviceInput{Text: req.Text, Report: *report})
	if err != nil {
		failSpan(span, err)
		writeAppError(w, err)
		return
	}

	span.SetAttributes(attribute.Int("advice.rewrites", len(advice.Rewrites)))
	writeJSON(w, http.StatusOK, AdviseResponse{Report: report, Advice: advice})
}

// jobsHandler lists the catalog. With ?role= it recommends postings for a
// role template, ranked with the comma separated ?skills=.
func (s *Server) jobsHandler(w http.ResponseWriter, r *http.Request) {
	postings, err := s.analyzer.Postings(r.Context())
	if err != nil {
		writeAppError(w, err)
		return
	}

	role := strings.TrimSpace(r.URL.Query().Get("role"))
	if role == "" {
		writeResult(w, r, http.StatusOK, postings)
		return
	}

	var skills []string
	for skill := range strings.SplitSeq(r.URL.Query().Get("skills"), ",") {
		if skill = strings.TrimSpace(skill); skill != "" {
			skills = append(skills, skill)
		}
	}
	writeResult(w, r, http.StatusOK, jobs.Recommend(postings, role, skills))
}

func (s *Server) templatesHandler(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, jobs.Templates())
}
