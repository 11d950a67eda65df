// Package analysis runs the extract, score and match pipeline over one
// resume and assembles the report.
package analysis

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"resumescore/internal/errors"
	"resumescore/internal/extract"
	"resumescore/internal/jobs"
	"resumescore/internal/matching"
	"resumescore/internal/scoring"
	"resumescore/internal/types"
	"resumescore/internal/vocab"
)

// DefaultMinLength is the shortest trimmed input, in characters, that is
// analyzed.
const DefaultMinLength = 50

// Request is a single resume to analyze.
type Request struct {
	Text       string `json:"text"`
	TargetRole string `json:"targetRole"`
}

// Options configures an Analyzer. Zero values fall back to defaults.
type Options struct {
	MinLength int
	// Match is used as given when set, zero cutoff and limit included.
	// Nil selects matching.DefaultOptions.
	Match *matching.Options
	Now   func() time.Time
}

// Analyzer is safe for concurrent use; it reads the current vocabulary and
// job catalog snapshots on every call.
type Analyzer struct {
	vocab     *vocab.Holder
	jobs      jobs.Source
	minLength int
	match     matching.Options
	now       func() time.Time
	logger    *errors.Logger
}

// NewAnalyzer creates an analyzer. Nil holders use the built-in data.
func NewAnalyzer(tables *vocab.Holder, source jobs.Source, opts Options, logger *errors.Logger) *Analyzer {
	if tables == nil {
		tables = vocab.NewHolder(nil)
	}
	if source == nil {
		source = jobs.NewHolder(nil)
	}
	if opts.MinLength <= 0 {
		opts.MinLength = DefaultMinLength
	}
	match := matching.DefaultOptions()
	if opts.Match != nil {
		match = *opts.Match
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if logger == nil {
		logger = errors.Discard()
	}
	return &Analyzer{
		vocab:     tables,
		jobs:      source,
		minLength: opts.MinLength,
		match:     match,
		now:       opts.Now,
		logger:    logger,
	}
}

// Tables returns the vocabulary snapshot the next call will use.
func (a *Analyzer) Tables() *vocab.Tables {
	return a.vocab.Get()
}

// MinLength is the configured minimum input length.
func (a *Analyzer) MinLength() int {
	return a.minLength
}

// Validate rejects text shorter than the minimum length.
func (a *Analyzer) Validate(text string) error {
	return ValidateLength(text, a.minLength)
}

// ValidateLength returns an INPUT_TOO_SHORT error when the trimmed text has
// fewer than minLength characters.
func ValidateLength(text string, minLength int) error {
	n := utf8.RuneCountInString(strings.TrimSpace(text))
	if n < minLength {
		return errors.NewValidationError(errors.ErrCodeInputTooShort,
			fmt.Sprintf("resume text is too short: %d characters, need at least %d", n, minLength), nil).
			WithContext("length", n).
			WithContext("min_length", minLength)
	}
	return nil
}

// Postings returns the current job catalog.
func (a *Analyzer) Postings(ctx context.Context) ([]types.JobPosting, error) {
	return a.jobs.Jobs(ctx)
}

// Extract validates text and returns its structured profile.
func (a *Analyzer) Extract(text string) (types.CandidateProfile, error) {
	if err := a.Validate(text); err != nil {
		return types.CandidateProfile{}, err
	}
	return extract.Extract(text, a.vocab.Get()), nil
}

// Score validates text and evaluates it against targetRole.
func (a *Analyzer) Score(text, targetRole string) (types.ScoreReport, error) {
	if err := a.Validate(text); err != nil {
		return types.ScoreReport{}, err
	}
	return scoring.Evaluate(text, targetRole, a.vocab.Get()), nil
}

// Match validates text and ranks the current catalog against it.
func (a *Analyzer) Match(ctx context.Context, text string) ([]types.MatchedJob, error) {
	if err := a.Validate(text); err != nil {
		return nil, err
	}
	postings, err := a.jobs.Jobs(ctx)
	if err != nil {
		return nil, err
	}
	return matching.MatchText(postings, text, a.match), nil
}

// Analyze validates the input, then extracts the profile, scores the text
// and ranks the current job catalog.
func (a *Analyzer) Analyze(ctx context.Context, req Request) (*types.AnalysisReport, error) {
	if err := a.Validate(req.Text); err != nil {
		return nil, err
	}

	postings, err := a.jobs.Jobs(ctx)
	if err != nil {
		return nil, err
	}

	tables := a.vocab.Get()
	start := a.now()
	report := &types.AnalysisReport{
		ID:         uuid.NewString(),
		CreatedAt:  start.UTC(),
		TargetRole: req.TargetRole,
		Profile:    extract.Extract(req.Text, tables),
		Score:      scoring.Evaluate(req.Text, req.TargetRole, tables),
		Jobs:       matching.MatchText(postings, req.Text, a.match),
	}

	a.logger.Debug("Resume analyzed",
		"report_id", report.ID,
		"target_role", req.TargetRole,
		"total_score", report.Score.TotalScore,
		"matched_jobs", len(report.Jobs),
		"vocabulary_version", tables.Version)

	return report, nil
}

// Result pairs a batch request with its outcome.
type Result struct {
	Index  int                   `json:"index"`
	Report *types.AnalysisReport `json:"report,omitempty"`
	Err    error                 `json:"-"`
}

// AnalyzeAll analyzes every request with at most concurrency workers.
// Per-request failures are reported in the matching Result; the returned
// error is only set when ctx is cancelled.
func (a *Analyzer) AnalyzeAll(ctx context.Context, reqs []Request, concurrency int) ([]Result, error) {
	if concurrency <= 0 {
		concurrency = 1
	}
	results := make([]Result, len(reqs))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for i, req := range reqs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			report, err := a.Analyze(ctx, req)
			results[i] = Result{Index: i, Report: report, Err: err}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}
