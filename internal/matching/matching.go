// Package matching ranks job postings against a candidate's skills.
package matching

import (
	"math"
	"slices"
	"strings"

	"resumescore/internal/types"
)

// NoCutoff disables score filtering.
const NoCutoff = -1

const (
	// DefaultCutoff drops postings scoring 30 or less.
	DefaultCutoff = 30
	DefaultLimit  = 5
	// RelevantLimit caps the role template view.
	RelevantLimit = 8
)

// Options controls filtering and truncation of the ranking.
type Options struct {
	// Cutoff excludes postings whose score is at or below it. NoCutoff keeps
	// every posting.
	Cutoff int
	// Limit caps the result length; zero or less means no cap.
	Limit int
}

// DefaultOptions returns the cutoff and limit used by the analyzer.
func DefaultOptions() Options {
	return Options{Cutoff: DefaultCutoff, Limit: DefaultLimit}
}

// Match scores every posting by the share of its required skills present
// in candidateSkills, compared case-insensitively. The result is ordered by
// descending score; ties keep input order.
func Match(jobs []types.JobPosting, candidateSkills []string, opts Options) []types.MatchedJob {
	have := make(map[string]struct{}, len(candidateSkills))
	for _, skill := range candidateSkills {
		have[normalize(skill)] = struct{}{}
	}
	return rank(jobs, func(skill string) bool {
		_, ok := have[normalize(skill)]
		return ok
	}, opts)
}

// MatchText scores postings by looking for each required skill as a
// case-insensitive substring of raw resume text.
func MatchText(jobs []types.JobPosting, text string, opts Options) []types.MatchedJob {
	lower := strings.ToLower(text)
	return rank(jobs, func(skill string) bool {
		s := normalize(skill)
		return s != "" && strings.Contains(lower, s)
	}, opts)
}

// Relevant ranks postings for a role template: a skill counts when either
// the template or the user lists it. Nothing is filtered out.
func Relevant(jobs []types.JobPosting, templateSkills, userSkills []string, limit int) []types.MatchedJob {
	if limit == 0 {
		limit = RelevantLimit
	}
	combined := make([]string, 0, len(templateSkills)+len(userSkills))
	combined = append(combined, templateSkills...)
	combined = append(combined, userSkills...)
	return Match(jobs, combined, Options{Cutoff: NoCutoff, Limit: limit})
}

// Score returns round(|matched| / |required| * 100), or 0 when nothing is
// required.
func Score(matched, required int) int {
	if required == 0 {
		return 0
	}
	return int(math.Round(float64(matched) / float64(required) * 100))
}

func rank(jobs []types.JobPosting, has func(skill string) bool, opts Options) []types.MatchedJob {
	matched := make([]types.MatchedJob, 0, len(jobs))
	for _, job := range jobs {
		skills := make([]string, 0, len(job.RequiredSkills))
		for _, skill := range job.RequiredSkills {
			if has(skill) {
				skills = append(skills, skill)
			}
		}
		score := Score(len(skills), len(job.RequiredSkills))
		if opts.Cutoff != NoCutoff && score <= opts.Cutoff {
			continue
		}
		matched = append(matched, types.MatchedJob{
			JobPosting:     job,
			MatchScore:     score,
			MatchingSkills: skills,
		})
	}

	slices.SortStableFunc(matched, func(a, b types.MatchedJob) int {
		return b.MatchScore - a.MatchScore
	})

	if opts.Limit > 0 && len(matched) > opts.Limit {
		matched = matched[:opts.Limit]
	}
	return matched
}

func normalize(skill string) string {
	return strings.ToLower(strings.TrimSpace(skill))
}
