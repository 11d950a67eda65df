package formatters

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"resumescore/internal/types"
)

// Formatter interface for different output formats
type Formatter interface {
	Format(data any) (string, error)
	SupportedType() string
}

// FormatterRegistry manages all available formatters
type FormatterRegistry struct {
	formatters map[string]map[string]Formatter // format -> type -> formatter
}

const (
	typeProfile  = "CandidateProfile"
	typeScore    = "ScoreReport"
	typeMatches  = "MatchedJobs"
	typeJobs     = "JobPostings"
	typeAnalysis = "AnalysisReport"
	typeAdvice   = "Advice"
)

// GlobalRegistry is the registry shared by the CLI and the HTTP layer
var GlobalRegistry = NewFormatterRegistry()

// NewFormatterRegistry creates a new formatter registry with default formatters
func NewFormatterRegistry() *FormatterRegistry {
	registry := &FormatterRegistry{
		formatters: make(map[string]map[string]Formatter),
	}

	registry.RegisterFormatter("json", "any", &JSONFormatter{})
	for _, dataType := range []string{typeProfile, typeScore, typeMatches, typeJobs, typeAnalysis, typeAdvice} {
		registry.RegisterFormatter("text", dataType, &documentFormatter{dataType: dataType, style: textStyle})
		registry.RegisterFormatter("markdown", dataType, &documentFormatter{dataType: dataType, style: markdownStyle})
	}

	return registry
}

// RegisterFormatter registers a new formatter for a specific format and data type
func (fr *FormatterRegistry) RegisterFormatter(format, dataType string, formatter Formatter) {
	if fr.formatters[format] == nil {
		fr.formatters[format] = make(map[string]Formatter)
	}
	fr.formatters[format][dataType] = formatter
}

// Format formats data using the appropriate formatter
func (fr *FormatterRegistry) Format(data any, format string) (string, error) {
	dataType := getDataType(data)

	if formatters, exists := fr.formatters[format]; exists {
		if formatter, exists := formatters[dataType]; exists {
			return formatter.Format(data)
		}
		if formatter, exists := formatters["any"]; exists {
			return formatter.Format(data)
		}
	}

	return "", fmt.Errorf("no formatter found for format '%s' and type '%s'", format, dataType)
}

// GetSupportedFormats returns all supported formats
func (fr *FormatterRegistry) GetSupportedFormats() []string {
	formats := make([]string, 0, len(fr.formatters))
	for format := range fr.formatters {
		formats = append(formats, format)
	}
	sort.Strings(formats)
	return formats
}

func getDataType(data any) string {
	switch data.(type) {
	case types.CandidateProfile, *types.CandidateProfile:
		return typeProfile
	case types.ScoreReport, *types.ScoreReport:
		return typeScore
	case []types.MatchedJob:
		return typeMatches
	case []types.JobPosting:
		return typeJobs
	case types.AnalysisReport, *types.AnalysisReport:
		return typeAnalysis
	case types.Advice, *types.Advice:
		return typeAdvice
	default:
		return "any"
	}
}

// JSONFormatter handles JSON formatting for any data type
type JSONFormatter struct{}

func (jf *JSONFormatter) Format(data any) (string, error) {
	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return "", err
	}
	return string(jsonData), nil
}

func (jf *JSONFormatter) SupportedType() string {
	return "any"
}

// style captures the differences between plain text and markdown output.
type style struct {
	title   func(string) string
	heading func(string) string
	label   func(string) string
	bullet  string
}

var textStyle = style{
	title:   func(s string) string { return "=== " + strings.ToUpper(s) + " ===\n\n" },
	heading: func(s string) string { return "--- " + s + " ---\n" },
	label:   func(s string) string { return s + ":" },
	bullet:  "  - ",
}

var markdownStyle = style{
	title:   func(s string) string { return "# " + s + "\n\n" },
	heading: func(s string) string { return "## " + s + "\n\n" },
	label:   func(s string) string { return "**" + s + ":**" },
	bullet:  "- ",
}

// documentFormatter renders one of the report types in a given style.
type documentFormatter struct {
	dataType string
	style    style
}

func (df *documentFormatter) SupportedType() string {
	return df.dataType
}

func (df *documentFormatter) Format(data any) (string, error) {
	var out strings.Builder
	w := writer{b: &out, s: df.style}

	switch v := data.(type) {
	case types.CandidateProfile:
		w.profile(v)
	case *types.CandidateProfile:
		w.profile(*v)
	case types.ScoreReport:
		w.score(v)
	case *types.ScoreReport:
		w.score(*v)
	case []types.MatchedJob:
		w.matches(v)
	case []types.JobPosting:
		w.jobs(v)
	case types.AnalysisReport:
		w.analysis(v)
	case *types.AnalysisReport:
		w.analysis(*v)
	case types.Advice:
		w.advice(v)
	case *types.Advice:
		w.advice(*v)
	default:
		return "", fmt.Errorf("expected %s, got %T", df.dataType, data)
	}

	return out.String(), nil
}

type writer struct {
	b *strings.Builder
	s style
}

func (w writer) printf(format string, args ...any) {
	fmt.Fprintf(w.b, format, args...)
}

func (w writer) field(name, value string) {
	if value == "" {
		return
	}
	w.printf("%s %s\n", w.s.label(name), value)
}

func (w writer) list(items []string) {
	for _, item := range items {
		w.printf("%s%s\n", w.s.bullet, item)
	}
}

func (w writer) profile(p types.CandidateProfile) {
	w.b.WriteString(w.s.title("Candidate Profile"))
	w.field("Name", p.FullName)
	w.field("Email", p.Email)
	w.field("Phone", p.Phone)
	w.field("LinkedIn", p.LinkedInURL)
	w.field("GitHub", p.GitHubURL)
	w.b.WriteString("\n")

	if p.Summary != "" {
		w.b.WriteString(w.s.heading("Summary"))
		w.printf("%s\n\n", p.Summary)
	}

	if len(p.TechnicalSkills) > 0 {
		w.b.WriteString(w.s.heading("Technical Skills"))
		w.printf("%s\n\n", strings.Join(p.TechnicalSkills, ", "))
	}

	if len(p.ExperienceEntries) > 0 {
		w.b.WriteString(w.s.heading("Experience"))
		for _, e := range p.ExperienceEntries {
			line := strings.TrimSpace(strings.Join(nonEmpty(e.Role, e.Company), " at "))
			if e.Duration != "" {
				line += " (" + e.Duration + ")"
			}
			w.printf("%s%s\n", w.s.bullet, line)
		}
		w.b.WriteString("\n")
	}

	if len(p.EducationEntries) > 0 {
		w.b.WriteString(w.s.heading("Education"))
		for _, e := range p.EducationEntries {
			w.printf("%s%s\n", w.s.bullet, strings.Join(nonEmpty(e.Degree, e.University, e.GraduationYear), ", "))
		}
		w.b.WriteString("\n")
	}

	if len(p.ProjectEntries) > 0 {
		w.b.WriteString(w.s.heading("Projects"))
		for _, pr := range p.ProjectEntries {
			line := pr.Name
			if len(pr.Technologies) > 0 {
				line += " [" + strings.Join(pr.Technologies, ", ") + "]"
			}
			w.printf("%s%s\n", w.s.bullet, line)
		}
		w.b.WriteString("\n")
	}

	if p.Certifications != "" {
		w.b.WriteString(w.s.heading("Certifications"))
		w.printf("%s\n\n", p.Certifications)
	}
}

func (w writer) score(r types.ScoreReport) {
	w.b.WriteString(w.s.title("ATS Score"))
	w.printf("%s %d/100 (%s)\n", w.s.label("Score"), r.TotalScore, r.Label)
	w.field("Target role", r.TargetRole)
	if r.PotentialGain > 0 {
		w.printf("%s %d/100 (+%d)\n", w.s.label("Improved score"), r.ImprovedScore, r.PotentialGain)
	}
	w.b.WriteString("\n")

	b := r.Breakdown
	w.b.WriteString(w.s.heading("Breakdown"))
	for _, row := range []struct {
		name string
		sub  types.SubScore
	}{
		{"Keywords", b.Keywords.SubScore},
		{"Sections", b.Sections.SubScore},
		{"Action verbs", b.ActionVerbs.SubScore},
		{"Formatting", b.Formatting.SubScore},
		{"Contact", b.Contact.SubScore},
	} {
		w.printf("%s%s: %d/%d\n", w.s.bullet, row.name, row.sub.Score, row.sub.Max)
	}
	w.b.WriteString("\n")

	if len(b.Keywords.Missing) > 0 {
		w.b.WriteString(w.s.heading("Missing Keywords"))
		w.printf("%s\n\n", strings.Join(b.Keywords.Missing, ", "))
	}

	w.b.WriteString(w.s.heading("Suggestions"))
	if len(r.Suggestions) == 0 {
		w.b.WriteString("No suggestions.\n\n")
		return
	}
	for i, s := range r.Suggestions {
		w.printf("%d. [%s] %s (%s)\n", i+1, s.Severity, s.Title, s.EstimatedGain)
		w.printf("   %s\n", s.Description)
	}
	w.b.WriteString("\n")
}

func (w writer) matches(jobs []types.MatchedJob) {
	w.b.WriteString(w.s.title("Matching Jobs"))
	if len(jobs) == 0 {
		w.b.WriteString("No matching jobs found.\n")
		return
	}
	for i, j := range jobs {
		w.printf("%d. %s at %s (%d%% match)\n", i+1, j.Title, j.Company, j.MatchScore)
		if len(j.MatchingSkills) > 0 {
			w.printf("   %s %s\n", w.s.label("Matching skills"), strings.Join(j.MatchingSkills, ", "))
		}
	}
	w.b.WriteString("\n")
}

func (w writer) jobs(jobs []types.JobPosting) {
	w.b.WriteString(w.s.title("Job Listings"))
	for _, j := range jobs {
		w.printf("%s%s: %s at %s", w.s.bullet, j.ID, j.Title, j.Company)
		if j.Location != "" {
			w.printf(", %s", j.Location)
		}
		w.b.WriteString("\n")
	}
}

func (w writer) analysis(r types.AnalysisReport) {
	w.printf("%s %s\n", w.s.label("Report"), r.ID)
	if !r.CreatedAt.IsZero() {
		w.printf("%s %s\n", w.s.label("Created"), r.CreatedAt.Format("2006-01-02 15:04:05"))
	}
	w.b.WriteString("\n")
	w.profile(r.Profile)
	w.score(r.Score)
	w.matches(r.Jobs)
}

func (w writer) advice(a types.Advice) {
	w.b.WriteString(w.s.title("AI Advice"))
	if a.Headline != "" {
		w.printf("%s\n\n", a.Headline)
	}

	if len(a.Rewrites) > 0 {
		w.b.WriteString(w.s.heading("Rewrites"))
		for i, r := range a.Rewrites {
			w.printf("%d. [%s]\n", i+1, r.Section)
			w.printf("   %s %s\n", w.s.label("Original"), r.Original)
			w.printf("   %s %s\n", w.s.label("Suggested"), r.Suggested)
			w.printf("   %s %s\n", w.s.label("Why"), r.Reason)
		}
		w.b.WriteString("\n")
	}

	if len(a.MissingKeywords) > 0 {
		w.b.WriteString(w.s.heading("Missing Keywords"))
		w.list(a.MissingKeywords)
		w.b.WriteString("\n")
	}

	if len(a.NextSteps) > 0 {
		w.b.WriteString(w.s.heading("Next Steps"))
		w.list(a.NextSteps)
	}
}

func nonEmpty(values ...string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}
