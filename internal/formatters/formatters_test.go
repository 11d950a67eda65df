package formatters

import (
	"strings"
	"testing"

	"resumescore/internal/types"
)

func sampleScore() types.ScoreReport {
	return types.ScoreReport{
		TargetRole:    "Backend Engineer",
		TotalScore:    41,
		Label:         "Fair",
		ImprovedScore: 72,
		PotentialGain: 31,
		Breakdown: types.ScoreBreakdown{
			Keywords: types.KeywordScore{SubScore: types.SubScore{Score: 10, Max: 35}, Missing: []string{"docker", "kubernetes"}},
			Sections: types.SectionScore{SubScore: types.SubScore{Score: 10, Max: 20}},
		},
		Suggestions: []types.Suggestion{{
			Severity:      types.SeverityCritical,
			Title:         "Add role keywords",
			Description:   "Mention docker and kubernetes if you have used them.",
			EstimatedGain: "+10-15 pts",
		}},
	}
}

func TestFormatScoreText(t *testing.T) {
	registry := NewFormatterRegistry()

	out, err := registry.Format(sampleScore(), "text")
	if err != nil {
		t.Fatalf("Format returned error: %v", err)
	}

	for _, want := range []string{"=== ATS SCORE ===", "Score: 41/100 (Fair)", "Improved score: 72/100 (+31)", "Keywords: 10/35", "docker, kubernetes", "1. [critical] Add role keywords"} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected text output to contain %q, got:\n%s", want, out)
		}
	}
}

func TestFormatScoreMarkdown(t *testing.T) {
	registry := NewFormatterRegistry()

	score := sampleScore()
	out, err := registry.Format(&score, "markdown")
	if err != nil {
		t.Fatalf("Format returned error: %v", err)
	}
	if !strings.HasPrefix(out, "# ATS Score") {
		t.Errorf("Expected markdown title, got:\n%s", out)
	}
	if !strings.Contains(out, "**Score:** 41/100 (Fair)") {
		t.Errorf("Expected bold score label, got:\n%s", out)
	}
}

func TestFormatAnalysisReport(t *testing.T) {
	report := types.AnalysisReport{
		ID: "report-1",
		Profile: types.CandidateProfile{
			FullName:          "Jane Doe",
			Email:             "jane@example.com",
			TechnicalSkills:   []string{"go", "sql"},
			ExperienceEntries: []types.Experience{{Company: "Acme", Role: "Engineer", Duration: "2020 - 2023"}},
		},
		Score: sampleScore(),
		Jobs: []types.MatchedJob{{
			JobPosting:     types.JobPosting{ID: "1", Title: "Go Developer", Company: "Initech"},
			MatchScore:     67,
			MatchingSkills: []string{"go", "sql"},
		}},
	}

	out, err := NewFormatterRegistry().Format(report, "text")
	if err != nil {
		t.Fatalf("Format returned error: %v", err)
	}
	for _, want := range []string{"Report: report-1", "Name: Jane Doe", "Engineer at Acme (2020 - 2023)", "1. Go Developer at Initech (67% match)"} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected output to contain %q, got:\n%s", want, out)
		}
	}
}

func TestFormatEmptyMatches(t *testing.T) {
	out, err := NewFormatterRegistry().Format([]types.MatchedJob{}, "text")
	if err != nil {
		t.Fatalf("Format returned error: %v", err)
	}
	if !strings.Contains(out, "No matching jobs found.") {
		t.Errorf("Expected empty message, got:\n%s", out)
	}
}

func TestFormatAdviceMarkdown(t *testing.T) {
	advice := types.Advice{
		Headline:        "Lead with impact",
		Rewrites:        []types.AdviceRewrite{{Section: "experience", Original: "Did APIs", Suggested: "Built 5 APIs", Reason: "Specific"}},
		MissingKeywords: []string{"docker"},
		NextSteps:       []string{"Add metrics"},
	}

	out, err := NewFormatterRegistry().Format(advice, "markdown")
	if err != nil {
		t.Fatalf("Format returned error: %v", err)
	}
	for _, want := range []string{"# AI Advice", "Lead with impact", "**Suggested:** Built 5 APIs", "## Next Steps", "- Add metrics"} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected output to contain %q, got:\n%s", want, out)
		}
	}
}

func TestFormatJSONFallback(t *testing.T) {
	out, err := NewFormatterRegistry().Format(map[string]int{"total": 3}, "json")
	if err != nil {
		t.Fatalf("Format returned error: %v", err)
	}
	if !strings.Contains(out, `"total": 3`) {
		t.Errorf("Expected indented JSON, got %s", out)
	}
}

func TestFormatUnknownFormat(t *testing.T) {
	if _, err := NewFormatterRegistry().Format(sampleScore(), "yaml"); err == nil {
		t.Error("Expected error for unsupported format")
	}
	if _, err := NewFormatterRegistry().Format(map[string]int{}, "text"); err == nil {
		t.Error("Expected error for text output of an unknown type")
	}
}

func TestGetSupportedFormats(t *testing.T) {
	formats := NewFormatterRegistry().GetSupportedFormats()
	want := []string{"json", "markdown", "text"}
	if strings.Join(formats, ",") != strings.Join(want, ",") {
		t.Errorf("Expected %v, got %v", want, formats)
	}
}
