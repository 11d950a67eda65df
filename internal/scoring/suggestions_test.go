package scoring

import (
	"strings"
	"testing"

	"resumescore/internal/types"
	"resumescore/internal/vocab"
)

func titles(suggestions []types.Suggestion) []string {
	out := make([]string, len(suggestions))
	for i, s := range suggestions {
		out[i] = s.Title
	}
	return out
}

func TestSuggestScenario(t *testing.T) {
	report := Evaluate(janeResume, "Frontend Developer", vocab.Default())

	want := []string{
		"Add More Keywords",
		"Add Projects Section",
		"Use Stronger Action Verbs",
		"Add LinkedIn Profile",
		"Add GitHub Profile",
		"Add More Content",
	}
	got := titles(report.Suggestions)
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Fatalf("suggestions = %v, want %v", got, want)
	}

	keywords := report.Suggestions[0]
	if keywords.Severity != types.SeverityCritical {
		t.Errorf("keyword suggestion severity = %s", keywords.Severity)
	}
	if !strings.HasSuffix(keywords.Description, "Vue, Angular, HTML, TypeScript, Redux") {
		t.Errorf("unexpected missing keywords: %s", keywords.Description)
	}
	if keywords.EstimatedGain != "+10-15 points" || keywords.EstimatedGainMin != 10 || keywords.EstimatedGainMax != 15 {
		t.Errorf("unexpected gain: %+v", keywords)
	}

	// keywords 5, sections 20, verbs 0, formatting 7, contact 9
	if report.TotalScore != 41 {
		t.Errorf("total = %d, want 41", report.TotalScore)
	}
	// 10 + 5 + 5 + 3 + 3 + 5
	if report.PotentialGain != 31 {
		t.Errorf("potential gain = %d, want 31", report.PotentialGain)
	}
	if report.ImprovedScore != 72 {
		t.Errorf("improved = %d, want 72", report.ImprovedScore)
	}
	if report.Label != LabelFair {
		t.Errorf("label = %s", report.Label)
	}
	if report.VocabularyVersion != vocab.DefaultVersion {
		t.Errorf("vocabulary version = %s", report.VocabularyVersion)
	}
}

func TestGitHubSuggestionOnlyForDevelopers(t *testing.T) {
	b, _ := Score("short text", "Data Analyst", nil)
	for _, s := range Suggest(b, "Data Analyst", nil) {
		if s.Title == "Add GitHub Profile" {
			t.Fatal("GitHub suggestion should require a developer role")
		}
	}
}

func TestReduceLengthSuggestion(t *testing.T) {
	text := "summary projects linkedin github\n" + strings.Repeat("developed ", 900)
	b, _ := Score(text, "", nil)
	got := titles(Suggest(b, "", nil))
	if got[len(got)-1] != "Reduce Length" {
		t.Errorf("expected Reduce Length last, got %v", got)
	}
}

func TestImprovedScoreCapped(t *testing.T) {
	suggestions := []types.Suggestion{{EstimatedGainMin: 40}, {EstimatedGainMin: 40}}
	if got := ImprovedScore(90, suggestions); got != 100 {
		t.Errorf("improved = %d, want 100", got)
	}
	if got := ImprovedScore(10, nil); got != 10 {
		t.Errorf("improved = %d, want 10", got)
	}
}

func TestLabel(t *testing.T) {
	tests := []struct {
		score int
		want  string
	}{
		{100, LabelExcellent},
		{80, LabelExcellent},
		{79, LabelGood},
		{60, LabelGood},
		{59, LabelFair},
		{40, LabelFair},
		{39, LabelNeedsWork},
		{0, LabelNeedsWork},
	}
	for _, tt := range tests {
		if got := Label(tt.score); got != tt.want {
			t.Errorf("Label(%d) = %s, want %s", tt.score, got, tt.want)
		}
	}
}
