package scoring

import (
	"fmt"
	"strings"

	"resumescore/internal/types"
	"resumescore/internal/vocab"
)

const (
	keywordThreshold     = 20
	verbThreshold        = 10
	missingKeywordsShown = 5
	verbsShown           = 8
)

// Score labels by lower bound.
const (
	LabelExcellent = "Excellent"
	LabelGood      = "Good"
	LabelFair      = "Fair"
	LabelNeedsWork = "Needs Work"
)

// Label names the band a total score falls in.
func Label(score int) string {
	switch {
	case score >= 80:
		return LabelExcellent
	case score >= 60:
		return LabelGood
	case score >= 40:
		return LabelFair
	default:
		return LabelNeedsWork
	}
}

func suggestion(severity types.Severity, title, description string, gainMin, gainMax int) types.Suggestion {
	gain := fmt.Sprintf("+%d points", gainMin)
	if gainMax != gainMin {
		gain = fmt.Sprintf("+%d-%d points", gainMin, gainMax)
	}
	return types.Suggestion{
		Severity:         severity,
		Title:            title,
		Description:      description,
		EstimatedGain:    gain,
		EstimatedGainMin: gainMin,
		EstimatedGainMax: gainMax,
	}
}

// Suggest derives improvement hints from a breakdown. The order is fixed:
// keywords, summary, projects, verbs, LinkedIn, GitHub, length.
func Suggest(b types.ScoreBreakdown, targetRole string, t *vocab.Tables) []types.Suggestion {
	if t == nil {
		t = vocab.Default()
	}
	out := []types.Suggestion{}

	if b.Keywords.Score < keywordThreshold {
		missing := b.Keywords.Missing
		if len(missing) > missingKeywordsShown {
			missing = missing[:missingKeywordsShown]
		}
		out = append(out, suggestion(types.SeverityCritical, "Add More Keywords",
			"Add these skills to improve ATS matching: "+strings.Join(missing, ", "), 10, 15))
	}

	if !b.Sections.Found["summary"] {
		out = append(out, suggestion(types.SeverityImportant, "Add Professional Summary",
			"Include a 2-3 sentence summary highlighting your key strengths and career goals.", 5, 5))
	}

	if !b.Sections.Found["projects"] {
		out = append(out, suggestion(types.SeverityImportant, "Add Projects Section",
			"Include 2-3 relevant projects with technologies used and impact achieved.", 5, 5))
	}

	if b.ActionVerbs.Score < verbThreshold {
		verbs := t.ActionVerbs
		if len(verbs) > verbsShown {
			verbs = verbs[:verbsShown]
		}
		out = append(out, suggestion(types.SeverityModerate, "Use Stronger Action Verbs",
			"Start bullet points with: "+strings.Join(verbs, ", "), 5, 10))
	}

	if !b.Contact.HasLinkedIn {
		out = append(out, suggestion(types.SeverityModerate, "Add LinkedIn Profile",
			"Include your LinkedIn URL to help recruiters find more about you.", 3, 3))
	}

	if !b.Contact.HasGitHub && strings.Contains(strings.ToLower(targetRole), "developer") {
		out = append(out, suggestion(types.SeverityModerate, "Add GitHub Profile",
			"Showcase your code repositories with a GitHub link.", 3, 3))
	}

	switch words := b.Formatting.WordCount; {
	case words < idealWordsMin:
		out = append(out, suggestion(types.SeverityImportant, "Add More Content",
			"Your resume seems too short. Add more details about your experience and achievements.", 5, 8))
	case words > idealWordsMax:
		out = append(out, suggestion(types.SeverityModerate, "Reduce Length",
			"Your resume is too long. Keep it concise (1-2 pages). Remove less relevant information.", 3, 5))
	}

	return out
}

// PotentialGain adds up the guaranteed minimum gain of every suggestion.
func PotentialGain(suggestions []types.Suggestion) int {
	gain := 0
	for _, s := range suggestions {
		gain += s.EstimatedGainMin
	}
	return gain
}

// ImprovedScore is the total after applying every suggestion, capped at
// MaxScore.
func ImprovedScore(total int, suggestions []types.Suggestion) int {
	return clamp(total+PotentialGain(suggestions), 0, MaxScore)
}

// Evaluate scores text and derives the suggestions and projected score.
func Evaluate(text, targetRole string, t *vocab.Tables) types.ScoreReport {
	if t == nil {
		t = vocab.Default()
	}
	breakdown, total := Score(text, targetRole, t)
	suggestions := Suggest(breakdown, targetRole, t)

	return types.ScoreReport{
		TargetRole:        targetRole,
		TotalScore:        total,
		Label:             Label(total),
		Breakdown:         breakdown,
		Suggestions:       suggestions,
		ImprovedScore:     ImprovedScore(total, suggestions),
		PotentialGain:     PotentialGain(suggestions),
		VocabularyVersion: t.Version,
	}
}
