// Package extract turns free-form resume text into a CandidateProfile.
//
// Every field has its own function and is extracted independently of the
// others. Fields that can be recognized in several ways carry an ordered
// list of strategies that is evaluated first-match-wins. Extraction never
// fails: a field that matches nothing is simply left empty.
package extract

import (
	"regexp"
	"strings"

	"resumescore/internal/types"
	"resumescore/internal/vocab"
)

// Strategy is one named way of recognizing a field.
type Strategy struct {
	Name    string
	Pattern *regexp.Regexp
	// Group selects the submatch returned; 0 is the whole match.
	Group int
}

// Match is the result of a successful strategy.
type Match struct {
	Strategy string
	Value    string
}

// FirstMatch evaluates strategies in order and returns the first hit.
func FirstMatch(text string, strategies []Strategy) (Match, bool) {
	for _, s := range strategies {
		m := s.Pattern.FindStringSubmatch(text)
		if m == nil || s.Group >= len(m) {
			continue
		}
		value := strings.TrimSpace(m[s.Group])
		if value == "" {
			continue
		}
		return Match{Strategy: s.Name, Value: value}, true
	}
	return Match{}, false
}

// Extract builds a profile from text using the skill vocabulary in t.
// A nil t uses the built-in vocabulary.
func Extract(text string, t *vocab.Tables) types.CandidateProfile {
	if t == nil {
		t = vocab.Default()
	}
	text = normalizeNewlines(text)

	profile := types.CandidateProfile{
		TechnicalSkills:   Skills(text, t.TechSkills),
		EducationEntries:  Education(text),
		ExperienceEntries: Experience(text),
		ProjectEntries:    Projects(text, t.ProjectTech),
	}
	profile.FullName, _ = Name(text)
	profile.Email, _ = Email(text)
	profile.Phone, _ = Phone(text)
	profile.LinkedInURL, _ = LinkedIn(text)
	profile.GitHubURL, _ = GitHub(text)
	profile.Summary, _ = Summary(text)
	profile.Certifications, _ = Certifications(text)
	return profile
}

// Skills returns every vocabulary entry that occurs in text, compared
// case-insensitively, in vocabulary order.
func Skills(text string, vocabulary []string) []string {
	lower := strings.ToLower(text)
	found := make([]string, 0, len(vocabulary))
	for _, skill := range vocabulary {
		if strings.Contains(lower, strings.ToLower(skill)) {
			found = append(found, skill)
		}
	}
	return found
}

func normalizeNewlines(text string) string {
	return strings.ReplaceAll(strings.ReplaceAll(text, "\r\n", "\n"), "\r", "\n")
}

// nonBlankLines returns the trimmed, non-empty lines of text.
func nonBlankLines(text string) []string {
	raw := strings.Split(text, "\n")
	lines := make([]string, 0, len(raw))
	for _, line := range raw {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

// truncate cuts s to at most n runes.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return strings.TrimSpace(string(r[:n]))
}
