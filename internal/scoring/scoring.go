// Package scoring implements the ATS compatibility rubric.
//
// The rubric is a fixed linear scheme of five components weighted
// 30/25/15/15/15. The weights and thresholds are part of the contract:
// changing them changes every score ever reported.
package scoring

import (
	"math"
	"regexp"
	"strings"

	"resumescore/internal/types"
	"resumescore/internal/vocab"
)

// Component maxima. They sum to 100.
const (
	KeywordsMax    = 30
	SectionsMax    = 25
	ActionVerbsMax = 15
	FormattingMax  = 15
	ContactMax     = 15

	MaxScore = KeywordsMax + SectionsMax + ActionVerbsMax + FormattingMax + ContactMax
)

const (
	pointsPerSection = 5
	pointsPerVerb    = 2

	idealWordsMin  = 200
	idealWordsMax  = 800
	shortWordsMin  = 100
	idealLenPoints = 8
	shortLenPoints = 4
	newlinePoints  = 4
	cleanPoints    = 3

	emailPoints    = 5
	phonePoints    = 4
	linkedInPoints = 3
	gitHubPoints   = 3
)

var (
	emailPattern = regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)
	phonePattern = regexp.MustCompile(`(\+\d{1,3}[-.\s]?)?\(?\d{3}\)?[-.\s]?\d{3}[-.\s]?\d{4}`)
)

// Score computes the breakdown and the clamped total for text against
// targetRole. A nil t uses the built-in vocabulary.
func Score(text, targetRole string, t *vocab.Tables) (types.ScoreBreakdown, int) {
	if t == nil {
		t = vocab.Default()
	}
	lower := strings.ToLower(text)

	breakdown := types.ScoreBreakdown{
		Keywords:    scoreKeywords(lower, targetRole, t),
		Sections:    scoreSections(text, t),
		ActionVerbs: scoreVerbs(lower, t.ActionVerbs),
		Formatting:  scoreFormatting(text),
		Contact:     scoreContact(text, lower),
	}
	return breakdown, Total(breakdown)
}

// Total clamps the component sum to [0, MaxScore].
func Total(b types.ScoreBreakdown) int {
	return clamp(b.Sum(), 0, MaxScore)
}

func scoreKeywords(lower, targetRole string, t *vocab.Tables) types.KeywordScore {
	familyName, keywords := t.RoleKeywords(targetRole)
	found := containedIn(lower, keywords)

	family, _ := t.Family(targetRole)
	missing := make([]string, 0, len(family.Keywords))
	for _, kw := range family.Keywords {
		if !strings.Contains(lower, strings.ToLower(kw)) {
			missing = append(missing, kw)
		}
	}

	score := 0
	if len(keywords) > 0 {
		ratio := float64(len(found)) / float64(len(keywords))
		score = int(math.Round(math.Min(KeywordsMax, ratio*KeywordsMax)))
	}

	return types.KeywordScore{
		SubScore: types.SubScore{Score: score, Max: KeywordsMax},
		Family:   familyName,
		Found:    found,
		Missing:  missing,
	}
}

func scoreSections(text string, t *vocab.Tables) types.SectionScore {
	found := make(map[string]bool, len(t.Sections()))
	present := 0
	for _, section := range t.Sections() {
		ok := section.Re.MatchString(text)
		found[section.Name] = ok
		if ok {
			present++
		}
	}
	return types.SectionScore{
		SubScore: types.SubScore{Score: min(SectionsMax, present*pointsPerSection), Max: SectionsMax},
		Found:    found,
	}
}

func scoreVerbs(lower string, verbs []string) types.VerbScore {
	found := containedIn(lower, verbs)
	return types.VerbScore{
		SubScore: types.SubScore{Score: min(ActionVerbsMax, len(found)*pointsPerVerb), Max: ActionVerbsMax},
		Found:    found,
	}
}

func scoreFormatting(text string) types.FormattingScore {
	words := WordCount(text)
	score := 0
	switch {
	case words >= idealWordsMin && words <= idealWordsMax:
		score += idealLenPoints
	case words >= shortWordsMin && words < idealWordsMin:
		score += shortLenPoints
	}
	if strings.Contains(text, "\n") {
		score += newlinePoints
	}
	if words > 0 && !strings.ContainsAny(text, "<>{}") {
		score += cleanPoints
	}
	return types.FormattingScore{
		SubScore:  types.SubScore{Score: min(FormattingMax, score), Max: FormattingMax},
		WordCount: words,
	}
}

func scoreContact(text, lower string) types.ContactScore {
	c := types.ContactScore{
		HasEmail:    emailPattern.MatchString(text),
		HasPhone:    phonePattern.MatchString(text),
		HasLinkedIn: strings.Contains(lower, "linkedin"),
		HasGitHub:   strings.Contains(lower, "github"),
	}
	score := 0
	if c.HasEmail {
		score += emailPoints
	}
	if c.HasPhone {
		score += phonePoints
	}
	if c.HasLinkedIn {
		score += linkedInPoints
	}
	if c.HasGitHub {
		score += gitHubPoints
	}
	c.SubScore = types.SubScore{Score: min(ContactMax, score), Max: ContactMax}
	return c
}

// WordCount counts whitespace separated words.
func WordCount(text string) int {
	return len(strings.Fields(text))
}

// containedIn returns the terms found in lower, compared case-insensitively,
// in term order.
func containedIn(lower string, terms []string) []string {
	found := make([]string, 0, len(terms))
	for _, term := range terms {
		if strings.Contains(lower, strings.ToLower(term)) {
			found = append(found, term)
		}
	}
	return found
}

func clamp(v, lo, hi int) int {
	return max(lo, min(hi, v))
}
