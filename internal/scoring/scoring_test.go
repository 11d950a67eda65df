package scoring

import (
	"math/rand"
	"strings"
	"testing"

	"resumescore/internal/types"
	"resumescore/internal/vocab"
)

const janeResume = "Jane Doe\njane@x.com\n9876543210\nSummary: Frontend engineer.\nSkills: React, JavaScript, CSS\nExperience: Worked at Acme as Developer 2020-2022\nEducation: B.Tech from XYZ University 2020"

func TestScoreScenario(t *testing.T) {
	b, total := Score(janeResume, "Frontend Developer", vocab.Default())

	if b.Keywords.Family != "frontend" {
		t.Errorf("expected frontend family, got %s", b.Keywords.Family)
	}
	// JavaScript, React and CSS out of 12 frontend + 6 default keywords.
	if b.Keywords.Score != 5 {
		t.Errorf("keywords = %d, want 5", b.Keywords.Score)
	}
	// Every section except projects has a matching heading keyword.
	if b.Sections.Score != 20 {
		t.Errorf("sections = %d, want 20", b.Sections.Score)
	}
	if b.Sections.Found["projects"] {
		t.Error("projects section should not be detected")
	}
	if b.Contact.Score < 9 {
		t.Errorf("contact = %d, want >= 9", b.Contact.Score)
	}
	if !b.Contact.HasEmail || !b.Contact.HasPhone || b.Contact.HasLinkedIn || b.Contact.HasGitHub {
		t.Errorf("unexpected contact flags: %+v", b.Contact)
	}
	if total != b.Sum() {
		t.Errorf("total %d != sum %d", total, b.Sum())
	}
}

func TestScoreEmptyInput(t *testing.T) {
	b, total := Score("", "", nil)
	if total != 0 {
		t.Errorf("total = %d, want 0", total)
	}
	for name, sub := range map[string]types.SubScore{
		"keywords":    b.Keywords.SubScore,
		"sections":    b.Sections.SubScore,
		"actionVerbs": b.ActionVerbs.SubScore,
		"formatting":  b.Formatting.SubScore,
		"contact":     b.Contact.SubScore,
	} {
		if sub.Score != 0 {
			t.Errorf("%s = %d, want 0", name, sub.Score)
		}
	}
}

func TestWordCount(t *testing.T) {
	tests := []struct {
		text string
		want int
	}{
		{"", 0},
		{"   ", 0},
		{"one", 1},
		{"  leading and trailing  ", 3},
		{"tabs\tand\nnewlines  mixed", 4},
	}
	for _, tt := range tests {
		if got := WordCount(tt.text); got != tt.want {
			t.Errorf("WordCount(%q) = %d, want %d", tt.text, got, tt.want)
		}
	}
}

func TestFormatting(t *testing.T) {
	words := func(n int) string { return strings.TrimSpace(strings.Repeat("word ", n)) }

	tests := []struct {
		name string
		text string
		want int
	}{
		{"ideal length with lines", words(250) + "\nmore", 8 + 4 + 3},
		{"short length", words(150), 4 + 3},
		{"too short", words(20), 3},
		{"too long", words(900) + "\n", 4 + 3},
		{"markup", words(250) + " <div>", 8 + 0},
		{"braces with newline", "a\n{b}", 4},
		{"padding is not counted as words", "  \n" + words(199) + "\n  ", 4 + 4 + 3},
		{"empty", "", 0},
		{"whitespace and newlines only", " \n\t\n ", 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := scoreFormatting(tt.text)
			if got.Score != tt.want {
				t.Errorf("formatting = %d, want %d (words %d)", got.Score, tt.want, got.WordCount)
			}
		})
	}
}

func TestActionVerbsCapped(t *testing.T) {
	text := strings.Join(vocab.Default().ActionVerbs, " ")
	b, _ := Score(text, "", nil)
	if b.ActionVerbs.Score != ActionVerbsMax {
		t.Errorf("verbs = %d, want %d", b.ActionVerbs.Score, ActionVerbsMax)
	}
	if len(b.ActionVerbs.Found) != 23 {
		t.Errorf("found %d verbs, want 23", len(b.ActionVerbs.Found))
	}
}

func TestContactFull(t *testing.T) {
	b, _ := Score("a@b.io +1 555-123-4567 linkedin.com/in/a GitHub.com/a", "", nil)
	if b.Contact.Score != ContactMax {
		t.Errorf("contact = %d, want %d", b.Contact.Score, ContactMax)
	}
}

func TestMaxSumIsHundred(t *testing.T) {
	b, _ := Score(janeResume, "data", nil)
	if b.MaxSum() != 100 || MaxScore != 100 {
		t.Errorf("max sum = %d, want 100", b.MaxSum())
	}
}

func randomResume(r *rand.Rand, tables *vocab.Tables) string {
	pool := []string{"\n", "Summary:", "Experience", "Projects", "<", "{", "jane@x.com", "9876543210", "linkedin", "github"}
	pool = append(pool, tables.TechSkills...)
	pool = append(pool, tables.ActionVerbs...)
	pool = append(pool, tables.DefaultKeywords...)
	n := r.Intn(1200)
	parts := make([]string, n)
	for i := range parts {
		parts[i] = pool[r.Intn(len(pool))]
	}
	return strings.Join(parts, " ")
}

func TestScoreProperties(t *testing.T) {
	tables := vocab.Default()
	r := rand.New(rand.NewSource(42))
	roles := []string{"", "Frontend Developer", "backend", "Data Scientist", "DevOps", "mobile dev", "Chef"}

	for i := 0; i < 200; i++ {
		text := randomResume(r, tables)
		role := roles[i%len(roles)]

		b, total := Score(text, role, tables)
		if total < 0 || total > 100 {
			t.Fatalf("total %d out of range", total)
		}
		if total != min(100, b.Sum()) {
			t.Fatalf("total %d != min(100, %d)", total, b.Sum())
		}
		for _, sub := range []types.SubScore{b.Keywords.SubScore, b.Sections.SubScore, b.ActionVerbs.SubScore, b.Formatting.SubScore, b.Contact.SubScore} {
			if sub.Score < 0 || sub.Score > sub.Max {
				t.Fatalf("sub-score %d outside [0,%d]", sub.Score, sub.Max)
			}
		}

		again, totalAgain := Score(text, role, tables)
		if totalAgain != total || again.Keywords.Score != b.Keywords.Score {
			t.Fatal("score is not deterministic")
		}
	}
}

func TestKeywordMonotonicity(t *testing.T) {
	tables := vocab.Default()
	base := "Experienced engineer who enjoys teamwork."
	prev, _ := Score(base, "Backend Engineer", tables)

	text := base
	for _, skill := range tables.TechSkills {
		text += " " + skill
		next, _ := Score(text, "Backend Engineer", tables)
		if next.Keywords.Score < prev.Keywords.Score {
			t.Fatalf("adding %q lowered keywords from %d to %d", skill, prev.Keywords.Score, next.Keywords.Score)
		}
		prev = next
	}
}
