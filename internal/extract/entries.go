package extract

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"resumescore/internal/types"
)

const (
	experienceMinLen     = 30
	experienceCompanyMax = 50
	experienceDescMax    = 200
	projectMinLen        = 20
	projectNameMax       = 50
	projectDescMax       = 300
	projectFallbackMax   = 3
)

var (
	rolePattern    = regexp.MustCompile(`(?i)\b(intern|developer|engineer|analyst|designer|manager|associate|executive|specialist)`)
	companyPattern = regexp.MustCompile(`(?:\b[Aa]t|@)\s*([A-Z][^\n,|(]+)`)
	// companyStop cuts a company capture at the first role or date fragment.
	companyStop = regexp.MustCompile(`\s+(?:as|from|since|in)\s|\s+[-–—|]\s*|\s*\(|\s+(?:19|20)\d{2}`)

	DurationStrategies = []Strategy{
		{Name: "month-range", Pattern: regexp.MustCompile(`(?i)\b(?:jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec)[a-z]*\.?\s*(?:19|20)\d{2}\s*(?:[-–—]|to)\s*(?:(?:jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec)[a-z]*\.?\s*(?:19|20)\d{2}|present|current)`)},
		{Name: "year-range", Pattern: regexp.MustCompile(`(?i)\b(?:19|20)\d{2}\s*(?:[-–—]|to)\s*(?:(?:19|20)\d{2}|present|current)\b`)},
	}

	bulletPrefix   = regexp.MustCompile(`^[•\-*\d.)\s]+`)
	projectNameCut = regexp.MustCompile(`:|\s[-–]\s`)
	// projectFallback finds bullet lines describing something that was built.
	projectFallback = regexp.MustCompile(`(?im)^\s*(?:•|-|\*|\d\.)\s*(.*\b(?:using|built with|developed|created)\b.*)$`)

	degreePattern     = regexp.MustCompile(`(?i)\b(?:B\.?Tech|M\.?Tech|B\.?Sc|M\.?Sc|M\.?B\.?A|MBA|BCA|MCA|B\.?E|B\.?A|M\.?S|Ph\.?D|Bachelor|Master|Diploma)\b[^,\n]*`)
	degreeStop        = regexp.MustCompile(`(?i)\s+(?:from|at)\s|\s+[-–|]\s|\s+(?:19|20)\d{2}`)
	universityPattern = regexp.MustCompile(`(?i)[^,\n]*\b(?:university|college|institute|school)\b[^,\n]*`)
	universityLead    = regexp.MustCompile(`(?i)^.*?\b(?:from|at)\s+`)
	universityTail    = regexp.MustCompile(`[\s(\-–]*(?:19|20)\d{2}.*$`)
	yearPattern       = regexp.MustCompile(`\b(?:19|20)\d{2}\b`)
)

// Experience splits the experience block into entries. An entry starts at
// a heading-like line: it begins with an uppercase letter and names an
// employer or a date range.
func Experience(text string) []types.Experience {
	entries := []types.Experience{}
	blockText, ok := experienceBlock.find(text)
	if !ok {
		return entries
	}

	for _, entry := range splitEntries(blockText, startsExperience) {
		if utf8.RuneCountInString(strings.TrimSpace(entry)) <= experienceMinLen {
			continue
		}
		lines := nonBlankLines(entry)
		exp := types.Experience{
			Role:        ExperienceRole(entry),
			Company:     ExperienceCompany(entry),
			Duration:    ExperienceDuration(entry),
			Description: truncate(strings.Join(window(lines, 1, 3), " "), experienceDescMax),
		}
		if exp.Company == "" {
			exp.Company = truncate(lines[0], experienceCompanyMax)
		}
		entries = append(entries, exp)
	}
	return entries
}

// ExperienceRole returns the first role keyword in entry.
func ExperienceRole(entry string) string {
	return rolePattern.FindString(entry)
}

// ExperienceCompany returns the organisation named after "at" or "@".
func ExperienceCompany(entry string) string {
	m := companyPattern.FindStringSubmatch(entry)
	if m == nil {
		return ""
	}
	company := m[1]
	if loc := companyStop.FindStringIndex(company); loc != nil {
		company = company[:loc[0]]
	}
	return strings.TrimSpace(strings.TrimRight(company, " .;:"))
}

// ExperienceDuration returns the first date range in entry.
func ExperienceDuration(entry string) string {
	m, _ := FirstMatch(entry, DurationStrategies)
	return m.Value
}

// Projects splits the projects block into entries. Without a projects
// heading it falls back to bullet lines that describe something built.
func Projects(text string, techVocabulary []string) []types.Project {
	projects := []types.Project{}
	if blockText, ok := projectsBlock.find(text); ok {
		isStart := startsUpper
		if hasMarkedLines(blockText) {
			isStart = startsMarker
		}
		for _, entry := range splitEntries(blockText, isStart) {
			if utf8.RuneCountInString(strings.TrimSpace(entry)) <= projectMinLen {
				continue
			}
			lines := nonBlankLines(entry)
			name, lead := ProjectName(lines[0])
			if n := utf8.RuneCountInString(name); n <= 2 || n >= 100 {
				continue
			}
			desc := lines[1:]
			if lead != "" {
				desc = append([]string{lead}, desc...)
			}
			projects = append(projects, types.Project{
				Name:         truncate(name, projectNameMax),
				Description:  truncate(strings.Join(desc, " "), projectDescMax),
				Technologies: Skills(entry, techVocabulary),
			})
		}
	}
	if len(projects) > 0 {
		return projects
	}

	for _, m := range projectFallback.FindAllStringSubmatch(text, projectFallbackMax) {
		line := strings.TrimSpace(m[1])
		projects = append(projects, types.Project{
			Name:         truncate(bulletPrefix.ReplaceAllString(line, ""), projectNameMax),
			Description:  line,
			Technologies: Skills(line, techVocabulary),
		})
	}
	return projects
}

// ProjectName strips bullets and numbering from a project title line and
// splits "Title: description" or "Title - description" into its parts.
func ProjectName(line string) (name, rest string) {
	name = bulletPrefix.ReplaceAllString(line, "")
	if loc := projectNameCut.FindStringIndex(name); loc != nil {
		name, rest = name[:loc[0]], name[loc[1]:]
	}
	return strings.TrimSpace(name), strings.TrimSpace(rest)
}

// Education returns at most one entry built from the education block.
func Education(text string) []types.Education {
	entries := []types.Education{}
	blockText, ok := educationBlock.find(text)
	if !ok {
		return entries
	}

	edu := types.Education{
		Degree:         Degree(blockText),
		University:     University(blockText),
		GraduationYear: GraduationYear(blockText),
	}
	if edu.Degree == "" && edu.University == "" {
		return entries
	}
	return append(entries, edu)
}

// Degree returns the first degree name in s.
func Degree(s string) string {
	degree := degreePattern.FindString(s)
	if loc := degreeStop.FindStringIndex(degree); loc != nil {
		degree = degree[:loc[0]]
	}
	return strings.TrimSpace(degree)
}

// University returns the institution phrase around a university-like word.
func University(s string) string {
	phrase := universityPattern.FindString(s)
	phrase = universityLead.ReplaceAllString(phrase, "")
	phrase = universityTail.ReplaceAllString(phrase, "")
	return strings.TrimSpace(phrase)
}

// GraduationYear returns the last year mentioned in s.
func GraduationYear(s string) string {
	years := yearPattern.FindAllString(s, -1)
	if len(years) == 0 {
		return ""
	}
	return years[len(years)-1]
}

func startsUpper(line string) bool {
	r, _ := utf8.DecodeRuneInString(line)
	return unicode.IsUpper(r)
}

func startsExperience(line string) bool {
	if !startsUpper(line) {
		return false
	}
	if companyPattern.MatchString(line) {
		return true
	}
	_, ok := FirstMatch(line, DurationStrategies)
	return ok
}

// startsMarker reports whether line opens with a bullet or a number.
func startsMarker(line string) bool {
	r, _ := utf8.DecodeRuneInString(strings.TrimLeft(line, " \t"))
	return unicode.IsDigit(r) || r == '•' || r == '-' || r == '*'
}

func hasMarkedLines(blockText string) bool {
	for _, line := range strings.Split(blockText, "\n") {
		if startsMarker(line) {
			return true
		}
	}
	return false
}

// window returns lines[from:to] clamped to the slice bounds.
func window(lines []string, from, to int) []string {
	if from >= len(lines) {
		return nil
	}
	if to > len(lines) {
		to = len(lines)
	}
	return lines[from:to]
}
