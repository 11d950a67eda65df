package extract

import (
	"regexp"
	"strings"
)

const (
	summaryMaxLines        = 5
	summaryMaxLen          = 500
	certificationsMaxLines = 20
	certificationsMaxLen   = 300
)

var (
	summaryHeading        = regexp.MustCompile(`(?i)summary|objective|about|profile`)
	certificationsHeading = regexp.MustCompile(`(?i)certifications?|certificates?`)

	// labelLine is a "Word:" line that opens another labelled block.
	labelLine = regexp.MustCompile(`^[A-Z][a-z]+:`)
)

// block describes a section found by heading keyword and bounded by the
// next recognized heading.
type block struct {
	heading *regexp.Regexp
	// end matches the first position that closes the block.
	end *regexp.Regexp
}

var (
	experienceBlock = block{
		heading: regexp.MustCompile(`(?i)experience|work\s*history|employment`),
		end:     regexp.MustCompile(`(?i)education|projects|skills|achievements|certifications|\n\n[a-z]`),
	}
	projectsBlock = block{
		heading: regexp.MustCompile(`(?i)projects|portfolio`),
		end:     regexp.MustCompile(`(?i)experience|education|skills|achievements|certifications|\n\n[a-z]`),
	}
	educationBlock = block{
		heading: regexp.MustCompile(`(?i)education|academic`),
		end:     regexp.MustCompile(`(?i)experience|projects|skills|achievements|certifications|\n\n[a-z]`),
	}
)

// find returns the text between the heading and the next boundary.
func (b block) find(text string) (string, bool) {
	loc := b.heading.FindStringIndex(text)
	if loc == nil {
		return "", false
	}
	rest := afterHeading(text[loc[1]:])
	if end := b.end.FindStringIndex(rest); end != nil {
		rest = rest[:end[0]]
	}
	return rest, true
}

// afterHeading drops the colons and whitespace that follow a heading keyword.
func afterHeading(rest string) string {
	return strings.TrimLeft(rest, ": \t\n")
}

// captureLines takes the first line after a heading and up to maxLines-1
// following lines, stopping at a blank line or another "Word:" label.
func captureLines(text string, heading *regexp.Regexp, maxLines, maxLen int) (string, bool) {
	loc := heading.FindStringIndex(text)
	if loc == nil {
		return "", false
	}
	rest := afterHeading(text[loc[1]:])

	var captured []string
	for i, line := range strings.Split(rest, "\n") {
		if len(captured) == maxLines {
			break
		}
		if strings.TrimSpace(line) == "" {
			break
		}
		if i > 0 && labelLine.MatchString(line) {
			break
		}
		captured = append(captured, strings.TrimSpace(line))
	}

	value := truncate(strings.TrimSpace(strings.Join(captured, "\n")), maxLen)
	return value, value != ""
}

// Summary returns the block following a summary-like heading.
func Summary(text string) (string, bool) {
	return captureLines(text, summaryHeading, summaryMaxLines, summaryMaxLen)
}

// Certifications returns the block following a certifications heading.
func Certifications(text string) (string, bool) {
	return captureLines(text, certificationsHeading, certificationsMaxLines, certificationsMaxLen)
}

// splitEntries splits a block into entries at lines for which isStart
// reports true. The first line always opens an entry.
func splitEntries(blockText string, isStart func(line string) bool) []string {
	var (
		entries []string
		current []string
	)
	for _, line := range strings.Split(blockText, "\n") {
		if len(current) > 0 && line != "" && isStart(line) {
			entries = append(entries, strings.Join(current, "\n"))
			current = nil
		}
		current = append(current, line)
	}
	if len(current) > 0 {
		entries = append(entries, strings.Join(current, "\n"))
	}
	return entries
}
