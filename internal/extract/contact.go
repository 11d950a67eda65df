package extract

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	nameScanLines = 5
	nameMaxLen    = 50
)

var (
	namePattern  = regexp.MustCompile(`^[A-Z][a-z]+(\s+[A-Z][a-z]+)+$`)
	EmailPattern = regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)
)

// PhoneStrategies go from the most specific regional form to the most
// generic one.
var PhoneStrategies = []Strategy{
	{Name: "indian-mobile", Pattern: regexp.MustCompile(`(\+91[\s-]?)?[6-9]\d{9}`)},
	{Name: "international", Pattern: regexp.MustCompile(`(\+\d{1,3}[\s-]?)?\d{3}[\s-]?\d{3}[\s-]?\d{4}`)},
	{Name: "generic", Pattern: regexp.MustCompile(`(\+\d{1,3}[-.\s]?)?(\(?\d{3}\)?[-.\s]?)?\d{3,4}[-.\s]?\d{4}`)},
}

// LinkedInStrategies capture the profile handle.
var LinkedInStrategies = []Strategy{
	{Name: "url", Pattern: regexp.MustCompile(`(?i)linkedin\.com/in/([\w-]+)`), Group: 1},
	{Name: "label", Pattern: regexp.MustCompile(`(?i)linkedin\s*:\s*@?([\w-]+)`), Group: 1},
}

// GitHubStrategies capture the account handle.
var GitHubStrategies = []Strategy{
	{Name: "url", Pattern: regexp.MustCompile(`(?i)github\.com/([\w-]+)`), Group: 1},
	{Name: "label", Pattern: regexp.MustCompile(`(?i)github\s*:\s*@?([\w-]+)`), Group: 1},
}

// Name returns the candidate name from the first lines of text.
func Name(text string) (string, bool) {
	lines := nonBlankLines(text)
	if len(lines) > nameScanLines {
		lines = lines[:nameScanLines]
	}
	for _, line := range lines {
		if utf8.RuneCountInString(line) < nameMaxLen && namePattern.MatchString(line) {
			return line, true
		}
	}
	if len(lines) > 0 && utf8.RuneCountInString(lines[0]) < nameMaxLen && isAlphabetic(lines[0]) {
		return lines[0], true
	}
	return "", false
}

func isAlphabetic(s string) bool {
	hasLetter := false
	for _, r := range s {
		switch {
		case unicode.IsLetter(r):
			hasLetter = true
		case r == ' ':
		default:
			return false
		}
	}
	return hasLetter
}

// Email returns the first email address in text.
func Email(text string) (string, bool) {
	email := EmailPattern.FindString(text)
	return email, email != ""
}

// Phone returns the first phone number found by PhoneStrategies.
func Phone(text string) (string, bool) {
	m, ok := FirstMatch(text, PhoneStrategies)
	return m.Value, ok
}

// LinkedIn returns the canonical profile URL for the first handle found.
func LinkedIn(text string) (string, bool) {
	m, ok := FirstMatch(text, LinkedInStrategies)
	if !ok || isURLWord(m.Value) {
		return "", false
	}
	return "https://linkedin.com/in/" + m.Value, true
}

// GitHub returns the canonical account URL for the first handle found.
func GitHub(text string) (string, bool) {
	m, ok := FirstMatch(text, GitHubStrategies)
	if !ok || isURLWord(m.Value) {
		return "", false
	}
	return "https://github.com/" + m.Value, true
}

// isURLWord rejects label captures such as "LinkedIn: https://..." where
// the url strategy did not match.
func isURLWord(handle string) bool {
	switch strings.ToLower(handle) {
	case "http", "https", "www":
		return true
	}
	return false
}
