// Package vocab holds the keyword tables that drive extraction and scoring.
//
// Tables are versioned configuration data: the built-in set is returned by
// Default, and a replacement can be loaded from a YAML or JSON file. A
// Tables value is never mutated after it is built, so a single snapshot can
// be shared by any number of concurrent callers.
package vocab

import (
	"fmt"
	"regexp"
	"slices"
	"strings"
)

// DefaultFamily is the family name reported when no role family matches.
const DefaultFamily = "default"

// RoleFamily maps a coarse job category to the keywords scored for it.
type RoleFamily struct {
	Name     string   `mapstructure:"name" yaml:"name" json:"name"`
	Keywords []string `mapstructure:"keywords" yaml:"keywords" json:"keywords"`
}

// SectionPattern detects one resume section by heading keyword.
type SectionPattern struct {
	Name    string `mapstructure:"name" yaml:"name" json:"name"`
	Pattern string `mapstructure:"pattern" yaml:"pattern" json:"pattern"`
}

// Section is a compiled SectionPattern.
type Section struct {
	Name string
	Re   *regexp.Regexp
}

// Tables is one version of the keyword vocabulary.
type Tables struct {
	Version         string           `mapstructure:"version" yaml:"version" json:"version"`
	RoleFamilies    []RoleFamily     `mapstructure:"role_families" yaml:"role_families" json:"roleFamilies"`
	DefaultKeywords []string         `mapstructure:"default_keywords" yaml:"default_keywords" json:"defaultKeywords"`
	TechSkills      []string         `mapstructure:"tech_skills" yaml:"tech_skills" json:"techSkills"`
	ProjectTech     []string         `mapstructure:"project_tech" yaml:"project_tech" json:"projectTech"`
	ActionVerbs     []string         `mapstructure:"action_verbs" yaml:"action_verbs" json:"actionVerbs"`
	SectionPatterns []SectionPattern `mapstructure:"section_patterns" yaml:"section_patterns" json:"sectionPatterns"`

	sections []Section
}

// Compile validates the tables and prepares the section regexes.
// Patterns are compiled case-insensitively.
func (t *Tables) Compile() error {
	if len(t.RoleFamilies) == 0 {
		return fmt.Errorf("vocabulary %q has no role families", t.Version)
	}
	for _, family := range t.RoleFamilies {
		if strings.TrimSpace(family.Name) == "" {
			return fmt.Errorf("vocabulary %q has a role family without a name", t.Version)
		}
		if len(family.Keywords) == 0 {
			return fmt.Errorf("role family %q has no keywords", family.Name)
		}
	}
	if len(t.DefaultKeywords) == 0 {
		return fmt.Errorf("vocabulary %q has no default keywords", t.Version)
	}

	sections := make([]Section, 0, len(t.SectionPatterns))
	for _, sp := range t.SectionPatterns {
		re, err := regexp.Compile("(?i)" + sp.Pattern)
		if err != nil {
			return fmt.Errorf("section %q: invalid pattern: %w", sp.Name, err)
		}
		sections = append(sections, Section{Name: sp.Name, Re: re})
	}
	t.sections = sections
	return nil
}

// Sections returns the compiled section patterns in table order.
func (t *Tables) Sections() []Section {
	return t.sections
}

// Family returns the role family that governs targetRole. The first family
// in table order whose name occurs in the lowercased role wins.
func (t *Tables) Family(targetRole string) (RoleFamily, bool) {
	role := strings.ToLower(targetRole)
	for _, family := range t.RoleFamilies {
		if strings.Contains(role, strings.ToLower(family.Name)) {
			return family, true
		}
	}
	return RoleFamily{Name: DefaultFamily, Keywords: t.DefaultKeywords}, false
}

// RoleKeywords returns the family name and the keyword list scored for
// targetRole: the family keywords followed by the default keywords, or the
// default keywords alone when no family matches.
func (t *Tables) RoleKeywords(targetRole string) (string, []string) {
	family, ok := t.Family(targetRole)
	if !ok {
		return DefaultFamily, slices.Clone(t.DefaultKeywords)
	}
	keywords := make([]string, 0, len(family.Keywords)+len(t.DefaultKeywords))
	keywords = append(keywords, family.Keywords...)
	keywords = append(keywords, t.DefaultKeywords...)
	return family.Name, keywords
}

// FamilyNames lists the role family names in table order.
func (t *Tables) FamilyNames() []string {
	names := make([]string, len(t.RoleFamilies))
	for i, family := range t.RoleFamilies {
		names[i] = family.Name
	}
	return names
}

// fillFrom copies every empty field of t from def.
func (t *Tables) fillFrom(def *Tables) {
	if t.Version == "" {
		t.Version = def.Version
	}
	if len(t.RoleFamilies) == 0 {
		t.RoleFamilies = def.RoleFamilies
	}
	if len(t.DefaultKeywords) == 0 {
		t.DefaultKeywords = def.DefaultKeywords
	}
	if len(t.TechSkills) == 0 {
		t.TechSkills = def.TechSkills
	}
	if len(t.ProjectTech) == 0 {
		t.ProjectTech = def.ProjectTech
	}
	if len(t.ActionVerbs) == 0 {
		t.ActionVerbs = def.ActionVerbs
	}
	if len(t.SectionPatterns) == 0 {
		t.SectionPatterns = def.SectionPatterns
	}
}
