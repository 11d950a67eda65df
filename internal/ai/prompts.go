package ai

import (
	"fmt"
	"strconv"
	"strings"

	"resumescore/internal/config"
)

// Prompts is the system instruction and user template for one call.
type Prompts struct {
	System string
	User   string
}

// DefaultPrompts are used when the configuration does not override them.
var DefaultPrompts = Prompts{
	System: `You are an expert resume reviewer who helps candidates pass applicant tracking systems. Your core principles are:

- NEVER invent skills, employers, dates or achievements that are not in the resume
- Every rewrite must be traceable to something the candidate already wrote
- Prefer concrete, measurable phrasing and strong action verbs
- Keep advice short and specific to the target role`,

	User: `A candidate is applying for the role: {{role}}.

An automated ATS check scored the resume {{score}}/100 ({{label}}).
Score breakdown: {{breakdown}}
Keywords the check could not find: {{missing}}
Suggestions already produced: {{suggestions}}

**Tasks:**

1. Write a one sentence headline summarizing the most important fix.
2. Propose up to five rewrites of existing resume lines. For each, give the section, the original text, the suggested text and a short reason. Only rephrase what is already there.
3. List keywords relevant to the role that are missing from the resume and that the candidate could honestly add if they have the skill.
4. List up to three next steps.

**Resume:**
-----
{{resume}}
-----`,
}

// ResolvePrompts applies configured overrides on top of the defaults.
func ResolvePrompts(cfg config.PromptConfig) Prompts {
	p := DefaultPrompts
	if strings.TrimSpace(cfg.System) != "" {
		p.System = cfg.System
	}
	if strings.TrimSpace(cfg.User) != "" {
		p.User = cfg.User
	}
	return p
}

// RenderUser fills the {{...}} placeholders of the user template.
func (p Prompts) RenderUser(input AdviceInput) string {
	score := input.Report.Score
	b := score.Breakdown

	role := score.TargetRole
	if role == "" {
		role = "not specified"
	}

	missing := "none"
	if len(b.Keywords.Missing) > 0 {
		missing = strings.Join(b.Keywords.Missing, ", ")
	}

	suggestions := "none"
	if len(score.Suggestions) > 0 {
		titles := make([]string, len(score.Suggestions))
		for i, s := range score.Suggestions {
			titles[i] = s.Title
		}
		suggestions = strings.Join(titles, "; ")
	}

	breakdown := fmt.Sprintf("keywords %d/%d, sections %d/%d, action verbs %d/%d, formatting %d/%d, contact %d/%d",
		b.Keywords.Score, b.Keywords.Max,
		b.Sections.Score, b.Sections.Max,
		b.ActionVerbs.Score, b.ActionVerbs.Max,
		b.Formatting.Score, b.Formatting.Max,
		b.Contact.Score, b.Contact.Max)

	return strings.NewReplacer(
		"{{role}}", role,
		"{{score}}", strconv.Itoa(score.TotalScore),
		"{{label}}", score.Label,
		"{{breakdown}}", breakdown,
		"{{missing}}", missing,
		"{{suggestions}}", suggestions,
		"{{resume}}", input.Text,
	).Replace(p.User)
}
