package types

import "time"

// Education is a single education record pulled from resume text.
type Education struct {
	Degree         string `json:"degree"`
	University     string `json:"university"`
	GraduationYear string `json:"graduationYear"`
}

// Experience is a single work history record.
type Experience struct {
	Company     string `json:"company"`
	Role        string `json:"role"`
	Duration    string `json:"duration"`
	Description string `json:"description"`
}

// Project is a single project record.
type Project struct {
	Name         string   `json:"name"`
	Description  string   `json:"description"`
	Technologies []string `json:"technologies"`
}

// CandidateProfile is the structured view of a resume.
// Optional string fields are empty when nothing matched; list fields are
// empty slices, never nil.
type CandidateProfile struct {
	FullName          string       `json:"fullName,omitempty"`
	Email             string       `json:"email,omitempty"`
	Phone             string       `json:"phone,omitempty"`
	LinkedInURL       string       `json:"linkedinUrl,omitempty"`
	GitHubURL         string       `json:"githubUrl,omitempty"`
	TechnicalSkills   []string     `json:"technicalSkills"`
	Summary           string       `json:"summary,omitempty"`
	EducationEntries  []Education  `json:"educationEntries"`
	ExperienceEntries []Experience `json:"experienceEntries"`
	ProjectEntries    []Project    `json:"projectEntries"`
	Certifications    string       `json:"certifications,omitempty"`
}

// SubScore is one component of the ATS rubric.
type SubScore struct {
	Score int `json:"score"`
	Max   int `json:"max"`
}

// KeywordScore adds the keyword family and matched terms.
type KeywordScore struct {
	SubScore
	Family  string   `json:"family"`
	Found   []string `json:"found"`
	Missing []string `json:"missing"`
}

// SectionScore records which sections were detected.
type SectionScore struct {
	SubScore
	Found map[string]bool `json:"found"`
}

// VerbScore records which action verbs were used.
type VerbScore struct {
	SubScore
	Found []string `json:"found"`
}

// FormattingScore records the word count used for the length rule.
type FormattingScore struct {
	SubScore
	WordCount int `json:"wordCount"`
}

// ContactScore records which contact channels were found.
type ContactScore struct {
	SubScore
	HasEmail    bool `json:"hasEmail"`
	HasPhone    bool `json:"hasPhone"`
	HasLinkedIn bool `json:"hasLinkedIn"`
	HasGitHub   bool `json:"hasGitHub"`
}

// ScoreBreakdown holds the five rubric components. The Max values always
// sum to 100.
type ScoreBreakdown struct {
	Keywords    KeywordScore    `json:"keywords"`
	Sections    SectionScore    `json:"sections"`
	ActionVerbs VerbScore       `json:"actionVerbs"`
	Formatting  FormattingScore `json:"formatting"`
	Contact     ContactScore    `json:"contact"`
}

// Sum adds up the component scores without clamping.
func (b ScoreBreakdown) Sum() int {
	return b.Keywords.Score + b.Sections.Score + b.ActionVerbs.Score + b.Formatting.Score + b.Contact.Score
}

// MaxSum adds up the component maxima.
func (b ScoreBreakdown) MaxSum() int {
	return b.Keywords.Max + b.Sections.Max + b.ActionVerbs.Max + b.Formatting.Max + b.Contact.Max
}

// Severity ranks a suggestion.
type Severity string

const (
	SeverityCritical  Severity = "critical"
	SeverityImportant Severity = "important"
	SeverityModerate  Severity = "moderate"
)

// Suggestion is an improvement hint derived from the breakdown.
type Suggestion struct {
	Severity         Severity `json:"severity"`
	Title            string   `json:"title"`
	Description      string   `json:"description"`
	EstimatedGain    string   `json:"estimatedGain"`
	EstimatedGainMin int      `json:"estimatedGainMin"`
	EstimatedGainMax int      `json:"estimatedGainMax"`
}

// ScoreReport is the complete output of the evaluator.
type ScoreReport struct {
	TargetRole        string         `json:"targetRole"`
	TotalScore        int            `json:"totalScore"`
	Label             string         `json:"label"`
	Breakdown         ScoreBreakdown `json:"breakdown"`
	Suggestions       []Suggestion   `json:"suggestions"`
	ImprovedScore     int            `json:"improvedScore"`
	PotentialGain     int            `json:"potentialGain"`
	VocabularyVersion string         `json:"vocabularyVersion"`
}

// JobPosting is a read-only listing supplied by a job source.
type JobPosting struct {
	ID             string   `json:"id" yaml:"id"`
	Title          string   `json:"title" yaml:"title"`
	Company        string   `json:"company" yaml:"company"`
	Location       string   `json:"location,omitempty" yaml:"location"`
	Salary         string   `json:"salary,omitempty" yaml:"salary"`
	Type           string   `json:"type,omitempty" yaml:"type"`
	RequiredSkills []string `json:"requiredSkills" yaml:"requiredSkills"`
	Posted         string   `json:"posted,omitempty" yaml:"posted"`
}

// MatchedJob is a posting annotated with how well it fits a candidate.
type MatchedJob struct {
	JobPosting
	MatchScore     int      `json:"matchScore"`
	MatchingSkills []string `json:"matchingSkills"`
}

// RoleTemplate describes what a target role usually asks for.
type RoleTemplate struct {
	Role       string   `json:"role"`
	Skills     []string `json:"skills"`
	Tools      []string `json:"tools"`
	SoftSkills []string `json:"softSkills"`
}

// AnalysisReport bundles extraction, scoring and matching for one resume.
type AnalysisReport struct {
	ID         string           `json:"id"`
	CreatedAt  time.Time        `json:"createdAt"`
	TargetRole string           `json:"targetRole"`
	Profile    CandidateProfile `json:"profile"`
	Score      ScoreReport      `json:"score"`
	Jobs       []MatchedJob     `json:"jobs"`
}

// AdviceRewrite is a concrete rewrite proposed by the AI reviewer.
type AdviceRewrite struct {
	Section   string `json:"section"`
	Original  string `json:"original"`
	Suggested string `json:"suggested"`
	Reason    string `json:"reason"`
}

// Advice is the AI reviewer's answer for an analysis report.
type Advice struct {
	Headline        string          `json:"headline"`
	Rewrites        []AdviceRewrite `json:"rewrites"`
	MissingKeywords []string        `json:"missingKeywords"`
	NextSteps       []string        `json:"nextSteps"`
}

// ApplicationStatus is the tracking state of a job application.
type ApplicationStatus string

const (
	StatusSaved     ApplicationStatus = "saved"
	StatusApplied   ApplicationStatus = "applied"
	StatusInterview ApplicationStatus = "interview"
	StatusOffer     ApplicationStatus = "offer"
	StatusRejected  ApplicationStatus = "rejected"
	StatusWithdrawn ApplicationStatus = "withdrawn"
)

// Valid reports whether s is a known status.
func (s ApplicationStatus) Valid() bool {
	switch s {
	case StatusSaved, StatusApplied, StatusInterview, StatusOffer, StatusRejected, StatusWithdrawn:
		return true
	}
	return false
}

// SavedProfile is a candidate profile stored for a user.
type SavedProfile struct {
	UserID     string           `json:"userId"`
	TargetRole string           `json:"targetRole"`
	Profile    CandidateProfile `json:"profile"`
	UpdatedAt  time.Time        `json:"updatedAt"`
}

// SavedJob is a posting bookmarked by a user.
type SavedJob struct {
	UserID  string     `json:"userId"`
	Job     JobPosting `json:"job"`
	SavedAt time.Time  `json:"savedAt"`
}

// Application tracks a user's application to a job.
type Application struct {
	UserID    string            `json:"userId"`
	Job       JobPosting        `json:"job"`
	Status    ApplicationStatus `json:"status"`
	Notes     string            `json:"notes"`
	AppliedAt time.Time         `json:"appliedAt"`
	UpdatedAt time.Time         `json:"updatedAt"`
}

// ApplicationStats counts a user's applications per status.
type ApplicationStats struct {
	Total     int `json:"total"`
	Applied   int `json:"applied"`
	Interview int `json:"interview"`
	Offer     int `json:"offer"`
	Rejected  int `json:"rejected"`
}
