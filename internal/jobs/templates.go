package jobs

import (
	"slices"
	"strings"

	"resumescore/internal/matching"
	"resumescore/internal/types"
)

// fallbackListings is how many postings are shown for a role with no template.
const fallbackListings = 6

var templates = []types.RoleTemplate{
	{
		Role:       "Frontend Developer",
		Skills:     []string{"JavaScript", "React", "HTML5", "CSS3", "TypeScript", "Redux", "REST APIs", "Git", "Responsive Design", "Webpack"},
		Tools:      []string{"VS Code", "Chrome DevTools", "Figma", "npm", "GitHub"},
		SoftSkills: []string{"Problem-solving", "Communication", "Team Collaboration", "Attention to Detail"},
	},
	{
		Role:       "Backend Developer",
		Skills:     []string{"Node.js", "Python", "Java", "Express.js", "MongoDB", "PostgreSQL", "REST APIs", "GraphQL", "Docker", "AWS"},
		Tools:      []string{"VS Code", "Postman", "Docker Desktop", "pgAdmin", "MongoDB Compass"},
		SoftSkills: []string{"Analytical Thinking", "Problem-solving", "System Design", "Documentation"},
	},
	{
		Role:       "Full Stack Developer",
		Skills:     []string{"JavaScript", "React", "Node.js", "Express", "MongoDB", "PostgreSQL", "TypeScript", "REST APIs", "Docker", "Git"},
		Tools:      []string{"VS Code", "Postman", "Docker", "GitHub", "Figma"},
		SoftSkills: []string{"Full-cycle Development", "Problem-solving", "Communication", "Agile Methodology"},
	},
	{
		Role:       "Data Analyst",
		Skills:     []string{"Python", "SQL", "Excel", "Tableau", "Power BI", "Pandas", "NumPy", "Statistics", "Data Visualization", "R"},
		Tools:      []string{"Jupyter Notebook", "Tableau", "Power BI", "Excel", "Google Analytics"},
		SoftSkills: []string{"Analytical Thinking", "Attention to Detail", "Communication", "Business Acumen"},
	},
	{
		Role:       "DevOps Engineer",
		Skills:     []string{"Docker", "Kubernetes", "AWS", "Azure", "CI/CD", "Jenkins", "Terraform", "Linux", "Python", "Bash"},
		Tools:      []string{"Docker Desktop", "AWS Console", "Jenkins", "Terraform", "Prometheus", "Grafana"},
		SoftSkills: []string{"Automation Mindset", "Problem-solving", "System Administration", "Security Awareness"},
	},
	{
		Role:       "Mobile Developer",
		Skills:     []string{"React Native", "Flutter", "JavaScript", "Dart", "iOS", "Android", "Firebase", "REST APIs", "Redux", "Git"},
		Tools:      []string{"VS Code", "Android Studio", "Xcode", "Firebase Console", "Figma"},
		SoftSkills: []string{"Mobile UX Design", "Problem-solving", "Performance Optimization", "Cross-platform Thinking"},
	},
	{
		Role:       "UI/UX Designer",
		Skills:     []string{"Figma", "Adobe XD", "Sketch", "User Research", "Wireframing", "Prototyping", "Design Systems", "HTML", "CSS", "Usability Testing"},
		Tools:      []string{"Figma", "Adobe Creative Suite", "Miro", "InVision", "Maze"},
		SoftSkills: []string{"Creativity", "Empathy", "User Advocacy", "Visual Communication", "Collaboration"},
	},
	{
		Role:       "Python Developer",
		Skills:     []string{"Python", "Django", "Flask", "FastAPI", "PostgreSQL", "MongoDB", "REST APIs", "Docker", "Git", "AWS"},
		Tools:      []string{"PyCharm", "VS Code", "Postman", "Docker", "Jupyter"},
		SoftSkills: []string{"Problem-solving", "Code Quality", "Documentation", "Debugging"},
	},
}

// Templates returns a copy of the role templates in display order.
func Templates() []types.RoleTemplate {
	out := make([]types.RoleTemplate, len(templates))
	for i, t := range templates {
		out[i] = types.RoleTemplate{
			Role:       t.Role,
			Skills:     slices.Clone(t.Skills),
			Tools:      slices.Clone(t.Tools),
			SoftSkills: slices.Clone(t.SoftSkills),
		}
	}
	return out
}

// Template looks a role up by exact name, ignoring case.
func Template(role string) (types.RoleTemplate, bool) {
	role = strings.TrimSpace(role)
	for _, t := range Templates() {
		if strings.EqualFold(t.Role, role) {
			return t, true
		}
	}
	return types.RoleTemplate{}, false
}

// Roles lists the template role names.
func Roles() []string {
	out := make([]string, len(templates))
	for i, t := range templates {
		out[i] = t.Role
	}
	return out
}

// Recommend ranks postings for a role. With a template the role's skills
// and the user's skills both count and the best matching.RelevantLimit
// postings come back unfiltered. Without one the first few postings are
// returned unscored.
func Recommend(postings []types.JobPosting, role string, userSkills []string) []types.MatchedJob {
	t, ok := Template(role)
	if !ok {
		n := min(fallbackListings, len(postings))
		out := make([]types.MatchedJob, n)
		for i := range n {
			out[i] = types.MatchedJob{JobPosting: postings[i], MatchingSkills: []string{}}
		}
		return out
	}
	return matching.Relevant(postings, t.Skills, userSkills, matching.RelevantLimit)
}
