// Package jobs holds the job postings and role templates the matcher ranks
// against, and loads replacement catalogs from disk.
package jobs

import (
	"slices"

	"resumescore/internal/types"
)

const fullTime = "Full-time"

var builtin = []types.JobPosting{
	{ID: "1", Title: "Frontend Developer", Company: "TechCorp India", Location: "Bangalore", Salary: "₹8-15 LPA", Type: fullTime, RequiredSkills: []string{"React", "JavaScript", "CSS"}, Posted: "2 days ago"},
	{ID: "2", Title: "React Developer", Company: "StartupXYZ", Location: "Mumbai", Salary: "₹10-18 LPA", Type: fullTime, RequiredSkills: []string{"React", "Redux", "TypeScript"}, Posted: "1 day ago"},
	{ID: "3", Title: "Full Stack Developer", Company: "InnovateTech", Location: "Remote", Salary: "₹12-22 LPA", Type: fullTime, RequiredSkills: []string{"React", "Node.js", "MongoDB"}, Posted: "3 days ago"},
	{ID: "4", Title: "Senior Frontend Engineer", Company: "GlobalSoft", Location: "Hyderabad", Salary: "₹18-28 LPA", Type: fullTime, RequiredSkills: []string{"React", "TypeScript", "GraphQL"}, Posted: "1 week ago"},
	{ID: "5", Title: "Backend Developer", Company: "DataFlow Inc", Location: "Pune", Salary: "₹10-20 LPA", Type: fullTime, RequiredSkills: []string{"Node.js", "Python", "PostgreSQL"}, Posted: "4 days ago"},
	{ID: "6", Title: "Python Developer", Company: "PyTech Solutions", Location: "Chennai", Salary: "₹10-18 LPA", Type: fullTime, RequiredSkills: []string{"Python", "Django", "PostgreSQL"}, Posted: "2 days ago"},
	{ID: "7", Title: "Data Analyst", Company: "AnalyticsPro", Location: "Bangalore", Salary: "₹8-14 LPA", Type: fullTime, RequiredSkills: []string{"Python", "SQL", "Tableau"}, Posted: "5 days ago"},
	{ID: "8", Title: "DevOps Engineer", Company: "CloudFirst", Location: "Remote", Salary: "₹15-25 LPA", Type: fullTime, RequiredSkills: []string{"Docker", "Kubernetes", "AWS"}, Posted: "3 days ago"},
	{ID: "9", Title: "Mobile Developer", Company: "AppMakers", Location: "Noida", Salary: "₹10-18 LPA", Type: fullTime, RequiredSkills: []string{"React Native", "Flutter", "Firebase"}, Posted: "1 day ago"},
	{ID: "10", Title: "UI/UX Designer", Company: "DesignHub", Location: "Mumbai", Salary: "₹8-15 LPA", Type: fullTime, RequiredSkills: []string{"Figma", "Adobe XD", "User Research"}, Posted: "6 days ago"},
	{ID: "11", Title: "Junior React Developer", Company: "FreshTech", Location: "Gurgaon", Salary: "₹4-8 LPA", Type: fullTime, RequiredSkills: []string{"React", "JavaScript", "HTML"}, Posted: "1 day ago"},
	{ID: "12", Title: "Node.js Developer", Company: "ServerPro", Location: "Bangalore", Salary: "₹12-20 LPA", Type: fullTime, RequiredSkills: []string{"Node.js", "Express", "MongoDB"}, Posted: "4 days ago"},
}

// Builtin returns a copy of the bundled job listings.
func Builtin() []types.JobPosting {
	out := make([]types.JobPosting, len(builtin))
	for i, job := range builtin {
		job.RequiredSkills = slices.Clone(job.RequiredSkills)
		out[i] = job
	}
	return out
}

// Find returns the posting with the given id.
func Find(jobs []types.JobPosting, id string) (types.JobPosting, bool) {
	for _, job := range jobs {
		if job.ID == id {
			return job, true
		}
	}
	return types.JobPosting{}, false
}
