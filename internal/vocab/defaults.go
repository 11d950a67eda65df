package vocab

// DefaultVersion identifies the built-in vocabulary.
const DefaultVersion = "builtin-1"

// Default returns a fresh copy of the built-in tables.
func Default() *Tables {
	t := &Tables{
		Version: DefaultVersion,
		RoleFamilies: []RoleFamily{
			{Name: "frontend", Keywords: []string{"JavaScript", "React", "Vue", "Angular", "HTML", "CSS", "TypeScript", "Redux", "Webpack", "REST API", "responsive design", "UI/UX"}},
			{Name: "backend", Keywords: []string{"Node.js", "Python", "Java", "Express", "MongoDB", "PostgreSQL", "MySQL", "REST API", "GraphQL", "Docker", "AWS", "microservices"}},
			{Name: "fullstack", Keywords: []string{"JavaScript", "React", "Node.js", "MongoDB", "PostgreSQL", "REST API", "Docker", "AWS", "Git", "TypeScript", "Express"}},
			{Name: "data", Keywords: []string{"Python", "SQL", "Pandas", "NumPy", "Machine Learning", "TensorFlow", "Tableau", "Statistics", "Data Visualization", "Excel"}},
			{Name: "devops", Keywords: []string{"Docker", "Kubernetes", "AWS", "Azure", "CI/CD", "Jenkins", "Terraform", "Linux", "Ansible", "Monitoring"}},
			{Name: "mobile", Keywords: []string{"React Native", "Flutter", "Swift", "Kotlin", "iOS", "Android", "Firebase", "REST API", "Mobile UI"}},
		},
		DefaultKeywords: []string{"communication", "problem-solving", "teamwork", "leadership", "analytical", "project management"},
		TechSkills: []string{
			"JavaScript", "Python", "Java", "React", "Node.js", "HTML", "CSS", "SQL", "MongoDB",
			"TypeScript", "Angular", "Vue", "Express", "Django", "Flask", "AWS", "Docker", "Git", "C++", "C#",
			"Ruby", "PHP", "Swift", "Kotlin", "Flutter", "React Native", "PostgreSQL", "MySQL", "Redis",
			"GraphQL", "REST API", "Redux", "Next.js", "Tailwind", "Bootstrap", "Firebase", "Kubernetes",
			"Webpack", "Sass", "jQuery", "Spring Boot", "FastAPI", "Rust", "Scala", "Dart",
			"Pandas", "NumPy", "TensorFlow", "PyTorch", "Machine Learning", "Tableau", "Power BI",
			"Azure", "GCP", "Terraform", "Jenkins", "Ansible", "Linux", "CI/CD",
			"Kafka", "RabbitMQ", "Elasticsearch", "Figma",
		},
		ProjectTech: []string{
			"JavaScript", "Python", "React", "Node.js", "HTML", "CSS", "MongoDB",
			"Express", "Django", "Flask", "AWS", "Docker", "Firebase", "TypeScript", "Vue", "Angular",
		},
		ActionVerbs: []string{
			"achieved", "built", "created", "developed", "delivered", "designed", "enhanced", "established",
			"executed", "generated", "implemented", "improved", "increased", "launched", "led", "managed",
			"optimized", "orchestrated", "produced", "reduced", "streamlined", "transformed", "spearheaded",
		},
		SectionPatterns: []SectionPattern{
			{Name: "summary", Pattern: `summary|objective|about|profile`},
			{Name: "experience", Pattern: `experience|work|employment|internship`},
			{Name: "education", Pattern: `education|degree|university|college`},
			{Name: "skills", Pattern: `skills|technologies|tech stack`},
			{Name: "projects", Pattern: `projects|portfolio`},
		},
	}
	if err := t.Compile(); err != nil {
		panic("vocab: built-in tables do not compile: " + err.Error())
	}
	return t
}
