package skillgap

// DefaultRoles returns a fresh copy of the built-in role table.
func DefaultRoles() map[string][]string {
	return map[string][]string{
		"Software Engineer":         {"Python", "JavaScript", "System Design", "Data Structures", "Algorithms", "Git", "SQL"},
		"Data Scientist":            {"Python", "Machine Learning", "Statistics", "SQL", "Data Visualization", "TensorFlow", "Pandas"},
		"DevOps Engineer":           {"Docker", "Kubernetes", "AWS", "CI/CD", "Linux", "Terraform", "Monitoring"},
		"Frontend Developer":        {"JavaScript", "React", "CSS", "HTML", "TypeScript", "Redux", "Responsive Design"},
		"Backend Developer":         {"Python", "Node.js", "SQL", "REST APIs", "Databases", "Authentication", "Caching"},
		"Full Stack Developer":      {"JavaScript", "React", "Node.js", "SQL", "MongoDB", "Git", "Docker"},
		"Machine Learning Engineer": {"Python", "TensorFlow", "PyTorch", "Statistics", "Linear Algebra", "NLP", "Computer Vision"},
		"Product Manager":           {"Product Strategy", "User Research", "Analytics", "Communication", "Leadership", "Roadmapping"},
		"UX Designer":               {"Figma", "User Research", "Wireframing", "Prototyping", "Design Systems", "CSS", "Accessibility"},
	}
}
