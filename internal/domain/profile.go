package domain

// CandidateProfile describes the fixed interview context a session answers for.
type CandidateProfile struct {
	Recruiter   string              `json:"recruiter" yaml:"recruiter"`
	Company     string              `json:"company" yaml:"company"`
	Position    string              `json:"position" yaml:"position"`
	TechStack   string              `json:"tech_stack" yaml:"tech_stack"`
	Scale       string              `json:"scale" yaml:"scale"`
	Impact      string              `json:"impact" yaml:"impact"`
	Candidate   CandidateBackground `json:"candidate_background" yaml:"candidate_background"`
	Suggestions []string            `json:"company_specific_suggestions" yaml:"company_specific_suggestions"`
}

type CandidateBackground struct {
	Name           string   `json:"name" yaml:"name"`
	Education      string   `json:"education" yaml:"education"`
	Certifications string   `json:"certifications" yaml:"certifications"`
	Expertise      []string `json:"expertise" yaml:"expertise"`
	Experience     string   `json:"experience" yaml:"experience"`
	Strengths      []string `json:"strengths" yaml:"strengths"`
	Interests      []string `json:"interests" yaml:"interests"`
}
