// Package profile builds ranking profiles from free-text persona and job
// descriptions. The heavy NLP classification lives upstream; this glue maps
// text onto a small fixed catalog of weighted keyword/domain entries.
package profile

// entry is one catalog persona or job: trigger keywords plus the domain
// weights it contributes to the profile.
type entry struct {
	label    string
	keywords []string
	domains  map[string]float64
}

var personaCatalog = []entry{
	{
		label:    "Undergraduate Chemistry Student",
		keywords: []string{"student", "undergraduate", "chemistry", "study", "exam", "homework", "assignment", "lab", "course", "college", "university"},
		domains:  map[string]float64{"chemistry": 1.0, "education": 0.8},
	},
	{
		label:    "Graduate Research Student",
		keywords: []string{"graduate", "research", "phd", "masters", "thesis", "dissertation", "publication", "methodology", "analysis", "academic"},
		domains:  map[string]float64{"research": 1.0, "education": 0.6},
	},
	{
		label:    "Travel Planner",
		keywords: []string{"travel", "trip", "vacation", "itinerary", "destination", "budget", "hotel", "flight", "tourism", "planner"},
		domains:  map[string]float64{"travel": 1.0, "finance": 0.4},
	},
	{
		label:    "HR Professional",
		keywords: []string{"hr", "human", "resources", "employee", "recruitment", "hiring", "compliance", "policy", "workforce", "personnel"},
		domains:  map[string]float64{"hr": 1.0, "legal": 0.4},
	},
	{
		label:    "Food Contractor",
		keywords: []string{"food", "catering", "contractor", "menu", "dietary", "nutrition", "cooking", "restaurant", "chef", "culinary"},
		domains:  map[string]float64{"food": 1.0},
	},
	{
		label:    "Legal Professional",
		keywords: []string{"legal", "lawyer", "attorney", "law", "contract", "regulation", "compliance", "litigation", "counsel"},
		domains:  map[string]float64{"legal": 1.0},
	},
	{
		label:    "Medical Professional",
		keywords: []string{"medical", "doctor", "physician", "healthcare", "diagnosis", "treatment", "patient", "clinical", "medicine"},
		domains:  map[string]float64{"healthcare": 1.0},
	},
	{
		label:    "Business Analyst",
		keywords: []string{"business", "analyst", "requirements", "process", "optimization", "strategy", "analysis", "consulting"},
		domains:  map[string]float64{"business": 1.0, "finance": 0.5},
	},
	{
		label:    "Financial Analyst",
		keywords: []string{"financial", "finance", "investment", "budget", "accounting", "economic", "market", "money"},
		domains:  map[string]float64{"finance": 1.0, "business": 0.6},
	},
	{
		label:    "Software Engineer",
		keywords: []string{"software", "engineer", "programming", "coding", "development", "api", "system", "technology", "computer"},
		domains:  map[string]float64{"technology": 1.0},
	},
	{
		label:    "General Reader",
		keywords: []string{"general", "reader", "reading", "learning", "understanding", "knowledge", "information", "curious"},
		domains:  map[string]float64{"education": 0.4},
	},
}

var jobCatalog = []entry{
	{
		label:    "Identify key concepts for exam preparation",
		keywords: []string{"exam", "study", "concepts", "mechanisms", "preparation", "test", "quiz", "learning"},
		domains:  map[string]float64{"education": 0.8},
	},
	{
		label:    "Extract research methodologies and findings",
		keywords: []string{"research", "methodology", "findings", "analysis", "study", "investigation", "results"},
		domains:  map[string]float64{"research": 0.8},
	},
	{
		label:    "Plan trip itineraries and budget allocation",
		keywords: []string{"trip", "itinerary", "budget", "travel", "vacation", "planning", "destination", "cost"},
		domains:  map[string]float64{"travel": 0.8, "finance": 0.5},
	},
	{
		label:    "Review compliance requirements and procedures",
		keywords: []string{"compliance", "requirements", "procedures", "regulation", "policy", "audit", "standards"},
		domains:  map[string]float64{"legal": 0.8},
	},
	{
		label:    "Analyze dietary requirements and menu planning",
		keywords: []string{"dietary", "menu", "nutrition", "food", "planning", "requirements", "meal"},
		domains:  map[string]float64{"food": 0.8},
	},
	{
		label:    "Review contract terms and legal obligations",
		keywords: []string{"contract", "legal", "terms", "obligations", "agreement", "law", "clause", "liability"},
		domains:  map[string]float64{"legal": 0.8},
	},
	{
		label:    "Understand diagnosis and treatment protocols",
		keywords: []string{"diagnosis", "treatment", "protocol", "medical", "healthcare", "patient", "clinical", "therapy"},
		domains:  map[string]float64{"healthcare": 0.8},
	},
	{
		label:    "Identify business requirements and processes",
		keywords: []string{"business", "requirements", "processes", "workflow", "analysis", "optimization", "efficiency"},
		domains:  map[string]float64{"business": 0.8},
	},
}
