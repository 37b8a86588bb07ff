package recommend

import "strings"

// Experience levels
const (
	ExperienceBeginner     = "beginner"
	ExperienceIntermediate = "intermediate"
	ExperienceAdvanced     = "advanced"
)

// Time commitments
const (
	TimeLight     = "light"
	TimeModerate  = "moderate"
	TimeIntensive = "intensive"
)

// Goals
const (
	GoalCareerChange  = "career-change"
	GoalSkillUpgrade  = "skill-upgrade"
	GoalHobby         = "hobby"
	GoalCertification = "certification"
)

// Profile fields, in the order they are asked about.
const (
	FieldExperience     = "experience"
	FieldInterests      = "interests"
	FieldTimeCommitment = "time_commitment"
	FieldGoal           = "goal"
)

// Profile is the structured signal about a user's learning goals,
// accumulated incrementally from free text across a conversation.
type Profile struct {
	Experience     string   `json:"experience,omitempty"`
	Interests      []string `json:"interests,omitempty"`
	TimeCommitment string   `json:"time_commitment,omitempty"`
	Goal           string   `json:"goal,omitempty"`
}

// Apply merges a partial Profile (as returned by Extract) into p.
// Unset fields of the partial leave p untouched; Interests, when set,
// replace p's since Extract already carried the previous ones over.
func (p *Profile) Apply(part Profile) {
	if part.Experience != "" {
		p.Experience = part.Experience
	}
	if part.Interests != nil {
		p.Interests = part.Interests
	}
	if part.TimeCommitment != "" {
		p.TimeCommitment = part.TimeCommitment
	}
	if part.Goal != "" {
		p.Goal = part.Goal
	}
}

type keywordRule struct {
	value    string
	keywords []string
}

// Rule order is significant: the first matching rule wins, so e.g. a message
// mentioning both "beginner" and "advanced" yields beginner.
var (
	experienceRules = []keywordRule{
		{ExperienceBeginner, []string{"beginner", "new to", "never done"}},
		{ExperienceIntermediate, []string{"intermediate", "some experience", "familiar with"}},
		{ExperienceAdvanced, []string{"advanced", "expert", "professional"}},
	}

	interestRules = []keywordRule{
		{"web development", []string{"web", "website", "frontend", "backend", "html", "css", "javascript", "react"}},
		{"data science", []string{"data", "analytics", "python", "statistics", "machine learning", "ai"}},
		{"digital marketing", []string{"marketing", "seo", "social media", "advertising", "content"}},
		{"design", []string{"design", "ui", "ux", "user experience", "interface", "figma"}},
		{"mobile", []string{"mobile", "app", "android", "ios", "react native"}},
		{"cybersecurity", []string{"security", "cyber", "hacking", "protection", "privacy"}},
		{"business", []string{"business", "management", "analytics", "strategy", "leadership"}},
		{"cloud", []string{"cloud", "aws", "azure", "devops", "infrastructure"}},
	}

	timeCommitmentRules = []keywordRule{
		{TimeLight, []string{"busy", "part-time", "few hours"}},
		{TimeIntensive, []string{"full-time", "intensive", "quickly"}},
		{TimeModerate, []string{"moderate", "regular"}},
	}

	goalRules = []keywordRule{
		{GoalCareerChange, []string{"career change", "new job", "switch careers"}},
		{GoalSkillUpgrade, []string{"improve", "upgrade", "advance"}},
		{GoalHobby, []string{"hobby", "fun", "personal interest"}},
		{GoalCertification, []string{"certification", "certificate", "credential"}},
	}
)

func (r keywordRule) matches(msg string) bool {
	for _, kw := range r.keywords {
		if strings.Contains(msg, kw) {
			return true
		}
	}
	return false
}

func matchFirst(rules []keywordRule, msg string) string {
	for _, r := range rules {
		if r.matches(msg) {
			return r.value
		}
	}
	return ""
}

// Extract scans a free-text utterance for preference signals and returns a
// partial Profile holding only the fields detected in this message.
// Detected interests are appended to the current profile's (duplicates are
// kept; ranking compounds them on purpose). Pure function, never fails:
// unmatched text yields an empty partial.
func Extract(message string, current Profile) Profile {
	msg := strings.ToLower(message)
	var part Profile

	part.Experience = matchFirst(experienceRules, msg)

	var detected []string
	for _, r := range interestRules {
		if r.matches(msg) {
			detected = append(detected, r.value)
		}
	}
	if len(detected) > 0 {
		part.Interests = append(append([]string{}, current.Interests...), detected...)
	}

	part.TimeCommitment = matchFirst(timeCommitmentRules, msg)
	part.Goal = matchFirst(goalRules, msg)

	return part
}

// MissingFields returns the unset Profile fields, in the fixed order they
// should be asked about.
func MissingFields(p Profile) []string {
	var missing []string
	if p.Experience == "" {
		missing = append(missing, FieldExperience)
	}
	if len(p.Interests) == 0 {
		missing = append(missing, FieldInterests)
	}
	if p.TimeCommitment == "" {
		missing = append(missing, FieldTimeCommitment)
	}
	if p.Goal == "" {
		missing = append(missing, FieldGoal)
	}
	return missing
}
