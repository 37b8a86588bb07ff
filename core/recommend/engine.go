package recommend

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/trezcool/learnhub/core/course"
)

// Scoring weights. The absolute scale is arbitrary; only the resulting
// ordering matters, so these must not be "normalized".
const (
	levelMatchScore    = 40
	adjacentLevelScore = 20
	interestMatchScore = 35
	timeFitScore       = 15
	ratingWeight       = 3
	enrolledDivisor    = 100
	enrolledCap        = 10
	featuredScore      = 5

	defaultDurationWeeks = 12

	// TopN is how many ranked courses a chatbot answer carries.
	TopN = 3

	// maxClarifyTurns bounds the conversation: past this many turns we
	// recommend with whatever profile we have instead of asking again.
	maxClarifyTurns = 8
)

var durationRegex = regexp.MustCompile(`(?i)(\d+)\s*weeks?`)

// ScoredCourse is a catalog entry annotated with its ranking value for one
// recommendation request.
type ScoredCourse struct {
	Course course.Course
	Score  float64
}

// DurationWeeks parses a free-text course duration ("12 weeks") into whole
// weeks, defaulting to defaultDurationWeeks when unparseable.
func DurationWeeks(duration string) int {
	m := durationRegex.FindStringSubmatch(duration)
	if m == nil {
		return defaultDurationWeeks
	}
	weeks, err := strconv.Atoi(m[1])
	if err != nil {
		return defaultDurationWeeks
	}
	return weeks
}

// Score computes a course's ranking value against a preference profile.
func Score(crs course.Course, p Profile) float64 {
	var score float64

	// experience level match (high weight); the adjacency credit is
	// one-directional: beginner->Intermediate and intermediate->Advanced only
	if p.Experience != "" {
		switch {
		case strings.EqualFold(crs.Level, p.Experience):
			score += levelMatchScore
		case (p.Experience == ExperienceBeginner && crs.Level == course.LevelIntermediate) ||
			(p.Experience == ExperienceIntermediate && crs.Level == course.LevelAdvanced):
			score += adjacentLevelScore
		}
	}

	// interest match (high weight); duplicate interests in the profile each
	// score independently and compound
	if len(p.Interests) > 0 {
		category := strings.ToLower(crs.Category)
		tags := make([]string, len(crs.Tags))
		for i, tag := range crs.Tags {
			tags[i] = strings.ToLower(tag)
		}
		for _, interest := range p.Interests {
			if strings.Contains(category, interest) || anyContains(tags, interest) {
				score += interestMatchScore
			}
		}
	}

	// time commitment fit (medium weight)
	if p.TimeCommitment != "" {
		weeks := DurationWeeks(crs.Duration)
		switch {
		case p.TimeCommitment == TimeLight && weeks <= 10:
			score += timeFitScore
		case p.TimeCommitment == TimeModerate && weeks >= 8 && weeks <= 14:
			score += timeFitScore
		case p.TimeCommitment == TimeIntensive && weeks >= 12:
			score += timeFitScore
		}
	}

	// quality signals (low weight)
	score += crs.Rating * ratingWeight
	score += math.Min(float64(crs.StudentsEnrolled)/enrolledDivisor, enrolledCap)
	if crs.Featured {
		score += featuredScore
	}

	return score
}

// Recommend totally orders the catalog for the given profile: a stable sort
// by descending score, then a second stable pass promoting courses whose
// category exactly matches one of the profile's interests. The input catalog
// is never mutated.
func Recommend(catalog []course.Course, p Profile) []course.Course {
	scored := make([]ScoredCourse, len(catalog))
	for i, crs := range catalog {
		scored[i] = ScoredCourse{Course: crs, Score: Score(crs, p)}
	}
	sort.SliceStable(scored, func(i, j int) bool { return scored[i].Score > scored[j].Score })

	ranked := make([]course.Course, len(scored))
	for i, sc := range scored {
		ranked[i] = sc.Course
	}

	if len(p.Interests) > 0 {
		interestSet := make(map[string]bool, len(p.Interests))
		for _, interest := range p.Interests {
			interestSet[strings.ToLower(interest)] = true
		}
		sort.SliceStable(ranked, func(i, j int) bool {
			return interestSet[strings.ToLower(ranked[i].Category)] &&
				!interestSet[strings.ToLower(ranked[j].Category)]
		})
	}
	return ranked
}

func anyContains(ss []string, substr string) bool {
	for _, s := range ss {
		if strings.Contains(s, substr) {
			return true
		}
	}
	return false
}

// canned clarifying questions, keyed by missing Profile field
var questions = map[string]string{
	FieldExperience: "What's your experience level? Are you a complete beginner, " +
		"have some experience, or would you consider yourself advanced?",
	FieldInterests: "What areas are you most interested in? For example: web development, " +
		"data science, digital marketing, UX/UI design, or something else?",
	FieldTimeCommitment: "How much time can you dedicate to learning? Are you looking for something " +
		"light (a few hours per week), moderate (5-10 hours per week), or intensive (15+ hours per week)?",
	FieldGoal: "What's your main goal? Are you looking to change careers, upgrade your " +
		"current skills, learn as a hobby, or get a certification?",
}

const fallbackQuestion = "Tell me more about what you're looking for in a course."

// Question returns the canned clarifying question for a missing field.
func Question(field string) string {
	if q, ok := questions[field]; ok {
		return q
	}
	return fallbackQuestion
}

var goalPhrases = map[string]string{
	GoalCareerChange:  "these courses will help you transition to a new career",
	GoalSkillUpgrade:  "these courses will enhance your existing skills",
	GoalHobby:         "these courses are perfect for personal enrichment",
	GoalCertification: "these courses can help you earn valuable certifications",
}

// ComposeMessage builds the natural-language summary accompanying a set of
// recommendations. Pure string templating.
func ComposeMessage(p Profile, topResults []course.Course) string {
	message := "Based on your preferences, here are my top course recommendations:\n\n"

	if p.Experience != "" {
		message += fmt.Sprintf("Since you're at a %s level, ", p.Experience)
	}
	if phrase, ok := goalPhrases[p.Goal]; ok {
		message += phrase + ". "
	}

	if len(topResults) == 0 {
		message = "I couldn't find courses that perfectly match your criteria, " +
			"but let me show you some popular options that might interest you."
	}

	message += "\n\nAll courses are completely free! " +
		"Would you like more details about any of these courses, or would you like me to find alternatives?"

	return message
}

// Response is one chatbot turn: either a clarifying question or a ranked
// top-N with its templated summary.
type Response struct {
	Message         string
	Recommendations []course.Course
	Profile         Profile
	NextQuestion    string
}

// Respond runs one conversation turn: it merges the signals extracted from
// the message into the profile, asks for the first missing field while the
// turn cap allows, and otherwise ranks the catalog and answers with the top
// TopN courses. The turn cap guarantees the conversation terminates even if
// the user never supplies some signals.
func Respond(message string, profile Profile, turnCount int, catalog []course.Course) Response {
	profile.Apply(Extract(message, profile))

	if missing := MissingFields(profile); len(missing) > 0 && turnCount <= maxClarifyTurns {
		return Response{
			Message:      Question(missing[0]),
			Profile:      profile,
			NextQuestion: missing[0],
		}
	}

	ranked := Recommend(catalog, profile)
	top := ranked
	if len(top) > TopN {
		top = top[:TopN]
	}
	return Response{
		Message:         ComposeMessage(profile, top),
		Recommendations: top,
		Profile:         profile,
	}
}
