package recommend

import (
	"reflect"
	"testing"
)

func TestExtract(t *testing.T) {
	tests := []struct {
		name    string
		message string
		current Profile
		want    Profile
	}{
		{name: "no signal", message: "hello there!", want: Profile{}},
		{name: "empty message", message: "", want: Profile{}},
		{
			name:    "experience beginner",
			message: "I'm a complete beginner",
			want:    Profile{Experience: ExperienceBeginner},
		},
		{
			name:    "beginner wins over advanced",
			message: "I'm a beginner but I want advanced stuff",
			want:    Profile{Experience: ExperienceBeginner},
		},
		{
			name:    "case insensitive",
			message: "NEW TO programming",
			want:    Profile{Experience: ExperienceBeginner},
		},
		{
			name:    "multiple interests in one message",
			message: "I like web development and data analytics",
			// "analytics" is a business keyword too; both rules fire
			want: Profile{Interests: []string{"web development", "data science", "business"}},
		},
		{
			name:    "interests append to current",
			message: "also interested in design",
			current: Profile{Interests: []string{"web development"}},
			want:    Profile{Interests: []string{"web development", "design"}},
		},
		{
			name:    "duplicate interest kept",
			message: "more web please",
			current: Profile{Interests: []string{"web development"}},
			want:    Profile{Interests: []string{"web development", "web development"}},
		},
		{
			name:    "time commitment",
			message: "I'm quite busy these days",
			want:    Profile{TimeCommitment: TimeLight},
		},
		{
			name:    "goal",
			message: "looking for a career change",
			want:    Profile{Goal: GoalCareerChange},
		},
		{
			name:    "all fields at once",
			message: "I'm new to this, into web design, can study full-time, want a certification",
			want: Profile{
				Experience:     ExperienceBeginner,
				Interests:      []string{"web development", "design"},
				TimeCommitment: TimeIntensive,
				Goal:           GoalCertification,
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Extract(tt.message, tt.current)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Extract() = %+v; want %+v", got, tt.want)
			}
		})
	}
}

func TestExtract_isPure(t *testing.T) {
	current := Profile{Interests: []string{"design"}}
	Extract("I like web stuff", current)
	if !reflect.DeepEqual(current.Interests, []string{"design"}) {
		t.Errorf("Extract() mutated its input: %+v", current.Interests)
	}
}

func TestProfile_Apply(t *testing.T) {
	p := Profile{Experience: ExperienceBeginner, Interests: []string{"design"}}
	p.Apply(Profile{TimeCommitment: TimeModerate})
	want := Profile{Experience: ExperienceBeginner, Interests: []string{"design"}, TimeCommitment: TimeModerate}
	if !reflect.DeepEqual(p, want) {
		t.Errorf("Apply() = %+v; want %+v", p, want)
	}

	// partial interests replace (Extract carries previous ones over)
	p.Apply(Profile{Interests: []string{"design", "cloud"}})
	if !reflect.DeepEqual(p.Interests, []string{"design", "cloud"}) {
		t.Errorf("Apply() interests = %v", p.Interests)
	}

	// empty partial is a no-op
	p.Apply(Profile{})
	if !reflect.DeepEqual(p.Interests, []string{"design", "cloud"}) || p.Experience != ExperienceBeginner {
		t.Errorf("Apply(empty) changed profile: %+v", p)
	}
}

func TestMissingFields(t *testing.T) {
	tests := []struct {
		name    string
		profile Profile
		want    []string
	}{
		{
			name: "all missing, fixed order",
			want: []string{FieldExperience, FieldInterests, FieldTimeCommitment, FieldGoal},
		},
		{
			name:    "experience set",
			profile: Profile{Experience: ExperienceAdvanced},
			want:    []string{FieldInterests, FieldTimeCommitment, FieldGoal},
		},
		{
			name: "none missing",
			profile: Profile{
				Experience:     ExperienceBeginner,
				Interests:      []string{"cloud"},
				TimeCommitment: TimeLight,
				Goal:           GoalHobby,
			},
			want: nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MissingFields(tt.profile); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("MissingFields() = %v; want %v", got, tt.want)
			}
		})
	}
}
