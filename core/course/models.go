package course

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/learnhub/core"
)

// Levels
const (
	LevelBeginner     = "Beginner"
	LevelIntermediate = "Intermediate"
	LevelAdvanced     = "Advanced"
)

var (
	AllLevels = []string{LevelBeginner, LevelIntermediate, LevelAdvanced}

	Categories = []string{
		"Web Development",
		"Data Science",
		"Digital Marketing",
		"Machine Learning",
		"UX/UI Design",
		"Business Analytics",
		"Mobile Development",
		"Cybersecurity",
		"Cloud Computing",
		"Photography",
	}
)

type Course struct {
	ID               string    `json:"id"`
	Title            string    `json:"title"`
	Description      string    `json:"description"`
	Instructor       string    `json:"instructor"`
	Category         string    `json:"category"`
	Level            string    `json:"level"`
	Duration         string    `json:"duration"` // free text, e.g. "12 weeks"
	Rating           float64   `json:"rating"`   // 0 - 5
	StudentsEnrolled int       `json:"students_enrolled"`
	Image            string    `json:"image,omitempty"`
	Tags             []string  `json:"tags"`
	Lessons          int       `json:"lessons"`
	Featured         bool      `json:"featured"`
	Curriculum       []Module  `json:"curriculum,omitempty"`
	CreatedAt        time.Time `json:"created_at"` // UTC
	UpdatedAt        time.Time `json:"updated_at"` // UTC
}

type Module struct {
	ID      string   `json:"id"`
	Title   string   `json:"title"`
	Lessons []Lesson `json:"lessons"`
}

type Lesson struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Duration    string `json:"duration,omitempty"`
	VideoURL    string `json:"video_url,omitempty"`
	Description string `json:"description,omitempty"`
}

// TotalLessons counts the lessons in the curriculum; falls back to the
// declared lesson count when no curriculum has been uploaded yet.
func (c *Course) TotalLessons() int {
	var n int
	for _, mod := range c.Curriculum {
		n += len(mod.Lessons)
	}
	if n == 0 {
		return c.Lessons
	}
	return n
}

type Enrollment struct {
	UserID     string    `json:"user_id"`
	CourseID   string    `json:"course_id"`
	EnrolledAt time.Time `json:"enrolled_at"` // UTC
}

// NewCourse contains information needed to create a new Course.
type NewCourse struct {
	Title       string   `json:"title" validate:"required"`
	Description string   `json:"description"`
	Instructor  string   `json:"instructor" validate:"required"`
	Category    string   `json:"category" validate:"required"`
	Level       string   `json:"level" validate:"required,oneof=Beginner Intermediate Advanced"`
	Duration    string   `json:"duration" validate:"required"`
	Image       string   `json:"image"`
	Tags        []string `json:"tags"`
	Lessons     int      `json:"lessons" validate:"omitempty,min=0"`
	Featured    bool     `json:"featured"`
	Curriculum  []Module `json:"curriculum"`
}

func (nc *NewCourse) Validate(validate *validator.Validate) error {
	nc.Title = core.CleanString(nc.Title)
	nc.Instructor = core.CleanString(nc.Instructor)
	nc.Category = core.CleanString(nc.Category)
	nc.Duration = core.CleanString(nc.Duration)
	return validate.Struct(nc)
}

// UpdateCourse defines what information may be provided to modify an existing Course.
type UpdateCourse struct {
	Title       string   `json:"title"`
	Description *string  `json:"description"`
	Instructor  string   `json:"instructor"`
	Category    string   `json:"category"`
	Level       string   `json:"level" validate:"omitempty,oneof=Beginner Intermediate Advanced"`
	Duration    string   `json:"duration"`
	Image       *string  `json:"image"`
	Tags        []string `json:"tags"`
	Lessons     *int     `json:"lessons" validate:"omitempty,min=0"`
	Featured    *bool    `json:"featured"`
	Curriculum  []Module `json:"curriculum"`
}

func (uc *UpdateCourse) Validate(orig Course, validate *validator.Validate) error {
	if title := core.CleanString(uc.Title); title != "" {
		uc.Title = title
	} else {
		uc.Title = orig.Title
	}
	if instructor := core.CleanString(uc.Instructor); instructor != "" {
		uc.Instructor = instructor
	} else {
		uc.Instructor = orig.Instructor
	}
	if category := core.CleanString(uc.Category); category != "" {
		uc.Category = category
	} else {
		uc.Category = orig.Category
	}
	if uc.Level == "" {
		uc.Level = orig.Level
	}
	if duration := core.CleanString(uc.Duration); duration != "" {
		uc.Duration = duration
	} else {
		uc.Duration = orig.Duration
	}
	return validate.Struct(uc)
}

type QueryFilter struct {
	Search   string `query:"search"`
	Category string `query:"category"`
	Level    string `query:"level"`
	Featured *bool  `query:"featured"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.Search == "" && qf.Category == "" && qf.Level == "" && qf.Featured == nil
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	qf.Category = core.CleanString(qf.Category)
	qf.Level = core.CleanString(qf.Level)
}
