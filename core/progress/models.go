package progress

import "time"

type LessonProgress struct {
	LessonID           string     `json:"lesson_id"`
	Completed          bool       `json:"completed"`
	CompletedAt        *time.Time `json:"completed_at,omitempty"` // UTC
	TimeSpent          int        `json:"time_spent"`             // minutes
	MaterialsCompleted []string   `json:"materials_completed"`
}

type CourseProgress struct {
	UserID            string           `json:"user_id"`
	CourseID          string           `json:"course_id"`
	EnrolledAt        time.Time        `json:"enrolled_at"`      // UTC
	LastAccessedAt    time.Time        `json:"last_accessed_at"` // UTC
	OverallProgress   int              `json:"overall_progress"` // percentage 0-100
	Lessons           []LessonProgress `json:"lessons"`
	TotalLessons      int              `json:"total_lessons"`
	CertificateEarned bool             `json:"certificate_earned"`
	CertificateAt     *time.Time       `json:"certificate_at,omitempty"` // UTC
}

// TimeSpent sums the minutes spent across all lessons.
func (cp *CourseProgress) TimeSpent() int {
	var total int
	for _, lp := range cp.Lessons {
		total += lp.TimeSpent
	}
	return total
}

type Stats struct {
	TotalCourses       int `json:"total_courses"`
	CompletedCourses   int `json:"completed_courses"`
	InProgressCourses  int `json:"in_progress_courses"`
	TotalTimeSpent     int `json:"total_time_spent"` // minutes
	CertificatesEarned int `json:"certificates_earned"`
}

// UpdateLesson defines what may be provided to modify lesson progress.
type UpdateLesson struct {
	Completed *bool `json:"completed"`
	TimeSpent *int  `json:"time_spent" validate:"omitempty,min=0"`
}
