package certificate

import "time"

type Certificate struct {
	ID             string    `json:"id"`
	UserID         string    `json:"user_id"`
	CourseID       string    `json:"course_id"`
	CourseName     string    `json:"course_name"`
	StudentName    string    `json:"student_name"`
	InstructorName string    `json:"instructor_name"`
	CompletionDate time.Time `json:"completion_date"` // UTC
	Number         string    `json:"number"`
	Skills         []string  `json:"skills"`
	Grade          string    `json:"grade,omitempty"`
}

type Template struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	PrimaryColor   string `json:"primary_color"`
	SecondaryColor string `json:"secondary_color"`
}

var Templates = []Template{
	{ID: "modern", Name: "Modern", PrimaryColor: "#059669", SecondaryColor: "#10b981"},
	{ID: "classic", Name: "Classic", PrimaryColor: "#1e40af", SecondaryColor: "#3b82f6"},
	{ID: "elegant", Name: "Elegant", PrimaryColor: "#7c3aed", SecondaryColor: "#a855f7"},
	{ID: "tech", Name: "Tech", PrimaryColor: "#dc2626", SecondaryColor: "#ef4444"},
}

// TemplateByID falls back to the first (default) template for unknown ids.
func TemplateByID(id string) Template {
	for _, tpl := range Templates {
		if tpl.ID == id {
			return tpl
		}
	}
	return Templates[0]
}
