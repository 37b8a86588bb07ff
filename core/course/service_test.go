package course_test

import (
	"testing"

	"github.com/pkg/errors"

	"github.com/trezcool/learnhub/core/course"
	"github.com/trezcool/learnhub/storage/database/inmem"
)

func setup(t *testing.T) (course.Service, course.Repository) {
	t.Helper()
	db, err := inmem.Open()
	if err != nil {
		t.Fatalf("setup() failed: %v", err)
	}
	repo := inmem.NewCourseRepository(db)
	return course.NewService(repo), repo
}

func createCourse(t *testing.T, svc course.Service, title, category, level string, tags ...string) course.Course {
	t.Helper()
	crs, err := svc.Create(course.NewCourse{
		Title:       title,
		Description: "desc",
		Instructor:  "Jane Doe",
		Category:    category,
		Level:       level,
		Duration:    "8 weeks",
		Tags:        tags,
	})
	if err != nil {
		t.Fatalf("createCourse() failed: %v", err)
	}
	return crs
}

func TestService_Create(t *testing.T) {
	svc, _ := setup(t)

	crs := createCourse(t, svc, "Go Basics", "Programming", course.LevelBeginner, "go")
	if crs.ID == "" {
		t.Error("Create() did not assign an ID")
	}
	if crs.CreatedAt.IsZero() || crs.UpdatedAt.IsZero() {
		t.Error("Create() did not set timestamps")
	}
	if crs.StudentsEnrolled != 0 {
		t.Errorf("StudentsEnrolled = %v; want 0", crs.StudentsEnrolled)
	}

	got, err := svc.GetByID(crs.ID)
	if err != nil {
		t.Fatalf("GetByID() failed: %v", err)
	}
	if got.Title != "Go Basics" {
		t.Errorf("Title = %v", got.Title)
	}
}

func TestService_GetByID_notFound(t *testing.T) {
	svc, _ := setup(t)
	if _, err := svc.GetByID("nope"); errors.Cause(err) != course.ErrNotFound {
		t.Errorf("GetByID() = %v; want %v", err, course.ErrNotFound)
	}
}

func TestService_Filter(t *testing.T) {
	svc, _ := setup(t)

	web := createCourse(t, svc, "Web Dev Bootcamp", "Web Development", course.LevelBeginner, "html", "css")
	data := createCourse(t, svc, "Data Science Intro", "Data Science", course.LevelBeginner, "python")
	adv := createCourse(t, svc, "Advanced Cloud", "Cloud", course.LevelAdvanced, "aws")

	bPtr := func(b bool) *bool { return &b }

	tests := []struct {
		name    string
		filter  *course.QueryFilter
		wantIDs []string
	}{
		{name: "nil filter returns all", filter: nil, wantIDs: []string{web.ID, data.ID, adv.ID}},
		{name: "search title", filter: &course.QueryFilter{Search: "bootcamp"}, wantIDs: []string{web.ID}},
		{name: "search tag", filter: &course.QueryFilter{Search: "python"}, wantIDs: []string{data.ID}},
		{name: "search unknown", filter: &course.QueryFilter{Search: "xyz"}, wantIDs: nil},
		{name: "level", filter: &course.QueryFilter{Level: course.LevelAdvanced}, wantIDs: []string{adv.ID}},
		{name: "category", filter: &course.QueryFilter{Category: "Data Science"}, wantIDs: []string{data.ID}},
		{name: "featured", filter: &course.QueryFilter{Featured: bPtr(true)}, wantIDs: nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.Filter(tt.filter)
			if err != nil {
				t.Fatalf("Filter() failed: %v", err)
			}
			gotIDs := make(map[string]bool, len(got))
			for _, crs := range got {
				gotIDs[crs.ID] = true
			}
			if len(got) != len(tt.wantIDs) {
				t.Fatalf("Filter() returned %d courses; want %d", len(got), len(tt.wantIDs))
			}
			for _, id := range tt.wantIDs {
				if !gotIDs[id] {
					t.Errorf("Filter() missing course %v", id)
				}
			}
		})
	}
}

func TestService_Update(t *testing.T) {
	svc, _ := setup(t)

	crs := createCourse(t, svc, "Go Basics", "Programming", course.LevelBeginner, "go")

	featured := true
	got, err := svc.Update(crs.ID, course.UpdateCourse{
		Title:      "Go Fundamentals",
		Instructor: crs.Instructor,
		Category:   crs.Category,
		Level:      crs.Level,
		Duration:   crs.Duration,
		Featured:   &featured,
	})
	if err != nil {
		t.Fatalf("Update() failed: %v", err)
	}
	if got.Title != "Go Fundamentals" || !got.Featured {
		t.Errorf("Update() = %+v", got)
	}
	if got.Description != "desc" {
		t.Errorf("Description lost on update: %q", got.Description)
	}
}

func TestService_Enroll(t *testing.T) {
	svc, _ := setup(t)

	crs := createCourse(t, svc, "Go Basics", "Programming", course.LevelBeginner)
	const userID = "u1"

	t.Run("unknown course", func(t *testing.T) {
		if _, err := svc.Enroll(userID, "nope"); errors.Cause(err) != course.ErrNotFound {
			t.Errorf("Enroll() = %v; want %v", err, course.ErrNotFound)
		}
	})

	t.Run("enroll bumps student count", func(t *testing.T) {
		enr, err := svc.Enroll(userID, crs.ID)
		if err != nil {
			t.Fatalf("Enroll() failed: %v", err)
		}
		if enr.UserID != userID || enr.CourseID != crs.ID {
			t.Errorf("Enroll() = %+v", enr)
		}

		got, _ := svc.GetByID(crs.ID)
		if got.StudentsEnrolled != 1 {
			t.Errorf("StudentsEnrolled = %v; want 1", got.StudentsEnrolled)
		}
	})

	t.Run("enroll is idempotent", func(t *testing.T) {
		enrollments, err := svc.Enrollments(userID)
		if err != nil || len(enrollments) != 1 {
			t.Fatalf("Enrollments() = %+v, %v", enrollments, err)
		}
		original := enrollments[0]

		enr, err := svc.Enroll(userID, crs.ID)
		if err != nil {
			t.Fatalf("second Enroll() failed: %v", err)
		}
		if !enr.EnrolledAt.Equal(original.EnrolledAt) {
			t.Errorf("EnrolledAt = %v; want the original %v", enr.EnrolledAt, original.EnrolledAt)
		}
		got, _ := svc.GetByID(crs.ID)
		if got.StudentsEnrolled != 1 {
			t.Errorf("StudentsEnrolled = %v; want 1 (no double count)", got.StudentsEnrolled)
		}
	})

	t.Run("enrolled courses", func(t *testing.T) {
		got, err := svc.EnrolledCourses(userID)
		if err != nil {
			t.Fatalf("EnrolledCourses() failed: %v", err)
		}
		if len(got) != 1 || got[0].ID != crs.ID {
			t.Errorf("EnrolledCourses() = %+v", got)
		}

		enrs, err := svc.Enrollments(userID)
		if err != nil {
			t.Fatalf("Enrollments() failed: %v", err)
		}
		if len(enrs) != 1 {
			t.Errorf("Enrollments() = %+v", enrs)
		}
	})
}
