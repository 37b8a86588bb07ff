package course

import (
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/learnhub/core"
)

var (
	// errors
	ErrNotFound        = errors.New("course not found")
	ErrAlreadyEnrolled = errors.New("user is already enrolled in this course")
)

type (
	Repository interface {
		CreateCourse(crs Course) (Course, error)
		QueryAllCourses() ([]Course, error)
		GetCourseByID(id string) (Course, error)
		// FilterCourses applies AND operation on available QueryFilter fields.
		// QueryFilter.Search does a case-insensitive match on one of
		// Course.Title, Course.Description, Course.Instructor or any tag.
		FilterCourses(filter QueryFilter, orderings ...core.DBOrdering) ([]Course, error)
		UpdateCourse(crs Course) (Course, error)
		DeleteCoursesByID(ids ...string) error

		// CreateEnrollment fails with ErrAlreadyEnrolled for duplicates;
		// a successful call bumps the course's StudentsEnrolled count.
		CreateEnrollment(enr Enrollment) (Enrollment, error)
		GetUserEnrollments(userID string) ([]Enrollment, error)
		GetEnrolledCourses(userID string) ([]Course, error)
	}

	Service interface {
		Create(nc NewCourse) (Course, error)
		QueryAll() ([]Course, error)
		GetByID(id string) (Course, error)
		Filter(filter *QueryFilter, orderings ...core.DBOrdering) ([]Course, error)
		Update(id string, uc UpdateCourse) (Course, error)
		Delete(ids ...string) error
		// Enroll is idempotent: enrolling twice is not an error and does not
		// bump the student count twice.
		Enroll(userID, courseID string) (Enrollment, error)
		Enrollments(userID string) ([]Enrollment, error)
		EnrolledCourses(userID string) ([]Course, error)
	}

	service struct {
		repo Repository
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (svc *service) Create(nc NewCourse) (Course, error) {
	now := time.Now().UTC()
	crs := Course{
		ID:          uuid.New().String(),
		Title:       nc.Title,
		Description: nc.Description,
		Instructor:  nc.Instructor,
		Category:    nc.Category,
		Level:       nc.Level,
		Duration:    nc.Duration,
		Image:       nc.Image,
		Tags:        nc.Tags,
		Lessons:     nc.Lessons,
		Featured:    nc.Featured,
		Curriculum:  nc.Curriculum,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	return svc.repo.CreateCourse(crs)
}

func (svc *service) QueryAll() ([]Course, error) {
	return svc.repo.QueryAllCourses()
}

func (svc *service) GetByID(id string) (Course, error) {
	return svc.repo.GetCourseByID(id)
}

func (svc *service) Filter(filter *QueryFilter, orderings ...core.DBOrdering) ([]Course, error) {
	if filter == nil || filter.IsEmpty() {
		return svc.repo.QueryAllCourses()
	}
	return svc.repo.FilterCourses(*filter, orderings...)
}

func (svc *service) Update(id string, uc UpdateCourse) (Course, error) {
	orig, err := svc.repo.GetCourseByID(id)
	if err != nil {
		return Course{}, err
	}

	crs := orig
	crs.Title = uc.Title
	crs.Instructor = uc.Instructor
	crs.Category = uc.Category
	crs.Level = uc.Level
	crs.Duration = uc.Duration
	if uc.Description != nil {
		crs.Description = *uc.Description
	}
	if uc.Image != nil {
		crs.Image = *uc.Image
	}
	if uc.Tags != nil {
		crs.Tags = uc.Tags
	}
	if uc.Lessons != nil {
		crs.Lessons = *uc.Lessons
	}
	if uc.Featured != nil {
		crs.Featured = *uc.Featured
	}
	if uc.Curriculum != nil {
		crs.Curriculum = uc.Curriculum
	}
	crs.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateCourse(crs)
}

func (svc *service) Delete(ids ...string) error {
	return svc.repo.DeleteCoursesByID(ids...)
}

func (svc *service) Enroll(userID, courseID string) (Enrollment, error) {
	if _, err := svc.repo.GetCourseByID(courseID); err != nil {
		return Enrollment{}, err
	}

	enr := Enrollment{
		UserID:     userID,
		CourseID:   courseID,
		EnrolledAt: time.Now().UTC(),
	}
	created, err := svc.repo.CreateEnrollment(enr)
	if err != nil {
		if errors.Cause(err) == ErrAlreadyEnrolled {
			// keep the original enrollment date
			enrollments, err := svc.repo.GetUserEnrollments(userID)
			if err != nil {
				return Enrollment{}, err
			}
			for _, existing := range enrollments {
				if existing.CourseID == courseID {
					return existing, nil
				}
			}
			return enr, nil
		}
		return Enrollment{}, err
	}
	return created, nil
}

func (svc *service) Enrollments(userID string) ([]Enrollment, error) {
	return svc.repo.GetUserEnrollments(userID)
}

func (svc *service) EnrolledCourses(userID string) ([]Course, error) {
	return svc.repo.GetEnrolledCourses(userID)
}

// NewID returns a fresh course/module/lesson identifier.
func NewID() string { return uuid.New().String() }
