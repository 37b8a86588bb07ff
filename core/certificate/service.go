package certificate

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

var (
	// errors
	ErrNotFound      = errors.New("certificate not found")
	ErrAlreadyIssued = errors.New("certificate already issued for this course")
)

type (
	Repository interface {
		CreateCertificate(cert Certificate) (Certificate, error)
		GetUserCertificates(userID string) ([]Certificate, error)
		GetCertificateByID(userID, id string) (Certificate, error)
		GetCertificateByUserAndCourse(userID, courseID string) (Certificate, error)
		GetCertificateByNumber(number string) (Certificate, error)
	}

	Service interface {
		// Issue creates a certificate for a completed course; at most one
		// per user and course.
		Issue(userID, courseID, courseName, studentName, instructorName string, skills []string) (Certificate, error)
		ListByUser(userID string) ([]Certificate, error)
		Get(userID, id string) (Certificate, error)
		// Verify looks a certificate up by its public number.
		Verify(number string) (Certificate, error)
	}

	service struct {
		repo Repository
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (svc *service) Issue(userID, courseID, courseName, studentName, instructorName string, skills []string) (Certificate, error) {
	if _, err := svc.repo.GetCertificateByUserAndCourse(userID, courseID); err == nil {
		return Certificate{}, ErrAlreadyIssued
	} else if errors.Cause(err) != ErrNotFound {
		return Certificate{}, err
	}

	cert := Certificate{
		ID:             uuid.New().String(),
		UserID:         userID,
		CourseID:       courseID,
		CourseName:     courseName,
		StudentName:    studentName,
		InstructorName: instructorName,
		CompletionDate: time.Now().UTC(),
		Number:         newNumber(),
		Skills:         skills,
		Grade:          "A", // todo: compute from quiz performance once quizzes land
	}
	return svc.repo.CreateCertificate(cert)
}

func (svc *service) ListByUser(userID string) ([]Certificate, error) {
	return svc.repo.GetUserCertificates(userID)
}

func (svc *service) Get(userID, id string) (Certificate, error) {
	return svc.repo.GetCertificateByID(userID, id)
}

func (svc *service) Verify(number string) (Certificate, error) {
	return svc.repo.GetCertificateByNumber(number)
}

// newNumber builds a public certificate number: LH-<timestamp36>-<rand>.
func newNumber() string {
	ts := strings.ToUpper(strconv.FormatInt(time.Now().UnixNano()/int64(time.Millisecond), 36))
	rand := strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", "")[:4])
	return "LH-" + ts + "-" + rand
}
