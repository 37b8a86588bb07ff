package progress

import (
	"fmt"
	"math"
	"net/mail"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/learnhub/core"
	"github.com/trezcool/learnhub/core/certificate"
	"github.com/trezcool/learnhub/core/course"
	"github.com/trezcool/learnhub/core/user"
)

var (
	// errors
	ErrNotTracked = errors.New("course progress not found")
)

type (
	Repository interface {
		CreateCourseProgress(cp CourseProgress) (CourseProgress, error)
		GetCourseProgress(userID, courseID string) (CourseProgress, error)
		GetUserProgress(userID string) ([]CourseProgress, error)
		UpdateCourseProgress(cp CourseProgress) (CourseProgress, error)
	}

	// CourseGetter is the slice of the course service we need.
	CourseGetter interface {
		GetByID(id string) (course.Course, error)
	}

	// UserGetter is the slice of the user service we need.
	UserGetter interface {
		GetByID(id string) (user.User, error)
	}

	// CertificateIssuer issues a course-completion certificate; at most one
	// per user and course.
	CertificateIssuer interface {
		Issue(userID, courseID, courseName, studentName, instructorName string, skills []string) (certificate.Certificate, error)
	}

	Service interface {
		// Track starts progress tracking for a user on a course; calling it
		// again for the same pair is a no-op.
		Track(userID, courseID string) (CourseProgress, error)
		Get(userID, courseID string) (CourseProgress, error)
		All(userID string) ([]CourseProgress, error)
		UpdateLesson(userID, courseID, lessonID string, ul UpdateLesson) (CourseProgress, error)
		CompleteMaterial(userID, courseID, lessonID, materialID string) (CourseProgress, error)
		Stats(userID string) (Stats, error)
	}

	service struct {
		repo    Repository
		courses CourseGetter
		users   UserGetter
		issuer  CertificateIssuer
		mailSvc core.EmailService
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, courses CourseGetter, users UserGetter, issuer CertificateIssuer, mailSvc core.EmailService) Service {
	return &service{
		repo:    repo,
		courses: courses,
		users:   users,
		issuer:  issuer,
		mailSvc: mailSvc,
	}
}

func (svc *service) Track(userID, courseID string) (CourseProgress, error) {
	if cp, err := svc.repo.GetCourseProgress(userID, courseID); err == nil {
		return cp, nil
	} else if errors.Cause(err) != ErrNotTracked {
		return CourseProgress{}, err
	}

	crs, err := svc.courses.GetByID(courseID)
	if err != nil {
		return CourseProgress{}, err
	}

	now := time.Now().UTC()
	cp := CourseProgress{
		UserID:         userID,
		CourseID:       courseID,
		EnrolledAt:     now,
		LastAccessedAt: now,
		TotalLessons:   crs.TotalLessons(),
	}
	return svc.repo.CreateCourseProgress(cp)
}

func (svc *service) Get(userID, courseID string) (CourseProgress, error) {
	return svc.repo.GetCourseProgress(userID, courseID)
}

func (svc *service) All(userID string) ([]CourseProgress, error) {
	return svc.repo.GetUserProgress(userID)
}

func (svc *service) UpdateLesson(userID, courseID, lessonID string, ul UpdateLesson) (CourseProgress, error) {
	cp, err := svc.repo.GetCourseProgress(userID, courseID)
	if err != nil {
		return CourseProgress{}, err
	}

	lp := findOrAddLesson(&cp, lessonID)
	if ul.TimeSpent != nil {
		lp.TimeSpent = *ul.TimeSpent
	}
	if ul.Completed != nil {
		lp.Completed = *ul.Completed
		if lp.Completed && lp.CompletedAt == nil {
			now := time.Now().UTC()
			lp.CompletedAt = &now
		}
	}

	return svc.save(cp)
}

func (svc *service) CompleteMaterial(userID, courseID, lessonID, materialID string) (CourseProgress, error) {
	cp, err := svc.repo.GetCourseProgress(userID, courseID)
	if err != nil {
		return CourseProgress{}, err
	}

	lp := findOrAddLesson(&cp, lessonID)
	for _, id := range lp.MaterialsCompleted {
		if id == materialID {
			return svc.save(cp)
		}
	}
	lp.MaterialsCompleted = append(lp.MaterialsCompleted, materialID)

	return svc.save(cp)
}

func (svc *service) Stats(userID string) (Stats, error) {
	all, err := svc.repo.GetUserProgress(userID)
	if err != nil {
		return Stats{}, err
	}

	stats := Stats{TotalCourses: len(all)}
	for _, cp := range all {
		if cp.CertificateEarned {
			stats.CompletedCourses++
		} else if cp.OverallProgress > 0 {
			stats.InProgressCourses++
		}
		stats.TotalTimeSpent += cp.TimeSpent()
	}
	stats.CertificatesEarned = stats.CompletedCourses
	return stats, nil
}

// save recomputes the overall percentage, hands out the certificate on
// first full completion and persists the progress.
func (svc *service) save(cp CourseProgress) (CourseProgress, error) {
	var completed int
	for _, lp := range cp.Lessons {
		if lp.Completed {
			completed++
		}
	}

	denominator := cp.TotalLessons
	if denominator <= 0 {
		denominator = len(cp.Lessons)
	}
	if denominator > 0 {
		cp.OverallProgress = int(math.Round(float64(completed) / float64(denominator) * 100))
	} else {
		cp.OverallProgress = 0
	}
	cp.LastAccessedAt = time.Now().UTC()

	if cp.OverallProgress >= 100 && !cp.CertificateEarned {
		if err := svc.issueCertificate(&cp); err != nil {
			return CourseProgress{}, errors.Wrap(err, "issuing certificate")
		}
	}

	return svc.repo.UpdateCourseProgress(cp)
}

func (svc *service) issueCertificate(cp *CourseProgress) error {
	crs, err := svc.courses.GetByID(cp.CourseID)
	if err != nil {
		return err
	}
	usr, err := svc.users.GetByID(cp.UserID)
	if err != nil {
		return err
	}

	cert, err := svc.issuer.Issue(cp.UserID, crs.ID, crs.Title, usr.Name, crs.Instructor, crs.Tags)
	if err != nil && errors.Cause(err) != certificate.ErrAlreadyIssued {
		return err
	}
	if err == nil {
		svc.sendCertificateMail(usr, cert)
	}

	now := time.Now().UTC()
	cp.CertificateEarned = true
	cp.CertificateAt = &now
	return nil
}

func (svc *service) sendCertificateMail(usr user.User, cert certificate.Certificate) {
	msg := &core.EmailMessage{
		To:           []mail.Address{{Name: usr.Name, Address: usr.Email}},
		Subject:      fmt.Sprintf("Your %s certificate is ready!", cert.CourseName),
		TemplateName: "certificate-earned",
		TemplateData: struct{ Name, CourseName, Number string }{usr.Name, cert.CourseName, cert.Number},
	}
	svc.mailSvc.SendMessages(msg)
}

func findOrAddLesson(cp *CourseProgress, lessonID string) *LessonProgress {
	for i := range cp.Lessons {
		if cp.Lessons[i].LessonID == lessonID {
			return &cp.Lessons[i]
		}
	}
	cp.Lessons = append(cp.Lessons, LessonProgress{LessonID: lessonID})
	return &cp.Lessons[len(cp.Lessons)-1]
}
