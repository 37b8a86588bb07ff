package sqlxrepos

import (
	"database/sql"
	"encoding/json"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/learnhub/core/progress"
)

type progressRepository struct {
	db *sqlx.DB
}

var _ progress.Repository = (*progressRepository)(nil)

func NewProgressRepository(db *sql.DB) *progressRepository {
	return &progressRepository{db: wrapDB(db)}
}

type progressRow struct {
	UserID            string     `db:"user_id"`
	CourseID          string     `db:"course_id"`
	EnrolledAt        time.Time  `db:"enrolled_at"`
	LastAccessedAt    time.Time  `db:"last_accessed_at"`
	OverallProgress   int        `db:"overall_progress"`
	Lessons           []byte     `db:"lessons"`
	TotalLessons      int        `db:"total_lessons"`
	CertificateEarned bool       `db:"certificate_earned"`
	CertificateAt     *time.Time `db:"certificate_at"`
}

func (r progressRow) toProgress() (progress.CourseProgress, error) {
	cp := progress.CourseProgress{
		UserID:            r.UserID,
		CourseID:          r.CourseID,
		EnrolledAt:        r.EnrolledAt.UTC(),
		LastAccessedAt:    r.LastAccessedAt.UTC(),
		OverallProgress:   r.OverallProgress,
		TotalLessons:      r.TotalLessons,
		CertificateEarned: r.CertificateEarned,
		CertificateAt:     r.CertificateAt,
	}
	if len(r.Lessons) > 0 {
		if err := json.Unmarshal(r.Lessons, &cp.Lessons); err != nil {
			return progress.CourseProgress{}, errors.Wrap(err, "decoding lesson progress")
		}
	}
	return cp, nil
}

func marshalLessons(lessons []progress.LessonProgress) ([]byte, error) {
	if lessons == nil {
		return []byte("[]"), nil
	}
	data, err := json.Marshal(lessons)
	return data, errors.Wrap(err, "encoding lesson progress")
}

var progressColumns = []string{
	"user_id", "course_id", "enrolled_at", "last_accessed_at", "overall_progress",
	"lessons", "total_lessons", "certificate_earned", "certificate_at",
}

func (repo *progressRepository) CreateCourseProgress(cp progress.CourseProgress) (progress.CourseProgress, error) {
	lessons, err := marshalLessons(cp.Lessons)
	if err != nil {
		return progress.CourseProgress{}, err
	}
	stmt, args, err := psql.Insert("course_progress").
		Columns(progressColumns...).
		Values(
			cp.UserID, cp.CourseID, cp.EnrolledAt, cp.LastAccessedAt, cp.OverallProgress,
			lessons, cp.TotalLessons, cp.CertificateEarned, cp.CertificateAt,
		).
		ToSql()
	if err != nil {
		return progress.CourseProgress{}, errors.Wrap(err, "building query")
	}
	if _, err = repo.db.Exec(stmt, args...); err != nil {
		return progress.CourseProgress{}, errors.Wrap(err, "creating course progress")
	}
	return cp, nil
}

func (repo *progressRepository) GetCourseProgress(userID, courseID string) (progress.CourseProgress, error) {
	stmt, args, err := psql.Select(progressColumns...).
		From("course_progress").
		Where(sq.Eq{"user_id": userID, "course_id": courseID}).
		ToSql()
	if err != nil {
		return progress.CourseProgress{}, errors.Wrap(err, "building query")
	}
	var row progressRow
	if err = repo.db.Get(&row, stmt, args...); err != nil {
		if err == sql.ErrNoRows {
			return progress.CourseProgress{}, progress.ErrNotTracked
		}
		return progress.CourseProgress{}, errors.Wrap(err, "getting course progress")
	}
	return row.toProgress()
}

func (repo *progressRepository) GetUserProgress(userID string) ([]progress.CourseProgress, error) {
	stmt, args, err := psql.Select(progressColumns...).
		From("course_progress").
		Where(sq.Eq{"user_id": userID}).
		OrderBy("last_accessed_at DESC").
		ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "building query")
	}
	var rows []progressRow
	if err = repo.db.Select(&rows, stmt, args...); err != nil {
		return nil, errors.Wrap(err, "querying course progress")
	}
	all := make([]progress.CourseProgress, len(rows))
	for i, r := range rows {
		if all[i], err = r.toProgress(); err != nil {
			return nil, err
		}
	}
	return all, nil
}

func (repo *progressRepository) UpdateCourseProgress(cp progress.CourseProgress) (progress.CourseProgress, error) {
	lessons, err := marshalLessons(cp.Lessons)
	if err != nil {
		return progress.CourseProgress{}, err
	}
	stmt, args, err := psql.Update("course_progress").
		Set("last_accessed_at", cp.LastAccessedAt).
		Set("overall_progress", cp.OverallProgress).
		Set("lessons", lessons).
		Set("total_lessons", cp.TotalLessons).
		Set("certificate_earned", cp.CertificateEarned).
		Set("certificate_at", cp.CertificateAt).
		Where(sq.Eq{"user_id": cp.UserID, "course_id": cp.CourseID}).
		ToSql()
	if err != nil {
		return progress.CourseProgress{}, errors.Wrap(err, "building query")
	}
	res, err := repo.db.Exec(stmt, args...)
	if err != nil {
		return progress.CourseProgress{}, errors.Wrap(err, "updating course progress")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return progress.CourseProgress{}, progress.ErrNotTracked
	}
	return cp, nil
}
