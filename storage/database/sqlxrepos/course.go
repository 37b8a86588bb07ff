package sqlxrepos

import (
	"database/sql"
	"encoding/json"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/trezcool/learnhub/core"
	"github.com/trezcool/learnhub/core/course"
)

type courseRepository struct {
	db *sqlx.DB
}

var _ course.Repository = (*courseRepository)(nil)

func NewCourseRepository(db *sql.DB) *courseRepository {
	return &courseRepository{db: wrapDB(db)}
}

type courseRow struct {
	ID               string         `db:"id"`
	Title            string         `db:"title"`
	Description      string         `db:"description"`
	Instructor       string         `db:"instructor"`
	Category         string         `db:"category"`
	Level            string         `db:"level"`
	Duration         string         `db:"duration"`
	Rating           float64        `db:"rating"`
	StudentsEnrolled int            `db:"students_enrolled"`
	Image            string         `db:"image"`
	Tags             pq.StringArray `db:"tags"`
	Lessons          int            `db:"lessons"`
	Featured         bool           `db:"featured"`
	Curriculum       []byte         `db:"curriculum"`
	CreatedAt        time.Time      `db:"created_at"`
	UpdatedAt        time.Time      `db:"updated_at"`
}

func (r courseRow) toCourse() (course.Course, error) {
	crs := course.Course{
		ID:               r.ID,
		Title:            r.Title,
		Description:      r.Description,
		Instructor:       r.Instructor,
		Category:         r.Category,
		Level:            r.Level,
		Duration:         r.Duration,
		Rating:           r.Rating,
		StudentsEnrolled: r.StudentsEnrolled,
		Image:            r.Image,
		Tags:             r.Tags,
		Lessons:          r.Lessons,
		Featured:         r.Featured,
		CreatedAt:        r.CreatedAt.UTC(),
		UpdatedAt:        r.UpdatedAt.UTC(),
	}
	if len(r.Curriculum) > 0 {
		if err := json.Unmarshal(r.Curriculum, &crs.Curriculum); err != nil {
			return course.Course{}, errors.Wrap(err, "decoding curriculum")
		}
	}
	return crs, nil
}

var courseColumns = []string{
	"id", "title", "description", "instructor", "category", "level", "duration",
	"rating", "students_enrolled", "image", "tags", "lessons", "featured",
	"curriculum", "created_at", "updated_at",
}

func (repo *courseRepository) selectCourses() sq.SelectBuilder {
	return psql.Select(courseColumns...).From("courses")
}

func (repo *courseRepository) queryCourses(q sq.SelectBuilder) ([]course.Course, error) {
	stmt, args, err := q.ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "building query")
	}
	var rows []courseRow
	if err = repo.db.Select(&rows, stmt, args...); err != nil {
		return nil, errors.Wrap(err, "querying courses")
	}
	courses := make([]course.Course, len(rows))
	for i, r := range rows {
		if courses[i], err = r.toCourse(); err != nil {
			return nil, err
		}
	}
	return courses, nil
}

func marshalCurriculum(curriculum []course.Module) ([]byte, error) {
	if curriculum == nil {
		return []byte("[]"), nil
	}
	data, err := json.Marshal(curriculum)
	return data, errors.Wrap(err, "encoding curriculum")
}

func (repo *courseRepository) CreateCourse(crs course.Course) (course.Course, error) {
	curriculum, err := marshalCurriculum(crs.Curriculum)
	if err != nil {
		return course.Course{}, err
	}
	stmt, args, err := psql.Insert("courses").
		Columns(courseColumns...).
		Values(
			crs.ID, crs.Title, crs.Description, crs.Instructor, crs.Category, crs.Level,
			crs.Duration, crs.Rating, crs.StudentsEnrolled, crs.Image, pq.Array(crs.Tags),
			crs.Lessons, crs.Featured, curriculum, crs.CreatedAt, crs.UpdatedAt,
		).
		ToSql()
	if err != nil {
		return course.Course{}, errors.Wrap(err, "building query")
	}
	if _, err = repo.db.Exec(stmt, args...); err != nil {
		return course.Course{}, errors.Wrap(err, "creating course")
	}
	return crs, nil
}

func (repo *courseRepository) QueryAllCourses() ([]course.Course, error) {
	return repo.queryCourses(repo.selectCourses().OrderBy("created_at DESC"))
}

func (repo *courseRepository) GetCourseByID(id string) (course.Course, error) {
	stmt, args, err := repo.selectCourses().Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return course.Course{}, errors.Wrap(err, "building query")
	}
	var row courseRow
	if err = repo.db.Get(&row, stmt, args...); err != nil {
		if err == sql.ErrNoRows {
			return course.Course{}, course.ErrNotFound
		}
		return course.Course{}, errors.Wrap(err, "getting course")
	}
	return row.toCourse()
}

func (repo *courseRepository) FilterCourses(filter course.QueryFilter, orderings ...core.DBOrdering) ([]course.Course, error) {
	q := repo.selectCourses()
	if filter.Search != "" {
		search := "%" + filter.Search + "%"
		q = q.Where(sq.Or{
			sq.ILike{"title": search},
			sq.ILike{"description": search},
			sq.ILike{"instructor": search},
			sq.Expr("EXISTS (SELECT 1 FROM unnest(tags) t WHERE t ILIKE ?)", search),
		})
	}
	if filter.Category != "" {
		q = q.Where(sq.Eq{"category": filter.Category})
	}
	if filter.Level != "" {
		q = q.Where(sq.Eq{"level": filter.Level})
	}
	if filter.Featured != nil {
		q = q.Where(sq.Eq{"featured": *filter.Featured})
	}
	return repo.queryCourses(orderBy(q, "created_at DESC", orderings))
}

func (repo *courseRepository) UpdateCourse(crs course.Course) (course.Course, error) {
	curriculum, err := marshalCurriculum(crs.Curriculum)
	if err != nil {
		return course.Course{}, err
	}
	stmt, args, err := psql.Update("courses").
		Set("title", crs.Title).
		Set("description", crs.Description).
		Set("instructor", crs.Instructor).
		Set("category", crs.Category).
		Set("level", crs.Level).
		Set("duration", crs.Duration).
		Set("rating", crs.Rating).
		Set("image", crs.Image).
		Set("tags", pq.Array(crs.Tags)).
		Set("lessons", crs.Lessons).
		Set("featured", crs.Featured).
		Set("curriculum", curriculum).
		Set("updated_at", crs.UpdatedAt).
		Where(sq.Eq{"id": crs.ID}).
		ToSql()
	if err != nil {
		return course.Course{}, errors.Wrap(err, "building query")
	}
	res, err := repo.db.Exec(stmt, args...)
	if err != nil {
		return course.Course{}, errors.Wrap(err, "updating course")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return course.Course{}, course.ErrNotFound
	}
	return repo.GetCourseByID(crs.ID)
}

func (repo *courseRepository) DeleteCoursesByID(ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	stmt, args, err := psql.Delete("courses").Where(sq.Eq{"id": ids}).ToSql()
	if err != nil {
		return errors.Wrap(err, "building query")
	}
	_, err = repo.db.Exec(stmt, args...)
	return errors.Wrap(err, "deleting courses")
}

func (repo *courseRepository) CreateEnrollment(enr course.Enrollment) (course.Enrollment, error) {
	tx, err := repo.db.Beginx()
	if err != nil {
		return course.Enrollment{}, errors.Wrap(err, "starting transaction")
	}
	defer func() { _ = tx.Rollback() }()

	stmt, args, err := psql.Insert("enrollments").
		Columns("user_id", "course_id", "enrolled_at").
		Values(enr.UserID, enr.CourseID, enr.EnrolledAt).
		ToSql()
	if err != nil {
		return course.Enrollment{}, errors.Wrap(err, "building query")
	}
	if _, err = tx.Exec(stmt, args...); err != nil {
		if isUniqueViolation(err) {
			return course.Enrollment{}, course.ErrAlreadyEnrolled
		}
		return course.Enrollment{}, errors.Wrap(err, "creating enrollment")
	}

	stmt, args, err = psql.Update("courses").
		Set("students_enrolled", sq.Expr("students_enrolled + 1")).
		Where(sq.Eq{"id": enr.CourseID}).
		ToSql()
	if err != nil {
		return course.Enrollment{}, errors.Wrap(err, "building query")
	}
	if _, err = tx.Exec(stmt, args...); err != nil {
		return course.Enrollment{}, errors.Wrap(err, "bumping student count")
	}

	if err = tx.Commit(); err != nil {
		return course.Enrollment{}, errors.Wrap(err, "committing enrollment")
	}
	return enr, nil
}

func (repo *courseRepository) GetUserEnrollments(userID string) ([]course.Enrollment, error) {
	stmt, args, err := psql.Select("user_id", "course_id", "enrolled_at").
		From("enrollments").
		Where(sq.Eq{"user_id": userID}).
		OrderBy("enrolled_at DESC").
		ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "building query")
	}
	var rows []struct {
		UserID     string    `db:"user_id"`
		CourseID   string    `db:"course_id"`
		EnrolledAt time.Time `db:"enrolled_at"`
	}
	if err = repo.db.Select(&rows, stmt, args...); err != nil {
		return nil, errors.Wrap(err, "querying enrollments")
	}
	enrollments := make([]course.Enrollment, len(rows))
	for i, r := range rows {
		enrollments[i] = course.Enrollment{
			UserID:     r.UserID,
			CourseID:   r.CourseID,
			EnrolledAt: r.EnrolledAt.UTC(),
		}
	}
	return enrollments, nil
}

func (repo *courseRepository) GetEnrolledCourses(userID string) ([]course.Course, error) {
	cols := make([]string, len(courseColumns))
	for i, col := range courseColumns {
		cols[i] = "c." + col
	}
	q := psql.Select(cols...).
		From("courses c").
		Join("enrollments e ON e.course_id = c.id").
		Where(sq.Eq{"e.user_id": userID}).
		OrderBy("e.enrolled_at DESC")
	return repo.queryCourses(q)
}
