package sqlxrepos

import (
	"database/sql"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/trezcool/learnhub/core/certificate"
)

type certificateRepository struct {
	db *sqlx.DB
}

var _ certificate.Repository = (*certificateRepository)(nil)

func NewCertificateRepository(db *sql.DB) *certificateRepository {
	return &certificateRepository{db: wrapDB(db)}
}

type certificateRow struct {
	ID             string         `db:"id"`
	UserID         string         `db:"user_id"`
	CourseID       string         `db:"course_id"`
	CourseName     string         `db:"course_name"`
	StudentName    string         `db:"student_name"`
	InstructorName string         `db:"instructor_name"`
	CompletionDate time.Time      `db:"completion_date"`
	Number         string         `db:"number"`
	Skills         pq.StringArray `db:"skills"`
	Grade          string         `db:"grade"`
}

func (r certificateRow) toCertificate() certificate.Certificate {
	return certificate.Certificate{
		ID:             r.ID,
		UserID:         r.UserID,
		CourseID:       r.CourseID,
		CourseName:     r.CourseName,
		StudentName:    r.StudentName,
		InstructorName: r.InstructorName,
		CompletionDate: r.CompletionDate.UTC(),
		Number:         r.Number,
		Skills:         r.Skills,
		Grade:          r.Grade,
	}
}

var certificateColumns = []string{
	"id", "user_id", "course_id", "course_name", "student_name",
	"instructor_name", "completion_date", "number", "skills", "grade",
}

func (repo *certificateRepository) getCertificate(q sq.SelectBuilder) (certificate.Certificate, error) {
	stmt, args, err := q.ToSql()
	if err != nil {
		return certificate.Certificate{}, errors.Wrap(err, "building query")
	}
	var row certificateRow
	if err = repo.db.Get(&row, stmt, args...); err != nil {
		if err == sql.ErrNoRows {
			return certificate.Certificate{}, certificate.ErrNotFound
		}
		return certificate.Certificate{}, errors.Wrap(err, "getting certificate")
	}
	return row.toCertificate(), nil
}

func (repo *certificateRepository) selectCertificates() sq.SelectBuilder {
	return psql.Select(certificateColumns...).From("certificates")
}

func (repo *certificateRepository) CreateCertificate(cert certificate.Certificate) (certificate.Certificate, error) {
	stmt, args, err := psql.Insert("certificates").
		Columns(certificateColumns...).
		Values(
			cert.ID, cert.UserID, cert.CourseID, cert.CourseName, cert.StudentName,
			cert.InstructorName, cert.CompletionDate, cert.Number, pq.Array(cert.Skills), cert.Grade,
		).
		ToSql()
	if err != nil {
		return certificate.Certificate{}, errors.Wrap(err, "building query")
	}
	if _, err = repo.db.Exec(stmt, args...); err != nil {
		if isUniqueViolation(err) {
			return certificate.Certificate{}, certificate.ErrAlreadyIssued
		}
		return certificate.Certificate{}, errors.Wrap(err, "creating certificate")
	}
	return cert, nil
}

func (repo *certificateRepository) GetUserCertificates(userID string) ([]certificate.Certificate, error) {
	stmt, args, err := repo.selectCertificates().
		Where(sq.Eq{"user_id": userID}).
		OrderBy("completion_date DESC").
		ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "building query")
	}
	var rows []certificateRow
	if err = repo.db.Select(&rows, stmt, args...); err != nil {
		return nil, errors.Wrap(err, "querying certificates")
	}
	certs := make([]certificate.Certificate, len(rows))
	for i, r := range rows {
		certs[i] = r.toCertificate()
	}
	return certs, nil
}

func (repo *certificateRepository) GetCertificateByID(userID, id string) (certificate.Certificate, error) {
	return repo.getCertificate(repo.selectCertificates().Where(sq.Eq{"user_id": userID, "id": id}))
}

func (repo *certificateRepository) GetCertificateByUserAndCourse(userID, courseID string) (certificate.Certificate, error) {
	return repo.getCertificate(repo.selectCertificates().Where(sq.Eq{"user_id": userID, "course_id": courseID}))
}

func (repo *certificateRepository) GetCertificateByNumber(number string) (certificate.Certificate, error) {
	return repo.getCertificate(repo.selectCertificates().Where(sq.Eq{"number": number}))
}
