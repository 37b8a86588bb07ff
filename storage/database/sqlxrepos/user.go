package sqlxrepos

import (
	"database/sql"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/learnhub/core"
	"github.com/trezcool/learnhub/core/user"
)

type userRepository struct {
	db *sqlx.DB
}

var _ user.Repository = (*userRepository)(nil)

func NewUserRepository(db *sql.DB) *userRepository {
	return &userRepository{db: wrapDB(db)}
}

type userRow struct {
	ID           string       `db:"id"`
	Name         string       `db:"name"`
	Email        string       `db:"email"`
	Role         string       `db:"role"`
	IsActive     bool         `db:"is_active"`
	PasswordHash []byte       `db:"password_hash"`
	FailedLogins int          `db:"failed_logins"`
	LockedUntil  *time.Time   `db:"locked_until"`
	CreatedAt    time.Time    `db:"created_at"`
	UpdatedAt    time.Time    `db:"updated_at"`
	LastLogin    sql.NullTime `db:"last_login"`
}

func (r userRow) toUser() user.User {
	usr := user.User{
		ID:           r.ID,
		Name:         r.Name,
		Email:        r.Email,
		Role:         r.Role,
		IsActive:     r.IsActive,
		PasswordHash: r.PasswordHash,
		FailedLogins: r.FailedLogins,
		LockedUntil:  r.LockedUntil,
		CreatedAt:    r.CreatedAt.UTC(),
		UpdatedAt:    r.UpdatedAt.UTC(),
	}
	if r.LastLogin.Valid {
		usr.LastLogin = r.LastLogin.Time.UTC()
	}
	return usr
}

func lastLogin(usr user.User) sql.NullTime {
	return sql.NullTime{Time: usr.LastLogin, Valid: !usr.LastLogin.IsZero()}
}

var userColumns = []string{
	"id", "name", "email", "role", "is_active", "password_hash",
	"failed_logins", "locked_until", "created_at", "updated_at", "last_login",
}

func (repo *userRepository) selectUsers() sq.SelectBuilder {
	return psql.Select(userColumns...).From("users")
}

func (repo *userRepository) queryUsers(q sq.SelectBuilder) ([]user.User, error) {
	stmt, args, err := q.ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "building query")
	}
	var rows []userRow
	if err = repo.db.Select(&rows, stmt, args...); err != nil {
		return nil, errors.Wrap(err, "querying users")
	}
	users := make([]user.User, len(rows))
	for i, r := range rows {
		users[i] = r.toUser()
	}
	return users, nil
}

func (repo *userRepository) getUser(q sq.SelectBuilder) (user.User, error) {
	stmt, args, err := q.ToSql()
	if err != nil {
		return user.User{}, errors.Wrap(err, "building query")
	}
	var row userRow
	if err = repo.db.Get(&row, stmt, args...); err != nil {
		if err == sql.ErrNoRows {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, errors.Wrap(err, "getting user")
	}
	return row.toUser(), nil
}

func (repo *userRepository) CheckEmailUniqueness(email string, excludedUsers ...user.User) error {
	q := psql.Select("COUNT(*)").From("users").Where(sq.Eq{"email": email})
	if len(excludedUsers) > 0 {
		ids := make([]string, len(excludedUsers))
		for i, usr := range excludedUsers {
			ids[i] = usr.ID
		}
		q = q.Where(sq.NotEq{"id": ids})
	}
	stmt, args, err := q.ToSql()
	if err != nil {
		return errors.Wrap(err, "building query")
	}
	var count int
	if err = repo.db.Get(&count, stmt, args...); err != nil {
		return errors.Wrap(err, "checking email uniqueness")
	}
	if count > 0 {
		return user.ErrEmailExists
	}
	return nil
}

func (repo *userRepository) CreateUser(usr user.User) (user.User, error) {
	stmt, args, err := psql.Insert("users").
		Columns(userColumns...).
		Values(
			usr.ID, usr.Name, usr.Email, usr.Role, usr.IsActive, usr.PasswordHash,
			usr.FailedLogins, usr.LockedUntil, usr.CreatedAt, usr.UpdatedAt, lastLogin(usr),
		).
		ToSql()
	if err != nil {
		return user.User{}, errors.Wrap(err, "building query")
	}
	if _, err = repo.db.Exec(stmt, args...); err != nil {
		if isUniqueViolation(err) {
			return user.User{}, user.ErrEmailExists
		}
		return user.User{}, errors.Wrap(err, "creating user")
	}
	return usr, nil
}

func (repo *userRepository) QueryAllUsers() ([]user.User, error) {
	return repo.queryUsers(repo.selectUsers().OrderBy("created_at DESC"))
}

func (repo *userRepository) GetUserByID(id string) (user.User, error) {
	return repo.getUser(repo.selectUsers().Where(sq.Eq{"id": id}))
}

func (repo *userRepository) GetUserByEmail(email string) (user.User, error) {
	return repo.getUser(repo.selectUsers().Where(sq.Eq{"email": email}))
}

func (repo *userRepository) FilterUsers(filter user.QueryFilter, orderings ...core.DBOrdering) ([]user.User, error) {
	q := repo.selectUsers()
	if filter.Search != "" {
		search := "%" + filter.Search + "%"
		q = q.Where(sq.Or{sq.ILike{"name": search}, sq.ILike{"email": search}})
	}
	if len(filter.Roles) > 0 {
		q = q.Where(sq.Eq{"role": filter.Roles})
	}
	if filter.IsActive != nil {
		q = q.Where(sq.Eq{"is_active": *filter.IsActive})
	}
	if !filter.CreatedFrom.IsZero() {
		q = q.Where(sq.GtOrEq{"created_at": filter.CreatedFrom})
	}
	if !filter.CreatedTo.IsZero() {
		q = q.Where(sq.LtOrEq{"created_at": filter.CreatedTo})
	}
	return repo.queryUsers(orderBy(q, "created_at DESC", orderings))
}

func (repo *userRepository) UpdateUser(usr user.User, isActive *bool) (user.User, error) {
	q := psql.Update("users").
		Set("updated_at", usr.UpdatedAt).
		Where(sq.Eq{"id": usr.ID})
	if usr.Name != "" {
		q = q.Set("name", usr.Name)
	}
	if usr.Email != "" {
		q = q.Set("email", usr.Email)
	}
	if usr.Role != "" {
		q = q.Set("role", usr.Role)
	}
	if usr.PasswordHash != nil {
		q = q.Set("password_hash", usr.PasswordHash)
	}
	if isActive != nil {
		q = q.Set("is_active", *isActive)
	}
	stmt, args, err := q.ToSql()
	if err != nil {
		return user.User{}, errors.Wrap(err, "building query")
	}
	res, err := repo.db.Exec(stmt, args...)
	if err != nil {
		if isUniqueViolation(err) {
			return user.User{}, user.ErrEmailExists
		}
		return user.User{}, errors.Wrap(err, "updating user")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return user.User{}, user.ErrNotFound
	}
	return repo.GetUserByID(usr.ID)
}

func (repo *userRepository) SetUserLoginState(usr user.User) (user.User, error) {
	stmt, args, err := psql.Update("users").
		Set("failed_logins", usr.FailedLogins).
		Set("locked_until", usr.LockedUntil).
		Set("last_login", lastLogin(usr)).
		Where(sq.Eq{"id": usr.ID}).
		ToSql()
	if err != nil {
		return user.User{}, errors.Wrap(err, "building query")
	}
	if _, err = repo.db.Exec(stmt, args...); err != nil {
		return user.User{}, errors.Wrap(err, "saving login state")
	}
	return usr, nil
}

func (repo *userRepository) DeleteUsersByID(ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	stmt, args, err := psql.Delete("users").Where(sq.Eq{"id": ids}).ToSql()
	if err != nil {
		return errors.Wrap(err, "building query")
	}
	_, err = repo.db.Exec(stmt, args...)
	return errors.Wrap(err, "deleting users")
}
