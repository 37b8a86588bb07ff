// Package sqlxrepos implements the core repositories on PostgreSQL
// using sqlx for scanning and squirrel for query building.
package sqlxrepos

import (
	"database/sql"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/trezcool/learnhub/core"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

func wrapDB(db *sql.DB) *sqlx.DB {
	return sqlx.NewDb(db, "postgres")
}

const pqUniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	pqErr, ok := err.(*pq.Error)
	return ok && pqErr.Code == pqUniqueViolation
}

func orderBy(q sq.SelectBuilder, defaultOrder string, orderings []core.DBOrdering) sq.SelectBuilder {
	if len(orderings) == 0 {
		return q.OrderBy(defaultOrder)
	}
	for _, o := range orderings {
		q = q.OrderBy(o.String())
	}
	return q
}
