// Package sqlxrepos implements the repositories on postgres with sqlx and squirrel.
package sqlxrepos

import (
	"database/sql"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"
)

const (
	pqUniqueViolation     = "23505"
	pqForeignKeyViolation = "23503"
	pqInvalidTextRepr     = "22P02"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

func newID() string {
	return uuid.New().String()
}

func pqCode(err error) pq.ErrorCode {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code
	}
	return ""
}

func isUniqueViolation(err error) bool {
	return pqCode(err) == pqUniqueViolation
}

func isForeignKeyViolation(err error) bool {
	return pqCode(err) == pqForeignKeyViolation
}

// isMissing reports whether err means the row does not exist. A malformed UUID can never match a row.
func isMissing(err error) bool {
	return errors.Cause(err) == sql.ErrNoRows || pqCode(err) == pqInvalidTextRepr
}

func nullString(s string) null.String {
	return null.NewString(s, s != "")
}

func stringArray(ids []string) pq.StringArray {
	if ids == nil {
		return pq.StringArray{}
	}
	return pq.StringArray(ids)
}

// checkAffected returns notFound when the statement touched no row.
func checkAffected(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "reading affected rows")
	}
	if n == 0 {
		return notFound
	}
	return nil
}

func joinColumns(cols []string) string {
	return strings.Join(cols, ", ")
}
