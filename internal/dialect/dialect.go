// Package dialect hides the few SQL differences between the embedded SQLite
// store and the optional Postgres deployment.
package dialect

import (
	"errors"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

const (
	pgErrUniqueViolation     = "23505"
	pgErrForeignKeyViolation = "23503"
)

// Name identifies a database/sql driver registration.
type Name string

const (
	SQLite   Name = "sqlite"
	Postgres Name = "pgx"
)

// Dialect renders driver-specific SQL fragments. Queries are written with
// '?' placeholders and rebound for drivers that need positional '$n'.
type Dialect struct {
	name Name
}

// New returns the dialect for a driver name.
func New(name Name) Dialect {
	return Dialect{name: name}
}

// ForDSN picks the driver from a connection string: postgres URLs go to pgx,
// everything else is treated as a SQLite path.
func ForDSN(dsn string) Dialect {
	lower := strings.ToLower(strings.TrimSpace(dsn))
	if strings.HasPrefix(lower, "postgres://") || strings.HasPrefix(lower, "postgresql://") {
		return New(Postgres)
	}
	return New(SQLite)
}

func (d Dialect) Name() Name { return d.name }

func (d Dialect) IsPostgres() bool { return d.name == Postgres }

// Rebind converts '?' placeholders to '$1..$n' for Postgres. Quoted literals
// are copied untouched.
func (d Dialect) Rebind(query string) string {
	if d.name != Postgres {
		return query
	}
	var (
		b        strings.Builder
		n        int
		inString bool
	)
	b.Grow(len(query) + 8)
	for _, r := range query {
		switch {
		case r == '\'':
			inString = !inString
			b.WriteRune(r)
		case r == '?' && !inString:
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// MonthBucket formats a timestamp column as "YYYY-MM". On SQLite only the
// leading "YYYY-MM-DD HH:MM:SS" is parsed, so rows written in older text
// layouts still land in their month.
func (d Dialect) MonthBucket(column string) string {
	if d.name == Postgres {
		return "to_char(" + column + ", 'YYYY-MM')"
	}
	return "strftime('%Y-%m', substr(" + column + ", 1, 19))"
}

// Like returns the case-insensitive pattern operator.
func (d Dialect) Like() string {
	if d.name == Postgres {
		return "ILIKE"
	}
	return "LIKE"
}

// IsUniqueViolation reports whether err is a uniqueness constraint failure.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgErrUniqueViolation
	}
	switch sqliteCode(err) {
	case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
		return true
	}
	return false
}

// IsForeignKeyViolation reports whether err is a referential integrity failure.
func IsForeignKeyViolation(err error) bool {
	if err == nil {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgErrForeignKeyViolation
	}
	return sqliteCode(err) == sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY
}

// sqliteCode returns the extended result code of a modernc error, or 0.
func sqliteCode(err error) int {
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		return liteErr.Code()
	}
	return 0
}
