package sqlbind

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"
)

// Dialect identifies the SQL backend for quoting, placeholder rendering and a
// few dialect-specific parsing behaviors.
type Dialect int

// Quoter is the per-dialect capability record used by the rewriting functions:
// the identifier quote characters plus the driver's literal escaping primitive.
// A Quoter is a plain value and is safe for concurrent use.
type Quoter struct {
	NamePrefix string
	NameSuffix string
	// Escape returns s as a complete, quoted string literal. Nil means
	// standard SQL quote doubling.
	Escape func(s string) string
	// Backslash marks a backslash inside a quoted literal as escaping the
	// next byte. Without it a literal closes at the nearest matching quote.
	Backslash bool
}

// Limits bounds what a single compiled statement may contain.
type Limits struct {
	// MaxParams limits the total number of driver placeholders emitted for one
	// statement. 0 selects the per-dialect default, < 0 means unlimited.
	MaxParams int
	// MaxNameLen limits the length of a :placeholder name.
	MaxNameLen int
}

// P is a convenient alias for bind maps.
type P = map[string]any

// Execer abstracts *sql.DB / *sql.Tx ExecContext for easy testing.
type Execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Queryer abstracts *sql.DB / *sql.Tx QueryContext for easy testing.
type Queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// runner is satisfied by both *sql.DB and *sql.Tx.
type runner interface {
	Execer
	Queryer
}

const (
	Postgres Dialect = iota
	MySQL
	SQLite
	SQLServer
)

var (
	ErrUnsupportedBindValue = errors.New("sqlbind: unsupported bind value")
	ErrParamMissing         = errors.New("sqlbind: missing parameter")
	ErrTooManyParams        = errors.New("sqlbind: too many parameters")
	ErrParamNameTooLong     = errors.New("sqlbind: parameter name too long")
	ErrUnknownDialect       = errors.New("sqlbind: unknown dialect")
	ErrUnknownAdapter       = errors.New("sqlbind: unknown adapter")
	ErrEndpointNotFound     = errors.New("sqlbind: connection endpoint not found")
	ErrNoConnection         = errors.New("sqlbind: no connection for query")
	ErrTxActive             = errors.New("sqlbind: transaction already active")
	ErrNoTx                 = errors.New("sqlbind: no active transaction")
	ErrBuilderReleased      = errors.New("sqlbind: builder already released; call Write() on the connection for a new statement")
	ErrMoreThanOneRow       = errors.New("sqlbind: more than one row")
)

// String returns the string representation of the dialect.
func (d Dialect) String() string {
	switch d {
	case Postgres:
		return "postgres"
	case MySQL:
		return "mysql"
	case SQLite:
		return "sqlite"
	case SQLServer:
		return "sqlserver"
	default:
		return "unknown"
	}
}

// ParseDialect resolves a dialect or adapter name, e.g. "pgsql" or "sqlite3".
func ParseDialect(name string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "postgres", "postgresql", "pgsql", "pgx":
		return Postgres, nil
	case "mysql", "mariadb":
		return MySQL, nil
	case "sqlite", "sqlite3":
		return SQLite, nil
	case "sqlserver", "sqlsrv", "mssql":
		return SQLServer, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownDialect, name)
}

// DriverName returns the database/sql driver registered for the dialect.
// No SQL Server driver is bundled; callers register one themselves.
func (d Dialect) DriverName() string {
	switch d {
	case Postgres:
		return "pgx"
	case MySQL:
		return "mysql"
	case SQLite:
		return "sqlite"
	case SQLServer:
		return "sqlserver"
	default:
		return ""
	}
}

// Quoter returns the built-in quoting record for the dialect.
func (d Dialect) Quoter() Quoter {
	switch d {
	case Postgres:
		return Quoter{NamePrefix: `"`, NameSuffix: `"`, Escape: pq.QuoteLiteral}
	case MySQL:
		return Quoter{NamePrefix: "`", NameSuffix: "`", Escape: quoteBackslash, Backslash: true}
	case SQLServer:
		return Quoter{NamePrefix: "[", NameSuffix: "]", Escape: quoteStandard}
	default: // SQLite and anything ANSI-like
		return Quoter{NamePrefix: `"`, NameSuffix: `"`, Escape: quoteStandard}
	}
}

// escape applies the configured primitive, defaulting to quote doubling.
func (q Quoter) escape(s string) string {
	if q.Escape == nil {
		return quoteStandard(s)
	}
	return q.Escape(s)
}

// quoteStandard wraps s in single quotes, doubling embedded ones.
func quoteStandard(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// quoteBackslash mirrors MySQL's default string escaping, where a backslash
// is an escape character inside literals.
func quoteBackslash(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte('\'')
	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case 0:
			b.WriteString(`\0`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\x1a':
			b.WriteString(`\Z`)
		case '\'', '"', '\\':
			b.WriteByte('\\')
			b.WriteByte(c)
		default:
			b.WriteByte(c)
		}
	}
	b.WriteByte('\'')
	return b.String()
}

// defaultLimits merges user limits with per-dialect defaults.
func defaultLimits(dialect Dialect, limits ...Limits) Limits {
	l := Limits{}

	if len(limits) > 0 {
		l = limits[0]
	}

	if l.MaxParams == 0 {
		switch dialect {
		case SQLServer:
			l.MaxParams = 2100
		case SQLite:
			l.MaxParams = 999
		case Postgres, MySQL:
			l.MaxParams = 65535
		}
	}

	if l.MaxNameLen <= 0 {
		l.MaxNameLen = 64
	}

	return l
}
