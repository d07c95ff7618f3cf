package sqlbind

import (
	"context"
	"database/sql"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/gandaldf/sqlbind/internal/testutil"
)

// dcase groups a dialect with a display name for table-driven tests.
type dcase struct {
	name string
	d    Dialect
}

// allDialects returns the list of dialects to iterate over in tests.
func allDialects() []dcase {
	return []dcase{
		{"postgres", Postgres},
		{"mysql", MySQL},
		{"sqlite", SQLite},
		{"sqlserver", SQLServer},
	}
}

// placeholderRegex returns a compiled regex that matches placeholders for each dialect.
func placeholderRegex(d Dialect) *regexp.Regexp {
	switch d {
	case Postgres:
		return regexp.MustCompile(`\$(?:[1-9][0-9]*)`)
	case SQLServer:
		return regexp.MustCompile(`@p(?:[1-9][0-9]*)`)
	default: // MySQL, SQLite
		return regexp.MustCompile(`\?`)
	}
}

// countPlaceholders counts the placeholders present in a query for the given dialect.
func countPlaceholders(q string, d Dialect) int {
	return len(placeholderRegex(d).FindAllStringIndex(q, -1))
}

// newMockConn returns a connection over a sqlmock handle matching queries
// literally.
func newMockConn(t testing.TB, d Dialect, opts ...Option) (*Connection, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	opts = append([]Option{WithDB(db), WithLogger(testutil.NewTestLogger(t))}, opts...)
	return NewConnection(d, ConnectionConfig{}, opts...), mock
}

// newSQLiteConn returns a connected in-memory SQLite connection.
func newSQLiteConn(t testing.TB, opts ...Option) *Connection {
	t.Helper()
	opts = append([]Option{WithLogger(testutil.NewTestLogger(t))}, opts...)
	c := NewConnection(SQLite, ConnectionConfig{}, opts...)
	require.NoError(t, c.Connect(context.Background()))
	t.Cleanup(func() { _ = c.Close() })
	return c
}

// mustExec runs statements on c, failing the test on error.
func mustExec(t testing.TB, c *Connection, stmts ...string) {
	t.Helper()
	for _, s := range stmts {
		_, err := c.Exec(context.Background(), s, nil)
		require.NoError(t, err, s)
	}
}

var _ runner = (*sql.DB)(nil)
var _ runner = (*sql.Tx)(nil)
