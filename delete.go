package sqlbind

import (
	"context"
	"database/sql"
	"strings"
)

// Delete builds a DELETE statement.
type Delete struct {
	filtered[*Delete]

	table string
}

// From sets the table to delete from.
func (d *Delete) From(table string) *Delete {
	d.table = d.conn.QuoteName(table)
	return d
}

// String renders the statement.
func (d *Delete) String() string {
	var b strings.Builder
	b.WriteString("DELETE FROM ")
	b.WriteString(d.table)
	b.WriteByte('\n')
	d.writeWhere(&b)
	return b.String()
}

// Exec runs the statement with the current bindings.
func (d *Delete) Exec(ctx context.Context) (sql.Result, error) {
	return d.exec(ctx, d.String())
}
