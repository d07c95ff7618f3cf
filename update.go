package sqlbind

import (
	"context"
	"database/sql"
	"strings"
)

// Update builds an UPDATE statement.
type Update struct {
	filtered[*Update]
	values

	table string
}

// Table sets the table to update.
func (u *Update) Table(table string) *Update {
	u.table = u.conn.QuoteName(table)
	return u
}

// Col sets columns to the placeholders of the same name.
func (u *Update) Col(cols ...string) *Update {
	for _, c := range cols {
		u.add(u.conn.QuoteName(c), ":"+c)
	}
	return u
}

// Set sets a column to a raw SQL expression; an empty expression means
// NULL.
func (u *Update) Set(col, expr string) *Update {
	if expr == "" {
		expr = "NULL"
	}
	u.add(u.conn.QuoteName(col), expr)
	return u
}

// String renders the statement.
func (u *Update) String() string {
	set := make([]string, len(u.cols))
	for i, c := range u.cols {
		set[i] = c + " = " + u.exprs[i]
	}

	var b strings.Builder
	b.WriteString("UPDATE ")
	b.WriteString(u.table)
	b.WriteString("\nSET")
	b.WriteString(indentCsv(set))
	u.writeWhere(&b)
	return b.String()
}

// Exec runs the statement with the current bindings.
func (u *Update) Exec(ctx context.Context) (sql.Result, error) {
	return u.exec(ctx, u.String())
}
