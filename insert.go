package sqlbind

import (
	"context"
	"database/sql"
)

// Insert builds an INSERT statement.
type Insert struct {
	query[*Insert]
	values

	table string
}

// values is an ordered column = expression list shared by Insert and
// Update.
type values struct {
	cols  []string
	exprs []string
}

func (v *values) add(col, expr string) {
	v.cols = append(v.cols, col)
	v.exprs = append(v.exprs, expr)
}

// Into sets the target table.
func (i *Insert) Into(table string) *Insert {
	i.table = i.conn.QuoteName(table)
	return i
}

// Col adds a column bound to the placeholder of the same name.
func (i *Insert) Col(cols ...string) *Insert {
	for _, c := range cols {
		i.add(i.conn.QuoteName(c), ":"+c)
	}
	return i
}

// Set adds a column with a raw SQL expression; an empty expression means
// NULL.
func (i *Insert) Set(col, expr string) *Insert {
	if expr == "" {
		expr = "NULL"
	}
	i.add(i.conn.QuoteName(col), expr)
	return i
}

// String renders the statement.
func (i *Insert) String() string {
	return "INSERT INTO " + i.table + " (" + indentCsv(i.cols) + ") VALUES (" + indentCsv(i.exprs) + ")"
}

// Exec runs the statement with the current bindings.
func (i *Insert) Exec(ctx context.Context) (sql.Result, error) {
	return i.exec(ctx, i.String())
}
