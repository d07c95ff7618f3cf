package sqlbind

import (
	"context"
	"database/sql"
	"fmt"
)

// FetchAll returns every row as a column → value map.
func (c *Connection) FetchAll(ctx context.Context, text string, bind map[string]any) ([]map[string]any, error) {
	rows, err := c.Query(ctx, text, bind)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	var out []map[string]any
	for rows.Next() {
		vals, err := scanValues(rows, len(cols))
		if err != nil {
			return nil, err
		}
		out = append(out, rowMap(cols, vals))
	}
	return out, rows.Err()
}

// FetchAssoc returns every row keyed by the text of its first column. Later
// rows with the same key replace earlier ones.
func (c *Connection) FetchAssoc(ctx context.Context, text string, bind map[string]any) (map[string]map[string]any, error) {
	rows, err := c.Query(ctx, text, bind)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	out := make(map[string]map[string]any)
	for rows.Next() {
		vals, err := scanValues(rows, len(cols))
		if err != nil {
			return nil, err
		}
		out[fmt.Sprint(vals[0])] = rowMap(cols, vals)
	}
	return out, rows.Err()
}

// FetchColumn returns the first column of every row.
func (c *Connection) FetchColumn(ctx context.Context, text string, bind map[string]any) ([]any, error) {
	rows, err := c.Query(ctx, text, bind)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	var out []any
	for rows.Next() {
		vals, err := scanValues(rows, len(cols))
		if err != nil {
			return nil, err
		}
		out = append(out, vals[0])
	}
	return out, rows.Err()
}

// FetchValue returns the first column of the first row, or sql.ErrNoRows.
func (c *Connection) FetchValue(ctx context.Context, text string, bind map[string]any) (any, error) {
	row, _, err := c.fetchFirst(ctx, text, bind)
	if err != nil {
		return nil, err
	}
	return row[0], nil
}

// FetchPairs maps the text of the first column to the second column.
func (c *Connection) FetchPairs(ctx context.Context, text string, bind map[string]any) (map[string]any, error) {
	rows, err := c.Query(ctx, text, bind)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	if len(cols) < 2 {
		return nil, fmt.Errorf("sqlbind: FetchPairs requires 2 columns, got %d", len(cols))
	}
	out := make(map[string]any)
	for rows.Next() {
		vals, err := scanValues(rows, len(cols))
		if err != nil {
			return nil, err
		}
		out[fmt.Sprint(vals[0])] = vals[1]
	}
	return out, rows.Err()
}

// FetchOne returns the first row, or sql.ErrNoRows.
func (c *Connection) FetchOne(ctx context.Context, text string, bind map[string]any) (map[string]any, error) {
	row, cols, err := c.fetchFirst(ctx, text, bind)
	if err != nil {
		return nil, err
	}
	return rowMap(cols, row), nil
}

// ScanOne scans exactly one row into dest. It returns sql.ErrNoRows if no
// rows are returned and ErrMoreThanOneRow if more than one is.
func (c *Connection) ScanOne(ctx context.Context, dest any, text string, bind map[string]any) error {
	rows, err := c.Query(ctx, text, bind)
	if err != nil {
		return err
	}
	defer func() { _ = rows.Close() }()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return err
		}
		return sql.ErrNoRows
	}
	if err := scanOne(rows, dest); err != nil {
		return err
	}
	if rows.Next() {
		return ErrMoreThanOneRow
	}
	return rows.Err()
}

// ScanAll scans every row into dest, a pointer to a slice.
func (c *Connection) ScanAll(ctx context.Context, dest any, text string, bind map[string]any) error {
	rows, err := c.Query(ctx, text, bind)
	if err != nil {
		return err
	}
	defer func() { _ = rows.Close() }()
	return scanAll(rows, dest)
}

func (c *Connection) fetchFirst(ctx context.Context, text string, bind map[string]any) ([]any, []string, error) {
	rows, err := c.Query(ctx, text, bind)
	if err != nil {
		return nil, nil, err
	}
	defer func() { _ = rows.Close() }()

	cols, err := rows.Columns()
	if err != nil {
		return nil, nil, err
	}
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, nil, err
		}
		return nil, nil, sql.ErrNoRows
	}
	vals, err := scanValues(rows, len(cols))
	if err != nil {
		return nil, nil, err
	}
	return vals, cols, nil
}

// scanValues scans the current row generically; byte slices become strings.
func scanValues(rows *sql.Rows, n int) ([]any, error) {
	vals := make([]any, n)
	ptrs := make([]any, n)
	for i := range vals {
		ptrs[i] = &vals[i]
	}
	if err := rows.Scan(ptrs...); err != nil {
		return nil, err
	}
	for i, v := range vals {
		if b, ok := v.([]byte); ok {
			vals[i] = string(b)
		}
	}
	return vals, nil
}

func rowMap(cols []string, vals []any) map[string]any {
	m := make(map[string]any, len(cols))
	for i, col := range cols {
		m[col] = vals[i]
	}
	return m
}
