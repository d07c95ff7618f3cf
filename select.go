package sqlbind

import (
	"context"
	"strings"
)

// Select builds a SELECT statement.
type Select struct {
	filtered[*Select]

	distinct bool
	cols     []string
	from     []string
	group    []string
	having   []string
	order    []string
	limit    int
	offset   int
}

// Distinct toggles SELECT DISTINCT.
func (s *Select) Distinct(on bool) *Select {
	s.distinct = on
	return s
}

// Cols adds result columns; each is quoted with QuoteName.
func (s *Select) Cols(cols ...string) *Select {
	for _, c := range cols {
		s.cols = append(s.cols, s.conn.QuoteName(c))
	}
	return s
}

// From adds a table, optionally aliased ("foo AS f").
func (s *Select) From(spec string) *Select {
	s.from = append(s.from, s.conn.QuoteName(spec))
	return s
}

// Join attaches a join to the most recent From table, e.g.
// Join("LEFT", "bar AS b", "foo.id = b.foo_id").
func (s *Select) Join(kind, spec, cond string) *Select {
	join := strings.TrimSpace(strings.ToUpper(kind)+" JOIN") + " " + s.conn.QuoteName(spec)
	if cond != "" {
		join += " ON " + s.conn.QuoteNamesIn(cond)
	}
	join = strings.TrimSpace(join)
	if len(s.from) == 0 {
		s.from = append(s.from, join)
		return s
	}
	s.from[len(s.from)-1] += "\n    " + join
	return s
}

// GroupBy adds grouping expressions.
func (s *Select) GroupBy(specs ...string) *Select {
	for _, spec := range specs {
		s.group = append(s.group, s.conn.QuoteNamesIn(spec))
	}
	return s
}

// Having adds a HAVING condition joined by AND; values work as in Where.
func (s *Select) Having(cond string, values ...any) *Select {
	s.having = s.condition(s.having, "AND", cond, values)
	return s
}

// OrHaving adds a HAVING condition joined by OR.
func (s *Select) OrHaving(cond string, values ...any) *Select {
	s.having = s.condition(s.having, "OR", cond, values)
	return s
}

// OrderBy adds ordering expressions such as "foo.bar DESC".
func (s *Select) OrderBy(specs ...string) *Select {
	for _, spec := range specs {
		s.order = append(s.order, s.conn.QuoteNamesIn(spec))
	}
	return s
}

// Limit sets the row count; 0 removes it.
func (s *Select) Limit(n int) *Select {
	s.limit = n
	return s
}

// Offset sets the number of rows to skip; it only applies with a Limit.
func (s *Select) Offset(n int) *Select {
	s.offset = n
	return s
}

// String renders the statement.
func (s *Select) String() string {
	var b strings.Builder
	b.WriteString("SELECT")
	if s.distinct {
		b.WriteString(" DISTINCT")
	}
	if len(s.cols) > 0 {
		b.WriteString(indentCsv(s.cols))
	} else {
		b.WriteString(indentCsv([]string{"*"}))
	}
	if len(s.from) > 0 {
		b.WriteString("FROM")
		b.WriteString(indentCsv(s.from))
	}
	s.writeWhere(&b)
	if len(s.group) > 0 {
		b.WriteString("GROUP BY")
		b.WriteString(indentCsv(s.group))
	}
	if len(s.having) > 0 {
		b.WriteString("HAVING")
		b.WriteString(indent(s.having))
	}
	if len(s.order) > 0 {
		b.WriteString("ORDER BY")
		b.WriteString(indentCsv(s.order))
	}
	return s.conn.AppendLimit(b.String(), s.limit, s.offset)
}

// FetchAll runs the statement and returns every row.
func (s *Select) FetchAll(ctx context.Context) ([]map[string]any, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.conn.FetchAll(ctx, s.String(), s.bind)
}

// FetchOne runs the statement and returns the first row, or sql.ErrNoRows.
func (s *Select) FetchOne(ctx context.Context) (map[string]any, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.conn.FetchOne(ctx, s.String(), s.bind)
}

// ScanAll runs the statement and scans every row into dest.
func (s *Select) ScanAll(ctx context.Context, dest any) error {
	if s.err != nil {
		return s.err
	}
	return s.conn.ScanAll(ctx, dest, s.String(), s.bind)
}
