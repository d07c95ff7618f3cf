package sqlbind

import (
	"context"
	"database/sql"
	"strings"
)

// QueryFactory creates statement objects bound to a connection.
type QueryFactory struct {
	conn *Connection
}

// NewQueryFactory returns a factory; conn may be nil when every New* call
// passes its own connection.
func NewQueryFactory(conn *Connection) *QueryFactory {
	return &QueryFactory{conn: conn}
}

// NewSelect returns a SELECT statement on conn, or on the factory's
// connection when conn is nil.
func (f *QueryFactory) NewSelect(conn ...*Connection) (*Select, error) {
	c, err := f.connection(conn)
	if err != nil {
		return nil, err
	}
	s := &Select{}
	s.init(s, c)
	return s, nil
}

// NewInsert returns an INSERT statement.
func (f *QueryFactory) NewInsert(conn ...*Connection) (*Insert, error) {
	c, err := f.connection(conn)
	if err != nil {
		return nil, err
	}
	i := &Insert{}
	i.init(i, c)
	return i, nil
}

// NewUpdate returns an UPDATE statement.
func (f *QueryFactory) NewUpdate(conn ...*Connection) (*Update, error) {
	c, err := f.connection(conn)
	if err != nil {
		return nil, err
	}
	u := &Update{}
	u.init(u, c)
	return u, nil
}

// NewDelete returns a DELETE statement.
func (f *QueryFactory) NewDelete(conn ...*Connection) (*Delete, error) {
	c, err := f.connection(conn)
	if err != nil {
		return nil, err
	}
	d := &Delete{}
	d.init(d, c)
	return d, nil
}

func (f *QueryFactory) connection(conn []*Connection) (*Connection, error) {
	if len(conn) > 0 && conn[0] != nil {
		return conn[0], nil
	}
	if f.conn == nil {
		return nil, ErrNoConnection
	}
	return f.conn, nil
}

// query is the state shared by every statement object. T is the concrete
// statement so chained calls keep their type.
type query[T any] struct {
	self T
	conn *Connection
	bind map[string]any
	err  error
}

func (q *query[T]) init(self T, conn *Connection) {
	q.self = self
	q.conn = conn
	q.bind = make(map[string]any)
}

// Connection returns the statement's connection.
func (q *query[T]) Connection() *Connection { return q.conn }

// Bind merges values into the statement's bindings; later keys win.
func (q *query[T]) Bind(bind map[string]any) T {
	for k, v := range bind {
		q.bind[k] = v
	}
	return q.self
}

// Binds returns a copy of the current bindings.
func (q *query[T]) Binds() map[string]any {
	out := make(map[string]any, len(q.bind))
	for k, v := range q.bind {
		out[k] = v
	}
	return out
}

// ClearBind drops every binding.
func (q *query[T]) ClearBind() T {
	q.bind = make(map[string]any)
	return q.self
}

// Err returns the first error raised while building the statement.
func (q *query[T]) Err() error { return q.err }

// condition quotes names in cond, replaces ? with quoted values and appends
// it to list, joined by op unless it is the first entry.
func (q *query[T]) condition(list []string, op, cond string, values []any) []string {
	if q.err != nil {
		return list
	}
	cond = q.conn.QuoteNamesIn(cond)
	if len(values) > 0 {
		var err error
		if cond, err = q.conn.QuoteValuesIn(cond, values...); err != nil {
			q.err = err
			return list
		}
	}
	if len(list) > 0 {
		cond = op + " " + cond
	}
	return append(list, cond)
}

func (q *query[T]) exec(ctx context.Context, text string) (sql.Result, error) {
	if q.err != nil {
		return nil, q.err
	}
	return q.conn.Exec(ctx, text, q.bind)
}

// filtered adds a WHERE clause to a statement.
type filtered[T any] struct {
	query[T]
	where []string
}

// Where adds a condition joined by AND. Each ? in cond is replaced by the
// next quoted value; several values for a single ? are quoted as a list.
func (f *filtered[T]) Where(cond string, values ...any) T {
	f.where = f.condition(f.where, "AND", cond, values)
	return f.self
}

// OrWhere adds a condition joined by OR.
func (f *filtered[T]) OrWhere(cond string, values ...any) T {
	f.where = f.condition(f.where, "OR", cond, values)
	return f.self
}

func (f *filtered[T]) writeWhere(b *strings.Builder) {
	if len(f.where) > 0 {
		b.WriteString("WHERE")
		b.WriteString(indent(f.where))
	}
}

// indentCsv renders list one item per line, comma separated.
func indentCsv(list []string) string {
	return "\n    " + strings.Join(list, ",\n    ") + "\n"
}

// indent renders list one item per line.
func indent(list []string) string {
	return "\n    " + strings.Join(list, "\n    ") + "\n"
}
