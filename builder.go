package sqlbind

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// Builder assembles a single raw SQL statement and its bindings.
// It is NOT safe for concurrent use and is single-use: after Build(), Exec()
// or a query method it is released back to the connection's pool and must
// not be used again.
type Builder struct {
	c        *Connection
	parts    []string
	bag      P
	released bool
	err      error
}

// Write starts a new statement and returns a single-use Builder.
// You can add more chunks via Write/Writef, and bind data via Bind().
func (c *Connection) Write(sql string) *Builder {
	b := c.pool.Get().(*Builder)
	b.c = c
	b.released = false
	b.err = nil
	b.parts = b.parts[:0]
	b.bag = nil
	if sql != "" {
		b.parts = append(b.parts, sql)
	}
	return b
}

// Write appends a raw SQL fragment. No auto-spacing is performed.
func (b *Builder) Write(sql string) *Builder {
	if b.released {
		b.err = ErrBuilderReleased
		return b
	}
	if b.err != nil {
		return b
	}
	b.parts = append(b.parts, sql)
	return b
}

// Writef appends a formatted SQL fragment. No auto-spacing is performed.
func (b *Builder) Writef(format string, args ...any) *Builder {
	if b.released {
		b.err = ErrBuilderReleased
		return b
	}
	if b.err != nil {
		return b
	}
	b.parts = append(b.parts, fmt.Sprintf(format, args...))
	return b
}

// Bind adds bindings, either as one map or as key/value pairs:
//
//	b.Bind(sqlbind.P{"id": 1})
//	b.Bind("id", 1, "tags", []string{"a", "b"})
//
// Later bindings for the same key win.
func (b *Builder) Bind(args ...any) *Builder {
	if b.released {
		b.err = ErrBuilderReleased
		return b
	}
	if b.err != nil {
		return b
	}

	switch len(args) {
	case 0:
		return b

	case 1:
		m, ok := args[0].(map[string]any)
		if !ok {
			b.err = fmt.Errorf("sqlbind: Bind expects a map[string]any or key/value pairs, got %T", args[0])
			return b
		}
		bag := b.ensureBag()
		for k, v := range m {
			bag[k] = v
		}
		return b

	default:
		if len(args)%2 != 0 {
			b.err = fmt.Errorf("sqlbind: Bind expects even number of args (key,value,...), got %d", len(args))
			return b
		}
		bag := b.ensureBag()
		for i := 0; i < len(args); i += 2 {
			k, ok := args[i].(string)
			if !ok || k == "" {
				b.err = fmt.Errorf("sqlbind: Bind key at position %d must be a non-empty string (got %T)", i, args[i])
				return b
			}
			bag[k] = args[i+1]
		}
		return b
	}
}

// Build renders the driver-ready query and args, then RELEASES the builder
// back into the pool.
func (b *Builder) Build() (string, []any, error) {
	if b.released {
		return "", nil, ErrBuilderReleased
	}
	defer b.Release()
	return b.Preview()
}

// Preview renders the query and args without releasing the Builder.
// Safe to call multiple times; use it to log/inspect what would be run.
func (b *Builder) Preview() (string, []any, error) {
	if b.released {
		return "", nil, ErrBuilderReleased
	}
	if b.err != nil {
		return "", nil, b.err
	}
	st, err := b.c.Prepare(strings.Join(b.parts, ""), b.bag)
	if err != nil {
		return "", nil, err
	}
	return st.Query, st.Args, nil
}

// Release clears the builder and puts it back into the pool.
// It is safe to call Release multiple times; subsequent calls are no-ops.
func (b *Builder) Release() {
	if b.released {
		return
	}
	b.released = true

	for i := range b.parts {
		b.parts[i] = ""
	}
	b.parts = b.parts[:0]
	b.bag = nil
	b.err = nil
	b.c.pool.Put(b)
}

// Exec runs the statement on the connection, then releases the builder.
func (b *Builder) Exec(ctx context.Context) (sql.Result, error) {
	text, bag, err := b.take()
	if err != nil {
		return nil, err
	}
	return b.c.Exec(ctx, text, bag)
}

// Query runs the statement on the connection, then releases the builder.
func (b *Builder) Query(ctx context.Context) (*sql.Rows, error) {
	text, bag, err := b.take()
	if err != nil {
		return nil, err
	}
	return b.c.Query(ctx, text, bag)
}

// ScanOne runs the statement, scanning exactly one row into dest.
func (b *Builder) ScanOne(ctx context.Context, dest any) error {
	text, bag, err := b.take()
	if err != nil {
		return err
	}
	return b.c.ScanOne(ctx, dest, text, bag)
}

// ScanAll runs the statement, scanning all rows into dest slice.
func (b *Builder) ScanAll(ctx context.Context, dest any) error {
	text, bag, err := b.take()
	if err != nil {
		return err
	}
	return b.c.ScanAll(ctx, dest, text, bag)
}

// take snapshots text and bindings, then releases the builder.
func (b *Builder) take() (string, P, error) {
	if b.released {
		return "", nil, ErrBuilderReleased
	}
	text, bag, err := strings.Join(b.parts, ""), b.bag, b.err
	b.Release()
	return text, bag, err
}

// ensureBag makes sure the builder has a P bag for Bind(); creates if needed.
func (b *Builder) ensureBag() P {
	if b.bag == nil {
		b.bag = make(P, 8)
	}
	return b.bag
}
