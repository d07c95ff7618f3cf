package sqlbind

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
)

// Connection is a lazily opened database handle that runs every statement
// through the binder. Distinct connections are independent; one connection
// is safe for concurrent use and holds at most one transaction at a time.
type Connection struct {
	dialect Dialect
	quoter  Quoter
	cfg     ConnectionConfig
	limits  Limits
	hooks   *Hooks
	logger  *slog.Logger
	pool    sync.Pool // *Builder

	mu sync.Mutex
	db *sql.DB
	tx *sql.Tx
}

// Option customizes a Connection.
type Option func(*Connection)

// WithHooks attaches a hook registry.
func WithHooks(h *Hooks) Option {
	return func(c *Connection) { c.hooks = h }
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Connection) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithDB uses an already opened handle; connect hooks will not fire.
func WithDB(db *sql.DB) Option {
	return func(c *Connection) { c.db = db }
}

// WithQuoter replaces the dialect's built-in quoting record.
func WithQuoter(q Quoter) Option {
	return func(c *Connection) { c.quoter = q }
}

// NewConnection returns an unopened connection for the dialect.
func NewConnection(d Dialect, cfg ConnectionConfig, opts ...Option) *Connection {
	c := &Connection{
		dialect: d,
		quoter:  d.Quoter(),
		cfg:     cfg,
		limits:  defaultLimits(d, Limits{MaxParams: cfg.MaxParams, MaxNameLen: cfg.MaxNameLen}),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.pool.New = func() any {
		return &Builder{
			c:     c,
			parts: make([]string, 0, 16),
		}
	}
	return c
}

// Dialect returns the connection's dialect.
func (c *Connection) Dialect() Dialect { return c.dialect }

// Quoter returns the quoting record in use.
func (c *Connection) Quoter() Quoter { return c.quoter }

// Limits returns the effective statement limits.
func (c *Connection) Limits() Limits { return c.limits }

// DriverName returns the database/sql driver used by Connect.
func (c *Connection) DriverName() string {
	if c.cfg.Driver != "" {
		return c.cfg.Driver
	}
	return c.dialect.DriverName()
}

// Connect opens the handle if it is not open yet. PreConnect and
// PostConnect fire around the first successful or failed attempt.
func (c *Connection) Connect(ctx context.Context) error {
	c.mu.Lock()
	if c.db != nil {
		c.mu.Unlock()
		return nil
	}
	c.mu.Unlock()

	c.hooks.emit(ctx, HookInfo{Conn: c, Event: PreConnect})
	db, err := c.open(ctx)

	c.mu.Lock()
	if err == nil {
		if c.db == nil {
			c.db = db
		} else {
			// lost a race with a concurrent Connect
			_ = db.Close()
		}
	}
	c.mu.Unlock()

	c.hooks.emit(ctx, HookInfo{Conn: c, Event: PostConnect, Err: err})
	return err
}

func (c *Connection) open(ctx context.Context) (*sql.DB, error) {
	driverName := c.DriverName()
	c.logger.Debug("opening database connection", "driver", driverName, "dialect", c.dialect.String())

	db, err := sql.Open(driverName, c.DSN())
	if err != nil {
		return nil, fmt.Errorf("sqlbind: open %s: %w", driverName, err)
	}
	if c.dialect == SQLite && isMemoryDSN(c.DSN()) {
		// every pooled connection would see its own empty database
		db.SetMaxOpenConns(1)
	} else if c.cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(c.cfg.MaxOpenConns)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlbind: connect %s: %w", driverName, err)
	}
	return db, nil
}

// DB returns the underlying handle, connecting first if needed.
func (c *Connection) DB(ctx context.Context) (*sql.DB, error) {
	if err := c.Connect(ctx); err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.db, nil
}

// SetDB replaces the underlying handle; connect hooks do not fire.
func (c *Connection) SetDB(db *sql.DB) {
	c.mu.Lock()
	c.db = db
	c.tx = nil
	c.mu.Unlock()
}

// Close closes the underlying handle, if open.
func (c *Connection) Close() error {
	c.mu.Lock()
	db := c.db
	c.db, c.tx = nil, nil
	c.mu.Unlock()
	if db == nil {
		return nil
	}
	c.logger.Debug("closing database connection")
	return db.Close()
}

// runner returns the active transaction or the connected handle.
func (c *Connection) runner(ctx context.Context) (runner, error) {
	if err := c.Connect(ctx); err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.tx != nil {
		return c.tx, nil
	}
	return c.db, nil
}

// Prepare rewrites text against bind and compiles it for the driver.
func (c *Connection) Prepare(text string, bind map[string]any) (*Statement, error) {
	return prepare(c.dialect, c.quoter, text, bind, c.limits)
}

// Query prepares and runs a statement returning rows.
func (c *Connection) Query(ctx context.Context, text string, bind map[string]any) (*sql.Rows, error) {
	st, err := c.Prepare(text, bind)
	if err != nil {
		return nil, err
	}
	r, err := c.runner(ctx)
	if err != nil {
		return nil, err
	}

	info := HookInfo{Conn: c, Event: PreQuery, Query: st.Query, Args: st.Args, Bind: bind}
	c.hooks.emit(ctx, info)
	//nolint:rowserrcheck // rows.Err() is checked by the caller after iteration
	rows, err := r.QueryContext(ctx, st.Query, st.Args...)
	info.Event, info.Err = PostQuery, err
	c.hooks.emit(ctx, info)

	if err != nil {
		c.logger.Debug("query failed", "sql", st.Query, "error", err)
		return nil, fmt.Errorf("sqlbind: query: %w", err)
	}
	c.logger.Debug("query", "sql", st.Query, "args", len(st.Args))
	return rows, nil
}

// Exec prepares and runs a statement that returns no rows.
func (c *Connection) Exec(ctx context.Context, text string, bind map[string]any) (sql.Result, error) {
	st, err := c.Prepare(text, bind)
	if err != nil {
		return nil, err
	}
	r, err := c.runner(ctx)
	if err != nil {
		return nil, err
	}

	info := HookInfo{Conn: c, Event: PreQuery, Query: st.Query, Args: st.Args, Bind: bind}
	c.hooks.emit(ctx, info)
	res, err := r.ExecContext(ctx, st.Query, st.Args...)
	info.Event, info.Err = PostQuery, err
	c.hooks.emit(ctx, info)

	if err != nil {
		c.logger.Debug("exec failed", "sql", st.Query, "error", err)
		return nil, fmt.Errorf("sqlbind: exec: %w", err)
	}
	c.logger.Debug("exec", "sql", st.Query, "args", len(st.Args))
	return res, nil
}

// Begin starts a transaction; later statements run on it until Commit or
// Rollback.
func (c *Connection) Begin(ctx context.Context) error {
	db, err := c.DB(ctx)
	if err != nil {
		return err
	}
	if c.InTransaction() {
		return ErrTxActive
	}

	c.hooks.emit(ctx, HookInfo{Conn: c, Event: PreBegin})
	tx, err := db.BeginTx(ctx, nil)
	if err == nil {
		c.mu.Lock()
		if c.tx != nil {
			_ = tx.Rollback()
			err = ErrTxActive
		} else {
			c.tx = tx
		}
		c.mu.Unlock()
	}
	c.hooks.emit(ctx, HookInfo{Conn: c, Event: PostBegin, Err: err})

	c.logger.Debug("begin transaction", "error", err)
	return err
}

// Commit commits the active transaction.
func (c *Connection) Commit(ctx context.Context) error {
	tx, err := c.takeTx()
	if err != nil {
		return err
	}
	c.hooks.emit(ctx, HookInfo{Conn: c, Event: PreCommit})
	err = tx.Commit()
	c.hooks.emit(ctx, HookInfo{Conn: c, Event: PostCommit, Err: err})

	c.logger.Debug("commit transaction", "error", err)
	return err
}

// Rollback rolls back the active transaction.
func (c *Connection) Rollback(ctx context.Context) error {
	tx, err := c.takeTx()
	if err != nil {
		return err
	}
	c.hooks.emit(ctx, HookInfo{Conn: c, Event: PreRollback})
	err = tx.Rollback()
	c.hooks.emit(ctx, HookInfo{Conn: c, Event: PostRollback, Err: err})

	c.logger.Debug("rollback transaction", "error", err)
	return err
}

// InTransaction reports whether a transaction is active.
func (c *Connection) InTransaction() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tx != nil
}

func (c *Connection) takeTx() (*sql.Tx, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.tx == nil {
		return nil, ErrNoTx
	}
	tx := c.tx
	c.tx = nil
	return tx, nil
}

// QuoteValue quotes v with the connection's quoting record.
func (c *Connection) QuoteValue(v any) (string, error) { return c.quoter.QuoteValue(v) }

// QuoteValuesIn replaces ? placeholders in text with quoted values.
func (c *Connection) QuoteValuesIn(text string, values ...any) (string, error) {
	return c.quoter.QuoteValuesIn(text, values...)
}

// QuoteName quotes a single identifier spec.
func (c *Connection) QuoteName(spec string) string { return c.quoter.QuoteName(spec) }

// QuoteNamesIn quotes table.column pairs in a SQL fragment.
func (c *Connection) QuoteNamesIn(text string) string { return c.quoter.QuoteNamesIn(text) }

// AppendLimit appends a LIMIT/OFFSET clause to text. A zero count leaves
// text unchanged. SQL Server gets OFFSET ... FETCH, which needs an ORDER BY.
func (c *Connection) AppendLimit(text string, count, offset int) string {
	if count <= 0 {
		return text
	}
	var b strings.Builder
	b.WriteString(text)
	if c.dialect == SQLServer {
		b.WriteString("OFFSET ")
		b.WriteString(strconv.Itoa(max(offset, 0)))
		b.WriteString(" ROWS FETCH NEXT ")
		b.WriteString(strconv.Itoa(count))
		b.WriteString(" ROWS ONLY\n")
		return b.String()
	}
	b.WriteString("LIMIT ")
	b.WriteString(strconv.Itoa(count))
	if offset > 0 {
		b.WriteString(" OFFSET ")
		b.WriteString(strconv.Itoa(offset))
	}
	b.WriteByte('\n')
	return b.String()
}
