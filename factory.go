package sqlbind

import (
	"fmt"
	"log/slog"
	"strings"

	// database/sql drivers for the bundled dialects
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

// Factory builds connections from adapter names. Every connection it builds
// shares the factory's hooks and logger.
type Factory struct {
	adapters map[string]Dialect
	hooks    *Hooks
	logger   *slog.Logger
	profiler *Profiler
}

// NewFactory returns a factory. Extra adapters extend or override the
// built-in names; nil hooks get a fresh registry.
func NewFactory(hooks *Hooks, logger *slog.Logger, adapters map[string]Dialect) *Factory {
	if hooks == nil {
		hooks = NewHooks()
	}
	if logger == nil {
		logger = slog.Default()
	}
	f := &Factory{
		adapters: map[string]Dialect{
			"mysql":  MySQL,
			"pgsql":  Postgres,
			"sqlite": SQLite,
			"sqlsrv": SQLServer,
		},
		hooks:  hooks,
		logger: logger,
	}
	for name, d := range adapters {
		f.adapters[strings.ToLower(name)] = d
	}
	return f
}

// Hooks returns the registry shared by the factory's connections.
func (f *Factory) Hooks() *Hooks { return f.hooks }

// Profiler returns the profiler installed by NewLocator, if any.
func (f *Factory) Profiler() *Profiler { return f.profiler }

// Dialect resolves an adapter name. Names outside the factory's map fall
// back to ParseDialect aliases.
func (f *Factory) Dialect(adapter string) (Dialect, error) {
	if d, ok := f.adapters[strings.ToLower(adapter)]; ok {
		return d, nil
	}
	d, err := ParseDialect(adapter)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrUnknownAdapter, adapter)
	}
	return d, nil
}

// New returns an unopened connection for cfg.
func (f *Factory) New(cfg ConnectionConfig) (*Connection, error) {
	d, err := f.Dialect(cfg.Adapter)
	if err != nil {
		return nil, err
	}
	return NewConnection(d, cfg,
		WithHooks(f.hooks),
		WithLogger(f.logger.With("adapter", cfg.Adapter)),
	), nil
}

// NewLocator wires a Locator from configuration. Adapters are validated
// up front; connections are still created lazily. With cfg.Profile set an
// active Profiler is registered on the factory's hooks.
func (f *Factory) NewLocator(cfg *Config) (*Locator, error) {
	if _, err := f.Dialect(cfg.Default.Adapter); err != nil {
		return nil, fmt.Errorf("default connection: %w", err)
	}
	read, err := f.connectionFuncs(cfg.Read, "read")
	if err != nil {
		return nil, err
	}
	write, err := f.connectionFuncs(cfg.Write, "write")
	if err != nil {
		return nil, err
	}

	if cfg.Profile && f.profiler == nil {
		f.profiler = NewProfiler(f.logger)
		f.profiler.Register(f.hooks)
		f.profiler.SetActive(true)
	}

	def := cfg.Default
	return NewLocator(func() (*Connection, error) { return f.New(def) }, read, write), nil
}

func (f *Factory) connectionFuncs(cfgs map[string]ConnectionConfig, kind string) (map[string]ConnectionFunc, error) {
	out := make(map[string]ConnectionFunc, len(cfgs))
	for name, cc := range cfgs {
		if _, err := f.Dialect(cc.Adapter); err != nil {
			return nil, fmt.Errorf("%s connection %q: %w", kind, name, err)
		}
		out[name] = func() (*Connection, error) { return f.New(cc) }
	}
	return out, nil
}
