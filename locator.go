package sqlbind

import (
	"fmt"
	"math/rand/v2"
	"sort"
	"sync"
)

// ConnectionFunc lazily creates a connection.
type ConnectionFunc func() (*Connection, error)

// Locator hands out a default connection plus named read and write
// connections. Connections are created on first use and memoized.
// A Locator is safe for concurrent use.
type Locator struct {
	mu    sync.Mutex
	def   *endpoint
	read  endpoints
	write endpoints
}

// endpoint is one lazily created connection.
type endpoint struct {
	fn   ConnectionFunc
	conn *Connection
}

// endpoints is a named pool of interchangeable connections.
type endpoints map[string]*endpoint

// NewLocator returns a locator; read and write may be nil.
func NewLocator(def ConnectionFunc, read, write map[string]ConnectionFunc) *Locator {
	l := &Locator{
		read:  make(endpoints, len(read)),
		write: make(endpoints, len(write)),
	}
	if def != nil {
		l.def = &endpoint{fn: def}
	}
	for name, fn := range read {
		l.read[name] = &endpoint{fn: fn}
	}
	for name, fn := range write {
		l.write[name] = &endpoint{fn: fn}
	}
	return l
}

// SetDefault replaces the default connection factory.
func (l *Locator) SetDefault(fn ConnectionFunc) {
	l.mu.Lock()
	l.def = &endpoint{fn: fn}
	l.mu.Unlock()
}

// SetRead adds or replaces a named read connection factory.
func (l *Locator) SetRead(name string, fn ConnectionFunc) {
	l.mu.Lock()
	l.read[name] = &endpoint{fn: fn}
	l.mu.Unlock()
}

// SetWrite adds or replaces a named write connection factory.
func (l *Locator) SetWrite(name string, fn ConnectionFunc) {
	l.mu.Lock()
	l.write[name] = &endpoint{fn: fn}
	l.mu.Unlock()
}

// Default returns the default connection.
func (l *Locator) Default() (*Connection, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.def == nil {
		return nil, fmt.Errorf("%w: default", ErrEndpointNotFound)
	}
	return l.def.get()
}

// Read returns the named read connection, or a random one when name is
// empty. With no read connections configured it returns the default.
func (l *Locator) Read(name string) (*Connection, error) {
	return l.pick(l.read, "read", name)
}

// Write returns the named write connection, or a random one when name is
// empty. With no write connections configured it returns the default.
func (l *Locator) Write(name string) (*Connection, error) {
	return l.pick(l.write, "write", name)
}

func (l *Locator) pick(pool endpoints, kind, name string) (*Connection, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(pool) == 0 {
		if l.def == nil {
			return nil, fmt.Errorf("%w: default", ErrEndpointNotFound)
		}
		return l.def.get()
	}
	var (
		ep  *endpoint
		err error
	)
	if name == "" {
		ep = pool.pickRandom()
	} else if ep, err = pool.pickNamed(name); err != nil {
		return nil, fmt.Errorf("%w (%s)", err, kind)
	}
	return ep.get()
}

// pickNamed returns the endpoint registered under name.
func (p endpoints) pickNamed(name string) (*endpoint, error) {
	ep, ok := p[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrEndpointNotFound, name)
	}
	return ep, nil
}

// pickRandom returns a uniformly chosen endpoint; p must not be empty.
func (p endpoints) pickRandom() *endpoint {
	names := make([]string, 0, len(p))
	for name := range p {
		names = append(names, name)
	}
	sort.Strings(names)
	return p[names[rand.IntN(len(names))]]
}

// get creates the connection on first use. Callers hold the locator lock.
func (e *endpoint) get() (*Connection, error) {
	if e.conn != nil {
		return e.conn, nil
	}
	conn, err := e.fn()
	if err != nil {
		return nil, err
	}
	e.conn = conn
	return conn, nil
}
