package sqlbind

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// ProfileEntry records one timed connection call.
type ProfileEntry struct {
	Call     string // "connect", "query", "begin", "commit" or "rollback"
	Text     string // driver query, for "query" entries
	Duration time.Duration
	Bind     map[string]any
	Err      error
}

// Profiler times connection calls through hooks. It is inactive until
// SetActive(true); timings are tracked per connection.
type Profiler struct {
	logger *slog.Logger

	mu      sync.Mutex
	active  bool
	started map[*Connection]time.Time
	entries []ProfileEntry
}

// NewProfiler returns an inactive profiler. A nil logger disables logging.
func NewProfiler(logger *slog.Logger) *Profiler {
	return &Profiler{
		logger:  logger,
		started: make(map[*Connection]time.Time),
	}
}

// Register installs the profiler's handlers on h.
func (p *Profiler) Register(h *Hooks) {
	h.On(p.begin, PreConnect, PreQuery, PreBegin, PreCommit, PreRollback)
	h.On(p.end, PostConnect, PostQuery, PostBegin, PostCommit, PostRollback)
}

// SetActive turns recording on or off.
func (p *Profiler) SetActive(active bool) {
	p.mu.Lock()
	p.active = active
	p.mu.Unlock()
}

// Active reports whether the profiler is recording.
func (p *Profiler) Active() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.active
}

// Entries returns a copy of the recorded entries.
func (p *Profiler) Entries() []ProfileEntry {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]ProfileEntry(nil), p.entries...)
}

// Reset drops all recorded entries.
func (p *Profiler) Reset() {
	p.mu.Lock()
	p.entries = nil
	p.mu.Unlock()
}

func (p *Profiler) begin(_ context.Context, info HookInfo) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.active {
		return
	}
	p.started[info.Conn] = time.Now()
}

func (p *Profiler) end(ctx context.Context, info HookInfo) {
	p.mu.Lock()
	if !p.active {
		p.mu.Unlock()
		return
	}
	start, ok := p.started[info.Conn]
	if !ok {
		p.mu.Unlock()
		return
	}
	delete(p.started, info.Conn)

	e := ProfileEntry{
		Call:     callName(info.Event),
		Text:     info.Query,
		Duration: time.Since(start),
		Bind:     info.Bind,
		Err:      info.Err,
	}
	p.entries = append(p.entries, e)
	p.mu.Unlock()

	if p.logger != nil {
		p.logger.DebugContext(ctx, "profile", "call", e.Call, "sql", e.Text, "duration", e.Duration, "error", e.Err)
	}
}

func callName(e Event) string {
	switch e {
	case PreConnect, PostConnect:
		return "connect"
	case PreQuery, PostQuery:
		return "query"
	case PreBegin, PostBegin:
		return "begin"
	case PreCommit, PostCommit:
		return "commit"
	case PreRollback, PostRollback:
		return "rollback"
	default:
		return e.String()
	}
}
