package sqlbind

import (
	"context"
	"sync"
)

// Event is a lifecycle extension point of a Connection.
type Event int

const (
	PreConnect Event = iota
	PostConnect
	PreQuery
	PostQuery
	PreBegin
	PostBegin
	PreCommit
	PostCommit
	PreRollback
	PostRollback
)

// String returns the string representation of the event.
func (e Event) String() string {
	switch e {
	case PreConnect:
		return "pre_connect"
	case PostConnect:
		return "post_connect"
	case PreQuery:
		return "pre_query"
	case PostQuery:
		return "post_query"
	case PreBegin:
		return "pre_begin"
	case PostBegin:
		return "post_begin"
	case PreCommit:
		return "pre_commit"
	case PostCommit:
		return "post_commit"
	case PreRollback:
		return "pre_rollback"
	case PostRollback:
		return "post_rollback"
	default:
		return "unknown"
	}
}

// HookInfo is passed to every handler.
type HookInfo struct {
	Conn  *Connection
	Event Event
	// Statement fields are set for PreQuery/PostQuery only.
	Query string
	Args  []any
	Bind  map[string]any
	// Err is the operation's outcome on Post* events.
	Err error
}

// HookFunc handles one event.
type HookFunc func(ctx context.Context, info HookInfo)

// Hooks holds the handlers registered per event. Handlers run synchronously,
// in registration order. A nil *Hooks dispatches nothing.
type Hooks struct {
	mu       sync.RWMutex
	handlers map[Event][]HookFunc
}

// NewHooks returns an empty registry.
func NewHooks() *Hooks {
	return &Hooks{handlers: make(map[Event][]HookFunc)}
}

// On registers fn for each of the given events.
func (h *Hooks) On(fn HookFunc, events ...Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.handlers == nil {
		h.handlers = make(map[Event][]HookFunc)
	}
	for _, e := range events {
		h.handlers[e] = append(h.handlers[e], fn)
	}
}

// emit dispatches info to the handlers registered for info.Event.
func (h *Hooks) emit(ctx context.Context, info HookInfo) {
	if h == nil {
		return
	}
	h.mu.RLock()
	fns := h.handlers[info.Event]
	h.mu.RUnlock()
	for _, fn := range fns {
		fn(ctx, info)
	}
}
