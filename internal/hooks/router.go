package hooks

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/openclaw/snapper/internal/manifest"
	"github.com/openclaw/snapper/internal/monitoring"
	"go.uber.org/zap"
)

// Filter decides whether a handler should run for a given payload. The
// zero value (nil) is accept-all.
type Filter func(payload interface{}) bool

// Handler receives an event payload. It may return an error; a returned
// error (or a panic) is recorded and does not stop sibling handlers.
type Handler func(payload interface{}) error

// Options configures a single On() registration.
type Options struct {
	Priority int
	Filter   Filter
	Async    bool
}

type entry struct {
	id       string
	priority int
	filter   Filter
	handler  Handler
	async    bool
	seq      int // insertion order, used to break priority ties stably
}

// Router dispatches typed host lifecycle events to priority-ordered
// handlers. It is safe for concurrent use; Emit runs handlers for one
// event sequentially, in priority order, regardless of concurrent emits on
// other goroutines.
type Router struct {
	mu       sync.Mutex
	handlers map[manifest.HookName][]*entry
	seq      int
	logger   *zap.Logger
	metrics  *monitoring.Metrics
}

// New creates an empty Router.
func New(logger *zap.Logger, metrics *monitoring.Metrics) *Router {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Router{
		handlers: make(map[manifest.HookName][]*entry),
		logger:   logger,
		metrics:  metrics,
	}
}

// On registers handler for event with the given options and returns an
// unsubscribe closure. Handlers are kept sorted by descending priority;
// equal-priority handlers run in registration order.
func (r *Router) On(event manifest.HookName, handler Handler, opts Options) (unsubscribe func()) {
	r.mu.Lock()
	r.seq++
	e := &entry{
		id:       uuid.NewString(),
		priority: opts.Priority,
		filter:   opts.Filter,
		handler:  handler,
		async:    opts.Async,
		seq:      r.seq,
	}
	r.handlers[event] = append(r.handlers[event], e)
	sortHandlers(r.handlers[event])
	r.mu.Unlock()

	return func() { r.removeByID(event, e.id) }
}

// Once registers handler to run at most once: it self-unsubscribes after
// its first invocation (whether or not it errored).
func (r *Router) Once(event manifest.HookName, handler Handler, opts Options) (unsubscribe func()) {
	var unsub func()
	wrapped := func(payload interface{}) error {
		unsub()
		return handler(payload)
	}
	unsub = r.On(event, wrapped, opts)
	return unsub
}

func sortHandlers(entries []*entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].priority != entries[j].priority {
			return entries[i].priority > entries[j].priority
		}
		return entries[i].seq < entries[j].seq
	})
}

func (r *Router) removeByID(event manifest.HookName, id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entries := r.handlers[event]
	for i, e := range entries {
		if e.id == id {
			r.handlers[event] = append(entries[:i:i], entries[i+1:]...)
			return
		}
	}
}

// snapshot returns the current handler list for event under the lock, so
// Emit can run without holding r.mu across handler invocations (a handler
// that calls back into On/Once/Emit would otherwise deadlock).
func (r *Router) snapshot(event manifest.HookName) []*entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*entry, len(r.handlers[event]))
	copy(out, r.handlers[event])
	return out
}

// Emit dispatches payload to every handler registered for event, in
// priority order. A handler that returns an error, or panics, is logged
// and skipped; remaining handlers still run.
func (r *Router) Emit(event manifest.HookName, payload interface{}) {
	start := time.Now()
	for _, e := range r.snapshot(event) {
		if e.filter != nil && !e.filter(payload) {
			continue
		}
		r.invoke(event, e, payload)
	}
	if r.metrics != nil {
		r.metrics.HookEmitsTotal.WithLabelValues(string(event)).Inc()
		r.metrics.HookEmitDuration.WithLabelValues(string(event)).Observe(time.Since(start).Seconds())
	}
}

func (r *Router) invoke(event manifest.HookName, e *entry, payload interface{}) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("hook handler panicked",
				zap.String("event", string(event)), zap.Any("recover", rec))
			if r.metrics != nil {
				r.metrics.HookHandlerErrors.WithLabelValues(string(event)).Inc()
			}
		}
	}()
	// The async flag exists to document a handler's intent to its caller;
	// a Handler call here is always synchronous, so async and sync
	// handlers run identically.
	if err := e.handler(payload); err != nil {
		r.logger.Error("hook handler failed",
			zap.String("event", string(event)), zap.Error(err))
		if r.metrics != nil {
			r.metrics.HookHandlerErrors.WithLabelValues(string(event)).Inc()
		}
	}
}

// Clear removes all handlers for event, or every handler for every event
// if event is the zero value.
func (r *Router) Clear(event manifest.HookName) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if event == "" {
		r.handlers = make(map[manifest.HookName][]*entry)
		return
	}
	delete(r.handlers, event)
}

// HasHandlers reports whether event has at least one registered handler.
func (r *Router) HasHandlers(event manifest.HookName) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.handlers[event]) > 0
}

// Count returns the number of handlers registered for event.
func (r *Router) Count(event manifest.HookName) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.handlers[event])
}
