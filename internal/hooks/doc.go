// Package hooks implements the Hook Router: a typed, priority-ordered
// event bus for host lifecycle events (session_start,
// before_agent, ...). Handler registration is synchronous; emit awaits
// async handlers sequentially in priority order and isolates a panicking
// or erroring handler from its siblings.
package hooks
