// Package facade implements the API Façade: the per-app, capability-gated
// view that an activated SnApp's factory function receives.
// It stitches together the State Store, Hook Router, and Message Bus behind
// permission checks, and owns the purely façade-local concerns (tabs,
// panels, toasts, commands, context injection) that have no home in the
// shared kernel services.
//
// A Façade holds no independent persistent state; anything durable flows
// through the State Store (internal/store).
package facade
