// Package lifecycle drives a Registered App through its nine-state
// machine: registered -> loading -> loaded -> activating ->
// active <-> suspending/suspended -> unloading -> registered, with error as
// the terminal failure state recoverable only through Unload.
//
// Grounded on internal/domain/app.Manager for its
// mutex-guarded, copy-out style, generalized here to an explicit state
// machine rather than a flat App-state field the caller mutates directly.
package lifecycle
