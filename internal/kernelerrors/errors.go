// Package kernelerrors holds the typed error taxonomy shared across the
// kernel: kinds of failure the Registry, Lifecycle Driver, Message Bus,
// State Store, and API Façade raise, each carrying the fields a caller
// needs to react to it rather than a bare string.
package kernelerrors

import (
	"fmt"
	"strings"
)

// DuplicateIDError is raised by Registry.Register when id is already
// catalogued.
type DuplicateIDError struct {
	ID string
}

func (e *DuplicateIDError) Error() string {
	return fmt.Sprintf("duplicate app id: %s", e.ID)
}

// InvalidManifestError is raised by Registry.Register when m breaks a
// required-field or shape rule. Reasons holds the individual violations.
type InvalidManifestError struct {
	ID      string
	Reasons []error
}

func (e *InvalidManifestError) Error() string {
	msgs := make([]string, len(e.Reasons))
	for i, r := range e.Reasons {
		msgs[i] = r.Error()
	}
	return fmt.Sprintf("invalid manifest %q: %s", e.ID, strings.Join(msgs, "; "))
}

// InvalidTransitionError is raised by the Lifecycle Driver when an
// operation's precondition on the current state is not met.
type InvalidTransitionError struct {
	From, To string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid lifecycle transition: %s -> %s", e.From, e.To)
}

// PreconditionViolatedError is raised when an operation is invoked outside
// the state it requires, without naming a specific target transition.
type PreconditionViolatedError struct {
	Operation string
	State     string
}

func (e *PreconditionViolatedError) Error() string {
	return fmt.Sprintf("precondition violated: %s requires a different state than %s", e.Operation, e.State)
}

// PermissionDeniedError is raised by the API Façade when an app invokes an
// operation it was not granted the matching capability tag for.
type PermissionDeniedError struct {
	Tag string
}

func (e *PermissionDeniedError) Error() string {
	return fmt.Sprintf("permission denied: %s", e.Tag)
}

// FactoryFailureError wraps the reason an app's factory function failed
// during Lifecycle Driver.Activate; the affected app is flipped to the
// error state.
type FactoryFailureError struct {
	Cause error
}

func (e *FactoryFailureError) Error() string {
	return fmt.Sprintf("factory failed: %v", e.Cause)
}

func (e *FactoryFailureError) Unwrap() error { return e.Cause }

// CallbackFailureError wraps the reason an instance lifecycle callback
// (onActivate/onSuspend/onDestroy) failed; the affected app is flipped to
// the error state.
type CallbackFailureError struct {
	Callback string
	Cause    error
}

func (e *CallbackFailureError) Error() string {
	return fmt.Sprintf("%s callback failed: %v", e.Callback, e.Cause)
}

func (e *CallbackFailureError) Unwrap() error { return e.Cause }

// UnknownMethodError is raised by Message Bus.Request when no handler is
// registered for (targetApp, method).
type UnknownMethodError struct {
	App    string
	Method string
}

func (e *UnknownMethodError) Error() string {
	return fmt.Sprintf("unknown method: %s:%s", e.App, e.Method)
}

// RequestTimeoutError is raised by Message Bus.Request when no response
// arrives within the configured timeout.
type RequestTimeoutError struct {
	App     string
	Method  string
	Timeout string
}

func (e *RequestTimeoutError) Error() string {
	return fmt.Sprintf("request to %s:%s timed out after %s", e.App, e.Method, e.Timeout)
}

// CorruptEntryError marks a State Store entry that failed to decode; the
// store treats it as a cache miss rather than propagating the error.
type CorruptEntryError struct {
	Namespace, Key string
	Cause          error
}

func (e *CorruptEntryError) Error() string {
	return fmt.Sprintf("corrupt state entry %s/%s: %v", e.Namespace, e.Key, e.Cause)
}

func (e *CorruptEntryError) Unwrap() error { return e.Cause }
