package lifecycle

import (
	"time"

	"github.com/openclaw/snapper/internal/kernelerrors"
	"github.com/openclaw/snapper/internal/manifest"
	"github.com/openclaw/snapper/internal/monitoring"
	"github.com/openclaw/snapper/internal/registry"
	"go.uber.org/zap"
)

// validTransitions is the complete table of permitted state moves; any
// transition not listed here is rejected with InvalidTransitionError. A
// state transitioning to itself is always a permitted no-op.
var validTransitions = map[manifest.State][]manifest.State{
	manifest.StateRegistered: {manifest.StateLoading},
	manifest.StateLoading:    {manifest.StateLoaded, manifest.StateError},
	manifest.StateLoaded:     {manifest.StateActivating, manifest.StateUnloading},
	manifest.StateActivating: {manifest.StateActive, manifest.StateError},
	manifest.StateActive:     {manifest.StateSuspending, manifest.StateUnloading},
	manifest.StateSuspending: {manifest.StateSuspended, manifest.StateError},
	manifest.StateSuspended:  {manifest.StateActivating, manifest.StateUnloading},
	manifest.StateUnloading:  {manifest.StateRegistered, manifest.StateError},
	manifest.StateError:      {manifest.StateUnloading},
}

func canTransition(from, to manifest.State) bool {
	if from == to {
		return true
	}
	for _, allowed := range validTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// Driver drives Registered Apps through the lifecycle state machine.
type Driver struct {
	logger  *zap.Logger
	metrics *monitoring.Metrics
}

// New creates a Driver. metrics may be nil.
func New(logger *zap.Logger, metrics *monitoring.Metrics) *Driver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Driver{logger: logger, metrics: metrics}
}

// transition attempts to move app from its current state to "to", holding
// app.Mu for the duration of the field writes. It reports whether the move
// was permitted; callers that require it to be permitted should treat a
// false return as a PreconditionViolatedError/InvalidTransitionError.
func (d *Driver) transition(app *registry.App, to manifest.State) bool {
	app.Mu.Lock()
	defer app.Mu.Unlock()
	if !canTransition(app.State, to) {
		return false
	}
	from := app.State
	app.State = to
	app.StateChangedAt = time.Now()
	if d.metrics != nil {
		d.metrics.LifecycleTransitions.WithLabelValues(string(from), string(to)).Inc()
	}
	d.logger.Debug("lifecycle transition",
		zap.String("app", app.Manifest.ID),
		zap.String("from", string(from)),
		zap.String("to", string(to)))
	return true
}

// fail records rawCause on app.Err and flips the app to the error state.
// raised is the typed error returned to the caller.
func (d *Driver) fail(app *registry.App, rawCause, raised error) {
	app.Mu.Lock()
	app.State = manifest.StateError
	app.Err = rawCause
	app.StateChangedAt = time.Now()
	app.Mu.Unlock()
	if d.metrics != nil {
		callback := "none"
		if cb, ok := raised.(*kernelerrors.CallbackFailureError); ok {
			callback = cb.Callback
		}
		d.metrics.LifecycleErrorsTotal.WithLabelValues(callback).Inc()
	}
	d.logger.Error("lifecycle callback failed",
		zap.String("app", app.Manifest.ID), zap.Error(raised))
}

func (d *Driver) currentState(app *registry.App) manifest.State {
	app.Mu.Lock()
	defer app.Mu.Unlock()
	return app.State
}

// Load runs loader (or a no-op if nil) against an app in the registered
// state. On success the app moves to loaded; on failure it moves to error
// and the cause is re-raised.
func (d *Driver) Load(app *registry.App, loader func() error) error {
	if d.currentState(app) != manifest.StateRegistered {
		return &kernelerrors.InvalidTransitionError{From: string(d.currentState(app)), To: string(manifest.StateLoading)}
	}
	if !d.transition(app, manifest.StateLoading) {
		return &kernelerrors.InvalidTransitionError{From: string(app.State), To: string(manifest.StateLoading)}
	}

	if loader == nil {
		loader = func() error { return nil }
	}
	if err := loader(); err != nil {
		d.fail(app, err, err)
		return err
	}

	if !d.transition(app, manifest.StateLoaded) {
		// unreachable under the fixed table, but surfaced defensively
		return &kernelerrors.InvalidTransitionError{From: string(manifest.StateLoading), To: string(manifest.StateLoaded)}
	}
	return nil
}

// Activate requires the app to be loaded or suspended. It calls factory to
// obtain an Instance, stores it on the app, then invokes the instance's
// OnActivate callback if defined. On success the app moves to active; on
// any failure it moves to error and the cause is re-raised wrapped in
// FactoryFailureError or CallbackFailureError.
func (d *Driver) Activate(app *registry.App, factory func() (*registry.Instance, error)) error {
	state := d.currentState(app)
	if state != manifest.StateLoaded && state != manifest.StateSuspended {
		return &kernelerrors.InvalidTransitionError{From: string(state), To: string(manifest.StateActivating)}
	}
	if !d.transition(app, manifest.StateActivating) {
		return &kernelerrors.InvalidTransitionError{From: string(state), To: string(manifest.StateActivating)}
	}

	instance, err := factory()
	if err != nil {
		wrapped := &kernelerrors.FactoryFailureError{Cause: err}
		d.fail(app, err, wrapped)
		return wrapped
	}

	app.Mu.Lock()
	app.Instance = instance
	app.Mu.Unlock()

	if instance != nil && instance.OnActivate != nil {
		if err := instance.OnActivate(); err != nil {
			wrapped := &kernelerrors.CallbackFailureError{Callback: "onActivate", Cause: err}
			d.fail(app, err, wrapped)
			return wrapped
		}
	}

	if !d.transition(app, manifest.StateActive) {
		return &kernelerrors.InvalidTransitionError{From: string(manifest.StateActivating), To: string(manifest.StateActive)}
	}
	return nil
}

// Suspend moves an active app to suspended, invoking OnSuspend if defined.
// It reports false without mutating state if the app was not active.
func (d *Driver) Suspend(app *registry.App) (bool, error) {
	if d.currentState(app) != manifest.StateActive {
		return false, nil
	}
	if !d.transition(app, manifest.StateSuspending) {
		return false, nil
	}

	app.Mu.Lock()
	instance := app.Instance
	app.Mu.Unlock()

	if instance != nil && instance.OnSuspend != nil {
		if err := instance.OnSuspend(); err != nil {
			wrapped := &kernelerrors.CallbackFailureError{Callback: "onSuspend", Cause: err}
			d.fail(app, err, wrapped)
			return false, wrapped
		}
	}

	d.transition(app, manifest.StateSuspended)
	return true, nil
}

// Unload tears an app down: invokes OnDestroy if defined, clears Instance
// and Err, and returns the app to registered. It reports false without
// mutating state if the app was already registered (nothing to unload).
func (d *Driver) Unload(app *registry.App) (bool, error) {
	if d.currentState(app) == manifest.StateRegistered {
		return false, nil
	}
	if !d.transition(app, manifest.StateUnloading) {
		return false, nil
	}

	app.Mu.Lock()
	instance := app.Instance
	app.Mu.Unlock()

	if instance != nil && instance.OnDestroy != nil {
		if err := instance.OnDestroy(); err != nil {
			wrapped := &kernelerrors.CallbackFailureError{Callback: "onDestroy", Cause: err}
			d.fail(app, err, wrapped)
			return false, wrapped
		}
	}

	app.Mu.Lock()
	app.Instance = nil
	app.Err = nil
	app.Mu.Unlock()

	d.transition(app, manifest.StateRegistered)
	return true, nil
}
