package registry

import (
	"sync"
	"time"

	"github.com/openclaw/snapper/internal/manifest"
)

// Instance is the capability record an app factory returns. Each callback
// is optional; the Lifecycle Driver tests presence before invoking rather
// than relying on interface dispatch.
type Instance struct {
	OnActivate func() error
	OnSuspend  func() error
	OnDestroy  func() error
}

// App is a Registered App: the tuple of (manifest, state, optional
// instance, optional last error, registeredAt, stateChangedAt) 
// describes. The Registry owns Manifest; the Lifecycle Driver owns State,
// Instance, Err, and StateChangedAt.
type App struct {
	// Mu guards State, Instance, Err, and StateChangedAt against torn
	// reads/writes. The caller is responsible for not racing two
	// transitions on the same app; Mu only protects memory safety, not
	// transition ordering.
	Mu             sync.Mutex
	Manifest       *manifest.Manifest
	State          manifest.State
	Instance       *Instance
	Err            error
	RegisteredAt   time.Time
	StateChangedAt time.Time
}

// Invariant: if State == error, Err is non-nil; if State is
// active/suspending/suspended, Instance is non-nil. Snapshot returns a copy
// of the App's fields taken under Mu; Registry.Get and GetAll hand out the
// live *App, not a Snapshot.
func (a *App) Snapshot() App {
	a.Mu.Lock()
	defer a.Mu.Unlock()
	return App{
		Manifest:       a.Manifest,
		State:          a.State,
		Instance:       a.Instance,
		Err:            a.Err,
		RegisteredAt:   a.RegisteredAt,
		StateChangedAt: a.StateChangedAt,
	}
}
