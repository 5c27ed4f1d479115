package facade

import (
	"sync"

	"github.com/openclaw/snapper/internal/bus"
	"github.com/openclaw/snapper/internal/hooks"
	"github.com/openclaw/snapper/internal/kernelerrors"
	"github.com/openclaw/snapper/internal/logging"
	"github.com/openclaw/snapper/internal/manifest"
	"github.com/openclaw/snapper/internal/store"
	"go.uber.org/zap"
)

const apiVersion = "1.0.0"

// Version is the shape GetVersion returns.
type Version struct {
	Version    string
	APIVersion string
}

// Facade is the per-app API Façade: a capability-gated view
// over the State Store, Hook Router, and Message Bus, bound to one app's
// identity for the lifetime of one activation.
type Facade struct {
	id          string
	manifest    *manifest.Manifest
	state       manifest.State
	permissions map[manifest.Permission]struct{}
	workingDir  string

	store    *store.Store
	hooks    *hooks.Router
	bus      *bus.Bus
	hostSink HostSink
	logger   *logging.Logger

	mu                sync.Mutex
	disposed          bool
	tabs              map[string]*TabDefinition
	tabOrder          []string
	tabCounter        int
	tabHandlers       []func(TabEvent)
	panels            map[string]*PanelDefinition
	panelOrder        []string
	panelCounter      int
	panelHandlers     []func(PanelEvent)
	commands          map[string]CommandSpec
	hookUnsubscribes  []func()
	disposables       []func()
}

// Config bundles the collaborators and identity a Façade is constructed
// with: app id, manifest, initial state, granted permissions, the State
// Store, Hook Router, Message Bus, and working directory.
type Config struct {
	AppID            string
	Manifest         *manifest.Manifest
	State            manifest.State
	GrantedPerms     []manifest.Permission
	Store            *store.Store
	Hooks            *hooks.Router
	Bus              *bus.Bus
	WorkingDirectory string
	HostSink         HostSink
	Logger           *logging.Logger
}

// New constructs a Façade bound to one app's identity and granted
// permissions. It holds no independent persistent state.
func New(cfg Config) *Facade {
	perms := make(map[manifest.Permission]struct{}, len(cfg.GrantedPerms))
	for _, p := range cfg.GrantedPerms {
		perms[p] = struct{}{}
	}

	logger := cfg.Logger
	if logger == nil {
		logger = &logging.Logger{Logger: zap.NewNop()}
	}

	return &Facade{
		id:          cfg.AppID,
		manifest:    cfg.Manifest,
		state:       cfg.State,
		permissions: perms,
		workingDir:  cfg.WorkingDirectory,
		store:       cfg.Store,
		hooks:       cfg.Hooks,
		bus:         cfg.Bus,
		hostSink:    cfg.HostSink,
		logger:      logger.ForApp(cfg.AppID, ""),
		tabs:        make(map[string]*TabDefinition),
		panels:      make(map[string]*PanelDefinition),
		commands:    make(map[string]CommandSpec),
	}
}

// ID returns the bound app id.
func (f *Facade) ID() string { return f.id }

// Manifest returns the bound app's manifest.
func (f *Facade) Manifest() *manifest.Manifest { return f.manifest }

// State returns the lifecycle state the Façade was constructed with. It is
// a snapshot taken at construction time, not a live view of the Registered
// App.
func (f *Facade) State() manifest.State { return f.state }

// GetVersion returns the app's declared version alongside the façade's API
// version.
func (f *Facade) GetVersion() Version {
	return Version{Version: f.manifest.Version, APIVersion: apiVersion}
}

// Logger returns the app-scoped logger, carrying a structured "app" field
// rather than a string prefix (see internal/logging.Logger.ForApp).
func (f *Facade) Logger() *logging.Logger { return f.logger }

// GetWorkingDirectory returns the directory the Façade was bound to.
func (f *Facade) GetWorkingDirectory() string { return f.workingDir }

// HasPermission reports whether tag was granted to this Façade.
func (f *Facade) HasPermission(tag manifest.Permission) bool {
	_, ok := f.permissions[tag]
	return ok
}

// requirePermission raises PermissionDeniedError when tag was not granted.
func (f *Facade) requirePermission(tag manifest.Permission) error {
	if f.HasPermission(tag) {
		return nil
	}
	return &kernelerrors.PermissionDeniedError{Tag: string(tag)}
}

// Dispose clears all tabs, panels, commands, tab/panel event callbacks, and
// registered disposables. Idempotent: calling it twice is a no-op the
// second time. It also resets the tab and panel id counters, so a tab
// registered on this Façade after Dispose is numbered tab_<appId>_1 again.
func (f *Facade) Dispose() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.disposed {
		return
	}
	f.disposed = true

	for _, unsub := range f.hookUnsubscribes {
		unsub()
	}
	f.hookUnsubscribes = nil

	for _, d := range f.disposables {
		d()
	}
	f.disposables = nil

	f.tabs = make(map[string]*TabDefinition)
	f.tabOrder = nil
	f.tabCounter = 0
	f.tabHandlers = nil

	f.panels = make(map[string]*PanelDefinition)
	f.panelOrder = nil
	f.panelCounter = 0
	f.panelHandlers = nil

	f.commands = make(map[string]CommandSpec)

	f.logger.Info("facade disposed")
}
