// Package kernel is the composition root: it wires the Registry, Lifecycle
// Driver, Hook Router, Message Bus, and State Store into a single Kernel so
// callers (cmd/server, tests) do not hand-wire five constructors apiece,
// grounded on top-level cmd/server/main.go wiring pattern.
package kernel

import (
	"path/filepath"

	"github.com/openclaw/snapper/internal/bus"
	"github.com/openclaw/snapper/internal/config"
	"github.com/openclaw/snapper/internal/facade"
	"github.com/openclaw/snapper/internal/hooks"
	"github.com/openclaw/snapper/internal/kernelerrors"
	"github.com/openclaw/snapper/internal/lifecycle"
	"github.com/openclaw/snapper/internal/logging"
	"github.com/openclaw/snapper/internal/manifest"
	"github.com/openclaw/snapper/internal/monitoring"
	"github.com/openclaw/snapper/internal/registry"
	"github.com/openclaw/snapper/internal/store"
	"go.uber.org/zap"
)

// Kernel wires the core services together. Every field is a thin façade
// over the package that owns the concern; Kernel itself holds no state of
// its own beyond the wiring.
type Kernel struct {
	Registry  *registry.Registry
	Lifecycle *lifecycle.Driver
	Hooks     *hooks.Router
	Bus       *bus.Bus
	Store     *store.Store
	Metrics   *monitoring.Metrics

	cfg      *config.Config
	logger   *logging.Logger
	hostSink facade.HostSink
}

// New constructs a Kernel from cfg. logger and metrics may be nil: a nil
// logger falls back to a no-op logger, a nil metrics disables Prometheus
// reporting across every service. hostSink may be nil, in which case
// façade toasts/context-injection become no-ops.
func New(cfg *config.Config, logger *logging.Logger, metrics *monitoring.Metrics, hostSink facade.HostSink) *Kernel {
	if cfg == nil {
		cfg = config.Default()
	}
	if logger == nil {
		logger = &logging.Logger{Logger: zap.NewNop()}
	}

	var encryptor store.Encryptor
	if cfg.Store.Passphrase != "" {
		encryptor = store.NewPassphraseEncryptor(cfg.Store.Passphrase)
	}

	return &Kernel{
		Registry:  registry.New(cfg.Kernel.BuiltinPath, cfg.Kernel.ExtraDirs, logger.Logger),
		Lifecycle: lifecycle.New(logger.Logger, metrics),
		Hooks:     hooks.New(logger.Logger, metrics),
		Bus:       bus.New(logger.Logger, metrics),
		Store:     store.New(cfg.Store.StateBase, encryptor, logger.Logger, metrics),
		Metrics:   metrics,
		cfg:       cfg,
		logger:    logger,
		hostSink:  hostSink,
	}
}

// SetHostSink attaches sink after construction, for callers where the
// HostSink implementation (e.g. hostapi.Server) itself needs a *Kernel to
// be built first.
func (k *Kernel) SetHostSink(sink facade.HostSink) {
	k.hostSink = sink
}

// DiscoverAndRegister scans the configured directories and registers every
// manifest Discover accepted. Registration failures (a duplicate id) are
// collected the same way discovery failures are, rather than aborting the
// batch.
func (k *Kernel) DiscoverAndRegister() ([]*registry.App, []*registry.DiscoveryError, []string) {
	result := k.Registry.Discover()
	if k.Metrics != nil {
		k.Metrics.RegistryDiscoverTotal.Inc()
	}

	errs := append([]*registry.DiscoveryError{}, result.Errors...)
	var apps []*registry.App
	for _, m := range result.Manifests {
		app, err := k.Registry.Register(m)
		if err != nil {
			errs = append(errs, &registry.DiscoveryError{Dir: m.ID, Err: err})
			continue
		}
		apps = append(apps, app)
	}

	if k.Metrics != nil {
		k.Metrics.RegistryApps.Set(float64(k.Registry.Count()))
		if len(errs) > 0 {
			k.Metrics.RegistryErrorsTotal.Add(float64(len(errs)))
		}
	}
	return apps, errs, result.Warnings
}

// Factory builds the Instance for an activating app, given the Façade bound
// to it. This is the shape an app's entry-point export takes.
type Factory func(f *facade.Facade) (*registry.Instance, error)

// LoadAndActivate loads (if necessary) and activates the app registered
// under id, constructing a Façade bound to its identity and declared
// permissions and handing it to factory. It returns the constructed Façade
// so the caller can keep it around for Dispose on unload.
func (k *Kernel) LoadAndActivate(id string, loader func() error, factory Factory) (*facade.Facade, error) {
	app, ok := k.Registry.Get(id)
	if !ok {
		return nil, &kernelerrors.PreconditionViolatedError{Operation: "LoadAndActivate", State: "unregistered"}
	}

	if app.State == manifest.StateRegistered {
		if err := k.Lifecycle.Load(app, loader); err != nil {
			return nil, err
		}
	}

	f := facade.New(facade.Config{
		AppID:            app.Manifest.ID,
		Manifest:         app.Manifest,
		State:            app.State,
		GrantedPerms:     app.Manifest.Permissions,
		Store:            k.Store,
		Hooks:            k.Hooks,
		Bus:              k.Bus,
		WorkingDirectory: filepath.Join(k.cfg.Kernel.BuiltinPath, app.Manifest.ID),
		HostSink:         k.hostSink,
		Logger:           k.logger,
	})

	if err := k.Lifecycle.Activate(app, func() (*registry.Instance, error) { return factory(f) }); err != nil {
		return f, err
	}
	return f, nil
}

// Suspend delegates to the Lifecycle Driver.
func (k *Kernel) Suspend(id string) (bool, error) {
	app, ok := k.Registry.Get(id)
	if !ok {
		return false, nil
	}
	return k.Lifecycle.Suspend(app)
}

// Unload delegates to the Lifecycle Driver and disposes f if non-nil.
func (k *Kernel) Unload(id string, f *facade.Facade) (bool, error) {
	app, ok := k.Registry.Get(id)
	if !ok {
		return false, nil
	}
	unloaded, err := k.Lifecycle.Unload(app)
	if f != nil {
		f.Dispose()
	}
	return unloaded, err
}

// Emit delegates to the Hook Router.
func (k *Kernel) Emit(event manifest.HookName, payload interface{}) {
	k.Hooks.Emit(event, payload)
}
