package registry

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/openclaw/snapper/internal/kernelerrors"
	"github.com/openclaw/snapper/internal/manifest"
	"go.uber.org/zap"
)

const manifestFile = "snap.json"

// DiscoveryError pairs a scanned directory with the failure encountered
// while reading or parsing its manifest: parse or I/O failures on a
// directory that has a snap.json go into errors rather than aborting the
// whole scan.
type DiscoveryError struct {
	Dir string
	Err error
}

func (e *DiscoveryError) Error() string {
	return fmt.Sprintf("%s: %v", e.Dir, e.Err)
}

func (e *DiscoveryError) Unwrap() error { return e.Err }

// DiscoveryResult is the outcome of a Discover call: manifests found and
// accepted by Parse (not yet registered), and failures keyed by directory.
type DiscoveryResult struct {
	Manifests []*manifest.Manifest
	Errors    []*DiscoveryError
	Warnings  []string
}

// Registry scans directories for SnApp manifests, validates them, and
// holds the resulting catalog in insertion order.
type Registry struct {
	mu      sync.RWMutex
	order   []string
	apps    map[string]*App
	logger  *zap.Logger
	builtin string
	extra   []string
}

// New creates a Registry rooted at builtinPath, with any extraDirs (which
// may themselves be glob patterns, e.g. "/srv/*/snapps") scanned in
// addition. Each match is scanned like builtinPath, for app folders among
// its children; a leading "~" is not expanded.
func New(builtinPath string, extraDirs []string, logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		apps:    make(map[string]*App),
		logger:  logger,
		builtin: builtinPath,
		extra:   extraDirs,
	}
}

// Discover scans the builtin directory and every configured extra
// directory. For each first-level child directory that contains a
// readable snap.json, it parses the manifest and collects it; a directory
// without a snap.json, or a directory that does not exist, is silently
// skipped. Parse or I/O failures on a directory that does have a
// snap.json are accumulated into DiscoveryResult.Errors rather than
// aborting the scan.
func (r *Registry) Discover() DiscoveryResult {
	var result DiscoveryResult

	dirs := []string{r.builtin}
	for _, pattern := range r.extra {
		matches, err := doublestar.FilepathGlob(pattern)
		if err != nil {
			result.Errors = append(result.Errors, &DiscoveryError{Dir: pattern, Err: err})
			continue
		}
		dirs = append(dirs, matches...)
	}

	for _, dir := range dirs {
		r.scanDir(dir, &result)
	}

	return result
}

func (r *Registry) scanDir(dir string, result *DiscoveryResult) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		// Missing directories are not an error.
		return
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		appDir := filepath.Join(dir, entry.Name())
		manifestPath := filepath.Join(appDir, manifestFile)

		data, err := os.ReadFile(manifestPath)
		if err != nil {
			if os.IsNotExist(err) {
				continue // no snap.json: silently skipped
			}
			result.Errors = append(result.Errors, &DiscoveryError{Dir: appDir, Err: err})
			continue
		}

		m, errs, warnings := manifest.Parse(data)
		for _, w := range warnings {
			result.Warnings = append(result.Warnings, fmt.Sprintf("%s: %s", appDir, w))
		}
		if len(errs) > 0 {
			result.Errors = append(result.Errors, &DiscoveryError{Dir: appDir, Err: errs[0]})
			continue
		}
		result.Manifests = append(result.Manifests, m)
	}
}

// Register validates and inserts a new Registered App with
// state = registered. It fails with a *kernelerrors.InvalidManifestError if
// m breaks a required-field or shape rule, or a *kernelerrors.DuplicateIDError
// if id is already catalogued.
func (r *Registry) Register(m *manifest.Manifest) (*App, error) {
	if errs := manifest.Validate(m); len(errs) > 0 {
		return nil, &kernelerrors.InvalidManifestError{ID: m.ID, Reasons: errs}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.apps[m.ID]; exists {
		return nil, &kernelerrors.DuplicateIDError{ID: m.ID}
	}

	now := time.Now()
	app := &App{
		Manifest:       m,
		State:          manifest.StateRegistered,
		RegisteredAt:   now,
		StateChangedAt: now,
	}
	r.apps[m.ID] = app
	r.order = append(r.order, m.ID)
	r.logger.Info("app registered", zap.String("app", m.ID))
	return app, nil
}

// Get returns the Registered App for id, if catalogued. The caller
// receives the live pointer: the Lifecycle Driver mutates it in place, and
// Registry callers are expected to treat it as read-mostly outside that
// driver.
func (r *Registry) Get(id string) (*App, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	app, ok := r.apps[id]
	return app, ok
}

// Has reports whether id is catalogued.
func (r *Registry) Has(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.apps[id]
	return ok
}

// GetAll returns every Registered App in insertion order.
func (r *Registry) GetAll() []*App {
	r.mu.RLock()
	defer r.mu.RUnlock()
	apps := make([]*App, 0, len(r.order))
	for _, id := range r.order {
		apps = append(apps, r.apps[id])
	}
	return apps
}

// Count returns the number of catalogued apps.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

// Unregister removes id from the catalog. It reports false if id was not
// catalogued.
func (r *Registry) Unregister(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.apps[id]; !ok {
		return false
	}
	delete(r.apps, id)
	for i, existing := range r.order {
		if existing == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	r.logger.Info("app unregistered", zap.String("app", id))
	return true
}

// Clear empties the catalog.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.apps = make(map[string]*App)
	r.order = nil
}
