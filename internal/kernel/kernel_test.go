package kernel

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/openclaw/snapper/internal/config"
	"github.com/openclaw/snapper/internal/facade"
	"github.com/openclaw/snapper/internal/kernelerrors"
	"github.com/openclaw/snapper/internal/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeManifest(t *testing.T, builtin, id string) {
	t.Helper()
	dir := filepath.Join(builtin, id)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	body := `{"id":"` + id + `","name":"X","entry":"./i","permissions":[],"openclaw":{"minVersion":"2.0.0"}}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "snap.json"), []byte(body), 0o644))
}

func newTestKernel(t *testing.T) *Kernel {
	t.Helper()
	builtin := t.TempDir()
	cfg := &config.Config{
		Kernel: config.KernelConfig{BuiltinPath: builtin},
		Store:  config.StoreConfig{StateBase: t.TempDir()},
	}
	writeManifest(t, builtin, "x")
	return New(cfg, nil, nil, nil)
}

func TestFullLifecycle(t *testing.T) {
	k := newTestKernel(t)
	apps, errs, _ := k.DiscoverAndRegister()
	require.Empty(t, errs)
	require.Len(t, apps, 1)

	var activateCount, suspendCount, destroyCount int
	factory := func(f *facade.Facade) (*registry.Instance, error) {
		return &registry.Instance{
			OnActivate: func() error { activateCount++; return nil },
			OnSuspend:  func() error { suspendCount++; return nil },
			OnDestroy:  func() error { destroyCount++; return nil },
		}, nil
	}

	f, err := k.LoadAndActivate("x", nil, factory)
	require.NoError(t, err)
	assert.Equal(t, 1, activateCount)

	app, _ := k.Registry.Get("x")
	assert.Equal(t, "active", string(app.State))

	ok, err := k.Suspend("x")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 1, suspendCount)
	assert.Equal(t, "suspended", string(app.State))

	f, err = k.LoadAndActivate("x", nil, factory)
	require.NoError(t, err)
	assert.Equal(t, 2, activateCount)

	ok, err = k.Unload("x", f)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 1, destroyCount)
	assert.Equal(t, "registered", string(app.State))
	assert.Nil(t, app.Instance)
	assert.Nil(t, app.Err)
}

func TestErrorRecovery(t *testing.T) {
	k := newTestKernel(t)
	_, errs, _ := k.DiscoverAndRegister()
	require.Empty(t, errs)

	app, _ := k.Registry.Get("x")
	require.NoError(t, k.Lifecycle.Load(app, nil))

	boom := assertErr("boom")
	_, err := k.LoadAndActivate("x", nil, func(f *facade.Facade) (*registry.Instance, error) {
		return nil, boom
	})
	require.Error(t, err)
	assert.Equal(t, "error", string(app.State))
	assert.ErrorIs(t, app.Err, boom)

	_, err = k.Suspend("x")
	require.NoError(t, err) // Suspend only no-ops outside active; never raises

	ok, err := k.Unload("x", nil)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "registered", string(app.State))
	assert.Nil(t, app.Err)

	require.NoError(t, k.Lifecycle.Load(app, nil))
	assert.Equal(t, "loaded", string(app.State))
}

func TestLoadAndActivateUnknownApp(t *testing.T) {
	k := newTestKernel(t)
	_, err := k.LoadAndActivate("missing", nil, func(*facade.Facade) (*registry.Instance, error) {
		return &registry.Instance{}, nil
	})
	require.Error(t, err)
	var precondition *kernelerrors.PreconditionViolatedError
	require.ErrorAs(t, err, &precondition)
}

type boomError struct{ msg string }

func (e *boomError) Error() string { return e.msg }

func assertErr(msg string) error { return &boomError{msg: msg} }
