package lifecycle

import (
	"errors"
	"testing"

	"github.com/openclaw/snapper/internal/kernelerrors"
	"github.com/openclaw/snapper/internal/manifest"
	"github.com/openclaw/snapper/internal/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newApp() *registry.App {
	return &registry.App{
		Manifest: &manifest.Manifest{ID: "app-a", Name: "A"},
		State:    manifest.StateRegistered,
	}
}

func TestFullLifecycle(t *testing.T) {
	d := New(nil, nil)
	app := newApp()

	require.NoError(t, d.Load(app, nil))
	assert.Equal(t, manifest.StateLoaded, app.State)

	activated := false
	err := d.Activate(app, func() (*registry.Instance, error) {
		return &registry.Instance{OnActivate: func() error { activated = true; return nil }}, nil
	})
	require.NoError(t, err)
	assert.True(t, activated)
	assert.Equal(t, manifest.StateActive, app.State)

	ok, err := d.Suspend(app)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, manifest.StateSuspended, app.State)

	err = d.Activate(app, func() (*registry.Instance, error) {
		return &registry.Instance{}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, manifest.StateActive, app.State)

	ok, err = d.Unload(app)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, manifest.StateRegistered, app.State)
	assert.Nil(t, app.Instance)
}

func TestLoadRejectsWrongState(t *testing.T) {
	d := New(nil, nil)
	app := newApp()
	require.NoError(t, d.Load(app, nil))

	err := d.Load(app, nil)
	require.Error(t, err)
	var invalid *kernelerrors.InvalidTransitionError
	require.ErrorAs(t, err, &invalid)
}

func TestLoadFailureMovesToError(t *testing.T) {
	d := New(nil, nil)
	app := newApp()
	cause := errors.New("boom")

	err := d.Load(app, func() error { return cause })
	require.ErrorIs(t, err, cause)
	assert.Equal(t, manifest.StateError, app.State)
	assert.Same(t, cause, app.Err)
}

func TestActivateRequiresLoadedOrSuspended(t *testing.T) {
	d := New(nil, nil)
	app := newApp()

	err := d.Activate(app, func() (*registry.Instance, error) { return &registry.Instance{}, nil })
	require.Error(t, err)
	var invalid *kernelerrors.InvalidTransitionError
	require.ErrorAs(t, err, &invalid)
}

func TestActivateFactoryFailureMovesToError(t *testing.T) {
	d := New(nil, nil)
	app := newApp()
	require.NoError(t, d.Load(app, nil))

	cause := errors.New("factory exploded")
	err := d.Activate(app, func() (*registry.Instance, error) { return nil, cause })
	require.Error(t, err)
	var factoryErr *kernelerrors.FactoryFailureError
	require.ErrorAs(t, err, &factoryErr)
	assert.Equal(t, manifest.StateError, app.State)
}

func TestActivateCallbackFailureMovesToError(t *testing.T) {
	d := New(nil, nil)
	app := newApp()
	require.NoError(t, d.Load(app, nil))

	cause := errors.New("onActivate exploded")
	err := d.Activate(app, func() (*registry.Instance, error) {
		return &registry.Instance{OnActivate: func() error { return cause }}, nil
	})
	require.Error(t, err)
	var cbErr *kernelerrors.CallbackFailureError
	require.ErrorAs(t, err, &cbErr)
	assert.Equal(t, "onActivate", cbErr.Callback)
	assert.Equal(t, manifest.StateError, app.State)
}

func TestSuspendNoopWhenNotActive(t *testing.T) {
	d := New(nil, nil)
	app := newApp()

	ok, err := d.Suspend(app)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, manifest.StateRegistered, app.State)
}

func TestUnloadNoopWhenAlreadyRegistered(t *testing.T) {
	d := New(nil, nil)
	app := newApp()

	ok, err := d.Unload(app)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestUnloadFromErrorStateRecovers(t *testing.T) {
	d := New(nil, nil)
	app := newApp()
	require.NoError(t, d.Load(app, nil))
	require.Error(t, d.Activate(app, func() (*registry.Instance, error) { return nil, errors.New("boom") }))
	require.Equal(t, manifest.StateError, app.State)

	ok, err := d.Unload(app)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, manifest.StateRegistered, app.State)
	assert.Nil(t, app.Err)
}

func TestUnloadCallsOnDestroy(t *testing.T) {
	d := New(nil, nil)
	app := newApp()
	require.NoError(t, d.Load(app, nil))
	destroyed := false
	require.NoError(t, d.Activate(app, func() (*registry.Instance, error) {
		return &registry.Instance{OnDestroy: func() error { destroyed = true; return nil }}, nil
	}))

	ok, err := d.Unload(app)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, destroyed)
}
