package hooks

import (
	"errors"
	"testing"

	"github.com/openclaw/snapper/internal/manifest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmitPriorityOrder(t *testing.T) {
	r := New(nil, nil)
	var order []string

	r.On(manifest.HookBeforeTool, func(payload interface{}) error {
		order = append(order, "low")
		return nil
	}, Options{Priority: 1})
	r.On(manifest.HookBeforeTool, func(payload interface{}) error {
		order = append(order, "high")
		return nil
	}, Options{Priority: 10})
	r.On(manifest.HookBeforeTool, func(payload interface{}) error {
		order = append(order, "mid-a")
		return nil
	}, Options{Priority: 5})
	r.On(manifest.HookBeforeTool, func(payload interface{}) error {
		order = append(order, "mid-b")
		return nil
	}, Options{Priority: 5})

	r.Emit(manifest.HookBeforeTool, nil)
	assert.Equal(t, []string{"high", "mid-a", "mid-b", "low"}, order)
}

func TestOnceSelfUnsubscribes(t *testing.T) {
	r := New(nil, nil)
	calls := 0
	r.Once(manifest.HookSessionStart, func(payload interface{}) error {
		calls++
		return nil
	}, Options{})

	r.Emit(manifest.HookSessionStart, nil)
	r.Emit(manifest.HookSessionStart, nil)
	assert.Equal(t, 1, calls)
	assert.False(t, r.HasHandlers(manifest.HookSessionStart))
}

func TestUnsubscribeRemovesHandler(t *testing.T) {
	r := New(nil, nil)
	calls := 0
	unsub := r.On(manifest.HookSessionEnd, func(payload interface{}) error {
		calls++
		return nil
	}, Options{})

	unsub()
	r.Emit(manifest.HookSessionEnd, nil)
	assert.Equal(t, 0, calls)
	assert.Equal(t, 0, r.Count(manifest.HookSessionEnd))
}

func TestEmitSkipsFilteredAndContinuesAfterError(t *testing.T) {
	r := New(nil, nil)
	var ran []string

	r.On(manifest.HookAfterTool, func(payload interface{}) error {
		ran = append(ran, "filtered-out")
		return nil
	}, Options{Priority: 10, Filter: func(payload interface{}) bool { return false }})
	r.On(manifest.HookAfterTool, func(payload interface{}) error {
		ran = append(ran, "errors")
		return errors.New("boom")
	}, Options{Priority: 5})
	r.On(manifest.HookAfterTool, func(payload interface{}) error {
		ran = append(ran, "still-runs")
		return nil
	}, Options{Priority: 1})

	r.Emit(manifest.HookAfterTool, "payload")
	assert.Equal(t, []string{"errors", "still-runs"}, ran)
}

func TestEmitRecoversPanic(t *testing.T) {
	r := New(nil, nil)
	ranAfter := false
	r.On(manifest.HookToolError, func(payload interface{}) error {
		panic("kaboom")
	}, Options{Priority: 10})
	r.On(manifest.HookToolError, func(payload interface{}) error {
		ranAfter = true
		return nil
	}, Options{Priority: 1})

	require.NotPanics(t, func() { r.Emit(manifest.HookToolError, nil) })
	assert.True(t, ranAfter)
}

func TestClearAllAndSingleEvent(t *testing.T) {
	r := New(nil, nil)
	r.On(manifest.HookSessionStart, func(payload interface{}) error { return nil }, Options{})
	r.On(manifest.HookSessionEnd, func(payload interface{}) error { return nil }, Options{})

	r.Clear(manifest.HookSessionStart)
	assert.False(t, r.HasHandlers(manifest.HookSessionStart))
	assert.True(t, r.HasHandlers(manifest.HookSessionEnd))

	r.Clear("")
	assert.False(t, r.HasHandlers(manifest.HookSessionEnd))
}
