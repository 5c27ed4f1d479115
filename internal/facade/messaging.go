package facade

import (
	"github.com/openclaw/snapper/internal/hooks"
	"github.com/openclaw/snapper/internal/manifest"
)

// Publish delegates to the Message Bus with this app's id as sender, gated
// by bus:publish.
func (f *Facade) Publish(channel string, message interface{}) error {
	if err := f.requirePermission(manifest.PermBusPublish); err != nil {
		return err
	}
	f.bus.Publish(channel, message, f.id)
	return nil
}

// Subscribe delegates to the Message Bus, gated by bus:subscribe. The
// returned unsubscribe closure is also registered as a disposable so
// Dispose tears it down if the app forgets to.
func (f *Facade) Subscribe(channel string, handler func(message interface{}, sender string)) (unsubscribe func(), err error) {
	if err := f.requirePermission(manifest.PermBusSubscribe); err != nil {
		return nil, err
	}
	unsub := f.bus.Subscribe(channel, handler)
	f.mu.Lock()
	f.disposables = append(f.disposables, unsub)
	f.mu.Unlock()
	return unsub, nil
}

// OnHook delegates to the Hook Router, gated by session:hook. The
// unsubscribe closure is tracked and torn down on Dispose.
func (f *Facade) OnHook(event manifest.HookName, handler hooks.Handler, opts hooks.Options) (func(), error) {
	if err := f.requirePermission(manifest.PermSessionHook); err != nil {
		return nil, err
	}
	unsub := f.hooks.On(event, handler, opts)
	f.mu.Lock()
	f.hookUnsubscribes = append(f.hookUnsubscribes, unsub)
	f.mu.Unlock()
	return unsub, nil
}

// OnceHook delegates to the Hook Router's Once, gated by session:hook.
func (f *Facade) OnceHook(event manifest.HookName, handler hooks.Handler, opts hooks.Options) (func(), error) {
	if err := f.requirePermission(manifest.PermSessionHook); err != nil {
		return nil, err
	}
	unsub := f.hooks.Once(event, handler, opts)
	f.mu.Lock()
	f.hookUnsubscribes = append(f.hookUnsubscribes, unsub)
	f.mu.Unlock()
	return unsub, nil
}
