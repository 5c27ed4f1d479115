package facade

import "github.com/openclaw/snapper/internal/manifest"

// InjectPromptContext hands text off to the host, forwarded opaquely with
// priority: priority carries no defined ordering semantics of its own, it
// is forwarded as-is for the host to interpret. A nil HostSink makes this
// a no-op. Gated by prompt:inject.
func (f *Facade) InjectPromptContext(text string, priority int) error {
	if err := f.requirePermission(manifest.PermPromptInject); err != nil {
		return err
	}
	if f.hostSink != nil {
		f.hostSink.InjectPromptContext(f.id, text, priority)
	}
	return nil
}

// ShowToast forwards opts to the host. The core guarantees only permission
// enforcement, gated by ui:toast.
func (f *Facade) ShowToast(opts ToastOptions) error {
	if err := f.requirePermission(manifest.PermUIToast); err != nil {
		return err
	}
	if f.hostSink != nil {
		f.hostSink.ShowToast(f.id, opts)
	}
	return nil
}
