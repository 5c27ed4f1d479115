package facade

import (
	"github.com/openclaw/snapper/internal/manifest"
	"github.com/openclaw/snapper/internal/store"
)

// Persist delegates to the State Store, gated by storage:write.
func (f *Facade) Persist(key string, value interface{}, opts store.PersistOptions) error {
	if err := f.requirePermission(manifest.PermStorageWrite); err != nil {
		return err
	}
	return f.store.Persist(f.id, key, value, opts)
}

// Restore delegates to the State Store, gated by storage:read.
func (f *Facade) Restore(key string, def interface{}, namespace string) (interface{}, error) {
	if err := f.requirePermission(manifest.PermStorageRead); err != nil {
		return nil, err
	}
	return f.store.Restore(f.id, key, def, namespace), nil
}

// Remove delegates to the State Store, gated by storage:delete.
func (f *Facade) Remove(key, namespace string) error {
	if err := f.requirePermission(manifest.PermStorageDelete); err != nil {
		return err
	}
	return f.store.Remove(f.id, key, namespace)
}

// ListKeys delegates to the State Store, gated by storage:read.
func (f *Facade) ListKeys(namespace string) ([]string, error) {
	if err := f.requirePermission(manifest.PermStorageRead); err != nil {
		return nil, err
	}
	return f.store.ListKeys(f.id, namespace)
}

// Clear delegates to the State Store, gated by storage:delete.
func (f *Facade) Clear(namespace string) error {
	if err := f.requirePermission(manifest.PermStorageDelete); err != nil {
		return err
	}
	return f.store.Clear(f.id, namespace)
}
