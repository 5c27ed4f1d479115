package registry

import (
	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watch starts an fsnotify watch on the builtin directory and invokes
// onChange with a fresh Discover() result whenever an app folder is added
// or removed. It does not reload a running app's code (the Non-goals
// explicitly exclude hot-reload); it only re-scans manifests. The returned
// stop function closes the underlying watcher; callers must call it to
// avoid leaking the watcher goroutine.
func (r *Registry) Watch(onChange func(DiscoveryResult)) (stop func() error, err error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := watcher.Add(r.builtin); err != nil {
		watcher.Close()
		return nil, err
	}

	done := make(chan struct{})
	go func() {
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Op&(fsnotify.Create|fsnotify.Remove|fsnotify.Rename) != 0 {
					onChange(r.Discover())
				}
			case watchErr, ok := <-watcher.Errors:
				if !ok {
					return
				}
				r.logger.Warn("registry watch error", zap.Error(watchErr))
			case <-done:
				return
			}
		}
	}()

	stop = func() error {
		close(done)
		return watcher.Close()
	}
	return stop, nil
}
