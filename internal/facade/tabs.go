package facade

import (
	"fmt"

	"github.com/openclaw/snapper/internal/manifest"
	"go.uber.org/zap"
)

// RegisterTab creates a tab owned by this app and returns its generated id
// (tab_<appId>_<counter>), gated by ui:tab. Emits a TabActivated event to
// every onTabEvent handler.
func (f *Facade) RegisterTab(title, icon string) (string, error) {
	if err := f.requirePermission(manifest.PermUITab); err != nil {
		return "", err
	}

	f.mu.Lock()
	f.tabCounter++
	id := fmt.Sprintf("tab_%s_%d", f.id, f.tabCounter)
	f.tabs[id] = &TabDefinition{ID: id, Title: title, Icon: icon}
	f.tabOrder = append(f.tabOrder, id)
	f.mu.Unlock()

	f.emitTabEvent(TabEvent{Type: TabActivated, TabID: id})
	return id, nil
}

// UnregisterTab removes tab id, gated by ui:tab. Emits TabClosed.
func (f *Facade) UnregisterTab(id string) error {
	if err := f.requirePermission(manifest.PermUITab); err != nil {
		return err
	}

	f.mu.Lock()
	delete(f.tabs, id)
	for i, existing := range f.tabOrder {
		if existing == id {
			f.tabOrder = append(f.tabOrder[:i:i], f.tabOrder[i+1:]...)
			break
		}
	}
	f.mu.Unlock()

	f.emitTabEvent(TabEvent{Type: TabClosed, TabID: id})
	return nil
}

// UpdateTab mutates title/icon for an existing tab, gated by ui:tab. Emits
// TabUpdated. Title/icon empty strings are treated as "leave unchanged".
func (f *Facade) UpdateTab(id, title, icon string) error {
	if err := f.requirePermission(manifest.PermUITab); err != nil {
		return err
	}

	f.mu.Lock()
	tab, ok := f.tabs[id]
	if ok {
		if title != "" {
			tab.Title = title
		}
		if icon != "" {
			tab.Icon = icon
		}
	}
	f.mu.Unlock()

	if !ok {
		return nil
	}
	f.emitTabEvent(TabEvent{Type: TabUpdated, TabID: id})
	return nil
}

// ActivateTab marks id as the active tab among this app's tabs and emits
// TabActivated, gated by ui:tab.
func (f *Facade) ActivateTab(id string) error {
	if err := f.requirePermission(manifest.PermUITab); err != nil {
		return err
	}

	f.mu.Lock()
	for tid, tab := range f.tabs {
		tab.Active = tid == id
	}
	_, ok := f.tabs[id]
	f.mu.Unlock()

	if !ok {
		return nil
	}
	f.emitTabEvent(TabEvent{Type: TabActivated, TabID: id})
	return nil
}

// GetTabs returns a snapshot of this app's tabs in registration order.
func (f *Facade) GetTabs() []TabDefinition {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]TabDefinition, 0, len(f.tabOrder))
	for _, id := range f.tabOrder {
		if tab, ok := f.tabs[id]; ok {
			out = append(out, *tab)
		}
	}
	return out
}

// OnTabEvent registers handler to observe every tab event this app raises
// via RegisterTab/UnregisterTab/UpdateTab/ActivateTab. Handlers that panic
// are recovered and swallowed so one bad subscriber never blocks a tab
// mutation.
func (f *Facade) OnTabEvent(handler func(TabEvent)) {
	f.mu.Lock()
	f.tabHandlers = append(f.tabHandlers, handler)
	f.mu.Unlock()
}

func (f *Facade) emitTabEvent(event TabEvent) {
	f.mu.Lock()
	handlers := make([]func(TabEvent), len(f.tabHandlers))
	copy(handlers, f.tabHandlers)
	f.mu.Unlock()

	for _, h := range handlers {
		f.safeCall(func() { h(event) })
	}
}

func (f *Facade) safeCall(fn func()) {
	defer func() {
		if rec := recover(); rec != nil {
			f.logger.Warn("facade event handler panicked", zap.Any("recover", rec))
		}
	}()
	fn()
}
