package facade

import (
	"fmt"

	"github.com/openclaw/snapper/internal/manifest"
)

// RegisterPanel creates a panel owned by this app and returns its generated
// id (panel_<appId>_<counter>), gated by ui:panel. Analogous to
// RegisterTab.
func (f *Facade) RegisterPanel(title string) (string, error) {
	if err := f.requirePermission(manifest.PermUIPanel); err != nil {
		return "", err
	}

	f.mu.Lock()
	f.panelCounter++
	id := fmt.Sprintf("panel_%s_%d", f.id, f.panelCounter)
	f.panels[id] = &PanelDefinition{ID: id, Title: title}
	f.panelOrder = append(f.panelOrder, id)
	f.mu.Unlock()

	f.emitPanelEvent(PanelEvent{Type: PanelOpened, PanelID: id})
	return id, nil
}

// UnregisterPanel removes panel id, gated by ui:panel.
func (f *Facade) UnregisterPanel(id string) error {
	if err := f.requirePermission(manifest.PermUIPanel); err != nil {
		return err
	}

	f.mu.Lock()
	delete(f.panels, id)
	for i, existing := range f.panelOrder {
		if existing == id {
			f.panelOrder = append(f.panelOrder[:i:i], f.panelOrder[i+1:]...)
			break
		}
	}
	f.mu.Unlock()

	f.emitPanelEvent(PanelEvent{Type: PanelClosed, PanelID: id})
	return nil
}

// UpdatePanel mutates title for an existing panel, gated by ui:panel.
func (f *Facade) UpdatePanel(id, title string) error {
	if err := f.requirePermission(manifest.PermUIPanel); err != nil {
		return err
	}

	f.mu.Lock()
	panel, ok := f.panels[id]
	if ok && title != "" {
		panel.Title = title
	}
	f.mu.Unlock()

	if !ok {
		return nil
	}
	f.emitPanelEvent(PanelEvent{Type: PanelUpdated, PanelID: id})
	return nil
}

// TogglePanel flips Expanded, or sets it to expanded if non-nil, gated by
// ui:panel.
func (f *Facade) TogglePanel(id string, expanded *bool) error {
	if err := f.requirePermission(manifest.PermUIPanel); err != nil {
		return err
	}

	f.mu.Lock()
	panel, ok := f.panels[id]
	if ok {
		if expanded != nil {
			panel.Expanded = *expanded
		} else {
			panel.Expanded = !panel.Expanded
		}
	}
	f.mu.Unlock()

	if !ok {
		return nil
	}
	f.emitPanelEvent(PanelEvent{Type: PanelUpdated, PanelID: id})
	return nil
}

// GetPanels returns a snapshot of this app's panels in registration order.
func (f *Facade) GetPanels() []PanelDefinition {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]PanelDefinition, 0, len(f.panelOrder))
	for _, id := range f.panelOrder {
		if panel, ok := f.panels[id]; ok {
			out = append(out, *panel)
		}
	}
	return out
}

// OnPanelEvent registers handler to observe every panel event this app
// raises. Handlers that panic are recovered and swallowed, mirroring
// OnTabEvent.
func (f *Facade) OnPanelEvent(handler func(PanelEvent)) {
	f.mu.Lock()
	f.panelHandlers = append(f.panelHandlers, handler)
	f.mu.Unlock()
}

func (f *Facade) emitPanelEvent(event PanelEvent) {
	f.mu.Lock()
	handlers := make([]func(PanelEvent), len(f.panelHandlers))
	copy(handlers, f.panelHandlers)
	f.mu.Unlock()

	for _, h := range handlers {
		f.safeCall(func() { h(event) })
	}
}
