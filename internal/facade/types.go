package facade

// ToastOptions describes a host-rendered toast notification. The core never
// renders it; ShowToast only enforces permissions and forwards to the
// configured HostSink.
type ToastOptions struct {
	Title    string
	Message  string
	Level    string // "info", "warn", "error"
	Duration int    // milliseconds; 0 means the host's default
}

// TabEventType enumerates the events registerTab/unregisterTab/updateTab
// raise to onTabEvent subscribers.
type TabEventType string

const (
	TabActivated TabEventType = "activated"
	TabClosed    TabEventType = "closed"
	TabUpdated   TabEventType = "updated"
)

// TabEvent is delivered to every onTabEvent handler when a tab is
// registered, unregistered, updated, or activated.
type TabEvent struct {
	Type  TabEventType
	TabID string
}

// TabDefinition is the record owned by the façade and echoed to the host;
// the core never renders it.
type TabDefinition struct {
	ID     string
	Title  string
	Icon   string
	Active bool
}

// PanelEventType enumerates the events a panel's register/unregister/update/
// toggle raise to onPanelEvent subscribers, mirroring TabEventType.
type PanelEventType string

const (
	PanelOpened  PanelEventType = "opened"
	PanelClosed  PanelEventType = "closed"
	PanelUpdated PanelEventType = "updated"
)

// PanelEvent is delivered to every onPanelEvent handler.
type PanelEvent struct {
	Type    PanelEventType
	PanelID string
}

// PanelDefinition is the panel analogue of TabDefinition; Expanded tracks
// the state TogglePanel flips.
type PanelDefinition struct {
	ID       string
	Title    string
	Expanded bool
}

// CommandSpec is the record passed to RegisterCommand.
type CommandSpec struct {
	Name        string
	Description string
	Handler     func(args CommandArgs, ctx CommandContext) CommandResult
}

// CommandArgs is the minimal parse ExecuteCommand performs on a command
// line: positional tokens after the command name. Options and Flags are
// always present (never nil) but populated only by a higher-level parser
// the host may layer on top; the core parses positional tokens only.
type CommandArgs struct {
	Positional []string
	Options    map[string]string
	Flags      map[string]bool
	Raw        string
}

// CommandContext is handed to a command handler alongside CommandArgs.
// ExecuteCommand fills in SessionID, a Reply that discards its text, and a
// Progress whose trackers ignore every update, so nothing a handler passes
// to Reply or to a tracker reaches the session.
type CommandContext struct {
	SessionID string
	Reply     func(text string)
	Progress  func(label string) ProgressTracker
}

// ProgressTracker lets a long-running command report incremental progress.
type ProgressTracker interface {
	Update(percent int, message string)
	Done()
}

// CommandResult is ExecuteCommand's return shape.
type CommandResult struct {
	Success bool
	Message string
	Data    interface{}
}

// HostSink is the façade's one-way channel to the external host shell for
// concerns that belong to the host, not the kernel: toasts and prompt
// context injection. A nil sink makes these operations silent no-ops.
type HostSink interface {
	ShowToast(appID string, opts ToastOptions)
	InjectPromptContext(appID string, text string, priority int)
}
