package facade

import (
	"fmt"
	"strings"

	"github.com/openclaw/snapper/internal/manifest"
)

// RegisterCommand stores spec under "<appId>:<name>", gated by
// command:register.
func (f *Facade) RegisterCommand(spec CommandSpec) error {
	if err := f.requirePermission(manifest.PermCommandReg); err != nil {
		return err
	}

	key := fmt.Sprintf("%s:%s", f.id, spec.Name)
	f.mu.Lock()
	f.commands[key] = spec
	f.mu.Unlock()
	return nil
}

// ExecuteCommand tokenizes line on whitespace and looks up the first token
// verbatim (callers typically pass "<appId>:<name> <args>"), then invokes
// the matching handler with the minimal positional parse and a
// CommandContext. A missing command or a handler panic is reported as
// CommandResult{Success: false}, never propagated as a Go error.
func (f *Facade) ExecuteCommand(line string, sessionID string) CommandResult {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return CommandResult{Success: false, Message: "empty command"}
	}

	key := fields[0]
	f.mu.Lock()
	spec, ok := f.commands[key]
	f.mu.Unlock()
	if !ok {
		return CommandResult{Success: false, Message: fmt.Sprintf("unknown command: %s", key)}
	}

	args := CommandArgs{
		Positional: fields[1:],
		Options:    map[string]string{},
		Flags:      map[string]bool{},
		Raw:        line,
	}
	ctx := CommandContext{
		SessionID: sessionID,
		Reply:     func(string) {},
		Progress:  func(string) ProgressTracker { return noopProgress{} },
	}

	return f.runCommand(spec, args, ctx)
}

func (f *Facade) runCommand(spec CommandSpec, args CommandArgs, ctx CommandContext) (result CommandResult) {
	defer func() {
		if rec := recover(); rec != nil {
			result = CommandResult{Success: false, Message: fmt.Sprintf("command panicked: %v", rec)}
		}
	}()
	if spec.Handler == nil {
		return CommandResult{Success: false, Message: "command has no handler"}
	}
	return spec.Handler(args, ctx)
}

type noopProgress struct{}

func (noopProgress) Update(int, string) {}
func (noopProgress) Done()              {}
