package mcpservice

import (
	"fmt"
	"strings"
)

// DuplicateToolError is returned by Registry.Register when a tool with the
// same name is already present.
type DuplicateToolError struct {
	Name string
}

func (e *DuplicateToolError) Error() string {
	return fmt.Sprintf("duplicate tool: %s", e.Name)
}

// UnknownToolError is returned by Registry.Invoke when no tool is registered
// under the requested name.
type UnknownToolError struct {
	Name string
}

func (e *UnknownToolError) Error() string {
	return fmt.Sprintf("unknown tool: %s", e.Name)
}

// InvalidInputError reports tool arguments that do not satisfy the tool's
// input schema. The handler is not run.
type InvalidInputError struct {
	Tool       string
	Violations []string
}

func (e *InvalidInputError) Error() string {
	if len(e.Violations) == 0 {
		return fmt.Sprintf("invalid input for tool %s", e.Tool)
	}
	return fmt.Sprintf("invalid input for tool %s: %s", e.Tool, strings.Join(e.Violations, "; "))
}

// ToolExecutionError wraps a failure raised by a tool handler, either as a
// returned error or as a recovered panic.
type ToolExecutionError struct {
	Tool string
	Err  error
}

func (e *ToolExecutionError) Error() string {
	return fmt.Sprintf("tool %s failed: %v", e.Tool, e.Err)
}

func (e *ToolExecutionError) Unwrap() error { return e.Err }
