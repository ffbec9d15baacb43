package mcpservice

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/ggoodman/device-info-mcp/mcp"
	"github.com/google/jsonschema-go/jsonschema"
)

var emptyArguments = json.RawMessage(`{}`)

// Registry owns the set of tools exposed by a Server. Names are unique and
// listing preserves registration order. A Registry is safe for concurrent use
// but is normally confined to a single exchange.
type Registry struct {
	mu    sync.RWMutex
	order []string
	tools map[string]StaticTool
}

// NewRegistry returns a Registry pre-populated with defs. It panics on a
// duplicate name; use Register to handle that case as an error.
func NewRegistry(defs ...StaticTool) *Registry {
	r := &Registry{tools: make(map[string]StaticTool, len(defs))}
	for _, d := range defs {
		if err := r.Register(d); err != nil {
			panic(err)
		}
	}
	return r
}

// Register adds a tool. It returns *DuplicateToolError if the name is taken.
func (r *Registry) Register(def StaticTool) error {
	name := def.Descriptor.Name
	if name == "" {
		return errors.New("tool name is required")
	}
	if def.Handler == nil {
		return fmt.Errorf("tool %s: handler is required", name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.tools == nil {
		r.tools = make(map[string]StaticTool)
	}
	if _, exists := r.tools[name]; exists {
		return &DuplicateToolError{Name: name}
	}
	r.tools[name] = def
	r.order = append(r.order, name)
	return nil
}

// List returns the descriptors of all registered tools in registration order.
func (r *Registry) List() []mcp.Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]mcp.Tool, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.tools[name].Descriptor)
	}
	return out
}

// Len reports the number of registered tools.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

// Invoke runs the named tool with raw JSON arguments. Absent or null
// arguments are treated as an empty object.
//
// Errors are always one of *UnknownToolError (no handler ran),
// *InvalidInputError (arguments rejected before the handler ran) or
// *ToolExecutionError (the handler failed or panicked).
func (r *Registry) Invoke(ctx context.Context, name string, raw json.RawMessage) (res *mcp.CallToolResult, err error) {
	r.mu.RLock()
	def, ok := r.tools[name]
	r.mu.RUnlock()
	if !ok {
		return nil, &UnknownToolError{Name: name}
	}

	args := bytes.TrimSpace(raw)
	if len(args) == 0 || bytes.Equal(args, []byte("null")) {
		args = emptyArguments
	}
	if err := validateArguments(name, def.schema, args); err != nil {
		return nil, err
	}

	defer func() {
		if p := recover(); p != nil {
			res = nil
			err = &ToolExecutionError{Tool: name, Err: fmt.Errorf("panic: %v", p)}
		}
	}()

	res, err = def.Handler(ctx, &mcp.CallToolRequestReceived{Name: name, Arguments: args})
	if err != nil {
		var invalid *InvalidInputError
		if errors.As(err, &invalid) {
			return nil, invalid
		}
		return nil, &ToolExecutionError{Tool: name, Err: err}
	}
	if res == nil {
		res = &mcp.CallToolResult{}
	}
	if res.Content == nil {
		res.Content = []mcp.ContentBlock{}
	}
	return res, nil
}

func validateArguments(tool string, schema *jsonschema.Resolved, args json.RawMessage) error {
	var v any
	if err := json.Unmarshal(args, &v); err != nil {
		return &InvalidInputError{Tool: tool, Violations: []string{err.Error()}}
	}
	if _, ok := v.(map[string]any); !ok {
		return &InvalidInputError{Tool: tool, Violations: []string{"arguments must be a JSON object"}}
	}
	if schema == nil {
		return nil
	}
	if err := schema.Validate(v); err != nil {
		return &InvalidInputError{Tool: tool, Violations: violations(err)}
	}
	return nil
}

func violations(err error) []string {
	var out []string
	for line := range strings.SplitSeq(err.Error(), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out
}
