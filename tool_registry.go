package llmprovider

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// ToolHandler executes a tool with decoded arguments and returns its result.
type ToolHandler func(ctx context.Context, args map[string]interface{}) (interface{}, error)

// ToolDefinition describes a client-executed tool: what the model sees and
// the handler that runs it.
type ToolDefinition struct {
	Name        string                 // Unique tool name
	Description string                 // Human-readable description sent to the model
	Parameters  map[string]interface{} // JSON Schema (type "object") for the arguments
	Handler     ToolHandler            // Executes the tool
}

// Tool returns the vendor-neutral wire definition for this tool.
func (d ToolDefinition) Tool() Tool {
	params := d.Parameters
	if params == nil {
		params = map[string]interface{}{"type": "object", "properties": map[string]interface{}{}}
	}
	return Tool{
		Type: "function",
		Function: FunctionDetails{
			Name:        d.Name,
			Description: d.Description,
			Parameters:  params,
		},
	}
}

// ValidateArguments checks that every property listed in the schema's
// "required" array is present in args.
func (d ToolDefinition) ValidateArguments(args map[string]interface{}) error {
	for _, name := range requiredProperties(d.Parameters) {
		if _, ok := args[name]; !ok {
			return fmt.Errorf("missing required argument %q", name)
		}
	}
	return nil
}

func requiredProperties(schema map[string]interface{}) []string {
	switch required := schema["required"].(type) {
	case []string:
		return required
	case []interface{}:
		names := make([]string, 0, len(required))
		for _, r := range required {
			if name, ok := r.(string); ok {
				names = append(names, name)
			}
		}
		return names
	default:
		return nil
	}
}

// ToolSet is the set of tools available to one generation, keyed by name.
// Registration order is preserved so the vendor sees tools in a stable order.
type ToolSet struct {
	tools map[string]ToolDefinition
	order []string
	mu    sync.RWMutex
}

// NewToolSet creates a ToolSet holding the given definitions.
func NewToolSet(defs ...ToolDefinition) (*ToolSet, error) {
	s := &ToolSet{tools: make(map[string]ToolDefinition)}
	for _, def := range defs {
		if err := s.Register(def); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Register adds a tool definition to the set
func (s *ToolSet) Register(def ToolDefinition) error {
	if def.Name == "" {
		return errors.New("tool name is required")
	}

	if def.Handler == nil {
		return fmt.Errorf("handler is required for tool %s", def.Name)
	}

	tool := def.Tool()
	if err := tool.Validate(); err != nil {
		return fmt.Errorf("invalid tool %s: %w", def.Name, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.tools == nil {
		s.tools = make(map[string]ToolDefinition)
	}
	if _, exists := s.tools[def.Name]; exists {
		return fmt.Errorf("tool %s is already registered", def.Name)
	}

	s.tools[def.Name] = def
	s.order = append(s.order, def.Name)
	return nil
}

// Unregister removes a tool definition from the set
func (s *ToolSet) Unregister(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.tools[name]; !exists {
		return fmt.Errorf("tool %s is not registered", name)
	}

	delete(s.tools, name)
	for i, n := range s.order {
		if n == name {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

// Get retrieves a tool definition by name
func (s *ToolSet) Get(name string) (ToolDefinition, error) {
	if s == nil {
		return ToolDefinition{}, &UnknownToolError{Name: name}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	def, exists := s.tools[name]
	if !exists {
		return ToolDefinition{}, &UnknownToolError{Name: name}
	}

	return def, nil
}

// Resolve returns the handler for name. The returned handler checks the
// schema's required arguments before running the tool.
func (s *ToolSet) Resolve(name string) (ToolHandler, error) {
	def, err := s.Get(name)
	if err != nil {
		return nil, err
	}

	return func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
		if err := def.ValidateArguments(args); err != nil {
			return nil, err
		}
		return def.Handler(ctx, args)
	}, nil
}

// IsRegistered checks if a tool is registered
func (s *ToolSet) IsRegistered(name string) bool {
	_, err := s.Get(name)
	return err == nil
}

// Names returns registered tool names in registration order
func (s *ToolSet) Names() []string {
	if s == nil {
		return nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	return append([]string(nil), s.order...)
}

// Len returns the number of registered tools. A nil set is empty.
func (s *ToolSet) Len() int {
	if s == nil {
		return 0
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.order)
}

// Tools returns the wire definitions of every registered tool, in registration order
func (s *ToolSet) Tools() []Tool {
	if s == nil {
		return nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	tools := make([]Tool, 0, len(s.order))
	for _, name := range s.order {
		tools = append(tools, s.tools[name].Tool())
	}
	return tools
}
