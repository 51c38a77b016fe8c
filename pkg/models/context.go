package models

import "strings"

// Context scopes addressable from expressions.
const (
	ScopeGlobals   = "globals"
	ScopeInput     = "input"
	ScopeOutput    = "output"
	ScopeVariables = "variables"
)

// ExecutionContext is the execution's working memory: four named mappings
// addressable by dotted path from templates and predicates. Keys are appended
// or overwritten, never implicitly deleted.
type ExecutionContext struct {
	Globals   map[string]any `json:"globals"`
	Input     map[string]any `json:"input"`
	Output    map[string]any `json:"output"`
	Variables map[string]any `json:"variables"`
}

func NewExecutionContext() *ExecutionContext {
	return &ExecutionContext{
		Globals:   make(map[string]any),
		Input:     make(map[string]any),
		Output:    make(map[string]any),
		Variables: make(map[string]any),
	}
}

func (c *ExecutionContext) scope(name string) map[string]any {
	switch name {
	case ScopeGlobals:
		return c.Globals
	case ScopeInput:
		return c.Input
	case ScopeOutput:
		return c.Output
	case ScopeVariables:
		return c.Variables
	default:
		return nil
	}
}

// Get resolves a dotted path like "variables.name" or "output.api.status"
// against the context. The first segment names the scope; the rest descend
// into nested maps.
func (c *ExecutionContext) Get(path string) (any, bool) {
	segments := strings.Split(path, ".")
	if len(segments) < 2 {
		return nil, false
	}

	scope := c.scope(segments[0])
	if scope == nil {
		return nil, false
	}

	var current any = scope

	for _, segment := range segments[1:] {
		asMap, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}

		current, ok = asMap[segment]
		if !ok {
			return nil, false
		}
	}

	return current, true
}

// SetVariable stores a value under variables[key].
func (c *ExecutionContext) SetVariable(key string, value any) {
	if c.Variables == nil {
		c.Variables = make(map[string]any)
	}

	c.Variables[key] = value
}

// SetOutput stores a node result under output[key].
func (c *ExecutionContext) SetOutput(key string, value any) {
	if c.Output == nil {
		c.Output = make(map[string]any)
	}

	c.Output[key] = value
}

// AsMap exposes the context as a plain map keyed by scope name, the shape
// expression evaluation and the code sandbox operate on.
func (c *ExecutionContext) AsMap() map[string]any {
	return map[string]any{
		ScopeGlobals:   c.Globals,
		ScopeInput:     c.Input,
		ScopeOutput:    c.Output,
		ScopeVariables: c.Variables,
	}
}
