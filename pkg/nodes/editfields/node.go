// Package editfields provides the variable assignment node executor.
package editfields

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/zapflowhq/zapflow/pkg/expression"
	"github.com/zapflowhq/zapflow/pkg/models"
	"github.com/zapflowhq/zapflow/pkg/protocol"
)

// EditFieldsNode writes values into the variables scope, either from a JSON
// object template or from a list of typed field assignments.
type EditFieldsNode struct {
	nodeID string
	config *models.EditFieldsConfig
}

// NewEditFieldsNode creates an EDIT_FIELDS executor from the node configuration.
func NewEditFieldsNode(node *models.WorkflowNode) (*EditFieldsNode, error) {
	config, err := node.DecodeConfig()
	if err != nil {
		return nil, err
	}

	editConfig, ok := config.(*models.EditFieldsConfig)
	if !ok {
		return nil, fmt.Errorf("node %s: unexpected config type %T", node.ID, config)
	}

	return &EditFieldsNode{nodeID: node.ID, config: editConfig}, nil
}

// Type returns the node type.
func (n *EditFieldsNode) Type() models.NodeType {
	return models.NodeTypeEditFields
}

// Execute applies the assignments. Unless includeOtherFields is set, the
// variables scope is replaced by exactly the assigned fields.
func (n *EditFieldsNode) Execute(_ context.Context, execCtx *models.ExecutionContext) (protocol.Outcome, error) {
	assigned := make(map[string]any)

	if n.config.Mode == "json" || (len(n.config.JSON) > 0 && len(n.config.Fields) == 0) {
		for key, value := range n.config.JSON {
			assigned[key] = resolveAny(value, execCtx)
		}
	} else {
		for _, field := range n.config.Fields {
			value, err := coerceField(field, execCtx)
			if err != nil {
				return protocol.Outcome{}, fmt.Errorf("node %s: field %q: %w", n.nodeID, field.Name, err)
			}

			assigned[field.Name] = value
		}
	}

	if !n.config.IncludeOtherFields {
		execCtx.Variables = make(map[string]any)
	}

	for key, value := range assigned {
		execCtx.SetVariable(key, value)
	}

	return protocol.ContinueOutcome(), nil
}

// resolveAny walks a JSON template value, rendering every string leaf.
func resolveAny(value any, execCtx *models.ExecutionContext) any {
	switch v := value.(type) {
	case string:
		return expression.ResolveValue(v, execCtx)
	case map[string]any:
		resolved := make(map[string]any, len(v))
		for key, nested := range v {
			resolved[key] = resolveAny(nested, execCtx)
		}

		return resolved
	case []any:
		resolved := make([]any, len(v))
		for i, nested := range v {
			resolved[i] = resolveAny(nested, execCtx)
		}

		return resolved
	default:
		return v
	}
}

// coerceField renders the assignment value and converts it to the declared type.
func coerceField(field models.FieldAssignment, execCtx *models.ExecutionContext) (any, error) {
	resolved := expression.ResolveValue(field.Value, execCtx)

	switch field.Type {
	case "", "string":
		if field.Type == "" {
			// Untyped assignments keep the resolved value's own type.
			return resolved, nil
		}

		return expression.Stringify(resolved), nil
	case "number":
		text := strings.TrimSpace(expression.Stringify(resolved))

		number, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return nil, fmt.Errorf("%q is not a number", text)
		}

		return number, nil
	case "boolean":
		text := strings.TrimSpace(expression.Stringify(resolved))

		boolean, err := strconv.ParseBool(text)
		if err != nil {
			return nil, fmt.Errorf("%q is not a boolean", text)
		}

		return boolean, nil
	case "json":
		text := expression.Stringify(resolved)

		var decoded any
		if err := json.Unmarshal([]byte(text), &decoded); err != nil {
			return nil, fmt.Errorf("invalid JSON: %w", err)
		}

		return decoded, nil
	default:
		return nil, fmt.Errorf("unknown field type %q", field.Type)
	}
}
