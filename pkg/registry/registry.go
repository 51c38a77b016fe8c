// Package registry provides node executor factory registration and
// configuration validation.
package registry

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/zapflowhq/zapflow/pkg/models"
	"github.com/zapflowhq/zapflow/pkg/protocol"
)

// Registry maps node type ids to their executor factories.
type Registry struct {
	logger    *slog.Logger
	factories map[string]protocol.ExecutorFactory
}

// NewRegistry creates an empty registry.
func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		logger:    logger.With("module", "registry"),
		factories: make(map[string]protocol.ExecutorFactory),
	}
}

// Register adds a factory, replacing any previous factory for the same id.
func (r *Registry) Register(factory protocol.ExecutorFactory) {
	r.factories[factory.ID()] = factory
}

// Factory returns the factory for a node type id.
func (r *Registry) Factory(nodeType string) (protocol.ExecutorFactory, error) {
	factory, ok := r.factories[nodeType]
	if !ok {
		return nil, fmt.Errorf("node type '%s' not registered", nodeType)
	}

	return factory, nil
}

// AvailableTypes returns all registered node type ids.
func (r *Registry) AvailableTypes() []string {
	types := make([]string, 0, len(r.factories))
	for nodeType := range r.factories {
		types = append(types, nodeType)
	}

	return types
}

// CreateExecutor validates the node's configuration against the factory's
// schema and builds the executor.
func (r *Registry) CreateExecutor(deps protocol.Dependencies, node *models.WorkflowNode) (protocol.NodeExecutor, error) {
	factory, err := r.Factory(string(node.Type))
	if err != nil {
		return nil, err
	}

	err = r.ValidateConfig(node)
	if err != nil {
		return nil, err
	}

	return factory.Create(deps, node)
}

// ValidateConfig checks the node's raw configuration against the JSON schema
// registered for its type.
func (r *Registry) ValidateConfig(node *models.WorkflowNode) error {
	factory, err := r.Factory(string(node.Type))
	if err != nil {
		return err
	}

	schema := factory.Schema()
	if schema == nil {
		return nil
	}

	var config map[string]any

	if len(node.Config) > 0 {
		err = json.Unmarshal(node.Config, &config)
		if err != nil {
			return fmt.Errorf("node '%s' configuration is not a JSON object: %w", node.ID, err)
		}
	}

	if config == nil {
		config = map[string]any{}
	}

	schemaLoader := gojsonschema.NewGoLoader(schema)
	dataLoader := gojsonschema.NewGoLoader(config)

	result, err := gojsonschema.Validate(schemaLoader, dataLoader)
	if err != nil {
		return fmt.Errorf("failed to validate node '%s' configuration: %w", node.ID, err)
	}

	if !result.Valid() {
		messages := make([]string, 0, len(result.Errors()))
		for _, resultError := range result.Errors() {
			messages = append(messages, resultError.String())
		}

		return fmt.Errorf("node '%s' configuration is invalid: %s", node.ID, strings.Join(messages, "; "))
	}

	return nil
}
