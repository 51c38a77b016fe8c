// Package labels provides the contact label and tag node executors, both
// backed by the label service collaborator.
package labels

import (
	"context"
	"fmt"

	"github.com/zapflowhq/zapflow/pkg/expression"
	"github.com/zapflowhq/zapflow/pkg/models"
	"github.com/zapflowhq/zapflow/pkg/protocol"
)

// identity reads tenant and contact from the globals scope.
func identity(execCtx *models.ExecutionContext) (tenantID, contactID string, err error) {
	tenantID, _ = execCtx.Globals["tenantId"].(string)
	contactID, _ = execCtx.Globals["contactId"].(string)

	if contactID == "" {
		return "", "", fmt.Errorf("execution context has no contact")
	}

	return tenantID, contactID, nil
}

// ManageLabelsNode adds, removes, or lists labels on the triggering contact.
type ManageLabelsNode struct {
	nodeID string
	config *models.ManageLabelsConfig
	labels protocol.LabelService
}

// NewManageLabelsNode creates a MANAGE_LABELS executor from the node
// configuration.
func NewManageLabelsNode(deps protocol.Dependencies, node *models.WorkflowNode) (*ManageLabelsNode, error) {
	config, err := node.DecodeConfig()
	if err != nil {
		return nil, err
	}

	labelsConfig, ok := config.(*models.ManageLabelsConfig)
	if !ok {
		return nil, fmt.Errorf("node %s: unexpected config type %T", node.ID, config)
	}

	return &ManageLabelsNode{
		nodeID: node.ID,
		config: labelsConfig,
		labels: deps.Labels,
	}, nil
}

// Type returns the node type.
func (n *ManageLabelsNode) Type() models.NodeType {
	return models.NodeTypeManageLabels
}

// Execute applies the label action. The list action stores the contact's
// labels under saveAs (or the node output when saveAs is empty).
func (n *ManageLabelsNode) Execute(ctx context.Context, execCtx *models.ExecutionContext) (protocol.Outcome, error) {
	tenantID, contactID, err := identity(execCtx)
	if err != nil {
		return protocol.Outcome{}, fmt.Errorf("node %s: %w", n.nodeID, err)
	}

	switch n.config.Action {
	case "add", "remove":
		values := make([]string, len(n.config.Labels))
		for i, label := range n.config.Labels {
			values[i] = expression.Render(label, execCtx)
		}

		err = n.labels.Mutate(ctx, tenantID, contactID, n.config.Action, values)
		if err != nil {
			return protocol.Outcome{}, fmt.Errorf("node %s: label %s failed: %w", n.nodeID, n.config.Action, err)
		}
	case "list":
		current, err := n.labels.List(ctx, contactID)
		if err != nil {
			return protocol.Outcome{}, fmt.Errorf("node %s: label list failed: %w", n.nodeID, err)
		}

		asAny := make([]any, len(current))
		for i, label := range current {
			asAny[i] = label
		}

		if n.config.SaveAs != "" {
			execCtx.SetVariable(n.config.SaveAs, asAny)
		} else {
			execCtx.SetOutput(n.nodeID, asAny)
		}
	default:
		return protocol.Outcome{}, fmt.Errorf("node %s: unknown label action %q", n.nodeID, n.config.Action)
	}

	return protocol.ContinueOutcome(), nil
}

// SetTagsNode replaces the contact's tag set.
type SetTagsNode struct {
	nodeID string
	config *models.SetTagsConfig
	labels protocol.LabelService
}

// NewSetTagsNode creates a SET_TAGS executor from the node configuration.
func NewSetTagsNode(deps protocol.Dependencies, node *models.WorkflowNode) (*SetTagsNode, error) {
	config, err := node.DecodeConfig()
	if err != nil {
		return nil, err
	}

	tagsConfig, ok := config.(*models.SetTagsConfig)
	if !ok {
		return nil, fmt.Errorf("node %s: unexpected config type %T", node.ID, config)
	}

	return &SetTagsNode{
		nodeID: node.ID,
		config: tagsConfig,
		labels: deps.Labels,
	}, nil
}

// Type returns the node type.
func (n *SetTagsNode) Type() models.NodeType {
	return models.NodeTypeSetTags
}

// Execute replaces the contact's tags with the rendered set.
func (n *SetTagsNode) Execute(ctx context.Context, execCtx *models.ExecutionContext) (protocol.Outcome, error) {
	tenantID, contactID, err := identity(execCtx)
	if err != nil {
		return protocol.Outcome{}, fmt.Errorf("node %s: %w", n.nodeID, err)
	}

	tags := make([]string, len(n.config.Tags))
	for i, tag := range n.config.Tags {
		tags[i] = expression.Render(tag, execCtx)
	}

	err = n.labels.Mutate(ctx, tenantID, contactID, "set", tags)
	if err != nil {
		return protocol.Outcome{}, fmt.Errorf("node %s: set tags failed: %w", n.nodeID, err)
	}

	return protocol.ContinueOutcome(), nil
}
