package labels_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/zapflowhq/zapflow/pkg/mocks"
	"github.com/zapflowhq/zapflow/pkg/models"
	"github.com/zapflowhq/zapflow/pkg/nodes/labels"
	"github.com/zapflowhq/zapflow/pkg/protocol"
	"github.com/zapflowhq/zapflow/pkg/testutil"
)

func contactContext() *models.ExecutionContext {
	execCtx := models.NewExecutionContext()
	execCtx.Globals["tenantId"] = "tenant-1"
	execCtx.Globals["contactId"] = "c-1"
	execCtx.SetVariable("plan", "gold")

	return execCtx
}

func manageNode(t *testing.T, service protocol.LabelService, config map[string]any) protocol.NodeExecutor {
	t.Helper()

	node := testutil.Node("labels-1", models.NodeTypeManageLabels, config)

	executor, err := labels.NewManageLabelsNode(protocol.Dependencies{Labels: service}, node)
	require.NoError(t, err)

	return executor
}

func TestAddRendersLabelTemplates(t *testing.T) {
	service := &mocks.MockLabels{}
	service.On("Mutate", mock.Anything, "tenant-1", "c-1", "add", []string{"plan:gold"}).Return(nil)

	node := manageNode(t, service, map[string]any{
		"action": "add",
		"labels": []string{"plan:{{variables.plan}}"},
	})

	_, err := node.Execute(context.Background(), contactContext())
	require.NoError(t, err)
	service.AssertExpectations(t)
}

func TestListSavesLabels(t *testing.T) {
	service := &mocks.MockLabels{}
	service.On("List", mock.Anything, "c-1").Return([]string{"lead", "vip"}, nil)

	node := manageNode(t, service, map[string]any{
		"action": "list",
		"saveAs": "currentLabels",
	})

	execCtx := contactContext()

	_, err := node.Execute(context.Background(), execCtx)
	require.NoError(t, err)
	assert.Equal(t, []any{"lead", "vip"}, execCtx.Variables["currentLabels"])
}

func TestMissingContactFails(t *testing.T) {
	service := &mocks.MockLabels{}

	node := manageNode(t, service, map[string]any{
		"action": "add",
		"labels": []string{"vip"},
	})

	_, err := node.Execute(context.Background(), models.NewExecutionContext())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no contact")
	service.AssertNotCalled(t, "Mutate")
}

func TestSetTagsReplacesTagSet(t *testing.T) {
	service := &mocks.MockLabels{}
	service.On("Mutate", mock.Anything, "tenant-1", "c-1", "set", []string{"onboarded", "plan:gold"}).Return(nil)

	node := testutil.Node("tags-1", models.NodeTypeSetTags, map[string]any{
		"tags": []string{"onboarded", "plan:{{variables.plan}}"},
	})

	executor, err := labels.NewSetTagsNode(protocol.Dependencies{Labels: service}, node)
	require.NoError(t, err)

	_, err = executor.Execute(context.Background(), contactContext())
	require.NoError(t, err)
	service.AssertExpectations(t)
}
