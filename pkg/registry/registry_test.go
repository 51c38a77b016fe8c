package registry_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zapflowhq/zapflow/pkg/log"
	"github.com/zapflowhq/zapflow/pkg/models"
	"github.com/zapflowhq/zapflow/pkg/protocol"
	"github.com/zapflowhq/zapflow/pkg/registry"
	"github.com/zapflowhq/zapflow/pkg/testutil"
)

func newRegistry(t *testing.T) *registry.Registry {
	t.Helper()

	r := registry.NewRegistry(log.WithModule("test"))
	r.RegisterDefaultNodes()

	return r
}

func TestRegisterDefaultNodesCoversAllTypes(t *testing.T) {
	r := newRegistry(t)

	expected := []string{
		string(models.NodeTypeTriggerMessage),
		string(models.NodeTypeTriggerSchedule),
		string(models.NodeTypeTriggerManual),
		string(models.NodeTypeSendMessage),
		string(models.NodeTypeSendMedia),
		string(models.NodeTypeSendButtons),
		string(models.NodeTypeSendList),
		string(models.NodeTypeHTTPRequest),
		string(models.NodeTypeHTTPScrape),
		string(models.NodeTypeCode),
		string(models.NodeTypeEditFields),
		string(models.NodeTypeManageLabels),
		string(models.NodeTypeSetTags),
		string(models.NodeTypeCondition),
		string(models.NodeTypeSwitch),
		string(models.NodeTypeWaitReply),
		string(models.NodeTypeWait),
		string(models.NodeTypeEnd),
	}

	available := r.AvailableTypes()
	for _, nodeType := range expected {
		assert.Contains(t, available, nodeType)
	}

	assert.Len(t, available, len(expected))
}

func TestFactoryUnknownType(t *testing.T) {
	r := newRegistry(t)

	_, err := r.Factory("NOT_A_NODE")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not registered")
}

func TestValidateConfigAcceptsValidConfig(t *testing.T) {
	r := newRegistry(t)

	node := testutil.Node("send-1", models.NodeTypeSendMessage, map[string]any{
		"text": "hello {{variables.name}}",
	})

	require.NoError(t, r.ValidateConfig(node))
}

func TestValidateConfigRejectsMissingRequiredField(t *testing.T) {
	r := newRegistry(t)

	node := testutil.Node("send-1", models.NodeTypeSendMessage, map[string]any{
		"delayMs": 100,
	})

	err := r.ValidateConfig(node)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "send-1")
	assert.Contains(t, err.Error(), "text")
}

func TestValidateConfigRejectsWrongFieldType(t *testing.T) {
	r := newRegistry(t)

	node := testutil.Node("wait-1", models.NodeTypeWaitReply, map[string]any{
		"timeoutSeconds": "soon",
	})

	err := r.ValidateConfig(node)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "wait-1")
}

func TestValidateConfigUnknownType(t *testing.T) {
	r := newRegistry(t)

	node := testutil.Node("n-1", models.NodeType("NOT_A_NODE"), nil)

	require.Error(t, r.ValidateConfig(node))
}

func TestCreateExecutorValidatesBeforeBuilding(t *testing.T) {
	r := newRegistry(t)

	node := testutil.Node("send-1", models.NodeTypeSendMessage, nil)

	_, err := r.CreateExecutor(protocol.Dependencies{Logger: log.WithModule("test")}, node)
	require.Error(t, err)
}

func TestCreateExecutorBuildsTypedExecutor(t *testing.T) {
	r := newRegistry(t)

	node := testutil.Node("end-1", models.NodeTypeEnd, nil)

	executor, err := r.CreateExecutor(protocol.Dependencies{Logger: log.WithModule("test")}, node)
	require.NoError(t, err)
	assert.Equal(t, models.NodeTypeEnd, executor.Type())
}
