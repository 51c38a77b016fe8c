package trigger

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zapflowhq/zapflow/pkg/log"
	"github.com/zapflowhq/zapflow/pkg/models"
	"github.com/zapflowhq/zapflow/pkg/testutil"
)

func messageWorkflow(matchType models.MatchType, pattern string) *models.Workflow {
	return testutil.Workflow(testutil.WithGraph(
		[]*models.WorkflowNode{
			testutil.Node("t-1", models.NodeTypeTriggerMessage, map[string]any{
				"matchType": string(matchType),
				"pattern":   pattern,
			}),
		},
		nil,
	))
}

func TestMatch_ExactIsCaseSensitiveEquality(t *testing.T) {
	matcher := NewMatcher(log.WithModule("test"))
	workflow := messageWorkflow(models.MatchTypeExact, "hi")

	matches := matcher.Match([]*models.Workflow{workflow}, testutil.MessageEvent("s-1", "c-1", "hi"))
	require.Len(t, matches, 1)
	assert.Equal(t, "t-1", matches[0].TriggerNode.ID)

	matches = matcher.Match([]*models.Workflow{workflow}, testutil.MessageEvent("s-1", "c-1", "  hi  "))
	assert.Empty(t, matches)

	matches = matcher.Match([]*models.Workflow{workflow}, testutil.MessageEvent("s-1", "c-1", "Hi"))
	assert.Empty(t, matches)

	matches = matcher.Match([]*models.Workflow{workflow}, testutil.MessageEvent("s-1", "c-1", "high"))
	assert.Empty(t, matches)
}

func TestMatch_ContainsIgnoresCase(t *testing.T) {
	matcher := NewMatcher(log.WithModule("test"))
	workflow := messageWorkflow(models.MatchTypeContains, "help")

	matches := matcher.Match([]*models.Workflow{workflow}, testutil.MessageEvent("s-1", "c-1", "I need help now"))
	assert.Len(t, matches, 1)

	matches = matcher.Match([]*models.Workflow{workflow}, testutil.MessageEvent("s-1", "c-1", "I need HELP now"))
	assert.Len(t, matches, 1)

	matches = matcher.Match([]*models.Workflow{workflow}, testutil.MessageEvent("s-1", "c-1", "no assistance needed"))
	assert.Empty(t, matches)
}

func TestMatch_Regex(t *testing.T) {
	matcher := NewMatcher(log.WithModule("test"))
	workflow := messageWorkflow(models.MatchTypeRegex, `^order \d+$`)

	matches := matcher.Match([]*models.Workflow{workflow}, testutil.MessageEvent("s-1", "c-1", "order 42"))
	assert.Len(t, matches, 1)

	matches = matcher.Match([]*models.Workflow{workflow}, testutil.MessageEvent("s-1", "c-1", "order none"))
	assert.Empty(t, matches)
}

func TestMatch_InvalidRegexDoesNotMatch(t *testing.T) {
	matcher := NewMatcher(log.WithModule("test"))
	workflow := messageWorkflow(models.MatchTypeRegex, `([`)

	matches := matcher.Match([]*models.Workflow{workflow}, testutil.MessageEvent("s-1", "c-1", "anything"))
	assert.Empty(t, matches)
}

func TestMatch_SessionFilter(t *testing.T) {
	matcher := NewMatcher(log.WithModule("test"))
	workflow := testutil.Workflow(testutil.WithGraph(
		[]*models.WorkflowNode{
			testutil.Node("t-1", models.NodeTypeTriggerMessage, map[string]any{
				"sessionId": "s-1",
				"matchType": "contains",
				"pattern":   "hi",
			}),
		},
		nil,
	))

	matches := matcher.Match([]*models.Workflow{workflow}, testutil.MessageEvent("s-1", "c-1", "hi"))
	assert.Len(t, matches, 1)

	matches = matcher.Match([]*models.Workflow{workflow}, testutil.MessageEvent("s-2", "c-1", "hi"))
	assert.Empty(t, matches)
}

func TestMatch_InactiveWorkflowSkipped(t *testing.T) {
	matcher := NewMatcher(log.WithModule("test"))
	workflow := messageWorkflow(models.MatchTypeContains, "hi")
	workflow.IsActive = false

	matches := matcher.Match([]*models.Workflow{workflow}, testutil.MessageEvent("s-1", "c-1", "hi"))
	assert.Empty(t, matches)
}

func TestMatch_FirstTriggerPerWorkflowWins(t *testing.T) {
	matcher := NewMatcher(log.WithModule("test"))
	workflow := testutil.Workflow(testutil.WithGraph(
		[]*models.WorkflowNode{
			testutil.Node("t-1", models.NodeTypeTriggerMessage, map[string]any{
				"matchType": "contains", "pattern": "hello",
			}),
			testutil.Node("t-2", models.NodeTypeTriggerMessage, map[string]any{
				"matchType": "contains", "pattern": "hello",
			}),
		},
		nil,
	))

	matches := matcher.Match([]*models.Workflow{workflow}, testutil.MessageEvent("s-1", "c-1", "hello there"))
	require.Len(t, matches, 1)
	assert.Equal(t, "t-1", matches[0].TriggerNode.ID)
}

func TestMatch_ScheduleRequiresWorkflowID(t *testing.T) {
	matcher := NewMatcher(log.WithModule("test"))
	workflow := testutil.Workflow(testutil.WithGraph(
		[]*models.WorkflowNode{
			testutil.Node("t-1", models.NodeTypeTriggerSchedule, map[string]any{
				"cron": "0 9 * * *",
			}),
		},
		nil,
	))

	event := &models.InboundEvent{
		ContactID:  "system",
		Signal:     models.SignalSchedule,
		Timestamp:  time.Now().UTC(),
		WorkflowID: workflow.ID,
	}
	assert.Len(t, matcher.Match([]*models.Workflow{workflow}, event), 1)

	event.WorkflowID = "someone-else"
	assert.Empty(t, matcher.Match([]*models.Workflow{workflow}, event))
}

func TestMatch_ManualSignal(t *testing.T) {
	matcher := NewMatcher(log.WithModule("test"))
	workflow := testutil.Workflow(testutil.WithGraph(
		[]*models.WorkflowNode{
			testutil.Node("t-1", models.NodeTypeTriggerManual, map[string]any{}),
		},
		nil,
	))

	event := &models.InboundEvent{
		SessionID:  "s-1",
		ContactID:  "c-1",
		Signal:     models.SignalManual,
		Timestamp:  time.Now().UTC(),
		WorkflowID: workflow.ID,
	}
	assert.Len(t, matcher.Match([]*models.Workflow{workflow}, event), 1)

	// A message signal must not fire a manual trigger.
	assert.Empty(t, matcher.Match([]*models.Workflow{workflow}, testutil.MessageEvent("s-1", "c-1", "hi")))
}
