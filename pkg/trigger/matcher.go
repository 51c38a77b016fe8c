// Package trigger matches inbound events against workflow trigger nodes.
package trigger

import (
	"log/slog"
	"regexp"
	"strings"

	"github.com/zapflowhq/zapflow/pkg/models"
)

// Match pairs a workflow with the trigger node that admitted the event.
type Match struct {
	Workflow    *models.Workflow
	TriggerNode *models.WorkflowNode
}

// Matcher evaluates trigger nodes against inbound events.
type Matcher struct {
	logger *slog.Logger
}

// NewMatcher creates a new trigger matcher.
func NewMatcher(logger *slog.Logger) *Matcher {
	return &Matcher{logger: logger.With("module", "trigger_matcher")}
}

// Match returns at most one match per workflow: trigger nodes are evaluated in
// declaration order and the first satisfied one wins. Inactive workflows are
// skipped.
func (m *Matcher) Match(workflows []*models.Workflow, event *models.InboundEvent) []Match {
	var matches []Match

	for _, workflow := range workflows {
		if !workflow.IsActive {
			continue
		}

		for _, node := range workflow.TriggerNodes() {
			if m.satisfies(workflow, node, event) {
				matches = append(matches, Match{Workflow: workflow, TriggerNode: node})

				m.logger.Debug("trigger matched",
					"workflow_id", workflow.ID,
					"node_id", node.ID,
					"signal", event.Signal)

				break
			}
		}
	}

	return matches
}

func (m *Matcher) satisfies(workflow *models.Workflow, node *models.WorkflowNode, event *models.InboundEvent) bool {
	config, err := node.DecodeConfig()
	if err != nil {
		m.logger.Warn("skipping trigger with invalid config",
			"workflow_id", workflow.ID,
			"node_id", node.ID,
			"error", err)

		return false
	}

	switch trigger := config.(type) {
	case *models.TriggerMessageConfig:
		if event.Signal != models.SignalMessage {
			return false
		}

		if trigger.SessionID != "" && trigger.SessionID != event.SessionID {
			return false
		}

		return matchText(trigger.MatchType, trigger.Pattern, event.Text)
	case *models.TriggerScheduleConfig:
		// Schedule firings carry the workflow they were scheduled for.
		return event.Signal == models.SignalSchedule && event.WorkflowID == workflow.ID
	case *models.TriggerManualConfig:
		if event.Signal != models.SignalManual || event.WorkflowID != workflow.ID {
			return false
		}

		return trigger.SessionID == "" || trigger.SessionID == event.SessionID
	default:
		return false
	}
}

// matchText applies the configured comparison. Regex patterns were validated
// at workflow save time; one that fails to compile here simply does not match.
func matchText(matchType models.MatchType, pattern, text string) bool {
	switch matchType {
	case models.MatchTypeExact:
		return text == pattern
	case models.MatchTypeContains:
		return strings.Contains(strings.ToLower(text), strings.ToLower(pattern))
	case models.MatchTypeRegex:
		matched, err := regexp.MatchString(pattern, text)

		return err == nil && matched
	default:
		return false
	}
}
