package models

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/go-playground/validator/v10"
	"github.com/robfig/cron/v3"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// ErrNoTriggerNode is returned when a workflow has no trigger node at all.
var ErrNoTriggerNode = errors.New("workflow has no trigger node")

// Validate checks the workflow graph before activation: struct constraints,
// unique node ids, dangling edge references, decodable node configs, and
// trigger-specific requirements. Runtime-only conditions (missing branch
// edges) are deliberately not checked here.
func (w *Workflow) Validate() error {
	if err := validate.Struct(w); err != nil {
		return fmt.Errorf("workflow %s: %w", w.ID, err)
	}

	seen := make(map[string]bool, len(w.Nodes))

	for _, node := range w.Nodes {
		if seen[node.ID] {
			return fmt.Errorf("workflow %s: duplicate node id %q", w.ID, node.ID)
		}

		seen[node.ID] = true

		config, err := node.DecodeConfig()
		if err != nil {
			return fmt.Errorf("workflow %s: %w", w.ID, err)
		}

		if err := validateNodeConfig(w, node, config); err != nil {
			return fmt.Errorf("workflow %s: node %s: %w", w.ID, node.ID, err)
		}
	}

	for _, edge := range w.Edges {
		if !seen[edge.Source] {
			return fmt.Errorf("workflow %s: edge %s references missing source node %q", w.ID, edge.ID, edge.Source)
		}

		if !seen[edge.Target] {
			return fmt.Errorf("workflow %s: edge %s references missing target node %q", w.ID, edge.ID, edge.Target)
		}
	}

	if len(w.TriggerNodes()) == 0 {
		return fmt.Errorf("workflow %s: %w", w.ID, ErrNoTriggerNode)
	}

	return nil
}

func validateNodeConfig(w *Workflow, node *WorkflowNode, config any) error {
	switch cfg := config.(type) {
	case *TriggerMessageConfig:
		switch cfg.MatchType {
		case MatchTypeExact, MatchTypeContains:
			if cfg.Pattern == "" {
				return errors.New("missing required field 'pattern'")
			}
		case MatchTypeRegex:
			if _, err := regexp.Compile(cfg.Pattern); err != nil {
				return fmt.Errorf("invalid pattern: %w", err)
			}
		default:
			return fmt.Errorf("unknown matchType %q", cfg.MatchType)
		}
	case *TriggerScheduleConfig:
		if _, err := cron.ParseStandard(cfg.Cron); err != nil {
			return fmt.Errorf("invalid cron expression: %w", err)
		}
	case *SendMessageConfig:
		if cfg.Text == "" {
			return errors.New("missing required field 'text'")
		}
	case *SendMediaConfig:
		if cfg.MediaURL == "" {
			return errors.New("missing required field 'mediaUrl'")
		}
	case *SendButtonsConfig:
		if len(cfg.Buttons) == 0 {
			return errors.New("missing required field 'buttons'")
		}
	case *SendListConfig:
		if len(cfg.Sections) == 0 {
			return errors.New("missing required field 'sections'")
		}
	case *HTTPRequestConfig:
		if cfg.URL == "" {
			return errors.New("missing required field 'url'")
		}
	case *HTTPScrapeConfig:
		if cfg.URL == "" {
			return errors.New("missing required field 'url'")
		}
	case *CodeConfig:
		if cfg.Script == "" {
			return errors.New("missing required field 'script'")
		}
	case *SwitchConfig:
		if len(cfg.Rules) == 0 && cfg.FallbackOutput == "" {
			return errors.New("switch requires rules or fallbackOutput")
		}
	case *ConditionConfig:
		if cfg.Expression == "" {
			return errors.New("missing required field 'expression'")
		}
	case *WaitReplyConfig:
		if cfg.SaveAs == "" {
			return errors.New("missing required field 'saveAs'")
		}

		if cfg.TimeoutSeconds <= 0 {
			return errors.New("timeoutSeconds must be positive")
		}

		if cfg.OnTimeout == TimeoutBehaviorGotoNode {
			if cfg.TimeoutTargetNodeID == "" {
				return errors.New("GOTO_NODE requires timeoutTargetNodeId")
			}

			if w.NodeByID(cfg.TimeoutTargetNodeID) == nil {
				return fmt.Errorf("timeoutTargetNodeId %q not found", cfg.TimeoutTargetNodeID)
			}
		}
	case *WaitConfig:
		if cfg.Amount <= 0 {
			return errors.New("amount must be positive")
		}

		switch cfg.Unit {
		case WaitUnitSeconds, WaitUnitMinutes, WaitUnitHours, WaitUnitDays:
		default:
			return fmt.Errorf("unknown unit %q", cfg.Unit)
		}
	case *ManageLabelsConfig:
		switch cfg.Action {
		case "add", "remove":
			if len(cfg.Labels) == 0 {
				return errors.New("missing required field 'labels'")
			}
		case "list":
		default:
			return fmt.Errorf("unknown action %q", cfg.Action)
		}
	case *SetTagsConfig:
		if len(cfg.Tags) == 0 {
			return errors.New("missing required field 'tags'")
		}
	}

	return nil
}
