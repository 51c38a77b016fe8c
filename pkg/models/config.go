package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// MatchType selects how a message trigger compares inbound text.
type MatchType string

const (
	MatchTypeExact    MatchType = "exact"
	MatchTypeRegex    MatchType = "regex"
	MatchTypeContains MatchType = "contains"
)

// WaitUnit is the time unit of a WAIT node.
type WaitUnit string

const (
	WaitUnitSeconds WaitUnit = "seconds"
	WaitUnitMinutes WaitUnit = "minutes"
	WaitUnitHours   WaitUnit = "hours"
	WaitUnitDays    WaitUnit = "days"
)

// Duration converts an amount of this unit into a time.Duration.
// Unknown units fall back to seconds.
func (u WaitUnit) Duration(amount int) time.Duration {
	switch u {
	case WaitUnitMinutes:
		return time.Duration(amount) * time.Minute
	case WaitUnitHours:
		return time.Duration(amount) * time.Hour
	case WaitUnitDays:
		return time.Duration(amount) * 24 * time.Hour
	default:
		return time.Duration(amount) * time.Second
	}
}

// TimeoutBehavior controls what a WAIT_REPLY node does when its deadline passes.
type TimeoutBehavior string

const (
	TimeoutBehaviorEnd      TimeoutBehavior = "END"
	TimeoutBehaviorGotoNode TimeoutBehavior = "GOTO_NODE"
)

// SwitchOperator compares the two sides of a switch rule.
type SwitchOperator string

const (
	OperatorEquals       SwitchOperator = "=="
	OperatorNotEquals    SwitchOperator = "!="
	OperatorGreater      SwitchOperator = ">"
	OperatorLess         SwitchOperator = "<"
	OperatorGreaterEqual SwitchOperator = ">="
	OperatorLessEqual    SwitchOperator = "<="
	OperatorContains     SwitchOperator = "contains"
)

type TriggerMessageConfig struct {
	SessionID string    `json:"sessionId,omitempty"`
	MatchType MatchType `json:"matchType"`
	Pattern   string    `json:"pattern"`
}

type TriggerScheduleConfig struct {
	Cron      string `json:"cron"`
	SessionID string `json:"sessionId,omitempty"`
}

type TriggerManualConfig struct {
	SessionID string `json:"sessionId,omitempty"`
}

type SendMessageConfig struct {
	Text    string `json:"text"`
	DelayMs int    `json:"delayMs,omitempty"`
}

type SendMediaConfig struct {
	MediaURL  string `json:"mediaUrl"`
	MediaType string `json:"mediaType"`
	Caption   string `json:"caption,omitempty"`
	DelayMs   int    `json:"delayMs,omitempty"`
}

type Button struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

type SendButtonsConfig struct {
	Text    string   `json:"text"`
	Buttons []Button `json:"buttons"`
	DelayMs int      `json:"delayMs,omitempty"`
}

type ListRow struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
}

type ListSection struct {
	Title string    `json:"title"`
	Rows  []ListRow `json:"rows"`
}

type SendListConfig struct {
	Text       string        `json:"text"`
	ButtonText string        `json:"buttonText"`
	Sections   []ListSection `json:"sections"`
	DelayMs    int           `json:"delayMs,omitempty"`
}

type HTTPRequestConfig struct {
	URL             string            `json:"url"`
	Method          string            `json:"method,omitempty"`
	Headers         map[string]string `json:"headers,omitempty"`
	Body            string            `json:"body,omitempty"`
	TimeoutSeconds  int               `json:"timeoutSeconds,omitempty"`
	FollowRedirects *bool             `json:"followRedirects,omitempty"`
	InsecureTLS     bool              `json:"insecureTls,omitempty"`
	SaveResponseAs  string            `json:"saveResponseAs,omitempty"`
}

type HTTPScrapeConfig struct {
	URL            string `json:"url"`
	WaitStrategy   string `json:"waitStrategy,omitempty"` // networkIdle, selector, load
	WaitSelector   string `json:"waitSelector,omitempty"`
	Script         string `json:"script,omitempty"`
	Selector       string `json:"selector,omitempty"`
	ExtractType    string `json:"extractType,omitempty"` // text, html, attribute
	Attribute      string `json:"attribute,omitempty"`
	Screenshot     bool   `json:"screenshot,omitempty"`
	TimeoutSeconds int    `json:"timeoutSeconds,omitempty"`
	SaveResponseAs string `json:"saveResponseAs,omitempty"`
}

// CodeMode selects how a CODE node applies its script to the context.
type CodeMode string

const (
	CodeModeRunOnceForAllItems CodeMode = "runOnceForAllItems"
	CodeModeRunOnceForEachItem CodeMode = "runOnceForEachItem"
)

type CodeConfig struct {
	Script    string   `json:"script"`
	Mode      CodeMode `json:"mode,omitempty"`
	ItemsPath string   `json:"itemsPath,omitempty"` // dotted path to the list for runOnceForEachItem
	SaveAs    string   `json:"saveAs,omitempty"`
}

type FieldAssignment struct {
	Name  string `json:"name"`
	Value string `json:"value"`
	Type  string `json:"type,omitempty"` // string, number, boolean, json
}

type EditFieldsConfig struct {
	Mode               string            `json:"mode,omitempty"` // json or fields
	JSON               map[string]any    `json:"json,omitempty"`
	Fields             []FieldAssignment `json:"fields,omitempty"`
	IncludeOtherFields bool              `json:"includeOtherFields,omitempty"`
}

type ManageLabelsConfig struct {
	Action string   `json:"action"` // add, remove, list
	Labels []string `json:"labels,omitempty"`
	SaveAs string   `json:"saveAs,omitempty"`
}

type SetTagsConfig struct {
	Tags []string `json:"tags"`
}

type ConditionConfig struct {
	Expression string `json:"expression"`
}

type SwitchRule struct {
	Value1    string         `json:"value1"`
	Operator  SwitchOperator `json:"operator"`
	Value2    string         `json:"value2"`
	OutputKey string         `json:"outputKey"`
}

type SwitchConfig struct {
	Rules          []SwitchRule `json:"rules"`
	FallbackOutput string       `json:"fallbackOutput,omitempty"`
}

type WaitReplyConfig struct {
	SaveAs              string          `json:"saveAs"`
	TimeoutSeconds      int             `json:"timeoutSeconds"`
	OnTimeout           TimeoutBehavior `json:"onTimeout,omitempty"`
	TimeoutTargetNodeID string          `json:"timeoutTargetNodeId,omitempty"`
}

type WaitConfig struct {
	Amount          int      `json:"amount"`
	Unit            WaitUnit `json:"unit"`
	ResumeOnMessage bool     `json:"resumeOnMessage,omitempty"`
}

type EndConfig struct {
	OutputVariables []string `json:"outputVariables,omitempty"`
}

// DecodeConfig parses the node's raw config payload into its typed variant.
// The switch is exhaustive over AllNodeTypes; unknown types are rejected so
// they surface at workflow validation, not mid-execution.
func (n *WorkflowNode) DecodeConfig() (any, error) {
	raw := n.Config
	if len(raw) == 0 {
		raw = json.RawMessage("{}")
	}

	decode := func(dst any) (any, error) {
		if err := json.Unmarshal(raw, dst); err != nil {
			return nil, fmt.Errorf("node %s: invalid %s config: %w", n.ID, n.Type, err)
		}

		return dst, nil
	}

	switch n.Type {
	case NodeTypeTriggerMessage:
		return decode(&TriggerMessageConfig{})
	case NodeTypeTriggerSchedule:
		return decode(&TriggerScheduleConfig{})
	case NodeTypeTriggerManual:
		return decode(&TriggerManualConfig{})
	case NodeTypeSendMessage:
		return decode(&SendMessageConfig{})
	case NodeTypeSendMedia:
		return decode(&SendMediaConfig{})
	case NodeTypeSendButtons:
		return decode(&SendButtonsConfig{})
	case NodeTypeSendList:
		return decode(&SendListConfig{})
	case NodeTypeHTTPRequest:
		return decode(&HTTPRequestConfig{})
	case NodeTypeHTTPScrape:
		return decode(&HTTPScrapeConfig{})
	case NodeTypeCode:
		return decode(&CodeConfig{})
	case NodeTypeEditFields:
		return decode(&EditFieldsConfig{})
	case NodeTypeManageLabels:
		return decode(&ManageLabelsConfig{})
	case NodeTypeSetTags:
		return decode(&SetTagsConfig{})
	case NodeTypeCondition:
		return decode(&ConditionConfig{})
	case NodeTypeSwitch:
		return decode(&SwitchConfig{})
	case NodeTypeWaitReply:
		return decode(&WaitReplyConfig{})
	case NodeTypeWait:
		return decode(&WaitConfig{})
	case NodeTypeEnd:
		return decode(&EndConfig{})
	default:
		return nil, fmt.Errorf("node %s: unknown node type %q", n.ID, n.Type)
	}
}
