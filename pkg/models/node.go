package models

import "encoding/json"

// NodeType tags the variant of a workflow node. The string values are part of
// the wire/storage schema and must not change.
type NodeType string

const (
	NodeTypeTriggerMessage  NodeType = "TRIGGER_MESSAGE"
	NodeTypeTriggerSchedule NodeType = "TRIGGER_SCHEDULE"
	NodeTypeTriggerManual   NodeType = "TRIGGER_MANUAL"
	NodeTypeSendMessage     NodeType = "SEND_MESSAGE"
	NodeTypeSendMedia       NodeType = "SEND_MEDIA"
	NodeTypeSendButtons     NodeType = "SEND_BUTTONS"
	NodeTypeSendList        NodeType = "SEND_LIST"
	NodeTypeHTTPRequest     NodeType = "HTTP_REQUEST"
	NodeTypeHTTPScrape      NodeType = "HTTP_SCRAPE"
	NodeTypeCode            NodeType = "CODE"
	NodeTypeEditFields      NodeType = "EDIT_FIELDS"
	NodeTypeManageLabels    NodeType = "MANAGE_LABELS"
	NodeTypeSetTags         NodeType = "SET_TAGS"
	NodeTypeCondition       NodeType = "CONDITION"
	NodeTypeSwitch          NodeType = "SWITCH"
	NodeTypeWaitReply       NodeType = "WAIT_REPLY"
	NodeTypeWait            NodeType = "WAIT"
	NodeTypeEnd             NodeType = "END"
)

// AllNodeTypes lists every known node type. Workflow validation rejects
// anything outside this set.
var AllNodeTypes = []NodeType{
	NodeTypeTriggerMessage,
	NodeTypeTriggerSchedule,
	NodeTypeTriggerManual,
	NodeTypeSendMessage,
	NodeTypeSendMedia,
	NodeTypeSendButtons,
	NodeTypeSendList,
	NodeTypeHTTPRequest,
	NodeTypeHTTPScrape,
	NodeTypeCode,
	NodeTypeEditFields,
	NodeTypeManageLabels,
	NodeTypeSetTags,
	NodeTypeCondition,
	NodeTypeSwitch,
	NodeTypeWaitReply,
	NodeTypeWait,
	NodeTypeEnd,
}

func (t NodeType) IsTrigger() bool {
	switch t {
	case NodeTypeTriggerMessage, NodeTypeTriggerSchedule, NodeTypeTriggerManual:
		return true
	default:
		return false
	}
}

func (t NodeType) Valid() bool {
	for _, known := range AllNodeTypes {
		if t == known {
			return true
		}
	}

	return false
}

// Position is presentation-only layout data, ignored by the engine.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// WorkflowNode is a node instance in a workflow. Config holds the raw
// type-specific payload; DecodeConfig turns it into the typed variant.
type WorkflowNode struct {
	ID       string          `json:"id"   validate:"required"`
	Type     NodeType        `json:"type" validate:"required"`
	Config   json.RawMessage `json:"config,omitempty"`
	Position *Position       `json:"position,omitempty"`
}
