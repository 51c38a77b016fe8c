package registry

import (
	"github.com/zapflowhq/zapflow/pkg/nodes/code"
	"github.com/zapflowhq/zapflow/pkg/nodes/conditional"
	"github.com/zapflowhq/zapflow/pkg/nodes/editfields"
	"github.com/zapflowhq/zapflow/pkg/nodes/end"
	"github.com/zapflowhq/zapflow/pkg/nodes/httprequest"
	"github.com/zapflowhq/zapflow/pkg/nodes/labels"
	"github.com/zapflowhq/zapflow/pkg/nodes/scrape"
	"github.com/zapflowhq/zapflow/pkg/nodes/send"
	switchnode "github.com/zapflowhq/zapflow/pkg/nodes/switch"
	"github.com/zapflowhq/zapflow/pkg/nodes/trigger"
	"github.com/zapflowhq/zapflow/pkg/nodes/wait"
	"github.com/zapflowhq/zapflow/pkg/nodes/waitreply"
)

// RegisterDefaultNodes registers every built-in node executor factory.
func (r *Registry) RegisterDefaultNodes() {
	r.Register(trigger.NewMessageTriggerFactory())
	r.Register(trigger.NewScheduleTriggerFactory())
	r.Register(trigger.NewManualTriggerFactory())

	r.Register(send.NewMessageNodeFactory())
	r.Register(send.NewMediaNodeFactory())
	r.Register(send.NewButtonsNodeFactory())
	r.Register(send.NewListNodeFactory())

	r.Register(httprequest.NewHTTPRequestNodeFactory())
	r.Register(scrape.NewScrapeNodeFactory())
	r.Register(code.NewCodeNodeFactory())

	r.Register(editfields.NewEditFieldsNodeFactory())
	r.Register(labels.NewManageLabelsNodeFactory())
	r.Register(labels.NewSetTagsNodeFactory())

	r.Register(conditional.NewConditionNodeFactory())
	r.Register(switchnode.NewSwitchNodeFactory())

	r.Register(waitreply.NewWaitReplyNodeFactory())
	r.Register(wait.NewWaitNodeFactory())
	r.Register(end.NewEndNodeFactory())
}
