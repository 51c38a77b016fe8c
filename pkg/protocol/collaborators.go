package protocol

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/zapflowhq/zapflow/pkg/models"
)

// SendPayload is the channel-neutral message shape dispatched by send nodes.
type SendPayload struct {
	Type       string               `json:"type"` // text, media, buttons, list
	Text       string               `json:"text,omitempty"`
	MediaType  string               `json:"mediaType,omitempty"`
	Media      []byte               `json:"-"`
	Caption    string               `json:"caption,omitempty"`
	Buttons    []models.Button      `json:"buttons,omitempty"`
	ButtonText string               `json:"buttonText,omitempty"`
	Sections   []models.ListSection `json:"sections,omitempty"`
}

// DeliveryResult reports a successful channel dispatch.
type DeliveryResult struct {
	MessageID string    `json:"messageId"`
	Timestamp time.Time `json:"timestamp"`
}

// ChannelAdapter is the messaging-channel collaborator. Delivery is
// at-least-once; send failures are reported, not retried.
type ChannelAdapter interface {
	Send(ctx context.Context, sessionID, contactID string, payload SendPayload) (*DeliveryResult, error)
}

// LabelService is the tag/label collaborator.
type LabelService interface {
	Mutate(ctx context.Context, tenantID, contactID, action string, values []string) error
	List(ctx context.Context, contactID string) ([]string, error)
}

// MediaResolver fetches media bytes for SEND_MEDIA source references.
type MediaResolver interface {
	Resolve(ctx context.Context, ref string) ([]byte, error)
}

// Page is an opaque handle to a loaded browser page.
type Page interface {
	Close(ctx context.Context) error
}

// WaitSpec tells the browser driver when a navigation counts as done.
type WaitSpec struct {
	Strategy string // networkIdle, selector, load
	Selector string
	Timeout  time.Duration
}

// BrowserDriver is the headless-browser collaborator used by HTTP_SCRAPE.
type BrowserDriver interface {
	Navigate(ctx context.Context, url string, wait WaitSpec) (Page, error)
	RunScript(ctx context.Context, page Page, script string) (any, error)
	Extract(ctx context.Context, page Page, selector, extractType, attribute string) (any, error)
	Screenshot(ctx context.Context, page Page) ([]byte, error)
}

// SandboxLimits bounds one sandboxed script run.
type SandboxLimits struct {
	Timeout time.Duration
}

// CodeSandbox runs user scripts with no ambient I/O capability beyond the
// injected input.
type CodeSandbox interface {
	Run(ctx context.Context, script string, input map[string]any, limits SandboxLimits) (any, error)
}

// Dependencies bundles the collaborators handed to executor factories.
type Dependencies struct {
	Logger     *slog.Logger
	Channel    ChannelAdapter
	Labels     LabelService
	Media      MediaResolver
	Browser    BrowserDriver
	Sandbox    CodeSandbox
	HTTPClient *http.Client
}
