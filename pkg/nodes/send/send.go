// Package send provides the outbound message node executors. All variants
// resolve templates against the execution context, honor the optional
// per-message delay, and record the delivery result under the node's output.
package send

import (
	"context"
	"fmt"
	"time"

	"github.com/zapflowhq/zapflow/pkg/models"
	"github.com/zapflowhq/zapflow/pkg/protocol"
)

// target reads the delivery address seeded into the globals scope when the
// execution started.
func target(execCtx *models.ExecutionContext) (sessionID, contactID string, err error) {
	sessionID, _ = execCtx.Globals["sessionId"].(string)
	contactID, _ = execCtx.Globals["contactId"].(string)

	if sessionID == "" || contactID == "" {
		return "", "", fmt.Errorf("execution context has no delivery target")
	}

	return sessionID, contactID, nil
}

// applyDelay pauses before sending, honoring context cancellation.
func applyDelay(ctx context.Context, delayMs int) error {
	if delayMs <= 0 {
		return nil
	}

	timer := time.NewTimer(time.Duration(delayMs) * time.Millisecond)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// deliveryOutput is what send nodes store under output[nodeID].
func deliveryOutput(result *protocol.DeliveryResult) map[string]any {
	return map[string]any{
		"messageId": result.MessageID,
		"timestamp": result.Timestamp.UTC().Format(time.RFC3339),
	}
}
