package cache

import (
	"context"
	"fmt"
	"strings"
	"time"
)

const webhookEventTTL = 24 * time.Hour

func webhookEventKey(eventID string) string {
	return fmt.Sprintf("webhook:event:%s", strings.TrimSpace(eventID))
}

// ClaimWebhookEvent marks a gateway event ID as seen. Returns true when
// this delivery is the first one. The database-side payment-status
// precondition remains the hard idempotency guarantee; this only saves
// redundant work on retried deliveries.
func ClaimWebhookEvent(ctx context.Context, eventID string) (bool, error) {
	if strings.TrimSpace(eventID) == "" {
		return true, nil
	}
	return SetNX(ctx, webhookEventKey(eventID), "1", webhookEventTTL)
}
