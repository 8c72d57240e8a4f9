package ports

import (
	"context"

	"dispatch-route-service/internal/domain"
)

// Contract for publishing dispatch events to external subscribers.
// Delivery is best-effort and at-least-once; emission order is preserved
// per driver. A missed event is recoverable by polling current state.
type EventPublisher interface {
	Publish(ctx context.Context, event domain.Event)
}
