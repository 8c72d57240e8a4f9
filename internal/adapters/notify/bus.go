package notify

import (
	"context"
	"log/slog"
	"sync"

	"dispatch-route-service/internal/domain"
	"dispatch-route-service/internal/ports"
)

// Subscriber receives dispatch events. Callbacks run on the publisher's
// goroutine, so events for one driver arrive in emission order; a slow or
// panicking subscriber must not take the dispatcher down.
type Subscriber func(domain.Event)

// Bus is the in-process DispatchNotifier: a best-effort fanout to
// registered callbacks, optionally mirrored to external publishers
// (e.g. AMQP) attached at composition time.
type Bus struct {
	mu      sync.RWMutex
	subs    []Subscriber
	mirrors []ports.EventPublisher
}

func NewBus() *Bus { return &Bus{} }

// Subscribe registers a callback for all subsequent events.
func (b *Bus) Subscribe(fn Subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs = append(b.subs, fn)
}

// Attach mirrors every event to an additional publisher.
func (b *Bus) Attach(p ports.EventPublisher) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.mirrors = append(b.mirrors, p)
}

func (b *Bus) Publish(ctx context.Context, event domain.Event) {
	b.mu.RLock()
	subs := b.subs
	mirrors := b.mirrors
	b.mu.RUnlock()

	for _, fn := range subs {
		deliver(fn, event)
	}
	for _, p := range mirrors {
		p.Publish(ctx, event)
	}
}

func deliver(fn Subscriber, event domain.Event) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("event subscriber panicked", "kind", event.Kind, "driver_id", event.DriverID, "panic", r)
		}
	}()
	fn(event)
}
