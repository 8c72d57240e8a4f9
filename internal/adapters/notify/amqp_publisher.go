package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"dispatch-route-service/internal/domain"
)

const dispatchExchange = "dispatch_events"

// AMQPPublisher mirrors dispatch events onto a topic exchange with routing
// keys of the form dispatch.<kind>.<driver_id>, so external consumers can
// bind per kind or per driver. Delivery is best-effort: a publish failure
// is logged and dropped, consumers recover by polling current state.
type AMQPPublisher struct {
	conn *amqp.Connection
	ch   *amqp.Channel
}

func DialAMQP(url string) (*AMQPPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial amqp: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open amqp channel: %w", err)
	}
	if err := ch.ExchangeDeclare(dispatchExchange, "topic", true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("declare exchange %s: %w", dispatchExchange, err)
	}
	return &AMQPPublisher{conn: conn, ch: ch}, nil
}

func (p *AMQPPublisher) Close() {
	if p == nil {
		return
	}
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		_ = p.conn.Close()
	}
}

type eventEnvelope struct {
	Kind     string              `json:"kind"`
	DriverID string              `json:"driver_id"`
	RouteID  string              `json:"route_id,omitempty"`
	OrderIDs []string            `json:"order_ids,omitempty"`
	Alert    *domain.DriverAlert `json:"alert,omitempty"`
	At       time.Time           `json:"at"`
}

func (p *AMQPPublisher) Publish(ctx context.Context, event domain.Event) {
	body, err := json.Marshal(eventEnvelope{
		Kind:     string(event.Kind),
		DriverID: event.DriverID,
		RouteID:  event.RouteID,
		OrderIDs: event.OrderIDs,
		Alert:    event.Alert,
		At:       event.At,
	})
	if err != nil {
		slog.Error("amqp publish: marshal event", "kind", event.Kind, "err", err)
		return
	}

	key := fmt.Sprintf("dispatch.%s.%s", event.Kind, event.DriverID)
	err = p.ch.PublishWithContext(ctx, dispatchExchange, key, false, false, amqp.Publishing{
		DeliveryMode: amqp.Persistent,
		Timestamp:    event.At,
		ContentType:  "application/json",
		Body:         body,
	})
	if err != nil {
		slog.Error("amqp publish failed", "kind", event.Kind, "driver_id", event.DriverID, "err", err)
	}
}
