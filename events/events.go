// Package events publishes order lifecycle events after the owning unit of
// work has committed.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"marketplace/logger"
	models "marketplace/model"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	TypeOrderReceived = "order.received"
	TypeOrderShipped  = "order.shipped"

	DefaultQueue = "marketplace.orders"
)

// Event is the JSON body of every published message.
type Event struct {
	Type       string            `json:"type"`
	OrderID    string            `json:"order_id"`
	CustomerID string            `json:"customer_id"`
	OccurredAt time.Time         `json:"occurred_at"`
	Lines      []models.CartLine `json:"lines,omitempty"`
}

// OrderEvent builds the event for an order that just reached RECEIVED or
// SHIPPED.
func OrderEvent(o models.Order) Event {
	ev := Event{OrderID: o.ID, CustomerID: o.CustomerID, Lines: o.Lines}
	switch o.Status {
	case models.StatusShipped:
		ev.Type = TypeOrderShipped
		if o.ShippingTime != nil {
			ev.OccurredAt = *o.ShippingTime
		}
	default:
		ev.Type = TypeOrderReceived
		if o.OrderTime != nil {
			ev.OccurredAt = *o.OrderTime
		}
	}
	return ev
}

type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

// NopPublisher drops every event.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }

// channel is the part of *amqp.Channel the publisher uses.
type channel interface {
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

type dialFunc func(url string) (channel, func() error, error)

// AMQPPublisher sends events to a durable RabbitMQ queue. It dials per
// publish; order events are rare compared to cart traffic.
type AMQPPublisher struct {
	url   string
	queue string
	dial  dialFunc
}

func NewAMQPPublisher(url, queue string) *AMQPPublisher {
	if queue == "" {
		queue = DefaultQueue
	}
	return &AMQPPublisher{url: url, queue: queue, dial: dialAMQP}
}

func dialAMQP(url string) (channel, func() error, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, nil, err
	}
	return ch, conn.Close, nil
}

func (p *AMQPPublisher) Publish(ctx context.Context, ev Event) error {
	msg, err := newPublishing(ev)
	if err != nil {
		return err
	}

	ch, closeConn, err := p.dial(p.url)
	if err != nil {
		return fmt.Errorf("rabbitmq dial: %w", err)
	}
	defer func() { _ = closeConn() }()
	defer func() { _ = ch.Close() }()

	if _, err := ch.QueueDeclare(p.queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("rabbitmq queue declare: %w", err)
	}
	if err := ch.PublishWithContext(ctx, "", p.queue, false, false, msg); err != nil {
		return fmt.Errorf("rabbitmq publish: %w", err)
	}
	logger.Debug("event published", map[string]interface{}{
		"type":     ev.Type,
		"order_id": ev.OrderID,
		"queue":    p.queue,
	})
	return nil
}

func newPublishing(ev Event) (amqp.Publishing, error) {
	body, err := json.Marshal(ev)
	if err != nil {
		return amqp.Publishing{}, fmt.Errorf("marshal event: %w", err)
	}
	return amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Type:         ev.Type,
		MessageId:    ev.OrderID + ":" + ev.Type,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}, nil
}
