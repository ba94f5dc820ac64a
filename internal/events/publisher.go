package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/order"
)

// publishChannel is the subset of *amqp.Channel the publisher uses.
type publishChannel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

type Publisher struct {
	mu       sync.Mutex
	ch       publishChannel
	exchange string
	now      func() time.Time
}

func NewPublisher(conn *amqp.Connection, exchange string) (*Publisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("open channel: %w", err)
	}

	if err := declareEventsExchange(ch, exchange); err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("declare events exchange: %w", err)
	}

	return newPublisher(ch, exchange), nil
}

func newPublisher(ch publishChannel, exchange string) *Publisher {
	return &Publisher{ch: ch, exchange: exchange, now: time.Now}
}

func (p *Publisher) Close() error {
	return p.ch.Close()
}

// PublishOrderPlaced announces a new order and its line items.
func (p *Publisher) PublishOrderPlaced(ctx context.Context, o order.Order) error {
	created := newEnvelope(EventOrderCreated, o.ID, "", OrderCreatedPayload{
		OrderID:     o.ID,
		UserID:      o.UserID,
		TotalAmount: o.TotalAmount,
		Status:      string(o.Status),
	}, p.now())
	if err := p.publish(ctx, OrderCreatedRoutingKey, created); err != nil {
		return err
	}

	items := newEnvelope(EventOrderItemsCreated, o.ID, created.EventID, OrderItemsCreatedPayload{
		OrderID:   o.ID,
		ItemCount: len(o.Items),
	}, p.now())
	return p.publish(ctx, OrderItemsCreatedRoutingKey, items)
}

func (p *Publisher) PublishStatusChanged(ctx context.Context, o order.Order, from order.Status) error {
	ev := newEnvelope(EventOrderStatusChanged, o.ID, "", OrderStatusChangedPayload{
		OrderID: o.ID,
		From:    string(from),
		To:      string(o.Status),
	}, p.now())
	return p.publish(ctx, OrderStatusChangedRoutingKey, ev)
}

func (p *Publisher) PublishCourierAssigned(ctx context.Context, adminID string, assignments []order.Assignment) error {
	payload := OrderCourierAssignedPayload{AdminID: adminID}
	for _, a := range assignments {
		payload.Assignments = append(payload.Assignments, CourierAssignment{OrderID: a.OrderID, CourierNo: a.CourierNo})
	}
	ev := newEnvelope(EventOrderCourierAssigned, adminID, "", payload, p.now())
	return p.publish(ctx, OrderCourierAssignedRoutingKey, ev)
}

func (p *Publisher) publish(ctx context.Context, routingKey string, ev any) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", routingKey, err)
	}

	pubCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	p.mu.Lock()
	defer p.mu.Unlock()

	err = p.ch.PublishWithContext(
		pubCtx,
		p.exchange,
		routingKey,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    p.now().UTC(),
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("publish %s: %w", routingKey, err)
	}
	return nil
}
