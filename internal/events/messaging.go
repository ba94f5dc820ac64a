package events

import (
	"fmt"
	"strings"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	DefaultExchange = "storefront.events"

	OrderCreatedRoutingKey         = "order.created.v1"
	OrderStatusChangedRoutingKey   = "order.status_changed.v1"
	OrderCourierAssignedRoutingKey = "order.courier_assigned.v1"
	OrderItemsCreatedRoutingKey    = "order_items.created.v1"
	producerName                   = "storefront-service-go"
)

// Binding patterns covering every change to orders and order_items.
var orderChangeBindings = []string{"order.#", "order_items.#"}

// Dial connects to RabbitMQ.
func Dial(url string) (*amqp.Connection, error) {
	conn, err := amqp.DialConfig(url, amqp.Config{
		Dial: amqp.DefaultDial(10 * time.Second),
	})
	if err != nil {
		return nil, fmt.Errorf("connect to rabbitmq: %w", err)
	}
	return conn, nil
}

func declareEventsExchange(ch *amqp.Channel, name string) error {
	return ch.ExchangeDeclare(
		name,
		"topic",
		true,
		false,
		false,
		false,
		nil,
	)
}

// tableForRoutingKey maps "order_items.created.v1" to "order_items" and
// "order.created.v1" to "orders".
func tableForRoutingKey(key string) string {
	prefix, _, _ := strings.Cut(key, ".")
	if prefix == "order" {
		return "orders"
	}
	return prefix
}
