package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// Change is a notification that a row in Table changed.
type Change struct {
	Table   string
	Event   string
	OrderID string
}

// Stream delivers changes until closed.
type Stream interface {
	Changes() <-chan Change
	Close() error
}

// Subscriber opens per-viewer change streams on the events exchange.
type Subscriber struct {
	conn     *amqp.Connection
	exchange string
	logger   *zap.Logger
}

func NewSubscriber(conn *amqp.Connection, exchange string, logger *zap.Logger) *Subscriber {
	return &Subscriber{conn: conn, exchange: exchange, logger: logger}
}

// Subscribe binds a private auto-delete queue to every order and order item
// routing key. The returned stream coalesces bursts: while a change is still
// unread, further changes are folded into it.
func (s *Subscriber) Subscribe(ctx context.Context) (Stream, error) {
	ch, err := s.conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("open channel: %w", err)
	}

	if err := declareEventsExchange(ch, s.exchange); err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("declare events exchange: %w", err)
	}

	q, err := ch.QueueDeclare(
		"",
		false, // durable
		true,  // autoDelete
		true,  // exclusive
		false, // noWait
		nil,
	)
	if err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("queue declare: %w", err)
	}

	for _, key := range orderChangeBindings {
		if err := ch.QueueBind(q.Name, key, s.exchange, false, nil); err != nil {
			_ = ch.Close()
			return nil, fmt.Errorf("bind %s: %w", key, err)
		}
	}

	msgs, err := ch.Consume(q.Name, "", true, true, false, false, nil)
	if err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("consume: %w", err)
	}

	sub := newSubscription(ch.Close)
	go sub.run(ctx, msgs, s.logger)
	return sub, nil
}

type subscription struct {
	out       chan Change
	done      chan struct{}
	closeOnce sync.Once
	closeFn   func() error
	closeErr  error
}

func newSubscription(closeFn func() error) *subscription {
	return &subscription{
		out:     make(chan Change, 1),
		done:    make(chan struct{}),
		closeFn: closeFn,
	}
}

func (s *subscription) Changes() <-chan Change {
	return s.out
}

func (s *subscription) Close() error {
	s.closeOnce.Do(func() {
		close(s.done)
		s.closeErr = s.closeFn()
	})
	return s.closeErr
}

func (s *subscription) run(ctx context.Context, msgs <-chan amqp.Delivery, logger *zap.Logger) {
	defer close(s.out)
	for {
		select {
		case <-ctx.Done():
			_ = s.Close()
			return
		case <-s.done:
			return
		case msg, ok := <-msgs:
			if !ok {
				logger.Debug("change stream closed")
				return
			}
			s.deliver(decodeChange(msg.RoutingKey, msg.Body, logger))
		}
	}
}

// deliver never blocks: a pending unread change already triggers a reload.
func (s *subscription) deliver(c Change) {
	select {
	case s.out <- c:
	default:
	}
}

func decodeChange(routingKey string, body []byte, logger *zap.Logger) Change {
	c := Change{Table: tableForRoutingKey(routingKey)}

	var head struct {
		EventName    string `json:"eventName"`
		PartitionKey string `json:"partitionKey"`
	}
	if err := json.Unmarshal(body, &head); err != nil {
		logger.Warn("undecodable change event", zap.String("routing_key", routingKey), zap.Error(err))
		return c
	}
	c.Event = head.EventName
	if c.Event != EventOrderCourierAssigned {
		c.OrderID = head.PartitionKey
	}
	return c
}
