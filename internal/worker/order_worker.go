package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/flicky/bakery-api/internal/model"
)

const (
	eventsExchange    = "orders.events"
	dlxExchange       = "orders.events.dlx"
	dlqQueueName      = "orders.events.dlq"
	deadLetterRouting = "order-events"
)

// Broadcaster fans an order event out to connected clients.
type Broadcaster interface {
	Broadcast(ev model.OrderEvent)
}

// OrderEventWorker relays order events from this instance's subscription
// queue to its live clients.
type OrderEventWorker struct {
	channel *amqp.Channel
	queue   string
	hub     Broadcaster
	log     *slog.Logger
	done    chan struct{}
}

func NewOrderEventWorker(ch *amqp.Channel, queue string, hub Broadcaster, log *slog.Logger) *OrderEventWorker {
	return &OrderEventWorker{
		channel: ch,
		queue:   queue,
		hub:     hub,
		log:     log,
		done:    make(chan struct{}),
	}
}

// SetupRabbitMQ declares the fanout exchange, the dead-letter queue and an
// exclusive, server-named queue for this instance. Every instance sees every
// event. Returns the subscription queue name.
func SetupRabbitMQ(ch *amqp.Channel) (string, error) {
	if err := ch.ExchangeDeclare(eventsExchange, "fanout", true, false, false, false, nil); err != nil {
		return "", fmt.Errorf("declare events exchange: %w", err)
	}
	if err := ch.ExchangeDeclare(dlxExchange, "direct", true, false, false, false, nil); err != nil {
		return "", fmt.Errorf("declare DLX: %w", err)
	}
	if _, err := ch.QueueDeclare(dlqQueueName, true, false, false, false, nil); err != nil {
		return "", fmt.Errorf("declare DLQ: %w", err)
	}
	if err := ch.QueueBind(dlqQueueName, deadLetterRouting, dlxExchange, false, nil); err != nil {
		return "", fmt.Errorf("bind DLQ: %w", err)
	}

	q, err := ch.QueueDeclare("", false, true, true, false, amqp.Table{
		"x-dead-letter-exchange":    dlxExchange,
		"x-dead-letter-routing-key": deadLetterRouting,
	})
	if err != nil {
		return "", fmt.Errorf("declare subscription queue: %w", err)
	}
	if err := ch.QueueBind(q.Name, "", eventsExchange, false, nil); err != nil {
		return "", fmt.Errorf("bind subscription queue: %w", err)
	}
	if err := ch.Qos(32, 0, false); err != nil {
		return "", fmt.Errorf("set QoS: %w", err)
	}
	return q.Name, nil
}

func (w *OrderEventWorker) Start(ctx context.Context) error {
	msgs, err := w.channel.Consume(w.queue, "", false, true, false, false, nil)
	if err != nil {
		return fmt.Errorf("start consuming: %w", err)
	}

	go func() {
		for {
			select {
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				w.processMessage(msg)
			case <-w.done:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	w.log.Info("order event worker started", "queue", w.queue)
	return nil
}

func (w *OrderEventWorker) Stop() { close(w.done) }

func (w *OrderEventWorker) processMessage(msg amqp.Delivery) {
	var ev model.OrderEvent
	if err := json.Unmarshal(msg.Body, &ev); err != nil {
		w.log.Error("unmarshal order event", "error", err)
		_ = msg.Nack(false, false)
		return
	}

	w.hub.Broadcast(ev)
	_ = msg.Ack(false)
	w.log.Debug("order event relayed", "order_id", ev.OrderID, "user_id", ev.UserID, "event", ev.Event)
}
