package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/flicky/bakery-api/internal/model"
)

type amqpPublisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// OrderEventPublisher announces order changes on the fanout exchange.
type OrderEventPublisher struct {
	mu      sync.Mutex
	channel amqpPublisher
}

func NewOrderEventPublisher(ch *amqp.Channel) *OrderEventPublisher {
	return &OrderEventPublisher{channel: ch}
}

func (p *OrderEventPublisher) PublishOrderEvent(ctx context.Context, ev model.OrderEvent) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode order event: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	err = p.channel.PublishWithContext(ctx, eventsExchange, "", false, false, amqp.Publishing{
		ContentType: "application/json",
		Timestamp:   ev.At,
		Body:        body,
	})
	if err != nil {
		return fmt.Errorf("publish order event: %w", err)
	}
	return nil
}
