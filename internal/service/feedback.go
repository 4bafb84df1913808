package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/segmentio/kafka-go"

	"github.com/flicky/bakery-api/internal/model"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// KafkaFeedbackPublisher streams feedback to the analytics topic, keyed by
// order id.
type KafkaFeedbackPublisher struct {
	writer messageWriter
}

func NewKafkaFeedbackPublisher(writer *kafka.Writer) *KafkaFeedbackPublisher {
	return &KafkaFeedbackPublisher{writer: writer}
}

func NewKafkaWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
	}
}

func (p *KafkaFeedbackPublisher) PublishFeedback(ctx context.Context, msg model.FeedbackMessage) error {
	if p == nil || p.writer == nil {
		return nil
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode feedback: %w", err)
	}
	if err := p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(msg.OrderID.String()),
		Value: payload,
	}); err != nil {
		return fmt.Errorf("write feedback message: %w", err)
	}
	return nil
}
