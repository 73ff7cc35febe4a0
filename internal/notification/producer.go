package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

const notificationTopic = "notification_events"

// Publisher is the event side of the system: cart/order events and
// notification tasks all go out as JSON messages.
type Publisher interface {
	Publish(ctx context.Context, topic, key string, event any) error
}

// Notifier enqueues a best-effort notification task for the mail worker.
// Failures never propagate into the state transition that triggered them.
type Notifier interface {
	Send(ctx context.Context, recipient, kind string, data map[string]any) error
}

type Producer struct {
	writer *kafka.Writer
}

func NewProducer(brokers []string) *Producer {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Balancer:               &kafka.LeastBytes{},
		AllowAutoTopicCreation: true,
		WriteTimeout:           5 * time.Second,
	}
	return &Producer{writer: w}
}

func (p *Producer) Publish(ctx context.Context, topic, key string, event any) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("kafka: json.Marshal failed: %w", err)
	}

	msg := kafka.Message{
		Topic: topic,
		Key:   []byte(key),
		Value: data,
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("kafka: write failed: %w", err)
	}
	return nil
}

func (p *Producer) Send(ctx context.Context, recipient, kind string, data map[string]any) error {
	event := map[string]any{
		"id":        uuid.NewString(),
		"recipient": recipient,
		"kind":      kind,
		"data":      data,
	}
	return p.Publish(ctx, notificationTopic, recipient, event)
}

func (p *Producer) Close() error {
	return p.writer.Close()
}
