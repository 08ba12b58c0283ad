package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	"user-service/internal/model"
)

type UserEventPublisher struct {
	conn      *amqp.Connection
	queueName string
}

func NewUserEventPublisher(conn *amqp.Connection, queueName string) *UserEventPublisher {
	return &UserEventPublisher{
		conn:      conn,
		queueName: queueName,
	}
}

func (p *UserEventPublisher) Publish(ctx context.Context, event model.UserEvent) error {
	msg, err := encodeUserEvent(event)
	if err != nil {
		return err
	}

	ch, err := p.conn.Channel()
	if err != nil {
		return fmt.Errorf("open rabbitmq channel failed: %w", err)
	}
	defer ch.Close()

	if _, err := DeclareQueue(ch, p.queueName); err != nil {
		return err
	}

	if err := ch.PublishWithContext(ctx, "", p.queueName, false, false, msg); err != nil {
		return fmt.Errorf("publish user event failed: %w", err)
	}
	return nil
}

func encodeUserEvent(event model.UserEvent) (amqp.Publishing, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return amqp.Publishing{}, fmt.Errorf("marshal user event failed: %w", err)
	}
	return amqp.Publishing{
		ContentType:  "application/json",
		MessageId:    event.ID,
		Type:         string(event.Type),
		Timestamp:    event.OccurredAt,
		Body:         payload,
		DeliveryMode: amqp.Persistent,
	}, nil
}

// DecodeUserEvent parses a delivery body produced by Publish.
func DecodeUserEvent(body []byte) (model.UserEvent, error) {
	var event model.UserEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return model.UserEvent{}, fmt.Errorf("decode user event failed: %w", err)
	}
	if event.Type == "" {
		return model.UserEvent{}, fmt.Errorf("decode user event failed: missing type")
	}
	return event, nil
}
