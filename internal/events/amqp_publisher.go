package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// AMQPPublisher sends each event to a durable queue named after its type.
// A connection is opened per publish; a ledger cycle publishes at most once.
type AMQPPublisher struct {
	url     string
	timeout time.Duration
}

// NewAMQPPublisher creates a RabbitMQ publisher for url
func NewAMQPPublisher(url string) *AMQPPublisher {
	return &AMQPPublisher{url: url, timeout: 5 * time.Second}
}

// Publish implements Publisher
func (p *AMQPPublisher) Publish(ctx context.Context, event BookingEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal %s event: %w", event.Type, err)
	}

	conn, err := amqp.DialConfig(p.url, amqp.Config{Dial: amqp.DefaultDial(p.timeout)})
	if err != nil {
		return fmt.Errorf("rabbitmq dial failed: %w", err)
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("rabbitmq channel open failed: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if _, err := ch.QueueDeclare(
		event.Type, // name
		true,       // durable
		false,      // autoDelete
		false,      // exclusive
		false,      // noWait
		nil,        // args
	); err != nil {
		return fmt.Errorf("rabbitmq queue declare failed: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    event.OccurredAt,
		MessageId:    event.BookingID + ":" + event.Type,
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", event.Type, false, false, msg); err != nil {
		return fmt.Errorf("rabbitmq publish failed: %w", err)
	}
	return nil
}
