package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Dan9191/savings-wallet/internal/models"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
)

// RevenuePublisher records revenue by publishing it to RabbitMQ. A connection is
// dialed per event; disbursements are rare enough that pooling buys nothing.
type RevenuePublisher struct {
	url string
	log *logrus.Logger
}

// NewRevenuePublisher initializes a publisher for the broker at url
func NewRevenuePublisher(url string, log *logrus.Logger) *RevenuePublisher {
	return &RevenuePublisher{url: url, log: log}
}

// RecordRevenue publishes event to RevenueQueueName as a persistent message
func (p *RevenuePublisher) RecordRevenue(ctx context.Context, event models.RevenueEvent) error {
	msg, err := newPublishing(event)
	if err != nil {
		return err
	}

	conn, err := amqp.Dial(p.url)
	if err != nil {
		return fmt.Errorf("failed to dial broker: %w", err)
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("failed to open channel: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if _, err := ch.QueueDeclare(
		RevenueQueueName,
		true,  // durable
		false, // autoDelete
		false, // exclusive
		false, // noWait
		nil,
	); err != nil {
		return fmt.Errorf("failed to declare queue: %w", err)
	}

	if err := ch.PublishWithContext(ctx, "", RevenueQueueName, false, false, msg); err != nil {
		return fmt.Errorf("failed to publish revenue event: %w", err)
	}

	p.log.WithFields(logrus.Fields{"user_id": event.UserID, "loan_id": event.SourceID}).
		Debugf("Published %s revenue of %s", event.Category, event.Amount.StringFixed(2))
	return nil
}

func newPublishing(event models.RevenueEvent) (amqp.Publishing, error) {
	body, err := json.Marshal(NewRevenueRecordedEvent(event))
	if err != nil {
		return amqp.Publishing{}, fmt.Errorf("failed to encode revenue event: %w", err)
	}
	return amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    event.Category + ":" + event.SourceID,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}, nil
}
