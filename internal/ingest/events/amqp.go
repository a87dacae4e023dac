// Package events publishes ingestion batch events to RabbitMQ.
package events

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/smallbiznis/amber/internal/config"
	ingestdomain "github.com/smallbiznis/amber/internal/ingest/domain"
	"go.uber.org/zap"
)

const contentType = "application/json"

// Publisher dials per event. Uploads are infrequent, so no connection is held
// between them.
type Publisher struct {
	url   string
	queue string
	log   *zap.Logger
}

// NewPublisher returns nil when no broker is configured; the ingest service
// treats a missing publisher as publishing disabled.
func NewPublisher(cfg config.Config, log *zap.Logger) ingestdomain.EventPublisher {
	if !cfg.Events.Enabled() {
		return nil
	}
	queue := cfg.Events.Queue
	if queue == "" {
		queue = "amber.ingest.batches"
	}
	log = log.Named("ingest.events")
	log.Info("batch events enabled", zap.String("queue", queue))
	return &Publisher{
		url:   cfg.Events.AMQPURL,
		queue: queue,
		log:   log,
	}
}

func (p *Publisher) PublishBatch(ctx context.Context, event ingestdomain.BatchEvent) error {
	msg, err := Encode(event)
	if err != nil {
		return err
	}

	conn, err := amqp.Dial(p.url)
	if err != nil {
		return fmt.Errorf("dial broker: %w", err)
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("open channel: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if _, err := ch.QueueDeclare(p.queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare queue %s: %w", p.queue, err)
	}
	if err := ch.PublishWithContext(ctx, "", p.queue, false, false, msg); err != nil {
		return fmt.Errorf("publish: %w", err)
	}

	p.log.Debug("batch event published",
		zap.String("batch_id", event.BatchID),
		zap.String("outcome", event.Outcome),
	)
	return nil
}

// Encode builds the persistent JSON message for one event.
func Encode(event ingestdomain.BatchEvent) (amqp.Publishing, error) {
	body, err := json.Marshal(event)
	if err != nil {
		return amqp.Publishing{}, fmt.Errorf("encode batch event: %w", err)
	}
	return amqp.Publishing{
		ContentType:  contentType,
		DeliveryMode: amqp.Persistent,
		MessageId:    event.BatchID,
		Type:         "ingest.batch." + event.Outcome,
		Timestamp:    event.OccurredAt,
		Body:         body,
	}, nil
}
