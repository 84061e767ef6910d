package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/streadway/amqp"

	"github.com/veldtlabs/dialtone/internal/metrics"
)

// AMQP publishes turn events to a durable queue over AMQP 0.9.1.
type AMQP struct {
	conn   *amqp.Connection
	ch     *amqp.Channel
	queue  string
	logger *slog.Logger
}

// NewAMQP connects to the broker and declares the queue. The caller
// owns the returned publisher and must Close it on shutdown.
func NewAMQP(url, queue string, logger *slog.Logger) (*AMQP, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("events: dial broker: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("events: open channel: %w", err)
	}

	_, err = ch.QueueDeclare(
		queue,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("events: declare queue %s: %w", queue, err)
	}

	logger.Info("connected to event broker", "queue", queue)

	return &AMQP{
		conn:   conn,
		ch:     ch,
		queue:  queue,
		logger: logger,
	}, nil
}

// PublishTurn sends the event as a JSON message on the default exchange.
func (p *AMQP) PublishTurn(ctx context.Context, ev TurnEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	body, err := json.Marshal(ev)
	if err != nil {
		metrics.RecordEventPublish("marshal_error")
		return fmt.Errorf("events: marshal turn event: %w", err)
	}

	err = p.ch.Publish(
		"",      // exchange
		p.queue, // routing key
		false,   // mandatory
		false,   // immediate
		amqp.Publishing{
			ContentType: "application/json",
			Body:        body,
			Timestamp:   ev.OccurredAt,
		},
	)
	if err != nil {
		metrics.RecordEventPublish("error")
		return fmt.Errorf("events: publish to %s: %w", p.queue, err)
	}

	metrics.RecordEventPublish("ok")
	p.logger.Debug("published turn event",
		"call_sid", ev.CallSID,
		"outcome", ev.Outcome,
	)
	return nil
}

// Close shuts down the channel and connection.
func (p *AMQP) Close() error {
	if p.ch != nil {
		p.ch.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}

var _ Publisher = (*AMQP)(nil)
