// Package rabbitmq publishes resume lifecycle events to a topic exchange.
package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/streadway/amqp"

	"github.com/artem13815/resumeflow/pkg/ingest"
)

const RoutingKeyCompleted = "resume.completed"

type Publisher struct {
	mu       sync.Mutex
	url      string
	conn     *amqp.Connection
	exchange string
}

// NewPublisher dials url and declares exchange as a durable topic exchange.
func NewPublisher(url, exchange string) (*Publisher, error) {
	p := &Publisher{url: url, exchange: exchange}
	conn, err := p.dial()
	if err != nil {
		return nil, err
	}
	p.conn = conn
	return p, nil
}

func (p *Publisher) dial() (*amqp.Connection, error) {
	conn, err := amqp.Dial(p.url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open rabbitmq channel: %w", err)
	}
	defer ch.Close()
	if err := ch.ExchangeDeclare(
		p.exchange, // name
		"topic",    // kind
		true,       // durable
		false,      // auto-delete
		false,      // internal
		false,      // no-wait
		nil,        // arguments
	); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("declare exchange %s: %w", p.exchange, err)
	}
	return conn, nil
}

// ResumeCompleted publishes ev with routing key resume.completed.
// A dropped connection is re-dialled once. The call returns when ctx ends even if
// the broker has not answered; the abandoned publish finishes in the background.
func (p *Publisher) ResumeCompleted(ctx context.Context, ev ingest.Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg, err := message(ev)
	if err != nil {
		return err
	}
	done := make(chan error, 1)
	go func() { done <- p.publish(msg) }()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return fmt.Errorf("publish %s: %w", RoutingKeyCompleted, ctx.Err())
	}
}

func (p *Publisher) publish(msg amqp.Publishing) error {
	ch, err := p.channel()
	if err != nil {
		return err
	}
	defer ch.Close()
	return ch.Publish(
		p.exchange, // exchange
		RoutingKeyCompleted,
		false, // mandatory
		false, // immediate
		msg,
	)
}

func (p *Publisher) channel() (*amqp.Channel, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.conn == nil || p.conn.IsClosed() {
		conn, err := p.dial()
		if err != nil {
			return nil, err
		}
		p.conn = conn
	}
	return p.conn.Channel()
}

func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.conn == nil || p.conn.IsClosed() {
		return nil
	}
	return p.conn.Close()
}

func message(ev ingest.Event) (amqp.Publishing, error) {
	body, err := json.Marshal(ev)
	if err != nil {
		return amqp.Publishing{}, fmt.Errorf("encode event: %w", err)
	}
	return amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    ev.ResumeID.String(),
		Timestamp:    ev.Timestamp,
		Type:         RoutingKeyCompleted,
		Body:         body,
	}, nil
}
