package broker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	RoutingAttendanceRecorded = "attendance.recorded"
	RoutingAttendanceDaily    = "attendance.daily"
)

// Publisher fans attendance events out to downstream consumers.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, body any) error
	Close() error
}

// NoopPublisher is used when no broker is configured.
type NoopPublisher struct{}

func (NoopPublisher) Publish(ctx context.Context, routingKey string, body any) error { return nil }
func (NoopPublisher) Close() error                                                   { return nil }

type RabbitPublisher struct {
	url      string
	exchange string

	mu   sync.Mutex
	conn *amqp.Connection
	ch   *amqp.Channel
}

// NewRabbitPublisher dials the broker and declares a durable topic exchange.
func NewRabbitPublisher(url, exchange string) (*RabbitPublisher, error) {
	p := &RabbitPublisher{url: url, exchange: exchange}
	if _, err := p.channel(); err != nil {
		return nil, err
	}
	return p, nil
}

// channel returns the open publishing channel, redialing after a connection or channel close.
func (p *RabbitPublisher) channel() (*amqp.Channel, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.ch != nil && !p.ch.IsClosed() {
		return p.ch, nil
	}

	if p.conn == nil || p.conn.IsClosed() {
		conn, err := amqp.Dial(p.url)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
		}
		p.conn = conn
	}

	ch, err := p.conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("failed to open publish channel: %w", err)
	}
	if err := ch.ExchangeDeclare(p.exchange, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
		ch.Close()
		return nil, fmt.Errorf("failed to declare exchange %q: %w", p.exchange, err)
	}
	p.ch = ch

	closed := ch.NotifyClose(make(chan *amqp.Error, 1))
	go func() {
		if reason, ok := <-closed; ok {
			slog.Warn("publisher channel closed, will recreate on next publish",
				"component", "rabbitmq", "reason", reason.Error())
		}
	}()

	slog.Info("publisher channel created", "component", "rabbitmq", "exchange", p.exchange)
	return ch, nil
}

func (p *RabbitPublisher) Publish(ctx context.Context, routingKey string, body any) error {
	ch, err := p.channel()
	if err != nil {
		return err
	}

	bodyBytes, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	err = ch.PublishWithContext(ctx,
		p.exchange,
		routingKey,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			MessageId:    uuid.NewString(),
			Body:         bodyBytes,
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish %s: %w", routingKey, err)
	}
	return nil
}

func (p *RabbitPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.ch != nil {
		p.ch.Close()
	}
	if p.conn != nil && !p.conn.IsClosed() {
		return p.conn.Close()
	}
	return nil
}

// New returns a RabbitMQ publisher, or a NoopPublisher when url is empty.
func New(url, exchange string) (Publisher, error) {
	if url == "" {
		return NoopPublisher{}, nil
	}
	return NewRabbitPublisher(url, exchange)
}

// Fanout publishes every message to each of its publishers. A failing publisher
// does not stop the others.
type Fanout []Publisher

func (f Fanout) Publish(ctx context.Context, routingKey string, body any) error {
	var errs []error
	for _, p := range f {
		if err := p.Publish(ctx, routingKey, body); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (f Fanout) Close() error {
	var errs []error
	for _, p := range f {
		if err := p.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
