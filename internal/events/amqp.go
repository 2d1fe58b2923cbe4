package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/streadway/amqp"
)

// channel is the subset of *amqp.Channel the publisher uses.
type channel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// AMQPPublisher publishes events as persistent JSON messages on a topic
// exchange, using each event's TopicName as the routing key.
type AMQPPublisher struct {
	mu       sync.Mutex
	ch       channel
	conn     interface{ Close() error }
	exchange string
	now      func() time.Time
}

// DialAMQP connects to the broker at url and declares a durable topic
// exchange.
func DialAMQP(url, exchange string) (*AMQPPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("events.DialAMQP: dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("events.DialAMQP: channel: %w", err)
	}

	p, err := newAMQPPublisher(ch, conn, exchange)
	if err != nil {
		conn.Close()
		return nil, err
	}
	return p, nil
}

func newAMQPPublisher(ch channel, conn interface{ Close() error }, exchange string) (*AMQPPublisher, error) {
	if exchange == "" {
		return nil, errors.New("events: exchange name is empty")
	}
	if err := ch.ExchangeDeclare(exchange, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
		return nil, fmt.Errorf("events: declare exchange %q: %w", exchange, err)
	}
	return &AMQPPublisher{ch: ch, conn: conn, exchange: exchange, now: time.Now}, nil
}

// Publish encodes evt as JSON and sends it. The context is only checked
// before sending since the client library does not accept one.
func (p *AMQPPublisher) Publish(ctx context.Context, evt Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	body, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("events.AMQPPublisher.Publish: encode %s: %w", evt.TopicName(), err)
	}

	msg := amqp.Publishing{
		ContentType:  evt.ContentType(),
		DeliveryMode: amqp.Persistent,
		MessageId:    uuid.NewString(),
		Timestamp:    p.now().UTC(),
		Body:         body,
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.ch.Publish(p.exchange, evt.TopicName(), false, false, msg); err != nil {
		return fmt.Errorf("events.AMQPPublisher.Publish: %s: %w", evt.TopicName(), err)
	}
	return nil
}

// Close closes the channel and the underlying connection.
func (p *AMQPPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	err := p.ch.Close()
	if p.conn != nil {
		err = errors.Join(err, p.conn.Close())
	}
	return err
}
