// Package notify hands user-facing notifications to the delivery service.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/yagnesh-3/Fira-sub001/internal/log"
)

const (
	ExchangeName = "notifications"
	ExchangeKind = "topic"
)

type Notification struct {
	ID        string    `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	Kind      string    `json:"kind"`
	Subject   string    `json:"subject"`
	Payload   any       `json:"payload"`
	CreatedAt time.Time `json:"created_at"`
}

// AMQP publishes notifications to a topic exchange, routed by kind.
type AMQP struct {
	conn *amqp.Connection

	mu      sync.Mutex
	channel *amqp.Channel
}

func NewAMQP(url string) (*AMQP, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("rabbitmq dial: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("rabbitmq channel: %w", err)
	}

	if err := ch.ExchangeDeclare(ExchangeName, ExchangeKind, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("rabbitmq exchange declare: %w", err)
	}

	return &AMQP{conn: conn, channel: ch}, nil
}

func (a *AMQP) Notify(ctx context.Context, n Notification) error {
	body, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	err = a.channel.PublishWithContext(ctx, ExchangeName, n.Kind, false, false, amqp.Publishing{
		ContentType:   "application/json",
		DeliveryMode:  amqp.Persistent,
		MessageId:     n.ID,
		CorrelationId: log.CorrelationIDFromContext(ctx),
		Timestamp:     n.CreatedAt,
		Body:          body,
	})
	if err != nil {
		return fmt.Errorf("publish notification: %w", err)
	}
	return nil
}

func (a *AMQP) Close() error {
	if err := a.channel.Close(); err != nil {
		_ = a.conn.Close()
		return err
	}
	return a.conn.Close()
}

// Log only writes notifications to the log, for setups without a broker.
type Log struct{}

func (Log) Notify(ctx context.Context, n Notification) error {
	log.FromContext(ctx).
		WithField("user_id", n.UserID).
		WithField("kind", n.Kind).
		Info(n.Subject)
	return nil
}
