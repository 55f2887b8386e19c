package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mercato/customer-accounts/pkg/logger"
	"github.com/nats-io/nats.go"
)

type Publisher interface {
	Publish(ctx context.Context, subject string, data interface{}) error
	Close() error
}

type Subscriber interface {
	Subscribe(subject string, handler func(msg *Message)) error
	QueueSubscribe(subject, queue string, handler func(msg *Message)) error
	Close() error
}

type EventBus interface {
	Publisher
	Subscriber
}

type Message struct {
	Subject   string
	Data      []byte
	Timestamp time.Time
	ID        string
}

type NATSEventBus struct {
	conn *nats.Conn
}

func NewNATSEventBus(url string) (*NATSEventBus, error) {
	conn, err := nats.Connect(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	return &NATSEventBus{conn: conn}, nil
}

func (n *NATSEventBus) Publish(ctx context.Context, subject string, data interface{}) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal event data: %w", err)
	}

	logger.DebugContext(ctx, "Publishing event", "subject", subject, "data", string(payload))

	return n.conn.Publish(subject, payload)
}

func (n *NATSEventBus) Subscribe(subject string, handler func(msg *Message)) error {
	_, err := n.conn.Subscribe(subject, func(msg *nats.Msg) {
		handler(&Message{
			Subject:   msg.Subject,
			Data:      msg.Data,
			Timestamp: time.Now(),
			ID:        fmt.Sprintf("%d", time.Now().UnixNano()),
		})
	})
	return err
}

func (n *NATSEventBus) QueueSubscribe(subject, queue string, handler func(msg *Message)) error {
	_, err := n.conn.QueueSubscribe(subject, queue, func(msg *nats.Msg) {
		handler(&Message{
			Subject:   msg.Subject,
			Data:      msg.Data,
			Timestamp: time.Now(),
			ID:        fmt.Sprintf("%d", time.Now().UnixNano()),
		})
	})
	return err
}

func (n *NATSEventBus) Close() error {
	n.conn.Close()
	return nil
}

// Event subjects
const (
	CustomerRegistered    = "customer.registered"
	CustomerUpdated       = "customer.updated"
	CustomerDeleted       = "customer.deleted"
	CustomerPasswordReset = "customer.password_reset"
	CartUpdated           = "cart.updated"
)

// Event payloads
type CustomerRegisteredEvent struct {
	CustomerID int64     `json:"customer_id"`
	Email      string    `json:"email"`
	Username   string    `json:"username"`
	CreatedAt  time.Time `json:"created_at"`
}

type CustomerUpdatedEvent struct {
	CustomerID int64     `json:"customer_id"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type CustomerDeletedEvent struct {
	CustomerID int64     `json:"customer_id"`
	DeletedAt  time.Time `json:"deleted_at"`
}

type CustomerPasswordResetEvent struct {
	CustomerID int64     `json:"customer_id"`
	ResetAt    time.Time `json:"reset_at"`
}

type CartUpdatedEvent struct {
	CustomerID int64     `json:"customer_id"`
	ProductID  int64     `json:"product_id"`
	Action     string    `json:"action"` // "add" or "remove"
	UpdatedAt  time.Time `json:"updated_at"`
}
