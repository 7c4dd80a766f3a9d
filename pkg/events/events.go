package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/tixhive/auth-api/pkg/logger"
)

type Publisher interface {
	Publish(ctx context.Context, subject string, data interface{}) error
	Close() error
}

type Subscriber interface {
	Subscribe(subject string, handler func(msg *Message)) error
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

// NewNATSEventBusWithConn wraps an existing connection; Close closes it.
func NewNATSEventBusWithConn(conn *nats.Conn) *NATSEventBus {
	return &NATSEventBus{conn: conn}
}

func (n *NATSEventBus) Publish(ctx context.Context, subject string, data interface{}) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal event data: %w", err)
	}

	logger.DebugContext(ctx, "Publishing event", "subject", subject)

	return n.conn.Publish(subject, payload)
}

func (n *NATSEventBus) Subscribe(subject string, handler func(msg *Message)) error {
	_, err := n.conn.Subscribe(subject, func(msg *nats.Msg) {
		handler(&Message{
			Subject:   msg.Subject,
			Data:      msg.Data,
			Timestamp: time.Now(),
		})
	})
	return err
}

func (n *NATSEventBus) Close() error {
	n.conn.Close()
	return nil
}

// Subjects.
const (
	// Account lifecycle, broadcast after wallet-linked signup.
	AccountCreated = "account.created"
	AccountFunded  = "account.funded"

	// LoginCodePrefix is followed by the login code; the device that
	// displayed the code listens on that subject for its credential.
	LoginCodePrefix = "login.code."

	LoggedIn = "logged_in"
)

// LoginSubject returns the per-code subject credentials are delivered on.
func LoginSubject(code string) string {
	return LoginCodePrefix + code
}

type AccountEvent struct {
	AccountID string    `json:"account_id"`
	At        time.Time `json:"at"`
}

// LoggedInEvent carries the freshly minted credential to the waiting device.
type LoggedInEvent struct {
	Event string `json:"event"`
	Token string `json:"token"`
}
