package channel

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/nats-io/nats.go"
)

// NATS is a Channel backed by a NATS connection, for rendering hosts that
// run out of process from the application embedding the checkout.
type NATS struct {
	conn   *nats.Conn
	owned  bool
	closed atomic.Bool
}

// NewNATS connects to a NATS server and returns a channel over it.
func NewNATS(url, name string) (*NATS, error) {
	if url == "" {
		url = nats.DefaultURL
	}
	opts := []nats.Option{
		nats.Name(name),
		nats.Timeout(10 * time.Second),
		nats.ReconnectWait(time.Second),
		nats.MaxReconnects(-1),
	}
	conn, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	return &NATS{conn: conn, owned: true}, nil
}

// NewNATSFromConn wraps an existing connection. Useful for testing with an
// embedded NATS server; the caller keeps ownership of the connection.
func NewNATSFromConn(conn *nats.Conn) *NATS {
	return &NATS{conn: conn}
}

func (n *NATS) Publish(ctx context.Context, subject, payload string) error {
	if n.closed.Load() {
		return ErrClosed
	}
	return n.conn.Publish(subject, []byte(payload))
}

func (n *NATS) Subscribe(ctx context.Context, subject string, handler Handler) (Subscription, error) {
	if n.closed.Load() {
		return nil, ErrClosed
	}

	sub, err := n.conn.Subscribe(subject, func(msg *nats.Msg) {
		handler(&Message{Subject: msg.Subject, Payload: string(msg.Data)})
	})
	if err != nil {
		return nil, err
	}
	return &natsSubscription{sub: sub}, nil
}

func (n *NATS) Close() error {
	if n.closed.Swap(true) {
		return ErrClosed
	}
	if n.owned {
		n.conn.Close()
	}
	return nil
}

type natsSubscription struct {
	sub *nats.Subscription
}

func (s *natsSubscription) Unsubscribe() error {
	return s.sub.Unsubscribe()
}

func (s *natsSubscription) Subject() string {
	return s.sub.Subject
}
