// Package channel provides the one-way message channel that carries raw
// payloads from embedded web content back to the host. It is deliberately
// decoupled from any rendering-surface API so controllers and parsers can be
// tested without a real surface. The in-memory implementation is the default;
// a NATS implementation covers out-of-process rendering hosts.
package channel

import (
	"context"
	"errors"
)

var (
	// ErrClosed is returned when operating on a closed channel or subscription.
	ErrClosed = errors.New("channel closed")
)

// Message is one delivery from the content context.
type Message struct {
	Subject string
	Payload string
}

// Handler processes one incoming message. Handlers for a given subscription
// are invoked one at a time, in publish order.
type Handler func(msg *Message)

// Channel carries string payloads from content to host. Implementations must
// be safe for concurrent use and must deliver messages to each subscription
// in the order they were published.
type Channel interface {
	// Publish sends a payload to all subscribers of the subject.
	// Returns immediately; does not wait for handlers.
	Publish(ctx context.Context, subject, payload string) error

	// Subscribe registers a handler for the subject.
	Subscribe(ctx context.Context, subject string, handler Handler) (Subscription, error)

	// Close shuts down the channel and all subscriptions.
	Close() error
}

// Subscription is an active registration that can be cancelled.
type Subscription interface {
	// Unsubscribe stops delivery and releases resources.
	Unsubscribe() error

	// Subject returns the subject this subscription is for.
	Subject() string
}
