package channel

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/oklog/ulid/v2"
)

// Memory is an in-process Channel. One goroutine per subscription drains a
// buffered queue, which keeps deliveries FIFO and handlers serialized.
type Memory struct {
	mu     sync.RWMutex
	subs   map[string][]*memorySubscription
	closed atomic.Bool
}

// NewMemory creates an in-memory channel.
func NewMemory() *Memory {
	return &Memory{subs: make(map[string][]*memorySubscription)}
}

func (m *Memory) Publish(ctx context.Context, subject, payload string) error {
	if m.closed.Load() {
		return ErrClosed
	}

	msg := &Message{Subject: subject, Payload: payload}

	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, sub := range m.subs[subject] {
		if sub.closed.Load() {
			continue
		}
		// Non-blocking send keeps Publish from deadlocking on a stuck
		// handler; the buffer is far larger than any realistic burst of
		// load-complete events.
		select {
		case sub.messages <- msg:
		default:
		}
	}
	return nil
}

func (m *Memory) Subscribe(ctx context.Context, subject string, handler Handler) (Subscription, error) {
	if m.closed.Load() {
		return nil, ErrClosed
	}

	sub := &memorySubscription{
		id:       ulid.Make().String(),
		subject:  subject,
		messages: make(chan *Message, 256),
		handler:  handler,
		owner:    m,
	}

	m.mu.Lock()
	m.subs[subject] = append(m.subs[subject], sub)
	m.mu.Unlock()

	go sub.run(ctx)

	return sub, nil
}

func (m *Memory) Close() error {
	if m.closed.Swap(true) {
		return ErrClosed
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, subs := range m.subs {
		for _, sub := range subs {
			if !sub.closed.Swap(true) {
				close(sub.messages)
			}
		}
	}
	m.subs = make(map[string][]*memorySubscription)
	return nil
}

type memorySubscription struct {
	id       string
	subject  string
	messages chan *Message
	handler  Handler
	owner    *Memory
	closed   atomic.Bool
}

func (s *memorySubscription) Unsubscribe() error {
	if s.closed.Swap(true) {
		return nil
	}

	s.owner.mu.Lock()
	defer s.owner.mu.Unlock()

	subs := s.owner.subs[s.subject]
	for i, sub := range subs {
		if sub.id == s.id {
			s.owner.subs[s.subject] = append(subs[:i], subs[i+1:]...)
			break
		}
	}
	close(s.messages)
	return nil
}

func (s *memorySubscription) Subject() string {
	return s.subject
}

func (s *memorySubscription) run(ctx context.Context) {
	for {
		select {
		case msg, ok := <-s.messages:
			if !ok {
				return
			}
			s.handler(msg)
		case <-ctx.Done():
			return
		}
	}
}
