package remote

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// client owns one websocket connection to the rendering host. A single
// reader goroutine dispatches responses to pending requests by ID and hands
// events to the registered callback.
type client struct {
	conn    *websocket.Conn
	onEvent func(*event)

	writeMu sync.Mutex
	mu      sync.Mutex
	pending map[string]chan *response
	closed  atomic.Bool
	done    chan struct{}
}

func dial(ctx context.Context, url string, timeout time.Duration, onEvent func(*event)) (*client, error) {
	dialer := websocket.Dialer{HandshakeTimeout: timeout}
	conn, _, err := dialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial rendering host: %w", err)
	}
	c := &client{
		conn:    conn,
		onEvent: onEvent,
		pending: make(map[string]chan *response),
		done:    make(chan struct{}),
	}
	go c.run()
	return c, nil
}

func (c *client) run() {
	defer close(c.done)
	for {
		var env envelope
		if err := c.conn.ReadJSON(&env); err != nil {
			c.failPending()
			return
		}
		switch env.Type {
		case "response":
			if env.Response == nil {
				continue
			}
			c.mu.Lock()
			ch, ok := c.pending[env.Response.RequestID]
			if ok {
				delete(c.pending, env.Response.RequestID)
			}
			c.mu.Unlock()
			if ok {
				ch <- env.Response
			}
		case "event":
			if env.Event != nil && c.onEvent != nil {
				c.onEvent(env.Event)
			}
		}
	}
}

// failPending unblocks callers waiting on a response when the connection
// drops; they observe the closed channel as a connection error.
func (c *client) failPending() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for id, ch := range c.pending {
		close(ch)
		delete(c.pending, id)
	}
}

func (c *client) send(ctx context.Context, req *request) (*response, error) {
	if c == nil || c.closed.Load() {
		return nil, ErrConnectionLost
	}
	if req.RequestID == "" {
		req.RequestID = uuid.NewString()
	}

	ch := make(chan *response, 1)
	c.mu.Lock()
	c.pending[req.RequestID] = ch
	c.mu.Unlock()

	env := envelope{Type: "request", Request: req}
	c.writeMu.Lock()
	err := c.conn.WriteJSON(&env)
	c.writeMu.Unlock()
	if err != nil {
		c.mu.Lock()
		delete(c.pending, req.RequestID)
		c.mu.Unlock()
		return nil, fmt.Errorf("%w: %v", ErrConnectionLost, err)
	}

	select {
	case resp, ok := <-ch:
		if !ok {
			return nil, ErrConnectionLost
		}
		return resp, nil
	case <-ctx.Done():
		c.mu.Lock()
		delete(c.pending, req.RequestID)
		c.mu.Unlock()
		return nil, ctx.Err()
	}
}

func (c *client) close() error {
	if c == nil || c.closed.Swap(true) {
		return nil
	}
	err := c.conn.Close()
	select {
	case <-c.done:
	case <-time.After(2 * time.Second):
	}
	return err
}
