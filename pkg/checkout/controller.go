package checkout

import (
	"context"
	"sync"

	"github.com/shopframe/shopframe/pkg/channel"
	"github.com/shopframe/shopframe/pkg/extract"
	"github.com/shopframe/shopframe/pkg/license"
	"github.com/shopframe/shopframe/pkg/logging"
	"github.com/shopframe/shopframe/pkg/page"
	"github.com/shopframe/shopframe/pkg/surface"
)

// Options configure a Controller. Zero values select defaults.
type Options struct {
	// Builder generates the checkout document. Defaults to the provider's
	// standard widget loader.
	Builder *page.Builder

	// Extraction must match the extraction config the surface was created
	// with; it names the channel subject the controller listens on.
	Extraction extract.Config

	Logger  *logging.Logger
	Metrics *Metrics
}

// Controller drives one checkout session at a time over a rendering surface.
//
// The controller is not safe for concurrent Start calls; callers serialize
// access to one controller instance. Message handling and callback
// invocations are serialized by the channel subscription, in publish order.
type Controller struct {
	builder    *page.Builder
	extraction extract.Config
	log        *logging.Logger
	metrics    *Metrics

	mu       sync.Mutex
	state    State
	active   bool
	callback ResultFunc
	surf     surface.Surface
	sub      channel.Subscription
}

// NewController creates a Controller.
func NewController(opts Options) *Controller {
	builder := opts.Builder
	if builder == nil {
		builder = page.NewBuilder("")
	}
	metrics := opts.Metrics
	if metrics == nil {
		metrics = NewMetrics()
	}
	return &Controller{
		builder:    builder,
		extraction: opts.Extraction.WithDefaults(),
		log:        opts.Logger,
		metrics:    metrics,
		state:      StateIdle,
	}
}

// State reports the session lifecycle position.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Metrics returns the controller's metrics collector.
func (c *Controller) Metrics() *Metrics {
	return c.metrics
}

// Start begins a checkout session for req on surf. It subscribes to the
// surface channel, builds the page, issues the load, and returns without
// waiting for a result; the outcome arrives asynchronously on onResult.
//
// Starting while a session is active on this controller is a programmer
// error and fails with ErrSessionActive. A load command that cannot be
// issued is treated like any other navigation failure: it is logged and
// counted but never reaches onResult, and the session stays up until
// dismissed.
func (c *Controller) Start(ctx context.Context, surf surface.Surface, req Request, onResult ResultFunc) error {
	if onResult == nil {
		return ErrCallbackRequired
	}
	if surf == nil {
		return surface.ErrUnavailable
	}

	c.mu.Lock()
	if c.active {
		c.mu.Unlock()
		return ErrSessionActive
	}
	c.active = true
	c.callback = onResult
	c.surf = surf
	c.state = StateLoading
	c.mu.Unlock()

	sub, err := surf.Channel().Subscribe(ctx, c.extraction.ChannelSubject, c.handleMessage)
	if err != nil {
		c.mu.Lock()
		c.active = false
		c.callback = nil
		c.surf = nil
		c.state = StateIdle
		c.mu.Unlock()
		return err
	}
	c.mu.Lock()
	c.sub = sub
	c.mu.Unlock()

	c.metrics.RecordSessionStarted(surf.ID())
	req = req.withDefaults()
	doc := c.builder.Build(req.StoreFront, req.ProductPath, req.Quantity)

	if err := surf.Load(ctx, doc); err != nil {
		c.metrics.RecordLoadFailure(surf.ID(), err)
		_ = c.log.Warn(logging.CategoryNetwork, "load_failed", "checkout page load could not be issued", map[string]any{
			"surface_id": surf.ID(),
			"error":      err.Error(),
		})
	}

	c.mu.Lock()
	if c.state == StateLoading {
		c.state = StateAwaitingResult
	}
	c.mu.Unlock()
	return nil
}

// handleMessage runs on the subscription's delivery goroutine, one message
// at a time in channel order.
func (c *Controller) handleMessage(msg *channel.Message) {
	c.mu.Lock()
	surf := c.surf
	concluded := c.callback == nil
	c.mu.Unlock()
	if concluded {
		return
	}

	sessionID := surf.ID()
	c.metrics.RecordMessageReceived(sessionID)

	outcome, err := license.Parse(msg.Payload)
	if err != nil {
		c.metrics.RecordParseFailure(sessionID, license.KindOf(err))
		_ = c.log.Error(logging.CategoryParser, "parse_failed", "payload could not be parsed", map[string]any{
			"surface_id": sessionID,
			"kind":       string(license.KindOf(err)),
		})

		// Failure does not conclude the session: the callback stays
		// registered so a later valid payload can still deliver a success.
		c.mu.Lock()
		c.state = StateFailed
		cb := c.callback
		c.mu.Unlock()
		if cb != nil {
			cb(nil, err)
		}
		return
	}

	if !outcome.Completed {
		// A load completed without a finished order; keep waiting.
		return
	}

	c.mu.Lock()
	cb := c.callback
	c.callback = nil
	if cb != nil {
		c.state = StateDelivered
	}
	c.mu.Unlock()
	if cb == nil {
		return
	}

	c.metrics.RecordResultDelivered(sessionID, len(outcome.Records))
	_ = c.log.Info(logging.CategorySession, "result_delivered", "checkout result delivered", map[string]any{
		"surface_id": sessionID,
		"records":    len(outcome.Records),
	})
	cb(outcome.Records, nil)
}

// Dismiss ends the session and releases the subscription and the surface.
// If no success was delivered, the callback receives an empty record set
// exactly once: the explicit "user purchased nothing" signal. After a
// delivered success, Dismiss releases resources silently.
func (c *Controller) Dismiss() error {
	c.mu.Lock()
	if !c.active {
		c.mu.Unlock()
		return nil
	}
	c.active = false
	cb := c.callback
	c.callback = nil
	sub := c.sub
	c.sub = nil
	surf := c.surf
	c.surf = nil
	if cb != nil {
		c.state = StateDismissed
	}
	c.mu.Unlock()

	if sub != nil {
		_ = sub.Unsubscribe()
	}

	var sessionID string
	var closeErr error
	if surf != nil {
		sessionID = surf.ID()
		closeErr = surf.Close()
	}

	c.metrics.RecordSessionDismissed(sessionID, cb != nil)
	_ = c.log.Info(logging.CategorySession, "session_dismissed", "checkout session dismissed", map[string]any{
		"surface_id":      sessionID,
		"empty_delivered": cb != nil,
	})

	if cb != nil {
		cb([]license.Record{}, nil)
	}
	return closeErr
}
