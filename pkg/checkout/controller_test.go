package checkout

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopframe/shopframe/pkg/channel"
	"github.com/shopframe/shopframe/pkg/extract"
	"github.com/shopframe/shopframe/pkg/license"
	"github.com/shopframe/shopframe/pkg/page"
	"github.com/shopframe/shopframe/pkg/surface"
)

// stubSurface is a surface whose loads do nothing; tests feed payloads into
// its channel directly, as the injected script would.
type stubSurface struct {
	id string
	ch *channel.Memory

	mu      sync.Mutex
	loads   []page.Document
	loadErr error
	closed  bool
}

func newStubSurface(id string) *stubSurface {
	return &stubSurface{id: id, ch: channel.NewMemory()}
}

func (s *stubSurface) ID() string { return s.id }

func (s *stubSurface) Load(ctx context.Context, doc page.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loads = append(s.loads, doc)
	return s.loadErr
}

func (s *stubSurface) Channel() channel.Channel { return s.ch }

func (s *stubSurface) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *stubSurface) post(t *testing.T, payload string) {
	t.Helper()
	if err := s.ch.Publish(context.Background(), extract.DefaultChannelSubject, payload); err != nil {
		t.Fatalf("publish payload: %v", err)
	}
}

type delivery struct {
	records []license.Record
	err     error
}

func collectResults() (ResultFunc, chan delivery) {
	results := make(chan delivery, 16)
	return func(records []license.Record, err error) {
		results <- delivery{records: records, err: err}
	}, results
}

func awaitDelivery(t *testing.T, results chan delivery) delivery {
	t.Helper()
	select {
	case d := <-results:
		return d
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for result delivery")
		return delivery{}
	}
}

func assertNoDelivery(t *testing.T, results chan delivery) {
	t.Helper()
	select {
	case d := <-results:
		t.Fatalf("unexpected delivery: %+v", d)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestController_StartValidation(t *testing.T) {
	c := NewController(Options{})
	surf := newStubSurface("s1")

	if err := c.Start(context.Background(), surf, Request{}, nil); !errors.Is(err, ErrCallbackRequired) {
		t.Errorf("nil callback err = %v, want ErrCallbackRequired", err)
	}
	onResult, _ := collectResults()
	if err := c.Start(context.Background(), nil, Request{}, onResult); !errors.Is(err, surface.ErrUnavailable) {
		t.Errorf("nil surface err = %v, want ErrUnavailable", err)
	}
	if got := c.State(); got != StateIdle {
		t.Errorf("state after rejected starts = %q, want idle", got)
	}
}

func TestController_StartLoadsCheckoutPage(t *testing.T) {
	c := NewController(Options{})
	surf := newStubSurface("s1")
	onResult, results := collectResults()

	err := c.Start(context.Background(), surf, Request{ProductPath: "/p/pro", StoreFront: "sf-1", Quantity: 2}, onResult)
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if got := c.State(); got != StateAwaitingResult {
		t.Errorf("state = %q, want awaiting_result", got)
	}

	surf.mu.Lock()
	loads := len(surf.loads)
	surf.mu.Unlock()
	if loads != 1 {
		t.Fatalf("loads = %d, want 1", loads)
	}
	surf.mu.Lock()
	doc := surf.loads[0]
	surf.mu.Unlock()
	if doc.BaseURL != page.BlankBaseURL {
		t.Errorf("doc.BaseURL = %q, want %q", doc.BaseURL, page.BlankBaseURL)
	}

	assertNoDelivery(t, results)
}

func TestController_SecondStartFails(t *testing.T) {
	c := NewController(Options{})
	onResult, _ := collectResults()

	if err := c.Start(context.Background(), newStubSurface("s1"), Request{}, onResult); err != nil {
		t.Fatalf("first Start failed: %v", err)
	}
	err := c.Start(context.Background(), newStubSurface("s2"), Request{}, onResult)
	if !errors.Is(err, ErrSessionActive) {
		t.Errorf("second Start err = %v, want ErrSessionActive", err)
	}
}

func TestController_SuccessDelivery(t *testing.T) {
	c := NewController(Options{})
	surf := newStubSurface("s1")
	onResult, results := collectResults()

	if err := c.Start(context.Background(), surf, Request{}, onResult); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	surf.post(t, `{"debtorName":"Alice","order":{"groups":[{"items":[{"fulfillment":{"licenses":[{"code":"ABC-123"}]}}]}]}}`)

	d := awaitDelivery(t, results)
	if d.err != nil {
		t.Fatalf("delivery err = %v", d.err)
	}
	if len(d.records) != 1 || d.records[0].Code != "ABC-123" || d.records[0].Name != "Alice" {
		t.Errorf("records = %+v", d.records)
	}
	if got := c.State(); got != StateDelivered {
		t.Errorf("state = %q, want delivered", got)
	}

	// Success concludes the session: later payloads are ignored.
	surf.post(t, `{"debtorName":"Alice","order":{"groups":[]}}`)
	assertNoDelivery(t, results)
}

func TestController_NoResultPayloadKeepsWaiting(t *testing.T) {
	c := NewController(Options{})
	surf := newStubSurface("s1")
	onResult, results := collectResults()

	if err := c.Start(context.Background(), surf, Request{}, onResult); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	// The widget page itself has no finished order.
	surf.post(t, `{"order":{"groups":[]}}`)
	assertNoDelivery(t, results)
	if got := c.State(); got != StateAwaitingResult {
		t.Errorf("state = %q, want awaiting_result", got)
	}

	surf.post(t, `{"debtorName":"Bob","order":{"groups":[]}}`)
	d := awaitDelivery(t, results)
	if d.err != nil || len(d.records) != 0 {
		t.Errorf("delivery = %+v", d)
	}
}

func TestController_FailureThenRecovery(t *testing.T) {
	c := NewController(Options{})
	surf := newStubSurface("s1")
	onResult, results := collectResults()

	if err := c.Start(context.Background(), surf, Request{}, onResult); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	surf.post(t, `definitely not json`)
	d := awaitDelivery(t, results)
	if license.KindOf(d.err) != license.KindMalformedStructure {
		t.Fatalf("first delivery err = %v, want malformed_structure", d.err)
	}
	if got := c.State(); got != StateFailed {
		t.Errorf("state = %q, want failed", got)
	}

	// A failure does not conclude the session: a later valid payload still
	// reaches the callback.
	surf.post(t, `{"debtorName":"Alice","order":{"groups":[{"items":[{"fulfillment":{"licenses":[{"code":"XYZ"}]}}]}]}}`)
	d = awaitDelivery(t, results)
	if d.err != nil {
		t.Fatalf("second delivery err = %v", d.err)
	}
	if len(d.records) != 1 || d.records[0].Code != "XYZ" {
		t.Errorf("records = %+v", d.records)
	}
}

func TestController_DismissWithoutResult(t *testing.T) {
	c := NewController(Options{})
	surf := newStubSurface("s1")
	onResult, results := collectResults()

	if err := c.Start(context.Background(), surf, Request{}, onResult); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	if err := c.Dismiss(); err != nil {
		t.Fatalf("Dismiss failed: %v", err)
	}

	// Dismissal without a delivered success means "purchased nothing":
	// exactly one empty success.
	d := awaitDelivery(t, results)
	if d.err != nil {
		t.Fatalf("delivery err = %v", d.err)
	}
	if d.records == nil || len(d.records) != 0 {
		t.Errorf("records = %+v, want empty non-nil slice", d.records)
	}
	if got := c.State(); got != StateDismissed {
		t.Errorf("state = %q, want dismissed", got)
	}

	surf.mu.Lock()
	closed := surf.closed
	surf.mu.Unlock()
	if !closed {
		t.Error("surface not closed on dismiss")
	}

	// Repeat dismissal delivers nothing further.
	if err := c.Dismiss(); err != nil {
		t.Errorf("repeat Dismiss failed: %v", err)
	}
	assertNoDelivery(t, results)
}

func TestController_DismissAfterSuccessIsSilent(t *testing.T) {
	c := NewController(Options{})
	surf := newStubSurface("s1")
	onResult, results := collectResults()

	if err := c.Start(context.Background(), surf, Request{}, onResult); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	surf.post(t, `{"debtorName":"Alice","order":{"groups":[]}}`)
	awaitDelivery(t, results)

	if err := c.Dismiss(); err != nil {
		t.Fatalf("Dismiss failed: %v", err)
	}
	assertNoDelivery(t, results)

	surf.mu.Lock()
	closed := surf.closed
	surf.mu.Unlock()
	if !closed {
		t.Error("surface not closed on dismiss")
	}
}

func TestController_DismissAfterFailureDeliversEmptySuccess(t *testing.T) {
	c := NewController(Options{})
	surf := newStubSurface("s1")
	onResult, results := collectResults()

	if err := c.Start(context.Background(), surf, Request{}, onResult); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	surf.post(t, `broken`)
	d := awaitDelivery(t, results)
	if d.err == nil {
		t.Fatal("expected a parse failure delivery")
	}

	// The failure left the callback in place, so dismissal still owes the
	// empty success.
	if err := c.Dismiss(); err != nil {
		t.Fatalf("Dismiss failed: %v", err)
	}
	d = awaitDelivery(t, results)
	if d.err != nil || len(d.records) != 0 {
		t.Errorf("delivery after dismiss = %+v", d)
	}
}

func TestController_LoadErrorDoesNotReachCallback(t *testing.T) {
	c := NewController(Options{})
	surf := newStubSurface("s1")
	surf.loadErr = errors.New("render host gone")
	onResult, results := collectResults()

	if err := c.Start(context.Background(), surf, Request{}, onResult); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	assertNoDelivery(t, results)
	if got := c.metrics.Snapshot().LoadFailures; got != 1 {
		t.Errorf("LoadFailures = %d, want 1", got)
	}

	// The session is still dismissable and owes the empty success.
	if err := c.Dismiss(); err != nil {
		t.Fatalf("Dismiss failed: %v", err)
	}
	d := awaitDelivery(t, results)
	if d.err != nil || len(d.records) != 0 {
		t.Errorf("delivery = %+v", d)
	}
}
