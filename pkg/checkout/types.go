// Package checkout orchestrates one embedded checkout flow: it builds and
// loads the provider page, owns the injected-script wiring, parses payloads
// coming back over the message channel, and delivers the outcome to the
// caller's callback.
package checkout

import "github.com/shopframe/shopframe/pkg/license"

// Request describes one checkout to run. Field values are substituted
// verbatim into the generated page with no escaping; callers supply trusted,
// well-formed identifiers.
type Request struct {
	ProductPath string
	StoreFront  string

	// Quantity defaults to 1 when less than 1.
	Quantity int
}

func (r Request) withDefaults() Request {
	if r.Quantity < 1 {
		r.Quantity = 1
	}
	return r
}

// ResultFunc receives the outcome of a checkout session. A nil error carries
// the license records; an empty slice means the purchase concluded with
// nothing granted (including user cancellation). A non-nil error is a
// *license.ParseError describing a payload that could not be decoded.
type ResultFunc func(records []license.Record, err error)

// State is the controller's position in the session lifecycle.
type State string

const (
	StateIdle           State = "idle"
	StateLoading        State = "loading"
	StateAwaitingResult State = "awaiting_result"
	StateFailed         State = "failed"
	StateDelivered      State = "delivered"
	StateDismissed      State = "dismissed"
)
