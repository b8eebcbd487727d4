package checkout

import "errors"

var (
	// ErrSessionActive is returned when Start is called while a session is
	// already active on the controller. Only one concurrent session per
	// controller is supported; this is a programmer error, not a
	// recoverable input error.
	ErrSessionActive = errors.New("checkout session already active")

	// ErrSessionExists is returned by the manager for a duplicate session ID.
	ErrSessionExists = errors.New("checkout session already exists")

	// ErrSessionUnknown is returned by the manager for an unknown session ID.
	ErrSessionUnknown = errors.New("checkout session unknown")

	// ErrCallbackRequired is returned when Start is called without a result
	// callback; a session without a delivery target has no purpose.
	ErrCallbackRequired = errors.New("result callback is required")
)
