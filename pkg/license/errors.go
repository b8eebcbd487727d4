package license

import (
	"errors"
	"fmt"
)

// Kind classifies a parse failure.
type Kind string

const (
	// KindInvalidPayloadType means the payload crossing the channel was not
	// a string.
	KindInvalidPayloadType Kind = "invalid_payload_type"

	// KindEncodingError means the payload string was not valid UTF-8 text.
	// Only reachable if the channel could deliver non-text; kept so a broken
	// transport surfaces as a typed failure.
	KindEncodingError Kind = "encoding_error"

	// KindMalformedStructure means the payload did not decode into the
	// expected order view shape after a purchaser name was present.
	KindMalformedStructure Kind = "malformed_structure"
)

// ParseError reports why a raw payload could not be turned into records.
type ParseError struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("parse payload [%s]: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("parse payload [%s]: %s", e.Kind, e.Message)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// NewParseError creates a ParseError without an underlying cause.
func NewParseError(kind Kind, message string) *ParseError {
	return &ParseError{Kind: kind, Message: message}
}

// WrapParseError wraps an underlying error with parse context.
func WrapParseError(kind Kind, message string, err error) *ParseError {
	return &ParseError{Kind: kind, Message: message, Err: err}
}

// KindOf returns the failure kind carried by err, or "" when err is not a
// parse error.
func KindOf(err error) Kind {
	var parseErr *ParseError
	if errors.As(err, &parseErr) {
		return parseErr.Kind
	}
	return ""
}
