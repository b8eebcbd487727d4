package remote

import (
	"errors"
	"fmt"
)

var (
	ErrConnectionLost  = errors.New("rendering host connection lost")
	ErrReconnectFailed = errors.New("rendering host reconnection failed")
)

// HostError wraps errors reported by the rendering host daemon.
type HostError struct {
	Code    string
	Message string
	Err     error
}

func (e *HostError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("rendering host error [%s]: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("rendering host error [%s]: %s", e.Code, e.Message)
}

func (e *HostError) Unwrap() error {
	return e.Err
}

func responseError(resp *response) error {
	if resp == nil {
		return &HostError{Code: "empty_response", Message: "missing response"}
	}
	if resp.Error == nil {
		return nil
	}
	code := resp.Error.Code
	if code == "" {
		code = "unknown"
	}
	message := resp.Error.Message
	if message == "" {
		message = "operation failed"
	}
	return &HostError{Code: code, Message: message}
}
