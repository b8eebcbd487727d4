// Package remote implements a rendering surface backed by an out-of-process
// rendering host reached over a websocket. The host renders documents in a
// real web view, injects the extraction script, and streams script messages
// and navigation requests back as events.
package remote

import (
	"errors"
	"strings"
	"time"
)

// Config controls how the remote adapter reaches the rendering host.
type Config struct {
	// URL is the websocket endpoint, e.g. "ws://127.0.0.1:8700/surface".
	URL string

	ConnectTimeout   time.Duration
	OperationTimeout time.Duration

	// MaxReconnects caps reconnection attempts per surface. Zero selects
	// the default; a negative value disables reconnection.
	MaxReconnects int
}

// DefaultConfig returns the default adapter configuration.
func DefaultConfig() Config {
	return Config{
		URL:              "ws://127.0.0.1:8700/surface",
		ConnectTimeout:   5 * time.Second,
		OperationTimeout: 30 * time.Second,
		MaxReconnects:    3,
	}
}

func (c Config) withDefaults() Config {
	defaults := DefaultConfig()
	if strings.TrimSpace(c.URL) != "" {
		defaults.URL = c.URL
	}
	if c.ConnectTimeout != 0 {
		defaults.ConnectTimeout = c.ConnectTimeout
	}
	if c.OperationTimeout != 0 {
		defaults.OperationTimeout = c.OperationTimeout
	}
	if c.MaxReconnects > 0 {
		defaults.MaxReconnects = c.MaxReconnects
	} else if c.MaxReconnects < 0 {
		defaults.MaxReconnects = 0
	}
	return defaults
}

// Validate checks whether the config is usable.
func (c Config) Validate() error {
	if strings.TrimSpace(c.URL) == "" {
		return errors.New("url is required")
	}
	if !strings.HasPrefix(c.URL, "ws://") && !strings.HasPrefix(c.URL, "wss://") {
		return errors.New("url must use the ws or wss scheme")
	}
	if c.ConnectTimeout < 0 {
		return errors.New("connect_timeout must be zero or positive")
	}
	return nil
}
