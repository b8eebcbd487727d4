// Package config loads shopframe configuration from YAML with defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/shopframe/shopframe/pkg/extract"
	"github.com/shopframe/shopframe/pkg/page"
)

// Surface modes.
const (
	SurfaceModeHeadless = "headless"
	SurfaceModeRemote   = "remote"
)

// Channel modes.
const (
	ChannelModeMemory = "memory"
	ChannelModeNATS   = "nats"
)

// Config is the complete shopframe configuration.
type Config struct {
	Provider ProviderConfig `yaml:"provider"`
	Surface  SurfaceConfig  `yaml:"surface"`
	Channel  ChannelConfig  `yaml:"channel"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// ProviderConfig describes the checkout provider's storefront.
type ProviderConfig struct {
	StoreFront        string `yaml:"storefront"`
	WidgetScriptURL   string `yaml:"widget_script_url"`
	ContainerSelector string `yaml:"container_selector"`
	ChannelSubject    string `yaml:"channel_subject"`
}

// SurfaceConfig selects and tunes the rendering surface.
type SurfaceConfig struct {
	Mode             string        `yaml:"mode"`
	RemoteURL        string        `yaml:"remote_url"`
	ConnectTimeout   time.Duration `yaml:"connect_timeout"`
	OperationTimeout time.Duration `yaml:"operation_timeout"`
	MaxReconnects    int           `yaml:"max_reconnects"`
}

// ChannelConfig selects the content-to-host message channel backend.
type ChannelConfig struct {
	Mode string `yaml:"mode"`
	URL  string `yaml:"url"`
	Name string `yaml:"name"`
}

// LoggingConfig controls the structured session logger.
type LoggingConfig struct {
	Dir      string `yaml:"dir"`
	MinLevel string `yaml:"min_level"`
}

// Default returns the recommended configuration.
func Default() Config {
	return Config{
		Provider: ProviderConfig{
			WidgetScriptURL:   page.DefaultWidgetScriptURL,
			ContainerSelector: extract.DefaultContainerSelector,
			ChannelSubject:    extract.DefaultChannelSubject,
		},
		Surface: SurfaceConfig{
			Mode:             SurfaceModeHeadless,
			ConnectTimeout:   5 * time.Second,
			OperationTimeout: 30 * time.Second,
			MaxReconnects:    3,
		},
		Channel: ChannelConfig{
			Mode: ChannelModeMemory,
			Name: "shopframe",
		},
		Logging: LoggingConfig{
			MinLevel: "info",
		},
	}
}

// Load reads a YAML file over the defaults and validates the result. An
// empty path returns the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if strings.TrimSpace(path) == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks whether the config is usable.
func (c Config) Validate() error {
	switch c.Surface.Mode {
	case SurfaceModeHeadless:
	case SurfaceModeRemote:
		if strings.TrimSpace(c.Surface.RemoteURL) == "" {
			return errors.New("surface.remote_url is required in remote mode")
		}
	default:
		return fmt.Errorf("unknown surface mode %q", c.Surface.Mode)
	}
	switch c.Channel.Mode {
	case ChannelModeMemory, ChannelModeNATS:
	default:
		return fmt.Errorf("unknown channel mode %q", c.Channel.Mode)
	}
	switch strings.ToLower(c.Logging.MinLevel) {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level %q", c.Logging.MinLevel)
	}
	return nil
}
