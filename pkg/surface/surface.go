// Package surface defines the port implemented by rendering-surface
// adapters: the sandboxed execution environment that renders the checkout
// page, distinct from the host's own execution context.
package surface

import (
	"context"

	"github.com/shopframe/shopframe/pkg/channel"
	"github.com/shopframe/shopframe/pkg/extract"
	"github.com/shopframe/shopframe/pkg/page"
)

// Provider creates rendering surfaces.
type Provider interface {
	NewSurface(ctx context.Context, cfg Config) (Surface, error)
	Close() error
}

// Surface is one content-rendering surface. A surface and its message
// channel registration are exclusively owned by one checkout session; no two
// sessions share a surface.
type Surface interface {
	ID() string

	// Load replaces the surface's document and arranges for the extraction
	// contract to run once the load completes. It issues the load command
	// only; completion is reported through the channel.
	Load(ctx context.Context, doc page.Document) error

	// Channel returns the content-to-host message channel for this surface.
	Channel() channel.Channel

	Close() error
}

// Config configures a new surface.
type Config struct {
	// SurfaceID names the surface; adapters generate one when empty.
	SurfaceID string

	// Extraction selects the container and channel subject the injected
	// script binds to.
	Extraction extract.Config

	// Opener receives navigations that target a new top-level context.
	// Such navigations are never loaded inside the surface.
	Opener ExternalOpener

	// Channel overrides the content-to-host channel. When nil, adapters
	// create a private in-memory channel owned by the surface.
	Channel channel.Channel
}
