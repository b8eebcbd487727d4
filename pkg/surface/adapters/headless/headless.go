// Package headless implements an in-process rendering surface backed by
// goquery. There is no script execution: the host runs the extraction
// contract itself, publishing the payload container's text on the surface
// channel after every completed load, exactly as the injected script would
// inside a live web view.
package headless

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/oklog/ulid/v2"

	"github.com/shopframe/shopframe/pkg/channel"
	"github.com/shopframe/shopframe/pkg/extract"
	"github.com/shopframe/shopframe/pkg/page"
	"github.com/shopframe/shopframe/pkg/surface"
)

// Provider creates headless surfaces.
type Provider struct {
	closed atomic.Bool
}

// NewProvider creates a headless surface provider.
func NewProvider() *Provider {
	return &Provider{}
}

// NewSurface allocates a surface. When cfg.Channel is nil the surface owns a
// private in-memory channel and closes it with the surface.
func (p *Provider) NewSurface(ctx context.Context, cfg surface.Config) (surface.Surface, error) {
	if p == nil || p.closed.Load() {
		return nil, surface.ErrUnavailable
	}
	id := cfg.SurfaceID
	if id == "" {
		id = ulid.Make().String()
	}
	ch := cfg.Channel
	ownsChannel := false
	if ch == nil {
		ch = channel.NewMemory()
		ownsChannel = true
	}
	return &Surface{
		id:          id,
		extraction:  cfg.Extraction.WithDefaults(),
		opener:      cfg.Opener,
		ch:          ch,
		ownsChannel: ownsChannel,
	}, nil
}

func (p *Provider) Close() error {
	if p == nil {
		return nil
	}
	p.closed.Store(true)
	return nil
}

// Surface is one headless rendering surface.
type Surface struct {
	id          string
	extraction  extract.Config
	opener      surface.ExternalOpener
	ch          channel.Channel
	ownsChannel bool

	mu     sync.Mutex
	doc    page.Document
	loaded bool
	closed bool
}

func (s *Surface) ID() string {
	if s == nil {
		return ""
	}
	return s.id
}

// Load replaces the document and immediately completes the load: the payload
// container's text is published on the surface channel. Documents without a
// container publish nothing, matching the live script.
func (s *Surface) Load(ctx context.Context, doc page.Document) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return surface.ErrSurfaceClosed
	}
	s.doc = doc
	s.loaded = true
	s.mu.Unlock()

	payload, err := extract.ReadContainer(doc.HTML, s.extraction.ContainerSelector)
	if errors.Is(err, extract.ErrContainerMissing) {
		return nil
	}
	if err != nil {
		return err
	}
	return s.ch.Publish(ctx, s.extraction.ChannelSubject, payload)
}

// Navigate applies the outbound-link policy to a navigation request raised
// by the loaded document. Top-level targets go to the external opener and
// never replace the embedded document. In-page targets replace the document
// with next and re-run extraction, like a transition within the checkout
// flow.
func (s *Surface) Navigate(ctx context.Context, nav surface.Navigation, next page.Document) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return surface.ErrSurfaceClosed
	}
	loaded := s.loaded
	s.mu.Unlock()

	if !loaded {
		return surface.ErrNoDocument
	}
	if nav.TopLevel {
		if s.opener == nil {
			return nil
		}
		return s.opener.OpenExternal(nav.URL)
	}
	return s.Load(ctx, next)
}

// Document returns the currently loaded document, if any.
func (s *Surface) Document() (page.Document, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc, s.loaded
}

func (s *Surface) Channel() channel.Channel {
	return s.ch
}

func (s *Surface) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	if s.ownsChannel {
		return s.ch.Close()
	}
	return nil
}
