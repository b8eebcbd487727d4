package remote

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/shopframe/shopframe/pkg/channel"
	"github.com/shopframe/shopframe/pkg/extract"
	"github.com/shopframe/shopframe/pkg/page"
	"github.com/shopframe/shopframe/pkg/surface"
)

// Runtime creates surfaces on a rendering host. Each surface owns its own
// websocket connection, so closing one surface never disturbs another.
type Runtime struct {
	cfg Config
}

// NewRuntime validates the configuration and returns a Runtime.
func NewRuntime(cfg Config) (*Runtime, error) {
	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Runtime{cfg: cfg}, nil
}

func (r *Runtime) NewSurface(ctx context.Context, scfg surface.Config) (surface.Surface, error) {
	if r == nil {
		return nil, surface.ErrUnavailable
	}

	id := scfg.SurfaceID
	if id == "" {
		id = ulid.Make().String()
	}
	ch := scfg.Channel
	ownsChannel := false
	if ch == nil {
		ch = channel.NewMemory()
		ownsChannel = true
	}

	s := &Surface{
		id:          id,
		cfg:         r.cfg,
		extraction:  scfg.Extraction.WithDefaults(),
		opener:      scfg.Opener,
		ch:          ch,
		ownsChannel: ownsChannel,
	}

	cl, err := dial(ctx, r.cfg.URL, r.cfg.ConnectTimeout, s.handleEvent)
	if err != nil {
		if ownsChannel {
			_ = ch.Close()
		}
		return nil, err
	}
	s.client = cl

	createCtx, cancel := s.withOperationTimeout(ctx)
	defer cancel()
	resp, err := cl.send(createCtx, &request{
		SurfaceID:     id,
		Op:            opCreate,
		ScriptVersion: extract.ScriptVersion,
	})
	if err == nil {
		err = responseError(resp)
	}
	if err != nil {
		_ = cl.close()
		if ownsChannel {
			_ = ch.Close()
		}
		return nil, err
	}
	return s, nil
}

func (r *Runtime) Close() error {
	return nil
}

// Surface is one rendering-host-backed surface.
type Surface struct {
	id          string
	cfg         Config
	extraction  extract.Config
	opener      surface.ExternalOpener
	ch          channel.Channel
	ownsChannel bool

	mu               sync.Mutex
	client           *client
	closed           bool
	reconnectAttempt int
}

func (s *Surface) ID() string {
	if s == nil {
		return ""
	}
	return s.id
}

// Load ships the document and the extraction script to the rendering host.
// The script is injected at document start into the top frame; its messages
// come back as events and land on the surface channel.
func (s *Surface) Load(ctx context.Context, doc page.Document) error {
	if err := s.ensureOpen(); err != nil {
		return err
	}
	ctx, cancel := s.withOperationTimeout(ctx)
	defer cancel()

	baseURL := doc.BaseURL
	if baseURL == "" {
		baseURL = page.BlankBaseURL
	}
	resp, err := s.sendWithReconnect(ctx, &request{
		SurfaceID: s.id,
		Op:        opLoad,
		HTML:      doc.HTML,
		BaseURL:   baseURL,
		Script:    extract.Script(s.extraction),
	})
	if err != nil {
		return err
	}
	return responseError(resp)
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
	cl := s.client
	s.mu.Unlock()

	if cl != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		_, _ = cl.send(ctx, &request{SurfaceID: s.id, Op: opClose})
		cancel()
		_ = cl.close()
	}
	if s.ownsChannel {
		return s.ch.Close()
	}
	return nil
}

// handleEvent runs on the client's reader goroutine.
func (s *Surface) handleEvent(ev *event) {
	if ev == nil || ev.SurfaceID != s.id {
		return
	}
	switch ev.Kind {
	case eventScriptMessage:
		subject := ev.Subject
		if subject == "" {
			subject = s.extraction.ChannelSubject
		}
		_ = s.ch.Publish(context.Background(), subject, ev.Payload)
	case eventNavigation:
		if ev.TopLevel && s.opener != nil {
			_ = s.opener.OpenExternal(ev.URL)
		}
	case eventLoadFailed:
		// Load failures only matter to a loading indicator; they never
		// reach the session's result callback.
	}
}

func (s *Surface) ensureOpen() error {
	if s == nil {
		return surface.ErrSurfaceClosed
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return surface.ErrSurfaceClosed
	}
	if s.client == nil {
		return surface.ErrUnavailable
	}
	return nil
}

func (s *Surface) currentClient() *client {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.client
}

func (s *Surface) sendWithReconnect(ctx context.Context, req *request) (*response, error) {
	resp, err := s.currentClient().send(ctx, req)
	if err == nil {
		return resp, nil
	}
	if !errors.Is(err, ErrConnectionLost) {
		return nil, err
	}
	if err := s.reconnect(ctx); err != nil {
		return nil, err
	}
	return s.currentClient().send(ctx, req)
}

func (s *Surface) reconnect(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return surface.ErrSurfaceClosed
	}
	if s.reconnectAttempt >= s.cfg.MaxReconnects {
		s.mu.Unlock()
		return ErrReconnectFailed
	}
	s.reconnectAttempt++
	old := s.client
	s.mu.Unlock()

	if old != nil {
		_ = old.close()
	}

	cl, err := dial(ctx, s.cfg.URL, s.cfg.ConnectTimeout, s.handleEvent)
	if err != nil {
		return err
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		_ = cl.close()
		return surface.ErrSurfaceClosed
	}
	s.client = cl
	s.reconnectAttempt = 0
	s.mu.Unlock()
	return nil
}

func (s *Surface) withOperationTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	if _, hasDeadline := ctx.Deadline(); hasDeadline {
		return ctx, func() {}
	}
	timeout := s.cfg.OperationTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return context.WithTimeout(ctx, timeout)
}
