package checkout

import (
	"context"
	"sync"

	"github.com/oklog/ulid/v2"

	"github.com/shopframe/shopframe/pkg/surface"
)

// Manager tracks active checkout sessions for a surface provider. Each
// session owns exactly one surface and one controller; no two sessions share
// a surface.
type Manager struct {
	provider surface.Provider
	opts     Options
	mu       sync.Mutex
	sessions map[string]*Session
}

// Session is one run of a checkout, from start through a terminal delivery
// or dismissal.
type Session struct {
	id         string
	controller *Controller
}

// ID returns the session identifier.
func (s *Session) ID() string {
	if s == nil {
		return ""
	}
	return s.id
}

// Controller returns the session's controller.
func (s *Session) Controller() *Controller {
	if s == nil {
		return nil
	}
	return s.controller
}

// Dismiss ends the session; see Controller.Dismiss.
func (s *Session) Dismiss() error {
	if s == nil {
		return nil
	}
	return s.controller.Dismiss()
}

// NewManager creates a Manager backed by the provided surface provider.
// opts apply to every controller the manager creates.
func NewManager(provider surface.Provider, opts Options) *Manager {
	return &Manager{
		provider: provider,
		opts:     opts,
		sessions: make(map[string]*Session),
	}
}

// StartSession allocates a surface, starts a checkout on it, and registers
// the session. cfg.SurfaceID doubles as the session ID; one is generated
// when empty.
func (m *Manager) StartSession(ctx context.Context, cfg surface.Config, req Request, onResult ResultFunc) (*Session, error) {
	if m == nil || m.provider == nil {
		return nil, surface.ErrUnavailable
	}
	if cfg.SurfaceID == "" {
		cfg.SurfaceID = ulid.Make().String()
	}
	if cfg.Extraction.ChannelSubject == "" && cfg.Extraction.ContainerSelector == "" {
		cfg.Extraction = m.opts.Extraction
	}

	m.mu.Lock()
	if _, exists := m.sessions[cfg.SurfaceID]; exists {
		m.mu.Unlock()
		return nil, ErrSessionExists
	}
	m.mu.Unlock()

	surf, err := m.provider.NewSurface(ctx, cfg)
	if err != nil {
		return nil, err
	}

	// The controller must listen where the surface's script posts.
	opts := m.opts
	opts.Extraction = cfg.Extraction
	ctrl := NewController(opts)
	if err := ctrl.Start(ctx, surf, req, onResult); err != nil {
		_ = surf.Close()
		return nil, err
	}

	sess := &Session{id: cfg.SurfaceID, controller: ctrl}
	m.mu.Lock()
	if _, exists := m.sessions[cfg.SurfaceID]; exists {
		m.mu.Unlock()
		_ = ctrl.Dismiss()
		return nil, ErrSessionExists
	}
	m.sessions[cfg.SurfaceID] = sess
	m.mu.Unlock()
	return sess, nil
}

// GetSession returns a session by ID.
func (m *Manager) GetSession(sessionID string) (*Session, bool) {
	if m == nil {
		return nil, false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, ok := m.sessions[sessionID]
	return sess, ok
}

// DismissSession dismisses and removes a session.
func (m *Manager) DismissSession(sessionID string) error {
	if m == nil {
		return surface.ErrUnavailable
	}
	m.mu.Lock()
	sess, ok := m.sessions[sessionID]
	if ok {
		delete(m.sessions, sessionID)
	}
	m.mu.Unlock()
	if !ok {
		return ErrSessionUnknown
	}
	return sess.Dismiss()
}

// Close dismisses all sessions and releases the provider.
func (m *Manager) Close() error {
	if m == nil {
		return nil
	}
	m.mu.Lock()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, sess := range m.sessions {
		sessions = append(sessions, sess)
	}
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()

	var lastErr error
	for _, sess := range sessions {
		if err := sess.Dismiss(); err != nil {
			lastErr = err
		}
	}
	if m.provider != nil {
		if err := m.provider.Close(); err != nil {
			lastErr = err
		}
	}
	return lastErr
}
