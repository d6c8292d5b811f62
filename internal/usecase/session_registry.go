package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/ferdian3456/virdanengage/internal/engagement"
	"github.com/ferdian3456/virdanengage/internal/model"
	"go.uber.org/zap"
)

// BackendFactory builds the data backend a session talks to on behalf of
// viewer.
type BackendFactory func(viewer model.Viewer) engagement.Backend

type tokenSetter interface {
	SetToken(token string)
}

type registryEntry struct {
	session     *engagement.Session
	backend     engagement.Backend
	fingerprint string
	token       string
}

// SessionRegistry maps browsing session ids to live engagement sessions.
// Sessions idle for longer than the idle TTL are closed by Sweep.
type SessionRegistry struct {
	Log *zap.Logger

	newBackend BackendFactory
	options    engagement.SessionOptions
	idleTTL    time.Duration
	now        func() time.Time

	mu       sync.Mutex
	sessions map[string]*registryEntry
}

func NewSessionRegistry(newBackend BackendFactory, options engagement.SessionOptions, idleTTL time.Duration, zap *zap.Logger) *SessionRegistry {
	if idleTTL <= 0 {
		idleTTL = 30 * time.Minute
	}
	if options.Log == nil {
		options.Log = zap
	}

	return &SessionRegistry{
		Log:        zap,
		newBackend: newBackend,
		options:    options,
		idleTTL:    idleTTL,
		now:        time.Now,
		sessions:   make(map[string]*registryEntry),
	}
}

func identityOf(viewer model.Viewer) engagement.StaticIdentity {
	if !viewer.IsAuthenticated() {
		return engagement.Anonymous()
	}

	return engagement.StaticIdentity{
		ID:            viewer.UserId.String(),
		Name:          viewer.Username,
		Authenticated: true,
	}
}

// Acquire returns the session for sessionId, creating it on first use. A
// session opened for another identity is closed and rebuilt.
func (registry *SessionRegistry) Acquire(sessionId string, viewer model.Viewer) *engagement.Session {
	registry.mu.Lock()
	defer registry.mu.Unlock()

	fingerprint := viewer.Fingerprint()

	entry, ok := registry.sessions[sessionId]
	if ok && entry.fingerprint == fingerprint {
		if entry.token != viewer.Token {
			if setter, ok := entry.backend.(tokenSetter); ok {
				setter.SetToken(viewer.Token)
			}
			entry.token = viewer.Token
		}

		entry.session.Touch()
		return entry.session
	}

	if ok {
		registry.Log.Debug("identity changed, rebuilding engagement session", zap.String("sessionId", sessionId))
		entry.session.Close()
	}

	backend := registry.newBackend(viewer)
	entry = &registryEntry{
		session:     engagement.NewSession(sessionId, identityOf(viewer), backend, registry.options),
		backend:     backend,
		fingerprint: fingerprint,
		token:       viewer.Token,
	}
	registry.sessions[sessionId] = entry

	return entry.session
}

// Lookup returns the live session without creating one.
func (registry *SessionRegistry) Lookup(sessionId string) (*engagement.Session, bool) {
	registry.mu.Lock()
	defer registry.mu.Unlock()

	entry, ok := registry.sessions[sessionId]
	if !ok {
		return nil, false
	}

	return entry.session, true
}

func (registry *SessionRegistry) Remove(sessionId string) bool {
	registry.mu.Lock()
	defer registry.mu.Unlock()

	entry, ok := registry.sessions[sessionId]
	if !ok {
		return false
	}

	entry.session.Close()
	delete(registry.sessions, sessionId)
	return true
}

func (registry *SessionRegistry) Len() int {
	registry.mu.Lock()
	defer registry.mu.Unlock()

	return len(registry.sessions)
}

// Sweep closes sessions idle for longer than the idle TTL and returns how
// many were evicted.
func (registry *SessionRegistry) Sweep() int {
	registry.mu.Lock()
	defer registry.mu.Unlock()

	now := registry.now()
	evicted := 0
	for id, entry := range registry.sessions {
		if now.Sub(entry.session.LastSeen()) <= registry.idleTTL {
			continue
		}

		entry.session.Close()
		delete(registry.sessions, id)
		evicted++
	}

	if evicted > 0 {
		registry.Log.Debug("evicted idle engagement sessions", zap.Int("count", evicted))
	}

	return evicted
}

// Run sweeps periodically until ctx is done, then closes every session.
func (registry *SessionRegistry) Run(ctx context.Context) {
	interval := registry.idleTTL / 2
	if interval < time.Second {
		interval = time.Second
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			registry.CloseAll()
			return
		case <-ticker.C:
			registry.Sweep()
		}
	}
}

func (registry *SessionRegistry) CloseAll() {
	registry.mu.Lock()
	defer registry.mu.Unlock()

	for id, entry := range registry.sessions {
		entry.session.Close()
		delete(registry.sessions, id)
	}
}
