// Package auth resolves bearer tokens to organizer ids. It is deliberately
// thin: no sessions, no JWT parsing, just a token table lookup with a
// small in-process cache.
package auth

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/givebridge/givebridge/internal/pkg/httputil"
)

type ctxKey int

const organizerKey ctxKey = 0

// TokenSource looks up who owns a bearer token.
type TokenSource interface {
	OrganizerIDForToken(ctx context.Context, token string) (string, error)
}

type cacheEntry struct {
	organizerID string
	expires     time.Time
}

// Manager authenticates requests. Resolved tokens are cached for the
// configured TTL; a revoked token keeps working until its entry expires.
type Manager struct {
	src TokenSource
	ttl time.Duration

	mu    sync.RWMutex
	cache map[string]cacheEntry
}

// NewManager creates an auth manager with the given cache TTL.
func NewManager(src TokenSource, ttl time.Duration) *Manager {
	return &Manager{src: src, ttl: ttl, cache: make(map[string]cacheEntry)}
}

// RequireAuth rejects requests without a valid bearer token and stamps
// the resolved organizer id into the request context.
func (m *Manager) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			httputil.Error(w, http.StatusUnauthorized, "missing bearer token")
			return
		}

		organizerID, err := m.resolve(r.Context(), token)
		if err != nil {
			httputil.Error(w, http.StatusUnauthorized, "invalid bearer token")
			return
		}

		next.ServeHTTP(w, r.WithContext(WithOrganizer(r.Context(), organizerID)))
	})
}

func (m *Manager) resolve(ctx context.Context, token string) (string, error) {
	m.mu.RLock()
	entry, ok := m.cache[token]
	m.mu.RUnlock()
	if ok && time.Now().Before(entry.expires) {
		return entry.organizerID, nil
	}

	organizerID, err := m.src.OrganizerIDForToken(ctx, token)
	if err != nil {
		return "", err
	}

	m.mu.Lock()
	m.cache[token] = cacheEntry{organizerID: organizerID, expires: time.Now().Add(m.ttl)}
	m.mu.Unlock()
	return organizerID, nil
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(h) > len(prefix) && strings.EqualFold(h[:len(prefix)], prefix) {
		return strings.TrimSpace(h[len(prefix):])
	}
	return ""
}

// WithOrganizer returns a context carrying the organizer id.
func WithOrganizer(ctx context.Context, organizerID string) context.Context {
	return context.WithValue(ctx, organizerKey, organizerID)
}

// OrganizerID returns the authenticated organizer id, or "" when the
// request never passed RequireAuth.
func OrganizerID(ctx context.Context) string {
	id, _ := ctx.Value(organizerKey).(string)
	return id
}
