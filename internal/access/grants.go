package access

import (
	"sync"
	"time"
)

// DefaultGrantTTL is how long a successful password check keeps a list
// unlocked for a viewer session.
const DefaultGrantTTL = 24 * time.Hour

type grantKey struct {
	sessionID string
	listID    int64
}

// Grants holds per-viewer-session access grants for password-protected lists.
// A grant is created only after a successful password check and has the
// lifetime of the viewer session. Grants are ephemeral and never persisted.
type Grants struct {
	mu  sync.Mutex
	ttl time.Duration
	m   map[grantKey]time.Time
}

// NewGrants creates an empty grant store with the given TTL.
// A non-positive TTL falls back to DefaultGrantTTL.
func NewGrants(ttl time.Duration) *Grants {
	if ttl <= 0 {
		ttl = DefaultGrantTTL
	}
	return &Grants{ttl: ttl, m: make(map[grantKey]time.Time)}
}

// Add records an access grant for a session and list.
func (g *Grants) Add(sessionID string, listID int64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.m[grantKey{sessionID, listID}] = time.Now().Add(g.ttl)
}

// Has reports whether a session holds a live grant for a list.
// Expired grants are removed on lookup.
func (g *Grants) Has(sessionID string, listID int64) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	key := grantKey{sessionID, listID}
	expires, ok := g.m[key]
	if !ok {
		return false
	}
	if time.Now().After(expires) {
		delete(g.m, key)
		return false
	}
	return true
}

// Revoke removes all grants for a session.
func (g *Grants) Revoke(sessionID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for key := range g.m {
		if key.sessionID == sessionID {
			delete(g.m, key)
		}
	}
}
