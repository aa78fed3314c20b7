// Presence registry: the process-wide mapping from user identity to the
// single live connection that currently represents it.
package realtime

import "sync"

// Presence tracks which users are online and on which connection. It keeps
// at most one connection id per user: registering a user who is already
// online replaces the prior entry (last connect wins), so a stale tab or a
// half-dead connection never shadows the live one.
//
// The registry is in-memory only and scoped to this process. It is safe for
// concurrent use.
type Presence struct {
	mu     sync.RWMutex
	byUser map[string]string // userID -> connID
	byConn map[string]string // connID -> userID (reverse index for Unregister)
}

// NewPresence returns an empty registry.
func NewPresence() *Presence {
	return &Presence{
		byUser: make(map[string]string),
		byConn: make(map[string]string),
	}
}

// Register binds userID to connID, unconditionally replacing any existing
// entry for that user. Idempotent; never fails.
func (p *Presence) Register(userID, connID string) {
	if userID == "" || connID == "" {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if old, ok := p.byUser[userID]; ok && old != connID {
		delete(p.byConn, old)
	}
	p.byUser[userID] = connID
	p.byConn[connID] = userID
}

// Unregister removes the entry whose connection id matches. Unregistering an
// unknown connection is a no-op: disconnects can race registry mutation and
// must never error.
func (p *Presence) Unregister(connID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	userID, ok := p.byConn[connID]
	if !ok {
		return
	}
	delete(p.byConn, connID)
	// Only drop the forward entry if it still points at this connection;
	// a reconnect may have already overwritten it.
	if cur, ok := p.byUser[userID]; ok && cur == connID {
		delete(p.byUser, userID)
	}
}

// ConnID returns the live connection id for userID, if any.
func (p *Presence) ConnID(userID string) (string, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	id, ok := p.byUser[userID]
	return id, ok
}

// UserID returns the user bound to connID, if any.
func (p *Presence) UserID(connID string) (string, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	id, ok := p.byConn[connID]
	return id, ok
}

// Online reports the number of identified users currently connected.
func (p *Presence) Online() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.byUser)
}
