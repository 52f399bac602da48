package game

import "sync"

type Role string

const (
	RoleHost   Role = "host"
	RolePlayer Role = "player"
)

// Membership binds a transport connection to a session.
type Membership struct {
	Pin      string
	PlayerID string // empty for the host
	Role     Role
}

// Directory is the reverse lookup connID → membership. The roster itself
// lives on the session; this exists so inbound messages resolve in O(1).
type Directory struct {
	mu     sync.RWMutex
	byConn map[string]Membership
}

func NewDirectory() *Directory {
	return &Directory{byConn: make(map[string]Membership)}
}

func (d *Directory) Add(connID string, m Membership) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.byConn[connID] = m
}

func (d *Directory) Lookup(connID string) (Membership, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	m, ok := d.byConn[connID]
	return m, ok
}

// Remove clears a connection's membership. Idempotent.
func (d *Directory) Remove(connID string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.byConn, connID)
}

// RemoveSession drops every membership bound to pin.
func (d *Directory) RemoveSession(pin string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for conn, m := range d.byConn {
		if m.Pin == pin {
			delete(d.byConn, conn)
		}
	}
}
