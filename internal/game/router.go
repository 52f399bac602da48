package game

// Sender is the transport seam: it pushes one event onto a connection's
// outbound queue. Disconnected destinations drop silently.
type Sender interface {
	Send(connID, event string, payload any)
	Broadcast(event string, payload any)
	Connected(connID string) bool
}

// Router fans events out to a session's audiences. The session-scoped
// methods read the roster directly, so callers must hold the session lock —
// in practice that is always the engine, which is the session's serializer.
type Router interface {
	ToHost(s *Session, event string, payload any)
	ToAll(s *Session, event string, payload any)
	ToPlayer(s *Session, playerID, event string, payload any)
	ToConn(connID, event string, payload any)
	BroadcastAvailability(event string, payload any)
	Connected(connID string) bool
}

type eventRouter struct {
	sender Sender
}

// NewRouter wires the fan-out primitives onto a transport.
func NewRouter(sender Sender) Router {
	return &eventRouter{sender: sender}
}

func (r *eventRouter) ToHost(s *Session, event string, payload any) {
	r.sender.Send(s.HostConn, event, payload)
}

func (r *eventRouter) ToAll(s *Session, event string, payload any) {
	r.sender.Send(s.HostConn, event, payload)
	for _, id := range s.playerOrder {
		r.sender.Send(s.players[id].ConnID, event, payload)
	}
}

func (r *eventRouter) ToPlayer(s *Session, playerID, event string, payload any) {
	p := s.players[playerID]
	if p == nil {
		return
	}
	r.sender.Send(p.ConnID, event, payload)
}

func (r *eventRouter) ToConn(connID, event string, payload any) {
	r.sender.Send(connID, event, payload)
}

func (r *eventRouter) BroadcastAvailability(event string, payload any) {
	r.sender.Broadcast(event, payload)
}

func (r *eventRouter) Connected(connID string) bool {
	return r.sender.Connected(connID)
}
