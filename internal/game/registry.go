package game

import (
	"math/rand"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// maxPinAttempts bounds the draw-until-free loop in Create.
const maxPinAttempts = 256

// Registry maps live PINs to sessions. Allocation is atomic with respect to
// other allocations; lookups are O(1).
type Registry struct {
	mu        sync.RWMutex
	sessions  map[string]*Session
	pinLength int
}

func NewRegistry(pinLength int) *Registry {
	if pinLength <= 0 {
		pinLength = 6
	}
	return &Registry{sessions: make(map[string]*Session), pinLength: pinLength}
}

// Create allocates a fresh PIN and registers a new session for hostConn.
// Question order is fixed here for the session's whole life.
func (r *Registry) Create(hostConn string, quiz Quiz, settings Settings) (*Session, error) {
	if len(quiz.Questions) == 0 {
		return nil, ErrEmptyQuiz
	}
	if settings.RandomizeQuestions {
		qs := make([]Question, len(quiz.Questions))
		copy(qs, quiz.Questions)
		rand.Shuffle(len(qs), func(i, j int) { qs[i], qs[j] = qs[j], qs[i] })
		quiz.Questions = qs
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	pin := ""
	for i := 0; i < maxPinAttempts; i++ {
		candidate := randomPin(r.pinLength)
		if _, taken := r.sessions[candidate]; !taken {
			pin = candidate
			break
		}
	}
	if pin == "" {
		return nil, ErrNoFreePin
	}

	s := newSession(pin, uuid.NewString(), hostConn, quiz, settings)
	r.sessions[pin] = s
	return s, nil
}

func (r *Registry) Get(pin string) (*Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s := r.sessions[pin]
	if s == nil {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// FindByHost returns the session hosted by connID, if any.
func (r *Registry) FindByHost(connID string) *Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, s := range r.sessions {
		if s.HostConn == connID {
			return s
		}
	}
	return nil
}

// Delete releases the PIN. Idempotent; timers are the engine's business.
func (r *Registry) Delete(pin string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, pin)
}

// Sessions returns a point-in-time snapshot of all live sessions.
func (r *Registry) Sessions() []*Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		out = append(out, s)
	}
	return out
}

// ListJoinable advertises sessions still in the lobby. The snapshot may miss
// churn mid-iteration, which is fine for a lobby browser.
func (r *Registry) ListJoinable() []JoinableGame {
	out := []JoinableGame{}
	for _, s := range r.Sessions() {
		if s.State() != StateLobby {
			continue
		}
		out = append(out, JoinableGame{
			Pin:           s.Pin,
			Title:         s.Quiz.Title,
			PlayerCount:   s.PlayerCount(),
			QuestionCount: len(s.Quiz.Questions),
			CreatedAt:     s.CreatedAt,
		})
	}
	return out
}

// ValidPinFormat checks the wire shape of a PIN: six decimal digits.
func ValidPinFormat(pin string) bool {
	if len(pin) != 6 {
		return false
	}
	for i := 0; i < len(pin); i++ {
		if pin[i] < '0' || pin[i] > '9' {
			return false
		}
	}
	return true
}

func randomPin(n int) string {
	var b strings.Builder
	for i := 0; i < n; i++ {
		b.WriteByte(byte('0' + rand.Intn(10)))
	}
	return b.String()
}
