package game

import (
	"sort"
	"strings"
	"sync"
	"time"
)

// Session owns the authoritative state of one live game. All mutation happens
// under mu; the engine is the only writer.
type Session struct {
	Pin       string
	GameID    string
	HostConn  string
	Quiz      Quiz
	Settings  Settings
	CreatedAt time.Time

	mu sync.Mutex

	state        State
	players      map[string]*Player
	playerOrder  []string // playerIDs in join order, drives the lobby display
	currentIndex int
	startedAt    time.Time

	// Current-question scratch state; discarded on advance.
	questionStartedAt time.Time
	questionLimitMs   int
	answersByPlayer   map[string]*Answer
	answerOrder       []string // playerIDs in accept order
	perOption         map[string]int

	// Pending timers. timerGen guards callbacks against stale fires: a
	// callback captures the generation at arming and bails on mismatch.
	timerGen      uint64
	questionTimer *time.Timer
	advanceTimer  *time.Timer

	// Per-question history kept for the final summary.
	questionHistory []QuestionSummary
}

func newSession(pin, gameID, hostConn string, quiz Quiz, settings Settings) *Session {
	return &Session{
		Pin:             pin,
		GameID:          gameID,
		HostConn:        hostConn,
		Quiz:            quiz,
		Settings:        settings,
		CreatedAt:       time.Now().UTC(),
		state:           StateLobby,
		players:         make(map[string]*Player),
		currentIndex:    -1,
		answersByPlayer: make(map[string]*Answer),
		perOption:       make(map[string]int),
	}
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// PlayerCount returns the number of joined players.
func (s *Session) PlayerCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.players)
}

// Players returns a snapshot of the roster in join order.
func (s *Session) Players() []*Player {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.playersLocked()
}

func (s *Session) playersLocked() []*Player {
	out := make([]*Player, 0, len(s.playerOrder))
	for _, id := range s.playerOrder {
		p := s.players[id]
		out = append(out, &Player{ID: p.ID, Name: p.Name, Score: p.Score, JoinedAt: p.JoinedAt})
	}
	return out
}

func (s *Session) playerByConnLocked(connID string) *Player {
	for _, p := range s.players {
		if p.ConnID == connID {
			return p
		}
	}
	return nil
}

func (s *Session) nameTakenLocked(name string) bool {
	folded := strings.ToLower(strings.TrimSpace(name))
	for _, p := range s.players {
		if strings.ToLower(p.Name) == folded {
			return true
		}
	}
	return false
}

func (s *Session) addPlayerLocked(p *Player) {
	s.players[p.ID] = p
	s.playerOrder = append(s.playerOrder, p.ID)
}

func (s *Session) removePlayerLocked(playerID string) {
	if _, ok := s.players[playerID]; !ok {
		return
	}
	delete(s.players, playerID)
	for i, id := range s.playerOrder {
		if id == playerID {
			s.playerOrder = append(s.playerOrder[:i], s.playerOrder[i+1:]...)
			break
		}
	}
}

// leaderboardLocked orders players by score, then cumulative elapsed time on
// correct answers, then case-folded name. The final key makes the order total.
func (s *Session) leaderboardLocked() []LeaderboardEntry {
	type ranked struct {
		entry     LeaderboardEntry
		elapsedMs int64
		folded    string
	}
	rows := make([]ranked, 0, len(s.playerOrder))
	for _, id := range s.playerOrder {
		p := s.players[id]
		var elapsed int64
		correct := 0
		for _, a := range p.Answers {
			if a.Submitted && a.Correctness > 0 {
				elapsed += a.ElapsedMs
				if a.Correctness >= 1 {
					correct++
				}
			}
		}
		rows = append(rows, ranked{
			entry:     LeaderboardEntry{PlayerID: p.ID, Name: p.Name, Score: p.Score, CorrectAnswers: correct},
			elapsedMs: elapsed,
			folded:    strings.ToLower(p.Name),
		})
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].entry.Score != rows[j].entry.Score {
			return rows[i].entry.Score > rows[j].entry.Score
		}
		if rows[i].elapsedMs != rows[j].elapsedMs {
			return rows[i].elapsedMs < rows[j].elapsedMs
		}
		return rows[i].folded < rows[j].folded
	})
	out := make([]LeaderboardEntry, len(rows))
	for i, r := range rows {
		out[i] = r.entry
	}
	return out
}

func (s *Session) statsLocked() QuestionStats {
	perOption := make(map[string]int, len(s.perOption))
	for k, v := range s.perOption {
		perOption[k] = v
	}
	timings := make([]int64, 0, len(s.answerOrder))
	for _, id := range s.answerOrder {
		timings = append(timings, s.answersByPlayer[id].ElapsedMs)
	}
	return QuestionStats{
		Submitted: len(s.answersByPlayer),
		Total:     len(s.players),
		PerOption: perOption,
		TimingsMs: timings,
	}
}

func (s *Session) resetQuestionScratchLocked() {
	s.answersByPlayer = make(map[string]*Answer)
	s.answerOrder = nil
	s.perOption = make(map[string]int)
	s.questionStartedAt = time.Time{}
	s.questionLimitMs = 0
}

// cancelTimersLocked invalidates any pending callback by bumping the
// generation, then stops the handles. Stopping is best-effort; a callback
// that already fired observes the generation mismatch and returns.
func (s *Session) cancelTimersLocked() {
	s.timerGen++
	if s.questionTimer != nil {
		s.questionTimer.Stop()
		s.questionTimer = nil
	}
	if s.advanceTimer != nil {
		s.advanceTimer.Stop()
		s.advanceTimer = nil
	}
}

// timeLimitMsLocked resolves the effective limit for the question at idx:
// question override, then session-wide setting, then the engine default.
func (s *Session) timeLimitMsLocked(idx int, fallback int) int {
	if q := s.Quiz.Questions[idx]; q.TimeLimitMs > 0 {
		return q.TimeLimitMs
	}
	if s.Settings.GlobalTimeLimitMs > 0 {
		return s.Settings.GlobalTimeLimitMs
	}
	return fallback
}
