package game

import (
	"errors"
	"math/rand"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"quizroom/internal/config"
)

// ResultsSaver receives the final summary of a completed game.
type ResultsSaver interface {
	Save(Summary) error
}

// Engine drives every session's question flow. It is the single serializer
// for session state: each operation takes the session lock, decides the
// transition, and emits its events before releasing it, so observers never
// see a half-applied transition.
type Engine struct {
	cfg     config.Config
	reg     *Registry
	dir     *Directory
	router  Router
	results ResultsSaver
	scoring Scoring
	log     zerolog.Logger
	now     func() time.Time
}

func NewEngine(cfg config.Config, reg *Registry, dir *Directory, router Router, results ResultsSaver, log zerolog.Logger) *Engine {
	return &Engine{
		cfg:     cfg,
		reg:     reg,
		dir:     dir,
		router:  router,
		results: results,
		scoring: Scoring{Base: cfg.ScoringBase, BonusWindowMs: int64(cfg.ScoringBonusWindowMs)},
		log:     log,
		now:     time.Now,
	}
}

// Registry exposes the session registry for read-only HTTP surfaces.
func (e *Engine) Registry() *Registry { return e.reg }

// Member resolves a connection's session binding, if any.
func (e *Engine) Member(connID string) (Membership, bool) {
	return e.dir.Lookup(connID)
}

// CreateGame registers a session with the sender as host and advertises it.
func (e *Engine) CreateGame(connID string, quiz Quiz, settings Settings) (*Session, error) {
	if _, bound := e.dir.Lookup(connID); bound {
		return nil, ErrAlreadyInGame
	}
	s, err := e.reg.Create(connID, quiz, settings)
	if err != nil {
		return nil, err
	}
	e.dir.Add(connID, Membership{Pin: s.Pin, Role: RoleHost})

	e.router.ToConn(connID, EvtGameCreated, map[string]any{
		"pin":    s.Pin,
		"gameId": s.GameID,
		"title":  s.Quiz.Title,
	})
	e.router.BroadcastAvailability(EvtGameAvailable, map[string]any{
		"pin":           s.Pin,
		"title":         s.Quiz.Title,
		"questionCount": len(s.Quiz.Questions),
		"createdAt":     s.CreatedAt,
	})
	e.log.Info().Str("pin", s.Pin).Str("title", s.Quiz.Title).Msg("game created")
	return s, nil
}

// JoinPlayer adds a player to a lobby.
func (e *Engine) JoinPlayer(connID, pin, name string) (*Player, error) {
	if _, bound := e.dir.Lookup(connID); bound {
		return nil, ErrAlreadyInGame
	}
	s, err := e.reg.Get(pin)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateLobby {
		return nil, ErrNotJoinable
	}
	if len(s.players) >= e.cfg.MaxPlayers {
		return nil, ErrPlayerLimit
	}
	trimmed, err := e.validNameLocked(s, name)
	if err != nil {
		return nil, err
	}

	p := &Player{
		ID:        uuid.NewString(),
		ConnID:    connID,
		Name:      trimmed,
		JoinedAt:  e.now().UTC(),
		doubleFor: -1,
	}
	if s.Settings.PowerUpsEnabled {
		p.PowerUps = map[PowerUpKind]int{
			PowerUpFiftyFifty:   e.cfg.PowerUpCharges,
			PowerUpExtendTime:   e.cfg.PowerUpCharges,
			PowerUpDoublePoints: e.cfg.PowerUpCharges,
		}
	}
	s.addPlayerLocked(p)
	e.dir.Add(connID, Membership{Pin: pin, PlayerID: p.ID, Role: RolePlayer})

	e.router.ToPlayer(s, p.ID, EvtPlayerJoined, map[string]any{
		"playerName": p.Name,
		"playerId":   p.ID,
		"gamePin":    s.Pin,
		"players":    s.playersLocked(),
	})
	e.router.ToAll(s, EvtPlayerListUpdate, map[string]any{"players": s.playersLocked()})
	e.log.Info().Str("pin", pin).Str("playerId", p.ID).Str("name", p.Name).Msg("player joined")
	return p, nil
}

// RenamePlayer changes a player's display name; lobby only.
func (e *Engine) RenamePlayer(connID, newName string) error {
	m, ok := e.dir.Lookup(connID)
	if !ok || m.Role != RolePlayer {
		return ErrNotPlayer
	}
	s, err := e.reg.Get(m.Pin)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateLobby {
		return ErrInvalidState
	}
	p := s.players[m.PlayerID]
	if p == nil {
		return ErrNotPlayer
	}
	trimmed, err := e.validNameLocked(s, newName)
	if err != nil {
		return err
	}
	p.Name = trimmed

	e.router.ToPlayer(s, p.ID, EvtNameChanged, map[string]any{"success": true, "newName": trimmed})
	e.router.ToAll(s, EvtPlayerListUpdate, map[string]any{"players": s.playersLocked()})
	return nil
}

// Start moves a lobby into the countdown; the first question follows when
// the countdown timer fires.
func (e *Engine) Start(connID string) error {
	m, ok := e.dir.Lookup(connID)
	if !ok || m.Role != RoleHost {
		return ErrNotHost
	}
	s, err := e.reg.Get(m.Pin)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateLobby {
		return ErrInvalidState
	}
	if len(s.players) < e.cfg.MinPlayersToStart {
		return ErrNotEnoughPlayers
	}

	for _, p := range s.players {
		p.Answers = make([]Answer, len(s.Quiz.Questions))
		p.doubleFor = -1
	}
	s.startedAt = e.now().UTC()
	s.state = StateCountdown

	e.router.ToAll(s, EvtGameStarted, map[string]any{"powerUpsEnabled": s.Settings.PowerUpsEnabled})
	e.log.Info().Str("pin", s.Pin).Int("players", len(s.players)).Msg("game started")

	s.timerGen++
	gen := s.timerGen
	s.advanceTimer = time.AfterFunc(time.Duration(e.cfg.CountdownMs)*time.Millisecond, func() {
		e.onCountdownDone(s, gen)
	})
	return nil
}

func (e *Engine) onCountdownDone(s *Session, gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.timerGen != gen || s.state != StateCountdown {
		return
	}
	e.beginQuestionLocked(s, 0)
}

// beginQuestionLocked opens question idx and arms its timer. The question
// start timestamp is taken after the event is enqueued, so elapsed time is
// measured from the moment clients were told to start.
func (e *Engine) beginQuestionLocked(s *Session, idx int) {
	s.state = StateAsking
	s.currentIndex = idx
	s.resetQuestionScratchLocked()

	limit := s.timeLimitMsLocked(idx, e.cfg.QuestionDefaultTimeMs)
	s.questionLimitMs = limit
	q := s.Quiz.Questions[idx]

	e.router.ToAll(s, EvtQuestionStart, map[string]any{
		"index":          idx,
		"totalQuestions": len(s.Quiz.Questions),
		"question":       sanitizeQuestion(q, s.Settings.RandomizeAnswers),
		"timeLimitMs":    limit,
	})
	s.questionStartedAt = e.now()

	s.timerGen++
	gen := s.timerGen
	s.questionTimer = time.AfterFunc(time.Duration(limit)*time.Millisecond, func() {
		e.onQuestionTimeout(s, gen)
	})
	e.log.Info().Str("pin", s.Pin).Int("question", idx).Int("timeLimitMs", limit).Msg("question started")
}

func (e *Engine) onQuestionTimeout(s *Session, gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.timerGen != gen || s.state != StateAsking {
		return
	}
	e.closeQuestionLocked(s)
}

// SubmitAnswer scores one submission. Unknown senders are dropped without a
// response so probing connections learn nothing.
func (e *Engine) SubmitAnswer(connID string, value AnswerValue) error {
	m, ok := e.dir.Lookup(connID)
	if !ok || m.Role != RolePlayer {
		return nil
	}
	s, err := e.reg.Get(m.Pin)
	if err != nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.players[m.PlayerID]
	if p == nil {
		return nil
	}
	if s.state != StateAsking {
		e.rejectAnswer(connID, "closed", "the question is no longer accepting answers")
		return nil
	}
	if s.answersByPlayer[p.ID] != nil {
		e.rejectAnswer(connID, "duplicate", "an answer was already submitted for this question")
		return nil
	}

	elapsed := e.now().Sub(s.questionStartedAt).Milliseconds()
	q := s.Quiz.Questions[s.currentIndex]

	correctness, err := Correctness(q, value)
	if err != nil {
		e.rejectAnswer(connID, "type-mismatch", "the answer does not fit this question type")
		return nil
	}

	awarded := e.scoring.Award(correctness, elapsed, int64(s.questionLimitMs), q.Difficulty, p.doubleFor == s.currentIndex)
	ans := &Answer{
		PlayerID:      p.ID,
		QuestionIndex: s.currentIndex,
		Value:         value,
		Submitted:     true,
		ElapsedMs:     elapsed,
		Correctness:   correctness,
		Awarded:       awarded,
		ReceivedAt:    e.now(),
	}
	s.answersByPlayer[p.ID] = ans
	s.answerOrder = append(s.answerOrder, p.ID)
	p.Answers[s.currentIndex] = *ans
	p.Score += awarded
	countOptions(s.perOption, q, value)

	e.router.ToPlayer(s, p.ID, EvtAnswerSubmitted, map[string]any{"answer": value})
	e.router.ToHost(s, EvtAnswerCountUpdate, map[string]any{
		"submitted": len(s.answersByPlayer),
		"total":     len(s.players),
	})

	if len(s.answersByPlayer) >= len(s.players) {
		e.closeQuestionLocked(s)
	}
	return nil
}

func (e *Engine) rejectAnswer(connID, reason, message string) {
	e.router.ToConn(connID, EvtAnswerRejected, map[string]any{"reason": reason, "message": message})
}

// closeQuestionLocked moves ASKING → REVEAL. Its first action invalidates the
// question timer, so a racing timeout callback becomes a no-op.
func (e *Engine) closeQuestionLocked(s *Session) {
	s.cancelTimersLocked()
	s.state = StateReveal

	idx := s.currentIndex
	q := s.Quiz.Questions[idx]

	for _, id := range s.playerOrder {
		p := s.players[id]
		if s.answersByPlayer[id] == nil {
			p.Answers[idx] = Answer{PlayerID: id, QuestionIndex: idx, Submitted: false}
		}
	}

	stats := s.statsLocked()
	s.questionHistory = append(s.questionHistory, QuestionSummary{Index: idx, Prompt: q.Prompt, Stats: stats})

	e.router.ToAll(s, EvtQuestionEnd, map[string]any{
		"correctAnswer": correctAnswerPayload(q),
		"stats":         stats,
	})
	for _, id := range s.playerOrder {
		p := s.players[id]
		a := p.Answers[idx]
		e.router.ToPlayer(s, id, EvtPlayerResult, map[string]any{
			"correct":     a.Submitted && a.Correctness >= 1,
			"correctness": a.Correctness,
			"awarded":     a.Awarded,
			"totalScore":  p.Score,
		})
	}
	e.router.ToHost(s, EvtAnswerStatistics, map[string]any{
		"perOption": stats.PerOption,
		"timings":   stats.TimingsMs,
	})
	e.router.ToHost(s, EvtShowLeaderboard, map[string]any{
		"leaderboard": s.leaderboardLocked(),
		"displayMs":   e.cfg.LeaderboardDisplayMs,
	})

	if s.Settings.ManualAdvance {
		e.router.ToHost(s, EvtShowNextButton, map[string]any{
			"isLastQuestion": idx == len(s.Quiz.Questions)-1,
		})
	} else {
		s.timerGen++
		gen := s.timerGen
		s.advanceTimer = time.AfterFunc(time.Duration(e.cfg.AutoAdvanceMs)*time.Millisecond, func() {
			e.onAutoAdvance(s, gen)
		})
	}
	e.log.Info().Str("pin", s.Pin).Int("question", idx).Int("submitted", stats.Submitted).Msg("question closed")
}

func (e *Engine) onAutoAdvance(s *Session, gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.timerGen != gen || s.state != StateReveal {
		return
	}
	e.advanceLocked(s)
}

// Advance is the host's manual next. Outside REVEAL it is a deliberate no-op.
func (e *Engine) Advance(connID string) error {
	m, ok := e.dir.Lookup(connID)
	if !ok || m.Role != RoleHost {
		return ErrNotHost
	}
	s, err := e.reg.Get(m.Pin)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateReveal {
		return nil
	}
	s.cancelTimersLocked()
	e.advanceLocked(s)
	return nil
}

func (e *Engine) advanceLocked(s *Session) {
	e.router.ToHost(s, EvtHideNextButton, map[string]any{})
	next := s.currentIndex + 1
	if next >= len(s.Quiz.Questions) {
		e.endGameLocked(s, ReasonCompleted)
		return
	}
	e.beginQuestionLocked(s, next)
}

func (e *Engine) endGameLocked(s *Session, reason string) {
	s.cancelTimersLocked()
	s.state = StateEnded

	leaderboard := s.leaderboardLocked()
	e.router.ToAll(s, EvtGameEnd, map[string]any{
		"finalLeaderboard": leaderboard,
		"reason":           reason,
	})
	e.log.Info().Str("pin", s.Pin).Str("reason", reason).Msg("game ended")

	if e.results != nil {
		summary := Summary{
			QuizTitle:    s.Quiz.Title,
			Pin:          s.Pin,
			Reason:       reason,
			StartedAt:    s.startedAt,
			EndedAt:      e.now().UTC(),
			Participants: leaderboard,
			PerQuestion:  s.questionHistory,
		}
		if err := e.results.Save(summary); err != nil {
			e.log.Error().Err(err).Str("pin", s.Pin).Msg("failed to save results")
		}
	}
}

// Reset rearms the session for a rematch: same PIN, same roster, clean
// scores.
func (e *Engine) Reset(connID string) error {
	m, ok := e.dir.Lookup(connID)
	if !ok || m.Role != RoleHost {
		return ErrNotHost
	}
	s, err := e.reg.Get(m.Pin)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.cancelTimersLocked()
	for _, p := range s.players {
		p.Score = 0
		p.Answers = nil
		p.doubleFor = -1
		if s.Settings.PowerUpsEnabled {
			p.PowerUps = map[PowerUpKind]int{
				PowerUpFiftyFifty:   e.cfg.PowerUpCharges,
				PowerUpExtendTime:   e.cfg.PowerUpCharges,
				PowerUpDoublePoints: e.cfg.PowerUpCharges,
			}
		}
	}
	s.currentIndex = -1
	s.questionHistory = nil
	s.resetQuestionScratchLocked()
	s.state = StateLobby

	e.router.ToAll(s, EvtGameReset, map[string]any{
		"pin":        s.Pin,
		"title":      s.Quiz.Title,
		"players":    s.playersLocked(),
		"hostConnId": s.HostConn,
	})
	e.router.BroadcastAvailability(EvtGameAvailable, map[string]any{
		"pin":           s.Pin,
		"title":         s.Quiz.Title,
		"questionCount": len(s.Quiz.Questions),
		"createdAt":     s.CreatedAt,
	})
	e.log.Info().Str("pin", s.Pin).Msg("game reset for rematch")
	return nil
}

// UsePowerUp consumes one charge of kind for the sending player.
func (e *Engine) UsePowerUp(connID string, kind PowerUpKind) error {
	m, ok := e.dir.Lookup(connID)
	if !ok || m.Role != RolePlayer {
		return ErrNotPlayer
	}
	s, err := e.reg.Get(m.Pin)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.Settings.PowerUpsEnabled {
		return ErrPowerUpDisabled
	}
	if s.state != StateAsking {
		return ErrPowerUpNotUsable
	}
	p := s.players[m.PlayerID]
	if p == nil {
		return ErrNotPlayer
	}
	if s.answersByPlayer[p.ID] != nil {
		return ErrPowerUpNotUsable
	}

	q := s.Quiz.Questions[s.currentIndex]
	switch kind {
	case PowerUpFiftyFifty:
		if q.Type != QuestionSingleChoice {
			return ErrPowerUpNotUsable
		}
	case PowerUpExtendTime, PowerUpDoublePoints:
	default:
		return ErrPowerUpUnknown
	}
	if p.PowerUps[kind] <= 0 {
		return ErrPowerUpExhausted
	}
	p.PowerUps[kind]--

	switch kind {
	case PowerUpFiftyFifty:
		removed := halfWrongOptions(q)
		e.router.ToPlayer(s, p.ID, EvtPowerUpApplied, map[string]any{
			"kind":             kind,
			"removedOptionIds": removed,
		})

	case PowerUpExtendTime:
		elapsed := e.now().Sub(s.questionStartedAt).Milliseconds()
		remaining := int64(s.questionLimitMs) - elapsed + int64(e.cfg.ExtendTimeMs)
		if remaining < int64(e.cfg.ExtendTimeMs) {
			remaining = int64(e.cfg.ExtendTimeMs)
		}
		s.timerGen++
		gen := s.timerGen
		if s.questionTimer != nil {
			s.questionTimer.Stop()
		}
		s.questionTimer = time.AfterFunc(time.Duration(remaining)*time.Millisecond, func() {
			e.onQuestionTimeout(s, gen)
		})
		e.router.ToAll(s, EvtPowerUpApplied, map[string]any{
			"kind":       kind,
			"addedMs":    e.cfg.ExtendTimeMs,
			"playerName": p.Name,
		})

	case PowerUpDoublePoints:
		p.doubleFor = s.currentIndex
		e.router.ToPlayer(s, p.ID, EvtPowerUpApplied, map[string]any{"kind": kind})
	}
	e.log.Info().Str("pin", s.Pin).Str("playerId", p.ID).Str("kind", string(kind)).Msg("power-up used")
	return nil
}

// Leave removes a player who asked to go. Idempotent; a host leaving tears
// the session down, same as a host disconnect.
func (e *Engine) Leave(connID string) {
	e.HandleDisconnect(connID)
}

// HandleDisconnect is the transport's notification that a connection went
// away.
func (e *Engine) HandleDisconnect(connID string) {
	m, ok := e.dir.Lookup(connID)
	if !ok {
		return
	}
	e.dir.Remove(connID)
	s, err := e.reg.Get(m.Pin)
	if err != nil {
		return
	}
	if m.Role == RoleHost {
		e.terminate(s, ReasonHostLeft)
		return
	}
	e.removePlayer(s, m.PlayerID)
}

func (e *Engine) removePlayer(s *Session, playerID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.removePlayerLocked(playerID)
	delete(s.answersByPlayer, playerID)
	e.router.ToAll(s, EvtPlayerListUpdate, map[string]any{"players": s.playersLocked()})

	if s.state != StateAsking {
		return
	}
	// A departed player is no longer someone to wait for.
	submitted := 0
	for id := range s.players {
		if s.answersByPlayer[id] != nil {
			submitted++
		}
	}
	if submitted >= len(s.players) {
		e.closeQuestionLocked(s)
	}
}

// Terminate force-ends a session and releases its PIN.
func (e *Engine) Terminate(pin, reason string) {
	s, err := e.reg.Get(pin)
	if err != nil {
		return
	}
	e.terminate(s, reason)
}

func (e *Engine) terminate(s *Session, reason string) {
	s.mu.Lock()
	s.cancelTimersLocked()
	s.state = StateEnded
	for _, id := range s.playerOrder {
		e.router.ToPlayer(s, id, EvtGameEnded, map[string]any{"reason": reason})
	}
	s.mu.Unlock()

	e.dir.RemoveSession(s.Pin)
	e.reg.Delete(s.Pin)
	e.log.Info().Str("pin", s.Pin).Str("reason", reason).Msg("session terminated")
}

// SweepOrphans deletes sessions whose host connection the transport no
// longer knows about.
func (e *Engine) SweepOrphans() int {
	swept := 0
	for _, s := range e.reg.Sessions() {
		if !e.router.Connected(s.HostConn) {
			e.terminate(s, ReasonHostLeft)
			swept++
		}
	}
	return swept
}

// Shutdown notifies every live session and tears it down; called on server
// stop.
func (e *Engine) Shutdown() {
	for _, s := range e.reg.Sessions() {
		s.mu.Lock()
		s.cancelTimersLocked()
		s.state = StateEnded
		e.router.ToAll(s, EvtGameEnded, map[string]any{"reason": ReasonServerShutdown})
		s.mu.Unlock()

		e.dir.RemoveSession(s.Pin)
		e.reg.Delete(s.Pin)
	}
}

func (e *Engine) validNameLocked(s *Session, name string) (string, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" || utf8.RuneCountInString(trimmed) > e.cfg.MaxPlayerNameLen {
		return "", ErrNameInvalid
	}
	if s.nameTakenLocked(trimmed) {
		return "", ErrNameTaken
	}
	return trimmed, nil
}

// sanitizeQuestion builds the outbound question payload without any
// correctness information.
func sanitizeQuestion(q Question, shuffleOptions bool) map[string]any {
	out := map[string]any{
		"id":         q.ID,
		"type":       q.Type,
		"prompt":     q.Prompt,
		"difficulty": q.Difficulty,
	}
	if q.Image != "" {
		out["image"] = q.Image
	}
	if len(q.Options) > 0 {
		options := make([]Option, len(q.Options))
		copy(options, q.Options)
		if shuffleOptions {
			rand.Shuffle(len(options), func(i, j int) { options[i], options[j] = options[j], options[i] })
		}
		out["options"] = options
	}
	if q.Type == QuestionMatching {
		lefts := make([]string, 0, len(q.Pairs))
		rights := make([]string, 0, len(q.Pairs))
		for _, p := range q.Pairs {
			lefts = append(lefts, p.Left)
			rights = append(rights, p.Right)
		}
		rand.Shuffle(len(rights), func(i, j int) { rights[i], rights[j] = rights[j], rights[i] })
		out["lefts"] = lefts
		out["rights"] = rights
	}
	return out
}

func correctAnswerPayload(q Question) map[string]any {
	switch q.Type {
	case QuestionSingleChoice, QuestionTrueFalse, QuestionMultipleCorrect:
		return map[string]any{"optionIds": q.Correct}
	case QuestionNumeric:
		return map[string]any{"expected": q.Expected, "tolerance": q.Tolerance}
	case QuestionText:
		return map[string]any{"expected": q.ExpectedText}
	case QuestionOrdering:
		return map[string]any{"order": q.CorrectOrder}
	case QuestionMatching:
		return map[string]any{"pairs": q.Pairs}
	default:
		return map[string]any{}
	}
}

func countOptions(perOption map[string]int, q Question, v AnswerValue) {
	switch q.Type {
	case QuestionSingleChoice, QuestionTrueFalse:
		perOption[v.OptionID]++
	case QuestionMultipleCorrect:
		for _, id := range v.OptionIDs {
			perOption[id]++
		}
	}
}

// halfWrongOptions picks the wrong options to hide for a fifty-fifty.
func halfWrongOptions(q Question) []string {
	correct := make(map[string]struct{}, len(q.Correct))
	for _, id := range q.Correct {
		correct[id] = struct{}{}
	}
	wrong := make([]string, 0, len(q.Options))
	for _, o := range q.Options {
		if _, ok := correct[o.ID]; !ok {
			wrong = append(wrong, o.ID)
		}
	}
	rand.Shuffle(len(wrong), func(i, j int) { wrong[i], wrong[j] = wrong[j], wrong[i] })
	keep := len(q.Options) / 2
	if keep > len(wrong) {
		keep = len(wrong)
	}
	return wrong[:keep]
}

// IsSilent reports whether an error should be answered with a bare no-op to
// avoid fingerprinting session membership.
func IsSilent(err error) bool {
	return errors.Is(err, ErrNotHost) || errors.Is(err, ErrNotPlayer)
}
