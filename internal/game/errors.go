package game

import "errors"

var (
	ErrSessionNotFound  = errors.New("session not found")
	ErrNoFreePin        = errors.New("no free pin")
	ErrNotHost          = errors.New("not host")
	ErrNotPlayer        = errors.New("not a player")
	ErrInvalidState     = errors.New("invalid state for action")
	ErrNotJoinable      = errors.New("session is not accepting players")
	ErrNameTaken        = errors.New("name already taken")
	ErrNameInvalid      = errors.New("name is empty or too long")
	ErrPlayerLimit      = errors.New("player limit reached")
	ErrNotEnoughPlayers = errors.New("not enough players to start")
	ErrDuplicateAnswer  = errors.New("answer already submitted")
	ErrAnswerClosed     = errors.New("question is closed")
	ErrTypeMismatch     = errors.New("answer does not match question type")
	ErrEmptyQuiz        = errors.New("quiz has no questions")
	ErrAlreadyInGame    = errors.New("connection already bound to a session")
	ErrPowerUpUnknown   = errors.New("unknown power-up kind")
	ErrPowerUpExhausted = errors.New("no charges left for power-up")
	ErrPowerUpDisabled  = errors.New("power-ups are disabled for this game")
	ErrPowerUpNotUsable = errors.New("power-up cannot be used right now")
)

// Code translates an engine error into its stable wire code. The presentation
// layer resolves these to localized strings.
func Code(err error) string {
	switch {
	case errors.Is(err, ErrSessionNotFound):
		return "game-not-found"
	case errors.Is(err, ErrNameTaken):
		return "name-taken"
	case errors.Is(err, ErrPlayerLimit):
		return "player-limit-reached"
	case errors.Is(err, ErrNameInvalid):
		return "invalid-name"
	case errors.Is(err, ErrNoFreePin):
		return "no-free-pin"
	case errors.Is(err, ErrNotJoinable), errors.Is(err, ErrInvalidState):
		return "invalid-state"
	case errors.Is(err, ErrNotEnoughPlayers):
		return "not-enough-players"
	default:
		return "error"
	}
}
