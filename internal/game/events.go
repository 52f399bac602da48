package game

// Wire event names, server → client.
const (
	EvtGameCreated        = "game-created"
	EvtGameAvailable      = "game-available"
	EvtPlayerJoined       = "player-joined"
	EvtNameChanged        = "name-changed"
	EvtPlayerListUpdate   = "player-list-update"
	EvtGameStarted        = "game-started"
	EvtQuestionStart      = "question-start"
	EvtAnswerSubmitted    = "answer-submitted"
	EvtAnswerRejected     = "answer-rejected"
	EvtAnswerCountUpdate  = "answer-count-update"
	EvtQuestionEnd        = "question-end"
	EvtPlayerResult       = "player-result"
	EvtAnswerStatistics   = "answer-statistics"
	EvtShowLeaderboard    = "show-leaderboard"
	EvtShowNextButton     = "show-next-button"
	EvtHideNextButton     = "hide-next-button"
	EvtGameEnd            = "game-end"
	EvtGameReset          = "game-reset"
	EvtGameEnded          = "game-ended"
	EvtPowerUpApplied     = "power-up-applied"
	EvtRateLimited        = "rate-limited"
	EvtError              = "error"
	EvtGameNotFound       = "game-not-found"
	EvtPlayerLimitReached = "player-limit-reached"
	EvtInvalidPin         = "invalid-pin"
	EvtNameTaken          = "name-taken"
)

// Wire event names, client → server. These double as rate-limit keys.
const (
	EvtHostJoin         = "host-join"
	EvtPlayerJoin       = "player-join"
	EvtPlayerChangeName = "player-change-name"
	EvtStartGame        = "start-game"
	EvtSubmitAnswer     = "submit-answer"
	EvtNextQuestion     = "next-question"
	EvtLeaveGame        = "leave-game"
	EvtPowerUp          = "power-up"
	EvtRestartGame      = "restart-game"
)

// End-of-game reasons carried by game-end / game-ended payloads.
const (
	ReasonCompleted      = "completed"
	ReasonHostLeft       = "host-left"
	ReasonServerShutdown = "server-shutdown"
	ReasonInternal       = "internal"
)
