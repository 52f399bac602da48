package game

import (
	"time"
)

type State string

const (
	StateLobby     State = "LOBBY"
	StateCountdown State = "COUNTDOWN"
	StateAsking    State = "ASKING"
	StateReveal    State = "REVEAL"
	StateEnded     State = "ENDED"
)

type QuestionType string

const (
	QuestionSingleChoice    QuestionType = "single-choice"
	QuestionMultipleCorrect QuestionType = "multiple-correct"
	QuestionTrueFalse       QuestionType = "true-false"
	QuestionNumeric         QuestionType = "numeric"
	QuestionText            QuestionType = "text"
	QuestionOrdering        QuestionType = "ordering"
	QuestionMatching        QuestionType = "matching"
)

type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// Multiplier maps difficulty to its score multiplier. Unknown values count as easy.
func (d Difficulty) Multiplier() int {
	switch d {
	case DifficultyMedium:
		return 2
	case DifficultyHard:
		return 3
	default:
		return 1
	}
}

type PowerUpKind string

const (
	PowerUpFiftyFifty   PowerUpKind = "fifty-fifty"
	PowerUpExtendTime   PowerUpKind = "extend-time"
	PowerUpDoublePoints PowerUpKind = "double-points"
)

type Option struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// MatchPair is one canonical left→right assignment of a matching question.
type MatchPair struct {
	Left  string `json:"left"`
	Right string `json:"right"`
}

type Question struct {
	ID     string       `json:"id"`
	Type   QuestionType `json:"type"`
	Prompt string       `json:"prompt"`
	Image  string       `json:"image,omitempty"`

	Options []Option `json:"options,omitempty"`

	// Correct holds option ids for choice types; for true-false it is a
	// single "true" or "false".
	Correct []string `json:"correct,omitempty"`

	// Numeric questions pass when |value − Expected| ≤ Tolerance.
	Expected  float64 `json:"expected,omitempty"`
	Tolerance float64 `json:"tolerance,omitempty"`

	// Text questions compare against ExpectedText after normalization.
	ExpectedText string `json:"expectedText,omitempty"`

	// Ordering questions list option ids in the correct order.
	CorrectOrder []string `json:"correctOrder,omitempty"`

	// Matching questions list the canonical pairs.
	Pairs []MatchPair `json:"pairs,omitempty"`

	TimeLimitMs int        `json:"timeLimitMs,omitempty"`
	Difficulty  Difficulty `json:"difficulty,omitempty"`
}

type Quiz struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	Questions []Question `json:"questions"`
}

type Settings struct {
	RandomizeQuestions bool `json:"randomizeQuestions"`
	RandomizeAnswers   bool `json:"randomizeAnswers"`
	ManualAdvance      bool `json:"manualAdvance"`
	PowerUpsEnabled    bool `json:"powerUpsEnabled"`
	GlobalTimeLimitMs  int  `json:"globalTimeLimitMs,omitempty"`
}

// AnswerValue is the polymorphic submission payload. Exactly one field group
// is meaningful, selected by the current question's type.
type AnswerValue struct {
	OptionID  string            `json:"optionId,omitempty"`
	OptionIDs []string          `json:"optionIds,omitempty"`
	Number    *float64          `json:"number,omitempty"`
	Text      string            `json:"text,omitempty"`
	Order     []string          `json:"order,omitempty"`
	Matches   map[string]string `json:"matches,omitempty"`
}

// Answer is one player's outcome for one question. Unsubmitted slots keep
// Submitted=false and zero award.
type Answer struct {
	PlayerID      string      `json:"playerId"`
	QuestionIndex int         `json:"questionIndex"`
	Value         AnswerValue `json:"value"`
	Submitted     bool        `json:"submitted"`
	ElapsedMs     int64       `json:"elapsedMs"`
	Correctness   float64     `json:"correctness"`
	Awarded       int         `json:"awarded"`
	ReceivedAt    time.Time   `json:"-"`
}

type Player struct {
	ID       string    `json:"id"`
	ConnID   string    `json:"-"`
	Name     string    `json:"name"`
	Score    int       `json:"score"`
	JoinedAt time.Time `json:"joinedAt"`

	// Answers mirrors quiz order; allocated when the game starts.
	Answers []Answer `json:"-"`

	// PowerUps holds residual charges per kind.
	PowerUps map[PowerUpKind]int `json:"-"`

	// doubleFor is the question index the player's double-points charge
	// applies to, or -1.
	doubleFor int
}

type LeaderboardEntry struct {
	PlayerID       string `json:"playerId"`
	Name           string `json:"name"`
	Score          int    `json:"score"`
	CorrectAnswers int    `json:"correctAnswers"`
}

// QuestionStats aggregates submissions for one question.
type QuestionStats struct {
	Submitted int            `json:"submitted"`
	Total     int            `json:"total"`
	PerOption map[string]int `json:"perOption"`
	TimingsMs []int64        `json:"timingsMs"`
}

// JoinableGame is a lobby advertisement row.
type JoinableGame struct {
	Pin           string    `json:"pin"`
	Title         string    `json:"title"`
	PlayerCount   int       `json:"playerCount"`
	QuestionCount int       `json:"questionCount"`
	CreatedAt     time.Time `json:"createdAt"`
}

// QuestionSummary is the per-question slice of a final game summary.
type QuestionSummary struct {
	Index  int           `json:"index"`
	Prompt string        `json:"prompt"`
	Stats  QuestionStats `json:"stats"`
}

// Summary is what gets handed to the results store when a game ends.
type Summary struct {
	QuizTitle    string             `json:"quizTitle"`
	Pin          string             `json:"pin"`
	Reason       string             `json:"reason"`
	StartedAt    time.Time          `json:"startedAt"`
	EndedAt      time.Time          `json:"endedAt"`
	Participants []LeaderboardEntry `json:"participants"`
	PerQuestion  []QuestionSummary  `json:"perQuestion"`
}
