package domain

import (
	"encoding/json"
	"time"
)

// Phase is the coarse lifecycle stage of a room.
type Phase string

const (
	PhaseLobby     Phase = "lobby"
	PhasePlaying   Phase = "playing"
	PhaseRevealing Phase = "revealing"
	PhaseFinished  Phase = "finished"
)

// AnswerKind discriminates how a question is answered and validated.
type AnswerKind string

const (
	AnswerMultipleChoice AnswerKind = "multiple-choice"
	AnswerText           AnswerKind = "text"
	AnswerNumeric        AnswerKind = "numeric"
)

// Question models a single quiz question. Kind-specific fields are only
// meaningful for their kind; protocol.SanitizeQuestion strips the
// answer-revealing ones before a question is shown to players.
type Question struct {
	ID         string     `json:"id"`
	Category   string     `json:"category,omitempty"`
	Difficulty string     `json:"difficulty,omitempty"`
	Kind       AnswerKind `json:"kind"`
	Prompt     string     `json:"prompt"`

	// multiple-choice
	Options       []string `json:"options,omitempty"`
	CorrectOption int      `json:"correctOption,omitempty"`

	// text
	AcceptedAnswers []string `json:"acceptedAnswers,omitempty"`
	CaseSensitive   bool     `json:"caseSensitive,omitempty"`
	MaxTypos        int      `json:"maxTypos,omitempty"`

	// numeric
	Target     float64 `json:"target,omitempty"`
	HasTarget  bool    `json:"hasTarget,omitempty"`
	LowerBound float64 `json:"lowerBound,omitempty"`
	UpperBound float64 `json:"upperBound,omitempty"`

	// optional per-question overrides; zero means room default
	TimeLimitSec int `json:"timeLimitSec,omitempty"`
	Points       int `json:"points,omitempty"`

	// Payload is opaque to the engine (media links, attribution, etc).
	Payload json.RawMessage `json:"payload,omitempty"`
}

// PowerUpEffect is the closed set of built-in power-up effects.
type PowerUpEffect string

const (
	EffectDoublePoints   PowerUpEffect = "double-points"
	EffectShield         PowerUpEffect = "shield"
	EffectExtraTime      PowerUpEffect = "extra-time"
	EffectRemoveTwoWrong PowerUpEffect = "remove-two-wrong"
	EffectSkipQuestion   PowerUpEffect = "skip-question"
	EffectStealPoints    PowerUpEffect = "steal-points"
)

// PowerUp is a grantable one-shot effect. Value is effect-specific
// (multiplier for double-points, seconds for extra-time).
type PowerUp struct {
	ID     string        `json:"id"`
	Effect PowerUpEffect `json:"effect"`
	Value  float64       `json:"value,omitempty"`
}

// PowerUpState is a player's power-up inventory. At most one power-up may be
// active at a time.
type PowerUpState struct {
	Available []PowerUp `json:"available,omitempty"`
	Active    *PowerUp  `json:"active,omitempty"`
	UsedIDs   []string  `json:"usedIds,omitempty"`
}

// Player is a participant in a room. Players survive disconnects; only an
// explicit kick removes one.
type Player struct {
	ID        string       `json:"id"`
	Name      string       `json:"name"`
	Score     int          `json:"score"`
	Streak    int          `json:"streak"`
	Connected bool         `json:"connected"`
	JoinedAt  time.Time    `json:"joinedAt"`
	PowerUps  PowerUpState `json:"powerUps"`
}

// PlayerAnswer records one submission for one round. Correct and Points are
// assigned when the round is resolved, not at submission time.
type PlayerAnswer struct {
	PlayerID    string        `json:"playerId"`
	QuestionID  string        `json:"questionId"`
	Value       string        `json:"value"`
	SubmittedAt time.Time     `json:"submittedAt"`
	Elapsed     time.Duration `json:"elapsed"`
	Correct     bool          `json:"correct"`
	Points      int           `json:"points"`
	Rejected    bool          `json:"rejected,omitempty"`
}

// ScoreboardEntry is a derived view. Ranks are competition-ranked: tied
// scores share a rank and the next distinct score continues the sequence
// (100,100,80 ranks as 1,1,3).
type ScoreboardEntry struct {
	PlayerID     string `json:"playerId"`
	Name         string `json:"name"`
	Score        int    `json:"score"`
	Rank         int    `json:"rank"`
	Streak       int    `json:"streak"`
	RoundCorrect bool   `json:"roundCorrect,omitempty"`
	RoundPoints  int    `json:"roundPoints,omitempty"`
}

// CompletedRound is an archived round kept in room history after reveal.
type CompletedRound struct {
	Question  Question                `json:"question"`
	Index     int                     `json:"index"`
	StartedAt time.Time               `json:"startedAt"`
	Answers   map[string]PlayerAnswer `json:"answers"`
	Order     []string                `json:"order"`
}

// PlayerIdentity is the durable identity persisted across reloads.
type PlayerIdentity struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	RoomCode  string    `json:"roomCode"`
	CreatedAt time.Time `json:"createdAt"`
}

// QuestionFilter selects questions from a question source.
type QuestionFilter struct {
	Categories   []string `json:"categories,omitempty"`
	Difficulties []string `json:"difficulties,omitempty"`
	Count        int      `json:"count,omitempty"`
	Shuffle      bool     `json:"shuffle,omitempty"`
	ExcludeIDs   []string `json:"excludeIds,omitempty"`
}

// RoomSnapshot is the serializable checkpoint written on round transitions
// and restored on process restart.
type RoomSnapshot struct {
	Code          string            `json:"code"`
	Phase         Phase             `json:"phase"`
	Players       map[string]Player `json:"players"`
	Questions     []Question        `json:"questions"`
	QuestionIndex int               `json:"questionIndex"`
	History       []CompletedRound  `json:"history"`
	CreatedAt     time.Time         `json:"createdAt"`
	StartedAt     time.Time         `json:"startedAt,omitempty"`
	FinishedAt    time.Time         `json:"finishedAt,omitempty"`
	TakenAt       time.Time         `json:"takenAt"`
}
