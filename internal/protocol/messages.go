// Package protocol defines the typed envelopes exchanged between the host
// engine and players. Messages fall into three disjoint channels: host->all
// broadcasts, player->host messages, and host->one-player directed messages.
package protocol

import (
	"encoding/json"
	"fmt"
	"time"

	"party-quiz-service/internal/domain"
)

// Message is any envelope payload with a wire kind.
type Message interface {
	Kind() string
}

// Broadcast messages go to every player in a room.
type Broadcast interface {
	Message
	isBroadcast()
}

// FromPlayer messages arrive from a player at the host.
type FromPlayer interface {
	Message
	isFromPlayer()
}

// Directed messages go to exactly one player.
type Directed interface {
	Message
	isDirected()
}

const (
	KindGameStart        = "game:start"
	KindQuestionShow     = "question:show"
	KindQuestionReplaced = "question:replaced"
	KindQuestionEnd      = "question:end"
	KindAnswerReveal     = "answer:reveal"
	KindScoreboardUpdate = "scoreboard:update"
	KindGameEnd          = "game:end"
	KindGameRematch      = "game:rematch"

	KindPlayerJoin    = "player:join"
	KindPlayerRejoin  = "player:rejoin"
	KindPlayerAnswer  = "player:answer"
	KindPlayerPowerUp = "player:powerup"

	KindPlayerState    = "player:state"
	KindPlayerKicked   = "player:kicked"
	KindAnswerRejected = "answer:rejected"
)

// --- broadcasts ---

type GameStart struct {
	StartedAt     time.Time `json:"startedAt"`
	QuestionCount int       `json:"questionCount"`
}

type QuestionShow struct {
	Question     domain.Question `json:"question"`
	Index        int             `json:"index"`
	Total        int             `json:"total"`
	TimeLimitSec int             `json:"timeLimitSec"`
	StartedAt    time.Time       `json:"startedAt"`
}

type QuestionReplaced struct {
	Question     domain.Question `json:"question"`
	Index        int             `json:"index"`
	Total        int             `json:"total"`
	TimeLimitSec int             `json:"timeLimitSec"`
	StartedAt    time.Time       `json:"startedAt"`
}

type QuestionEnd struct {
	QuestionID string `json:"questionId"`
}

// AnswerReveal is the only message permitted to carry the full, unstripped
// question together with every answer and the scoreboard.
type AnswerReveal struct {
	Question   domain.Question          `json:"question"`
	Answers    []domain.PlayerAnswer    `json:"answers"`
	Order      []string                 `json:"order"`
	Scoreboard []domain.ScoreboardEntry `json:"scoreboard"`
}

type ScoreboardUpdate struct {
	Entries []domain.ScoreboardEntry `json:"entries"`
}

type GameEnd struct {
	Scoreboard []domain.ScoreboardEntry `json:"scoreboard"`
	FinishedAt time.Time                `json:"finishedAt"`
}

type GameRematch struct{}

func (GameStart) Kind() string        { return KindGameStart }
func (QuestionShow) Kind() string     { return KindQuestionShow }
func (QuestionReplaced) Kind() string { return KindQuestionReplaced }
func (QuestionEnd) Kind() string      { return KindQuestionEnd }
func (AnswerReveal) Kind() string     { return KindAnswerReveal }
func (ScoreboardUpdate) Kind() string { return KindScoreboardUpdate }
func (GameEnd) Kind() string          { return KindGameEnd }
func (GameRematch) Kind() string      { return KindGameRematch }

func (GameStart) isBroadcast()        {}
func (QuestionShow) isBroadcast()     {}
func (QuestionReplaced) isBroadcast() {}
func (QuestionEnd) isBroadcast()      {}
func (AnswerReveal) isBroadcast()     {}
func (ScoreboardUpdate) isBroadcast() {}
func (GameEnd) isBroadcast()          {}
func (GameRematch) isBroadcast()      {}

// --- player -> host ---

type PlayerJoin struct {
	PlayerID string `json:"playerId"`
	Name     string `json:"name"`
}

type PlayerRejoin struct {
	PlayerID string `json:"playerId"`
}

type PlayerAnswer struct {
	PlayerID   string `json:"playerId"`
	QuestionID string `json:"questionId"`
	Value      string `json:"value"`
}

type PlayerPowerUp struct {
	PlayerID  string `json:"playerId"`
	PowerUpID string `json:"powerupId"`
}

func (PlayerJoin) Kind() string    { return KindPlayerJoin }
func (PlayerRejoin) Kind() string  { return KindPlayerRejoin }
func (PlayerAnswer) Kind() string  { return KindPlayerAnswer }
func (PlayerPowerUp) Kind() string { return KindPlayerPowerUp }

func (PlayerJoin) isFromPlayer()    {}
func (PlayerRejoin) isFromPlayer()  {}
func (PlayerAnswer) isFromPlayer()  {}
func (PlayerPowerUp) isFromPlayer() {}

// --- host -> one player ---

// PlayerState resyncs a reconnecting player with the authoritative state.
type PlayerState struct {
	Phase            domain.Phase     `json:"phase"`
	Player           domain.Player    `json:"player"`
	Rank             int              `json:"rank"`
	Question         *domain.Question `json:"question,omitempty"`
	QuestionIndex    int              `json:"questionIndex"`
	QuestionCount    int              `json:"questionCount"`
	TimeRemainingSec int              `json:"timeRemainingSec"`
}

type PlayerKicked struct {
	Reason string `json:"reason,omitempty"`
}

type AnswerRejected struct {
	QuestionID string              `json:"questionId"`
	Reason     domain.RejectReason `json:"reason"`
}

func (PlayerState) Kind() string    { return KindPlayerState }
func (PlayerKicked) Kind() string   { return KindPlayerKicked }
func (AnswerRejected) Kind() string { return KindAnswerRejected }

func (PlayerState) isDirected()    {}
func (PlayerKicked) isDirected()   {}
func (AnswerRejected) isDirected() {}

// Envelope is the wire frame around every message.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Encode frames a message into its wire envelope.
func Encode(msg Message) ([]byte, error) {
	payload, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", msg.Kind(), err)
	}
	return json.Marshal(Envelope{Type: msg.Kind(), Payload: payload})
}

// DecodeFromPlayer parses an inbound frame into its player->host variant.
// Unknown kinds are an error; broadcast and directed kinds are not valid
// inbound traffic.
func DecodeFromPlayer(data []byte) (FromPlayer, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}
	var msg FromPlayer
	switch env.Type {
	case KindPlayerJoin:
		msg = &PlayerJoin{}
	case KindPlayerRejoin:
		msg = &PlayerRejoin{}
	case KindPlayerAnswer:
		msg = &PlayerAnswer{}
	case KindPlayerPowerUp:
		msg = &PlayerPowerUp{}
	default:
		return nil, fmt.Errorf("unknown player message type %q", env.Type)
	}
	if err := json.Unmarshal(env.Payload, msg); err != nil {
		return nil, fmt.Errorf("decode %s payload: %w", env.Type, err)
	}
	return msg, nil
}
