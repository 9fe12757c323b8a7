package domain

import "errors"

var (
	// ErrRoomNotFound is returned when a room code resolves to nothing.
	ErrRoomNotFound = errors.New("room not found")
	// ErrPlayerNotFound is returned when a player acts before joining or after a kick.
	ErrPlayerNotFound = errors.New("player not found in room")
	// ErrQuestionNotFound indicates a referenced question ID is invalid or already used.
	ErrQuestionNotFound = errors.New("question not found")
	// ErrNoRoundOpen indicates a round-scoped operation arrived with no active question.
	ErrNoRoundOpen = errors.New("no round is open")
	// ErrNoPlayers rejects starting a game with an empty lobby.
	ErrNoPlayers = errors.New("cannot start game without players")
	// ErrNoQuestions rejects starting a game with an empty question set.
	ErrNoQuestions = errors.New("cannot start game without questions")
	// ErrLateJoin rejects a genuinely new player joining mid-game.
	ErrLateJoin = errors.New("game already in progress")
	// ErrIllegalTransition reports a phase edge missing from the transition table.
	// The attempted operation is a no-op; the caller may retry once state is legal.
	ErrIllegalTransition = errors.New("illegal phase transition")
	// ErrPowerUpUnavailable indicates the power-up is not in the player's available list.
	ErrPowerUpUnavailable = errors.New("power-up not available")
	// ErrPowerUpAlreadyActive enforces the one-active-effect invariant.
	ErrPowerUpAlreadyActive = errors.New("another power-up is already active")
	// ErrNoNumericTarget indicates a numeric question with no configured target.
	ErrNoNumericTarget = errors.New("numeric question has no target configured")
)

// RejectReason classifies why a submission was turned away. Rejections are
// surfaced only to the submitting player, never broadcast.
type RejectReason string

const (
	RejectLate            RejectReason = "late"
	RejectAlreadyAnswered RejectReason = "already-answered"
	RejectInvalid         RejectReason = "invalid"
)
