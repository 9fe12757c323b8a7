package game

import (
	"time"

	"party-quiz-service/internal/domain"
)

// AnswerMode configures how submissions are interpreted for a round.
type AnswerMode string

const (
	// ModeAllPlayers accepts answers until reveal; order carries no bonus.
	ModeAllPlayers AnswerMode = "all-players"
	// ModeFirstToAnswer keeps submission position meaningful. No bonus
	// scoring is keyed on it here; the order is surfaced in reveal payloads.
	ModeFirstToAnswer AnswerMode = "first-to-answer"
)

// Tracker records submissions for a single round: at most one answer per
// player, late rejection against the round deadline, and submission order.
// It is not thread-safe; it is only touched from the owning room's
// serialized event handler.
type Tracker struct {
	mode       AnswerMode
	allowLate  bool
	timeLimit  time.Duration
	startedAt  time.Time
	answers    map[string]domain.PlayerAnswer
	order      []string
	extensions map[string]time.Duration
}

func NewTracker(mode AnswerMode, allowLate bool, timeLimit time.Duration) *Tracker {
	return &Tracker{
		mode:       mode,
		allowLate:  allowLate,
		timeLimit:  timeLimit,
		answers:    make(map[string]domain.PlayerAnswer),
		extensions: make(map[string]time.Duration),
	}
}

// StartQuestion resets the answer set and ordering for a fresh round.
func (t *Tracker) StartQuestion(startTime time.Time) {
	t.startedAt = startTime
	t.answers = make(map[string]domain.PlayerAnswer)
	t.order = nil
	t.extensions = make(map[string]time.Duration)
}

// ExtendDeadline grants extra time to one player's personal deadline
// (the extra-time power-up). The room-wide limit is unchanged.
func (t *Tracker) ExtendDeadline(playerID string, extra time.Duration) {
	t.extensions[playerID] += extra
}

// Submit records an answer. On acceptance it returns the 1-based submission
// position and an empty reason; otherwise the position is 0 and the reason
// says why the submission was turned away.
func (t *Tracker) Submit(playerID, questionID, value string, submittedAt time.Time) (int, domain.RejectReason) {
	if _, dup := t.answers[playerID]; dup {
		return 0, domain.RejectAlreadyAnswered
	}

	elapsed := submittedAt.Sub(t.startedAt)
	limit := t.timeLimit
	if limit > 0 {
		limit += t.extensions[playerID]
		if elapsed >= limit && !t.allowLate {
			return 0, domain.RejectLate
		}
	}

	t.order = append(t.order, playerID)
	t.answers[playerID] = domain.PlayerAnswer{
		PlayerID:    playerID,
		QuestionID:  questionID,
		Value:       value,
		SubmittedAt: submittedAt,
		Elapsed:     elapsed,
	}
	return len(t.order), ""
}

// Answers returns the recorded answers in submission order.
func (t *Tracker) Answers() []domain.PlayerAnswer {
	out := make([]domain.PlayerAnswer, 0, len(t.order))
	for _, id := range t.order {
		out = append(out, t.answers[id])
	}
	return out
}

// Answer returns a single player's recorded answer.
func (t *Tracker) Answer(playerID string) (domain.PlayerAnswer, bool) {
	a, ok := t.answers[playerID]
	return a, ok
}

// SetAnswer overwrites a recorded answer, used when the round is resolved
// and correctness/points are assigned.
func (t *Tracker) SetAnswer(a domain.PlayerAnswer) {
	if _, ok := t.answers[a.PlayerID]; ok {
		t.answers[a.PlayerID] = a
	}
}

// HasAnswered reports whether the player already submitted this round.
func (t *Tracker) HasAnswered(playerID string) bool {
	_, ok := t.answers[playerID]
	return ok
}

// Position returns the 1-based submission position, or 0 if absent.
func (t *Tracker) Position(playerID string) int {
	for i, id := range t.order {
		if id == playerID {
			return i + 1
		}
	}
	return 0
}

// Count returns how many answers were accepted.
func (t *Tracker) Count() int { return len(t.order) }

// StartedAt returns when the round opened.
func (t *Tracker) StartedAt() time.Time { return t.startedAt }

// OrderedIDs returns the accepted player ids in submission order.
func (t *Tracker) OrderedIDs() []string {
	out := make([]string, len(t.order))
	copy(out, t.order)
	return out
}

// TimeRemaining recomputes the room-wide remaining time from the stored
// start time; it never goes negative. Zero limit means no deadline.
func (t *Tracker) TimeRemaining(now time.Time) time.Duration {
	if t.timeLimit <= 0 {
		return 0
	}
	remaining := t.timeLimit - now.Sub(t.startedAt)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Expired reports whether the round's time limit has passed.
func (t *Tracker) Expired(now time.Time) bool {
	return t.timeLimit > 0 && now.Sub(t.startedAt) >= t.timeLimit
}
