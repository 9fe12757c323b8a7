package protocol

import (
	"time"

	"party-quiz-service/internal/domain"
)

// SanitizeQuestion strips every answer-revealing field from a question
// before it is shown to players. It is total over the question shape:
// whatever the kind, the returned copy carries no correctness data.
// Bounds are kept so estimation clients can render a guess range.
func SanitizeQuestion(q domain.Question) domain.Question {
	q.CorrectOption = -1
	q.AcceptedAnswers = nil
	q.Target = 0
	q.HasTarget = false
	return q
}

// NewQuestionShow builds the broadcast for a freshly opened round. The
// question is sanitized here so no call site can leak the answer.
func NewQuestionShow(q domain.Question, index, total, timeLimitSec int, startedAt time.Time) QuestionShow {
	return QuestionShow{
		Question:     SanitizeQuestion(q),
		Index:        index,
		Total:        total,
		TimeLimitSec: timeLimitSec,
		StartedAt:    startedAt,
	}
}

// NewQuestionReplaced builds the broadcast for a mid-round question swap.
func NewQuestionReplaced(q domain.Question, index, total, timeLimitSec int, startedAt time.Time) QuestionReplaced {
	return QuestionReplaced{
		Question:     SanitizeQuestion(q),
		Index:        index,
		Total:        total,
		TimeLimitSec: timeLimitSec,
		StartedAt:    startedAt,
	}
}
