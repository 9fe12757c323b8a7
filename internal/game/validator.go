package game

import (
	"math"
	"strconv"
	"strings"

	"github.com/agnivade/levenshtein"

	"party-quiz-service/internal/domain"
)

// ValidateAnswer checks a raw submitted value against a question's
// correctness criteria. It is pure: no state is consulted or mutated.
//
// A malformed value (unparseable option index or number) is not an error;
// it is simply wrong. Errors indicate question misconfiguration.
func ValidateAnswer(q domain.Question, raw string) (bool, error) {
	switch q.Kind {
	case domain.AnswerMultipleChoice:
		idx, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil || idx < 0 || idx >= len(q.Options) {
			return false, nil
		}
		return idx == q.CorrectOption, nil
	case domain.AnswerText:
		return validateText(q, raw), nil
	case domain.AnswerNumeric:
		if !q.HasTarget {
			return false, domain.ErrNoNumericTarget
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return false, nil
		}
		return math.Abs(v-q.Target) < 1e-9, nil
	default:
		return false, domain.ErrQuestionNotFound
	}
}

func validateText(q domain.Question, raw string) bool {
	guess := strings.TrimSpace(raw)
	if !q.CaseSensitive {
		guess = strings.ToLower(guess)
	}
	for _, accepted := range q.AcceptedAnswers {
		want := strings.TrimSpace(accepted)
		if !q.CaseSensitive {
			want = strings.ToLower(want)
		}
		if guess == want {
			return true
		}
		if q.MaxTypos > 0 && levenshtein.ComputeDistance(guess, want) <= q.MaxTypos {
			return true
		}
	}
	return false
}
