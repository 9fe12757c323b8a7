package memory

import (
	"context"
	"math/rand"
	"time"

	"party-quiz-service/internal/domain"
)

// StaticQuestionSource serves questions from an in-memory catalog (useful
// for tests and dependency-free demo runs).
type StaticQuestionSource struct {
	questions []domain.Question
	rnd       *rand.Rand
}

func NewStaticQuestionSource(questions []domain.Question) *StaticQuestionSource {
	return &StaticQuestionSource{
		questions: questions,
		rnd:       rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (s *StaticQuestionSource) Questions(_ context.Context, filter domain.QuestionFilter) ([]domain.Question, error) {
	out := make([]domain.Question, 0, len(s.questions))
	for _, q := range s.questions {
		if !matchesFilter(q, filter) {
			continue
		}
		out = append(out, q)
	}
	if len(out) == 0 {
		return nil, domain.ErrQuestionNotFound
	}
	if filter.Shuffle {
		s.rnd.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	}
	if filter.Count > 0 && len(out) > filter.Count {
		out = out[:filter.Count]
	}
	return out, nil
}

func matchesFilter(q domain.Question, filter domain.QuestionFilter) bool {
	if len(filter.Categories) > 0 && !contains(filter.Categories, q.Category) {
		return false
	}
	if len(filter.Difficulties) > 0 && !contains(filter.Difficulties, q.Difficulty) {
		return false
	}
	if contains(filter.ExcludeIDs, q.ID) {
		return false
	}
	return true
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
