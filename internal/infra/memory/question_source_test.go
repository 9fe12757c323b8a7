package memory

import (
	"context"
	"errors"
	"testing"

	"party-quiz-service/internal/domain"
)

func catalog() []domain.Question {
	return []domain.Question{
		{ID: "q1", Category: "geo", Difficulty: "easy"},
		{ID: "q2", Category: "geo", Difficulty: "hard"},
		{ID: "q3", Category: "science", Difficulty: "easy"},
		{ID: "q4", Category: "science", Difficulty: "hard"},
	}
}

func TestStaticSourceFilter(t *testing.T) {
	src := NewStaticQuestionSource(catalog())
	ctx := context.Background()

	got, err := src.Questions(ctx, domain.QuestionFilter{Categories: []string{"geo"}})
	if err != nil {
		t.Fatalf("categories: %v", err)
	}
	if len(got) != 2 || got[0].ID != "q1" || got[1].ID != "q2" {
		t.Fatalf("category filter: %+v", got)
	}

	got, err = src.Questions(ctx, domain.QuestionFilter{Difficulties: []string{"hard"}, ExcludeIDs: []string{"q2"}})
	if err != nil {
		t.Fatalf("difficulties: %v", err)
	}
	if len(got) != 1 || got[0].ID != "q4" {
		t.Fatalf("difficulty+exclude filter: %+v", got)
	}

	got, err = src.Questions(ctx, domain.QuestionFilter{Count: 2})
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("count limit: got %d questions", len(got))
	}
}

func TestStaticSourceEmptyResult(t *testing.T) {
	src := NewStaticQuestionSource(catalog())
	_, err := src.Questions(context.Background(), domain.QuestionFilter{Categories: []string{"history"}})
	if !errors.Is(err, domain.ErrQuestionNotFound) {
		t.Fatalf("expected ErrQuestionNotFound, got %v", err)
	}
}
