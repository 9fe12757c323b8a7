package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v4/pgxpool"

	"party-quiz-service/internal/domain"
)

// QuestionSource loads question JSONB rows from Postgres, applying the
// filter in SQL.
type QuestionSource struct {
	pool *pgxpool.Pool
}

func NewQuestionSource(pool *pgxpool.Pool) *QuestionSource {
	return &QuestionSource{pool: pool}
}

func (s *QuestionSource) Questions(ctx context.Context, filter domain.QuestionFilter) ([]domain.Question, error) {
	var (
		conds []string
		args  []interface{}
	)
	if len(filter.Categories) > 0 {
		args = append(args, filter.Categories)
		conds = append(conds, fmt.Sprintf("category = ANY($%d)", len(args)))
	}
	if len(filter.Difficulties) > 0 {
		args = append(args, filter.Difficulties)
		conds = append(conds, fmt.Sprintf("difficulty = ANY($%d)", len(args)))
	}
	if len(filter.ExcludeIDs) > 0 {
		args = append(args, filter.ExcludeIDs)
		conds = append(conds, fmt.Sprintf("NOT (id = ANY($%d))", len(args)))
	}

	query := `SELECT data FROM questions`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	if filter.Shuffle {
		query += " ORDER BY random()"
	} else {
		query += " ORDER BY id"
	}
	if filter.Count > 0 {
		args = append(args, filter.Count)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("load questions: %w", err)
	}
	defer rows.Close()

	var questions []domain.Question
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		var q domain.Question
		if err := json.Unmarshal(raw, &q); err != nil {
			return nil, fmt.Errorf("unmarshal question: %w", err)
		}
		questions = append(questions, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load questions: %w", err)
	}
	if len(questions) == 0 {
		return nil, domain.ErrQuestionNotFound
	}
	return questions, nil
}
