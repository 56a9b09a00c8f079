package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"

	"quizforge-session-service/internal/domain"
)

// QuestionLoader reads the question bank straight from Postgres, for
// deployments where the gateway shares the backend's database instead of
// going through its HTTP API.
type QuestionLoader struct {
	pool *pgxpool.Pool
}

func NewQuestionLoader(pool *pgxpool.Pool) *QuestionLoader {
	return &QuestionLoader{pool: pool}
}

func (l *QuestionLoader) LoadQuestions(ctx context.Context, filter domain.Filter) ([]domain.Question, error) {
	query := `SELECT id, question, correct_answer, incorrect_answers FROM questions`
	var args []interface{}
	switch {
	case filter.Category != "" && filter.Difficulty != "":
		query += ` WHERE categoria = $1 AND dificultad = $2`
		args = append(args, filter.Category, filter.Difficulty)
	case filter.Category != "":
		query += ` WHERE categoria = $1`
		args = append(args, filter.Category)
	case filter.Difficulty != "":
		query += ` WHERE dificultad = $1`
		args = append(args, filter.Difficulty)
	}
	query += ` ORDER BY id DESC`

	rows, err := l.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: query questions: %w", domain.ErrQuestionFetch, err)
	}
	defer rows.Close()

	var questions []domain.Question
	for rows.Next() {
		var q domain.Question
		if err := rows.Scan(&q.ID, &q.Prompt, &q.CorrectAnswer, &q.IncorrectAnswers); err != nil {
			return nil, fmt.Errorf("%w: scan question: %w", domain.ErrQuestionFetch, err)
		}
		questions = append(questions, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: read questions: %w", domain.ErrQuestionFetch, err)
	}
	return questions, nil
}
