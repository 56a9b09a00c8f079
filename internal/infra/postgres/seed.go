package postgres

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
)

// QuestionRow is the bun model for the questions table, used when seeding
// the bank.
type QuestionRow struct {
	bun.BaseModel `bun:"table:questions"`

	ID               int      `bun:"id,pk,autoincrement"`
	Question         string   `bun:"question,notnull"`
	CorrectAnswer    string   `bun:"correct_answer,notnull"`
	IncorrectAnswers []string `bun:"incorrect_answers,array"`
	Categoria        string   `bun:"categoria"`
	Dificultad       string   `bun:"dificultad"`
}

// SeedQuestions inserts fetched trivia into the question bank.
func SeedQuestions(ctx context.Context, db *bun.DB, rows []QuestionRow) error {
	if len(rows) == 0 {
		return nil
	}
	if _, err := db.NewInsert().Model(&rows).Exec(ctx); err != nil {
		return fmt.Errorf("seed questions: %w", err)
	}
	return nil
}
