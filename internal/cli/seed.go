package cli

import (
	"context"
	"database/sql"
	"fmt"
	"log"

	"github.com/spf13/cobra"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"

	"quizforge-session-service/internal/config"
	"quizforge-session-service/internal/infra/opentdb"
	pginfra "quizforge-session-service/internal/infra/postgres"
)

// NewSeedCmd fetches trivia from OpenTDB into the question bank.
func NewSeedCmd(configPath *string) *cobra.Command {
	var amount int
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Fetch multiple-choice trivia from OpenTDB and store it in Postgres",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeed(cmd.Context(), *configPath, amount)
		},
	}
	cmd.Flags().IntVar(&amount, "amount", 10, "number of questions to fetch")
	return cmd
}

func runSeed(ctx context.Context, configPath string, amount int) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if cfg.Postgres.URL == "" {
		return fmt.Errorf("postgres url not configured")
	}
	if err := runMigrationsWithConfig(ctx, cfg); err != nil {
		return err
	}

	trivia, err := opentdb.NewClient("").Fetch(ctx, amount)
	if err != nil {
		return err
	}

	rows := make([]pginfra.QuestionRow, 0, len(trivia))
	for _, t := range trivia {
		rows = append(rows, pginfra.QuestionRow{
			Question:         t.Question,
			CorrectAnswer:    t.CorrectAnswer,
			IncorrectAnswers: t.IncorrectAnswers,
			Categoria:        opentdb.TranslateCategory(t.Category),
			Dificultad:       opentdb.TranslateDifficulty(t.Difficulty),
		})
	}

	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(cfg.Postgres.URL)))
	db := bun.NewDB(sqldb, pgdialect.New())
	defer db.Close()

	if err := pginfra.SeedQuestions(ctx, db, rows); err != nil {
		return err
	}
	log.Printf("seeded %d questions", len(rows))
	return nil
}
