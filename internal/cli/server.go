package cli

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"quizforge-session-service/internal/app"
	"quizforge-session-service/internal/auth"
	"quizforge-session-service/internal/config"
	"quizforge-session-service/internal/domain"
	"quizforge-session-service/internal/infra/httpapi"
	"quizforge-session-service/internal/infra/memory"
	pgloader "quizforge-session-service/internal/infra/postgres"
	redisinfra "quizforge-session-service/internal/infra/redis"
	transport "quizforge-session-service/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the gateway.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the session gateway",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8081"
	}

	backendURL := cfg.Backend.URL
	if backendURL == "" {
		backendURL = "http://localhost:8080"
	}
	backend := httpapi.NewClient(backendURL, config.TTLDuration(cfg.Backend.Timeout, 10*time.Second))

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}
	sessionTTL := config.TTLDuration(cfg.Redis.TTL, 10*time.Minute)
	cacheTTL := config.TTLDuration(cfg.Quiz.CacheTTL, 10*time.Minute)

	// Question source: the backend API by default, the shared Postgres when
	// configured, a small built-in set when neither is reachable at dev time.
	var loader memory.QuestionLoader = backend
	if cfg.Postgres.URL != "" {
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		loader = pgloader.NewQuestionLoader(pool)
	} else if cfg.Backend.URL == "" {
		loader = memory.NewStaticQuestionLoader(sampleQuestions())
	}

	var questionRepo app.QuestionRepository
	if redisClient != nil {
		questionRepo = redisinfra.NewQuestionRepository(redisClient, loader, cacheTTL)
	} else {
		questionRepo = memory.NewQuestionRepository(loader, cacheTTL)
	}

	var store app.SessionRepository
	if redisClient != nil {
		store = redisinfra.NewSessionStore(redisClient, sessionTTL)
	} else {
		store = memory.NewSessionStore()
	}

	secret := cfg.Auth.Secret
	if secret == "" {
		secret = os.Getenv("JWT_SECRET")
	}
	verifier := auth.NewVerifier(secret)

	questionSeconds := cfg.Quiz.QuestionSeconds
	if questionSeconds <= 0 {
		questionSeconds = 15
	}

	service := app.NewSessionService(questionRepo, store, backend, questionSeconds)
	wsHandler := transport.NewWSHandler(service, verifier)
	apiHandler := transport.NewAPIHandler(backend, verifier)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/ws", wsHandler.ServeWS)
	mux.HandleFunc("/api/history", apiHandler.History)
	mux.HandleFunc("/api/summary", apiHandler.Summary)
	mux.HandleFunc("/api/admin/users", apiHandler.Users)
	mux.HandleFunc("/api/admin/users/", apiHandler.UserByID)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting quiz session gateway on :%s", finalPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("failed to start server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Println("shutting down server...")
	case <-ctx.Done():
		log.Println("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// sampleQuestions provides a minimal bank for running without a backend or
// database; swap in the real question source in production.
func sampleQuestions() []domain.Question {
	return []domain.Question{
		{
			ID:               1,
			Prompt:           "What is 2 + 2?",
			CorrectAnswer:    "4",
			IncorrectAnswers: []string{"3", "5", "22"},
		},
		{
			ID:               2,
			Prompt:           "Which planet is known as the Red Planet?",
			CorrectAnswer:    "Mars",
			IncorrectAnswers: []string{"Venus", "Jupiter", "Mercury"},
		},
	}
}
