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

	"party-quiz-service/internal/app"
	"party-quiz-service/internal/config"
	"party-quiz-service/internal/domain"
	"party-quiz-service/internal/infra/memory"
	pgsource "party-quiz-service/internal/infra/postgres"
	redisstore "party-quiz-service/internal/infra/redis"
	transport "party-quiz-service/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz host server",
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
		finalPort = "8080"
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}
	redisTTL := config.TTLDuration(cfg.Redis.TTL, 2*time.Hour)

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
	}

	var source app.QuestionSource = memory.NewStaticQuestionSource(sampleQuestions())
	if pool != nil {
		source = pgsource.NewQuestionSource(pool)
	}
	questionTTL := config.TTLDuration(cfg.Questions.TTL, 10*time.Minute)
	source = memory.NewQuestionCache(source, questionTTL)

	var snapshots app.SnapshotStore
	var identities app.IdentityStore
	if redisClient != nil {
		snapshots = redisstore.NewSnapshotStore(redisClient, redisTTL)
		identities = redisstore.NewIdentityStore(redisClient, redisTTL)
	} else {
		snapshots = memory.NewSnapshotStore()
		identities = memory.NewIdentityStore()
	}

	registry := transport.NewRegistry()
	hub := app.NewHub(ctx, registry, snapshots, identities, source, cfg.Rules())
	wsHandler := transport.NewWSHandler(hub, registry)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/ws/host", wsHandler.ServeHost)
	mux.HandleFunc("/ws/play", wsHandler.ServePlay)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting quiz host service on :%s", finalPort)
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

// sampleQuestions provides a minimal catalog; swap in the Postgres source in production.
func sampleQuestions() []domain.Question {
	return []domain.Question{
		{
			ID:            "q-capital-fr",
			Category:      "geography",
			Difficulty:    "easy",
			Kind:          domain.AnswerMultipleChoice,
			Prompt:        "What is the capital of France?",
			Options:       []string{"Lyon", "Paris", "Marseille"},
			CorrectOption: 1,
		},
		{
			ID:              "q-red-planet",
			Category:        "science",
			Difficulty:      "medium",
			Kind:            domain.AnswerText,
			Prompt:          "Which planet is known as the red planet?",
			AcceptedAnswers: []string{"Mars"},
			MaxTypos:        1,
		},
		{
			ID:         "q-moon-year",
			Category:   "history",
			Difficulty: "hard",
			Kind:       domain.AnswerNumeric,
			Prompt:     "In what year did humans first land on the Moon?",
			Target:     1969,
			HasTarget:  true,
			LowerBound: 1950,
			UpperBound: 1990,
		},
	}
}
