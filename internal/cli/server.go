package cli

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"

	"quizhub-service/internal/app"
	"quizhub-service/internal/config"
	"quizhub-service/internal/domain"
	"quizhub-service/internal/infra/memory"
	pgstore "quizhub-service/internal/infra/postgres"
	redisinfra "quizhub-service/internal/infra/redis"
	transport "quizhub-service/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz analytics server",
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
	quizTTL := config.TTLDuration(cfg.Quiz.TTL, 10*time.Minute)
	analyticsTTL := config.TTLDuration(cfg.Analytics.TTL, 5*time.Minute)

	// Storage: Postgres when configured, otherwise an in-memory store with
	// demo content for local runs.
	var (
		participationStore app.ParticipationStore
		analyticsStore     app.AnalyticsStore
		quizLoader         memory.QuizLoader
	)
	if cfg.Postgres.URL != "" {
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()

		sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(cfg.Postgres.URL)))
		db := bun.NewDB(sqldb, pgdialect.New())
		defer db.Close()

		store := pgstore.NewStore(db)
		participationStore = store
		analyticsStore = store
		quizLoader = pgstore.NewQuizLoader(pool)
	} else {
		store := memory.NewStore()
		seedDemoData(store)
		participationStore = store
		analyticsStore = store
		quizLoader = store
	}

	var quizRepo app.QuizRepository
	var viewCache app.ViewCache
	if redisClient != nil {
		quizRepo = redisinfra.NewQuizRepository(redisClient, quizLoader, quizTTL)
		viewCache = redisinfra.NewViewCache(redisClient)
	} else {
		quizRepo = memory.NewQuizRepository(quizLoader, quizTTL)
		viewCache = memory.NewViewCache()
	}

	feed := app.NewStatsFeed()
	participations := app.NewParticipationService(quizRepo, participationStore, viewCache, feed)
	reports := app.NewAnalyticsService(analyticsStore, viewCache, analyticsTTL)
	exporter := app.NewExporter(reports)

	handler := transport.NewHandler(participations, reports, exporter)
	wsHandler := transport.NewWSHandler(reports, feed)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	handler.Register(mux)
	mux.HandleFunc("/ws/analytics", wsHandler.ServeWS)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting quizhub service on :%s", finalPort)
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

// seedDemoData loads a minimal quiz and a few users so the service is usable
// without Postgres.
func seedDemoData(store *memory.Store) {
	store.SeedUser(domain.User{ID: "admin-1", Name: "Admin", Role: domain.RoleAdmin})
	store.SeedUser(domain.User{ID: "instructor-1", Name: "Ida Instructor", Role: domain.RoleInstructor})
	store.SeedUser(domain.User{ID: "learner-1", Name: "Lena Learner", Role: domain.RoleLearner})
	store.SeedUser(domain.User{ID: "learner-2", Name: "Liam Learner", Role: domain.RoleLearner})

	timeLimit := 60
	store.SeedQuiz(domain.Quiz{
		ID:         "quiz-1",
		OwnerID:    "instructor-1",
		Title:      "Geography Basics",
		Mode:       domain.ModeStandard,
		TotalScore: 25,
		TotalTime:  120,
		Questions: []domain.Question{
			{
				ID: "q1", QuizID: "quiz-1", Type: domain.QuestionMultipleChoice,
				Text: "What is the capital of France?", Score: 10, TimeLimit: &timeLimit, Position: 1,
				Choices: []domain.Choice{
					{ID: "c1", QuestionID: "q1", Text: "Paris", IsCorrect: true},
					{ID: "c2", QuestionID: "q1", Text: "London"},
					{ID: "c3", QuestionID: "q1", Text: "Berlin"},
				},
			},
			{
				ID: "q2", QuizID: "quiz-1", Type: domain.QuestionCheckbox,
				Text: "Which of these are EU members?", Score: 10, Position: 2,
				Choices: []domain.Choice{
					{ID: "c4", QuestionID: "q2", Text: "France", IsCorrect: true},
					{ID: "c5", QuestionID: "q2", Text: "Germany", IsCorrect: true},
					{ID: "c6", QuestionID: "q2", Text: "Norway"},
				},
			},
			{
				ID: "q3", QuizID: "quiz-1", Type: domain.QuestionIdentification,
				Text: "Which river flows through Paris?", Score: 5, Position: 3,
				Choices: []domain.Choice{
					{ID: "c7", QuestionID: "q3", Text: "Seine", IsCorrect: true},
				},
			},
		},
	})
}
