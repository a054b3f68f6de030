package cli

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"campus-quiz-service/internal/app"
	"campus-quiz-service/internal/auth"
	"campus-quiz-service/internal/config"
	"campus-quiz-service/internal/infra/memory"
	pginfra "campus-quiz-service/internal/infra/postgres"
	redisinfra "campus-quiz-service/internal/infra/redis"
	transport "campus-quiz-service/internal/transport/http"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz server",
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

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
	}

	var (
		bank  app.QuizBank
		subs  app.SubmissionStore
		users auth.UserStore
	)
	if pool != nil {
		bank = pginfra.NewQuizBank(pool)
		subs = pginfra.NewSubmissionStore(pool)
		users = pginfra.NewUserStore(pool)
	} else {
		log.Printf("postgres not configured, using in-memory stores with sample data")
		bank = sampleBank()
		subs = memory.NewSubmissionStore()
		users = memory.NewUserStore()
	}

	quizTTL := config.TTLDuration(cfg.Quiz.TTL, 10*time.Minute)
	if cfg.Redis.Addr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()
		bank = redisinfra.NewQuizCache(redisClient, bank, quizTTL)
	} else {
		bank = memory.NewCachedQuizBank(bank, quizTTL)
	}

	secret := cfg.Auth.JWTSecret
	if secret == "" {
		log.Printf("auth.jwt_secret not set, using an insecure development secret")
		secret = "dev-insecure-secret"
	}
	tokens := auth.NewTokenManager(secret, config.TTLDuration(cfg.Auth.TokenTTL, time.Hour))
	authService := auth.NewService(users, tokens)

	feed := app.NewResultsFeed()
	policy := app.Policy{PassThresholdPercent: cfg.Quiz.PassThresholdPercent}
	quizService := app.NewQuizService(bank, subs, feed, policy)

	api := transport.NewServer(quizService, authService, tokens, feed, cfg.Auth.SecureCookies)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      api.Routes(cfg.CORS.AllowedOrigins),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting quiz service on :%s", finalPort)
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
