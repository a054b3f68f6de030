package cli

import (
	"errors"
	"fmt"
	"log"
	"time"

	"campus-quiz-service/internal/auth"
	"campus-quiz-service/internal/config"
	"campus-quiz-service/internal/domain"
	"campus-quiz-service/internal/infra/memory"
	pginfra "campus-quiz-service/internal/infra/postgres"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/spf13/cobra"
)

// NewSeedCmd loads the sample quizzes into Postgres. Quiz authoring is
// otherwise external to this service.
func NewSeedCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Insert sample quizzes into the database",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			if cfg.Postgres.URL == "" {
				return fmt.Errorf("postgres url not configured")
			}
			if err := runMigrationsWithConfig(cmd.Context(), cfg); err != nil {
				return err
			}

			pool, err := pgxpool.Connect(cmd.Context(), cfg.Postgres.URL)
			if err != nil {
				return err
			}
			defer pool.Close()

			bank := pginfra.NewQuizBank(pool)
			for _, seed := range sampleQuizzes() {
				if err := bank.PutQuiz(cmd.Context(), seed.quiz, seed.questions); err != nil {
					return err
				}
				log.Printf("seeded quiz %s (%d questions)", seed.quiz.ID, len(seed.questions))
			}

			hash, err := auth.HashPassword("demo1234")
			if err != nil {
				return err
			}
			demo := domain.User{
				ID:           uuid.NewString(),
				Name:         "Demo Student",
				Email:        "demo@example.com",
				PasswordHash: hash,
				CreatedAt:    time.Now(),
			}
			users := pginfra.NewUserStore(pool)
			switch err := users.CreateUser(cmd.Context(), demo); {
			case err == nil:
				log.Printf("seeded user %s", demo.Email)
			case errors.Is(err, domain.ErrEmailTaken):
				log.Printf("user %s already present, skipping", demo.Email)
			default:
				return err
			}
			return nil
		},
	}
}

type quizSeed struct {
	quiz      domain.Quiz
	questions []domain.Question
}

func sampleBank() *memory.QuizBank {
	bank := memory.NewQuizBank()
	for _, seed := range sampleQuizzes() {
		bank.Put(seed.quiz, seed.questions)
	}
	return bank
}

func sampleQuizzes() []quizSeed {
	return []quizSeed{
		{
			quiz: domain.Quiz{
				ID:              "quiz-general-1",
				Title:           "General Knowledge I",
				Description:     "A short warm-up quiz.",
				DurationMinutes: 30,
				TotalMarks:      3,
				Active:          true,
			},
			questions: []domain.Question{
				{
					ID:            "q-001",
					QuizID:        "quiz-general-1",
					Text:          "What is 2 + 2?",
					Options:       []string{"3", "4", "5", "22"},
					CorrectAnswer: "4",
					Marks:         1,
					Explanation:   "Adding two and two gives four.",
				},
				{
					ID:            "q-002",
					QuizID:        "quiz-general-1",
					Text:          "Which planet is known as the Red Planet?",
					Options:       []string{"Venus", "Mars", "Jupiter", "Saturn"},
					CorrectAnswer: "Mars",
					Marks:         1,
					Explanation:   "Iron oxide on its surface gives Mars its red color.",
				},
				{
					ID:            "q-003",
					QuizID:        "quiz-general-1",
					Text:          "What is the capital of France?",
					Options:       []string{"Lyon", "Marseille", "Paris", "Nice"},
					CorrectAnswer: "Paris",
					Marks:         1,
				},
			},
		},
	}
}
