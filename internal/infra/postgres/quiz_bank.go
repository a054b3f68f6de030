package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"campus-quiz-service/internal/domain"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

// QuizBank reads quiz metadata and ordered question lists from Postgres.
// It is the authoritative source: the scoring path always reloads
// questions from here, never from the client.
type QuizBank struct {
	pool *pgxpool.Pool
}

func NewQuizBank(pool *pgxpool.Pool) *QuizBank {
	return &QuizBank{pool: pool}
}

func (b *QuizBank) ListQuizzes(ctx context.Context) ([]domain.Quiz, error) {
	rows, err := b.pool.Query(ctx, `
		SELECT id, title, description, duration_minutes, total_marks, is_active
		FROM quizzes
		ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list quizzes: %w", err)
	}
	defer rows.Close()

	var quizzes []domain.Quiz
	for rows.Next() {
		var quiz domain.Quiz
		if err := rows.Scan(&quiz.ID, &quiz.Title, &quiz.Description, &quiz.DurationMinutes, &quiz.TotalMarks, &quiz.Active); err != nil {
			return nil, fmt.Errorf("scan quiz: %w", err)
		}
		quizzes = append(quizzes, quiz)
	}
	return quizzes, rows.Err()
}

func (b *QuizBank) GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	var quiz domain.Quiz
	err := b.pool.QueryRow(ctx, `
		SELECT id, title, description, duration_minutes, total_marks, is_active
		FROM quizzes WHERE id=$1`, quizID).
		Scan(&quiz.ID, &quiz.Title, &quiz.Description, &quiz.DurationMinutes, &quiz.TotalMarks, &quiz.Active)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	if err != nil {
		return domain.Quiz{}, fmt.Errorf("get quiz: %w", err)
	}
	return quiz, nil
}

// GetQuestions returns the quiz's questions in stored (id) order. That
// order is stable across fetches and defines the palette indexing.
func (b *QuizBank) GetQuestions(ctx context.Context, quizID string) ([]domain.Question, error) {
	rows, err := b.pool.Query(ctx, `
		SELECT id, quiz_id, question_text, options, correct_answer, marks, explanation
		FROM questions
		WHERE quiz_id=$1
		ORDER BY id`, quizID)
	if err != nil {
		return nil, fmt.Errorf("load questions: %w", err)
	}
	defer rows.Close()

	questions := make([]domain.Question, 0)
	for rows.Next() {
		var q domain.Question
		var options []byte
		if err := rows.Scan(&q.ID, &q.QuizID, &q.Text, &options, &q.CorrectAnswer, &q.Marks, &q.Explanation); err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		if err := json.Unmarshal(options, &q.Options); err != nil {
			return nil, fmt.Errorf("unmarshal options: %w", err)
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

// PutQuiz inserts or replaces a quiz and its questions. Used by the seed
// command; quiz authoring is otherwise external to this service.
func (b *QuizBank) PutQuiz(ctx context.Context, quiz domain.Quiz, questions []domain.Question) error {
	tx, err := b.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO quizzes (id, title, description, duration_minutes, total_marks, is_active)
		VALUES ($1,$2,$3,$4,$5,$6)
		ON CONFLICT (id) DO UPDATE SET
			title=EXCLUDED.title, description=EXCLUDED.description,
			duration_minutes=EXCLUDED.duration_minutes,
			total_marks=EXCLUDED.total_marks, is_active=EXCLUDED.is_active`,
		quiz.ID, quiz.Title, quiz.Description, quiz.DurationMinutes, quiz.TotalMarks, quiz.Active)
	if err != nil {
		return fmt.Errorf("upsert quiz: %w", err)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM questions WHERE quiz_id=$1`, quiz.ID); err != nil {
		return fmt.Errorf("clear questions: %w", err)
	}
	for _, q := range questions {
		options, err := json.Marshal(q.Options)
		if err != nil {
			return err
		}
		_, err = tx.Exec(ctx, `
			INSERT INTO questions (id, quiz_id, question_text, options, correct_answer, marks, explanation)
			VALUES ($1,$2,$3,$4,$5,$6,$7)`,
			q.ID, quiz.ID, q.Text, options, q.CorrectAnswer, q.EffectiveMarks(), q.Explanation)
		if err != nil {
			return fmt.Errorf("insert question: %w", err)
		}
	}
	return tx.Commit(ctx)
}
