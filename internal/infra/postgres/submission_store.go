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

// SubmissionStore persists submissions and their answer snapshots. Record
// runs in one transaction: the submission row, every answer row and (on a
// pass) the per-user quiz lock commit together or not at all, so a
// submission id is never reported for a partially written record.
type SubmissionStore struct {
	pool *pgxpool.Pool
}

func NewSubmissionStore(pool *pgxpool.Pool) *SubmissionStore {
	return &SubmissionStore{pool: pool}
}

func (s *SubmissionStore) Record(ctx context.Context, sub domain.Submission, answers []domain.StoredAnswer, lockQuiz bool) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("%w: begin: %v", domain.ErrPersistence, err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO submissions (id, quiz_id, user_id, score, pass_status, submitted_at)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		sub.ID, sub.QuizID, sub.UserID, sub.Score, string(sub.PassStatus), sub.SubmittedAt)
	if err != nil {
		return fmt.Errorf("%w: insert submission: %v", domain.ErrPersistence, err)
	}

	for _, ans := range answers {
		options, err := json.Marshal(ans.Options)
		if err != nil {
			return fmt.Errorf("%w: marshal options: %v", domain.ErrPersistence, err)
		}
		_, err = tx.Exec(ctx, `
			INSERT INTO submission_answers
				(submission_id, question_id, question_text, options, user_answer, correct_answer, is_correct, explanation)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
			ans.SubmissionID, ans.QuestionID, ans.QuestionText, options,
			ans.UserAnswer, ans.CorrectAnswer, ans.IsCorrect, ans.Explanation)
		if err != nil {
			return fmt.Errorf("%w: insert answer: %v", domain.ErrPersistence, err)
		}
	}

	if lockQuiz {
		_, err = tx.Exec(ctx, `
			INSERT INTO quiz_locks (user_id, quiz_id, locked_at)
			VALUES ($1,$2,$3)
			ON CONFLICT (user_id, quiz_id) DO NOTHING`,
			sub.UserID, sub.QuizID, sub.SubmittedAt)
		if err != nil {
			return fmt.Errorf("%w: lock quiz: %v", domain.ErrPersistence, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("%w: commit: %v", domain.ErrPersistence, err)
	}
	return nil
}

func (s *SubmissionStore) GetSubmission(ctx context.Context, submissionID string) (domain.Submission, error) {
	var sub domain.Submission
	var status string
	err := s.pool.QueryRow(ctx, `
		SELECT id, quiz_id, user_id, score, pass_status, submitted_at
		FROM submissions WHERE id=$1`, submissionID).
		Scan(&sub.ID, &sub.QuizID, &sub.UserID, &sub.Score, &status, &sub.SubmittedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Submission{}, domain.ErrSubmissionNotFound
	}
	if err != nil {
		return domain.Submission{}, fmt.Errorf("get submission: %w", err)
	}
	sub.PassStatus = domain.PassStatus(status)
	return sub, nil
}

func (s *SubmissionStore) GetAnswers(ctx context.Context, submissionID string) ([]domain.StoredAnswer, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT submission_id, question_id, question_text, options, user_answer, correct_answer, is_correct, explanation
		FROM submission_answers
		WHERE submission_id=$1
		ORDER BY question_id`, submissionID)
	if err != nil {
		return nil, fmt.Errorf("load answers: %w", err)
	}
	defer rows.Close()

	answers := make([]domain.StoredAnswer, 0)
	for rows.Next() {
		var ans domain.StoredAnswer
		var options []byte
		if err := rows.Scan(&ans.SubmissionID, &ans.QuestionID, &ans.QuestionText, &options,
			&ans.UserAnswer, &ans.CorrectAnswer, &ans.IsCorrect, &ans.Explanation); err != nil {
			return nil, fmt.Errorf("scan answer: %w", err)
		}
		if err := json.Unmarshal(options, &ans.Options); err != nil {
			return nil, fmt.Errorf("unmarshal options: %w", err)
		}
		answers = append(answers, ans)
	}
	// Zero rows is a valid result (a submission against an empty quiz);
	// existence is GetSubmission's call.
	return answers, rows.Err()
}

func (s *SubmissionStore) LatestStatuses(ctx context.Context, userID string) (map[string]domain.PassStatus, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT DISTINCT ON (quiz_id) quiz_id, pass_status
		FROM submissions
		WHERE user_id=$1
		ORDER BY quiz_id, submitted_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("latest statuses: %w", err)
	}
	defer rows.Close()

	statuses := make(map[string]domain.PassStatus)
	for rows.Next() {
		var quizID, status string
		if err := rows.Scan(&quizID, &status); err != nil {
			return nil, err
		}
		statuses[quizID] = domain.PassStatus(status)
	}
	return statuses, rows.Err()
}

func (s *SubmissionStore) LockedQuizzes(ctx context.Context, userID string) (map[string]bool, error) {
	rows, err := s.pool.Query(ctx, `SELECT quiz_id FROM quiz_locks WHERE user_id=$1`, userID)
	if err != nil {
		return nil, fmt.Errorf("locked quizzes: %w", err)
	}
	defer rows.Close()

	locked := make(map[string]bool)
	for rows.Next() {
		var quizID string
		if err := rows.Scan(&quizID); err != nil {
			return nil, err
		}
		locked[quizID] = true
	}
	return locked, rows.Err()
}

func (s *SubmissionStore) ListByUser(ctx context.Context, userID string) ([]domain.Submission, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, quiz_id, user_id, score, pass_status, submitted_at
		FROM submissions
		WHERE user_id=$1
		ORDER BY submitted_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list submissions: %w", err)
	}
	defer rows.Close()

	subs := make([]domain.Submission, 0)
	for rows.Next() {
		var sub domain.Submission
		var status string
		if err := rows.Scan(&sub.ID, &sub.QuizID, &sub.UserID, &sub.Score, &status, &sub.SubmittedAt); err != nil {
			return nil, err
		}
		sub.PassStatus = domain.PassStatus(status)
		subs = append(subs, sub)
	}
	return subs, rows.Err()
}
