package app

import (
	"context"
	"fmt"
	"time"

	"campus-quiz-service/internal/domain"

	"github.com/google/uuid"
)

// QuizBank loads quiz content from the backing store. GetQuestions must
// return the quiz's questions in stored order; that order is the canonical
// one clients navigate by.
type QuizBank interface {
	ListQuizzes(ctx context.Context) ([]domain.Quiz, error)
	GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
	GetQuestions(ctx context.Context, quizID string) ([]domain.Question, error)
}

// SubmissionStore persists submissions and reads them back for review.
// Record must be atomic: either the submission, all answer snapshots and
// (on a pass) the per-user quiz lock commit together, or nothing does.
type SubmissionStore interface {
	Record(ctx context.Context, sub domain.Submission, answers []domain.StoredAnswer, lockQuiz bool) error
	GetSubmission(ctx context.Context, submissionID string) (domain.Submission, error)
	GetAnswers(ctx context.Context, submissionID string) ([]domain.StoredAnswer, error)
	LatestStatuses(ctx context.Context, userID string) (map[string]domain.PassStatus, error)
	LockedQuizzes(ctx context.Context, userID string) (map[string]bool, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Submission, error)
}

// Policy holds deployment-wide quiz rules.
type Policy struct {
	// PassThresholdPercent is the minimum score percentage for a pass.
	// One fixed value per deployment, never per call.
	PassThresholdPercent int
}

// SubmitResult is what a client gets back from a recorded submission.
type SubmitResult struct {
	SubmissionID   string            `json:"submissionId"`
	Score          int               `json:"score"`
	TotalQuestions int               `json:"totalQuestions"`
	PassStatus     domain.PassStatus `json:"passStatus"`
}

// QuizService contains the quiz-flow use cases: listing, fetching a
// sanitized quiz, scoring and recording a submission, and reconstructing a
// review.
type QuizService struct {
	bank      QuizBank
	subs      SubmissionStore
	feed      *ResultsFeed
	explainer Explainer
	policy    Policy
	now       func() time.Time
	newID     func() string
}

func NewQuizService(bank QuizBank, subs SubmissionStore, feed *ResultsFeed, policy Policy) *QuizService {
	return NewQuizServiceWithClock(bank, subs, feed, policy, time.Now, uuid.NewString)
}

// NewQuizServiceWithClock injects the clock and id source for
// deterministic tests.
func NewQuizServiceWithClock(bank QuizBank, subs SubmissionStore, feed *ResultsFeed, policy Policy, now func() time.Time, newID func() string) *QuizService {
	return &QuizService{
		bank:      bank,
		subs:      subs,
		feed:      feed,
		explainer: StaticExplainer{},
		policy:    policy,
		now:       now,
		newID:     newID,
	}
}

// SetExplainer swaps the review explanation source.
func (s *QuizService) SetExplainer(e Explainer) {
	if e != nil {
		s.explainer = e
	}
}

// ListQuizzes returns every quiz annotated for the requesting user: their
// latest verdict and whether the quiz is still open to them. A quiz a user
// has passed is locked for that user only; other students keep access.
func (s *QuizService) ListQuizzes(ctx context.Context, userID string) ([]domain.QuizSummary, error) {
	quizzes, err := s.bank.ListQuizzes(ctx)
	if err != nil {
		return nil, err
	}
	statuses, err := s.subs.LatestStatuses(ctx, userID)
	if err != nil {
		return nil, err
	}
	locked, err := s.subs.LockedQuizzes(ctx, userID)
	if err != nil {
		return nil, err
	}

	summaries := make([]domain.QuizSummary, 0, len(quizzes))
	for _, quiz := range quizzes {
		summary := domain.QuizSummary{
			ID:          quiz.ID,
			Title:       quiz.Title,
			Description: quiz.Description,
			Duration:    quiz.DurationMinutes,
			TotalMarks:  quiz.TotalMarks,
			Active:      quiz.Active && !locked[quiz.ID],
		}
		if status, ok := statuses[quiz.ID]; ok {
			st := status
			summary.PassStatus = &st
		}
		summaries = append(summaries, summary)
	}
	return summaries, nil
}

// GetQuiz returns quiz metadata plus its sanitized question list, in
// stored order. Correct answers and explanations never leave the server
// before submission.
func (s *QuizService) GetQuiz(ctx context.Context, quizID string) (domain.Quiz, []domain.QuestionView, error) {
	quiz, err := s.bank.GetQuiz(ctx, quizID)
	if err != nil {
		return domain.Quiz{}, nil, err
	}
	questions, err := s.bank.GetQuestions(ctx, quizID)
	if err != nil {
		return domain.Quiz{}, nil, err
	}
	views := make([]domain.QuestionView, 0, len(questions))
	for _, q := range questions {
		views = append(views, q.View())
	}
	return quiz, views, nil
}

// Submit scores the answer map against a freshly loaded question set,
// records the submission with full per-question snapshots, and locks the
// quiz for this user on a pass. The client-supplied question list is never
// trusted; only the answer map is.
//
// There is no dedup here: two calls make two submissions. At-most-once per
// attempt is the session controller's job.
func (s *QuizService) Submit(ctx context.Context, userID, quizID string, answers map[string]string) (SubmitResult, error) {
	quiz, err := s.bank.GetQuiz(ctx, quizID)
	if err != nil {
		return SubmitResult{}, err
	}
	questions, err := s.bank.GetQuestions(ctx, quizID)
	if err != nil {
		return SubmitResult{}, err
	}

	scored := Score(questions, answers, s.policy.PassThresholdPercent)

	submission := domain.Submission{
		ID:          s.newID(),
		QuizID:      quiz.ID,
		UserID:      userID,
		Score:       scored.Score,
		PassStatus:  scored.PassStatus,
		SubmittedAt: s.now(),
	}

	stored := make([]domain.StoredAnswer, 0, len(questions))
	for i, q := range questions {
		per := scored.PerQuestion[i]
		opts := q.Options
		if opts == nil {
			opts = []string{}
		}
		stored = append(stored, domain.StoredAnswer{
			SubmissionID:  submission.ID,
			QuestionID:    q.ID,
			QuestionText:  q.Text,
			Options:       opts,
			UserAnswer:    per.UserAnswer,
			CorrectAnswer: q.CorrectAnswer,
			IsCorrect:     per.IsCorrect,
			Explanation:   q.Explanation,
		})
	}

	lockQuiz := scored.PassStatus == domain.PassStatusPass
	if err := s.subs.Record(ctx, submission, stored, lockQuiz); err != nil {
		return SubmitResult{}, fmt.Errorf("record submission: %w", err)
	}

	if s.feed != nil {
		s.feed.Publish(SubmissionEvent{
			SubmissionID:   submission.ID,
			QuizID:         submission.QuizID,
			UserID:         submission.UserID,
			Score:          submission.Score,
			TotalQuestions: len(questions),
			PassStatus:     submission.PassStatus,
			SubmittedAt:    submission.SubmittedAt,
		})
	}

	return SubmitResult{
		SubmissionID:   submission.ID,
		Score:          scored.Score,
		TotalQuestions: len(questions),
		PassStatus:     scored.PassStatus,
	}, nil
}

// Result reconstructs the full review for a submission from the stored
// snapshots alone. A missing explanation degrades to a placeholder; the
// review itself never fails for that reason.
func (s *QuizService) Result(ctx context.Context, submissionID string) (domain.ResultData, error) {
	submission, err := s.subs.GetSubmission(ctx, submissionID)
	if err != nil {
		return domain.ResultData{}, err
	}
	quiz, err := s.bank.GetQuiz(ctx, submission.QuizID)
	if err != nil {
		return domain.ResultData{}, err
	}
	answers, err := s.subs.GetAnswers(ctx, submissionID)
	if err != nil {
		return domain.ResultData{}, err
	}

	reviews := make([]domain.AnswerReview, 0, len(answers))
	for _, ans := range answers {
		explanation, err := s.explainer.Explain(ctx, ans)
		if err != nil || explanation == "" {
			explanation = PlaceholderExplanation
		}
		opts := ans.Options
		if opts == nil {
			opts = []string{}
		}
		reviews = append(reviews, domain.AnswerReview{
			QuestionID:    ans.QuestionID,
			QuestionText:  ans.QuestionText,
			Options:       opts,
			UserAnswer:    ans.UserAnswer,
			CorrectAnswer: ans.CorrectAnswer,
			IsCorrect:     ans.IsCorrect,
			Explanation:   explanation,
		})
	}

	return domain.ResultData{
		SubmissionID:   submission.ID,
		QuizID:         submission.QuizID,
		QuizTitle:      quiz.Title,
		Score:          submission.Score,
		TotalQuestions: len(reviews),
		PassStatus:     submission.PassStatus,
		Questions:      reviews,
	}, nil
}

// Stats aggregates the dashboard counters for one student. Active counts
// are per-user: a quiz this student passed counts as inactive for them.
func (s *QuizService) Stats(ctx context.Context, userID string) (domain.StudentStats, error) {
	summaries, err := s.ListQuizzes(ctx, userID)
	if err != nil {
		return domain.StudentStats{}, err
	}
	subs, err := s.subs.ListByUser(ctx, userID)
	if err != nil {
		return domain.StudentStats{}, err
	}

	attended := make(map[string]struct{}, len(subs))
	for _, sub := range subs {
		attended[sub.QuizID] = struct{}{}
	}

	stats := domain.StudentStats{TotalQuizzesAttended: len(attended)}
	for _, summary := range summaries {
		if summary.Active {
			stats.ActiveQuizzes++
		} else {
			stats.InactiveQuizzes++
		}
	}
	return stats, nil
}

// Performance returns the student's submission history, newest first.
func (s *QuizService) Performance(ctx context.Context, userID string) ([]domain.PerformanceRow, error) {
	subs, err := s.subs.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	titles := make(map[string]domain.Quiz)
	rows := make([]domain.PerformanceRow, 0, len(subs))
	for _, sub := range subs {
		quiz, ok := titles[sub.QuizID]
		if !ok {
			quiz, err = s.bank.GetQuiz(ctx, sub.QuizID)
			if err != nil {
				return nil, err
			}
			titles[sub.QuizID] = quiz
		}
		rows = append(rows, domain.PerformanceRow{
			QuizTitle:   quiz.Title,
			Score:       sub.Score,
			TotalMarks:  quiz.TotalMarks,
			SubmittedAt: sub.SubmittedAt,
		})
	}
	return rows, nil
}
