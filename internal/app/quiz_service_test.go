package app_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"campus-quiz-service/internal/app"
	"campus-quiz-service/internal/domain"
	"campus-quiz-service/internal/infra/memory"
)

var testClock = time.Date(2024, 11, 22, 10, 0, 0, 0, time.UTC)

func newTestService(t *testing.T) (*app.QuizService, *memory.SubmissionStore) {
	t.Helper()
	bank := memory.NewQuizBankWith(
		[]domain.Quiz{{
			ID:              "quiz-1",
			Title:           "Warm-up",
			DurationMinutes: 30,
			TotalMarks:      2,
			Active:          true,
		}},
		map[string][]domain.Question{
			"quiz-1": {
				{ID: "q1", QuizID: "quiz-1", Text: "Pick B", Options: []string{"A", "B"}, CorrectAnswer: "B", Marks: 1, Explanation: "B is right."},
				{ID: "q2", QuizID: "quiz-1", Text: "Pick A", Options: []string{"A", "B"}, CorrectAnswer: "A", Marks: 1},
			},
		},
	)
	subs := memory.NewSubmissionStore()

	ids := 0
	newID := func() string {
		ids++
		return fmt.Sprintf("sub-%d", ids)
	}
	service := app.NewQuizServiceWithClock(bank, subs, app.NewResultsFeed(),
		app.Policy{PassThresholdPercent: 75},
		func() time.Time { return testClock }, newID)
	return service, subs
}

func TestSubmitRecordsSnapshotAndVerdict(t *testing.T) {
	ctx := context.Background()
	service, subs := newTestService(t)

	result, err := service.Submit(ctx, "u1", "quiz-1", map[string]string{"q1": "B", "q2": "B"})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if result.Score != 1 || result.TotalQuestions != 2 || result.PassStatus != domain.PassStatusFail {
		t.Fatalf("expected 1/2 fail, got %+v", result)
	}

	answers, err := subs.GetAnswers(ctx, result.SubmissionID)
	if err != nil {
		t.Fatalf("get answers: %v", err)
	}
	if len(answers) != 2 {
		t.Fatalf("expected a stored row per question, got %d", len(answers))
	}
	if answers[0].QuestionText == "" || answers[0].CorrectAnswer == "" {
		t.Fatalf("stored answers must snapshot question content, got %+v", answers[0])
	}
}

func TestSubmitUnansweredQuestionStoredWithNilAnswer(t *testing.T) {
	ctx := context.Background()
	service, subs := newTestService(t)

	result, err := service.Submit(ctx, "u1", "quiz-1", map[string]string{"q1": "B"})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	answers, _ := subs.GetAnswers(ctx, result.SubmissionID)
	var unanswered *domain.StoredAnswer
	for i := range answers {
		if answers[i].QuestionID == "q2" {
			unanswered = &answers[i]
		}
	}
	if unanswered == nil {
		t.Fatalf("expected a row for the unanswered question")
	}
	if unanswered.UserAnswer != nil || unanswered.IsCorrect {
		t.Fatalf("unanswered row must be incorrect with nil answer, got %+v", unanswered)
	}
}

func TestPassLocksQuizForThatUserOnly(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService(t)

	if _, err := service.Submit(ctx, "u1", "quiz-1", map[string]string{"q1": "B", "q2": "A"}); err != nil {
		t.Fatalf("submit: %v", err)
	}

	mine, err := service.ListQuizzes(ctx, "u1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if mine[0].Active {
		t.Fatalf("quiz should be inactive for the passing user")
	}
	if mine[0].PassStatus == nil || *mine[0].PassStatus != domain.PassStatusPass {
		t.Fatalf("expected pass status on the list row, got %+v", mine[0].PassStatus)
	}

	theirs, err := service.ListQuizzes(ctx, "u2")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if !theirs[0].Active {
		t.Fatalf("one user's pass must not lock the quiz for others")
	}
	if theirs[0].PassStatus != nil {
		t.Fatalf("other users have no verdict, got %+v", theirs[0].PassStatus)
	}
}

func TestFailedSubmissionKeepsQuizActive(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService(t)

	if _, err := service.Submit(ctx, "u1", "quiz-1", map[string]string{"q1": "A", "q2": "B"}); err != nil {
		t.Fatalf("submit: %v", err)
	}
	summaries, _ := service.ListQuizzes(ctx, "u1")
	if !summaries[0].Active {
		t.Fatalf("a fail must not lock the quiz")
	}
}

func TestSubmitUnknownQuiz(t *testing.T) {
	service, _ := newTestService(t)
	if _, err := service.Submit(context.Background(), "u1", "quiz-404", nil); err != domain.ErrQuizNotFound {
		t.Fatalf("expected ErrQuizNotFound, got %v", err)
	}
}

func TestResultReconstructsReview(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService(t)

	submitted, err := service.Submit(ctx, "u1", "quiz-1", map[string]string{"q1": "B", "q2": "B"})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	review, err := service.Result(ctx, submitted.SubmissionID)
	if err != nil {
		t.Fatalf("result: %v", err)
	}
	if review.QuizTitle != "Warm-up" || review.Score != 1 || review.TotalQuestions != 2 {
		t.Fatalf("unexpected review header: %+v", review)
	}

	byID := make(map[string]domain.AnswerReview)
	for _, q := range review.Questions {
		byID[q.QuestionID] = q
	}
	if !byID["q1"].IsCorrect || byID["q2"].IsCorrect {
		t.Fatalf("expected q1 correct and q2 incorrect: %+v", review.Questions)
	}
	if byID["q1"].Explanation != "B is right." {
		t.Fatalf("expected stored explanation, got %q", byID["q1"].Explanation)
	}
	// q2 has no stored explanation; the review degrades to the
	// placeholder instead of failing.
	if byID["q2"].Explanation != app.PlaceholderExplanation {
		t.Fatalf("expected placeholder explanation, got %q", byID["q2"].Explanation)
	}
}

func TestResultUnknownSubmission(t *testing.T) {
	service, _ := newTestService(t)
	if _, err := service.Result(context.Background(), "nope"); err != domain.ErrSubmissionNotFound {
		t.Fatalf("expected ErrSubmissionNotFound, got %v", err)
	}
}

func TestResultImmuneToLaterQuestionEdits(t *testing.T) {
	ctx := context.Background()
	bank := memory.NewQuizBank()
	quiz := domain.Quiz{ID: "quiz-1", Title: "T", TotalMarks: 1, Active: true, DurationMinutes: 5}
	original := []domain.Question{{ID: "q1", QuizID: "quiz-1", Text: "Original text", Options: []string{"A", "B"}, CorrectAnswer: "A", Marks: 1}}
	bank.Put(quiz, original)

	subs := memory.NewSubmissionStore()
	service := app.NewQuizServiceWithClock(bank, subs, nil, app.Policy{PassThresholdPercent: 50},
		func() time.Time { return testClock }, func() string { return "sub-1" })

	if _, err := service.Submit(ctx, "u1", "quiz-1", map[string]string{"q1": "A"}); err != nil {
		t.Fatalf("submit: %v", err)
	}

	// Rewrite the question after the fact; history must not move.
	bank.Put(quiz, []domain.Question{{ID: "q1", QuizID: "quiz-1", Text: "Edited text", Options: []string{"A", "B"}, CorrectAnswer: "B", Marks: 1}})

	review, err := service.Result(ctx, "sub-1")
	if err != nil {
		t.Fatalf("result: %v", err)
	}
	row := review.Questions[0]
	if row.QuestionText != "Original text" || row.CorrectAnswer != "A" || !row.IsCorrect {
		t.Fatalf("review must replay the snapshot, got %+v", row)
	}
}

func TestEmptyQuizSubmissionStillReviewable(t *testing.T) {
	ctx := context.Background()
	bank := memory.NewQuizBank()
	bank.Put(domain.Quiz{ID: "quiz-empty", Title: "Empty", Active: true}, nil)

	service := app.NewQuizServiceWithClock(bank, memory.NewSubmissionStore(), nil,
		app.Policy{PassThresholdPercent: 75},
		func() time.Time { return testClock }, func() string { return "sub-1" })

	result, err := service.Submit(ctx, "u1", "quiz-empty", nil)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if result.Score != 0 || result.TotalQuestions != 0 || result.PassStatus != domain.PassStatusFail {
		t.Fatalf("expected 0/0 fail, got %+v", result)
	}

	review, err := service.Result(ctx, result.SubmissionID)
	if err != nil {
		t.Fatalf("a recorded submission must always be reviewable: %v", err)
	}
	if review.TotalQuestions != 0 || len(review.Questions) != 0 {
		t.Fatalf("expected an empty review, got %+v", review)
	}
}

func TestDuplicateSubmissionsAreDistinct(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService(t)

	first, _ := service.Submit(ctx, "u1", "quiz-1", map[string]string{"q1": "B", "q2": "A"})
	second, _ := service.Submit(ctx, "u1", "quiz-1", map[string]string{"q1": "B", "q2": "A"})
	if first.SubmissionID == second.SubmissionID {
		t.Fatalf("recorder must not dedup; got the same id twice")
	}
}

func TestStatsAndPerformance(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService(t)

	if _, err := service.Submit(ctx, "u1", "quiz-1", map[string]string{"q1": "B", "q2": "A"}); err != nil {
		t.Fatalf("submit: %v", err)
	}

	stats, err := service.Stats(ctx, "u1")
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.TotalQuizzesAttended != 1 || stats.ActiveQuizzes != 0 || stats.InactiveQuizzes != 1 {
		t.Fatalf("unexpected stats: %+v", stats)
	}

	rows, err := service.Performance(ctx, "u1")
	if err != nil {
		t.Fatalf("performance: %v", err)
	}
	if len(rows) != 1 || rows[0].QuizTitle != "Warm-up" || rows[0].Score != 2 || rows[0].TotalMarks != 2 {
		t.Fatalf("unexpected performance rows: %+v", rows)
	}
}

func TestQuizViewNeverLeaksAnswers(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService(t)

	_, questions, err := service.GetQuiz(ctx, "quiz-1")
	if err != nil {
		t.Fatalf("get quiz: %v", err)
	}
	if len(questions) != 2 {
		t.Fatalf("expected 2 questions, got %d", len(questions))
	}
	for _, q := range questions {
		if q.Options == nil {
			t.Fatalf("options must never be nil: %+v", q)
		}
	}
}
