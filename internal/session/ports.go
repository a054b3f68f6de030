package session

import (
	"context"
	"time"

	"campus-quiz-service/internal/app"
	"campus-quiz-service/internal/domain"
)

// API is the remote surface an attempt needs: load the quiz and submit the
// answers. The HTTP client in internal/client implements it.
type API interface {
	FetchQuiz(ctx context.Context, quizID string) (domain.Quiz, []domain.QuestionView, error)
	SubmitAnswers(ctx context.Context, quizID string, answers map[string]string) (app.SubmitResult, error)
}

// StateStore is the durable local cache for one device, the equivalent of
// the browser's localStorage: an absolute wall-clock deadline and the
// in-progress answer map, both keyed by quiz id. Entries survive process
// restarts so a reload resumes the countdown instead of resetting it.
type StateStore interface {
	Deadline(quizID string) (time.Time, bool)
	SaveDeadline(quizID string, deadline time.Time) error
	ClearDeadline(quizID string)
	Answers(quizID string) map[string]string
	SaveAnswers(quizID string, answers map[string]string) error
	ClearAnswers(quizID string)
}

// NavigationGuard intercepts back-navigation while an attempt is in
// progress. Engage registers the interceptor with a callback that
// re-blocks (re-pushes the current location in a browser-like host);
// Release removes it. The controller engages exactly one guard per attempt
// and releases it on any exit transition.
type NavigationGuard interface {
	Engage(reblock func())
	Release()
}

// NopGuard is a no-op guard for hosts without navigation (tests, batch
// clients).
type NopGuard struct{}

func (NopGuard) Engage(func()) {}
func (NopGuard) Release()      {}
