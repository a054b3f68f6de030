package session_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"campus-quiz-service/internal/app"
	"campus-quiz-service/internal/domain"
	"campus-quiz-service/internal/session"
)

var start = time.Date(2024, 11, 22, 9, 0, 0, 0, time.UTC)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock { return &fakeClock{now: start} }

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fakeAPI struct {
	mu        sync.Mutex
	quiz      domain.Quiz
	questions []domain.QuestionView
	submitErr error
	submits   []map[string]string
	result    app.SubmitResult
}

func (a *fakeAPI) FetchQuiz(_ context.Context, _ string) (domain.Quiz, []domain.QuestionView, error) {
	return a.quiz, a.questions, nil
}

func (a *fakeAPI) SubmitAnswers(_ context.Context, _ string, answers map[string]string) (app.SubmitResult, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.submits = append(a.submits, answers)
	if a.submitErr != nil {
		return app.SubmitResult{}, a.submitErr
	}
	return a.result, nil
}

func (a *fakeAPI) submitCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.submits)
}

type fakeGuard struct {
	mu       sync.Mutex
	reblock  func()
	engaged  int
	released int
}

func (g *fakeGuard) Engage(reblock func()) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.engaged++
	g.reblock = reblock
}

func (g *fakeGuard) Release() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.released++
}

func (g *fakeGuard) pressBack() {
	g.mu.Lock()
	reblock := g.reblock
	g.mu.Unlock()
	if reblock != nil {
		reblock()
	}
}

type harness struct {
	api     *fakeAPI
	store   *session.MemoryStore
	guard   *fakeGuard
	clock   *fakeClock
	ticks   chan time.Time
	ctrl    *session.Controller
	stopped bool
}

func newHarness() *harness {
	h := &harness{
		api: &fakeAPI{
			quiz: domain.Quiz{ID: "quiz-1", Title: "Warm-up", DurationMinutes: 30},
			questions: []domain.QuestionView{
				{ID: "q1", QuizID: "quiz-1", Text: "Pick B", Options: []string{"A", "B"}},
				{ID: "q2", QuizID: "quiz-1", Text: "Pick A", Options: []string{"A", "B"}},
			},
			result: app.SubmitResult{SubmissionID: "sub-1", Score: 1, TotalQuestions: 2, PassStatus: domain.PassStatusFail},
		},
		store: session.NewMemoryStore(),
		guard: &fakeGuard{},
		clock: newFakeClock(),
		ticks: make(chan time.Time, 8),
	}
	h.ctrl = session.NewWithClock(h.api, h.store, h.guard, h.clock.Now,
		func(time.Duration) (<-chan time.Time, func()) {
			return h.ticks, func() { h.stopped = true }
		})
	return h
}

func (h *harness) tick() { h.ticks <- h.clock.Now() }

func waitEvent(t *testing.T, events <-chan session.Event, want session.EventType) session.Event {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case event := <-events:
			if event.Type == want {
				return event
			}
		case <-deadline:
			t.Fatalf("timed out waiting for event %v", want)
		}
	}
}

func TestStartAnchorsFreshDeadline(t *testing.T) {
	h := newHarness()
	if err := h.ctrl.Start(context.Background(), "quiz-1"); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer h.ctrl.Close()

	if h.ctrl.State() != session.StateInProgress {
		t.Fatalf("expected InProgress, got %v", h.ctrl.State())
	}
	if got := h.ctrl.Remaining(); got != 30*time.Minute {
		t.Fatalf("expected full 30m countdown, got %v", got)
	}
	stored, ok := h.store.Deadline("quiz-1")
	if !ok || !stored.Equal(start.Add(30*time.Minute)) {
		t.Fatalf("deadline must be persisted as an absolute timestamp, got %v ok=%v", stored, ok)
	}
}

func TestStartResumesStoredDeadline(t *testing.T) {
	h := newHarness()
	// A previous run left 10 minutes on the clock.
	_ = h.store.SaveDeadline("quiz-1", start.Add(10*time.Minute))

	if err := h.ctrl.Start(context.Background(), "quiz-1"); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer h.ctrl.Close()

	if got := h.ctrl.Remaining(); got != 10*time.Minute {
		t.Fatalf("reload must resume the countdown, not reset it: got %v", got)
	}
}

func TestStartReplacesExpiredDeadline(t *testing.T) {
	h := newHarness()
	_ = h.store.SaveDeadline("quiz-1", start.Add(-1*time.Minute))

	if err := h.ctrl.Start(context.Background(), "quiz-1"); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer h.ctrl.Close()

	if got := h.ctrl.Remaining(); got != 30*time.Minute {
		t.Fatalf("an expired deadline must yield a fresh full countdown, got %v", got)
	}
	stored, _ := h.store.Deadline("quiz-1")
	if !stored.Equal(start.Add(30 * time.Minute)) {
		t.Fatalf("fresh deadline must be persisted, got %v", stored)
	}
}

func TestStartAfterExpiredDeadlineDropsCachedAnswers(t *testing.T) {
	h := newHarness()
	// A dead attempt left an expired deadline and cached answers behind.
	_ = h.store.SaveDeadline("quiz-1", start.Add(-1*time.Minute))
	_ = h.store.SaveAnswers("quiz-1", map[string]string{"q1": "B"})

	if err := h.ctrl.Start(context.Background(), "quiz-1"); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer h.ctrl.Close()

	if answers := h.ctrl.Answers(); len(answers) != 0 {
		t.Fatalf("fresh attempt must not inherit stale answers, got %v", answers)
	}
	if cached := h.store.Answers("quiz-1"); len(cached) != 0 {
		t.Fatalf("stale answer cache must be cleared, got %v", cached)
	}
	if got := h.ctrl.Remaining(); got != 30*time.Minute {
		t.Fatalf("expected a fresh full countdown, got %v", got)
	}
}

func TestAnswersAreCachedAndRestored(t *testing.T) {
	h := newHarness()
	if err := h.ctrl.Start(context.Background(), "quiz-1"); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := h.ctrl.SelectAnswer("q1", "B"); err != nil {
		t.Fatalf("select: %v", err)
	}
	h.ctrl.Close()

	// Same device, new controller: the interrupted attempt resumes with
	// its answers.
	h2 := &harness{api: h.api, store: h.store, guard: &fakeGuard{}, clock: h.clock, ticks: make(chan time.Time, 8)}
	h2.ctrl = session.NewWithClock(h2.api, h2.store, h2.guard, h2.clock.Now,
		func(time.Duration) (<-chan time.Time, func()) { return h2.ticks, func() {} })
	if err := h2.ctrl.Start(context.Background(), "quiz-1"); err != nil {
		t.Fatalf("restart: %v", err)
	}
	defer h2.ctrl.Close()

	if answers := h2.ctrl.Answers(); answers["q1"] != "B" {
		t.Fatalf("expected restored answers, got %v", answers)
	}
}

func TestManualSubmitGatedOnAllAnswered(t *testing.T) {
	h := newHarness()
	if err := h.ctrl.Start(context.Background(), "quiz-1"); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer h.ctrl.Close()

	if err := h.ctrl.Submit(context.Background()); !errors.Is(err, domain.ErrIncompleteAnswers) {
		t.Fatalf("expected ErrIncompleteAnswers, got %v", err)
	}

	_ = h.ctrl.SelectAnswer("q1", "B")
	if h.ctrl.AllAnswered() {
		t.Fatalf("one of two answered must not satisfy the gate")
	}
	_ = h.ctrl.SelectAnswer("q2", "A")
	if !h.ctrl.AllAnswered() {
		t.Fatalf("expected all answered")
	}

	if err := h.ctrl.Submit(context.Background()); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if h.ctrl.State() != session.StateCompleted {
		t.Fatalf("expected Completed, got %v", h.ctrl.State())
	}
	if h.ctrl.SubmissionID() != "sub-1" {
		t.Fatalf("expected submission id recorded")
	}
}

func TestSuccessfulSubmitClearsLocalState(t *testing.T) {
	h := newHarness()
	_ = h.ctrl.Start(context.Background(), "quiz-1")
	_ = h.ctrl.SelectAnswer("q1", "B")
	_ = h.ctrl.SelectAnswer("q2", "A")

	if err := h.ctrl.Submit(context.Background()); err != nil {
		t.Fatalf("submit: %v", err)
	}

	if _, ok := h.store.Deadline("quiz-1"); ok {
		t.Fatalf("deadline must be cleared after a successful submit")
	}
	if answers := h.store.Answers("quiz-1"); len(answers) != 0 {
		t.Fatalf("answer cache must be cleared, got %v", answers)
	}
	if h.guard.released == 0 {
		t.Fatalf("guard must be released on completion")
	}
	if !h.stopped {
		t.Fatalf("ticker must be stopped on completion")
	}
}

func TestExpiryAutoSubmitsPartialAnswersOnce(t *testing.T) {
	h := newHarness()
	_ = h.ctrl.Start(context.Background(), "quiz-1")
	_ = h.ctrl.SelectAnswer("q1", "B")

	events := h.ctrl.Events()
	h.clock.Advance(31 * time.Minute)
	h.tick()
	h.tick() // a second tick must not double-fire

	waitEvent(t, events, session.EventExpired)
	waitEvent(t, events, session.EventSubmitted)

	if count := h.api.submitCount(); count != 1 {
		t.Fatalf("expected exactly one auto submission, got %d", count)
	}
	if got := h.api.submits[0]; got["q1"] != "B" || len(got) != 1 {
		t.Fatalf("expiry must submit whatever was answered, got %v", got)
	}
	if h.ctrl.State() != session.StateCompleted {
		t.Fatalf("expected Completed after auto submit, got %v", h.ctrl.State())
	}
}

func TestWarningFiresOnceNearExpiry(t *testing.T) {
	h := newHarness()
	_ = h.ctrl.Start(context.Background(), "quiz-1")
	defer h.ctrl.Close()

	events := h.ctrl.Events()
	h.clock.Advance(30*time.Minute - 20*time.Second)
	h.tick()
	warning := waitEvent(t, events, session.EventWarning)
	if warning.Remaining != 20*time.Second {
		t.Fatalf("expected 20s remaining on warning, got %v", warning.Remaining)
	}

	// Further ticks inside the window stay silent.
	h.clock.Advance(5 * time.Second)
	h.tick()
	tickEvent := waitEvent(t, events, session.EventTick)
	if tickEvent.Remaining != 15*time.Second {
		t.Fatalf("expected 15s remaining, got %v", tickEvent.Remaining)
	}
	select {
	case event := <-events:
		if event.Type == session.EventWarning {
			t.Fatalf("warning must fire only once")
		}
	default:
	}
}

func TestFailedSubmitKeepsAttemptRecoverable(t *testing.T) {
	h := newHarness()
	h.api.submitErr = errors.New("network down")
	_ = h.ctrl.Start(context.Background(), "quiz-1")
	_ = h.ctrl.SelectAnswer("q1", "B")
	_ = h.ctrl.SelectAnswer("q2", "A")

	if err := h.ctrl.Submit(context.Background()); err == nil {
		t.Fatalf("expected submit failure")
	}
	if h.ctrl.State() != session.StateSubmitting {
		t.Fatalf("failed submit must stay in Submitting, got %v", h.ctrl.State())
	}
	if _, ok := h.store.Deadline("quiz-1"); !ok {
		t.Fatalf("deadline must survive a failed submit")
	}
	if answers := h.store.Answers("quiz-1"); answers["q1"] != "B" {
		t.Fatalf("answer cache must survive a failed submit, got %v", answers)
	}

	// No auto-retry: explicit user action resumes.
	h.api.submitErr = nil
	if err := h.ctrl.Resubmit(context.Background()); err != nil {
		t.Fatalf("resubmit: %v", err)
	}
	if h.ctrl.State() != session.StateCompleted {
		t.Fatalf("expected Completed after resubmit, got %v", h.ctrl.State())
	}
}

func TestCloseReleasesGuardAfterFailedSubmit(t *testing.T) {
	h := newHarness()
	h.api.submitErr = errors.New("network down")
	_ = h.ctrl.Start(context.Background(), "quiz-1")
	_ = h.ctrl.SelectAnswer("q1", "B")
	_ = h.ctrl.SelectAnswer("q2", "A")

	if err := h.ctrl.Submit(context.Background()); err == nil {
		t.Fatalf("expected submit failure")
	}
	if h.ctrl.State() != session.StateSubmitting {
		t.Fatalf("expected Submitting, got %v", h.ctrl.State())
	}

	// Host teardown while the attempt is stuck in Submitting must still
	// unblock navigation.
	h.ctrl.Close()
	if h.guard.released != 1 {
		t.Fatalf("guard must be released on teardown, released=%d", h.guard.released)
	}
}

func TestNavigationGuardActiveOnlyInProgress(t *testing.T) {
	h := newHarness()
	_ = h.ctrl.Start(context.Background(), "quiz-1")

	if h.guard.engaged != 1 {
		t.Fatalf("guard must engage on entering InProgress")
	}

	events := h.ctrl.Events()
	h.guard.pressBack()
	waitEvent(t, events, session.EventNavigationBlocked)

	_ = h.ctrl.SelectAnswer("q1", "B")
	_ = h.ctrl.SelectAnswer("q2", "A")
	if err := h.ctrl.Submit(context.Background()); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if h.guard.released != 1 {
		t.Fatalf("guard must release on completion, released=%d", h.guard.released)
	}
}

func TestReviewModeIsReadOnlyAndTouchesNoCache(t *testing.T) {
	h := newHarness()
	wrong := "C"
	h.ctrl.EnterReview(domain.ResultData{
		SubmissionID:   "sub-9",
		QuizID:         "quiz-1",
		QuizTitle:      "Warm-up",
		Score:          1,
		TotalQuestions: 2,
		PassStatus:     domain.PassStatusFail,
		Questions: []domain.AnswerReview{
			{QuestionID: "q1", QuestionText: "Pick B", Options: []string{"A", "B"}, UserAnswer: nil, CorrectAnswer: "B", IsCorrect: false, Explanation: "B is right."},
			{QuestionID: "q2", QuestionText: "Pick A", Options: []string{"A", "B"}, UserAnswer: &wrong, CorrectAnswer: "A", IsCorrect: false},
		},
	})

	if h.ctrl.State() != session.StateReview {
		t.Fatalf("expected Review, got %v", h.ctrl.State())
	}
	if err := h.ctrl.SelectAnswer("q1", "A"); !errors.Is(err, session.ErrNotActive) {
		t.Fatalf("review mode must reject answer changes, got %v", err)
	}
	if err := h.ctrl.Submit(context.Background()); !errors.Is(err, session.ErrNotActive) {
		t.Fatalf("review mode must reject submit, got %v", err)
	}
	if _, ok := h.store.Deadline("quiz-1"); ok {
		t.Fatalf("review mode must not write the deadline cache")
	}
	if h.guard.engaged != 0 {
		t.Fatalf("review mode must not engage the guard")
	}

	row, ok := h.ctrl.ReviewAnswer("q2")
	if !ok || row.UserAnswer == nil || *row.UserAnswer != "C" {
		t.Fatalf("expected historical answer replayed, got %+v", row)
	}
}

func TestPaletteNavigationAndMarks(t *testing.T) {
	h := newHarness()
	_ = h.ctrl.Start(context.Background(), "quiz-1")
	defer h.ctrl.Close()

	if h.ctrl.Current() != 0 {
		t.Fatalf("expected pointer at 0")
	}
	h.ctrl.Next()
	if h.ctrl.Current() != 1 {
		t.Fatalf("expected pointer at 1")
	}
	h.ctrl.Next() // clamped
	if h.ctrl.Current() != 1 {
		t.Fatalf("pointer must clamp at the last question")
	}
	h.ctrl.JumpTo(0)
	h.ctrl.Prev() // clamped
	if h.ctrl.Current() != 0 {
		t.Fatalf("pointer must clamp at the first question")
	}

	h.ctrl.ToggleMark("q1")
	if !h.ctrl.Marked("q1") {
		t.Fatalf("expected q1 marked")
	}
	h.ctrl.ToggleMark("q1")
	if h.ctrl.Marked("q1") {
		t.Fatalf("expected q1 unmarked")
	}
}

func TestSubmitTwiceReturnsCompleted(t *testing.T) {
	h := newHarness()
	_ = h.ctrl.Start(context.Background(), "quiz-1")
	_ = h.ctrl.SelectAnswer("q1", "B")
	_ = h.ctrl.SelectAnswer("q2", "A")

	if err := h.ctrl.Submit(context.Background()); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if err := h.ctrl.Submit(context.Background()); !errors.Is(err, domain.ErrAttemptCompleted) {
		t.Fatalf("expected ErrAttemptCompleted, got %v", err)
	}
}
