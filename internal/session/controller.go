package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"campus-quiz-service/internal/app"
	"campus-quiz-service/internal/domain"
)

// State is the attempt lifecycle phase.
type State int

const (
	StateLoading State = iota
	StateInProgress
	StateSubmitting
	StateCompleted
	StateReview
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateInProgress:
		return "in_progress"
	case StateSubmitting:
		return "submitting"
	case StateCompleted:
		return "completed"
	case StateReview:
		return "review"
	default:
		return "unknown"
	}
}

// ErrNotActive is returned for answer or submit calls outside InProgress.
var ErrNotActive = errors.New("attempt is not in progress")

// EventType identifies what a controller event carries.
type EventType int

const (
	// EventTick fires once per second with the remaining time.
	EventTick EventType = iota
	// EventWarning fires once when the countdown first drops to the
	// warning threshold.
	EventWarning
	// EventExpired fires when the countdown reaches zero, immediately
	// before the automatic submission.
	EventExpired
	// EventSubmitted carries the recorded result.
	EventSubmitted
	// EventError carries a submit failure; the attempt stays in Submitting
	// and the local cache is kept so nothing is lost.
	EventError
	// EventNavigationBlocked fires when back-navigation was intercepted
	// during an active attempt.
	EventNavigationBlocked
)

// Event is pushed to the host UI on the controller's event channel.
type Event struct {
	Type      EventType
	Remaining time.Duration
	Result    app.SubmitResult
	Err       error
}

// warnThreshold is when the "time is almost up" reminder fires.
const warnThreshold = 30 * time.Second

// Controller drives one quiz attempt: it loads the quiz, anchors the
// countdown to an absolute wall-clock deadline (so reloads resume instead
// of resetting), mirrors every answer to the durable local cache, blocks
// back-navigation while in progress, and submits exactly once — manually
// when every question is answered, or automatically at expiry with
// whatever has been answered so far.
type Controller struct {
	api    API
	store  StateStore
	guard  NavigationGuard
	now    func() time.Time
	ticker func(interval time.Duration) (<-chan time.Time, func())

	mu           sync.Mutex
	state        State
	quiz         domain.Quiz
	questions    []domain.QuestionView
	answers      map[string]string
	marked       map[string]struct{}
	current      int
	deadline     time.Time
	warned       bool
	autoFired    bool
	inFlight     bool
	submissionID string
	review       map[string]domain.AnswerReview

	events   chan Event
	stopTick func()
	tickCtx  context.Context
	cancel   context.CancelFunc
}

// New builds a controller with the real clock and a 1 Hz ticker.
func New(api API, store StateStore, guard NavigationGuard) *Controller {
	return NewWithClock(api, store, guard, time.Now, func(interval time.Duration) (<-chan time.Time, func()) {
		t := time.NewTicker(interval)
		return t.C, t.Stop
	})
}

// NewWithClock injects the clock and ticker source for deterministic
// tests.
func NewWithClock(api API, store StateStore, guard NavigationGuard, now func() time.Time, ticker func(time.Duration) (<-chan time.Time, func())) *Controller {
	if guard == nil {
		guard = NopGuard{}
	}
	return &Controller{
		api:     api,
		store:   store,
		guard:   guard,
		now:     now,
		ticker:  ticker,
		state:   StateLoading,
		answers: make(map[string]string),
		marked:  make(map[string]struct{}),
		events:  make(chan Event, 16),
	}
}

// Events is the stream of ticks, warnings and submit outcomes for the host
// UI. The channel is buffered; stale ticks are dropped rather than
// blocking the countdown.
func (c *Controller) Events() <-chan Event { return c.events }

// Start transitions Loading -> InProgress: it fetches the quiz and its
// ordered questions, restores or anchors the deadline, restores cached
// answers, engages the navigation guard and starts the countdown.
//
// If a stored deadline for this quiz is still in the future the countdown
// resumes from deadline-now and cached answers are restored; otherwise a
// fresh deadline of now+duration is computed and persisted and any cached
// answers from the dead attempt are dropped. The absolute anchor is what
// keeps a reload from resetting or stalling the timer.
func (c *Controller) Start(ctx context.Context, quizID string) error {
	quiz, questions, err := c.api.FetchQuiz(ctx, quizID)
	if err != nil {
		return err
	}

	c.mu.Lock()
	if c.state != StateLoading {
		c.mu.Unlock()
		return ErrNotActive
	}
	c.quiz = quiz
	c.questions = questions

	duration := quiz.DurationMinutes
	if duration <= 0 {
		duration = 30
	}

	now := c.now()
	resumed := false
	if stored, ok := c.store.Deadline(quiz.ID); ok && stored.After(now) {
		c.deadline = stored
		resumed = true
	} else {
		// A fresh attempt starts clean: answers cached by a dead attempt
		// must not pre-populate it.
		if ok {
			c.store.ClearDeadline(quiz.ID)
		}
		c.store.ClearAnswers(quiz.ID)
		c.deadline = now.Add(time.Duration(duration) * time.Minute)
		if err := c.store.SaveDeadline(quiz.ID, c.deadline); err != nil {
			c.mu.Unlock()
			return err
		}
	}

	if resumed {
		for id, answer := range c.store.Answers(quiz.ID) {
			c.answers[id] = answer
		}
	}

	c.state = StateInProgress
	c.tickCtx, c.cancel = context.WithCancel(ctx)
	tickCh, stop := c.ticker(time.Second)
	c.stopTick = stop
	c.mu.Unlock()

	c.guard.Engage(func() {
		c.emit(Event{Type: EventNavigationBlocked})
	})

	go c.run(tickCh)
	return nil
}

// EnterReview opens a finished submission read-only. Review mode never
// touches the local deadline or answer cache, starts no timer and engages
// no guard; stored answers are historical data.
func (c *Controller) EnterReview(result domain.ResultData) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.quiz = domain.Quiz{ID: result.QuizID, Title: result.QuizTitle}
	c.state = StateReview
	c.submissionID = result.SubmissionID
	c.review = make(map[string]domain.AnswerReview, len(result.Questions))
	c.questions = make([]domain.QuestionView, 0, len(result.Questions))
	for _, ans := range result.Questions {
		c.review[ans.QuestionID] = ans
		c.questions = append(c.questions, domain.QuestionView{
			ID:      ans.QuestionID,
			QuizID:  result.QuizID,
			Text:    ans.QuestionText,
			Options: ans.Options,
		})
	}
}

func (c *Controller) run(tickCh <-chan time.Time) {
	for {
		select {
		case <-c.tickCtx.Done():
			return
		case <-tickCh:
		}

		c.mu.Lock()
		if c.state != StateInProgress {
			c.mu.Unlock()
			return
		}
		remaining := c.deadline.Sub(c.now())
		if remaining < 0 {
			remaining = 0
		}
		warn := !c.warned && remaining <= warnThreshold && remaining > 0
		if warn {
			c.warned = true
		}
		expired := remaining == 0 && !c.autoFired
		if expired {
			c.autoFired = true
		}
		c.mu.Unlock()

		c.emit(Event{Type: EventTick, Remaining: remaining})
		if warn {
			c.emit(Event{Type: EventWarning, Remaining: remaining})
		}
		if expired {
			c.emit(Event{Type: EventExpired})
			// Expiry submits whatever has been answered; the all-answered
			// gate applies to the manual button only. autoFired guarantees
			// a tick can never double-fire this.
			if err := c.submit(c.tickCtx, true); err != nil {
				c.emit(Event{Type: EventError, Err: err})
			}
			return
		}
	}
}

// SelectAnswer records the current selection for a question and mirrors
// the whole answer map to the durable cache, so an interrupted attempt
// resumes with its answers intact.
func (c *Controller) SelectAnswer(questionID, option string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateInProgress {
		return ErrNotActive
	}
	c.answers[questionID] = option
	return c.store.SaveAnswers(c.quiz.ID, copyAnswers(c.answers))
}

// Submit is the manual path. It is gated on every question having an
// answer and on no submit already being in flight.
func (c *Controller) Submit(ctx context.Context) error {
	c.mu.Lock()
	if c.state != StateInProgress {
		c.mu.Unlock()
		if c.state == StateCompleted {
			return domain.ErrAttemptCompleted
		}
		return ErrNotActive
	}
	if !c.allAnsweredLocked() {
		c.mu.Unlock()
		return domain.ErrIncompleteAnswers
	}
	c.mu.Unlock()
	return c.submit(ctx, false)
}

// Resubmit retries after a failed submission. The attempt is still in
// Submitting, the deadline and cached answers were kept, and nothing was
// recorded server-side, so retrying is safe. It is never automatic;
// explicit user action is required.
func (c *Controller) Resubmit(ctx context.Context) error {
	c.mu.Lock()
	if c.state != StateSubmitting {
		c.mu.Unlock()
		return ErrNotActive
	}
	c.mu.Unlock()
	return c.submit(ctx, true)
}

func (c *Controller) submit(ctx context.Context, bypassState bool) error {
	c.mu.Lock()
	if c.inFlight {
		c.mu.Unlock()
		return domain.ErrSubmitInFlight
	}
	if !bypassState && c.state != StateInProgress {
		c.mu.Unlock()
		return ErrNotActive
	}
	c.inFlight = true
	c.state = StateSubmitting
	quizID := c.quiz.ID
	answers := copyAnswers(c.answers)
	c.mu.Unlock()

	result, err := c.api.SubmitAnswers(ctx, quizID, answers)

	c.mu.Lock()
	c.inFlight = false
	if err != nil {
		// Stay in Submitting; keep the deadline and cached answers so a
		// transient failure cannot lose the attempt.
		c.mu.Unlock()
		c.emit(Event{Type: EventError, Err: err})
		return err
	}

	c.store.ClearDeadline(quizID)
	c.store.ClearAnswers(quizID)
	c.state = StateCompleted
	c.submissionID = result.SubmissionID
	stop := c.stopTick
	cancel := c.cancel
	c.stopTick = nil
	c.cancel = nil
	c.mu.Unlock()

	c.guard.Release()
	if stop != nil {
		stop()
	}
	if cancel != nil {
		cancel()
	}
	c.emit(Event{Type: EventSubmitted, Result: result})
	return nil
}

// Close cancels the countdown and releases the guard without submitting.
// For host teardown; the cached deadline and answers stay so the attempt
// can resume.
func (c *Controller) Close() {
	c.mu.Lock()
	stop := c.stopTick
	cancel := c.cancel
	c.stopTick = nil
	c.cancel = nil
	active := c.state == StateInProgress || c.state == StateSubmitting
	c.mu.Unlock()

	if stop != nil {
		stop()
	}
	if cancel != nil {
		cancel()
	}
	if active {
		c.guard.Release()
	}
}

// State returns the current lifecycle phase.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Remaining is the time left on the countdown, never negative.
func (c *Controller) Remaining() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	remaining := c.deadline.Sub(c.now())
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Quiz returns the loaded quiz metadata.
func (c *Controller) Quiz() domain.Quiz {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.quiz
}

// Questions returns the ordered question list.
func (c *Controller) Questions() []domain.QuestionView {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]domain.QuestionView, len(c.questions))
	copy(out, c.questions)
	return out
}

// Answers returns a copy of the in-memory answer map.
func (c *Controller) Answers() map[string]string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return copyAnswers(c.answers)
}

// AllAnswered reports whether every question has a non-empty answer; the
// manual submit button is enabled only when it returns true.
func (c *Controller) AllAnswered() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.allAnsweredLocked()
}

func (c *Controller) allAnsweredLocked() bool {
	for _, q := range c.questions {
		if c.answers[q.ID] == "" {
			return false
		}
	}
	return len(c.questions) > 0
}

// SubmissionID is set once the attempt completes.
func (c *Controller) SubmissionID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.submissionID
}

// ReviewAnswer returns the historical review row for a question in review
// mode.
func (c *Controller) ReviewAnswer(questionID string) (domain.AnswerReview, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	ans, ok := c.review[questionID]
	return ans, ok
}

// Current returns the palette pointer.
func (c *Controller) Current() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// Next advances the palette pointer, clamped to the last question.
func (c *Controller) Next() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current < len(c.questions)-1 {
		c.current++
	}
}

// Prev moves the palette pointer back, clamped to the first question.
func (c *Controller) Prev() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current > 0 {
		c.current--
	}
}

// JumpTo moves the palette pointer to an absolute index.
func (c *Controller) JumpTo(index int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if index >= 0 && index < len(c.questions) {
		c.current = index
	}
}

// ToggleMark flips the mark-for-review flag on a question.
func (c *Controller) ToggleMark(questionID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.marked[questionID]; ok {
		delete(c.marked, questionID)
	} else {
		c.marked[questionID] = struct{}{}
	}
}

// Marked reports whether a question is flagged for review.
func (c *Controller) Marked(questionID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.marked[questionID]
	return ok
}

func (c *Controller) emit(event Event) {
	select {
	case c.events <- event:
	default:
		// Drop the oldest event so a sleepy host cannot stall the loop.
		select {
		case <-c.events:
		default:
		}
		c.events <- event
	}
}

func copyAnswers(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for id, answer := range in {
		out[id] = answer
	}
	return out
}
