package app

import (
	"sync"
	"time"

	"campus-quiz-service/internal/domain"
)

// SubmissionEvent is broadcast whenever a submission is durably recorded.
type SubmissionEvent struct {
	SubmissionID   string            `json:"submissionId"`
	QuizID         string            `json:"quizId"`
	UserID         string            `json:"userId"`
	Score          int               `json:"score"`
	TotalQuestions int               `json:"totalQuestions"`
	PassStatus     domain.PassStatus `json:"passStatus"`
	SubmittedAt    time.Time         `json:"submittedAt"`
}

// ResultsFeed fans submission events out to live subscribers (monitoring
// dashboards, websocket clients). Publishing never blocks on a slow
// subscriber: the oldest buffered event is dropped to make room.
type ResultsFeed struct {
	mu          sync.Mutex
	subscribers map[chan SubmissionEvent]struct{}
}

func NewResultsFeed() *ResultsFeed {
	return &ResultsFeed{subscribers: make(map[chan SubmissionEvent]struct{})}
}

// Subscribe registers a listener. The caller must invoke the returned
// cancel function to avoid leaks.
func (f *ResultsFeed) Subscribe() (<-chan SubmissionEvent, func()) {
	ch := make(chan SubmissionEvent, 8)

	f.mu.Lock()
	f.subscribers[ch] = struct{}{}
	f.mu.Unlock()

	cancel := func() {
		f.mu.Lock()
		if _, ok := f.subscribers[ch]; ok {
			delete(f.subscribers, ch)
			close(ch)
		}
		f.mu.Unlock()
	}
	return ch, cancel
}

// Publish delivers the event to every subscriber.
func (f *ResultsFeed) Publish(event SubmissionEvent) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for ch := range f.subscribers {
		select {
		case ch <- event:
		default:
			// Drop the stale head so a slow subscriber cannot stall the rest.
			select {
			case <-ch:
			default:
			}
			ch <- event
		}
	}
}
