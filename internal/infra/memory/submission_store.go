package memory

import (
	"context"
	"sort"
	"sync"

	"campus-quiz-service/internal/domain"
)

// SubmissionStore is an in-memory implementation of app.SubmissionStore.
// Record is atomic under the store mutex, mirroring the transactional
// behavior of the Postgres store.
type SubmissionStore struct {
	mu          sync.RWMutex
	submissions map[string]domain.Submission
	answers     map[string][]domain.StoredAnswer
	locks       map[string]map[string]bool // userID -> quizID -> locked
}

func NewSubmissionStore() *SubmissionStore {
	return &SubmissionStore{
		submissions: make(map[string]domain.Submission),
		answers:     make(map[string][]domain.StoredAnswer),
		locks:       make(map[string]map[string]bool),
	}
}

func (s *SubmissionStore) Record(_ context.Context, sub domain.Submission, answers []domain.StoredAnswer, lockQuiz bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.submissions[sub.ID] = sub
	s.answers[sub.ID] = append([]domain.StoredAnswer(nil), answers...)
	if lockQuiz {
		if s.locks[sub.UserID] == nil {
			s.locks[sub.UserID] = make(map[string]bool)
		}
		s.locks[sub.UserID][sub.QuizID] = true
	}
	return nil
}

func (s *SubmissionStore) GetSubmission(_ context.Context, submissionID string) (domain.Submission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sub, ok := s.submissions[submissionID]
	if !ok {
		return domain.Submission{}, domain.ErrSubmissionNotFound
	}
	return sub, nil
}

func (s *SubmissionStore) GetAnswers(_ context.Context, submissionID string) ([]domain.StoredAnswer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	answers, ok := s.answers[submissionID]
	if !ok {
		return nil, domain.ErrSubmissionNotFound
	}
	return append([]domain.StoredAnswer(nil), answers...), nil
}

func (s *SubmissionStore) LatestStatuses(_ context.Context, userID string) (map[string]domain.PassStatus, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	latest := make(map[string]domain.Submission)
	for _, sub := range s.submissions {
		if sub.UserID != userID {
			continue
		}
		if prev, ok := latest[sub.QuizID]; !ok || sub.SubmittedAt.After(prev.SubmittedAt) {
			latest[sub.QuizID] = sub
		}
	}
	statuses := make(map[string]domain.PassStatus, len(latest))
	for quizID, sub := range latest {
		statuses[quizID] = sub.PassStatus
	}
	return statuses, nil
}

func (s *SubmissionStore) LockedQuizzes(_ context.Context, userID string) (map[string]bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]bool, len(s.locks[userID]))
	for quizID, locked := range s.locks[userID] {
		out[quizID] = locked
	}
	return out, nil
}

func (s *SubmissionStore) ListByUser(_ context.Context, userID string) ([]domain.Submission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Submission, 0)
	for _, sub := range s.submissions {
		if sub.UserID == userID {
			out = append(out, sub)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].SubmittedAt.After(out[j].SubmittedAt)
	})
	return out, nil
}
