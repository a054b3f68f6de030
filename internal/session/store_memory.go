package session

import (
	"sync"
	"time"
)

// MemoryStore is an in-process StateStore. Useful for tests and for hosts
// that keep their own durable layer.
type MemoryStore struct {
	mu        sync.RWMutex
	deadlines map[string]int64 // quizID -> epoch millis
	answers   map[string]map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		deadlines: make(map[string]int64),
		answers:   make(map[string]map[string]string),
	}
}

func (s *MemoryStore) Deadline(quizID string) (time.Time, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ms, ok := s.deadlines[quizID]
	if !ok {
		return time.Time{}, false
	}
	return time.UnixMilli(ms), true
}

func (s *MemoryStore) SaveDeadline(quizID string, deadline time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deadlines[quizID] = deadline.UnixMilli()
	return nil
}

func (s *MemoryStore) ClearDeadline(quizID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.deadlines, quizID)
}

func (s *MemoryStore) Answers(quizID string) map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cached, ok := s.answers[quizID]
	if !ok {
		return nil
	}
	out := make(map[string]string, len(cached))
	for id, answer := range cached {
		out[id] = answer
	}
	return out
}

func (s *MemoryStore) SaveAnswers(quizID string, answers map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := make(map[string]string, len(answers))
	for id, answer := range answers {
		stored[id] = answer
	}
	s.answers[quizID] = stored
	return nil
}

func (s *MemoryStore) ClearAnswers(quizID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.answers, quizID)
}
