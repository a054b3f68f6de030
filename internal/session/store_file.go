package session

import (
	"encoding/json"
	"os"
	"sync"
	"time"
)

// FileStore persists attempt state as a single JSON file, the desktop
// stand-in for browser localStorage. Writes go through a temp file rename
// so a crash mid-write cannot truncate existing state.
type FileStore struct {
	path string
	mu   sync.Mutex
}

type fileState struct {
	Deadlines map[string]int64             `json:"deadlines"` // quizID -> epoch millis
	Answers   map[string]map[string]string `json:"answers"`
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) Deadline(quizID string) (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	state := s.load()
	ms, ok := state.Deadlines[quizID]
	if !ok {
		return time.Time{}, false
	}
	return time.UnixMilli(ms), true
}

func (s *FileStore) SaveDeadline(quizID string, deadline time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	state := s.load()
	state.Deadlines[quizID] = deadline.UnixMilli()
	return s.save(state)
}

func (s *FileStore) ClearDeadline(quizID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	state := s.load()
	delete(state.Deadlines, quizID)
	_ = s.save(state)
}

func (s *FileStore) Answers(quizID string) map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load().Answers[quizID]
}

func (s *FileStore) SaveAnswers(quizID string, answers map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	state := s.load()
	stored := make(map[string]string, len(answers))
	for id, answer := range answers {
		stored[id] = answer
	}
	state.Answers[quizID] = stored
	return s.save(state)
}

func (s *FileStore) ClearAnswers(quizID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	state := s.load()
	delete(state.Answers, quizID)
	_ = s.save(state)
}

func (s *FileStore) load() fileState {
	state := fileState{
		Deadlines: make(map[string]int64),
		Answers:   make(map[string]map[string]string),
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		return state
	}
	_ = json.Unmarshal(data, &state)
	if state.Deadlines == nil {
		state.Deadlines = make(map[string]int64)
	}
	if state.Answers == nil {
		state.Answers = make(map[string]map[string]string)
	}
	return state
}

func (s *FileStore) save(state fileState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return err
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}
