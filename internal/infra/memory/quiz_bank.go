package memory

import (
	"context"
	"sort"
	"sync"

	"campus-quiz-service/internal/domain"
)

// QuizBank is an in-memory question bank (demos, tests). Question order is
// the insertion order, matching the stored order a SQL bank would return.
type QuizBank struct {
	mu        sync.RWMutex
	quizzes   map[string]domain.Quiz
	questions map[string][]domain.Question
	order     []string
}

func NewQuizBank() *QuizBank {
	return &QuizBank{
		quizzes:   make(map[string]domain.Quiz),
		questions: make(map[string][]domain.Question),
	}
}

// NewQuizBankWith seeds a bank from quiz+question pairs.
func NewQuizBankWith(quizzes []domain.Quiz, questions map[string][]domain.Question) *QuizBank {
	bank := NewQuizBank()
	for _, quiz := range quizzes {
		bank.Put(quiz, questions[quiz.ID])
	}
	return bank
}

// Put adds or replaces a quiz and its question list.
func (b *QuizBank) Put(quiz domain.Quiz, questions []domain.Question) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.quizzes[quiz.ID]; !ok {
		b.order = append(b.order, quiz.ID)
	}
	b.quizzes[quiz.ID] = quiz
	b.questions[quiz.ID] = append([]domain.Question(nil), questions...)
}

func (b *QuizBank) ListQuizzes(_ context.Context) ([]domain.Quiz, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]domain.Quiz, 0, len(b.order))
	ids := append([]string(nil), b.order...)
	sort.Strings(ids)
	for _, id := range ids {
		out = append(out, b.quizzes[id])
	}
	return out, nil
}

func (b *QuizBank) GetQuiz(_ context.Context, quizID string) (domain.Quiz, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	quiz, ok := b.quizzes[quizID]
	if !ok {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	return quiz, nil
}

func (b *QuizBank) GetQuestions(_ context.Context, quizID string) ([]domain.Question, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	questions, ok := b.questions[quizID]
	if !ok {
		return nil, domain.ErrQuizNotFound
	}
	return append([]domain.Question(nil), questions...), nil
}
