package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"campus-quiz-service/internal/app"
	"campus-quiz-service/internal/domain"
	"golang.org/x/sync/singleflight"
)

// CachedQuizBank wraps another bank with a per-quiz TTL cache so repeated
// attempt loads and submissions do not hammer the backing store.
// Concurrent misses for the same quiz collapse into one load.
type CachedQuizBank struct {
	source app.QuizBank
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group
	rnd    *rand.Rand

	mu    sync.RWMutex
	cache map[string]cachedEntry
}

type cachedEntry struct {
	quiz      domain.Quiz
	questions []domain.Question
	expiresAt time.Time
}

func NewCachedQuizBank(source app.QuizBank, ttl time.Duration) *CachedQuizBank {
	return &CachedQuizBank{
		source: source,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:  make(map[string]cachedEntry),
	}
}

// ListQuizzes always hits the source: the list view carries per-user
// derived fields that must stay fresh.
func (b *CachedQuizBank) ListQuizzes(ctx context.Context) ([]domain.Quiz, error) {
	return b.source.ListQuizzes(ctx)
}

func (b *CachedQuizBank) GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	entry, err := b.entry(ctx, quizID)
	if err != nil {
		return domain.Quiz{}, err
	}
	return entry.quiz, nil
}

func (b *CachedQuizBank) GetQuestions(ctx context.Context, quizID string) ([]domain.Question, error) {
	entry, err := b.entry(ctx, quizID)
	if err != nil {
		return nil, err
	}
	return append([]domain.Question(nil), entry.questions...), nil
}

func (b *CachedQuizBank) entry(ctx context.Context, quizID string) (cachedEntry, error) {
	now := b.clock()

	b.mu.RLock()
	if entry, ok := b.cache[quizID]; ok && entry.expiresAt.After(now) {
		b.mu.RUnlock()
		return entry, nil
	}
	b.mu.RUnlock()

	result, err, _ := b.sf.Do(quizID, func() (interface{}, error) {
		now := b.clock()
		b.mu.RLock()
		if entry, ok := b.cache[quizID]; ok && entry.expiresAt.After(now) {
			b.mu.RUnlock()
			return entry, nil
		}
		b.mu.RUnlock()

		quiz, err := b.source.GetQuiz(ctx, quizID)
		if err != nil {
			return cachedEntry{}, err
		}
		questions, err := b.source.GetQuestions(ctx, quizID)
		if err != nil {
			return cachedEntry{}, err
		}

		entry := cachedEntry{
			quiz:      quiz,
			questions: questions,
			expiresAt: now.Add(b.ttlWithJitter()),
		}
		b.mu.Lock()
		b.cache[quizID] = entry
		b.mu.Unlock()
		return entry, nil
	})
	if err != nil {
		return cachedEntry{}, err
	}
	return result.(cachedEntry), nil
}

func (b *CachedQuizBank) ttlWithJitter() time.Duration {
	if b.ttl <= 0 {
		return 0
	}
	// up to 10% jitter to spread expirations
	jitterMax := int64(b.ttl) / 10
	return b.ttl + time.Duration(b.rnd.Int63n(jitterMax+1))
}
