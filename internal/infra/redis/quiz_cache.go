package redis

import (
	"context"
	"encoding/json"
	"math/rand"
	"time"

	"campus-quiz-service/internal/app"
	"campus-quiz-service/internal/domain"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// QuizCache caches the whole quiz document (metadata + questions, answer
// keys included) in Redis and falls back to the backing bank on a miss.
// The cached form is server-side only; sanitization happens in the service
// layer, so answers never reach clients from here either.
//
// Stored as: SET quiz:{quizID}:doc {json} with a jittered TTL.
type QuizCache struct {
	client *redis.Client
	source app.QuizBank
	ttl    time.Duration
	sf     singleflight.Group
	rnd    *rand.Rand
}

type quizDoc struct {
	Quiz      domain.Quiz       `json:"quiz"`
	Questions []domain.Question `json:"questions"`
}

func NewQuizCache(client *redis.Client, source app.QuizBank, ttl time.Duration) *QuizCache {
	return &QuizCache{
		client: client,
		source: source,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// ListQuizzes always hits the source; list rows carry per-user derived
// state that must not be cached cross-user.
func (c *QuizCache) ListQuizzes(ctx context.Context) ([]domain.Quiz, error) {
	return c.source.ListQuizzes(ctx)
}

func (c *QuizCache) GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	doc, err := c.doc(ctx, quizID)
	if err != nil {
		return domain.Quiz{}, err
	}
	return doc.Quiz, nil
}

func (c *QuizCache) GetQuestions(ctx context.Context, quizID string) ([]domain.Question, error) {
	doc, err := c.doc(ctx, quizID)
	if err != nil {
		return nil, err
	}
	return doc.Questions, nil
}

func (c *QuizCache) doc(ctx context.Context, quizID string) (quizDoc, error) {
	key := c.key(quizID)

	if raw, err := c.client.Get(ctx, key).Bytes(); err == nil {
		var doc quizDoc
		if err := json.Unmarshal(raw, &doc); err == nil {
			return doc, nil
		}
	}

	result, err, _ := c.sf.Do(quizID, func() (interface{}, error) {
		// Re-check in case another goroutine filled it.
		if raw, err := c.client.Get(ctx, key).Bytes(); err == nil {
			var doc quizDoc
			if err := json.Unmarshal(raw, &doc); err == nil {
				return doc, nil
			}
		}

		quiz, err := c.source.GetQuiz(ctx, quizID)
		if err != nil {
			return quizDoc{}, err
		}
		questions, err := c.source.GetQuestions(ctx, quizID)
		if err != nil {
			return quizDoc{}, err
		}
		doc := quizDoc{Quiz: quiz, Questions: questions}

		if raw, err := json.Marshal(doc); err == nil {
			// best-effort fill; a cache write failure is not a load failure
			_ = c.client.Set(ctx, key, raw, c.ttlWithJitter()).Err()
		}
		return doc, nil
	})
	if err != nil {
		return quizDoc{}, err
	}
	return result.(quizDoc), nil
}

// Invalidate drops the cached document, e.g. after reseeding a quiz.
func (c *QuizCache) Invalidate(ctx context.Context, quizID string) {
	_ = c.client.Del(ctx, c.key(quizID)).Err()
}

func (c *QuizCache) key(quizID string) string {
	return "quiz:" + quizID + ":doc"
}

func (c *QuizCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
