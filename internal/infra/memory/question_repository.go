package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"quizforge-session-service/internal/domain"
)

// QuestionLoader fetches question sets from a backing store (backend HTTP API,
// Postgres, a static fixture).
type QuestionLoader interface {
	LoadQuestions(ctx context.Context, filter domain.Filter) ([]domain.Question, error)
}

// QuestionRepository caches question sets per filter with TTL to avoid
// re-fetching the bank for every session.
type QuestionRepository struct {
	loader QuestionLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group
	rnd    *rand.Rand

	mu    sync.RWMutex
	cache map[string]cachedSet
}

type cachedSet struct {
	questions []domain.Question
	expiresAt time.Time
}

func NewQuestionRepository(loader QuestionLoader, ttl time.Duration) *QuestionRepository {
	return &QuestionRepository{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:  make(map[string]cachedSet),
	}
}

func (r *QuestionRepository) GetQuestions(ctx context.Context, filter domain.Filter) ([]domain.Question, error) {
	key := cacheKey(filter)
	now := r.clock()

	r.mu.RLock()
	if entry, ok := r.cache[key]; ok && entry.expiresAt.After(now) {
		r.mu.RUnlock()
		return entry.questions, nil
	}
	r.mu.RUnlock()

	result, err, _ := r.sf.Do(key, func() (interface{}, error) {
		now := r.clock()
		r.mu.RLock()
		if entry, ok := r.cache[key]; ok && entry.expiresAt.After(now) {
			r.mu.RUnlock()
			return entry.questions, nil
		}
		r.mu.RUnlock()

		questions, err := r.loader.LoadQuestions(ctx, filter)
		if err != nil {
			return nil, err
		}

		r.mu.Lock()
		r.cache[key] = cachedSet{
			questions: questions,
			expiresAt: now.Add(r.ttlWithJitter()),
		}
		r.mu.Unlock()
		return questions, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Question), nil
}

func (r *QuestionRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(r.ttl) / 10
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}

func cacheKey(filter domain.Filter) string {
	return filter.Category + "|" + filter.Difficulty
}

// StaticQuestionLoader serves a fixed question list (useful for tests/demos).
// Filters are ignored.
type StaticQuestionLoader struct {
	questions []domain.Question
}

func NewStaticQuestionLoader(questions []domain.Question) *StaticQuestionLoader {
	return &StaticQuestionLoader{questions: questions}
}

func (l *StaticQuestionLoader) LoadQuestions(_ context.Context, _ domain.Filter) ([]domain.Question, error) {
	out := make([]domain.Question, len(l.questions))
	copy(out, l.questions)
	return out, nil
}

// FailingQuestionLoader always reports a fetch failure (useful for tests of
// the empty-session degradation path).
type FailingQuestionLoader struct{}

func (FailingQuestionLoader) LoadQuestions(_ context.Context, _ domain.Filter) ([]domain.Question, error) {
	return nil, domain.ErrQuestionFetch
}
