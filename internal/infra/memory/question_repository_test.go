package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"quizforge-session-service/internal/domain"
)

type countingLoader struct {
	mu    sync.Mutex
	calls int
	sets  map[string][]domain.Question
}

func (l *countingLoader) LoadQuestions(_ context.Context, filter domain.Filter) ([]domain.Question, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls++
	return l.sets[cacheKey(filter)], nil
}

func (l *countingLoader) callCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.calls
}

func TestGetQuestionsCachesPerFilter(t *testing.T) {
	loader := &countingLoader{sets: map[string][]domain.Question{
		"Historia|fácil": {{ID: 1, Prompt: "a", CorrectAnswer: "x"}},
		"|":              {{ID: 2, Prompt: "b", CorrectAnswer: "y"}, {ID: 3, Prompt: "c", CorrectAnswer: "z"}},
	}}
	repo := NewQuestionRepository(loader, time.Minute)
	ctx := context.Background()

	filtered := domain.Filter{Category: "Historia", Difficulty: "fácil"}
	first, err := repo.GetQuestions(ctx, filtered)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	second, err := repo.GetQuestions(ctx, filtered)
	if err != nil {
		t.Fatalf("cached get failed: %v", err)
	}
	if len(first) != 1 || len(second) != 1 || first[0].ID != second[0].ID {
		t.Fatalf("cache returned different sets: %v vs %v", first, second)
	}
	if loader.callCount() != 1 {
		t.Fatalf("expected 1 loader call, got %d", loader.callCount())
	}

	// A different filter is a different cache entry.
	all, err := repo.GetQuestions(ctx, domain.Filter{})
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 questions for the unfiltered set, got %d", len(all))
	}
	if loader.callCount() != 2 {
		t.Fatalf("expected 2 loader calls, got %d", loader.callCount())
	}
}

func TestGetQuestionsRefetchesAfterExpiry(t *testing.T) {
	loader := &countingLoader{sets: map[string][]domain.Question{
		"|": {{ID: 1, Prompt: "a", CorrectAnswer: "x"}},
	}}
	repo := NewQuestionRepository(loader, time.Minute)

	now := time.Now()
	repo.clock = func() time.Time { return now }

	ctx := context.Background()
	if _, err := repo.GetQuestions(ctx, domain.Filter{}); err != nil {
		t.Fatalf("get failed: %v", err)
	}

	// Jitter tops out at 10%, so two minutes is always past expiry.
	now = now.Add(2 * time.Minute)
	if _, err := repo.GetQuestions(ctx, domain.Filter{}); err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if loader.callCount() != 2 {
		t.Fatalf("expected refetch after expiry, got %d calls", loader.callCount())
	}
}

func TestGetQuestionsPropagatesLoaderError(t *testing.T) {
	repo := NewQuestionRepository(FailingQuestionLoader{}, time.Minute)
	_, err := repo.GetQuestions(context.Background(), domain.Filter{})
	if !errors.Is(err, domain.ErrQuestionFetch) {
		t.Fatalf("expected ErrQuestionFetch, got %v", err)
	}
}

func TestStaticLoaderCopiesSlice(t *testing.T) {
	base := []domain.Question{{ID: 1, Prompt: "a", CorrectAnswer: "x"}}
	loader := NewStaticQuestionLoader(base)

	got, err := loader.LoadQuestions(context.Background(), domain.Filter{Category: "ignored"})
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	got[0].Prompt = "mutated"
	again, _ := loader.LoadQuestions(context.Background(), domain.Filter{})
	if again[0].Prompt != "a" {
		t.Fatalf("loader handed out shared backing storage")
	}
}
