package session_test

import (
	"context"
	"errors"
	"math/rand"
	"sort"
	"sync"
	"testing"
	"time"

	"quizforge-session-service/internal/auth"
	"quizforge-session-service/internal/domain"
	"quizforge-session-service/internal/session"
)

func TestDisplayChoicesArePermutations(t *testing.T) {
	questions := sampleQuestions()
	eng := newTestEngine(&fakeSubmitter{}, 15)
	eng.Initialize(questions)
	defer eng.Close()

	snap := eng.Snapshot()
	if snap.TotalQuestions != len(questions) {
		t.Fatalf("expected %d questions, got %d", len(questions), snap.TotalQuestions)
	}

	// Walk the whole sequence, checking each question's choices.
	for i, q := range questions {
		if snap.CurrentIndex != i {
			t.Fatalf("expected index %d, got %d", i, snap.CurrentIndex)
		}
		got := append([]string(nil), snap.Question.Choices...)
		want := q.Choices()
		if len(got) != len(want) {
			t.Fatalf("question %d: expected %d choices, got %d", q.ID, len(want), len(got))
		}
		sort.Strings(got)
		sort.Strings(want)
		for j := range want {
			if got[j] != want[j] {
				t.Fatalf("question %d: choices %v are not a permutation of %v", q.ID, snap.Question.Choices, q.Choices())
			}
		}
		if _, ok := eng.SelectAnswer(q.ID, strptr(q.CorrectAnswer)); !ok {
			t.Fatalf("select answer for %d rejected", q.ID)
		}
		eng.Advance()
		snap = eng.Snapshot()
	}
}

func TestAdvanceRefusesUnansweredAndLastIndex(t *testing.T) {
	eng := newTestEngine(&fakeSubmitter{}, 15)
	eng.Initialize(sampleQuestions())
	defer eng.Close()

	if eng.Advance() {
		t.Fatalf("advance succeeded on unanswered question")
	}
	if snap := eng.Snapshot(); snap.CurrentIndex != 0 {
		t.Fatalf("index moved to %d without an answer", snap.CurrentIndex)
	}

	for _, q := range sampleQuestions() {
		eng.SelectAnswer(q.ID, strptr(q.CorrectAnswer))
		eng.Advance()
	}
	snap := eng.Snapshot()
	if snap.CurrentIndex != snap.TotalQuestions-1 {
		t.Fatalf("expected index pinned to last question, got %d", snap.CurrentIndex)
	}
	if eng.Advance() {
		t.Fatalf("advance succeeded past the last question")
	}
}

func TestSelectAnswerLocksFirstSelection(t *testing.T) {
	eng := newTestEngine(&fakeSubmitter{}, 15)
	eng.Initialize(sampleQuestions())
	defer eng.Close()

	first, ok := eng.SelectAnswer(1, strptr("Madrid"))
	if !ok {
		t.Fatalf("first selection rejected")
	}
	if first.Correct {
		t.Fatalf("wrong answer scored as correct")
	}

	if _, ok := eng.SelectAnswer(1, strptr("Paris")); ok {
		t.Fatalf("second selection accepted for a locked question")
	}
	snap := eng.Snapshot()
	if snap.SelectedAnswer == nil || *snap.SelectedAnswer != "Madrid" {
		t.Fatalf("recorded answer changed: %v", snap.SelectedAnswer)
	}
}

func TestCountdownExpiryRecordsNoAnswerOnce(t *testing.T) {
	eng := session.NewWithTick("s1", auth.Context{Token: "tok", UserID: 7}, &fakeSubmitter{}, 2,
		5*time.Millisecond, rand.New(rand.NewSource(1)))
	eng.Initialize(sampleQuestions()[:1])
	defer eng.Close()

	updates, cancel := eng.Subscribe()
	defer cancel()

	deadline := time.After(time.Second)
	for {
		select {
		case snap := <-updates:
			if snap.Answered {
				if snap.SelectedAnswer != nil {
					t.Fatalf("expected nil answer on timeout, got %v", *snap.SelectedAnswer)
				}
				// No further ticks may arrive for an answered question.
				remaining := snap.RemainingSeconds
				time.Sleep(30 * time.Millisecond)
				if got := eng.Snapshot().RemainingSeconds; got != remaining {
					t.Fatalf("countdown kept ticking after expiry: %d -> %d", remaining, got)
				}
				return
			}
		case <-deadline:
			t.Fatalf("timeout never recorded")
		}
	}
}

func TestSubmitBuildsOrderedBatch(t *testing.T) {
	submitter := &fakeSubmitter{summary: domain.AttemptSummary{UserID: 7, Correct: 1, Incorrect: 2, Percentage: "33.33"}}
	eng := newTestEngine(submitter, 15)
	eng.Initialize(sampleQuestions())
	defer eng.Close()

	// Q1 correct, Q2 timed out, Q3 wrong.
	eng.SelectAnswer(1, strptr("Paris"))
	eng.Advance()
	eng.SelectAnswer(2, nil)
	eng.Advance()
	eng.SelectAnswer(3, strptr("7"))

	summary, err := eng.Submit(context.Background())
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if summary.Correct != 1 || summary.Incorrect != 2 {
		t.Fatalf("summary not passed through: %+v", summary)
	}

	batch := submitter.lastBatch()
	if len(batch) != 3 {
		t.Fatalf("expected 3 attempts, got %d", len(batch))
	}
	for i, wantID := range []int{1, 2, 3} {
		if batch[i].QuestionID != wantID {
			t.Fatalf("attempt %d out of order: got question %d", i, batch[i].QuestionID)
		}
		if batch[i].UserID != 7 {
			t.Fatalf("attempt %d missing user id: %+v", i, batch[i])
		}
	}
	if !batch[0].IsCorrect || batch[0].SelectedAnswer == nil || *batch[0].SelectedAnswer != "Paris" {
		t.Fatalf("expected first attempt correct, got %+v", batch[0])
	}
	if batch[1].SelectedAnswer != nil || batch[1].IsCorrect {
		t.Fatalf("expected timed-out attempt nil/incorrect, got %+v", batch[1])
	}
	if batch[2].IsCorrect {
		t.Fatalf("expected wrong attempt incorrect, got %+v", batch[2])
	}
}

func TestSubmitIsIdempotentUnderConcurrency(t *testing.T) {
	submitter := &fakeSubmitter{delay: 20 * time.Millisecond}
	eng := newTestEngine(submitter, 15)
	eng.Initialize(sampleQuestions()[:1])
	defer eng.Close()
	eng.SelectAnswer(1, strptr("Paris"))

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = eng.Submit(context.Background())
		}(i)
	}
	wg.Wait()

	if submitter.callCount() != 1 {
		t.Fatalf("expected exactly one network submission, got %d", submitter.callCount())
	}
	rejected := 0
	for _, err := range errs {
		if errors.Is(err, domain.ErrAlreadySubmitted) {
			rejected++
		}
	}
	if rejected != 1 {
		t.Fatalf("expected exactly one rejected submit, got %d (errs=%v)", rejected, errs)
	}
}

func TestSubmitFailureRollsBackForRetry(t *testing.T) {
	submitter := &fakeSubmitter{err: &domain.ServerError{StatusCode: 500, Body: "boom"}}
	eng := newTestEngine(submitter, 15)
	eng.Initialize(sampleQuestions()[:1])
	defer eng.Close()
	eng.SelectAnswer(1, strptr("Paris"))

	if _, err := eng.Submit(context.Background()); !errors.Is(err, domain.ErrSubmission) {
		t.Fatalf("expected submission error, got %v", err)
	}
	if eng.Snapshot().Submitted {
		t.Fatalf("submitted flag not rolled back after failure")
	}

	submitter.setErr(nil)
	if _, err := eng.Submit(context.Background()); err != nil {
		t.Fatalf("retry failed: %v", err)
	}
	if !eng.Snapshot().Submitted {
		t.Fatalf("retry did not mark session submitted")
	}
	if submitter.callCount() != 2 {
		t.Fatalf("expected 2 submissions, got %d", submitter.callCount())
	}
}

func TestEmptySessionIsTerminalAndSubmittable(t *testing.T) {
	submitter := &fakeSubmitter{}
	eng := newTestEngine(submitter, 15)
	eng.Initialize(nil)
	defer eng.Close()

	snap := eng.Snapshot()
	if !snap.NoQuestions || snap.Question != nil {
		t.Fatalf("expected terminal no-questions state, got %+v", snap)
	}
	if eng.Advance() {
		t.Fatalf("advance succeeded on empty session")
	}
	if _, err := eng.Submit(context.Background()); err != nil {
		t.Fatalf("empty submit failed: %v", err)
	}
	if got := submitter.lastBatch(); len(got) != 0 {
		t.Fatalf("expected empty batch, got %v", got)
	}
}

func TestSelectAnswerInertAfterSubmit(t *testing.T) {
	eng := newTestEngine(&fakeSubmitter{}, 15)
	eng.Initialize(sampleQuestions()[:1])
	defer eng.Close()

	eng.SelectAnswer(1, nil)
	if _, err := eng.Submit(context.Background()); err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if _, ok := eng.SelectAnswer(1, strptr("Paris")); ok {
		t.Fatalf("selection accepted after submit")
	}
}

func newTestEngine(submitter session.Submitter, seconds int) *session.Engine {
	return session.NewWithTick("s1", auth.Context{Token: "tok", UserID: 7}, submitter, seconds,
		time.Hour, rand.New(rand.NewSource(1)))
}

func sampleQuestions() []domain.Question {
	return []domain.Question{
		{ID: 1, Prompt: "Capital of France?", CorrectAnswer: "Paris", IncorrectAnswers: []string{"Madrid", "Rome", "Berlin"}},
		{ID: 2, Prompt: "Largest ocean?", CorrectAnswer: "Pacific", IncorrectAnswers: []string{"Atlantic", "Indian", "Arctic"}},
		{ID: 3, Prompt: "3 x 3?", CorrectAnswer: "9", IncorrectAnswers: []string{"6", "7", "12"}},
	}
}

func strptr(s string) *string { return &s }

type fakeSubmitter struct {
	mu      sync.Mutex
	calls   int
	batches [][]domain.ScoredAttempt
	delay   time.Duration
	err     error
	summary domain.AttemptSummary
}

func (f *fakeSubmitter) SubmitAttempts(_ context.Context, _ string, batch []domain.ScoredAttempt) (domain.AttemptSummary, error) {
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	f.mu.Lock()
	f.calls++
	f.batches = append(f.batches, batch)
	err := f.err
	summary := f.summary
	f.mu.Unlock()
	if err != nil {
		return domain.AttemptSummary{}, err
	}
	return summary, nil
}

func (f *fakeSubmitter) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func (f *fakeSubmitter) lastBatch() []domain.ScoredAttempt {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.batches) == 0 {
		return nil
	}
	return f.batches[len(f.batches)-1]
}

func (f *fakeSubmitter) setErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}
